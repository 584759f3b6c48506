package main

import (
	"io"
	"log"
	"os"

	"github.com/go-echarts/statsview"
	"github.com/go-echarts/statsview/viewer"

	"nesemu/internal/app"
	"nesemu/internal/debug"
)

// launchStatsView serves runtime charts (heap, GC, goroutines) in the background
func launchStatsView(addr string) {
	viewer.SetConfiguration(viewer.WithAddr(addr))
	mgr := statsview.New()
	go mgr.Start()
	log.Printf("[APP] stats server available at http://%s/debug/statsview", addr)
}

type tracer struct {
	*debug.Tracer
	closer io.Closer
}

// newTracer builds an enabled CPU tracer writing where the config says.
// An unopenable trace file falls back to stderr.
func newTracer(config *app.Config) tracer {
	var t tracer
	var w io.Writer = os.Stderr
	if path := config.Debug.TracePath; path != "" {
		file, err := os.Create(path)
		if err != nil {
			log.Printf("[APP] cannot open trace file, tracing to stderr: %v", err)
		} else {
			w = file
			t.closer = file
		}
	}
	t.Tracer = debug.NewTracer(w)
	t.Tracer.SetLimit(config.Debug.TraceLimit)
	t.Tracer.SetEnabled(true)
	return t
}

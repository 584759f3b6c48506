package cpu

import "testing"

func TestInstructionCycles(t *testing.T) {
	tests := []struct {
		name    string
		program []uint8
		setup   func(*CPU)
		cycles  uint64
	}{
		{"LDA immediate", []uint8{0xA9, 0x01}, nil, 2},
		{"LDA absolute", []uint8{0xAD, 0x00, 0x02}, nil, 4},
		{"LDA abs,X no cross", []uint8{0xBD, 0x00, 0x02}, func(c *CPU) { c.X = 0x10 }, 4},
		{"LDA abs,X cross", []uint8{0xBD, 0xF8, 0x02}, func(c *CPU) { c.X = 0x10 }, 5},
		{"LDA (zp),Y cross", []uint8{0xB1, 0x40}, func(c *CPU) { c.Y = 0xFF }, 6},
		{"STA abs,X cross never adds", []uint8{0x9D, 0xF8, 0x02}, func(c *CPU) { c.X = 0x10 }, 5},
		{"INC abs,X cross never adds", []uint8{0xFE, 0xF8, 0x02}, func(c *CPU) { c.X = 0x10 }, 7},
		{"NOP abs,X cross", []uint8{0x1C, 0xF8, 0x02}, func(c *CPU) { c.X = 0x10 }, 5},
		{"LAX abs,Y cross", []uint8{0xBF, 0xF8, 0x02}, func(c *CPU) { c.Y = 0x10 }, 5},
		{"DCP abs,Y cross", []uint8{0xDB, 0xF8, 0x02}, func(c *CPU) { c.Y = 0x10 }, 7},
		{"JSR", []uint8{0x20, 0x00, 0x90}, nil, 6},
		{"BRK", []uint8{0x00}, nil, 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewCPUTestHelper()
			h.Memory.SetBytes(0x0040, 0x10, 0x02) // pointer for (zp),Y
			if tt.setup != nil {
				tt.setup(h.CPU)
			}
			h.LoadProgram(tt.program...)
			if got := h.Step(t); got != tt.cycles {
				t.Errorf("Expected %d cycles, got %d", tt.cycles, got)
			}
		})
	}
}

func TestBranchTiming(t *testing.T) {
	tests := []struct {
		name   string
		start  uint16
		offset uint8
		zero   bool
		cycles uint64
		pc     uint16
	}{
		{"not taken", 0x8000, 0x10, false, 2, 0x8002},
		{"taken same page", 0x8000, 0x10, true, 3, 0x8012},
		{"taken forward across page", 0x80F0, 0x20, true, 4, 0x8112},
		{"taken backward across page", 0x8100, 0xF0, true, 4, 0x80F2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewCPUTestHelper()
			h.CPU.PC = tt.start
			h.CPU.Z = tt.zero
			h.LoadProgram(0xF0, tt.offset) // BEQ
			if got := h.Step(t); got != tt.cycles {
				t.Errorf("Expected %d cycles, got %d", tt.cycles, got)
			}
			if h.CPU.PC != tt.pc {
				t.Errorf("Expected PC=0x%04X, got 0x%04X", tt.pc, h.CPU.PC)
			}
		})
	}
}

func TestStallIsBilledOnNextStep(t *testing.T) {
	h := NewCPUTestHelper()
	h.LoadProgram(0xEA, 0xEA)
	start := h.CPU.Cycles()

	h.CPU.AddStall(514)
	if got := h.Step(t); got != 516 {
		t.Errorf("Expected NOP plus 514 stall cycles = 516, got %d", got)
	}
	if got := h.Step(t); got != 2 {
		t.Errorf("Stall should be consumed once, got %d", got)
	}
	if h.CPU.Cycles()-start != 518 {
		t.Errorf("Cycle counter advanced %d, expected 518", h.CPU.Cycles()-start)
	}
}

func TestCycleCounterSumsInstructionCosts(t *testing.T) {
	h := NewCPUTestHelper()
	// LDA #$42; STA $0300; JMP $8005
	h.LoadProgram(0xA9, 0x42, 0x8D, 0x00, 0x03, 0x4C, 0x05, 0x80)
	start := h.CPU.Cycles()

	var total uint64
	for i := 0; i < 4; i++ {
		total += h.Step(t)
	}
	if total != 2+4+3+3 {
		t.Errorf("Expected 12 cycles, got %d", total)
	}
	if h.CPU.Cycles()-start != total {
		t.Errorf("Cycle counter mismatch: %d vs %d", h.CPU.Cycles()-start, total)
	}
	h.AssertMemory(t, "STA", 0x0300, 0x42)
}

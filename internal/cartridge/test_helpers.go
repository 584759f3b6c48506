package cartridge

// ROMOptions describes a synthetic iNES image for tests in this and other packages
type ROMOptions struct {
	Mapper   uint8
	PRGBanks int // 16KB units, at least 1
	CHRBanks int // 8KB units, 0 for CHR RAM
	Vertical bool
	Battery  bool
	Trainer  bool

	// PRG is copied to the start of PRG ROM; the reset vector is patched
	// to ResetVector when it is non-zero.
	PRG         []uint8
	ResetVector uint16
	NMIVector   uint16
	IRQVector   uint16
}

// BuildINES assembles an iNES image. Each PRG bank is filled with its own
// bank number and each 1KB of CHR with its 1KB bank number so tests can
// tell which bank answers.
func BuildINES(opts ROMOptions) []byte {
	if opts.PRGBanks == 0 {
		opts.PRGBanks = 1
	}

	flags6 := opts.Mapper << 4
	if opts.Vertical {
		flags6 |= 0x01
	}
	if opts.Battery {
		flags6 |= 0x02
	}
	if opts.Trainer {
		flags6 |= 0x04
	}
	header := []byte{'N', 'E', 'S', 0x1A, uint8(opts.PRGBanks), uint8(opts.CHRBanks), flags6, opts.Mapper & 0xF0,
		0, 0, 0, 0, 0, 0, 0, 0}

	data := append([]byte(nil), header...)
	if opts.Trainer {
		data = append(data, make([]byte, trainerSize)...)
	}

	prg := make([]byte, opts.PRGBanks*prgBankSize)
	for i := range prg {
		prg[i] = uint8(i / prgBankSize)
	}
	copy(prg, opts.PRG)
	vectors := []struct {
		at  int
		val uint16
	}{{0x3FFA, opts.NMIVector}, {0x3FFC, opts.ResetVector}, {0x3FFE, opts.IRQVector}}
	lastBank := (opts.PRGBanks - 1) * prgBankSize
	for _, v := range vectors {
		if v.val != 0 {
			prg[lastBank+v.at] = uint8(v.val)
			prg[lastBank+v.at+1] = uint8(v.val >> 8)
		}
	}
	data = append(data, prg...)

	chr := make([]byte, opts.CHRBanks*chrBankSize)
	for i := range chr {
		chr[i] = uint8(i / 0x400)
	}
	return append(data, chr...)
}

// MustLoad builds and parses an image, panicking on error
func MustLoad(opts ROMOptions) *Cartridge {
	cart, err := LoadFromBytes(BuildINES(opts))
	if err != nil {
		panic(err)
	}
	return cart
}

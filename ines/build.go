package ines

// Builder describes a rom to be assembled in memory. It's mostly useful to
// craft roms in tests.
type Builder struct {
	Mapper    uint16
	Mirroring NTMirroring
	Battery   bool
	Trainer   []byte
	PRG       []byte // padded to a multiple of 16KB
	CHR       []byte // padded to a multiple of 8KB, empty means CHR RAM
}

// Rom assembles the rom described by b.
func (b Builder) Rom() *Rom {
	pad := func(p []byte, unit int) []byte {
		n := (len(p) + unit - 1) / unit * unit
		out := make([]byte, n)
		copy(out, p)
		return out
	}

	rom := &Rom{
		Trainer: b.Trainer,
		PRG:     pad(b.PRG, PRGBankSize),
		CHR:     pad(b.CHR, CHRBankSize),
	}
	copy(rom.raw[:], Magic)
	rom.raw[4] = uint8(len(rom.PRG) / PRGBankSize)
	rom.raw[5] = uint8(len(rom.CHR) / CHRBankSize)
	rom.raw[6] = uint8(b.Mapper&0x0f) << 4
	rom.raw[7] = uint8(b.Mapper & 0xf0)
	switch b.Mirroring {
	case VertMirroring:
		rom.raw[6] |= 0x01
	case FourScreen:
		rom.raw[6] |= 0x08
	}
	if b.Battery {
		rom.raw[6] |= 0x02
	}
	if len(b.Trainer) != 0 {
		rom.raw[6] |= 0x04
	}
	rom.prgsz = len(rom.PRG)
	rom.chrsz = len(rom.CHR)
	return rom
}

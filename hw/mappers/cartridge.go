package mappers

import (
	"nescore/ines"
)

// Cartridge holds the memories of a game cartridge and the mapper deciding
// how they're seen by the CPU and the PPU.
type Cartridge struct {
	Mapper Mapper

	PRGROM []byte
	PRGRAM []byte // 8KB at $6000-$7FFF
	CHR    []byte // CHR-ROM, or CHR-RAM if CHRRAM is set
	CHRRAM bool

	// Battery reports whether PRGRAM is battery-backed.
	Battery bool

	busConflicts bool
}

func newCartridge(rom *ines.Rom) *Cartridge {
	cart := &Cartridge{
		PRGROM:  rom.PRG,
		PRGRAM:  make([]byte, 0x2000),
		CHR:     rom.CHR,
		Battery: rom.HasPersistent(),
	}
	if len(cart.CHR) == 0 {
		cart.CHR = make([]byte, 0x2000)
		cart.CHRRAM = true
	}
	if len(rom.Trainer) != 0 {
		// The trainer is loaded at $7000.
		copy(cart.PRGRAM[0x1000:], rom.Trainer)
	}
	return cart
}

// ReadPRG reads the CPU address space from $4020 to $FFFF. It reports false
// if nothing drives the data bus at that address.
func (c *Cartridge) ReadPRG(addr uint16) (uint8, bool) {
	switch {
	case addr >= 0x8000:
		return c.PRGROM[c.Mapper.MapPRG(addr)], true
	case addr >= 0x6000:
		if !c.Mapper.PRGRAMEnabled() {
			return 0, false
		}
		return c.PRGRAM[addr&0x1fff], true
	}
	return 0, false
}

// WritePRG writes the CPU address space from $4020 to $FFFF.
func (c *Cartridge) WritePRG(addr uint16, val uint8) {
	switch {
	case addr >= 0x8000:
		if c.busConflicts {
			val &= c.PRGROM[c.Mapper.MapPRG(addr)]
		}
		c.Mapper.WriteRegister(addr, val)
	case addr >= 0x6000:
		if c.Mapper.PRGRAMEnabled() {
			c.PRGRAM[addr&0x1fff] = val
		}
	default:
		modMapper.DebugZ("unmapped write").String("mapper", c.Mapper.Name()).Hex16("addr", addr).Hex8("val", val).End()
	}
}

// ReadCHR reads the pattern tables ($0000-$1FFF in the PPU address space).
func (c *Cartridge) ReadCHR(addr uint16) uint8 {
	return c.CHR[c.Mapper.MapCHR(addr)]
}

// WriteCHR writes the pattern tables, if they're RAM.
func (c *Cartridge) WriteCHR(addr uint16, val uint8) {
	if c.CHRRAM {
		c.CHR[c.Mapper.MapCHR(addr)] = val
	}
}

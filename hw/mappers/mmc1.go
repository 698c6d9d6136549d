package mappers

import (
	"nescore/ines"
)

var MMC1 = MapperDesc{
	Name: "MMC1",
	Load: loadMMC1,
}

type mmc1 struct {
	*base

	regs struct {
		Serial  uint8 // shift register
		Counter uint8 // count of bits shifted

		Ctrl uint8
		CHR0 uint8
		CHR1 uint8
		PRG  uint8
	}
}

func (m *mmc1) WriteRegister(addr uint16, val uint8) {
	if val&0x80 != 0 {
		// Reset bit set:
		//	- ignore data bit
		//	- reset shift register (so that the next write is the "first" write)
		//	- bits 2,3 of control reg are set (16k PRG mode, $8000 swappable)
		//	- other bits of $8000 (and other regs) are unchanged
		m.regs.Serial = 0
		m.regs.Counter = 0
		m.regs.Ctrl |= 0x0C
		m.remap()
		return
	}

	m.regs.Serial = (m.regs.Serial >> 1) | ((val & 1) << 4)
	m.regs.Counter++
	if m.regs.Counter == 5 {
		m.writeREG(addr, m.regs.Serial)
		m.regs.Serial = 0
		m.regs.Counter = 0
		m.remap()
	}
}

// the register is selected by address bits 13 and 14 of the 5th write.
func (m *mmc1) writeREG(addr uint16, val uint8) {
	switch (addr & 0x6000) >> 13 {
	case 0:
		m.regs.Ctrl = val
		modMapper.DebugZ("write CTRL reg").String("mapper", m.desc.Name).Hex8("val", val).End()
	case 1:
		m.regs.CHR0 = val
		modMapper.DebugZ("write CHR0 reg").String("mapper", m.desc.Name).Hex8("val", val).End()
	case 2:
		m.regs.CHR1 = val
		modMapper.DebugZ("write CHR1 reg").String("mapper", m.desc.Name).Hex8("val", val).End()
	case 3:
		// $E000-FFFF:  [...W PPPP]
		// W = WRAM Disable (0=enabled, 1=disabled)
		// P = PRG Reg
		m.regs.PRG = val
		modMapper.DebugZ("write PRG reg").String("mapper", m.desc.Name).Hex8("val", val).End()
	}
}

func (m *mmc1) remap() {
	switch m.regs.Ctrl & 0x03 {
	case 0:
		m.setNTMirroring(ines.OnlyAScreen)
	case 1:
		m.setNTMirroring(ines.OnlyBScreen)
	case 2:
		m.setNTMirroring(ines.VertMirroring)
	case 3:
		m.setNTMirroring(ines.HorzMirroring)
	}

	prgbank := int(m.regs.PRG & 0x0F)
	switch (m.regs.Ctrl >> 2) & 0x03 {
	case 0, 1:
		// 32KB mode, ignore low bit of bank number.
		m.selectPRGPage32KB(prgbank >> 1)
	case 2:
		// first bank fixed at $8000, switch 16 KB bank at $C000.
		m.selectPRGPage16KB(0, 0)
		m.selectPRGPage16KB(1, prgbank)
	case 3:
		// switch 16 KB bank at $8000, last bank fixed at $C000.
		m.selectPRGPage16KB(0, prgbank)
		m.selectPRGPage16KB(1, -1)
	}

	if m.regs.Ctrl&0x10 == 0 {
		// 8KB mode, ignore low bit of bank number.
		m.selectCHRPage8KB(int(m.regs.CHR0 >> 1))
	} else {
		m.selectCHRPage4KB(0, int(m.regs.CHR0))
		m.selectCHRPage4KB(1, int(m.regs.CHR1))
	}
}

func (m *mmc1) PRGRAMEnabled() bool {
	return m.regs.PRG&0x10 == 0
}

func loadMMC1(b *base) Mapper {
	mmc1 := &mmc1{base: b}
	b.regs = &mmc1.regs

	// On powerup: bits 2,3 of $8000 are set (this ensures the $8000 is bank 0,
	// and $C000 is the last bank - needed for SEROM/SHROM/SH1ROM which do no
	// support banking)
	mmc1.regs.Ctrl = 0x0C
	mmc1.remap()
	return mmc1
}

package mappers

import (
	"nescore/ines"
)

var AxROM = MapperDesc{
	Name:            "AxROM",
	Load:            loadAxROM,
	HasBusConflicts: hasSubmapper2,
}

type axrom struct {
	*base

	regs struct {
		PRGBank uint8
	}
}

func (m *axrom) WriteRegister(addr uint16, val uint8) {
	// 7  bit  0
	// ---- ----
	// xxxM xPPP
	//    |  |||
	//    |  +++- Select 32 KB PRG ROM bank for CPU $8000-$FFFF
	//    +------ Select 1 KB VRAM page for all 4 nametables
	prev := m.regs.PRGBank
	m.regs.PRGBank = val & 0x7
	if prev != m.regs.PRGBank {
		m.selectPRGPage32KB(int(m.regs.PRGBank))
		modMapper.DebugZ("PRGROM bank switch").String("mapper", m.desc.Name).Uint8("prev", prev).Uint8("new", m.regs.PRGBank).End()
	}

	if val&0x10 == 0x10 {
		m.setNTMirroring(ines.OnlyBScreen)
	} else {
		m.setNTMirroring(ines.OnlyAScreen)
	}
}

func loadAxROM(b *base) Mapper {
	axrom := &axrom{base: b}
	b.regs = &axrom.regs

	b.ntm = ines.OnlyAScreen
	b.selectCHRPage8KB(0)
	b.selectPRGPage32KB(0)
	return axrom
}

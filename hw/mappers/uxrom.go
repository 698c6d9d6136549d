package mappers

var UxROM = MapperDesc{
	Name:            "UxROM",
	Load:            loadUxROM,
	HasBusConflicts: hasSubmapper2,
}

type uxrom struct {
	*base

	regs struct {
		PRGBank uint8
	}
}

func (m *uxrom) WriteRegister(addr uint16, val uint8) {
	// 7  bit  0
	// ---- ----
	// xxxx pPPP
	//      ||||
	//      ++++- Select 16 KB PRG ROM bank for CPU $8000-$BFFF
	//            (UNROM uses bits 2-0; UOROM uses bits 3-0)
	prev := m.regs.PRGBank
	m.regs.PRGBank = val & 0x0f
	if prev != m.regs.PRGBank {
		m.selectPRGPage16KB(0, int(m.regs.PRGBank))
		modMapper.DebugZ("PRGROM bank switch").String("mapper", m.desc.Name).Uint8("prev", prev).Uint8("new", m.regs.PRGBank).End()
	}
}

func loadUxROM(b *base) Mapper {
	uxrom := &uxrom{base: b}
	b.regs = &uxrom.regs

	b.selectCHRPage8KB(0)
	b.selectPRGPage16KB(0, 0)
	b.selectPRGPage16KB(1, -1)
	return uxrom
}

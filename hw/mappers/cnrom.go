package mappers

var CNROM = MapperDesc{
	Name:            "CNROM",
	Load:            loadCNROM,
	HasBusConflicts: hasSubmapper2,
}

type cnrom struct {
	*base

	regs struct {
		CHRBank uint8
	}
}

func (m *cnrom) WriteRegister(addr uint16, val uint8) {
	// 7  bit  0
	// ---- ----
	// cccc ccCC
	// |||| ||||
	// ++++-++++- Select 8 KB CHR ROM bank for PPU $0000-$1FFF
	// CNROM only uses lowest 2 bits
	prev := m.regs.CHRBank
	m.regs.CHRBank = val & 0b11
	if prev != m.regs.CHRBank {
		m.selectCHRPage8KB(int(m.regs.CHRBank))
		modMapper.DebugZ("CHRROM bank switch").String("mapper", m.desc.Name).Uint8("prev", prev).Uint8("new", m.regs.CHRBank).End()
	}
}

func loadCNROM(b *base) Mapper {
	cnrom := &cnrom{base: b}
	b.regs = &cnrom.regs

	b.selectPRGPage32KB(0)
	b.selectCHRPage8KB(0)
	return cnrom
}

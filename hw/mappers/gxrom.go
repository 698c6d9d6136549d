package mappers

var GxROM = MapperDesc{
	Name: "GxROM",
	Load: loadGxROM,
}

type gxrom struct {
	*base

	regs struct {
		CHRBank uint8
		PRGBank uint8
	}
}

func (m *gxrom) WriteRegister(addr uint16, val uint8) {
	// 7  bit  0
	// ---- ----
	// xxPP xxCC
	//   ||   ||
	//   ||   ++- Select 8 KB CHR ROM bank for PPU $0000-$1FFF
	//   ++------ Select 32 KB PRG ROM bank for CPU $8000-$FFFF
	prevchr := m.regs.CHRBank
	m.regs.CHRBank = val & 0x3
	if prevchr != m.regs.CHRBank {
		m.selectCHRPage8KB(int(m.regs.CHRBank))
		modMapper.DebugZ("CHRROM bank switch").String("mapper", m.desc.Name).Uint8("prev", prevchr).Uint8("new", m.regs.CHRBank).End()
	}

	prevprg := m.regs.PRGBank
	m.regs.PRGBank = (val >> 4) & 0x3
	if prevprg != m.regs.PRGBank {
		m.selectPRGPage32KB(int(m.regs.PRGBank))
		modMapper.DebugZ("PRGROM bank switch").String("mapper", m.desc.Name).Uint8("prev", prevprg).Uint8("new", m.regs.PRGBank).End()
	}
}

func loadGxROM(b *base) Mapper {
	gxrom := &gxrom{base: b}
	b.regs = &gxrom.regs

	b.selectPRGPage32KB(0)
	b.selectCHRPage8KB(0)
	return gxrom
}

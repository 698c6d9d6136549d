package mappers

var NROM = MapperDesc{
	Name: "NROM",
	Load: loadNROM,
}

type nrom struct {
	*base
}

// NROM has no registers.
func (m *nrom) WriteRegister(addr uint16, val uint8) {
	modMapper.DebugZ("write to ROM").String("mapper", m.desc.Name).Hex16("addr", addr).Hex8("val", val).End()
}

func loadNROM(b *base) Mapper {
	// 16KB roms are mirrored at $C000.
	b.selectPRGPage16KB(0, 0)
	b.selectPRGPage16KB(1, -1)
	b.selectCHRPage8KB(0)
	return &nrom{base: b}
}

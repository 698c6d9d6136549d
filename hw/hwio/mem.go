package hwio

import (
	"nescore/emu/log"
)

type MemFlags int

const (
	MemFlagReadWrite MemFlags = 0
	MemFlag8ReadOnly MemFlags = (1 << iota) // read-only accesses
	MemFlagNoROLog                          // skip logging writes to read-only memory
)

// Mem is a linear memory area, mirrored over any address range larger than
// its power-of-2 size.
type Mem struct {
	Name  string   // name of the memory area (for debugging)
	Data  []byte   // actual memory buffer
	Flags MemFlags // determines how the memory can be accessed

	mask uint16
}

// NewMem allocates a memory area of the given size, which must be a power of 2.
func NewMem(name string, size int, flags MemFlags) *Mem {
	if size&(size-1) != 0 {
		panic("memory buffer size is not pow2")
	}
	return &Mem{
		Name:  name,
		Data:  make([]byte, size),
		Flags: flags,
		mask:  uint16(size - 1),
	}
}

func (m *Mem) Read8(addr uint16) uint8 {
	return m.Data[addr&m.mask]
}

func (m *Mem) Peek8(addr uint16) uint8 {
	return m.Data[addr&m.mask]
}

func (m *Mem) Write8(addr uint16, val uint8) {
	switch {
	case m.Flags&MemFlag8ReadOnly == 0:
		m.Data[addr&m.mask] = val
	case m.Flags&MemFlagNoROLog != 0:
	default:
		log.ModHwIo.DebugZ("write to readonly memory").
			String("name", m.Name).
			Hex16("addr", addr).
			Hex8("val", val).
			End()
	}
}

// Load copies buf at the start of the memory area.
func (m *Mem) Load(buf []byte) {
	copy(m.Data, buf)
}

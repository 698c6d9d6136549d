package hwio

import (
	"fmt"

	"nescore/emu/log"
)

type RWFlags uint8

const (
	ReadWriteFlag RWFlags = 0
	ReadOnlyFlag  RWFlags = (1 << iota)
	WriteOnlyFlag
)

// Reg8 is an 8-bit memory-mapped register. Bits set in RoMask can't be
// modified by writes. Callbacks, when set, are invoked on every access.
type Reg8 struct {
	Name   string
	Value  uint8
	RoMask uint8

	Flags   RWFlags
	ReadCb  func(val uint8) uint8
	PeekCb  func(val uint8) uint8
	WriteCb func(old uint8, val uint8)
}

func (reg Reg8) String() string {
	s := fmt.Sprintf("%s{%02x", reg.Name, reg.Value)
	if reg.ReadCb != nil {
		s += ",r!"
	}
	if reg.WriteCb != nil {
		s += ",w!"
	}
	return s + "}"
}

// Write8 writes val, honoring RoMask. It reports false, and changes nothing,
// if the register is read-only.
func (reg *Reg8) Write8(addr uint16, val uint8) bool {
	if reg.Flags&ReadOnlyFlag != 0 {
		log.ModHwIo.DebugZ("write to readonly reg").
			String("name", reg.Name).
			Hex16("addr", addr).
			Hex8("val", val).
			End()
		return false
	}
	old := reg.Value
	reg.Value = (reg.Value & reg.RoMask) | (val &^ reg.RoMask)
	if reg.WriteCb != nil {
		reg.WriteCb(old, reg.Value)
	}
	return true
}

// Read8 reads the register value. It reports false if the register is
// write-only, in which case the caller should return open bus.
func (reg *Reg8) Read8(addr uint16) (uint8, bool) {
	if reg.Flags&WriteOnlyFlag != 0 {
		log.ModHwIo.DebugZ("read from writeonly reg").
			String("name", reg.Name).
			Hex16("addr", addr).
			End()
		return 0, false
	}
	if reg.ReadCb != nil {
		return reg.ReadCb(reg.Value), true
	}
	return reg.Value, true
}

// Peek8 reads the register without side effects.
func (reg *Reg8) Peek8(addr uint16) uint8 {
	if reg.PeekCb != nil {
		return reg.PeekCb(reg.Value)
	}
	return reg.Value
}

func (reg *Reg8) GetBit(n uint) bool  { return GetBit8(reg.Value, n) }
func (reg *Reg8) GetBiti(n uint) uint8 { return GetBiti8(reg.Value, n) }
func (reg *Reg8) SetBit(n uint)       { SetBit8(&reg.Value, n) }
func (reg *Reg8) ClearBit(n uint)     { ClearBit8(&reg.Value, n) }

// SetBitv sets bit n if v, otherwise clears it.
func (reg *Reg8) SetBitv(n uint, v bool) {
	if v {
		reg.SetBit(n)
	} else {
		reg.ClearBit(n)
	}
}

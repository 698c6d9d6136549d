package hw

import (
	"nescore/emu/log"
	"nescore/hw/apu"
	"nescore/hw/hwio"
	"nescore/hw/mappers"
)

// Bus is the CPU address space. It dispatches accesses to the internal RAM,
// the PPU and APU registers, the controller ports and the cartridge.
//
//	$0000-$1FFF  2KB RAM, mirrored every $800
//	$2000-$3FFF  PPU registers, mirrored every 8 bytes
//	$4000-$4017  APU, OAM DMA and controller registers
//	$4018-$401F  disabled test registers (open bus)
//	$4020-$FFFF  cartridge
type Bus struct {
	CPU   *CPU
	PPU   *PPU
	APU   *apu.APU
	Cart  *mappers.Cartridge
	Input *InputPorts
	RAM   *hwio.Mem
	DMA   DMA

	// last value seen on the data bus.
	openBus uint8
}

func NewBus(ppu *PPU, a *apu.APU, input *InputPorts) *Bus {
	bus := &Bus{
		PPU:   ppu,
		APU:   a,
		Input: input,
		RAM:   hwio.NewMem("RAM", 0x800, hwio.MemFlagReadWrite),
	}
	bus.DMA.init(bus)
	return bus
}

// Reset clears the RAM on power-up. A soft reset preserves its content.
func (b *Bus) Reset(soft bool) {
	if !soft {
		clear(b.RAM.Data)
		b.openBus = 0
	}
}

// OpenBus returns the last value seen on the data bus.
func (b *Bus) OpenBus() uint8 { return b.openBus }

func (b *Bus) SetOpenBus(val uint8) { b.openBus = val }

func (b *Bus) Read8(addr uint16) uint8 {
	b.sync(addr, false)
	val, ok := b.read(addr, false)
	if !ok {
		log.ModMem.DebugZ("open bus read").
			Hex16("addr", addr).
			Hex8("val", b.openBus).
			End()
		return b.openBus
	}
	// $4015 is internal to the CPU, reading it doesn't drive the data bus.
	if addr != 0x4015 {
		b.openBus = val
	}
	return val
}

// sync brings the PPU and APU up to the CPU cycle of an access to one of
// their registers.
func (b *Bus) sync(addr uint16, write bool) {
	if b.CPU != nil && addr >= 0x2000 && addr < 0x4020 {
		b.CPU.catchUp(write)
	}
}

// Peek8 reads addr without side effects on the hardware.
func (b *Bus) Peek8(addr uint16) uint8 {
	val, ok := b.read(addr, true)
	if !ok {
		return b.openBus
	}
	return val
}

func (b *Bus) read(addr uint16, peek bool) (uint8, bool) {
	switch {
	case addr < 0x2000:
		return b.RAM.Read8(addr), true

	case addr < 0x4000:
		if peek {
			return b.PPU.PeekRegister(addr), true
		}
		return b.PPU.ReadRegister(addr), true

	case addr == 0x4016, addr == 0x4017:
		reg := &b.Input.In
		if addr == 0x4017 {
			reg = &b.Input.Out
		}
		var val uint8
		if peek {
			val = reg.Peek8(addr)
		} else {
			val, _ = reg.Read8(addr)
		}
		// Only the lowest bits are driven by the controllers.
		return val | b.openBus&0xE0, true

	case addr == 0x4015:
		var (
			val uint8
			ok  bool
		)
		if peek {
			val, ok = b.APU.PeekRegister(addr)
		} else {
			val, ok = b.APU.ReadRegister(addr)
		}
		// Bit 5 is open bus.
		return val | b.openBus&0x20, ok

	case addr < 0x4020:
		return 0, false

	default:
		if b.Cart == nil {
			return 0, false
		}
		return b.Cart.ReadPRG(addr)
	}
}

func (b *Bus) Write8(addr uint16, val uint8) {
	b.sync(addr, true)
	b.openBus = val

	switch {
	case addr < 0x2000:
		b.RAM.Write8(addr, val)

	case addr < 0x4000:
		b.PPU.WriteRegister(addr, val)

	case addr == 0x4014:
		b.DMA.OAMDMA.Write8(addr, val)

	case addr == 0x4016:
		b.Input.In.Write8(addr, val)

	case addr < 0x4018:
		b.APU.WriteRegister(addr, val)

	case addr < 0x4020:
		log.ModMem.DebugZ("write to disabled test register").
			Hex16("addr", addr).
			Hex8("val", val).
			End()

	default:
		if b.Cart != nil {
			b.Cart.WritePRG(addr, val)
		}
	}
}

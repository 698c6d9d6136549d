package hw

import (
	"nescore/emu/log"
	"nescore/hw/hwio"
)

// DMA handles OAM DMA transfers: writing $XX to $4014 copies the CPU page
// $XX00-$XXFF into the PPU OAM, through OAMDATA.
type DMA struct {
	OAMDMA hwio.Reg8

	bus *Bus
}

func (dma *DMA) init(bus *Bus) {
	dma.bus = bus
	dma.OAMDMA = hwio.Reg8{Name: "OAMDMA", Flags: hwio.WriteOnlyFlag, WriteCb: dma.WriteOAMDMA}
}

func (dma *DMA) WriteOAMDMA(_, val uint8) {
	cpu := dma.bus.CPU

	// The CPU is halted for 513 cycles, plus one alignment cycle when the
	// transfer starts on an odd cycle.
	stall := 513
	if cpu != nil && cpu.CurrentCycle()&0x01 == 1 {
		stall++
	}

	log.ModDMA.DebugZ("OAM DMA transfer").
		Hex8("page", val).
		Int("stall", stall).
		End()

	addr := uint16(val) << 8
	for i := range uint16(256) {
		dma.bus.PPU.WriteRegister(0x2004, dma.bus.Read8(addr+i))
	}

	if cpu != nil {
		cpu.AddStall(stall)
	}
}

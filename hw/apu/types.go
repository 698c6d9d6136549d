package apu

import "nescore/hw/hwdefs"

// Channel identifies one of the 5 sound generators.
type Channel uint8

const (
	Square1 Channel = iota
	Square2
	Triangle
	Noise
	DPCM
)

func (c Channel) String() string {
	return [...]string{"square1", "square2", "triangle", "noise", "dpcm"}[c]
}

// cpu is the view the APU has of the CPU: the IRQ line, the DMC memory
// reader and the current cycle for write timing.
type cpu interface {
	SetIRQSource(src hwdefs.IRQSource)
	ClearIRQSource(src hwdefs.IRQSource)
	HasIRQSource(src hwdefs.IRQSource) bool
	DMCRead(addr uint16) uint8
	CurrentCycle() int64
}

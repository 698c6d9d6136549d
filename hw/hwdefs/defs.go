package hwdefs

import "strings"

// IRQSource identifies a device driving the CPU IRQ line. The line is
// asserted as long as at least one source is set.
type IRQSource uint8

const (
	External IRQSource = 1 << iota // cartridge (mapper)
	FrameCounter
	DMC

	numSources = 3
)

var irqSrcNames = [numSources]string{
	"ext",
	"fcnt",
	"dmc",
}

func (irq IRQSource) String() string {
	var names []string
	for i := range numSources {
		if irq&(1<<i) != 0 {
			names = append(names, irqSrcNames[i])
		}
	}
	return strings.Join(names, "|")
}

const (
	SoftReset = true
	HardReset = false
)

const NumAudioChannels = 5 // Square1, Square2, Triangle, Noise, DMC

// NTSC timings.
const (
	CPUClockRate = 1_789_773 // Hz

	NumScanlines   = 262
	DotsPerLine    = 341
	PreRenderLine  = 261
	VBlankLine     = 241
	VisibleLines   = 240
	ScreenWidth    = 256
	ScreenHeight   = 240
	CyclesPerFrame = NumScanlines * DotsPerLine / 3
)

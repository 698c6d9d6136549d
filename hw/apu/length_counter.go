package apu

import "nescore/hw/snapshot"

var lengthLUT = [32]uint8{10, 254, 20, 2, 40, 4, 80, 6, 160, 8, 60, 10, 14, 12, 26, 14, 12, 16, 24, 18, 48, 20, 96, 22, 192, 24, 72, 26, 16, 28, 32, 30}

// lengthCounter automatically silences a channel after a given duration.
type lengthCounter struct {
	enabled bool
	halt    bool
	counter uint8
}

func (lc *lengthCounter) load(idx uint8) {
	if lc.enabled {
		lc.counter = lengthLUT[idx&0x1F]
	}
}

func (lc *lengthCounter) reset(soft bool, ch Channel) {
	lc.enabled = false
	if soft && ch == Triangle {
		// Triangle length counter is unaffected by a reset.
		return
	}
	lc.halt = false
	lc.counter = 0
}

func (lc *lengthCounter) status() bool {
	return lc.counter > 0
}

// tick is called on each half frame.
func (lc *lengthCounter) tick() {
	if lc.counter > 0 && !lc.halt {
		lc.counter--
	}
}

func (lc *lengthCounter) setEnabled(enabled bool) {
	if !enabled {
		lc.counter = 0
	}
	lc.enabled = enabled
}

func (lc *lengthCounter) saveState(state *snapshot.LengthCounter) {
	state.Enabled = lc.enabled
	state.Halt = lc.halt
	state.Value = lc.counter
}

func (lc *lengthCounter) setState(state *snapshot.LengthCounter) {
	lc.enabled = state.Enabled
	lc.halt = state.Halt
	lc.counter = state.Value
}

package apu

import "nescore/hw/snapshot"

// envelope generates a decreasing saw envelope, or a constant volume.
type envelope struct {
	start    bool
	loop     bool
	constant bool
	volume   uint8 // constant volume, or divider period.

	divider uint8
	decay   uint8
}

// init handles writes to the first register of the channel ($4000, $4004,
// $400C). Bit 5 is shared with the length counter halt flag.
func (env *envelope) init(val uint8) {
	env.loop = val&0x20 != 0
	env.constant = val&0x10 != 0
	env.volume = val & 0x0F
}

func (env *envelope) restart() {
	env.start = true
}

func (env *envelope) reset() {
	*env = envelope{}
}

func (env *envelope) output() uint8 {
	if env.constant {
		return env.volume
	}
	return env.decay
}

// tick is called on each quarter frame.
func (env *envelope) tick() {
	if env.start {
		env.start = false
		env.decay = 15
		env.divider = env.volume
		return
	}

	if env.divider > 0 {
		env.divider--
		return
	}
	env.divider = env.volume
	if env.decay > 0 {
		env.decay--
	} else if env.loop {
		env.decay = 15
	}
}

func (env *envelope) saveState(state *snapshot.Envelope) {
	state.Start = env.start
	state.Loop = env.loop
	state.Const = env.constant
	state.Volume = env.volume
	state.Divider = env.divider
	state.Decay = env.decay
}

func (env *envelope) setState(state *snapshot.Envelope) {
	env.start = state.Start
	env.loop = state.Loop
	env.constant = state.Const
	env.volume = state.Volume
	env.divider = state.Divider
	env.decay = state.Decay
}

package apu

import "nescore/hw/snapshot"

// timer is a divider clocked every CPU cycle. It outputs a clock each time
// it reloads.
type timer struct {
	period uint16
	value  uint16
}

func (t *timer) reset() {
	t.period = 0
	t.value = 0
}

func (t *timer) tick() bool {
	if t.value == 0 {
		t.value = t.period
		return true
	}
	t.value--
	return false
}

func (t *timer) saveState(state *snapshot.Timer) {
	state.Period = t.period
	state.Value = t.value
}

func (t *timer) setState(state *snapshot.Timer) {
	t.period = state.Period
	t.value = state.Value
}

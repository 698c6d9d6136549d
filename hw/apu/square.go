package apu

import (
	"nescore/hw/hwio"
	"nescore/hw/snapshot"
)

var dutySequences = [4][8]uint8{
	{0, 0, 0, 0, 0, 0, 0, 1},
	{0, 0, 0, 0, 0, 0, 1, 1},
	{0, 0, 0, 0, 1, 1, 1, 1},
	{1, 1, 1, 1, 1, 1, 0, 0},
}

type squareChannel struct {
	Duty   hwio.Reg8
	Sweep  hwio.Reg8
	Timer  hwio.Reg8
	Length hwio.Reg8

	channel Channel
	timer   timer
	env     envelope
	length  lengthCounter

	duty    uint8
	dutyPos uint8

	sweepEnabled bool
	sweepNegate  bool
	sweepReload  bool
	sweepPeriod  uint8
	sweepShift   uint8
	sweepDivider uint8

	realPeriod   uint16
	targetPeriod uint16
}

func (sc *squareChannel) init(name string, ch Channel) {
	sc.channel = ch
	sc.Duty = hwio.Reg8{Name: name + "_DUTY", Flags: hwio.WriteOnlyFlag, WriteCb: sc.WriteDUTY}
	sc.Sweep = hwio.Reg8{Name: name + "_SWEEP", Flags: hwio.WriteOnlyFlag, WriteCb: sc.WriteSWEEP}
	sc.Timer = hwio.Reg8{Name: name + "_TIMER", Flags: hwio.WriteOnlyFlag, WriteCb: sc.WriteTIMER}
	sc.Length = hwio.Reg8{Name: name + "_LENGTH", Flags: hwio.WriteOnlyFlag, WriteCb: sc.WriteLENGTH}
}

func (sc *squareChannel) reset(soft bool) {
	sc.timer.reset()
	sc.env.reset()
	sc.length.reset(soft, sc.channel)

	sc.duty = 0
	sc.dutyPos = 0
	sc.realPeriod = 0

	sc.sweepEnabled = false
	sc.sweepPeriod = 0
	sc.sweepNegate = false
	sc.sweepShift = 0
	sc.sweepReload = false
	sc.sweepDivider = 0
	sc.updateTargetPeriod()
}

// WriteDUTY handles $4000/$4004: duty, halt/loop, constant volume, volume.
func (sc *squareChannel) WriteDUTY(_, val uint8) {
	sc.env.init(val)
	sc.length.halt = val&0x20 != 0
	sc.duty = (val & 0xC0) >> 6
}

// WriteSWEEP handles $4001/$4005.
func (sc *squareChannel) WriteSWEEP(_, val uint8) {
	sc.sweepEnabled = val&0x80 != 0
	sc.sweepNegate = val&0x08 != 0
	// The divider's period is P + 1 half-frames
	sc.sweepPeriod = ((val & 0x70) >> 4) + 1
	sc.sweepShift = val & 0x07
	sc.updateTargetPeriod()
	sc.sweepReload = true
}

// WriteTIMER handles $4002/$4006: timer low bits.
func (sc *squareChannel) WriteTIMER(_, val uint8) {
	sc.setPeriod(sc.realPeriod&0x0700 | uint16(val))
}

// WriteLENGTH handles $4003/$4007: length index and timer high bits.
func (sc *squareChannel) WriteLENGTH(_, val uint8) {
	sc.length.load(val >> 3)
	sc.setPeriod(sc.realPeriod&0xFF | uint16(val&0x07)<<8)

	// The sequencer is restarted at the first value of the current
	// sequence. The period divider is not reset.
	sc.dutyPos = 0
	sc.env.restart()
}

func (sc *squareChannel) setPeriod(period uint16) {
	sc.realPeriod = period
	// The pulse timer is clocked every other CPU cycle.
	sc.timer.period = sc.realPeriod*2 + 1
	sc.updateTargetPeriod()
}

func (sc *squareChannel) updateTargetPeriod() {
	delta := sc.realPeriod >> sc.sweepShift
	if !sc.sweepNegate {
		sc.targetPeriod = sc.realPeriod + delta
		return
	}
	sc.targetPeriod = sc.realPeriod - delta
	if sc.channel == Square1 {
		// Square 1 adds the ones' complement.
		sc.targetPeriod--
	}
}

func (sc *squareChannel) isMuted() bool {
	return sc.realPeriod < 8 || (!sc.sweepNegate && sc.targetPeriod > 0x7FF)
}

func (sc *squareChannel) tick() {
	if sc.timer.tick() {
		sc.dutyPos = (sc.dutyPos - 1) & 0x07
	}
}

func (sc *squareChannel) tickSweep() {
	sc.sweepDivider--
	if sc.sweepDivider == 0 {
		if sc.sweepShift > 0 && sc.sweepEnabled && sc.realPeriod >= 8 && sc.targetPeriod <= 0x7FF {
			sc.setPeriod(sc.targetPeriod)
		}
		sc.sweepDivider = sc.sweepPeriod
	}

	if sc.sweepReload {
		sc.sweepDivider = sc.sweepPeriod
		sc.sweepReload = false
	}
}

func (sc *squareChannel) output() uint8 {
	if sc.isMuted() || !sc.length.status() {
		return 0
	}
	return dutySequences[sc.duty][sc.dutyPos] * sc.env.output()
}

func (sc *squareChannel) saveState(state *snapshot.Square) {
	sc.timer.saveState(&state.Timer)
	sc.length.saveState(&state.Length)
	sc.env.saveState(&state.Envelope)
	state.Duty = sc.duty
	state.DutyPos = sc.dutyPos
	state.SweepEnabled = sc.sweepEnabled
	state.SweepNegate = sc.sweepNegate
	state.SweepReload = sc.sweepReload
	state.SweepPeriod = sc.sweepPeriod
	state.SweepShift = sc.sweepShift
	state.SweepDivider = sc.sweepDivider
	state.RealPeriod = sc.realPeriod
}

func (sc *squareChannel) setState(state *snapshot.Square) {
	sc.timer.setState(&state.Timer)
	sc.length.setState(&state.Length)
	sc.env.setState(&state.Envelope)
	sc.duty = state.Duty
	sc.dutyPos = state.DutyPos
	sc.sweepEnabled = state.SweepEnabled
	sc.sweepNegate = state.SweepNegate
	sc.sweepReload = state.SweepReload
	sc.sweepPeriod = state.SweepPeriod
	sc.sweepShift = state.SweepShift
	sc.sweepDivider = state.SweepDivider
	sc.realPeriod = state.RealPeriod
	sc.updateTargetPeriod()
}

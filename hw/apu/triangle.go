package apu

import (
	"nescore/hw/hwio"
	"nescore/hw/snapshot"
)

var triangleSequence = [32]uint8{
	15, 14, 13, 12, 11, 10, 9, 8, 7, 6, 5, 4, 3, 2, 1, 0,
	0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15,
}

type triangleChannel struct {
	Linear hwio.Reg8
	Unused hwio.Reg8
	Timer  hwio.Reg8
	Length hwio.Reg8

	timer  timer
	length lengthCounter

	linearCounter uint8
	linearReload  uint8
	linearControl bool
	linearFlag    bool // reload flag

	pos uint8
}

func (tc *triangleChannel) init() {
	tc.Linear = hwio.Reg8{Name: "TRI_LINEAR", Flags: hwio.WriteOnlyFlag, WriteCb: tc.WriteLINEAR}
	tc.Unused = hwio.Reg8{Name: "TRI_UNUSED", Flags: hwio.WriteOnlyFlag}
	tc.Timer = hwio.Reg8{Name: "TRI_TIMER", Flags: hwio.WriteOnlyFlag, WriteCb: tc.WriteTIMER}
	tc.Length = hwio.Reg8{Name: "TRI_LENGTH", Flags: hwio.WriteOnlyFlag, WriteCb: tc.WriteLENGTH}
}

func (tc *triangleChannel) reset(soft bool) {
	tc.timer.reset()
	tc.length.reset(soft, Triangle)

	tc.linearCounter = 0
	tc.linearReload = 0
	tc.linearControl = false
	tc.linearFlag = false
	tc.pos = 0
}

// WriteLINEAR handles $4008: control/halt flag and linear counter reload.
func (tc *triangleChannel) WriteLINEAR(_, val uint8) {
	tc.linearControl = val&0x80 != 0
	tc.linearReload = val & 0x7F
	tc.length.halt = tc.linearControl
}

// WriteTIMER handles $400A.
func (tc *triangleChannel) WriteTIMER(_, val uint8) {
	tc.timer.period = tc.timer.period&0xFF00 | uint16(val)
}

// WriteLENGTH handles $400B.
func (tc *triangleChannel) WriteLENGTH(_, val uint8) {
	tc.length.load(val >> 3)
	tc.timer.period = tc.timer.period&0xFF | uint16(val&0x07)<<8
	tc.linearFlag = true
}

// tick is called on every CPU cycle.
func (tc *triangleChannel) tick() {
	if !tc.timer.tick() {
		return
	}
	if tc.length.status() && tc.linearCounter > 0 {
		// Ultrasonic periods silence the channel: the sequencer is frozen.
		if tc.timer.period >= 2 {
			tc.pos = (tc.pos + 1) & 0x1F
		}
	}
}

// tickLinearCounter is called on each quarter frame.
func (tc *triangleChannel) tickLinearCounter() {
	if tc.linearFlag {
		tc.linearCounter = tc.linearReload
	} else if tc.linearCounter > 0 {
		tc.linearCounter--
	}

	if !tc.linearControl {
		tc.linearFlag = false
	}
}

func (tc *triangleChannel) output() uint8 {
	if !tc.length.enabled && !tc.length.status() {
		return 0
	}
	return triangleSequence[tc.pos]
}

func (tc *triangleChannel) saveState(state *snapshot.Triangle) {
	tc.timer.saveState(&state.Timer)
	tc.length.saveState(&state.Length)
	state.LinearCounter = tc.linearCounter
	state.LinearReload = tc.linearReload
	state.LinearControl = tc.linearControl
	state.LinearFlag = tc.linearFlag
	state.Pos = tc.pos
}

func (tc *triangleChannel) setState(state *snapshot.Triangle) {
	tc.timer.setState(&state.Timer)
	tc.length.setState(&state.Length)
	tc.linearCounter = state.LinearCounter
	tc.linearReload = state.LinearReload
	tc.linearControl = state.LinearControl
	tc.linearFlag = state.LinearFlag
	tc.pos = state.Pos
}

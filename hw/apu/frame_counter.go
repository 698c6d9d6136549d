package apu

import (
	"nescore/hw/hwdefs"
	"nescore/hw/snapshot"
)

type frameType uint8

const (
	noFrame frameType = iota
	quarterFrame
	halfFrame
)

// CPU cycles at which each step of the 4-step and 5-step sequences happen.
var stepCycles = [2][6]int32{
	{7457, 14913, 22371, 29828, 29829, 29830},
	{7457, 14913, 22371, 29829, 37281, 37282},
}

var frameTypes = [2][6]frameType{
	{quarterFrame, halfFrame, quarterFrame, noFrame, halfFrame, noFrame},
	{quarterFrame, halfFrame, quarterFrame, noFrame, halfFrame, noFrame},
}

// frameCounter is the APU frame sequencer. It clocks envelopes and the
// triangle linear counter on quarter frames, length counters and sweep
// units on half frames, and raises the frame IRQ in 4-step mode.
type frameCounter struct {
	apu *APU

	cycle      int32
	step       int
	fiveStep   bool
	irqInhibit bool

	// $4017 writes take effect after 3 or 4 cycles.
	newValue   int16
	writeDelay int8

	// Prevents double clocking when a write and a step happen close together.
	blockTick uint8
}

func (fc *frameCounter) mode() int {
	if fc.fiveStep {
		return 1
	}
	return 0
}

func (fc *frameCounter) reset(soft bool) {
	fc.cycle = 0
	fc.step = 0
	fc.blockTick = 0
	fc.writeDelay = 3

	// On reset the last value written to $4017 is written again, on power
	// up it behaves as if $00 had been written.
	fc.newValue = 0
	if soft && fc.fiveStep {
		fc.newValue = 0x80
	}
	if !soft {
		fc.fiveStep = false
		fc.irqInhibit = false
	}
	fc.apu.cpu.ClearIRQSource(hwdefs.FrameCounter)
}

// write handles $4017 writes.
func (fc *frameCounter) write(val uint8) {
	fc.newValue = int16(val)

	// The new mode is applied 3 cycles after the write if it occurs during
	// an APU cycle, 4 cycles otherwise.
	fc.writeDelay = 3
	if fc.apu.cpu.CurrentCycle()&0x01 == 1 {
		fc.writeDelay = 4
	}

	fc.irqInhibit = val&0x40 != 0
	if fc.irqInhibit {
		fc.apu.cpu.ClearIRQSource(hwdefs.FrameCounter)
	}
}

// tick is called on every CPU cycle.
func (fc *frameCounter) tick() {
	fc.cycle++
	mode := fc.mode()

	if fc.cycle == stepCycles[mode][fc.step] {
		if !fc.fiveStep && fc.step >= 3 && !fc.irqInhibit {
			fc.apu.cpu.SetIRQSource(hwdefs.FrameCounter)
		}

		if typ := frameTypes[mode][fc.step]; typ != noFrame && fc.blockTick == 0 {
			fc.apu.clockFrame(typ)
			fc.blockTick = 2
		}

		fc.step++
		if fc.step == 6 {
			fc.step = 0
			fc.cycle = 0
		}
	}

	if fc.newValue >= 0 {
		fc.writeDelay--
		if fc.writeDelay == 0 {
			fc.fiveStep = fc.newValue&0x80 != 0
			fc.writeDelay = -1
			fc.newValue = -1
			fc.step = 0
			fc.cycle = 0

			// Writing in 5-step mode immediately clocks a half frame.
			if fc.fiveStep && fc.blockTick == 0 {
				fc.apu.clockFrame(halfFrame)
				fc.blockTick = 2
			}
		}
	}

	if fc.blockTick > 0 {
		fc.blockTick--
	}
}

func (fc *frameCounter) saveState(state *snapshot.FrameCounter) {
	state.FiveStep = fc.fiveStep
	state.IRQInhibit = fc.irqInhibit
	state.Step = fc.step
	state.Cycle = int(fc.cycle)
	state.NewValue = fc.newValue
	state.WriteDelay = fc.writeDelay
	state.BlockTick = fc.blockTick
}

func (fc *frameCounter) setState(state *snapshot.FrameCounter) {
	fc.fiveStep = state.FiveStep
	fc.irqInhibit = state.IRQInhibit
	fc.step = state.Step
	fc.cycle = int32(state.Cycle)
	fc.newValue = state.NewValue
	fc.writeDelay = state.WriteDelay
	fc.blockTick = state.BlockTick
}

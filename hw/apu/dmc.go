package apu

import (
	"nescore/emu/log"
	"nescore/hw/hwdefs"
	"nescore/hw/hwio"
	"nescore/hw/snapshot"
)

var dmcPeriodLUT = [16]uint16{428, 380, 340, 320, 286, 254, 226, 214, 190, 160, 142, 128, 106, 84, 72, 54}

// DMC is the delta modulation channel. It plays 1-bit delta encoded samples
// fetched directly from CPU memory.
type DMC struct {
	Freq  hwio.Reg8
	Raw   hwio.Reg8
	Start hwio.Reg8
	Len   hwio.Reg8

	cpu   cpu
	timer timer

	irqEnabled bool
	loop       bool
	output     uint8

	sampleAddr   uint16
	sampleLength uint16
	curAddr      uint16
	remaining    uint16

	buffer      uint8
	bufferEmpty bool

	shiftReg uint8
	bitsLeft uint8
	silence  bool
}

func (dmc *DMC) init(cpu cpu) {
	dmc.cpu = cpu
	dmc.Freq = hwio.Reg8{Name: "DMC_FREQ", Flags: hwio.WriteOnlyFlag, WriteCb: dmc.WriteFREQ}
	dmc.Raw = hwio.Reg8{Name: "DMC_RAW", Flags: hwio.WriteOnlyFlag, WriteCb: dmc.WriteRAW}
	dmc.Start = hwio.Reg8{Name: "DMC_START", Flags: hwio.WriteOnlyFlag, WriteCb: dmc.WriteSTART}
	dmc.Len = hwio.Reg8{Name: "DMC_LEN", Flags: hwio.WriteOnlyFlag, WriteCb: dmc.WriteLEN}
}

func (dmc *DMC) reset(soft bool) {
	dmc.timer.reset()
	if !soft {
		// At power on, the sample address is $C000 and the length is 1.
		dmc.sampleAddr = 0xC000
		dmc.sampleLength = 1
	}

	dmc.timer.period = dmcPeriodLUT[0] - 1
	dmc.timer.value = dmc.timer.period
	dmc.irqEnabled = false
	dmc.loop = false
	dmc.output = 0
	dmc.curAddr = 0
	dmc.remaining = 0
	dmc.buffer = 0
	dmc.bufferEmpty = true
	dmc.shiftReg = 0
	dmc.bitsLeft = 8
	dmc.silence = true
	dmc.cpu.ClearIRQSource(hwdefs.DMC)
}

// WriteFREQ handles $4010: IRQ enable, loop and rate index.
func (dmc *DMC) WriteFREQ(_, val uint8) {
	dmc.irqEnabled = val&0x80 != 0
	dmc.loop = val&0x40 != 0
	dmc.timer.period = dmcPeriodLUT[val&0x0F] - 1

	if !dmc.irqEnabled {
		dmc.cpu.ClearIRQSource(hwdefs.DMC)
	}
}

// WriteRAW handles $4011: direct load of the output level.
func (dmc *DMC) WriteRAW(_, val uint8) {
	dmc.output = val & 0x7F
}

// WriteSTART handles $4012: sample address is %11AAAAAA.AA000000.
func (dmc *DMC) WriteSTART(_, val uint8) {
	dmc.sampleAddr = 0xC000 | uint16(val)<<6
}

// WriteLEN handles $4013: sample length is %LLLL.LLLL0001 bytes.
func (dmc *DMC) WriteLEN(_, val uint8) {
	dmc.sampleLength = uint16(val)<<4 | 1
}

func (dmc *DMC) restart() {
	dmc.curAddr = dmc.sampleAddr
	dmc.remaining = dmc.sampleLength
}

func (dmc *DMC) setEnabled(enabled bool) {
	dmc.cpu.ClearIRQSource(hwdefs.DMC)
	if !enabled {
		dmc.remaining = 0
		return
	}
	if dmc.remaining == 0 {
		dmc.restart()
	}
}

func (dmc *DMC) status() bool {
	return dmc.remaining > 0
}

// fetch fills the sample buffer from memory, stalling the CPU.
func (dmc *DMC) fetch() {
	dmc.buffer = dmc.cpu.DMCRead(dmc.curAddr)
	dmc.bufferEmpty = false

	log.ModSound.DebugZ("dmc fetch").
		Hex16("addr", dmc.curAddr).
		Hex8("val", dmc.buffer).
		Uint16("remaining", dmc.remaining).
		End()

	// Address wraps around to $8000.
	dmc.curAddr++
	if dmc.curAddr == 0 {
		dmc.curAddr = 0x8000
	}

	dmc.remaining--
	if dmc.remaining == 0 {
		switch {
		case dmc.loop:
			dmc.restart()
		case dmc.irqEnabled:
			dmc.cpu.SetIRQSource(hwdefs.DMC)
		}
	}
}

// tick is called on every CPU cycle.
func (dmc *DMC) tick() {
	if dmc.timer.tick() {
		if !dmc.silence {
			if dmc.shiftReg&0x01 != 0 {
				if dmc.output <= 125 {
					dmc.output += 2
				}
			} else if dmc.output >= 2 {
				dmc.output -= 2
			}
		}
		dmc.shiftReg >>= 1

		dmc.bitsLeft--
		if dmc.bitsLeft == 0 {
			// New output cycle.
			dmc.bitsLeft = 8
			if dmc.bufferEmpty {
				dmc.silence = true
			} else {
				dmc.silence = false
				dmc.shiftReg = dmc.buffer
				dmc.bufferEmpty = true
			}
		}
	}

	if dmc.bufferEmpty && dmc.remaining > 0 {
		dmc.fetch()
	}
}

func (dmc *DMC) saveState(state *snapshot.DMC) {
	dmc.timer.saveState(&state.Timer)
	state.IRQEnabled = dmc.irqEnabled
	state.IRQPending = dmc.cpu.HasIRQSource(hwdefs.DMC)
	state.Loop = dmc.loop
	state.Output = dmc.output
	state.SampleAddr = dmc.sampleAddr
	state.SampleLength = dmc.sampleLength
	state.CurAddr = dmc.curAddr
	state.Remaining = dmc.remaining
	state.Buffer = dmc.buffer
	state.BufferEmpty = dmc.bufferEmpty
	state.ShiftReg = dmc.shiftReg
	state.BitsLeft = dmc.bitsLeft
	state.Silence = dmc.silence
}

func (dmc *DMC) setState(state *snapshot.DMC) {
	dmc.timer.setState(&state.Timer)
	dmc.irqEnabled = state.IRQEnabled
	if state.IRQPending {
		dmc.cpu.SetIRQSource(hwdefs.DMC)
	} else {
		dmc.cpu.ClearIRQSource(hwdefs.DMC)
	}
	dmc.loop = state.Loop
	dmc.output = state.Output
	dmc.sampleAddr = state.SampleAddr
	dmc.sampleLength = state.SampleLength
	dmc.curAddr = state.CurAddr
	dmc.remaining = state.Remaining
	dmc.buffer = state.Buffer
	dmc.bufferEmpty = state.BufferEmpty
	dmc.shiftReg = state.ShiftReg
	dmc.bitsLeft = state.BitsLeft
	dmc.silence = state.Silence
}

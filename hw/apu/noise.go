package apu

import (
	"nescore/hw/hwio"
	"nescore/hw/snapshot"
)

var noisePeriodLUT = [16]uint16{4, 8, 16, 32, 64, 96, 128, 160, 202, 254, 380, 508, 762, 1016, 2034, 4068}

type noiseChannel struct {
	Volume hwio.Reg8
	Unused hwio.Reg8
	Period hwio.Reg8
	Length hwio.Reg8

	timer  timer
	env    envelope
	length lengthCounter

	// 15-bit linear feedback shift register.
	shift uint16
	mode  bool
}

func (nc *noiseChannel) init() {
	nc.Volume = hwio.Reg8{Name: "NOISE_VOLUME", Flags: hwio.WriteOnlyFlag, WriteCb: nc.WriteVOLUME}
	nc.Unused = hwio.Reg8{Name: "NOISE_UNUSED", Flags: hwio.WriteOnlyFlag}
	nc.Period = hwio.Reg8{Name: "NOISE_PERIOD", Flags: hwio.WriteOnlyFlag, WriteCb: nc.WritePERIOD}
	nc.Length = hwio.Reg8{Name: "NOISE_LENGTH", Flags: hwio.WriteOnlyFlag, WriteCb: nc.WriteLENGTH}
}

func (nc *noiseChannel) reset(soft bool) {
	nc.timer.reset()
	nc.env.reset()
	nc.length.reset(soft, Noise)

	nc.timer.period = noisePeriodLUT[0] - 1
	nc.shift = 1
	nc.mode = false
}

// WriteVOLUME handles $400C.
func (nc *noiseChannel) WriteVOLUME(_, val uint8) {
	nc.env.init(val)
	nc.length.halt = val&0x20 != 0
}

// WritePERIOD handles $400E.
func (nc *noiseChannel) WritePERIOD(_, val uint8) {
	nc.timer.period = noisePeriodLUT[val&0x0F] - 1
	nc.mode = val&0x80 != 0
}

// WriteLENGTH handles $400F.
func (nc *noiseChannel) WriteLENGTH(_, val uint8) {
	nc.length.load(val >> 3)
	nc.env.restart()
}

// tick is called on every CPU cycle.
func (nc *noiseChannel) tick() {
	if !nc.timer.tick() {
		return
	}

	// Feedback is bit 0 xor bit 6 in mode 1, bit 0 xor bit 1 otherwise.
	tap := uint16(1)
	if nc.mode {
		tap = 6
	}
	feedback := (nc.shift ^ nc.shift>>tap) & 0x01
	nc.shift >>= 1
	nc.shift |= feedback << 14
}

func (nc *noiseChannel) output() uint8 {
	if nc.shift&0x01 != 0 || !nc.length.status() {
		return 0
	}
	return nc.env.output()
}

func (nc *noiseChannel) saveState(state *snapshot.Noise) {
	nc.timer.saveState(&state.Timer)
	nc.length.saveState(&state.Length)
	nc.env.saveState(&state.Envelope)
	state.Shift = nc.shift
	state.Mode = nc.mode
}

func (nc *noiseChannel) setState(state *snapshot.Noise) {
	nc.timer.setState(&state.Timer)
	nc.length.setState(&state.Length)
	nc.env.setState(&state.Envelope)
	nc.shift = state.Shift
	nc.mode = state.Mode
}

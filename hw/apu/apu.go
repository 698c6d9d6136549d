// Package apu implements the NES Audio Processing Unit: two pulse channels,
// a triangle, a noise generator and a delta modulation channel, driven by
// the frame sequencer and mixed into a single output stream.
package apu

import (
	"nescore/emu/log"
	"nescore/hw/hwdefs"
	"nescore/hw/hwio"
	"nescore/hw/snapshot"
)

const DefaultSampleRate = 44100

type APU struct {
	Square1  squareChannel
	Square2  squareChannel
	Triangle triangleChannel
	Noise    noiseChannel
	DMC      DMC

	Status       hwio.Reg8
	FrameCounter hwio.Reg8

	cpu          cpu
	frameCounter frameCounter
	mixer        *Mixer

	regs   [0x18]*hwio.Reg8 // $4000-$4017, nil when not an APU register.
	Cycles uint64
}

// New creates an APU producing samples at sampleRate Hz.
func New(cpu cpu, sampleRate int) *APU {
	a := &APU{
		cpu:   cpu,
		mixer: newMixer(sampleRate),
	}
	a.frameCounter.apu = a

	a.Square1.init("SQ1", Square1)
	a.Square2.init("SQ2", Square2)
	a.Triangle.init()
	a.Noise.init()
	a.DMC.init(cpu)

	a.Status = hwio.Reg8{
		Name:    "STATUS",
		ReadCb:  a.ReadSTATUS,
		PeekCb:  a.PeekSTATUS,
		WriteCb: a.WriteSTATUS,
	}
	a.FrameCounter = hwio.Reg8{
		Name:    "FRAMECOUNTER",
		Flags:   hwio.WriteOnlyFlag,
		WriteCb: a.WriteFRAMECOUNTER,
	}

	a.regs = [0x18]*hwio.Reg8{
		&a.Square1.Duty, &a.Square1.Sweep, &a.Square1.Timer, &a.Square1.Length,
		&a.Square2.Duty, &a.Square2.Sweep, &a.Square2.Timer, &a.Square2.Length,
		&a.Triangle.Linear, &a.Triangle.Unused, &a.Triangle.Timer, &a.Triangle.Length,
		&a.Noise.Volume, &a.Noise.Unused, &a.Noise.Period, &a.Noise.Length,
		&a.DMC.Freq, &a.DMC.Raw, &a.DMC.Start, &a.DMC.Len,
		nil,       // $4014: OAM DMA
		&a.Status, // $4015
		nil,       // $4016: controllers
		&a.FrameCounter,
	}
	return a
}

// Mixer gives access to the APU output stage.
func (a *APU) Mixer() *Mixer { return a.mixer }

func (a *APU) Reset(soft bool) {
	a.Cycles = 0

	a.Square1.reset(soft)
	a.Square2.reset(soft)
	a.Triangle.reset(soft)
	a.Noise.reset(soft)
	a.DMC.reset(soft)
	a.frameCounter.reset(soft)
	a.mixer.reset()
}

func (a *APU) reg(addr uint16) *hwio.Reg8 {
	if addr < 0x4000 || addr > 0x4017 {
		return nil
	}
	return a.regs[addr-0x4000]
}

// ReadRegister reads an APU register. It reports false for write-only and
// unmapped registers, in which case the bus returns open bus.
func (a *APU) ReadRegister(addr uint16) (uint8, bool) {
	reg := a.reg(addr)
	if reg == nil {
		return 0, false
	}
	return reg.Read8(addr)
}

// PeekRegister reads an APU register without side effects.
func (a *APU) PeekRegister(addr uint16) (uint8, bool) {
	reg := a.reg(addr)
	if reg == nil || reg.Flags&hwio.WriteOnlyFlag != 0 {
		return 0, false
	}
	return reg.Peek8(addr), true
}

func (a *APU) WriteRegister(addr uint16, val uint8) {
	reg := a.reg(addr)
	if reg == nil {
		return
	}
	log.ModSound.DebugZ("write register").
		String("reg", reg.Name).
		Hex8("val", val).
		End()
	reg.Write8(addr, val)
}

// PeekSTATUS returns $4015 without clearing the frame interrupt.
func (a *APU) PeekSTATUS(uint8) uint8 {
	var status uint8
	if a.Square1.length.status() {
		status |= 0x01
	}
	if a.Square2.length.status() {
		status |= 0x02
	}
	if a.Triangle.length.status() {
		status |= 0x04
	}
	if a.Noise.length.status() {
		status |= 0x08
	}
	if a.DMC.status() {
		status |= 0x10
	}
	if a.cpu.HasIRQSource(hwdefs.FrameCounter) {
		status |= 0x40
	}
	if a.cpu.HasIRQSource(hwdefs.DMC) {
		status |= 0x80
	}
	return status
}

// ReadSTATUS reads $4015, clearing the frame interrupt flag.
func (a *APU) ReadSTATUS(val uint8) uint8 {
	status := a.PeekSTATUS(val)
	a.cpu.ClearIRQSource(hwdefs.FrameCounter)
	return status
}

// WriteSTATUS handles $4015 writes: channel enable bits.
func (a *APU) WriteSTATUS(_, val uint8) {
	a.Square1.length.setEnabled(val&0x01 != 0)
	a.Square2.length.setEnabled(val&0x02 != 0)
	a.Triangle.length.setEnabled(val&0x04 != 0)
	a.Noise.length.setEnabled(val&0x08 != 0)
	a.DMC.setEnabled(val&0x10 != 0)
}

func (a *APU) WriteFRAMECOUNTER(_, val uint8) {
	a.frameCounter.write(val)
}

func (a *APU) clockFrame(typ frameType) {
	a.Square1.env.tick()
	a.Square2.env.tick()
	a.Noise.env.tick()
	a.Triangle.tickLinearCounter()

	if typ == halfFrame {
		a.Square1.length.tick()
		a.Square2.length.tick()
		a.Triangle.length.tick()
		a.Noise.length.tick()

		a.Square1.tickSweep()
		a.Square2.tickSweep()
	}
}

// Tick runs the APU for one CPU cycle.
func (a *APU) Tick() {
	a.Cycles++
	a.frameCounter.tick()

	a.Square1.tick()
	a.Square2.tick()
	a.Triangle.tick()
	a.Noise.tick()
	a.DMC.tick()

	a.mixer.add(a.Output())
}

// Output returns the current mix of all channels, in [0,1).
func (a *APU) Output() float64 {
	return mix(a.Square1.output(), a.Square2.output(), a.Triangle.output(), a.Noise.output(), a.DMC.output)
}

// ChannelOutput returns the current output level of a single channel.
func (a *APU) ChannelOutput(ch Channel) uint8 {
	switch ch {
	case Square1:
		return a.Square1.output()
	case Square2:
		return a.Square2.output()
	case Triangle:
		return a.Triangle.output()
	case Noise:
		return a.Noise.output()
	case DPCM:
		return a.DMC.output
	}
	return 0
}

// EndFrame returns the samples, at the host sample rate, produced since the
// last call.
func (a *APU) EndFrame() []int16 {
	return a.mixer.drain()
}

func (a *APU) State() snapshot.APU {
	var state snapshot.APU
	a.Square1.saveState(&state.Square1)
	a.Square2.saveState(&state.Square2)
	a.Triangle.saveState(&state.Triangle)
	a.Noise.saveState(&state.Noise)
	a.DMC.saveState(&state.DMC)
	a.frameCounter.saveState(&state.FrameCounter)
	state.Cycles = a.Cycles
	return state
}

// SetState restores the APU from a snapshot. Pending audio samples are
// discarded.
func (a *APU) SetState(state *snapshot.APU) {
	a.Square1.setState(&state.Square1)
	a.Square2.setState(&state.Square2)
	a.Triangle.setState(&state.Triangle)
	a.Noise.setState(&state.Noise)
	a.DMC.setState(&state.DMC)
	a.frameCounter.setState(&state.FrameCounter)
	a.Cycles = state.Cycles
	a.mixer.reset()
	a.mixer.amp = int32(a.Output() * outputScale)
	a.mixer.bl.AddDelta(0, a.mixer.amp)
}

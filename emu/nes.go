package emu

import (
	"fmt"

	"nescore/emu/log"
	"nescore/hw"
	"nescore/hw/apu"
	"nescore/hw/hwdefs"
	"nescore/hw/mappers"
	"nescore/ines"
)

// NES is the whole console. It drives the hardware synchronously: each CPU
// cycle is 3 PPU dots and 1 APU tick. The PPU and APU catch up with the CPU
// after each step, or earlier when the CPU accesses one of their registers.
type NES struct {
	CPU   *hw.CPU
	PPU   *hw.PPU
	APU   *apu.APU
	Bus   *hw.Bus
	Input *hw.InputPorts
	Cart  *mappers.Cartridge
	Rom   *ines.Rom

	cfg Config
	dbg hw.Debugger

	breakpoints map[uint16]bool
	brkpc       uint16
	brkhit      bool
}

// PowerUp builds a console with rom inserted and powers it on. An invalid or
// unsupported rom is reported before anything gets created.
func PowerUp(rom *ines.Rom, cfg Config) (*NES, error) {
	cart, err := mappers.Load(rom)
	if err != nil {
		return nil, fmt.Errorf("power up failed: %w", err)
	}

	rate := cfg.Audio.SampleRate
	if rate <= 0 {
		rate = apu.DefaultSampleRate
	}

	input := hw.NewInputPorts()
	input.Plugged = cfg.Input.Plugged
	input.SetButtons(0, cfg.Input.Hold[0])
	input.SetButtons(1, cfg.Input.Hold[1])

	ppu := hw.NewPPU()
	bus := hw.NewBus(ppu, nil, input)
	cpu := hw.NewCPU(bus)
	bus.CPU = cpu
	bus.APU = apu.New(cpu, rate)
	ppu.CPU = cpu
	cpu.PPU = ppu
	cpu.SetClock(clock{ppu: ppu, apu: bus.APU})

	nes := &NES{
		CPU:         cpu,
		PPU:         ppu,
		APU:         bus.APU,
		Bus:         bus,
		Input:       input,
		cfg:         cfg,
		dbg:         nopDebugger{},
		breakpoints: make(map[uint16]bool),
	}
	nes.insert(rom, cart)
	nes.Reset(hwdefs.HardReset)

	log.ModEmu.InfoZ("power up").
		String("mapper", cart.Mapper.Name()).
		Int("prg", len(cart.PRGROM)).
		Int("chr", len(cart.CHR)).
		Bool("chrram", cart.CHRRAM).
		End()
	return nes, nil
}

func (nes *NES) insert(rom *ines.Rom, cart *mappers.Cartridge) {
	nes.Rom = rom
	nes.Cart = cart
	nes.Bus.Cart = cart
	nes.PPU.SetCartridge(cart)
}

// LoadCartridge swaps the cartridge and power cycles the console. On error
// the current cartridge is kept.
func (nes *NES) LoadCartridge(rom *ines.Rom) error {
	cart, err := mappers.Load(rom)
	if err != nil {
		return fmt.Errorf("load cartridge: %w", err)
	}
	nes.insert(rom, cart)
	nes.Reset(hwdefs.HardReset)
	return nil
}

// Reset performs a soft reset (reset button) or a power cycle.
func (nes *NES) Reset(soft bool) {
	nes.Bus.Reset(soft)
	nes.PPU.Reset(soft)
	nes.APU.Reset(soft)
	nes.Input.Reset()
	nes.CPU.Reset(soft)
	nes.brkhit = false
}

// SetButtons sets the state of the controller plugged in port (0 or 1).
func (nes *NES) SetButtons(port int, b hw.Buttons) {
	nes.Input.SetButtons(port, b)
}

// SetDebugger attaches dbg to the console, nil detaches it.
func (nes *NES) SetDebugger(dbg hw.Debugger) {
	nes.CPU.SetDebugger(dbg)
	if dbg == nil {
		dbg = nopDebugger{}
	}
	nes.dbg = dbg
}

// StepInstruction runs one CPU step (an instruction or an interrupt
// sequence) and advances the rest of the hardware accordingly. It returns
// the number of elapsed CPU cycles.
func (nes *NES) StepInstruction() int {
	cycles := nes.CPU.Step()
	nes.CPU.Sync()
	nes.CPU.SetIRQSourcev(hwdefs.External, nes.Cart.Mapper.IRQPending())
	return cycles
}

// StepFrame runs the console until the PPU completes a frame, and returns
// that frame along with the audio samples produced meanwhile.
//
// If the CPU is about to execute an instruction at a breakpoint address,
// StepFrame stops before it and returns a nil frame; Break reports the
// address. The first instruction is always executed so that calling
// StepFrame again resumes emulation.
func (nes *NES) StepFrame() (*hw.Frame, []int16) {
	nes.brkhit = false
	first := true
	for {
		if !first && len(nes.breakpoints) != 0 && nes.breakpoints[nes.CPU.PC] {
			nes.brkpc = nes.CPU.PC
			nes.brkhit = true
			log.ModEmu.InfoZ("breakpoint").Hex16("pc", nes.brkpc).End()
			return nil, nes.APU.EndFrame()
		}
		first = false

		nes.StepInstruction()
		if nes.PPU.FrameReady() {
			break
		}
	}

	nes.dbg.FrameEnd()
	return nes.PPU.Frame(), nes.APU.EndFrame()
}

// RunFrames runs n frames and returns the last one, along with all the
// produced audio samples. It returns early if a breakpoint is hit.
func (nes *NES) RunFrames(n int) (*hw.Frame, []int16) {
	var (
		frame   *hw.Frame
		samples []int16
	)
	for range n {
		f, s := nes.StepFrame()
		samples = append(samples, s...)
		if f == nil {
			break
		}
		frame = f
	}
	return frame, samples
}

/* breakpoints */

func (nes *NES) SetBreakpoint(pc uint16)   { nes.breakpoints[pc] = true }
func (nes *NES) ClearBreakpoint(pc uint16) { delete(nes.breakpoints, pc) }

// Break reports whether the last call to StepFrame stopped at a breakpoint,
// and its address.
func (nes *NES) Break() (uint16, bool) {
	return nes.brkpc, nes.brkhit
}

// clock runs the PPU and APU for one CPU cycle.
type clock struct {
	ppu *hw.PPU
	apu *apu.APU
}

func (c clock) Tick() {
	c.ppu.Tick()
	c.ppu.Tick()
	c.ppu.Tick()
	c.apu.Tick()
}

type nopDebugger struct{}

func (nopDebugger) Trace(pc uint16)                            {}
func (nopDebugger) Interrupt(prevpc, curpc uint16, isNMI bool) {}
func (nopDebugger) FrameEnd()                                  {}

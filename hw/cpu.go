package hw

import (
	"io"

	"nescore/emu/log"
	"nescore/hw/hwdefs"
	"nescore/hw/hwio"
	"nescore/hw/snapshot"
)

// Locations reserved for vector pointers.
const (
	NMIVector   = uint16(0xFFFA) // Non-Maskable Interrupt
	ResetVector = uint16(0xFFFC) // Reset
	IRQVector   = uint16(0xFFFE) // Interrupt Request
)

// Memory is the CPU view of the address space.
type Memory interface {
	Read8(addr uint16) uint8
	Write8(addr uint16, val uint8)
	Peek8(addr uint16) uint8
}

// Ticker is the hardware clocked along with the CPU. Tick runs it for one CPU
// cycle.
type Ticker interface {
	Tick()
}

// CPU is a 6502 interpreter. It runs one instruction at a time, reporting the
// number of cycles it took so that the rest of the hardware can catch up.
// When a clock is attached, accesses to hardware registers first bring it up
// to the cycle of the access.
type CPU struct {
	Mem Memory

	// PPU is only used to decorate execution traces, it can be nil.
	PPU *PPU

	Cycles int64 // CPU cycles

	// cpu registers
	A, X, Y, SP uint8
	PC          uint16
	P           P

	// interrupt handling
	nmiPending bool
	nmiCycle   int64 // cycle during which the NMI was raised
	irqFlag    hwdefs.IRQSource

	clock  Ticker
	synced int64 // number of cycles the clock has been run for

	// cycles during which the CPU is halted by DMA transfers.
	stall int

	// extra cycles (branches) for the current instruction.
	extra int

	// cycles of the instruction being executed, page crossing included, 0
	// between instructions.
	opCycles int
	rmw      bool

	// Non-nil when execution tracing is enabled.
	tracer *tracer
	dbg    Debugger

	illegalSeen [256]bool
}

// NewCPU creates a new CPU at power-up state.
func NewCPU(mem Memory) *CPU {
	return &CPU{
		Mem: mem,
		SP:  0xFD,
		P:   Interrupt | Unused,
		dbg: nopDebugger{},
	}
}

// Reset performs a soft or hard reset, then jumps to the reset vector.
func (c *CPU) Reset(soft bool) {
	if soft {
		c.SP -= 0x03
		c.P = c.P.SetIntDisable(true)
	} else {
		c.A = 0x00
		c.X = 0x00
		c.Y = 0x00
		c.SP = 0xFD
		c.P = Interrupt | Unused
		c.irqFlag = 0
		c.Cycles = 0
	}

	c.nmiPending = false
	c.stall = 0
	c.PC = c.read16(ResetVector)

	// The reset sequence takes 7 cycles.
	c.Cycles += 7
	c.synced = c.Cycles

	log.ModCPU.DebugZ("reset").Bool("soft", soft).Hex16("pc", c.PC).End()
}

// Step services a pending interrupt or executes a single instruction. It
// returns the number of elapsed CPU cycles, including DMA stalls.
func (c *CPU) Step() int {
	start := c.Cycles

	switch {
	case c.nmiPending && c.nmiPolled():
		c.nmiPending = false
		c.interrupt(NMIVector, true)
	case c.irqFlag != 0 && !c.P.IntDisable():
		c.interrupt(IRQVector, false)
	default:
		c.traceOp()
		c.execute()
	}

	if c.stall != 0 {
		c.Cycles += int64(c.stall)
		c.stall = 0
	}
	return int(c.Cycles - start)
}

func (c *CPU) execute() {
	opcode := c.Mem.Read8(c.PC)
	info := &opcodes[opcode]

	oper := c.operand(info.Mode)
	c.PC += uint16(info.Mode.size())
	c.extra = 0
	c.opCycles = int(info.Cycles)
	if oper.crossed && info.pageCycle {
		c.opCycles++
	}
	c.rmw = info.rmw

	ops[opcode](c, oper)

	c.Cycles += int64(c.opCycles + c.extra)
	c.opCycles = 0
	c.rmw = false
}

func (c *CPU) interrupt(vector uint16, nmi bool) {
	prevpc := c.PC
	c.push16(c.PC)
	c.push8(c.P.pushed(false))
	c.P = c.P.SetIntDisable(true)
	c.PC = c.read16(vector)
	c.Cycles += 7

	log.ModCPU.DebugZ("interrupt").Bool("nmi", nmi).Hex16("from", prevpc).Hex16("to", c.PC).End()
	c.dbg.Interrupt(prevpc, c.PC, nmi)
}

func (c *CPU) traceOp() {
	if c.tracer != nil {
		state := cpuState{
			A:     c.A,
			X:     c.X,
			Y:     c.Y,
			P:     c.P,
			SP:    c.SP,
			Clock: c.Cycles,
			PC:    c.PC,
		}
		if c.PPU != nil {
			state.PPUCycle = c.PPU.Cycle
			state.Scanline = c.PPU.Scanline
		}
		c.tracer.write(state)
	}

	c.dbg.Trace(c.PC)
}

func (c *CPU) read16(addr uint16) uint16 {
	lo := c.Mem.Read8(addr)
	hi := c.Mem.Read8(addr + 1)
	return hwio.U16(lo, hi)
}

// read16bug emulates a 6502 bug where the high byte of the pointer is read
// without carrying into the page.
func (c *CPU) read16bug(addr uint16) uint16 {
	lo := c.Mem.Read8(addr)
	hi := c.Mem.Read8(addr&0xFF00 | uint16(uint8(addr)+1))
	return hwio.U16(lo, hi)
}

// read a pointer in zero page, wrapping at the end of the page.
func (c *CPU) read16zp(zp uint8) uint16 {
	lo := c.Mem.Read8(uint16(zp))
	hi := c.Mem.Read8(uint16(zp + 1))
	return hwio.U16(lo, hi)
}

/* stack operations */

func (c *CPU) push8(val uint8) {
	c.Mem.Write8(0x0100|uint16(c.SP), val)
	c.SP--
}

func (c *CPU) push16(val uint16) {
	c.push8(hwio.Hi(val))
	c.push8(hwio.Lo(val))
}

func (c *CPU) pull8() uint8 {
	c.SP++
	return c.Mem.Read8(0x0100 | uint16(c.SP))
}

func (c *CPU) pull16() uint16 {
	lo := c.pull8()
	hi := c.pull8()
	return hwio.U16(lo, hi)
}

/* clock */

// SetClock attaches the hardware run in lockstep with the CPU.
func (c *CPU) SetClock(t Ticker) {
	c.clock = t
	c.synced = c.Cycles
}

// Sync runs the clock up to the current CPU cycle. It's called after each
// Step.
func (c *CPU) Sync() {
	c.runTo(c.Cycles)
}

func (c *CPU) runTo(cycle int64) {
	if c.clock == nil {
		return
	}
	for c.synced < cycle {
		c.clock.Tick()
		c.synced++
	}
}

// catchUp runs the clock up to the cycle of the memory access being
// performed, so that hardware registers are accessed at the right time.
func (c *CPU) catchUp(write bool) {
	c.runTo(c.accessCycle(write))
}

// accessCycle returns the cycle during which the data access of the current
// instruction happens. It's the last cycle, except for the read of a
// read-modify-write instruction, followed by a dummy write and the write.
func (c *CPU) accessCycle(write bool) int64 {
	if c.opCycles == 0 {
		return c.Cycles
	}
	n := c.opCycles - 1
	if c.rmw && !write {
		n -= 2
	}
	return c.Cycles + int64(n)
}

// CurrentCycle returns the CPU cycle counter. During the execution of an
// instruction, it is the cycle of its last bus access, which is when
// register writes take effect.
func (c *CPU) CurrentCycle() int64 {
	return c.accessCycle(true)
}

/* DMA */

// AddStall halts the CPU for n cycles, accounted for at the end of the
// current step.
func (c *CPU) AddStall(n int) {
	c.stall += n
}

// DMCRead performs a DMC sample fetch, stealing 4 CPU cycles.
func (c *CPU) DMCRead(addr uint16) uint8 {
	c.AddStall(4)
	return c.Mem.Read8(addr)
}

/* interrupt handling */

func (c *CPU) SetIRQSource(src hwdefs.IRQSource)      { c.irqFlag |= src }
func (c *CPU) HasIRQSource(src hwdefs.IRQSource) bool { return (c.irqFlag & src) != 0 }
func (c *CPU) ClearIRQSource(src hwdefs.IRQSource)    { c.irqFlag &^= src }

// SetIRQSourcev sets src if v is true, clears it otherwise.
func (c *CPU) SetIRQSourcev(src hwdefs.IRQSource, v bool) {
	if v {
		c.SetIRQSource(src)
	} else {
		c.ClearIRQSource(src)
	}
}

// setNMIflag requests an NMI, serviced at the next instruction boundary.
func (c *CPU) setNMIflag() {
	c.nmiPending = true
	c.nmiCycle = c.synced
}

// nmiPolled reports whether the pending NMI has been seen by the CPU. The
// interrupt lines are polled before the last cycle of an instruction, an NMI
// raised during that cycle is serviced after the next instruction.
func (c *CPU) nmiPolled() bool {
	return c.clock == nil || c.nmiCycle < c.Cycles-1
}

/* tracing / debugging */

// SetTraceOutput enables the execution trace, in the nestest log format. A
// nil writer disables it.
func (c *CPU) SetTraceOutput(w io.Writer) {
	if w == nil {
		c.tracer = nil
		return
	}
	c.tracer = &tracer{w: w, d: c}
}

func (c *CPU) SetDebugger(dbg Debugger) {
	if dbg == nil {
		dbg = nopDebugger{}
	}
	c.dbg = dbg
}

func (c *CPU) AddLogContext(z *log.EntryZ) {
	z.Hex16("pc", c.PC)
}

func (c *CPU) State() snapshot.CPU {
	return snapshot.CPU{
		PC:         c.PC,
		SP:         c.SP,
		P:          uint8(c.P),
		A:          c.A,
		X:          c.X,
		Y:          c.Y,
		Cycles:     c.Cycles,
		Stall:      c.stall,
		NMIPending: c.nmiPending,
		NMICycle:   c.nmiCycle,
		IRQFlag:    uint8(c.irqFlag),
	}
}

func (c *CPU) SetState(state snapshot.CPU) {
	c.PC = state.PC
	c.SP = state.SP
	c.P = P(state.P)
	c.A = state.A
	c.X = state.X
	c.Y = state.Y
	c.Cycles = state.Cycles
	c.stall = state.Stall
	c.nmiPending = state.NMIPending
	c.nmiCycle = state.NMICycle
	c.irqFlag = hwdefs.IRQSource(state.IRQFlag)
	c.synced = c.Cycles
}

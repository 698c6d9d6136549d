package hw

import (
	"nescore/emu/log"
)

func (c *CPU) load(op operand) uint8 {
	return c.Mem.Read8(op.addr)
}

// rmw performs a read-modify-write operation on memory or on the
// accumulator, returning the written value.
func (c *CPU) rmw(op operand, f func(uint8) uint8) uint8 {
	if op.mode == acc {
		c.A = f(c.A)
		return c.A
	}
	val := f(c.Mem.Read8(op.addr))
	c.Mem.Write8(op.addr, val)
	return val
}

func (c *CPU) branch(op operand, cond bool) {
	if !cond {
		return
	}
	c.extra++
	if pagesDiffer(c.PC, op.addr) {
		c.extra++
	}
	c.PC = op.addr
}

func (c *CPU) compare(a, b uint8) {
	c.P.checkNZ(a - b)
	c.P = c.P.SetCarry(a >= b)
}

// add with carry. The decimal flag has no effect on the 2A03.
func (c *CPU) adc(val uint8) {
	sum := uint16(c.A) + uint16(val) + uint16(c.P.carry())
	c.P.checkCV(c.A, val, sum)
	c.A = uint8(sum)
	c.P.checkNZ(c.A)
}

func (c *CPU) asl(val uint8) uint8 {
	c.P = c.P.SetCarry(val&0x80 != 0)
	val <<= 1
	c.P.checkNZ(val)
	return val
}

func (c *CPU) lsr(val uint8) uint8 {
	c.P = c.P.SetCarry(val&0x01 != 0)
	val >>= 1
	c.P.checkNZ(val)
	return val
}

func (c *CPU) rol(val uint8) uint8 {
	carry := c.P.carry()
	c.P = c.P.SetCarry(val&0x80 != 0)
	val = val<<1 | carry
	c.P.checkNZ(val)
	return val
}

func (c *CPU) ror(val uint8) uint8 {
	carry := c.P.carry()
	c.P = c.P.SetCarry(val&0x01 != 0)
	val = val>>1 | carry<<7
	c.P.checkNZ(val)
	return val
}

/* load / store */

func (c *CPU) LDA(op operand) { c.A = c.load(op); c.P.checkNZ(c.A) }
func (c *CPU) LDX(op operand) { c.X = c.load(op); c.P.checkNZ(c.X) }
func (c *CPU) LDY(op operand) { c.Y = c.load(op); c.P.checkNZ(c.Y) }
func (c *CPU) STA(op operand) { c.Mem.Write8(op.addr, c.A) }
func (c *CPU) STX(op operand) { c.Mem.Write8(op.addr, c.X) }
func (c *CPU) STY(op operand) { c.Mem.Write8(op.addr, c.Y) }

/* transfers */

func (c *CPU) TAX(operand) { c.X = c.A; c.P.checkNZ(c.X) }
func (c *CPU) TAY(operand) { c.Y = c.A; c.P.checkNZ(c.Y) }
func (c *CPU) TSX(operand) { c.X = c.SP; c.P.checkNZ(c.X) }
func (c *CPU) TXA(operand) { c.A = c.X; c.P.checkNZ(c.A) }
func (c *CPU) TXS(operand) { c.SP = c.X }
func (c *CPU) TYA(operand) { c.A = c.Y; c.P.checkNZ(c.A) }

/* arithmetic and logic */

func (c *CPU) ADC(op operand) { c.adc(c.load(op)) }
func (c *CPU) SBC(op operand) { c.adc(^c.load(op)) }
func (c *CPU) AND(op operand) { c.A &= c.load(op); c.P.checkNZ(c.A) }
func (c *CPU) ORA(op operand) { c.A |= c.load(op); c.P.checkNZ(c.A) }
func (c *CPU) EOR(op operand) { c.A ^= c.load(op); c.P.checkNZ(c.A) }
func (c *CPU) CMP(op operand) { c.compare(c.A, c.load(op)) }
func (c *CPU) CPX(op operand) { c.compare(c.X, c.load(op)) }
func (c *CPU) CPY(op operand) { c.compare(c.Y, c.load(op)) }

func (c *CPU) BIT(op operand) {
	val := c.load(op)
	c.P.checkZ(c.A & val)
	c.P.checkN(val)
	c.P = c.P.SetOverflow(val&0x40 != 0)
}

func (c *CPU) ASL(op operand) { c.rmw(op, c.asl) }
func (c *CPU) LSR(op operand) { c.rmw(op, c.lsr) }
func (c *CPU) ROL(op operand) { c.rmw(op, c.rol) }
func (c *CPU) ROR(op operand) { c.rmw(op, c.ror) }

func (c *CPU) INC(op operand) {
	c.rmw(op, func(v uint8) uint8 { v++; c.P.checkNZ(v); return v })
}

func (c *CPU) DEC(op operand) {
	c.rmw(op, func(v uint8) uint8 { v--; c.P.checkNZ(v); return v })
}

func (c *CPU) INX(operand) { c.X++; c.P.checkNZ(c.X) }
func (c *CPU) INY(operand) { c.Y++; c.P.checkNZ(c.Y) }
func (c *CPU) DEX(operand) { c.X--; c.P.checkNZ(c.X) }
func (c *CPU) DEY(operand) { c.Y--; c.P.checkNZ(c.Y) }

/* flags */

func (c *CPU) CLC(operand) { c.P = c.P.SetCarry(false) }
func (c *CPU) CLD(operand) { c.P = c.P.SetDecimal(false) }
func (c *CPU) CLI(operand) { c.P = c.P.SetIntDisable(false) }
func (c *CPU) CLV(operand) { c.P = c.P.SetOverflow(false) }
func (c *CPU) SEC(operand) { c.P = c.P.SetCarry(true) }
func (c *CPU) SED(operand) { c.P = c.P.SetDecimal(true) }
func (c *CPU) SEI(operand) { c.P = c.P.SetIntDisable(true) }

/* branches and jumps */

func (c *CPU) BCC(op operand) { c.branch(op, !c.P.Carry()) }
func (c *CPU) BCS(op operand) { c.branch(op, c.P.Carry()) }
func (c *CPU) BEQ(op operand) { c.branch(op, c.P.Zero()) }
func (c *CPU) BMI(op operand) { c.branch(op, c.P.Negative()) }
func (c *CPU) BNE(op operand) { c.branch(op, !c.P.Zero()) }
func (c *CPU) BPL(op operand) { c.branch(op, !c.P.Negative()) }
func (c *CPU) BVC(op operand) { c.branch(op, !c.P.Overflow()) }
func (c *CPU) BVS(op operand) { c.branch(op, c.P.Overflow()) }

func (c *CPU) JMP(op operand) { c.PC = op.addr }

func (c *CPU) JSR(op operand) {
	c.push16(c.PC - 1)
	c.PC = op.addr
}

func (c *CPU) RTS(operand) {
	c.PC = c.pull16() + 1
}

func (c *CPU) RTI(operand) {
	c.P = pulled(c.pull8())
	c.PC = c.pull16()
}

func (c *CPU) BRK(operand) {
	// BRK is 2 bytes long, the second one is ignored.
	c.push16(c.PC + 1)
	c.push8(c.P.pushed(true))
	c.P = c.P.SetIntDisable(true)

	// An NMI occurring during BRK hijacks the vector.
	vector := IRQVector
	if c.nmiPending {
		c.nmiPending = false
		vector = NMIVector
	}
	prevpc := c.PC
	c.PC = c.read16(vector)
	c.dbg.Interrupt(prevpc, c.PC, vector == NMIVector)
}

/* stack */

func (c *CPU) PHA(operand) { c.push8(c.A) }
func (c *CPU) PHP(operand) { c.push8(c.P.pushed(true)) }
func (c *CPU) PLA(operand) { c.A = c.pull8(); c.P.checkNZ(c.A) }
func (c *CPU) PLP(operand) { c.P = pulled(c.pull8()) }

// NOP also covers the undocumented NOPs, some of them read memory.
func (c *CPU) NOP(op operand) {
	switch op.mode {
	case imp, imm:
	default:
		c.load(op)
	}
}

/* stable undocumented opcodes */

func (c *CPU) LAX(op operand) {
	c.A = c.load(op)
	c.X = c.A
	c.P.checkNZ(c.A)
}

func (c *CPU) SAX(op operand) { c.Mem.Write8(op.addr, c.A&c.X) }

func (c *CPU) DCP(op operand) {
	val := c.rmw(op, func(v uint8) uint8 { return v - 1 })
	c.compare(c.A, val)
}

func (c *CPU) ISB(op operand) {
	val := c.rmw(op, func(v uint8) uint8 { return v + 1 })
	c.adc(^val)
}

func (c *CPU) SLO(op operand) {
	val := c.rmw(op, c.asl)
	c.A |= val
	c.P.checkNZ(c.A)
}

func (c *CPU) RLA(op operand) {
	val := c.rmw(op, c.rol)
	c.A &= val
	c.P.checkNZ(c.A)
}

func (c *CPU) SRE(op operand) {
	val := c.rmw(op, c.lsr)
	c.A ^= val
	c.P.checkNZ(c.A)
}

func (c *CPU) RRA(op operand) {
	val := c.rmw(op, c.ror)
	c.adc(val)
}

func (c *CPU) ANC(op operand) {
	c.A &= c.load(op)
	c.P.checkNZ(c.A)
	c.P = c.P.SetCarry(c.P.Negative())
}

func (c *CPU) ALR(op operand) {
	c.A = c.lsr(c.A & c.load(op))
}

func (c *CPU) ARR(op operand) {
	c.A = (c.A&c.load(op))>>1 | c.P.carry()<<7
	c.P.checkNZ(c.A)
	c.P = c.P.SetCarry(c.A&0x40 != 0)
	c.P = c.P.SetOverflow((c.A>>6)&1 != (c.A>>5)&1)
}

func (c *CPU) SBX(op operand) {
	val := c.load(op)
	ax := c.A & c.X
	c.X = ax - val
	c.P = c.P.SetCarry(ax >= val)
	c.P.checkNZ(c.X)
}

func (c *CPU) LAS(op operand) {
	c.A = c.load(op) & c.SP
	c.X = c.A
	c.SP = c.A
	c.P.checkNZ(c.A)
}

// unstable executes an unstable undocumented opcode as a NOP.
func (c *CPU) unstable(op operand) {
	opcode := c.Mem.Peek8(c.PC - uint16(op.mode.size()))
	if !c.illegalSeen[opcode] {
		c.illegalSeen[opcode] = true
		log.ModCPU.WarnZ("unstable opcode executed as NOP").
			String("name", opcodes[opcode].Name).
			Hex8("opcode", opcode).
			Hex16("pc", c.PC-uint16(op.mode.size())).
			End()
	}
}

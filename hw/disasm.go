package hw

import (
	"bytes"
	"fmt"
)

type DisasmOp struct {
	Opcode string
	Oper   string
	Buf    []byte
	PC     uint16
}

func (d DisasmOp) String() string {
	return string(bytes.TrimRight(d.Bytes(), " "))
}

// Bytes returns the nestest-like representation of the disassembled
// instruction, padded to 48 columns.
func (d DisasmOp) Bytes() []byte {
	const totalLen = 48
	buf := make([]byte, totalLen)

	hexEncode(buf[0:], byte(d.PC>>8))
	hexEncode(buf[2:], byte(d.PC))
	buf[4] = ' '
	buf[5] = ' '

	off := 6
	for i := range d.Buf {
		hexEncode(buf[off:], d.Buf[i])
		buf[off+2] = ' '
		off += 3
	}

	// Illegal opcodes have their star in the last column of the byte dump.
	start := 16
	if len(d.Opcode) > 0 && d.Opcode[0] == '*' {
		start = 15
	}
	for ; off < start; off++ {
		buf[off] = ' '
	}

	off += copy(buf[off:], d.Opcode)
	buf[off] = ' '
	off++

	buf = append(buf[:off], d.Oper...)
	off += len(d.Oper)
	if len(buf) >= totalLen {
		buf = append(buf, ' ')
	} else {
		buf = buf[:totalLen]
		for i := off; i < totalLen; i++ {
			buf[i] = ' '
		}
	}
	return buf
}

// Disasm disassembles the instruction at pc, in the context of the current
// CPU state. The memory is peeked, there are no side effects.
func (c *CPU) Disasm(pc uint16) DisasmOp {
	peek := c.Mem.Peek8
	peek16 := func(addr uint16) uint16 {
		return uint16(peek(addr+1))<<8 | uint16(peek(addr))
	}
	// zero page pointer
	peekzp := func(zp uint8) uint16 {
		return uint16(peek(uint16(zp+1)))<<8 | uint16(peek(uint16(zp)))
	}

	opcode := peek(pc)
	info := opcodes[opcode]

	d := DisasmOp{PC: pc, Opcode: info.Name}
	if info.Illegal {
		d.Opcode = "*" + info.Name
	}
	for i := range info.Mode.size() {
		d.Buf = append(d.Buf, peek(pc+uint16(i)))
	}

	switch info.Mode {
	case imp:
	case acc:
		d.Oper = "A"
	case imm:
		d.Oper = fmt.Sprintf("#$%02X", peek(pc+1))
	case zpg:
		addr := peek(pc + 1)
		d.Oper = fmt.Sprintf("$%02X = %02X", addr, peek(uint16(addr)))
	case zpx:
		addr := peek(pc + 1)
		eff := addr + c.X
		d.Oper = fmt.Sprintf("$%02X,X @ %02X = %02X", addr, eff, peek(uint16(eff)))
	case zpy:
		addr := peek(pc + 1)
		eff := addr + c.Y
		d.Oper = fmt.Sprintf("$%02X,Y @ %02X = %02X", addr, eff, peek(uint16(eff)))
	case abs:
		addr := peek16(pc + 1)
		switch info.Name {
		case "JMP", "JSR":
			d.Oper = fmt.Sprintf("$%04X", addr)
		default:
			d.Oper = fmt.Sprintf("%s = %02X", formatAddr(addr), peek(addr))
		}
	case abx:
		addr := peek16(pc + 1)
		eff := addr + uint16(c.X)
		d.Oper = fmt.Sprintf("$%04X,X @ %04X = %02X", addr, eff, peek(eff))
	case aby:
		addr := peek16(pc + 1)
		eff := addr + uint16(c.Y)
		d.Oper = fmt.Sprintf("$%04X,Y @ %04X = %02X", addr, eff, peek(eff))
	case ind:
		addr := peek16(pc + 1)
		dst := uint16(peek(addr&0xFF00|uint16(uint8(addr)+1)))<<8 | uint16(peek(addr))
		d.Oper = fmt.Sprintf("($%04X) = %04X", addr, dst)
	case izx:
		zp := peek(pc + 1)
		eff := peekzp(zp + c.X)
		d.Oper = fmt.Sprintf("($%02X,X) @ %02X = %04X = %02X", zp, zp+c.X, eff, peek(eff))
	case izy:
		zp := peek(pc + 1)
		base := peekzp(zp)
		eff := base + uint16(c.Y)
		d.Oper = fmt.Sprintf("($%02X),Y = %04X @ %04X = %02X", zp, base, eff, peek(eff))
	case rel:
		off := int8(peek(pc + 1))
		d.Oper = fmt.Sprintf("$%04X", pc+2+uint16(off))
	}
	return d
}

func formatAddr(addr uint16) string {
	return fmt.Sprintf("$%04X", addr)
}

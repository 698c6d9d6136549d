package hw

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"testing"
)

func BenchmarkDisasmOpBytes(b *testing.B) {
	want := fmt.Sprintf("%-48s", "C000  4C F5 C5  JMP $C5F5")

	op := DisasmOp{
		Opcode: "JMP",
		Oper:   "$C5F5",
		Buf:    []byte{0x4c, 0xf5, 0xc5},
		PC:     0xC000,
	}

	var opbytes []byte
	for range b.N {
		opbytes = op.Bytes()
	}

	if string(opbytes) != want {
		b.Fatalf("\ngot:  \"%s\"\nwant: \"%s\"\n", string(opbytes), want)
	}
}

type dummyDisasm map[uint16]DisasmOp

func (dd dummyDisasm) Disasm(pc uint16) DisasmOp {
	return dd[pc]
}

var traceTestOps = dummyDisasm{
	0xC000: DisasmOp{
		PC:     0xC000,
		Buf:    []byte{0x4C, 0xF5, 0xC5},
		Opcode: "JMP",
		Oper:   "$C5F5",
	},
	0xC72F: DisasmOp{
		PC:     0xC72F,
		Buf:    []byte{0xEA},
		Opcode: "NOP",
	},
	0xC6BD: DisasmOp{
		PC:     0xC6BD,
		Buf:    []byte{0x04, 0xA9},
		Opcode: "*NOP",
		Oper:   "$A9 = 00",
	},
}

func TestTraceFormat(t *testing.T) {
	want := []string{
		fmt.Sprintf("%-48sA:00 X:00 Y:00 P:24 SP:FD PPU:  0, 21 CYC:7", "C000  4C F5 C5  JMP $C5F5"),
		fmt.Sprintf("%-48sA:00 X:00 Y:00 P:26 SP:FB PPU:  0,138 CYC:46", "C72F  EA        NOP"),
		fmt.Sprintf("%-48sA:AA X:97 Y:4E P:EF SP:F5 PPU:241,297 CYC:14579", "C6BD  04 A9    *NOP $A9 = 00"),
	}

	var out bytes.Buffer
	tr := tracer{d: traceTestOps, w: &out}

	tr.write(cpuState{PC: 0xC000, P: 0x24, SP: 0xFD, PPUCycle: 21, Clock: 7})
	tr.write(cpuState{PC: 0xC72F, P: 0x26, SP: 0xFB, PPUCycle: 138, Clock: 46})
	tr.write(cpuState{PC: 0xC6BD, A: 0xAA, X: 0x97, Y: 0x4E, P: 0xEF, SP: 0xF5, Scanline: 241, PPUCycle: 297, Clock: 14579})

	wantstr := strings.Join(want, "\n") + "\n"
	if out.String() != wantstr {
		t.Fatalf("trace differs\ngot:\n%s\nwant:\n%s\n", out.String(), wantstr)
	}
}

func TestDisasm(t *testing.T) {
	tests := []struct {
		code []uint8
		x, y uint8
		want string
	}{
		{[]uint8{0x4C, 0xF5, 0xC5}, 0, 0, "0400  4C F5 C5  JMP $C5F5"},
		{[]uint8{0xA9, 0x32}, 0, 0, "0400  A9 32     LDA #$32"},
		{[]uint8{0x0A}, 0, 0, "0400  0A        ASL A"},
		{[]uint8{0x85, 0x10}, 0, 0, "0400  85 10     STA $10 = 11"},
		{[]uint8{0xB5, 0xFF}, 0x11, 0, "0400  B5 FF     LDA $FF,X @ 10 = 11"},
		{[]uint8{0xAD, 0x00, 0x02}, 0, 0, "0400  AD 00 02  LDA $0200 = 22"},
		{[]uint8{0xBD, 0xFF, 0x01}, 1, 0, "0400  BD FF 01  LDA $01FF,X @ 0200 = 22"},
		{[]uint8{0x6C, 0x00, 0x02}, 0, 0, "0400  6C 00 02  JMP ($0200) = 3322"},
		{[]uint8{0xA1, 0x0F}, 1, 0, "0400  A1 0F     LDA ($0F,X) @ 10 = 3311 = 00"},
		{[]uint8{0xB1, 0x10}, 0, 2, "0400  B1 10     LDA ($10),Y = 3311 @ 3313 = 00"},
		{[]uint8{0xD0, 0xFE}, 0, 0, "0400  D0 FE     BNE $0400"},
		{[]uint8{0xA7, 0x10}, 0, 0, "0400  A7 10    *LAX $10 = 11"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			mem := &flatMem{}
			mem.load(0x0010, 0x11, 0x33)
			mem.load(0x0200, 0x22, 0x33)
			mem.load(0x0400, tt.code...)

			cpu := NewCPU(mem)
			cpu.X = tt.x
			cpu.Y = tt.y

			if got := cpu.Disasm(0x0400).String(); got != tt.want {
				t.Errorf("\ngot:  %q\nwant: %q", got, tt.want)
			}
		})
	}
}

func BenchmarkTraceFormat(b *testing.B) {
	tr := tracer{d: traceTestOps, w: io.Discard}
	s1 := cpuState{PC: 0xC000, P: 0x24, SP: 0xFD, PPUCycle: 21, Clock: 7}
	s2 := cpuState{PC: 0xC72F, P: 0x26, SP: 0xFB, PPUCycle: 138, Clock: 46}

	for range b.N {
		tr.write(s1)
		tr.write(s2)
	}
}

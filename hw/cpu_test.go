package hw

import (
	"testing"

	"nescore/hw/hwdefs"
)

func TestPflag(t *testing.T) {
	p := P(0x40)
	p = p.SetIntDisable(true)
	if p != 0x44 {
		t.Errorf("got P = %q, want %q", p.String(), P(0x44))
	}

	p = p.SetBreak(true)
	if p != 0x54 {
		t.Errorf("got P = %q, want %q", p.String(), P(0x54))
	}

	// Negative flag
	p.checkN(0xff)
	if !p.Negative() {
		t.Error("N bit should be set")
	}
	p.checkN(0x7f)
	if p.Negative() {
		t.Error("N bit should not be set")
	}

	// Zero flag
	p.checkZ(0)
	if !p.Zero() {
		t.Error("Z bit should be set")
	}
	p.checkZ(0xff)
	if p.Zero() {
		t.Error("Z bit should not be set")
	}
}

func TestPString(t *testing.T) {
	p := P(0b00110100)
	if got := p.String(); got != "nvUBdIzc" {
		t.Errorf("got P = %s, want %s", got, "nvUBdIzc")
	}
	p = P(0b00000100)
	if p.String() != "nvubdIzc" {
		t.Errorf("got P = %s, want %s", p.String(), "nvubdIzc")
	}
}

func TestPushedPulled(t *testing.T) {
	p := Carry | Interrupt
	if got := p.pushed(true); got != 0x35 {
		t.Errorf("pushed(brk) = 0x%02X, want 0x35", got)
	}
	if got := p.pushed(false); got != 0x25 {
		t.Errorf("pushed(irq) = 0x%02X, want 0x25", got)
	}
	// B is never set in the register, U always is.
	if got := pulled(0xFF); got != 0xEF {
		t.Errorf("pulled(0xFF) = 0x%02X, want 0xEF", uint8(got))
	}
}

func TestReset(t *testing.T) {
	cpu, _ := loadCPUWith(t, `FFFC: 34 12`)
	if cpu.PC != 0x1234 {
		t.Errorf("PC = 0x%04X, want 0x1234", cpu.PC)
	}

	cpu.Cycles = 0
	cpu.Reset(false)
	if cpu.Cycles != 7 || cpu.SP != 0xFD || cpu.P != 0x24 {
		t.Errorf("after hard reset: cycles=%d SP=%02X P=%02X", cpu.Cycles, cpu.SP, uint8(cpu.P))
	}

	cpu.A = 0x42
	cpu.P = Carry
	cpu.Reset(true)
	if cpu.A != 0x42 || cpu.SP != 0xFA || cpu.P != Carry|Interrupt {
		t.Errorf("after soft reset: A=%02X SP=%02X P=%02X", cpu.A, cpu.SP, uint8(cpu.P))
	}
}

func TestCPx(t *testing.T) {
	t.Run("40 - 41", func(t *testing.T) {
		// LDX #$40
		// CPX #$41
		cpu, _ := loadCPUWith(t, `0600: a2 40 e0 41`)
		cpu.PC = 0x0600
		cpu.P = 0b00110000
		runCycles(cpu, 4)
		checkRegs(t, cpu, regs{X: 0x40, SP: 0xFD, P: 0b10110000, PC: 0x0604})
	})
	t.Run("40 - 40", func(t *testing.T) {
		// LDX #$40
		// CPX #$40
		cpu, _ := loadCPUWith(t, `0600: a2 40 e0 40`)
		cpu.PC = 0x0600
		cpu.P = 0b00110000
		runCycles(cpu, 4)
		checkRegs(t, cpu, regs{X: 0x40, SP: 0xFD, P: 0b00110011, PC: 0x0604})
	})
	t.Run("40 - 39", func(t *testing.T) {
		// LDX #$40
		// CPX #$39
		cpu, _ := loadCPUWith(t, `0600: a2 40 e0 39`)
		cpu.PC = 0x0600
		cpu.P = 0b00110000
		runCycles(cpu, 4)
		checkRegs(t, cpu, regs{X: 0x40, SP: 0xFD, P: 0b00110001, PC: 0x0604})
	})
}

func TestLDA_STA(t *testing.T) {
	dump := `0600: a9 01 8d 00 02 a9 05 8d 01 02 a9 08 8d 02 02`
	cpu, mem := loadCPUWith(t, dump)
	cpu.PC = 0x0600
	runCycles(cpu, 6*3)
	checkRegs(t, cpu, regs{A: 0x08, SP: 0xFD, P: 0x24, PC: 0x060F})
	wantMem8(t, mem, 0x0200, 0x01)
	wantMem8(t, mem, 0x0201, 0x05)
	wantMem8(t, mem, 0x0202, 0x08)
}

func TestROR(t *testing.T) {
	dump := `
0000: 55
0100: 66 00
# reset vector
FFFC: 00 01`
	cpu, mem := loadCPUWith(t, dump)
	cpu.A = 0x80
	cpu.P = cpu.P.SetCarry(true)
	runCycles(cpu, 5)
	if !cpu.P.Negative() || !cpu.P.Carry() || cpu.P.Zero() {
		t.Errorf("P = %s, want N and C set, Z clear", cpu.P)
	}
	wantMem8(t, mem, 0x0000, 0xAA)
}

func TestStack(t *testing.T) {
	dump := `
# instructions
0600: a2 00 a0 00 8a 99 00 02 48 e8 c8 c0 10 d0 f5 68
0610: 99 00 02 c8 c0 20 d0 f7
# reset vector
FFFC: 00 06
`
	cpu, mem := loadCPUWith(t, dump)
	cpu.P = 0x30
	cpu.SP = 0xFF
	runCycles(cpu, 562)
	if cpu.Cycles != 562 {
		t.Errorf("cycles = %d, want 562", cpu.Cycles)
	}
	checkRegs(t, cpu, regs{X: 0x10, Y: 0x20, SP: 0xFF, P: 0x33, PC: 0x0618})
	for i := range uint16(16) {
		wantMem8(t, mem, 0x01F0+i, uint8(15-i))
		wantMem8(t, mem, 0x0200+i, uint8(i))
		wantMem8(t, mem, 0x0210+i, uint8(15-i))
	}
}

func TestJMPIndirectBug(t *testing.T) {
	dump := `
0200: 03
02FF: 00
0300: 04
0600: 6c ff 02`
	cpu, _ := loadCPUWith(t, dump)
	cpu.PC = 0x0600
	if n := cpu.Step(); n != 5 {
		t.Errorf("JMP (ind) took %d cycles, want 5", n)
	}
	if cpu.PC != 0x0300 {
		t.Errorf("PC = 0x%04X, want 0x0300", cpu.PC)
	}
}

func TestZeroPageWrap(t *testing.T) {
	t.Run("zpx", func(t *testing.T) {
		// LDA $FF,X
		cpu, _ := loadCPUWith(t, `
0001: 42
0101: 99
0600: b5 ff`)
		cpu.PC = 0x0600
		cpu.X = 2
		cpu.Step()
		if cpu.A != 0x42 {
			t.Errorf("A = 0x%02X, want 0x42", cpu.A)
		}
	})
	t.Run("izx", func(t *testing.T) {
		// LDA ($FE,X) with pointer at $FF/$00
		cpu, _ := loadCPUWith(t, `
0000: 03
00FF: 10
0310: 77
0600: a1 fe`)
		cpu.PC = 0x0600
		cpu.X = 1
		cpu.Step()
		if cpu.A != 0x77 {
			t.Errorf("A = 0x%02X, want 0x77", cpu.A)
		}
	})
}

func TestInstructionCycles(t *testing.T) {
	tests := []struct {
		name string
		code []uint8
		x, y uint8
		p    P
		want int
	}{
		{"lda abx", []uint8{0xBD, 0x00, 0x12}, 1, 0, 0, 4},
		{"lda abx page cross", []uint8{0xBD, 0xFF, 0x12}, 1, 0, 0, 5},
		{"sta abx page cross", []uint8{0x9D, 0xFF, 0x12}, 1, 0, 0, 5},
		{"sta abx", []uint8{0x9D, 0x00, 0x12}, 1, 0, 0, 5},
		{"inc abx page cross", []uint8{0xFE, 0xFF, 0x12}, 1, 0, 0, 7},
		{"lda aby page cross", []uint8{0xB9, 0xFF, 0x12}, 0, 1, 0, 5},
		{"nop abx page cross", []uint8{0x1C, 0xFF, 0x12}, 1, 0, 0, 5},
		{"lax aby page cross", []uint8{0xBF, 0xFF, 0x12}, 0, 1, 0, 5},
		{"bne not taken", []uint8{0xD0, 0x10}, 0, 0, Zero, 2},
		{"bne taken", []uint8{0xD0, 0x02}, 0, 0, 0, 3},
		{"bne taken page cross", []uint8{0xD0, 0x10}, 0, 0, 0, 4},
		{"jsr", []uint8{0x20, 0x00, 0x10}, 0, 0, 0, 6},
		{"brk", []uint8{0x00}, 0, 0, 0, 7},
		{"dcp izy", []uint8{0xD3, 0x10}, 0, 1, 0, 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mem := &flatMem{}
			mem.load(0x06F0, tt.code...)
			cpu := NewCPU(mem)
			cpu.PC = 0x06F0
			cpu.X = tt.x
			cpu.Y = tt.y
			cpu.P = tt.p | Unused

			if got := cpu.Step(); got != tt.want {
				t.Errorf("got %d cycles, want %d", got, tt.want)
			}
		})
	}
}

func TestInterrupts(t *testing.T) {
	dump := `
0600: ea ea ea
8000: ea
9000: ea
FFFA: 00 80
FFFC: 00 06
FFFE: 00 90`

	t.Run("nmi", func(t *testing.T) {
		cpu, mem := loadCPUWith(t, dump)
		cpu.setNMIflag()
		if n := cpu.Step(); n != 7 {
			t.Errorf("nmi took %d cycles, want 7", n)
		}
		if cpu.PC != 0x8000 {
			t.Errorf("PC = 0x%04X, want 0x8000", cpu.PC)
		}
		if !cpu.P.IntDisable() {
			t.Errorf("I flag should be set")
		}
		// pushed P has B clear.
		wantMem8(t, mem, 0x01FB, 0x24)
		wantMem8(t, mem, 0x01FC, 0x00)
		wantMem8(t, mem, 0x01FD, 0x06)
	})

	t.Run("irq masked", func(t *testing.T) {
		cpu, _ := loadCPUWith(t, dump)
		cpu.SetIRQSource(hwdefs.External)
		cpu.Step()
		if cpu.PC != 0x0601 {
			t.Errorf("PC = 0x%04X, want 0x0601", cpu.PC)
		}
	})

	t.Run("irq", func(t *testing.T) {
		cpu, _ := loadCPUWith(t, dump)
		cpu.P = cpu.P.SetIntDisable(false)
		cpu.SetIRQSource(hwdefs.FrameCounter)
		cpu.Step()
		if cpu.PC != 0x9000 {
			t.Errorf("PC = 0x%04X, want 0x9000", cpu.PC)
		}
		// IRQ line is level triggered, it stays asserted until acknowledged.
		if !cpu.HasIRQSource(hwdefs.FrameCounter) {
			t.Errorf("irq source should still be set")
		}
		cpu.ClearIRQSource(hwdefs.FrameCounter)
		cpu.Step()
		if cpu.PC != 0x9001 {
			t.Errorf("PC = 0x%04X, want 0x9001", cpu.PC)
		}
	})

	t.Run("brk hijacked by nmi", func(t *testing.T) {
		cpu, mem := loadCPUWith(t, `
0600: 00
FFFA: 00 80
FFFC: 00 06
FFFE: 00 90`)
		// Simulate an NMI asserted during the execution of BRK.
		cpu.traceOp()
		cpu.nmiPending = true
		cpu.execute()
		if cpu.PC != 0x8000 {
			t.Errorf("PC = 0x%04X, want 0x8000", cpu.PC)
		}
		// pushed P has B set.
		wantMem8(t, mem, 0x01FB, 0x34)
	})
}

func TestDMAStall(t *testing.T) {
	cpu, _ := loadCPUWith(t, `
0600: ea
FFFC: 00 06`)
	cpu.AddStall(513)
	if n := cpu.Step(); n != 2+513 {
		t.Errorf("step took %d cycles, want %d", n, 2+513)
	}

	mem := cpu.Mem.(*flatMem)
	mem[0xC000] = 0x5A
	if v := cpu.DMCRead(0xC000); v != 0x5A {
		t.Errorf("DMCRead = 0x%02X, want 0x5A", v)
	}
	if cpu.stall != 4 {
		t.Errorf("stall = %d, want 4", cpu.stall)
	}
}

func TestUnstableOpcodeIsNOP(t *testing.T) {
	// SHX $1000,Y
	cpu, mem := loadCPUWith(t, `
0600: 9e 00 10
FFFC: 00 06`)
	cpu.X = 0xFF
	cpu.Step()
	if cpu.PC != 0x0603 {
		t.Errorf("PC = 0x%04X, want 0x0603", cpu.PC)
	}
	wantMem8(t, mem, 0x1000, 0x00)
}

func TestLAS(t *testing.T) {
	// LAS $1000,Y
	cpu, mem := loadCPUWith(t, `
0600: bb 00 10
1002: f3
FFFC: 00 06`)
	cpu.Y = 0x02
	if n := cpu.Step(); n != 4 {
		t.Errorf("LAS took %d cycles, want 4", n)
	}
	// $F3 & SP($FD)
	if cpu.A != 0xF1 || cpu.X != 0xF1 || cpu.SP != 0xF1 {
		t.Errorf("A=%02X X=%02X SP=%02X, want F1", cpu.A, cpu.X, cpu.SP)
	}
	if !cpu.P.Negative() || cpu.P.Zero() {
		t.Errorf("P = %s, want N set and Z clear", cpu.P)
	}
	wantMem8(t, mem, 0x1002, 0xF3)
}

func TestCPUState(t *testing.T) {
	cpu, _ := loadCPUWith(t, `FFFC: 00 06`)
	cpu.A, cpu.X, cpu.Y = 1, 2, 3
	cpu.SetIRQSource(hwdefs.DMC)
	cpu.AddStall(3)
	state := cpu.State()

	other := NewCPU(cpu.Mem)
	other.SetState(state)
	if other.State() != state {
		t.Errorf("state mismatch:\ngot:  %+v\nwant: %+v", other.State(), state)
	}
}

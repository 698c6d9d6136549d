package hw

import (
	"bufio"
	"strconv"
	"strings"
	"testing"
)

// flatMem is a 64KB RAM without any mirroring nor mapped register.
type flatMem [0x10000]uint8

func (m *flatMem) Read8(addr uint16) uint8         { return m[addr] }
func (m *flatMem) Peek8(addr uint16) uint8         { return m[addr] }
func (m *flatMem) Write8(addr uint16, val uint8)   { m[addr] = val }
func (m *flatMem) load(addr uint16, data ...uint8) { copy(m[addr:], data) }

// loadHexDump fills mem with an hexdump of the form:
//
//	# comment
//	0600: a9 01 8d 00 02
func loadHexDump(tb testing.TB, mem *flatMem, dump string) {
	tb.Helper()

	sc := bufio.NewScanner(strings.NewReader(dump))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || line[0] == '#' {
			continue
		}
		saddr, sbytes, ok := strings.Cut(line, ":")
		if !ok {
			tb.Fatalf("malformed hexdump line: %q", line)
		}
		addr, err := strconv.ParseUint(saddr, 16, 16)
		if err != nil {
			tb.Fatalf("malformed hexdump address: %q: %v", line, err)
		}
		for _, sb := range strings.Fields(sbytes) {
			b, err := strconv.ParseUint(sb, 16, 8)
			if err != nil {
				tb.Fatalf("malformed hexdump byte: %q: %v", line, err)
			}
			mem[addr] = uint8(b)
			addr++
		}
	}
}

// loadCPUWith returns a CPU which memory has been loaded with dump. If dump
// sets the reset vector, PC is loaded from it.
func loadCPUWith(tb testing.TB, dump string) (*CPU, *flatMem) {
	tb.Helper()

	mem := &flatMem{}
	loadHexDump(tb, mem, dump)
	cpu := NewCPU(mem)
	cpu.Reset(false)
	cpu.Cycles = 0
	return cpu, mem
}

// runCycles runs the CPU until at least ncycles have been executed.
func runCycles(cpu *CPU, ncycles int64) {
	for cpu.Cycles < ncycles {
		cpu.Step()
	}
}

type regs struct {
	A, X, Y, SP uint8
	P           P
	PC          uint16
}

func checkRegs(tb testing.TB, cpu *CPU, want regs) {
	tb.Helper()

	got := regs{A: cpu.A, X: cpu.X, Y: cpu.Y, SP: cpu.SP, P: cpu.P, PC: cpu.PC}
	if got != want {
		tb.Errorf("cpu registers mismatch\ngot:  A=%02X X=%02X Y=%02X SP=%02X P=%02X(%s) PC=%04X\nwant: A=%02X X=%02X Y=%02X SP=%02X P=%02X(%s) PC=%04X",
			got.A, got.X, got.Y, got.SP, uint8(got.P), got.P, got.PC,
			want.A, want.X, want.Y, want.SP, uint8(want.P), want.P, want.PC)
	}
}

func wantMem8(tb testing.TB, mem *flatMem, addr uint16, want uint8) {
	tb.Helper()

	if got := mem[addr]; got != want {
		tb.Errorf("mem[0x%04X] = 0x%02X, want 0x%02X", addr, got, want)
	}
}

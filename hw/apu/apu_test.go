package apu

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"nescore/hw/hwdefs"
)

type fakeCPU struct {
	irq   hwdefs.IRQSource
	cycle int64
	mem   map[uint16]uint8
	reads []uint16
}

func (c *fakeCPU) SetIRQSource(src hwdefs.IRQSource)      { c.irq |= src }
func (c *fakeCPU) ClearIRQSource(src hwdefs.IRQSource)    { c.irq &^= src }
func (c *fakeCPU) HasIRQSource(src hwdefs.IRQSource) bool { return c.irq&src != 0 }
func (c *fakeCPU) CurrentCycle() int64                    { return c.cycle }

func (c *fakeCPU) DMCRead(addr uint16) uint8 {
	c.reads = append(c.reads, addr)
	return c.mem[addr]
}

func newTestAPU(tb testing.TB) (*APU, *fakeCPU) {
	tb.Helper()
	cpu := &fakeCPU{mem: make(map[uint16]uint8)}
	a := New(cpu, DefaultSampleRate)
	a.Reset(hwdefs.HardReset)
	return a, cpu
}

func run(a *APU, cpu *fakeCPU, ncycles int) {
	for range ncycles {
		a.Tick()
		cpu.cycle++
	}
}

func TestMixerSilence(t *testing.T) {
	if got := mix(0, 0, 0, 0, 0); got != 0 {
		t.Fatalf("mix(0,0,0,0,0) = %v, want 0", got)
	}

	a, cpu := newTestAPU(t)
	run(a, cpu, hwdefs.CyclesPerFrame)

	if got := a.Output(); got != 0 {
		t.Errorf("Output() = %v, want 0", got)
	}
	samples := a.EndFrame()

	// ~735 samples per frame at 44.1kHz.
	if len(samples) < 730 || len(samples) > 740 {
		t.Errorf("got %d samples, want ~735", len(samples))
	}
	for i, s := range samples {
		if s != 0 {
			t.Fatalf("sample[%d] = %d, want 0", i, s)
		}
	}
}

func TestMixerTables(t *testing.T) {
	tests := []struct {
		name                      string
		sq1, sq2, tri, noise, dmc uint8
		want                      float64
	}{
		{name: "sq1 max", sq1: 15, want: 95.52 / (8128.0/15 + 100)},
		{name: "both squares", sq1: 15, sq2: 15, want: 95.52 / (8128.0/30 + 100)},
		{name: "triangle", tri: 15, want: 163.67 / (24329.0/45 + 100)},
		{name: "noise", noise: 7, want: 163.67 / (24329.0/14 + 100)},
		{name: "dmc", dmc: 127, want: 163.67 / (24329.0/127 + 100)},
		{name: "all max", sq1: 15, sq2: 15, tri: 15, noise: 15, dmc: 127, want: 95.52/(8128.0/30+100) + 163.67/(24329.0/202+100)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mix(tt.sq1, tt.sq2, tt.tri, tt.noise, tt.dmc)
			if diff := got - tt.want; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("mix() = %v, want %v", got, tt.want)
			}
			if got < 0 || got >= 1 {
				t.Errorf("mix() = %v, out of [0,1)", got)
			}
		})
	}
}

func TestSinglePulseChannel(t *testing.T) {
	a, cpu := newTestAPU(t)

	a.WriteRegister(0x4015, 0x01) // enable square 1
	a.WriteRegister(0x4000, 0xBF) // duty 50%, halt, constant volume 15
	a.WriteRegister(0x4001, 0x00) // sweep off
	a.WriteRegister(0x4002, 0xFD)
	a.WriteRegister(0x4003, 0x00)

	want := 95.52 / (8128.0/15 + 100)
	seen := make(map[float64]int)

	// 2 full duty cycles.
	for range 2 * 8 * 2 * (0xFD + 1) {
		a.Tick()
		cpu.cycle++
		seen[a.Output()]++
	}

	if len(seen) != 2 {
		t.Fatalf("got %d distinct output levels, want 2: %v", len(seen), seen)
	}
	if seen[0] == 0 || seen[want] == 0 {
		t.Fatalf("output levels = %v, want 0 and %v", seen, want)
	}
	// 50% duty cycle.
	if diff := seen[0] - seen[want]; diff > 4 || diff < -4 {
		t.Errorf("unbalanced duty cycle: %v", seen)
	}

	samples := a.EndFrame()
	nonzero := 0
	for _, s := range samples {
		if s != 0 {
			nonzero++
		}
	}
	if nonzero == 0 {
		t.Errorf("all %d samples are silent", len(samples))
	}
}

func TestPulseMuting(t *testing.T) {
	a, cpu := newTestAPU(t)

	a.WriteRegister(0x4015, 0x03)
	a.WriteRegister(0x4000, 0xFF)
	a.WriteRegister(0x4002, 0x07) // period < 8
	a.WriteRegister(0x4003, 0x00)

	a.WriteRegister(0x4004, 0xFF)
	a.WriteRegister(0x4005, 0x81) // sweep enabled, shift 1, target period > $7FF
	a.WriteRegister(0x4006, 0xFF)
	a.WriteRegister(0x4007, 0x07)

	for range 4096 {
		a.Tick()
		cpu.cycle++
		if out := a.ChannelOutput(Square1); out != 0 {
			t.Fatalf("square 1 output = %d, want muted", out)
		}
		if out := a.ChannelOutput(Square2); out != 0 {
			t.Fatalf("square 2 output = %d, want muted", out)
		}
	}
}

func TestSweepNegate(t *testing.T) {
	a, _ := newTestAPU(t)

	for _, sq := range []*squareChannel{&a.Square1, &a.Square2} {
		sq.WriteSWEEP(0, 0x89) // enabled, negate, shift 1
		sq.WriteTIMER(0, 0x00)
		sq.WriteLENGTH(0, 0x01) // period $100
	}

	// One's complement for square 1, two's complement for square 2.
	if got := a.Square1.targetPeriod; got != 0x7F {
		t.Errorf("square 1 target period = %#x, want 0x7f", got)
	}
	if got := a.Square2.targetPeriod; got != 0x80 {
		t.Errorf("square 2 target period = %#x, want 0x80", got)
	}
}

func TestFrameCounterIRQ(t *testing.T) {
	tests := []struct {
		name    string
		val4017 uint8
		wantIRQ bool
	}{
		{name: "4-step", val4017: 0x00, wantIRQ: true},
		{name: "4-step inhibit", val4017: 0x40, wantIRQ: false},
		{name: "5-step", val4017: 0x80, wantIRQ: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, cpu := newTestAPU(t)
			a.WriteRegister(0x4017, tt.val4017)

			run(a, cpu, 29820)
			if cpu.HasIRQSource(hwdefs.FrameCounter) {
				t.Fatalf("frame IRQ raised too early")
			}
			run(a, cpu, 20)
			if got := cpu.HasIRQSource(hwdefs.FrameCounter); got != tt.wantIRQ {
				t.Fatalf("frame IRQ = %t, want %t", got, tt.wantIRQ)
			}
			if !tt.wantIRQ {
				return
			}

			if peek, _ := a.PeekRegister(0x4015); peek&0x40 == 0 {
				t.Errorf("peek $4015 = %02x, want bit 6 set", peek)
			}
			if status, _ := a.ReadRegister(0x4015); status&0x40 == 0 {
				t.Errorf("$4015 = %02x, want bit 6 set", status)
			}
			if status, _ := a.ReadRegister(0x4015); status&0x40 != 0 {
				t.Errorf("$4015 = %02x, frame IRQ should be cleared by read", status)
			}
		})
	}
}

func TestLengthCounter(t *testing.T) {
	const frameSeq = 29830

	a, cpu := newTestAPU(t)

	a.WriteRegister(0x4015, 0x0F)
	a.WriteRegister(0x4000, 0x1F) // length counter enabled
	a.WriteRegister(0x4003, 0x00) // length 10
	a.WriteRegister(0x4004, 0x3F) // halted
	a.WriteRegister(0x4007, 0x00)

	if status, _ := a.ReadRegister(0x4015); status&0x03 != 0x03 {
		t.Fatalf("$4015 = %02x, want squares active", status)
	}

	// Two half frames per sequence: 10 half frames to silence the channel.
	run(a, cpu, 4*frameSeq)
	if status, _ := a.ReadRegister(0x4015); status&0x01 == 0 {
		t.Fatalf("$4015 = %02x, square 1 stopped too early", status)
	}
	run(a, cpu, frameSeq+10)
	status, _ := a.ReadRegister(0x4015)
	if status&0x01 != 0 {
		t.Errorf("$4015 = %02x, want square 1 stopped", status)
	}
	if status&0x02 == 0 {
		t.Errorf("$4015 = %02x, want halted square 2 still active", status)
	}

	// Disabling a channel clears its length counter.
	a.WriteRegister(0x4015, 0x00)
	if status, _ := a.ReadRegister(0x4015); status&0x0F != 0 {
		t.Errorf("$4015 = %02x, want all channels stopped", status)
	}

	// Loading a disabled channel has no effect.
	a.WriteRegister(0x4007, 0x00)
	if status, _ := a.ReadRegister(0x4015); status&0x02 != 0 {
		t.Errorf("$4015 = %02x, disabled channel has been loaded", status)
	}
}

func TestTriangleUltrasonic(t *testing.T) {
	a, cpu := newTestAPU(t)

	a.WriteRegister(0x4015, 0x04)
	a.WriteRegister(0x4008, 0xFF)
	a.WriteRegister(0x400A, 0x01)
	a.WriteRegister(0x400B, 0x00)

	run(a, cpu, 10000) // clocks the linear counter
	if a.Triangle.linearCounter == 0 {
		t.Fatalf("linear counter not reloaded")
	}
	if got := a.Triangle.pos; got != 0 {
		t.Errorf("sequencer moved to %d with an ultrasonic period", got)
	}

	a.WriteRegister(0x400A, 0x10)
	run(a, cpu, 0x11*4)
	if got := a.Triangle.pos; got != 4 {
		t.Errorf("sequencer at %d, want 4", got)
	}
}

func TestNoiseShiftRegister(t *testing.T) {
	a, cpu := newTestAPU(t)

	a.WriteRegister(0x4015, 0x08)
	a.WriteRegister(0x400C, 0x3F)
	a.WriteRegister(0x400E, 0x00) // period 4
	a.WriteRegister(0x400F, 0x00)

	levels := make(map[uint8]int)
	for range 4 * 1000 {
		a.Tick()
		cpu.cycle++
		levels[a.ChannelOutput(Noise)]++
		if a.Noise.shift == 0 {
			t.Fatal("shift register stuck at 0")
		}
	}
	if levels[0] == 0 || levels[15] == 0 {
		t.Errorf("noise levels = %v, want both 0 and 15", levels)
	}
}

func TestDMC(t *testing.T) {
	a, cpu := newTestAPU(t)
	cpu.mem[0xC040] = 0xFF

	a.WriteRegister(0x4011, 0x40)
	if got := a.ChannelOutput(DPCM); got != 0x40 {
		t.Fatalf("dmc output = %#x, want 0x40", got)
	}

	a.WriteRegister(0x4010, 0x8F) // IRQ, fastest rate
	a.WriteRegister(0x4012, 0x01) // $C040
	a.WriteRegister(0x4013, 0x00) // 1 byte
	a.WriteRegister(0x4015, 0x10)

	if status, _ := a.ReadRegister(0x4015); status&0x10 == 0 {
		t.Fatalf("$4015 = %02x, want DMC active", status)
	}

	run(a, cpu, 1)
	if diff := cmp.Diff([]uint16{0xC040}, cpu.reads); diff != "" {
		t.Fatalf("dmc reads mismatch (-want +got):\n%s", diff)
	}
	status, _ := a.ReadRegister(0x4015)
	if status&0x10 != 0 {
		t.Errorf("$4015 = %02x, want DMC finished", status)
	}
	if status&0x80 == 0 {
		t.Errorf("$4015 = %02x, want DMC IRQ", status)
	}

	// Output increases by 2 for each 1 bit. The first output cycle is
	// silent, and the timer still runs at the power up rate.
	run(a, cpu, 428+54*16)
	if got := a.ChannelOutput(DPCM); got != 0x40+16 {
		t.Errorf("dmc output = %#x, want %#x", got, 0x40+16)
	}

	a.WriteRegister(0x4015, 0x00)
	if cpu.HasIRQSource(hwdefs.DMC) {
		t.Errorf("writing $4015 should acknowledge the DMC IRQ")
	}
}

func TestDMCAddressWrap(t *testing.T) {
	a, cpu := newTestAPU(t)

	a.WriteRegister(0x4012, 0xFF) // $FFC0
	a.WriteRegister(0x4013, 0x04) // 65 bytes
	a.WriteRegister(0x4010, 0x4F) // loop
	a.WriteRegister(0x4015, 0x10)

	// Each byte lasts 8*54 cycles.
	run(a, cpu, 67*8*54)
	if len(cpu.reads) < 66 {
		t.Fatalf("got %d reads, want at least 66", len(cpu.reads))
	}
	if got := cpu.reads[64]; got != 0x8000 {
		t.Errorf("read #64 at %#04x, want $8000", got)
	}
	if got := cpu.reads[65]; got != 0xFFC0 {
		t.Errorf("read #65 at %#04x, want $FFC0 (looped)", got)
	}
	if cpu.HasIRQSource(hwdefs.DMC) {
		t.Errorf("looping sample should not raise IRQ")
	}
}

func TestRegisters(t *testing.T) {
	a, _ := newTestAPU(t)

	for addr := uint16(0x4000); addr <= 0x401F; addr++ {
		_, ok := a.ReadRegister(addr)
		if want := addr == 0x4015; ok != want {
			t.Errorf("ReadRegister(%#04x) readable = %t, want %t", addr, ok, want)
		}
	}
}

func TestState(t *testing.T) {
	a, cpu := newTestAPU(t)

	a.WriteRegister(0x4015, 0x0F)
	a.WriteRegister(0x4000, 0x9A)
	a.WriteRegister(0x4001, 0xA3)
	a.WriteRegister(0x4002, 0x42)
	a.WriteRegister(0x4003, 0x31)
	a.WriteRegister(0x4008, 0x55)
	a.WriteRegister(0x400B, 0x09)
	a.WriteRegister(0x400C, 0x04)
	a.WriteRegister(0x400E, 0x85)
	a.WriteRegister(0x400F, 0x18)
	a.WriteRegister(0x4017, 0x80)
	run(a, cpu, 12345)

	state := a.State()

	b, _ := newTestAPU(t)
	b.SetState(&state)

	if diff := cmp.Diff(state, b.State()); diff != "" {
		t.Fatalf("state mismatch (-want +got):\n%s", diff)
	}

	for range 20000 {
		a.Tick()
		b.Tick()
		if a.Output() != b.Output() {
			t.Fatalf("outputs diverged at cycle %d", a.Cycles)
		}
	}
}

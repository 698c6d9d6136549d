package main

import (
	"bytes"
	"errors"
	"image/png"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/wav"
	"github.com/go-faster/jx"
	"github.com/google/go-cmp/cmp"

	"nescore/emu"
	"nescore/hw"
	"nescore/ines"
)

// writeTestRom writes an NROM rom looping on a square wave, and returns its
// path.
func writeTestRom(t *testing.T) string {
	t.Helper()

	prg := make([]byte, ines.PRGBankSize)
	copy(prg, []byte{
		0xA9, 0x01, // LDA #$01
		0x8D, 0x15, 0x40, // STA $4015
		0xA9, 0xBF, // LDA #$BF
		0x8D, 0x00, 0x40, // STA $4000
		0xA9, 0x80, // LDA #$80
		0x8D, 0x02, 0x40, // STA $4002
		0xA9, 0x00, // LDA #$00
		0x8D, 0x03, 0x40, // STA $4003
		0x4C, 0x14, 0xC0, // JMP $C014
	})
	// NMI, reset and IRQ vectors.
	copy(prg[0x3FFA:], []byte{0x00, 0xC0, 0x00, 0xC0, 0x00, 0xC0})

	path := filepath.Join(t.TempDir(), "test.nes")
	rom := ines.Builder{PRG: prg}.Rom()
	if err := os.WriteFile(path, rom.Encode(), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestParseArgs(t *testing.T) {
	rompath := writeTestRom(t)

	cli, err := parseArgs([]string{"run", rompath, "--frames", "3", "--break", "$C014", "--break", "0x8000", "--hold", "A+Start"})
	if err != nil {
		t.Fatal(err)
	}
	if cli.mode != runMode {
		t.Errorf("mode = %d, want runMode", cli.mode)
	}
	if cli.Run.Frames != 3 {
		t.Errorf("frames = %d, want 3", cli.Run.Frames)
	}
	if diff := cmp.Diff([]addr{0xC014, 0x8000}, cli.Run.Break); diff != "" {
		t.Errorf("breakpoints mismatch (-want +got):\n%s", diff)
	}
	if cli.Run.Hold != hw.ButtonA|hw.ButtonStart {
		t.Errorf("hold = %s, want A+Start", cli.Run.Hold)
	}

	cli, err = parseArgs([]string{"rom-infos", rompath})
	if err != nil {
		t.Fatal(err)
	}
	if cli.mode != romInfosMode {
		t.Errorf("mode = %d, want romInfosMode", cli.mode)
	}

	if _, err := parseArgs([]string{"run", rompath, "--break", "zzz"}); err == nil {
		t.Errorf("invalid breakpoint address should be rejected")
	}
}

func TestParseAddr(t *testing.T) {
	tests := []struct {
		in      string
		want    addr
		wantErr bool
	}{
		{in: "C000", want: 0xC000},
		{in: "$fffc", want: 0xFFFC},
		{in: "0x8000", want: 0x8000},
		{in: "10000", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		got, err := parseAddr(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseAddr(%q) error = %v, wantErr %t", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("parseAddr(%q) = %04X, want %04X", tt.in, got, tt.want)
		}
	}
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	r := Run{
		RomPath: writeTestRom(t),
		Frames:  10,
		PNG:     filepath.Join(dir, "frame.png"),
		WAV:     filepath.Join(dir, "audio.wav"),
		State:   filepath.Join(dir, "state.bin"),
	}
	if err := r.run(emu.DefaultConfig()); err != nil {
		t.Fatal(err)
	}

	f, err := os.Open(r.PNG)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 256 || b.Dy() != 240 {
		t.Errorf("image is %dx%d, want 256x240", b.Dx(), b.Dy())
	}

	wf, err := os.Open(r.WAV)
	if err != nil {
		t.Fatal(err)
	}
	defer wf.Close()
	dec := wav.NewDecoder(wf)
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		t.Fatal(err)
	}
	if dec.SampleRate != 44100 || dec.NumChans != 1 || dec.BitDepth != 16 {
		t.Errorf("wav format = %dHz %d channels %d bits", dec.SampleRate, dec.NumChans, dec.BitDepth)
	}
	// 10 frames at 60Hz, the first one being shorter.
	if n := len(buf.Data); n < 6800 || n > 7400 {
		t.Errorf("wav has %d samples", n)
	}
	nonzero := false
	for _, v := range buf.Data {
		if v != 0 {
			nonzero = true
			break
		}
	}
	if !nonzero {
		t.Errorf("wav is silent")
	}

	if _, err := os.Stat(r.State); err != nil {
		t.Fatalf("snapshot not saved: %v", err)
	}

	// Second run resumes from the snapshot.
	r.Frames = 1
	r.PNG, r.WAV = "", ""
	if err := r.run(emu.DefaultConfig()); err != nil {
		t.Fatal(err)
	}
}

func TestRunBreakpoint(t *testing.T) {
	var out bytes.Buffer
	r := Run{
		RomPath:   writeTestRom(t),
		Frames:    10,
		Break:     []addr{0xC014},
		State:     filepath.Join(t.TempDir(), "state.bin"),
		DebugJSON: &outfile{w: &out, name: "buffer", close: func() error { return nil }},
	}
	if err := r.run(emu.DefaultConfig()); err != nil {
		t.Fatal(err)
	}

	// Stopped in the middle of a frame, no snapshot.
	if _, err := os.Stat(r.State); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("snapshot saved after a breakpoint (stat error: %v)", err)
	}

	var pc uint16
	err := jx.DecodeBytes(out.Bytes()).Obj(func(d *jx.Decoder, key string) error {
		if key != "break" {
			return d.Skip()
		}
		var err error
		pc, err = d.UInt16()
		return err
	})
	if err != nil {
		t.Fatalf("invalid debug JSON: %v\n%s", err, out.String())
	}
	if pc != 0xC014 {
		t.Errorf("break = %04X, want C014", pc)
	}
}

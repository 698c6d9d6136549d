package hw

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func readPort(ip *InputPorts, port int, n int) []uint8 {
	reg := &ip.In
	if port == 1 {
		reg = &ip.Out
	}
	var bits []uint8
	for range n {
		v, _ := reg.Read8(0x4016 + uint16(port))
		bits = append(bits, v)
	}
	return bits
}

func strobe(ip *InputPorts) {
	ip.In.Write8(0x4016, 1)
	ip.In.Write8(0x4016, 0)
}

func TestControllerSerialRead(t *testing.T) {
	ip := NewInputPorts()
	ip.Plugged[1] = true
	ip.SetButtons(0, ButtonA|ButtonStart|ButtonLeft)
	ip.SetButtons(1, ButtonB|ButtonRight)
	strobe(ip)

	// Buttons changed after the strobe aren't seen.
	ip.SetButtons(0, 0)

	want0 := []uint8{1, 0, 0, 1, 0, 0, 1, 0, 1, 1, 1}
	if diff := cmp.Diff(want0, readPort(ip, 0, 11)); diff != "" {
		t.Errorf("port 0 mismatch (-want +got):\n%s", diff)
	}
	want1 := []uint8{0, 1, 0, 0, 0, 0, 0, 1, 1, 1}
	if diff := cmp.Diff(want1, readPort(ip, 1, 10)); diff != "" {
		t.Errorf("port 1 mismatch (-want +got):\n%s", diff)
	}
}

func TestControllerStrobeHigh(t *testing.T) {
	ip := NewInputPorts()
	ip.SetButtons(0, ButtonA)
	ip.In.Write8(0x4016, 1)

	// While strobe is high, the A button is continuously reported.
	want := []uint8{1, 1, 1, 1}
	if diff := cmp.Diff(want, readPort(ip, 0, 4)); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestControllerUnplugged(t *testing.T) {
	ip := NewInputPorts()
	ip.SetButtons(1, ButtonA|ButtonB)
	strobe(ip)

	want := []uint8{0, 0, 0, 0, 0, 0, 0, 0, 0}
	if diff := cmp.Diff(want, readPort(ip, 1, 9)); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestControllerPeek(t *testing.T) {
	ip := NewInputPorts()
	ip.SetButtons(0, ButtonA)
	strobe(ip)

	for range 3 {
		if got := ip.In.Peek8(0x4016); got != 1 {
			t.Fatalf("peek = %d, want 1", got)
		}
	}
	if got := readPort(ip, 0, 2); got[0] != 1 || got[1] != 0 {
		t.Errorf("reads = %v, want [1 0], peek has side effects", got)
	}
}

func TestButtonsText(t *testing.T) {
	tests := []struct {
		in      string
		want    Buttons
		str     string
		wantErr bool
	}{
		{in: "", want: 0, str: ""},
		{in: "start", want: ButtonStart, str: "Start"},
		{in: "A+Right", want: ButtonA | ButtonRight, str: "A+Right"},
		{in: "down, b ,select", want: ButtonB | ButtonSelect | ButtonDown, str: "B+Select+Down"},
		{in: "A+Turbo", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var b Buttons
			err := b.UnmarshalText([]byte(tt.in))
			if tt.wantErr {
				if err == nil {
					t.Fatalf("UnmarshalText(%q) succeeded", tt.in)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if b != tt.want {
				t.Errorf("got %08b, want %08b", b, tt.want)
			}
			if b.String() != tt.str {
				t.Errorf("String() = %q, want %q", b.String(), tt.str)
			}
		})
	}
}

func TestInputState(t *testing.T) {
	ip := NewInputPorts()
	ip.SetButtons(0, ButtonUp|ButtonB)
	strobe(ip)
	readPort(ip, 0, 3)

	other := NewInputPorts()
	other.SetState(ip.State())
	if diff := cmp.Diff(readPort(ip, 0, 9), readPort(other, 0, 9)); diff != "" {
		t.Errorf("mismatch after state restore (-want +got):\n%s", diff)
	}
}

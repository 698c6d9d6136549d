package hw

import (
	"fmt"
	"strings"

	"nescore/emu/log"
	"nescore/hw/hwio"
	"nescore/hw/snapshot"
)

// Buttons holds the state of the 8 buttons of a standard controller, in the
// order they're reported on the serial port.
type Buttons uint8

const (
	ButtonA Buttons = 1 << iota
	ButtonB
	ButtonSelect
	ButtonStart
	ButtonUp
	ButtonDown
	ButtonLeft
	ButtonRight
)

var buttonNames = [8]string{"A", "B", "Select", "Start", "Up", "Down", "Left", "Right"}

func (b Buttons) String() string {
	var names []string
	for i, name := range buttonNames {
		if b&(1<<i) != 0 {
			names = append(names, name)
		}
	}
	return strings.Join(names, "+")
}

// ParseButtons parses a '+' or ',' separated list of button names, such as
// "Start" or "A+Right". Names are case insensitive.
func ParseButtons(s string) (Buttons, error) {
	var b Buttons
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == '+' || r == ',' })
outer:
	for _, f := range fields {
		f = strings.TrimSpace(f)
		for i, name := range buttonNames {
			if strings.EqualFold(f, name) {
				b |= 1 << i
				continue outer
			}
		}
		return 0, fmt.Errorf("unknown button %q", f)
	}
	return b, nil
}

func (b Buttons) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

func (b *Buttons) UnmarshalText(text []byte) error {
	v, err := ParseButtons(string(text))
	if err != nil {
		return err
	}
	*b = v
	return nil
}

// InputPorts handles I/O with the standard controllers plugged in the 2
// controller ports.
type InputPorts struct {
	In  hwio.Reg8 // $4016
	Out hwio.Reg8 // $4017 (reads only, writes go to the APU)

	Plugged [2]bool
	buttons [2]Buttons

	strobe bool
	state  [2]uint8 // shift registers.
}

func NewInputPorts() *InputPorts {
	ip := &InputPorts{Plugged: [2]bool{true, false}}
	ip.In = hwio.Reg8{Name: "IN", ReadCb: ip.ReadIN, PeekCb: ip.PeekIN, WriteCb: ip.WriteIN}
	ip.Out = hwio.Reg8{Name: "OUT", ReadCb: ip.ReadOUT, PeekCb: ip.PeekOUT}
	return ip
}

// SetButtons sets the state of the buttons for the controller plugged in
// port (0 or 1). The state is captured by the next strobe.
func (ip *InputPorts) SetButtons(port int, b Buttons) {
	ip.buttons[port&1] = b
}

func (ip *InputPorts) Buttons(port int) Buttons {
	return ip.buttons[port&1]
}

func (ip *InputPorts) Reset() {
	ip.strobe = false
	ip.state = [2]uint8{}
}

func (ip *InputPorts) regval(port uint8) uint8 {
	if !ip.Plugged[port] {
		return 0
	}
	if ip.strobe {
		ip.loadstate()
	}
	ret := ip.state[port] & 1
	ip.state[port] >>= 1

	// After 8 bits are read, all subsequent bits will report 1 on a standard
	// NES controller.
	ip.state[port] |= 0x80
	return ret
}

// capture state of all connected input devices.
func (ip *InputPorts) loadstate() {
	ip.state[0] = uint8(ip.buttons[0])
	ip.state[1] = uint8(ip.buttons[1])
}

// In: $4016
func (ip *InputPorts) WriteIN(old, val uint8) {
	prev := ip.strobe
	ip.strobe = val&1 == 1
	if prev && !ip.strobe {
		ip.loadstate()
		log.ModInput.DebugZ("controllers latched").
			Stringer("pad1", ip.buttons[0]).
			Stringer("pad2", ip.buttons[1]).
			End()
	}
}

func (ip *InputPorts) ReadIN(_ uint8) uint8  { return ip.regval(0) }
func (ip *InputPorts) ReadOUT(_ uint8) uint8 { return ip.regval(1) }

func (ip *InputPorts) peek(port uint8) uint8 {
	if !ip.Plugged[port] {
		return 0
	}
	if ip.strobe {
		return uint8(ip.buttons[port]) & 1
	}
	return ip.state[port] & 1
}

func (ip *InputPorts) PeekIN(_ uint8) uint8  { return ip.peek(0) }
func (ip *InputPorts) PeekOUT(_ uint8) uint8 { return ip.peek(1) }

func (ip *InputPorts) State() snapshot.Input {
	return snapshot.Input{
		Strobe:   ip.strobe,
		Shifters: ip.state,
		Buttons:  [2]uint8{uint8(ip.buttons[0]), uint8(ip.buttons[1])},
	}
}

func (ip *InputPorts) SetState(s snapshot.Input) {
	ip.strobe = s.Strobe
	ip.state = s.Shifters
	ip.buttons = [2]Buttons{Buttons(s.Buttons[0]), Buttons(s.Buttons[1])}
}

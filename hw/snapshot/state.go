// Package snapshot defines plain data structures holding the whole mutable
// state of the console, used to save and restore emulation.
package snapshot

// Version is incremented each time the layout of NES changes in a way that
// makes older snapshots unusable.
const Version = 2

type NES struct {
	Version int
	Mapper  string

	CPU CPU
	RAM [0x800]uint8
	PPU PPU
	APU APU

	Cartridge Cartridge
	Input     Input
	OpenBus   uint8
}

type CPU struct {
	PC uint16
	SP uint8
	P  uint8
	A  uint8
	X  uint8
	Y  uint8

	Cycles     int64
	Stall      int
	NMIPending bool
	NMICycle   int64
	IRQFlag    uint8
}

type PPU struct {
	Palette    [0x20]uint8
	OAMMem     [0x100]uint8
	Nametables []uint8

	OpenBus    uint8
	OAMAddr    uint8
	VRAMAddr   uint16
	VRAMTemp   uint16
	WriteLatch bool
	PPUDataBuf uint8

	PPUBgRegs PPUBgRegs
	Sprites   []Sprite

	PPUCTRL   uint8
	PPUMASK   uint8
	PPUSTATUS uint8

	Cycle      int
	Scanline   int
	FrameCount uint64
	OddFrame   bool

	NMIPrev bool
}

type Sprite struct {
	ID    uint8
	X     uint8
	Attr  uint8
	DataL uint8
	DataH uint8
}

type PPUBgRegs struct {
	Finex uint8
	NT    uint8
	AT    uint8
	BgLo  uint8
	BgHi  uint8

	// shift registers.
	BgShiftLo uint16
	BgShiftHi uint16
	ATShiftLo uint16
	ATShiftHi uint16
}

type APU struct {
	Square1  Square
	Square2  Square
	Triangle Triangle
	Noise    Noise
	DMC      DMC

	FrameCounter FrameCounter
	Cycles       uint64
}

type Envelope struct {
	Start   bool
	Loop    bool
	Const   bool
	Volume  uint8
	Divider uint8
	Decay   uint8
}

type LengthCounter struct {
	Enabled bool
	Halt    bool
	Value   uint8
}

type Timer struct {
	Period uint16
	Value  uint16
}

type Square struct {
	Timer    Timer
	Length   LengthCounter
	Envelope Envelope

	Duty    uint8
	DutyPos uint8

	SweepEnabled bool
	SweepNegate  bool
	SweepReload  bool
	SweepPeriod  uint8
	SweepShift   uint8
	SweepDivider uint8
	RealPeriod   uint16
}

type Triangle struct {
	Timer  Timer
	Length LengthCounter

	LinearCounter uint8
	LinearReload  uint8
	LinearControl bool
	LinearFlag    bool
	Pos           uint8
}

type Noise struct {
	Timer    Timer
	Length   LengthCounter
	Envelope Envelope

	Shift uint16
	Mode  bool
}

type DMC struct {
	Timer Timer

	IRQEnabled bool
	IRQPending bool
	Loop       bool
	Output     uint8

	SampleAddr   uint16
	SampleLength uint16
	CurAddr      uint16
	Remaining    uint16

	Buffer      uint8
	BufferEmpty bool
	ShiftReg    uint8
	BitsLeft    uint8
	Silence     bool
}

type FrameCounter struct {
	FiveStep   bool
	IRQInhibit bool
	Step       int
	Cycle      int
	NewValue   int16
	WriteDelay int8
	BlockTick  uint8
}

type Cartridge struct {
	PRGRAM []uint8
	CHRRAM []uint8
	Mapper []byte
}

type Input struct {
	Strobe   bool
	Shifters [2]uint8
	Buttons  [2]uint8
}

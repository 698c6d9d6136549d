package hw

// A Debugger monitors a CPU.
type Debugger interface {
	// Trace is called before each opcode is executed.
	Trace(pc uint16)

	// Interrupt is called when an interrupt has been serviced. prevpc is the
	// address of the instruction that was about to be executed, curpc is the
	// address of the interrupt handler.
	Interrupt(prevpc, curpc uint16, isNMI bool)

	// FrameEnd signals the end of the current frame.
	FrameEnd()
}

type nopDebugger struct{}

func (nopDebugger) Trace(pc uint16)                            {}
func (nopDebugger) Interrupt(prevpc, curpc uint16, isNMI bool) {}
func (nopDebugger) FrameEnd()                                  {}

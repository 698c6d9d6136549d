package log

import (
	"io"

	"gopkg.in/Sirupsen/logrus.v0"
)

// Level mirrors logrus levels, from the most to the least severe.
type Level uint32

const (
	PanicLevel Level = Level(logrus.PanicLevel)
	FatalLevel Level = Level(logrus.FatalLevel)
	ErrorLevel Level = Level(logrus.ErrorLevel)
	WarnLevel  Level = Level(logrus.WarnLevel)
	InfoLevel  Level = Level(logrus.InfoLevel)
	DebugLevel Level = Level(logrus.DebugLevel)
)

func init() {
	logrus.SetLevel(logrus.DebugLevel)
	logrus.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
}

// SetOutput redirects all log output to w.
func SetOutput(w io.Writer) {
	logrus.SetOutput(w)
}

var disabled bool

// Disable turns off logging at all levels, including warnings and errors.
func Disable() { disabled = true }

// Enable reverts the effect of Disable.
func Enable() { disabled = false }

// A ContextAdder is an object able to enrich every log entry with some fields,
// for example the current program counter.
type ContextAdder interface {
	AddLogContext(z *EntryZ)
}

var contexts []ContextAdder

// AddContext registers c so that it is called for every emitted entry.
func AddContext(c ContextAdder) {
	contexts = append(contexts, c)
}

// RemoveContext unregisters c.
func RemoveContext(c ContextAdder) {
	for i := range contexts {
		if contexts[i] == c {
			contexts = append(contexts[:i], contexts[i+1:]...)
			return
		}
	}
}

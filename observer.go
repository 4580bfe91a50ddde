package qcat

import (
	"fmt"
	"log"
)

// Observer receives session lifecycle events and logs.
type Observer interface {
	OnStateChange(session uint64, from, to SessionState, event string)
	Logf(session uint64, format string, args ...interface{})
}

// LogObserver writes events to a log.Logger.
type LogObserver struct {
	L *log.Logger

	// Verbose includes state changes in the output.
	Verbose bool
}

// NewLogObserver returns an Observer that logs through l.
// If l is nil the standard logger is used.
func NewLogObserver(l *log.Logger, verbose bool) *LogObserver {
	if l == nil {
		l = log.Default()
	}
	return &LogObserver{L: l, Verbose: verbose}
}

func (o *LogObserver) OnStateChange(session uint64, from, to SessionState, event string) {
	if !o.Verbose {
		return
	}
	o.L.Printf("[session %d] %s -> %s (%s)", session, from, to, event)
}

func (o *LogObserver) Logf(session uint64, format string, args ...interface{}) {
	o.L.Printf("[session %d] %s", session, fmt.Sprintf(format, args...))
}

type nopObserver struct{}

func (nopObserver) OnStateChange(uint64, SessionState, SessionState, string) {}
func (nopObserver) Logf(uint64, string, ...interface{})                      {}

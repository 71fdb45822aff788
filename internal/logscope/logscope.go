// Package logscope provides named, per-subsystem loggers on top of the
// standard library logger, mirroring the LogScope concept used to tag
// messages by subsystem (xwm, wlserver, ...).
package logscope

import (
	"log"
	"os"
)

// Scope is a named logger for one subsystem.
type Scope struct {
	name string
	l    *log.Logger
}

// New creates a Scope that prefixes every line with name.
func New(name string) *Scope {
	return &Scope{
		name: name,
		l:    log.New(os.Stderr, "["+name+"] ", log.Ltime|log.Lmicroseconds),
	}
}

func (s *Scope) Infof(format string, args ...any) {
	s.l.Printf(format, args...)
}

func (s *Scope) Warnf(format string, args ...any) {
	s.l.Printf("warning: "+format, args...)
}

func (s *Scope) Errorf(format string, args ...any) {
	s.l.Printf("error: "+format, args...)
}

// Fatalf logs and exits the process, matching the teacher's log.Fatalf
// usage for unrecoverable setup failures.
func (s *Scope) Fatalf(format string, args ...any) {
	s.l.Fatalf(format, args...)
}

// Package log defines the logger used across the runtime.
//
// Components accept a [Logger] and default to [Noop] when none is given.
package log

// Kv is a set of structured key-value fields.
type Kv = map[string]any

// Logger is the logging interface used by tasks, scopes, refs and the CLI.
type Logger interface {
	Infof(format string, args ...any)
	Warningf(format string, args ...any)
	Errorf(format string, args ...any)
	Debugf(format string, args ...any)
	WithValues(values Kv) Logger
}

// Noop discards everything.
var Noop Logger = noop{}

type noop struct{}

func (noop) Infof(string, ...any)    {}
func (noop) Warningf(string, ...any) {}
func (noop) Errorf(string, ...any)   {}
func (noop) Debugf(string, ...any)   {}
func (n noop) WithValues(Kv) Logger  { return n }

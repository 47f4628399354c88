// Package logrus adapts a logrus entry to the internal logger interface.
package logrus

import (
	"github.com/sirupsen/logrus"

	"github.com/aristath/visualeffect/internal/log"
)

type logger struct {
	*logrus.Entry
}

// NewLogrus returns a log.Logger backed by the given logrus entry.
func NewLogrus(l *logrus.Entry) log.Logger {
	return logger{Entry: l}
}

func (l logger) WithValues(kv log.Kv) log.Logger {
	return NewLogrus(l.Entry.WithFields(kv))
}

package logrus_test

import (
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"github.com/aristath/visualeffect/internal/log"
	loglogrus "github.com/aristath/visualeffect/internal/log/logrus"
)

func TestLogrusWithValues(t *testing.T) {
	var buf bytes.Buffer
	l := logrus.New()
	l.Out = &buf
	l.SetFormatter(&logrus.JSONFormatter{})
	l.SetLevel(logrus.DebugLevel)

	logger := loglogrus.NewLogrus(logrus.NewEntry(l)).WithValues(log.Kv{"task": "nyc"})
	logger.Debugf("state %s", "running")

	out := buf.String()
	assert.Contains(t, out, `"task":"nyc"`)
	assert.Contains(t, out, `"msg":"state running"`)
	assert.Contains(t, out, `"level":"debug"`)
}

func TestNoopDiscards(t *testing.T) {
	// Noop must be safe to chain and call.
	log.Noop.WithValues(log.Kv{"a": 1}).Infof("ignored %d", 1)
}

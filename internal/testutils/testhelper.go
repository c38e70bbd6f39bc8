package testutils

import (
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

type testLogWriter struct {
	t *testing.T
}

func (w testLogWriter) Write(p []byte) (int, error) {
	w.t.Log(strings.TrimRight(string(p), "\n"))
	return len(p), nil
}

// NewTestLogger returns a debug-level logger routed through t.Log, so
// log lines show up attached to the failing test only.
func NewTestLogger(t *testing.T) *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.DebugLevel)
	logger.SetOutput(testLogWriter{t: t})
	return logger
}

package utils

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLogFormat(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(nil)

	Info("catalog fetched", "products", 3, "source", "http")
	Warn("odd pair", "dangling")

	out := buf.String()
	assert.Contains(t, out, "INFO: catalog fetched products=3 source=http")
	assert.Contains(t, out, "WARN: odd pair")
	assert.NotContains(t, out, "dangling")
}

func TestDebugGated(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(nil)
	defer SetDebug(false)

	Debug("hidden")
	assert.Empty(t, buf.String())

	SetDebug(true)
	Debug("visible", "k", "v")
	assert.Contains(t, buf.String(), "DEBUG: visible k=v")
}

package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    log.Level
		wantErr bool
	}{
		{"debug", log.DebugLevel, false},
		{"INFO", log.InfoLevel, false},
		{"", log.WarnLevel, false},
		{"warning", log.WarnLevel, false},
		{"error", log.ErrorLevel, false},
		{"loud", log.WarnLevel, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConfigureJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Configure("debug", "json", &buf))
	t.Cleanup(func() { _ = Configure("warn", "text", os.Stderr) })

	New("test").Debug("transition", "event", "FOCUS")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "transition", line["msg"])
	assert.Equal(t, "FOCUS", line["event"])
	assert.Equal(t, "test", line["prefix"])
}

func TestConfigureRejectsUnknownFormat(t *testing.T) {
	assert.Error(t, Configure("info", "xml", nil))
}

func TestNewInheritsLevel(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Configure("error", "text", &buf))
	t.Cleanup(func() { _ = Configure("warn", "text", os.Stderr) })

	New("quiet").Warn("dropped")
	assert.Empty(t, buf.String())
}

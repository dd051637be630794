package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newApp().rootCommand()
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "script.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

type doc struct {
	Event   string         `yaml:"event"`
	Value   []string       `yaml:"value"`
	Context map[string]any `yaml:"context"`
}

func docs(t *testing.T, out string) []doc {
	t.Helper()
	dec := yaml.NewDecoder(bytes.NewBufferString(out))
	var all []doc
	for {
		var d doc
		err := dec.Decode(&d)
		if errors.Is(err, io.EOF) {
			return all
		}
		require.NoError(t, err)
		all = append(all, d)
	}
}

func TestWidgets(t *testing.T) {
	out, err := run(t, "widgets")
	require.NoError(t, err)
	assert.Equal(t, "number-input\ntags-input\n", out)
}

func TestDot(t *testing.T) {
	out, err := run(t, "dot", "number-input")
	require.NoError(t, err)
	assert.Contains(t, out, `digraph "number-input" {`)
	assert.Contains(t, out, `"idle" [label="idle", style="rounded,filled", fillcolor=lightgreen];`)
	assert.Contains(t, out, `"before:spin" -> "spinning" [label="after CHANGE_DELAY"];`)

	out, err = run(t, "dot", "tags-input", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"id": "tags-input"`)

	_, err = run(t, "dot", "date-picker")
	assert.ErrorContains(t, err, `unknown widget "date-picker"`)
}

func TestReplay_TagsInput(t *testing.T) {
	path := writeScript(t, `
id: tags-demo
context:
  uid: demo
  value: [React, Vue]
events:
  - type: TYPE
    value: Go
  - type: ENTER
  - type: NOT_AN_EVENT
`)
	out, err := run(t, "replay", "tags-input", path)
	require.NoError(t, err)

	all := docs(t, out)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"idle"}, all[0].Value)
	assert.Equal(t, "TYPE", all[1].Event)
	assert.Equal(t, "Go", all[1].Context["inputValue"])

	last := all[2]
	assert.Equal(t, []string{"focused:input"}, last.Value)
	assert.Equal(t, []any{"React", "Vue", "Go"}, last.Context["value"])
	assert.Equal(t, "", last.Context["inputValue"])
}

func TestReplay_NumberInputPersistAndResume(t *testing.T) {
	dir := t.TempDir()
	path := writeScript(t, `
id: qty
context:
  uid: qty
  min: 0
  max: 10
  clampValueOnBlur: true
events:
  - type: FOCUS
  - type: SET_VALUE
    value: 15
  - type: BLUR
`)
	out, err := run(t, "replay", "number-input", path, "--persist-dir", dir, "--persist-format", "json")
	require.NoError(t, err)
	all := docs(t, out)
	require.NotEmpty(t, all)
	assert.Equal(t, "10", all[len(all)-1].Context["value"])
	assert.FileExists(t, filepath.Join(dir, "qty.json"))

	empty := writeScript(t, "id: qty\nevents: []\n")
	out, err = run(t, "replay", "number-input", empty, "--persist-dir", dir, "--persist-format", "json", "--resume")
	require.NoError(t, err)
	all = docs(t, out)
	require.Len(t, all, 1)
	assert.Equal(t, "10", all[0].Context["value"])
	assert.Equal(t, []string{"idle"}, all[0].Value)
}

func TestReplay_SpinSettlesBeforeStop(t *testing.T) {
	path := writeScript(t, `
id: spin
context:
  uid: spin
events:
  - type: FOCUS
  - type: POINTER_DOWN_INC
  - wait: 400ms
    type: POINTER_UP
`)
	out, err := run(t, "replay", "number-input", path)
	require.NoError(t, err)
	all := docs(t, out)
	require.NotEmpty(t, all)
	last := all[len(all)-1]
	assert.Equal(t, "POINTER_UP", last.Event)
	assert.Equal(t, []string{"focused"}, last.Value)
}

func TestWaitIdle(t *testing.T) {
	calls := 0
	require.NoError(t, waitIdle(context.Background(), func() bool {
		calls++
		return calls == 3
	}))
	assert.Equal(t, 3, calls)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, waitIdle(ctx, func() bool { return false }), context.Canceled)
}

func TestReplay_PersistDirFromEnvironment(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("UIMACHINE_PERSIST_DIR", dir)
	path := writeScript(t, "id: env-demo\nevents:\n  - type: FOCUS\n")
	_, err := run(t, "replay", "number-input", path)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "env-demo.yaml"))
}

func TestReplay_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(t.TempDir(), "uimachine.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("persist-dir: "+dir+"\npersist-format: json\nlog-level: error\n"), 0o644))
	path := writeScript(t, "id: cfg-demo\nevents:\n  - type: FOCUS\n")
	_, err := run(t, "--config", cfg, "replay", "number-input", path)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "cfg-demo.json"))
}

func TestReplay_Errors(t *testing.T) {
	tests := []struct {
		name   string
		script string
		want   string
	}{
		{"empty step", "events:\n  - {}\n", "step needs a type or a wait"},
		{"bad wait", "events:\n  - wait: soon\n", "wait"},
		{"invalid context", "context:\n  min: 5\n  max: 1\n", "invalid initial context"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, "replay", "number-input", writeScript(t, tt.script))
			assert.ErrorContains(t, err, tt.want)
		})
	}

	_, err := run(t, "replay", "number-input", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = run(t, "replay", "number-input", writeScript(t, "events: []\n"), "--persist-dir", t.TempDir(), "--persist-format", "xml")
	assert.ErrorContains(t, err, `unknown persist format "xml"`)

	_, err = run(t, "--log-level", "loud", "widgets")
	assert.ErrorContains(t, err, `unknown log level "loud"`)
}

func TestStepUnmarshal(t *testing.T) {
	var s step
	require.NoError(t, yaml.Unmarshal([]byte("type: INCREMENT\nstep: 2\nwait: 10ms\n"), &s))
	assert.Equal(t, "INCREMENT", string(s.Msg.Type))
	assert.Equal(t, map[string]any{"step": 2}, s.Msg.Data)
	assert.Equal(t, "10ms", s.Wait.String())
}

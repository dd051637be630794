package main

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/comalice/uimachines/internal/core"
	"github.com/comalice/uimachines/internal/primitives"
	"github.com/comalice/uimachines/machines/numberinput"
	"github.com/comalice/uimachines/machines/tagsinput"
)

// widget is a bundled machine the CLI can render and replay.
type widget interface {
	config() primitives.MachineConfig
	initial() []string
	replay(ctx context.Context, out io.Writer, s *script, o replayOptions) (replayStats, error)
}

// widgetDef adapts one widget package to the widget interface.
type widgetDef[C any] struct {
	name   string
	cfg    func() primitives.MachineConfig
	build  func(ctx C, opts ...core.Option) (*core.Machine[C], error)
	decode func(primitives.Message) primitives.Event
}

var widgets = map[string]widget{
	"tags-input": widgetDef[tagsinput.Context]{
		name: "tags-input",
		cfg:  tagsinput.Config,
		build: func(c tagsinput.Context, opts ...core.Option) (*core.Machine[tagsinput.Context], error) {
			return tagsinput.New(c, tagsinput.WithMachineOptions(opts...))
		},
		decode: tagsinput.DecodeMessage,
	},
	"number-input": widgetDef[numberinput.Context]{
		name: "number-input",
		cfg:  numberinput.Config,
		build: func(c numberinput.Context, opts ...core.Option) (*core.Machine[numberinput.Context], error) {
			return numberinput.New(c, numberinput.WithMachineOptions(opts...))
		},
		decode: numberinput.DecodeMessage,
	},
}

func widgetNames() []string {
	names := make([]string, 0, len(widgets))
	for name := range widgets {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func lookupWidget(name string) (widget, error) {
	w, ok := widgets[name]
	if !ok {
		return nil, fmt.Errorf("unknown widget %q (available: %s)", name, strings.Join(widgetNames(), ", "))
	}
	return w, nil
}

func (w widgetDef[C]) config() primitives.MachineConfig { return w.cfg() }

// initial returns the active states right after Start with a zero context.
func (w widgetDef[C]) initial() []string {
	var zero C
	m, err := w.build(zero, core.WithLogger(quietLogger()))
	if err != nil {
		return nil
	}
	if err := m.Start(); err != nil {
		return nil
	}
	defer m.Stop()
	return m.Snapshot().Value
}

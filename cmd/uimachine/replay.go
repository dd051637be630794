package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/comalice/uimachines/internal/core"
	"github.com/comalice/uimachines/internal/extensibility"
	"github.com/comalice/uimachines/internal/logger"
	"github.com/comalice/uimachines/internal/primitives"
	"github.com/comalice/uimachines/internal/production"
)

// endOfScript is sent after the last scripted event. The event source is
// unbuffered, so once it is received every earlier event has been handed to
// the machine. Events a timer drain picked up may still be queued; replay
// waits for the machine to go idle before stopping it.
const endOfScript primitives.Signal = "uimachine.replay.end"

// script is the YAML replay file:
//
//	id: demo
//	context:
//	  value: [React, Vue]
//	events:
//	  - type: TYPE
//	    value: Go
//	  - type: ENTER
//	  - wait: 350ms
type script struct {
	ID      string    `yaml:"id"`
	Context yaml.Node `yaml:"context"`
	Events  []step    `yaml:"events"`
}

// step is one scripted event, optionally preceded by a wait. Keys other than
// type and wait become the message data.
type step struct {
	Wait time.Duration
	Msg  primitives.Message
}

func (s *step) UnmarshalYAML(n *yaml.Node) error {
	var raw map[string]any
	if err := n.Decode(&raw); err != nil {
		return err
	}
	if w, ok := raw["wait"]; ok {
		d, err := time.ParseDuration(fmt.Sprint(w))
		if err != nil {
			return fmt.Errorf("line %d: wait: %w", n.Line, err)
		}
		s.Wait = d
		delete(raw, "wait")
	}
	if t, ok := raw["type"]; ok {
		s.Msg.Type = primitives.EventType(fmt.Sprint(t))
		delete(raw, "type")
	}
	if s.Msg.Type == "" && s.Wait == 0 {
		return fmt.Errorf("line %d: step needs a type or a wait", n.Line)
	}
	if len(raw) > 0 {
		s.Msg.Data = raw
	}
	return nil
}

func loadScript(path string) (*script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var s script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &s, nil
}

type replayOptions struct {
	persistDir    string
	persistFormat string
	resume        bool
}

// replayStats is what the observer saw during a replay.
type replayStats struct {
	Events      int
	Transitions int
	Unmatched   int
	Errors      []error
}

type statsObserver struct {
	mu sync.Mutex
	replayStats
}

func (o *statsObserver) OnTransition(core.TransitionRecord) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.Transitions++
}

func (o *statsObserver) OnUnmatched(_ string, evt primitives.EventType) {
	if evt == endOfScript.EventType() {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.Unmatched++
}

func (o *statsObserver) OnError(_ string, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.Errors = append(o.Errors, err)
}

func (o *statsObserver) stats() replayStats {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.replayStats
}

// snapshotDoc is one printed YAML document.
type snapshotDoc[C any] struct {
	Event   primitives.EventType `yaml:"event,omitempty"`
	Value   []string             `yaml:"value"`
	Context C                    `yaml:"context"`
}

func quietLogger() *log.Logger { return log.New(io.Discard) }

func newPersister[C any](format, dir string) (core.Persister[C], error) {
	switch format {
	case "", "yaml":
		return production.NewYAMLPersister[C](dir)
	case "json":
		return production.NewJSONPersister[C](dir)
	}
	return nil, fmt.Errorf("unknown persist format %q", format)
}

func (w widgetDef[C]) replay(ctx context.Context, out io.Writer, s *script, o replayOptions) (replayStats, error) {
	var initial C
	if !s.Context.IsZero() {
		if err := s.Context.Decode(&initial); err != nil {
			return replayStats{}, fmt.Errorf("decode context: %w", err)
		}
	}

	l := logger.New(w.name)
	events := make(chan primitives.Event)
	obs := &statsObserver{}
	opts := []core.Option{
		core.WithLogger(l),
		core.WithEventSource(extensibility.NewChannelEventSource(events)),
		core.WithActionRunner(extensibility.NewLoggingActionRunner(nil, l)),
		core.WithPublisher(production.LogPublisher{Log: l}),
		core.WithObserver(obs),
	}
	if s.ID != "" {
		opts = append(opts, core.WithID(s.ID))
	}
	var persister core.Persister[C]
	if o.persistDir != "" {
		p, err := newPersister[C](o.persistFormat, o.persistDir)
		if err != nil {
			return replayStats{}, err
		}
		persister = p
		opts = append(opts, core.WithPersister(p))
	}

	m, err := w.build(initial, opts...)
	if err != nil {
		return replayStats{}, err
	}
	if o.resume && persister != nil {
		rec, err := persister.Load(ctx, m.ID())
		switch {
		case err == nil:
			if err := m.Restore(rec); err != nil {
				return replayStats{}, err
			}
			l.Info("resumed", "machine", m.ID(), "value", rec.Value)
		case !errors.Is(err, os.ErrNotExist):
			return replayStats{}, err
		}
	}

	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	var (
		mu     sync.Mutex
		encErr error
	)
	unsubscribe := m.Subscribe(func(snap *core.Snapshot[C]) {
		mu.Lock()
		defer mu.Unlock()
		if encErr == nil {
			encErr = enc.Encode(snapshotDoc[C]{Event: snap.Event, Value: snap.Value, Context: snap.Context})
		}
	})
	defer unsubscribe()

	if err := m.Start(); err != nil {
		return replayStats{}, err
	}
	defer m.Stop()

	feed := func(evt primitives.Event) error {
		select {
		case events <- evt:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	sent := 0
	for _, st := range s.Events {
		if st.Wait > 0 {
			select {
			case <-time.After(st.Wait):
			case <-ctx.Done():
				return obs.stats(), ctx.Err()
			}
		}
		if st.Msg.Type == "" {
			continue
		}
		if err := feed(w.decode(st.Msg)); err != nil {
			return obs.stats(), err
		}
		sent++
	}
	if err := feed(endOfScript); err != nil {
		return obs.stats(), err
	}
	if err := waitIdle(ctx, m.Idle); err != nil {
		return obs.stats(), err
	}
	if err := m.Stop(); err != nil {
		return obs.stats(), err
	}

	stats := obs.stats()
	stats.Events = sent
	mu.Lock()
	defer mu.Unlock()
	if err := enc.Close(); err != nil && encErr == nil {
		encErr = err
	}
	return stats, encErr
}

// waitIdle polls idle until it reports true.
func waitIdle(ctx context.Context, idle func() bool) error {
	ticker := time.NewTicker(time.Millisecond)
	defer ticker.Stop()
	for !idle() {
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (a *app) replayCommand() *cobra.Command {
	var resume bool
	cmd := &cobra.Command{
		Use:   "replay <widget> <script.yaml>",
		Short: "Replay a YAML event script against a widget",
		Long: `Replay a YAML event script against a bundled widget and print every
published snapshot as a YAML document. With --persist-dir the machine record is
saved after each snapshot; --resume restores it before the script runs.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := lookupWidget(args[0])
			if err != nil {
				return err
			}
			s, err := loadScript(args[1])
			if err != nil {
				return err
			}
			stats, err := w.replay(cmd.Context(), cmd.OutOrStdout(), s, replayOptions{
				persistDir:    a.v.GetString("persist-dir"),
				persistFormat: a.v.GetString("persist-format"),
				resume:        resume,
			})
			if err != nil {
				return err
			}
			logger.Logger.Info("replay done", "widget", args[0], "events", stats.Events,
				"transitions", stats.Transitions, "unmatched", stats.Unmatched, "errors", len(stats.Errors))
			return errors.Join(stats.Errors...)
		},
	}
	flags := cmd.Flags()
	flags.String("persist-dir", "", "Directory to persist machine records in")
	flags.String("persist-format", "", "Record format (yaml|json) [default: yaml]")
	flags.BoolVar(&resume, "resume", false, "Restore the persisted record before replaying")
	for _, name := range []string{"persist-dir", "persist-format"} {
		_ = a.v.BindPFlag(name, flags.Lookup(name))
	}
	return cmd
}

// Package extensibility holds pluggable implementations of the core
// interfaces: action runners, guard resolvers and event sources.
package extensibility

import (
	"time"

	"github.com/charmbracelet/log"

	"github.com/comalice/uimachines/internal/core"
	"github.com/comalice/uimachines/internal/logger"
	"github.com/comalice/uimachines/internal/primitives"
)

// DefaultActionRunner runs actions directly.
type DefaultActionRunner struct{}

// Run executes the action.
func (DefaultActionRunner) Run(_ string, _ primitives.Event, run func() error) error {
	return run()
}

// LoggingActionRunner wraps an ActionRunner and logs every action at debug
// level, with its duration and result.
type LoggingActionRunner struct {
	inner core.ActionRunner
	log   *log.Logger
	now   func() time.Time
}

// NewLoggingActionRunner wraps inner. A nil inner runs actions directly; a nil
// l uses a logger prefixed "action".
func NewLoggingActionRunner(inner core.ActionRunner, l *log.Logger) *LoggingActionRunner {
	if inner == nil {
		inner = DefaultActionRunner{}
	}
	if l == nil {
		l = logger.New("action")
	}
	return &LoggingActionRunner{inner: inner, log: l, now: time.Now}
}

// Run logs before and after delegating to the inner runner.
func (r *LoggingActionRunner) Run(name string, event primitives.Event, run func() error) error {
	r.log.Debug("running action", "action", name, "event", event.EventType())
	began := r.now()
	err := r.inner.Run(name, event, run)
	if err != nil {
		r.log.Warn("action failed", "action", name, "event", event.EventType(), "took", r.now().Sub(began), "error", err)
		return err
	}
	r.log.Debug("action done", "action", name, "event", event.EventType(), "took", r.now().Sub(began))
	return nil
}

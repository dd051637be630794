package numberinput

import (
	"context"
	"fmt"
	"time"

	"github.com/comalice/uimachines/internal/core"
	"github.com/comalice/uimachines/internal/extensibility"
	"github.com/comalice/uimachines/internal/primitives"
)

// State paths.
const (
	StateIdle       = "idle"
	StateFocused    = "focused"
	StateBeforeSpin = "before:spin"
	StateSpinning   = "spinning"
)

// Default spin timing.
const (
	DefaultChangeDelay    = 300 * time.Millisecond
	DefaultChangeInterval = 50 * time.Millisecond
)

// Machine is a number-input machine instance.
type Machine = core.Machine[Context]

// Snapshot is a published number-input snapshot.
type Snapshot = core.Snapshot[Context]

type options struct {
	delay    time.Duration
	interval time.Duration
	clock    primitives.Clock
	machine  []core.Option
}

// Option configures New.
type Option func(*options)

// WithChangeDelay sets how long a spin button must be held before spinning.
func WithChangeDelay(d time.Duration) Option {
	return func(o *options) { o.delay = d }
}

// WithChangeInterval sets the spin repeat interval.
func WithChangeInterval(d time.Duration) Option {
	return func(o *options) { o.interval = d }
}

// WithClock drives both the spin delay and the spin ticker from c.
func WithClock(c primitives.Clock) Option {
	return func(o *options) {
		o.clock = c
		o.machine = append(o.machine, core.WithClock(c))
	}
}

// WithMachineOptions passes options through to the interpreter.
func WithMachineOptions(opts ...core.Option) Option {
	return func(o *options) { o.machine = append(o.machine, opts...) }
}

// Config returns the number-input state graph. Guards are field and method
// expressions over Context.
func Config() primitives.MachineConfig {
	t := func(target, guard string, actions ...string) primitives.TransitionConfig {
		return primitives.TransitionConfig{Target: target, Guard: guard, Actions: actions}
	}

	b := primitives.NewMachineBuilder("number-input", StateIdle)
	b.On(EventSetValue, t("", "", "setValue")).
		On(EventIncrement, t("", "", "increment")).
		On(EventDecrement, t("", "", "decrement")).
		On(EventClearValue, t("", "", "clearValue"))

	b.State(StateIdle).
		AddTransition(EventFocus, t(StateFocused, "IsInteractive")).
		AddTransition(EventPointerDownInc, t(StateBeforeSpin, "IsInteractive", "setHintIncrement")).
		AddTransition(EventPointerDownDec, t(StateBeforeSpin, "IsInteractive", "setHintDecrement"))

	b.State(StateFocused).
		AddTransition(EventInputChange, t("", "", "setSanitizedValue")).
		AddTransition(EventArrowUp, t("", "", "increment")).
		AddTransition(EventArrowDown, t("", "", "decrement")).
		AddTransition(EventPageUp, t("", "", "incrementPage")).
		AddTransition(EventPageDown, t("", "", "decrementPage")).
		AddTransition(EventHome, t("", "", "setToMin")).
		AddTransition(EventEnd, t("", "", "setToMax")).
		AddTransition(EventWheelInc, t("", "AllowMouseWheel", "increment")).
		AddTransition(EventWheelDec, t("", "AllowMouseWheel", "decrement")).
		AddTransition(EventBlur,
			t(StateIdle, "ClampValueOnBlur", "clampValue"),
			t(StateIdle, "")).
		AddTransition(EventPointerDownInc, t(StateBeforeSpin, "IsInteractive", "setHintIncrement")).
		AddTransition(EventPointerDownDec, t(StateBeforeSpin, "IsInteractive", "setHintDecrement"))

	b.State(StateBeforeSpin).
		WithEntry("stepByHint").
		WithAfter(primitives.DelayConfig{Delay: "CHANGE_DELAY", Target: StateSpinning}).
		AddTransition(EventPointerUp, t(StateFocused, "", "clearHint"))

	b.State(StateSpinning).
		WithActivities("spin").
		AddTransition(EventSpin, t("", "", "stepByHint")).
		AddTransition(EventPointerUp, t(StateFocused, "", "clearHint"))

	return b.MustBuild()
}

// New validates ctx and builds a number-input machine. Call Start on the result.
func New(ctx Context, opts ...Option) (*Machine, error) {
	o := options{delay: DefaultChangeDelay, interval: DefaultChangeInterval}
	for _, opt := range opts {
		opt(&o)
	}
	if o.delay <= 0 || o.interval <= 0 {
		return nil, &core.ConfigError{
			Machine: "number-input",
			Err:     fmt.Errorf("%w: change delay and interval must be positive, got %v and %v", core.ErrInvalidConfig, o.delay, o.interval),
		}
	}
	impl := core.Implementations[Context]{
		Actions: actions(),
		Delays: map[string]core.DelayFunc[Context]{
			"CHANGE_DELAY": func(Context) time.Duration { return o.delay },
		},
		Activities: map[string]core.Activity[Context]{
			"spin": spin(o.interval, o.clock),
		},
		Validate: Context.Validate,
	}
	machineOpts := append([]core.Option{core.WithGuardResolver(extensibility.NewExpressionGuardResolver())}, o.machine...)
	return core.NewMachine(Config(), impl, ctx.withDefaults(), machineOpts...)
}

// spin sends SPIN every interval until the spinning state exits.
func spin(interval time.Duration, clock primitives.Clock) core.Activity[Context] {
	return func(ctx context.Context, _ Context, send func(primitives.Event)) func() {
		ticker := extensibility.NewTickerEventSource(primitives.Signal(EventSpin), interval, clock)
		go func() {
			for {
				select {
				case evt, ok := <-ticker.Events():
					if !ok {
						return
					}
					send(evt)
				case <-ctx.Done():
					return
				}
			}
		}()
		return ticker.Stop
	}
}

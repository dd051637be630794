package numberinput

import (
	"sync"

	"github.com/charmbracelet/log"

	"github.com/comalice/uimachines/connect"
	"github.com/comalice/uimachines/internal/logger"
	"github.com/comalice/uimachines/internal/primitives"
)

// API is the connect projection of a number-input snapshot.
type API struct {
	Value        string
	IsFocused    bool
	IsSpinning   bool
	IsOutOfRange bool
	CanIncrement bool
	CanDecrement bool

	// OnError receives errors from events sent by prop handlers. When nil
	// they are logged.
	OnError func(error)

	ctx  Context
	send func(primitives.Event) error
	n    connect.Normalizer
}

// Connect projects snap onto prop bags whose handlers call send.
func Connect(snap *Snapshot, send func(primitives.Event) error, n connect.Normalizer) *API {
	c := snap.Context
	return &API{
		Value:        c.Value,
		IsFocused:    snap.Matches(StateFocused, StateBeforeSpin, StateSpinning),
		IsSpinning:   snap.Matches(StateSpinning),
		IsOutOfRange: c.IsOutOfRange(),
		CanIncrement: c.CanIncrement(),
		CanDecrement: c.CanDecrement(),
		ctx:          c,
		send:         send,
		n:            n,
	}
}

// ValueAsNumber parses the value; ok is false when there is none.
func (a *API) ValueAsNumber() (float64, bool) { return a.ctx.ValueAsNumber() }

// SetValue sets the value without clamping.
func (a *API) SetValue(v float64) error { return a.send(SetValue{Value: v}) }

// Increment steps the value up by one step.
func (a *API) Increment() error { return a.send(Increment{}) }

// Decrement steps the value down by one step.
func (a *API) Decrement() error { return a.send(Decrement{}) }

// Clear empties the value.
func (a *API) Clear() error { return a.send(primitives.Signal(EventClearValue)) }

var handlerLog = sync.OnceValue(func() *log.Logger { return logger.New("number-input") })

func (a *API) emit(evt primitives.Event) {
	err := a.send(evt)
	switch {
	case err == nil:
	case a.OnError != nil:
		a.OnError(err)
	default:
		handlerLog().Warn("handler event failed", "event", evt.EventType(), "error", err)
	}
}

func (a *API) key(t primitives.EventType) func(connect.KeyEvent) connect.Response {
	return func(connect.KeyEvent) connect.Response {
		a.emit(primitives.Signal(t))
		return connect.Prevent
	}
}

// RootProps are the props of the wrapping element.
func (a *API) RootProps() *connect.Props {
	c := a.ctx
	return connect.NewProps("root", a.n).
		Set("id", c.RootID()).
		Data("disabled", c.Disabled).
		Data("focus", a.IsFocused).
		Data("invalid", a.IsOutOfRange)
}

// InputProps are the props of the text field.
func (a *API) InputProps() *connect.Props {
	c := a.ctx
	p := connect.NewProps("input", a.n).
		Set("id", c.InputID()).
		Set("name", c.Name).
		Set("role", "spinbutton").
		Set("type", "text").
		Set("inputmode", "decimal").
		Set("pattern", "[0-9]*(.[0-9]+)?").
		Set("autocomplete", "off").
		Set("spellcheck", false).
		Set("value", c.Value).
		Set("disabled", c.Disabled).
		Set("readonly", c.ReadOnly).
		Set("aria-valuemin", c.Min).
		Set("aria-valuemax", c.Max).
		Set("aria-invalid", a.IsOutOfRange).
		Data("invalid", a.IsOutOfRange)
	if v, ok := c.ValueAsNumber(); ok {
		p.Set("aria-valuenow", v)
	}
	return p.On(connect.Handlers{
		OnFocus: func(connect.FocusEvent) connect.Response {
			a.emit(primitives.Signal(EventFocus))
			return connect.Response{}
		},
		OnBlur: func(connect.FocusEvent) connect.Response {
			a.emit(primitives.Signal(EventBlur))
			return connect.Response{}
		},
		OnChange: func(e connect.ChangeEvent) connect.Response {
			if !e.IsComposing {
				a.emit(InputChange{Value: e.Value})
			}
			return connect.Response{}
		},
		OnKeyDown: connect.KeyMap{
			connect.KeyArrowUp:   a.key(EventArrowUp),
			connect.KeyArrowDown: a.key(EventArrowDown),
			connect.KeyPageUp:    a.key(EventPageUp),
			connect.KeyPageDown:  a.key(EventPageDown),
			connect.KeyHome:      a.key(EventHome),
			connect.KeyEnd:       a.key(EventEnd),
		}.Handle,
		OnWheel: func(e connect.WheelEvent) connect.Response {
			if !c.AllowMouseWheel || !a.IsFocused || e.DeltaY == 0 {
				return connect.Response{}
			}
			if e.DeltaY < 0 {
				a.emit(primitives.Signal(EventWheelInc))
			} else {
				a.emit(primitives.Signal(EventWheelDec))
			}
			return connect.Prevent
		},
	})
}

// IncrementButtonProps are the props of the step-up button.
func (a *API) IncrementButtonProps() *connect.Props {
	return a.spinButton("increment-button", a.ctx.IncrementButtonID(), "increment value", !a.CanIncrement, EventPointerDownInc)
}

// DecrementButtonProps are the props of the step-down button.
func (a *API) DecrementButtonProps() *connect.Props {
	return a.spinButton("decrement-button", a.ctx.DecrementButtonID(), "decrease value", !a.CanDecrement, EventPointerDownDec)
}

func (a *API) spinButton(part, id, label string, atBound bool, press primitives.EventType) *connect.Props {
	c := a.ctx
	disabled := c.Disabled || atBound
	return connect.NewProps(part, a.n).
		Set("id", id).
		Set("type", "button").
		Set("tabindex", -1).
		Set("aria-label", label).
		Set("aria-controls", c.InputID()).
		Set("disabled", disabled).
		Data("disabled", disabled).
		On(connect.Handlers{
			OnPointerDown: func(connect.PointerEvent) connect.Response {
				if !c.IsInteractive() || atBound {
					return connect.Response{}
				}
				a.emit(primitives.Signal(press))
				return connect.Prevent
			},
			OnPointerUp: func(connect.PointerEvent) connect.Response {
				a.emit(primitives.Signal(EventPointerUp))
				return connect.Response{}
			},
		})
}

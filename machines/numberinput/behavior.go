package numberinput

import (
	"github.com/comalice/uimachines/internal/core"
	"github.com/comalice/uimachines/internal/primitives"
)

func reduce(fn func(Context, primitives.Event) Context) core.Action[Context] {
	return func(c Context, evt primitives.Event, _ core.Effects) (Context, error) {
		return fn(c, evt), nil
	}
}

func actions() map[string]core.Action[Context] {
	return map[string]core.Action[Context]{
		"setValue": reduce(func(c Context, evt primitives.Event) Context {
			if e, ok := evt.(SetValue); ok {
				c.Value = c.format(e.Value)
			}
			return c
		}),
		"setSanitizedValue": reduce(func(c Context, evt primitives.Event) Context {
			if e, ok := evt.(InputChange); ok {
				c.Value = sanitize(e.Value)
			}
			return c
		}),
		"clearValue": reduce(func(c Context, _ primitives.Event) Context {
			c.Value = ""
			return c
		}),
		"increment": reduce(func(c Context, evt primitives.Event) Context {
			if e, ok := evt.(Increment); ok && e.Step > 0 {
				return c.stepBy(e.Step / c.Step)
			}
			return c.stepBy(1)
		}),
		"decrement": reduce(func(c Context, evt primitives.Event) Context {
			if e, ok := evt.(Decrement); ok && e.Step > 0 {
				return c.stepBy(-e.Step / c.Step)
			}
			return c.stepBy(-1)
		}),
		"incrementPage": reduce(func(c Context, _ primitives.Event) Context { return c.stepBy(10) }),
		"decrementPage": reduce(func(c Context, _ primitives.Event) Context { return c.stepBy(-10) }),
		"setToMin": reduce(func(c Context, _ primitives.Event) Context {
			c.Value = c.format(c.Min)
			return c
		}),
		"setToMax": reduce(func(c Context, _ primitives.Event) Context {
			c.Value = c.format(c.Max)
			return c
		}),
		"clampValue": reduce(func(c Context, _ primitives.Event) Context {
			if v, ok := c.ValueAsNumber(); ok {
				c.Value = c.format(c.clamp(v))
			}
			return c
		}),
		"setHintIncrement": reduce(func(c Context, _ primitives.Event) Context {
			c.Hint = HintIncrement
			return c
		}),
		"setHintDecrement": reduce(func(c Context, _ primitives.Event) Context {
			c.Hint = HintDecrement
			return c
		}),
		"clearHint": reduce(func(c Context, _ primitives.Event) Context {
			c.Hint = ""
			return c
		}),
		"stepByHint": reduce(func(c Context, _ primitives.Event) Context {
			switch c.Hint {
			case HintIncrement:
				return c.stepBy(1)
			case HintDecrement:
				return c.stepBy(-1)
			}
			return c
		}),
	}
}

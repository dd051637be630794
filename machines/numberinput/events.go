package numberinput

import (
	"strconv"

	"github.com/comalice/uimachines/internal/primitives"
)

// Event types handled by the machine.
const (
	EventFocus          primitives.EventType = "FOCUS"
	EventBlur           primitives.EventType = "BLUR"
	EventInputChange    primitives.EventType = "INPUT_CHANGE"
	EventArrowUp        primitives.EventType = "ARROW_UP"
	EventArrowDown      primitives.EventType = "ARROW_DOWN"
	EventPageUp         primitives.EventType = "PAGE_UP"
	EventPageDown       primitives.EventType = "PAGE_DOWN"
	EventHome           primitives.EventType = "HOME"
	EventEnd            primitives.EventType = "END"
	EventWheelInc       primitives.EventType = "WHEEL_INC"
	EventWheelDec       primitives.EventType = "WHEEL_DEC"
	EventPointerDownInc primitives.EventType = "POINTER_DOWN_INC"
	EventPointerDownDec primitives.EventType = "POINTER_DOWN_DEC"
	EventPointerUp      primitives.EventType = "POINTER_UP"
	EventSpin           primitives.EventType = "SPIN"
	EventSetValue       primitives.EventType = "SET_VALUE"
	EventIncrement      primitives.EventType = "INCREMENT"
	EventDecrement      primitives.EventType = "DECREMENT"
	EventClearValue     primitives.EventType = "CLEAR_VALUE"
)

// InputChange carries the text typed into the field.
type InputChange struct{ Value string }

func (InputChange) EventType() primitives.EventType { return EventInputChange }

// SetValue sets the value programmatically. It is not clamped.
type SetValue struct{ Value float64 }

func (SetValue) EventType() primitives.EventType { return EventSetValue }

// Increment steps up by Step, or by the context step when zero.
type Increment struct{ Step float64 }

func (Increment) EventType() primitives.EventType { return EventIncrement }

// Decrement steps down by Step, or by the context step when zero.
type Decrement struct{ Step float64 }

func (Decrement) EventType() primitives.EventType { return EventDecrement }

func number(v any) float64 {
	switch n := v.(type) {
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case float64:
		return n
	case string:
		f, _ := strconv.ParseFloat(n, 64)
		return f
	}
	return 0
}

// DecodeMessage maps a loosely typed message, as read from an event script,
// onto the machine's events. Unknown types pass through as signals.
func DecodeMessage(m primitives.Message) primitives.Event {
	switch m.Type {
	case EventInputChange:
		if s, ok := m.Data["value"].(string); ok {
			return InputChange{Value: s}
		}
		return InputChange{Value: strconv.FormatFloat(number(m.Data["value"]), 'f', -1, 64)}
	case EventSetValue:
		return SetValue{Value: number(m.Data["value"])}
	case EventIncrement:
		return Increment{Step: number(m.Data["step"])}
	case EventDecrement:
		return Decrement{Step: number(m.Data["step"])}
	default:
		return primitives.Signal(m.Type)
	}
}

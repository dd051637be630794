// Event provides the immutable event primitive for statechart transitions.
//
// Events form a tagged union: every event reports its EventType, and widget
// packages declare one struct per payload-carrying event. Actions and guards
// recover the payload with a type switch:
//
//	switch e := evt.(type) {
//	case Type:
//		ctx.InputValue = e.Value
//	case primitives.Signal:
//		// payload-less
//	}
//
// Events must not be mutated once sent.
package primitives

// EventType identifies an event kind. Transitions are keyed by it.
type EventType string

// Event is implemented by every value that can be sent to a machine.
type Event interface {
	EventType() EventType
}

// Signal is an event without payload. Its value is its type.
type Signal EventType

// EventType implements Event.
func (s Signal) EventType() EventType { return EventType(s) }

func (s Signal) String() string { return string(s) }

// Message is a generic event carrying loosely typed data. It is what event
// scripts and channel sources decode into before a widget maps it onto its own
// event types.
type Message struct {
	Type EventType      `json:"type" yaml:"type"`
	Data map[string]any `json:"data,omitempty" yaml:"data,omitempty"`
}

// EventType implements Event.
func (m Message) EventType() EventType { return m.Type }

// Field returns the named string field of the message data, or "".
func (m Message) Field(key string) string {
	if v, ok := m.Data[key].(string); ok {
		return v
	}
	return ""
}

// NewMessage creates a Message from key/value pairs.
func NewMessage(t EventType, kv ...any) Message {
	m := Message{Type: t}
	if len(kv) > 1 {
		m.Data = make(map[string]any, len(kv)/2)
		for i := 0; i+1 < len(kv); i += 2 {
			if k, ok := kv[i].(string); ok {
				m.Data[k] = kv[i+1]
			}
		}
	}
	return m
}

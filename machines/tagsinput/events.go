package tagsinput

import "github.com/comalice/uimachines/internal/primitives"

// Event types handled by the machine. Types without a payload struct are sent
// as primitives.Signal values.
const (
	EventFocus          primitives.EventType = "FOCUS"
	EventBlur           primitives.EventType = "BLUR"
	EventPointerDown    primitives.EventType = "POINTER_DOWN"
	EventText           primitives.EventType = "TYPE"
	EventPaste          primitives.EventType = "PASTE"
	EventEnter          primitives.EventType = "ENTER"
	EventDelimiter      primitives.EventType = "DELIMITER"
	EventBackspace      primitives.EventType = "BACKSPACE"
	EventDelete         primitives.EventType = "DELETE"
	EventEscape         primitives.EventType = "ESCAPE"
	EventArrowLeft      primitives.EventType = "ARROW_LEFT"
	EventArrowRight     primitives.EventType = "ARROW_RIGHT"
	EventArrowDown      primitives.EventType = "ARROW_DOWN"
	EventAdd            primitives.EventType = "ADD"
	EventAddTag         primitives.EventType = "ADD_TAG"
	EventDeleteTag      primitives.EventType = "DELETE_TAG"
	EventClearAll       primitives.EventType = "CLEAR_ALL"
	EventPointerDownTag primitives.EventType = "POINTER_DOWN_TAG"
	EventDoubleClickTag primitives.EventType = "DOUBLE_CLICK_TAG"
	EventHoverDeleteTag primitives.EventType = "HOVER_DELETE_TAG"
	EventTagInputType   primitives.EventType = "TAG_INPUT_TYPE"
	EventTagInputEnter  primitives.EventType = "TAG_INPUT_ENTER"
	EventTagInputEscape primitives.EventType = "TAG_INPUT_ESCAPE"
	EventTagInputBlur   primitives.EventType = "TAG_INPUT_BLUR"
)

// Type replaces the input buffer with the text control's value.
type Type struct{ Value string }

func (Type) EventType() primitives.EventType { return EventText }

// Paste carries pasted text.
type Paste struct{ Value string }

func (Paste) EventType() primitives.EventType { return EventPaste }

// Delimiter is a press of a key that may commit the buffer.
type Delimiter struct{ Key string }

func (Delimiter) EventType() primitives.EventType { return EventDelimiter }

// Add commits a value typed by the user. The machine sends it to itself.
type Add struct{ Value string }

func (Add) EventType() primitives.EventType { return EventAdd }

// AddTag adds a tag programmatically.
type AddTag struct{ Value string }

func (AddTag) EventType() primitives.EventType { return EventAddTag }

// DeleteTag removes a tag by id programmatically.
type DeleteTag struct{ ID string }

func (DeleteTag) EventType() primitives.EventType { return EventDeleteTag }

// PointerDownTag is a press on a tag.
type PointerDownTag struct{ ID string }

func (PointerDownTag) EventType() primitives.EventType { return EventPointerDownTag }

// DoubleClickTag asks to edit a tag.
type DoubleClickTag struct{ ID string }

func (DoubleClickTag) EventType() primitives.EventType { return EventDoubleClickTag }

// HoverDeleteTag is a hover over a tag's delete button.
type HoverDeleteTag struct{ ID string }

func (HoverDeleteTag) EventType() primitives.EventType { return EventHoverDeleteTag }

// TagInputType replaces the edit buffer.
type TagInputType struct{ Value string }

func (TagInputType) EventType() primitives.EventType { return EventTagInputType }

// DecodeMessage maps a loosely typed message, as read from an event script,
// onto the machine's events. Unknown types pass through as signals.
func DecodeMessage(m primitives.Message) primitives.Event {
	switch m.Type {
	case EventText:
		return Type{Value: m.Field("value")}
	case EventPaste:
		return Paste{Value: m.Field("value")}
	case EventDelimiter:
		return Delimiter{Key: m.Field("key")}
	case EventAdd:
		return Add{Value: m.Field("value")}
	case EventAddTag:
		return AddTag{Value: m.Field("value")}
	case EventDeleteTag:
		return DeleteTag{ID: m.Field("id")}
	case EventPointerDownTag:
		return PointerDownTag{ID: m.Field("id")}
	case EventDoubleClickTag:
		return DoubleClickTag{ID: m.Field("id")}
	case EventHoverDeleteTag:
		return HoverDeleteTag{ID: m.Field("id")}
	case EventTagInputType:
		return TagInputType{Value: m.Field("value")}
	default:
		return primitives.Signal(m.Type)
	}
}

package connect

// Canonical key names.
const (
	KeyEnter      = "Enter"
	KeyEscape     = "Escape"
	KeyBackspace  = "Backspace"
	KeyDelete     = "Delete"
	KeyArrowLeft  = "ArrowLeft"
	KeyArrowRight = "ArrowRight"
	KeyArrowUp    = "ArrowUp"
	KeyArrowDown  = "ArrowDown"
	KeyPageUp     = "PageUp"
	KeyPageDown   = "PageDown"
	KeyHome       = "Home"
	KeyEnd        = "End"
)

// KeyMap dispatches a key event to the handler registered for its key.
// Key events fired during IME composition are ignored.
type KeyMap map[string]func(KeyEvent) Response

// Handle runs the handler for e.Key, if any.
func (km KeyMap) Handle(e KeyEvent) Response {
	if e.IsComposing {
		return Response{}
	}
	if fn, ok := km[e.Key]; ok {
		return fn(e)
	}
	return Response{}
}

// DataAttr renders a boolean as a presence-only attribute value: "" or nil.
func DataAttr(on bool) any {
	if on {
		return ""
	}
	return nil
}

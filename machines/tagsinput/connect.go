package tagsinput

import (
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/comalice/uimachines/connect"
	"github.com/comalice/uimachines/internal/logger"
	"github.com/comalice/uimachines/internal/primitives"
)

// API is the connect projection of a tags-input snapshot.
type API struct {
	Value          []string
	ValueAsString  string
	Count          int
	InputValue     string
	IsAtMax        bool
	IsInputFocused bool
	IsEditingTag   bool

	// OnError receives errors from events sent by prop handlers. When nil
	// they are logged.
	OnError func(error)

	ctx  Context
	send func(primitives.Event) error
	n    connect.Normalizer
}

// Connect projects snap onto prop bags whose handlers call send. A nil
// normalizer keeps canonical prop names.
func Connect(snap *Snapshot, send func(primitives.Event) error, n connect.Normalizer) *API {
	c := snap.Context
	return &API{
		Value:          c.Value,
		ValueAsString:  c.ValueAsString(),
		Count:          c.Count(),
		InputValue:     c.InputValue,
		IsAtMax:        c.IsAtMax(),
		IsInputFocused: snap.Matches(StateFocused, StateNavigating),
		IsEditingTag:   snap.Matches(StateEditing),
		ctx:            c,
		send:           send,
		n:              n,
	}
}

// Clear removes every tag.
func (a *API) Clear() error { return a.send(primitives.Signal(EventClearAll)) }

// Add adds a tag, subject to validation.
func (a *API) Add(value string) error { return a.send(AddTag{Value: value}) }

// Delete removes the tag with the given id.
func (a *API) Delete(id string) error { return a.send(DeleteTag{ID: id}) }

var handlerLog = sync.OnceValue(func() *log.Logger { return logger.New("tags-input") })

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

func (a *API) signal(t primitives.EventType) func(connect.KeyEvent) connect.Response {
	return func(connect.KeyEvent) connect.Response {
		a.emit(primitives.Signal(t))
		return connect.Response{}
	}
}

func (a *API) prevent(t primitives.EventType) func(connect.KeyEvent) connect.Response {
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
		Data("invalid", c.OutOfRange() || c.Invalid).
		Data("disabled", c.Disabled).
		Data("focus", a.IsInputFocused).
		On(connect.Handlers{
			OnPointerDown: func(connect.PointerEvent) connect.Response {
				if c.IsInteractive() {
					a.emit(primitives.Signal(EventPointerDown))
				}
				return connect.Response{}
			},
		})
}

// InputProps are the props of the text input.
func (a *API) InputProps() *connect.Props {
	c := a.ctx
	keys := connect.KeyMap{
		connect.KeyArrowDown: a.signal(EventArrowDown),
		connect.KeyArrowLeft: a.signal(EventArrowLeft),
		connect.KeyArrowRight: func(connect.KeyEvent) connect.Response {
			a.emit(primitives.Signal(EventArrowRight))
			return connect.Response{PreventDefault: c.FocusedID != ""}
		},
		connect.KeyEscape:    a.prevent(EventEscape),
		connect.KeyBackspace: a.signal(EventBackspace),
		connect.KeyDelete:    a.signal(EventDelete),
		connect.KeyEnter:     a.prevent(EventEnter),
		c.delimiter(): func(e connect.KeyEvent) connect.Response {
			a.emit(Delimiter{Key: e.Key})
			return connect.Prevent
		},
	}
	return connect.NewProps("input", a.n).
		Set("id", c.InputID()).
		Set("value", c.InputValue).
		Set("autocomplete", "off").
		Set("disabled", c.Disabled).
		Set("readonly", c.ReadOnly).
		On(connect.Handlers{
			OnChange: func(e connect.ChangeEvent) connect.Response {
				if e.IsComposing || e.InputType == "insertFromPaste" {
					return connect.Response{}
				}
				a.emit(Type{Value: e.Value})
				return connect.Response{}
			},
			OnFocus: func(connect.FocusEvent) connect.Response {
				a.emit(primitives.Signal(EventFocus))
				return connect.Response{}
			},
			OnBlur: func(e connect.FocusEvent) connect.Response {
				// Focus moving to another part of the widget is not a blur.
				if e.RelatedTarget != "" && strings.HasPrefix(e.RelatedTarget, c.RootID()) {
					return connect.Response{}
				}
				a.emit(primitives.Signal(EventBlur))
				return connect.Response{}
			},
			OnPaste: func(e connect.PasteEvent) connect.Response {
				a.emit(Paste{Value: e.Text})
				return connect.Response{}
			},
			OnKeyDown: keys.Handle,
		})
}

// HiddenInputProps carry the value for form submission.
func (a *API) HiddenInputProps() *connect.Props {
	c := a.ctx
	return connect.NewProps("hidden-input", a.n).
		Set("type", "hidden").
		Set("name", c.Name).
		Set("id", c.HiddenInputID()).
		Set("value", c.ValueAsString())
}

// ClearButtonProps are the props of the clear-all button.
func (a *API) ClearButtonProps() *connect.Props {
	c := a.ctx
	return connect.NewProps("clear-button", a.n).
		Set("id", c.ClearButtonID()).
		Set("type", "button").
		Set("aria-label", "Clear all tags").
		Set("hidden", c.Count() == 0).
		On(connect.Handlers{
			OnClick: func(connect.PointerEvent) connect.Response {
				if c.IsInteractive() {
					a.emit(primitives.Signal(EventClearAll))
				}
				return connect.Response{}
			},
		})
}

// TagProps are the props of the tag at index i with value v.
func (a *API) TagProps(i int, v string) *connect.Props {
	c := a.ctx
	id := c.TagID(i)
	return connect.NewProps("tag", a.n).
		Set("id", id).
		Set("hidden", a.IsEditingTag && c.EditedID == id).
		Set("data-value", v).
		Set("data-ownedby", c.RootID()).
		Data("disabled", c.Disabled).
		Data("selected", id == c.FocusedID).
		On(connect.Handlers{
			OnPointerDown: func(connect.PointerEvent) connect.Response {
				if !c.IsInteractive() {
					return connect.Response{}
				}
				a.emit(PointerDownTag{ID: id})
				return connect.Prevent
			},
			OnDoubleClick: func(connect.PointerEvent) connect.Response {
				if c.IsInteractive() {
					a.emit(DoubleClickTag{ID: id})
				}
				return connect.Response{}
			},
		})
}

// TagInputProps are the props of the edit input of the tag at index i.
func (a *API) TagInputProps(i int) *connect.Props {
	c := a.ctx
	active := c.EditedID == c.TagID(i)
	value := ""
	if active {
		value = c.EditedValue
	}
	return connect.NewProps("tag-input", a.n).
		Set("id", c.TagInputID(i)).
		Set("type", "text").
		Set("tabindex", -1).
		Set("hidden", !a.IsEditingTag || !active).
		Set("value", value).
		On(connect.Handlers{
			OnChange: func(e connect.ChangeEvent) connect.Response {
				if !e.IsComposing {
					a.emit(TagInputType{Value: e.Value})
				}
				return connect.Response{}
			},
			OnBlur: func(connect.FocusEvent) connect.Response {
				a.emit(primitives.Signal(EventTagInputBlur))
				return connect.Response{}
			},
			OnKeyDown: connect.KeyMap{
				connect.KeyEnter:  a.prevent(EventTagInputEnter),
				connect.KeyEscape: a.prevent(EventTagInputEscape),
			}.Handle,
		})
}

// TagDeleteButtonProps are the props of the delete button of the tag at index i.
func (a *API) TagDeleteButtonProps(i int, v string) *connect.Props {
	c := a.ctx
	id := c.TagID(i)
	return connect.NewProps("delete-button", a.n).
		Set("id", c.TagDeleteButtonID(i)).
		Set("type", "button").
		Set("aria-label", "Delete "+v).
		Set("tabindex", -1).
		On(connect.Handlers{
			OnPointerDown: func(connect.PointerEvent) connect.Response {
				return connect.Response{PreventDefault: !c.IsInteractive()}
			},
			OnPointerOver: func(connect.PointerEvent) connect.Response {
				if c.IsInteractive() {
					a.emit(HoverDeleteTag{ID: id})
				}
				return connect.Response{}
			},
			OnClick: func(connect.PointerEvent) connect.Response {
				if c.IsInteractive() {
					a.emit(DeleteTag{ID: id})
				}
				return connect.Response{}
			},
		})
}

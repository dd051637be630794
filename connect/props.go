// Package connect holds the building blocks widget Connect functions use to
// project a snapshot onto view-facing prop bags.
//
// A prop bag is a plain map of DOM-attribute-like keys plus a fixed set of
// callback slots. Handlers receive DOM-agnostic event structs and report
// whether the view should prevent the native default.
package connect

import (
	"maps"
	"slices"
)

// Response is returned by every handler.
type Response struct {
	PreventDefault bool
}

// Prevent is the Response asking the view to cancel the native default.
var Prevent = Response{PreventDefault: true}

// PointerEvent is a pointer press, release, hover or click.
type PointerEvent struct {
	Button      int
	PointerType string
}

// FocusEvent is a focus or blur. RelatedTarget is the id of the element
// gaining (on blur) or losing (on focus) focus, if known.
type FocusEvent struct {
	RelatedTarget string
}

// ChangeEvent carries the new value of a text control.
type ChangeEvent struct {
	Value       string
	InputType   string
	IsComposing bool
}

// KeyEvent is a key press. Key follows the DOM KeyboardEvent.key values.
type KeyEvent struct {
	Key         string
	IsComposing bool
	Shift       bool
	Ctrl        bool
	Alt         bool
	Meta        bool
}

// PasteEvent carries the pasted plain text.
type PasteEvent struct {
	Text string
}

// WheelEvent is a mouse wheel turn. Negative DeltaY scrolls up.
type WheelEvent struct {
	DeltaY float64
}

// Handlers are the callback slots a part may fill. Nil slots are left out of
// the flattened props.
type Handlers struct {
	OnPointerDown func(PointerEvent) Response
	OnPointerUp   func(PointerEvent) Response
	OnPointerOver func(PointerEvent) Response
	OnClick       func(PointerEvent) Response
	OnDoubleClick func(PointerEvent) Response
	OnFocus       func(FocusEvent) Response
	OnBlur        func(FocusEvent) Response
	OnChange      func(ChangeEvent) Response
	OnKeyDown     func(KeyEvent) Response
	OnPaste       func(PasteEvent) Response
	OnWheel       func(WheelEvent) Response
}

// each calls fn with the canonical name of every non-nil slot.
func (h Handlers) each(fn func(name string, handler any)) {
	slots := []struct {
		name string
		set  bool
		fn   any
	}{
		{"onPointerDown", h.OnPointerDown != nil, h.OnPointerDown},
		{"onPointerUp", h.OnPointerUp != nil, h.OnPointerUp},
		{"onPointerOver", h.OnPointerOver != nil, h.OnPointerOver},
		{"onClick", h.OnClick != nil, h.OnClick},
		{"onDoubleClick", h.OnDoubleClick != nil, h.OnDoubleClick},
		{"onFocus", h.OnFocus != nil, h.OnFocus},
		{"onBlur", h.OnBlur != nil, h.OnBlur},
		{"onChange", h.OnChange != nil, h.OnChange},
		{"onKeyDown", h.OnKeyDown != nil, h.OnKeyDown},
		{"onPaste", h.OnPaste != nil, h.OnPaste},
		{"onWheel", h.OnWheel != nil, h.OnWheel},
	}
	for _, s := range slots {
		if s.set {
			fn(s.name, s.fn)
		}
	}
}

// Props is the prop bag of one widget part.
type Props struct {
	Part     string
	Attrs    map[string]any
	Handlers Handlers

	normalize Normalizer
}

// NewProps starts a prop bag for part. A nil normalizer keeps canonical names.
func NewProps(part string, n Normalizer) *Props {
	if n == nil {
		n = Identity
	}
	return &Props{
		Part:      part,
		Attrs:     map[string]any{"data-part": part},
		normalize: n,
	}
}

// Set stores a canonical attribute. A nil value removes it.
func (p *Props) Set(key string, value any) *Props {
	if value == nil {
		delete(p.Attrs, key)
		return p
	}
	p.Attrs[key] = value
	return p
}

// Data sets a presence-only data attribute: "data-<name>" is "" when on and
// absent otherwise.
func (p *Props) Data(name string, on bool) *Props {
	return p.Set("data-"+name, DataAttr(on))
}

// On installs the handler slots.
func (p *Props) On(h Handlers) *Props {
	p.Handlers = h
	return p
}

// Attr returns the canonical attribute key, or nil.
func (p *Props) Attr(key string) any {
	return p.Attrs[key]
}

// Map flattens attributes and non-nil handlers under their normalized names.
func (p *Props) Map() map[string]any {
	out := make(map[string]any, len(p.Attrs)+4)
	for k, v := range p.Attrs {
		out[p.normalize.Attr(k)] = v
	}
	p.Handlers.each(func(name string, fn any) {
		out[p.normalize.Handler(name)] = fn
	})
	return out
}

// Keys returns the normalized keys of Map in lexical order.
func (p *Props) Keys() []string {
	return slices.Sorted(maps.Keys(p.Map()))
}

package connect

import "strings"

// Normalizer maps canonical prop names onto a view framework's conventions.
// Canonical attribute names are lower-case DOM names ("class", "tabindex");
// canonical handler names are camel case ("onKeyDown").
type Normalizer interface {
	Attr(name string) string
	Handler(name string) string
}

// NormalizerFuncs adapts two functions into a Normalizer. Nil funcs keep the name.
type NormalizerFuncs struct {
	AttrFunc    func(string) string
	HandlerFunc func(string) string
}

func (n NormalizerFuncs) Attr(name string) string {
	if n.AttrFunc == nil {
		return name
	}
	return n.AttrFunc(name)
}

func (n NormalizerFuncs) Handler(name string) string {
	if n.HandlerFunc == nil {
		return name
	}
	return n.HandlerFunc(name)
}

// Identity keeps canonical names.
var Identity Normalizer = NormalizerFuncs{}

var reactAttrs = map[string]string{
	"class":        "className",
	"for":          "htmlFor",
	"tabindex":     "tabIndex",
	"readonly":     "readOnly",
	"autocomplete": "autoComplete",
	"inputmode":    "inputMode",
	"maxlength":    "maxLength",
}

// React renames attributes to their JSX property names.
var React Normalizer = NormalizerFuncs{
	AttrFunc: func(name string) string {
		if r, ok := reactAttrs[name]; ok {
			return r
		}
		return name
	},
}

var vueHandlers = map[string]string{
	"onDoubleClick": "onDblclick",
}

// Vue lower-cases the event part of handler names: onKeyDown becomes onKeydown.
var Vue Normalizer = NormalizerFuncs{
	HandlerFunc: func(name string) string {
		if r, ok := vueHandlers[name]; ok {
			return r
		}
		rest, ok := strings.CutPrefix(name, "on")
		if !ok || rest == "" {
			return name
		}
		return "on" + rest[:1] + strings.ToLower(rest[1:])
	},
}

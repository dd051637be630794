package tagsinput

import (
	"slices"

	"github.com/comalice/uimachines/internal/core"
	"github.com/comalice/uimachines/internal/primitives"
)

type behavior struct {
	validator Validator
	normalize func(string) string
}

type action = core.Action[Context]

type guard = core.Guard[Context]

// reduce lifts a context-only update into an action.
func reduce(fn func(Context, primitives.Event) Context) action {
	return func(c Context, evt primitives.Event, _ core.Effects) (Context, error) {
		return fn(c, evt), nil
	}
}

func eventValue(evt primitives.Event) string {
	switch e := evt.(type) {
	case Type:
		return e.Value
	case Paste:
		return e.Value
	case Add:
		return e.Value
	case AddTag:
		return e.Value
	case TagInputType:
		return e.Value
	}
	return ""
}

func eventID(evt primitives.Event) string {
	switch e := evt.(type) {
	case DeleteTag:
		return e.ID
	case PointerDownTag:
		return e.ID
	case DoubleClickTag:
		return e.ID
	case HoverDeleteTag:
		return e.ID
	}
	return ""
}

func (b behavior) canAdd(c Context, value string) bool {
	return !c.IsAtMax() && b.validator(b.normalize(value), c.Value)
}

func (b behavior) canCommitEdit(c Context) bool {
	i, ok := c.TagIndex(c.EditedID)
	if !ok {
		return false
	}
	others := slices.Delete(slices.Clone(c.Value), i, i+1)
	return b.validator(b.normalize(c.EditedValue), others)
}

func (b behavior) implementations() core.Implementations[Context] {
	return core.Implementations[Context]{
		Actions:  b.actions(),
		Guards:   b.guards(),
		Validate: Context.Validate,
	}
}

func (b behavior) guards() map[string]guard {
	return map[string]guard{
		"isInteractive": func(c Context, _ primitives.Event) bool { return c.IsInteractive() },
		"canPasteAdd": func(c Context, _ primitives.Event) bool {
			return c.IsInteractive() && c.AddOnPaste
		},
		"addOnPaste": func(c Context, _ primitives.Event) bool { return c.AddOnPaste },
		"addOnBlur":  func(c Context, _ primitives.Event) bool { return c.AddOnBlur },
		"matchesDelimiter": func(c Context, evt primitives.Event) bool {
			d, ok := evt.(Delimiter)
			return ok && d.Key == c.delimiter()
		},
		"canAdd": func(c Context, evt primitives.Event) bool { return b.canAdd(c, eventValue(evt)) },
		"canNavigateBack": func(c Context, _ primitives.Event) bool {
			return c.InputValue == "" && c.Count() > 0
		},
		"isLastTagFocused": func(c Context, _ primitives.Event) bool {
			i, ok := c.TagIndex(c.FocusedID)
			return ok && i == c.Count()-1
		},
		"isOnlyTag": func(c Context, _ primitives.Event) bool { return c.Count() == 1 },
		"canEdit": func(c Context, _ primitives.Event) bool {
			_, ok := c.TagIndex(c.FocusedID)
			return ok && c.IsInteractive() && c.AllowEditTag
		},
		"canEditTag": func(c Context, evt primitives.Event) bool {
			_, ok := c.TagIndex(eventID(evt))
			return ok && c.IsInteractive() && c.AllowEditTag
		},
		"isEditedEmpty": func(c Context, _ primitives.Event) bool {
			return b.normalize(c.EditedValue) == ""
		},
		"removesOnlyTag": func(c Context, _ primitives.Event) bool {
			return b.normalize(c.EditedValue) == "" && c.Count() == 1
		},
		"canCommitEdit": func(c Context, _ primitives.Event) bool { return b.canCommitEdit(c) },
	}
}

func (b behavior) actions() map[string]action {
	return map[string]action{
		"setInputValue": reduce(func(c Context, evt primitives.Event) Context {
			c.InputValue = eventValue(evt)
			c.Invalid = false
			return c
		}),
		"clearInputValue": reduce(func(c Context, _ primitives.Event) Context {
			c.InputValue = ""
			return c
		}),
		// raiseAdd commits the buffer through ADD, so typed, pasted and
		// blurred values share one validation path.
		"raiseAdd": func(c Context, _ primitives.Event, fx core.Effects) (Context, error) {
			if b.normalize(c.InputValue) != "" {
				fx.Send(Add{Value: c.InputValue})
			}
			return c, nil
		},
		"addTag": reduce(func(c Context, evt primitives.Event) Context {
			c.Value = append(slices.Clone(c.Value), b.normalize(eventValue(evt)))
			c.Invalid = false
			return c
		}),
		"markInvalid": reduce(func(c Context, _ primitives.Event) Context {
			c.Invalid = true
			return c
		}),
		"deleteTag": reduce(func(c Context, evt primitives.Event) Context {
			if i, ok := c.TagIndex(eventID(evt)); ok {
				return c.removeAt(i)
			}
			return c
		}),
		"deleteFocusedTag": reduce(func(c Context, _ primitives.Event) Context {
			if i, ok := c.TagIndex(c.FocusedID); ok {
				return c.removeAt(i)
			}
			return c
		}),
		"clearTags": reduce(func(c Context, _ primitives.Event) Context {
			c.Value = []string{}
			c.FocusedID = ""
			return c
		}),
		"focusTag": reduce(func(c Context, evt primitives.Event) Context {
			if i, ok := c.TagIndex(eventID(evt)); ok {
				c.FocusedID = c.TagID(i)
			}
			return c
		}),
		"focusLastTag": reduce(func(c Context, _ primitives.Event) Context {
			if c.Count() > 0 {
				c.FocusedID = c.TagID(c.Count() - 1)
			}
			return c
		}),
		"focusPrevTag": reduce(func(c Context, _ primitives.Event) Context {
			if i, ok := c.TagIndex(c.FocusedID); ok {
				c.FocusedID = c.TagID(max(i-1, 0))
			}
			return c
		}),
		"focusNextTag": reduce(func(c Context, _ primitives.Event) Context {
			if i, ok := c.TagIndex(c.FocusedID); ok {
				c.FocusedID = c.TagID(min(i+1, c.Count()-1))
			}
			return c
		}),
		"clearFocusedTag": reduce(func(c Context, _ primitives.Event) Context {
			c.FocusedID = ""
			return c
		}),
		"editTag": reduce(func(c Context, evt primitives.Event) Context {
			if i, ok := c.TagIndex(eventID(evt)); ok {
				c = c.startEdit(i)
			}
			return c
		}),
		"editFocusedTag": reduce(func(c Context, _ primitives.Event) Context {
			if i, ok := c.TagIndex(c.FocusedID); ok {
				c = c.startEdit(i)
			}
			return c
		}),
		"setEditedValue": reduce(func(c Context, evt primitives.Event) Context {
			c.EditedValue = eventValue(evt)
			c.Invalid = false
			return c
		}),
		"commitEdit": reduce(func(c Context, _ primitives.Event) Context {
			if i, ok := c.TagIndex(c.EditedID); ok {
				c.Value = slices.Clone(c.Value)
				c.Value[i] = b.normalize(c.EditedValue)
				c.FocusedID = c.EditedID
				c.Invalid = false
			}
			return c
		}),
		"deleteEditedTag": reduce(func(c Context, _ primitives.Event) Context {
			if i, ok := c.TagIndex(c.EditedID); ok {
				c.FocusedID = c.EditedID
				c = c.removeAt(i)
			}
			return c
		}),
		"clearEditedTag": reduce(func(c Context, _ primitives.Event) Context {
			c.EditedID = ""
			c.EditedValue = ""
			return c
		}),
	}
}

func (c Context) startEdit(i int) Context {
	c.EditedID = c.TagID(i)
	c.EditedValue = c.Value[i]
	c.FocusedID = c.EditedID
	c.Invalid = false
	return c
}

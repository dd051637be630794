// Package tagsinput implements the tags-input widget: a text input that turns
// committed entries into an ordered list of removable, editable tags.
package tagsinput

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/oklog/ulid/v2"
)

// Context is the tags-input machine context. It doubles as the widget's
// configuration: construct one, then pass it to New.
type Context struct {
	UID  string `json:"uid" yaml:"uid"`
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	Value       []string `json:"value" yaml:"value"`
	InputValue  string   `json:"inputValue" yaml:"inputValue"`
	EditedValue string   `json:"editedValue,omitempty" yaml:"editedValue,omitempty"`
	FocusedID   string   `json:"focusedId,omitempty" yaml:"focusedId,omitempty"`
	EditedID    string   `json:"editedId,omitempty" yaml:"editedId,omitempty"`

	Disabled bool `json:"disabled,omitempty" yaml:"disabled,omitempty"`
	ReadOnly bool `json:"readOnly,omitempty" yaml:"readOnly,omitempty"`
	// Max caps the number of tags. Zero means unlimited.
	Max          int  `json:"max,omitempty" yaml:"max,omitempty"`
	AllowEditTag bool `json:"allowEditTag,omitempty" yaml:"allowEditTag,omitempty"`
	AddOnPaste   bool `json:"addOnPaste,omitempty" yaml:"addOnPaste,omitempty"`
	AddOnBlur    bool `json:"addOnBlur,omitempty" yaml:"addOnBlur,omitempty"`
	// Delimiter is the key that commits the input, "," unless set.
	Delimiter string `json:"delimiter,omitempty" yaml:"delimiter,omitempty"`
	Invalid   bool   `json:"invalid,omitempty" yaml:"invalid,omitempty"`
}

const defaultDelimiter = ","

// Count returns the number of tags.
func (c Context) Count() int { return len(c.Value) }

// ValueAsString joins the tags with the delimiter, for form submission.
func (c Context) ValueAsString() string {
	return strings.Join(c.Value, c.delimiter())
}

// IsInteractive reports whether pointer and focus input is accepted.
func (c Context) IsInteractive() bool { return !c.Disabled && !c.ReadOnly }

// IsAtMax reports whether no more tags can be added.
func (c Context) IsAtMax() bool { return c.Max > 0 && c.Count() >= c.Max }

// OutOfRange reports whether the list holds more tags than Max allows.
func (c Context) OutOfRange() bool { return c.Max > 0 && c.Count() > c.Max }

func (c Context) delimiter() string {
	if c.Delimiter == "" {
		return defaultDelimiter
	}
	return c.Delimiter
}

// Validate checks the configuration fields.
func (c Context) Validate() error {
	var errs []error
	if c.Max < 0 {
		errs = append(errs, fmt.Errorf("max must be >= 0, got %d", c.Max))
	}
	if c.Max > 0 && len(c.Value) > c.Max {
		errs = append(errs, fmt.Errorf("%d tags exceed max %d", len(c.Value), c.Max))
	}
	if utf8.RuneCountInString(c.Delimiter) > 1 {
		errs = append(errs, fmt.Errorf("delimiter %q must be a single character", c.Delimiter))
	}
	return errors.Join(errs...)
}

func (c Context) withDefaults() Context {
	if c.UID == "" {
		c.UID = strings.ToLower(ulid.Make().String())
	}
	if c.Delimiter == "" {
		c.Delimiter = defaultDelimiter
	}
	if c.Value == nil {
		c.Value = []string{}
	}
	return c
}

// RootID is the DOM id of the root part.
func (c Context) RootID() string { return "tags-input:" + c.UID }

// InputID is the DOM id of the text input.
func (c Context) InputID() string { return c.RootID() + ":input" }

// HiddenInputID is the DOM id of the hidden form input.
func (c Context) HiddenInputID() string { return c.RootID() + ":hidden-input" }

// ClearButtonID is the DOM id of the clear-all button.
func (c Context) ClearButtonID() string { return c.RootID() + ":clear-btn" }

// TagID is the id of the tag at index i.
func (c Context) TagID(i int) string { return c.RootID() + ":tag:" + strconv.Itoa(i) }

// TagInputID is the DOM id of the edit input of the tag at index i.
func (c Context) TagInputID(i int) string { return c.RootID() + ":tag-input:" + strconv.Itoa(i) }

// TagDeleteButtonID is the DOM id of the delete button of the tag at index i.
func (c Context) TagDeleteButtonID(i int) string {
	return c.RootID() + ":tag-del-btn:" + strconv.Itoa(i)
}

// TagIndex resolves a tag id to its index in Value.
func (c Context) TagIndex(id string) (int, bool) {
	rest, ok := strings.CutPrefix(id, c.RootID()+":tag:")
	if !ok {
		return 0, false
	}
	i, err := strconv.Atoi(rest)
	if err != nil || i < 0 || i >= len(c.Value) {
		return 0, false
	}
	return i, true
}

// removeAt drops the tag at i and moves the focus: the tag that shifted into
// i, else the new last tag, else nothing.
func (c Context) removeAt(i int) Context {
	focused, hadFocus := c.TagIndex(c.FocusedID)
	c.Value = slices.Delete(slices.Clone(c.Value), i, i+1)
	switch {
	case !hadFocus:
	case focused > i:
		c.FocusedID = c.TagID(focused - 1)
	case focused == i && i < len(c.Value):
		c.FocusedID = c.TagID(i)
	case focused == i && len(c.Value) > 0:
		c.FocusedID = c.TagID(len(c.Value) - 1)
	case focused == i:
		c.FocusedID = ""
	}
	return c
}

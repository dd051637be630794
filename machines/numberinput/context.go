// Package numberinput implements the number-input widget: a text field with
// stepping by keyboard, mouse wheel and press-and-hold spin buttons.
package numberinput

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/oklog/ulid/v2"
)

// Spin directions.
const (
	HintIncrement = "increment"
	HintDecrement = "decrement"
)

// maxSafeInteger bounds Min and Max when neither is configured.
const maxSafeInteger = 1<<53 - 1

// Context is the number-input machine context and configuration.
type Context struct {
	UID  string `json:"uid" yaml:"uid"`
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	// Value is the raw text of the field. Empty means no value.
	Value string `json:"value" yaml:"value"`

	Min  float64 `json:"min" yaml:"min"`
	Max  float64 `json:"max" yaml:"max"`
	Step float64 `json:"step" yaml:"step"`
	// Precision is the minimum number of decimals shown.
	Precision int `json:"precision,omitempty" yaml:"precision,omitempty"`

	ClampValueOnBlur bool `json:"clampValueOnBlur,omitempty" yaml:"clampValueOnBlur,omitempty"`
	AllowMouseWheel  bool `json:"allowMouseWheel,omitempty" yaml:"allowMouseWheel,omitempty"`
	AllowOutOfRange  bool `json:"allowOutOfRange,omitempty" yaml:"allowOutOfRange,omitempty"`
	Disabled         bool `json:"disabled,omitempty" yaml:"disabled,omitempty"`
	ReadOnly         bool `json:"readOnly,omitempty" yaml:"readOnly,omitempty"`

	// Hint is the direction of the pending spin.
	Hint string `json:"hint,omitempty" yaml:"hint,omitempty"`
}

// ValueAsNumber parses Value. ok is false for an empty or malformed value.
func (c Context) ValueAsNumber() (v float64, ok bool) {
	if c.Value == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(c.Value, 64)
	if err != nil || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

// IsOutOfRange reports whether a parsed value lies outside [Min, Max].
func (c Context) IsOutOfRange() bool {
	v, ok := c.ValueAsNumber()
	return ok && (v < c.Min || v > c.Max)
}

// CanIncrement reports whether stepping up changes the value.
func (c Context) CanIncrement() bool {
	v, ok := c.ValueAsNumber()
	return c.AllowOutOfRange || !ok || v < c.Max
}

// CanDecrement reports whether stepping down changes the value.
func (c Context) CanDecrement() bool {
	v, ok := c.ValueAsNumber()
	return c.AllowOutOfRange || !ok || v > c.Min
}

// IsInteractive reports whether pointer and focus input is accepted.
func (c Context) IsInteractive() bool { return !c.Disabled && !c.ReadOnly }

// Validate checks the configuration fields.
func (c Context) Validate() error {
	var errs []error
	if c.Min > c.Max {
		errs = append(errs, fmt.Errorf("min %v is greater than max %v", c.Min, c.Max))
	}
	if c.Step <= 0 {
		errs = append(errs, fmt.Errorf("step must be positive, got %v", c.Step))
	}
	if c.Precision < 0 {
		errs = append(errs, fmt.Errorf("precision must be >= 0, got %d", c.Precision))
	}
	if c.Value != "" {
		if _, ok := c.ValueAsNumber(); !ok {
			errs = append(errs, fmt.Errorf("value %q is not a number", c.Value))
		}
	}
	return errors.Join(errs...)
}

// withDefaults fills the zero values: a step of 1 and, when both bounds are
// zero, the safe integer range.
func (c Context) withDefaults() Context {
	if c.UID == "" {
		c.UID = strings.ToLower(ulid.Make().String())
	}
	if c.Step == 0 {
		c.Step = 1
	}
	if c.Min == 0 && c.Max == 0 {
		c.Min, c.Max = -maxSafeInteger, maxSafeInteger
	}
	return c
}

func (c Context) decimals() int {
	s := strconv.FormatFloat(c.Step, 'f', -1, 64)
	if i := strings.IndexByte(s, '.'); i >= 0 {
		return max(c.Precision, len(s)-i-1)
	}
	return c.Precision
}

func (c Context) format(v float64) string {
	p := math.Pow10(c.decimals())
	v = math.Round(v*p) / p
	if c.Precision > 0 {
		return strconv.FormatFloat(v, 'f', c.Precision, 64)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func (c Context) clamp(v float64) float64 {
	return min(max(v, c.Min), c.Max)
}

// stepBy moves the value by n steps, starting from zero (clamped) when there
// is no value.
func (c Context) stepBy(n float64) Context {
	v, ok := c.ValueAsNumber()
	if !ok {
		v = c.clamp(0)
	}
	v += n * c.Step
	if !c.AllowOutOfRange {
		v = c.clamp(v)
	}
	c.Value = c.format(v)
	return c
}

// sanitize keeps the characters a number literal can contain.
func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune("0123456789.+-eE", r) {
			return r
		}
		return -1
	}, s)
}

// RootID is the DOM id of the root part.
func (c Context) RootID() string { return "number-input:" + c.UID }

// InputID is the DOM id of the text field.
func (c Context) InputID() string { return c.RootID() + ":input" }

// IncrementButtonID is the DOM id of the increment button.
func (c Context) IncrementButtonID() string { return c.RootID() + ":inc-btn" }

// DecrementButtonID is the DOM id of the decrement button.
func (c Context) DecrementButtonID() string { return c.RootID() + ":dec-btn" }

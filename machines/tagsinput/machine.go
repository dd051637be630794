package tagsinput

import (
	"slices"
	"strings"

	"github.com/comalice/uimachines/internal/core"
	"github.com/comalice/uimachines/internal/primitives"
)

// State paths.
const (
	StateIdle       = "idle"
	StateFocused    = "focused:input"
	StateNavigating = "navigating:tag"
	StateEditing    = "editing:tag"
	StatePrior      = "prior"
)

// Machine is a tags-input machine instance.
type Machine = core.Machine[Context]

// Snapshot is a published tags-input snapshot.
type Snapshot = core.Snapshot[Context]

// Validator decides whether value may join tags. value is already normalized;
// when a tag is being edited, tags excludes it.
type Validator func(value string, tags []string) bool

// DefaultValidator accepts non-empty values that are not already tags.
func DefaultValidator(value string, tags []string) bool {
	return value != "" && !slices.Contains(tags, value)
}

type options struct {
	validator  Validator
	normalizer func(string) string
	machine    []core.Option
}

// Option configures New.
type Option func(*options)

// WithValidator replaces DefaultValidator. The Max limit is checked separately.
func WithValidator(v Validator) Option {
	return func(o *options) { o.validator = v }
}

// WithNormalizer transforms values before validation and storage. The default
// trims surrounding whitespace.
func WithNormalizer(fn func(string) string) Option {
	return func(o *options) { o.normalizer = fn }
}

// WithMachineOptions passes options through to the interpreter.
func WithMachineOptions(opts ...core.Option) Option {
	return func(o *options) { o.machine = append(o.machine, opts...) }
}

// Config returns the tags-input state graph.
func Config() primitives.MachineConfig {
	t := func(target, guard string, actions ...string) primitives.TransitionConfig {
		return primitives.TransitionConfig{Target: target, Guard: guard, Actions: actions}
	}

	b := primitives.NewMachineBuilder("tags-input", StateIdle)
	b.On(EventAdd, t("", "canAdd", "addTag", "clearInputValue"), t("", "", "markInvalid")).
		On(EventAddTag, t("", "canAdd", "addTag"), t("", "", "markInvalid")).
		On(EventDeleteTag, t("", "", "deleteTag")).
		On(EventClearAll, t("", "", "clearTags")).
		On(EventDoubleClickTag, t(StateEditing, "canEditTag", "editTag")).
		On(EventPointerDownTag, t(StateNavigating, "isInteractive", "focusTag"))

	b.State(StateIdle).
		WithEntry("clearFocusedTag").
		AddTransition(EventFocus, t(StateFocused, "isInteractive")).
		AddTransition(EventPointerDown, t(StateFocused, "isInteractive")).
		AddTransition(EventText, t(StateFocused, "isInteractive", "setInputValue")).
		AddTransition(EventPaste,
			t(StateFocused, "canPasteAdd", "setInputValue", "raiseAdd"),
			t(StateFocused, "isInteractive", "setInputValue"))

	b.State(StateFocused).
		WithEntry("clearFocusedTag").
		AddTransition(EventText, t("", "", "setInputValue")).
		AddTransition(EventPaste,
			t("", "addOnPaste", "setInputValue", "raiseAdd"),
			t("", "", "setInputValue")).
		AddTransition(EventEnter, t("", "", "raiseAdd")).
		AddTransition(EventDelimiter, t("", "matchesDelimiter", "raiseAdd")).
		AddTransition(EventBackspace, t(StateNavigating, "canNavigateBack", "focusLastTag")).
		AddTransition(EventArrowLeft, t(StateNavigating, "canNavigateBack", "focusLastTag")).
		AddTransition(EventBlur,
			t(StateIdle, "addOnBlur", "raiseAdd"),
			t(StateIdle, ""))

	b.State(StateNavigating).
		AddTransition(EventArrowLeft, t("", "", "focusPrevTag")).
		AddTransition(EventArrowRight,
			t(StateFocused, "isLastTagFocused"),
			t("", "", "focusNextTag")).
		AddTransition(EventDelete,
			t(StateFocused, "isOnlyTag", "deleteFocusedTag"),
			t("", "", "deleteFocusedTag")).
		AddTransition(EventBackspace,
			t(StateFocused, "isOnlyTag", "deleteFocusedTag"),
			t("", "", "deleteFocusedTag")).
		AddTransition(EventDeleteTag, t(StateFocused, "isOnlyTag", "deleteTag")).
		AddTransition(EventEscape, t(StateFocused, "")).
		AddTransition(EventArrowDown, t(StateFocused, "")).
		AddTransition(EventBlur, t(StateIdle, "")).
		AddTransition(EventEnter, t(StateEditing, "canEdit", "editFocusedTag")).
		AddTransition(EventText, t(StateFocused, "", "setInputValue")).
		AddTransition(EventHoverDeleteTag, t("", "isInteractive", "focusTag")).
		AddTransition(EventClearAll, t(StateFocused, "", "clearTags"))

	b.State(StateEditing).
		AddTransition(EventTagInputType, t("", "", "setEditedValue")).
		AddTransition(EventTagInputEnter,
			t(StateFocused, "removesOnlyTag", "deleteEditedTag", "clearEditedTag"),
			t(StateNavigating, "isEditedEmpty", "deleteEditedTag", "clearEditedTag"),
			t(StateNavigating, "canCommitEdit", "commitEdit", "clearEditedTag"),
			t("", "", "markInvalid")).
		AddTransition(EventTagInputBlur,
			t(StateIdle, "isEditedEmpty", "deleteEditedTag", "clearEditedTag"),
			t(StateIdle, "canCommitEdit", "commitEdit", "clearEditedTag"),
			t(StateIdle, "", "markInvalid", "clearEditedTag")).
		AddTransition(EventTagInputEscape, t(StatePrior, "", "clearEditedTag")).
		AddTransition(EventDoubleClickTag, t("", "")).
		AddTransition(EventPointerDownTag, t(StateNavigating, "isInteractive", "clearEditedTag", "focusTag")).
		AddTransition(EventDeleteTag, t(StateFocused, "", "clearEditedTag", "deleteTag")).
		AddTransition(EventClearAll, t(StateFocused, "", "clearEditedTag", "clearTags"))

	b.History(StatePrior, false, StateFocused)
	return b.MustBuild()
}

// New validates ctx and builds a tags-input machine. Call Start on the result.
func New(ctx Context, opts ...Option) (*Machine, error) {
	o := options{validator: DefaultValidator, normalizer: strings.TrimSpace}
	for _, opt := range opts {
		opt(&o)
	}
	impl := behavior{validator: o.validator, normalize: o.normalizer}.implementations()
	return core.NewMachine(Config(), impl, ctx.withDefaults(), o.machine...)
}

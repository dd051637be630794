package tagsinput_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comalice/uimachines/internal/core"
	"github.com/comalice/uimachines/internal/primitives"
	"github.com/comalice/uimachines/internal/production"
	"github.com/comalice/uimachines/machines/tagsinput"
	"github.com/comalice/uimachines/testutil"
)

func sig(t primitives.EventType) primitives.Signal { return primitives.Signal(t) }

func newMachine(t *testing.T, ctx tagsinput.Context, opts ...tagsinput.Option) *tagsinput.Machine {
	t.Helper()
	opts = append([]tagsinput.Option{
		tagsinput.WithMachineOptions(core.WithLogger(log.New(io.Discard))),
	}, opts...)
	m, err := tagsinput.New(ctx, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Stop() })
	return m
}

func start(t *testing.T, ctx tagsinput.Context, opts ...tagsinput.Option) *tagsinput.Machine {
	t.Helper()
	m := newMachine(t, ctx, opts...)
	require.NoError(t, m.Start())
	return m
}

func frameworks() tagsinput.Context {
	return tagsinput.Context{UID: "t", Value: []string{"React", "Vue"}}
}

func TestNew_RejectsInvalidContext(t *testing.T) {
	tests := []struct {
		name string
		ctx  tagsinput.Context
	}{
		{"negative max", tagsinput.Context{Max: -1}},
		{"too many tags", tagsinput.Context{Max: 1, Value: []string{"a", "b"}}},
		{"long delimiter", tagsinput.Context{Delimiter: ";;"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tagsinput.New(tt.ctx)
			var cerr *core.ContextError
			require.ErrorAs(t, err, &cerr)
		})
	}
}

func TestNew_Defaults(t *testing.T) {
	m := start(t, tagsinput.Context{})
	snap := m.Snapshot()
	assert.Equal(t, []string{tagsinput.StateIdle}, snap.Value)
	assert.Equal(t, ",", snap.Context.Delimiter)
	assert.NotEmpty(t, snap.Context.UID)
	assert.Equal(t, []string{}, snap.Context.Value)
}

func TestTypeThenEnterCommits(t *testing.T) {
	m := start(t, frameworks())
	testutil.SendAll(t, m, sig(tagsinput.EventFocus), tagsinput.Type{Value: "Go"}, sig(tagsinput.EventEnter))

	snap := m.Snapshot()
	assert.Equal(t, []string{"React", "Vue", "Go"}, snap.Context.Value)
	assert.Empty(t, snap.Context.InputValue)
	assert.True(t, snap.Matches(tagsinput.StateFocused))
}

func TestTypingInIdleFocusesFirst(t *testing.T) {
	m := start(t, frameworks())
	testutil.SendAll(t, m, tagsinput.Type{Value: "Sv"})
	testutil.RequireState(t, m, tagsinput.StateFocused)
	assert.Equal(t, "Sv", m.Snapshot().Context.InputValue)
}

func TestBackspaceTwice(t *testing.T) {
	m := start(t, frameworks())
	testutil.SendAll(t, m, sig(tagsinput.EventFocus), sig(tagsinput.EventBackspace))

	snap := m.Snapshot()
	testutil.RequireState(t, m, tagsinput.StateNavigating)
	assert.Equal(t, snap.Context.TagID(1), snap.Context.FocusedID)

	testutil.SendAll(t, m, sig(tagsinput.EventBackspace))
	snap = m.Snapshot()
	assert.Equal(t, []string{"React"}, snap.Context.Value)
	assert.Equal(t, snap.Context.TagID(0), snap.Context.FocusedID)
	testutil.RequireState(t, m, tagsinput.StateNavigating)

	testutil.SendAll(t, m, sig(tagsinput.EventBackspace))
	snap = m.Snapshot()
	assert.Empty(t, snap.Context.Value)
	assert.Empty(t, snap.Context.FocusedID)
	testutil.RequireState(t, m, tagsinput.StateFocused)
}

func TestBackspaceWithBufferStaysInInput(t *testing.T) {
	m := start(t, frameworks())
	testutil.SendAll(t, m, sig(tagsinput.EventFocus), tagsinput.Type{Value: "x"}, sig(tagsinput.EventBackspace))
	testutil.RequireState(t, m, tagsinput.StateFocused)
	assert.Empty(t, m.Snapshot().Context.FocusedID)
}

func TestAddThenDeleteRoundTrip(t *testing.T) {
	m := start(t, frameworks())
	before := m.Snapshot().Context.Value

	testutil.SendAll(t, m, tagsinput.AddTag{Value: "x"})
	snap := m.Snapshot()
	require.Equal(t, []string{"React", "Vue", "x"}, snap.Context.Value)

	testutil.SendAll(t, m, tagsinput.DeleteTag{ID: snap.Context.TagID(2)})
	assert.Equal(t, before, m.Snapshot().Context.Value)
}

func TestDuplicateIsRejected(t *testing.T) {
	m := start(t, frameworks())
	testutil.SendAll(t, m, sig(tagsinput.EventFocus), tagsinput.Type{Value: "Vue"}, sig(tagsinput.EventEnter))

	c := m.Snapshot().Context
	assert.Equal(t, []string{"React", "Vue"}, c.Value)
	assert.True(t, c.Invalid)
	assert.Equal(t, "Vue", c.InputValue)

	testutil.SendAll(t, m, tagsinput.Type{Value: "Vue3"})
	assert.False(t, m.Snapshot().Context.Invalid)
}

func TestEnterWithEmptyBufferIsNoop(t *testing.T) {
	m := start(t, frameworks())
	testutil.SendAll(t, m, sig(tagsinput.EventFocus))
	before := m.Snapshot()
	testutil.SendAll(t, m, tagsinput.Type{Value: "  "}, tagsinput.Type{Value: ""}, sig(tagsinput.EventEnter))
	assert.Equal(t, before.Context.Value, m.Snapshot().Context.Value)
	assert.False(t, m.Snapshot().Context.Invalid)
}

func TestMaxBlocksAdds(t *testing.T) {
	ctx := frameworks()
	ctx.Max = 2
	m := start(t, ctx)
	assert.True(t, m.Snapshot().Context.IsAtMax())

	testutil.SendAll(t, m, tagsinput.AddTag{Value: "Go"})
	assert.Equal(t, []string{"React", "Vue"}, m.Snapshot().Context.Value)
	assert.True(t, m.Snapshot().Context.Invalid)
}

func TestDelimiter(t *testing.T) {
	ctx := frameworks()
	ctx.Delimiter = ";"
	m := start(t, ctx)
	testutil.SendAll(t, m, sig(tagsinput.EventFocus), tagsinput.Type{Value: "Go"}, tagsinput.Delimiter{Key: ","})
	assert.Equal(t, []string{"React", "Vue"}, m.Snapshot().Context.Value)

	testutil.SendAll(t, m, tagsinput.Delimiter{Key: ";"})
	assert.Equal(t, []string{"React", "Vue", "Go"}, m.Snapshot().Context.Value)
	assert.Equal(t, "React;Vue;Go", m.Snapshot().Context.ValueAsString())
}

func TestNavigationClampsAndExits(t *testing.T) {
	m := start(t, tagsinput.Context{UID: "t", Value: []string{"a", "b", "c"}})
	testutil.SendAll(t, m, sig(tagsinput.EventFocus), sig(tagsinput.EventArrowLeft))
	c := m.Snapshot().Context
	assert.Equal(t, c.TagID(2), c.FocusedID)

	testutil.SendAll(t, m, sig(tagsinput.EventArrowLeft), sig(tagsinput.EventArrowLeft), sig(tagsinput.EventArrowLeft))
	assert.Equal(t, c.TagID(0), m.Snapshot().Context.FocusedID)

	testutil.SendAll(t, m, sig(tagsinput.EventArrowRight))
	assert.Equal(t, c.TagID(1), m.Snapshot().Context.FocusedID)

	testutil.SendAll(t, m, sig(tagsinput.EventArrowRight), sig(tagsinput.EventArrowRight))
	testutil.RequireState(t, m, tagsinput.StateFocused)
	assert.Empty(t, m.Snapshot().Context.FocusedID)
}

func TestNavigationLeaves(t *testing.T) {
	tests := []struct {
		name  string
		evt   primitives.EventType
		state string
	}{
		{"escape", tagsinput.EventEscape, tagsinput.StateFocused},
		{"arrow down", tagsinput.EventArrowDown, tagsinput.StateFocused},
		{"blur", tagsinput.EventBlur, tagsinput.StateIdle},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := start(t, frameworks())
			testutil.SendAll(t, m, sig(tagsinput.EventFocus), sig(tagsinput.EventBackspace), sig(tt.evt))
			testutil.RequireState(t, m, tt.state)
			assert.Empty(t, m.Snapshot().Context.FocusedID)
			assert.Equal(t, []string{"React", "Vue"}, m.Snapshot().Context.Value)
		})
	}
}

func TestDeleteRefocusesSameIndex(t *testing.T) {
	m := start(t, tagsinput.Context{UID: "t", Value: []string{"a", "b", "c"}})
	c := m.Snapshot().Context
	testutil.SendAll(t, m, sig(tagsinput.EventFocus), tagsinput.PointerDownTag{ID: c.TagID(1)}, sig(tagsinput.EventDelete))

	snap := m.Snapshot()
	assert.Equal(t, []string{"a", "c"}, snap.Context.Value)
	assert.Equal(t, c.TagID(1), snap.Context.FocusedID)
	testutil.RequireState(t, m, tagsinput.StateNavigating)
}

func TestDeleteTagShiftsFocus(t *testing.T) {
	m := start(t, tagsinput.Context{UID: "t", Value: []string{"a", "b", "c"}})
	c := m.Snapshot().Context
	testutil.SendAll(t, m, tagsinput.PointerDownTag{ID: c.TagID(2)}, tagsinput.DeleteTag{ID: c.TagID(0)})

	snap := m.Snapshot()
	assert.Equal(t, []string{"b", "c"}, snap.Context.Value)
	assert.Equal(t, c.TagID(1), snap.Context.FocusedID)
}

func TestEditCommit(t *testing.T) {
	ctx := frameworks()
	ctx.AllowEditTag = true
	m := start(t, ctx)
	c := m.Snapshot().Context

	testutil.SendAll(t, m, tagsinput.DoubleClickTag{ID: c.TagID(0)})
	testutil.RequireState(t, m, tagsinput.StateEditing)
	assert.Equal(t, "React", m.Snapshot().Context.EditedValue)

	testutil.SendAll(t, m, tagsinput.TagInputType{Value: " Preact "}, sig(tagsinput.EventTagInputEnter))
	snap := m.Snapshot()
	assert.Equal(t, []string{"Preact", "Vue"}, snap.Context.Value)
	assert.Equal(t, c.TagID(0), snap.Context.FocusedID)
	assert.Empty(t, snap.Context.EditedID)
	testutil.RequireState(t, m, tagsinput.StateNavigating)
}

func TestEditInvalidStays(t *testing.T) {
	ctx := frameworks()
	ctx.AllowEditTag = true
	m := start(t, ctx)
	c := m.Snapshot().Context

	testutil.SendAll(t, m, tagsinput.DoubleClickTag{ID: c.TagID(0)}, tagsinput.TagInputType{Value: "Vue"}, sig(tagsinput.EventTagInputEnter))
	testutil.RequireState(t, m, tagsinput.StateEditing)
	assert.True(t, m.Snapshot().Context.Invalid)
	assert.Equal(t, []string{"React", "Vue"}, m.Snapshot().Context.Value)
}

func TestEditEmptyDeletes(t *testing.T) {
	ctx := frameworks()
	ctx.AllowEditTag = true
	m := start(t, ctx)
	c := m.Snapshot().Context

	testutil.SendAll(t, m, tagsinput.DoubleClickTag{ID: c.TagID(0)}, tagsinput.TagInputType{Value: ""}, sig(tagsinput.EventTagInputEnter))
	snap := m.Snapshot()
	assert.Equal(t, []string{"Vue"}, snap.Context.Value)
	assert.Equal(t, c.TagID(0), snap.Context.FocusedID)
	testutil.RequireState(t, m, tagsinput.StateNavigating)

	testutil.SendAll(t, m, sig(tagsinput.EventEnter), tagsinput.TagInputType{Value: ""}, sig(tagsinput.EventTagInputEnter))
	testutil.RequireState(t, m, tagsinput.StateFocused)
	assert.Empty(t, m.Snapshot().Context.Value)
}

func TestEditEscapeReturnsToPriorState(t *testing.T) {
	ctx := frameworks()
	ctx.AllowEditTag = true
	m := start(t, ctx)

	testutil.SendAll(t, m, sig(tagsinput.EventFocus), sig(tagsinput.EventArrowLeft), sig(tagsinput.EventEnter))
	testutil.RequireState(t, m, tagsinput.StateEditing)

	testutil.SendAll(t, m, tagsinput.TagInputType{Value: "Svelte"}, sig(tagsinput.EventTagInputEscape))
	snap := m.Snapshot()
	testutil.RequireState(t, m, tagsinput.StateNavigating)
	assert.Equal(t, []string{"React", "Vue"}, snap.Context.Value)
	assert.Equal(t, snap.Context.TagID(1), snap.Context.FocusedID)
	assert.Empty(t, snap.Context.EditedValue)

	testutil.SendAll(t, m, tagsinput.DoubleClickTag{ID: snap.Context.TagID(0)}, sig(tagsinput.EventTagInputEscape))
	testutil.RequireState(t, m, tagsinput.StateNavigating)
}

func TestPointerDownTagAbandonsEdit(t *testing.T) {
	ctx := frameworks()
	ctx.AllowEditTag = true
	m := start(t, ctx)
	c := m.Snapshot().Context

	testutil.SendAll(t, m, tagsinput.DoubleClickTag{ID: c.TagID(0)}, tagsinput.TagInputType{Value: "Preact"},
		tagsinput.PointerDownTag{ID: c.TagID(1)})
	snap := m.Snapshot()
	testutil.RequireState(t, m, tagsinput.StateNavigating)
	assert.Equal(t, []string{"React", "Vue"}, snap.Context.Value)
	assert.Equal(t, c.TagID(1), snap.Context.FocusedID)
	assert.Empty(t, snap.Context.EditedID)
	assert.Empty(t, snap.Context.EditedValue)
}

func TestEditEscapeFromIdle(t *testing.T) {
	ctx := frameworks()
	ctx.AllowEditTag = true
	m := start(t, ctx)
	testutil.SendAll(t, m, tagsinput.DoubleClickTag{ID: ctx.TagID(1)}, sig(tagsinput.EventTagInputEscape))
	testutil.RequireState(t, m, tagsinput.StateIdle)
	assert.Empty(t, m.Snapshot().Context.FocusedID)
}

func TestEditBlurCommits(t *testing.T) {
	ctx := frameworks()
	ctx.AllowEditTag = true
	m := start(t, ctx)
	testutil.SendAll(t, m, tagsinput.DoubleClickTag{ID: ctx.TagID(1)}, tagsinput.TagInputType{Value: "Vue 3"}, sig(tagsinput.EventTagInputBlur))
	testutil.RequireState(t, m, tagsinput.StateIdle)
	assert.Equal(t, []string{"React", "Vue 3"}, m.Snapshot().Context.Value)
}

func TestEditRequiresAllowEditTag(t *testing.T) {
	m := start(t, frameworks())
	before := m.Snapshot()
	testutil.SendAll(t, m, tagsinput.DoubleClickTag{ID: before.Context.TagID(0)})
	assert.Same(t, before, m.Snapshot())
}

func TestClearAll(t *testing.T) {
	for _, setup := range [][]primitives.Event{
		nil,
		{sig(tagsinput.EventFocus)},
		{sig(tagsinput.EventFocus), sig(tagsinput.EventBackspace)},
	} {
		m := start(t, frameworks())
		testutil.SendAll(t, m, setup...)
		testutil.SendAll(t, m, sig(tagsinput.EventClearAll))
		assert.Empty(t, m.Snapshot().Context.Value)
		assert.Empty(t, m.Snapshot().Context.FocusedID)
		assert.False(t, m.Snapshot().Matches(tagsinput.StateNavigating))
	}
}

func TestDisabledGatesInteractionNotAPI(t *testing.T) {
	ctx := frameworks()
	ctx.Disabled = true
	m := start(t, ctx)
	before := m.Snapshot()

	testutil.SendAll(t, m,
		sig(tagsinput.EventFocus),
		sig(tagsinput.EventPointerDown),
		tagsinput.PointerDownTag{ID: ctx.TagID(0)},
		tagsinput.Type{Value: "x"},
	)
	assert.Same(t, before, m.Snapshot())

	testutil.SendAll(t, m, tagsinput.AddTag{Value: "Go"}, tagsinput.DeleteTag{ID: ctx.TagID(0)})
	assert.Equal(t, []string{"Vue", "Go"}, m.Snapshot().Context.Value)
}

func TestPasteAndBlur(t *testing.T) {
	t.Run("paste sets buffer", func(t *testing.T) {
		m := start(t, frameworks())
		testutil.SendAll(t, m, tagsinput.Paste{Value: "Go"})
		testutil.RequireState(t, m, tagsinput.StateFocused)
		assert.Equal(t, "Go", m.Snapshot().Context.InputValue)
		assert.Len(t, m.Snapshot().Context.Value, 2)
	})
	t.Run("add on paste", func(t *testing.T) {
		ctx := frameworks()
		ctx.AddOnPaste = true
		m := start(t, ctx)
		testutil.SendAll(t, m, sig(tagsinput.EventFocus), tagsinput.Paste{Value: "Go"})
		assert.Equal(t, []string{"React", "Vue", "Go"}, m.Snapshot().Context.Value)
		assert.Empty(t, m.Snapshot().Context.InputValue)
	})
	t.Run("add on blur", func(t *testing.T) {
		ctx := frameworks()
		ctx.AddOnBlur = true
		m := start(t, ctx)
		testutil.SendAll(t, m, sig(tagsinput.EventFocus), tagsinput.Type{Value: "Go"}, sig(tagsinput.EventBlur))
		testutil.RequireState(t, m, tagsinput.StateIdle)
		assert.Equal(t, []string{"React", "Vue", "Go"}, m.Snapshot().Context.Value)
	})
	t.Run("blur keeps buffer", func(t *testing.T) {
		m := start(t, frameworks())
		testutil.SendAll(t, m, sig(tagsinput.EventFocus), tagsinput.Type{Value: "Go"}, sig(tagsinput.EventBlur))
		testutil.RequireState(t, m, tagsinput.StateIdle)
		assert.Equal(t, "Go", m.Snapshot().Context.InputValue)
		assert.Len(t, m.Snapshot().Context.Value, 2)
	})
}

func TestCustomValidatorAndNormalizer(t *testing.T) {
	minLen := func(value string, tags []string) bool { return len(value) >= 2 }
	m := start(t, frameworks(),
		tagsinput.WithNormalizer(strings.ToLower),
		tagsinput.WithValidator(minLen),
	)
	testutil.SendAll(t, m, tagsinput.AddTag{Value: "G"}, tagsinput.AddTag{Value: "GO"}, tagsinput.AddTag{Value: "go"})
	assert.Equal(t, []string{"React", "Vue", "go", "go"}, m.Snapshot().Context.Value)
}

func TestCommitSkipsBufferTheNormalizerEmpties(t *testing.T) {
	m := start(t, frameworks(), tagsinput.WithNormalizer(func(s string) string { return strings.Trim(s, "# ") }))
	testutil.SendAll(t, m, sig(tagsinput.EventFocus), tagsinput.Type{Value: "##"}, sig(tagsinput.EventEnter))
	assert.Equal(t, []string{"React", "Vue"}, m.Snapshot().Context.Value)
	assert.False(t, m.Snapshot().Context.Invalid)

	testutil.SendAll(t, m, tagsinput.Type{Value: "#go"}, sig(tagsinput.EventEnter))
	assert.Equal(t, []string{"React", "Vue", "go"}, m.Snapshot().Context.Value)
}

func TestReplayIsDeterministic(t *testing.T) {
	ctx := frameworks()
	ctx.AllowEditTag = true
	script := []primitives.Event{
		sig(tagsinput.EventFocus),
		tagsinput.Type{Value: "Go"},
		sig(tagsinput.EventEnter),
		sig(tagsinput.EventBackspace),
		sig(tagsinput.EventArrowLeft),
		sig(tagsinput.EventEnter),
		tagsinput.TagInputType{Value: "Angular"},
		sig(tagsinput.EventTagInputEnter),
		sig(tagsinput.EventDelete),
		sig(tagsinput.EventBlur),
	}
	run := func() *tagsinput.Snapshot {
		m := start(t, ctx)
		testutil.SendAll(t, m, script...)
		return m.Snapshot()
	}
	a, b := run(), run()
	assert.Equal(t, a.Value, b.Value)
	assert.Equal(t, a.Context, b.Context)
	assert.Equal(t, []string{"React", "Go"}, a.Context.Value)
}

func TestUnmatchedKeepsSnapshot(t *testing.T) {
	m := start(t, frameworks())
	before := m.Snapshot()
	testutil.SendAll(t, m, sig(tagsinput.EventTagInputEnter), sig(tagsinput.EventArrowRight), sig("NOPE"))
	assert.Same(t, before, m.Snapshot())
}

func TestPersistAndRestore(t *testing.T) {
	dir := t.TempDir()
	p, err := production.NewJSONPersister[tagsinput.Context](dir)
	require.NoError(t, err)

	opts := tagsinput.WithMachineOptions(core.WithID("tags-1"), core.WithPersister[tagsinput.Context](p))
	m := start(t, frameworks(), opts)
	testutil.SendAll(t, m, sig(tagsinput.EventFocus), tagsinput.Type{Value: "Go"}, sig(tagsinput.EventEnter), sig(tagsinput.EventBackspace))
	require.NoError(t, m.Stop())

	rec, err := p.Load(context.Background(), "tags-1")
	require.NoError(t, err)

	restored := newMachine(t, frameworks(), tagsinput.WithMachineOptions(core.WithID("tags-1")))
	require.NoError(t, restored.Restore(rec))
	require.NoError(t, restored.Start())

	snap := restored.Snapshot()
	testutil.RequireState(t, restored, tagsinput.StateNavigating)
	assert.Equal(t, []string{"React", "Vue", "Go"}, snap.Context.Value)
	assert.Equal(t, snap.Context.TagID(2), snap.Context.FocusedID)

	testutil.SendAll(t, restored, sig(tagsinput.EventBackspace))
	assert.Equal(t, []string{"React", "Vue"}, restored.Snapshot().Context.Value)
}

func TestStoppedMachineRejectsEvents(t *testing.T) {
	m := start(t, frameworks())
	require.NoError(t, m.Stop())
	err := m.Send(sig(tagsinput.EventFocus))
	assert.True(t, errors.Is(err, core.ErrStopped))
}

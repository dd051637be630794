package extensibility

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comalice/uimachines/internal/primitives"
)

type widget struct {
	Count    int
	Label    string
	Disabled bool
	Ratio    float64
	Tags     []string
	hidden   int
}

func (w widget) IsInteractive() bool { return !w.Disabled }

func TestExpressionGuardResolver(t *testing.T) {
	ctx := widget{Count: 3, Label: "go", Ratio: 0.5}
	tests := []struct {
		expr string
		want bool
	}{
		{"Count == 3", true},
		{"Count != 3", false},
		{"Count > 2", true},
		{"Count >= 4", false},
		{"Count < 10", true},
		{"Ratio <= 0.5", true},
		{"Label == go", true},
		{`Label == "go"`, true},
		{"Label != rust", true},
		{"Disabled == false", true},
		{"Disabled", false},
		{"!Disabled", true},
		{"IsInteractive", true},
		{"IsInteractive == true", true},
		{"Tags == nil", true},
	}
	r := NewExpressionGuardResolver()
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			g, err := r.Resolve(tt.expr)
			require.NoError(t, err)
			got, err := g(ctx, primitives.Signal("E"))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExpressionGuardResolver_PointerAndMap(t *testing.T) {
	r := NewExpressionGuardResolver()
	g, err := r.Resolve("Count > 1")
	require.NoError(t, err)

	ok, err := g(&widget{Count: 2}, nil)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = g(map[string]any{"Count": 1}, nil)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestExpressionGuardResolver_Errors(t *testing.T) {
	r := NewExpressionGuardResolver()
	for _, expr := range []string{"", "a b", "Count ~ 3", "1abc", "Count == 1 2"} {
		_, err := r.Resolve(expr)
		assert.ErrorIs(t, err, ErrBadExpression, expr)
	}

	g, err := r.Resolve("Missing == 1")
	require.NoError(t, err)
	_, err = g(widget{}, nil)
	assert.Error(t, err)

	g, err = r.Resolve("hidden == 0")
	require.NoError(t, err)
	_, err = g(widget{}, nil)
	assert.Error(t, err, "unexported fields are not readable")

	g, err = r.Resolve("Label")
	require.NoError(t, err)
	_, err = g(widget{}, nil)
	assert.Error(t, err, "bare names must be bool")

	g, err = r.Resolve("Count == many")
	require.NoError(t, err)
	_, err = g(widget{}, nil)
	assert.ErrorIs(t, err, ErrBadExpression)
}

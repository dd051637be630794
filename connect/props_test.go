package connect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProps_Map(t *testing.T) {
	calls := 0
	p := NewProps("input", nil).
		Set("id", "tags-input:1:input").
		Set("tabindex", -1).
		Set("class", "tag").
		Data("disabled", true).
		Data("focus", false).
		On(Handlers{
			OnKeyDown: func(KeyEvent) Response { calls++; return Prevent },
		})

	m := p.Map()
	assert.Equal(t, "input", m["data-part"])
	assert.Equal(t, "", m["data-disabled"])
	assert.NotContains(t, m, "data-focus")
	assert.NotContains(t, m, "onBlur")
	require.Contains(t, m, "onKeyDown")

	resp := m["onKeyDown"].(func(KeyEvent) Response)(KeyEvent{Key: "Enter"})
	assert.True(t, resp.PreventDefault)
	assert.Equal(t, 1, calls)
	assert.Equal(t, []string{"class", "data-disabled", "data-part", "id", "onKeyDown", "tabindex"}, p.Keys())
}

func TestProps_SetNilRemoves(t *testing.T) {
	p := NewProps("root", Identity).Set("hidden", true).Set("hidden", nil)
	assert.Nil(t, p.Attr("hidden"))
	assert.NotContains(t, p.Map(), "hidden")
}

func TestNormalizers(t *testing.T) {
	tests := []struct {
		name    string
		n       Normalizer
		attr    string
		want    string
		handler string
		wantH   string
	}{
		{"identity", Identity, "tabindex", "tabindex", "onKeyDown", "onKeyDown"},
		{"react class", React, "class", "className", "onKeyDown", "onKeyDown"},
		{"react for", React, "for", "htmlFor", "onPointerDown", "onPointerDown"},
		{"react tabindex", React, "tabindex", "tabIndex", "onChange", "onChange"},
		{"react passthrough", React, "data-part", "data-part", "onBlur", "onBlur"},
		{"vue keydown", Vue, "class", "class", "onKeyDown", "onKeydown"},
		{"vue pointer", Vue, "tabindex", "tabindex", "onPointerDown", "onPointerdown"},
		{"vue dblclick", Vue, "id", "id", "onDoubleClick", "onDblclick"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.n.Attr(tt.attr))
			assert.Equal(t, tt.wantH, tt.n.Handler(tt.handler))
		})
	}
}

func TestProps_MapNormalized(t *testing.T) {
	p := NewProps("tag", React).
		Set("tabindex", -1).
		On(Handlers{OnDoubleClick: func(PointerEvent) Response { return Response{} }})
	m := p.Map()
	assert.Contains(t, m, "tabIndex")
	assert.Contains(t, m, "onDoubleClick")

	v := NewProps("tag", Vue).On(p.Handlers).Map()
	assert.Contains(t, v, "onDblclick")
}

func TestKeyMap(t *testing.T) {
	var got []string
	km := KeyMap{
		KeyEnter:  func(KeyEvent) Response { got = append(got, "enter"); return Prevent },
		KeyEscape: func(KeyEvent) Response { got = append(got, "escape"); return Response{} },
	}

	assert.True(t, km.Handle(KeyEvent{Key: KeyEnter}).PreventDefault)
	assert.False(t, km.Handle(KeyEvent{Key: KeyEnter, IsComposing: true}).PreventDefault)
	assert.False(t, km.Handle(KeyEvent{Key: "x"}).PreventDefault)
	km.Handle(KeyEvent{Key: KeyEscape})
	assert.Equal(t, []string{"enter", "escape"}, got)
}

func TestDataAttr(t *testing.T) {
	assert.Equal(t, "", DataAttr(true))
	assert.Nil(t, DataAttr(false))
}

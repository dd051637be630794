package core

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistoryManager_RecordRestore(t *testing.T) {
	h := NewHistoryManager()

	_, ok := h.Restore("form.prior")
	assert.False(t, ok)

	h.Record("form.prior", []string{"form.email"})
	h.Record("form.deep", []string{"form.email.typing", "form.email.hint"})

	got, ok := h.Restore("form.prior")
	require.True(t, ok)
	assert.Equal(t, []string{"form.email"}, got)

	got[0] = "mutated"
	again, _ := h.Restore("form.prior")
	assert.Equal(t, []string{"form.email"}, again, "Restore must return a copy")

	h.Record("empty", nil)
	_, ok = h.Restore("empty")
	assert.False(t, ok, "an empty record is not a record")
}

func TestHistoryManager_ExportImport(t *testing.T) {
	h := NewHistoryManager()
	h.Record("a.h", []string{"a.x"})

	exported := h.Export()
	exported["a.h"][0] = "changed"

	other := NewHistoryManager()
	other.Import(h.Export())
	got, ok := other.Restore("a.h")
	require.True(t, ok)
	assert.Equal(t, []string{"a.x"}, got)

	other.Import(nil)
	assert.Empty(t, other.Export())
}

func TestHistoryManager_Concurrent(t *testing.T) {
	h := NewHistoryManager()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			path := fmt.Sprintf("h%d", i%5)
			h.Record(path, []string{fmt.Sprint(i)})
			h.Restore(path)
			h.Export()
		}(i)
	}
	wg.Wait()
	assert.Len(t, h.Export(), 5)
}

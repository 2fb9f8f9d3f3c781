package build

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jettary/vueify-through2/internal/types"
)

func partsOfSize(n int) *types.ResolvedParts {
	return &types.ResolvedParts{Script: strings.Repeat("x", n)}
}

func TestPartsCache_SetAndGet(t *testing.T) {
	cache := NewPartsCache(1024, time.Hour)

	parts := &types.ResolvedParts{Script: "module.exports = {}", Styles: []string{".a {}"}}
	cache.Set("data-v-aaaa0000", parts)

	got, ok := cache.Get("data-v-aaaa0000")
	require.True(t, ok)
	assert.Same(t, parts, got)

	_, ok = cache.Get("data-v-missing0")
	assert.False(t, ok)
}

func TestPartsCache_UpdateExisting(t *testing.T) {
	cache := NewPartsCache(1024, time.Hour)

	cache.Set("data-v-aaaa0000", partsOfSize(100))
	cache.Set("data-v-aaaa0000", partsOfSize(40))

	count, size, _ := cache.Stats()
	assert.Equal(t, 1, count)
	assert.Equal(t, int64(40), size)
}

func TestPartsCache_LRUEviction(t *testing.T) {
	cache := NewPartsCache(250, time.Hour)

	cache.Set("data-v-00000001", partsOfSize(100))
	cache.Set("data-v-00000002", partsOfSize(100))

	// Touch the first entry so the second becomes least recently used.
	_, ok := cache.Get("data-v-00000001")
	require.True(t, ok)

	cache.Set("data-v-00000003", partsOfSize(100))

	_, ok = cache.Get("data-v-00000001")
	assert.True(t, ok, "recently used entry should survive")
	_, ok = cache.Get("data-v-00000002")
	assert.False(t, ok, "least recently used entry should be evicted")
	_, ok = cache.Get("data-v-00000003")
	assert.True(t, ok)
}

func TestPartsCache_EvictsMultiple(t *testing.T) {
	cache := NewPartsCache(300, time.Hour)

	for i := 0; i < 3; i++ {
		cache.Set(fmt.Sprintf("data-v-0000000%d", i), partsOfSize(100))
	}
	cache.Set("data-v-bigentry", partsOfSize(250))

	count, size, maxSize := cache.Stats()
	assert.Equal(t, 1, count)
	assert.Equal(t, int64(250), size)
	assert.Equal(t, int64(300), maxSize)
}

func TestPartsCache_TTLExpiry(t *testing.T) {
	cache := NewPartsCache(1024, 10*time.Millisecond)

	cache.Set("data-v-aaaa0000", partsOfSize(10))
	_, ok := cache.Get("data-v-aaaa0000")
	require.True(t, ok)

	time.Sleep(25 * time.Millisecond)

	_, ok = cache.Get("data-v-aaaa0000")
	assert.False(t, ok, "expired entry should not be returned")

	count, size, _ := cache.Stats()
	assert.Equal(t, 0, count)
	assert.Equal(t, int64(0), size)
}

func TestPartsCache_Clear(t *testing.T) {
	cache := NewPartsCache(1024, time.Hour)

	cache.Set("data-v-00000001", partsOfSize(10))
	cache.Set("data-v-00000002", partsOfSize(10))
	cache.Clear()

	count, size, _ := cache.Stats()
	assert.Equal(t, 0, count)
	assert.Equal(t, int64(0), size)

	_, ok := cache.Get("data-v-00000001")
	assert.False(t, ok)

	// The list must stay usable after a clear.
	cache.Set("data-v-00000003", partsOfSize(10))
	_, ok = cache.Get("data-v-00000003")
	assert.True(t, ok)
}

package cache

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
)

func TestLRU_BasicGetPut(t *testing.T) {
	c := New[string](3, nil)

	c.Put("a", "A", 0)
	c.Put("b", "B", 0)

	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, "A", v)

	_, ok = c.Get("missing")
	assert.False(t, ok)
}

func TestLRU_Eviction(t *testing.T) {
	c := New[string](2, nil)

	c.Put("a", "A", 0)
	c.Put("b", "B", 0)
	c.Put("c", "C", 0) // evicts "a"

	_, ok := c.Get("a")
	assert.False(t, ok, "a should have been evicted")

	v, ok := c.Get("b")
	assert.True(t, ok)
	assert.Equal(t, "B", v)

	v, ok = c.Get("c")
	assert.True(t, ok)
	assert.Equal(t, "C", v)
}

func TestLRU_AccessPromotesEntry(t *testing.T) {
	c := New[string](2, nil)

	c.Put("a", "A", 0)
	c.Put("b", "B", 0)

	c.Get("a")

	// "b" is now least recently used.
	c.Put("c", "C", 0)

	_, ok := c.Get("a")
	assert.True(t, ok, "a was accessed recently, should not be evicted")

	_, ok = c.Get("b")
	assert.False(t, ok, "b should have been evicted")
}

func TestLRU_UpdateExisting(t *testing.T) {
	c := New[string](2, nil)

	c.Put("a", "A1", 0)
	c.Put("a", "A2", 0)

	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, "A2", v)
	assert.Equal(t, 1, c.Len())
}

func TestLRU_TTLExpiry(t *testing.T) {
	clk := clockwork.NewFakeClockAt(time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC))
	c := New[int](4, clk)

	c.Put("k", 1, 5*time.Minute)

	clk.Advance(4 * time.Minute)
	v, ok := c.Get("k")
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	clk.Advance(time.Minute)
	_, ok = c.Get("k")
	assert.False(t, ok, "entry must expire exactly at its TTL")
	assert.Equal(t, 0, c.Len())
}

func TestLRU_PutRefreshesTTL(t *testing.T) {
	clk := clockwork.NewFakeClockAt(time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC))
	c := New[int](4, clk)

	c.Put("k", 1, time.Minute)
	clk.Advance(50 * time.Second)
	c.Put("k", 2, time.Minute)
	clk.Advance(50 * time.Second)

	v, ok := c.Get("k")
	assert.True(t, ok)
	assert.Equal(t, 2, v)
}

func TestLRU_Delete(t *testing.T) {
	c := New[int](2, nil)
	c.Put("a", 1, 0)
	c.Put("b", 2, 0)

	c.Delete("a")
	c.Delete("missing")

	_, ok := c.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 1, c.Len())

	// The list must still be consistent after removal.
	c.Put("c", 3, 0)
	c.Put("d", 4, 0)
	_, ok = c.Get("b")
	assert.False(t, ok)
}

package cache

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testRegistry(t *testing.T) *Registry {
	t.Helper()
	return NewRegistry(t.Context(), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestGetOrCreateIsIdempotent(t *testing.T) {
	r := testRegistry(t)

	a := GetOrCreate[int64, string](r, "users", DefaultConfig())
	b := GetOrCreate[int64, string](r, "users", DefaultConfig())

	// two handles over the same underlying store
	a.Insert(7, "alice")
	v, ok := b.Get(7)
	require.True(t, ok)
	require.Equal(t, "alice", v)
	require.Equal(t, 1, r.Len())
}

func TestCreateReturnsExistingOnSameTypes(t *testing.T) {
	r := testRegistry(t)

	a := Create[string, int](r, "counters", DefaultConfig())
	b := Create[string, int](r, "counters", DefaultConfig())

	a.Insert("x", 1)
	v, ok := b.Get("x")
	require.True(t, ok)
	require.Equal(t, 1, v)
}

func TestTypeMismatchPanics(t *testing.T) {
	r := testRegistry(t)
	Create[int64, string](r, "x", DefaultConfig())

	require.Panics(t, func() {
		Get[int64, bool](r, "x")
	})
	require.Panics(t, func() {
		Create[int64, bool](r, "x", DefaultConfig())
	})
	require.Panics(t, func() {
		GetOrCreate[string, string](r, "x", DefaultConfig())
	})
}

func TestGetAbsentName(t *testing.T) {
	r := testRegistry(t)
	c, ok := Get[int64, string](r, "nope")
	require.False(t, ok)
	require.Nil(t, c)
}

func TestAdminOperations(t *testing.T) {
	r := testRegistry(t)
	Create[int64, string](r, "b", DefaultConfig())
	Create[int64, string](r, "a", DefaultConfig())

	require.True(t, r.Contains("a"))
	require.False(t, r.Contains("c"))
	require.Equal(t, 2, r.Len())
	require.Equal(t, []string{"a", "b"}, r.Names())

	require.True(t, r.Remove("a"))
	require.False(t, r.Remove("a"))
	require.Equal(t, 1, r.Len())

	// removal frees the name for a different type
	require.NotPanics(t, func() {
		Create[string, string](r, "a", DefaultConfig())
	})
}

func TestEvictionLiveness(t *testing.T) {
	r := testRegistry(t)
	c := Create[int, int](r, "bounded", Config{MaxCapacity: 16})

	for i := 0; i < 500; i++ {
		c.Insert(i, i)
	}

	require.Eventually(t, func() bool { return c.EntryCount() <= 16 },
		5*time.Second, 10*time.Millisecond)
}

func TestTTLExpiryThroughTypedCache(t *testing.T) {
	r := testRegistry(t)
	c := Create[string, string](r, "short", Config{MaxCapacity: 100, TTL: 60 * time.Millisecond})

	c.Insert("k", "v")
	v, ok := c.Get("k")
	require.True(t, ok)
	require.Equal(t, "v", v)

	time.Sleep(150 * time.Millisecond)
	_, ok = c.Get("k")
	require.False(t, ok)
}

func TestInvalidateAll(t *testing.T) {
	r := testRegistry(t)
	c := Create[string, int](r, "wipe", DefaultConfig())
	c.Insert("a", 1)
	c.Insert("b", 2)

	c.InvalidateAll()
	require.EqualValues(t, 0, c.EntryCount())
	require.False(t, c.Contains("a"))
}

func TestWalkReportsEntries(t *testing.T) {
	r := testRegistry(t)
	c := Create[string, int](r, "stats", DefaultConfig())
	c.Insert("a", 1)

	seen := map[string]uint64{}
	r.Walk(func(name string, entries uint64) { seen[name] = entries })
	require.Equal(t, map[string]uint64{"stats": 1}, seen)
}

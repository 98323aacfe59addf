package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_SetGet(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(time.Minute)

	_, ok, err := m.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	data := []byte("Street Central")
	require.NoError(t, m.Set(ctx, "k", data, 0))
	data[0] = 'X'

	got, ok, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Street Central", string(got))
	assert.Equal(t, 1, m.Len())

	require.NoError(t, m.Delete(ctx, "k"))
	_, ok, _ = m.Get(ctx, "k")
	assert.False(t, ok)
}

func TestMemory_Expiry(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(0)

	require.NoError(t, m.Set(ctx, "short", []byte("x"), time.Millisecond))
	time.Sleep(5 * time.Millisecond)

	_, ok, err := m.Get(ctx, "short")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestJSONHelpers(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(time.Minute)

	type coord struct {
		Lat, Lon float64
	}
	var out coord
	err := GetJSON(ctx, m, "geo", &out)
	assert.True(t, errors.Is(err, ErrCacheMiss))

	require.NoError(t, SetJSON(ctx, m, "geo", coord{41.1579, -8.6291}, 0))
	require.NoError(t, GetJSON(ctx, m, "geo", &out))
	assert.Equal(t, coord{41.1579, -8.6291}, out)
}

func TestKey(t *testing.T) {
	a := Key("translate", "pt", "en", "Rua Central")
	b := Key("translate", "pt", "en", "Rua Central")
	c := Key("translate", "pt", "fr", "Rua Central")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Contains(t, a, "translate:")
	// Part boundaries are significant.
	assert.NotEqual(t, Key("n", "ab", "c"), Key("n", "a", "bc"))
}

func TestNull(t *testing.T) {
	ctx := context.Background()
	n := NewNull()

	require.NoError(t, n.Set(ctx, "k", []byte("v"), 0))
	_, ok, err := n.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

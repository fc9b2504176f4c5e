package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/newsguard/internal/model"
)

func TestKey_StableAndNamespaced(t *testing.T) {
	a := Key("search", "google", "vaccines cause autism")
	b := Key("search", "google", "vaccines cause autism")
	c := Key("page", "google", "vaccines cause autism")
	d := Key("search", "googlevaccines cause", " autism")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.NotEqual(t, a, d)
	assert.Contains(t, a, "newsguard:v1:search:")
}

func TestMemoryCache_RoundTrip(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)

	orig := []byte("hello")
	require.NoError(t, c.Set("k", orig, 0))
	orig[0] = 'j'

	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, "hello", string(got))

	got[0] = 'x'
	again, _ := c.Get("k")
	assert.Equal(t, "hello", string(again))

	require.NoError(t, c.Delete("k"))
	_, ok = c.Get("k")
	assert.False(t, ok)
}

func TestMemoryCache_Expiry(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)
	require.NoError(t, c.Set("k", []byte("v"), time.Millisecond))
	time.Sleep(5 * time.Millisecond)
	_, ok := c.Get("k")
	assert.False(t, ok)
}

func TestDiskCache_RoundTripAndExpiry(t *testing.T) {
	dir := t.TempDir()
	c := NewDiskCache(dir, time.Hour)

	key := Key("page", "https://example.com/a")
	require.NoError(t, c.Set(key, []byte("<html/>"), 0))

	got, ok := c.Get(key)
	require.True(t, ok)
	assert.Equal(t, "<html/>", string(got))

	require.NoError(t, c.Set(key, []byte("old"), -time.Second))
	_, ok = c.Get(key)
	assert.False(t, ok)
	_, err := os.Stat(c.path(key))
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, c.Delete(key))
}

func TestDiskCache_CorruptEntryIsMiss(t *testing.T) {
	c := NewDiskCache(t.TempDir(), time.Hour)
	path := c.path("broken")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, ok := c.Get("broken")
	assert.False(t, ok)
}

func TestLayeredCache_PromotesDiskHits(t *testing.T) {
	dir := t.TempDir()
	layered := NewLayeredCache(time.Minute, dir, time.Hour)

	// Populate only the disk layer.
	require.NoError(t, NewDiskCache(dir, time.Hour).Set("k", []byte("v"), 0))

	got, ok := layered.Get("k")
	require.True(t, ok)
	assert.Equal(t, "v", string(got))

	mem, ok := layered.memory.Get("k")
	require.True(t, ok)
	assert.Equal(t, "v", string(mem))
}

func TestJSONHelpers(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)
	in := []model.Candidate{{URL: "https://a.example", Rank: 1}}

	require.NoError(t, SetJSON(c, "cands", in, 0))

	var out []model.Candidate
	require.True(t, GetJSON(c, "cands", &out))
	assert.Equal(t, in, out)

	assert.False(t, GetJSON(nil, "cands", &out))
	assert.NoError(t, SetJSON(nil, "cands", in, 0))
}

func TestNew_FromConfig(t *testing.T) {
	assert.Nil(t, New(model.CacheConfig{Enabled: false}))

	_, isMem := New(model.CacheConfig{Enabled: true, FetchTTL: time.Hour}).(*MemoryCache)
	assert.True(t, isMem)

	_, isLayered := New(model.CacheConfig{Enabled: true, Disk: true, Dir: t.TempDir(), FetchTTL: time.Hour}).(*LayeredCache)
	assert.True(t, isLayered)
}

package namehash

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSDBMKnownValues(t *testing.T) {
	t.Parallel()
	assert.Equal(t, uint32(0), SDBM(nil))
	// 'a' = 97; single byte hashes to itself.
	assert.Equal(t, uint32(97), SDBM([]byte("a")))
	// h("ab") = 'b' + (97<<6) + (97<<16) - 97
	assert.Equal(t, uint32(98+97*64+97*65536-97), SDBM([]byte("ab")))
}

func TestFNV1aKnownValues(t *testing.T) {
	t.Parallel()
	assert.Equal(t, uint32(0), FNV1a(nil))
	assert.Equal(t, uint32(0xe40c292c), FNV1a([]byte("a")))
}

func TestByName(t *testing.T) {
	t.Parallel()
	fn, ok := ByName("fnv1a")
	require.True(t, ok)
	assert.Equal(t, FNV1a([]byte("x")), fn([]byte("x")))

	fn, ok = ByName("bogus")
	require.False(t, ok)
	assert.Equal(t, SDBM([]byte("x")), fn([]byte("x")))
}

func TestStringDistinguishesNames(t *testing.T) {
	t.Parallel()
	assert.Equal(t, uint32(0), String(SDBM, ""))
	assert.NotEqual(t, String(SDBM, "Single5"), String(SDBM, "Single2"))
	assert.Equal(t, String(SDBM, "RemoveTask"), String(SDBM, "RemoveTask"))
}

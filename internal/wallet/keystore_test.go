package wallet

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormaliseHexKey(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"0xabc123", "abc123"},
		{"0Xabc123", "abc123"},
		{"abc123", "abc123"},
		{"  0xabc  ", "abc"},
		{"0x", ""},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, normaliseHexKey(tt.in), tt.in)
	}
}

func TestFileKeystoreRoundTrip(t *testing.T) {
	ks, err := NewFileKeystore(t.TempDir(), "testpass")
	require.NoError(t, err)

	ref, err := ks.Store("alice", "0x"+testKeyHex)
	require.NoError(t, err)
	assert.Equal(t, "w3oracle.alice", ref)

	got, err := ks.Retrieve(ref)
	require.NoError(t, err)
	assert.Equal(t, testKeyHex, got)

	require.NoError(t, ks.Delete(ref))
	_, err = ks.Retrieve(ref)
	assert.Error(t, err)
}

func TestNullKeystore(t *testing.T) {
	ks := &Keystore{}
	_, err := ks.Retrieve("w3oracle.x")
	assert.ErrorContains(t, err, "not available")
	_, err = ks.Store("x", testKeyHex)
	assert.Error(t, err)
	assert.NoError(t, ks.Delete("w3oracle.x"))
}

func TestInMemoryKeystore(t *testing.T) {
	iks := NewInMemoryKeystore()
	ref, err := iks.Store("k", "first")
	require.NoError(t, err)
	iks.Store("k", "second") //nolint:errcheck

	val, err := iks.Retrieve(ref)
	require.NoError(t, err)
	assert.Equal(t, "second", val)

	require.NoError(t, iks.Delete(ref))
	_, err = iks.Retrieve(ref)
	assert.ErrorContains(t, err, "not found")
}

func TestKeyCache(t *testing.T) {
	c := NewKeyCache(filepath.Join(t.TempDir(), "w3oracle", "session.json"))
	assert.False(t, c.Active())

	require.NoError(t, c.Put("w3oracle.a", "0xaaa"))
	require.NoError(t, c.Put("w3oracle.b", "bbb"))
	assert.True(t, c.Active())

	v, ok := c.Get("w3oracle.a")
	require.True(t, ok)
	assert.Equal(t, "aaa", v)

	require.NoError(t, c.Remove("w3oracle.a"))
	_, ok = c.Get("w3oracle.a")
	assert.False(t, ok)
	assert.NoError(t, c.Remove("w3oracle.missing"))

	require.NoError(t, c.Clear())
	assert.False(t, c.Active())
	assert.NoError(t, c.Clear(), "clearing twice is fine")
}

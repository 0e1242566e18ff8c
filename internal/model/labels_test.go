package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLabelEncoder(t *testing.T) {
	enc, err := NewLabelEncoder([]string{"gzip", "bzip2", "flac"})
	require.NoError(t, err)

	t.Run("decode round-trips encode", func(t *testing.T) {
		for _, name := range []string{"gzip", "bzip2", "flac"} {
			idx, err := enc.Encode(name)
			require.NoError(t, err)
			got, err := enc.Decode(idx)
			require.NoError(t, err)
			assert.Equal(t, name, got)
		}
	})

	t.Run("decode out of range errors", func(t *testing.T) {
		_, err := enc.Decode(3)
		assert.Error(t, err)
		_, err = enc.Decode(-1)
		assert.Error(t, err)
	})

	t.Run("encode unknown errors", func(t *testing.T) {
		_, err := enc.Encode("zstd")
		assert.Error(t, err)
	})

	t.Run("classes returns a copy", func(t *testing.T) {
		classes := enc.Classes()
		classes[0] = "mutated"
		again, err := enc.Decode(0)
		require.NoError(t, err)
		assert.Equal(t, "gzip", again)
	})
}

func TestLabelEncoderCoversExactly(t *testing.T) {
	enc, err := NewLabelEncoder([]string{"gzip", "bzip2"})
	require.NoError(t, err)

	assert.NoError(t, enc.CoversExactly([]string{"bzip2", "gzip"}))
	assert.Error(t, enc.CoversExactly([]string{"gzip"}))
	assert.Error(t, enc.CoversExactly([]string{"gzip", "flac"}))
	assert.Error(t, enc.CoversExactly([]string{"gzip", "bzip2", "flac"}))
}

func TestNewLabelEncoderRejects(t *testing.T) {
	_, err := NewLabelEncoder(nil)
	assert.Error(t, err)

	_, err = NewLabelEncoder([]string{"gzip", "gzip"})
	assert.Error(t, err)

	_, err = NewLabelEncoder([]string{""})
	assert.Error(t, err)
}

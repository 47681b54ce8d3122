package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNullableEmbedding_Scan(t *testing.T) {
	t.Run("NULL scans to nil", func(t *testing.T) {
		var emb nullableEmbedding

		require.NoError(t, emb.Scan(nil))
		assert.Nil(t, []float32(emb))
	})

	t.Run("empty buffer scans to nil", func(t *testing.T) {
		var emb nullableEmbedding

		require.NoError(t, emb.Scan([]byte{}))
		assert.Nil(t, []float32(emb))
	})

	t.Run("unexpected source type errors", func(t *testing.T) {
		var emb nullableEmbedding

		err := emb.Scan("not bytes")
		require.Error(t, err)
		assert.ErrorIs(t, err, errEmbeddingScanInvalidType)
	})
}

package peers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndex_UpsertValidation(t *testing.T) {
	x, err := NewIndex(nil)
	require.NoError(t, err)

	assert.ErrorIs(t, x.Upsert(context.Background(), "", []float64{1}), ErrEmptyUserID)
	assert.ErrorIs(t, x.Upsert(context.Background(), "u1", nil), ErrEmptyVector)
}

func TestIndex_SimilarReturnsNearestFirst(t *testing.T) {
	ctx := context.Background()
	x, err := NewIndex(nil)
	require.NoError(t, err)

	require.NoError(t, x.Upsert(ctx, "target", []float64{1, 0, 0}))
	require.NoError(t, x.Upsert(ctx, "close", []float64{0.9, 0.1, 0}))
	require.NoError(t, x.Upsert(ctx, "far", []float64{0, 0, 1}))
	assert.Equal(t, 3, x.Count())

	peers, err := x.Similar(ctx, "target", 2)
	require.NoError(t, err)
	require.Len(t, peers, 2)

	assert.Equal(t, "close", peers[0].UserID)
	assert.Equal(t, "far", peers[1].UserID)
	assert.Greater(t, peers[0].Similarity, peers[1].Similarity)
	// The target itself is never reported as its own peer.
	for _, p := range peers {
		assert.NotEqual(t, "target", p.UserID)
	}
}

func TestIndex_SimilarUnknownUser(t *testing.T) {
	x, err := NewIndex(nil)
	require.NoError(t, err)

	peers, err := x.Similar(context.Background(), "ghost", 3)
	require.NoError(t, err)
	assert.Empty(t, peers)
}

func TestIndex_UpsertReplaces(t *testing.T) {
	ctx := context.Background()
	x, err := NewIndex(nil)
	require.NoError(t, err)

	require.NoError(t, x.Upsert(ctx, "u1", []float64{1, 0}))
	require.NoError(t, x.Upsert(ctx, "u1", []float64{0, 1}))
	assert.Equal(t, 1, x.Count())
}

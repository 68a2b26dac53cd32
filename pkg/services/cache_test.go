package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"site-admin/pkg/models"
)

type countingLister struct {
	calls  int
	blocks []models.Block
}

func (l *countingLister) List(context.Context) ([]models.Block, error) {
	l.calls++
	return l.blocks, nil
}

func TestBlocksCache(t *testing.T) {
	InvalidateCache()
	t.Cleanup(InvalidateCache)

	src := &countingLister{blocks: []models.Block{{ID: "1", Key: "hero"}}}
	ctx := context.Background()

	got, err := GetBlocksCache(ctx, src)
	require.NoError(t, err)
	require.Len(t, got, 1)
	_, err = GetBlocksCache(ctx, src)
	require.NoError(t, err)
	require.Equal(t, 1, src.calls)

	InvalidateCache()
	src.blocks = nil
	got, err = GetBlocksCache(ctx, src)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Empty(t, got)
	require.Equal(t, 2, src.calls)
}

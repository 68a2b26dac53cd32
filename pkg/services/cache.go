package services

import (
	"context"
	"sync"

	"site-admin/pkg/models"
)

// BlockLister is the part of the store the index cache reads from.
type BlockLister interface {
	List(ctx context.Context) ([]models.Block, error)
}

var (
	blockCache  []models.Block
	cacheMutex  sync.Mutex
	cacheLoaded bool
)

// GetBlocksCache returns the stored-block index, loading it on first use.
func GetBlocksCache(ctx context.Context, src BlockLister) ([]models.Block, error) {
	cacheMutex.Lock()
	defer cacheMutex.Unlock()

	if cacheLoaded {
		return blockCache, nil
	}

	blocks, err := src.List(ctx)
	if err != nil {
		return nil, err
	}
	if blocks == nil {
		blocks = []models.Block{}
	}

	blockCache = blocks
	cacheLoaded = true
	return blockCache, nil
}

func InvalidateCache() {
	cacheMutex.Lock()
	defer cacheMutex.Unlock()
	cacheLoaded = false
	blockCache = nil
}

// Package storage coordinates the local storage backends
package storage

import (
	"fmt"

	"github.com/bobmcallan/moneta/internal/common"
	"github.com/bobmcallan/moneta/internal/interfaces"
	"github.com/bobmcallan/moneta/internal/storage/badger"
)

// Manager implements interfaces.StorageManager over a single shared
// BadgerHold store.
type Manager struct {
	store  *badger.Store
	cache  interfaces.CacheStore
	ledger interfaces.LedgerStore
	logger *common.Logger
}

// NewManager opens the local store and wires up the cache and ledger
// storage over it.
func NewManager(logger *common.Logger, config *common.Config) (*Manager, error) {
	store, err := badger.NewStore(logger, config.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open local store: %w", err)
	}

	cache := badger.NewCacheStorage(store, config.Sync.GetCacheTTL(), logger)
	ledger := badger.NewLedgerStorage(store, cache, logger)

	return &Manager{
		store:  store,
		cache:  cache,
		ledger: ledger,
		logger: logger,
	}, nil
}

// CacheStore returns the per-collection TTL cache.
func (m *Manager) CacheStore() interfaces.CacheStore {
	return m.cache
}

// LedgerStore returns the local transaction store.
func (m *Manager) LedgerStore() interfaces.LedgerStore {
	return m.ledger
}

// Close closes the underlying store.
func (m *Manager) Close() error {
	if m.store != nil {
		return m.store.Close()
	}
	return nil
}

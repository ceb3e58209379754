package badger

import (
	"context"
	"fmt"
	"time"

	"github.com/timshannon/badgerhold/v4"

	"github.com/bobmcallan/moneta/internal/common"
)

const lastSuccessfulSyncKey = "last_successful_sync"

// KVEntry represents a key-value pair stored in BadgerDB.
type KVEntry struct {
	Key   string `badgerhold:"key"`
	Value string
}

type cacheStorage struct {
	store  *Store
	ttl    time.Duration
	logger *common.Logger
}

// NewCacheStorage creates a CacheStore backed by BadgerHold. A read is
// fresh while the collection's last sync is within ttl; staleness is
// only checked at read time.
func NewCacheStorage(store *Store, ttl time.Duration, logger *common.Logger) *cacheStorage {
	if ttl <= 0 {
		ttl = common.FreshnessCache
	}
	return &cacheStorage{store: store, ttl: ttl, logger: logger}
}

func payloadKey(collection string) string { return collection + "_cache" }
func syncKey(collection string) string    { return collection + "_last_sync" }

func (s *cacheStorage) getKV(key string) (string, error) {
	var entry KVEntry
	if err := s.store.db.Get(key, &entry); err != nil {
		if err == badgerhold.ErrNotFound {
			return "", badgerhold.ErrNotFound
		}
		return "", fmt.Errorf("failed to get key '%s': %w", key, err)
	}
	return entry.Value, nil
}

func (s *cacheStorage) setKV(key, value string) error {
	entry := KVEntry{Key: key, Value: value}
	if err := s.store.db.Upsert(key, &entry); err != nil {
		return fmt.Errorf("failed to set key '%s': %w", key, err)
	}
	return nil
}

func (s *cacheStorage) deleteKV(key string) error {
	err := s.store.db.Delete(key, KVEntry{})
	if err != nil && err != badgerhold.ErrNotFound {
		return fmt.Errorf("failed to delete key '%s': %w", key, err)
	}
	return nil
}

func (s *cacheStorage) Read(_ context.Context, collection string) ([]byte, error) {
	stamp, err := s.getKV(syncKey(collection))
	if err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, common.ErrCacheMiss
		}
		return nil, err
	}

	syncedAt, err := time.Parse(time.RFC3339, stamp)
	if err != nil || !common.IsFresh(syncedAt, s.ttl) {
		return nil, common.ErrCacheMiss
	}

	payload, err := s.getKV(payloadKey(collection))
	if err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, common.ErrCacheMiss
		}
		return nil, err
	}

	s.logger.Debug().Str("collection", collection).Msg("Cache hit")
	return []byte(payload), nil
}

func (s *cacheStorage) ReadStale(_ context.Context, collection string) ([]byte, error) {
	payload, err := s.getKV(payloadKey(collection))
	if err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, common.ErrCacheMiss
		}
		return nil, err
	}
	return []byte(payload), nil
}

func (s *cacheStorage) Write(_ context.Context, collection string, payload []byte) error {
	if err := s.setKV(payloadKey(collection), string(payload)); err != nil {
		return err
	}
	if err := s.setKV(syncKey(collection), time.Now().Format(time.RFC3339Nano)); err != nil {
		return err
	}
	s.logger.Debug().Str("collection", collection).Int("bytes", len(payload)).Msg("Cache written")
	return nil
}

func (s *cacheStorage) Invalidate(_ context.Context, collection string) error {
	// Dropping the sync stamp forces the next Read to miss; the stale
	// payload stays behind until the next Write replaces it.
	if err := s.deleteKV(syncKey(collection)); err != nil {
		return err
	}
	s.logger.Debug().Str("collection", collection).Msg("Cache invalidated")
	return nil
}

func (s *cacheStorage) LastSyncedAt(_ context.Context, collection string) (time.Time, error) {
	stamp, err := s.getKV(syncKey(collection))
	if err != nil {
		if err == badgerhold.ErrNotFound {
			return time.Time{}, nil
		}
		return time.Time{}, err
	}
	syncedAt, err := time.Parse(time.RFC3339, stamp)
	if err != nil {
		return time.Time{}, nil
	}
	return syncedAt, nil
}

func (s *cacheStorage) SetLastSuccessfulSync(_ context.Context, t time.Time) error {
	return s.setKV(lastSuccessfulSyncKey, t.Format(time.RFC3339Nano))
}

func (s *cacheStorage) LastSuccessfulSync(_ context.Context) (time.Time, error) {
	stamp, err := s.getKV(lastSuccessfulSyncKey)
	if err != nil {
		if err == badgerhold.ErrNotFound {
			return time.Time{}, nil
		}
		return time.Time{}, err
	}
	syncedAt, err := time.Parse(time.RFC3339, stamp)
	if err != nil {
		return time.Time{}, nil
	}
	return syncedAt, nil
}

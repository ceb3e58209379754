// Package interfaces defines service contracts for Moneta
package interfaces

import (
	"context"
	"time"

	"github.com/bobmcallan/moneta/internal/models"
)

// StorageManager coordinates the local storage backends.
type StorageManager interface {
	CacheStore() CacheStore
	LedgerStore() LedgerStore

	// Lifecycle
	Close() error
}

// CacheStore is a TTL-bounded per-collection cache over the durable
// local store. A read returns common.ErrCacheMiss when the collection
// is absent or its last sync is older than the TTL; staleness is
// checked lazily, there is no background eviction.
type CacheStore interface {
	// Read returns the cached payload for the collection if fresh.
	Read(ctx context.Context, collection string) ([]byte, error)

	// ReadStale returns the payload regardless of TTL, for collections
	// that have no remote source to repopulate from.
	ReadStale(ctx context.Context, collection string) ([]byte, error)

	// Write replaces the payload and stamps the last-sync time to now.
	Write(ctx context.Context, collection string, payload []byte) error

	// Invalidate forces the next Read to miss regardless of TTL.
	Invalidate(ctx context.Context, collection string) error

	// LastSyncedAt returns the collection's last-sync stamp, or the
	// zero time when never synced.
	LastSyncedAt(ctx context.Context, collection string) (time.Time, error)

	// SetLastSuccessfulSync records the most recent fully-successful
	// sync across all collections.
	SetLastSuccessfulSync(ctx context.Context, t time.Time) error

	// LastSuccessfulSync returns the cross-collection sync stamp, or
	// the zero time when never synced.
	LastSuccessfulSync(ctx context.Context) (time.Time, error)
}

// LedgerStore holds the authoritative local view of transactions and
// exposes series-aware operations. Mutations invalidate the
// transactions cache stamp; acting on any member of a series resolves
// to the whole series via the head id.
type LedgerStore interface {
	// Create persists a set of expanded entries: the head first, then
	// the remaining entries with ParentID stamped to the head's id.
	Create(ctx context.Context, entries []*models.LedgerEntry) error

	// Get returns a single entry by id.
	Get(ctx context.Context, id string) (*models.LedgerEntry, error)

	// ResolveSeriesID returns the series head id for any member.
	ResolveSeriesID(ctx context.Context, id string) (string, error)

	// Series returns the head and every sibling of the series that the
	// given entry belongs to, ordered by sequence index.
	Series(ctx context.Context, id string) ([]*models.LedgerEntry, error)

	// UpdateOne patches exactly one entry.
	UpdateOne(ctx context.Context, id string, patch *models.EntryPatch) (*models.LedgerEntry, error)

	// UpdateSeries patches the head and every sibling of the series.
	UpdateSeries(ctx context.Context, id string, patch *models.EntryPatch) ([]*models.LedgerEntry, error)

	// Replace overwrites a stored entry wholesale, keyed by oldID
	// (which may differ from entry.ID when a temporary id is swapped
	// for the server-canonical one).
	Replace(ctx context.Context, oldID string, entry *models.LedgerEntry) error

	// Insert stores entries verbatim, without head/child phasing.
	Insert(ctx context.Context, entries []*models.LedgerEntry) error

	// DeleteOne removes exactly one entry.
	DeleteOne(ctx context.Context, id string) (*models.LedgerEntry, error)

	// DeleteSeries removes the whole series and returns the removed rows.
	DeleteSeries(ctx context.Context, id string) ([]*models.LedgerEntry, error)

	// Query filters the local view; results are ordered by date
	// descending unless the filter says otherwise.
	Query(ctx context.Context, filter *models.EntryFilter) ([]*models.LedgerEntry, error)

	// ReplaceAll swaps the entire local collection for the given rows
	// (cache repopulation from the remote list endpoint).
	ReplaceAll(ctx context.Context, entries []*models.LedgerEntry) error
}

package interfaces

import (
	"context"
	"time"

	"github.com/bobmcallan/moneta/internal/models"
)

// ConnectivityMonitor tracks network liveness via periodic probing.
type ConnectivityMonitor interface {
	// Check probes the remote API. Non-reentrant: when a probe is
	// already in flight, the last known state is returned without
	// re-probing.
	Check(ctx context.Context) bool

	// IsConnected returns the last known state without probing.
	IsConnected() bool

	// Snapshot returns the current connectivity state.
	Snapshot() models.ConnectivitySnapshot

	// IsDataStale reports whether the last successful sync is older
	// than the staleness threshold.
	IsDataStale(lastSyncedAt time.Time) bool

	// OnTransition registers a callback fired on Connected<->Disconnected
	// transitions.
	OnTransition(fn func(online bool))

	// Start launches the background poll loop; it stops when ctx is
	// cancelled.
	Start(ctx context.Context)
}

// Notifier receives the single user-visible notification emitted for
// each failed mutation.
type Notifier interface {
	NotifyError(message string)
}

// SyncEngine orchestrates optimistic local writes against the remote
// ledger API: apply locally, call remote when online, commit or roll
// back on the response.
type SyncEngine interface {
	// CreateEntries expands the request, applies the rows
	// optimistically, and reconciles the head row with the server
	// response when online. Offline creates stay local-only.
	CreateEntries(ctx context.Context, req *models.LedgerRequest) ([]*models.LedgerEntry, error)

	// UpdateEntry patches one entry, or the whole series.
	UpdateEntry(ctx context.Context, id string, patch *models.EntryPatch, wholeSeries bool) ([]*models.LedgerEntry, error)

	// DeleteEntry removes one entry, or the whole series.
	DeleteEntry(ctx context.Context, id string, wholeSeries bool) error

	// ListEntries serves from the local cache while fresh, otherwise
	// repopulates from the remote list endpoint.
	ListEntries(ctx context.Context, filter *models.EntryFilter) ([]*models.LedgerEntry, error)
}

// ReferenceService manages the cached reference collections
// (categories, accounts, cards).
type ReferenceService interface {
	Categories(ctx context.Context) ([]*models.Category, error)
	SaveCategory(ctx context.Context, c *models.Category) error
	Accounts(ctx context.Context) ([]*models.Account, error)
	SaveAccount(ctx context.Context, a *models.Account) error
	Cards(ctx context.Context) ([]*models.Card, error)
	SaveCard(ctx context.Context, c *models.Card) error
}

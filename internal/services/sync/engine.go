// Package sync orchestrates optimistic local writes against the remote ledger API
package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/bobmcallan/moneta/internal/common"
	"github.com/bobmcallan/moneta/internal/interfaces"
	"github.com/bobmcallan/moneta/internal/models"
	"github.com/bobmcallan/moneta/internal/series"
)

const listPageLimit = 500

// Engine implements SyncEngine: every mutation is applied to the local
// store first, then confirmed or rolled back against the remote API.
// Mutations are not serialized per entity; two concurrent mutations on
// the same row race and the last response wins.
type Engine struct {
	storage       interfaces.StorageManager
	client        interfaces.LedgerAPIClient
	monitor       interfaces.ConnectivityMonitor
	expander      *series.Expander
	notifier      interfaces.Notifier
	logger        *common.Logger
	remoteTimeout time.Duration
}

// loggerNotifier is the default Notifier when none is injected.
type loggerNotifier struct {
	logger *common.Logger
}

func (n *loggerNotifier) NotifyError(message string) {
	n.logger.Warn().Str("notification", message).Msg("Mutation failed")
}

// EngineOption configures the engine
type EngineOption func(*Engine)

// WithNotifier sets the user-facing error notifier
func WithNotifier(n interfaces.Notifier) EngineOption {
	return func(e *Engine) {
		e.notifier = n
	}
}

// WithRemoteTimeout bounds each remote mutation call so a hung
// request cannot wedge a mutation indefinitely.
func WithRemoteTimeout(d time.Duration) EngineOption {
	return func(e *Engine) {
		e.remoteTimeout = d
	}
}

// NewEngine creates a sync engine
func NewEngine(
	storage interfaces.StorageManager,
	client interfaces.LedgerAPIClient,
	monitor interfaces.ConnectivityMonitor,
	logger *common.Logger,
	opts ...EngineOption,
) *Engine {
	e := &Engine{
		storage:       storage,
		client:        client,
		monitor:       monitor,
		expander:      series.NewExpander(),
		logger:        logger,
		remoteTimeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.notifier == nil {
		e.notifier = &loggerNotifier{logger: logger}
	}
	return e
}

func (e *Engine) remoteCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, e.remoteTimeout)
}

// CreateEntries expands the request into its row lineage, applies the
// rows optimistically, and reconciles with the server when online.
// Offline creates stay local-only; they are not queued for retry.
func (e *Engine) CreateEntries(ctx context.Context, req *models.LedgerRequest) ([]*models.LedgerEntry, error) {
	entries, err := e.expander.Expand(req)
	if err != nil {
		return nil, err
	}

	cmd := newCreateCommand(e.storage.LedgerStore(), entries)
	if err := cmd.Apply(ctx); err != nil {
		return nil, err
	}

	if !e.monitor.Check(ctx) {
		e.logger.Info().Int("entries", len(entries)).Msg("Offline: create kept local-only")
		return entries, nil
	}

	remoteCtx, cancel := e.remoteCtx(ctx)
	serverEntries, err := e.client.CreateEntries(remoteCtx, req)
	cancel()
	if err != nil {
		if rbErr := cmd.Rollback(ctx); rbErr != nil {
			e.logger.Error().Err(rbErr).Msg("Rollback failed after create error")
		}
		e.notifier.NotifyError("could not save transaction")
		return nil, err
	}

	if err := cmd.Commit(ctx, serverEntries); err != nil {
		return nil, err
	}

	// The server is expected to materialize the same series size. A
	// shorter response means a series was created partially remotely;
	// local rows are kept and the divergence is surfaced, not rolled
	// back, since a clean rollback would lose the user's data twice.
	if len(serverEntries) > 0 && len(serverEntries) < len(entries) {
		e.notifier.NotifyError("transaction saved partially on the server")
		return entries, common.Server(
			fmt.Sprintf("partial series creation: %d of %d entries confirmed", len(serverEntries), len(entries)), nil)
	}

	e.logger.Debug().Int("entries", len(entries)).Msg("Create committed")
	return entries, nil
}

// UpdateEntry patches one entry, or the whole series when wholeSeries
// is set.
func (e *Engine) UpdateEntry(ctx context.Context, id string, patch *models.EntryPatch, wholeSeries bool) ([]*models.LedgerEntry, error) {
	if patch == nil || patch.IsEmpty() {
		return nil, common.Validation("empty patch")
	}

	cmd := newUpdateCommand(e.storage.LedgerStore(), id, patch, wholeSeries)
	if err := cmd.Apply(ctx); err != nil {
		return nil, err
	}

	if !e.monitor.Check(ctx) {
		e.logger.Info().Str("id", id).Bool("series", wholeSeries).Msg("Offline: update kept local-only")
		return cmd.Entries(), nil
	}

	remoteCtx, cancel := e.remoteCtx(ctx)
	serverEntries, err := e.client.UpdateEntry(remoteCtx, id, patch, wholeSeries)
	cancel()
	if err != nil {
		if rbErr := cmd.Rollback(ctx); rbErr != nil {
			e.logger.Error().Err(rbErr).Msg("Rollback failed after update error")
		}
		e.notifier.NotifyError("could not update transaction")
		return nil, err
	}

	if err := cmd.Commit(ctx, serverEntries); err != nil {
		return nil, err
	}
	return cmd.Entries(), nil
}

// DeleteEntry removes one entry, or the whole series.
func (e *Engine) DeleteEntry(ctx context.Context, id string, wholeSeries bool) error {
	cmd := newDeleteCommand(e.storage.LedgerStore(), e.storage.CacheStore(), id, wholeSeries)
	if err := cmd.Apply(ctx); err != nil {
		return err
	}

	if !e.monitor.Check(ctx) {
		e.logger.Info().Str("id", id).Bool("series", wholeSeries).Msg("Offline: delete kept local-only")
		return nil
	}

	remoteCtx, cancel := e.remoteCtx(ctx)
	err := e.client.DeleteEntry(remoteCtx, id, wholeSeries)
	cancel()
	if err != nil {
		if rbErr := cmd.Rollback(ctx); rbErr != nil {
			e.logger.Error().Err(rbErr).Msg("Rollback failed after delete error")
		}
		e.notifier.NotifyError("could not delete transaction")
		return err
	}

	return cmd.Commit(ctx, nil)
}

// ListEntries serves from the local view while the transactions cache
// is fresh; past the TTL it repopulates from the remote list endpoint.
// Offline, the local view is served regardless of freshness.
func (e *Engine) ListEntries(ctx context.Context, filter *models.EntryFilter) ([]*models.LedgerEntry, error) {
	cache := e.storage.CacheStore()
	ledger := e.storage.LedgerStore()

	if _, err := cache.Read(ctx, models.CollectionTransactions); err == nil {
		return ledger.Query(ctx, filter)
	} else if err != common.ErrCacheMiss {
		return nil, err
	}

	if !e.monitor.Check(ctx) {
		lastSync, _ := cache.LastSuccessfulSync(ctx)
		if e.monitor.IsDataStale(lastSync) {
			e.logger.Warn().Time("last_sync", lastSync).Msg("Offline and stale: serving local view")
		}
		return ledger.Query(ctx, filter)
	}

	if err := e.refresh(ctx); err != nil {
		e.logger.Warn().Err(err).Msg("Remote refresh failed: serving local view")
		return ledger.Query(ctx, filter)
	}
	return ledger.Query(ctx, filter)
}

// refresh pulls every remote page and swaps the local collection.
func (e *Engine) refresh(ctx context.Context) error {
	var all []*models.LedgerEntry
	page := 1
	for {
		remoteCtx, cancel := e.remoteCtx(ctx)
		entries, pagination, err := e.client.ListEntries(remoteCtx, interfaces.ListOptions{Page: page, Limit: listPageLimit})
		cancel()
		if err != nil {
			return err
		}
		all = append(all, entries...)
		if pagination == nil || page >= pagination.TotalPages || len(entries) == 0 {
			break
		}
		page++
	}

	if err := e.storage.LedgerStore().ReplaceAll(ctx, all); err != nil {
		return err
	}
	if err := e.storage.CacheStore().SetLastSuccessfulSync(ctx, time.Now()); err != nil {
		return err
	}
	e.logger.Info().Int("entries", len(all)).Msg("Local view refreshed from remote")
	return nil
}

// Ensure Engine implements SyncEngine
var _ interfaces.SyncEngine = (*Engine)(nil)

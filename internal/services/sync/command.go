package sync

import (
	"context"

	"github.com/bobmcallan/moneta/internal/common"
	"github.com/bobmcallan/moneta/internal/interfaces"
	"github.com/bobmcallan/moneta/internal/models"
)

// command is one optimistic mutation: apply locally, then commit with
// the server's canonical rows or roll back to the pre-apply state.
// Lifecycle: Proposed -> AppliedLocally -> Committed | RolledBack.
type command interface {
	Apply(ctx context.Context) error
	Commit(ctx context.Context, server []*models.LedgerEntry) error
	Rollback(ctx context.Context) error
}

// createCommand inserts a freshly expanded series with temporary ids.
type createCommand struct {
	store   interfaces.LedgerStore
	entries []*models.LedgerEntry
}

func newCreateCommand(store interfaces.LedgerStore, entries []*models.LedgerEntry) *createCommand {
	return &createCommand{store: store, entries: entries}
}

func (c *createCommand) Apply(ctx context.Context) error {
	for _, e := range c.entries {
		if e.ID == "" {
			e.ID = models.NewTempID()
		}
	}
	return c.store.Create(ctx, c.entries)
}

// Commit reconciles only the head row with the server response; any
// already-materialized child rows keep their locally computed values
// until the next full list refresh overwrites them. Children are
// re-parented onto the server head so series resolution never chases
// the discarded temporary head id.
func (c *createCommand) Commit(ctx context.Context, server []*models.LedgerEntry) error {
	if len(server) == 0 {
		return nil
	}

	var serverHead *models.LedgerEntry
	for _, e := range server {
		if e.IsHead() {
			serverHead = e
			break
		}
	}
	if serverHead == nil {
		serverHead = server[0]
	}

	localHead := c.entries[0]
	if err := c.store.Replace(ctx, localHead.ID, serverHead); err != nil {
		return err
	}
	c.entries[0] = serverHead

	for _, e := range c.entries[1:] {
		e.ParentID = serverHead.ID
		if err := c.store.Replace(ctx, e.ID, e); err != nil {
			return err
		}
	}
	return nil
}

func (c *createCommand) Rollback(ctx context.Context) error {
	for _, e := range c.entries {
		if _, err := c.store.DeleteOne(ctx, e.ID); err != nil && !common.IsCode(err, common.ErrCodeNotFound) {
			return err
		}
	}
	return nil
}

// updateCommand patches one row or a whole series, snapshotting the
// affected rows first.
type updateCommand struct {
	store       interfaces.LedgerStore
	id          string
	patch       *models.EntryPatch
	wholeSeries bool

	snapshot []*models.LedgerEntry
	applied  []*models.LedgerEntry
}

func newUpdateCommand(store interfaces.LedgerStore, id string, patch *models.EntryPatch, wholeSeries bool) *updateCommand {
	return &updateCommand{store: store, id: id, patch: patch, wholeSeries: wholeSeries}
}

func (c *updateCommand) Apply(ctx context.Context) error {
	if c.wholeSeries {
		before, err := c.store.Series(ctx, c.id)
		if err != nil {
			return err
		}
		c.snapshot = cloneAll(before)
		after, err := c.store.UpdateSeries(ctx, c.id, c.patch)
		if err != nil {
			return err
		}
		c.applied = after
		return nil
	}

	before, err := c.store.Get(ctx, c.id)
	if err != nil {
		return err
	}
	c.snapshot = []*models.LedgerEntry{before.Clone()}
	after, err := c.store.UpdateOne(ctx, c.id, c.patch)
	if err != nil {
		return err
	}
	c.applied = []*models.LedgerEntry{after}
	return nil
}

// Commit replaces the locally patched rows with the canonical server
// copies.
func (c *updateCommand) Commit(ctx context.Context, server []*models.LedgerEntry) error {
	for _, e := range server {
		if err := c.store.Replace(ctx, e.ID, e); err != nil {
			return err
		}
	}
	if len(server) > 0 {
		c.applied = server
	}
	return nil
}

// Rollback restores the snapshot exactly.
func (c *updateCommand) Rollback(ctx context.Context) error {
	return c.store.Insert(ctx, c.snapshot)
}

func (c *updateCommand) Entries() []*models.LedgerEntry {
	return c.applied
}

// deleteCommand removes one row or a whole series, keeping the removed
// rows for re-insertion on failure.
type deleteCommand struct {
	store       interfaces.LedgerStore
	cache       interfaces.CacheStore
	id          string
	wholeSeries bool

	snapshot []*models.LedgerEntry
}

func newDeleteCommand(store interfaces.LedgerStore, cache interfaces.CacheStore, id string, wholeSeries bool) *deleteCommand {
	return &deleteCommand{store: store, cache: cache, id: id, wholeSeries: wholeSeries}
}

func (c *deleteCommand) Apply(ctx context.Context) error {
	if c.wholeSeries {
		removed, err := c.store.DeleteSeries(ctx, c.id)
		if err != nil {
			return err
		}
		c.snapshot = removed
		return nil
	}
	removed, err := c.store.DeleteOne(ctx, c.id)
	if err != nil {
		return err
	}
	c.snapshot = []*models.LedgerEntry{removed}
	return nil
}

func (c *deleteCommand) Commit(ctx context.Context, _ []*models.LedgerEntry) error {
	return c.cache.Invalidate(ctx, models.CollectionTransactions)
}

// Rollback re-inserts the removed rows. Original positions are not
// preserved; queries re-establish the date-descending order.
func (c *deleteCommand) Rollback(ctx context.Context) error {
	return c.store.Insert(ctx, c.snapshot)
}

func cloneAll(entries []*models.LedgerEntry) []*models.LedgerEntry {
	out := make([]*models.LedgerEntry, len(entries))
	for i, e := range entries {
		out[i] = e.Clone()
	}
	return out
}

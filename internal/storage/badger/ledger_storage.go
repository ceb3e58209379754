package badger

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/timshannon/badgerhold/v4"

	"github.com/bobmcallan/moneta/internal/common"
	"github.com/bobmcallan/moneta/internal/interfaces"
	"github.com/bobmcallan/moneta/internal/models"
)

type ledgerStorage struct {
	store  *Store
	cache  interfaces.CacheStore
	logger *common.Logger
}

// NewLedgerStorage creates a LedgerStore backed by BadgerHold. Entry
// mutations invalidate the transactions cache stamp through the given
// CacheStore.
func NewLedgerStorage(store *Store, cache interfaces.CacheStore, logger *common.Logger) *ledgerStorage {
	return &ledgerStorage{store: store, cache: cache, logger: logger}
}

// Create persists an expanded series: the head first, then every
// sibling with ParentID stamped to the head's id. Children never carry
// a dangling parent reference.
func (s *ledgerStorage) Create(ctx context.Context, entries []*models.LedgerEntry) error {
	if len(entries) == 0 {
		return common.Validation("no entries to create")
	}

	now := time.Now()

	head := entries[0]
	if head.ID == "" {
		head.ID = models.NewTempID()
	}
	head.ParentID = ""
	head.CreatedAt = now
	head.UpdatedAt = now
	if err := s.store.db.Upsert(head.ID, head); err != nil {
		return fmt.Errorf("failed to save entry '%s': %w", head.ID, err)
	}

	for _, e := range entries[1:] {
		if e.ID == "" {
			e.ID = models.NewTempID()
		}
		e.ParentID = head.ID
		e.CreatedAt = now
		e.UpdatedAt = now
		if err := s.store.db.Upsert(e.ID, e); err != nil {
			return fmt.Errorf("failed to save entry '%s': %w", e.ID, err)
		}
	}

	s.logger.Debug().Str("head", head.ID).Int("entries", len(entries)).Msg("Series created")
	return s.cache.Invalidate(ctx, models.CollectionTransactions)
}

func (s *ledgerStorage) Get(_ context.Context, id string) (*models.LedgerEntry, error) {
	var entry models.LedgerEntry
	err := s.store.db.Get(id, &entry)
	if err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, common.NotFound(fmt.Sprintf("entry '%s'", id))
		}
		return nil, fmt.Errorf("failed to get entry '%s': %w", id, err)
	}
	return &entry, nil
}

// ResolveSeriesID returns the series head id for any member, so that
// acting on a child locates the whole series.
func (s *ledgerStorage) ResolveSeriesID(ctx context.Context, id string) (string, error) {
	entry, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	return entry.SeriesID(), nil
}

func (s *ledgerStorage) Series(ctx context.Context, id string) ([]*models.LedgerEntry, error) {
	headID, err := s.ResolveSeriesID(ctx, id)
	if err != nil {
		return nil, err
	}

	head, err := s.Get(ctx, headID)
	if err != nil {
		return nil, err
	}

	var children []models.LedgerEntry
	if err := s.store.db.Find(&children, badgerhold.Where("ParentID").Eq(headID)); err != nil {
		return nil, fmt.Errorf("failed to find series '%s': %w", headID, err)
	}

	entries := make([]*models.LedgerEntry, 0, len(children)+1)
	entries = append(entries, head)
	for i := range children {
		entries = append(entries, &children[i])
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].SequenceIndex < entries[j].SequenceIndex
	})
	return entries, nil
}

func (s *ledgerStorage) UpdateOne(ctx context.Context, id string, patch *models.EntryPatch) (*models.LedgerEntry, error) {
	entry, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	patch.Apply(entry)
	entry.UpdatedAt = time.Now()
	if err := s.store.db.Update(id, entry); err != nil {
		return nil, fmt.Errorf("failed to update entry '%s': %w", id, err)
	}

	if err := s.cache.Invalidate(ctx, models.CollectionTransactions); err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *ledgerStorage) UpdateSeries(ctx context.Context, id string, patch *models.EntryPatch) ([]*models.LedgerEntry, error) {
	entries, err := s.Series(ctx, id)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	for _, e := range entries {
		patch.Apply(e)
		e.UpdatedAt = now
		if err := s.store.db.Update(e.ID, e); err != nil {
			return nil, fmt.Errorf("failed to update entry '%s': %w", e.ID, err)
		}
	}

	if err := s.cache.Invalidate(ctx, models.CollectionTransactions); err != nil {
		return nil, err
	}
	return entries, nil
}

func (s *ledgerStorage) Replace(ctx context.Context, oldID string, entry *models.LedgerEntry) error {
	if oldID != entry.ID {
		err := s.store.db.Delete(oldID, models.LedgerEntry{})
		if err != nil && err != badgerhold.ErrNotFound {
			return fmt.Errorf("failed to delete entry '%s': %w", oldID, err)
		}
	}
	if err := s.store.db.Upsert(entry.ID, entry); err != nil {
		return fmt.Errorf("failed to save entry '%s': %w", entry.ID, err)
	}
	return s.cache.Invalidate(ctx, models.CollectionTransactions)
}

func (s *ledgerStorage) Insert(ctx context.Context, entries []*models.LedgerEntry) error {
	for _, e := range entries {
		if err := s.store.db.Upsert(e.ID, e); err != nil {
			return fmt.Errorf("failed to save entry '%s': %w", e.ID, err)
		}
	}
	return s.cache.Invalidate(ctx, models.CollectionTransactions)
}

func (s *ledgerStorage) DeleteOne(ctx context.Context, id string) (*models.LedgerEntry, error) {
	entry, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.store.db.Delete(id, models.LedgerEntry{}); err != nil {
		return nil, fmt.Errorf("failed to delete entry '%s': %w", id, err)
	}
	if err := s.cache.Invalidate(ctx, models.CollectionTransactions); err != nil {
		return nil, err
	}
	s.logger.Debug().Str("id", id).Msg("Entry deleted")
	return entry, nil
}

func (s *ledgerStorage) DeleteSeries(ctx context.Context, id string) ([]*models.LedgerEntry, error) {
	entries, err := s.Series(ctx, id)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if err := s.store.db.Delete(e.ID, models.LedgerEntry{}); err != nil && err != badgerhold.ErrNotFound {
			return nil, fmt.Errorf("failed to delete entry '%s': %w", e.ID, err)
		}
	}
	if err := s.cache.Invalidate(ctx, models.CollectionTransactions); err != nil {
		return nil, err
	}
	s.logger.Debug().Str("head", entries[0].ID).Int("entries", len(entries)).Msg("Series deleted")
	return entries, nil
}

func (s *ledgerStorage) Query(_ context.Context, filter *models.EntryFilter) ([]*models.LedgerEntry, error) {
	if filter == nil {
		filter = &models.EntryFilter{}
	}

	// Build query from the indexed equality criteria
	var query *badgerhold.Query
	where := func(field string, value interface{}) {
		if query == nil {
			query = badgerhold.Where(field).Eq(value)
		} else {
			query = query.And(field).Eq(value)
		}
	}
	if filter.CategoryID != "" {
		where("CategoryID", filter.CategoryID)
	}
	if filter.LaunchType != "" {
		where("LaunchType", filter.LaunchType)
	}
	if filter.Kind != "" {
		where("Kind", filter.Kind)
	}

	var rows []models.LedgerEntry
	if err := s.store.db.Find(&rows, query); err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}

	// Date range and payment source are filtered in memory
	entries := make([]*models.LedgerEntry, 0, len(rows))
	for i := range rows {
		e := &rows[i]
		if !filter.StartDate.IsZero() && e.Date.Before(filter.StartDate) {
			continue
		}
		if !filter.EndDate.IsZero() && e.Date.After(filter.EndDate) {
			continue
		}
		if filter.AccountID != "" && e.AccountID != filter.AccountID {
			continue
		}
		if filter.CardID != "" && e.CardID != filter.CardID {
			continue
		}
		entries = append(entries, e)
	}

	// Most recent first; the UI expects date-descending order
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].Date.Equal(entries[j].Date) {
			return entries[i].Date.After(entries[j].Date)
		}
		return entries[i].SequenceIndex < entries[j].SequenceIndex
	})

	if filter.Limit > 0 && len(entries) > filter.Limit {
		entries = entries[:filter.Limit]
	}
	return entries, nil
}

// ReplaceAll swaps the whole local collection for the given rows and
// stamps the transactions cache as freshly synced.
func (s *ledgerStorage) ReplaceAll(ctx context.Context, entries []*models.LedgerEntry) error {
	var existing []models.LedgerEntry
	if err := s.store.db.Find(&existing, nil); err != nil {
		return fmt.Errorf("failed to list entries: %w", err)
	}
	for i := range existing {
		// Rows still carrying a temporary id were created offline and
		// exist nowhere else; they survive the refresh.
		if models.IsTempID(existing[i].ID) {
			continue
		}
		if err := s.store.db.Delete(existing[i].ID, models.LedgerEntry{}); err != nil && err != badgerhold.ErrNotFound {
			return fmt.Errorf("failed to delete entry '%s': %w", existing[i].ID, err)
		}
	}
	for _, e := range entries {
		if err := s.store.db.Upsert(e.ID, e); err != nil {
			return fmt.Errorf("failed to save entry '%s': %w", e.ID, err)
		}
	}
	payload, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("failed to marshal entries: %w", err)
	}
	s.logger.Debug().Int("entries", len(entries)).Msg("Local ledger replaced")
	return s.cache.Write(ctx, models.CollectionTransactions, payload)
}

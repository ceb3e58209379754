package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/bobmcallan/moneta/internal/common"
	"github.com/bobmcallan/moneta/internal/interfaces"
	"github.com/bobmcallan/moneta/internal/models"
)

// Reference manages the cached reference collections: categories,
// accounts, and cards. These are local-only payloads behind the cache,
// so reads fall back to the stale payload when the TTL has lapsed.
type Reference struct {
	cache  interfaces.CacheStore
	logger *common.Logger
}

// NewReference creates a reference data service over the cache store.
func NewReference(cache interfaces.CacheStore, logger *common.Logger) *Reference {
	return &Reference{cache: cache, logger: logger}
}

func (r *Reference) load(ctx context.Context, collection string, out interface{}) error {
	payload, err := r.cache.Read(ctx, collection)
	if err == common.ErrCacheMiss {
		payload, err = r.cache.ReadStale(ctx, collection)
		if err == common.ErrCacheMiss {
			return nil // empty collection
		}
	}
	if err != nil {
		return err
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("failed to decode %s: %w", collection, err)
	}
	return nil
}

func (r *Reference) save(ctx context.Context, collection string, v interface{}) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", collection, err)
	}
	return r.cache.Write(ctx, collection, payload)
}

// Categories returns all known categories.
func (r *Reference) Categories(ctx context.Context) ([]*models.Category, error) {
	var categories []*models.Category
	if err := r.load(ctx, models.CollectionCategories, &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

// SaveCategory adds or updates a category. Duplicate name+kind pairs
// are rejected; the check is opportunistic, not atomic against
// concurrent writers.
func (r *Reference) SaveCategory(ctx context.Context, c *models.Category) error {
	if c.Name == "" {
		return common.Validation("category name is required")
	}
	if !c.Kind.Valid() {
		return common.Validation("category kind must be income or expense")
	}

	categories, err := r.Categories(ctx)
	if err != nil {
		return err
	}

	for _, existing := range categories {
		if existing.ID == c.ID {
			continue
		}
		if strings.EqualFold(existing.Name, c.Name) && existing.Kind == c.Kind {
			return common.Conflict(fmt.Sprintf("category '%s' (%s) already exists", c.Name, c.Kind))
		}
	}

	if c.ID == "" {
		c.ID = uuid.NewString()
		categories = append(categories, c)
	} else {
		replaced := false
		for i, existing := range categories {
			if existing.ID == c.ID {
				categories[i] = c
				replaced = true
				break
			}
		}
		if !replaced {
			categories = append(categories, c)
		}
	}

	return r.save(ctx, models.CollectionCategories, categories)
}

// Accounts returns all known accounts.
func (r *Reference) Accounts(ctx context.Context) ([]*models.Account, error) {
	var accounts []*models.Account
	if err := r.load(ctx, models.CollectionAccounts, &accounts); err != nil {
		return nil, err
	}
	return accounts, nil
}

// SaveAccount adds or updates an account.
func (r *Reference) SaveAccount(ctx context.Context, a *models.Account) error {
	if a.Name == "" {
		return common.Validation("account name is required")
	}
	accounts, err := r.Accounts(ctx)
	if err != nil {
		return err
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
		accounts = append(accounts, a)
	} else {
		replaced := false
		for i, existing := range accounts {
			if existing.ID == a.ID {
				accounts[i] = a
				replaced = true
				break
			}
		}
		if !replaced {
			accounts = append(accounts, a)
		}
	}
	return r.save(ctx, models.CollectionAccounts, accounts)
}

// Cards returns all known cards.
func (r *Reference) Cards(ctx context.Context) ([]*models.Card, error) {
	var cards []*models.Card
	if err := r.load(ctx, models.CollectionCards, &cards); err != nil {
		return nil, err
	}
	return cards, nil
}

// SaveCard adds or updates a card.
func (r *Reference) SaveCard(ctx context.Context, c *models.Card) error {
	if c.Name == "" {
		return common.Validation("card name is required")
	}
	// ClosingDay 0 means unset
	if c.ClosingDay < 0 || c.ClosingDay > 28 {
		return common.Validation("card closing day must be between 1 and 28, or 0 when unset")
	}
	cards, err := r.Cards(ctx)
	if err != nil {
		return err
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
		cards = append(cards, c)
	} else {
		replaced := false
		for i, existing := range cards {
			if existing.ID == c.ID {
				cards[i] = c
				replaced = true
				break
			}
		}
		if !replaced {
			cards = append(cards, c)
		}
	}
	return r.save(ctx, models.CollectionCards, cards)
}

// Ensure Reference implements ReferenceService
var _ interfaces.ReferenceService = (*Reference)(nil)

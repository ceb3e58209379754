package sync

import (
	"context"
	"testing"
	"time"

	"github.com/bobmcallan/moneta/internal/common"
	"github.com/bobmcallan/moneta/internal/interfaces"
	"github.com/bobmcallan/moneta/internal/models"
	"github.com/bobmcallan/moneta/internal/storage/badger"
)

func newTestReference(t *testing.T, ttl time.Duration) (*Reference, interfaces.CacheStore) {
	t.Helper()
	store, err := badger.NewStore(testLogger(), t.TempDir())
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	cache := badger.NewCacheStorage(store, ttl, testLogger())
	return NewReference(cache, testLogger()), cache
}

func TestReference_SaveAndListCategories(t *testing.T) {
	ref, _ := newTestReference(t, time.Minute)
	ctx := context.Background()

	groceries := &models.Category{Name: "Groceries", Kind: models.KindExpense}
	if err := ref.SaveCategory(ctx, groceries); err != nil {
		t.Fatalf("SaveCategory failed: %v", err)
	}
	if groceries.ID == "" {
		t.Fatal("save should assign an id")
	}

	categories, err := ref.Categories(ctx)
	if err != nil {
		t.Fatalf("Categories failed: %v", err)
	}
	if len(categories) != 1 || categories[0].Name != "Groceries" {
		t.Fatalf("unexpected categories: %+v", categories)
	}
}

func TestReference_DuplicateCategoryConflict(t *testing.T) {
	ref, _ := newTestReference(t, time.Minute)
	ctx := context.Background()

	if err := ref.SaveCategory(ctx, &models.Category{Name: "Rent", Kind: models.KindExpense}); err != nil {
		t.Fatalf("SaveCategory failed: %v", err)
	}

	// Same name and kind, case-insensitive, is a conflict
	err := ref.SaveCategory(ctx, &models.Category{Name: "rent", Kind: models.KindExpense})
	if !common.IsCode(err, common.ErrCodeConflict) {
		t.Fatalf("expected CONFLICT, got %v", err)
	}

	// Same name with the other kind is allowed
	if err := ref.SaveCategory(ctx, &models.Category{Name: "Rent", Kind: models.KindIncome}); err != nil {
		t.Fatalf("same name, different kind should be allowed: %v", err)
	}
}

func TestReference_UpdateCategoryKeepsID(t *testing.T) {
	ref, _ := newTestReference(t, time.Minute)
	ctx := context.Background()

	c := &models.Category{Name: "Transport", Kind: models.KindExpense}
	if err := ref.SaveCategory(ctx, c); err != nil {
		t.Fatalf("SaveCategory failed: %v", err)
	}

	c.Name = "Commute"
	if err := ref.SaveCategory(ctx, c); err != nil {
		t.Fatalf("rename failed: %v", err)
	}

	categories, err := ref.Categories(ctx)
	if err != nil {
		t.Fatalf("Categories failed: %v", err)
	}
	if len(categories) != 1 || categories[0].Name != "Commute" {
		t.Fatalf("rename should update in place, got %+v", categories)
	}
}

func TestReference_CategoryValidation(t *testing.T) {
	ref, _ := newTestReference(t, time.Minute)
	ctx := context.Background()

	if err := ref.SaveCategory(ctx, &models.Category{Kind: models.KindExpense}); !common.IsCode(err, common.ErrCodeValidation) {
		t.Errorf("missing name should be rejected, got %v", err)
	}
	if err := ref.SaveCategory(ctx, &models.Category{Name: "X", Kind: "weird"}); !common.IsCode(err, common.ErrCodeValidation) {
		t.Errorf("unknown kind should be rejected, got %v", err)
	}
}

func TestReference_CardClosingDayValidation(t *testing.T) {
	ref, _ := newTestReference(t, time.Minute)
	ctx := context.Background()

	if err := ref.SaveCard(ctx, &models.Card{Name: "Visa", ClosingDay: 29}); !common.IsCode(err, common.ErrCodeValidation) {
		t.Errorf("closing day past 28 should be rejected, got %v", err)
	}
	if err := ref.SaveCard(ctx, &models.Card{Name: "Visa", ClosingDay: -1}); !common.IsCode(err, common.ErrCodeValidation) {
		t.Errorf("negative closing day should be rejected, got %v", err)
	}
	if err := ref.SaveCard(ctx, &models.Card{Name: "Visa", ClosingDay: 15}); err != nil {
		t.Errorf("valid closing day should be accepted: %v", err)
	}
	if err := ref.SaveCard(ctx, &models.Card{Name: "Amex"}); err != nil {
		t.Errorf("unset closing day should be accepted: %v", err)
	}
}

func TestReference_SurvivesTTLExpiry(t *testing.T) {
	ref, _ := newTestReference(t, 20*time.Millisecond)
	ctx := context.Background()

	if err := ref.SaveAccount(ctx, &models.Account{Name: "Checking"}); err != nil {
		t.Fatalf("SaveAccount failed: %v", err)
	}

	time.Sleep(30 * time.Millisecond)

	// Reference collections have no remote source, so the stale payload
	// still serves once the TTL lapses.
	accounts, err := ref.Accounts(ctx)
	if err != nil {
		t.Fatalf("Accounts failed: %v", err)
	}
	if len(accounts) != 1 || accounts[0].Name != "Checking" {
		t.Fatalf("stale read should still return the account, got %+v", accounts)
	}
}

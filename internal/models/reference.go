package models

// Collection names used by the per-collection cache.
const (
	CollectionTransactions = "transactions"
	CollectionCategories   = "categories"
	CollectionCards        = "cards"
	CollectionAccounts     = "accounts"
)

// Category labels entries for reporting. Name+Kind pairs are expected
// to be unique; the duplicate check is opportunistic, not atomic.
type Category struct {
	ID   string    `json:"id"`
	Name string    `json:"name"`
	Kind EntryKind `json:"kind"`
}

// Account is a bank account payment source.
type Account struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Card is a credit card payment source. ClosingDay is the statement
// closing day of month (1-28).
type Card struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	ClosingDay int    `json:"closing_day,omitempty"`
}

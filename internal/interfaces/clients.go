package interfaces

import (
	"context"

	"github.com/bobmcallan/moneta/internal/models"
)

// ListOptions are the query parameters accepted by the remote list
// endpoint.
type ListOptions struct {
	Page       int
	Limit      int
	Kind       models.EntryKind
	CategoryID string
	AccountID  string
	CardID     string
	LaunchType models.LaunchType
	StartDate  string // ISO-8601 date
	EndDate    string // ISO-8601 date
}

// Pagination describes the remote list response paging.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// LedgerAPIClient is the remote ledger API collaborator. All errors
// are mapped onto the common taxonomy: transport failures and timeouts
// become NETWORK_ERROR, 5xx become SERVER_ERROR, 404 becomes NOT_FOUND.
type LedgerAPIClient interface {
	// CreateEntries submits one transaction request; the server
	// performs its own expansion and returns every created row.
	CreateEntries(ctx context.Context, req *models.LedgerRequest) ([]*models.LedgerEntry, error)

	// ListEntries pages through the remote collection.
	ListEntries(ctx context.Context, opts ListOptions) ([]*models.LedgerEntry, *Pagination, error)

	// UpdateEntry patches one entry, or the whole series when
	// wholeSeries is set. The response carries the canonical rows.
	UpdateEntry(ctx context.Context, id string, patch *models.EntryPatch, wholeSeries bool) ([]*models.LedgerEntry, error)

	// DeleteEntry removes one entry, or the whole series.
	DeleteEntry(ctx context.Context, id string, wholeSeries bool) error

	// Ping is the lightweight liveness probe used by the connectivity
	// monitor.
	Ping(ctx context.Context) error
}

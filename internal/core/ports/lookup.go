package ports

import (
	"context"

	"github.com/TechupBusiness/browser-extension-notion-status/internal/core/domain"
)

// LookupService defines the interface for querying the remote record store.
//
// Failures carry a *domain.LookupError when the store answered with a non-2xx status;
// domain.IsAuthError reports the distinguished 401 case.
//
//go:generate mockgen -source=lookup.go -destination=mocks/mock_lookup.go -package=mocks
type LookupService interface {
	// QueryExists returns the records whose URL property equals any of urls.
	QueryExists(ctx context.Context, target domain.Target, urls []string) ([]domain.Record, error)

	// QueryPage returns one page of records, optionally restricted to those edited since a point in time.
	QueryPage(ctx context.Context, target domain.Target, query domain.PageQuery) (domain.RecordPage, error)
}

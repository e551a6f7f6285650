package ports

import (
	"context"

	"github.com/TechupBusiness/browser-extension-notion-status/internal/core/domain"
)

// StatusSink receives every status the engine produces, provisional ones included.
//
//go:generate mockgen -source=status.go -destination=mocks/mock_status.go -package=mocks
type StatusSink interface {
	// Publish hands a status to the UI collaborator.
	Publish(ctx context.Context, status domain.Status)
}

// StatusReader returns the last published status.
type StatusReader interface {
	// Current returns the last published status, or domain.UnavailableStatus when there is none.
	Current(ctx context.Context) domain.Status
}

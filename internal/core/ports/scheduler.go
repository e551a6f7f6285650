package ports

import (
	"context"
	"time"
)

// Scheduler fires registered callbacks on a fixed interval.
//
//go:generate mockgen -source=scheduler.go -destination=mocks/mock_scheduler.go -package=mocks
type Scheduler interface {
	// Register schedules fn every interval under name, replacing any prior registration of name.
	Register(name string, interval time.Duration, fn func(ctx context.Context))

	// Cancel removes the registration of name. Unknown names are ignored.
	Cancel(name string)

	// Stop cancels every registration.
	Stop()
}

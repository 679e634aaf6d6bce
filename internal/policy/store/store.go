// Package store persists the admin-configured password policy. Stores
// are pure I/O; validation and snapshot management belong to the
// service layer.
package store

import (
	"context"
	"time"

	"passgate/internal/policy/config"
)

// Record is one stored policy version.
type Record struct {
	ID        string
	Config    config.Config
	UpdatedBy string
	UpdatedAt time.Time
}

// Store reads and replaces the active policy. Active returns nil, nil
// when no policy has ever been saved; callers fall back to defaults.
type Store interface {
	Active(ctx context.Context) (*Record, error)
	Save(ctx context.Context, cfg config.Config, updatedBy string) (*Record, error)
}

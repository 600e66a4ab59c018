package store

import (
	"context"

	"github.com/joescharf/jules/internal/models"
)

// Store defines the persistence interface for the local launch log.
type Store interface {
	RecordLaunch(ctx context.Context, l *models.Launch) error
	GetLaunchBySession(ctx context.Context, sessionName string) (*models.Launch, error)
	ListLaunches(ctx context.Context, limit int) ([]*models.Launch, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

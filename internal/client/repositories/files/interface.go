package files

import (
	"context"

	"github.com/dmitrijs2005/gophsend/internal/client/models"
)

// Repository describes the persistence of owned files.
type Repository interface {
	// Upsert inserts the file or replaces the stored row with the same ID.
	Upsert(ctx context.Context, f *models.File) error

	// DeleteByID removes the row. Deleting a missing row is not an error.
	DeleteByID(ctx context.Context, id string) error

	// Retire persists the final state of f and deletes its row atomically.
	Retire(ctx context.Context, f *models.File) error

	// GetByID returns common.ErrNotFound when no row matches.
	GetByID(ctx context.Context, id string) (*models.File, error)

	// GetAll returns every owned file, oldest first.
	GetAll(ctx context.Context) ([]*models.File, error)
}

package repository

import (
	"context"

	"jobdash/internal/model"
)

// ApplicationRepository defines data access for job applications using SQL queries only.
// Implementations live in subpackages (sqlite, postgres).
type ApplicationRepository interface {
	// Create inserts a new row and returns the id assigned by the database.
	Create(ctx context.Context, app *model.JobApplication) (int64, error)

	// List returns every application ordered by id ascending.
	// Resume blobs are not loaded; HasResume reports whether one is stored.
	List(ctx context.Context) ([]model.JobApplication, error)

	// FindByID returns one application including its resume blob.
	// It returns sql.ErrNoRows when the id does not exist.
	FindByID(ctx context.Context, id int64) (*model.JobApplication, error)

	// Update overwrites every text field of the row with app.ID.
	// The resume blob is left untouched. Unknown ids are a no-op.
	Update(ctx context.Context, app *model.JobApplication) error

	// Delete removes a row by id. Unknown ids are a no-op.
	Delete(ctx context.Context, id int64) error
}

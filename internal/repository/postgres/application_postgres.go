package postgres

import (
	"context"
	"database/sql"

	"jobdash/internal/model"
	"jobdash/internal/repository"
)

// ApplicationPostgres is a PostgreSQL implementation of repository.ApplicationRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type ApplicationPostgres struct {
	db *sql.DB
}

// NewApplicationPostgres creates a new ApplicationPostgres repository.
func NewApplicationPostgres(db *sql.DB) *ApplicationPostgres {
	return &ApplicationPostgres{db: db}
}

var _ repository.ApplicationRepository = (*ApplicationPostgres)(nil)

// Create inserts a new application row and returns the generated id.
func (r *ApplicationPostgres) Create(ctx context.Context, app *model.JobApplication) (int64, error) {
	const q = `
		INSERT INTO applications (job_title, company, location, requirements, salary, date, resume)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	var id int64
	if err := r.db.QueryRowContext(ctx, q,
		app.JobTitle,
		app.Company,
		app.Location,
		app.Requirements,
		app.Salary,
		app.Date,
		app.Resume,
	).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

// List returns all applications in insertion order.
func (r *ApplicationPostgres) List(ctx context.Context) ([]model.JobApplication, error) {
	const q = `
		SELECT id,
		       COALESCE(job_title, ''), COALESCE(company, ''), COALESCE(location, ''),
		       COALESCE(requirements, ''), COALESCE(salary, ''), COALESCE(date, ''),
		       resume IS NOT NULL
		FROM applications
		ORDER BY id ASC
	`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.JobApplication, 0)
	for rows.Next() {
		var a model.JobApplication
		if err := rows.Scan(
			&a.ID,
			&a.JobTitle,
			&a.Company,
			&a.Location,
			&a.Requirements,
			&a.Salary,
			&a.Date,
			&a.HasResume,
		); err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// FindByID fetches a single application, resume included.
func (r *ApplicationPostgres) FindByID(ctx context.Context, id int64) (*model.JobApplication, error) {
	const q = `
		SELECT id,
		       COALESCE(job_title, ''), COALESCE(company, ''), COALESCE(location, ''),
		       COALESCE(requirements, ''), COALESCE(salary, ''), COALESCE(date, ''),
		       resume
		FROM applications
		WHERE id = $1
	`
	var a model.JobApplication
	if err := r.db.QueryRowContext(ctx, q, id).Scan(
		&a.ID,
		&a.JobTitle,
		&a.Company,
		&a.Location,
		&a.Requirements,
		&a.Salary,
		&a.Date,
		&a.Resume,
	); err != nil {
		return nil, err
	}
	a.HasResume = a.Resume != nil
	return &a, nil
}

// Update overwrites the text fields of an existing row. Missing ids update nothing.
func (r *ApplicationPostgres) Update(ctx context.Context, app *model.JobApplication) error {
	const q = `
		UPDATE applications
		SET job_title = $1, company = $2, location = $3, requirements = $4, salary = $5, date = $6
		WHERE id = $7
	`
	_, err := r.db.ExecContext(ctx, q,
		app.JobTitle,
		app.Company,
		app.Location,
		app.Requirements,
		app.Salary,
		app.Date,
		app.ID,
	)
	return err
}

// Delete removes an application by id. It does not return an error if the row does not exist.
func (r *ApplicationPostgres) Delete(ctx context.Context, id int64) error {
	const q = `DELETE FROM applications WHERE id = $1`
	_, err := r.db.ExecContext(ctx, q, id)
	return err
}

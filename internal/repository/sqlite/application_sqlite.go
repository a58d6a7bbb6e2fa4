package sqlite

import (
	"context"
	"database/sql"

	"jobdash/internal/model"
	"jobdash/internal/repository"
)

// ApplicationSQLite stores applications in a single-file SQLite database.
type ApplicationSQLite struct {
	db *sql.DB
}

// NewApplicationSQLite creates a new ApplicationSQLite repository.
func NewApplicationSQLite(db *sql.DB) *ApplicationSQLite {
	return &ApplicationSQLite{db: db}
}

var _ repository.ApplicationRepository = (*ApplicationSQLite)(nil)

const selectColumns = `id,
       COALESCE(job_title, ''), COALESCE(company, ''), COALESCE(location, ''),
       COALESCE(requirements, ''), COALESCE(salary, ''), COALESCE(date, '')`

func (r *ApplicationSQLite) Create(ctx context.Context, app *model.JobApplication) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO applications (job_title, company, location, requirements, salary, date, resume)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		app.JobTitle,
		app.Company,
		app.Location,
		app.Requirements,
		app.Salary,
		app.Date,
		app.Resume,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r *ApplicationSQLite) List(ctx context.Context) ([]model.JobApplication, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+selectColumns+`, resume IS NOT NULL
		FROM applications
		ORDER BY id ASC`)
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

func (r *ApplicationSQLite) FindByID(ctx context.Context, id int64) (*model.JobApplication, error) {
	var a model.JobApplication
	err := r.db.QueryRowContext(ctx, `
		SELECT `+selectColumns+`, resume
		FROM applications
		WHERE id = ?`, id).Scan(
		&a.ID,
		&a.JobTitle,
		&a.Company,
		&a.Location,
		&a.Requirements,
		&a.Salary,
		&a.Date,
		&a.Resume,
	)
	if err != nil {
		return nil, err
	}
	a.HasResume = a.Resume != nil
	return &a, nil
}

func (r *ApplicationSQLite) Update(ctx context.Context, app *model.JobApplication) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE applications
		SET job_title = ?, company = ?, location = ?, requirements = ?, salary = ?, date = ?
		WHERE id = ?`,
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

func (r *ApplicationSQLite) Delete(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM applications WHERE id = ?`, id)
	return err
}

package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yourusername/jobhunt-api/internal/model"
)

// ErrNotFound is returned by writes that matched no row
var ErrNotFound = errors.New("job not found")

const jobColumns = `
	id, title, company, location, job_type, source, url, salary_range,
	description, requirements, responsibilities, skills, metadata,
	posted_at, created_at, updated_at`

type JobRepo struct {
	pool *pgxpool.Pool
}

func NewJobRepo(pool *pgxpool.Pool) *JobRepo {
	return &JobRepo{pool: pool}
}

// JobFilter holds query parameters for listing jobs
type JobFilter struct {
	Search       string
	Source       string
	LocationType string // "", "remote", "onsite"
	Limit        int
	Offset       int
}

func scanJob(row pgx.Row) (*model.JobRecord, error) {
	var j model.JobRecord
	err := row.Scan(
		&j.ID, &j.Title, &j.Company, &j.Location, &j.JobType, &j.Source,
		&j.URL, &j.SalaryRange, &j.Description, &j.Requirements,
		&j.Responsibilities, &j.Skills, &j.Metadata,
		&j.PostedAt, &j.CreatedAt, &j.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &j, nil
}

func collectJobs(rows pgx.Rows) ([]model.JobRecord, error) {
	defer rows.Close()

	var jobs []model.JobRecord
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning job row: %w", err)
		}
		jobs = append(jobs, *j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating job rows: %w", err)
	}
	return jobs, nil
}

// List returns jobs matching the filter, newest postings first
func (r *JobRepo) List(ctx context.Context, filter JobFilter) ([]model.JobRecord, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE true`
	args := []any{}
	argIdx := 1

	if filter.Search != "" {
		query += fmt.Sprintf(" AND (LOWER(title) LIKE $%d OR LOWER(company) LIKE $%d)", argIdx, argIdx)
		args = append(args, "%"+filter.Search+"%")
		argIdx++
	}
	if filter.Source != "" {
		query += fmt.Sprintf(" AND source = $%d", argIdx)
		args = append(args, filter.Source)
		argIdx++
	}
	if filter.LocationType == "remote" {
		query += " AND LOWER(location) LIKE '%remote%'"
	} else if filter.LocationType == "onsite" {
		query += " AND LOWER(location) NOT LIKE '%remote%'"
	}

	query += " ORDER BY posted_at DESC NULLS LAST, created_at DESC"
	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing jobs: %w", err)
	}
	return collectJobs(rows)
}

// FindByID returns a single job, or nil if it does not exist
func (r *JobRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.JobRecord, error) {
	j, err := scanJob(r.pool.QueryRow(ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("finding job: %w", err)
	}
	return j, nil
}

// Create inserts a new job. List columns must already be JSON text.
func (r *JobRepo) Create(ctx context.Context, j *model.JobRecord) (*model.JobRecord, error) {
	created, err := scanJob(r.pool.QueryRow(ctx, `
		INSERT INTO jobs (title, company, location, job_type, source, url,
		                  salary_range, description, requirements,
		                  responsibilities, skills, metadata, posted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING `+jobColumns,
		j.Title, j.Company, j.Location, j.JobType, j.Source, j.URL,
		j.SalaryRange, j.Description, j.Requirements, j.Responsibilities,
		j.Skills, j.Metadata, j.PostedAt,
	))
	if err != nil {
		return nil, fmt.Errorf("creating job: %w", err)
	}
	return created, nil
}

// Update replaces a job's fields
func (r *JobRepo) Update(ctx context.Context, j *model.JobRecord) (*model.JobRecord, error) {
	updated, err := scanJob(r.pool.QueryRow(ctx, `
		UPDATE jobs
		SET title = $2, company = $3, location = $4, job_type = $5, source = $6,
		    url = $7, salary_range = $8, description = $9, requirements = $10,
		    responsibilities = $11, skills = $12, metadata = $13, posted_at = $14,
		    updated_at = now()
		WHERE id = $1
		RETURNING `+jobColumns,
		j.ID, j.Title, j.Company, j.Location, j.JobType, j.Source, j.URL,
		j.SalaryRange, j.Description, j.Requirements, j.Responsibilities,
		j.Skills, j.Metadata, j.PostedAt,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("updating job: %w", err)
	}
	return updated, nil
}

// Delete removes a job
func (r *JobRepo) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM jobs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting job: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListBatch returns up to limit jobs with an id greater than after, ordered by id.
// Pass uuid.Nil to start from the beginning.
func (r *JobRepo) ListBatch(ctx context.Context, after uuid.UUID, limit int) ([]model.JobRecord, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE id > $1 ORDER BY id LIMIT $2`,
		after, limit)
	if err != nil {
		return nil, fmt.Errorf("listing job batch: %w", err)
	}
	return collectJobs(rows)
}

// UpdateListFields rewrites only the JSON list columns of a job
func (r *JobRepo) UpdateListFields(ctx context.Context, id uuid.UUID, requirements, responsibilities, skills string) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE jobs
		SET requirements = $2, responsibilities = $3, skills = $4, updated_at = now()
		WHERE id = $1
	`, id, requirements, responsibilities, skills)
	if err != nil {
		return fmt.Errorf("updating job list fields: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

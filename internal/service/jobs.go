package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/yourusername/jobhunt-api/internal/model"
	"github.com/yourusername/jobhunt-api/internal/repository"
	"github.com/yourusername/jobhunt-api/internal/safejson"
)

// ErrInvalidJob is returned when a job input is missing required fields
var ErrInvalidJob = errors.New("title and company are required")

// JobStore is the persistence the service needs. *repository.JobRepo implements it.
type JobStore interface {
	List(ctx context.Context, filter repository.JobFilter) ([]model.JobRecord, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.JobRecord, error)
	Create(ctx context.Context, j *model.JobRecord) (*model.JobRecord, error)
	Update(ctx context.Context, j *model.JobRecord) (*model.JobRecord, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ListBatch(ctx context.Context, after uuid.UUID, limit int) ([]model.JobRecord, error)
	UpdateListFields(ctx context.Context, id uuid.UUID, requirements, responsibilities, skills string) error
}

// JobService renders stored jobs and writes them back in canonical form
type JobService struct {
	store       JobStore
	parser      *safejson.Parser
	defaultPage int
	maxPage     int
	batchSize   int
}

func NewJobService(store JobStore, parser *safejson.Parser, defaultPage, maxPage int) *JobService {
	if defaultPage <= 0 {
		defaultPage = 20
	}
	if maxPage < defaultPage {
		maxPage = defaultPage
	}
	return &JobService{
		store:       store,
		parser:      parser,
		defaultPage: defaultPage,
		maxPage:     maxPage,
		batchSize:   200,
	}
}

// ToView decodes a stored record into the shape the API returns
func (s *JobService) ToView(r model.JobRecord) model.Job {
	return model.Job{
		ID:               r.ID,
		Title:            r.Title,
		Company:          r.Company,
		Location:         r.Location,
		JobType:          r.JobType,
		Source:           r.Source,
		URL:              r.URL,
		SalaryRange:      r.SalaryRange,
		Description:      r.Description,
		Requirements:     s.parser.Array(r.Requirements),
		Responsibilities: s.parser.Array(r.Responsibilities),
		Skills:           s.parser.Array(r.Skills),
		Metadata:         s.parser.Object(r.Metadata, map[string]any{}),
		PostedAt:         r.PostedAt,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
}

func (s *JobService) views(records []model.JobRecord) []model.Job {
	jobs := make([]model.Job, 0, len(records))
	for _, r := range records {
		jobs = append(jobs, s.ToView(r))
	}
	return jobs
}

// List returns rendered jobs. Limit and offset are clamped to the configured page sizes.
func (s *JobService) List(ctx context.Context, filter repository.JobFilter) ([]model.Job, error) {
	if filter.Limit <= 0 {
		filter.Limit = s.defaultPage
	}
	if filter.Limit > s.maxPage {
		filter.Limit = s.maxPage
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	filter.Search = strings.ToLower(strings.TrimSpace(filter.Search))

	records, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return s.views(records), nil
}

// Get returns a rendered job, or nil if it does not exist
func (s *JobService) Get(ctx context.Context, id uuid.UUID) (*model.Job, error) {
	r, err := s.store.FindByID(ctx, id)
	if err != nil || r == nil {
		return nil, err
	}
	job := s.ToView(*r)
	return &job, nil
}

// Create validates and stores a new job
func (s *JobService) Create(ctx context.Context, in model.JobInput) (*model.Job, error) {
	rec, err := s.toRecord(in)
	if err != nil {
		return nil, err
	}
	created, err := s.store.Create(ctx, rec)
	if err != nil {
		return nil, err
	}
	job := s.ToView(*created)
	return &job, nil
}

// Update replaces a stored job. Returns repository.ErrNotFound for unknown ids.
func (s *JobService) Update(ctx context.Context, id uuid.UUID, in model.JobInput) (*model.Job, error) {
	rec, err := s.toRecord(in)
	if err != nil {
		return nil, err
	}
	rec.ID = id
	updated, err := s.store.Update(ctx, rec)
	if err != nil {
		return nil, err
	}
	job := s.ToView(*updated)
	return &job, nil
}

// Delete removes a job. Returns repository.ErrNotFound for unknown ids.
func (s *JobService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.store.Delete(ctx, id)
}

// toRecord normalises input so that every list column is written as canonical JSON
func (s *JobService) toRecord(in model.JobInput) (*model.JobRecord, error) {
	title := strings.TrimSpace(in.Title)
	company := strings.TrimSpace(in.Company)
	if title == "" || company == "" {
		return nil, ErrInvalidJob
	}

	source := strings.ToLower(strings.TrimSpace(in.Source))
	if source == "" {
		source = model.SourceManual
	} else if !model.ValidSource(source) {
		source = model.SourceOther
	}

	metadata := in.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	metaJSON, err := json.Marshal(metadata)
	if err != nil {
		return nil, fmt.Errorf("encoding metadata: %w", err)
	}

	requirements := safejson.MarshalArray(safejson.Clean(in.Requirements))
	responsibilities := safejson.MarshalArray(safejson.Clean(in.Responsibilities))
	skills := safejson.MarshalArray(safejson.Clean(in.Skills))
	meta := string(metaJSON)

	return &model.JobRecord{
		Title:            title,
		Company:          company,
		Location:         strings.TrimSpace(in.Location),
		JobType:          strings.TrimSpace(in.JobType),
		Source:           source,
		URL:              strings.TrimSpace(in.URL),
		SalaryRange:      strings.TrimSpace(in.SalaryRange),
		Description:      in.Description,
		Requirements:     &requirements,
		Responsibilities: &responsibilities,
		Skills:           &skills,
		Metadata:         &meta,
		PostedAt:         in.PostedAt,
	}, nil
}

// canonical returns the encoding a list column should hold and whether the
// stored value differs from it. ok is false when the stored text is present
// but cannot be decoded as an array; want is then the stored text itself.
func (s *JobService) canonical(stored *string) (want string, changed, ok bool) {
	items, ok := s.parser.TryArray(stored)
	if !ok {
		return *stored, false, false
	}
	want = safejson.MarshalArray(items)
	return want, stored == nil || *stored != want, true
}

// Repair rewrites list columns whose stored text is not the canonical encoding
// of what they decode to. Columns that do not decode at all are left as they
// are and counted as unparseable. With dryRun set nothing is written.
func (s *JobService) Repair(ctx context.Context, dryRun bool) (*model.RepairReport, error) {
	report := &model.RepairReport{
		DryRun: dryRun,
		ByField: map[string]int{
			model.FieldRequirements:     0,
			model.FieldResponsibilities: 0,
			model.FieldSkills:           0,
		},
	}

	after := uuid.Nil
	for {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		batch, err := s.store.ListBatch(ctx, after, s.batchSize)
		if err != nil {
			return report, fmt.Errorf("repair batch after %s: %w", after, err)
		}
		if len(batch) == 0 {
			break
		}

		for _, r := range batch {
			report.Scanned++

			fields := []struct {
				name   string
				stored *string
				want   string
			}{
				{name: model.FieldRequirements, stored: r.Requirements},
				{name: model.FieldResponsibilities, stored: r.Responsibilities},
				{name: model.FieldSkills, stored: r.Skills},
			}
			dirty := false
			for i := range fields {
				f := &fields[i]
				want, changed, ok := s.canonical(f.stored)
				f.want = want
				if !ok {
					report.Unparseable++
					log.Warn().
						Str("jobId", r.ID.String()).
						Str("field", f.name).
						Msg("Leaving unparseable list column untouched")
					continue
				}
				if changed {
					report.ByField[f.name]++
					dirty = true
				}
			}
			if !dirty {
				continue
			}

			report.Changed++
			if dryRun {
				continue
			}
			err := s.store.UpdateListFields(ctx, r.ID, fields[0].want, fields[1].want, fields[2].want)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					// Deleted while we were scanning
					log.Warn().Str("jobId", r.ID.String()).Msg("Job vanished during repair")
					continue
				}
				return report, fmt.Errorf("repairing job %s: %w", r.ID, err)
			}
		}

		after = batch[len(batch)-1].ID
		if len(batch) < s.batchSize {
			break
		}
	}

	report.Finished = time.Now().UTC()
	log.Info().
		Bool("dryRun", dryRun).
		Int("scanned", report.Scanned).
		Int("changed", report.Changed).
		Int("unparseable", report.Unparseable).
		Msg("Job list repair complete")
	return report, nil
}

package model

import (
	"time"

	"github.com/google/uuid"
)

// JobRecord is a job listing as stored in the jobs table.
// The list columns hold JSON array text and may be NULL or corrupted.
type JobRecord struct {
	ID               uuid.UUID
	Title            string
	Company          string
	Location         string
	JobType          string
	Source           string
	URL              string
	SalaryRange      string
	Description      string
	Requirements     *string
	Responsibilities *string
	Skills           *string
	Metadata         *string
	PostedAt         *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Job is the rendered view of a listing returned by the API
type Job struct {
	ID               uuid.UUID      `json:"id"`
	Title            string         `json:"title"`
	Company          string         `json:"company"`
	Location         string         `json:"location"`
	JobType          string         `json:"jobType"`
	Source           string         `json:"source"`
	URL              string         `json:"url,omitempty"`
	SalaryRange      string         `json:"salaryRange"`
	Description      string         `json:"description"`
	Requirements     []string       `json:"requirements"`
	Responsibilities []string       `json:"responsibilities"`
	Skills           []string       `json:"skills"`
	Metadata         map[string]any `json:"metadata"`
	PostedAt         *time.Time     `json:"postedAt,omitempty"`
	CreatedAt        time.Time      `json:"createdAt"`
	UpdatedAt        time.Time      `json:"updatedAt"`
}

// JobInput is the request body for creating or replacing a job
type JobInput struct {
	Title            string         `json:"title"`
	Company          string         `json:"company"`
	Location         string         `json:"location"`
	JobType          string         `json:"jobType"`
	Source           string         `json:"source"`
	URL              string         `json:"url"`
	SalaryRange      string         `json:"salaryRange"`
	Description      string         `json:"description"`
	Requirements     []string       `json:"requirements"`
	Responsibilities []string       `json:"responsibilities"`
	Skills           []string       `json:"skills"`
	Metadata         map[string]any `json:"metadata"`
	PostedAt         *time.Time     `json:"postedAt"`
}

// Job sources known to the scrapers. Anything else is stored as SourceOther.
const (
	SourceLinkedIn   = "linkedin"
	SourceIndeed     = "indeed"
	SourceGreenhouse = "greenhouse"
	SourceLever      = "lever"
	SourceRemotive   = "remotive"
	SourceManual     = "manual"
	SourceOther      = "other"
)

func ValidSource(s string) bool {
	switch s {
	case SourceLinkedIn, SourceIndeed, SourceGreenhouse, SourceLever,
		SourceRemotive, SourceManual, SourceOther:
		return true
	}
	return false
}

// List columns rewritten by the repair job
const (
	FieldRequirements     = "requirements"
	FieldResponsibilities = "responsibilities"
	FieldSkills           = "skills"
)

// RepairReport summarises a pass over stored list columns
type RepairReport struct {
	DryRun      bool           `json:"dryRun"`
	Scanned     int            `json:"scanned"`
	Changed     int            `json:"changed"`
	ByField     map[string]int `json:"byField"`
	Unparseable int            `json:"unparseable"`
	Finished    time.Time      `json:"finished"`
}

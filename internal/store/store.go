// Package store persists projects, reports and users. GormStore talks to Postgres;
// MemoryStore keeps everything in-process for development and tests.
package store

import (
	"context"
	"errors"
	"time"

	"roadtrack/internal/models"
)

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate indicates a unique field collided with an existing record.
	ErrDuplicate = errors.New("duplicate record")
	// ErrInvalidReference indicates a foreign key points at nothing.
	ErrInvalidReference = errors.New("referenced record does not exist")
)

// ProjectFilter narrows project queries. Empty fields are not applied.
type ProjectFilter struct {
	// Query matches name, district, city or pincode (case-insensitive substring).
	Query    string
	District string // case-insensitive substring
	City     string // case-insensitive substring
	State    string // case-insensitive substring
	Pincode  string // exact
	Status   models.ProjectStatus
	RoadType models.RoadType
}

// Stats are portfolio-wide aggregates.
type Stats struct {
	TotalProjects int64
	TotalCost     float64
	TotalReports  int64
	ByStatus      map[string]int64
	ByRoadType    map[string]int64
	ByState       map[string]int64
}

// ProjectStore reads and writes projects with their relations.
type ProjectStore interface {
	// SearchProjects returns at most limit matching projects with segments,
	// contractor and maintenance firm loaded.
	SearchProjects(ctx context.Context, f ProjectFilter, limit int) ([]models.Project, error)
	// GetProjectDetail loads one project with every relation.
	GetProjectDetail(ctx context.Context, id uint) (*models.Project, error)
	// ListProjects returns one page, newest first, with the contractor loaded,
	// and the number of matches ignoring pagination.
	ListProjects(ctx context.Context, f ProjectFilter, offset, limit int) ([]models.Project, int64, error)
	ProjectStats(ctx context.Context) (Stats, error)
	// CreateProject inserts p and its segments. Referenced firm, minister and
	// official ids must exist.
	CreateProject(ctx context.Context, p *models.Project) error
}

// ReportFilter narrows report listings. A zero ProjectID lists every project.
type ReportFilter struct {
	ProjectID uint
	Status    models.ReportStatus
	IssueType models.IssueType
}

// ReportStore reads and writes citizen reports.
type ReportStore interface {
	// ListReports returns one page of reports, newest first, and the number of
	// matches ignoring pagination.
	ListReports(ctx context.Context, f ReportFilter, offset, limit int) ([]models.PublicReport, int64, error)
	// CreateReport inserts r. The referenced project must exist.
	CreateReport(ctx context.Context, r *models.PublicReport) error
}

// UserStore reads and writes admin accounts.
type UserStore interface {
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	FindUserByID(ctx context.Context, id uint) (*models.User, error)
	UpdateLastLogin(ctx context.Context, id uint, at time.Time) error
	UserExists(ctx context.Context, email, username string) (bool, error)
	CreateUser(ctx context.Context, u *models.User) error
}

// Store is everything the service needs from persistence.
type Store interface {
	ProjectStore
	ReportStore
	UserStore
	Ping(ctx context.Context) error
}

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"roadtrack/internal/models"
)

// GormStore implements Store on Postgres.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore wraps an open, migrated connection.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func likePattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

func applyProjectFilter(q *gorm.DB, f ProjectFilter) *gorm.DB {
	if f.Query != "" {
		like := likePattern(f.Query)
		q = q.Where(
			"(projects.name ILIKE ? OR projects.district ILIKE ? OR projects.city ILIKE ? OR projects.pincode ILIKE ?)",
			like, like, like, like,
		)
	}
	if f.District != "" {
		q = q.Where("projects.district ILIKE ?", likePattern(f.District))
	}
	if f.City != "" {
		q = q.Where("projects.city ILIKE ?", likePattern(f.City))
	}
	if f.State != "" {
		q = q.Where("projects.state ILIKE ?", likePattern(f.State))
	}
	if f.Pincode != "" {
		q = q.Where("projects.pincode = ?", f.Pincode)
	}
	if f.Status != "" {
		q = q.Where("projects.status = ?", f.Status)
	}
	if f.RoadType != "" {
		q = q.Where("projects.road_type = ?", f.RoadType)
	}
	return q
}

func orderByID(db *gorm.DB) *gorm.DB {
	return db.Order("id")
}

func (s *GormStore) SearchProjects(ctx context.Context, f ProjectFilter, limit int) ([]models.Project, error) {
	var projects []models.Project
	q := applyProjectFilter(s.db.WithContext(ctx).Model(&models.Project{}), f).
		Preload("RoadSegments", orderByID).
		Preload("Contractor").
		Preload("MaintenanceFirm")
	if err := q.Order("projects.id").Limit(limit).Find(&projects).Error; err != nil {
		return nil, fmt.Errorf("search projects: %w", err)
	}
	return projects, nil
}

// GetProjectDetail preloads inside one read-only repeatable-read transaction
// so the project and its collections come from the same snapshot.
func (s *GormStore) GetProjectDetail(ctx context.Context, id uint) (*models.Project, error) {
	var project models.Project
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.
			Preload("Minister").
			Preload("ApprovingOfficial").
			Preload("Contractor").
			Preload("MaintenanceFirm").
			Preload("RoadSegments", orderByID).
			Preload("Reports", orderByID).
			Preload("Disbursements", orderByID).
			Preload("Documents", orderByID).
			First(&project, id).Error
	}, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load project %d: %w", id, err)
	}
	return &project, nil
}

func (s *GormStore) ListProjects(ctx context.Context, f ProjectFilter, offset, limit int) ([]models.Project, int64, error) {
	base := func() *gorm.DB {
		return applyProjectFilter(s.db.WithContext(ctx).Model(&models.Project{}), f)
	}

	var total int64
	if err := base().Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count projects: %w", err)
	}

	var projects []models.Project
	err := base().
		Preload("Contractor").
		Order("projects.created_at DESC").
		Order("projects.id DESC").
		Offset(offset).
		Limit(limit).
		Find(&projects).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list projects: %w", err)
	}
	return projects, total, nil
}

type statBucket struct {
	Label string
	Total int64
}

func (s *GormStore) groupCount(ctx context.Context, column string) (map[string]int64, error) {
	var rows []statBucket
	err := s.db.WithContext(ctx).Model(&models.Project{}).
		Select(column + " AS label, COUNT(*) AS total").
		Group(column).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("group projects by %s: %w", column, err)
	}
	out := make(map[string]int64, len(rows))
	for _, r := range rows {
		out[r.Label] = r.Total
	}
	return out, nil
}

// ProjectStats runs the independent aggregate queries concurrently.
func (s *GormStore) ProjectStats(ctx context.Context) (Stats, error) {
	var stats Stats
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := s.db.WithContext(gctx).Model(&models.Project{}).Count(&stats.TotalProjects).Error; err != nil {
			return fmt.Errorf("count projects: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		err := s.db.WithContext(gctx).Model(&models.Project{}).
			Select("COALESCE(SUM(sanctioned_cost), 0)").
			Scan(&stats.TotalCost).Error
		if err != nil {
			return fmt.Errorf("sum sanctioned cost: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := s.db.WithContext(gctx).Model(&models.PublicReport{}).Count(&stats.TotalReports).Error; err != nil {
			return fmt.Errorf("count reports: %w", err)
		}
		return nil
	})
	g.Go(func() (err error) {
		stats.ByStatus, err = s.groupCount(gctx, "status")
		return err
	})
	g.Go(func() (err error) {
		stats.ByRoadType, err = s.groupCount(gctx, "road_type")
		return err
	})
	g.Go(func() (err error) {
		stats.ByState, err = s.groupCount(gctx, "state")
		return err
	})

	if err := g.Wait(); err != nil {
		return Stats{}, err
	}
	return stats, nil
}

func checkReference(tx *gorm.DB, model interface{}, name string, id *uint) error {
	if id == nil {
		return nil
	}
	var n int64
	if err := tx.Model(model).Where("id = ?", *id).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s %d", ErrInvalidReference, name, *id)
	}
	return nil
}

func (s *GormStore) CreateProject(ctx context.Context, p *models.Project) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		checks := []struct {
			model interface{}
			name  string
			id    *uint
		}{
			{&models.Firm{}, "contractor_id", p.ContractorID},
			{&models.Firm{}, "maintenance_firm_id", p.MaintenanceFirmID},
			{&models.Minister{}, "minister_id", p.MinisterID},
			{&models.Official{}, "approving_official_id", p.ApprovingOfficialID},
		}
		for _, c := range checks {
			if err := checkReference(tx, c.model, c.name, c.id); err != nil {
				return err
			}
		}
		if err := tx.Create(p).Error; err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: project slug %q", ErrDuplicate, p.Slug)
			}
			return fmt.Errorf("create project: %w", err)
		}
		return nil
	})
}

func (s *GormStore) ListReports(ctx context.Context, f ReportFilter, offset, limit int) ([]models.PublicReport, int64, error) {
	base := func() *gorm.DB {
		q := s.db.WithContext(ctx).Model(&models.PublicReport{})
		if f.ProjectID != 0 {
			q = q.Where("project_id = ?", f.ProjectID)
		}
		if f.Status != "" {
			q = q.Where("status = ?", f.Status)
		}
		if f.IssueType != "" {
			q = q.Where("issue_type = ?", f.IssueType)
		}
		return q
	}

	var total int64
	if err := base().Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count reports: %w", err)
	}
	var reports []models.PublicReport
	err := base().
		Order("created_at DESC").
		Order("id DESC").
		Offset(offset).
		Limit(limit).
		Find(&reports).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list reports: %w", err)
	}
	return reports, total, nil
}

func (s *GormStore) CreateReport(ctx context.Context, r *models.PublicReport) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		id := r.ProjectID
		if err := checkReference(tx, &models.Project{}, "project_id", &id); err != nil {
			return err
		}
		if err := tx.Create(r).Error; err != nil {
			return fmt.Errorf("create report: %w", err)
		}
		return nil
	})
}

func (s *GormStore) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return &user, nil
}

func (s *GormStore) FindUserByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find user %d: %w", id, err)
	}
	return &user, nil
}

func (s *GormStore) UpdateLastLogin(ctx context.Context, id uint, at time.Time) error {
	res := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("last_login", at)
	if res.Error != nil {
		return fmt.Errorf("update last login: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) UserExists(ctx context.Context, email, username string) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("email = ? OR username = ?", email, username).
		Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("check user exists: %w", err)
	}
	return n > 0, nil
}

func (s *GormStore) CreateUser(ctx context.Context, u *models.User) error {
	if err := s.db.WithContext(ctx).Create(u).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: user %q", ErrDuplicate, u.Email)
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// isUniqueViolation recognizes Postgres error 23505 from lib/pq.
func isUniqueViolation(err error) bool {
	var pgErr *pq.Error
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

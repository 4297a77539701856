package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"roadtrack/internal/models"
)

// MemoryStore keeps projects, reports and users in-process. Filtering mirrors the
// Postgres implementation.
type MemoryStore struct {
	mu        sync.RWMutex
	nextID    uint
	projects  map[uint]models.Project
	slugs     map[string]uint
	firms     map[uint]models.Firm
	ministers map[uint]models.Minister
	officials map[uint]models.Official
	users     map[uint]models.User
	now       func() time.Time
}

// NewMemoryStore initializes an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		projects:  make(map[uint]models.Project),
		slugs:     make(map[string]uint),
		firms:     make(map[uint]models.Firm),
		ministers: make(map[uint]models.Minister),
		officials: make(map[uint]models.Official),
		users:     make(map[uint]models.User),
		now:       time.Now,
	}
}

func (m *MemoryStore) allocID() uint {
	m.nextID++
	return m.nextID
}

// PutFirm stores f, assigning an id when it has none.
func (m *MemoryStore) PutFirm(f models.Firm) models.Firm {
	m.mu.Lock()
	defer m.mu.Unlock()
	if f.ID == 0 {
		f.ID = m.allocID()
	}
	m.firms[f.ID] = f
	return f
}

// PutMinister stores mi, assigning an id when it has none.
func (m *MemoryStore) PutMinister(mi models.Minister) models.Minister {
	m.mu.Lock()
	defer m.mu.Unlock()
	if mi.ID == 0 {
		mi.ID = m.allocID()
	}
	m.ministers[mi.ID] = mi
	return mi
}

// PutOfficial stores o, assigning an id when it has none.
func (m *MemoryStore) PutOfficial(o models.Official) models.Official {
	m.mu.Lock()
	defer m.mu.Unlock()
	if o.ID == 0 {
		o.ID = m.allocID()
	}
	m.officials[o.ID] = o
	return o
}

// PutProject stores or replaces p as given, without reference checks.
// Relations set by id are resolved against stored firms, ministers and officials.
func (m *MemoryStore) PutProject(p models.Project) models.Project {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.putProjectLocked(&p)
	return p
}

func (m *MemoryStore) putProjectLocked(p *models.Project) {
	if p.ID == 0 {
		p.ID = m.allocID()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = m.now().UTC()
	}
	p.UpdatedAt = m.now().UTC()

	if p.Contractor == nil && p.ContractorID != nil {
		if f, ok := m.firms[*p.ContractorID]; ok {
			p.Contractor = &f
		}
	}
	if p.MaintenanceFirm == nil && p.MaintenanceFirmID != nil {
		if f, ok := m.firms[*p.MaintenanceFirmID]; ok {
			p.MaintenanceFirm = &f
		}
	}
	if p.Minister == nil && p.MinisterID != nil {
		if mi, ok := m.ministers[*p.MinisterID]; ok {
			p.Minister = &mi
		}
	}
	if p.ApprovingOfficial == nil && p.ApprovingOfficialID != nil {
		if o, ok := m.officials[*p.ApprovingOfficialID]; ok {
			p.ApprovingOfficial = &o
		}
	}

	for i := range p.RoadSegments {
		if p.RoadSegments[i].ID == 0 {
			p.RoadSegments[i].ID = m.allocID()
		}
		p.RoadSegments[i].ProjectID = p.ID
	}
	for i := range p.Reports {
		if p.Reports[i].ID == 0 {
			p.Reports[i].ID = m.allocID()
		}
		if p.Reports[i].CreatedAt.IsZero() {
			p.Reports[i].CreatedAt = p.CreatedAt
		}
		p.Reports[i].ProjectID = p.ID
	}
	for i := range p.Disbursements {
		p.Disbursements[i].ProjectID = p.ID
	}
	for i := range p.Documents {
		p.Documents[i].ProjectID = p.ID
	}

	if old, ok := m.projects[p.ID]; ok && old.Slug != p.Slug {
		delete(m.slugs, old.Slug)
	}
	m.projects[p.ID] = *p
	m.slugs[p.Slug] = p.ID
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

func matchesFilter(p models.Project, f ProjectFilter) bool {
	if f.Query != "" &&
		!containsFold(p.Name, f.Query) &&
		!containsFold(p.District, f.Query) &&
		!containsFold(p.City, f.Query) &&
		!containsFold(p.Pincode, f.Query) {
		return false
	}
	if f.District != "" && !containsFold(p.District, f.District) {
		return false
	}
	if f.City != "" && !containsFold(p.City, f.City) {
		return false
	}
	if f.State != "" && !containsFold(p.State, f.State) {
		return false
	}
	if f.Pincode != "" && p.Pincode != f.Pincode {
		return false
	}
	if f.Status != "" && p.Status != f.Status {
		return false
	}
	if f.RoadType != "" && p.RoadType != f.RoadType {
		return false
	}
	return true
}

func (m *MemoryStore) filtered(f ProjectFilter) []models.Project {
	out := make([]models.Project, 0)
	for _, p := range m.projects {
		if matchesFilter(p, f) {
			out = append(out, p)
		}
	}
	return out
}

func (m *MemoryStore) SearchProjects(ctx context.Context, f ProjectFilter, limit int) ([]models.Project, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	matches := m.filtered(f)
	sort.Slice(matches, func(i, j int) bool { return matches[i].ID < matches[j].ID })
	if limit >= 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

func (m *MemoryStore) GetProjectDetail(ctx context.Context, id uint) (*models.Project, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.projects[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (m *MemoryStore) ListProjects(ctx context.Context, f ProjectFilter, offset, limit int) ([]models.Project, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	matches := m.filtered(f)
	sort.Slice(matches, func(i, j int) bool {
		if !matches[i].CreatedAt.Equal(matches[j].CreatedAt) {
			return matches[i].CreatedAt.After(matches[j].CreatedAt)
		}
		return matches[i].ID > matches[j].ID
	})
	return window(matches, offset, limit), int64(len(matches)), nil
}

// window returns items[offset:offset+limit] clipped to the slice. Offsets
// outside the slice yield an empty page.
func window[T any](items []T, offset, limit int) []T {
	if offset < 0 || offset >= len(items) || limit <= 0 {
		return []T{}
	}
	if limit > len(items)-offset {
		limit = len(items) - offset
	}
	return items[offset : offset+limit]
}

func (m *MemoryStore) ProjectStats(ctx context.Context) (Stats, error) {
	if err := ctx.Err(); err != nil {
		return Stats{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := Stats{
		ByStatus:   make(map[string]int64),
		ByRoadType: make(map[string]int64),
		ByState:    make(map[string]int64),
	}
	for _, p := range m.projects {
		stats.TotalProjects++
		stats.TotalCost += p.SanctionedCost
		stats.TotalReports += int64(len(p.Reports))
		stats.ByStatus[string(p.Status)]++
		stats.ByRoadType[string(p.RoadType)]++
		stats.ByState[p.State]++
	}
	return stats, nil
}

func (m *MemoryStore) CreateProject(ctx context.Context, p *models.Project) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if p.ContractorID != nil {
		if _, ok := m.firms[*p.ContractorID]; !ok {
			return fmt.Errorf("%w: contractor_id %d", ErrInvalidReference, *p.ContractorID)
		}
	}
	if p.MaintenanceFirmID != nil {
		if _, ok := m.firms[*p.MaintenanceFirmID]; !ok {
			return fmt.Errorf("%w: maintenance_firm_id %d", ErrInvalidReference, *p.MaintenanceFirmID)
		}
	}
	if p.MinisterID != nil {
		if _, ok := m.ministers[*p.MinisterID]; !ok {
			return fmt.Errorf("%w: minister_id %d", ErrInvalidReference, *p.MinisterID)
		}
	}
	if p.ApprovingOfficialID != nil {
		if _, ok := m.officials[*p.ApprovingOfficialID]; !ok {
			return fmt.Errorf("%w: approving_official_id %d", ErrInvalidReference, *p.ApprovingOfficialID)
		}
	}
	if _, taken := m.slugs[p.Slug]; taken {
		return fmt.Errorf("%w: project slug %q", ErrDuplicate, p.Slug)
	}
	m.putProjectLocked(p)
	return nil
}

func (m *MemoryStore) ListReports(ctx context.Context, f ReportFilter, offset, limit int) ([]models.PublicReport, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	matches := make([]models.PublicReport, 0)
	for _, p := range m.projects {
		if f.ProjectID != 0 && p.ID != f.ProjectID {
			continue
		}
		for _, r := range p.Reports {
			if f.Status != "" && r.Status != f.Status {
				continue
			}
			if f.IssueType != "" && r.IssueType != f.IssueType {
				continue
			}
			matches = append(matches, r)
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		if !matches[i].CreatedAt.Equal(matches[j].CreatedAt) {
			return matches[i].CreatedAt.After(matches[j].CreatedAt)
		}
		return matches[i].ID > matches[j].ID
	})
	return window(matches, offset, limit), int64(len(matches)), nil
}

func (m *MemoryStore) CreateReport(ctx context.Context, r *models.PublicReport) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.projects[r.ProjectID]
	if !ok {
		return fmt.Errorf("%w: project_id %d", ErrInvalidReference, r.ProjectID)
	}
	r.ID = m.allocID()
	now := m.now().UTC()
	r.CreatedAt, r.UpdatedAt = now, now
	p.Reports = append(append([]models.PublicReport(nil), p.Reports...), *r)
	m.projects[p.ID] = p
	return nil
}

func (m *MemoryStore) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) FindUserByID(ctx context.Context, id uint) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (m *MemoryStore) UpdateLastLogin(ctx context.Context, id uint, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return ErrNotFound
	}
	u.LastLogin = &at
	u.UpdatedAt = m.now().UTC()
	m.users[id] = u
	return nil
}

func (m *MemoryStore) UserExists(ctx context.Context, email, username string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.userCollidesLocked(email, username), nil
}

func (m *MemoryStore) userCollidesLocked(email, username string) bool {
	for _, u := range m.users {
		if u.Email == email || u.Username == username {
			return true
		}
	}
	return false
}

func (m *MemoryStore) CreateUser(ctx context.Context, u *models.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.userCollidesLocked(u.Email, u.Username) {
		return fmt.Errorf("%w: user %q", ErrDuplicate, u.Email)
	}
	u.ID = m.allocID()
	now := m.now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now
	m.users[u.ID] = *u
	return nil
}

func (m *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

package store

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"roadtrack/internal/models"
)

func seedProject(m *MemoryStore, name, district, city string, status models.ProjectStatus) models.Project {
	return m.PutProject(models.Project{
		Name:     name,
		Slug:     fmt.Sprintf("%s-%d", name, len(m.projects)),
		District: district,
		City:     city,
		State:    "Maharashtra",
		Pincode:  "440001",
		Status:   status,
		RoadType: models.RoadCity,
	})
}

func TestSearchQueryMatchesAnyTextField(t *testing.T) {
	m := NewMemoryStore()
	seedProject(m, "Ring Road", "Nagpur", "Nagpur", models.StatusActive)
	seedProject(m, "Coastal Link", "Mumbai Suburban", "Mumbai", models.StatusActive)

	got, err := m.SearchProjects(context.Background(), ProjectFilter{Query: "nagpur"}, 100)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(got) != 1 || got[0].Name != "Ring Road" {
		t.Fatalf("unexpected results: %+v", got)
	}

	got, _ = m.SearchProjects(context.Background(), ProjectFilter{Query: "4400"}, 100)
	if len(got) != 2 {
		t.Fatalf("expected pincode substring to match both, got %d", len(got))
	}
}

func TestSearchFiltersOnlyNarrow(t *testing.T) {
	m := NewMemoryStore()
	seedProject(m, "Ring Road", "Nagpur", "Nagpur", models.StatusActive)
	seedProject(m, "Outer Ring", "Nagpur", "Kamptee", models.StatusDelayed)
	seedProject(m, "Coastal Link", "Mumbai Suburban", "Mumbai", models.StatusActive)

	ctx := context.Background()
	broad, _ := m.SearchProjects(ctx, ProjectFilter{District: "nag"}, 100)
	narrow, _ := m.SearchProjects(ctx, ProjectFilter{District: "nag", Status: models.StatusDelayed}, 100)
	if len(broad) != 2 || len(narrow) != 1 {
		t.Fatalf("got broad=%d narrow=%d", len(broad), len(narrow))
	}
	ids := map[uint]bool{}
	for _, p := range broad {
		ids[p.ID] = true
	}
	for _, p := range narrow {
		if !ids[p.ID] {
			t.Fatalf("narrowed result %d not in broader result", p.ID)
		}
	}

	none, _ := m.SearchProjects(ctx, ProjectFilter{Pincode: "4400"}, 100)
	if len(none) != 0 {
		t.Fatalf("pincode filter must match exactly, got %d", len(none))
	}
}

func TestSearchCapsResults(t *testing.T) {
	m := NewMemoryStore()
	for i := 0; i < 120; i++ {
		seedProject(m, fmt.Sprintf("road-%d", i), "Pune", "Pune", models.StatusActive)
	}
	got, err := m.SearchProjects(context.Background(), ProjectFilter{}, 100)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(got) != 100 {
		t.Fatalf("expected 100, got %d", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i-1].ID >= got[i].ID {
			t.Fatalf("results not ordered by id")
		}
	}
}

func TestListPagination(t *testing.T) {
	m := NewMemoryStore()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 45; i++ {
		m.PutProject(models.Project{
			Name:     fmt.Sprintf("road-%d", i),
			Slug:     fmt.Sprintf("road-%d", i),
			District: "Pune",
			State:    "Maharashtra",
			Status:   models.StatusActive,
			RoadType: models.RoadRural,
		})
	}
	// spread creation times so newest-first is observable
	m.mu.Lock()
	for id, p := range m.projects {
		p.CreatedAt = base.Add(time.Duration(id) * time.Minute)
		m.projects[id] = p
	}
	m.mu.Unlock()

	ctx := context.Background()
	seen := map[uint]bool{}
	var last time.Time
	for page, want := range []int{20, 20, 5, 0} {
		items, total, err := m.ListProjects(ctx, ProjectFilter{}, page*20, 20)
		if err != nil {
			t.Fatalf("list page %d: %v", page+1, err)
		}
		if total != 45 {
			t.Fatalf("total = %d", total)
		}
		if len(items) != want {
			t.Fatalf("page %d: got %d items, want %d", page+1, len(items), want)
		}
		for _, p := range items {
			if seen[p.ID] {
				t.Fatalf("project %d appears on two pages", p.ID)
			}
			seen[p.ID] = true
			if !last.IsZero() && p.CreatedAt.After(last) {
				t.Fatalf("list is not newest first")
			}
			last = p.CreatedAt
		}
	}
	if len(seen) != 45 {
		t.Fatalf("pages covered %d projects", len(seen))
	}
}

func TestCreateProjectChecksReferencesAndSlug(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()
	firm := m.PutFirm(models.Firm{Name: "Acme Infra", RegistrationID: "REG-1"})

	missing := uint(9999)
	err := m.CreateProject(ctx, &models.Project{Name: "A", Slug: "a", ContractorID: &missing})
	if !errors.Is(err, ErrInvalidReference) {
		t.Fatalf("expected invalid reference, got %v", err)
	}

	p := &models.Project{Name: "A", Slug: "a", ContractorID: &firm.ID}
	if err := m.CreateProject(ctx, p); err != nil {
		t.Fatalf("create: %v", err)
	}
	if p.ID == 0 || p.Contractor == nil || p.Contractor.Name != "Acme Infra" {
		t.Fatalf("contractor not attached: %+v", p)
	}

	err = m.CreateProject(ctx, &models.Project{Name: "A again", Slug: "a"})
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected duplicate, got %v", err)
	}
}

func TestUserLifecycle(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()
	u := &models.User{Email: "a@example.org", Username: "alice", Role: models.RoleAdmin, IsActive: true}
	if err := m.CreateUser(ctx, u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	if err := m.CreateUser(ctx, &models.User{Email: "b@example.org", Username: "alice"}); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected duplicate username, got %v", err)
	}
	exists, _ := m.UserExists(ctx, "a@example.org", "nobody")
	if !exists {
		t.Fatalf("expected email collision")
	}

	at := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	if err := m.UpdateLastLogin(ctx, u.ID, at); err != nil {
		t.Fatalf("update last login: %v", err)
	}
	got, err := m.FindUserByEmail(ctx, "a@example.org")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.LastLogin == nil || !got.LastLogin.Equal(at) {
		t.Fatalf("last login not recorded: %v", got.LastLogin)
	}
	if _, err := m.FindUserByID(ctx, 4242); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestListProjectsOffsetOutOfRange(t *testing.T) {
	m := NewMemoryStore()
	for i := 0; i < 3; i++ {
		seedProject(m, fmt.Sprintf("Road %d", i), "Pune", "Pune", models.StatusActive)
	}
	for _, offset := range []int{-5, 3, math.MaxInt} {
		got, total, err := m.ListProjects(context.Background(), ProjectFilter{}, offset, 10)
		if err != nil {
			t.Fatalf("offset %d: %v", offset, err)
		}
		if total != 3 || got == nil || len(got) != 0 {
			t.Fatalf("offset %d: got %d items, total %d", offset, len(got), total)
		}
	}
}

func TestReportsLifecycle(t *testing.T) {
	m := NewMemoryStore()
	p := seedProject(m, "Ring Road", "Nagpur", "Nagpur", models.StatusActive)
	ctx := context.Background()

	err := m.CreateReport(ctx, &models.PublicReport{ProjectID: p.ID + 1000, IssueType: models.IssueDebris, Description: "rubble"})
	if !errors.Is(err, ErrInvalidReference) {
		t.Fatalf("expected invalid reference, got %v", err)
	}

	first := &models.PublicReport{ProjectID: p.ID, IssueType: models.IssuePothole, Description: "hole", Status: models.ReportSubmitted}
	second := &models.PublicReport{ProjectID: p.ID, IssueType: models.IssueDebris, Description: "rubble", Status: models.ReportSubmitted}
	for _, r := range []*models.PublicReport{first, second} {
		if err := m.CreateReport(ctx, r); err != nil {
			t.Fatalf("create report: %v", err)
		}
	}

	got, total, err := m.ListReports(ctx, ReportFilter{ProjectID: p.ID}, 0, 10)
	if err != nil || total != 2 || got[0].ID != second.ID {
		t.Fatalf("unexpected listing: %+v total=%d err=%v", got, total, err)
	}
	got, total, _ = m.ListReports(ctx, ReportFilter{IssueType: models.IssuePothole}, 0, 10)
	if total != 1 || got[0].ID != first.ID {
		t.Fatalf("issue filter: %+v", got)
	}

	detail, _ := m.GetProjectDetail(ctx, p.ID)
	stats, _ := m.ProjectStats(ctx)
	if len(detail.Reports) != 2 || stats.TotalReports != 2 {
		t.Fatalf("reports not counted: detail=%d stats=%d", len(detail.Reports), stats.TotalReports)
	}
}

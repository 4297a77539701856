package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"roadtrack/internal/auth"
	"roadtrack/internal/cache"
	"roadtrack/internal/controllers"
	"roadtrack/internal/geo"
	"roadtrack/internal/models"
	"roadtrack/internal/services"
	"roadtrack/internal/store"
)

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("down") }

type testServer struct {
	router *gin.Engine
	store  *store.MemoryStore
	ring   models.Project
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mem := store.NewMemoryStore()
	ctx := context.Background()
	for _, u := range []struct {
		email string
		role  models.Role
	}{
		{"root@roads.gov.in", models.RoleSuperAdmin},
		{"clerk@roads.gov.in", models.RoleDataEntry},
		{"viewer@roads.gov.in", models.RoleViewer},
	} {
		hash, err := auth.HashPassword("password-123")
		if err != nil {
			t.Fatalf("hash: %v", err)
		}
		user := &models.User{Email: u.email, Username: strings.Split(u.email, "@")[0], HashedPassword: hash, Role: u.role, IsActive: true}
		if err := mem.CreateUser(ctx, user); err != nil {
			t.Fatalf("create user: %v", err)
		}
	}

	seg, err := geo.LineStringWKB([][2]float64{{79.08, 21.14}, {79.10, 21.15}})
	if err != nil {
		t.Fatalf("wkb: %v", err)
	}
	ring := mem.PutProject(models.Project{
		Name: "Nagpur Ring Road", Slug: "nagpur-ring-road",
		Status: models.StatusActive, RoadType: models.RoadCity,
		District: "Nagpur", City: "Nagpur", State: "Maharashtra", Pincode: "440001",
		SanctionedCost: 1500000,
		RoadSegments:   []models.RoadSegment{{SegmentName: "North arc", Geometry: seg}},
	})

	tokens, err := auth.NewTokenIssuer("test-secret", "roadtrack", 30*time.Minute)
	if err != nil {
		t.Fatalf("issuer: %v", err)
	}
	c := cache.NewMemoryCache()
	opts := services.ProjectServiceOptions{StatsTTL: time.Hour, DefaultPageSize: 20, MaxPageSize: 100}
	router := SetupRouter(Deps{
		Auth:     auth.NewService(mem, tokens),
		Projects: services.NewProjectService(mem, c, opts),
		Reports:  services.NewReportService(mem, c, opts),
		Admin:    services.NewAdminService(mem, c),
		Health:   controllers.NewHealthController(controllers.AppInfo{Name: "RoadTrack", Version: "test"}, map[string]controllers.Pinger{"store": mem}),
	})
	return &testServer{router: router, store: mem, ring: ring}
}

func (s *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) login(t *testing.T, email string) string {
	t.Helper()
	form := url.Values{"username": {email}, "password": {"password-123"}}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/auth/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := s.do(req)
	if w.Code != http.StatusOK {
		t.Fatalf("login %s: %d %s", email, w.Code, w.Body.String())
	}
	var body struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode login: %v", err)
	}
	if body.TokenType != "bearer" || body.AccessToken == "" {
		t.Fatalf("unexpected login body: %s", w.Body.String())
	}
	return body.AccessToken
}

func jsonRequest(method, path, token string, payload any) *http.Request {
	b, _ := json.Marshal(payload)
	req := httptest.NewRequest(method, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func TestPublicEndpoints(t *testing.T) {
	s := newTestServer(t)

	w := s.do(httptest.NewRequest(http.MethodGet, "/api/v1/projects/search?q=ring", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("search: %d %s", w.Code, w.Body.String())
	}
	var fc geo.FeatureCollection
	if err := json.Unmarshal(w.Body.Bytes(), &fc); err != nil {
		t.Fatalf("decode search: %v", err)
	}
	if len(fc.Features) != 1 || fc.Features[0].ID != s.ring.ID {
		t.Fatalf("unexpected features: %s", w.Body.String())
	}
	if w.Header().Get("X-Process-Time") == "" || w.Header().Get("X-Request-Id") == "" {
		t.Fatalf("missing timing or request id headers")
	}

	w = s.do(httptest.NewRequest(http.MethodGet, "/api/v1/projects/"+itoa(s.ring.ID), nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"slug":"nagpur-ring-road"`) {
		t.Fatalf("detail: %d %s", w.Code, w.Body.String())
	}

	w = s.do(httptest.NewRequest(http.MethodGet, "/api/v1/projects?page=1&page_size=10", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"contractor_name":"N/A"`) {
		t.Fatalf("list: %d %s", w.Code, w.Body.String())
	}

	w = s.do(httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"total_projects":1`) {
		t.Fatalf("stats: %d %s", w.Code, w.Body.String())
	}
}

func itoa(id uint) string {
	b, _ := json.Marshal(id)
	return string(b)
}

func TestPublicEndpointErrors(t *testing.T) {
	s := newTestServer(t)
	cases := []struct {
		path string
		code int
	}{
		{"/api/v1/projects/99999", http.StatusNotFound},
		{"/api/v1/projects/abc", http.StatusBadRequest},
		{"/api/v1/projects?page=0", http.StatusBadRequest},
		{"/api/v1/projects?page_size=101", http.StatusBadRequest},
		{"/api/v1/projects?page=two", http.StatusBadRequest},
		{"/api/v1/projects/search?status=finished", http.StatusBadRequest},
	}
	for _, tc := range cases {
		w := s.do(httptest.NewRequest(http.MethodGet, tc.path, nil))
		if w.Code != tc.code {
			t.Fatalf("%s: got %d want %d (%s)", tc.path, w.Code, tc.code, w.Body.String())
		}
		if !strings.Contains(w.Body.String(), `"error"`) {
			t.Fatalf("%s: error body missing: %s", tc.path, w.Body.String())
		}
	}
}

func TestLoginFailures(t *testing.T) {
	s := newTestServer(t)
	form := url.Values{"username": {"root@roads.gov.in"}, "password": {"nope"}}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/auth/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := s.do(req)
	if w.Code != http.StatusUnauthorized || w.Header().Get("WWW-Authenticate") != "Bearer" {
		t.Fatalf("bad password: %d %v", w.Code, w.Header())
	}

	req = httptest.NewRequest(http.MethodPost, "/api/v1/admin/auth/login", strings.NewReader(""))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if w := s.do(req); w.Code != http.StatusBadRequest {
		t.Fatalf("empty form: %d", w.Code)
	}
}

func TestMeAndRegisterAuthorization(t *testing.T) {
	s := newTestServer(t)

	w := s.do(httptest.NewRequest(http.MethodGet, "/api/v1/admin/auth/me", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous me: %d", w.Code)
	}

	clerk := s.login(t, "clerk@roads.gov.in")
	w = s.do(jsonRequest(http.MethodGet, "/api/v1/admin/auth/me", clerk, nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"role":"data_entry"`) {
		t.Fatalf("me: %d %s", w.Code, w.Body.String())
	}
	if strings.Contains(w.Body.String(), "hashed_password") {
		t.Fatalf("me leaks the hash")
	}

	newUser := map[string]string{"email": "fresh@roads.gov.in", "username": "fresh", "password": "long-enough", "role": "viewer"}
	if w := s.do(jsonRequest(http.MethodPost, "/api/v1/admin/auth/register", clerk, newUser)); w.Code != http.StatusForbidden {
		t.Fatalf("clerk register: %d", w.Code)
	}

	root := s.login(t, "root@roads.gov.in")
	if w := s.do(jsonRequest(http.MethodPost, "/api/v1/admin/auth/register", root, newUser)); w.Code != http.StatusCreated {
		t.Fatalf("root register: %d %s", w.Code, w.Body.String())
	}
	w = s.do(jsonRequest(http.MethodPost, "/api/v1/admin/auth/register", root, newUser))
	if w.Code != http.StatusBadRequest || !strings.Contains(w.Body.String(), "already registered") {
		t.Fatalf("duplicate register: %d %s", w.Code, w.Body.String())
	}

	if w := s.do(jsonRequest(http.MethodGet, "/api/v1/admin/auth/me", "not-a-token", nil)); w.Code != http.StatusUnauthorized {
		t.Fatalf("bad token me: %d", w.Code)
	}
}

func TestAdminCreateProject(t *testing.T) {
	s := newTestServer(t)
	payload := map[string]any{
		"name":      "Wardha Road Widening",
		"road_type": "state_highway",
		"district":  "Nagpur",
		"state":     "Maharashtra",
		"road_segments": []map[string]any{{
			"segment_name": "Airport stretch",
			"geometry":     map[string]any{"type": "LineString", "coordinates": [][]float64{{79.07, 21.12}, {79.06, 21.09}}},
		}},
	}

	viewer := s.login(t, "viewer@roads.gov.in")
	if w := s.do(jsonRequest(http.MethodPost, "/api/v1/admin/projects", viewer, payload)); w.Code != http.StatusForbidden {
		t.Fatalf("viewer create: %d", w.Code)
	}
	if w := s.do(jsonRequest(http.MethodPost, "/api/v1/admin/projects", "", payload)); w.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous create: %d", w.Code)
	}

	clerk := s.login(t, "clerk@roads.gov.in")
	w := s.do(jsonRequest(http.MethodPost, "/api/v1/admin/projects", clerk, payload))
	if w.Code != http.StatusCreated || !strings.Contains(w.Body.String(), `"slug":"wardha-road-widening"`) {
		t.Fatalf("create: %d %s", w.Code, w.Body.String())
	}
	if w := s.do(jsonRequest(http.MethodPost, "/api/v1/admin/projects", clerk, payload)); w.Code != http.StatusConflict {
		t.Fatalf("duplicate create: %d", w.Code)
	}

	w = s.do(httptest.NewRequest(http.MethodGet, "/api/v1/projects/search?q=wardha", nil))
	if !strings.Contains(w.Body.String(), "Airport stretch") {
		t.Fatalf("created project not searchable: %s", w.Body.String())
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	w := s.do(httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"status":"healthy"`) {
		t.Fatalf("health: %d %s", w.Code, w.Body.String())
	}

	hc := controllers.NewHealthController(controllers.AppInfo{Name: "RoadTrack"}, map[string]controllers.Pinger{"store": failingPinger{}})
	r := gin.New()
	r.GET("/health", hc.Health)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("degraded health: %d", w.Code)
	}
}

func TestHugePageIsEmpty(t *testing.T) {
	s := newTestServer(t)
	for _, path := range []string{
		"/api/v1/projects?page=92233720368547760&page_size=100",
		"/api/v1/reports?page=9223372036854775807&page_size=100",
	} {
		w := s.do(httptest.NewRequest(http.MethodGet, path, nil))
		if w.Code != http.StatusOK {
			t.Fatalf("%s: %d %s", path, w.Code, w.Body.String())
		}
		var page struct {
			Items []json.RawMessage `json:"items"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &page); err != nil || page.Items == nil || len(page.Items) != 0 {
			t.Fatalf("%s: expected an empty page, got %s", path, w.Body.String())
		}
	}
}

func TestSubmitAndListReports(t *testing.T) {
	s := newTestServer(t)
	detailPath := "/api/v1/projects/" + itoa(s.ring.ID)

	// Warm the detail and stats caches so the submission has to invalidate them.
	var detail services.ProjectDetail
	w := s.do(httptest.NewRequest(http.MethodGet, detailPath, nil))
	if err := json.Unmarshal(w.Body.Bytes(), &detail); err != nil || detail.ReportsCount != 0 {
		t.Fatalf("detail before: %d %s", w.Code, w.Body.String())
	}
	var stats services.ProjectStats
	w = s.do(httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil))
	if err := json.Unmarshal(w.Body.Bytes(), &stats); err != nil || stats.TotalReports != 0 {
		t.Fatalf("stats before: %d %s", w.Code, w.Body.String())
	}

	w = s.do(jsonRequest(http.MethodPost, "/api/v1/reports", "", map[string]any{
		"project_id":       s.ring.ID,
		"issue_type":       "Pothole",
		"description":      "  Deep pothole near the flyover  ",
		"reporter_name":    "A. Citizen",
		"reporter_contact": "98xxxxxx10",
	}))
	if w.Code != http.StatusCreated {
		t.Fatalf("submit: %d %s", w.Code, w.Body.String())
	}
	var created services.ReportView
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if created.Status != "submitted" || created.IssueType != "pothole" || created.Description != "Deep pothole near the flyover" {
		t.Fatalf("unexpected report: %s", w.Body.String())
	}
	if strings.Contains(w.Body.String(), "98xxxxxx10") {
		t.Fatalf("reporter contact leaked: %s", w.Body.String())
	}

	w = s.do(httptest.NewRequest(http.MethodGet, detailPath, nil))
	if err := json.Unmarshal(w.Body.Bytes(), &detail); err != nil || detail.ReportsCount != 1 {
		t.Fatalf("detail after: %d %s", w.Code, w.Body.String())
	}
	w = s.do(httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil))
	if err := json.Unmarshal(w.Body.Bytes(), &stats); err != nil || stats.TotalReports != 1 {
		t.Fatalf("stats after: %d %s", w.Code, w.Body.String())
	}

	var page services.ReportPage
	w = s.do(httptest.NewRequest(http.MethodGet, "/api/v1/reports?project_id="+itoa(s.ring.ID), nil))
	if err := json.Unmarshal(w.Body.Bytes(), &page); err != nil {
		t.Fatalf("decode list: %d %s", w.Code, w.Body.String())
	}
	if page.Total != 1 || len(page.Items) != 1 || page.Items[0].ID != created.ID || page.TotalPages != 1 {
		t.Fatalf("unexpected list: %s", w.Body.String())
	}
}

func TestReportErrors(t *testing.T) {
	s := newTestServer(t)
	cases := []struct {
		req  *http.Request
		code int
	}{
		{httptest.NewRequest(http.MethodGet, "/api/v1/reports?project_id=abc", nil), http.StatusBadRequest},
		{httptest.NewRequest(http.MethodGet, "/api/v1/reports?status=closed", nil), http.StatusBadRequest},
		{httptest.NewRequest(http.MethodGet, "/api/v1/reports?page=0", nil), http.StatusBadRequest},
		{jsonRequest(http.MethodPost, "/api/v1/reports", "", map[string]any{
			"project_id": s.ring.ID, "issue_type": "meteor", "description": "crater",
		}), http.StatusBadRequest},
		{jsonRequest(http.MethodPost, "/api/v1/reports", "", map[string]any{
			"project_id": s.ring.ID, "issue_type": "debris", "description": "   ",
		}), http.StatusBadRequest},
		{jsonRequest(http.MethodPost, "/api/v1/reports", "", map[string]any{
			"project_id": 99999, "issue_type": "debris", "description": "rubble",
		}), http.StatusNotFound},
	}
	for _, tc := range cases {
		w := s.do(tc.req)
		if w.Code != tc.code {
			t.Fatalf("%s %s: got %d want %d (%s)", tc.req.Method, tc.req.URL, w.Code, tc.code, w.Body.String())
		}
	}
}

func TestPanicRecovery(t *testing.T) {
	s := newTestServer(t)
	s.router.GET("/boom", func(*gin.Context) { panic("kaboom") })
	w := s.do(httptest.NewRequest(http.MethodGet, "/boom", nil))
	if w.Code != http.StatusInternalServerError || strings.Contains(w.Body.String(), "kaboom") {
		t.Fatalf("panic: %d %s", w.Code, w.Body.String())
	}
}

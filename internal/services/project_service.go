// Package services implements the public project queries and the admin
// write path on top of the store, the cache and the geometry converter.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"roadtrack/internal/apperr"
	"roadtrack/internal/cache"
	"roadtrack/internal/geo"
	"roadtrack/internal/models"
	"roadtrack/internal/store"
)

const (
	SearchLimit = 100
	SearchTTL   = 30 * time.Minute
	DetailTTL   = 15 * time.Minute

	searchNamespace = "search"
	detailNamespace = "project"
	statsNamespace  = "stats"
)

// StatsKey is the cache key of the portfolio aggregates.
var StatsKey = cache.Key(statsNamespace)

func detailKey(id uint) string {
	return cache.Key(detailNamespace, cache.F(strconv.FormatUint(uint64(id), 10)))
}

// SearchParams are the raw search filters. Empty strings are absent.
type SearchParams struct {
	Query    string
	District string
	City     string
	State    string
	Pincode  string
	Status   string
	RoadType string
}

// ListParams select one page of the listing.
type ListParams struct {
	Page     int
	PageSize int
	Status   string
	RoadType string
	District string
	State    string
}

type ProjectServiceOptions struct {
	StatsTTL        time.Duration
	DefaultPageSize int
	MaxPageSize     int
}

// ProjectService answers the public read endpoints.
type ProjectService struct {
	projects store.ProjectStore
	cache    cache.Cache
	opts     ProjectServiceOptions
}

func (o ProjectServiceOptions) withDefaults() ProjectServiceOptions {
	if o.StatsTTL <= 0 {
		o.StatsTTL = time.Hour
	}
	if o.MaxPageSize <= 0 {
		o.MaxPageSize = 100
	}
	if o.DefaultPageSize <= 0 || o.DefaultPageSize > o.MaxPageSize {
		o.DefaultPageSize = 20
	}
	return o
}

func NewProjectService(projects store.ProjectStore, c cache.Cache, opts ProjectServiceOptions) *ProjectService {
	return &ProjectService{projects: projects, cache: c, opts: opts.withDefaults()}
}

func (s *ProjectService) DefaultPageSize() int { return s.opts.DefaultPageSize }

func parseEnums(status, roadType string) (models.ProjectStatus, models.RoadType, error) {
	var st models.ProjectStatus
	var rt models.RoadType
	var err error
	if status != "" {
		if st, err = models.ParseProjectStatus(status); err != nil {
			return "", "", apperr.Validation(err.Error())
		}
	}
	if roadType != "" {
		if rt, err = models.ParseRoadType(roadType); err != nil {
			return "", "", apperr.Validation(err.Error())
		}
	}
	return st, rt, nil
}

// loadCached decodes a cached entry into dst. Backend failures and corrupt
// entries count as misses.
func (s *ProjectService) loadCached(ctx context.Context, key string, dst any) bool {
	res, err := s.cache.Get(ctx, key)
	if err != nil {
		logrus.WithError(err).WithField("key", key).Warn("cache get failed, computing")
		return false
	}
	if !res.Hit {
		return false
	}
	if err := json.Unmarshal(res.Value, dst); err != nil {
		logrus.WithError(err).WithField("key", key).Warn("discarding undecodable cache entry")
		return false
	}
	return true
}

func (s *ProjectService) storeCached(ctx context.Context, key string, v any, ttl time.Duration) {
	b, err := json.Marshal(v)
	if err != nil {
		logrus.WithError(err).WithField("key", key).Error("cache encode failed")
		return
	}
	if err := s.cache.Set(ctx, key, b, ttl); err != nil {
		logrus.WithError(err).WithField("key", key).Warn("cache set failed")
	}
}

// Search returns every segment of the first SearchLimit matching projects as
// a FeatureCollection.
func (s *ProjectService) Search(ctx context.Context, p SearchParams) (geo.FeatureCollection, error) {
	status, roadType, err := parseEnums(p.Status, p.RoadType)
	if err != nil {
		return geo.FeatureCollection{}, err
	}

	key := cache.Key(searchNamespace,
		cache.Opt(p.Query), cache.Opt(p.District), cache.Opt(p.City), cache.Opt(p.State),
		cache.Opt(p.Pincode), cache.Opt(string(status)), cache.Opt(string(roadType)),
	)
	var out geo.FeatureCollection
	if s.loadCached(ctx, key, &out) {
		return out, nil
	}

	projects, err := s.projects.SearchProjects(ctx, store.ProjectFilter{
		Query:    p.Query,
		District: p.District,
		City:     p.City,
		State:    p.State,
		Pincode:  p.Pincode,
		Status:   status,
		RoadType: roadType,
	}, SearchLimit)
	if err != nil {
		return geo.FeatureCollection{}, apperr.Internal("search projects", err)
	}

	features := make([]geo.Feature, 0)
	for _, project := range projects {
		fs, err := geo.ProjectFeatures(project)
		if err != nil {
			return geo.FeatureCollection{}, apperr.Internal("convert geometry", err)
		}
		features = append(features, fs...)
	}
	out = geo.NewFeatureCollection(features)
	s.storeCached(ctx, key, out, SearchTTL)
	return out, nil
}

// Detail loads one project with all relations.
func (s *ProjectService) Detail(ctx context.Context, id uint) (ProjectDetail, error) {
	key := detailKey(id)
	var out ProjectDetail
	if s.loadCached(ctx, key, &out) {
		return out, nil
	}

	project, err := s.projects.GetProjectDetail(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ProjectDetail{}, apperr.NotFound("Project not found")
		}
		return ProjectDetail{}, apperr.Internal("load project", err)
	}
	out, err = newProjectDetail(project)
	if err != nil {
		return ProjectDetail{}, apperr.Internal("convert geometry", err)
	}
	s.storeCached(ctx, key, out, DetailTTL)
	return out, nil
}

func checkPage(page, size, maxSize int) error {
	if page < 1 {
		return apperr.Validation("page must be >= 1")
	}
	if size < 1 || size > maxSize {
		return apperr.Validation("page_size must be between 1 and " + strconv.Itoa(maxSize))
	}
	return nil
}

// pageOffset returns the number of rows before page. It saturates at
// math.MaxInt, which every store treats as past the end.
func pageOffset(page, size int) int {
	if page-1 > math.MaxInt/size {
		return math.MaxInt
	}
	return (page - 1) * size
}

func totalPages(total int64, size int) int64 {
	n := int64(size)
	return (total + n - 1) / n
}

// List returns one page of projects, newest first. It is never cached.
func (s *ProjectService) List(ctx context.Context, p ListParams) (ProjectPage, error) {
	if err := checkPage(p.Page, p.PageSize, s.opts.MaxPageSize); err != nil {
		return ProjectPage{}, err
	}
	status, roadType, err := parseEnums(p.Status, p.RoadType)
	if err != nil {
		return ProjectPage{}, err
	}

	projects, total, err := s.projects.ListProjects(ctx, store.ProjectFilter{
		District: p.District,
		State:    p.State,
		Status:   status,
		RoadType: roadType,
	}, pageOffset(p.Page, p.PageSize), p.PageSize)
	if err != nil {
		return ProjectPage{}, apperr.Internal("list projects", err)
	}

	items := make([]ProjectListItem, 0, len(projects))
	for _, project := range projects {
		items = append(items, newListItem(project))
	}
	return ProjectPage{
		Items:      items,
		Total:      total,
		Page:       p.Page,
		PageSize:   p.PageSize,
		TotalPages: totalPages(total, p.PageSize),
	}, nil
}

// Stats returns portfolio-wide aggregates.
func (s *ProjectService) Stats(ctx context.Context) (ProjectStats, error) {
	var out ProjectStats
	if s.loadCached(ctx, StatsKey, &out) {
		return out, nil
	}
	st, err := s.projects.ProjectStats(ctx)
	if err != nil {
		return ProjectStats{}, apperr.Internal("project stats", err)
	}
	out = ProjectStats{
		TotalProjects:     st.TotalProjects,
		TotalCost:         st.TotalCost,
		CompletedProjects: st.ByStatus[string(models.StatusCompleted)],
		ActiveProjects:    st.ByStatus[string(models.StatusActive)],
		DelayedProjects:   st.ByStatus[string(models.StatusDelayed)],
		TotalReports:      st.TotalReports,
		ByStatus:          nonNil(st.ByStatus),
		ByRoadType:        nonNil(st.ByRoadType),
		ByState:           nonNil(st.ByState),
	}
	s.storeCached(ctx, StatsKey, out, s.opts.StatsTTL)
	return out, nil
}

func nonNil(m map[string]int64) map[string]int64 {
	if m == nil {
		return map[string]int64{}
	}
	return m
}

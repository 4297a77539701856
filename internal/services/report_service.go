package services

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"roadtrack/internal/apperr"
	"roadtrack/internal/cache"
	"roadtrack/internal/models"
	"roadtrack/internal/store"
)

const maxReportDescription = 2000

type ReportListParams struct {
	ProjectID uint
	Page      int
	PageSize  int
	Status    string
	IssueType string
}

type SubmitReportInput struct {
	ProjectID           uint   `json:"project_id"`
	IssueType           string `json:"issue_type"`
	Description         string `json:"description"`
	LocationDescription string `json:"location_description"`
	ReporterName        string `json:"reporter_name"`
	ReporterContact     string `json:"reporter_contact"`
	PhotoURL            string `json:"photo_url"`
}

// ReportView is the public projection of a report. Reporter contact
// details are never exposed.
type ReportView struct {
	ID                  uint       `json:"id"`
	ProjectID           uint       `json:"project_id"`
	IssueType           string     `json:"issue_type"`
	Description         string     `json:"description"`
	LocationDescription string     `json:"location_description,omitempty"`
	ReporterName        string     `json:"reporter_name,omitempty"`
	Status              string     `json:"status"`
	PhotoURL            string     `json:"photo_url,omitempty"`
	UpvotesCount        int        `json:"upvotes_count"`
	CreatedAt           time.Time  `json:"created_at"`
	ResolutionDate      *time.Time `json:"resolution_date"`
}

type ReportPage struct {
	Items      []ReportView `json:"items"`
	Total      int64        `json:"total"`
	Page       int          `json:"page"`
	PageSize   int          `json:"page_size"`
	TotalPages int64        `json:"total_pages"`
}

func newReportView(r models.PublicReport) ReportView {
	return ReportView{
		ID:                  r.ID,
		ProjectID:           r.ProjectID,
		IssueType:           string(r.IssueType),
		Description:         r.Description,
		LocationDescription: r.LocationDescription,
		ReporterName:        r.ReporterName,
		Status:              string(r.Status),
		PhotoURL:            r.PhotoURL,
		UpvotesCount:        r.UpvotesCount,
		CreatedAt:           r.CreatedAt,
		ResolutionDate:      r.ResolutionDate,
	}
}

// ReportService lists and accepts citizen reports. Both operations are public.
type ReportService struct {
	reports store.ReportStore
	cache   cache.Cache
	opts    ProjectServiceOptions
}

// NewReportService shares the page size limits of the project listing.
func NewReportService(reports store.ReportStore, c cache.Cache, opts ProjectServiceOptions) *ReportService {
	return &ReportService{reports: reports, cache: c, opts: opts.withDefaults()}
}

func (s *ReportService) DefaultPageSize() int { return s.opts.DefaultPageSize }

// List returns one page of reports, newest first. It is never cached.
func (s *ReportService) List(ctx context.Context, p ReportListParams) (ReportPage, error) {
	if err := checkPage(p.Page, p.PageSize, s.opts.MaxPageSize); err != nil {
		return ReportPage{}, err
	}
	f := store.ReportFilter{ProjectID: p.ProjectID}
	if p.Status != "" {
		st, err := models.ParseReportStatus(p.Status)
		if err != nil {
			return ReportPage{}, apperr.Validation(err.Error())
		}
		f.Status = st
	}
	if p.IssueType != "" {
		it, err := models.ParseIssueType(p.IssueType)
		if err != nil {
			return ReportPage{}, apperr.Validation(err.Error())
		}
		f.IssueType = it
	}

	reports, total, err := s.reports.ListReports(ctx, f, pageOffset(p.Page, p.PageSize), p.PageSize)
	if err != nil {
		return ReportPage{}, apperr.Internal("list reports", err)
	}
	items := make([]ReportView, 0, len(reports))
	for _, r := range reports {
		items = append(items, newReportView(r))
	}
	return ReportPage{
		Items:      items,
		Total:      total,
		Page:       p.Page,
		PageSize:   p.PageSize,
		TotalPages: totalPages(total, p.PageSize),
	}, nil
}

func (in SubmitReportInput) toModel() (*models.PublicReport, error) {
	if in.ProjectID == 0 {
		return nil, apperr.Validation("project_id is required")
	}
	if strings.TrimSpace(in.IssueType) == "" {
		return nil, apperr.Validation("issue_type is required")
	}
	issue, err := models.ParseIssueType(in.IssueType)
	if err != nil {
		return nil, apperr.Validation(err.Error())
	}
	desc := strings.TrimSpace(in.Description)
	if desc == "" {
		return nil, apperr.Validation("description is required")
	}
	if utf8.RuneCountInString(desc) > maxReportDescription {
		return nil, apperr.Validation("description is too long")
	}
	photo := strings.TrimSpace(in.PhotoURL)
	if photo != "" {
		u, err := url.Parse(photo)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return nil, apperr.Validation("photo_url must be an http(s) URL")
		}
	}
	return &models.PublicReport{
		ProjectID:           in.ProjectID,
		IssueType:           issue,
		Description:         desc,
		LocationDescription: strings.TrimSpace(in.LocationDescription),
		ReporterName:        strings.TrimSpace(in.ReporterName),
		ReporterContact:     strings.TrimSpace(in.ReporterContact),
		Status:              models.ReportSubmitted,
		PhotoURL:            photo,
	}, nil
}

// Submit files a new report in the submitted state. The project's cached
// detail and the portfolio stats are dropped since both count reports.
func (s *ReportService) Submit(ctx context.Context, in SubmitReportInput) (ReportView, error) {
	r, err := in.toModel()
	if err != nil {
		return ReportView{}, err
	}
	if err := s.reports.CreateReport(ctx, r); err != nil {
		if errors.Is(err, store.ErrInvalidReference) {
			return ReportView{}, apperr.NotFound("Project not found")
		}
		return ReportView{}, apperr.Internal("create report", err)
	}

	if err := s.cache.Delete(ctx, StatsKey, detailKey(r.ProjectID)); err != nil {
		logrus.WithError(err).WithField("project_id", r.ProjectID).Warn("report cache invalidation failed")
	}
	logrus.WithFields(logrus.Fields{
		"report_id":  r.ID,
		"project_id": r.ProjectID,
		"issue_type": r.IssueType,
	}).Info("report submitted")
	return newReportView(*r), nil
}

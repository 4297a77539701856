package services

import (
	"time"

	gjson "github.com/twpayne/go-geom/encoding/geojson"

	"roadtrack/internal/geo"
	"roadtrack/internal/models"
)

// Response projections. These are what gets cached and rendered, so they
// carry plain values only.

type MinisterView struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	Party     string `json:"party,omitempty"`
	Portfolio string `json:"portfolio,omitempty"`
}

type OfficialView struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Designation string `json:"designation"`
	Department  string `json:"department,omitempty"`
}

type FirmView struct {
	ID                uint     `json:"id"`
	Name              string   `json:"name"`
	RegistrationID    string   `json:"registration_id"`
	Type              string   `json:"type"`
	PerformanceRating *float64 `json:"performance_rating,omitempty"`
	IsBlacklisted     bool     `json:"is_blacklisted"`
}

type SegmentView struct {
	ID          uint            `json:"id"`
	SegmentName string          `json:"segment_name"`
	LengthKm    float64         `json:"length_km"`
	StartPoint  string          `json:"start_point"`
	EndPoint    string          `json:"end_point"`
	Geometry    *gjson.Geometry `json:"geometry"`
}

// ProjectDetail is a project with its full accountability chain.
type ProjectDetail struct {
	ID             uint       `json:"id"`
	Name           string     `json:"name"`
	Slug           string     `json:"slug"`
	Description    string     `json:"description"`
	Status         string     `json:"status"`
	RoadType       string     `json:"road_type"`
	District       string     `json:"district"`
	City           string     `json:"city"`
	State          string     `json:"state"`
	Pincode        string     `json:"pincode"`
	SanctionedCost float64    `json:"sanctioned_cost"`
	TotalDisbursed float64    `json:"total_disbursed"`
	ApprovalDate   *time.Time `json:"approval_date"`
	StartDate      *time.Time `json:"start_date"`
	ProposedEnd    *time.Time `json:"proposed_end_date"`
	ActualEnd      *time.Time `json:"actual_end_date"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`

	Minister          *MinisterView `json:"minister"`
	ApprovingOfficial *OfficialView `json:"approving_official"`
	Contractor        *FirmView     `json:"contractor"`
	MaintenanceFirm   *FirmView     `json:"maintenance_firm"`

	RoadSegments       []SegmentView `json:"road_segments"`
	ReportsCount       int           `json:"reports_count"`
	DisbursementsCount int           `json:"disbursements_count"`
	DocumentsCount     int           `json:"documents_count"`
}

// ProjectListItem is one row of the paginated listing.
type ProjectListItem struct {
	ID             uint      `json:"id"`
	Name           string    `json:"name"`
	Slug           string    `json:"slug"`
	Status         string    `json:"status"`
	RoadType       string    `json:"road_type"`
	District       string    `json:"district"`
	City           string    `json:"city"`
	SanctionedCost float64   `json:"sanctioned_cost"`
	ContractorName string    `json:"contractor_name"`
	CreatedAt      time.Time `json:"created_at"`
}

type ProjectPage struct {
	Items      []ProjectListItem `json:"items"`
	Total      int64             `json:"total"`
	Page       int               `json:"page"`
	PageSize   int               `json:"page_size"`
	TotalPages int64             `json:"total_pages"`
}

type ProjectStats struct {
	TotalProjects     int64            `json:"total_projects"`
	TotalCost         float64          `json:"total_cost"`
	CompletedProjects int64            `json:"completed_projects"`
	ActiveProjects    int64            `json:"active_projects"`
	DelayedProjects   int64            `json:"delayed_projects"`
	TotalReports      int64            `json:"total_reports"`
	ByStatus          map[string]int64 `json:"by_status"`
	ByRoadType        map[string]int64 `json:"by_road_type"`
	ByState           map[string]int64 `json:"by_state"`
}

// UserView is the public projection of an account; it never includes the hash.
type UserView struct {
	ID        uint       `json:"id"`
	Email     string     `json:"email"`
	Username  string     `json:"username"`
	FullName  string     `json:"full_name"`
	Role      string     `json:"role"`
	IsActive  bool       `json:"is_active"`
	LastLogin *time.Time `json:"last_login"`
	CreatedAt time.Time  `json:"created_at"`
}

func NewUserView(u *models.User) UserView {
	return UserView{
		ID:        u.ID,
		Email:     u.Email,
		Username:  u.Username,
		FullName:  u.FullName,
		Role:      string(u.Role),
		IsActive:  u.IsActive,
		LastLogin: u.LastLogin,
		CreatedAt: u.CreatedAt,
	}
}

func firmView(f *models.Firm) *FirmView {
	if f == nil {
		return nil
	}
	return &FirmView{
		ID:                f.ID,
		Name:              f.Name,
		RegistrationID:    f.RegistrationID,
		Type:              f.Type,
		PerformanceRating: f.PerformanceRating,
		IsBlacklisted:     f.IsBlacklisted,
	}
}

func newProjectDetail(p *models.Project) (ProjectDetail, error) {
	d := ProjectDetail{
		ID:                 p.ID,
		Name:               p.Name,
		Slug:               p.Slug,
		Description:        p.Description,
		Status:             string(p.Status),
		RoadType:           string(p.RoadType),
		District:           p.District,
		City:               p.City,
		State:              p.State,
		Pincode:            p.Pincode,
		SanctionedCost:     p.SanctionedCost,
		TotalDisbursed:     p.TotalDisbursed,
		ApprovalDate:       p.ApprovalDate,
		StartDate:          p.StartDate,
		ProposedEnd:        p.ProposedEndDate,
		ActualEnd:          p.ActualEndDate,
		CreatedAt:          p.CreatedAt,
		UpdatedAt:          p.UpdatedAt,
		Contractor:         firmView(p.Contractor),
		MaintenanceFirm:    firmView(p.MaintenanceFirm),
		RoadSegments:       make([]SegmentView, 0, len(p.RoadSegments)),
		ReportsCount:       len(p.Reports),
		DisbursementsCount: len(p.Disbursements),
		DocumentsCount:     len(p.Documents),
	}
	if m := p.Minister; m != nil {
		d.Minister = &MinisterView{ID: m.ID, Name: m.Name, Party: m.Party, Portfolio: m.Portfolio}
	}
	if o := p.ApprovingOfficial; o != nil {
		d.ApprovingOfficial = &OfficialView{ID: o.ID, Name: o.Name, Designation: o.Designation, Department: o.Department}
	}
	for _, seg := range p.RoadSegments {
		g, err := geo.SegmentGeometry(seg.Geometry)
		if err != nil {
			return ProjectDetail{}, err
		}
		d.RoadSegments = append(d.RoadSegments, SegmentView{
			ID:          seg.ID,
			SegmentName: seg.SegmentName,
			LengthKm:    seg.LengthKm,
			StartPoint:  seg.StartPoint,
			EndPoint:    seg.EndPoint,
			Geometry:    g,
		})
	}
	return d, nil
}

func newListItem(p models.Project) ProjectListItem {
	contractor := "N/A"
	if p.Contractor != nil {
		contractor = p.Contractor.Name
	}
	return ProjectListItem{
		ID:             p.ID,
		Name:           p.Name,
		Slug:           p.Slug,
		Status:         string(p.Status),
		RoadType:       string(p.RoadType),
		District:       p.District,
		City:           p.City,
		SanctionedCost: p.SanctionedCost,
		ContractorName: contractor,
		CreatedAt:      p.CreatedAt,
	}
}

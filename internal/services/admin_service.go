package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/mail"
	"strings"
	"time"
	"unicode"

	"github.com/sirupsen/logrus"

	"roadtrack/internal/apperr"
	"roadtrack/internal/auth"
	"roadtrack/internal/cache"
	"roadtrack/internal/geo"
	"roadtrack/internal/models"
	"roadtrack/internal/store"
)

const minPasswordLength = 8

// ErrUserExists keeps the historical 400 status for duplicate registrations.
var ErrUserExists = apperr.Conflict("Email or username already registered").WithStatus(http.StatusBadRequest)

type RegisterUserInput struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
}

type SegmentInput struct {
	SegmentName string          `json:"segment_name"`
	LengthKm    float64         `json:"length_km"`
	StartPoint  string          `json:"start_point"`
	EndPoint    string          `json:"end_point"`
	Geometry    json.RawMessage `json:"geometry"`
}

type CreateProjectInput struct {
	Name            string     `json:"name"`
	Slug            string     `json:"slug"`
	Description     string     `json:"description"`
	Status          string     `json:"status"`
	RoadType        string     `json:"road_type"`
	District        string     `json:"district"`
	City            string     `json:"city"`
	State           string     `json:"state"`
	Pincode         string     `json:"pincode"`
	SanctionedCost  float64    `json:"sanctioned_cost"`
	ApprovalDate    *time.Time `json:"approval_date"`
	StartDate       *time.Time `json:"start_date"`
	ProposedEndDate *time.Time `json:"proposed_end_date"`

	MinisterID          *uint `json:"minister_id"`
	ApprovingOfficialID *uint `json:"approving_official_id"`
	ContractorID        *uint `json:"contractor_id"`
	MaintenanceFirmID   *uint `json:"maintenance_firm_id"`

	RoadSegments []SegmentInput `json:"road_segments"`
}

// AdminService performs the authenticated writes.
type AdminService struct {
	store store.Store
	cache cache.Cache
}

func NewAdminService(s store.Store, c cache.Cache) *AdminService {
	return &AdminService{store: s, cache: c}
}

// RegisterUser creates an account. Only a super admin may do this.
func (a *AdminService) RegisterUser(ctx context.Context, requestor *models.User, in RegisterUserInput) (UserView, error) {
	if _, err := auth.RequireRole(requestor, models.RoleSuperAdmin); err != nil {
		return UserView{}, err
	}

	email := strings.TrimSpace(in.Email)
	username := strings.TrimSpace(in.Username)
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return UserView{}, apperr.Validation("a valid email is required")
	}
	if username == "" {
		return UserView{}, apperr.Validation("username is required")
	}
	if len(in.Password) < minPasswordLength {
		return UserView{}, apperr.Validation(fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}
	role := models.RoleViewer
	if strings.TrimSpace(in.Role) != "" {
		r, err := models.ParseRole(in.Role)
		if err != nil {
			return UserView{}, apperr.Validation(err.Error())
		}
		role = r
	}

	exists, err := a.store.UserExists(ctx, email, username)
	if err != nil {
		return UserView{}, apperr.Internal("check existing user", err)
	}
	if exists {
		return UserView{}, ErrUserExists
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return UserView{}, apperr.Internal("hash password", err)
	}
	user := &models.User{
		Email:          email,
		Username:       username,
		HashedPassword: hash,
		FullName:       strings.TrimSpace(in.FullName),
		Role:           role,
		IsActive:       true,
	}
	if err := a.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return UserView{}, ErrUserExists
		}
		return UserView{}, apperr.Internal("create user", err)
	}

	logrus.WithFields(logrus.Fields{
		"user_id":    user.ID,
		"email":      user.Email,
		"role":       user.Role,
		"created_by": requestor.ID,
	}).Info("user registered")
	return NewUserView(user), nil
}

// Slugify lowercases name and joins its alphanumeric runs with '-'.
func Slugify(name string) string {
	var b strings.Builder
	pendingDash := false
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
			continue
		}
		pendingDash = true
	}
	return b.String()
}

func (in CreateProjectInput) toModel() (*models.Project, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperr.Validation("name is required")
	}
	district := strings.TrimSpace(in.District)
	if district == "" {
		return nil, apperr.Validation("district is required")
	}
	state := strings.TrimSpace(in.State)
	if state == "" {
		return nil, apperr.Validation("state is required")
	}
	if in.SanctionedCost < 0 {
		return nil, apperr.Validation("sanctioned_cost must not be negative")
	}

	status := models.StatusPending
	if in.Status != "" {
		s, err := models.ParseProjectStatus(in.Status)
		if err != nil {
			return nil, apperr.Validation(err.Error())
		}
		status = s
	}
	if in.RoadType == "" {
		return nil, apperr.Validation("road_type is required")
	}
	roadType, err := models.ParseRoadType(in.RoadType)
	if err != nil {
		return nil, apperr.Validation(err.Error())
	}

	slug := Slugify(in.Slug)
	if slug == "" {
		slug = Slugify(name)
	}
	if slug == "" {
		return nil, apperr.Validation("cannot derive a slug from name")
	}

	p := &models.Project{
		Name:                name,
		Slug:                slug,
		Description:         in.Description,
		Status:              status,
		RoadType:            roadType,
		District:            district,
		City:                strings.TrimSpace(in.City),
		State:               state,
		Pincode:             strings.TrimSpace(in.Pincode),
		SanctionedCost:      in.SanctionedCost,
		ApprovalDate:        in.ApprovalDate,
		StartDate:           in.StartDate,
		ProposedEndDate:     in.ProposedEndDate,
		MinisterID:          in.MinisterID,
		ApprovingOfficialID: in.ApprovingOfficialID,
		ContractorID:        in.ContractorID,
		MaintenanceFirmID:   in.MaintenanceFirmID,
	}
	for i, seg := range in.RoadSegments {
		wkb, err := geo.LineStringFromGeoJSON(seg.Geometry)
		if err != nil {
			return nil, apperr.Validation(fmt.Sprintf("road_segments[%d]: %v", i, err))
		}
		if seg.LengthKm < 0 {
			return nil, apperr.Validation(fmt.Sprintf("road_segments[%d]: length_km must not be negative", i))
		}
		p.RoadSegments = append(p.RoadSegments, models.RoadSegment{
			Geometry:    wkb,
			SegmentName: seg.SegmentName,
			LengthKm:    seg.LengthKm,
			StartPoint:  seg.StartPoint,
			EndPoint:    seg.EndPoint,
		})
	}
	return p, nil
}

// CreateProject stores a new project with its segments and returns its detail.
// Requires data_entry or above.
func (a *AdminService) CreateProject(ctx context.Context, requestor *models.User, in CreateProjectInput) (ProjectDetail, error) {
	if _, err := auth.RequireRole(requestor, models.RoleDataEntry); err != nil {
		return ProjectDetail{}, err
	}
	p, err := in.toModel()
	if err != nil {
		return ProjectDetail{}, err
	}

	if err := a.store.CreateProject(ctx, p); err != nil {
		switch {
		case errors.Is(err, store.ErrInvalidReference):
			return ProjectDetail{}, apperr.Validation(err.Error())
		case errors.Is(err, store.ErrDuplicate):
			return ProjectDetail{}, apperr.Conflict(fmt.Sprintf("Project with slug %q already exists", p.Slug))
		default:
			return ProjectDetail{}, apperr.Internal("create project", err)
		}
	}

	if err := a.cache.Delete(ctx, StatsKey); err != nil {
		logrus.WithError(err).Warn("stats cache invalidation failed")
	}
	logrus.WithFields(logrus.Fields{
		"project_id": p.ID,
		"slug":       p.Slug,
		"created_by": requestor.ID,
	}).Info("project created")

	created, err := a.store.GetProjectDetail(ctx, p.ID)
	if err != nil {
		return ProjectDetail{}, apperr.Internal("reload project", err)
	}
	detail, err := newProjectDetail(created)
	if err != nil {
		return ProjectDetail{}, apperr.Internal("convert geometry", err)
	}
	return detail, nil
}

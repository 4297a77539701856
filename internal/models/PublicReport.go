package models

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

// IssueType classifies what a citizen is reporting.
type IssueType string

const (
	IssuePothole      IssueType = "pothole"
	IssuePoorQuality  IssueType = "poor_quality"
	IssueWaterlogging IssueType = "waterlogging"
	IssueCracks       IssueType = "cracks"
	IssueDebris       IssueType = "debris"
	IssueSignage      IssueType = "signage_issue"
	IssueDrainage     IssueType = "drainage_problem"
	IssueSafetyHazard IssueType = "safety_hazard"
	IssueOther        IssueType = "other"
)

var issueTypes = []IssueType{
	IssuePothole, IssuePoorQuality, IssueWaterlogging, IssueCracks, IssueDebris,
	IssueSignage, IssueDrainage, IssueSafetyHazard, IssueOther,
}

func ParseIssueType(s string) (IssueType, error) {
	v := IssueType(strings.ToLower(strings.TrimSpace(s)))
	for _, it := range issueTypes {
		if it == v {
			return v, nil
		}
	}
	return "", fmt.Errorf("invalid issue_type %q", s)
}

// ReportStatus tracks a report through review.
type ReportStatus string

const (
	ReportSubmitted    ReportStatus = "submitted"
	ReportUnderReview  ReportStatus = "under_review"
	ReportAcknowledged ReportStatus = "acknowledged"
	ReportInProgress   ReportStatus = "in_progress"
	ReportResolved     ReportStatus = "resolved"
	ReportRejected     ReportStatus = "rejected"
)

var reportStatuses = []ReportStatus{
	ReportSubmitted, ReportUnderReview, ReportAcknowledged,
	ReportInProgress, ReportResolved, ReportRejected,
}

func ParseReportStatus(s string) (ReportStatus, error) {
	v := ReportStatus(strings.ToLower(strings.TrimSpace(s)))
	for _, st := range reportStatuses {
		if st == v {
			return v, nil
		}
	}
	return "", fmt.Errorf("invalid report status %q", s)
}

// PublicReport is an issue filed by a citizen against a project.
type PublicReport struct {
	gorm.Model
	ProjectID           uint         `json:"project_id" gorm:"index;not null"`
	IssueType           IssueType    `json:"issue_type" gorm:"type:varchar(32);not null"`
	Description         string       `json:"description" gorm:"type:text;not null"`
	LocationDescription string       `json:"location_description"`
	ReporterName        string       `json:"reporter_name"`
	ReporterContact     string       `json:"-"`
	Status              ReportStatus `json:"status" gorm:"type:varchar(32);not null;default:'submitted';index"`
	PhotoURL            string       `json:"photo_url"`
	UpvotesCount        int          `json:"upvotes_count"`
	ResolutionDate      *time.Time   `json:"resolution_date"`
}

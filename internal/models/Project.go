package models

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

// ProjectStatus is the lifecycle stage of a road project.
type ProjectStatus string

const (
	StatusPending     ProjectStatus = "pending"
	StatusApproved    ProjectStatus = "approved"
	StatusActive      ProjectStatus = "active"
	StatusCompleted   ProjectStatus = "completed"
	StatusMaintenance ProjectStatus = "maintenance"
	StatusDelayed     ProjectStatus = "delayed"
	StatusCancelled   ProjectStatus = "cancelled"
)

var projectStatuses = []ProjectStatus{
	StatusPending, StatusApproved, StatusActive, StatusCompleted,
	StatusMaintenance, StatusDelayed, StatusCancelled,
}

// ParseProjectStatus accepts the wire value of a status, case-insensitively.
func ParseProjectStatus(s string) (ProjectStatus, error) {
	v := ProjectStatus(strings.ToLower(strings.TrimSpace(s)))
	for _, st := range projectStatuses {
		if st == v {
			return v, nil
		}
	}
	return "", fmt.Errorf("invalid status %q", s)
}

// RoadType classifies the road a project builds.
type RoadType string

const (
	RoadNationalHighway RoadType = "national_highway"
	RoadStateHighway    RoadType = "state_highway"
	RoadDistrict        RoadType = "district_road"
	RoadRural           RoadType = "rural_road"
	RoadCity            RoadType = "city_road"
	RoadExpressway      RoadType = "expressway"
)

var roadTypes = []RoadType{
	RoadNationalHighway, RoadStateHighway, RoadDistrict,
	RoadRural, RoadCity, RoadExpressway,
}

// ParseRoadType accepts the wire value of a road type, case-insensitively.
func ParseRoadType(s string) (RoadType, error) {
	v := RoadType(strings.ToLower(strings.TrimSpace(s)))
	for _, rt := range roadTypes {
		if rt == v {
			return v, nil
		}
	}
	return "", fmt.Errorf("invalid road_type %q", s)
}

// Project is a publicly funded road works project and its accountability chain.
type Project struct {
	gorm.Model

	Name        string        `json:"name" gorm:"not null;index"`
	Slug        string        `json:"slug" gorm:"uniqueIndex;not null"`
	Description string        `json:"description"`
	Status      ProjectStatus `json:"status" gorm:"type:varchar(32);not null;index"`
	RoadType    RoadType      `json:"road_type" gorm:"type:varchar(32);not null;index"`

	District string `json:"district" gorm:"not null;index"`
	City     string `json:"city"`
	State    string `json:"state" gorm:"not null;index"`
	Pincode  string `json:"pincode" gorm:"index"`

	SanctionedCost float64 `json:"sanctioned_cost" gorm:"type:numeric(15,2);not null"`
	TotalDisbursed float64 `json:"total_disbursed" gorm:"type:numeric(15,2);not null;default:0"`

	ApprovalDate    *time.Time `json:"approval_date"`
	StartDate       *time.Time `json:"start_date"`
	ProposedEndDate *time.Time `json:"proposed_end_date"`
	ActualEndDate   *time.Time `json:"actual_end_date"`

	// Accountability chain
	MinisterID          *uint     `json:"minister_id" gorm:"index"`
	Minister            *Minister `gorm:"foreignKey:MinisterID" json:"minister,omitempty"`
	ApprovingOfficialID *uint     `json:"approving_official_id" gorm:"index"`
	ApprovingOfficial   *Official `gorm:"foreignKey:ApprovingOfficialID" json:"approving_official,omitempty"`
	ContractorID        *uint     `json:"contractor_id" gorm:"index"`
	Contractor          *Firm     `gorm:"foreignKey:ContractorID" json:"contractor,omitempty"`
	MaintenanceFirmID   *uint     `json:"maintenance_firm_id" gorm:"index"`
	MaintenanceFirm     *Firm     `gorm:"foreignKey:MaintenanceFirmID" json:"maintenance_firm,omitempty"`

	// Owned collections
	RoadSegments  []RoadSegment  `gorm:"foreignKey:ProjectID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"road_segments,omitempty"`
	Reports       []PublicReport `gorm:"foreignKey:ProjectID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"reports,omitempty"`
	Disbursements []Disbursement `gorm:"foreignKey:ProjectID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"disbursements,omitempty"`
	Documents     []Document     `gorm:"foreignKey:ProjectID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"documents,omitempty"`
}

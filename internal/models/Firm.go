package models

import (
	"gorm.io/gorm"
)

// Firm is a company that builds or maintains roads. The same table backs a
// project's contractor and its maintenance firm.
type Firm struct {
	gorm.Model

	Name              string   `json:"name" gorm:"not null"`
	RegistrationID    string   `json:"registration_id" gorm:"uniqueIndex;not null"`
	Type              string   `json:"type"` // "contractor", "maintenance"
	PerformanceRating *float64 `json:"performance_rating"`
	IsBlacklisted     bool     `json:"is_blacklisted"`
}

// Minister is the elected representative associated with a project.
type Minister struct {
	gorm.Model

	Name      string `json:"name" gorm:"not null"`
	Party     string `json:"party"`
	Portfolio string `json:"portfolio"`
}

// Official is the civil servant who approved a project.
type Official struct {
	gorm.Model

	Name        string `json:"name" gorm:"not null"`
	Designation string `json:"designation" gorm:"not null"`
	Department  string `json:"department"`
}

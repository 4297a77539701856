package models

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Disbursement records one release of funds to a project.
type Disbursement struct {
	gorm.Model

	ProjectID   uint           `json:"project_id" gorm:"index;not null"`
	Amount      float64        `json:"amount" gorm:"type:numeric(15,2);not null"`
	Reference   string         `json:"reference"`
	DisbursedOn datatypes.Date `json:"disbursed_on" gorm:"type:date"`
}

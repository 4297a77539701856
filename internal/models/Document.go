package models

import (
	"gorm.io/gorm"
)

// Document is a sanction order, tender or inspection report attached to a project.
type Document struct {
	gorm.Model
	ProjectID uint   `json:"project_id" gorm:"index;not null"`
	Title     string `json:"title" gorm:"not null"`
	DocType   string `json:"doc_type"`
	URL       string `json:"url"`
}

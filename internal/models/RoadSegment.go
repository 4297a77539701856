package models

import (
	"gorm.io/gorm"
)

// RoadSegment is one stretch of road belonging to a project.
// A project can have many segments; deleting the project removes them.
type RoadSegment struct {
	gorm.Model

	ProjectID uint `json:"project_id" gorm:"index;not null"`

	// LINESTRING in WGS84 (SRID 4326) encoded as WKB.
	// Callers provide GeoJSON; the geo package handles the conversion.
	Geometry []byte `json:"-" gorm:"type:bytea;not null"`

	SegmentName string  `json:"segment_name"`
	LengthKm    float64 `json:"length_km"`
	StartPoint  string  `json:"start_point"` // human-readable start location
	EndPoint    string  `json:"end_point"`
}

// Package geo converts stored road segment geometry between WKB and GeoJSON.
package geo

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/twpayne/go-geom"
	gjson "github.com/twpayne/go-geom/encoding/geojson"
	"github.com/twpayne/go-geom/encoding/wkb"

	"roadtrack/internal/models"
)

// ErrInvalidGeometry is returned for input that is not a usable LineString.
var ErrInvalidGeometry = errors.New("invalid geometry")

// FeatureProperties describes the project a segment belongs to.
type FeatureProperties struct {
	ProjectID      uint    `json:"project_id"`
	ProjectName    string  `json:"project_name"`
	Status         string  `json:"status"`
	RoadType       string  `json:"road_type"`
	District       string  `json:"district"`
	City           string  `json:"city"`
	Contractor     *string `json:"contractor"`
	SanctionedCost float64 `json:"sanctioned_cost"`
	SegmentName    string  `json:"segment_name"`
}

// Feature is a GeoJSON Feature whose id is the owning project's id.
type Feature struct {
	Type       string            `json:"type"`
	ID         uint              `json:"id"`
	Geometry   *gjson.Geometry   `json:"geometry"`
	Properties FeatureProperties `json:"properties"`
}

// FeatureCollection is a GeoJSON FeatureCollection.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// NewFeatureCollection wraps features; nil becomes an empty list.
func NewFeatureCollection(features []Feature) FeatureCollection {
	if features == nil {
		features = []Feature{}
	}
	return FeatureCollection{Type: "FeatureCollection", Features: features}
}

// SegmentGeometry decodes stored WKB into a GeoJSON LineString, keeping
// coordinates exactly as stored. Any other geometry type is rejected.
func SegmentGeometry(wkbBytes []byte) (*gjson.Geometry, error) {
	if len(wkbBytes) == 0 {
		return nil, fmt.Errorf("%w: empty geometry", ErrInvalidGeometry)
	}
	g, err := wkb.Unmarshal(wkbBytes)
	if err != nil {
		return nil, fmt.Errorf("decode wkb: %w", err)
	}
	ls, ok := g.(*geom.LineString)
	if !ok {
		return nil, fmt.Errorf("%w: stored geometry is %T, want LineString", ErrInvalidGeometry, g)
	}
	out, err := gjson.Encode(ls)
	if err != nil {
		return nil, fmt.Errorf("encode geojson: %w", err)
	}
	return out, nil
}

// ToFeature renders one segment of p as a Feature.
func ToFeature(seg models.RoadSegment, p models.Project) (Feature, error) {
	geometry, err := SegmentGeometry(seg.Geometry)
	if err != nil {
		return Feature{}, fmt.Errorf("segment %d: %w", seg.ID, err)
	}
	var contractor *string
	if p.Contractor != nil {
		name := p.Contractor.Name
		contractor = &name
	}
	return Feature{
		Type:     "Feature",
		ID:       p.ID,
		Geometry: geometry,
		Properties: FeatureProperties{
			ProjectID:      p.ID,
			ProjectName:    p.Name,
			Status:         string(p.Status),
			RoadType:       string(p.RoadType),
			District:       p.District,
			City:           p.City,
			Contractor:     contractor,
			SanctionedCost: p.SanctionedCost,
			SegmentName:    seg.SegmentName,
		},
	}, nil
}

// ProjectFeatures renders every segment of p, in segment order.
func ProjectFeatures(p models.Project) ([]Feature, error) {
	features := make([]Feature, 0, len(p.RoadSegments))
	for _, seg := range p.RoadSegments {
		f, err := ToFeature(seg, p)
		if err != nil {
			return nil, err
		}
		features = append(features, f)
	}
	return features, nil
}

// LineStringFromGeoJSON validates a GeoJSON LineString with at least two
// positions and returns it as little-endian WKB.
func LineStringFromGeoJSON(raw []byte) ([]byte, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: geometry is required", ErrInvalidGeometry)
	}
	var g geom.T
	if err := gjson.Unmarshal(raw, &g); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidGeometry, err)
	}
	ls, ok := g.(*geom.LineString)
	if !ok {
		return nil, fmt.Errorf("%w: expected LineString", ErrInvalidGeometry)
	}
	if ls.NumCoords() < 2 {
		return nil, fmt.Errorf("%w: LineString needs at least 2 positions", ErrInvalidGeometry)
	}
	ls.SetSRID(4326)
	return wkb.Marshal(ls, binary.LittleEndian)
}

// LineStringWKB builds WKB for a 2D LineString from lon/lat pairs.
func LineStringWKB(coords [][2]float64) ([]byte, error) {
	if len(coords) < 2 {
		return nil, fmt.Errorf("%w: LineString needs at least 2 positions", ErrInvalidGeometry)
	}
	flat := make([]geom.Coord, len(coords))
	for i, c := range coords {
		flat[i] = geom.Coord{c[0], c[1]}
	}
	ls, err := geom.NewLineString(geom.XY).SetCoords(flat)
	if err != nil {
		return nil, err
	}
	return wkb.Marshal(ls, binary.LittleEndian)
}

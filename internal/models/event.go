package models

import (
	"time"

	"github.com/google/uuid"
)

// Severity - уровень серьезности near-miss события
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// IsValid проверяет, что значение входит в допустимый набор
func (s Severity) IsValid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

// GeoPoint - точка в формате GeoJSON.
// Координаты на проводе всегда [долгота, широта], для чтения использовать
// Longitude()/Latitude(), чтобы не путать порядок индексов.
type GeoPoint struct {
	Type        string     `json:"type"`
	Coordinates [2]float64 `json:"coordinates"`
}

// NewGeoPoint создает GeoJSON-точку из долготы и широты
func NewGeoPoint(lng, lat float64) GeoPoint {
	return GeoPoint{
		Type:        "Point",
		Coordinates: [2]float64{lng, lat},
	}
}

func (p GeoPoint) Longitude() float64 { return p.Coordinates[0] }

func (p GeoPoint) Latitude() float64 { return p.Coordinates[1] }

// Event - запись о near-miss инциденте
type Event struct {
	ID             uuid.UUID      `json:"id"`
	Location       GeoPoint       `json:"location"`
	Description    string         `json:"description"`
	IncidentType   string         `json:"incident_type"`
	Severity       Severity       `json:"severity"`
	Timestamp      time.Time      `json:"timestamp"`
	ReportedBy     string         `json:"reported_by"`
	Status         string         `json:"status"`
	AdditionalInfo map[string]any `json:"additional_info,omitempty"`
}

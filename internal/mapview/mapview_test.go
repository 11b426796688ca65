package mapview

import (
	"bytes"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shenikar/near_miss_mapper/internal/feed"
	"github.com/shenikar/near_miss_mapper/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild_EventMarkerReadsCoordinatesInOrder(t *testing.T) {
	// Подготовка: coordinates на проводе [долгота, широта]
	eventID := uuid.New()
	st := feed.State{
		Events: []models.Event{
			{
				ID:           eventID,
				Location:     models.NewGeoPoint(77.59, 12.97),
				Description:  "Bus crossed the stop line",
				IncidentType: "vehicle-pedestrian",
				Severity:     models.SeverityHigh,
				Timestamp:    time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
			},
		},
	}

	// Действие
	view := Build(st)

	// Проверки: широта из coordinates[1], долгота из coordinates[0]
	require.Len(t, view.Markers, 1)
	marker := view.Markers[0]
	assert.Equal(t, 12.97, marker.Latitude)
	assert.Equal(t, 77.59, marker.Longitude)
	assert.Equal(t, "vehicle-pedestrian", marker.Popup.Title)
	assert.Equal(t, "high", marker.Popup.Severity)
	assert.Equal(t, "Mar 14, 2026", marker.Popup.ReportedOn)
	assert.Equal(t, eventID, marker.EventID)
	assert.True(t, marker.Deletable)
}

func TestBuild_EventWithoutIDIsNotDeletable(t *testing.T) {
	// Подготовка
	st := feed.State{
		Events: []models.Event{
			{
				Location:     models.NewGeoPoint(-0.09, 51.505),
				Description:  "No id yet",
				IncidentType: "other",
				Severity:     models.SeverityLow,
			},
		},
	}

	// Действие
	view := Build(st)

	// Проверки
	require.Len(t, view.Markers, 1)
	assert.False(t, view.Markers[0].Deletable)
}

func TestBuild_PositionMarker(t *testing.T) {
	// Подготовка
	st := feed.State{
		Position: &feed.Position{Latitude: 40, Longitude: -75},
	}

	// Действие
	view := Build(st)

	// Проверки
	require.NotNil(t, view.Position)
	assert.Equal(t, 40.0, view.Position.Latitude)
	assert.Equal(t, -75.0, view.Position.Longitude)
	assert.Equal(t, "Report a near-miss event here", view.Position.Popup.Title)
	assert.Empty(t, view.Markers)
}

func TestBuild_CarriesLoadingAndError(t *testing.T) {
	// Подготовка
	st := feed.State{
		Loading: true,
		Err:     "Failed to load near-miss events. Please try again later.",
	}

	// Действие
	view := Build(st)

	// Проверки: подложка и флаги прокинуты как есть
	assert.True(t, view.Loading)
	assert.Equal(t, st.Err, view.Err)
	assert.Equal(t, TileURL, view.TileURL)
	assert.Equal(t, TileAttribution, view.TileAttribution)
}

func TestRender_LoadingShortCircuits(t *testing.T) {
	// Подготовка
	view := Build(feed.State{Loading: true})

	// Действие
	var buf bytes.Buffer
	view.Render(&buf)

	// Проверки
	assert.Equal(t, "Loading map...\n", buf.String())
}

func TestRender_ShowsErrorPositionAndMarkers(t *testing.T) {
	// Подготовка
	st := feed.State{
		Position: &feed.Position{Latitude: 51.505, Longitude: -0.09},
		Err:      "Unable to get your location. Please enable location services.",
		Events: []models.Event{
			{
				ID:           uuid.New(),
				Location:     models.NewGeoPoint(-0.09, 51.505),
				Description:  "Bus crossed the stop line",
				IncidentType: "vehicle-pedestrian",
				Severity:     models.SeverityHigh,
				Timestamp:    time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
			},
		},
	}

	// Действие
	var buf bytes.Buffer
	Build(st).Render(&buf)

	// Проверки
	out := buf.String()
	assert.Contains(t, out, "! Unable to get your location")
	assert.Contains(t, out, "You are here: 51.505000, -0.090000")
	assert.Contains(t, out, "1 near-miss event(s):")
	assert.Contains(t, out, "[high] vehicle-pedestrian")
	assert.Contains(t, out, "reported on Mar 14, 2026")
	assert.Contains(t, out, "id: ")
}

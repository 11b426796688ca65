package mapview

import (
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/shenikar/near_miss_mapper/internal/feed"
	"github.com/shenikar/near_miss_mapper/internal/models"
)

// Подложка карты
const (
	TileURL         = "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png"
	TileAttribution = "© OpenStreetMap contributors"

	positionPrompt = "Report a near-miss event here"
)

// Popup - содержимое всплывающей подсказки маркера
type Popup struct {
	Title       string
	Description string
	Severity    string
	ReportedOn  string
}

// Marker - маркер на карте. Широта берется из coordinates[1],
// долгота из coordinates[0]. Deletable выставляется только для событий
// с серверным id.
type Marker struct {
	Latitude  float64
	Longitude float64
	Popup     Popup
	EventID   uuid.UUID
	Deletable bool
}

// View - представление карты: подложка, маркер позиции и по маркеру
// на событие. Строится из состояния контроллера и ничего не мутирует.
type View struct {
	TileURL         string
	TileAttribution string
	Position        *Marker
	Markers         []Marker
	Loading         bool
	Err             string
}

// Build собирает представление карты из состояния ленты событий
func Build(st feed.State) View {
	view := View{
		TileURL:         TileURL,
		TileAttribution: TileAttribution,
		Loading:         st.Loading,
		Err:             st.Err,
	}

	if st.Position != nil {
		view.Position = &Marker{
			Latitude:  st.Position.Latitude,
			Longitude: st.Position.Longitude,
			Popup:     Popup{Title: positionPrompt},
		}
	}

	for _, ev := range st.Events {
		view.Markers = append(view.Markers, eventMarker(ev))
	}
	return view
}

// eventMarker строит маркер события с подсказкой: тип, описание,
// severity и человекочитаемая дата из timestamp
func eventMarker(ev models.Event) Marker {
	return Marker{
		Latitude:  ev.Location.Latitude(),
		Longitude: ev.Location.Longitude(),
		Popup: Popup{
			Title:       ev.IncidentType,
			Description: ev.Description,
			Severity:    string(ev.Severity),
			ReportedOn:  ev.Timestamp.Format("Jan 2, 2006"),
		},
		EventID:   ev.ID,
		Deletable: ev.ID != uuid.Nil,
	}
}

// Render печатает текстовое представление карты для CLI
func (v View) Render(w io.Writer) {
	if v.Loading {
		fmt.Fprintln(w, "Loading map...")
		return
	}
	if v.Err != "" {
		fmt.Fprintf(w, "! %s\n", v.Err)
	}

	if v.Position != nil {
		fmt.Fprintf(w, "You are here: %.6f, %.6f (%s)\n", v.Position.Latitude, v.Position.Longitude, v.Position.Popup.Title)
	}

	fmt.Fprintf(w, "%d near-miss event(s):\n", len(v.Markers))
	for _, m := range v.Markers {
		fmt.Fprintf(w, "  [%s] %s at %.6f, %.6f - %s (reported on %s)\n",
			m.Popup.Severity, m.Popup.Title, m.Latitude, m.Longitude, m.Popup.Description, m.Popup.ReportedOn)
		if m.Deletable {
			fmt.Fprintf(w, "      id: %s\n", m.EventID)
		}
	}
}

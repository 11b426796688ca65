package feed

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shenikar/near_miss_mapper/internal/models"
)

var formValidate = validator.New()

// ReportForm - поля нового отчета, редактируемые пользователем.
// Location в форме нет: она берется из текущей позиции контроллера.
type ReportForm struct {
	Description  string          `validate:"required"`
	IncidentType string          `validate:"required"`
	Severity     models.Severity `validate:"required,oneof=low medium high critical"`
	ReportedBy   string
	Timestamp    time.Time
}

// NewReportForm возвращает форму со значениями по умолчанию:
// severity low, timestamp - момент открытия формы
func NewReportForm() ReportForm {
	return ReportForm{
		Severity:  models.SeverityLow,
		Timestamp: time.Now(),
	}
}

// Validate проверяет обязательные поля и допустимость severity
func (f ReportForm) Validate() error {
	return formValidate.Struct(f)
}

// payload собирает событие для отправки: координаты [долгота, широта],
// пустой ReportedBy становится "anonymous", нулевой Timestamp - текущим моментом
func (f ReportForm) payload(pos Position) models.Event {
	reportedBy := f.ReportedBy
	if reportedBy == "" {
		reportedBy = "anonymous"
	}
	ts := f.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	return models.Event{
		Location:       models.NewGeoPoint(pos.Longitude, pos.Latitude),
		Description:    f.Description,
		IncidentType:   f.IncidentType,
		Severity:       f.Severity,
		Timestamp:      ts.UTC(),
		ReportedBy:     reportedBy,
		AdditionalInfo: map[string]any{},
	}
}

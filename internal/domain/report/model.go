package report

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/gelson35/GestaoSaude-backend/internal/platform/apierr"
	"github.com/gelson35/GestaoSaude-backend/pkg/civil"
)

// Period is the span a generated report covers.
type Period string

const (
	PeriodDaily   Period = "Diário"
	PeriodWeekly  Period = "Semanal"
	PeriodMonthly Period = "Mensal"
)

func (p Period) Valid() bool {
	return p == PeriodDaily || p == PeriodWeekly || p == PeriodMonthly
}

// Window returns the half-open interval [from, to) that p covers around ref,
// in loc. Weeks start on Monday; months are calendar months.
func (p Period) Window(ref civil.Date, loc *time.Location) (from, to time.Time) {
	day := ref.In(loc)
	switch p {
	case PeriodWeekly:
		offset := (int(day.Weekday()) + 6) % 7
		from = day.AddDate(0, 0, -offset)
		return from, from.AddDate(0, 0, 7)
	case PeriodMonthly:
		from = time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, loc)
		return from, from.AddDate(0, 1, 0)
	default:
		return day, day.AddDate(0, 0, 1)
	}
}

// Report is a stored management report. Statistics maps a label (usually a
// neighborhood) to a count.
type Report struct {
	ID             uuid.UUID          `json:"id"`
	Type           string             `json:"tipo_relatorio"`
	ReferenceDate  civil.Date         `json:"data_referencia"`
	TotalIncidents *int               `json:"total_ocorrencias"`
	Statistics     map[string]float64 `json:"estatistica_tipo"`
	GeneratedAt    time.Time          `json:"data_geracao"`
}

// Label renders "<tipo> - dd/mm/yyyy".
func (r *Report) Label() string {
	return fmt.Sprintf("%s - %s", r.Type, r.ReferenceDate.Format())
}

func (r *Report) Validate() error {
	v := &apierr.ValidationError{}
	if strings.TrimSpace(r.Type) == "" {
		v.Add("tipo_relatorio", "this field is required")
	}
	if utf8.RuneCountInString(r.Type) > 50 {
		v.Add("tipo_relatorio", "ensure this field has no more than 50 characters")
	}
	if r.ReferenceDate.IsZero() {
		v.Add("data_referencia", "this field is required")
	}
	if r.TotalIncidents != nil && *r.TotalIncidents < 0 {
		v.Add("total_ocorrencias", "ensure this value is greater than or equal to 0")
	}
	if r.Statistics == nil {
		v.Add("estatistica_tipo", "this field is required")
	}
	return v.Err()
}

// Stats is what generation reads from the incident tables.
type Stats struct {
	Total      int
	ByDistrict map[string]int
}

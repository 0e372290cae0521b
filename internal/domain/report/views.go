package report

import (
	"github.com/samber/lo"

	"github.com/gelson35/GestaoSaude-backend/internal/platform/apierr"
	"github.com/gelson35/GestaoSaude-backend/pkg/civil"
)

// ReportWrite is the client shape of a report. data_geracao is server-set.
type ReportWrite struct {
	Type           *string            `json:"tipo_relatorio"`
	ReferenceDate  *civil.Date        `json:"data_referencia"`
	TotalIncidents *int               `json:"total_ocorrencias"`
	Statistics     map[string]float64 `json:"estatistica_tipo"`
}

func (w ReportWrite) Report() *Report {
	return &Report{
		Type:           lo.FromPtr(w.Type),
		ReferenceDate:  lo.FromPtr(w.ReferenceDate),
		TotalIncidents: w.TotalIncidents,
		Statistics:     w.Statistics,
	}
}

func ToReportWrite(r *Report) ReportWrite {
	return ReportWrite{
		Type:           lo.ToPtr(r.Type),
		ReferenceDate:  lo.ToPtr(r.ReferenceDate),
		TotalIncidents: r.TotalIncidents,
		Statistics:     r.Statistics,
	}
}

// GenerateRequest asks for a report computed from stored incidents.
type GenerateRequest struct {
	Type          Period     `json:"tipo_relatorio"`
	ReferenceDate civil.Date `json:"data_referencia"`
}

func (g GenerateRequest) Validate() error {
	v := &apierr.ValidationError{}
	if !g.Type.Valid() {
		v.Add("tipo_relatorio", `must be one of "Diário", "Semanal", "Mensal"`)
	}
	if g.ReferenceDate.IsZero() {
		v.Add("data_referencia", "this field is required")
	}
	return v.Err()
}

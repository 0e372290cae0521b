package report

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

type Service struct {
	reports Repository
	stats   StatsSource
	loc     *time.Location
}

// NewService builds the report service. Generation windows are computed in
// loc; nil means UTC.
func NewService(reports Repository, stats StatsSource, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{reports: reports, stats: stats, loc: loc}
}

func (s *Service) Create(ctx context.Context, r *Report) error {
	if err := r.Validate(); err != nil {
		return err
	}
	return s.reports.Create(ctx, r)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Report, error) {
	return s.reports.GetByID(ctx, id)
}

func (s *Service) Update(ctx context.Context, r *Report) error {
	if err := r.Validate(); err != nil {
		return err
	}
	return s.reports.Update(ctx, r)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.reports.Delete(ctx, id)
}

func (s *Service) List(ctx context.Context, f Filter, limit, offset int) ([]*Report, int, error) {
	return s.reports.List(ctx, f, limit, offset)
}

// Generate counts the incidents started inside the request's window and
// stores the result as a new report.
func (s *Service) Generate(ctx context.Context, req GenerateRequest) (*Report, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	from, to := req.Type.Window(req.ReferenceDate, s.loc)
	stats, err := s.stats.IncidentStats(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("counting incidents: %w", err)
	}

	r := &Report{
		Type:           string(req.Type),
		ReferenceDate:  req.ReferenceDate,
		TotalIncidents: lo.ToPtr(stats.Total),
		Statistics: lo.MapValues(stats.ByDistrict, func(n int, _ string) float64 {
			return float64(n)
		}),
	}
	if err := s.reports.Create(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

// Export renders the stored report as an xlsx workbook.
func (s *Service) Export(ctx context.Context, id uuid.UUID) ([]byte, string, error) {
	r, err := s.reports.GetByID(ctx, id)
	if err != nil {
		return nil, "", err
	}
	data, err := BuildWorkbook(r)
	if err != nil {
		return nil, "", err
	}
	return data, fmt.Sprintf("relatorio-%s-%s.xlsx", r.ReferenceDate, id.String()[:8]), nil
}

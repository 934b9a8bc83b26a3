// Package reports manages the lifecycle of disaster reports: submission,
// status triage and deletion.
package reports

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mr1hm/go-disaster-reports/internal/apperrors"
	"github.com/mr1hm/go-disaster-reports/internal/metrics"
	"github.com/mr1hm/go-disaster-reports/internal/models"
	"github.com/mr1hm/go-disaster-reports/internal/repository"
)

type Service struct {
	repo    repository.ReportRepository
	metrics *metrics.Metrics
	now     func() time.Time
}

type Option func(*Service)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func NewService(repo repository.ReportRepository, m *metrics.Metrics, opts ...Option) *Service {
	if m == nil {
		m = metrics.NewNop()
	}
	s := &Service{
		repo:    repo,
		metrics: m,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit validates fields and stores a new pending report. Every field is
// trimmed and must be non-empty; otherwise nothing is written.
func (s *Service) Submit(ctx context.Context, fields models.ReportFields) (int64, error) {
	fields = fields.Trimmed()
	if missing := fields.Missing(); len(missing) > 0 {
		return 0, apperrors.MissingFields(missing...)
	}

	now := s.now().UTC()
	r := newReport(fields, models.StatusPending, now, now)
	if err := s.repo.AddReport(ctx, r); err != nil {
		return 0, fmt.Errorf("error submitting report: %w", err)
	}

	s.metrics.ReportsSubmitted.Inc()
	slog.Info("report submitted", "id", r.ID, "type", r.DisasterType, "severity", r.Severity)
	return r.ID, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*models.DisasterReport, error) {
	return s.repo.GetReport(ctx, id)
}

// UpdateStatus moves a report to status. Any status may follow any other,
// including itself. An unknown status leaves the report untouched.
func (s *Service) UpdateStatus(ctx context.Context, id int64, status string) (*models.DisasterReport, error) {
	current, err := s.repo.GetReport(ctx, id)
	if err != nil {
		return nil, err
	}

	next, ok := models.ParseStatus(status)
	if !ok {
		return nil, fmt.Errorf("%w: %q", apperrors.ErrInvalidStatus, status)
	}

	updated, err := s.repo.UpdateReportStatus(ctx, id, next, s.now())
	if err != nil {
		return nil, err
	}

	s.metrics.StatusUpdates.WithLabelValues(string(next)).Inc()
	slog.Info("report status updated", "id", id, "from", current.Status, "to", next)
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.DeleteReport(ctx, id); err != nil {
		return err
	}

	s.metrics.ReportsDeleted.Inc()
	slog.Info("report deleted", "id", id)
	return nil
}

// ListAll returns every report, most recently reported first.
func (s *Service) ListAll(ctx context.Context) ([]models.DisasterReport, error) {
	return s.repo.ListReports(ctx, repository.ReportFilter{})
}

// ListByStatus returns the reports in status, most recently reported first.
func (s *Service) ListByStatus(ctx context.Context, status string) ([]models.DisasterReport, error) {
	st, ok := models.ParseStatus(status)
	if !ok {
		return nil, fmt.Errorf("%w: %q", apperrors.ErrInvalidStatus, status)
	}
	return s.repo.ListReports(ctx, repository.ReportFilter{Status: &st})
}

// CreateBatch stores reports in a single transaction without field
// validation. Non-canonical statuses become pending and a zero ReportedAt is
// stamped with the current time. IDs are returned in input order.
func (s *Service) CreateBatch(ctx context.Context, batch []models.NewReport) ([]int64, error) {
	if len(batch) == 0 {
		return []int64{}, nil
	}

	now := s.now().UTC()
	rs := make([]*models.DisasterReport, 0, len(batch))
	for _, nr := range batch {
		status := nr.Status
		if !status.Valid() {
			status = models.StatusPending
		}
		reportedAt := nr.ReportedAt
		if reportedAt.IsZero() {
			reportedAt = now
		}
		updatedAt := now
		if reportedAt.After(updatedAt) {
			updatedAt = reportedAt
		}
		rs = append(rs, newReport(nr.ReportFields, status, reportedAt, updatedAt))
	}

	if err := s.repo.AddReports(ctx, rs); err != nil {
		return nil, fmt.Errorf("error creating report batch: %w", err)
	}

	ids := make([]int64, len(rs))
	for i, r := range rs {
		ids[i] = r.ID
	}
	slog.Info("report batch created", "count", len(ids))
	return ids, nil
}

func newReport(f models.ReportFields, status models.Status, reportedAt, updatedAt time.Time) *models.DisasterReport {
	return &models.DisasterReport{
		DisasterType:    f.DisasterType,
		Location:        f.Location,
		Severity:        f.Severity,
		Description:     f.Description,
		ReporterName:    f.ReporterName,
		ReporterContact: f.ReporterContact,
		Status:          status,
		ReportedAt:      reportedAt,
		UpdatedAt:       updatedAt,
	}
}

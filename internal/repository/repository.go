package repository

import (
	"context"
	"time"

	"github.com/mr1hm/go-disaster-reports/internal/models"
)

type ReportFilter struct {
	Limit  int
	Offset int
	Status *models.Status
}

type AlertFilter struct {
	Limit  int
	Offset int
}

type ReportRepository interface {
	AddReport(ctx context.Context, r *models.DisasterReport) error
	// AddReports inserts the whole batch in one transaction, assigning IDs in order.
	AddReports(ctx context.Context, rs []*models.DisasterReport) error
	GetReport(ctx context.Context, id int64) (*models.DisasterReport, error)
	// UpdateReportStatus sets status and moves updated_at to at, or just past the
	// stored value when at is not later than it.
	UpdateReportStatus(ctx context.Context, id int64, status models.Status, at time.Time) (*models.DisasterReport, error)
	DeleteReport(ctx context.Context, id int64) error
	ListReports(ctx context.Context, opts ReportFilter) ([]models.DisasterReport, error)
	CountReports(ctx context.Context) (int, error)
}

type AlertRepository interface {
	AddAlert(ctx context.Context, a *models.Alert) error
	ListAlerts(ctx context.Context, opts AlertFilter) ([]models.Alert, error)
	CountAlerts(ctx context.Context) (int, error)
}

type StatisticsRepository interface {
	// ReportStatistics aggregates the report table in a single read transaction.
	// The timeline holds at most timelineDays entries.
	ReportStatistics(ctx context.Context, timelineDays int) (*models.Statistics, error)
}

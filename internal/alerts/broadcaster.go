// Package alerts creates and lists operator-broadcast public notices.
package alerts

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mr1hm/go-disaster-reports/internal/apperrors"
	"github.com/mr1hm/go-disaster-reports/internal/metrics"
	"github.com/mr1hm/go-disaster-reports/internal/models"
	"github.com/mr1hm/go-disaster-reports/internal/repository"
)

// Broadcaster persists alerts. Alerts are append-only.
type Broadcaster struct {
	repo    repository.AlertRepository
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewBroadcaster(repo repository.AlertRepository, m *metrics.Metrics) *Broadcaster {
	if m == nil {
		m = metrics.NewNop()
	}
	return &Broadcaster{
		repo:    repo,
		metrics: m,
		now:     time.Now,
	}
}

func (b *Broadcaster) Broadcast(ctx context.Context, title, message, alertType string) (*models.Alert, error) {
	a := &models.Alert{
		Title:     strings.TrimSpace(title),
		Message:   strings.TrimSpace(message),
		AlertType: strings.TrimSpace(alertType),
	}

	var missing []string
	if a.Title == "" {
		missing = append(missing, "title")
	}
	if a.Message == "" {
		missing = append(missing, "message")
	}
	if a.AlertType == "" {
		missing = append(missing, "alert_type")
	}
	if len(missing) > 0 {
		return nil, apperrors.MissingFields(missing...)
	}

	a.CreatedAt = b.now().UTC()
	if err := b.repo.AddAlert(ctx, a); err != nil {
		return nil, fmt.Errorf("error broadcasting alert: %w", err)
	}

	b.metrics.AlertsBroadcast.WithLabelValues(a.AlertType).Inc()
	slog.Info("alert broadcast", "id", a.ID, "type", a.AlertType, "title", a.Title)
	return a, nil
}

// List returns every alert, newest first.
func (b *Broadcaster) List(ctx context.Context) ([]models.Alert, error) {
	return b.repo.ListAlerts(ctx, repository.AlertFilter{})
}

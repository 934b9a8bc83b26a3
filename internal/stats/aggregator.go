// Package stats computes the dashboard statistics over the report store.
package stats

import (
	"context"
	"fmt"

	"github.com/mr1hm/go-disaster-reports/internal/models"
	"github.com/mr1hm/go-disaster-reports/internal/repository"
)

// DefaultTimelineDays is how many distinct report dates the timeline keeps.
const DefaultTimelineDays = 30

// Aggregator recomputes statistics from the live store on every call.
type Aggregator struct {
	repo         repository.StatisticsRepository
	timelineDays int
}

func NewAggregator(repo repository.StatisticsRepository, timelineDays int) *Aggregator {
	if timelineDays <= 0 {
		timelineDays = DefaultTimelineDays
	}
	return &Aggregator{repo: repo, timelineDays: timelineDays}
}

func (a *Aggregator) Statistics(ctx context.Context) (*models.Statistics, error) {
	s, err := a.repo.ReportStatistics(ctx, a.timelineDays)
	if err != nil {
		return nil, fmt.Errorf("error computing statistics: %w", err)
	}

	// Empty collections serialize as {} and [], never null.
	if s.DisasterTypes == nil {
		s.DisasterTypes = map[string]int{}
	}
	if s.SeverityDistribution == nil {
		s.SeverityDistribution = map[string]int{}
	}
	if s.Timeline == nil {
		s.Timeline = []models.TimelinePoint{}
	}
	return s, nil
}

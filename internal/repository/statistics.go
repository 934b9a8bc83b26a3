package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mr1hm/go-disaster-reports/internal/models"
)

func (s *SQLiteDB) ReportStatistics(ctx context.Context, timelineDays int) (*models.Statistics, error) {
	stats := &models.Statistics{
		DisasterTypes:        make(map[string]int),
		SeverityDistribution: make(map[string]int),
		Timeline:             make([]models.TimelinePoint, 0),
	}

	// Every query runs inside one transaction so the figures agree with each other.
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := statusCounts(ctx, tx, stats); err != nil {
			return err
		}

		var err error
		if stats.DisasterTypes, err = groupCounts(ctx, tx, "disaster_type"); err != nil {
			return err
		}
		if stats.SeverityDistribution, err = groupCounts(ctx, tx, "severity"); err != nil {
			return err
		}
		if stats.Timeline, err = timeline(ctx, tx, timelineDays); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stats, nil
}

func statusCounts(ctx context.Context, q querier, stats *models.Statistics) error {
	const sumStatus = "COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0)"

	query, args, err := builder().
		Select("COUNT(*)").
		Column(sumStatus, string(models.StatusVerified)).
		Column(sumStatus, string(models.StatusPending)).
		Column(sumStatus, string(models.StatusResolved)).
		From(reportsTable).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate status count query: %w", err)
	}

	err = q.QueryRowContext(ctx, query, args...).Scan(
		&stats.TotalReports,
		&stats.VerifiedReports,
		&stats.PendingReports,
		&stats.ResolvedReports,
	)
	if err != nil {
		return fmt.Errorf("error counting reports by status: %w", err)
	}
	return nil
}

// groupCounts maps each distinct value of column to its row count. column is
// always one of our own identifiers, never caller input.
func groupCounts(ctx context.Context, q querier, column string) (map[string]int, error) {
	query, args, err := builder().
		Select(column, "COUNT(id)").
		From(reportsTable).
		GroupBy(column).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate %s group query: %w", column, err)
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error grouping reports by %s: %w", column, err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var key string
		var n int
		if err := rows.Scan(&key, &n); err != nil {
			return nil, fmt.Errorf("error scanning %s group: %w", column, err)
		}
		counts[key] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s groups: %w", column, err)
	}
	return counts, nil
}

// timeline returns report counts per calendar day, oldest first, limited to
// the earliest days distinct dates. Days without reports are absent.
func timeline(ctx context.Context, q querier, days int) ([]models.TimelinePoint, error) {
	b := builder().
		Select("substr(reported_at, 1, 10) AS day", "COUNT(id)").
		From(reportsTable).
		GroupBy("day").
		OrderBy("day ASC")
	if days > 0 {
		b = b.Limit(uint64(days))
	}

	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate timeline query: %w", err)
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error building timeline: %w", err)
	}
	defer rows.Close()

	points := make([]models.TimelinePoint, 0)
	for rows.Next() {
		var p models.TimelinePoint
		if err := rows.Scan(&p.Date, &p.Count); err != nil {
			return nil, fmt.Errorf("error scanning timeline: %w", err)
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating timeline: %w", err)
	}
	return points, nil
}

package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mr1hm/go-disaster-reports/internal/models"
)

var alertColumns = []string{"id", "title", "message", "alert_type", "created_at"}

func (s *SQLiteDB) AddAlert(ctx context.Context, a *models.Alert) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		query, args, err := builder().
			Insert(alertsTable).
			Columns(alertColumns[1:]...).
			Values(a.Title, a.Message, a.AlertType, formatTime(a.CreatedAt)).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to generate insert query: %w", err)
		}

		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("error inserting alert: %w", err)
		}

		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("error reading alert id: %w", err)
		}
		a.ID = id
		return nil
	})
}

func (s *SQLiteDB) ListAlerts(ctx context.Context, opts AlertFilter) ([]models.Alert, error) {
	b := builder().
		Select(alertColumns...).
		From(alertsTable).
		OrderBy("created_at DESC", "id DESC")

	if opts.Limit > 0 {
		b = b.Limit(uint64(opts.Limit))
		if opts.Offset > 0 {
			b = b.Offset(uint64(opts.Offset))
		}
	}

	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate alerts query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing alerts: %w", err)
	}
	defer rows.Close()

	alerts := make([]models.Alert, 0)
	for rows.Next() {
		var a models.Alert
		var createdAt string
		if err := rows.Scan(&a.ID, &a.Title, &a.Message, &a.AlertType, &createdAt); err != nil {
			return nil, fmt.Errorf("error scanning alert: %w", err)
		}
		if a.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		alerts = append(alerts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating alerts: %w", err)
	}
	return alerts, nil
}

func (s *SQLiteDB) CountAlerts(ctx context.Context) (int, error) {
	return count(ctx, s.db, alertsTable)
}

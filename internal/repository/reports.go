package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/mr1hm/go-disaster-reports/internal/models"
)

var reportColumns = []string{
	"id",
	"disaster_type",
	"location",
	"severity",
	"description",
	"reporter_name",
	"reporter_contact",
	"status",
	"reported_at",
	"updated_at",
}

func (s *SQLiteDB) AddReport(ctx context.Context, r *models.DisasterReport) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return insertReport(ctx, tx, r)
	})
}

func (s *SQLiteDB) AddReports(ctx context.Context, rs []*models.DisasterReport) error {
	if len(rs) == 0 {
		return nil
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		for i, r := range rs {
			if err := insertReport(ctx, tx, r); err != nil {
				return fmt.Errorf("error adding report %d of %d: %w", i+1, len(rs), err)
			}
		}
		return nil
	})
}

func insertReport(ctx context.Context, q querier, r *models.DisasterReport) error {
	query, args, err := builder().
		Insert(reportsTable).
		Columns(reportColumns[1:]...).
		Values(
			r.DisasterType,
			r.Location,
			r.Severity,
			r.Description,
			r.ReporterName,
			r.ReporterContact,
			string(r.Status),
			formatTime(r.ReportedAt),
			formatTime(r.UpdatedAt),
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate insert query: %w", err)
	}

	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("error inserting report: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("error reading report id: %w", err)
	}
	r.ID = id
	return nil
}

func (s *SQLiteDB) GetReport(ctx context.Context, id int64) (*models.DisasterReport, error) {
	return getReport(ctx, s.db, id)
}

func getReport(ctx context.Context, q querier, id int64) (*models.DisasterReport, error) {
	query, args, err := builder().
		Select(reportColumns...).
		From(reportsTable).
		Where(sq.Eq{"id": id}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate report query: %w", err)
	}

	r, err := scanReport(q.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error fetching report %d: %w", id, err)
	}
	return r, nil
}

func (s *SQLiteDB) UpdateReportStatus(ctx context.Context, id int64, status models.Status, at time.Time) (*models.DisasterReport, error) {
	var updated *models.DisasterReport

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		current, err := getReport(ctx, tx, id)
		if err != nil {
			return err
		}

		if !at.After(current.UpdatedAt) {
			at = current.UpdatedAt.Add(time.Nanosecond)
		}

		query, args, err := builder().
			Update(reportsTable).
			Set("status", string(status)).
			Set("updated_at", formatTime(at)).
			Where(sq.Eq{"id": id}).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to generate update query: %w", err)
		}

		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("error updating report %d: %w", id, err)
		}

		current.Status = status
		current.UpdatedAt = at.UTC()
		updated = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *SQLiteDB) DeleteReport(ctx context.Context, id int64) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		query, args, err := builder().
			Delete(reportsTable).
			Where(sq.Eq{"id": id}).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to generate delete query: %w", err)
		}

		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("error deleting report %d: %w", id, err)
		}

		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("error reading rows affected: %w", err)
		}
		if n == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (s *SQLiteDB) ListReports(ctx context.Context, opts ReportFilter) ([]models.DisasterReport, error) {
	b := builder().
		Select(reportColumns...).
		From(reportsTable).
		OrderBy("reported_at DESC", "id DESC")

	if opts.Status != nil {
		b = b.Where(sq.Eq{"status": string(*opts.Status)})
	}
	if opts.Limit > 0 {
		b = b.Limit(uint64(opts.Limit))
	}
	if opts.Offset > 0 {
		if opts.Limit <= 0 {
			// sqlite requires LIMIT before OFFSET
			b = b.Limit(1<<63 - 1)
		}
		b = b.Offset(uint64(opts.Offset))
	}

	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate reports query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing reports: %w", err)
	}
	defer rows.Close()

	reports := make([]models.DisasterReport, 0)
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning report: %w", err)
		}
		reports = append(reports, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reports: %w", err)
	}
	return reports, nil
}

func (s *SQLiteDB) CountReports(ctx context.Context) (int, error) {
	return count(ctx, s.db, reportsTable)
}

func count(ctx context.Context, q querier, table string) (int, error) {
	query, args, err := builder().Select("COUNT(*)").From(table).ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to generate count query: %w", err)
	}

	var n int
	if err := q.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("error counting %s: %w", table, err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReport(row rowScanner) (*models.DisasterReport, error) {
	var r models.DisasterReport
	var status, reportedAt, updatedAt string
	err := row.Scan(
		&r.ID,
		&r.DisasterType,
		&r.Location,
		&r.Severity,
		&r.Description,
		&r.ReporterName,
		&r.ReporterContact,
		&status,
		&reportedAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	r.Status = models.Status(status)
	if r.ReportedAt, err = parseTime(reportedAt); err != nil {
		return nil, err
	}
	if r.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &r, nil
}

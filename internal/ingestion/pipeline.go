// Package ingestion turns uploaded CSV files into disaster reports.
package ingestion

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/mr1hm/go-disaster-reports/internal/apperrors"
	"github.com/mr1hm/go-disaster-reports/internal/metrics"
	"github.com/mr1hm/go-disaster-reports/internal/models"
)

// DefaultMaxBytes bounds an upload when the caller does not configure a limit.
const DefaultMaxBytes int64 = 5 << 20

const statusColumn = "status"

// RequiredColumns must all be present in a row for it to be imported.
var RequiredColumns = []string{
	"disaster_type",
	"location",
	"severity",
	"description",
	"reporter_name",
	"reporter_contact",
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// BatchCreator is the report creation path shared with direct submission.
type BatchCreator interface {
	CreateBatch(ctx context.Context, batch []models.NewReport) ([]int64, error)
}

type Result struct {
	Added   int `json:"added"`
	Skipped int `json:"skipped"`
}

type Pipeline struct {
	reports  BatchCreator
	metrics  *metrics.Metrics
	maxBytes int64
}

func NewPipeline(reports BatchCreator, m *metrics.Metrics, maxBytes int64) *Pipeline {
	if m == nil {
		m = metrics.NewNop()
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Pipeline{
		reports:  reports,
		metrics:  m,
		maxBytes: maxBytes,
	}
}

// Import reads a CSV upload and creates one report per usable row, all in one
// batch. Rows that lack a required column are skipped and counted. A file that
// cannot be decoded or parsed fails as a whole with an *apperrors.ImportError
// and nothing is written.
func (p *Pipeline) Import(ctx context.Context, r io.Reader, filename string) (Result, error) {
	if err := CheckFilename(filename); err != nil {
		return Result{}, err
	}

	data, err := io.ReadAll(io.LimitReader(r, p.maxBytes+1))
	if err != nil {
		return Result{}, p.fail(fmt.Errorf("error reading upload: %w", err))
	}
	if int64(len(data)) > p.maxBytes {
		return Result{}, apperrors.Invalid("csv_file", fmt.Sprintf("file exceeds %d bytes", p.maxBytes))
	}

	batch, skipped, err := parse(data)
	if err != nil {
		return Result{}, p.fail(err)
	}

	if _, err := p.reports.CreateBatch(ctx, batch); err != nil {
		return Result{}, err
	}

	p.metrics.ImportRows.WithLabelValues("added").Add(float64(len(batch)))
	p.metrics.ImportRows.WithLabelValues("skipped").Add(float64(skipped))
	slog.Info("csv import complete", "file", filename, "added", len(batch), "skipped", skipped)

	return Result{Added: len(batch), Skipped: skipped}, nil
}

// CheckFilename rejects empty names and names without a .csv extension.
func CheckFilename(filename string) error {
	if strings.TrimSpace(filename) == "" {
		return apperrors.Invalid("csv_file", "no file selected")
	}
	if !strings.EqualFold(filepath.Ext(filename), ".csv") {
		return apperrors.Invalid("csv_file", "please upload a CSV file")
	}
	return nil
}

func (p *Pipeline) fail(cause error) error {
	p.metrics.ImportFailures.Inc()
	slog.Warn("csv import failed", "error", cause)
	return &apperrors.ImportError{Cause: cause}
}

func parse(data []byte) ([]models.NewReport, int, error) {
	if !utf8.Valid(data) {
		return nil, 0, errors.New("file is not valid UTF-8")
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	if err := checkQuotes(data); err != nil {
		return nil, 0, err
	}

	cr := csv.NewReader(bytes.NewReader(data))
	cr.FieldsPerRecord = -1 // short rows are handled per row below
	cr.LazyQuotes = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return []models.NewReport{}, 0, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("error reading header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	batch := make([]models.NewReport, 0)
	skipped := 0
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, 0, err
		}

		row := toRow(header, record)
		nr, ok := toReport(row)
		if !ok {
			line, _ := cr.FieldPos(0)
			slog.Debug("skipping csv row without required columns", "line", line)
			skipped++
			continue
		}
		batch = append(batch, nr)
	}

	return batch, skipped, nil
}

// checkQuotes walks data with a strict reader. A stray quote inside an
// unquoted field is tolerated, the lenient reader keeps it as text. A quoted
// field that is never closed would swallow the rest of the file, so it fails.
func checkQuotes(data []byte) error {
	cr := csv.NewReader(bytes.NewReader(data))
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	for {
		_, err := cr.Read()
		switch {
		case errors.Is(err, io.EOF):
			return nil
		case errors.Is(err, csv.ErrBareQuote):
			continue
		case err != nil:
			return err
		}
	}
}

// toRow keys record by header. Fields past the header are ignored; header
// columns past the end of a short record are absent from the map. When a
// column name repeats, the last occurrence wins.
func toRow(header, record []string) map[string]string {
	row := make(map[string]string, len(header))
	for i, name := range header {
		if i >= len(record) {
			break
		}
		row[name] = record[i]
	}
	return row
}

func toReport(row map[string]string) (models.NewReport, bool) {
	for _, col := range RequiredColumns {
		if _, ok := row[col]; !ok {
			return models.NewReport{}, false
		}
	}

	status := models.StatusPending
	if raw, ok := row[statusColumn]; ok {
		if st, valid := models.ParseStatus(raw); valid {
			status = st
		}
	}

	return models.NewReport{
		ReportFields: models.ReportFields{
			DisasterType:    row["disaster_type"],
			Location:        row["location"],
			Severity:        row["severity"],
			Description:     row["description"],
			ReporterName:    row["reporter_name"],
			ReporterContact: row["reporter_contact"],
		},
		Status: status,
	}, true
}

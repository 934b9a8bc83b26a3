package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mr1hm/go-disaster-reports/internal/apperrors"
	"github.com/mr1hm/go-disaster-reports/internal/ingestion"
	"github.com/mr1hm/go-disaster-reports/internal/reports"
	"github.com/mr1hm/go-disaster-reports/internal/repository"
)

func newTestPipeline(t *testing.T) (*ingestion.Pipeline, *repository.SQLiteDB) {
	t.Helper()
	db, err := repository.NewSQLiteDB(":memory:")
	require.NoError(t, err)
	require.NoError(t, db.Migrate(context.Background()))
	t.Cleanup(func() { db.Close() })
	return ingestion.NewPipeline(reports.NewService(db, nil), nil, 0), db
}

func TestImportFile(t *testing.T) {
	p, db := newTestPipeline(t)
	dir := t.TempDir()
	path := filepath.Join(dir, ingestion.TemplateFilename)
	require.NoError(t, os.WriteFile(path, ingestion.Template(), 0o644))

	res, err := importFile(context.Background(), p, path)
	require.NoError(t, err)
	assert.Equal(t, ingestion.Result{Added: 2}, res)

	n, err := db.CountReports(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestImportFile_WrongExtensionNotOpened(t *testing.T) {
	p, _ := newTestPipeline(t)

	// the file does not exist; the extension check must fail first
	_, err := importFile(context.Background(), p, filepath.Join(t.TempDir(), "reports.xlsx"))
	require.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestImportFile_Missing(t *testing.T) {
	p, _ := newTestPipeline(t)

	_, err := importFile(context.Background(), p, filepath.Join(t.TempDir(), "missing.csv"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

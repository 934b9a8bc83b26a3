package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/mr1hm/go-disaster-reports/internal/alerts"
	"github.com/mr1hm/go-disaster-reports/internal/config"
	"github.com/mr1hm/go-disaster-reports/internal/ingestion"
	"github.com/mr1hm/go-disaster-reports/internal/metrics"
	"github.com/mr1hm/go-disaster-reports/internal/models"
	"github.com/mr1hm/go-disaster-reports/internal/reports"
	"github.com/mr1hm/go-disaster-reports/internal/repository"
	"github.com/mr1hm/go-disaster-reports/internal/stats"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type testServer struct {
	router *gin.Engine
	db     *repository.SQLiteDB
}

type serverOption func(cfg *config.Config, d *Deps)

func newTestServer(t *testing.T, opts ...serverOption) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := repository.NewSQLiteDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate(context.Background()))

	cfg := &config.Config{}
	cfg.CORS.AllowOrigins = []string{"*"}
	cfg.Import.MaxUploadBytes = ingestion.DefaultMaxBytes
	cfg.Metrics.Enabled = true

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	svc := reports.NewService(db, m)
	d := Deps{
		Reports:        svc,
		Alerts:         alerts.NewBroadcaster(db, m),
		Stats:          stats.NewAggregator(db, stats.DefaultTimelineDays),
		Store:          db,
		MaxUploadBytes: cfg.Import.MaxUploadBytes,
	}
	for _, opt := range opts {
		opt(cfg, &d)
	}
	d.Importer = ingestion.NewPipeline(svc, m, d.MaxUploadBytes)

	return &testServer{
		router: NewRouter(cfg, NewHandler(d), m, reg),
		db:     db,
	}
}

func (s *testServer) do(method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) doJSON(method, path string, v any) *httptest.ResponseRecorder {
	b, _ := json.Marshal(v)
	return s.do(method, path, bytes.NewReader(b), "application/json")
}

func (s *testServer) submit(t *testing.T, disasterType string) int64 {
	t.Helper()
	w := s.doJSON(http.MethodPost, "/api/reports", sampleFields(disasterType))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		ID int64 `json:"id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.ID
}

func sampleFields(disasterType string) models.ReportFields {
	return models.ReportFields{
		DisasterType:    disasterType,
		Location:        "Test City",
		Severity:        "High",
		Description:     "Water rising",
		ReporterName:    "Alice",
		ReporterContact: "alice@example.com",
	}
}

func multipartBody(t *testing.T, field, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("database is locked") }

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestHealth_StoreDown(t *testing.T) {
	s := newTestServer(t, func(_ *config.Config, d *Deps) { d.Store = failingPinger{} })

	w := s.do(http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestSubmitAndGetReport(t *testing.T) {
	s := newTestServer(t)

	id := s.submit(t, "Flood")
	assert.Equal(t, int64(1), id)

	w := s.do(http.MethodGet, "/api/reports/1", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	var r models.DisasterReport
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &r))
	assert.Equal(t, "Flood", r.DisasterType)
	assert.Equal(t, models.StatusPending, r.Status)
	assert.True(t, r.ReportedAt.Equal(r.UpdatedAt))
}

func TestSubmitReport_Form(t *testing.T) {
	s := newTestServer(t)

	form := url.Values{
		"disaster_type":    {"Wildfire"},
		"location":         {"Ridge"},
		"severity":         {"Severe"},
		"description":      {"Smoke"},
		"reporter_name":    {"Bob"},
		"reporter_contact": {"555"},
	}
	w := s.do(http.MethodPost, "/api/reports", strings.NewReader(form.Encode()), "application/x-www-form-urlencoded")
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

func TestSubmitReport_MissingFields(t *testing.T) {
	s := newTestServer(t)

	f := sampleFields("Flood")
	f.Location = "   "
	f.ReporterContact = ""
	w := s.doJSON(http.MethodPost, "/api/reports", f)
	require.Equal(t, http.StatusBadRequest, w.Code)

	var body struct {
		Error  string   `json:"error"`
		Fields []string `json:"fields"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, []string{"location", "reporter_contact"}, body.Fields)

	n, err := s.db.CountReports(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSubmitReport_MalformedJSON(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPost, "/api/reports", strings.NewReader("{"), "application/json")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetReport_Errors(t *testing.T) {
	s := newTestServer(t)

	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodGet, "/api/reports/abc", nil, "").Code)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodGet, "/api/reports/0", nil, "").Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/api/reports/99", nil, "").Code)
}

func TestUpdateStatus(t *testing.T) {
	s := newTestServer(t)
	id := s.submit(t, "Flood")
	_ = id

	w := s.doJSON(http.MethodPatch, "/api/reports/1/status", gin.H{"status": "verified"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var r models.DisasterReport
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &r))
	assert.Equal(t, models.StatusVerified, r.Status)
	assert.True(t, r.UpdatedAt.After(r.ReportedAt))

	// form-encoded POST is accepted as well
	w = s.do(http.MethodPost, "/api/reports/1/status", strings.NewReader("status=resolved"), "application/x-www-form-urlencoded")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	got, err := s.db.GetReport(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, models.StatusResolved, got.Status)
}

func TestUpdateStatus_Errors(t *testing.T) {
	s := newTestServer(t)
	s.submit(t, "Flood")

	w := s.doJSON(http.MethodPatch, "/api/reports/1/status", gin.H{"status": "Verified"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = s.doJSON(http.MethodPatch, "/api/reports/42/status", gin.H{"status": "verified"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	got, err := s.db.GetReport(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, got.Status)
}

func TestDeleteReport(t *testing.T) {
	s := newTestServer(t)
	s.submit(t, "Flood")

	w := s.do(http.MethodDelete, "/api/reports/1", nil, "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = s.do(http.MethodDelete, "/api/reports/1", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListReports(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, "/api/reports", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	s.submit(t, "Flood")
	s.submit(t, "Fire")
	s.doJSON(http.MethodPatch, "/api/reports/2/status", gin.H{"status": "verified"})

	var list []models.DisasterReport
	w = s.do(http.MethodGet, "/api/reports?status=all", nil, "")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 2)
	assert.Equal(t, int64(2), list[0].ID)

	w = s.do(http.MethodGet, "/api/reports?status=verified", nil, "")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "Fire", list[0].DisasterType)

	w = s.do(http.MethodGet, "/api/reports?status=unknown", nil, "")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestImportReports(t *testing.T) {
	s := newTestServer(t)

	body, ct := multipartBody(t, "csv_file", "reports.csv", ingestion.Template())
	w := s.do(http.MethodPost, "/api/reports/import", body, ct)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"added":2,"skipped":0}`, w.Body.String())

	verified := models.StatusVerified
	list, err := s.db.ListReports(context.Background(), repository.ReportFilter{Status: &verified})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Flood", list[0].DisasterType)
}

func TestImportReports_Errors(t *testing.T) {
	tests := []struct {
		name     string
		field    string
		filename string
		content  []byte
		want     int
	}{
		{"wrong extension", "csv_file", "reports.txt", []byte("a,b\n"), http.StatusBadRequest},
		{"wrong field", "file", "reports.csv", ingestion.Template(), http.StatusBadRequest},
		{"invalid utf-8", "csv_file", "reports.csv", []byte{0xff, 0xfe, 0x00, 0x41}, http.StatusUnprocessableEntity},
		{"malformed csv", "csv_file", "reports.csv", []byte("disaster_type,location\n\"unterminated,x\n"), http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t)
			body, ct := multipartBody(t, tt.field, tt.filename, tt.content)

			w := s.do(http.MethodPost, "/api/reports/import", body, ct)
			assert.Equal(t, tt.want, w.Code, w.Body.String())

			n, err := s.db.CountReports(context.Background())
			require.NoError(t, err)
			assert.Zero(t, n)
		})
	}
}

func TestImportReports_NotMultipart(t *testing.T) {
	s := newTestServer(t)

	w := s.doJSON(http.MethodPost, "/api/reports/import", gin.H{"csv_file": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestImportReports_TooLarge(t *testing.T) {
	s := newTestServer(t, func(cfg *config.Config, d *Deps) {
		cfg.Import.MaxUploadBytes = 64
		d.MaxUploadBytes = 64
	})

	body, ct := multipartBody(t, "csv_file", "reports.csv", ingestion.Template())
	w := s.do(http.MethodPost, "/api/reports/import", body, ct)
	assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
}

func TestTemplate(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, "/api/reports/template", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), ingestion.TemplateFilename)
	assert.Equal(t, ingestion.Template(), w.Body.Bytes())
}

func TestAlerts(t *testing.T) {
	s := newTestServer(t)

	w := s.doJSON(http.MethodPost, "/api/alerts", gin.H{"title": "Evacuate", "message": "Move inland", "alert_type": "Emergency"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var a models.Alert
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &a))
	assert.Equal(t, int64(1), a.ID)
	assert.Equal(t, "Emergency", a.AlertType)

	w = s.doJSON(http.MethodPost, "/api/alerts", gin.H{"title": "No body"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodGet, "/api/alerts", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var list []models.Alert
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list, 1)
}

func TestStatistics(t *testing.T) {
	s := newTestServer(t)
	s.submit(t, "Flood")
	s.submit(t, "Flood")
	s.doJSON(http.MethodPatch, "/api/reports/1/status", gin.H{"status": "verified"})

	w := s.do(http.MethodGet, "/api/statistics", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	var st models.Statistics
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &st))
	assert.Equal(t, 2, st.TotalReports)
	assert.Equal(t, 1, st.VerifiedReports)
	assert.Equal(t, 1, st.PendingReports)
	assert.Equal(t, 2, st.DisasterTypes["Flood"])
	require.Len(t, st.Timeline, 1)
	assert.Equal(t, 2, st.Timeline[0].Count)
}

func TestRequestID(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, "/health", nil, "")
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)
	s.do(http.MethodGet, "/health", nil, "")

	w := s.do(http.MethodGet, "/metrics", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `disaster_reports_http_requests_total{code="200",method="GET",route="/health"} 1`)
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/reports", nil)
	req.Header.Set("Origin", "https://dashboard.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRateLimit(t *testing.T) {
	s := newTestServer(t, func(cfg *config.Config, _ *Deps) {
		cfg.RateLimit = config.RateLimitConfig{Enabled: true, RPS: 1, Burst: 1}
	})

	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/health", nil, "").Code)

	w := s.do(http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))
}

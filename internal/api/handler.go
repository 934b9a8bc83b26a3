package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/mr1hm/go-disaster-reports/internal/alerts"
	"github.com/mr1hm/go-disaster-reports/internal/apperrors"
	"github.com/mr1hm/go-disaster-reports/internal/ingestion"
	"github.com/mr1hm/go-disaster-reports/internal/models"
	"github.com/mr1hm/go-disaster-reports/internal/reports"
	"github.com/mr1hm/go-disaster-reports/internal/stats"
)

// multipartOverhead is allowed on top of the CSV limit for boundaries and
// part headers.
const multipartOverhead = 64 << 10

type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	reports        *reports.Service
	alerts         *alerts.Broadcaster
	importer       *ingestion.Pipeline
	stats          *stats.Aggregator
	store          Pinger
	maxUploadBytes int64
}

type Deps struct {
	Reports        *reports.Service
	Alerts         *alerts.Broadcaster
	Importer       *ingestion.Pipeline
	Stats          *stats.Aggregator
	Store          Pinger
	MaxUploadBytes int64
}

func NewHandler(d Deps) *Handler {
	if d.MaxUploadBytes <= 0 {
		d.MaxUploadBytes = ingestion.DefaultMaxBytes
	}
	return &Handler{
		reports:        d.Reports,
		alerts:         d.Alerts,
		importer:       d.Importer,
		stats:          d.Stats,
		store:          d.Store,
		maxUploadBytes: d.MaxUploadBytes,
	}
}

func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.GET("/health", h.health)

	api := r.Group("/api")
	api.POST("/reports", h.submitReport)
	api.GET("/reports", h.listReports)
	api.POST("/reports/import", h.importReports)
	api.GET("/reports/template", h.template)
	api.GET("/reports/:id", h.getReport)
	api.PATCH("/reports/:id/status", h.updateStatus)
	api.POST("/reports/:id/status", h.updateStatus)
	api.DELETE("/reports/:id", h.deleteReport)

	api.POST("/alerts", h.broadcastAlert)
	api.GET("/alerts", h.listAlerts)

	api.GET("/statistics", h.statistics)
}

func (h *Handler) health(c *gin.Context) {
	if err := h.store.Ping(c.Request.Context()); err != nil {
		slog.Error("health check failed", "error", err, "request_id", requestID(c))
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) submitReport(c *gin.Context) {
	var fields models.ReportFields
	if err := c.ShouldBind(&fields); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	id, err := h.reports.Submit(c.Request.Context(), fields)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

func (h *Handler) listReports(c *gin.Context) {
	ctx := c.Request.Context()

	var (
		list []models.DisasterReport
		err  error
	)
	if status := c.DefaultQuery("status", "all"); status == "all" {
		list, err = h.reports.ListAll(ctx)
	} else {
		list, err = h.reports.ListByStatus(ctx, status)
	}
	if err != nil {
		writeError(c, err)
		return
	}

	if list == nil {
		list = []models.DisasterReport{}
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) getReport(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	r, err := h.reports.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

type statusRequest struct {
	Status string `json:"status" form:"status"`
}

func (h *Handler) updateStatus(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req statusRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	r, err := h.reports.UpdateStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

func (h *Handler) deleteReport(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.reports.Delete(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) importReports(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes+multipartOverhead)

	fh, err := c.FormFile("csv_file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			writeError(c, apperrors.Invalid("csv_file", fmt.Sprintf("file exceeds %d bytes", h.maxUploadBytes)))
		case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
			writeError(c, apperrors.MissingFields("csv_file"))
		default:
			writeError(c, apperrors.Invalid("csv_file", "malformed multipart upload"))
		}
		return
	}

	f, err := fh.Open()
	if err != nil {
		writeError(c, &apperrors.ImportError{Cause: err})
		return
	}
	defer f.Close()

	res, err := h.importer.Import(c.Request.Context(), f, fh.Filename)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) template(c *gin.Context) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", ingestion.TemplateFilename))
	c.Data(http.StatusOK, ingestion.TemplateContentType, ingestion.Template())
}

type alertRequest struct {
	Title     string `json:"title" form:"title"`
	Message   string `json:"message" form:"message"`
	AlertType string `json:"alert_type" form:"alert_type"`
}

func (h *Handler) broadcastAlert(c *gin.Context) {
	var req alertRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	a, err := h.alerts.Broadcast(c.Request.Context(), req.Title, req.Message, req.AlertType)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, a)
}

func (h *Handler) listAlerts(c *gin.Context) {
	list, err := h.alerts.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	if list == nil {
		list = []models.Alert{}
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) statistics(c *gin.Context) {
	s, err := h.stats.Statistics(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid report id"})
		return 0, false
	}
	return id, true
}

// writeError maps core errors to a status code and JSON body. Anything the
// core does not classify is logged and reported as a 500.
func writeError(c *gin.Context, err error) {
	var verr *apperrors.ValidationError
	switch {
	case errors.As(err, &verr):
		body := gin.H{"error": verr.Reason}
		if len(verr.Fields) > 0 {
			body["fields"] = verr.Fields
		}
		c.JSON(http.StatusBadRequest, body)
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "report not found"})
	case errors.Is(err, apperrors.ErrInvalidStatus):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrImport):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		slog.Error("request failed", "error", err, "path", c.FullPath(), "request_id", requestID(c))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

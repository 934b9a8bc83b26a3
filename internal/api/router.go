package api

import (
	"github.com/gin-gonic/gin"
	"github.com/mr1hm/go-disaster-reports/internal/config"
	"github.com/mr1hm/go-disaster-reports/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter wires the middleware chain and every route. gatherer backs
// /metrics and may be nil when metrics are disabled.
func NewRouter(cfg *config.Config, h *Handler, m *metrics.Metrics, gatherer prometheus.Gatherer) *gin.Engine {
	router := gin.New()
	router.MaxMultipartMemory = cfg.Import.MaxUploadBytes
	router.Use(gin.Recovery())
	router.Use(RequestID())
	router.Use(RequestLogger())
	if m != nil {
		router.Use(Metrics(m))
	}
	router.Use(CORS(cfg.CORS.AllowOrigins))
	if cfg.RateLimit.Enabled {
		router.Use(RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
	}

	h.RegisterRoutes(router)

	if cfg.Metrics.Enabled && gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	return router
}

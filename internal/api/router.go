// internal/api/router.go
package api

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/akashia/dreambank/internal/auth"
	"github.com/akashia/dreambank/internal/config"
	"github.com/akashia/dreambank/internal/di"
	"github.com/akashia/dreambank/internal/services"
)

// NewHandlerFromContainer builds the handler from registered services
func NewHandlerFromContainer(container *di.Container) (*Handler, error) {
	cfg, err := di.Resolve[*config.Config](container, di.ServiceConfig)
	if err != nil {
		return nil, err
	}
	analyzerService, err := di.Resolve[*services.AnalyzerService](container, di.ServiceAnalyzer)
	if err != nil {
		return nil, err
	}
	submissionService, err := di.Resolve[*services.SubmissionService](container, di.ServiceSubmissions)
	if err != nil {
		return nil, err
	}
	statsService, err := di.Resolve[*services.StatsService](container, di.ServiceStats)
	if err != nil {
		return nil, err
	}
	exportService, err := di.Resolve[*services.ExportService](container, di.ServiceExport)
	if err != nil {
		return nil, err
	}
	admin, err := di.Resolve[*auth.AdminAuth](container, di.ServiceAdminAuth)
	if err != nil {
		return nil, err
	}
	feed, err := di.Resolve[*FeedHub](container, di.ServiceFeed)
	if err != nil {
		return nil, err
	}

	return NewHandler(cfg, analyzerService, submissionService, statsService, exportService, admin, feed), nil
}

// SetupRouter wires every route onto a new engine
func SetupRouter(container *di.Container) (*gin.Engine, *Handler, error) {
	handler, err := NewHandlerFromContainer(container)
	if err != nil {
		return nil, nil, fmt.Errorf("build handler: %w", err)
	}
	cfg := handler.Config

	if !cfg.DebugMode {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(MetricsMiddleware())
	r.Use(corsMiddleware())

	if info, err := os.Stat(cfg.StaticDir); err == nil && info.IsDir() {
		r.Static("/static", cfg.StaticDir)
	}

	pattern := filepath.Join(cfg.TemplatesDir, "*.html")
	if matches, _ := filepath.Glob(pattern); len(matches) == 0 {
		return nil, nil, fmt.Errorf("no templates found in %s", cfg.TemplatesDir)
	}
	r.LoadHTMLGlob(pattern)

	limit := RateLimitByIP(handler.Limiter, handler.Response)
	admin := RequireAdmin(handler.Admin, handler.Response)

	// ===============================
	// Pages
	// ===============================
	r.GET("/", handler.IndexPage)
	r.POST("/", limit, handler.SubmitForm)
	r.GET("/success", handler.SuccessPage)
	r.GET("/dreams/:id", handler.DreamPage)
	r.GET("/stats", handler.StatsPage)
	r.GET("/submissions", admin, handler.SubmissionsPage)

	// ===============================
	// Exports
	// ===============================
	r.GET("/export.csv", admin, handler.ExportCSV)
	r.GET("/export.json", admin, handler.ExportJSON)

	// ===============================
	// API
	// ===============================
	apiGroup := r.Group("/api")
	{
		apiGroup.POST("/analyze", limit, handler.AnalyzeDream)
		apiGroup.POST("/dreams", limit, handler.CreateDream)
		apiGroup.GET("/dreams/:id", handler.GetDream)
		apiGroup.GET("/stats", handler.GetStats)
		apiGroup.GET("/lexicon", handler.GetLexicon)
		apiGroup.POST("/admin/login", limit, handler.AdminLogin)
		apiGroup.GET("/submissions", admin, handler.ListSubmissions)
	}

	// ===============================
	// Infrastructure
	// ===============================
	r.GET("/health", handler.Health)
	r.GET("/metrics", handler.Metrics)
	r.GET("/ws/feed", handler.FeedWebSocket)

	r.NoRoute(func(c *gin.Context) {
		handler.Response.NotFound(c, "route")
	})

	return r, handler, nil
}

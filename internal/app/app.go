// internal/app/app.go
package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/akashia/dreambank/internal/analyzer"
	"github.com/akashia/dreambank/internal/api"
	"github.com/akashia/dreambank/internal/auth"
	"github.com/akashia/dreambank/internal/config"
	"github.com/akashia/dreambank/internal/di"
	"github.com/akashia/dreambank/internal/services"
	"github.com/akashia/dreambank/internal/storage"
	"github.com/akashia/dreambank/internal/utils"
)

const (
	shutdownTimeout     = 30 * time.Second
	analysisConcurrency = 8
)

// App owns the wired services and the HTTP server
type App struct {
	config    *config.Config
	container *di.Container
	store     storage.Store
	router    *gin.Engine
	handler   *api.Handler
	logger    *utils.Logger

	mu       sync.Mutex
	listener net.Listener
}

var (
	instance *App
	once     sync.Once
)

// GetApp returns the process-wide application
func GetApp() *App {
	once.Do(func() {
		instance = &App{
			container: di.GetContainer(),
			logger:    utils.GetLogger(),
		}
	})
	return instance
}

// New builds an application on its own container
func New() *App {
	return &App{
		container: di.NewContainer(),
		logger:    utils.GetLogger(),
	}
}

// BuildAnalyzer constructs the pipeline for cfg, loading the override
// lexicon when one is configured
func BuildAnalyzer(cfg *config.Config) (*analyzer.Analyzer, error) {
	opts := []analyzer.Option{analyzer.WithMinTextLength(cfg.MinTextLength)}
	if cfg.LexiconPath == "" {
		return analyzer.NewDefault(opts...)
	}
	lex, err := analyzer.LoadLexicon(cfg.LexiconPath)
	if err != nil {
		return nil, err
	}
	return analyzer.New(lex, opts...)
}

// InitServices creates every service in dependency order and registers it
// in the container
func (a *App) InitServices(cfg *config.Config) error {
	a.config = cfg

	pipeline, err := BuildAnalyzer(cfg)
	if err != nil {
		return fmt.Errorf("build analyzer: %w", err)
	}
	store, err := storage.Open(cfg)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	a.store = store

	admin, err := auth.NewAdminAuth(cfg.AdminPassword, cfg.AuthSecretKey, 0)
	if err != nil {
		store.Close()
		return err
	}
	if !admin.Enabled() {
		a.logger.Warn("ADMIN_PASSWORD is not set; admin endpoints are locked", nil)
	}

	analyzerService := services.NewAnalyzerService(pipeline, analysisConcurrency)
	submissions := services.NewSubmissionService(analyzerService, store, cfg.MaxTextLength)
	feed := api.NewFeedHub()
	submissions.SetBroadcaster(feed)

	c := a.container
	c.Register(di.ServiceConfig, cfg)
	c.Register(di.ServiceStore, store)
	c.Register(di.ServiceAnalyzer, analyzerService)
	c.Register(di.ServiceSubmissions, submissions)
	c.Register(di.ServiceStats, services.NewStatsService(pipeline.Lexicon(), store))
	c.Register(di.ServiceExport, services.NewExportService(store, cfg.DataDir))
	c.Register(di.ServiceAdminAuth, admin)
	c.Register(di.ServiceFeed, feed)

	router, handler, err := api.SetupRouter(c)
	if err != nil {
		store.Close()
		return fmt.Errorf("setup router: %w", err)
	}
	a.router = router
	a.handler = handler

	a.logger.Info("services initialized", map[string]interface{}{
		"storage":  cfg.StorageDriver,
		"services": c.GetNames(),
	})
	return nil
}

func (a *App) Container() *di.Container {
	return a.container
}

func (a *App) Router() *gin.Engine {
	return a.router
}

// Addr is the address the server listens on once Run has started
func (a *App) Addr() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.listener == nil {
		return ""
	}
	return a.listener.Addr().String()
}

// Run serves HTTP, the live feed and the export schedule until ctx is
// cancelled or one of them fails, then shuts everything down
func (a *App) Run(ctx context.Context) error {
	if a.router == nil {
		return errors.New("services are not initialized")
	}
	cfg := a.config

	listener, err := net.Listen("tcp", ":"+cfg.Port)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", cfg.Port, err)
	}
	a.mu.Lock()
	a.listener = listener
	a.mu.Unlock()

	srv := &http.Server{
		Handler:           a.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	exportService, err := di.Resolve[*services.ExportService](a.container, di.ServiceExport)
	if err != nil {
		listener.Close()
		return err
	}
	if err := exportService.StartSchedule(cfg.ExportSchedule); err != nil {
		listener.Close()
		return err
	}
	defer exportService.Stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.Info("server listening", map[string]interface{}{
			"addr":    listener.Addr().String(),
			"version": config.Version,
		})
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve http: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return a.handler.Feed.Run(gctx)
	})
	g.Go(func() error {
		return a.handler.Limiter.RunCleanup(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info("shutting down", nil)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http: %w", err)
		}
		return nil
	})

	err = g.Wait()
	a.logger.Info("server stopped", nil)
	return err
}

// Close releases the store
func (a *App) Close() error {
	if a.store == nil {
		return nil
	}
	return a.store.Close()
}

package app

import (
	"context"
	"net"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akashia/dreambank/internal/config"
	"github.com/akashia/dreambank/internal/di"
	"github.com/akashia/dreambank/internal/storage"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testConfig(t *testing.T) *config.Config {
	dir := t.TempDir()
	return &config.Config{
		Port:               "0",
		DataDir:            dir,
		StaticDir:          filepath.Join("..", "..", "web", "static"),
		TemplatesDir:       filepath.Join("..", "..", "web", "templates"),
		DebugMode:          true,
		StorageDriver:      config.StorageSQLite,
		SQLitePath:         filepath.Join(dir, "dreams.db"),
		AdminPassword:      "testpass",
		MinTextLength:      10,
		MaxTextLength:      5000,
		RateLimitPerMinute: 30,
	}
}

func TestGetApp(t *testing.T) {
	assert.Same(t, GetApp(), GetApp())
	assert.Same(t, di.GetContainer(), GetApp().Container())
}

func TestInitServicesRegistersEverything(t *testing.T) {
	a := New()
	require.NoError(t, a.InitServices(testConfig(t)))
	defer a.Close()

	for _, name := range []string{
		di.ServiceConfig, di.ServiceStore, di.ServiceAnalyzer, di.ServiceSubmissions,
		di.ServiceStats, di.ServiceExport, di.ServiceAdminAuth, di.ServiceFeed,
	} {
		assert.True(t, a.Container().Has(name), name)
	}
	_, err := di.Resolve[*storage.SQLiteStore](a.Container(), di.ServiceStore)
	assert.NoError(t, err)
	assert.NotNil(t, a.Router())
}

func TestInitServicesFailsOnBadLexicon(t *testing.T) {
	cfg := testConfig(t)
	cfg.LexiconPath = filepath.Join(t.TempDir(), "missing.yaml")

	err := New().InitServices(cfg)
	assert.ErrorContains(t, err, "build analyzer")
}

func TestRunServesUntilCancelled(t *testing.T) {
	a := New()
	require.NoError(t, a.InitServices(testConfig(t)))
	defer a.Close()

	ctx, cancel := context.WithCancel(context.Background())
	result := make(chan error, 1)
	go func() { result <- a.Run(ctx) }()

	require.Eventually(t, func() bool { return a.Addr() != "" }, 2*time.Second, 10*time.Millisecond)

	_, port, err := net.SplitHostPort(a.Addr())
	require.NoError(t, err)
	resp, err := http.Get("http://127.0.0.1:" + port + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-result:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestRunRejectsBadSchedule(t *testing.T) {
	cfg := testConfig(t)
	cfg.ExportSchedule = "not a cron spec"
	a := New()
	require.NoError(t, a.InitServices(cfg))
	defer a.Close()

	assert.Error(t, a.Run(context.Background()))
}

func TestRunRequiresInit(t *testing.T) {
	assert.Error(t, New().Run(context.Background()))
}

package monitoring

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fxfiles/fxshare/config"
	"github.com/fxfiles/fxshare/crypto"
	"github.com/fxfiles/fxshare/logging"
)

func TestMain(m *testing.M) {
	logging.DebugLogger = log.New(io.Discard, "", 0)
	logging.InfoLogger = log.New(io.Discard, "", 0)
	logging.WarningLogger = log.New(io.Discard, "", 0)
	logging.ErrorLogger = log.New(io.Discard, "", 0)
	os.Exit(m.Run())
}

// fakeStore implements ShareStore with injectable failures.
type fakeStore struct {
	pingErr  error
	countErr error
	count    int
}

func (f *fakeStore) Ping(ctx context.Context) error {
	return f.pingErr
}

func (f *fakeStore) CountOutgoing(ctx context.Context) (int, error) {
	return f.count, f.countErr
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Storage.Provider = "s3"
	cfg.Storage.Bucket = "fula-main"
	cfg.Storage.AccessKey = "test-access-key"
	cfg.Mirror.Enabled = true
	return cfg
}

func TestStoreHealthCheck(t *testing.T) {
	ctx := context.Background()

	t.Run("Healthy", func(t *testing.T) {
		check := (&StoreHealthCheck{store: &fakeStore{count: 3}}).Check(ctx)
		assert.Equal(t, StatusHealthy, check.Status)
		assert.Contains(t, check.Message, "3 outgoing shares")
	})

	t.Run("Ping Failure", func(t *testing.T) {
		check := (&StoreHealthCheck{store: &fakeStore{pingErr: errors.New("closed")}}).Check(ctx)
		assert.Equal(t, StatusUnhealthy, check.Status)
		assert.Contains(t, check.Message, "ping failed")
	})

	t.Run("Count Failure", func(t *testing.T) {
		check := (&StoreHealthCheck{store: &fakeStore{countErr: errors.New("no such table")}}).Check(ctx)
		assert.Equal(t, StatusDegraded, check.Status)
	})

	t.Run("Nil Store", func(t *testing.T) {
		check := (&StoreHealthCheck{}).Check(ctx)
		assert.Equal(t, StatusUnhealthy, check.Status)
	})
}

func TestIdentityHealthCheck(t *testing.T) {
	ctx := context.Background()

	identity, err := crypto.NewIdentity()
	require.NoError(t, err)

	t.Run("Not Loaded", func(t *testing.T) {
		check := (&IdentityHealthCheck{config: testConfig()}).Check(ctx)
		assert.Equal(t, StatusUnhealthy, check.Status)
	})

	t.Run("Loaded With Key File", func(t *testing.T) {
		keyFile := filepath.Join(t.TempDir(), "fxshare.keys")
		require.NoError(t, os.WriteFile(keyFile, []byte("placeholder"), 0600))

		cfg := testConfig()
		cfg.Identity.KeyFile = keyFile

		check := (&IdentityHealthCheck{config: cfg, identity: identity}).Check(ctx)
		assert.Equal(t, StatusHealthy, check.Status)
		assert.Equal(t, identity.ShareID(), check.Details["share_id"])
		assert.Equal(t, "exists", check.Details["key_file"])
	})

	t.Run("Key File Missing", func(t *testing.T) {
		cfg := testConfig()
		cfg.Identity.KeyFile = filepath.Join(t.TempDir(), "does-not-exist.keys")

		check := (&IdentityHealthCheck{config: cfg, identity: identity}).Check(ctx)
		assert.Equal(t, StatusDegraded, check.Status)
		assert.Equal(t, "missing", check.Details["key_file"])
	})
}

func TestStorageHealthCheck(t *testing.T) {
	ctx := context.Background()

	t.Run("Configured", func(t *testing.T) {
		check := (&StorageHealthCheck{config: testConfig()}).Check(ctx)
		assert.Equal(t, StatusHealthy, check.Status)
		assert.Equal(t, "complete", check.Details["configuration"])
		assert.Equal(t, "fula-main", check.Details["bucket"])
		assert.Equal(t, "enabled", check.Details["mirror"])
	})

	t.Run("Incomplete", func(t *testing.T) {
		cfg := testConfig()
		cfg.Storage.Bucket = ""
		cfg.Mirror.Enabled = false

		check := (&StorageHealthCheck{config: cfg}).Check(ctx)
		assert.Equal(t, StatusDegraded, check.Status)
		assert.Equal(t, "incomplete", check.Details["configuration"])
		assert.Equal(t, "disabled", check.Details["mirror"])
	})

	t.Run("Nil Config", func(t *testing.T) {
		check := (&StorageHealthCheck{}).Check(ctx)
		assert.Equal(t, StatusUnhealthy, check.Status)
	})
}

func newMonitor(t *testing.T, store ShareStore) *HealthMonitor {
	t.Helper()

	identity, err := crypto.NewIdentity()
	require.NoError(t, err)

	keyFile := filepath.Join(t.TempDir(), "fxshare.keys")
	require.NoError(t, os.WriteFile(keyFile, []byte("placeholder"), 0600))

	cfg := testConfig()
	cfg.Identity.KeyFile = keyFile

	return NewHealthMonitor(store, cfg, identity, "test")
}

func TestHealthHandler(t *testing.T) {
	e := echo.New()

	t.Run("Healthy", func(t *testing.T) {
		hm := newMonitor(t, &fakeStore{count: 1})

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		rec := httptest.NewRecorder()
		require.NoError(t, hm.HealthHandler(e.NewContext(req, rec)))

		assert.Equal(t, http.StatusOK, rec.Code)

		var resp HealthResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, StatusHealthy, resp.Status)
		assert.Equal(t, "test", resp.Version)
		assert.Equal(t, 4, resp.Summary.Total)
		assert.Equal(t, 4, resp.Summary.Healthy)
	})

	t.Run("Store Down", func(t *testing.T) {
		hm := newMonitor(t, &fakeStore{pingErr: errors.New("closed")})

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		rec := httptest.NewRecorder()
		require.NoError(t, hm.HealthHandler(e.NewContext(req, rec)))

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

		var resp HealthResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, StatusUnhealthy, resp.Status)
		assert.Equal(t, 1, resp.Summary.Unhealthy)
	})
}

func TestReadinessHandler(t *testing.T) {
	e := echo.New()

	t.Run("Ready", func(t *testing.T) {
		hm := newMonitor(t, &fakeStore{})

		req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
		rec := httptest.NewRecorder()
		require.NoError(t, hm.ReadinessHandler(e.NewContext(req, rec)))

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("Store Not Ready", func(t *testing.T) {
		hm := newMonitor(t, &fakeStore{pingErr: errors.New("closed")})

		req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
		rec := httptest.NewRecorder()
		require.NoError(t, hm.ReadinessHandler(e.NewContext(req, rec)))

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}

func TestLivenessHandler(t *testing.T) {
	e := echo.New()
	hm := newMonitor(t, &fakeStore{})

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	rec := httptest.NewRecorder()
	require.NoError(t, hm.LivenessHandler(e.NewContext(req, rec)))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"alive":true`)
}

func TestMetricsHandler(t *testing.T) {
	e := echo.New()
	hm := newMonitor(t, &fakeStore{count: 7})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	require.NoError(t, hm.MetricsHandler(e.NewContext(req, rec)))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `fxshare_health_status{version="test"} 2`)
	assert.Contains(t, body, "fxshare_goroutines")
	assert.Contains(t, body, "fxshare_outgoing_shares 7")
}

func TestHealthStatusToInt(t *testing.T) {
	assert.Equal(t, 2, healthStatusToInt(StatusHealthy))
	assert.Equal(t, 1, healthStatusToInt(StatusDegraded))
	assert.Equal(t, 0, healthStatusToInt(StatusUnhealthy))
	assert.Equal(t, 0, healthStatusToInt(HealthStatus("bogus")))
}

package monitoring

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"runtime"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/fxfiles/fxshare/config"
	"github.com/fxfiles/fxshare/crypto"
	"github.com/fxfiles/fxshare/logging"
)

// HealthStatus represents the overall health status
type HealthStatus string

const (
	StatusHealthy   HealthStatus = "healthy"
	StatusDegraded  HealthStatus = "degraded"
	StatusUnhealthy HealthStatus = "unhealthy"
)

// HealthCheck represents a single health check result
type HealthCheck struct {
	Name      string            `json:"name"`
	Status    HealthStatus      `json:"status"`
	Message   string            `json:"message,omitempty"`
	Duration  time.Duration     `json:"duration"`
	Timestamp time.Time         `json:"timestamp"`
	Details   map[string]string `json:"details,omitempty"`
}

// HealthResponse represents the complete health check response
type HealthResponse struct {
	Status    HealthStatus           `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Uptime    time.Duration          `json:"uptime"`
	Checks    map[string]HealthCheck `json:"checks"`
	System    SystemInfo             `json:"system"`
	Summary   HealthSummary          `json:"summary"`
}

// SystemInfo provides system-level information
type SystemInfo struct {
	GoVersion    string `json:"go_version"`
	NumGoroutine int    `json:"num_goroutine"`
	NumCPU       int    `json:"num_cpu"`
	MemStats     struct {
		Alloc      uint64 `json:"alloc"`
		TotalAlloc uint64 `json:"total_alloc"`
		Sys        uint64 `json:"sys"`
		NumGC      uint32 `json:"num_gc"`
		LastGC     string `json:"last_gc"`
	} `json:"memory"`
}

// HealthSummary provides summary statistics
type HealthSummary struct {
	Total     int `json:"total"`
	Healthy   int `json:"healthy"`
	Degraded  int `json:"degraded"`
	Unhealthy int `json:"unhealthy"`
}

// ShareStore is the slice of the share store the monitor needs
type ShareStore interface {
	Ping(ctx context.Context) error
	CountOutgoing(ctx context.Context) (int, error)
}

// HealthMonitor manages health checks for the sharing daemon
type HealthMonitor struct {
	store     ShareStore
	config    *config.Config
	startTime time.Time
	version   string
	checks    map[string]HealthChecker
}

// HealthChecker interface for implementing health checks
type HealthChecker interface {
	Check(ctx context.Context) HealthCheck
	Name() string
}

// NewHealthMonitor creates a new health monitor
func NewHealthMonitor(store ShareStore, cfg *config.Config, identity *crypto.Identity, version string) *HealthMonitor {
	hm := &HealthMonitor{
		store:     store,
		config:    cfg,
		startTime: time.Now(),
		version:   version,
		checks:    make(map[string]HealthChecker),
	}

	hm.RegisterCheck(&StoreHealthCheck{store: store})
	hm.RegisterCheck(&IdentityHealthCheck{config: cfg, identity: identity})
	hm.RegisterCheck(&StorageHealthCheck{config: cfg})
	hm.RegisterCheck(&SystemHealthCheck{})

	return hm
}

// RegisterCheck registers a new health check
func (hm *HealthMonitor) RegisterCheck(checker HealthChecker) {
	hm.checks[checker.Name()] = checker
}

// GetHealthStatus performs all health checks and returns the status
func (hm *HealthMonitor) GetHealthStatus(ctx context.Context) HealthResponse {
	start := time.Now()
	checks := make(map[string]HealthCheck)
	summary := HealthSummary{}

	for name, checker := range hm.checks {
		check := checker.Check(ctx)
		checks[name] = check
		summary.Total++

		switch check.Status {
		case StatusHealthy:
			summary.Healthy++
		case StatusDegraded:
			summary.Degraded++
		case StatusUnhealthy:
			summary.Unhealthy++
		}
	}

	overallStatus := StatusHealthy
	if summary.Unhealthy > 0 {
		overallStatus = StatusUnhealthy
	} else if summary.Degraded > 0 {
		overallStatus = StatusDegraded
	}

	return HealthResponse{
		Status:    overallStatus,
		Timestamp: start,
		Version:   hm.version,
		Uptime:    time.Since(hm.startTime),
		Checks:    checks,
		System:    getSystemInfo(),
		Summary:   summary,
	}
}

func getSystemInfo() SystemInfo {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	info := SystemInfo{
		GoVersion:    runtime.Version(),
		NumGoroutine: runtime.NumGoroutine(),
		NumCPU:       runtime.NumCPU(),
	}

	info.MemStats.Alloc = memStats.Alloc
	info.MemStats.TotalAlloc = memStats.TotalAlloc
	info.MemStats.Sys = memStats.Sys
	info.MemStats.NumGC = memStats.NumGC
	if memStats.LastGC > 0 {
		info.MemStats.LastGC = time.Unix(0, int64(memStats.LastGC)).Format(time.RFC3339)
	}

	return info
}

// StoreHealthCheck checks the local share store
type StoreHealthCheck struct {
	store ShareStore
}

func (d *StoreHealthCheck) Name() string {
	return "store"
}

func (d *StoreHealthCheck) Check(ctx context.Context) HealthCheck {
	start := time.Now()
	check := HealthCheck{
		Name:      "store",
		Timestamp: start,
	}

	if d.store == nil {
		check.Status = StatusUnhealthy
		check.Message = "Share store is nil"
		check.Duration = time.Since(start)
		return check
	}

	if err := d.store.Ping(ctx); err != nil {
		check.Status = StatusUnhealthy
		check.Message = fmt.Sprintf("Store ping failed: %v", err)
		check.Duration = time.Since(start)
		return check
	}

	if count, err := d.store.CountOutgoing(ctx); err != nil {
		check.Status = StatusDegraded
		check.Message = fmt.Sprintf("Share tables check failed: %v", err)
	} else {
		check.Status = StatusHealthy
		check.Message = fmt.Sprintf("Store operational, %d outgoing shares", count)
	}

	check.Duration = time.Since(start)
	return check
}

// IdentityHealthCheck checks the account identity and its key file
type IdentityHealthCheck struct {
	config   *config.Config
	identity *crypto.Identity
}

func (k *IdentityHealthCheck) Name() string {
	return "identity"
}

func (k *IdentityHealthCheck) Check(ctx context.Context) HealthCheck {
	start := time.Now()
	check := HealthCheck{
		Name:      "identity",
		Timestamp: start,
		Details:   make(map[string]string),
	}

	if k.identity == nil {
		check.Status = StatusUnhealthy
		check.Message = "Identity not loaded"
		check.Duration = time.Since(start)
		return check
	}
	check.Details["share_id"] = k.identity.ShareID()

	if k.config != nil && k.config.Identity.KeyFile != "" {
		if _, err := os.Stat(k.config.Identity.KeyFile); os.IsNotExist(err) {
			check.Details["key_file"] = "missing"
			check.Status = StatusDegraded
			check.Message = "Identity loaded but key file missing on disk"
			check.Duration = time.Since(start)
			return check
		}
		check.Details["key_file"] = "exists"
	}

	check.Status = StatusHealthy
	check.Message = "Identity available"
	check.Duration = time.Since(start)
	return check
}

// StorageHealthCheck checks object storage configuration
type StorageHealthCheck struct {
	config *config.Config
}

func (s *StorageHealthCheck) Name() string {
	return "storage"
}

func (s *StorageHealthCheck) Check(ctx context.Context) HealthCheck {
	start := time.Now()
	check := HealthCheck{
		Name:      "storage",
		Timestamp: start,
		Details:   make(map[string]string),
	}

	if s.config == nil {
		check.Status = StatusUnhealthy
		check.Message = "Configuration not available"
		check.Duration = time.Since(start)
		return check
	}

	storage := s.config.Storage
	if storage.Bucket == "" || storage.AccessKey == "" {
		check.Status = StatusDegraded
		check.Message = "Object storage not fully configured"
		check.Details["configuration"] = "incomplete"
	} else {
		check.Status = StatusHealthy
		check.Message = "Object storage configured"
		check.Details["configuration"] = "complete"
		check.Details["provider"] = storage.Provider
		check.Details["bucket"] = storage.Bucket
	}

	if s.config.Mirror.Enabled {
		check.Details["mirror"] = "enabled"
	} else {
		check.Details["mirror"] = "disabled"
	}

	check.Duration = time.Since(start)
	return check
}

// SystemHealthCheck checks system resources
type SystemHealthCheck struct{}

func (s *SystemHealthCheck) Name() string {
	return "system"
}

func (s *SystemHealthCheck) Check(ctx context.Context) HealthCheck {
	start := time.Now()
	check := HealthCheck{
		Name:      "system",
		Timestamp: start,
		Details:   make(map[string]string),
	}

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	// Check memory usage (warn if over 1GB)
	memUsageMB := memStats.Alloc / 1024 / 1024
	check.Details["memory_mb"] = fmt.Sprintf("%d", memUsageMB)

	// Check goroutines (warn if over 1000)
	numGoroutines := runtime.NumGoroutine()
	check.Details["goroutines"] = fmt.Sprintf("%d", numGoroutines)

	if memUsageMB > 1024 {
		check.Status = StatusDegraded
		check.Message = fmt.Sprintf("High memory usage: %d MB", memUsageMB)
	} else if numGoroutines > 1000 {
		check.Status = StatusDegraded
		check.Message = fmt.Sprintf("High goroutine count: %d", numGoroutines)
	} else {
		check.Status = StatusHealthy
		check.Message = "System resources normal"
	}

	check.Duration = time.Since(start)
	return check
}

// HTTP Handlers

// HealthHandler returns the complete health status
func (hm *HealthMonitor) HealthHandler(c echo.Context) error {
	status := hm.GetHealthStatus(c.Request().Context())

	logging.DebugLogger.Printf("Health check: %s (%d/%d healthy)",
		status.Status, status.Summary.Healthy, status.Summary.Total)

	httpStatus := http.StatusOK
	if status.Status == StatusUnhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	return c.JSON(httpStatus, status)
}

// ReadinessHandler returns readiness status (store ping only)
func (hm *HealthMonitor) ReadinessHandler(c echo.Context) error {
	ready := true
	message := "Ready"

	if hm.store != nil {
		if err := hm.store.Ping(c.Request().Context()); err != nil {
			ready = false
			message = "Share store not ready"
		}
	}

	status := http.StatusOK
	if !ready {
		status = http.StatusServiceUnavailable
	}

	return c.JSON(status, map[string]interface{}{
		"ready":     ready,
		"message":   message,
		"timestamp": time.Now(),
	})
}

// LivenessHandler returns liveness status (minimal check)
func (hm *HealthMonitor) LivenessHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"alive":     true,
		"timestamp": time.Now(),
		"uptime":    time.Since(hm.startTime).String(),
	})
}

// MetricsHandler returns Prometheus-compatible metrics
func (hm *HealthMonitor) MetricsHandler(c echo.Context) error {
	ctx := c.Request().Context()
	status := hm.GetHealthStatus(ctx)

	metrics := fmt.Sprintf(`# HELP fxshare_health_status Overall health status (0=unhealthy, 1=degraded, 2=healthy)
# TYPE fxshare_health_status gauge
fxshare_health_status{version="%s"} %d

# HELP fxshare_uptime_seconds Uptime in seconds
# TYPE fxshare_uptime_seconds counter
fxshare_uptime_seconds %f

# HELP fxshare_memory_bytes Memory usage in bytes
# TYPE fxshare_memory_bytes gauge
fxshare_memory_bytes %d

# HELP fxshare_goroutines Number of goroutines
# TYPE fxshare_goroutines gauge
fxshare_goroutines %d

# HELP fxshare_checks_healthy Number of healthy checks
# TYPE fxshare_checks_healthy gauge
fxshare_checks_healthy %d

# HELP fxshare_checks_degraded Number of degraded checks
# TYPE fxshare_checks_degraded gauge
fxshare_checks_degraded %d

# HELP fxshare_checks_unhealthy Number of unhealthy checks
# TYPE fxshare_checks_unhealthy gauge
fxshare_checks_unhealthy %d
`,
		status.Version,
		healthStatusToInt(status.Status),
		status.Uptime.Seconds(),
		status.System.MemStats.Alloc,
		status.System.NumGoroutine,
		status.Summary.Healthy,
		status.Summary.Degraded,
		status.Summary.Unhealthy,
	)

	if hm.store != nil {
		if count, err := hm.store.CountOutgoing(ctx); err == nil {
			metrics += fmt.Sprintf(`
# HELP fxshare_outgoing_shares Number of outgoing share records
# TYPE fxshare_outgoing_shares gauge
fxshare_outgoing_shares %d
`, count)
		}
	}

	return c.String(http.StatusOK, metrics)
}

// healthStatusToInt converts HealthStatus to integer for Prometheus
func healthStatusToInt(status HealthStatus) int {
	switch status {
	case StatusUnhealthy:
		return 0
	case StatusDegraded:
		return 1
	case StatusHealthy:
		return 2
	default:
		return 0
	}
}

// RegisterRoutes mounts the health endpoints on an echo instance
func (hm *HealthMonitor) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", hm.HealthHandler)
	e.GET("/health/ready", hm.ReadinessHandler)
	e.GET("/health/live", hm.LivenessHandler)
	e.GET("/metrics", hm.MetricsHandler)
}

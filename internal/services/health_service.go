package services

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"time"

	"gapminder/internal/config"
	"gapminder/pkg/contracts"
)

// HealthService answers liveness, readiness and version probes.
type HealthService struct {
	paths     *config.Paths
	data      *DataService
	ops       *OperationService
	startTime time.Time
	logger    *slog.Logger
}

type HealthStatus struct {
	Status    string                   `json:"status"`
	Timestamp time.Time                `json:"timestamp"`
	Version   string                   `json:"version"`
	Runtime   *RuntimeInfo             `json:"runtime,omitempty"`
	Services  map[string]ServiceHealth `json:"services,omitempty"`
}

// RuntimeInfo is attached to liveness responses.
type RuntimeInfo struct {
	UptimeSeconds float64 `json:"uptime_seconds"`
	GoVersion     string  `json:"go_version"`
	Goroutines    int     `json:"goroutines"`
	CanonicalRows int     `json:"canonical_rows"`
}

type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// NewHealthService creates a health service. Any dependency may be nil; the
// corresponding readiness check then reports not_ready.
func NewHealthService(paths *config.Paths, data *DataService, ops *OperationService, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthService{
		paths:     paths,
		data:      data,
		ops:       ops,
		startTime: time.Now(),
		logger:    logger.With(slog.String("service", "health")),
	}
}

// HealthCheck reports liveness. It is "ok" whenever the process can answer.
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	uptime := time.Since(hs.startTime)
	hs.logger.DebugContext(ctx, "health check", slog.Duration("uptime", uptime))

	rt := &RuntimeInfo{
		UptimeSeconds: uptime.Seconds(),
		GoVersion:     runtime.Version(),
		Goroutines:    runtime.NumGoroutine(),
	}
	if hs.data != nil {
		if snap, err := hs.data.Snapshot(); err == nil {
			rt.CanonicalRows = snap.Table.Len()
		}
	}
	return HealthStatus{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   contracts.Version,
		Runtime:   rt,
	}
}

// ReadinessCheck reports ready once a canonical table is being served, a
// run can be triggered and the output directory exists.
func (hs *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	checks := []struct {
		name  string
		check func() ServiceHealth
	}{
		{"data", hs.checkDataHealth},
		{"operations", hs.checkOperationHealth},
		{"output", hs.checkOutputHealth},
	}

	status := HealthStatus{
		Status:    "ready",
		Timestamp: time.Now(),
		Version:   contracts.Version,
		Services:  make(map[string]ServiceHealth, len(checks)),
	}
	for _, c := range checks {
		sh := c.check()
		status.Services[c.name] = sh
		if sh.Status != "ready" {
			status.Status = "not_ready"
			hs.logger.DebugContext(ctx, "readiness check failed",
				slog.String("check", c.name),
				slog.String("reason", sh.Message))
		}
	}
	return status
}

func (hs *HealthService) Version() contracts.VersionInfo {
	return contracts.GetVersionInfo()
}

func (hs *HealthService) checkDataHealth() ServiceHealth {
	if hs.data == nil || !hs.data.Loaded() {
		return ServiceHealth{Status: "not_ready", Message: "no canonical table published"}
	}
	snap, _ := hs.data.Snapshot()
	return ServiceHealth{Status: "ready", Message: fmt.Sprintf("run %s, %d rows", snap.RunID, snap.Table.Len())}
}

func (hs *HealthService) checkOperationHealth() ServiceHealth {
	if hs.ops == nil {
		return ServiceHealth{Status: "not_ready", Message: "operation service not initialized"}
	}
	if hs.ops.Running() {
		return ServiceHealth{Status: "ready", Message: "run in progress"}
	}
	return ServiceHealth{Status: "ready", Message: "idle"}
}

func (hs *HealthService) checkOutputHealth() ServiceHealth {
	if hs.paths == nil {
		return ServiceHealth{Status: "not_ready", Message: "paths not configured"}
	}
	if _, err := os.Stat(hs.paths.OutputDir); err != nil {
		return ServiceHealth{Status: "not_ready", Message: fmt.Sprintf("output directory unavailable: %v", err)}
	}
	return ServiceHealth{Status: "ready"}
}

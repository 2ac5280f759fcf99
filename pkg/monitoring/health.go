// Package monitoring provides Prometheus metrics and health reporting for the trip planner.
package monitoring

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"runtime"
	"sync"
	"time"

	"github.com/NERVsystems/tripmcp/pkg/version"
)

// Component status values
const (
	StatusOK       = "ok"
	StatusDegraded = "degraded"
	StatusError    = "error"
)

// Overall service status values
const (
	HealthHealthy   = "healthy"
	HealthDegraded  = "degraded"
	HealthUnhealthy = "unhealthy"
)

// TransportInfo holds transport configuration and status
type TransportInfo struct {
	Type           string `json:"type"` // "http" or "stdio"
	HTTPAddr       string `json:"http_addr,omitempty"`
	ActiveSessions int    `json:"active_sessions,omitempty"`
}

// ServiceHealth is the body of the /health endpoint
type ServiceHealth struct {
	Service       string                     `json:"service"`
	Version       string                     `json:"version"`
	Status        string                     `json:"status"`
	Uptime        string                     `json:"uptime"`
	UptimeSeconds int64                      `json:"uptime_seconds"`
	StartTime     time.Time                  `json:"start_time"`
	Components    map[string]ComponentStatus `json:"components"`
	Metrics       map[string]any             `json:"metrics,omitempty"`
	Transport     *TransportInfo             `json:"transport,omitempty"`
}

// ComponentStatus is the last observed state of one internal component
type ComponentStatus struct {
	Status    string    `json:"status"`
	Detail    string    `json:"detail,omitempty"`
	Latency   int64     `json:"latency_ms,omitempty"`
	LastError string    `json:"last_error,omitempty"`
	CheckedAt time.Time `json:"checked_at"`
}

// HealthChecker tracks component health and serves the health endpoints
type HealthChecker struct {
	serviceName string
	version     string
	startTime   time.Time

	mu         sync.RWMutex
	components map[string]ComponentStatus
	transport  *TransportInfo

	ctx    context.Context
	cancel context.CancelFunc
}

// NewHealthChecker creates a health checker and starts runtime metric collection
func NewHealthChecker(serviceName, version string) *HealthChecker {
	ctx, cancel := context.WithCancel(context.Background())

	hc := &HealthChecker{
		serviceName: serviceName,
		version:     version,
		startTime:   time.Now(),
		components:  make(map[string]ComponentStatus),
		ctx:         ctx,
		cancel:      cancel,
	}

	go hc.collectSystemMetrics()

	return hc
}

// UpdateComponent records the status of a component
func (h *HealthChecker) UpdateComponent(name, status, detail string, latencyMs int64, err error) {
	cs := ComponentStatus{
		Status:    status,
		Detail:    detail,
		Latency:   latencyMs,
		CheckedAt: time.Now(),
	}
	if err != nil {
		cs.LastError = err.Error()
	}

	h.mu.Lock()
	h.components[name] = cs
	h.mu.Unlock()
}

// RemoveComponent stops reporting a component
func (h *HealthChecker) RemoveComponent(name string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.components, name)
}

// SetTransport records how the service is exposed
func (h *HealthChecker) SetTransport(info TransportInfo) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.transport = &info
}

// GetHealth returns the current health status.
// Any component in error makes the service degraded, more than half makes it unhealthy.
func (h *HealthChecker) GetHealth() ServiceHealth {
	h.mu.RLock()
	defer h.mu.RUnlock()

	errorCount, degradedCount := 0, 0
	components := make(map[string]ComponentStatus, len(h.components))
	for k, c := range h.components {
		components[k] = c
		switch c.Status {
		case StatusError:
			errorCount++
		case StatusDegraded:
			degradedCount++
		}
	}

	status := HealthHealthy
	switch {
	case errorCount > 0 && errorCount*2 > len(h.components):
		status = HealthUnhealthy
	case errorCount > 0 || degradedCount > 0:
		status = HealthDegraded
	}

	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	uptime := time.Since(h.startTime)
	health := ServiceHealth{
		Service:       h.serviceName,
		Version:       h.version,
		Status:        status,
		Uptime:        uptime.Round(time.Second).String(),
		UptimeSeconds: int64(uptime.Seconds()),
		StartTime:     h.startTime,
		Components:    components,
		Metrics: map[string]any{
			"goroutines":      runtime.NumGoroutine(),
			"memory_alloc_mb": m.Alloc / 1024 / 1024,
			"gc_runs":         m.NumGC,
			"cpu_count":       runtime.NumCPU(),
			"version_info":    version.Info(),
		},
	}
	if h.transport != nil {
		t := *h.transport
		health.Transport = &t
	}
	return health
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Default().Error("failed to encode health response", "error", err)
	}
}

// HealthHandler returns an HTTP handler for health checks
func (h *HealthChecker) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		health := h.GetHealth()

		code := http.StatusOK
		if health.Status == HealthUnhealthy {
			code = http.StatusServiceUnavailable
		}
		writeJSON(w, code, health)
	}
}

// ReadinessHandler reports ready unless the service is unhealthy
func (h *HealthChecker) ReadinessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		health := h.GetHealth()
		ready := health.Status != HealthUnhealthy

		code := http.StatusOK
		if !ready {
			code = http.StatusServiceUnavailable
		}
		writeJSON(w, code, map[string]any{
			"ready":  ready,
			"status": health.Status,
		})
	}
}

// LivenessHandler always reports alive while the process can serve HTTP
func (h *HealthChecker) LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"alive":  true,
			"uptime": time.Since(h.startTime).Round(time.Second).String(),
		})
	}
}

func (h *HealthChecker) collectSystemMetrics() {
	UpdateRuntimeMetrics()

	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-h.ctx.Done():
			return
		case <-ticker.C:
			UpdateRuntimeMetrics()
		}
	}
}

// Shutdown stops background collection
func (h *HealthChecker) Shutdown() {
	h.cancel()
}

// CheckFunc probes a component and returns a short detail string
type CheckFunc func() (detail string, err error)

// ComponentMonitor periodically runs a check and reports it to a HealthChecker
type ComponentMonitor struct {
	name          string
	healthChecker *HealthChecker
	check         CheckFunc
	interval      time.Duration
	ctx           context.Context
	cancel        context.CancelFunc
}

// NewComponentMonitor creates a monitor; call Start to begin checking
func NewComponentMonitor(name string, hc *HealthChecker, check CheckFunc, interval time.Duration) *ComponentMonitor {
	ctx, cancel := context.WithCancel(context.Background())

	return &ComponentMonitor{
		name:          name,
		healthChecker: hc,
		check:         check,
		interval:      interval,
		ctx:           ctx,
		cancel:        cancel,
	}
}

// Start runs one check immediately and then one per interval
func (cm *ComponentMonitor) Start() {
	cm.performCheck()
	go cm.monitor()
}

// Stop stops the monitor
func (cm *ComponentMonitor) Stop() {
	cm.cancel()
}

func (cm *ComponentMonitor) monitor() {
	ticker := time.NewTicker(cm.interval)
	defer ticker.Stop()

	for {
		select {
		case <-cm.ctx.Done():
			return
		case <-ticker.C:
			cm.performCheck()
		}
	}
}

func (cm *ComponentMonitor) performCheck() {
	start := time.Now()
	detail, err := cm.check()
	latency := time.Since(start).Milliseconds()

	status := StatusOK
	if err != nil {
		status = StatusError
		RecordError("health", cm.name)
	}

	cm.healthChecker.UpdateComponent(cm.name, status, detail, latency, err)
}

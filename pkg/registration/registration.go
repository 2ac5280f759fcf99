// Package registration announces the server to a service registry and keeps
// the entry alive with heartbeats. A registry that is down never stops the
// server; the client just keeps retrying on the next tick.
package registration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/NERVsystems/tripmcp/pkg/core"
)

const (
	DefaultHeartbeatInterval = 30 * time.Second
	DefaultTimeout           = 5 * time.Second
)

// Config describes this instance to the registry
type Config struct {
	Enabled     bool
	RegistryURL string

	ServiceName string
	// ServiceType defaults to "mcp"
	ServiceType string
	ServiceURL  string
	HealthURL   string
	Version     string

	Capabilities []string
	Tools        []string
	Metadata     map[string]any

	HeartbeatInterval time.Duration
	Timeout           time.Duration
	// Retry applies within one heartbeat; a zero value uses core.DefaultRetryOptions
	Retry core.RetryOptions
}

// Announcement is the body POSTed to <registry>/api/register
type Announcement struct {
	Name         string         `json:"name"`
	Type         string         `json:"type"`
	URL          string         `json:"url"`
	HealthURL    string         `json:"health_url"`
	Version      string         `json:"version"`
	Capabilities []string       `json:"capabilities,omitempty"`
	Tools        []string       `json:"tools,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

// Lease is the registry's reply to an announcement
type Lease struct {
	Status          string    `json:"status"`
	Name            string    `json:"name"`
	TTLSeconds      int       `json:"ttl_seconds"`
	NextHeartbeatBy time.Time `json:"next_heartbeat_by"`
}

// StatusFunc receives the outcome of every heartbeat
type StatusFunc func(registered bool, err error)

type Client struct {
	cfg      Config
	logger   *slog.Logger
	http     *http.Client
	onStatus StatusFunc

	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu         sync.RWMutex
	registered bool
	lease      Lease
}

// NewClient fills in defaults. A nil logger uses slog.Default().
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.HeartbeatInterval <= 0 {
		cfg.HeartbeatInterval = DefaultHeartbeatInterval
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry = core.DefaultRetryOptions
	}
	if cfg.ServiceType == "" {
		cfg.ServiceType = "mcp"
	}
	cfg.RegistryURL = strings.TrimRight(cfg.RegistryURL, "/")
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:    cfg,
		logger: logger.With("component", "registration"),
		http:   &http.Client{Timeout: cfg.Timeout},
	}
}

// OnStatus installs a callback run after each heartbeat. Call before Start.
func (c *Client) OnStatus(fn StatusFunc) {
	c.onStatus = fn
}

// Start registers immediately and then heartbeats in the background.
// It is a no-op when registration is disabled or has no registry URL.
func (c *Client) Start(ctx context.Context) {
	if !c.cfg.Enabled {
		c.logger.Debug("service registration disabled")
		return
	}
	if c.cfg.RegistryURL == "" {
		c.logger.Warn("service registration enabled but no registry URL configured")
		return
	}

	ctx, c.cancel = context.WithCancel(ctx)
	c.wg.Add(1)
	go c.loop(ctx)
}

// Stop deregisters and waits for the heartbeat loop to exit
func (c *Client) Stop(ctx context.Context) {
	if c.cancel == nil {
		return
	}
	c.cancel()
	c.wg.Wait()
	c.deregister(ctx)
}

func (c *Client) IsRegistered() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.registered
}

// Lease returns the last lease granted by the registry
func (c *Client) Lease() Lease {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lease
}

func (c *Client) loop(ctx context.Context) {
	defer c.wg.Done()

	c.heartbeat(ctx)

	ticker := time.NewTicker(c.cfg.HeartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.heartbeat(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (c *Client) heartbeat(ctx context.Context) {
	lease, err := c.Register(ctx)
	if ctx.Err() != nil {
		return
	}

	was := c.IsRegistered()
	c.mu.Lock()
	c.registered = err == nil
	if err == nil {
		c.lease = lease
	}
	c.mu.Unlock()

	switch {
	case err != nil:
		c.logger.Debug("heartbeat failed", "error", err)
	case !was:
		c.logger.Info("registered with service registry", "name", c.cfg.ServiceName, "ttl_seconds", lease.TTLSeconds)
	}
	if c.onStatus != nil {
		c.onStatus(err == nil, err)
	}
}

// Register sends one announcement and returns the granted lease
func (c *Client) Register(ctx context.Context) (Lease, error) {
	body, err := json.Marshal(Announcement{
		Name:         c.cfg.ServiceName,
		Type:         c.cfg.ServiceType,
		URL:          c.cfg.ServiceURL,
		HealthURL:    c.cfg.HealthURL,
		Version:      c.cfg.Version,
		Capabilities: c.cfg.Capabilities,
		Tools:        c.cfg.Tools,
		Metadata:     c.cfg.Metadata,
	})
	if err != nil {
		return Lease{}, fmt.Errorf("encoding announcement: %w", err)
	}

	resp, err := core.DoWithRetry(ctx, c.http, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.RegistryURL+"/api/register", bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	}, c.cfg.Retry)
	if err != nil {
		return Lease{}, fmt.Errorf("registry: %w", err)
	}
	defer resp.Body.Close()

	var lease Lease
	if err := json.NewDecoder(resp.Body).Decode(&lease); err != nil {
		return Lease{}, fmt.Errorf("decoding lease: %w", err)
	}
	return lease, nil
}

func (c *Client) deregister(ctx context.Context) {
	if !c.IsRegistered() {
		return
	}

	endpoint := c.cfg.RegistryURL + "/api/register/" + url.PathEscape(c.cfg.ServiceName)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		return
	}
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("deregistration failed", "error", err)
		return
	}
	resp.Body.Close()

	c.mu.Lock()
	c.registered = false
	c.mu.Unlock()

	if resp.StatusCode == http.StatusOK {
		c.logger.Info("deregistered from service registry", "name", c.cfg.ServiceName)
	}
}

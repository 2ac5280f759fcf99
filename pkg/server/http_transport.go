package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/justinas/alice"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/rs/cors"
	"golang.org/x/time/rate"

	"github.com/NERVsystems/tripmcp/pkg/core"
	"github.com/NERVsystems/tripmcp/pkg/monitoring"
)

// HTTPTransportConfig holds configuration for the HTTP transport
type HTTPTransportConfig struct {
	Addr           string
	BaseURL        string // advertised in service discovery; derived from the request when empty
	AuthType       string // none, bearer or basic
	AuthToken      string // token, or user:password for basic
	SSEEndpoint    string
	MsgEndpoint    string
	RateLimit      float64 // requests per second per client IP, 0 disables
	RateBurst      int
	MaxRequestSize int64
	CORSOrigins    []string // empty disables CORS
	// TrustProxyHeaders keys rate limiting on X-Forwarded-For and X-Real-IP.
	// Enable it only behind a reverse proxy that sets those headers.
	TrustProxyHeaders bool
}

// DefaultHTTPTransportConfig returns the defaults used when flags and config leave a field unset
func DefaultHTTPTransportConfig() HTTPTransportConfig {
	return HTTPTransportConfig{
		Addr:           ":7082",
		AuthType:       core.AuthNone,
		SSEEndpoint:    "/sse",
		MsgEndpoint:    "/message",
		RateLimit:      10,
		RateBurst:      20,
		MaxRequestSize: 1 << 20,
	}
}

// HTTPTransport serves MCP over SSE, the REST API and the health endpoints on one listener
type HTTPTransport struct {
	config  HTTPTransportConfig
	logger  *slog.Logger
	server  *Server
	sse     *mcpserver.SSEServer
	auth    *core.Authenticator
	limiter *RateLimiter
	handler http.Handler

	mu            sync.RWMutex
	httpSrv       *http.Server
	healthChecker *monitoring.HealthChecker
}

// NewHTTPTransport wires the routes and middleware. It fails on an unusable auth configuration.
func NewHTTPTransport(s *Server, config HTTPTransportConfig, logger *slog.Logger) (*HTTPTransport, error) {
	if logger == nil {
		logger = slog.Default()
	}
	defaults := DefaultHTTPTransportConfig()
	if config.SSEEndpoint == "" {
		config.SSEEndpoint = defaults.SSEEndpoint
	}
	if config.MsgEndpoint == "" {
		config.MsgEndpoint = defaults.MsgEndpoint
	}
	if config.MaxRequestSize <= 0 {
		config.MaxRequestSize = defaults.MaxRequestSize
	}

	auth, err := core.NewAuthenticator(config.AuthType, config.AuthToken)
	if err != nil {
		return nil, fmt.Errorf("http auth: %w", err)
	}

	t := &HTTPTransport{
		config: config,
		logger: logger,
		server: s,
		auth:   auth,
		sse: mcpserver.NewSSEServer(
			s.MCPServer(),
			mcpserver.WithSSEEndpoint(config.SSEEndpoint),
			mcpserver.WithMessageEndpoint(config.MsgEndpoint),
			mcpserver.WithBaseURL(config.BaseURL),
			mcpserver.WithKeepAlive(true),
		),
	}

	router := httprouter.New()
	t.routes(router)

	chain := alice.New(Recoverer(logger), TracingMiddleware, LoggingMiddleware(logger), SecurityHeaders)
	if len(config.CORSOrigins) > 0 {
		chain = chain.Append(cors.New(cors.Options{
			AllowedOrigins: config.CORSOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders: []string{"X-Request-ID"},
			MaxAge:         300,
		}).Handler)
	}
	chain = chain.Append(RequestSizeLimiter(config.MaxRequestSize))
	if config.RateLimit > 0 {
		t.limiter = NewRateLimiter(rate.Limit(config.RateLimit), max(config.RateBurst, 1))
		t.limiter.TrustProxy = config.TrustProxyHeaders
		chain = chain.Append(t.limiter.Middleware)
	}
	t.handler = chain.Then(router)

	return t, nil
}

func (t *HTTPTransport) routes(router *httprouter.Router) {
	router.GET("/", t.handleServiceDiscovery)

	router.HandlerFunc(http.MethodGet, "/health", t.handleHealth)
	router.HandlerFunc(http.MethodGet, "/ready", t.handleReady)
	router.HandlerFunc(http.MethodGet, "/live", t.handleLive)

	router.Handler(http.MethodGet, t.config.SSEEndpoint, t.requireAuth(t.sse.SSEHandler()))
	router.Handler(http.MethodPost, t.config.MsgEndpoint, t.requireAuth(t.sse.MessageHandler()))

	NewRESTHandler(t.server.Registry(), t.logger).Routes(router, t.requireAuth)

	router.NotFound = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]*core.MCPError{
			"error": core.NewError(core.ErrInvalidParameter, "no route for "+r.URL.Path).
				WithGuidance("GET / lists the available endpoints."),
		})
	})
}

// Handler returns the full middleware chain, for tests and embedding
func (t *HTTPTransport) Handler() http.Handler {
	return t.handler
}

// requireAuth guards MCP and REST endpoints; health and discovery stay open
func (t *HTTPTransport) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		res := t.auth.Authenticate(r)
		if !res.Authorized {
			t.logger.Warn("authentication failed",
				"remote_addr", clientIP(r, t.config.TrustProxyHeaders),
				"path", r.URL.Path,
				"auth_type", t.auth.Type,
				"error", res.Error)
			monitoring.RecordError("http", "unauthorized")

			if t.auth.Type == core.AuthBasic {
				w.Header().Set("WWW-Authenticate", `Basic realm="tripmcp"`)
			} else {
				w.Header().Set("WWW-Authenticate", "Bearer")
			}
			writeError(w, core.NewError(core.ErrUnauthorized, res.Error))
			return
		}
		next.ServeHTTP(w, r)
	})
}

type discovery struct {
	Service      string            `json:"service"`
	Transport    string            `json:"transport"`
	Endpoints    map[string]string `json:"endpoints"`
	Capabilities map[string]bool   `json:"capabilities"`
	AuthRequired bool              `json:"auth_required"`
}

func (t *HTTPTransport) handleServiceDiscovery(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	base := t.config.BaseURL
	if base == "" {
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		base = scheme + "://" + r.Host
	}

	writeJSON(w, http.StatusOK, discovery{
		Service:   ServerName,
		Transport: "HTTP+SSE",
		Endpoints: map[string]string{
			"sse":     base + t.config.SSEEndpoint,
			"message": base + t.config.MsgEndpoint,
			"rest":    base + "/api",
			"health":  base + "/health",
		},
		Capabilities: map[string]bool{"tools": true, "prompts": true, "rest": true},
		AuthRequired: t.auth.Type != core.AuthNone,
	})
}

func (t *HTTPTransport) checker() *monitoring.HealthChecker {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.healthChecker
}

// SetHealthChecker routes /health, /ready and /live to hc
func (t *HTTPTransport) SetHealthChecker(hc *monitoring.HealthChecker) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.healthChecker = hc
}

func (t *HTTPTransport) handleHealth(w http.ResponseWriter, r *http.Request) {
	if hc := t.checker(); hc != nil {
		hc.SetTransport(monitoring.TransportInfo{
			Type:           "http",
			HTTPAddr:       t.config.Addr,
			ActiveSessions: t.server.ActiveSessions(),
		})
		hc.HealthHandler()(w, r)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": monitoring.HealthHealthy})
}

func (t *HTTPTransport) handleReady(w http.ResponseWriter, r *http.Request) {
	if hc := t.checker(); hc != nil {
		hc.ReadinessHandler()(w, r)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ready": true})
}

func (t *HTTPTransport) handleLive(w http.ResponseWriter, r *http.Request) {
	if hc := t.checker(); hc != nil {
		hc.LivenessHandler()(w, r)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"alive": true})
}

// Start serves until Shutdown. It returns nil after a clean shutdown.
func (t *HTTPTransport) Start() error {
	t.mu.Lock()
	if t.httpSrv != nil {
		t.mu.Unlock()
		return core.NewError(core.ErrInternalError, "HTTP transport already started")
	}
	srv := &http.Server{
		Addr:              t.config.Addr,
		Handler:           t.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}
	t.httpSrv = srv
	t.mu.Unlock()

	t.logger.Info("starting HTTP transport",
		"addr", t.config.Addr,
		"sse_endpoint", t.config.SSEEndpoint,
		"message_endpoint", t.config.MsgEndpoint,
		"auth_type", t.auth.Type,
		"rate_limit", t.config.RateLimit,
		"cors_origins", t.config.CORSOrigins)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones until ctx expires
func (t *HTTPTransport) Shutdown(ctx context.Context) error {
	t.mu.Lock()
	srv := t.httpSrv
	t.httpSrv = nil
	t.mu.Unlock()

	if t.limiter != nil {
		t.limiter.Stop()
	}
	if srv == nil {
		return nil
	}

	t.logger.Info("shutting down HTTP transport")
	if err := t.sse.Shutdown(ctx); err != nil {
		t.logger.Error("failed to shut down SSE server", "error", err)
	}
	return srv.Shutdown(ctx)
}

// Config returns the effective transport configuration
func (t *HTTPTransport) Config() HTTPTransportConfig {
	return t.config
}

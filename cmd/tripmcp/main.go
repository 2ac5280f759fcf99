package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/NERVsystems/tripmcp/pkg/cache"
	"github.com/NERVsystems/tripmcp/pkg/config"
	"github.com/NERVsystems/tripmcp/pkg/monitoring"
	"github.com/NERVsystems/tripmcp/pkg/registration"
	"github.com/NERVsystems/tripmcp/pkg/server"
	"github.com/NERVsystems/tripmcp/pkg/tools"
	"github.com/NERVsystems/tripmcp/pkg/tracing"
	ver "github.com/NERVsystems/tripmcp/pkg/version"
)

const shutdownTimeout = 30 * time.Second

var (
	configPath      string
	showVersionFlag bool
	debug           bool
	generateConfig  string
	mergeOnly       bool

	// HTTP transport flags
	enableHTTP    bool
	httpOnly      bool
	httpAddr      string
	httpBaseURL   string
	httpAuthType  string
	httpAuthToken string
	httpRateLimit float64
	corsOrigins   string
	trustProxy    bool

	// Monitoring flags
	enableMonitoring bool
	monitoringAddr   string
	otlpEndpoint     string

	// Search flags
	defaultDeparture string
	searchTTL        time.Duration

	// Registration flags
	enableRegistration bool
	registryURL        string
	serviceURL         string
)

// flagKeys maps command-line flags onto config keys. Only flags the user
// actually set are applied, so config files and TRIPMCP_* variables keep
// working for everything else.
var flagKeys = map[string]string{
	"debug":               "debug",
	"enable-http":         "http.enabled",
	"http-only":           "http.only",
	"http-addr":           "http.addr",
	"http-base-url":       "http.base_url",
	"http-auth-type":      "http.auth_type",
	"http-auth-token":     "http.auth_token",
	"http-rate-limit":     "http.rate_limit",
	"cors-origins":        "http.cors_origins",
	"trust-proxy":         "http.trust_proxy",
	"enable-monitoring":   "monitoring.enabled",
	"monitoring-addr":     "monitoring.addr",
	"otlp-endpoint":       "tracing.endpoint",
	"default-departure":   "search.default_departure",
	"search-ttl":          "search.ttl",
	"enable-registration": "registry.enabled",
	"registry-url":        "registry.url",
}

func init() {
	flag.StringVar(&configPath, "config", "", "Path to a YAML or JSON config file")
	flag.BoolVar(&showVersionFlag, "version", false, "Display version information")
	flag.BoolVar(&debug, "debug", false, "Enable debug logging")
	flag.StringVar(&generateConfig, "generate-config", "", "Write an MCP client config for this binary to the given .json path")
	flag.BoolVar(&mergeOnly, "merge-only", false, "Keep other servers already present in the generated config")

	flag.BoolVar(&enableHTTP, "enable-http", false, "Enable HTTP+SSE transport and the REST API (in addition to stdio)")
	flag.BoolVar(&httpOnly, "http-only", false, "Run HTTP transport only, skip stdio")
	flag.StringVar(&httpAddr, "http-addr", ":7082", "HTTP server address")
	flag.StringVar(&httpBaseURL, "http-base-url", "", "Base URL advertised to SSE clients (auto-detected if empty)")
	flag.StringVar(&httpAuthType, "http-auth-type", "none", "HTTP authentication type: none, bearer, basic")
	flag.StringVar(&httpAuthToken, "http-auth-token", "", "HTTP authentication token, or user:password for basic")
	flag.Float64Var(&httpRateLimit, "http-rate-limit", 10, "Requests per second allowed per client IP, 0 disables")
	flag.StringVar(&corsOrigins, "cors-origins", "", "Comma-separated origins allowed by CORS")
	flag.BoolVar(&trustProxy, "trust-proxy", false, "Rate limit by X-Forwarded-For/X-Real-IP (only behind a trusted reverse proxy)")

	flag.BoolVar(&enableMonitoring, "enable-monitoring", false, "Enable the Prometheus metrics server")
	flag.StringVar(&monitoringAddr, "monitoring-addr", ":9090", "Monitoring server address")
	flag.StringVar(&otlpEndpoint, "otlp-endpoint", "", "OTLP/gRPC endpoint for traces (tracing is off when empty)")

	flag.StringVar(&defaultDeparture, "default-departure", "09:00", "Departure time used when a search omits one (HH:MM)")
	flag.DurationVar(&searchTTL, "search-ttl", cache.DefaultTTL, "How long a search stays refinable")

	flag.BoolVar(&enableRegistration, "enable-registration", false, "Announce this service to a registry")
	flag.StringVar(&registryURL, "registry-url", "", "Registry URL (e.g., http://registry:7083)")
	flag.StringVar(&serviceURL, "service-url", "", "External URL where this service is reachable")
}

// flagOverrides returns the config overrides for flags set on the command line
func flagOverrides(fs *flag.FlagSet) map[string]any {
	overrides := make(map[string]any)
	fs.Visit(func(f *flag.Flag) {
		key, ok := flagKeys[f.Name]
		if !ok {
			return
		}
		if f.Name == "cors-origins" {
			overrides[key] = splitList(f.Value.String())
			return
		}
		if g, ok := f.Value.(flag.Getter); ok {
			overrides[key] = g.Get()
			return
		}
		overrides[key] = f.Value.String()
	})
	return overrides
}

func splitList(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func main() {
	flag.Parse()

	if showVersionFlag {
		fmt.Println(ver.String())
		return
	}

	if generateConfig != "" {
		if err := generateClientConfig(generateConfig, mergeOnly); err != nil {
			fmt.Fprintf(os.Stderr, "failed to generate config: %v\n", err)
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "wrote MCP client config to %s\n", generateConfig)
		return
	}

	cfg, err := config.Load(configPath, flagOverrides(flag.CommandLine))
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	var logLevel slog.Level
	if err := logLevel.UnmarshalText([]byte(cfg.LogLevel())); err != nil {
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Init(ctx, tracing.Config{
		Endpoint:    cfg.Tracing.Endpoint,
		Insecure:    cfg.Tracing.Insecure,
		Environment: cfg.Tracing.Environment,
		SampleRatio: cfg.Tracing.SampleRatio,
	}, ver.BuildVersion)
	if err != nil {
		// Tracing is optional
		logger.Error("failed to initialize tracing", "error", err)
	} else {
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdownTracing(sctx); err != nil {
				logger.Error("error shutting down tracing", "error", err)
			}
		}()
		if cfg.Tracing.Endpoint != "" {
			logger.Info("OpenTelemetry tracing enabled", "endpoint", cfg.Tracing.Endpoint)
		}
	}

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}

// run starts every configured transport and blocks until they have all stopped
func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	logger.Info("starting trip planner MCP server",
		"version", ver.BuildVersion,
		"log_level", cfg.LogLevel(),
		"http_enabled", cfg.HTTP.Enabled,
		"http_only", cfg.HTTP.Only,
		"monitoring_enabled", cfg.Monitoring.Enabled,
		"search_ttl", cfg.Search.TTL,
		"default_departure", cfg.Search.DefaultDeparture)

	store := cache.NewSearchStore(cfg.Search.CacheSize, cfg.Search.TTL)
	cache.SetGlobal(store)
	defer store.Purge()

	registry := tools.NewRegistry(logger,
		tools.WithSearchStore(store),
		tools.WithDefaultDeparture(cfg.Search.DefaultDeparture))
	s := server.NewServer(logger, registry)

	healthChecker := monitoring.NewHealthChecker(monitoring.ServiceName, ver.BuildVersion)
	defer healthChecker.Shutdown()
	for _, m := range componentMonitors(healthChecker, registry) {
		m.Start()
		defer m.Stop()
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	shutdownOn := func(name string, fn func(context.Context) error) {
		g.Go(func() error {
			<-ctx.Done()
			sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := fn(sctx); err != nil {
				logger.Error("failed to shut down "+name, "error", err)
				return fmt.Errorf("%s shutdown: %w", name, err)
			}
			return nil
		})
	}

	if cfg.Monitoring.Enabled {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		mux.HandleFunc("/health", healthChecker.HealthHandler())

		monitoringServer := &http.Server{
			Addr:              cfg.Monitoring.Addr,
			Handler:           mux,
			ReadHeaderTimeout: 30 * time.Second,
		}
		g.Go(func() error {
			logger.Info("starting Prometheus metrics server", "addr", cfg.Monitoring.Addr)
			if err := monitoringServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("monitoring server: %w", err)
			}
			return nil
		})
		shutdownOn("monitoring server", monitoringServer.Shutdown)
	}

	if cfg.Registry.Enabled {
		regClient := registration.NewClient(registrationConfig(cfg, registry), logger)
		regClient.OnStatus(func(registered bool, err error) {
			if registered {
				healthChecker.UpdateComponent("registry", monitoring.StatusOK, "registered", 0, nil)
				return
			}
			healthChecker.UpdateComponent("registry", monitoring.StatusDegraded, "not registered", 0, err)
		})
		regClient.Start(ctx)
		shutdownOn("registration", func(sctx context.Context) error {
			regClient.Stop(sctx)
			return nil
		})
		logger.Info("registration client initialized",
			"registry_url", cfg.Registry.URL,
			"tool_count", len(registry.GetToolNames()))
	}

	if cfg.HTTP.Enabled {
		httpTransport, err := server.NewHTTPTransport(s, server.HTTPTransportConfig{
			Addr:        cfg.HTTP.Addr,
			BaseURL:     cfg.HTTP.BaseURL,
			AuthType:    cfg.HTTP.AuthType,
			AuthToken:   cfg.HTTP.AuthToken,
			RateLimit:   cfg.HTTP.RateLimit,
			RateBurst:   cfg.HTTP.RateBurst,
			CORSOrigins: cfg.HTTP.CORSOrigins,

			TrustProxyHeaders: cfg.HTTP.TrustProxy,
		}, logger)
		if err != nil {
			return err
		}
		httpTransport.SetHealthChecker(healthChecker)

		g.Go(func() error {
			if err := httpTransport.Start(); err != nil {
				return fmt.Errorf("http transport: %w", err)
			}
			return nil
		})
		shutdownOn("HTTP transport", httpTransport.Shutdown)
	}

	// Transport startup logic:
	// - HTTP disabled: stdio only, and the process ends when stdin closes
	// - HTTP enabled: stdio runs alongside unless http.only is set, and closing stdin leaves HTTP up
	switch {
	case !cfg.HTTP.Enabled:
		logger.Info("transport_enabled", "type", "stdio", "mode", "blocking")
		g.Go(func() error {
			defer cancel()
			return s.RunWithContext(ctx)
		})
	case cfg.HTTP.Only:
		logger.Info("server_ready", "transports", []string{"http"}, "http_only", true)
	default:
		g.Go(func() error {
			logger.Info("transport_enabled", "type", "stdio", "mode", "background")
			if err := s.RunWithContext(ctx); err != nil {
				logger.Error("stdio transport error", "error", err)
			}
			return nil
		})
		logger.Info("server_ready", "transports", []string{"stdio", "http"})
	}

	return g.Wait()
}

// componentMonitors reports the catalog and the search store on /health
func componentMonitors(hc *monitoring.HealthChecker, registry *tools.Registry) []*monitoring.ComponentMonitor {
	cat := registry.Catalog()
	store := registry.Store()

	return []*monitoring.ComponentMonitor{
		monitoring.NewComponentMonitor("catalog", hc, func() (string, error) {
			if len(cat.Locations()) == 0 || len(cat.TransportModes()) == 0 {
				return "", errors.New("catalog is empty")
			}
			return fmt.Sprintf("%d cities, %d locations, %d modes",
				len(cat.Cities()), len(cat.Locations()), len(cat.TransportModes())), nil
		}, 5*time.Minute),
		monitoring.NewComponentMonitor("search_cache", hc, func() (string, error) {
			n := store.Len()
			monitoring.UpdateSearchCacheSize(n)
			return fmt.Sprintf("%d searches, ttl %s", n, store.TTL()), nil
		}, 30*time.Second),
	}
}

func registrationConfig(cfg *config.Config, registry *tools.Registry) registration.Config {
	svcURL := strings.TrimRight(serviceURL, "/")
	switch {
	case svcURL != "":
	case cfg.HTTP.BaseURL != "":
		svcURL = strings.TrimRight(cfg.HTTP.BaseURL, "/")
	case cfg.HTTP.Enabled:
		host := cfg.HTTP.Addr
		if strings.HasPrefix(host, ":") {
			host = "localhost" + host
		}
		svcURL = "http://" + host
	}

	return registration.Config{
		Enabled:           cfg.Registry.Enabled,
		RegistryURL:       cfg.Registry.URL,
		ServiceName:       cfg.Registry.ServiceName,
		ServiceType:       "mcp",
		ServiceURL:        svcURL,
		HealthURL:         svcURL + "/health",
		Version:           ver.BuildVersion,
		Capabilities:      []string{"trip-planning", "routing", "locations", "geodistance"},
		Tools:             registry.GetToolNames(),
		HeartbeatInterval: cfg.Registry.HeartbeatInterval,
		Metadata: map[string]any{
			"transport": map[string]bool{"stdio": !cfg.HTTP.Only, "http": cfg.HTTP.Enabled},
			"rest":      cfg.HTTP.Enabled,
		},
	}
}

// generateClientConfig writes an mcpServers entry that launches this binary over stdio
func generateClientConfig(path string, mergeOnly bool) error {
	if path == "" {
		return errors.New("config path cannot be empty")
	}
	if !strings.HasSuffix(path, ".json") {
		return errors.New("config file must have .json extension")
	}

	cleanPath := filepath.Clean(path)
	if err := validateSafePath(cleanPath); err != nil {
		return fmt.Errorf("invalid config path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(cleanPath), 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	existing := map[string]any{}
	if mergeOnly {
		if data, err := os.ReadFile(cleanPath); err == nil {
			if err := json.Unmarshal(data, &existing); err != nil {
				return fmt.Errorf("failed to parse existing config: %w", err)
			}
		}
	}

	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to locate executable: %w", err)
	}

	servers, _ := existing["mcpServers"].(map[string]any)
	if servers == nil {
		servers = map[string]any{}
	}
	servers[server.ServerName] = map[string]any{
		"command": exe,
		"args":    []string{},
	}
	existing["mcpServers"] = servers

	data, err := json.MarshalIndent(existing, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(cleanPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// validateSafePath rejects absolute paths and paths that leave the working directory
func validateSafePath(path string) error {
	if filepath.IsAbs(path) {
		return errors.New("absolute paths are not allowed")
	}

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get current working directory: %w", err)
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve absolute path: %w", err)
	}
	relPath, err := filepath.Rel(cwd, absPath)
	if err != nil {
		return fmt.Errorf("failed to determine relative path: %w", err)
	}
	if relPath == ".." || strings.HasPrefix(relPath, ".."+string(filepath.Separator)) {
		return fmt.Errorf("path traversal detected: %s", relPath)
	}
	return nil
}

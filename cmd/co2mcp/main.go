package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/NERVsystems/co2mcp/pkg/cache"
	"github.com/NERVsystems/co2mcp/pkg/emission"
	"github.com/NERVsystems/co2mcp/pkg/monitoring"
	"github.com/NERVsystems/co2mcp/pkg/registration"
	"github.com/NERVsystems/co2mcp/pkg/routes"
	"github.com/NERVsystems/co2mcp/pkg/server"
	"github.com/NERVsystems/co2mcp/pkg/tools"
	"github.com/NERVsystems/co2mcp/pkg/tracing"
	ver "github.com/NERVsystems/co2mcp/pkg/version"
)

const shutdownTimeout = 30 * time.Second

// errStdioClosed ends the process when the stdio client goes away and no
// other transport is serving.
var errStdioClosed = errors.New("stdio client disconnected")

func main() {
	opts, err := parseFlags(os.Args[0], os.Args[1:], os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logLevel := slog.LevelInfo
	if opts.debug {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	if opts.showVersion {
		fmt.Println(ver.String())
		return
	}

	if opts.generateConfig != "" {
		if err := generateClientConfig(opts.generateConfig, opts.mergeOnly); err != nil {
			logger.Error("failed to generate config", "error", err)
			os.Exit(1)
		}
		logger.Info("generated MCP client config", "path", opts.generateConfig)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.InitTracing(ctx, ver.BuildVersion)
	if err != nil {
		logger.Error("failed to initialize tracing", "error", err)
	} else {
		defer func() {
			if err := shutdownTracing(context.Background()); err != nil {
				logger.Error("error shutting down tracing", "error", err)
			}
		}()
		if endpoint := os.Getenv("OTLP_ENDPOINT"); endpoint != "" {
			logger.Info("OpenTelemetry tracing enabled", "endpoint", endpoint)
		}
	}

	if err := run(ctx, opts, logger); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}

// run builds the estimator and serves it until ctx is canceled or a
// transport fails.
func run(ctx context.Context, opts options, logger *slog.Logger) error {
	logger.Info("starting CO2 estimator MCP server",
		"version", ver.BuildVersion,
		"http_enabled", opts.enableHTTP,
		"http_only", opts.httpOnly,
		"monitoring_enabled", opts.enableMonitoring,
		"kg_per_credit", opts.engine.Credits.KgPerCredit,
		"cache_size", opts.cacheSize)

	var healthChecker *monitoring.HealthChecker
	if opts.enableMonitoring {
		healthChecker = monitoring.NewHealthChecker(monitoring.ServiceName, ver.BuildVersion)
		defer healthChecker.Shutdown()
	}

	registry, err := buildRegistry(opts, logger, healthChecker)
	if err != nil {
		return err
	}

	s, err := server.NewServer(registry, logger)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	if opts.enableMonitoring {
		ln, err := net.Listen("tcp", opts.monitoringAddr)
		if err != nil {
			return fmt.Errorf("listening on %s: %w", opts.monitoringAddr, err)
		}
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsSrv := &http.Server{
			Handler:           mux,
			ReadHeaderTimeout: 30 * time.Second,
		}

		g.Go(func() error {
			logger.Info("starting Prometheus metrics server", "addr", ln.Addr().String())
			if err := metricsSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			return shutdownWithTimeout(metricsSrv.Shutdown)
		})
	}

	transports := []string{}
	if opts.enableHTTP {
		httpTransport := server.NewHTTPTransport(s.GetMCPServer(), server.NewHandler(registry, logger), opts.http, logger)
		if healthChecker != nil {
			httpTransport.SetHealthChecker(healthChecker)
		}

		g.Go(func() error {
			if err := httpTransport.Start(); err != nil {
				return fmt.Errorf("http transport: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			return shutdownWithTimeout(httpTransport.Shutdown)
		})
		transports = append(transports, "http+sse")
	}

	if !opts.httpOnly {
		g.Go(func() error {
			logger.Info("transport_enabled", "type", "stdio")
			if err := s.RunWithContext(gctx); err != nil {
				if healthChecker != nil {
					healthChecker.UpdateComponent("stdio", "error", "", err)
				}
				return fmt.Errorf("stdio transport: %w", err)
			}
			if !opts.enableHTTP {
				return errStdioClosed
			}
			logger.Info("stdio client disconnected, HTTP transport still serving")
			return nil
		})
		transports = append([]string{"stdio"}, transports...)
	}

	if opts.enableRegistration {
		cfg := opts.registration
		cfg.Version = ver.BuildVersion
		cfg.Tools = registry.GetToolNames()
		cfg.Metadata = map[string]any{
			"transports":    transports,
			"kg_per_credit": opts.engine.Credits.KgPerCredit,
		}
		client, err := registration.NewClient(cfg, logger, healthChecker)
		if err != nil {
			return err
		}
		g.Go(func() error {
			return client.Run(gctx)
		})
	}

	if healthChecker != nil {
		healthChecker.SetTransport(monitoring.TransportInfo{
			Type:     strings.Join(transports, "+"),
			HTTPAddr: httpAddrIf(opts),
		})
	}
	logger.Info("server_ready", "transports", transports)

	if err := g.Wait(); err != nil && !errors.Is(err, errStdioClosed) {
		return err
	}
	return nil
}

// buildRegistry wires the catalog, engine and cache into the tool registry
// and reports each component to the health checker.
func buildRegistry(opts options, logger *slog.Logger, hc *monitoring.HealthChecker) (*tools.Registry, error) {
	engine, err := emission.New(opts.engine,
		emission.WithLogger(logger),
		emission.WithWarningHook(func(w emission.Warning) {
			monitoring.RecordEngineWarning(w.Op)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("creating emission engine: %w", err)
	}

	catalog := routes.DefaultCatalog()

	reports, err := cache.NewReportCache(opts.cacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating report cache: %w", err)
	}

	if hc != nil {
		hc.UpdateComponent("route_catalog", "ok",
			fmt.Sprintf("%d routes, %d cities", catalog.Len(), len(catalog.Cities())), nil)
		hc.UpdateComponent("emission_engine", "ok",
			fmt.Sprintf("%d modes, %g kg per credit", len(opts.engine.Factors), opts.engine.Credits.KgPerCredit), nil)
		hc.UpdateComponent("report_cache", "ok", fmt.Sprintf("capacity %d", opts.cacheSize), nil)
	}

	return tools.NewRegistry(logger, tools.Deps{
		Catalog: catalog,
		Engine:  engine,
		Reports: reports,
	})
}

func shutdownWithTimeout(shutdown func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return shutdown(ctx)
}

func httpAddrIf(opts options) string {
	if opts.enableHTTP {
		return opts.http.Addr
	}
	return ""
}

// generateClientConfig writes an MCP client config that launches this binary
// over stdio.
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

	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("locating executable: %w", err)
	}

	config := map[string]any{}
	if mergeOnly {
		if data, err := os.ReadFile(cleanPath); err == nil {
			if err := json.Unmarshal(data, &config); err != nil {
				return fmt.Errorf("failed to parse existing config: %w", err)
			}
		}
	}

	servers, _ := config["mcpServers"].(map[string]any)
	if servers == nil {
		servers = map[string]any{}
	}
	servers["co2mcp"] = map[string]any{
		"command": exe,
		"args":    []string{},
	}
	config["mcpServers"] = servers

	if err := os.MkdirAll(filepath.Dir(cleanPath), 0o750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(cleanPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// validateSafePath rejects absolute paths and paths leaving the working directory
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
	rel, err := filepath.Rel(cwd, absPath)
	if err != nil {
		return fmt.Errorf("failed to determine relative path: %w", err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("path traversal detected: %s", rel)
	}
	return nil
}

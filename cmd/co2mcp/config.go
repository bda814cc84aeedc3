package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/NERVsystems/co2mcp/pkg/cache"
	"github.com/NERVsystems/co2mcp/pkg/emission"
	"github.com/NERVsystems/co2mcp/pkg/registration"
	"github.com/NERVsystems/co2mcp/pkg/server"
)

// options holds everything read from the command line.
type options struct {
	showVersion    bool
	debug          bool
	generateConfig string
	mergeOnly      bool

	enableHTTP bool
	httpOnly   bool
	http       server.HTTPTransportConfig

	enableMonitoring bool
	monitoringAddr   string

	cacheSize int
	engine    emission.Config

	enableRegistration bool
	registration       registration.Config
}

// parseFlags reads args into options and validates them.
func parseFlags(name string, args []string, output io.Writer) (options, error) {
	opts := options{
		http:   server.DefaultHTTPTransportConfig(),
		engine: emission.DefaultConfig(),
	}

	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(output)

	fs.BoolVar(&opts.showVersion, "version", false, "Display version information")
	fs.BoolVar(&opts.debug, "debug", false, "Enable debug logging")
	fs.StringVar(&opts.generateConfig, "generate-config", "", "Write an MCP client config file for this server at the specified path")
	fs.BoolVar(&opts.mergeOnly, "merge-only", false, "Merge into an existing client config instead of overwriting it")

	// HTTP transport flags
	fs.BoolVar(&opts.enableHTTP, "enable-http", false, "Enable HTTP+SSE transport and JSON API (in addition to stdio)")
	fs.BoolVar(&opts.httpOnly, "http-only", false, "Run HTTP transport only, skip stdio (requires --enable-http)")
	fs.StringVar(&opts.http.Addr, "http-addr", opts.http.Addr, "HTTP server address")
	fs.StringVar(&opts.http.BaseURL, "http-base-url", "", "Base URL for HTTP transport (auto-detected if empty)")
	fs.StringVar(&opts.http.AuthType, "http-auth-type", opts.http.AuthType, "HTTP authentication type: none, bearer, basic")
	fs.StringVar(&opts.http.AuthToken, "http-auth-token", "", "HTTP authentication token (user:password for basic)")
	fs.Float64Var(&opts.http.RateLimit, "http-rate-limit", opts.http.RateLimit, "Requests per second per client IP (0 disables)")
	fs.IntVar(&opts.http.RateBurst, "http-rate-burst", opts.http.RateBurst, "Burst size per client IP")
	fs.Int64Var(&opts.http.MaxRequestSize, "http-max-body", opts.http.MaxRequestSize, "Maximum request body size in bytes")
	fs.StringVar(&opts.http.TLSCertFile, "tls-cert", "", "TLS certificate file")
	fs.StringVar(&opts.http.TLSKeyFile, "tls-key", "", "TLS private key file")
	fs.BoolVar(&opts.http.ForceHTTPS, "force-https", false, "Redirect plain HTTP requests to HTTPS")

	// Monitoring flags
	fs.BoolVar(&opts.enableMonitoring, "enable-monitoring", true, "Enable Prometheus metrics and health tracking")
	fs.StringVar(&opts.monitoringAddr, "monitoring-addr", ":9090", "Prometheus metrics server address")

	// Estimator flags
	fs.IntVar(&opts.cacheSize, "cache-size", cache.DefaultSize, "Number of trip reports kept in the LRU cache")
	fs.Float64Var(&opts.engine.Credits.KgPerCredit, "kg-per-credit", opts.engine.Credits.KgPerCredit, "Kilograms of CO2 per carbon credit")
	fs.Float64Var(&opts.engine.Credits.PriceMinPerCredit, "credit-price-min", opts.engine.Credits.PriceMinPerCredit, "Minimum price per credit in BRL")
	fs.Float64Var(&opts.engine.Credits.PriceMaxPerCredit, "credit-price-max", opts.engine.Credits.PriceMaxPerCredit, "Maximum price per credit in BRL")
	// Service registry flags
	fs.BoolVar(&opts.enableRegistration, "enable-registration", false, "Register with a service registry and send heartbeats")
	fs.StringVar(&opts.registration.RegistryURL, "registry-url", "", "Service registry base URL")
	fs.StringVar(&opts.registration.ServiceName, "service-name", "co2mcp", "Name announced to the service registry")
	fs.StringVar(&opts.registration.ServiceURL, "service-url", "", "External URL announced to the service registry")
	fs.DurationVar(&opts.registration.HeartbeatInterval, "heartbeat-interval", registration.DefaultHeartbeatInterval, "Interval between registry heartbeats")

	fs.Func("factor", "Override an emission factor as mode=kg_per_km (repeatable)", func(s string) error {
		return setFactor(opts.engine.Factors, s)
	})

	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if fs.NArg() > 0 {
		return opts, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}

	return opts, opts.validate()
}

// setFactor applies a "mode=value" override.
func setFactor(f emission.Factors, s string) error {
	name, raw, ok := strings.Cut(s, "=")
	if !ok {
		return fmt.Errorf("factor %q: want mode=kg_per_km", s)
	}
	mode, ok := emission.ParseMode(name)
	if !ok {
		return fmt.Errorf("factor %q: unknown mode %q", s, name)
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return fmt.Errorf("factor %q: %w", s, err)
	}
	f[mode] = v
	return nil
}

func (o options) validate() error {
	var errs []error
	if o.httpOnly && !o.enableHTTP {
		errs = append(errs, errors.New("--http-only requires --enable-http"))
	}
	if o.enableHTTP {
		if err := o.http.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("http transport: %w", err))
		}
	}
	if o.cacheSize <= 0 {
		errs = append(errs, fmt.Errorf("cache size must be > 0, got %d", o.cacheSize))
	}
	if err := o.engine.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("emission config: %w", err))
	}
	if o.enableRegistration {
		if err := o.registration.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("registration: %w", err))
		}
	}
	return errors.Join(errs...)
}

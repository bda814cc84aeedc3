package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"golang.org/x/time/rate"

	"github.com/NERVsystems/co2mcp/pkg/core"
	"github.com/NERVsystems/co2mcp/pkg/monitoring"
)

// HTTPTransportConfig holds configuration for the HTTP transport
type HTTPTransportConfig struct {
	Addr           string  `json:"addr"`
	BaseURL        string  `json:"base_url"`
	AuthType       string  `json:"auth_type"` // "none", "bearer" or "basic"
	AuthToken      string  `json:"auth_token"`
	SSEEndpoint    string  `json:"sse_endpoint"`
	MsgEndpoint    string  `json:"msg_endpoint"`
	APIPrefix      string  `json:"api_prefix"`
	RateLimit      float64 `json:"rate_limit"` // requests per second per IP, 0 disables
	RateBurst      int     `json:"rate_burst"`
	MaxRequestSize int64   `json:"max_request_size"`
	TLSCertFile    string  `json:"tls_cert_file"`
	TLSKeyFile     string  `json:"tls_key_file"`
	ForceHTTPS     bool    `json:"force_https"`
}

// DefaultHTTPTransportConfig returns sensible defaults
func DefaultHTTPTransportConfig() HTTPTransportConfig {
	return HTTPTransportConfig{
		Addr:           ":7082",
		AuthType:       core.AuthNone,
		SSEEndpoint:    "/sse",
		MsgEndpoint:    "/message",
		APIPrefix:      "/api",
		RateLimit:      10,
		RateBurst:      20,
		MaxRequestSize: 1 << 20,
	}
}

// Validate checks the transport configuration.
func (c HTTPTransportConfig) Validate() error {
	var errs []error
	switch c.AuthType {
	case core.AuthNone, "":
	case core.AuthBearer, core.AuthBasic:
		if c.AuthToken == "" {
			errs = append(errs, fmt.Errorf("auth type %q requires a token", c.AuthType))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown auth type %q", c.AuthType))
	}
	if (c.TLSCertFile == "") != (c.TLSKeyFile == "") {
		errs = append(errs, errors.New("TLS needs both a certificate and a key file"))
	}
	if c.RateLimit < 0 || c.RateBurst < 0 {
		errs = append(errs, errors.New("rate limit and burst must be >= 0"))
	}
	if c.MaxRequestSize <= 0 {
		errs = append(errs, errors.New("max request size must be > 0"))
	}
	return errors.Join(errs...)
}

// HTTPTransport serves MCP over HTTP+SSE together with the JSON API and
// health endpoints.
type HTTPTransport struct {
	config        HTTPTransportConfig
	logger        *slog.Logger
	sseServer     *mcpserver.SSEServer
	mux           *http.ServeMux
	httpSrv       *http.Server
	rateLimiter   *RateLimiter
	healthChecker *monitoring.HealthChecker
	closed        bool
	mu            sync.RWMutex
}

// NewHTTPTransport creates a new HTTP transport instance. api may be nil,
// in which case the JSON API is not mounted.
func NewHTTPTransport(mcpServer *mcpserver.MCPServer, api http.Handler, config HTTPTransportConfig, logger *slog.Logger) *HTTPTransport {
	if logger == nil {
		logger = slog.Default()
	}

	if config.AuthType != core.AuthNone && config.AuthToken != "" {
		if err := core.ValidateAuthToken(config.AuthToken); err != nil {
			logger.Warn("weak authentication token detected", "error", err.Error())
		}
	}

	t := &HTTPTransport{
		config: config,
		logger: logger,
		sseServer: mcpserver.NewSSEServer(
			mcpServer,
			mcpserver.WithSSEEndpoint(config.SSEEndpoint),
			mcpserver.WithMessageEndpoint(config.MsgEndpoint),
			mcpserver.WithBaseURL(config.BaseURL),
		),
		mux: http.NewServeMux(),
	}
	if config.RateLimit > 0 {
		t.rateLimiter = NewRateLimiter(rate.Limit(config.RateLimit), config.RateBurst, logger)
	}

	t.setupRoutes(api)
	return t
}

// SetHealthChecker sets the health checker for the HTTP transport
func (t *HTTPTransport) SetHealthChecker(hc *monitoring.HealthChecker) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.healthChecker = hc
}

func (t *HTTPTransport) setupRoutes(api http.Handler) {
	t.mux.HandleFunc("/", t.httpsEnforcement(t.handleServiceDiscovery))

	// Health endpoints are never authenticated.
	t.mux.HandleFunc("/health", t.healthHandler(func(hc *monitoring.HealthChecker) http.HandlerFunc { return hc.HealthHandler() }))
	t.mux.HandleFunc("/ready", t.healthHandler(func(hc *monitoring.HealthChecker) http.HandlerFunc { return hc.ReadinessHandler() }))
	t.mux.HandleFunc("/live", t.healthHandler(func(hc *monitoring.HealthChecker) http.HandlerFunc { return hc.LivenessHandler() }))

	protect := func(h http.Handler) http.Handler {
		return t.httpsEnforcement(t.authMiddleware(h).ServeHTTP)
	}
	t.mux.Handle(t.config.SSEEndpoint, protect(t.sseServer.SSEHandler()))
	t.mux.Handle(t.config.MsgEndpoint, protect(t.sseServer.MessageHandler()))

	if api != nil && t.config.APIPrefix != "" {
		t.mux.Handle(t.config.APIPrefix+"/", protect(http.StripPrefix(t.config.APIPrefix, api)))
	}
}

// httpsEnforcement redirects HTTP requests to HTTPS if ForceHTTPS is enabled
func (t *HTTPTransport) httpsEnforcement(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if t.config.ForceHTTPS && r.TLS == nil {
			httpsURL := "https://" + r.Host + r.URL.RequestURI()
			t.logger.Info("redirecting HTTP request to HTTPS",
				"client_ip", getIP(r),
				"redirect_url", httpsURL)
			http.Redirect(w, r, httpsURL, http.StatusMovedPermanently)
			return
		}
		next(w, r)
	}
}

// authMiddleware authenticates MCP and API requests
func (t *HTTPTransport) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		res := core.Authenticate(r, t.config.AuthType, t.config.AuthToken)
		if !res.Authorized {
			t.logger.Warn("authentication failed",
				"remote_addr", getIP(r),
				"path", r.URL.Path,
				"auth_type", t.config.AuthType,
				"error", res.Error,
				"auth_duration", res.Duration)
			monitoring.RecordError("http", string(core.ErrUnauthorized))

			if t.config.AuthType == core.AuthBasic {
				w.Header().Set("WWW-Authenticate", `Basic realm="co2mcp"`)
			} else {
				w.Header().Set("WWW-Authenticate", "Bearer")
			}
			writeJSON(w, http.StatusUnauthorized, core.NewError(core.ErrUnauthorized, "Authentication required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (t *HTTPTransport) handleServiceDiscovery(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	baseURL := t.config.BaseURL
	if baseURL == "" {
		scheme := "http"
		if r.TLS != nil || t.config.ForceHTTPS || t.config.TLSCertFile != "" {
			scheme = "https"
		}
		baseURL = scheme + "://" + r.Host
	}

	endpoints := map[string]string{
		"sse":     baseURL + t.config.SSEEndpoint,
		"message": baseURL + t.config.MsgEndpoint,
	}
	if t.config.APIPrefix != "" {
		endpoints["api"] = baseURL + t.config.APIPrefix
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"service":   "mcp-server",
		"transport": "HTTP+SSE",
		"endpoints": endpoints,
		"capabilities": map[string]bool{
			"tools":   true,
			"prompts": true,
		},
		"auth": map[string]bool{
			"required": t.config.AuthType != core.AuthNone && t.config.AuthType != "",
		},
	})
}

// healthHandler serves pick(hc) when a health checker is set, otherwise a
// minimal ok response.
func (t *HTTPTransport) healthHandler(pick func(*monitoring.HealthChecker) http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		t.mu.RLock()
		hc := t.healthChecker
		t.mu.RUnlock()

		if hc != nil {
			pick(hc)(w, r)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// Handler returns the mux wrapped in the transport middleware.
func (t *HTTPTransport) Handler() http.Handler {
	mws := []Middleware{
		TracingMiddleware(),
		LoggingMiddleware(t.logger),
		SecurityHeaders,
	}
	if t.rateLimiter != nil {
		mws = append(mws, t.rateLimiter.Middleware)
	}
	mws = append(mws, RequestSizeLimiter(t.config.MaxRequestSize))
	return Chain(t.mux, mws...)
}

// Start begins serving HTTP requests. It blocks until the server stops and
// returns nil after a graceful Shutdown.
func (t *HTTPTransport) Start() error {
	ln, err := net.Listen("tcp", t.config.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", t.config.Addr, err)
	}
	return t.Serve(ln)
}

// Serve accepts connections on ln.
func (t *HTTPTransport) Serve(ln net.Listener) error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		ln.Close()
		return nil
	}
	if t.httpSrv != nil {
		t.mu.Unlock()
		ln.Close()
		return core.NewError(core.ErrInternalError, "HTTP transport already started").
			WithGuidance("The HTTP transport is already running. Stop it before starting again.")
	}

	// SSE streams stay open, so there is no write timeout.
	t.httpSrv = &http.Server{
		Handler:           t.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}
	srv := t.httpSrv
	t.mu.Unlock()

	tlsEnabled := t.config.TLSCertFile != "" && t.config.TLSKeyFile != ""
	t.logger.Info("starting HTTP transport",
		"addr", ln.Addr().String(),
		"sse_endpoint", t.config.SSEEndpoint,
		"message_endpoint", t.config.MsgEndpoint,
		"api_prefix", t.config.APIPrefix,
		"auth_type", t.config.AuthType,
		"rate_limit", t.config.RateLimit,
		"tls_enabled", tlsEnabled)

	if t.config.ForceHTTPS && !tlsEnabled {
		t.logger.Warn("HTTPS enforcement enabled but no TLS certificates provided - HTTP requests will be redirected")
	}

	var err error
	if tlsEnabled {
		err = srv.ServeTLS(ln, t.config.TLSCertFile, t.config.TLSKeyFile)
	} else {
		err = srv.Serve(ln)
	}
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown gracefully stops the HTTP transport. A transport that has been
// shut down does not serve again.
func (t *HTTPTransport) Shutdown(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.closed = true
	if t.rateLimiter != nil {
		t.rateLimiter.Stop()
	}
	if t.httpSrv == nil {
		return nil
	}

	t.logger.Info("shutting down HTTP transport")

	if err := t.sseServer.Shutdown(ctx); err != nil {
		t.logger.Error("failed to shutdown SSE server", "error", err)
	}

	err := t.httpSrv.Shutdown(ctx)
	t.httpSrv = nil
	return err
}

// GetConfig returns the transport configuration
func (t *HTTPTransport) GetConfig() HTTPTransportConfig {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.config
}

// Package registration announces the estimator to a service registry and keeps
// the entry alive with heartbeats. A missing registry never stops the server.
package registration

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/NERVsystems/co2mcp/pkg/core"
	"github.com/NERVsystems/co2mcp/pkg/monitoring"
)

const (
	// DefaultHeartbeatInterval is the default interval between heartbeats.
	DefaultHeartbeatInterval = 30 * time.Second

	// DefaultTimeout bounds each registry request.
	DefaultTimeout = 5 * time.Second

	// HealthComponent is the component name reported to the health checker.
	HealthComponent = "registration"
)

// DefaultCapabilities describes what the estimator offers to registry consumers.
var DefaultCapabilities = []string{"routes", "emission", "carbon_credits"}

// Config holds the configuration for service registration.
type Config struct {
	RegistryURL string
	ServiceName string
	ServiceType string // defaults to "mcp"
	ServiceURL  string
	HealthURL   string // defaults to ServiceURL + "/health"
	Version     string

	Capabilities []string
	Tools        []string
	Metadata     map[string]any

	HeartbeatInterval time.Duration
	Timeout           time.Duration
	Retry             core.RetryOptions
}

// Validate reports missing or malformed fields.
func (c Config) Validate() error {
	var errs []error
	if c.RegistryURL == "" {
		errs = append(errs, errors.New("registry URL is required"))
	} else if u, err := url.Parse(c.RegistryURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("invalid registry URL %q", c.RegistryURL))
	}
	if c.ServiceName == "" {
		errs = append(errs, errors.New("service name is required"))
	}
	if c.ServiceURL == "" {
		errs = append(errs, errors.New("service URL is required"))
	}
	return errors.Join(errs...)
}

// Request is the body posted to the registry on every heartbeat.
type Request struct {
	Name         string         `json:"name"`
	Type         string         `json:"type"`
	URL          string         `json:"url"`
	HealthURL    string         `json:"health_url"`
	Version      string         `json:"version"`
	Capabilities []string       `json:"capabilities,omitempty"`
	Tools        []string       `json:"tools,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

// Response is the registry's acknowledgement.
type Response struct {
	Status          string    `json:"status"`
	Name            string    `json:"name"`
	TTLSeconds      int       `json:"ttl_seconds"`
	NextHeartbeatBy time.Time `json:"next_heartbeat_by"`
}

// Client keeps the service registered while Run is active.
type Client struct {
	cfg        Config
	logger     *slog.Logger
	httpClient *http.Client
	health     *monitoring.HealthChecker

	mu         sync.RWMutex
	registered bool
	lastTTL    time.Duration
}

// NewClient validates cfg, fills defaults and returns a client.
// health may be nil.
func NewClient(cfg Config, logger *slog.Logger, health *monitoring.HealthChecker) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("registration config: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.ServiceType == "" {
		cfg.ServiceType = "mcp"
	}
	if cfg.HealthURL == "" {
		cfg.HealthURL = cfg.ServiceURL + "/health"
	}
	if len(cfg.Capabilities) == 0 {
		cfg.Capabilities = DefaultCapabilities
	}
	if cfg.HeartbeatInterval <= 0 {
		cfg.HeartbeatInterval = DefaultHeartbeatInterval
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry = core.DefaultRetryOptions
	}

	return &Client{
		cfg:        cfg,
		logger:     logger.With("component", HealthComponent, "registry", cfg.RegistryURL),
		httpClient: &http.Client{Timeout: cfg.Timeout},
		health:     health,
	}, nil
}

// Run registers immediately, heartbeats until ctx is done and then
// deregisters. Registry failures are logged, never returned.
func (c *Client) Run(ctx context.Context) error {
	c.heartbeat(ctx)

	ticker := time.NewTicker(c.cfg.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.heartbeat(ctx)
		case <-ctx.Done():
			dctx, cancel := context.WithTimeout(context.Background(), c.cfg.Timeout)
			c.Deregister(dctx)
			cancel()
			return nil
		}
	}
}

// IsRegistered reports whether the last heartbeat succeeded.
func (c *Client) IsRegistered() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.registered
}

// TTL returns the time-to-live granted by the last successful heartbeat.
func (c *Client) TTL() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastTTL
}

func (c *Client) heartbeat(ctx context.Context) {
	resp, err := c.Register(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		c.logger.Warn("registry heartbeat failed", "error", err)
		monitoring.RecordError(HealthComponent, "heartbeat")
		c.report(monitoring.StatusDegraded, "registry unreachable", err)
		return
	}
	c.report("ok", fmt.Sprintf("ttl %ds", resp.TTLSeconds), nil)
}

// Register sends one registration or heartbeat request.
func (c *Client) Register(ctx context.Context) (*Response, error) {
	body, err := json.Marshal(Request{
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
		return nil, fmt.Errorf("marshal registration: %w", err)
	}

	endpoint := c.cfg.RegistryURL + "/api/register"
	httpResp, err := core.DoWithRetry(ctx, c.httpClient, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	}, c.cfg.Retry, c.logger)
	if err != nil {
		c.setRegistered(false, 0)
		return nil, err
	}
	defer httpResp.Body.Close()

	var resp Response
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		c.setRegistered(false, 0)
		return nil, fmt.Errorf("decode registration response: %w", err)
	}

	if !c.IsRegistered() {
		c.logger.Info("registered with service registry", "name", c.cfg.ServiceName, "ttl_seconds", resp.TTLSeconds)
	}
	c.setRegistered(true, time.Duration(resp.TTLSeconds)*time.Second)
	return &resp, nil
}

// Deregister removes the service entry. It is a no-op when not registered.
func (c *Client) Deregister(ctx context.Context) {
	if !c.IsRegistered() {
		return
	}
	defer c.setRegistered(false, 0)

	endpoint := c.cfg.RegistryURL + "/api/register/" + url.PathEscape(c.cfg.ServiceName)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		c.logger.Debug("failed to build deregistration request", "error", err)
		return
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("deregistration failed", "error", err)
		return
	}
	resp.Body.Close()

	if resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusNoContent {
		c.logger.Info("deregistered from service registry", "name", c.cfg.ServiceName)
		c.report("ok", "deregistered", nil)
	}
}

func (c *Client) setRegistered(registered bool, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.registered = registered
	c.lastTTL = ttl
}

func (c *Client) report(status, detail string, err error) {
	if c.health != nil {
		c.health.UpdateComponent(HealthComponent, status, detail, err)
	}
}

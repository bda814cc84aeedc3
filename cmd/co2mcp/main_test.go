package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/NERVsystems/co2mcp/pkg/emission"
)

func TestParseFlags_Defaults(t *testing.T) {
	opts, err := parseFlags("co2mcp", nil, io.Discard)
	if err != nil {
		t.Fatalf("parseFlags() error = %v", err)
	}
	if opts.enableHTTP || opts.httpOnly {
		t.Error("HTTP should be disabled by default")
	}
	if !opts.enableMonitoring {
		t.Error("monitoring should be enabled by default")
	}
	if opts.engine.Credits.KgPerCredit != emission.DefaultKgPerCredit {
		t.Errorf("kg per credit = %v", opts.engine.Credits.KgPerCredit)
	}
	if opts.engine.Factors[emission.Car] != 0.12 {
		t.Errorf("car factor = %v, want 0.12", opts.engine.Factors[emission.Car])
	}
}

func TestParseFlags_Overrides(t *testing.T) {
	opts, err := parseFlags("co2mcp", []string{
		"-enable-http",
		"-http-addr", "127.0.0.1:9999",
		"-http-rate-limit", "5",
		"-kg-per-credit", "500",
		"-credit-price-min", "10",
		"-credit-price-max", "20",
		"-factor", "bus=0.1",
		"-factor", "avião=0.3",
		"-cache-size", "16",
	}, io.Discard)
	if err != nil {
		t.Fatalf("parseFlags() error = %v", err)
	}

	if opts.http.Addr != "127.0.0.1:9999" || opts.http.RateLimit != 5 {
		t.Errorf("http config = %+v", opts.http)
	}
	want := emission.CreditConfig{KgPerCredit: 500, PriceMinPerCredit: 10, PriceMaxPerCredit: 20}
	if opts.engine.Credits != want {
		t.Errorf("credits = %+v, want %+v", opts.engine.Credits, want)
	}
	if opts.engine.Factors[emission.Bus] != 0.1 || opts.engine.Factors[emission.Plane] != 0.3 {
		t.Errorf("factors = %v", opts.engine.Factors)
	}
	if opts.cacheSize != 16 {
		t.Errorf("cache size = %d", opts.cacheSize)
	}

	// Overrides never leak into the package defaults.
	if emission.DefaultFactors()[emission.Bus] != 0.089 {
		t.Error("default factors were modified")
	}
}

func TestParseFlags_Invalid(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"http-only without http", []string{"-http-only"}},
		{"bad factor syntax", []string{"-factor", "bus"}},
		{"unknown factor mode", []string{"-factor", "rocket=1"}},
		{"non numeric factor", []string{"-factor", "bus=abc"}},
		{"negative factor", []string{"-factor", "car=-1"}},
		{"zero kg per credit", []string{"-kg-per-credit", "0"}},
		{"max below min", []string{"-credit-price-min", "200"}},
		{"zero cache", []string{"-cache-size", "0"}},
		{"bearer without token", []string{"-enable-http", "-http-auth-type", "bearer"}},
		{"registration without registry", []string{"-enable-registration", "-service-url", "http://co2mcp:7082"}},
		{"registration without service url", []string{"-enable-registration", "-registry-url", "http://registry:7083"}},
		{"stray argument", []string{"serve"}},
		{"unknown flag", []string{"-tile-cache", "1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := parseFlags("co2mcp", tt.args, io.Discard); err == nil {
				t.Errorf("parseFlags(%v) should fail", tt.args)
			}
		})
	}
}

func TestRun_HTTPOnlyShutsDownOnCancel(t *testing.T) {
	opts, err := parseFlags("co2mcp", []string{
		"-enable-http",
		"-http-only",
		"-http-addr", "127.0.0.1:0",
		"-monitoring-addr", "127.0.0.1:0",
	}, io.Discard)
	if err != nil {
		t.Fatalf("parseFlags() error = %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)
	go func() { errCh <- run(ctx, opts, logger) }()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("run() error = %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("run did not return after cancel")
	}
}

func TestRun_RegistersWithRegistry(t *testing.T) {
	var posts, deletes atomic.Int32
	registry := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			posts.Add(1)
			w.Write([]byte(`{"status":"registered","name":"co2mcp","ttl_seconds":90}`))
		case http.MethodDelete:
			deletes.Add(1)
		}
	}))
	defer registry.Close()

	opts, err := parseFlags("co2mcp", []string{
		"-enable-http",
		"-http-only",
		"-http-addr", "127.0.0.1:0",
		"-enable-monitoring=false",
		"-enable-registration",
		"-registry-url", registry.URL,
		"-service-url", "http://co2mcp:7082",
	}, io.Discard)
	if err != nil {
		t.Fatalf("parseFlags() error = %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- run(ctx, opts, logger) }()

	deadline := time.Now().Add(5 * time.Second)
	for posts.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	cancel()

	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("run() error = %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("run did not return after cancel")
	}

	if posts.Load() == 0 {
		t.Error("expected a registration request")
	}
	if deletes.Load() != 1 {
		t.Errorf("deregistrations = %d, want 1", deletes.Load())
	}
}

func TestRun_ListenFailure(t *testing.T) {
	opts, err := parseFlags("co2mcp", []string{"-monitoring-addr", "256.0.0.1:bad"}, io.Discard)
	if err != nil {
		t.Fatalf("parseFlags() error = %v", err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	if err := run(context.Background(), opts, logger); err == nil {
		t.Error("run() should fail when the metrics listener cannot bind")
	}
}

func TestBuildRegistry(t *testing.T) {
	opts, err := parseFlags("co2mcp", []string{"-factor", "bus=0.1"}, io.Discard)
	if err != nil {
		t.Fatal(err)
	}
	registry, err := buildRegistry(opts, slog.New(slog.NewTextHandler(io.Discard, nil)), nil)
	if err != nil {
		t.Fatalf("buildRegistry() error = %v", err)
	}
	if len(registry.GetToolNames()) == 0 {
		t.Error("registry has no tools")
	}
}

func TestGenerateClientConfig(t *testing.T) {
	t.Chdir(t.TempDir())

	path := filepath.Join("config", "mcp.json")
	if err := os.MkdirAll("config", 0o750); err != nil {
		t.Fatal(err)
	}
	existing := `{"mcpServers":{"other":{"command":"other"}},"theme":"dark"}`
	if err := os.WriteFile(path, []byte(existing), 0o600); err != nil {
		t.Fatal(err)
	}

	if err := generateClientConfig(path, true); err != nil {
		t.Fatalf("generateClientConfig() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var cfg struct {
		MCPServers map[string]map[string]any `json:"mcpServers"`
		Theme      string                    `json:"theme"`
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		t.Fatal(err)
	}
	if _, ok := cfg.MCPServers["co2mcp"]; !ok {
		t.Error("co2mcp server entry missing")
	}
	if _, ok := cfg.MCPServers["other"]; !ok || cfg.Theme != "dark" {
		t.Errorf("merge dropped existing entries: %s", data)
	}

	for _, bad := range []string{"", "config.txt", "../escape.json", "/tmp/abs.json"} {
		if err := generateClientConfig(bad, false); err == nil {
			t.Errorf("generateClientConfig(%q) should fail", bad)
		}
	}
}

package server

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/NERVsystems/co2mcp/pkg/tools"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	registry, err := tools.NewRegistry(discardLogger(), tools.Deps{})
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}
	s, err := NewServer(registry, discardLogger())
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}
	return s
}

// blockingServe stands in for the stdio loop and returns when ctx is done.
func blockingServe(ctx context.Context, in io.Reader, out io.Writer) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestNewServer(t *testing.T) {
	s := newTestServer(t)
	if s.GetMCPServer() == nil {
		t.Error("GetMCPServer() returned nil")
	}
	if len(s.Registry().GetToolNames()) == 0 {
		t.Error("registry has no tools")
	}

	if _, err := NewServer(nil, discardLogger()); err == nil {
		t.Error("NewServer(nil) should fail")
	}
}

func TestServer_RunWithContextCancel(t *testing.T) {
	s := newTestServer(t)
	s.serve = blockingServe

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- s.RunWithContext(ctx) }()

	cancel()
	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("RunWithContext() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop after context cancel")
	}
	s.WaitForShutdown()
}

func TestServer_Shutdown(t *testing.T) {
	s := newTestServer(t)
	s.serve = blockingServe

	errCh := make(chan error, 1)
	go func() { errCh <- s.Run() }()

	s.Shutdown()
	s.Shutdown()

	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("Run() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop after Shutdown")
	}
}

func TestServer_ServeError(t *testing.T) {
	s := newTestServer(t)
	boom := errors.New("broken pipe")
	s.serve = func(ctx context.Context, in io.Reader, out io.Writer) error { return boom }

	if err := s.Run(); !errors.Is(err, boom) {
		t.Errorf("Run() error = %v, want %v", err, boom)
	}

	// Client EOF is a normal exit.
	s = newTestServer(t)
	s.serve = func(ctx context.Context, in io.Reader, out io.Writer) error { return io.EOF }
	if err := s.Run(); err != nil {
		t.Errorf("Run() error = %v, want nil on EOF", err)
	}
}

package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/NERVsystems/co2mcp/pkg/core"
	"github.com/NERVsystems/co2mcp/pkg/tools"
)

// Handler serves a small JSON API over the estimator tools for clients
// that do not speak MCP.
type Handler struct {
	logger   *slog.Logger
	registry *tools.Registry
	mux      *http.ServeMux
}

// NewHandler creates a REST handler backed by registry
func NewHandler(registry *tools.Registry, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{
		logger:   logger,
		registry: registry,
		mux:      http.NewServeMux(),
	}

	h.mux.HandleFunc("GET /health", h.handleHealth)
	h.mux.HandleFunc("GET /cities", h.tool("list_cities", nil, nil))
	h.mux.HandleFunc("GET /distance", h.tool("find_distance", []string{"origin", "destination"}, nil))
	h.mux.HandleFunc("GET /modes", h.tool("list_transport_modes", nil, nil))
	h.mux.HandleFunc("GET /compare", h.tool("compare_modes", nil, []string{"distance_km"}))
	h.mux.HandleFunc("GET /estimate", h.tool("estimate_trip", []string{"origin", "destination", "mode"}, []string{"distance_km"}))

	return h
}

// ServeHTTP implements the http.Handler interface
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// tool builds an endpoint that maps query parameters to tool arguments.
// Numeric parameters that fail to parse are passed through as strings so
// the tool reports the validation error.
func (h *Handler) tool(name string, stringParams, numberParams []string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		handler, ok := h.registry.Handler(name)
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"code": "NOT_FOUND", "message": "unknown tool " + name})
			return
		}

		q := r.URL.Query()
		args := make(map[string]any)
		for _, p := range stringParams {
			if q.Has(p) {
				args[p] = q.Get(p)
			}
		}
		for _, p := range numberParams {
			if !q.Has(p) {
				continue
			}
			if v, err := strconv.ParseFloat(q.Get(p), 64); err == nil {
				args[p] = v
			} else {
				args[p] = q.Get(p)
			}
		}

		result, err := handler(r.Context(), mcp.CallToolRequest{
			Params: mcp.CallToolParams{Name: name, Arguments: args},
		})
		if err != nil {
			h.logger.Error("tool failed", "tool", name, "error", err)
			writeJSON(w, http.StatusInternalServerError, core.NewError(core.ErrInternalError, "Internal server error"))
			return
		}

		content := tools.ResultText(result)
		status := http.StatusOK
		if result.IsError {
			status = errorStatus(content)
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if _, err := w.Write([]byte(content)); err != nil {
			h.logger.Error("failed to write response", "tool", name, "error", err)
		}
	}
}

// errorStatus maps a tool error payload to an HTTP status.
func errorStatus(payload string) int {
	var e core.MCPError
	if err := json.Unmarshal([]byte(payload), &e); err != nil {
		return http.StatusBadRequest
	}
	switch core.ErrorCode(e.Code) {
	case core.ErrRouteNotFound:
		return http.StatusNotFound
	case core.ErrInternalError:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

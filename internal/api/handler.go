// Package api provides the HTTP surface of the kestrel passive scanning
// sidecar: message submission, alert retrieval, and context introspection.
package api

import (
	"net/http"
	"time"

	"github.com/samber/lo"

	"github.com/kestrelsec/kestrel/internal/httpmsg"
	"github.com/kestrelsec/kestrel/internal/pscan"
	"github.com/kestrelsec/kestrel/internal/webctx"
)

// Handler manages API endpoints.
type Handler struct {
	engine      *pscan.Engine
	registry    *webctx.Registry
	maxBodySize int64
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Timestamp string `json:"timestamp"`
}

// handleHealth returns service health status.
func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "healthy",
		Service:   "kestrel",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// MessageResponse represents the result of scanning one submitted exchange.
type MessageResponse struct {
	// Success indicates whether the scan pass completed.
	Success bool `json:"success"`
	// Alerts holds the alerts raised for the submitted exchange.
	Alerts []pscan.Alert `json:"alerts"`
	// Error is the normalized error payload on failure.
	Error *Error `json:"error,omitempty"`
}

// handleMessage accepts one captured exchange and runs a passive scan pass
// over it, returning the alerts it raised.
func (h *Handler) handleMessage(w http.ResponseWriter, r *http.Request) {
	if h.maxBodySize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)
	}

	var msg httpmsg.Exchange
	if err := decodeJSONBody(r, &msg); err != nil {
		writeJSON(w, http.StatusBadRequest, MessageResponse{
			Error: &Error{Code: errCodeInvalidRequest, Message: ErrInvalidRequestBody.Error()},
		})
		return
	}

	if msg.RequestURL() == "" {
		writeJSON(w, http.StatusBadRequest, MessageResponse{
			Error: &Error{Code: errCodeValidation, Message: ErrRequestURLRequired.Error()},
		})
		return
	}

	alerts := h.engine.Process(&msg)
	if alerts == nil {
		alerts = []pscan.Alert{}
	}

	writeJSON(w, http.StatusOK, MessageResponse{Success: true, Alerts: alerts})
}

// AlertsResponse represents the retained alert listing.
type AlertsResponse struct {
	Success bool          `json:"success"`
	Count   int           `json:"count"`
	Alerts  []pscan.Alert `json:"alerts"`
}

// handleAlerts lists every retained alert in the order raised.
func (h *Handler) handleAlerts(w http.ResponseWriter, _ *http.Request) {
	alerts := h.engine.Alerts()
	writeJSON(w, http.StatusOK, AlertsResponse{
		Success: true,
		Count:   len(alerts),
		Alerts:  alerts,
	})
}

// handleResetAlerts discards every retained alert.
func (h *Handler) handleResetAlerts(w http.ResponseWriter, _ *http.Request) {
	h.engine.Reset()
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// ContextSummary is the read-only API view of a configured context.
type ContextSummary struct {
	// ID is the stable identifier of the context.
	ID int `json:"id"`
	// Name is the operator-assigned name.
	Name string `json:"name"`
	// Technologies lists the technology scope; empty means all technologies.
	Technologies []string `json:"technologies,omitempty"`
}

// ContextsResponse represents the context listing.
type ContextsResponse struct {
	Success  bool             `json:"success"`
	Contexts []ContextSummary `json:"contexts"`
}

// handleContexts lists the configured contexts in registry order.
func (h *Handler) handleContexts(w http.ResponseWriter, _ *http.Request) {
	summaries := lo.Map(h.registry.Contexts(), func(c *webctx.Context, _ int) ContextSummary {
		return ContextSummary{
			ID:   c.ID(),
			Name: c.Name(),
			Technologies: lo.Map(c.TechSet().List(), func(t webctx.Tech, _ int) string {
				return string(t)
			}),
		}
	})

	writeJSON(w, http.StatusOK, ContextsResponse{Success: true, Contexts: summaries})
}

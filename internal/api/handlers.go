// Package api exposes the dashboard over HTTP. Handlers read the
// collector's published snapshot; nothing here computes metrics itself.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/babybento/aeo-command/internal/catalog"
	"github.com/babybento/aeo-command/internal/collector"
	"github.com/babybento/aeo-command/internal/insights"
	"github.com/babybento/aeo-command/internal/metrics"
	"github.com/babybento/aeo-command/internal/pkg/httputil"
	"github.com/babybento/aeo-command/internal/pkg/logger"
)

// Handlers contains all HTTP handlers.
type Handlers struct {
	collector *collector.Collector
	catalog   *catalog.Catalog
	insights  *insights.Service
	startTime time.Time
}

// NewHandlers creates a Handlers instance. The insights service may be nil
// when no narrative provider is configured.
func NewHandlers(c *collector.Collector, cat *catalog.Catalog, svc *insights.Service) *Handlers {
	return &Handlers{
		collector: c,
		catalog:   cat,
		insights:  svc,
		startTime: time.Now(),
	}
}

// HealthCheck reports service status and snapshot freshness.
//
//	GET /health
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	snap := h.collector.Snapshot()
	if snap == nil {
		status = "degraded"
	}

	resp := map[string]any{
		"status": status,
		"uptime": time.Since(h.startTime).Round(time.Second).String(),
	}
	if snap != nil {
		resp["snapshot_id"] = snap.ID
		resp["fetched_at"] = snap.FetchedAt
	}
	if lastErr := h.collector.LastError(); lastErr != "" {
		resp["last_fetch_error"] = lastErr
	}
	httputil.OK(w, resp)
}

// dashboardResponse is the single-call payload the frontend renders from.
type dashboardResponse struct {
	SnapshotID     string                   `json:"snapshot_id"`
	FetchedAt      time.Time                `json:"fetched_at"`
	SelectedNode   string                   `json:"selected_node"`
	Displayed      metrics.DisplayedMetrics `json:"displayed"`
	Aggregate      metrics.AggregateMetrics `json:"aggregate"`
	Previous       metrics.AggregateMetrics `json:"previous"`
	Breakdown      metrics.StatusBreakdown  `json:"breakdown"`
	Highlights     *metrics.Highlights      `json:"highlights,omitempty"`
	LastFetchError string                   `json:"last_fetch_error,omitempty"`
}

// HandleDashboard returns all header-level dashboard data in one call.
//
//	GET /api/dashboard
func (h *Handlers) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	snap := h.collector.Snapshot()
	if snap == nil {
		httputil.ServiceUnavailable(w, "no performance snapshot available yet")
		return
	}

	resp := dashboardResponse{
		SnapshotID:     snap.ID,
		FetchedAt:      snap.FetchedAt,
		SelectedNode:   h.collector.SelectedNode(),
		Displayed:      h.collector.Displayed(),
		Aggregate:      snap.Aggregate,
		Previous:       snap.Previous,
		Breakdown:      snap.Breakdown,
		LastFetchError: h.collector.LastError(),
	}
	if hl, ok := metrics.ComputeHighlights(snap.Nodes); ok {
		resp.Highlights = &hl
	}
	httputil.OK(w, resp)
}

// HandleNodes returns the full derived scorecard for every knowledge node.
//
//	GET /api/nodes
func (h *Handlers) HandleNodes(w http.ResponseWriter, r *http.Request) {
	snap := h.collector.Snapshot()
	if snap == nil {
		httputil.ServiceUnavailable(w, "no performance snapshot available yet")
		return
	}
	httputil.OK(w, map[string]any{
		"snapshot_id": snap.ID,
		"nodes":       snap.Nodes,
	})
}

// HandleNode returns one node's scorecard by name.
//
//	GET /api/nodes/{name}
func (h *Handlers) HandleNode(w http.ResponseWriter, r *http.Request) {
	snap := h.collector.Snapshot()
	if snap == nil {
		httputil.ServiceUnavailable(w, "no performance snapshot available yet")
		return
	}

	name := chi.URLParam(r, "name")
	for _, n := range snap.Nodes {
		if n.Name == name {
			httputil.OK(w, n)
			return
		}
	}
	httputil.NotFound(w, fmt.Sprintf("unknown node: %s", name))
}

type selectionRequest struct {
	Node *string `json:"node"`
}

// HandleSelection sets the dashboard selection. A null or empty node
// restores the global view.
//
//	POST /api/selection
func (h *Handlers) HandleSelection(w http.ResponseWriter, r *http.Request) {
	var req selectionRequest
	if !httputil.Decode(w, r, &req) {
		return
	}

	name := ""
	if req.Node != nil {
		name = *req.Node
	}

	if err := h.collector.SelectNode(name); err != nil {
		httputil.NotFound(w, fmt.Sprintf("unknown node: %s", name))
		return
	}

	httputil.OK(w, map[string]any{
		"selected_node": h.collector.SelectedNode(),
		"displayed":     h.collector.Displayed(),
	})
}

// HandleGaps returns the exact-match gap analysis.
//
//	GET /api/gaps
func (h *Handlers) HandleGaps(w http.ResponseWriter, r *http.Request) {
	if h.collector.Snapshot() == nil {
		httputil.ServiceUnavailable(w, "no performance snapshot available yet")
		return
	}
	httputil.OK(w, map[string]any{"gaps": h.collector.Gaps()})
}

// HandleRefresh triggers an immediate fetch and recompute. A refresh
// overtaken by a newer one still reports success; the fresher data won.
//
//	POST /api/refresh
func (h *Handlers) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 60*time.Second)
	defer cancel()

	if err := h.collector.Refresh(ctx); err != nil && !errors.Is(err, collector.ErrSuperseded) {
		logger.Error("manual refresh failed", "error", err)
		httputil.Error(w, http.StatusBadGateway, "performance fetch failed")
		return
	}

	snap := h.collector.Snapshot()
	resp := map[string]any{"status": "refreshed"}
	if snap != nil {
		resp["snapshot_id"] = snap.ID
		resp["fetched_at"] = snap.FetchedAt
	}
	httputil.OK(w, resp)
}

// HandleInsights sanitizes the current state and asks the narrative
// provider for a strategy readout. Provider failures degrade to the
// offline narrative rather than an error status.
//
//	POST /api/insights
func (h *Handlers) HandleInsights(w http.ResponseWriter, r *http.Request) {
	if h.insights == nil {
		httputil.ServiceUnavailable(w, "no narrative provider configured")
		return
	}
	snap := h.collector.Snapshot()
	if snap == nil {
		httputil.ServiceUnavailable(w, "no performance snapshot available yet")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 45*time.Second)
	defer cancel()

	narrative, err := h.insights.Generate(ctx, snap, h.collector.SelectedNode())
	httputil.OK(w, map[string]any{
		"narrative": narrative,
		"degraded":  err != nil,
	})
}

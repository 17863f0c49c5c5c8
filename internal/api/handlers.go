package api

import (
	"strconv"
	"time"

	"taskly/internal/alerts"
	"taskly/internal/metrics"
	"taskly/internal/monitor"

	"github.com/gin-gonic/gin"
)

// StateReader is the read side of the poll loop
type StateReader interface {
	Latest() *monitor.State
	Ticks() (completed, failed uint64)
}

// AlertReader lists recent alerts
type AlertReader interface {
	Recent(limit int) []alerts.Alert
}

// HealthHandler reports whether the loop is ticking
type HealthHandler struct {
	state StateReader
}

func NewHealthHandler(state StateReader) *HealthHandler {
	return &HealthHandler{state: state}
}

// CheckHealth returns the tick counters and the time of the last tick
func (h *HealthHandler) CheckHealth(c *gin.Context) {
	completed, failed := h.state.Ticks()
	status := map[string]interface{}{
		"status": "up",
		"ticks":  completed,
		"failed": failed,
	}
	if latest := h.state.Latest(); latest != nil {
		status["last_tick"] = latest.Snapshot.Timestamp.Format(time.RFC3339)
	} else {
		status["status"] = "starting"
	}
	Success(c, status)
}

// SnapshotHandler serves the latest snapshot and its history
type SnapshotHandler struct {
	state StateReader
}

func NewSnapshotHandler(state StateReader) *SnapshotHandler {
	return &SnapshotHandler{state: state}
}

// GetSnapshot returns the latest snapshot
func (h *SnapshotHandler) GetSnapshot(c *gin.Context) {
	latest := h.state.Latest()
	if latest == nil {
		Error(c, NOT_READY, "")
		return
	}
	Success(c, latest.Snapshot)
}

// GetHistory returns the chart series of the latest snapshot
func (h *SnapshotHandler) GetHistory(c *gin.Context) {
	latest := h.state.Latest()
	if latest == nil {
		Error(c, NOT_READY, "")
		return
	}
	Success(c, latest.Snapshot.History)
}

// ProcessHandler serves the process ranking
type ProcessHandler struct {
	state StateReader
}

func NewProcessHandler(state StateReader) *ProcessHandler {
	return &ProcessHandler{state: state}
}

// ListProcesses re-sorts a copy of the published ranking.
// Query: sort=cpu|memory, limit=N (0 means all).
func (h *ProcessHandler) ListProcesses(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "0"))
	if err != nil || limit < 0 {
		Error(c, VALIDATION_ERROR, "limit must be a non-negative integer")
		return
	}
	sortBy := c.DefaultQuery("sort", string(metrics.SortByCPU))
	if sortBy != string(metrics.SortByCPU) && sortBy != string(metrics.SortByMemory) {
		Error(c, VALIDATION_ERROR, "sort must be cpu or memory")
		return
	}

	latest := h.state.Latest()
	if latest == nil {
		Error(c, NOT_READY, "")
		return
	}

	procs := make([]metrics.ProcessSample, len(latest.Processes))
	copy(procs, latest.Processes)
	metrics.SortProcesses(procs, metrics.ParseSortKey(sortBy))
	if limit > 0 && len(procs) > limit {
		procs = procs[:limit]
	}
	Success(c, procs)
}

// AlertHandler serves recent alerts
type AlertHandler struct {
	alerts AlertReader
}

func NewAlertHandler(alerts AlertReader) *AlertHandler {
	return &AlertHandler{alerts: alerts}
}

// ListAlerts returns the most recent alerts, newest first
func (h *AlertHandler) ListAlerts(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if err != nil || limit < 0 {
		Error(c, VALIDATION_ERROR, "limit must be a non-negative integer")
		return
	}
	list := h.alerts.Recent(limit)
	if list == nil {
		list = []alerts.Alert{}
	}
	Success(c, list)
}

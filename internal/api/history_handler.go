package api

import (
	"strconv"
	"time"

	"taskly/internal/alerts"
	"taskly/internal/storage"

	"github.com/gin-gonic/gin"
)

// AlertHistory queries persisted alerts
type AlertHistory interface {
	List(filter storage.AlertFilter, limit int) ([]storage.AlertRecord, error)
	Count(filter storage.AlertFilter) (int64, error)
}

// HistoryHandler serves the alert database
type HistoryHandler struct {
	history AlertHistory
}

func NewHistoryHandler(history AlertHistory) *HistoryHandler {
	return &HistoryHandler{history: history}
}

// ListAlertHistory filters persisted alerts by type, severity and age
func (h *HistoryHandler) ListAlertHistory(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit < 0 {
		Error(c, VALIDATION_ERROR, "limit must be a non-negative integer")
		return
	}

	filter := storage.AlertFilter{
		Type:     alerts.AlertType(c.Query("type")),
		Severity: alerts.AlertSeverity(c.Query("severity")),
	}
	switch filter.Type {
	case "", alerts.AlertTypeCPU, alerts.AlertTypeRAM, alerts.AlertTypeTemperature:
	default:
		Error(c, VALIDATION_ERROR, "type must be cpu, ram or temperature")
		return
	}
	switch filter.Severity {
	case "", alerts.SeverityWarning, alerts.SeverityCritical:
	default:
		Error(c, VALIDATION_ERROR, "severity must be warning or critical")
		return
	}
	if since := c.Query("since"); since != "" {
		d, err := time.ParseDuration(since)
		if err != nil || d <= 0 {
			Error(c, VALIDATION_ERROR, "since must be a positive duration such as 24h")
			return
		}
		filter.Since = time.Now().Add(-d)
	}

	total, err := h.history.Count(filter)
	if err != nil {
		Error(c, ERROR, err.Error())
		return
	}
	records, err := h.history.List(filter, limit)
	if err != nil {
		Error(c, ERROR, err.Error())
		return
	}
	if records == nil {
		records = []storage.AlertRecord{}
	}

	Success(c, gin.H{
		"total":  total,
		"alerts": records,
	})
}

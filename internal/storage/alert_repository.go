package storage

import (
	"time"

	"gorm.io/gorm"

	"taskly/internal/alerts"
)

// AlertRecord is the persisted form of alerts.Alert
type AlertRecord struct {
	ID        uint                 `json:"id" gorm:"primaryKey;autoIncrement"`
	Type      alerts.AlertType     `json:"type" gorm:"not null;size:20;index"`
	Severity  alerts.AlertSeverity `json:"severity" gorm:"not null;size:20"`
	Message   string               `json:"message" gorm:"type:text"`
	Value     float64              `json:"value"`
	Threshold float64              `json:"threshold"`
	FiredAt   time.Time            `json:"fired_at" gorm:"not null;index"`
	CreatedAt time.Time            `json:"created_at" gorm:"autoCreateTime"`
}

// Alert converts the record back to the in-memory type
func (r AlertRecord) Alert() alerts.Alert {
	return alerts.Alert{
		Type:      r.Type,
		Severity:  r.Severity,
		Message:   r.Message,
		Value:     r.Value,
		Threshold: r.Threshold,
		Timestamp: r.FiredAt,
	}
}

// AlertFilter narrows a history query. Zero values match everything.
type AlertFilter struct {
	Type     alerts.AlertType
	Severity alerts.AlertSeverity
	Since    time.Time
}

type AlertRepository struct {
	db *gorm.DB
}

func NewAlertRepository(db *gorm.DB) *AlertRepository {
	return &AlertRepository{db: db}
}

// Save stores fired alerts in one transaction
func (r *AlertRepository) Save(fired []alerts.Alert) error {
	if len(fired) == 0 {
		return nil
	}
	records := make([]AlertRecord, 0, len(fired))
	for _, a := range fired {
		records = append(records, AlertRecord{
			Type:      a.Type,
			Severity:  a.Severity,
			Message:   a.Message,
			Value:     a.Value,
			Threshold: a.Threshold,
			FiredAt:   a.Timestamp,
		})
	}
	return r.db.Create(&records).Error
}

func (r *AlertRepository) query(filter AlertFilter) *gorm.DB {
	q := r.db.Model(&AlertRecord{})
	if filter.Type != "" {
		q = q.Where("type = ?", filter.Type)
	}
	if filter.Severity != "" {
		q = q.Where("severity = ?", filter.Severity)
	}
	if !filter.Since.IsZero() {
		q = q.Where("fired_at >= ?", filter.Since)
	}
	return q
}

// List returns matching alerts, newest first. limit <= 0 returns all.
func (r *AlertRepository) List(filter AlertFilter, limit int) ([]AlertRecord, error) {
	var records []AlertRecord
	q := r.query(filter).Order("fired_at DESC, id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&records).Error
	return records, err
}

// Count returns how many alerts match
func (r *AlertRepository) Count(filter AlertFilter) (int64, error) {
	var count int64
	err := r.query(filter).Count(&count).Error
	return count, err
}

// Prune deletes alerts fired before cutoff and returns how many went
func (r *AlertRepository) Prune(cutoff time.Time) (int64, error) {
	result := r.db.Where("fired_at < ?", cutoff).Delete(&AlertRecord{})
	return result.RowsAffected, result.Error
}

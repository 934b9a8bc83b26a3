package models

import "time"

// Alert is an operator-broadcast public notice. Alerts are never updated.
type Alert struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	AlertType string    `json:"alert_type"`
	CreatedAt time.Time `json:"created_at"`
}

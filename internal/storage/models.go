package storage

import "time"

// AlertRecord is one delivered alert in the audit trail.
type AlertRecord struct {
	ID            int64
	DayKey        string
	Symbol        string
	Direction     string
	Pct24h        float64
	Price         float64
	PrevWatermark *float64
	NewWatermark  float64
	CreatedAt     time.Time
}

// DayCount aggregates delivered alerts for one day bucket.
type DayCount struct {
	DayKey string
	Ups    int64
	Downs  int64
}

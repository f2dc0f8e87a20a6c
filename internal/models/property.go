package models

import "time"

type Property struct {
	ID             int64     `json:"id"`
	Title          string    `json:"title"`
	Price          int       `json:"price"`
	Location       string    `json:"location"`
	Arrondissement string    `json:"arrondissement"`
	Size           float64   `json:"size"`
	Rooms          int       `json:"rooms"`
	DPE            string    `json:"dpe"`
	Description    string    `json:"description"`
	PricePerM2     float64   `json:"price_per_m2"`
	URL            string    `json:"url"`
	FirstSeen      time.Time `json:"first_seen"`
	LastSeen       time.Time `json:"last_seen"`
	SessionID      int64     `json:"session_id"`
	IsActive       bool      `json:"is_active"`
}

type PricePoint struct {
	ID         int64     `json:"id"`
	PropertyID int64     `json:"property_id"`
	Price      int       `json:"price"`
	PricePerM2 float64   `json:"price_per_m2"`
	RecordedAt time.Time `json:"recorded_at"`
}

// ScrapeSession records one scraper execution.
type ScrapeSession struct {
	ID            int64     `json:"id"`
	Timestamp     time.Time `json:"timestamp"`
	Source        string    `json:"source"`
	Mode          string    `json:"mode"`
	ListingsFound int       `json:"listings_found"`
}

// SessionStats are the display-only aggregates shown in the report header.
type SessionStats struct {
	Count int        `json:"count"`
	First *time.Time `json:"first,omitempty"`
}

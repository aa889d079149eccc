package models

import "time"

// Document is owned by the import pipeline; this service only reads it.
type Document struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Category  string    `json:"category"`
	SourceURL string    `json:"source_url"`
	CreatedAt time.Time `json:"created_at"`
}

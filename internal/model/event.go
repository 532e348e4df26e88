package model

import "time"

// EventKind distinguishes progress notifications.
type EventKind string

const (
	// EventStageStarted is emitted before a stage runs.
	EventStageStarted EventKind = "stage_started"
	// EventSiteCompleted is emitted once the site report is final.
	EventSiteCompleted EventKind = "site_completed"
	// EventSiteFailed is emitted when the pipeline stopped with an error.
	EventSiteFailed EventKind = "site_failed"
)

// Event is a progress notification for one site.
type Event struct {
	Kind  EventKind `json:"kind"`
	Site  string    `json:"site"`
	Stage Stage     `json:"stage"`
	// Index is the 1-based position of Stage in the pipeline.
	Index int `json:"index"`
	// Total is the number of stages in the pipeline.
	Total int       `json:"total"`
	Time  time.Time `json:"time"`
}

package models

// ScrapeResponse is the response for POST /api/v1/scrape.
type ScrapeResponse struct {
	// Success indicates whether the run completed and the snapshot was replaced.
	Success bool `json:"success"`

	// Record is the freshly stored snapshot.
	Record *Record `json:"record,omitempty"`

	// Timing provides duration breakdowns for the operation.
	Timing TimingInfo `json:"timing"`

	// Error is populated only when Success is false.
	Error *ErrorDetail `json:"error,omitempty"`
}

// RecordResponse is the response for GET /api/v1/mars.
type RecordResponse struct {
	Success bool         `json:"success"`
	Record  *Record      `json:"record,omitempty"`
	Error   *ErrorDetail `json:"error,omitempty"`
}

// TimingInfo breaks down the time spent in each phase.
type TimingInfo struct {
	// TotalMs is the end-to-end duration in milliseconds.
	TotalMs int64 `json:"total_ms"`
}

// HealthResponse is the response for GET /api/v1/health.
type HealthResponse struct {
	Status    string `json:"status"` // "healthy", "empty" or "degraded"
	Uptime    string `json:"uptime"`
	ScrapedAt string `json:"scraped_at,omitempty"`
	Version   string `json:"version"`
}

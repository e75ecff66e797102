package diag

import "time"

// StatusResponse reports connection health.
type StatusResponse struct {
	Status      string    `json:"status"`
	Connected   bool      `json:"connected"`
	CatalogSize int       `json:"catalog_size"`
	Timestamp   time.Time `json:"timestamp"`
}

// CommandSummary describes one catalog entry for the /catalog listing.
type CommandSummary struct {
	Name      string `json:"name"`
	Subsystem string `json:"subsystem"`
	Kind      string `json:"kind"`
	Header    uint16 `json:"header"`
}

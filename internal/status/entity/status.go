package entity

import "time"

// Status is the public health snapshot of the service.
type Status struct {
	UpdatedAt    time.Time    `json:"updated_at"`
	Dependencies Dependencies `json:"dependencies"`
}

type Dependencies struct {
	Database Database `json:"database"`
}

// Database reports the server version and connection usage of the configured database.
type Database struct {
	Version           string `json:"version"`
	MaxConnections    int    `json:"max_connections"`
	OpenedConnections int    `json:"opened_connections"`
}

package store

import "time"

// Run records one completed since-command.
type Run struct {
	ID          string
	Identity    string // "<command> <target>"
	Since       string // boundary as displayed, "YYYY-MM-DD hh:mm:ss"
	CompletedAt time.Time
	LineCount   int
}

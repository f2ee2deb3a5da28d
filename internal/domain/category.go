package domain

import "time"

// Category is a named, colored classification for tickets.
type Category struct {
	ID          string
	Name        string
	Color       *string
	Description *string
	CreatedAt   time.Time
}

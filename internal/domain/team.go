package domain

import "time"

// Team groups agents under a supervisor. Accounts reference teams by ID only.
type Team struct {
	ID          int64
	Name        string
	Description string
	CreatedAt   time.Time
}

package domain

import (
	"time"

	"github.com/samber/lo"
)

// Snapshot is the complete state pushed to every hub subscriber.
// Version grows by one on each publication so a consumer can drop
// anything older than what it already rendered.
type Snapshot struct {
	Version  uint64
	Messages []Message
	Blocked  []string
	At       time.Time
}

func (s Snapshot) IsBlocked(userID string) bool {
	return lo.Contains(s.Blocked, userID)
}

// Newer reports whether s supersedes other.
func (s Snapshot) Newer(other Snapshot) bool {
	return s.Version > other.Version
}

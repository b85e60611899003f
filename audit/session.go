package audit

import (
	"os"
	"time"

	"github.com/google/uuid"
)

// Session identifies one run of a shell in the log.
type Session struct {
	ID        string
	StartTime time.Time
	UserID    int
	Hostname  string
}

// newSession captures the current process identity.
func newSession() Session {
	hostname, _ := os.Hostname()
	if hostname == "" {
		hostname = "unknown"
	}
	return Session{
		ID:        uuid.New().String(),
		StartTime: time.Now(),
		UserID:    os.Geteuid(),
		Hostname:  hostname,
	}
}

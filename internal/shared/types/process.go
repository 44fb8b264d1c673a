package types

import (
	"fmt"
	"time"
)

// Process is a hosting process. Endpoint, when set, serves live activity dumps.
type Process struct {
	PID        int       `json:"pid"`
	Name       string    `json:"name"`
	UID        int       `json:"uid"`
	Persistent bool      `json:"persistent"`
	Endpoint   string    `json:"endpoint,omitempty"`
	Alive      bool      `json:"alive"`
	StartedAt  time.Time `json:"started_at"`
}

func (p *Process) String() string {
	if p == nil {
		return "null"
	}
	return fmt.Sprintf("ProcessRecord{%d:%s/%d}", p.PID, p.Name, p.UID)
}

// Reachable reports whether a live dump can be requested from the process.
func (p *Process) Reachable() bool {
	return p != nil && p.Alive && p.Endpoint != ""
}

// UserState tracks a started user during a user switch.
type UserState struct {
	UserID    int       `json:"user_id"`
	State     string    `json:"state"`
	StartedAt time.Time `json:"started_at"`
}

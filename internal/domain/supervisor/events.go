package supervisor

import (
	"time"

	"github.com/GriffinCanCode/AgentOS/supervisor/internal/shared/id"
)

// EventType classifies lifecycle events.
type EventType string

const (
	EventStackCreated      EventType = "stack_created"
	EventStackFocused      EventType = "stack_focused"
	EventTaskMoved         EventType = "task_moved"
	EventFanOut            EventType = "fan_out"
	EventProcessDied       EventType = "process_died"
	EventProcessCrashed    EventType = "process_crashed"
	EventShutdownTimedOut  EventType = "shutdown_timed_out"
	EventShutdownComplete  EventType = "shutdown_complete"
	EventKeyguardDismissed EventType = "keyguard_dismissed"
)

// Event is one entry on the lifecycle feed.
type Event struct {
	ID        id.EventID `json:"id"`
	Type      EventType  `json:"type"`
	Operation string     `json:"operation,omitempty"`
	StackID   int        `json:"stack_id"`
	TaskID    int        `json:"task_id,omitempty"`
	Detail    string     `json:"detail,omitempty"`
	At        time.Time  `json:"at"`
}

// EventSink receives events while the supervisor lock is held, so Publish
// must not block or call back into the supervisor.
type EventSink interface {
	Publish(Event)
}

func (s *Supervisor) publish(e Event) {
	if s.events == nil {
		return
	}
	e.ID = id.NewEventID()
	e.At = time.Now()
	s.events.Publish(e)
}

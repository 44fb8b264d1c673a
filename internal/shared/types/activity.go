package types

import (
	"fmt"
	"time"

	"github.com/GriffinCanCode/AgentOS/supervisor/internal/shared/id"
)

// ActivityState represents activity lifecycle states
type ActivityState string

const (
	ActivityInitializing ActivityState = "initializing"
	ActivityResumed      ActivityState = "resumed"
	ActivityPausing      ActivityState = "pausing"
	ActivityPaused       ActivityState = "paused"
	ActivityStopping     ActivityState = "stopping"
	ActivityStopped      ActivityState = "stopped"
	ActivityFinishing    ActivityState = "finishing"
	ActivityDestroyed    ActivityState = "destroyed"
)

// UserAll matches activities of every user in force-stop requests.
const UserAll = -1

// Activity is one screen a user navigates to, hosted by a process and owned
// by exactly one task. TaskID is a key, not a pointer: the owning stack
// resolves it.
type Activity struct {
	Token       id.ActivityToken `json:"token"`
	PackageName string           `json:"package"`
	ShortName   string           `json:"short_name"`
	Process     *Process         `json:"-"`
	TaskID      int              `json:"task_id"`
	UserID      int              `json:"user_id"`
	State       ActivityState    `json:"state"`
	Visible     bool             `json:"visible"`
	Finishing   bool             `json:"finishing"`
	InHistory   bool             `json:"in_history"`

	// HandledChanges are configuration changes the activity absorbs without
	// being relaunched.
	HandledChanges ConfigChanges `json:"handled_changes"`
	// PendingRelaunch is set when a configuration change needs a restart.
	PendingRelaunch bool `json:"pending_relaunch"`
	// FinishOnCloseSystemDialogs finishes the activity when system dialogs close.
	FinishOnCloseSystemDialogs bool `json:"finish_on_close_system_dialogs"`

	LaunchedAt time.Time `json:"launched_at"`
}

// String matches the record line dumps print.
func (a *Activity) String() string {
	if a == nil {
		return "null"
	}
	return fmt.Sprintf("ActivityRecord{%s u%d %s t%d}", a.Token.Short(), a.UserID, a.ShortName, a.TaskID)
}

// HostedBy reports whether p hosts the activity.
func (a *Activity) HostedBy(p *Process) bool {
	return a != nil && p != nil && a.Process != nil && a.Process.PID == p.PID
}

// StartRequest describes an activity launch.
type StartRequest struct {
	PackageName    string        `json:"package" binding:"required"`
	ShortName      string        `json:"short_name" binding:"required"`
	Affinity       string        `json:"affinity"`
	UserID         int           `json:"user_id"`
	NewTask        bool          `json:"new_task"`
	HandledChanges ConfigChanges `json:"handled_changes"`
	// FinishOnCloseSystemDialogs marks transient UI such as a dialog activity.
	FinishOnCloseSystemDialogs bool `json:"finish_on_close_system_dialogs"`
	// PID names the hosting process; the service resolves it into Process.
	PID     int      `json:"pid,omitempty"`
	Process *Process `json:"-"`
}

// Options carries caller hints for moving a task to front.
type Options map[string]string

// Flags for moving a task to front.
const (
	// MoveTaskWithHome also brings the home stack forward.
	MoveTaskWithHome = 1 << iota
	// MoveTaskNoUserAction marks a move the user did not ask for.
	MoveTaskNoUserAction
)

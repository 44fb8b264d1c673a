package supervisor

import (
	"context"

	"github.com/GriffinCanCode/AgentOS/supervisor/internal/shared/id"
	"github.com/GriffinCanCode/AgentOS/supervisor/internal/shared/types"
)

// HomeStackID is reserved for the home stack; no other stack ever gets it.
const HomeStackID = 0

// Bucket names one of a stack's history collections shown in dumps.
type Bucket int

const (
	// BucketRunning holds activities in least-recently-used order.
	BucketRunning Bucket = iota
	BucketWaitingVisible
	BucketStopping
	BucketGoingToSleep
	BucketFinishing
)

// TaskOwner is the part of a stack that owns tasks.
type TaskOwner interface {
	ID() int
	TaskForID(taskID int) *types.Task
	Tasks() []*types.Task
	AddTask(task *types.Task, toTop bool)
	RemoveTask(task *types.Task)
	MoveTask(taskID int, toTop bool)
}

// Lifecycle drives the activities of one stack.
type Lifecycle interface {
	StartActivity(req types.StartRequest) (*types.Activity, error)
	// ResumeTopActivity returns false when there was nothing new to resume.
	ResumeTopActivity(prev *types.Activity) bool
	TopRunningActivity(notTop *types.Activity) *types.Activity
	EnsureActivitiesVisible(starting *types.Activity, changes types.ConfigChanges)
	// EnsureActivityConfiguration returns false when r must be relaunched.
	EnsureActivityConfiguration(r *types.Activity, changes types.ConfigChanges) bool
	StopIfSleeping()
	AwakeFromSleeping()
	ScheduleIdle()
	ActivityPaused(token id.ActivityToken) bool
	ActivityStopped(token id.ActivityToken) bool
}

// Recovery holds the operations the supervisor fans out across stacks.
type Recovery interface {
	// RemoveHistoryRecordsForProcess reports whether a removed activity was visible.
	RemoveHistoryRecordsForProcess(app *types.Process) bool
	HandleAppCrash(app *types.Process)
	FinishTopRunningActivity(app *types.Process)
	ScheduleDestroyActivities(app *types.Process, oomAdj bool, reason string)
	ForceStopPackage(name string, doit, evenPersistent bool, userID int) bool
	CloseSystemDialogs()
	FindTaskToMoveToFront(taskID, flags int, opts types.Options) bool
	SwitchUser(userID int, uss *types.UserState) bool
}

// LifecycleFields exposes the references the stack owns but the supervisor
// reads, and clears on process death.
type LifecycleFields interface {
	ResumedActivity() *types.Activity
	PausingActivity() *types.Activity
	SetPausingActivity(r *types.Activity)
	LastPausedActivity() *types.Activity
	SetLastPausedActivity(r *types.Activity)
	SleepTimeout() bool
	History(b Bucket) []*types.Activity
}

// Stack is the capability set the supervisor consumes from each stack. Every
// method is called with the supervisor lock held.
type Stack interface {
	TaskOwner
	Lifecycle
	Recovery
	LifecycleFields
}

// Host is what a stack may call back into. All methods require the lock.
type Host interface {
	NextTaskIDLocked() int
	AnyTaskForIDLocked(taskID int) *types.Task
	StackLocked(stackID int) (Stack, bool)
	IsSleepingOrShuttingDownLocked() bool
	DismissKeyguardLocked()
	Broadcast()
}

// StackFactory builds the stack registered under id.
type StackFactory func(id int, host Host) Stack

// WindowManager receives the keyguard dismissal when the latch fires.
type WindowManager interface {
	DismissKeyguard()
}

// ActivityDumper fetches a live dump of one activity from its hosting process.
type ActivityDumper interface {
	DumpActivity(ctx context.Context, app *types.Process, token id.ActivityToken, prefix string, args []string) ([]byte, error)
}

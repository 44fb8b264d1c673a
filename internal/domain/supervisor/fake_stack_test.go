package supervisor

import (
	"fmt"

	"github.com/GriffinCanCode/AgentOS/supervisor/internal/shared/id"
	"github.com/GriffinCanCode/AgentOS/supervisor/internal/shared/types"
)

// callLog records stack calls across every fake in one supervisor, in order.
type callLog struct {
	calls []string
}

func (l *callLog) add(op string, stackID int) {
	l.calls = append(l.calls, fmt.Sprintf("%s:%d", op, stackID))
}

func (l *callLog) count(op string, stackID int) int {
	want := fmt.Sprintf("%s:%d", op, stackID)
	n := 0
	for _, c := range l.calls {
		if c == want {
			n++
		}
	}
	return n
}

type fakeStack struct {
	id   int
	host Host
	log  *callLog

	tasks      []*types.Task
	resumed    *types.Activity
	pausing    *types.Activity
	lastPaused *types.Activity
	sleepTO    bool
	buckets    map[Bucket][]*types.Activity
	topRunning *types.Activity

	resumeResult    bool
	removeVisible   bool
	forceStopResult bool
	findResult      bool
	switchResult    bool
	keepConfig      bool

	onStopIfSleeping func(f *fakeStack)
	configRefs       []*types.Activity
}

// fakeFleet builds fakes through the supervisor's factory hook and keeps them
// reachable by id.
type fakeFleet struct {
	log    *callLog
	stacks map[int]*fakeStack
}

func newFakeFleet() *fakeFleet {
	return &fakeFleet{log: &callLog{}, stacks: map[int]*fakeStack{}}
}

func (f *fakeFleet) factory(stackID int, host Host) Stack {
	st := &fakeStack{
		id:         stackID,
		host:       host,
		log:        f.log,
		buckets:    map[Bucket][]*types.Activity{},
		keepConfig: true,
	}
	f.stacks[stackID] = st
	return st
}

func (f *fakeStack) ID() int { return f.id }

func (f *fakeStack) TaskForID(taskID int) *types.Task {
	for _, t := range f.tasks {
		if t.ID == taskID {
			return t
		}
	}
	return nil
}

func (f *fakeStack) Tasks() []*types.Task { return f.tasks }

func (f *fakeStack) AddTask(task *types.Task, toTop bool) {
	task.StackID = f.id
	if toTop {
		f.tasks = append(f.tasks, task)
		return
	}
	f.tasks = append([]*types.Task{task}, f.tasks...)
}

func (f *fakeStack) RemoveTask(task *types.Task) {
	for i, t := range f.tasks {
		if t == task {
			f.tasks = append(f.tasks[:i], f.tasks[i+1:]...)
			return
		}
	}
}

func (f *fakeStack) MoveTask(taskID int, toTop bool) {
	f.log.add("move", f.id)
	task := f.host.AnyTaskForIDLocked(taskID)
	if task == nil {
		return
	}
	if src, ok := f.host.StackLocked(task.StackID); ok {
		src.RemoveTask(task)
	}
	f.AddTask(task, toTop)
}

func (f *fakeStack) StartActivity(req types.StartRequest) (*types.Activity, error) {
	f.log.add("start", f.id)
	r := &types.Activity{
		Token:       id.NewActivityToken(),
		PackageName: req.PackageName,
		ShortName:   req.ShortName,
		State:       types.ActivityResumed,
	}
	f.resumed = r
	return r, nil
}

func (f *fakeStack) ResumeTopActivity(prev *types.Activity) bool {
	f.log.add("resume", f.id)
	return f.resumeResult
}

func (f *fakeStack) TopRunningActivity(notTop *types.Activity) *types.Activity {
	return f.topRunning
}

func (f *fakeStack) EnsureActivitiesVisible(starting *types.Activity, changes types.ConfigChanges) {
	f.log.add("ensure_visible", f.id)
}

func (f *fakeStack) EnsureActivityConfiguration(r *types.Activity, changes types.ConfigChanges) bool {
	f.log.add("ensure_config", f.id)
	f.configRefs = append(f.configRefs, r)
	return f.keepConfig
}

func (f *fakeStack) StopIfSleeping() {
	f.log.add("stop_if_sleeping", f.id)
	if f.onStopIfSleeping != nil {
		f.onStopIfSleeping(f)
	}
}

func (f *fakeStack) AwakeFromSleeping() { f.log.add("awake", f.id) }
func (f *fakeStack) ScheduleIdle() { f.log.add("idle", f.id) }

func (f *fakeStack) ActivityPaused(token id.ActivityToken) bool {
	if f.pausing == nil || f.pausing.Token != token {
		return false
	}
	f.lastPaused = f.pausing
	f.pausing = nil
	return true
}

func (f *fakeStack) ActivityStopped(token id.ActivityToken) bool { return false }

func (f *fakeStack) RemoveHistoryRecordsForProcess(app *types.Process) bool {
	f.log.add("remove_history", f.id)
	return f.removeVisible
}

func (f *fakeStack) HandleAppCrash(app *types.Process) { f.log.add("crash", f.id) }

func (f *fakeStack) FinishTopRunningActivity(app *types.Process) { f.log.add("finish_top", f.id) }

func (f *fakeStack) ScheduleDestroyActivities(app *types.Process, oomAdj bool, reason string) {
	f.log.add("destroy", f.id)
}

func (f *fakeStack) ForceStopPackage(name string, doit, evenPersistent bool, userID int) bool {
	f.log.add("force_stop", f.id)
	return f.forceStopResult
}

func (f *fakeStack) CloseSystemDialogs() { f.log.add("close_dialogs", f.id) }

func (f *fakeStack) FindTaskToMoveToFront(taskID, flags int, opts types.Options) bool {
	f.log.add("find", f.id)
	return f.findResult
}

func (f *fakeStack) SwitchUser(userID int, uss *types.UserState) bool {
	f.log.add("switch_user", f.id)
	return f.switchResult
}

func (f *fakeStack) ResumedActivity() *types.Activity { return f.resumed }
func (f *fakeStack) PausingActivity() *types.Activity { return f.pausing }
func (f *fakeStack) SetPausingActivity(r *types.Activity) { f.pausing = r }
func (f *fakeStack) LastPausedActivity() *types.Activity { return f.lastPaused }
func (f *fakeStack) SetLastPausedActivity(r *types.Activity) { f.lastPaused = r }
func (f *fakeStack) SleepTimeout() bool { return f.sleepTO }
func (f *fakeStack) History(b Bucket) []*types.Activity { return f.buckets[b] }

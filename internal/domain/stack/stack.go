package stack

import (
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/supervisor/internal/domain/supervisor"
	"github.com/GriffinCanCode/AgentOS/supervisor/internal/shared/id"
	"github.com/GriffinCanCode/AgentOS/supervisor/internal/shared/types"
)

// ErrInvalidRequest is returned for launches missing a package or name.
var ErrInvalidRequest = errors.New("start request needs package and short name")

// Stack owns an ordered list of tasks and drives their activities through
// the lifecycle. It has no lock of its own: the supervisor lock guards every
// call.
type Stack struct {
	id     int
	host   supervisor.Host
	logger *zap.Logger

	tasks []*types.Task // bottom first

	lru            []*types.Activity // least recently used first
	waitingVisible []*types.Activity
	stopping       []*types.Activity
	goingToSleep   []*types.Activity
	finishing      []*types.Activity

	resumed    *types.Activity
	pausing    *types.Activity
	lastPaused *types.Activity

	sleepTimeout bool
	currentUser  int
}

// Factory builds stacks for the supervisor.
func Factory(logger *zap.Logger) supervisor.StackFactory {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(stackID int, host supervisor.Host) supervisor.Stack {
		return New(stackID, host, logger)
	}
}

// New creates an empty stack.
func New(stackID int, host supervisor.Host, logger *zap.Logger) *Stack {
	return &Stack{
		id:     stackID,
		host:   host,
		logger: logger.With(zap.Int("stack", stackID)),
	}
}

// ID returns the stack id.
func (s *Stack) ID() int { return s.id }

// TaskForID returns the task with taskID, or nil.
func (s *Stack) TaskForID(taskID int) *types.Task {
	for _, t := range s.tasks {
		if t.ID == taskID {
			return t
		}
	}
	return nil
}

// Tasks returns the tasks bottom first.
func (s *Stack) Tasks() []*types.Task {
	out := make([]*types.Task, len(s.tasks))
	copy(out, s.tasks)
	return out
}

// AddTask takes ownership of task.
func (s *Stack) AddTask(task *types.Task, toTop bool) {
	task.StackID = s.id
	if toTop {
		s.tasks = append(s.tasks, task)
		return
	}
	s.tasks = append([]*types.Task{task}, s.tasks...)
}

// RemoveTask gives up task and forgets its activities.
func (s *Stack) RemoveTask(task *types.Task) {
	if !s.removeTask(task) {
		return
	}
	for _, r := range task.Activities {
		s.forget(r)
	}
}

// MoveTask takes the task from whichever stack owns it.
func (s *Stack) MoveTask(taskID int, toTop bool) {
	task := s.host.AnyTaskForIDLocked(taskID)
	if task == nil {
		s.logger.Warn("moveTask: no task", zap.Int("task", taskID))
		return
	}
	if task.StackID == s.id && s.removeTask(task) {
		s.AddTask(task, toTop)
		return
	}
	if src, ok := s.host.StackLocked(task.StackID); ok {
		src.RemoveTask(task)
	} else {
		s.removeTask(task)
	}
	s.AddTask(task, toTop)
	s.adopt(task, toTop)
	s.logger.Debug("Task moved", zap.Int("task", taskID), zap.Bool("to_top", toTop))
}

// StartActivity launches an activity. It joins the topmost task with the same
// affinity and user unless a new task is asked for, pauses the resumed
// activity and resumes the new one unless the system is going to sleep.
func (s *Stack) StartActivity(req types.StartRequest) (*types.Activity, error) {
	if req.PackageName == "" || req.ShortName == "" {
		return nil, ErrInvalidRequest
	}
	affinity := req.Affinity
	if affinity == "" {
		affinity = req.PackageName
	}

	var task *types.Task
	if !req.NewTask {
		task = s.taskForAffinity(affinity, req.UserID)
	}
	if task == nil {
		task = &types.Task{ID: s.host.NextTaskIDLocked(), Affinity: affinity, UserID: req.UserID}
		s.AddTask(task, true)
	} else {
		s.bringToTop(task)
	}

	r := &types.Activity{
		Token:                      id.NewActivityToken(),
		PackageName:                req.PackageName,
		ShortName:                  req.ShortName,
		Process:                    req.Process,
		TaskID:                     task.ID,
		UserID:                     req.UserID,
		State:                      types.ActivityInitializing,
		InHistory:                  true,
		HandledChanges:             req.HandledChanges,
		FinishOnCloseSystemDialogs: req.FinishOnCloseSystemDialogs,
		LaunchedAt:                 time.Now(),
	}
	task.Activities = append(task.Activities, r)

	s.logger.Info("Starting activity", zap.Stringer("activity", r), zap.Int("task", task.ID))

	if s.host.IsSleepingOrShuttingDownLocked() {
		return r, nil
	}
	if s.resumed != nil {
		s.startPausing(s.resumed)
	}
	s.resume(r)
	return r, nil
}

// ResumeTopActivity resumes the top running activity. It returns false when
// the stack is empty, the system sleeps, or the top is already resumed.
func (s *Stack) ResumeTopActivity(prev *types.Activity) bool {
	top := s.TopRunningActivity(nil)
	if top == nil {
		return false
	}
	if s.host.IsSleepingOrShuttingDownLocked() {
		return false
	}
	if top == s.resumed && top.State == types.ActivityResumed {
		return false
	}
	if s.resumed != nil && s.resumed != top {
		s.startPausing(s.resumed)
	}
	if prev != nil && prev != top {
		prev.Visible = false
	}
	s.resume(top)
	return true
}

// TopRunningActivity returns the topmost activity that is not finishing,
// skipping notTop.
func (s *Stack) TopRunningActivity(notTop *types.Activity) *types.Activity {
	for t := len(s.tasks) - 1; t >= 0; t-- {
		acts := s.tasks[t].Activities
		for i := len(acts) - 1; i >= 0; i-- {
			if r := acts[i]; !r.Finishing && r != notTop {
				return r
			}
		}
	}
	return nil
}

// EnsureActivitiesVisible shows the top running activity and hides the rest.
// starting, when given, has already had its configuration checked.
func (s *Stack) EnsureActivitiesVisible(starting *types.Activity, changes types.ConfigChanges) {
	top := s.TopRunningActivity(nil)
	s.forEach(func(r *types.Activity) {
		if r == top {
			if r != starting && changes != 0 {
				s.EnsureActivityConfiguration(r, changes)
			}
			if !r.Visible {
				r.Visible = true
				s.host.DismissKeyguardLocked()
			}
			return
		}
		r.Visible = false
	})
}

// EnsureActivityConfiguration reports whether r absorbs changes. Otherwise r
// is flagged for relaunch.
func (s *Stack) EnsureActivityConfiguration(r *types.Activity, changes types.ConfigChanges) bool {
	if changes == 0 || r.HandledChanges.Has(changes) {
		return true
	}
	r.PendingRelaunch = true
	s.logger.Debug("Activity needs relaunch", zap.Stringer("activity", r), zap.Stringer("changes", changes))
	return false
}

// StopIfSleeping pauses the resumed activity when the system sleeps or shuts
// down. With nothing left to pause but activities still going to sleep, the
// stack reports a sleep timeout.
func (s *Stack) StopIfSleeping() {
	if !s.host.IsSleepingOrShuttingDownLocked() {
		return
	}
	if r := s.resumed; r != nil {
		s.startPausing(r)
		s.goingToSleep = appendOnce(s.goingToSleep, r)
		return
	}
	if s.pausing == nil && len(s.goingToSleep) > 0 {
		s.sleepTimeout = true
	}
}

// AwakeFromSleeping clears the sleep bookkeeping.
func (s *Stack) AwakeFromSleeping() {
	s.goingToSleep = nil
	s.sleepTimeout = false
}

// ScheduleIdle asks stopping activities to stop and destroys finished ones.
func (s *Stack) ScheduleIdle() {
	for _, r := range s.stopping {
		if r != s.resumed && r != s.pausing && r.State == types.ActivityPaused {
			r.State = types.ActivityStopping
			r.Visible = false
		}
	}
	done := s.finishing
	s.finishing = nil
	for _, r := range done {
		s.destroy(r)
	}
}

// ActivityPaused completes the pause of the activity with token. A paused
// activity waits to stop, or to be destroyed when finishing.
func (s *Stack) ActivityPaused(token id.ActivityToken) bool {
	r := s.find(token)
	if r == nil {
		return false
	}
	if r == s.pausing {
		s.pausing = nil
		s.lastPaused = r
	}
	if r.State == types.ActivityPausing {
		r.State = types.ActivityPaused
	}
	if r.Finishing {
		s.finishing = appendOnce(s.finishing, r)
	} else {
		s.stopping = appendOnce(s.stopping, r)
	}
	s.host.Broadcast()
	return true
}

// ActivityStopped completes the stop of the activity with token.
func (s *Stack) ActivityStopped(token id.ActivityToken) bool {
	r := s.find(token)
	if r == nil {
		return false
	}
	r.State = types.ActivityStopped
	r.Visible = false
	s.stopping = remove(s.stopping, r)
	s.goingToSleep = remove(s.goingToSleep, r)
	s.host.Broadcast()
	return true
}

// RemoveHistoryRecordsForProcess drops every activity app hosts and reports
// whether one of them was visible.
func (s *Stack) RemoveHistoryRecordsForProcess(app *types.Process) bool {
	hasVisible := false
	var dead []*types.Activity
	s.forEach(func(r *types.Activity) {
		if r.HostedBy(app) {
			dead = append(dead, r)
		}
	})
	for _, r := range dead {
		if r.Visible {
			hasVisible = true
		}
		s.forget(r)
		s.dropFromTask(r)
		r.State = types.ActivityDestroyed
		r.InHistory = false
	}
	if len(dead) > 0 {
		s.logger.Info("Removed activities of dead process",
			zap.Stringer("process", app),
			zap.Int("count", len(dead)),
			zap.Bool("had_visible", hasVisible),
		)
	}
	return hasVisible
}

// HandleAppCrash finishes every activity of the crashed process.
func (s *Stack) HandleAppCrash(app *types.Process) {
	var crashed []*types.Activity
	s.forEach(func(r *types.Activity) {
		if r.HostedBy(app) && !r.Finishing {
			crashed = append(crashed, r)
		}
	})
	for _, r := range crashed {
		s.finish(r, "crashed")
	}
}

// FinishTopRunningActivity finishes the top running activity if app hosts it.
func (s *Stack) FinishTopRunningActivity(app *types.Process) {
	if r := s.TopRunningActivity(nil); r.HostedBy(app) {
		s.finish(r, "force-finish")
	}
}

// ScheduleDestroyActivities destroys the hidden activities of app, or of
// every process when app is nil.
func (s *Stack) ScheduleDestroyActivities(app *types.Process, oomAdj bool, reason string) {
	var victims []*types.Activity
	s.forEach(func(r *types.Activity) {
		if app != nil && !r.HostedBy(app) {
			return
		}
		if r.Finishing || r.Visible || r.State == types.ActivityDestroyed {
			return
		}
		if r == s.resumed || r == s.pausing {
			return
		}
		victims = append(victims, r)
	})
	for _, r := range victims {
		r.State = types.ActivityDestroyed
		s.stopping = remove(s.stopping, r)
	}
	if len(victims) > 0 {
		s.logger.Debug("Destroyed activities",
			zap.String("reason", reason),
			zap.Bool("oom_adj", oomAdj),
			zap.Int("count", len(victims)),
		)
	}
}

// ForceStopPackage finishes the activities of a package. Without doit it only
// reports whether anything would be finished. Activities of persistent
// processes survive unless evenPersistent is set.
func (s *Stack) ForceStopPackage(name string, doit, evenPersistent bool, userID int) bool {
	didSomething := false
	var victims []*types.Activity
	for t := len(s.tasks) - 1; t >= 0; t-- {
		acts := s.tasks[t].Activities
		for i := len(acts) - 1; i >= 0; i-- {
			r := acts[i]
			if name != "" && r.PackageName != name {
				continue
			}
			if userID != types.UserAll && r.UserID != userID {
				continue
			}
			if r.Process != nil && r.Process.Persistent && !evenPersistent {
				continue
			}
			if !doit {
				if r.Finishing {
					continue
				}
				return true
			}
			didSomething = true
			victims = append(victims, r)
		}
	}
	for _, r := range victims {
		s.finish(r, "force-stop")
	}
	return didSomething
}

// CloseSystemDialogs finishes activities that go away with system dialogs.
func (s *Stack) CloseSystemDialogs() {
	var dialogs []*types.Activity
	s.forEach(func(r *types.Activity) {
		if r.FinishOnCloseSystemDialogs && !r.Finishing {
			dialogs = append(dialogs, r)
		}
	})
	for _, r := range dialogs {
		s.finish(r, "close-sys")
	}
}

// FindTaskToMoveToFront brings the task to the top of this stack and resumes
// it. It returns false when the stack does not own the task.
func (s *Stack) FindTaskToMoveToFront(taskID, flags int, opts types.Options) bool {
	task := s.TaskForID(taskID)
	if task == nil {
		return false
	}
	s.bringToTop(task)
	s.logger.Debug("Task moved to front",
		zap.Int("task", taskID),
		zap.Bool("user_action", flags&types.MoveTaskNoUserAction == 0),
		zap.Any("options", opts),
	)
	s.ResumeTopActivity(nil)
	return true
}

// SwitchUser brings the user's tasks to the top and reports whether there
// were any.
func (s *Stack) SwitchUser(userID int, uss *types.UserState) bool {
	s.currentUser = userID
	var mine, others []*types.Task
	for _, t := range s.tasks {
		if t.UserID == userID {
			mine = append(mine, t)
		} else {
			others = append(others, t)
		}
	}
	s.tasks = append(others, mine...)
	if uss != nil {
		s.logger.Debug("Switched user", zap.Int("user", userID), zap.String("state", uss.State))
	}
	return len(mine) > 0
}

func (s *Stack) ResumedActivity() *types.Activity { return s.resumed }
func (s *Stack) PausingActivity() *types.Activity { return s.pausing }
func (s *Stack) SetPausingActivity(r *types.Activity) { s.pausing = r }
func (s *Stack) LastPausedActivity() *types.Activity { return s.lastPaused }
func (s *Stack) SetLastPausedActivity(r *types.Activity) { s.lastPaused = r }
func (s *Stack) SleepTimeout() bool { return s.sleepTimeout }

// History returns a copy of one bucket.
func (s *Stack) History(b supervisor.Bucket) []*types.Activity {
	var list []*types.Activity
	switch b {
	case supervisor.BucketRunning:
		list = s.lru
	case supervisor.BucketWaitingVisible:
		list = s.waitingVisible
	case supervisor.BucketStopping:
		list = s.stopping
	case supervisor.BucketGoingToSleep:
		list = s.goingToSleep
	case supervisor.BucketFinishing:
		list = s.finishing
	}
	out := make([]*types.Activity, len(list))
	copy(out, list)
	return out
}

package supervisor

import (
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/supervisor/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/supervisor/internal/shared/id"
	"github.com/GriffinCanCode/AgentOS/supervisor/internal/shared/types"
)

// fanOut starts timing operation and returns the func that records it.
func (s *Supervisor) fanOut(op string) func() {
	timer := monitoring.NewTimer(s.metrics, op)
	return func() {
		d := timer.Stop()
		s.logger.Debug("Fan-out complete",
			zap.String("op", op),
			zap.Int("stacks", len(s.stacks)),
			zap.Duration("took", d),
		)
		s.publish(Event{Type: EventFanOut, Operation: op})
	}
}

// ResumeTopActivityLocked resumes the home stack alone while home is on top,
// otherwise every other stack front to back.
func (s *Supervisor) ResumeTopActivityLocked() {
	defer s.fanOut("resume_top")()

	if s.homeOnTop {
		if s.home != nil {
			s.home.ResumeTopActivity(nil)
		}
		return
	}
	n := len(s.stacks)
	for i := 0; i < n; i++ {
		if st := s.stacks[i]; st != s.home {
			st.ResumeTopActivity(nil)
		}
	}
}

// HandleAppDiedLocked drops every reference to a dead process. A stack left
// with nothing to resume but with a visible activity of that process gets its
// visible activities re-validated, unless the process is being restarted.
func (s *Supervisor) HandleAppDiedLocked(app *types.Process, restarting bool) {
	defer s.fanOut("app_died")()

	n := len(s.stacks)
	for i := 0; i < n; i++ {
		st := s.stacks[i]
		if r := st.PausingActivity(); r.HostedBy(app) {
			s.logger.Debug("App died while pausing", zap.Stringer("activity", r))
			st.SetPausingActivity(nil)
		}
		if r := st.LastPausedActivity(); r.HostedBy(app) {
			st.SetLastPausedActivity(nil)
		}

		hasVisible := st.RemoveHistoryRecordsForProcess(app)

		if !restarting && !st.ResumeTopActivity(nil) && hasVisible {
			st.EnsureActivitiesVisible(nil, 0)
		}
	}

	if s.metrics != nil {
		s.metrics.ProcessDeaths.Inc()
	}
	s.publish(Event{Type: EventProcessDied, Detail: app.String()})
	s.Broadcast()
}

// HandleAppCrashLocked lets each stack deal with a crashed process.
func (s *Supervisor) HandleAppCrashLocked(app *types.Process) {
	defer s.fanOut("app_crash")()

	n := len(s.stacks)
	for i := 0; i < n; i++ {
		s.stacks[i].HandleAppCrash(app)
	}
	if s.metrics != nil {
		s.metrics.ProcessCrashes.Inc()
	}
	s.publish(Event{Type: EventProcessCrashed, Detail: app.String()})
}

// ForceStopPackageLocked reports whether any stack finished, or with doit
// unset would have finished, an activity of the package. Every stack is asked.
func (s *Supervisor) ForceStopPackageLocked(name string, doit, evenPersistent bool, userID int) bool {
	defer s.fanOut("force_stop")()

	didSomething := false
	n := len(s.stacks)
	for i := 0; i < n; i++ {
		if s.stacks[i].ForceStopPackage(name, doit, evenPersistent, userID) {
			didSomething = true
		}
	}
	return didSomething
}

// CloseSystemDialogsLocked asks every stack to close its system dialogs.
func (s *Supervisor) CloseSystemDialogsLocked() {
	defer s.fanOut("close_system_dialogs")()

	n := len(s.stacks)
	for i := 0; i < n; i++ {
		s.stacks[i].CloseSystemDialogs()
	}
}

// ScheduleIdleLocked schedules idle processing, topmost stack first.
func (s *Supervisor) ScheduleIdleLocked() {
	defer s.fanOut("schedule_idle")()

	for i := len(s.stacks) - 1; i >= 0; i-- {
		s.stacks[i].ScheduleIdle()
	}
}

// FindTaskToMoveToFrontLocked asks stacks, topmost first, to bring the task
// forward. The first stack that does wins; stacks below it are not asked.
func (s *Supervisor) FindTaskToMoveToFrontLocked(taskID, flags int, opts types.Options) {
	defer s.fanOut("task_to_front")()

	for i := len(s.stacks) - 1; i >= 0; i-- {
		if s.stacks[i].FindTaskToMoveToFront(taskID, flags, opts) {
			return
		}
	}
}

// FinishTopRunningActivityLocked finishes the top running activity of app in
// every stack.
func (s *Supervisor) FinishTopRunningActivityLocked(app *types.Process) {
	defer s.fanOut("finish_top")()

	n := len(s.stacks)
	for i := 0; i < n; i++ {
		s.stacks[i].FinishTopRunningActivity(app)
	}
}

// GoingToSleepLocked marks the supervisor sleeping and tells stacks, topmost
// first, to stop.
func (s *Supervisor) GoingToSleepLocked() {
	defer s.fanOut("going_to_sleep")()

	s.sleeping = true
	for i := len(s.stacks) - 1; i >= 0; i-- {
		s.stacks[i].StopIfSleeping()
	}
}

// ComeOutOfSleepIfNeededLocked wakes every stack and resumes its top activity.
func (s *Supervisor) ComeOutOfSleepIfNeededLocked() {
	defer s.fanOut("wake")()

	s.sleeping = false
	n := len(s.stacks)
	for i := 0; i < n; i++ {
		st := s.stacks[i]
		st.AwakeFromSleeping()
		st.ResumeTopActivity(nil)
	}
}

// UpdateConfigurationLocked applies a configuration change. Without an
// explicit starting activity each stack checks its own top running activity.
// It returns false when some activity has to be relaunched.
func (s *Supervisor) UpdateConfigurationLocked(changes types.ConfigChanges, starting *types.Activity) bool {
	defer s.fanOut("update_configuration")()

	kept := true
	n := len(s.stacks)
	for i := 0; i < n; i++ {
		st := s.stacks[i]
		ref := starting
		if changes != 0 && ref == nil {
			ref = st.TopRunningActivity(nil)
		}
		if ref == nil {
			continue
		}
		if !st.EnsureActivityConfiguration(ref, changes) {
			kept = false
		}
		st.EnsureActivitiesVisible(ref, changes)
	}
	return kept
}

// ScheduleDestroyAllActivitiesLocked destroys every activity app hosts.
func (s *Supervisor) ScheduleDestroyAllActivitiesLocked(app *types.Process, reason string) {
	defer s.fanOut("destroy_all")()

	n := len(s.stacks)
	for i := 0; i < n; i++ {
		s.stacks[i].ScheduleDestroyActivities(app, false, reason)
	}
}

// SwitchUserLocked switches every stack to userID and reports whether any
// stack has activities for that user.
func (s *Supervisor) SwitchUserLocked(userID int, uss *types.UserState) bool {
	defer s.fanOut("switch_user")()

	haveActivities := false
	n := len(s.stacks)
	for i := 0; i < n; i++ {
		haveActivities = s.stacks[i].SwitchUser(userID, uss) || haveActivities
	}
	return haveActivities
}

// StartHomeActivityLocked launches req on the home stack and puts home on top.
func (s *Supervisor) StartHomeActivityLocked(req types.StartRequest) (*types.Activity, error) {
	if s.home == nil {
		return nil, ErrNotInitialized
	}
	r, err := s.home.StartActivity(req)
	if err != nil {
		return nil, err
	}
	s.homeOnTop = true
	return r, nil
}

// StartActivityLocked launches req on the stack registered under stackID.
func (s *Supervisor) StartActivityLocked(stackID int, req types.StartRequest) (*types.Activity, error) {
	st, ok := s.StackLocked(stackID)
	if !ok {
		return nil, ErrStackNotFound
	}
	return st.StartActivity(req)
}

// ActivityPausedLocked reports a finished pause to the stack that owns the
// activity. The stack wakes a waiting shutdown. It returns false for unknown
// tokens.
func (s *Supervisor) ActivityPausedLocked(token id.ActivityToken) bool {
	n := len(s.stacks)
	for i := 0; i < n; i++ {
		if s.stacks[i].ActivityPaused(token) {
			return true
		}
	}
	return false
}

// ActivityStoppedLocked reports a finished stop.
func (s *Supervisor) ActivityStoppedLocked(token id.ActivityToken) bool {
	n := len(s.stacks)
	for i := 0; i < n; i++ {
		if s.stacks[i].ActivityStopped(token) {
			return true
		}
	}
	return false
}

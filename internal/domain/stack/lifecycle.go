package stack

import (
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/supervisor/internal/shared/id"
	"github.com/GriffinCanCode/AgentOS/supervisor/internal/shared/types"
)

// resume makes r the resumed activity.
func (s *Stack) resume(r *types.Activity) {
	r.State = types.ActivityResumed
	r.Visible = true
	s.resumed = r
	if s.pausing == r {
		s.pausing = nil
	}
	s.sleepTimeout = false

	s.lru = append(remove(s.lru, r), r)
	s.waitingVisible = remove(s.waitingVisible, r)
	s.stopping = remove(s.stopping, r)
	s.goingToSleep = remove(s.goingToSleep, r)

	s.host.DismissKeyguardLocked()
	s.logger.Debug("Resumed activity", zap.Stringer("activity", r))
}

// startPausing moves r from resumed to pausing. The pause completes when
// the hosting process reports it through ActivityPaused.
func (s *Stack) startPausing(r *types.Activity) {
	if s.resumed == r {
		s.resumed = nil
	}
	s.pausing = r
	r.State = types.ActivityPausing
}

// finish marks r finishing. A resumed activity pauses first and joins the
// finishing list once the pause completes.
func (s *Stack) finish(r *types.Activity, reason string) {
	r.Finishing = true
	s.logger.Debug("Finishing activity", zap.Stringer("activity", r), zap.String("reason", reason))

	if r == s.resumed {
		s.startPausing(r)
		return
	}
	if r == s.pausing {
		return
	}
	r.State = types.ActivityFinishing
	r.Visible = false
	s.stopping = remove(s.stopping, r)
	s.finishing = appendOnce(s.finishing, r)
}

// destroy removes r from the stack for good.
func (s *Stack) destroy(r *types.Activity) {
	r.State = types.ActivityDestroyed
	r.InHistory = false
	s.forget(r)
	s.dropFromTask(r)
}

// forget drops every reference the stack's lists and lifecycle fields hold
// to r, except last paused.
func (s *Stack) forget(r *types.Activity) {
	s.lru = remove(s.lru, r)
	s.waitingVisible = remove(s.waitingVisible, r)
	s.stopping = remove(s.stopping, r)
	s.goingToSleep = remove(s.goingToSleep, r)
	s.finishing = remove(s.finishing, r)

	cleared := false
	if s.resumed == r {
		s.resumed = nil
		cleared = true
	}
	if s.pausing == r {
		s.pausing = nil
		cleared = true
	}
	if cleared {
		s.host.Broadcast()
	}
}

// adopt tracks the live activities of a task moved in from another stack.
// A resumed activity stays resumed only when the task lands on top of a stack
// with nothing resumed; otherwise it starts pausing here.
func (s *Stack) adopt(task *types.Task, toTop bool) {
	for _, r := range task.Activities {
		switch r.State {
		case types.ActivityResumed:
			if toTop && s.resumed == nil {
				s.resumed = r
				s.lru = append(remove(s.lru, r), r)
				continue
			}
			fallthrough
		case types.ActivityPausing:
			r.State = types.ActivityPausing
			if s.pausing == nil {
				s.pausing = r
			}
			s.lru = appendOnce(s.lru, r)
		}
	}
}

func (s *Stack) dropFromTask(r *types.Activity) {
	task := s.TaskForID(r.TaskID)
	if task == nil {
		return
	}
	task.Remove(r)
	if len(task.Activities) == 0 {
		s.removeTask(task)
	}
}

func (s *Stack) removeTask(task *types.Task) bool {
	for i, t := range s.tasks {
		if t == task {
			s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
			return true
		}
	}
	return false
}

func (s *Stack) bringToTop(task *types.Task) {
	if s.removeTask(task) {
		s.tasks = append(s.tasks, task)
	}
}

func (s *Stack) taskForAffinity(affinity string, userID int) *types.Task {
	for i := len(s.tasks) - 1; i >= 0; i-- {
		if t := s.tasks[i]; t.Affinity == affinity && t.UserID == userID {
			return t
		}
	}
	return nil
}

func (s *Stack) find(token id.ActivityToken) *types.Activity {
	var found *types.Activity
	s.forEach(func(r *types.Activity) {
		if found == nil && r.Token == token {
			found = r
		}
	})
	return found
}

// forEach visits activities top down. fn must not change task membership.
func (s *Stack) forEach(fn func(r *types.Activity)) {
	for t := len(s.tasks) - 1; t >= 0; t-- {
		acts := s.tasks[t].Activities
		for i := len(acts) - 1; i >= 0; i-- {
			fn(acts[i])
		}
	}
}

func appendOnce(list []*types.Activity, r *types.Activity) []*types.Activity {
	for _, a := range list {
		if a == r {
			return list
		}
	}
	return append(list, r)
}

func remove(list []*types.Activity, r *types.Activity) []*types.Activity {
	for i, a := range list {
		if a == r {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}

package supervisor

import (
	"time"

	"go.uber.org/zap"
)

// ShutdownLocked stops every stack that still has a resumed activity and
// waits, holding the lock only while not blocked, for its resumed and pausing
// activities to clear. Each stack gets its own timeout window. It reports
// whether any stack timed out; stacks after a timed out one are still waited on.
func (s *Supervisor) ShutdownLocked(timeout time.Duration) bool {
	start := time.Now()
	s.shuttingDown = true

	timedOut := false
	n := len(s.stacks)
	for i := 0; i < n; i++ {
		st := s.stacks[i]
		if st.ResumedActivity() == nil {
			continue
		}
		st.StopIfSleeping()

		deadline := time.Now().Add(timeout)
		for st.ResumedActivity() != nil || st.PausingActivity() != nil {
			delay := time.Until(deadline)
			if delay <= 0 {
				s.logger.Warn("Shutdown timed out",
					zap.Int("stack", st.ID()),
					zap.Duration("timeout", timeout),
				)
				if s.metrics != nil {
					s.metrics.ShutdownTimeouts.Inc()
				}
				s.publish(Event{Type: EventShutdownTimedOut, StackID: st.ID()})
				timedOut = true
				break
			}
			s.waitLocked(delay)
		}
	}

	if s.metrics != nil {
		s.metrics.ShutdownDuration.Observe(time.Since(start).Seconds())
	}
	s.logger.Info("Shutdown complete", zap.Bool("timed_out", timedOut), zap.Duration("took", time.Since(start)))
	s.publish(Event{Type: EventShutdownComplete})
	return timedOut
}

// waitLocked blocks on the condition until a Broadcast or until d elapses,
// whichever comes first. The caller re-checks its predicate either way.
func (s *Supervisor) waitLocked(d time.Duration) {
	t := time.AfterFunc(d, func() {
		s.mu.Lock()
		s.cond.Broadcast()
		s.mu.Unlock()
	})
	s.cond.Wait()
	t.Stop()
}

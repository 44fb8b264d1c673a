package supervisor

// NextTaskIDLocked hands out a task id no live task holds. The counter wraps
// to 1 on overflow and skips ids in use. There is no exhaustion guard: live
// tasks are assumed to be far fewer than the id space, and if every positive
// id were taken this would not return.
func (s *Supervisor) NextTaskIDLocked() int {
	for {
		s.curTaskID++
		if s.curTaskID <= 0 {
			s.curTaskID = 1
		}
		if s.AnyTaskForIDLocked(s.curTaskID) == nil {
			break
		}
	}
	if s.metrics != nil {
		s.metrics.TaskIDs.Inc()
	}
	return s.curTaskID
}

// CurrentTaskIDLocked returns the last id handed out.
func (s *Supervisor) CurrentTaskIDLocked() int { return s.curTaskID }

// SetTaskIDCounterLocked seeds the counter; the next id handed out is n+1
// unless that wraps or collides.
func (s *Supervisor) SetTaskIDCounterLocked(n int) { s.curTaskID = n }

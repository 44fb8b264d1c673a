package types

import "fmt"

// Task is an ordered run of activities, bottom first. StackID names the stack
// that currently owns it.
type Task struct {
	ID         int         `json:"id"`
	StackID    int         `json:"stack_id"`
	Affinity   string      `json:"affinity"`
	UserID     int         `json:"user_id"`
	Activities []*Activity `json:"activities"`
}

func (t *Task) String() string {
	if t == nil {
		return "null"
	}
	return fmt.Sprintf("TaskRecord{#%d A %s U %d}", t.ID, t.Affinity, t.UserID)
}

// TopActivity returns the topmost activity that is not finishing.
func (t *Task) TopActivity() *Activity {
	for i := len(t.Activities) - 1; i >= 0; i-- {
		if r := t.Activities[i]; !r.Finishing {
			return r
		}
	}
	return nil
}

// Remove drops r from the task and reports whether it was present.
func (t *Task) Remove(r *Activity) bool {
	for i, a := range t.Activities {
		if a == r {
			t.Activities = append(t.Activities[:i], t.Activities[i+1:]...)
			return true
		}
	}
	return false
}

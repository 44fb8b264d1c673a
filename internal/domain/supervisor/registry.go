package supervisor

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/supervisor/internal/shared/types"
)

// CreateStackLocked registers a new stack and returns its id. Ids are probed
// upward from the last one handed out, wrapping past the home id and
// skipping ids still in use. relativeID, position and weight place the stack
// on screen; the registry itself appends it to the end of the z-order.
func (s *Supervisor) CreateStackLocked(relativeID, position int, weight float64) int {
	for {
		s.lastStackID++
		if s.lastStackID <= HomeStackID {
			s.lastStackID = HomeStackID + 1
		}
		if _, taken := s.StackLocked(s.lastStackID); !taken {
			break
		}
	}

	stack := s.newStack(s.lastStackID, s)
	s.stacks = append(s.stacks, stack)

	if s.metrics != nil {
		s.metrics.StacksCreated.Inc()
		s.metrics.SetStacks(len(s.stacks))
	}
	s.logger.Debug("Stack created",
		zap.Int("stack", s.lastStackID),
		zap.Int("relative_to", relativeID),
		zap.Int("position", position),
		zap.Float64("weight", weight),
	)
	s.publish(Event{
		Type:    EventStackCreated,
		StackID: s.lastStackID,
		Detail:  fmt.Sprintf("relative=%d position=%d weight=%.2f", relativeID, position, weight),
	})
	return s.lastStackID
}

// StackLocked finds a stack by id, scanning from the top of the z-order.
func (s *Supervisor) StackLocked(stackID int) (Stack, bool) {
	for i := len(s.stacks) - 1; i >= 0; i-- {
		if st := s.stacks[i]; st.ID() == stackID {
			return st, true
		}
	}
	return nil, false
}

// StacksLocked returns the stacks in registry order.
func (s *Supervisor) StacksLocked() []Stack {
	out := make([]Stack, len(s.stacks))
	copy(out, s.stacks)
	return out
}

// AnyTaskForIDLocked finds a task in any stack, topmost stack first.
func (s *Supervisor) AnyTaskForIDLocked(taskID int) *types.Task {
	for i := len(s.stacks) - 1; i >= 0; i-- {
		if task := s.stacks[i].TaskForID(taskID); task != nil {
			return task
		}
	}
	return nil
}

// MoveTaskToStackLocked hands a task to another stack. An unknown stack is
// logged and ignored.
func (s *Supervisor) MoveTaskToStackLocked(taskID, stackID int, toTop bool) {
	stack, ok := s.StackLocked(stackID)
	if !ok {
		s.logger.Warn("moveTaskToStack: no stack for id", zap.Int("stack", stackID), zap.Int("task", taskID))
		if s.metrics != nil {
			s.metrics.RecordTaskMove("no_stack")
		}
		return
	}

	stack.MoveTask(taskID, toTop)

	if s.metrics != nil {
		s.metrics.RecordTaskMove("moved")
	}
	s.publish(Event{Type: EventTaskMoved, StackID: stackID, TaskID: taskID})
}

// FocusedStackLocked returns the focused stack.
func (s *Supervisor) FocusedStackLocked() Stack { return s.focused }

// SetFocusedStackLocked focuses a stack. Focusing home routes resume to the
// home stack only; focusing any other stack routes it to the non-home stacks.
func (s *Supervisor) SetFocusedStackLocked(stackID int) bool {
	stack, ok := s.StackLocked(stackID)
	if !ok {
		s.logger.Warn("setFocusedStack: no stack for id", zap.Int("stack", stackID))
		return false
	}
	s.focused = stack
	s.homeOnTop = stack == s.home
	s.publish(Event{Type: EventStackFocused, StackID: stackID})
	return true
}

package supervisor

import (
	"math"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/AgentOS/supervisor/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/supervisor/internal/shared/types"
)

func newTestSupervisor(t *testing.T, opts ...Option) (*Supervisor, *fakeFleet) {
	t.Helper()
	fleet := newFakeFleet()
	s := New(fleet.factory, opts...)
	s.Lock()
	require.NoError(t, s.InitLocked())
	s.Unlock()
	return s, fleet
}

type mockWindowManager struct {
	mock.Mock
}

func (m *mockWindowManager) DismissKeyguard() { m.Called() }

type recordingSink struct {
	events []Event
}

func (r *recordingSink) Publish(e Event) { r.events = append(r.events, e) }

func (r *recordingSink) kinds() []EventType {
	out := make([]EventType, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

func TestInit(t *testing.T) {
	s, fleet := newTestSupervisor(t)
	s.Lock()
	defer s.Unlock()

	home := s.HomeStack()
	require.NotNil(t, home)
	assert.Equal(t, HomeStackID, home.ID())
	assert.True(t, s.IsMainStack(home))
	assert.Same(t, home, s.FocusedStackLocked())
	assert.Len(t, s.StacksLocked(), 1)
	assert.Len(t, fleet.stacks, 1)
	assert.True(t, s.HomeOnTopLocked())
}

func TestInitTwice(t *testing.T) {
	s, _ := newTestSupervisor(t)
	s.Lock()
	defer s.Unlock()

	assert.ErrorIs(t, s.InitLocked(), ErrAlreadyInitialized)
	assert.Len(t, s.StacksLocked(), 1)
}

func TestCreateStackIDs(t *testing.T) {
	s, _ := newTestSupervisor(t)
	s.Lock()
	defer s.Unlock()

	seen := map[int]bool{}
	for i := 0; i < 3; i++ {
		stackID := s.CreateStackLocked(HomeStackID, i, 1)
		assert.NotEqual(t, HomeStackID, stackID)
		assert.Positive(t, stackID)
		assert.False(t, seen[stackID], "duplicate stack id %d", stackID)
		seen[stackID] = true
	}
	assert.Len(t, s.StacksLocked(), 4)
}

func TestCreateStackWrapsPastHome(t *testing.T) {
	s, _ := newTestSupervisor(t)
	s.Lock()
	defer s.Unlock()

	first := s.CreateStackLocked(HomeStackID, 0, 1)
	require.Equal(t, 1, first)

	s.lastStackID = math.MaxInt
	next := s.CreateStackLocked(HomeStackID, 0, 1)

	assert.Equal(t, 2, next, "wrap skips home and the id already in use")
}

func TestStackLookup(t *testing.T) {
	s, _ := newTestSupervisor(t)
	s.Lock()
	defer s.Unlock()

	stackID := s.CreateStackLocked(HomeStackID, 0, 1)

	st, ok := s.StackLocked(stackID)
	require.True(t, ok)
	assert.Equal(t, stackID, st.ID())

	_, ok = s.StackLocked(99)
	assert.False(t, ok)
}

func TestStacksLockedReturnsCopy(t *testing.T) {
	s, _ := newTestSupervisor(t)
	s.Lock()
	defer s.Unlock()

	stacks := s.StacksLocked()
	stacks[0] = nil

	assert.NotNil(t, s.StacksLocked()[0])
}

func TestNextTaskIDSkipsLiveTasks(t *testing.T) {
	s, fleet := newTestSupervisor(t)
	s.Lock()
	defer s.Unlock()

	fleet.stacks[HomeStackID].tasks = []*types.Task{{ID: 1}, {ID: 2}}

	assert.Equal(t, 3, s.NextTaskIDLocked())
	assert.Equal(t, 4, s.NextTaskIDLocked())
	assert.Equal(t, 4, s.CurrentTaskIDLocked())
}

func TestNextTaskIDWraps(t *testing.T) {
	s, fleet := newTestSupervisor(t)
	s.Lock()
	defer s.Unlock()

	other := s.CreateStackLocked(HomeStackID, 0, 1)
	fleet.stacks[other].tasks = []*types.Task{{ID: 1, StackID: other}}

	s.SetTaskIDCounterLocked(math.MaxInt)
	assert.Equal(t, 2, s.NextTaskIDLocked())

	s.SetTaskIDCounterLocked(-5)
	assert.Equal(t, 2, s.NextTaskIDLocked())
}

func TestMoveTaskToStack(t *testing.T) {
	s, fleet := newTestSupervisor(t)
	s.Lock()
	defer s.Unlock()

	task := &types.Task{ID: 7, StackID: HomeStackID}
	fleet.stacks[HomeStackID].tasks = []*types.Task{task}
	target := s.CreateStackLocked(HomeStackID, 0, 1)

	s.MoveTaskToStackLocked(7, target, true)

	found := s.AnyTaskForIDLocked(7)
	require.NotNil(t, found)
	assert.Equal(t, target, found.StackID)
	assert.Empty(t, fleet.stacks[HomeStackID].tasks)
}

func TestMoveTaskToMissingStack(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := monitoring.NewMetrics(reg)
	s, fleet := newTestSupervisor(t, WithMetrics(metrics))
	s.Lock()
	defer s.Unlock()

	task := &types.Task{ID: 7, StackID: HomeStackID}
	fleet.stacks[HomeStackID].tasks = []*types.Task{task}

	s.MoveTaskToStackLocked(7, 42, true)

	assert.Equal(t, HomeStackID, task.StackID)
	assert.Empty(t, fleet.log.calls)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.TaskMoves.WithLabelValues("no_stack")))
}

func TestSetFocusedStack(t *testing.T) {
	s, _ := newTestSupervisor(t)
	s.Lock()
	defer s.Unlock()

	other := s.CreateStackLocked(HomeStackID, 0, 1)

	require.True(t, s.SetFocusedStackLocked(other))
	assert.Equal(t, other, s.FocusedStackLocked().ID())
	assert.False(t, s.HomeOnTopLocked())

	require.True(t, s.SetFocusedStackLocked(HomeStackID))
	assert.True(t, s.HomeOnTopLocked())

	assert.False(t, s.SetFocusedStackLocked(99))
}

func TestDismissKeyguardLatch(t *testing.T) {
	wm := &mockWindowManager{}
	wm.On("DismissKeyguard").Once()

	s, _ := newTestSupervisor(t, WithWindowManager(wm))
	s.Lock()
	defer s.Unlock()

	s.DismissKeyguardLocked()
	wm.AssertNotCalled(t, "DismissKeyguard")

	s.SetDismissKeyguardLocked(true)
	s.DismissKeyguardLocked()
	s.DismissKeyguardLocked()

	wm.AssertNumberOfCalls(t, "DismissKeyguard", 1)
	assert.False(t, s.StatsLocked().DismissKeyguard)
}

func TestStatsAndSummaries(t *testing.T) {
	s, fleet := newTestSupervisor(t)
	s.Lock()
	defer s.Unlock()

	other := s.CreateStackLocked(HomeStackID, 0, 1)
	fleet.stacks[other].tasks = []*types.Task{{ID: 3, Activities: []*types.Activity{{}, {}}}}
	fleet.stacks[other].resumed = &types.Activity{ShortName: "a/.Main", TaskID: 3}

	stats := s.StatsLocked()
	assert.Equal(t, 2, stats.Stacks)
	assert.Equal(t, 1, stats.Tasks)
	assert.Equal(t, HomeStackID, stats.FocusedStackID)

	sums := s.SummariesLocked()
	require.Len(t, sums, 2)
	assert.True(t, sums[0].Home)
	assert.True(t, sums[0].Main)
	assert.Equal(t, 2, sums[1].Activities)
	assert.Contains(t, sums[1].Resumed, "a/.Main")
}

func TestEventsPublished(t *testing.T) {
	sink := &recordingSink{}
	s, _ := newTestSupervisor(t, WithEvents(sink))
	s.Lock()
	defer s.Unlock()

	stackID := s.CreateStackLocked(HomeStackID, 0, 1)
	s.SetFocusedStackLocked(stackID)
	s.ScheduleIdleLocked()

	assert.Equal(t, []EventType{EventStackCreated, EventStackFocused, EventFanOut}, sink.kinds())
	for _, e := range sink.events {
		assert.NotEmpty(t, e.ID)
		assert.False(t, e.At.IsZero())
	}
	assert.Equal(t, "schedule_idle", sink.events[2].Operation)
}

func TestStackMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := monitoring.NewMetrics(reg)
	s, _ := newTestSupervisor(t, WithMetrics(metrics))
	s.Lock()
	defer s.Unlock()

	s.CreateStackLocked(HomeStackID, 0, 1)
	s.CreateStackLocked(HomeStackID, 0, 1)

	assert.Equal(t, 3.0, testutil.ToFloat64(metrics.Stacks))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.StacksCreated))
}

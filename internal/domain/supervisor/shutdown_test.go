package supervisor

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/GriffinCanCode/AgentOS/supervisor/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/supervisor/internal/shared/types"
)

func TestShutdownTimesOutPerStack(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := monitoring.NewMetrics(reg)
	s, fleet := threeStacks(t, WithMetrics(metrics))
	s.Lock()
	defer s.Unlock()

	// A never lets go of its resumed activity.
	fleet.stacks[1].resumed = &types.Activity{ShortName: "stuck"}
	// B stops as soon as it is asked.
	fleet.stacks[2].resumed = &types.Activity{ShortName: "polite"}
	fleet.stacks[2].onStopIfSleeping = func(f *fakeStack) { f.resumed = nil }

	start := time.Now()
	timedOut := s.ShutdownLocked(50 * time.Millisecond)
	elapsed := time.Since(start)

	assert.True(t, timedOut)
	assert.GreaterOrEqual(t, elapsed, 50*time.Millisecond)
	assert.Less(t, elapsed, 2*time.Second)
	assert.Zero(t, fleet.log.count("stop_if_sleeping", 0), "home had nothing resumed")
	assert.Equal(t, 1, fleet.log.count("stop_if_sleeping", 1))
	assert.Equal(t, 1, fleet.log.count("stop_if_sleeping", 2))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ShutdownTimeouts))
	assert.True(t, s.IsSleepingOrShuttingDownLocked())
}

func TestShutdownWindowsAreNotCumulative(t *testing.T) {
	s, fleet := threeStacks(t)
	s.Lock()
	defer s.Unlock()

	fleet.stacks[1].resumed = &types.Activity{}
	fleet.stacks[2].resumed = &types.Activity{}

	start := time.Now()
	assert.True(t, s.ShutdownLocked(30*time.Millisecond))
	assert.GreaterOrEqual(t, time.Since(start), 60*time.Millisecond)
}

func TestShutdownWokenByBroadcast(t *testing.T) {
	s, fleet := threeStacks(t)
	s.Lock()
	defer s.Unlock()

	a := fleet.stacks[1]
	a.resumed = &types.Activity{}
	a.onStopIfSleeping = func(f *fakeStack) {
		f.pausing = f.resumed
		f.resumed = nil
	}

	go func() {
		time.Sleep(20 * time.Millisecond)
		s.Lock()
		a.pausing = nil
		s.Broadcast()
		s.Unlock()
	}()

	start := time.Now()
	timedOut := s.ShutdownLocked(5 * time.Second)

	assert.False(t, timedOut)
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.Nil(t, a.pausing)
}

func TestShutdownNothingResumed(t *testing.T) {
	s, fleet := threeStacks(t)
	s.Lock()
	defer s.Unlock()

	assert.False(t, s.ShutdownLocked(time.Second))
	assert.Empty(t, fleet.log.calls)
}

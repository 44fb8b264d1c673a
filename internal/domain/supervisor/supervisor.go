package supervisor

import (
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/supervisor/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/supervisor/internal/shared/types"
)

// DefaultDumpTimeout bounds each live dump requested from a hosting process.
const DefaultDumpTimeout = 2000 * time.Millisecond

var (
	ErrAlreadyInitialized = errors.New("supervisor already initialized")
	ErrNotInitialized     = errors.New("supervisor not initialized")
	ErrStackNotFound      = errors.New("stack not found")
)

// Supervisor coordinates lifecycle transitions across an ordered collection
// of stacks.
//
// All state is guarded by one mutex the owning service locks through Lock
// and Unlock. Methods whose names end in Locked require it held on entry and
// must not be called from goroutines that do not hold it. ShutdownLocked
// waits on a condition bound to the same mutex; whoever changes a stack's
// resumed or pausing activity while holding the lock wakes it with Broadcast.
type Supervisor struct {
	mu   sync.Mutex
	cond *sync.Cond

	newStack    StackFactory
	wm          WindowManager
	dumper      ActivityDumper
	dumpTimeout time.Duration
	logger      *zap.Logger
	metrics     *monitoring.Metrics
	events      EventSink

	initialized bool

	// stacks is in insertion order, which is z-order for fan-out; home is
	// always stacks[0].
	stacks  []Stack
	home    Stack
	main    Stack
	focused Stack

	lastStackID int
	curTaskID   int

	homeOnTop                     bool
	dismissKeyguardOnNextActivity bool
	sleeping                      bool
	shuttingDown                  bool
}

// Option configures a Supervisor.
type Option func(*Supervisor)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Supervisor) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics adds metrics tracking.
func WithMetrics(metrics *monitoring.Metrics) Option {
	return func(s *Supervisor) { s.metrics = metrics }
}

// WithEvents publishes lifecycle events to sink.
func WithEvents(sink EventSink) Option {
	return func(s *Supervisor) { s.events = sink }
}

// WithWindowManager sets the receiver of keyguard dismissals.
func WithWindowManager(wm WindowManager) Option {
	return func(s *Supervisor) { s.wm = wm }
}

// WithDumper enables live activity dumps in client diagnostics.
func WithDumper(d ActivityDumper) Option {
	return func(s *Supervisor) { s.dumper = d }
}

// WithDumpTimeout overrides the per-activity live dump bound.
func WithDumpTimeout(d time.Duration) Option {
	return func(s *Supervisor) {
		if d > 0 {
			s.dumpTimeout = d
		}
	}
}

// New creates a supervisor. Call InitLocked before anything else.
func New(factory StackFactory, opts ...Option) *Supervisor {
	s := &Supervisor{
		newStack:    factory,
		dumpTimeout: DefaultDumpTimeout,
		logger:      zap.NewNop(),
		homeOnTop:   true,
	}
	s.cond = sync.NewCond(&s.mu)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Lock acquires the supervisor lock.
func (s *Supervisor) Lock() { s.mu.Lock() }

// Unlock releases the supervisor lock.
func (s *Supervisor) Unlock() { s.mu.Unlock() }

// Broadcast wakes a shutdown blocked waiting for stacks to go quiescent.
// Call it after changing a stack's resumed or pausing activity.
func (s *Supervisor) Broadcast() { s.cond.Broadcast() }

// InitLocked creates the home stack and makes it home, main and focused.
func (s *Supervisor) InitLocked() error {
	if s.initialized {
		s.logger.Error("Supervisor initialized twice")
		return ErrAlreadyInitialized
	}
	s.initialized = true

	s.home = s.newStack(HomeStackID, s)
	s.SetMainStackLocked(s.home)
	s.focused = s.home
	s.stacks = append(s.stacks, s.home)

	if s.metrics != nil {
		s.metrics.SetStacks(len(s.stacks))
	}
	s.logger.Info("Supervisor initialized", zap.Int("home_stack", HomeStackID))
	return nil
}

// HomeStack returns the home stack, nil before InitLocked.
func (s *Supervisor) HomeStack() Stack { return s.home }

// IsMainStack reports whether stack is the main stack.
func (s *Supervisor) IsMainStack(stack Stack) bool {
	return stack != nil && stack == s.main
}

// SetMainStackLocked designates the main stack.
func (s *Supervisor) SetMainStackLocked(stack Stack) {
	s.main = stack
}

// SetDismissKeyguardLocked arms or disarms the dismiss-keyguard latch.
func (s *Supervisor) SetDismissKeyguardLocked(dismiss bool) {
	s.dismissKeyguardOnNextActivity = dismiss
}

// DismissKeyguardLocked consumes the latch. Stacks call it when an activity
// becomes visible; only the first call after arming reaches the window manager.
func (s *Supervisor) DismissKeyguardLocked() {
	if !s.dismissKeyguardOnNextActivity {
		return
	}
	s.dismissKeyguardOnNextActivity = false
	if s.wm != nil {
		s.wm.DismissKeyguard()
	}
}

// HomeOnTopLocked reports whether resume is routed to the home stack only.
func (s *Supervisor) HomeOnTopLocked() bool { return s.homeOnTop }

// SetHomeOnTopLocked sets the resume routing flag.
func (s *Supervisor) SetHomeOnTopLocked(onTop bool) { s.homeOnTop = onTop }

// IsSleepingOrShuttingDownLocked is what stacks consult before stopping.
func (s *Supervisor) IsSleepingOrShuttingDownLocked() bool {
	return s.sleeping || s.shuttingDown
}

// StatsLocked snapshots supervisor state.
func (s *Supervisor) StatsLocked() types.Stats {
	tasks := 0
	for _, st := range s.stacks {
		tasks += len(st.Tasks())
	}
	focused := HomeStackID
	if s.focused != nil {
		focused = s.focused.ID()
	}
	return types.Stats{
		Stacks:          len(s.stacks),
		Tasks:           tasks,
		CurrentTaskID:   s.curTaskID,
		FocusedStackID:  focused,
		HomeOnTop:       s.homeOnTop,
		DismissKeyguard: s.dismissKeyguardOnNextActivity,
		Sleeping:        s.sleeping,
		ShuttingDown:    s.shuttingDown,
	}
}

// SummariesLocked describes every stack in registry order.
func (s *Supervisor) SummariesLocked() []types.StackSummary {
	out := make([]types.StackSummary, 0, len(s.stacks))
	for _, st := range s.stacks {
		sum := types.StackSummary{
			ID:           st.ID(),
			Home:         st == s.home,
			Main:         st == s.main,
			Focused:      st == s.focused,
			Tasks:        len(st.Tasks()),
			SleepTimeout: st.SleepTimeout(),
		}
		for _, t := range st.Tasks() {
			sum.Activities += len(t.Activities)
		}
		if r := st.ResumedActivity(); r != nil {
			sum.Resumed = r.String()
		}
		if r := st.PausingActivity(); r != nil {
			sum.Pausing = r.String()
		}
		if r := st.LastPausedActivity(); r != nil {
			sum.LastPaused = r.String()
		}
		out = append(out, sum)
	}
	return out
}

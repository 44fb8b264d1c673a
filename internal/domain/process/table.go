package process

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/GriffinCanCode/AgentOS/supervisor/internal/shared/types"
)

// ErrProcessNotFound is returned for unknown pids.
var ErrProcessNotFound = errors.New("process not found")

// Table tracks live hosting processes by pid.
type Table struct {
	mu      sync.RWMutex
	procs   map[int]*types.Process // Protected by mu
	nextPID int                    // Protected by mu
}

// NewTable creates an empty table. Pids start at firstPID.
func NewTable(firstPID int) *Table {
	if firstPID <= 0 {
		firstPID = 1
	}
	return &Table{
		procs:   make(map[int]*types.Process),
		nextPID: firstPID,
	}
}

// Register records a new live process and assigns its pid.
func (t *Table) Register(name string, uid int, endpoint string, persistent bool) *types.Process {
	t.mu.Lock()
	defer t.mu.Unlock()

	p := &types.Process{
		PID:        t.nextPID,
		Name:       name,
		UID:        uid,
		Persistent: persistent,
		Endpoint:   endpoint,
		Alive:      true,
		StartedAt:  time.Now(),
	}
	t.procs[p.PID] = p
	t.nextPID++
	return p
}

// Get returns the process with pid.
func (t *Table) Get(pid int) (*types.Process, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	p, ok := t.procs[pid]
	if !ok {
		return nil, ErrProcessNotFound
	}
	return p, nil
}

// MarkDead flags the process as gone and drops it from the table. The
// returned record stays valid for cleanup.
func (t *Table) MarkDead(pid int) (*types.Process, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	p, ok := t.procs[pid]
	if !ok {
		return nil, ErrProcessNotFound
	}
	p.Alive = false
	delete(t.procs, pid)
	return p, nil
}

// List returns copies of every process ordered by pid.
func (t *Table) List() []types.Process {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]types.Process, 0, len(t.procs))
	for _, p := range t.procs {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PID < out[j].PID })
	return out
}

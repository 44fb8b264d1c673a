package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/supervisor/internal/domain/process"
	"github.com/GriffinCanCode/AgentOS/supervisor/internal/domain/stack"
	"github.com/GriffinCanCode/AgentOS/supervisor/internal/domain/supervisor"
	"github.com/GriffinCanCode/AgentOS/supervisor/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/AgentOS/supervisor/internal/shared/id"
	"github.com/GriffinCanCode/AgentOS/supervisor/internal/shared/types"
	"github.com/GriffinCanCode/AgentOS/supervisor/internal/shared/utils"
)

// ProcessClient is the per-process state of the live dump client.
type ProcessClient interface {
	// Forget drops the state of a process that is gone.
	Forget(pid int)
	BreakerStates() map[string]resilience.State
}

// Handlers contains all admin HTTP handlers. Every handler that touches the
// supervisor holds its lock for the whole call.
type Handlers struct {
	sup             *supervisor.Supervisor
	procs           *process.Table
	clients         ProcessClient
	shutdownTimeout time.Duration
	logger          *zap.Logger
	startedAt       time.Time
}

// NewHandlers creates a new handler set. clients may be nil.
func NewHandlers(
	sup *supervisor.Supervisor,
	procs *process.Table,
	clients ProcessClient,
	shutdownTimeout time.Duration,
	logger *zap.Logger,
) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		sup:             sup,
		procs:           procs,
		clients:         clients,
		shutdownTimeout: shutdownTimeout,
		logger:          logger,
		startedAt:       time.Now(),
	}
}

// Health handles the health check
func (h *Handlers) Health(c *gin.Context) {
	h.sup.Lock()
	stats := h.sup.StatsLocked()
	h.sup.Unlock()

	breakers := map[string]string{}
	if h.clients != nil {
		for pid, state := range h.clients.BreakerStates() {
			breakers[pid] = state.String()
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":        "healthy",
		"uptime":        time.Since(h.startedAt).Round(time.Second).String(),
		"supervisor":    stats,
		"processes":     len(h.procs.List()),
		"dump_breakers": breakers,
	})
}

// ListStacks describes every stack in registry order
func (h *Handlers) ListStacks(c *gin.Context) {
	h.sup.Lock()
	stacks := h.sup.SummariesLocked()
	stats := h.sup.StatsLocked()
	h.sup.Unlock()

	c.JSON(http.StatusOK, gin.H{
		"stacks": stacks,
		"stats":  stats,
	})
}

// CreateStackRequest describes where a new stack goes.
type CreateStackRequest struct {
	RelativeID int     `json:"relative_id"`
	Position   int     `json:"position"`
	Weight     float64 `json:"weight"`
}

// CreateStack creates a stack
func (h *Handlers) CreateStack(c *gin.Context) {
	req := CreateStackRequest{Weight: 1}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	if req.Weight < 0 || req.Weight > 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "weight must be within [0,1]"})
		return
	}

	h.sup.Lock()
	stackID := h.sup.CreateStackLocked(req.RelativeID, req.Position, req.Weight)
	h.sup.Unlock()

	c.JSON(http.StatusCreated, gin.H{"stack_id": stackID})
}

// FocusStack focuses a stack
func (h *Handlers) FocusStack(c *gin.Context) {
	stackID, ok := intParam(c, "id")
	if !ok {
		return
	}

	h.sup.Lock()
	found := h.sup.SetFocusedStackLocked(stackID)
	h.sup.Unlock()

	if !found {
		respondError(c, supervisor.ErrStackNotFound)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "stack_id": stackID})
}

// StartActivity launches an activity on a stack. Launching on the home stack
// also puts home on top.
func (h *Handlers) StartActivity(c *gin.Context) {
	stackID, ok := intParam(c, "id")
	if !ok {
		return
	}
	var req types.StartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := utils.ValidateStartRequest(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.PID != 0 {
		proc, err := h.procs.Get(req.PID)
		if err != nil {
			respondError(c, err)
			return
		}
		req.Process = proc
	}

	h.sup.Lock()
	var (
		r   *types.Activity
		err error
	)
	if stackID == supervisor.HomeStackID {
		r, err = h.sup.StartHomeActivityLocked(req)
	} else {
		r, err = h.sup.StartActivityLocked(stackID, req)
	}
	h.sup.Unlock()

	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"activity": r})
}

// ActivityPaused reports a completed pause
func (h *Handlers) ActivityPaused(c *gin.Context) {
	h.activityCallback(c, h.sup.ActivityPausedLocked)
}

// ActivityStopped reports a completed stop
func (h *Handlers) ActivityStopped(c *gin.Context) {
	h.activityCallback(c, h.sup.ActivityStoppedLocked)
}

func (h *Handlers) activityCallback(c *gin.Context, fn func(id.ActivityToken) bool) {
	token := id.ActivityToken(c.Param("token"))
	if !id.IsActivityToken(string(token)) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid activity token"})
		return
	}

	h.sup.Lock()
	found := fn(token)
	h.sup.Unlock()

	if !found {
		respondError(c, ErrActivityNotFound)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// MoveTaskRequest names the destination of a task move.
type MoveTaskRequest struct {
	StackID int  `json:"stack_id"`
	ToTop   bool `json:"to_top"`
}

// MoveTask moves a task to another stack. An unknown stack is a no-op and
// reported as 404.
func (h *Handlers) MoveTask(c *gin.Context) {
	taskID, ok := intParam(c, "id")
	if !ok {
		return
	}
	var req MoveTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.sup.Lock()
	_, exists := h.sup.StackLocked(req.StackID)
	h.sup.MoveTaskToStackLocked(taskID, req.StackID, req.ToTop)
	h.sup.Unlock()

	if !exists {
		respondError(c, supervisor.ErrStackNotFound)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "task_id": taskID, "stack_id": req.StackID})
}

// TaskToFrontRequest carries move-to-front hints.
type TaskToFrontRequest struct {
	Flags   int           `json:"flags"`
	Options types.Options `json:"options"`
}

// TaskToFront brings a task to the front of whichever stack owns it
func (h *Handlers) TaskToFront(c *gin.Context) {
	taskID, ok := intParam(c, "id")
	if !ok {
		return
	}
	var req TaskToFrontRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	h.sup.Lock()
	found := h.sup.AnyTaskForIDLocked(taskID) != nil
	if found {
		h.sup.FindTaskToMoveToFrontLocked(taskID, req.Flags, req.Options)
	}
	h.sup.Unlock()

	if !found {
		respondError(c, ErrTaskNotFound)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "task_id": taskID})
}

func intParam(c *gin.Context, name string) (int, bool) {
	v, err := strconv.Atoi(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return v, true
}

var (
	ErrActivityNotFound = errors.New("activity not found")
	ErrTaskNotFound     = errors.New("task not found")
)

func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, supervisor.ErrStackNotFound),
		errors.Is(err, process.ErrProcessNotFound),
		errors.Is(err, ErrActivityNotFound),
		errors.Is(err, ErrTaskNotFound):
		status = http.StatusNotFound
	case errors.Is(err, stack.ErrInvalidRequest):
		status = http.StatusBadRequest
	case errors.Is(err, supervisor.ErrNotInitialized):
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/supervisor/internal/shared/types"
	"github.com/GriffinCanCode/AgentOS/supervisor/internal/shared/utils"
)

// RegisterProcessRequest describes a process joining the supervisor.
type RegisterProcessRequest struct {
	Name       string `json:"name" binding:"required"`
	UID        int    `json:"uid"`
	Endpoint   string `json:"endpoint"`
	Persistent bool   `json:"persistent"`
}

// RegisterProcess adds a hosting process to the table
func (h *Handlers) RegisterProcess(c *gin.Context) {
	var req RegisterProcessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := utils.ValidateEndpoint(req.Endpoint); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	proc := h.procs.Register(req.Name, req.UID, req.Endpoint, req.Persistent)
	h.logger.Info("Process registered",
		zap.Int("pid", proc.PID),
		zap.String("name", proc.Name),
		zap.Bool("dumpable", proc.Endpoint != ""),
	)
	c.JSON(http.StatusCreated, gin.H{"process": proc})
}

// ListProcesses lists known processes ordered by pid
func (h *Handlers) ListProcesses(c *gin.Context) {
	procs := h.procs.List()
	c.JSON(http.StatusOK, gin.H{
		"processes": procs,
		"count":     len(procs),
	})
}

// ProcessDied handles the death of a process. restarting=true keeps stacks
// from resuming because the process is about to come back.
func (h *Handlers) ProcessDied(c *gin.Context) {
	pid, ok := intParam(c, "pid")
	if !ok {
		return
	}
	restarting := c.Query("restarting") == "true"

	h.sup.Lock()
	proc, err := h.procs.MarkDead(pid)
	if err == nil {
		h.sup.HandleAppDiedLocked(proc, restarting)
	}
	h.sup.Unlock()

	if err != nil {
		respondError(c, err)
		return
	}
	if h.clients != nil {
		h.clients.Forget(pid)
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "pid": pid, "restarting": restarting})
}

// ProcessCrashed handles a crash of a process that is still alive
func (h *Handlers) ProcessCrashed(c *gin.Context) {
	h.withProcess(c, func(proc *types.Process) {
		h.sup.HandleAppCrashLocked(proc)
	})
}

// FinishTop finishes the top running activity hosted by a process
func (h *Handlers) FinishTop(c *gin.Context) {
	h.withProcess(c, func(proc *types.Process) {
		h.sup.FinishTopRunningActivityLocked(proc)
	})
}

// DestroyActivities schedules destruction of a process's hidden activities
func (h *Handlers) DestroyActivities(c *gin.Context) {
	reason := c.DefaultQuery("reason", "admin")
	h.withProcess(c, func(proc *types.Process) {
		h.sup.ScheduleDestroyAllActivitiesLocked(proc, reason)
	})
}

func (h *Handlers) withProcess(c *gin.Context, fn func(*types.Process)) {
	pid, ok := intParam(c, "pid")
	if !ok {
		return
	}
	proc, err := h.procs.Get(pid)
	if err != nil {
		respondError(c, err)
		return
	}

	h.sup.Lock()
	fn(proc)
	h.sup.Unlock()

	c.JSON(http.StatusOK, gin.H{"success": true, "pid": pid})
}

// ForceStopRequest narrows a force stop.
type ForceStopRequest struct {
	// DryRun reports whether anything would stop without touching it.
	DryRun         bool `json:"dry_run"`
	EvenPersistent bool `json:"even_persistent"`
	UserID         *int `json:"user_id"`
}

// ForceStopPackage stops every activity of a package
func (h *Handlers) ForceStopPackage(c *gin.Context) {
	var req ForceStopRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	userID := types.UserAll
	if req.UserID != nil {
		userID = *req.UserID
	}
	name := c.Param("name")
	if err := utils.ValidatePackageName(name); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.sup.Lock()
	matched := h.sup.ForceStopPackageLocked(name, !req.DryRun, req.EvenPersistent, userID)
	h.sup.Unlock()

	c.JSON(http.StatusOK, gin.H{
		"package": name,
		"matched": matched,
		"dry_run": req.DryRun,
	})
}

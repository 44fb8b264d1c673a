package http

import (
	"bytes"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/gzip"

	"github.com/GriffinCanCode/AgentOS/supervisor/internal/domain/supervisor"
	"github.com/GriffinCanCode/AgentOS/supervisor/internal/shared/types"
)

// CloseSystemDialogs finishes transient activities on every stack
func (h *Handlers) CloseSystemDialogs(c *gin.Context) {
	h.locked(c, h.sup.CloseSystemDialogsLocked)
}

// Idle schedules an idle pass on every stack
func (h *Handlers) Idle(c *gin.Context) {
	h.locked(c, h.sup.ScheduleIdleLocked)
}

// Sleep puts every stack to sleep
func (h *Handlers) Sleep(c *gin.Context) {
	h.locked(c, h.sup.GoingToSleepLocked)
}

// Wake brings every stack out of sleep and resumes the tops
func (h *Handlers) Wake(c *gin.Context) {
	h.locked(c, h.sup.ComeOutOfSleepIfNeededLocked)
}

// ResumeTop resumes the top activity of each stack
func (h *Handlers) ResumeTop(c *gin.Context) {
	h.locked(c, h.sup.ResumeTopActivityLocked)
}

func (h *Handlers) locked(c *gin.Context, fn func()) {
	h.sup.Lock()
	fn()
	h.sup.Unlock()
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ConfigurationRequest names the configuration fields that changed.
type ConfigurationRequest struct {
	Changes []string `json:"changes"`
}

// UpdateConfiguration applies a configuration change to every stack
func (h *Handlers) UpdateConfiguration(c *gin.Context) {
	var req ConfigurationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	changes := types.ParseConfigChanges(req.Changes)

	h.sup.Lock()
	kept := h.sup.UpdateConfigurationLocked(changes, nil)
	h.sup.Unlock()

	c.JSON(http.StatusOK, gin.H{
		"changes": changes.String(),
		"kept":    kept,
	})
}

// SwitchUser brings the user's tasks to the top of each stack
func (h *Handlers) SwitchUser(c *gin.Context) {
	userID, ok := intParam(c, "id")
	if !ok {
		return
	}
	uss := &types.UserState{UserID: userID, State: "running", StartedAt: time.Now()}

	h.sup.Lock()
	haveActivities := h.sup.SwitchUserLocked(userID, uss)
	h.sup.Unlock()

	c.JSON(http.StatusOK, gin.H{"user_id": userID, "has_activities": haveActivities})
}

// DismissKeyguardLatch arms or clears the dismiss-on-next-activity latch
func (h *Handlers) DismissKeyguardLatch(c *gin.Context) {
	dismiss := c.DefaultQuery("dismiss", "true") == "true"

	h.sup.Lock()
	h.sup.SetDismissKeyguardLocked(dismiss)
	h.sup.Unlock()

	c.JSON(http.StatusOK, gin.H{"dismiss": dismiss})
}

// Shutdown pauses every stack and waits for them to go quiescent. The
// timeout query overrides the configured per-stack window.
func (h *Handlers) Shutdown(c *gin.Context) {
	timeout := h.shutdownTimeout
	if raw := c.Query("timeout"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid timeout"})
			return
		}
		timeout = d
	}

	h.sup.Lock()
	timedOut := h.sup.ShutdownLocked(timeout)
	h.sup.Unlock()

	c.JSON(http.StatusOK, gin.H{"timed_out": timedOut})
}

// Dump renders the supervisor state as plain text. Query parameters:
// all=true for the full listing, client=true to include live client dumps,
// package=<name> to filter.
func (h *Handlers) Dump(c *gin.Context) {
	opts := supervisor.DumpOptions{
		All:     boolQuery(c, "all"),
		Client:  boolQuery(c, "client"),
		Package: c.Query("package"),
	}

	var buf bytes.Buffer
	h.sup.Lock()
	h.sup.DumpLocked(&buf, "  ")
	printed := h.sup.DumpActivitiesLocked(c.Request.Context(), &buf, opts)
	h.sup.Unlock()

	c.Header("X-Dump-Printed", strconv.FormatBool(printed))
	if !strings.Contains(c.GetHeader("Accept-Encoding"), "gzip") {
		c.Data(http.StatusOK, "text/plain; charset=utf-8", buf.Bytes())
		return
	}

	var gz bytes.Buffer
	zw := gzip.NewWriter(&gz)
	if _, err := zw.Write(buf.Bytes()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if err := zw.Close(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Header("Content-Encoding", "gzip")
	c.Header("Vary", "Accept-Encoding")
	c.Data(http.StatusOK, "text/plain; charset=utf-8", gz.Bytes())
}

func boolQuery(c *gin.Context, name string) bool {
	v, _ := strconv.ParseBool(c.Query(name))
	return v
}

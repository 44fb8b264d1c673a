package http

import "github.com/gin-gonic/gin"

// Register mounts every admin route on r.
func (h *Handlers) Register(r gin.IRouter) {
	r.GET("/health", h.Health)

	stacks := r.Group("/stacks")
	stacks.GET("", h.ListStacks)
	stacks.POST("", h.CreateStack)
	stacks.POST("/:id/focus", h.FocusStack)
	stacks.POST("/:id/activities", h.StartActivity)
	stacks.POST("/resume", h.ResumeTop)

	r.POST("/activities/:token/paused", h.ActivityPaused)
	r.POST("/activities/:token/stopped", h.ActivityStopped)

	r.POST("/tasks/:id/move", h.MoveTask)
	r.POST("/tasks/:id/front", h.TaskToFront)

	procs := r.Group("/processes")
	procs.GET("", h.ListProcesses)
	procs.POST("", h.RegisterProcess)
	procs.POST("/:pid/died", h.ProcessDied)
	procs.POST("/:pid/crashed", h.ProcessCrashed)
	procs.POST("/:pid/finish-top", h.FinishTop)
	procs.POST("/:pid/destroy", h.DestroyActivities)

	r.POST("/packages/:name/force-stop", h.ForceStopPackage)
	r.POST("/system-dialogs/close", h.CloseSystemDialogs)
	r.POST("/idle", h.Idle)
	r.POST("/power/sleep", h.Sleep)
	r.POST("/power/wake", h.Wake)
	r.POST("/configuration", h.UpdateConfiguration)
	r.POST("/users/:id/switch", h.SwitchUser)
	r.POST("/keyguard/dismiss-latch", h.DismissKeyguardLatch)
	r.POST("/shutdown", h.Shutdown)
	r.GET("/dump", h.Dump)
}

package types

// StackSummary is the per-stack view returned to admin callers.
type StackSummary struct {
	ID           int    `json:"id"`
	Home         bool   `json:"home"`
	Main         bool   `json:"main"`
	Focused      bool   `json:"focused"`
	Tasks        int    `json:"tasks"`
	Activities   int    `json:"activities"`
	Resumed      string `json:"resumed,omitempty"`
	Pausing      string `json:"pausing,omitempty"`
	LastPaused   string `json:"last_paused,omitempty"`
	SleepTimeout bool   `json:"sleep_timeout"`
}

// Stats contains supervisor statistics
type Stats struct {
	Stacks          int  `json:"stacks"`
	Tasks           int  `json:"tasks"`
	CurrentTaskID   int  `json:"current_task_id"`
	FocusedStackID  int  `json:"focused_stack_id"`
	HomeOnTop       bool `json:"home_on_top"`
	DismissKeyguard bool `json:"dismiss_keyguard"`
	Sleeping        bool `json:"sleeping"`
	ShuttingDown    bool `json:"shutting_down"`
}

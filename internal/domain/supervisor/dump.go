package supervisor

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/supervisor/internal/shared/types"
)

// DumpOptions selects what DumpActivitiesLocked prints.
type DumpOptions struct {
	// All prints full records and the per-stack last-paused and sleep state.
	All bool
	// Client asks each reachable hosting process for a live dump.
	Client bool
	// Package, when set, limits listings to activities of that package.
	Package string
}

// DumpLocked prints the supervisor flags.
func (s *Supervisor) DumpLocked(w io.Writer, prefix string) {
	fmt.Fprintf(w, "%smDismissKeyguardOnNextActivity:%t\n", prefix, s.dismissKeyguardOnNextActivity)
}

// DumpActivitiesLocked prints every stack's tasks and history buckets, then
// each stack's pausing and resumed activity. Live dumps that fail are noted
// inline; the report itself always completes.
func (s *Supervisor) DumpActivitiesLocked(ctx context.Context, w io.Writer, opts DumpOptions) bool {
	brief := !opts.All
	n := len(s.stacks)
	for i := 0; i < n; i++ {
		st := s.stacks[i]
		fmt.Fprintf(w, "  Stack #%d:\n", i)

		tasks := st.Tasks()
		for t := len(tasks) - 1; t >= 0; t-- {
			s.dumpHistoryList(ctx, w, tasks[t].Activities, "    ", "Hist", true, brief, opts.Client, opts.Package)
		}

		fmt.Fprintln(w, " ")
		fmt.Fprintln(w, "  Running activities (most recent first):")
		s.dumpHistoryList(ctx, w, st.History(BucketRunning), "  ", "Run", false, brief, false, opts.Package)

		for _, b := range []struct {
			bucket Bucket
			title  string
			label  string
		}{
			{BucketWaitingVisible, "Activities waiting for another to become visible:", "Wait"},
			{BucketStopping, "Activities waiting to stop:", "Stop"},
			{BucketGoingToSleep, "Activities waiting to sleep:", "Sleep"},
			{BucketFinishing, "Activities waiting to finish:", "Fin"},
		} {
			list := st.History(b.bucket)
			if len(list) == 0 {
				continue
			}
			fmt.Fprintln(w, " ")
			fmt.Fprintf(w, "  %s\n", b.title)
			s.dumpHistoryList(ctx, w, list, "  ", b.label, false, brief, false, opts.Package)
		}
	}

	for i := 0; i < n; i++ {
		st := s.stacks[i]
		fmt.Fprintf(w, "  Stack #%d\n", i)
		if r := st.PausingActivity(); r != nil {
			fmt.Fprintf(w, "  mPausingActivity: %s\n", r)
		}
		fmt.Fprintf(w, "  mResumedActivity: %s\n", st.ResumedActivity())
		if opts.All {
			fmt.Fprintf(w, "  mLastPausedActivity: %s\n", st.LastPausedActivity())
			fmt.Fprintf(w, "  mSleepTimeout: %t\n", st.SleepTimeout())
		}
	}

	if opts.All {
		fmt.Fprintln(w, " ")
		fmt.Fprintf(w, "  mCurTaskId: %d\n", s.curTaskID)
	}
	return true
}

// dumpHistoryList prints list most recent first. A task header is printed
// each time the owning task changes. full records are printed when not brief
// and either complete is set or the activity has left the history.
func (s *Supervisor) dumpHistoryList(ctx context.Context, w io.Writer, list []*types.Activity,
	prefix, label string, complete, brief, client bool, pkg string) {
	lastTask := -1
	needNL := false
	inner := prefix + "      "

	for i := len(list) - 1; i >= 0; i-- {
		r := list[i]
		if pkg != "" && pkg != r.PackageName {
			continue
		}
		full := !brief && (complete || !r.InHistory)
		if needNL {
			fmt.Fprintln(w, " ")
			needNL = false
		}

		if r.TaskID != lastTask {
			lastTask = r.TaskID
			task := s.AnyTaskForIDLocked(r.TaskID)
			fmt.Fprintf(w, "%s%s%s\n", prefix, marker(full, "* ", "  "), taskLabel(task, r.TaskID))
			if full && task != nil {
				dumpTask(w, prefix+"  ", task)
			} else if complete && task != nil && task.Affinity != "" {
				fmt.Fprintf(w, "%s  affinity=%s\n", prefix, task.Affinity)
			}
		}

		fmt.Fprintf(w, "%s%s%s #%d: %s\n", prefix, marker(full, "  * ", "    "), label, i, r)
		if full {
			dumpActivity(w, inner, r)
		} else if complete {
			fmt.Fprintf(w, "%s%s\n", inner, r.ShortName)
			if r.Process != nil {
				fmt.Fprintf(w, "%s%s\n", inner, r.Process)
			}
		}

		if client && s.dumper != nil && r.Process.Reachable() {
			s.dumpClient(ctx, w, r, inner)
			needNL = true
		}
	}
}

// dumpClient copies a live dump from the hosting process into w, bounded by
// the dump timeout.
func (s *Supervisor) dumpClient(ctx context.Context, w io.Writer, r *types.Activity, prefix string) {
	ctx, cancel := context.WithTimeout(ctx, s.dumpTimeout)
	defer cancel()

	out, err := s.dumper.DumpActivity(ctx, r.Process, r.Token, prefix, nil)
	if err != nil {
		s.logger.Debug("Live activity dump failed",
			zap.String("activity", r.Token.String()),
			zap.Int("pid", r.Process.PID),
			zap.Error(err),
		)
		if s.metrics != nil {
			s.metrics.RecordClientDump("error")
		}
		fmt.Fprintf(w, "%sFailure while dumping the activity: %v\n", prefix, err)
		return
	}
	if s.metrics != nil {
		s.metrics.RecordClientDump("ok")
	}
	_, _ = w.Write(out)
}

func marker(full bool, yes, no string) string {
	if full {
		return yes
	}
	return no
}

func taskLabel(task *types.Task, taskID int) string {
	if task == nil {
		return fmt.Sprintf("TaskRecord{#%d}", taskID)
	}
	return task.String()
}

func dumpTask(w io.Writer, prefix string, t *types.Task) {
	fmt.Fprintf(w, "%suserId=%d affinity=%s stackId=%d\n", prefix, t.UserID, t.Affinity, t.StackID)
	fmt.Fprintf(w, "%sactivities=%d\n", prefix, len(t.Activities))
}

func dumpActivity(w io.Writer, prefix string, r *types.Activity) {
	fmt.Fprintf(w, "%spackageName=%s shortName=%s userId=%d\n", prefix, r.PackageName, r.ShortName, r.UserID)
	fmt.Fprintf(w, "%sapp=%s\n", prefix, r.Process)
	fmt.Fprintf(w, "%sstate=%s visible=%t finishing=%t inHistory=%t\n", prefix, r.State, r.Visible, r.Finishing, r.InHistory)
	if r.HandledChanges != 0 || r.PendingRelaunch {
		fmt.Fprintf(w, "%shandledChanges=%s pendingRelaunch=%t\n", prefix, r.HandledChanges, r.PendingRelaunch)
	}
	if !r.LaunchedAt.IsZero() {
		fmt.Fprintf(w, "%slaunchedAt=%s\n", prefix, r.LaunchedAt.Format(time.RFC3339))
	}
}

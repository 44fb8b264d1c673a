package http

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/supervisor/internal/domain/process"
	"github.com/GriffinCanCode/AgentOS/supervisor/internal/domain/stack"
	"github.com/GriffinCanCode/AgentOS/supervisor/internal/domain/supervisor"
	"github.com/GriffinCanCode/AgentOS/supervisor/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/AgentOS/supervisor/internal/shared/types"
)

type clientRecorder struct {
	pids   []int
	states map[string]resilience.State
}

func (f *clientRecorder) Forget(pid int) { f.pids = append(f.pids, pid) }

func (f *clientRecorder) BreakerStates() map[string]resilience.State { return f.states }

type fixture struct {
	router *gin.Engine
	sup    *supervisor.Supervisor
	procs  *process.Table
	forget *clientRecorder
}

func setupTestRouter(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	sup := supervisor.New(stack.Factory(zap.NewNop()))
	sup.Lock()
	require.NoError(t, sup.InitLocked())
	sup.Unlock()

	f := &fixture{
		router: gin.New(),
		sup:    sup,
		procs:  process.NewTable(100),
		forget: &clientRecorder{},
	}
	NewHandlers(sup, f.procs, f.forget, 50*time.Millisecond, nil).Register(f.router)
	return f
}

func (f *fixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func (f *fixture) startActivity(t *testing.T, stackID string, req types.StartRequest) types.Activity {
	t.Helper()
	w := f.do(t, http.MethodPost, "/stacks/"+stackID+"/activities", req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var out struct {
		Activity types.Activity `json:"activity"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out.Activity
}

func TestHealth(t *testing.T) {
	f := setupTestRouter(t)

	f.forget.states = map[string]resilience.State{"1001": resilience.StateOpen}

	w := f.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, map[string]any{"1001": "open"}, body["dump_breakers"])
}

func TestCreateAndListStacks(t *testing.T) {
	f := setupTestRouter(t)

	w := f.do(t, http.MethodPost, "/stacks", CreateStackRequest{RelativeID: 0, Weight: 0.5})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.EqualValues(t, 1, decode(t, w)["stack_id"])

	w = f.do(t, http.MethodPost, "/stacks", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.EqualValues(t, 2, decode(t, w)["stack_id"])

	w = f.do(t, http.MethodGet, "/stacks", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["stacks"], 3)

	w = f.do(t, http.MethodPost, "/stacks", CreateStackRequest{Weight: 2})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFocusStack(t *testing.T) {
	f := setupTestRouter(t)
	f.do(t, http.MethodPost, "/stacks", nil)

	tests := []struct {
		name       string
		path       string
		wantStatus int
	}{
		{"known stack", "/stacks/1/focus", http.StatusOK},
		{"unknown stack", "/stacks/9/focus", http.StatusNotFound},
		{"bad id", "/stacks/x/focus", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.do(t, http.MethodPost, tt.path, nil)
			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}

	f.sup.Lock()
	defer f.sup.Unlock()
	assert.Equal(t, 1, f.sup.FocusedStackLocked().ID())
}

func TestStartActivity(t *testing.T) {
	f := setupTestRouter(t)
	f.do(t, http.MethodPost, "/stacks", nil)

	t.Run("home stack puts home on top", func(t *testing.T) {
		r := f.startActivity(t, "0", types.StartRequest{PackageName: "com.launcher", ShortName: "com.launcher/.Home"})
		assert.Equal(t, types.ActivityResumed, r.State)

		f.sup.Lock()
		defer f.sup.Unlock()
		assert.True(t, f.sup.HomeOnTopLocked())
	})

	t.Run("resolves hosting process", func(t *testing.T) {
		proc := f.procs.Register("com.mail", 10001, "", false)
		r := f.startActivity(t, "1", types.StartRequest{PackageName: "com.mail", ShortName: "com.mail/.Inbox", PID: proc.PID})

		f.sup.Lock()
		defer f.sup.Unlock()
		task := f.sup.AnyTaskForIDLocked(r.TaskID)
		require.NotNil(t, task)
		assert.Same(t, proc, task.Activities[0].Process)
	})

	t.Run("unknown process", func(t *testing.T) {
		w := f.do(t, http.MethodPost, "/stacks/1/activities", types.StartRequest{PackageName: "a", ShortName: "a/.B", PID: 999})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("unknown stack", func(t *testing.T) {
		w := f.do(t, http.MethodPost, "/stacks/7/activities", types.StartRequest{PackageName: "a", ShortName: "a/.B"})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("malformed short name", func(t *testing.T) {
		w := f.do(t, http.MethodPost, "/stacks/1/activities", types.StartRequest{PackageName: "com.mail", ShortName: "Inbox"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("missing fields", func(t *testing.T) {
		w := f.do(t, http.MethodPost, "/stacks/1/activities", map[string]string{"package": "a"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestActivityCallbacks(t *testing.T) {
	f := setupTestRouter(t)
	f.do(t, http.MethodPost, "/stacks", nil)
	first := f.startActivity(t, "1", types.StartRequest{PackageName: "com.mail", ShortName: "com.mail/.Inbox"})
	f.startActivity(t, "1", types.StartRequest{PackageName: "com.mail", ShortName: "com.mail/.Compose"})

	w := f.do(t, http.MethodPost, "/activities/"+string(first.Token)+"/paused", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, http.MethodPost, "/activities/"+string(first.Token)+"/stopped", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, http.MethodPost, "/activities/"+string(first.Token)+"/paused", nil)
	assert.Equal(t, http.StatusNotFound, w.Code, "already paused")

	w = f.do(t, http.MethodPost, "/activities/not-a-token/paused", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMoveTask(t *testing.T) {
	f := setupTestRouter(t)
	f.do(t, http.MethodPost, "/stacks", nil)
	f.do(t, http.MethodPost, "/stacks", nil)
	r := f.startActivity(t, "1", types.StartRequest{PackageName: "com.mail", ShortName: "com.mail/.Inbox"})
	taskPath := "/tasks/" + strconv.Itoa(r.TaskID)

	w := f.do(t, http.MethodPost, taskPath+"/move", MoveTaskRequest{StackID: 2, ToTop: true})
	require.Equal(t, http.StatusOK, w.Code)

	f.sup.Lock()
	assert.Equal(t, 2, f.sup.AnyTaskForIDLocked(r.TaskID).StackID)
	f.sup.Unlock()

	w = f.do(t, http.MethodPost, taskPath+"/move", MoveTaskRequest{StackID: 42})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.do(t, http.MethodPost, taskPath+"/front", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, http.MethodPost, "/tasks/9999/front", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestProcessLifecycle(t *testing.T) {
	f := setupTestRouter(t)
	f.do(t, http.MethodPost, "/stacks", nil)

	w := f.do(t, http.MethodPost, "/processes", RegisterProcessRequest{Name: "com.mail", Endpoint: "ftp://x"})
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodPost, "/processes", RegisterProcessRequest{Name: "com.mail", UID: 10001})
	require.Equal(t, http.StatusCreated, w.Code)
	pid := 100
	f.startActivity(t, "1", types.StartRequest{PackageName: "com.mail", ShortName: "com.mail/.Inbox", PID: pid})

	w = f.do(t, http.MethodGet, "/processes", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode(t, w)["count"])

	w = f.do(t, http.MethodPost, "/processes/100/crashed", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, http.MethodPost, "/processes/100/died", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []int{pid}, f.forget.pids)

	proc, err := f.procs.Get(pid)
	require.NoError(t, err)
	assert.False(t, proc.Alive)

	f.sup.Lock()
	st, _ := f.sup.StackLocked(1)
	assert.Empty(t, st.Tasks())
	f.sup.Unlock()

	w = f.do(t, http.MethodPost, "/processes/555/died", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = f.do(t, http.MethodPost, "/processes/555/finish-top", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestForceStopPackage(t *testing.T) {
	f := setupTestRouter(t)
	f.do(t, http.MethodPost, "/stacks", nil)
	f.startActivity(t, "1", types.StartRequest{PackageName: "com.mail", ShortName: "com.mail/.Inbox"})

	w := f.do(t, http.MethodPost, "/packages/com.mail/force-stop", ForceStopRequest{DryRun: true})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["matched"])

	w = f.do(t, http.MethodPost, "/packages/com.other/force-stop", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decode(t, w)["matched"])

	w = f.do(t, http.MethodPost, "/packages/..bad/force-stop", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSystemOperations(t *testing.T) {
	f := setupTestRouter(t)
	f.do(t, http.MethodPost, "/stacks", nil)

	for _, path := range []string{"/system-dialogs/close", "/idle", "/power/sleep", "/power/wake", "/stacks/resume", "/keyguard/dismiss-latch"} {
		t.Run(path, func(t *testing.T) {
			w := f.do(t, http.MethodPost, path, nil)
			assert.Equal(t, http.StatusOK, w.Code)
		})
	}

	w := f.do(t, http.MethodPost, "/configuration", ConfigurationRequest{Changes: []string{"orientation", "locale"}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "orientation|locale", decode(t, w)["changes"])

	w = f.do(t, http.MethodPost, "/users/10/switch", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decode(t, w)["has_activities"])
}

func TestShutdown(t *testing.T) {
	f := setupTestRouter(t)

	w := f.do(t, http.MethodPost, "/shutdown?timeout=bogus", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodPost, "/shutdown?timeout=20ms", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decode(t, w)["timed_out"])
}

func TestDump(t *testing.T) {
	f := setupTestRouter(t)
	f.do(t, http.MethodPost, "/stacks", nil)
	f.startActivity(t, "1", types.StartRequest{PackageName: "com.mail", ShortName: "com.mail/.Inbox"})

	t.Run("plain", func(t *testing.T) {
		w := f.do(t, http.MethodGet, "/dump?all=true", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "true", w.Header().Get("X-Dump-Printed"))
		assert.Contains(t, w.Body.String(), "mDismissKeyguardOnNextActivity:false")
		assert.Contains(t, w.Body.String(), "com.mail/.Inbox")
		assert.Contains(t, w.Body.String(), "mCurTaskId: 1")
	})

	t.Run("gzip", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/dump", nil)
		req.Header.Set("Accept-Encoding", "gzip")
		w := httptest.NewRecorder()
		f.router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "gzip", w.Header().Get("Content-Encoding"))
		zr, err := gzip.NewReader(w.Body)
		require.NoError(t, err)
		body, err := io.ReadAll(zr)
		require.NoError(t, err)
		assert.Contains(t, string(body), "com.mail/.Inbox")
	})

	t.Run("package filter", func(t *testing.T) {
		w := f.do(t, http.MethodGet, "/dump?package=com.none", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.NotContains(t, w.Body.String(), "Hist #0")
	})
}

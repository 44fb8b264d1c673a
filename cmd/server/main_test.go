package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/AgentOS/supervisor/internal/infrastructure/config"
)

func TestServeFlagsOverrideEnv(t *testing.T) {
	cmd := newServeCommand()
	require.NoError(t, cmd.ParseFlags([]string{"--port", "9100", "--dev", "--shutdown-timeout", "3s"}))

	cfg := config.Default()
	cfg.Server.Host = "10.0.0.1"
	var opts serveOptions
	opts.port, _ = cmd.Flags().GetString("port")
	opts.dev, _ = cmd.Flags().GetBool("dev")
	opts.shutdownTimeout, _ = cmd.Flags().GetDuration("shutdown-timeout")
	opts.apply(cmd, cfg)

	assert.Equal(t, "9100", cfg.Server.Port)
	assert.Equal(t, "10.0.0.1", cfg.Server.Host, "unset flags keep the env value")
	assert.True(t, cfg.Logging.Development)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 3*time.Second, cfg.Supervisor.ShutdownTimeout)
}

func TestDumpCommand(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/dump", r.URL.Path)
		assert.Equal(t, "true", r.URL.Query().Get("all"))
		assert.Equal(t, "com.mail", r.URL.Query().Get("package"))
		w.Write([]byte("  Stack #0:\n"))
	}))
	defer server.Close()

	root := newRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"dump", "--addr", server.URL, "-a", "-p", "com.mail"})

	require.NoError(t, root.Execute())
	assert.Equal(t, "  Stack #0:\n", out.String())
}

func TestDumpCommandServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	root := newRootCommand()
	root.SetArgs([]string{"dump", "--addr", server.URL})
	assert.Error(t, root.Execute())
}

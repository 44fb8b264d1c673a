package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	apihttp "github.com/GriffinCanCode/AgentOS/supervisor/internal/api/http"
	"github.com/GriffinCanCode/AgentOS/supervisor/internal/api/middleware"
	"github.com/GriffinCanCode/AgentOS/supervisor/internal/api/ws"
	"github.com/GriffinCanCode/AgentOS/supervisor/internal/domain/process"
	"github.com/GriffinCanCode/AgentOS/supervisor/internal/domain/stack"
	"github.com/GriffinCanCode/AgentOS/supervisor/internal/domain/supervisor"
	"github.com/GriffinCanCode/AgentOS/supervisor/internal/infrastructure/config"
	"github.com/GriffinCanCode/AgentOS/supervisor/internal/infrastructure/logging"
	"github.com/GriffinCanCode/AgentOS/supervisor/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/supervisor/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/AgentOS/supervisor/internal/providers/dump"
	"github.com/GriffinCanCode/AgentOS/supervisor/internal/shared/id"
)

// FirstPID is the first pid handed to registered processes.
const FirstPID = 1000

const drainTimeout = 5 * time.Second

// Server wraps the admin HTTP server and the supervisor it exposes.
type Server struct {
	router     *gin.Engine
	supervisor *supervisor.Supervisor
	processes  *process.Table
	hub        *ws.Hub
	dumper     *dump.Client
	tracer     *tracing.Tracer
	logger     *logging.Logger
	config     *config.Config
	metrics    *monitoring.Metrics
	registry   *prometheus.Registry

	quiesceOnce     sync.Once
	quiesceTimedOut bool
}

// NewServer builds every component, creates the home stack and applies the
// configured boot layout.
func NewServer(cfg *config.Config) (*Server, error) {
	logger := logging.FromLevel(cfg.Logging.Level, cfg.Logging.Development)

	logger.Info("Initializing session supervisor",
		zap.String("addr", net.JoinHostPort(cfg.Server.Host, cfg.Server.Port)),
		zap.Duration("shutdown_timeout", cfg.Supervisor.ShutdownTimeout),
		zap.String("layout", cfg.Supervisor.Layout),
	)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := monitoring.NewMetrics(registry)

	tracer := tracing.New("supervisor", logger.Component("tracing"))
	hub := ws.NewHub(ws.DefaultBuffer, metrics, logger.Component("events"))
	dumper := dump.NewClient(cfg.Dump, logger.Component("dump"))
	procs := process.NewTable(FirstPID)

	sup := supervisor.New(
		stack.Factory(logger.Component("stack")),
		supervisor.WithLogger(logger.Component("supervisor")),
		supervisor.WithMetrics(metrics),
		supervisor.WithEvents(hub),
		supervisor.WithWindowManager(&keyguard{hub: hub, logger: logger.Component("keyguard")}),
		supervisor.WithDumper(dumper),
		supervisor.WithDumpTimeout(cfg.Dump.Timeout),
	)
	if err := boot(sup, cfg.Supervisor.Layout, logger); err != nil {
		tracer.Close()
		return nil, err
	}

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(tracing.HTTPMiddleware(tracer))
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(middleware.CORSFromConfig(cfg.CORS)))
	if rl, enabled := middleware.RateLimitFromConfig(cfg.RateLimit); enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", rl.RequestsPerSecond),
			zap.Int("burst", rl.Burst),
			zap.Bool("global", rl.Global),
		)
		router.Use(middleware.Limit(rl))
	}

	handlers := apihttp.NewHandlers(sup, procs, dumper, cfg.Supervisor.ShutdownTimeout, logger.Component("api"))
	handlers.Register(router)

	router.GET("/ws/events", hub.HandleConnection)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry})))

	logger.Info("Supervisor initialized successfully")

	return &Server{
		router:     router,
		supervisor: sup,
		processes:  procs,
		hub:        hub,
		dumper:     dumper,
		tracer:     tracer,
		logger:     logger,
		config:     cfg,
		metrics:    metrics,
		registry:   registry,
	}, nil
}

func boot(sup *supervisor.Supervisor, layoutPath string, logger *logging.Logger) error {
	var layout *config.Layout
	if layoutPath != "" {
		var err error
		if layout, err = config.LoadLayout(layoutPath); err != nil {
			return err
		}
	}

	sup.Lock()
	defer sup.Unlock()

	if err := sup.InitLocked(); err != nil {
		return fmt.Errorf("failed to init supervisor: %w", err)
	}
	if layout == nil {
		return nil
	}
	for _, spec := range layout.Stacks {
		stackID := sup.CreateStackLocked(spec.RelativeID, spec.Position, spec.Weight)
		logger.Debug("Created stack from layout", zap.Int("stack_id", stackID))
	}
	logger.Info("Applied stack layout", zap.Int("stacks", len(layout.Stacks)))
	return nil
}

// Handler returns the admin HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Supervisor returns the supervisor the server exposes.
func (s *Server) Supervisor() *supervisor.Supervisor {
	return s.supervisor
}

// Run serves until ctx is cancelled. It then quiesces the supervisor while
// the listener still accepts pause callbacks, and drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	addr := net.JoinHostPort(s.config.Server.Host, s.config.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting HTTP server", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.Quiesce()

	drainCtx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()
	if err := srv.Shutdown(drainCtx); err != nil {
		return fmt.Errorf("failed to drain HTTP server: %w", err)
	}
	return nil
}

// RunIdleLoop schedules an idle pass on every stack each interval until ctx
// is cancelled. A non-positive interval returns immediately.
func (s *Server) RunIdleLoop(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return nil
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.supervisor.Lock()
			s.supervisor.ScheduleIdleLocked()
			s.supervisor.Unlock()
		}
	}
}

// Quiesce runs the shutdown sequencer once and reports whether any stack
// timed out. Later calls return the first result.
func (s *Server) Quiesce() bool {
	s.quiesceOnce.Do(func() {
		s.logger.Info("Shutting down supervisor...")
		s.supervisor.Lock()
		s.quiesceTimedOut = s.supervisor.ShutdownLocked(s.config.Supervisor.ShutdownTimeout)
		s.supervisor.Unlock()
		if s.quiesceTimedOut {
			s.logger.Warn("Some stacks did not go quiescent before exit")
		}
	})
	return s.quiesceTimedOut
}

// Close quiesces the supervisor if Run has not, ends the event feed and
// flushes logs.
func (s *Server) Close() error {
	s.Quiesce()

	s.hub.Close()
	s.tracer.Close()

	// Sync logger before exit
	_ = s.logger.Sync()

	return nil
}

// keyguard relays keyguard dismissals onto the event feed.
type keyguard struct {
	hub    *ws.Hub
	logger *zap.Logger
}

func (k *keyguard) DismissKeyguard() {
	k.logger.Info("Keyguard dismissed")
	k.hub.Publish(supervisor.Event{
		ID:   id.NewEventID(),
		Type: supervisor.EventKeyguardDismissed,
		At:   time.Now(),
	})
}

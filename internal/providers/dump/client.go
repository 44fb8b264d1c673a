package dump

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/GriffinCanCode/AgentOS/supervisor/internal/infrastructure/config"
	"github.com/GriffinCanCode/AgentOS/supervisor/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/AgentOS/supervisor/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/AgentOS/supervisor/internal/shared/id"
	"github.com/GriffinCanCode/AgentOS/supervisor/internal/shared/types"
)

// ErrUnreachable is returned for processes that are dead or serve no endpoint.
var ErrUnreachable = errors.New("process has no dump endpoint")

// Client fetches live activity dumps from hosting processes over HTTP. Each
// process gets its own circuit breaker so one wedged process does not slow
// down a report covering many of its activities.
type Client struct {
	resty    *resty.Client
	limiter  *rate.Limiter
	breakers *resilience.Set
	logger   *zap.Logger
}

// NewClient creates a dump client.
func NewClient(cfg config.DumpConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = cfg.Retries
	retryClient.RetryWaitMin = 50 * time.Millisecond
	retryClient.RetryWaitMax = 500 * time.Millisecond
	retryClient.Logger = nil

	restyClient := resty.NewWithClient(retryClient.StandardClient()).
		SetTimeout(cfg.Timeout).
		SetHeader("User-Agent", "supervisor-dump/1.0")

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.RequestsPerSecond)
	}

	breakers := resilience.NewSet(resilience.Settings{
		MaxRequests: 1,
		Interval:    30 * time.Second,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to resilience.State) {
			logger.Info("Dump breaker state changed",
				zap.String("process", name),
				zap.Stringer("from", from),
				zap.Stringer("to", to),
			)
		},
	})

	return &Client{
		resty:    restyClient,
		limiter:  limiter,
		breakers: breakers,
		logger:   logger,
	}
}

// DumpActivity asks app for the dump of one activity. The context bounds the
// whole call including retries.
func (c *Client) DumpActivity(ctx context.Context, app *types.Process, token id.ActivityToken, prefix string, args []string) ([]byte, error) {
	if !app.Reachable() {
		return nil, ErrUnreachable
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}

	var body []byte
	err := c.breakers.Get(breakerKey(app.PID)).Do(func() error {
		headers := map[string]string{}
		tracing.InjectTraceContext(ctx, headers)
		req := c.resty.R().
			SetContext(ctx).
			SetHeaders(headers).
			SetPathParam("token", token.String()).
			SetQueryParam("prefix", prefix)
		if len(args) > 0 {
			req.SetQueryParamsFromValues(url.Values{"arg": args})
		}

		resp, err := req.Get(app.Endpoint + "/activities/{token}/dump")
		if err != nil {
			return err
		}
		if resp.IsError() {
			return fmt.Errorf("dump endpoint returned %s", resp.Status())
		}
		body = resp.Body()
		return nil
	})
	if err != nil {
		c.logger.Debug("Activity dump failed", zap.Int("pid", app.PID), zap.Error(err))
		return nil, err
	}
	return body, nil
}

// Forget drops the breaker of a process that is gone.
func (c *Client) Forget(pid int) {
	c.breakers.Forget(breakerKey(pid))
}

// BreakerStates reports the breaker state per pid.
func (c *Client) BreakerStates() map[string]resilience.State {
	return c.breakers.States()
}

func breakerKey(pid int) string {
	return strconv.Itoa(pid)
}

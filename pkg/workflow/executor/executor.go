// Package executor runs one agent with a derived deadline, cooperative
// cancellation, and a bounded linear-backoff retry policy: a single
// synchronous call per invocation, with the orchestrator supplying the
// concurrency.
package executor

import (
	"context"
	"fmt"
	"time"

	"github.com/thomasfortoul/oxkair-workflow/pkg/workflow/agent"
	"github.com/thomasfortoul/oxkair-workflow/pkg/workflow/state"
	"github.com/thomasfortoul/oxkair-workflow/pkg/werrors"
)

// RetryPolicy controls the bounded linear-backoff retry behavior.
type RetryPolicy struct {
	MaxRetries int
	BackoffMs  int64
	// ShouldRetry decides whether a given error is retryable. The default
	// (set by DefaultRetryPolicy) retries everything except CRITICAL
	// severity, including MEDIUM.
	ShouldRetry func(err error) bool
}

// DefaultRetryPolicy is maxRetries=3, backoffMs=1000, retrying everything
// except CRITICAL-severity validation errors.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries: 3,
		BackoffMs:  1000,
		ShouldRetry: func(err error) bool {
			return !werrors.IsCritical(err)
		},
	}
}

// Timeouts maps an agent name to its per-agent deadline. Modifier
// assignment defaults to a longer budget than the rest.
type Timeouts struct {
	Default  time.Duration
	PerAgent map[state.AgentName]time.Duration
}

// DefaultTimeouts is 30s for every agent except MODIFIER, which gets 120s.
func DefaultTimeouts() Timeouts {
	return Timeouts{
		Default: 30 * time.Second,
		PerAgent: map[state.AgentName]time.Duration{
			state.AgentModifier: 120 * time.Second,
		},
	}
}

// For resolves the timeout for a given agent, falling back to Default.
func (t Timeouts) For(name state.AgentName) time.Duration {
	if d, ok := t.PerAgent[name]; ok {
		return d
	}
	return t.Default
}

// Executor runs a single agent invocation under deadline, cancellation,
// and retry. It never mutates the state it is given and guarantees
// exactly one terminal outcome per call.
type Executor struct {
	Timeouts    Timeouts
	RetryPolicy RetryPolicy
	Sleep       func(d time.Duration)
}

// New builds an Executor with DefaultTimeouts and DefaultRetryPolicy.
func New() *Executor {
	return &Executor{
		Timeouts:    DefaultTimeouts(),
		RetryPolicy: DefaultRetryPolicy(),
		Sleep:       time.Sleep,
	}
}

// Outcome is the terminal result of Run: exactly one of Result or Err is
// non-nil on return (Err may still carry partial Result via the caller
// examining it directly — Run itself only returns one).
type Outcome struct {
	Result   *agent.Result
	Err      error
	Attempts int
	Duration time.Duration
}

// Run executes a, retrying per RetryPolicy, each attempt bounded by the
// agent's configured timeout. ctx's own deadline/cancellation (e.g. a
// global workflow timeout) is always honored in addition to the per-agent
// one, whichever is sooner.
func (e *Executor) Run(ctx context.Context, a agent.Agent, ac *agent.Context) Outcome {
	start := time.Now()
	name := a.Name()
	timeout := e.Timeouts.For(name)

	var lastErr error
	attempts := 0

	for attempt := 0; attempt <= e.RetryPolicy.MaxRetries; attempt++ {
		attempts = attempt + 1

		if ctx.Err() != nil {
			return Outcome{Err: ctx.Err(), Attempts: attempts, Duration: time.Since(start)}
		}

		attemptCtx, cancel := context.WithTimeout(ctx, timeout)
		result, err := e.runOnce(attemptCtx, a, ac)
		cancel()

		if err == nil {
			return Outcome{Result: result, Attempts: attempts, Duration: time.Since(start)}
		}

		lastErr = err
		if attemptCtx.Err() == context.DeadlineExceeded {
			lastErr = werrors.NewAgentTimeoutError(string(name), timeout.Milliseconds())
		}

		if attempt == e.RetryPolicy.MaxRetries {
			break
		}
		if e.RetryPolicy.ShouldRetry != nil && !e.RetryPolicy.ShouldRetry(lastErr) {
			break
		}

		if e.Sleep != nil {
			e.Sleep(time.Duration(e.RetryPolicy.BackoffMs*int64(attempt+1)) * time.Millisecond)
		}
	}

	return Outcome{Err: lastErr, Attempts: attempts, Duration: time.Since(start)}
}

// runOnce calls a.Execute, converting a panic into an AgentExecutionError
// so a misbehaving agent can never take down the orchestrator goroutine.
func (e *Executor) runOnce(ctx context.Context, a agent.Agent, ac *agent.Context) (result *agent.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = werrors.NewAgentExecutionError(string(a.Name()), fmt.Errorf("panic: %v", r))
		}
	}()

	result, err = a.Execute(ctx, ac)
	if err != nil {
		return nil, werrors.NewAgentExecutionError(string(a.Name()), err)
	}
	if result == nil {
		return nil, werrors.NewAgentExecutionError(string(a.Name()), fmt.Errorf("agent returned no result"))
	}
	return result, nil
}

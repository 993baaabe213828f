package executor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thomasfortoul/oxkair-workflow/pkg/workflow/agent"
	"github.com/thomasfortoul/oxkair-workflow/pkg/workflow/state"
	"github.com/thomasfortoul/oxkair-workflow/pkg/werrors"
)

type fakeAgent struct {
	name      state.AgentName
	result    *agent.Result
	err       error
	sleep     time.Duration
	callCount *int
}

func (f fakeAgent) Name() state.AgentName { return f.name }

func (f fakeAgent) Execute(ctx context.Context, ac *agent.Context) (*agent.Result, error) {
	if f.callCount != nil {
		*f.callCount++
	}
	if f.sleep > 0 {
		select {
		case <-time.After(f.sleep):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.result, f.err
}

func noSleep(d time.Duration) {}

func TestExecutorSuccess(t *testing.T) {
	e := New()
	e.Sleep = noSleep
	a := fakeAgent{name: state.AgentCPT, result: &agent.Result{AgentName: state.AgentCPT, Success: true}}

	out := e.Run(context.Background(), a, &agent.Context{Input: state.NewWorkflowState("c1")})
	require.NoError(t, out.Err)
	require.NotNil(t, out.Result)
	assert.Equal(t, 1, out.Attempts)
}

func TestExecutorTimeout(t *testing.T) {
	e := New()
	e.Sleep = noSleep
	e.Timeouts = Timeouts{Default: 1 * time.Millisecond}
	e.RetryPolicy = RetryPolicy{MaxRetries: 0, ShouldRetry: func(err error) bool { return true }}

	a := fakeAgent{name: state.AgentModifier, sleep: 50 * time.Millisecond}
	out := e.Run(context.Background(), a, &agent.Context{})

	require.Error(t, out.Err)
	var timeoutErr *werrors.AgentTimeoutError
	assert.ErrorAs(t, out.Err, &timeoutErr)
}

func TestExecutorRetriesThenSucceeds(t *testing.T) {
	calls := 0
	attempt := 0
	e := New()
	e.Sleep = noSleep

	a := retryingAgent{calls: &calls, attempt: &attempt}
	out := e.Run(context.Background(), a, &agent.Context{})

	require.NoError(t, out.Err)
	assert.Equal(t, 2, calls)
}

type retryingAgent struct {
	calls   *int
	attempt *int
}

func (r retryingAgent) Name() state.AgentName { return state.AgentCPT }
func (r retryingAgent) Execute(ctx context.Context, ac *agent.Context) (*agent.Result, error) {
	*r.calls++
	if *r.attempt == 0 {
		*r.attempt++
		return nil, errors.New("transient failure")
	}
	return &agent.Result{AgentName: state.AgentCPT, Success: true}, nil
}

func TestExecutorDoesNotRetryCritical(t *testing.T) {
	calls := 0
	e := New()
	e.Sleep = noSleep

	a := fakeAgent{
		name:      state.AgentICD,
		err:       werrors.NewValidationError("caseId", "CRITICAL", "missing"),
		callCount: &calls,
	}
	out := e.Run(context.Background(), a, &agent.Context{})

	require.Error(t, out.Err)
	assert.Equal(t, 1, calls, "a CRITICAL error must not be retried")
}

func TestExecutorPanicRecovered(t *testing.T) {
	e := New()
	e.Sleep = noSleep
	e.RetryPolicy = RetryPolicy{MaxRetries: 0, ShouldRetry: func(err error) bool { return false }}

	a := panickingAgent{}
	out := e.Run(context.Background(), a, &agent.Context{})

	require.Error(t, out.Err)
}

type panickingAgent struct{}

func (panickingAgent) Name() state.AgentName { return state.AgentRVU }
func (panickingAgent) Execute(ctx context.Context, ac *agent.Context) (*agent.Result, error) {
	panic("boom")
}

func TestExecutorHonorsGlobalCancellation(t *testing.T) {
	e := New()
	e.Sleep = noSleep

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	a := fakeAgent{name: state.AgentCCI, result: &agent.Result{Success: true}}
	out := e.Run(ctx, a, &agent.Context{})

	require.Error(t, out.Err)
}

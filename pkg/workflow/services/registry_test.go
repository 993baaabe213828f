package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/thomasfortoul/oxkair-workflow/pkg/workflow/services/breaker"
	"github.com/thomasfortoul/oxkair-workflow/pkg/workflow/state"
)

func newTestBreaker() *breaker.Breaker { return breaker.New("test") }

func TestBackendForFallsBackToDefault(t *testing.T) {
	r := NewRegistry(nil, nil, nil)
	assert.Equal(t, DefaultAssignment, r.BackendFor(state.AgentCPT))

	r.AssignBackend(state.AgentCPT, Backend{Endpoint: "cpt.internal:9090", Deployment: "gpt-cpt"})
	assert.Equal(t, Backend{Endpoint: "cpt.internal:9090", Deployment: "gpt-cpt"}, r.BackendFor(state.AgentCPT))
	assert.Equal(t, DefaultAssignment, r.BackendFor(state.AgentICD))
}

func TestHealthCheckSkipsEmptyEndpoint(t *testing.T) {
	err := HealthCheck(context.Background(), "", 10*time.Millisecond)
	assert.NoError(t, err)
}

type failingModel struct{ calls int }

func (f *failingModel) Complete(ctx context.Context, prompt string) (string, error) {
	f.calls++
	return "", errBoom
}

var errBoom = assert.AnError

func TestBreakeredAIModelOpensAfterConsecutiveFailures(t *testing.T) {
	inner := &failingModel{}
	model := &breakeredAIModel{inner: inner, cb: newTestBreaker()}

	for i := 0; i < 5; i++ {
		_, err := model.Complete(context.Background(), "prompt")
		assert.Error(t, err)
	}

	_, err := model.Complete(context.Background(), "prompt")
	assert.Error(t, err)
	assert.LessOrEqual(t, inner.calls, 5)
}

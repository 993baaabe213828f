package workflow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thomasfortoul/oxkair-workflow/pkg/workflow/agent"
	"github.com/thomasfortoul/oxkair-workflow/pkg/workflow/state"
)

type stubAgent struct {
	name   state.AgentName
	result *agent.Result
}

func (s stubAgent) Name() state.AgentName { return s.name }
func (s stubAgent) Execute(ctx context.Context, ac *agent.Context) (*agent.Result, error) {
	return s.result, nil
}

type testLogger struct{}

func (testLogger) Debug(msg string, fields ...interface{}) {}
func (testLogger) Info(msg string, fields ...interface{})  {}
func (testLogger) Warn(msg string, fields ...interface{})  {}
func (testLogger) Error(msg string, fields ...interface{}) {}

func successResult(name state.AgentName) *agent.Result {
	return &agent.Result{AgentName: name, Success: true}
}

func TestProcessCaseGeneratesIdentifiersWhenAbsent(t *testing.T) {
	reg := agent.NewRegistry()
	for _, n := range []state.AgentName{state.AgentCPT, state.AgentICD, state.AgentLCD, state.AgentCCI, state.AgentModifier, state.AgentRVU} {
		reg.RegisterSingle(stubAgent{name: n, result: successResult(n)})
	}

	result := ProcessCase(context.Background(), state.CaseNotes{PrimaryNoteText: "note"}, state.CaseMeta{CaseID: "case-1"}, reg, testLogger{}, nil, ProcessingOptions{}, nil)

	require.NotNil(t, result.Data)
	assert.True(t, result.Success)
	assert.Equal(t, 6, result.Metadata.AgentsExecuted)
}

func TestProcessCaseCriticalFailureStillReturnsCaseOutput(t *testing.T) {
	reg := agent.NewRegistry()
	result := ProcessCase(context.Background(), state.CaseNotes{}, state.CaseMeta{CaseID: "", PatientID: "p1"}, reg, testLogger{}, nil, ProcessingOptions{}, nil)

	assert.False(t, result.Success)
	require.NotNil(t, result.Data)
	assert.NotEmpty(t, result.Error)
}

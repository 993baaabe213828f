package orchestrator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thomasfortoul/oxkair-workflow/pkg/workflow/agent"
	"github.com/thomasfortoul/oxkair-workflow/pkg/workflow/state"
)

type stubAgent struct {
	name    state.AgentName
	result  *agent.Result
	err     error
	sleepMs int
}

func (s stubAgent) Name() state.AgentName { return s.name }

func (s stubAgent) Execute(ctx context.Context, ac *agent.Context) (*agent.Result, error) {
	if s.sleepMs > 0 {
		select {
		case <-time.After(time.Duration(s.sleepMs) * time.Millisecond):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func buildRegistry(agents ...agent.Agent) *agent.Registry {
	r := agent.NewRegistry()
	for _, a := range agents {
		r.RegisterSingle(a)
	}
	return r
}

type noopLogger struct{}

func (noopLogger) Debug(msg string, fields ...interface{}) {}
func (noopLogger) Info(msg string, fields ...interface{})  {}
func (noopLogger) Warn(msg string, fields ...interface{})  {}
func (noopLogger) Error(msg string, fields ...interface{}) {}

func cptAgent() stubAgent {
	return stubAgent{
		name: state.AgentCPT,
		result: &agent.Result{
			AgentName: state.AgentCPT,
			Success:   true,
			Evidence: []state.StandardizedEvidence{
				{SourceAgent: state.AgentCPT, VerbatimEvidence: []string{"laparoscopic cholecystectomy"}},
			},
			Data: agent.ResultData{
				ProcedureCodes: []state.EnhancedProcedureCode{{Code: "47562", Description: "Lap chole", Units: 1}},
			},
		},
	}
}

func lcdAgent(status state.OverallCoverageStatus) stubAgent {
	return stubAgent{
		name: state.AgentLCD,
		result: &agent.Result{
			AgentName: state.AgentLCD,
			Success:   true,
			Data:      agent.ResultData{LCD: &state.LCDResult{OverallCoverageStatus: status}},
		},
	}
}

func cciAgent() stubAgent {
	return stubAgent{
		name: state.AgentCCI,
		result: &agent.Result{
			AgentName: state.AgentCCI,
			Success:   true,
			Data:      agent.ResultData{CCI: &state.CCIResult{Summary: state.CCISummary{OverallStatus: state.CCIStatusPass}}},
		},
	}
}

func rvuAgent() stubAgent {
	return stubAgent{
		name: state.AgentRVU,
		result: &agent.Result{
			AgentName: state.AgentRVU,
			Success:   true,
			Data:      agent.ResultData{RVU: &state.RVUResult{}},
		},
	}
}

func modifierAgent() stubAgent {
	return stubAgent{
		name: state.AgentModifier,
		result: &agent.Result{
			AgentName: state.AgentModifier,
			Success:   true,
		},
	}
}

// single CPT extraction, no diagnoses, no LCD policies.
func TestScenarioSingleCPTExtraction(t *testing.T) {
	reg := buildRegistry(cptAgent(), lcdAgent(state.OverallCoverageUnknown), cciAgent(), rvuAgent(), modifierAgent(), stubAgent{name: state.AgentICD, result: &agent.Result{AgentName: state.AgentICD, Success: true}})
	o := New(reg, noopLogger{})

	s := state.NewWorkflowState("case-1")
	s.Meta.PatientID = "p1"

	out := o.Run(context.Background(), s, DefaultConfig())

	require.Len(t, out.ProcedureCodes, 1)
	assert.Equal(t, "47562", out.ProcedureCodes[0].Code)
	assert.Empty(t, out.DiagnosisCodes)
	require.NotNil(t, out.LCD)
	assert.Equal(t, state.OverallCoverageUnknown, out.LCD.OverallCoverageStatus)
	assert.Equal(t, state.CaseStatusCompleted, out.Meta.Status)
}

// ICD->LCD pathway fails entirely, others still contribute.
func TestScenarioICDPathwayFails(t *testing.T) {
	failingICD := stubAgent{name: state.AgentICD, err: assertErr{"icd backend unreachable"}}
	reg := buildRegistry(cptAgent(), failingICD, lcdAgent(state.OverallCoverageUnknown), cciAgent(), rvuAgent(), modifierAgent())
	o := New(reg, noopLogger{})

	s := state.NewWorkflowState("case-2")
	s.Meta.PatientID = "p1"

	out := o.Run(context.Background(), s, DefaultConfig())

	foundICDError := false
	for _, e := range out.Errors {
		if e.Source == string(state.AgentICD) {
			foundICDError = true
		}
	}
	assert.True(t, foundICDError)
	require.NotNil(t, out.CCI)
	require.NotNil(t, out.RVU)
	assert.Equal(t, state.CaseStatusCompleted, out.Meta.Status)
}

// CRITICAL validation failure halts immediately.
func TestScenarioCriticalValidationHalts(t *testing.T) {
	reg := buildRegistry(cptAgent())
	o := New(reg, noopLogger{})

	s := state.NewWorkflowState("")
	out := o.Run(context.Background(), s, DefaultConfig())

	assert.Equal(t, state.CaseStatusError, out.Meta.Status)
	assert.Empty(t, out.ProcedureCodes, "CPT must never have run after a CRITICAL halt")
}

// modifier agent timeout; CCI pathway still produces a result.
func TestScenarioModifierTimeout(t *testing.T) {
	slowModifier := stubAgent{name: state.AgentModifier, sleepMs: 100}
	reg := buildRegistry(cptAgent(), stubAgent{name: state.AgentICD, result: &agent.Result{AgentName: state.AgentICD, Success: true}}, lcdAgent(state.OverallCoverageUnknown), cciAgent(), rvuAgent(), slowModifier)
	o := New(reg, noopLogger{})
	o.Executor.Timeouts.PerAgent = map[state.AgentName]time.Duration{state.AgentModifier: 1 * time.Millisecond}
	o.Executor.RetryPolicy.MaxRetries = 0
	o.Executor.Sleep = func(d time.Duration) {}

	s := state.NewWorkflowState("case-3")
	s.Meta.PatientID = "p1"

	out := o.Run(context.Background(), s, DefaultConfig())

	require.NotNil(t, out.CCI)
	assert.Empty(t, out.Modifiers)
}

type assertErr struct{ msg string }

func (e assertErr) Error() string { return e.msg }

package agents

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thomasfortoul/oxkair-workflow/pkg/workflow/agent"
	"github.com/thomasfortoul/oxkair-workflow/pkg/workflow/state"
)

func newCtx(s *state.WorkflowState, opts map[string]interface{}) *agent.Context {
	return &agent.Context{Input: s, Options: opts}
}

func TestCPTAgentExtractsScenario1Code(t *testing.T) {
	s := state.NewWorkflowState("case-1")
	s.Notes = state.CaseNotes{PrimaryNoteText: "Patient underwent laparoscopic cholecystectomy without complication."}

	res, err := NewCPTAgent().Execute(context.Background(), newCtx(s, nil))
	require.NoError(t, err)
	require.True(t, res.Success)
	require.Len(t, res.Data.ProcedureCodes, 1)
	assert.Equal(t, "47562", res.Data.ProcedureCodes[0].Code)
	assert.True(t, res.Data.ProcedureCodes[0].IsPrimary)
}

func TestCPTAgentNoMatchStillSucceeds(t *testing.T) {
	s := state.NewWorkflowState("case-1")
	s.Notes = state.CaseNotes{PrimaryNoteText: "nothing recognizable here"}

	res, err := NewCPTAgent().Execute(context.Background(), newCtx(s, nil))
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Empty(t, res.Data.ProcedureCodes)
}

func TestICDAgentLinksDiagnosisToProcedure(t *testing.T) {
	s := state.NewWorkflowState("case-1")
	s.Notes = state.CaseNotes{PrimaryNoteText: "acute cholecystitis confirmed on imaging"}

	res, err := NewICDAgent().Execute(context.Background(), newCtx(s, nil))
	require.NoError(t, err)
	require.Len(t, res.Data.DiagnosisCodes, 1)
	require.NotNil(t, res.Data.DiagnosisCodes[0].LinkedCptCode)
	assert.Equal(t, "47562", *res.Data.DiagnosisCodes[0].LinkedCptCode)
}

func TestCCIAgentFlagsExcessUnits(t *testing.T) {
	s := state.NewWorkflowState("case-1")
	s.ProcedureCodes = []state.EnhancedProcedureCode{{Code: "47562", Units: 3}}

	res, err := NewCCIAgent().Execute(context.Background(), newCtx(s, nil))
	require.NoError(t, err)
	require.Len(t, res.Data.MUE.Flags, 1)
	assert.Equal(t, state.CCIStatusWarning, res.Data.CCI.Summary.OverallStatus)
}

func TestLCDAgentDefaultsJurisdictionWhenUnset(t *testing.T) {
	s := state.NewWorkflowState("case-1")

	res, err := NewLCDAgent().Execute(context.Background(), newCtx(s, nil))
	require.NoError(t, err)
	assert.Equal(t, defaultMACJurisdiction, res.Data.LCD.MACJurisdiction)
	assert.Equal(t, state.OverallCoverageUnknown, res.Data.LCD.OverallCoverageStatus)
}

func TestLCDAgentHonorsInjectedJurisdiction(t *testing.T) {
	s := state.NewWorkflowState("case-1")
	res, err := NewLCDAgent().Execute(context.Background(), newCtx(s, map[string]interface{}{"macJurisdiction": "J15"}))
	require.NoError(t, err)
	assert.Equal(t, "J15", res.Data.LCD.MACJurisdiction)
}

func TestLCDAgentEvaluatesMatchingPolicy(t *testing.T) {
	s := state.NewWorkflowState("case-1")
	s.DiagnosisCodes = []state.EnhancedDiagnosisCode{{Code: "K81.1"}}

	res, err := NewLCDAgent().Execute(context.Background(), newCtx(s, nil))
	require.NoError(t, err)
	require.Len(t, res.Data.LCD.Evaluations, 1)
	assert.Equal(t, state.OverallCoveragePass, res.Data.LCD.OverallCoverageStatus)
}

func TestModifierAgentSuggestsModifierFromGlobalFlag(t *testing.T) {
	s := state.NewWorkflowState("case-1")
	s.CCI = &state.CCIResult{
		GlobalFlags: []state.GlobalFlag{
			{Severity: state.SeverityWarning, AffectedCodes: []string{"12345"}, Message: "within global period", SuggestedModifier: "78"},
		},
	}

	res, err := NewModifierAgent().Execute(context.Background(), newCtx(s, nil))
	require.NoError(t, err)
	require.Len(t, res.Data.Modifiers, 1)
	require.NotNil(t, res.Data.Modifiers[0].Modifier)
	assert.Equal(t, "78", *res.Data.Modifiers[0].Modifier)
	assert.Equal(t, "12345", res.Data.Modifiers[0].LinkedCptCode)
}

func TestRVUAgentComputesSequenceOrderedByValue(t *testing.T) {
	s := state.NewWorkflowState("case-1")
	s.ProcedureCodes = []state.EnhancedProcedureCode{
		{Code: "44950", Units: 1},
		{Code: "27447", Units: 1},
	}

	res, err := NewRVUAgent().Execute(context.Background(), newCtx(s, nil))
	require.NoError(t, err)
	require.Len(t, res.Data.RVU.Calculations, 2)
	require.Len(t, res.Data.RVUSequencing.Sequence, 2)
	assert.Equal(t, "27447", res.Data.RVUSequencing.Sequence[0].Code)
	assert.Equal(t, 1, res.Data.RVUSequencing.Sequence[0].Sequence)
	assert.Greater(t, res.Data.RVUSequencing.TotalRVU, 0.0)
}

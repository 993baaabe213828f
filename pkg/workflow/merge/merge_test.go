package merge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thomasfortoul/oxkair-workflow/pkg/workflow/agent"
	"github.com/thomasfortoul/oxkair-workflow/pkg/workflow/state"
)

func cptResult() *agent.Result {
	return &agent.Result{
		AgentName: state.AgentCPT,
		Success:   true,
		Evidence: []state.StandardizedEvidence{
			{VerbatimEvidence: []string{"laparoscopic cholecystectomy"}, SourceAgent: state.AgentCPT, Confidence: 0.9},
		},
		Data: agent.ResultData{
			Kind: "cpt",
			ProcedureCodes: []state.EnhancedProcedureCode{
				{Code: "47562", Description: "Laparoscopic cholecystectomy", Units: 1},
			},
		},
	}
}

func TestMergeMonotonicity(t *testing.T) {
	m := New()
	s0 := state.NewWorkflowState("case-1")
	s1 := m.Merge(s0, cptResult())

	assert.GreaterOrEqual(t, len(s1.AllEvidence), len(s0.AllEvidence))
	assert.Equal(t, len(s0.History)+1, len(s1.History))
	require.Len(t, s1.ProcedureCodes, 1)
	assert.Equal(t, "47562", s1.ProcedureCodes[0].Code)
}

func TestMergeDedupIdempotent(t *testing.T) {
	m := New()
	s0 := state.NewWorkflowState("case-1")
	result := cptResult()

	s1 := m.Merge(s0, result)
	s2 := m.Merge(s1, result)

	assert.Len(t, s1.ProcedureCodes, 1)
	assert.Len(t, s2.ProcedureCodes, 1, "merging the same result twice must not duplicate codes")
}

func TestMergeICDFallbackPreservation(t *testing.T) {
	m := New()
	s0 := state.NewWorkflowState("case-1")
	s0 = m.Merge(s0, cptResult())

	icdResult := &agent.Result{
		AgentName: state.AgentICD,
		Success:   true,
		Evidence: []state.StandardizedEvidence{
			{VerbatimEvidence: []string{"chronic cholecystitis"}, SourceAgent: state.AgentICD, Confidence: 0.8},
		},
		Data: agent.ResultData{
			DiagnosisCodes: []state.EnhancedDiagnosisCode{
				{Code: "K81.1", Description: "Chronic cholecystitis"},
			},
		},
	}
	s1 := m.Merge(s0, icdResult)
	require.Len(t, s1.DiagnosisCodes, 1)
	assert.True(t, s1.HasICDBackup())

	// A later agent result that carries no diagnosis codes must not wipe
	// out the ICD contribution.
	laterResult := &agent.Result{
		AgentName: state.AgentCCI,
		Success:   true,
	}
	s2 := m.Merge(s1, laterResult)
	require.Len(t, s2.DiagnosisCodes, 1)
	assert.Equal(t, "K81.1", s2.DiagnosisCodes[0].Code)
}

func TestMergeEvidenceRouting(t *testing.T) {
	m := New()
	s0 := state.NewWorkflowState("case-1")
	s1 := m.Merge(s0, cptResult())

	require.Len(t, s1.AllEvidence, 1)
	assert.Equal(t, state.AgentCPT, s1.AllEvidence[0].SourceAgent)
}

func TestMergeSingleWriterCCI(t *testing.T) {
	m := New()
	s0 := state.NewWorkflowState("case-1")

	cciResult := &agent.Result{
		AgentName: state.AgentCCI,
		Success:   true,
		Data: agent.ResultData{
			CCI: &state.CCIResult{Summary: state.CCISummary{OverallStatus: state.CCIStatusPass}},
		},
	}
	s1 := m.Merge(s0, cciResult)
	require.NotNil(t, s1.CCI)
	assert.Equal(t, state.CCIStatusPass, s1.CCI.Summary.OverallStatus)

	cciResult2 := &agent.Result{
		AgentName: state.AgentCCI,
		Success:   true,
		Data: agent.ResultData{
			CCI: &state.CCIResult{Summary: state.CCISummary{OverallStatus: state.CCIStatusFail}},
		},
	}
	s2 := m.Merge(s1, cciResult2)
	assert.Equal(t, state.CCIStatusFail, s2.CCI.Summary.OverallStatus, "last write wins for single-writer fields")
}

func TestMergeAgentFailureRecordsError(t *testing.T) {
	m := New()
	s0 := state.NewWorkflowState("case-1")

	failResult := &agent.Result{
		AgentName: state.AgentICD,
		Success:   false,
		Errors: []state.ProcessingError{
			{Message: "upstream lookup failed", Severity: state.SeverityHigh},
		},
	}
	s1 := m.Merge(s0, failResult)
	require.Len(t, s1.Errors, 1)
	assert.Equal(t, "ICD", s1.Errors[0].Context["agentName"])
}

func TestUnionMergeCommutativity(t *testing.T) {
	base := state.NewWorkflowState("case-1")

	pathwayA := base.Clone()
	pathwayA.ProcedureCodes = []state.EnhancedProcedureCode{{Code: "47562", Description: "x", Units: 1}}
	pathwayA.CCI = &state.CCIResult{Summary: state.CCISummary{OverallStatus: state.CCIStatusPass}}

	pathwayB := base.Clone()
	pathwayB.DiagnosisCodes = []state.EnhancedDiagnosisCode{{Code: "K81.1", Description: "y"}}
	pathwayB.RVU = &state.RVUResult{}

	m1 := UnionMerge(base, pathwayA, pathwayB)
	m2 := UnionMerge(base, pathwayB, pathwayA)

	assert.ElementsMatch(t, codesOf(m1.ProcedureCodes), codesOf(m2.ProcedureCodes))
	assert.ElementsMatch(t, diagCodesOf(m1.DiagnosisCodes), diagCodesOf(m2.DiagnosisCodes))
	require.NotNil(t, m1.CCI)
	require.NotNil(t, m2.CCI)
	require.NotNil(t, m1.RVU)
	require.NotNil(t, m2.RVU)
}

func TestUnionMergeBaseWinsOnCollision(t *testing.T) {
	base := state.NewWorkflowState("case-1")
	base.ProcedureCodes = []state.EnhancedProcedureCode{{Code: "47562", Description: "base version", Units: 1}}

	pathway := base.Clone()
	pathway.ProcedureCodes = []state.EnhancedProcedureCode{{Code: "47562", Description: "pathway version", Units: 2}}

	out := UnionMerge(base, pathway)
	require.Len(t, out.ProcedureCodes, 1)
	assert.Equal(t, "base version", out.ProcedureCodes[0].Description)
}

func TestInitialValidateCritical(t *testing.T) {
	s := state.NewWorkflowState("")
	errs := InitialValidate(s)
	require.NotEmpty(t, errs)
	assert.Equal(t, state.SeverityCritical, errs[0].Severity)
}

func TestFinalValidateEmptyState(t *testing.T) {
	s := state.NewWorkflowState("case-1")
	errs := FinalValidate(s)
	assert.Len(t, errs, 2, "missing procedure/hcpcs codes and missing diagnosis codes")
}

func codesOf(cs []state.EnhancedProcedureCode) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.Code
	}
	return out
}

func diagCodesOf(cs []state.EnhancedDiagnosisCode) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.Code
	}
	return out
}

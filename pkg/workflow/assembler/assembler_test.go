package assembler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thomasfortoul/oxkair-workflow/pkg/workflow/state"
)

func TestAssembleEmptyStateIsTotal(t *testing.T) {
	s := state.NewWorkflowState("case-1")
	out := Assemble(s)

	assert.False(t, out.PartialData)
	assert.Empty(t, out.ProcedureCodes)
	assert.NotNil(t, out.ModifiersByCode)
}

func TestAssembleNilStateNeverPanics(t *testing.T) {
	out := Assemble(nil)
	assert.True(t, out.PartialData)
	assert.NotEmpty(t, out.TransformationError)
}

// global-period flag propagation.
func TestAssembleGlobalPeriodFlag(t *testing.T) {
	s := state.NewWorkflowState("case-1")
	s.CCI = &state.CCIResult{
		GlobalFlags: []state.GlobalFlag{
			{Severity: state.SeverityWarning, AffectedCodes: []string{"12345"}, Message: "within global period", SuggestedModifier: "78"},
		},
	}

	out := Assemble(s)
	require.Len(t, out.ComplianceIssues, 1)
	issue := out.ComplianceIssues[0]
	assert.Equal(t, "Global Period", issue.Type)
	assert.Equal(t, "WARNING", issue.Severity)
	assert.Equal(t, []string{"12345"}, issue.AffectedCodes)
	assert.Contains(t, issue.Recommendation, "78")
}

func TestAssembleClassificationNormalization(t *testing.T) {
	mod := "59"
	s := state.NewWorkflowState("case-1")
	s.Modifiers = []state.StandardizedModifier{
		{Modifier: &mod, LinkedCptCode: "47562", Classification: state.ModifierClassPricing, Rationale: "distinct procedural service"},
	}

	out := Assemble(s)
	require.Contains(t, out.ModifiersByCode, "47562")
	require.Len(t, out.ModifiersByCode["47562"], 1)
	assert.Equal(t, "Pricing", out.ModifiersByCode["47562"][0].Classification)
}

func TestAssembleHCPCSDefaults(t *testing.T) {
	s := state.NewWorkflowState("case-1")
	s.HCPCSCodes = []state.HCPCSCode{{Code: "J1234", Description: "drug"}}

	out := Assemble(s)
	require.Len(t, out.HCPCSCodes, 1)
	assert.Equal(t, 1, out.HCPCSCodes[0].Quantity)
	assert.Equal(t, "each", out.HCPCSCodes[0].Units)
	assert.Equal(t, state.HCPCSCategoryDrugs, out.HCPCSCodes[0].Category)
}

func TestAssemblePTPAndMUEFlags(t *testing.T) {
	s := state.NewWorkflowState("case-1")
	s.CCI = &state.CCIResult{
		PTPFlags: []state.PTPFlag{{Severity: state.SeverityError, AffectedCodes: []string{"11000", "11001"}, Message: "bundled", AllowedModifiers: []string{"59"}}},
		MUEFlags: []state.MUEFlag{{Severity: state.SeverityWarning, AffectedCodes: []string{"99999"}, Message: "units exceeded", ClaimedUnits: 5, MaxUnits: 2}},
	}

	out := Assemble(s)
	require.Len(t, out.ComplianceIssues, 2)
	assert.Equal(t, "CCI Edit", out.ComplianceIssues[0].Type)
	assert.Contains(t, out.ComplianceIssues[0].Recommendation, "59")
	assert.Equal(t, "MUE", out.ComplianceIssues[1].Type)
	assert.Contains(t, out.ComplianceIssues[1].Recommendation, "5")
}

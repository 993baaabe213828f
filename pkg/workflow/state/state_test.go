package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWorkflowState(t *testing.T) {
	s := NewWorkflowState("case-1")
	assert.Equal(t, "case-1", s.Meta.CaseID)
	assert.Equal(t, CaseStatusPending, s.Meta.Status)
	assert.Empty(t, s.ProcedureCodes)
	assert.Empty(t, s.DiagnosisCodes)
	assert.False(t, s.HasICDBackup())
}

func TestCloneIsIndependent(t *testing.T) {
	s := NewWorkflowState("case-1")
	s.ProcedureCodes = append(s.ProcedureCodes, EnhancedProcedureCode{Code: "47562"})
	s.CCI = &CCIResult{Summary: CCISummary{OverallStatus: CCIStatusPass}}

	clone := s.Clone()
	require.Len(t, clone.ProcedureCodes, 1)

	clone.ProcedureCodes[0].Code = "00000"
	clone.CCI.Summary.OverallStatus = CCIStatusFail

	assert.Equal(t, "47562", s.ProcedureCodes[0].Code, "mutating the clone must not affect the original")
	assert.Equal(t, CCIStatusPass, s.CCI.Summary.OverallStatus)
}

func TestICDBackupRestore(t *testing.T) {
	s := NewWorkflowState("case-1")
	s.DiagnosisCodes = []EnhancedDiagnosisCode{{Code: "K80.20"}}
	s.BackupICD()
	assert.True(t, s.HasICDBackup())

	s.DiagnosisCodes = []EnhancedDiagnosisCode{{Code: "BAD"}}
	s.RestoreICD()

	require.Len(t, s.DiagnosisCodes, 1)
	assert.Equal(t, "K80.20", s.DiagnosisCodes[0].Code)
}

func TestHasCriticalError(t *testing.T) {
	s := NewWorkflowState("case-1")
	assert.False(t, s.HasCriticalError())

	s.AppendError(ProcessingError{Message: "bad demographics", Severity: SeverityCritical})
	assert.True(t, s.HasCriticalError())
}

func TestCategorizeHCPCS(t *testing.T) {
	cases := map[string]HCPCSCategory{
		"J1234": HCPCSCategoryDrugs,
		"E0100": HCPCSCategoryDME,
		"A4550": HCPCSCategorySupplies,
		"T2001": HCPCSCategoryTransportation,
		"Q0091": HCPCSCategoryOther,
		"":      HCPCSCategoryOther,
	}
	for code, want := range cases {
		assert.Equal(t, want, CategorizeHCPCS(code), "code=%s", code)
	}
}

func TestNormalizeAgentName(t *testing.T) {
	assert.Equal(t, AgentCCI, NormalizeAgentName("COMPLIANCE"))
	assert.Equal(t, AgentName("ICD"), NormalizeAgentName("ICD"))
}

func TestDemographicsValid(t *testing.T) {
	age := 45
	d := Demographics{Age: &age, Gender: GenderFemale}
	assert.True(t, d.Valid())

	badAge := -1
	d2 := Demographics{Age: &badAge}
	assert.False(t, d2.Valid())

	d3 := Demographics{Gender: "X"}
	assert.False(t, d3.Valid())
}

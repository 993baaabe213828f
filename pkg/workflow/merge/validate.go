package merge

import (
	"github.com/thomasfortoul/oxkair-workflow/pkg/workflow/state"
)

// InitialValidate runs the "initial" validation pass, before any agent
// has run: caseId presence (CRITICAL), patientId presence (HIGH),
// demographics bounds. Returns the ProcessingErrors found; callers append
// them directly to state and check HasCriticalError/HasHighError
// afterwards.
func InitialValidate(s *state.WorkflowState) []state.ProcessingError {
	var errs []state.ProcessingError

	if s.Meta.CaseID == "" {
		errs = append(errs, state.ProcessingError{
			Message:  "caseId is required",
			Severity: state.SeverityCritical,
			Source:   "system",
		})
	}
	if s.Meta.PatientID == "" {
		errs = append(errs, state.ProcessingError{
			Message:  "patientId is required",
			Severity: state.SeverityHigh,
			Source:   "system",
		})
	}
	if !s.Demographics.Valid() {
		errs = append(errs, state.ProcessingError{
			Message:  "demographics out of bounds",
			Severity: state.SeverityMedium,
			Source:   "system",
		})
	}

	return errs
}

// FinalValidate runs the "final" validation pass, after Phase 2 has
// settled: at least one procedure or HCPCS code (MEDIUM), at least one
// diagnosis code (MEDIUM), a failing LCD coverage status (LOW), and
// well-formed RVU calculations.
func FinalValidate(s *state.WorkflowState) []state.ProcessingError {
	var errs []state.ProcessingError

	if len(s.ProcedureCodes) == 0 && len(s.HCPCSCodes) == 0 {
		errs = append(errs, state.ProcessingError{
			Message:  "no procedure or HCPCS codes present",
			Severity: state.SeverityMedium,
			Source:   "system",
		})
	}
	if len(s.DiagnosisCodes) == 0 {
		errs = append(errs, state.ProcessingError{
			Message:  "no diagnosis codes present",
			Severity: state.SeverityMedium,
			Source:   "system",
		})
	}
	if s.LCD != nil && s.LCD.OverallCoverageStatus == state.OverallCoverageFail {
		errs = append(errs, state.ProcessingError{
			Message:  "LCD overall coverage status is Fail",
			Severity: state.SeverityLow,
			Source:   "LCD",
		})
	}
	if s.RVU != nil {
		for _, calc := range s.RVU.Calculations {
			if calc.Code == "" {
				errs = append(errs, state.ProcessingError{
					Message:  "malformed RVU calculation: missing code",
					Severity: state.SeverityMedium,
					Source:   "RVU",
				})
				break
			}
		}
	}

	return errs
}

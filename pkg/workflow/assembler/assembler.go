// Package assembler implements the total, panic-safe transformation from
// final WorkflowState to the external CaseOutput artifact.
package assembler

import (
	"fmt"
	"strings"
	"time"

	"github.com/thomasfortoul/oxkair-workflow/pkg/workflow/state"
)

// Encounter is the demographics/dateOfService projection.
type Encounter struct {
	ServiceDate   time.Time         `json:"serviceDate"`
	EncounterDate time.Time         `json:"encounterDate"`
	Demographics  state.Demographics `json:"demographics"`
}

// ProcedureCodeOutput is one assembled procedure-code line.
type ProcedureCodeOutput struct {
	Code        string               `json:"code"`
	Description string               `json:"description"`
	Units       int                  `json:"units"`
	RVU         state.RVUComponents  `json:"rvu"`
}

// HCPCSCodeOutput is one assembled HCPCS line.
type HCPCSCodeOutput struct {
	Code        string              `json:"code"`
	Description string              `json:"description"`
	Quantity    int                 `json:"quantity"`
	Units       string              `json:"units"`
	Category    state.HCPCSCategory `json:"category"`
}

// AppliedModifier is one entry of modifiersByCode.
type AppliedModifier struct {
	Modifier              string                       `json:"modifier"`
	Source                string                       `json:"source"`
	Rationale             string                       `json:"rationale"`
	Timestamp             time.Time                    `json:"timestamp"`
	Classification        string                       `json:"classification"`
	FeeAdjustment         string                       `json:"feeAdjustment"`
	Evidence              []state.StandardizedEvidence `json:"evidence,omitempty"`
	RequiredDocumentation state.RequiredDocumentation  `json:"requiredDocumentation"`
}

// ComplianceIssue is one translated CCI flag.
type ComplianceIssue struct {
	Type           string   `json:"type"`
	Description    string   `json:"description"`
	Severity       string   `json:"severity"`
	AffectedCodes  []string `json:"affectedCodes"`
	Recommendation string   `json:"recommendation"`
}

// RVUSequencingOutput is the assembled rvuSequencing field.
type RVUSequencingOutput struct {
	Sequence []state.SequencedLine `json:"sequence"`
	TotalRVU float64               `json:"totalRvu"`
}

// CaseOutput is the external artifact shape.
type CaseOutput struct {
	Encounter              Encounter                    `json:"encounter"`
	ProcedureCodes         []ProcedureCodeOutput        `json:"procedureCodes"`
	HCPCSCodes             []HCPCSCodeOutput            `json:"hcpcsCodes"`
	DiagnosisCodes         []state.EnhancedDiagnosisCode `json:"diagnosisCodes"`
	ModifierSuggestions    []state.StandardizedModifier `json:"modifierSuggestions"`
	ModifiersByCode        map[string][]AppliedModifier `json:"modifiersByCode"`
	ComplianceIssues       []ComplianceIssue            `json:"complianceIssues"`
	RVUSequencing          RVUSequencingOutput           `json:"rvuSequencing"`
	ClinicalContextSummary string                       `json:"clinicalContextSummary"`
	PartialData            bool                          `json:"partialData"`
	TransformationError    string                        `json:"transformationError,omitempty"`
}

// Assemble transforms s into a CaseOutput. It is total: any internal panic
// is recovered and surfaced as a minimal CaseOutput with PartialData=true,
// never propagated to the caller. PartialData is also set when s itself
// reflects a halted run (CaseStatusError), even though transformation
// itself succeeded, since the underlying state it was built from is
// incomplete.
func Assemble(s *state.WorkflowState) (out CaseOutput) {
	defer func() {
		if r := recover(); r != nil {
			out = CaseOutput{
				ModifiersByCode:     map[string][]AppliedModifier{},
				PartialData:         true,
				TransformationError: fmt.Sprintf("assembly panic: %v", r),
			}
		}
	}()

	if s == nil {
		return CaseOutput{
			ModifiersByCode:     map[string][]AppliedModifier{},
			PartialData:         true,
			TransformationError: "nil workflow state",
		}
	}

	out.Encounter = buildEncounter(s)
	out.ProcedureCodes = buildProcedureCodes(s)
	out.HCPCSCodes = buildHCPCSCodes(s)
	out.DiagnosisCodes = append([]state.EnhancedDiagnosisCode(nil), s.DiagnosisCodes...)
	out.ModifierSuggestions = append([]state.StandardizedModifier(nil), s.Modifiers...)
	out.ModifiersByCode = buildModifiersByCode(s)
	out.ComplianceIssues = buildComplianceIssues(s)
	out.RVUSequencing = buildRVUSequencing(s)
	out.ClinicalContextSummary = ""
	out.PartialData = s.Meta.Status == state.CaseStatusError

	return out
}

func buildEncounter(s *state.WorkflowState) Encounter {
	serviceDate := s.Meta.DateOfService
	if serviceDate.IsZero() {
		serviceDate = time.Now()
	}
	return Encounter{
		ServiceDate:   serviceDate,
		EncounterDate: serviceDate,
		Demographics:  s.Demographics,
	}
}

func buildProcedureCodes(s *state.WorkflowState) []ProcedureCodeOutput {
	rvuByCode := map[string]state.RVUComponents{}
	if s.RVU != nil {
		for _, calc := range s.RVU.Calculations {
			rvuByCode[calc.Code] = calc.AdjustedRVU
		}
	}

	out := make([]ProcedureCodeOutput, 0, len(s.ProcedureCodes))
	for _, c := range s.ProcedureCodes {
		rvu := state.RVUComponents{}
		if v, ok := rvuByCode[c.Code]; ok {
			rvu = v
		} else if c.RVU != nil {
			rvu = *c.RVU
		}
		out = append(out, ProcedureCodeOutput{
			Code:        c.Code,
			Description: c.Description,
			Units:       c.Units,
			RVU:         rvu,
		})
	}
	return out
}

func buildHCPCSCodes(s *state.WorkflowState) []HCPCSCodeOutput {
	out := make([]HCPCSCodeOutput, 0, len(s.HCPCSCodes))
	for _, c := range s.HCPCSCodes {
		quantity := c.Units
		if quantity <= 0 {
			quantity = 1
		}
		category := c.Category
		if category == "" {
			category = state.CategorizeHCPCS(c.Code)
		}
		out = append(out, HCPCSCodeOutput{
			Code:        c.Code,
			Description: c.Description,
			Quantity:    quantity,
			Units:       "each",
			Category:    category,
		})
	}
	return out
}

func buildModifiersByCode(s *state.WorkflowState) map[string][]AppliedModifier {
	byCode := map[string][]AppliedModifier{}
	for _, m := range s.Modifiers {
		if m.Modifier == nil {
			continue
		}
		byCode[m.LinkedCptCode] = append(byCode[m.LinkedCptCode], AppliedModifier{
			Modifier:              *m.Modifier,
			Source:                "AI",
			Rationale:             m.Rationale,
			Timestamp:             time.Now(),
			Classification:        titleCase(string(m.Classification)),
			FeeAdjustment:         m.FeeAdjustment,
			Evidence:              m.Evidence,
			RequiredDocumentation: m.RequiredDocumentation,
		})
	}
	return byCode
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}

func buildComplianceIssues(s *state.WorkflowState) []ComplianceIssue {
	if s.CCI == nil {
		return nil
	}
	var issues []ComplianceIssue

	for _, f := range s.CCI.PTPFlags {
		rec := ""
		if len(f.AllowedModifiers) > 0 {
			rec = "Allowed modifiers: " + strings.Join(f.AllowedModifiers, ", ")
		}
		issues = append(issues, ComplianceIssue{
			Type: "CCI Edit", Description: f.Message, Severity: string(f.Severity),
			AffectedCodes: f.AffectedCodes, Recommendation: rec,
		})
	}
	for _, f := range s.CCI.MUEFlags {
		rec := fmt.Sprintf("Claimed %d units exceeds maximum of %d", f.ClaimedUnits, f.MaxUnits)
		issues = append(issues, ComplianceIssue{
			Type: "MUE", Description: f.Message, Severity: string(f.Severity),
			AffectedCodes: f.AffectedCodes, Recommendation: rec,
		})
	}
	for _, f := range s.CCI.GlobalFlags {
		rec := f.Remediation
		if f.SuggestedModifier != "" {
			rec = fmt.Sprintf("Consider modifier %s. %s", f.SuggestedModifier, rec)
		}
		issues = append(issues, ComplianceIssue{
			Type: "Global Period", Description: f.Message, Severity: string(f.Severity),
			AffectedCodes: f.AffectedCodes, Recommendation: rec,
		})
	}
	for _, f := range s.CCI.RVUFlags {
		issues = append(issues, ComplianceIssue{
			Type: "RVU", Description: f.Message, Severity: string(state.SeverityWarning),
			AffectedCodes: f.AffectedCodes, Recommendation: f.Remediation,
		})
	}

	return issues
}

func buildRVUSequencing(s *state.WorkflowState) RVUSequencingOutput {
	if s.RVUSequencing == nil {
		return RVUSequencingOutput{Sequence: []state.SequencedLine{}, TotalRVU: 0}
	}
	return RVUSequencingOutput{
		Sequence: append([]state.SequencedLine(nil), s.RVUSequencing.Sequence...),
		TotalRVU: s.RVUSequencing.TotalRVU,
	}
}

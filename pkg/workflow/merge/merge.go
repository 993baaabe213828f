// Package merge implements the deterministic rules that integrate one
// agent's result into a WorkflowState without losing data produced by
// concurrent agents, plus the set-union rendezvous the orchestrator uses
// after the three Phase 2 pathways settle.
package merge

import (
	"github.com/thomasfortoul/oxkair-workflow/pkg/workflow/agent"
	"github.com/thomasfortoul/oxkair-workflow/pkg/workflow/state"
)

// Merger folds agent.Result values into a WorkflowState.
type Merger struct{}

// New builds a Merger. It carries no state of its own; a value receiver
// would do just as well but a constructor keeps call sites consistent with
// the rest of the workflow packages.
func New() *Merger {
	return &Merger{}
}

// Merge returns a new WorkflowState with result folded in. s is never
// mutated: bump updatedAt, append evidence, append a history entry carrying
// evidenceCount/executionTime/confidence, append any errors, route evidence
// by source agent, fold finalModifiers/rvuSequencingResult shortcuts, then
// apply the ICD fallback-preservation rule.
func (m *Merger) Merge(s *state.WorkflowState, result *agent.Result) *state.WorkflowState {
	out := s.Clone()

	out.Touch()
	if out.Meta.Status == state.CaseStatusPending {
		out.Meta.Status = state.CaseStatusProcessing
	}

	out.AllEvidenceAppend(result.Evidence)

	historyResult := state.HistoryFailure
	if result.Success {
		historyResult = state.HistorySuccess
	}
	out.AppendHistory(state.HistoryEntry{
		AgentName: string(result.AgentName),
		Action:    "agent_execution",
		Result:    historyResult,
		Details: map[string]interface{}{
			"evidenceCount": len(result.Evidence),
			"executionTime": result.ExecutionTimeMs,
			"confidence":    result.Confidence,
		},
	})

	for _, pe := range result.Errors {
		if pe.Context == nil {
			pe.Context = map[string]interface{}{}
		}
		pe.Context["agentName"] = string(result.AgentName)
		if pe.Source == "" {
			pe.Source = string(result.AgentName)
		}
		out.AppendError(pe)
	}

	if result.Success {
		m.route(out, result)
		out.Modifiers = appendModifiers(out.Modifiers, result.Data.Modifiers)
		if result.Data.RVUSequencing != nil {
			out.RVUSequencing = result.Data.RVUSequencing
		}
	}

	out.RestoreICDIfEmpty()

	return out
}

// route applies the per-source-agent field writes of the table. It
// dispatches on state.NormalizeAgentName(result.AgentName) so the legacy
// "COMPLIANCE" alias lands on the same path as "CCI".
func (m *Merger) route(out *state.WorkflowState, result *agent.Result) {
	name := state.NormalizeAgentName(string(result.AgentName))
	data := result.Data

	switch name {
	case state.AgentCPT:
		out.ProcedureCodes = appendProcedureCodes(out.ProcedureCodes, data.ProcedureCodes)

	case state.AgentICD:
		if len(data.DiagnosisCodes) == 0 {
			return
		}
		out.DiagnosisCodes = appendDiagnosisCodes(out.DiagnosisCodes, data.DiagnosisCodes)
		out.BackupICD()
		linkProcedureCodes(out, data.DiagnosisCodes)

	case state.AgentCCI:
		out.ProcedureCodes = appendProcedureCodes(out.ProcedureCodes, data.ProcedureCodes)
		out.DiagnosisCodes = appendDiagnosisCodes(out.DiagnosisCodes, data.DiagnosisCodes)
		if data.CCI != nil {
			out.CCI = data.CCI
		}
		if data.MUE != nil {
			out.MUE = data.MUE
		}

	case state.AgentLCD:
		if data.LCD != nil {
			out.LCD = data.LCD
		}

	case state.AgentModifier:
		out.Modifiers = appendModifiers(out.Modifiers, data.Modifiers)

	case state.AgentRVU:
		if data.RVU != nil {
			out.RVU = data.RVU
		}
		if data.RVUSequencing != nil {
			out.RVUSequencing = data.RVUSequencing
		}
	}
}

// ValidProcedureCode is the validity predicate for procedure codes.
func ValidProcedureCode(c state.EnhancedProcedureCode) bool {
	return c.Code != "" && c.Description != "" && c.Units > 0
}

// ValidDiagnosisCode is the validity predicate for diagnosis codes.
func ValidDiagnosisCode(c state.EnhancedDiagnosisCode) bool {
	return c.Code != "" && c.Description != ""
}

// ValidModifier is the validity predicate for final modifiers: a
// linked CPT code, an optional modifier string, description/rationale, and a
// recognized classification. RequiredDocumentation and FeeAdjustment are
// not checked.
func ValidModifier(mod state.StandardizedModifier) bool {
	if mod.LinkedCptCode == "" {
		return false
	}
	if mod.Description == "" || mod.Rationale == "" {
		return false
	}
	switch mod.Classification {
	case state.ModifierClassPricing, state.ModifierClassPayment, state.ModifierClassLocation, state.ModifierClassInformational:
	default:
		return false
	}
	return true
}

func appendProcedureCodes(base []state.EnhancedProcedureCode, incoming []state.EnhancedProcedureCode) []state.EnhancedProcedureCode {
	seen := make(map[string]bool, len(base))
	for _, c := range base {
		seen[c.Code] = true
	}
	for _, c := range incoming {
		if !ValidProcedureCode(c) || seen[c.Code] {
			continue
		}
		seen[c.Code] = true
		base = append(base, c)
	}
	return base
}

func appendDiagnosisCodes(base []state.EnhancedDiagnosisCode, incoming []state.EnhancedDiagnosisCode) []state.EnhancedDiagnosisCode {
	seen := make(map[string]bool, len(base))
	for _, c := range base {
		seen[c.Code] = true
	}
	for _, c := range incoming {
		if !ValidDiagnosisCode(c) || seen[c.Code] {
			continue
		}
		seen[c.Code] = true
		base = append(base, c)
	}
	return base
}

func appendModifiers(base []state.StandardizedModifier, incoming []state.StandardizedModifier) []state.StandardizedModifier {
	seen := make(map[string]bool, len(base))
	for _, mo := range base {
		seen[modifierKey(mo)] = true
	}
	for _, mo := range incoming {
		if !ValidModifier(mo) {
			continue
		}
		key := modifierKey(mo)
		if seen[key] {
			continue
		}
		seen[key] = true
		base = append(base, mo)
	}
	return base
}

func modifierKey(mo state.StandardizedModifier) string {
	mod := ""
	if mo.Modifier != nil {
		mod = *mo.Modifier
	}
	return mo.LinkedCptCode + "|" + mod
}

// linkProcedureCodes updates procedureCodes[i].ICD10Linked where an
// incoming diagnosis code names a linkedCptCode matching that procedure.
func linkProcedureCodes(out *state.WorkflowState, incoming []state.EnhancedDiagnosisCode) {
	byCPT := make(map[string][]string)
	for _, d := range incoming {
		if d.LinkedCptCode == nil || *d.LinkedCptCode == "" {
			continue
		}
		byCPT[*d.LinkedCptCode] = append(byCPT[*d.LinkedCptCode], d.Code)
	}
	if len(byCPT) == 0 {
		return
	}
	for i := range out.ProcedureCodes {
		codes, ok := byCPT[out.ProcedureCodes[i].Code]
		if !ok {
			continue
		}
		out.ProcedureCodes[i].ICD10Linked = mergeUnique(out.ProcedureCodes[i].ICD10Linked, codes)
	}
}

func mergeUnique(base []string, incoming []string) []string {
	seen := make(map[string]bool, len(base))
	for _, v := range base {
		seen[v] = true
	}
	for _, v := range incoming {
		if seen[v] {
			continue
		}
		seen[v] = true
		base = append(base, v)
	}
	return base
}

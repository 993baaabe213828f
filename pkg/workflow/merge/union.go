package merge

import (
	"github.com/thomasfortoul/oxkair-workflow/pkg/workflow/state"
)

// UnionMerge performs the inter-pathway rendezvous: base is the
// post-CPT state the three Phase 2 pathways branched from; pathways holds
// each pathway's resulting state, in any order — the merge is commutative.
// UnionMerge does not mutate base or any pathway entry; it returns a new
// state.
//
// union fields (procedureCodes, diagnosisCodes, hcpcsCodes, finalModifiers):
// base wins on collision. Single-writer analysis fields: the first pathway
// that carries a non-nil value wins if base doesn't already have one — at
// most one pathway is expected to write each given the fixed topology, so
// order only matters in the (invalid-input) case of two pathways racing to
// write the same field, which this resolves deterministically by keeping
// whichever is encountered first in the pathways slice.
func UnionMerge(base *state.WorkflowState, pathways ...*state.WorkflowState) *state.WorkflowState {
	out := base.Clone()

	for _, p := range pathways {
		if p == nil {
			continue
		}
		out.ProcedureCodes = unionProcedureCodes(out.ProcedureCodes, p.ProcedureCodes)
		out.DiagnosisCodes = unionDiagnosisCodes(out.DiagnosisCodes, p.DiagnosisCodes)
		out.HCPCSCodes = unionHCPCSCodes(out.HCPCSCodes, p.HCPCSCodes)
		out.Modifiers = unionModifiers(out.Modifiers, p.Modifiers)

		// p is a clone of base plus whatever its pathway appended; only the
		// delta beyond base's own prefix belongs in the union, or base's
		// contribution would be duplicated once per pathway.
		out.AllEvidence = append(out.AllEvidence, deltaEvidence(base.AllEvidence, p.AllEvidence)...)
		out.History = append(out.History, deltaHistory(base.History, p.History)...)
		out.Errors = append(out.Errors, deltaErrors(base.Errors, p.Errors)...)

		for _, step := range p.CompletedSteps {
			out.MarkStepCompleted(step)
		}

		if out.CCI == nil && p.CCI != nil {
			out.CCI = p.CCI
		}
		if out.MUE == nil && p.MUE != nil {
			out.MUE = p.MUE
		}
		if out.LCD == nil && p.LCD != nil {
			out.LCD = p.LCD
		}
		if out.RVU == nil && p.RVU != nil {
			out.RVU = p.RVU
		}
		if out.RVUSequencing == nil && p.RVUSequencing != nil {
			out.RVUSequencing = p.RVUSequencing
		}
		if !out.HasICDBackup() && p.HasICDBackup() {
			out.SetICDBackup(p.ICDBackup())
		}

		if p.UpdatedAt.After(out.UpdatedAt) {
			out.UpdatedAt = p.UpdatedAt
		}
	}

	out.RestoreICDIfEmpty()

	return out
}

// deltaEvidence returns p beyond basePrefix's length. Every pathway state is
// a clone of the same base, so basePrefix is always a prefix of p; slicing
// past it is what keeps the base's own contribution from being counted once
// per pathway.
func deltaEvidence(basePrefix, p []state.StandardizedEvidence) []state.StandardizedEvidence {
	if len(p) <= len(basePrefix) {
		return nil
	}
	return p[len(basePrefix):]
}

func deltaHistory(basePrefix, p []state.HistoryEntry) []state.HistoryEntry {
	if len(p) <= len(basePrefix) {
		return nil
	}
	return p[len(basePrefix):]
}

func deltaErrors(basePrefix, p []state.ProcessingError) []state.ProcessingError {
	if len(p) <= len(basePrefix) {
		return nil
	}
	return p[len(basePrefix):]
}

func unionProcedureCodes(base, incoming []state.EnhancedProcedureCode) []state.EnhancedProcedureCode {
	seen := make(map[string]bool, len(base))
	for _, c := range base {
		seen[c.Code] = true
	}
	for _, c := range incoming {
		if seen[c.Code] {
			continue
		}
		seen[c.Code] = true
		base = append(base, c)
	}
	return base
}

func unionDiagnosisCodes(base, incoming []state.EnhancedDiagnosisCode) []state.EnhancedDiagnosisCode {
	seen := make(map[string]bool, len(base))
	for _, c := range base {
		seen[c.Code] = true
	}
	for _, c := range incoming {
		if seen[c.Code] {
			continue
		}
		seen[c.Code] = true
		base = append(base, c)
	}
	return base
}

func unionHCPCSCodes(base, incoming []state.HCPCSCode) []state.HCPCSCode {
	seen := make(map[string]bool, len(base))
	for _, c := range base {
		seen[c.Code] = true
	}
	for _, c := range incoming {
		if seen[c.Code] {
			continue
		}
		seen[c.Code] = true
		base = append(base, c)
	}
	return base
}

func unionModifiers(base, incoming []state.StandardizedModifier) []state.StandardizedModifier {
	seen := make(map[string]bool, len(base))
	for _, mo := range base {
		seen[modifierKey(mo)] = true
	}
	for _, mo := range incoming {
		key := modifierKey(mo)
		if seen[key] {
			continue
		}
		seen[key] = true
		base = append(base, mo)
	}
	return base
}

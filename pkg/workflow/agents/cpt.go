// Package agents provides reference implementations of the six pathway
// stages. Each is a deliberately simple, deterministic stand-in for the
// black-box NLP/policy logic a production deployment would plug in; they
// exist so the orchestrator has something real to run end to end.
package agents

import (
	"context"
	"strings"

	"github.com/thomasfortoul/oxkair-workflow/pkg/workflow/agent"
	"github.com/thomasfortoul/oxkair-workflow/pkg/workflow/state"
)

// cptEntry is one phrase->code mapping the CPT agent recognizes.
type cptEntry struct {
	phrase      string
	code        string
	description string
}

// cptTable is a small, fixed lexicon; a production agent would replace
// this with a real NLP/policy lookup service.
var cptTable = []cptEntry{
	{phrase: "laparoscopic cholecystectomy", code: "47562", description: "Laparoscopic cholecystectomy"},
	{phrase: "open appendectomy", code: "44950", description: "Appendectomy"},
	{phrase: "total knee arthroplasty", code: "27447", description: "Arthroplasty, knee, total"},
}

// CPTAgent extracts CPT procedure codes from the primary note text.
type CPTAgent struct{}

// NewCPTAgent builds a CPTAgent.
func NewCPTAgent() *CPTAgent { return &CPTAgent{} }

func (a *CPTAgent) Name() state.AgentName { return state.AgentCPT }

// Execute scans CaseNotes.PrimaryNoteText for recognized procedure
// phrases. An agent that finds nothing still returns Success=true with
// empty evidence.
func (a *CPTAgent) Execute(ctx context.Context, ac *agent.Context) (*agent.Result, error) {
	text := strings.ToLower(ac.Input.Notes.PrimaryNoteText)

	var codes []state.EnhancedProcedureCode
	var evidence []state.StandardizedEvidence

	for _, entry := range cptTable {
		if !strings.Contains(text, entry.phrase) {
			continue
		}
		ev := state.StandardizedEvidence{
			VerbatimEvidence: []string{entry.phrase},
			Rationale:        "matched procedure phrase in operative note",
			SourceAgent:      state.AgentCPT,
			SourceNote:       state.NoteTypeOperative,
			Confidence:       0.9,
		}
		evidence = append(evidence, ev)
		codes = append(codes, state.EnhancedProcedureCode{
			Code:        entry.code,
			Description: entry.description,
			Units:       1,
			Evidence:    []state.StandardizedEvidence{ev},
			IsPrimary:   len(codes) == 0,
		})
	}

	return &agent.Result{
		AgentName:  state.AgentCPT,
		Success:    true,
		Evidence:   evidence,
		Data:       agent.ResultData{Kind: "cpt", ProcedureCodes: codes},
		Confidence: 0.9,
	}, nil
}

package agents

import (
	"context"
	"strings"

	"github.com/thomasfortoul/oxkair-workflow/pkg/workflow/agent"
	"github.com/thomasfortoul/oxkair-workflow/pkg/workflow/state"
)

type icdEntry struct {
	phrase      string
	code        string
	description string
	linkedCPT   string
}

var icdTable = []icdEntry{
	{phrase: "cholecystitis", code: "K81.1", description: "Chronic cholecystitis", linkedCPT: "47562"},
	{phrase: "appendicitis", code: "K37", description: "Unspecified appendicitis", linkedCPT: "44950"},
	{phrase: "osteoarthritis of the knee", code: "M17.11", description: "Unilateral primary osteoarthritis, right knee", linkedCPT: "27447"},
}

// ICDAgent extracts ICD-10 diagnosis codes from the primary note text,
// linking each to the CPT code its table entry names. The procedure codes
// already in state are not consulted.
type ICDAgent struct{}

func NewICDAgent() *ICDAgent { return &ICDAgent{} }

func (a *ICDAgent) Name() state.AgentName { return state.AgentICD }

func (a *ICDAgent) Execute(ctx context.Context, ac *agent.Context) (*agent.Result, error) {
	text := strings.ToLower(ac.Input.Notes.PrimaryNoteText)

	var codes []state.EnhancedDiagnosisCode
	var evidence []state.StandardizedEvidence

	for _, entry := range icdTable {
		if !strings.Contains(text, entry.phrase) {
			continue
		}
		ev := state.StandardizedEvidence{
			VerbatimEvidence: []string{entry.phrase},
			Rationale:        "matched diagnosis phrase in operative note",
			SourceAgent:      state.AgentICD,
			SourceNote:       state.NoteTypeOperative,
			Confidence:       0.85,
		}
		evidence = append(evidence, ev)
		linked := entry.linkedCPT
		codes = append(codes, state.EnhancedDiagnosisCode{
			Code:          entry.code,
			Description:   entry.description,
			Evidence:      []state.StandardizedEvidence{ev},
			LinkedCptCode: &linked,
		})
	}

	return &agent.Result{
		AgentName:  state.AgentICD,
		Success:    true,
		Evidence:   evidence,
		Data:       agent.ResultData{Kind: "icd", DiagnosisCodes: codes},
		Confidence: 0.85,
	}, nil
}

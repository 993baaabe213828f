package agents

import (
	"context"

	"github.com/thomasfortoul/oxkair-workflow/pkg/workflow/agent"
	"github.com/thomasfortoul/oxkair-workflow/pkg/workflow/state"
)

// mueLimits is a small fixed table of per-code maximum allowed units.
var mueLimits = map[string]int{
	"47562": 1,
	"44950": 1,
	"27447": 2,
}

// CCIAgent evaluates bundling (PTP) and Medically Unlikely Edit (MUE)
// rules against the procedure codes already in state.
type CCIAgent struct{}

func NewCCIAgent() *CCIAgent { return &CCIAgent{} }

func (a *CCIAgent) Name() state.AgentName { return state.AgentCCI }

func (a *CCIAgent) Execute(ctx context.Context, ac *agent.Context) (*agent.Result, error) {
	var mueFlags []state.MUEFlag
	var evidence []state.StandardizedEvidence

	for _, code := range ac.Input.ProcedureCodes {
		limit, ok := mueLimits[code.Code]
		if !ok || code.Units <= limit {
			continue
		}
		mueFlags = append(mueFlags, state.MUEFlag{
			Severity:      state.SeverityWarning,
			AffectedCodes: []string{code.Code},
			Message:       "claimed units exceed the medically unlikely edit limit",
			ClaimedUnits:  code.Units,
			MaxUnits:      limit,
		})
		evidence = append(evidence, state.StandardizedEvidence{
			Rationale:   "units compared against MUE table",
			SourceAgent: state.AgentCCI,
			SourceNote:  state.NoteTypeOperative,
			Confidence:  1.0,
		})
	}

	status := state.CCIStatusPass
	if len(mueFlags) > 0 {
		status = state.CCIStatusWarning
	}

	cciResult := &state.CCIResult{
		MUEFlags: mueFlags,
		Summary: state.CCISummary{
			WarningCount:  len(mueFlags),
			OverallStatus: status,
		},
	}

	return &agent.Result{
		AgentName: state.AgentCCI,
		Success:   true,
		Evidence:  evidence,
		Data: agent.ResultData{
			Kind: "cci",
			CCI:  cciResult,
			MUE:  &state.MUEResult{Flags: mueFlags, OverallStatus: status},
		},
		Confidence: 1.0,
	}, nil
}

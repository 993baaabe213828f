package agents

import (
	"context"

	"github.com/thomasfortoul/oxkair-workflow/pkg/workflow/agent"
	"github.com/thomasfortoul/oxkair-workflow/pkg/workflow/state"
)

// ModifierAgent standardizes billing modifiers suggested by the CCI
// pathway's global-period and bundling flags, one modifier per affected
// code (the topology: CCI -> MODIFIER).
type ModifierAgent struct{}

func NewModifierAgent() *ModifierAgent { return &ModifierAgent{} }

func (a *ModifierAgent) Name() state.AgentName { return state.AgentModifier }

func (a *ModifierAgent) Execute(ctx context.Context, ac *agent.Context) (*agent.Result, error) {
	var mods []state.StandardizedModifier
	var evidence []state.StandardizedEvidence

	if ac.Input.CCI != nil {
		for _, gf := range ac.Input.CCI.GlobalFlags {
			if gf.SuggestedModifier == "" {
				continue
			}
			for _, code := range gf.AffectedCodes {
				ev := state.StandardizedEvidence{
					Rationale:   "global period flag on affected code",
					SourceAgent: state.AgentModifier,
					SourceNote:  state.NoteTypeOperative,
					Confidence:  0.75,
				}
				evidence = append(evidence, ev)
				modifier := gf.SuggestedModifier
				mods = append(mods, state.StandardizedModifier{
					Modifier:      &modifier,
					Description:   "Unplanned return to the operating room during the global period",
					Rationale:     gf.Message,
					LinkedCptCode: code,
					Evidence:      []state.StandardizedEvidence{ev},
					Classification: state.ModifierClassPayment,
				})
			}
		}
		for _, pf := range ac.Input.CCI.PTPFlags {
			if len(pf.AllowedModifiers) == 0 {
				continue
			}
			for _, code := range pf.AffectedCodes {
				ev := state.StandardizedEvidence{
					Rationale:   "PTP edit allows a bypass modifier",
					SourceAgent: state.AgentModifier,
					SourceNote:  state.NoteTypeOperative,
					Confidence:  0.7,
				}
				evidence = append(evidence, ev)
				modifier := pf.AllowedModifiers[0]
				mods = append(mods, state.StandardizedModifier{
					Modifier:       &modifier,
					Description:    "Distinct procedural service",
					Rationale:      pf.Message,
					LinkedCptCode:  code,
					Evidence:       []state.StandardizedEvidence{ev},
					Classification: state.ModifierClassPricing,
				})
			}
		}
	}

	return &agent.Result{
		AgentName:  state.AgentModifier,
		Success:    true,
		Evidence:   evidence,
		Data:       agent.ResultData{Kind: "modifier", Modifiers: mods},
		Confidence: 0.75,
	}, nil
}

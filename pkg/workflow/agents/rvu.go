package agents

import (
	"context"

	"github.com/thomasfortoul/oxkair-workflow/pkg/workflow/agent"
	"github.com/thomasfortoul/oxkair-workflow/pkg/workflow/state"
)

// conversionFactor is the fixed Medicare Physician Fee Schedule conversion
// factor stand-in.
const conversionFactor = 32.74

var rvuTable = map[string]state.RVUComponents{
	"47562": {Work: 9.86, PE: 5.12, MP: 1.03},
	"44950": {Work: 7.61, PE: 4.40, MP: 0.78},
	"27447": {Work: 20.72, PE: 10.55, MP: 2.21},
}

// RVUAgent computes Relative Value Unit line items and a payment-ordered
// claim sequence for every procedure code already in state (the topology:
// RVU runs independently, seeded only from the CPT foundation).
type RVUAgent struct{}

func NewRVUAgent() *RVUAgent { return &RVUAgent{} }

func (a *RVUAgent) Name() state.AgentName { return state.AgentRVU }

func (a *RVUAgent) Execute(ctx context.Context, ac *agent.Context) (*agent.Result, error) {
	var lines []state.RVULineItem
	var sequenced []state.SequencedLine
	var evidence []state.StandardizedEvidence
	total := 0.0

	for _, code := range ac.Input.ProcedureCodes {
		base, ok := rvuTable[code.Code]
		if !ok {
			continue
		}
		adjusted := base
		units := float64(code.Units)
		if units <= 0 {
			units = 1
		}
		adjustedTotal := (adjusted.Work + adjusted.PE + adjusted.MP) * units
		payment := adjustedTotal * conversionFactor

		lines = append(lines, state.RVULineItem{
			Code:             code.Code,
			BaseRVU:          base,
			GPCI:             state.RVUComponents{Work: 1, PE: 1, MP: 1},
			AdjustedRVU:      adjusted,
			ConversionFactor: conversionFactor,
			PaymentAmount:    payment,
		})
		sequenced = append(sequenced, state.SequencedLine{
			Code:             code.Code,
			Rationale:        "ordered by descending total adjusted RVU",
			TotalAdjustedRVU: adjustedTotal,
		})
		total += adjustedTotal

		evidence = append(evidence, state.StandardizedEvidence{
			Rationale:   "RVU components looked up by code",
			SourceAgent: state.AgentRVU,
			SourceNote:  state.NoteTypeOperative,
			Confidence:  0.95,
		})
	}

	sortBySequenceDesc(sequenced)
	for i := range sequenced {
		sequenced[i].Sequence = i + 1
	}

	return &agent.Result{
		AgentName: state.AgentRVU,
		Success:   true,
		Evidence:  evidence,
		Data: agent.ResultData{
			Kind: "rvu",
			RVU:  &state.RVUResult{Calculations: lines},
			RVUSequencing: &state.RVUSequencingResult{
				Sequence:  sequenced,
				TotalRVU:  total,
				Rationale: "sequenced by descending total adjusted RVU so the highest-value line is billed primary",
			},
		},
		Confidence: 0.95,
	}, nil
}

func sortBySequenceDesc(lines []state.SequencedLine) {
	for i := 1; i < len(lines); i++ {
		for j := i; j > 0 && lines[j].TotalAdjustedRVU > lines[j-1].TotalAdjustedRVU; j-- {
			lines[j], lines[j-1] = lines[j-1], lines[j]
		}
	}
}

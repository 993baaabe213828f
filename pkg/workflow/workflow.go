// Package workflow is the module's single entry point: processCase.
// It wires the six components together (state, agent registry, merger,
// executor, orchestrator, assembler) without owning any of their
// implementations — callers supply a Registry and a Logger; everything
// else follows the fixed topology.
package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/thomasfortoul/oxkair-workflow/pkg/workflow/agent"
	"github.com/thomasfortoul/oxkair-workflow/pkg/workflow/assembler"
	"github.com/thomasfortoul/oxkair-workflow/pkg/workflow/orchestrator"
	"github.com/thomasfortoul/oxkair-workflow/pkg/workflow/state"
)

// PriorityLevel is the priorityLevel hint; advisory only.
type PriorityLevel string

const (
	PriorityLow    PriorityLevel = "low"
	PriorityNormal PriorityLevel = "normal"
	PriorityHigh   PriorityLevel = "high"
)

// AIModelProvider mirrors services/aimodel.Provider without importing that
// package from the core entry point, keeping ProcessingOptions a plain
// value type any caller can construct without pulling in langchaingo.
type AIModelProvider string

const (
	AIModelOpenAI    AIModelProvider = "openai"
	AIModelAnthropic AIModelProvider = "anthropic"
	AIModelLocal     AIModelProvider = "local"
	AIModelAzure     AIModelProvider = "azure"
)

// AIModelConfig is the aiModelConfig payload.
type AIModelConfig struct {
	Model       string
	Provider    AIModelProvider
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

// RetryPolicyOptions is the retryPolicy override payload.
type RetryPolicyOptions struct {
	MaxRetries int
	BackoffMs  int64
}

// ProcessingOptions is the options struct; unknown/zero fields are
// ignored and the orchestrator's own defaults apply. PriorityLevel and
// AIModelConfig are carried but ProcessCase does not read them.
type ProcessingOptions struct {
	PriorityLevel  PriorityLevel
	RequiredAgents []state.AgentName
	OptionalAgents []state.AgentName
	Timeout        time.Duration
	RetryPolicy    *RetryPolicyOptions
	AIModelConfig  *AIModelConfig
	ErrorPolicy    orchestrator.ErrorPolicy

	// MACJurisdiction is forwarded to every agent as
	// Options["macJurisdiction"]; the LCD agent reads it, defaulting on its
	// own when unset.
	MACJurisdiction string
}

// ProcessingMetadata is the metadata payload.
type ProcessingMetadata struct {
	ExecutionTimeMs   int64    `json:"executionTime"`
	AgentsExecuted    int      `json:"agentsExecuted"`
	StepsCompleted    []string `json:"stepsCompleted"`
	ErrorsEncountered int      `json:"errorsEncountered"`
}

// ExecutionSummaryProvider abstracts the Logger's generateExecutionSummary()
// so workflow.go doesn't need to import pkg/logging's concrete
// ExecutionSummary type; pkg/logging.Logger satisfies this via its
// ExecutionSummary() method.
type ExecutionSummaryProvider interface {
	ExecutionSummary() interface{}
}

// ProcessingResult is the entry-point return shape.
type ProcessingResult struct {
	Success          bool
	Data             *assembler.CaseOutput
	Error            string
	Metadata         ProcessingMetadata
	ExecutionSummary interface{}
}

// ProgressCallback is the progress collaborator.
type ProgressCallback func(step string, agentName string, progress int)

// ServicesResolver is workflow's re-export of
// orchestrator.ServicesResolver so callers don't need to import the
// orchestrator package just to pass one in.
type ServicesResolver = orchestrator.ServicesResolver

// ProcessCase is the entry point. logger must satisfy agent.Logger at
// minimum; pass a value that also implements ExecutionSummaryProvider
// (pkg/logging.Logger does) to get ExecutionSummary populated. svc may be
// nil if agents don't need backend services (e.g. in tests).
func ProcessCase(
	ctx context.Context,
	notes state.CaseNotes,
	meta state.CaseMeta,
	reg *agent.Registry,
	logger agent.Logger,
	progress ProgressCallback,
	opts ProcessingOptions,
	svc ServicesResolver,
) ProcessingResult {
	start := time.Now()

	if meta.PatientID == "" {
		meta.PatientID = uuid.NewString()
	}
	if meta.ProviderID == "" {
		meta.ProviderID = uuid.NewString()
	}

	s := state.NewWorkflowState(meta.CaseID)
	s.Meta = meta
	s.Notes = notes

	cfg := orchestrator.DefaultConfig()
	if opts.Timeout > 0 {
		cfg.WorkflowTimeout = opts.Timeout
	}
	if opts.ErrorPolicy != "" {
		cfg.ErrorPolicy = opts.ErrorPolicy
	}
	if len(opts.OptionalAgents) > 0 {
		cfg.OptionalAgents = toSet(opts.OptionalAgents)
	}
	if len(opts.RequiredAgents) > 0 {
		cfg.RequiredAgents = toSet(opts.RequiredAgents)
	}
	if progress != nil {
		cfg.Progress = func(ev orchestrator.ProgressEvent) {
			progress(ev.Step, ev.Agent, ev.Progress)
		}
	}
	if opts.MACJurisdiction != "" {
		cfg.Options = map[string]interface{}{"macJurisdiction": opts.MACJurisdiction}
	}

	orch := orchestrator.New(reg, logger)
	orch.Services = svc
	if opts.RetryPolicy != nil {
		orch.Executor.RetryPolicy.MaxRetries = opts.RetryPolicy.MaxRetries
		orch.Executor.RetryPolicy.BackoffMs = opts.RetryPolicy.BackoffMs
	}

	final := orch.Run(ctx, s, cfg)
	output := assembler.Assemble(final)

	result := ProcessingResult{
		Success: final.Meta.Status == state.CaseStatusCompleted,
		Data:    &output,
		Metadata: ProcessingMetadata{
			ExecutionTimeMs:   time.Since(start).Milliseconds(),
			AgentsExecuted:    countAgentExecutions(final),
			StepsCompleted:    append([]string(nil), final.CompletedSteps...),
			ErrorsEncountered: len(final.Errors),
		},
	}

	if !result.Success {
		result.Error = summarizeErrors(final)
	}
	if summarizer, ok := logger.(ExecutionSummaryProvider); ok {
		result.ExecutionSummary = summarizer.ExecutionSummary()
	}

	return result
}

func toSet(names []state.AgentName) map[state.AgentName]bool {
	out := make(map[state.AgentName]bool, len(names))
	for _, n := range names {
		out[n] = true
	}
	return out
}

func countAgentExecutions(s *state.WorkflowState) int {
	count := 0
	for _, h := range s.History {
		if h.Action == "agent_execution" {
			count++
		}
	}
	return count
}

func summarizeErrors(s *state.WorkflowState) string {
	for _, e := range s.Errors {
		if e.Severity == state.SeverityCritical {
			return fmt.Sprintf("critical failure: %s", e.Message)
		}
	}
	if len(s.Errors) > 0 {
		return s.Errors[len(s.Errors)-1].Message
	}
	return "workflow did not complete successfully"
}

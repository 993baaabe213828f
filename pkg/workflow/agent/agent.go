// Package agent defines the contract every pathway stage implements
// (CPT/ICD/CCI/LCD/MODIFIER/RVU), plus the thread-safe registry the
// orchestrator resolves stage names through. A stage returns either a
// populated result or an error, and the two are never conflated — an
// error return means infrastructure failure (deadline, panic, backend
// unreachable); a populated Result with low confidence or no Data is the
// agent's own "I found nothing" answer and is not an error.
package agent

import (
	"context"
	"time"

	"github.com/thomasfortoul/oxkair-workflow/pkg/workflow/state"
)

// Backend names the endpoint/deployment the service registry resolved for
// the agent a given Services value was built for.
type Backend struct {
	Endpoint   string
	Deployment string
}

// Services is the set of backend collaborators an agent may be handed,
// resolved per-agent by the service registry. AIModel/Cache/PerformanceMonitor
// are interfaces so a test can substitute fakes without touching the
// concrete services packages; Backend is plain data naming which endpoint
// this agent's Services was resolved against.
type Services struct {
	AIModel            AIModel
	Cache              Cache
	PerformanceMonitor PerformanceMonitor
	Backend            Backend
}

// AIModel is the minimal surface agents need from the language-model
// collaborator; concrete implementations live in
// pkg/workflow/services/aimodel.
type AIModel interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Cache is the minimal surface agents need from the cache collaborator;
// concrete implementations live in pkg/workflow/services/cache.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, value string, ttl time.Duration)
}

// PerformanceMonitor records agent-level timing/outcome observations;
// concrete implementations live in pkg/workflow/services/perfmon.
type PerformanceMonitor interface {
	ObserveDuration(agentName string, d time.Duration)
	IncError(agentName string)
}

// Context is the second parameter every agent receives, bundling everything
// that is not the cancellation signal itself: the input snapshot, a logger,
// and resolved backend services. Go's native context.Context carries
// cancellation and deadline; this struct carries the rest.
type Context struct {
	Input    *state.WorkflowState
	Logger   Logger
	Services Services
	Options  map[string]interface{}
}

// Logger is the narrow logging surface agents depend on; the full Logger
// contract (8 levels, PII scrubbing) lives in pkg/logging and satisfies
// this interface.
type Logger interface {
	Debug(msg string, fields ...interface{})
	Info(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
	Error(msg string, fields ...interface{})
}

// ResultData is the tagged-variant payload a Result carries, one pointer
// field populated per AgentName: Go has no sum types, so the discriminated
// union is modeled as Kind plus one pointer per variant rather than a
// single interface{} field.
type ResultData struct {
	Kind string

	ProcedureCodes []state.EnhancedProcedureCode
	DiagnosisCodes []state.EnhancedDiagnosisCode
	HCPCSCodes     []state.HCPCSCode
	Modifiers      []state.StandardizedModifier
	CCI            *state.CCIResult
	MUE            *state.MUEResult
	LCD            *state.LCDResult
	RVU            *state.RVUResult
	RVUSequencing  *state.RVUSequencingResult
}

// Result is what Agent.Execute returns. Success distinguishes an agent's own
// "I tried and failed" (Success=false, Errors populated, Evidence may still
// be partial) from an infrastructure failure, which Execute instead reports
// through its error return. Evidence is always appended to
// state.allEvidence regardless of Success; Data is only merged into owned
// fields when Success is true.
type Result struct {
	AgentName  state.AgentName
	Success    bool
	Evidence   []state.StandardizedEvidence
	Data       ResultData
	Errors     []state.ProcessingError
	Confidence float64
	Notes      string

	// ExecutionTimeMs is stamped by the executor after Execute returns; an
	// agent implementation should leave it zero.
	ExecutionTimeMs int64
}

// Agent is the contract every pathway stage implements. Execute must be
// safe to call with a context that may already carry a deadline; it should
// check ctx.Err() before doing expensive work and return promptly once the
// context is done. Execute must never mutate ac.Input in place.
type Agent interface {
	Name() state.AgentName
	Execute(ctx context.Context, ac *Context) (*Result, error)
}

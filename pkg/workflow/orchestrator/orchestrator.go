// Package orchestrator runs the fixed five-phase case billing topology
// (CPT foundation, then three concurrent pathways ICD→LCD, CCI→MODIFIER,
// RVU), progress events, and error policy enforcement. The Phase 2
// concurrency is one goroutine per pathway, each writing its final state
// into its own slot of a results slice, joined by a sync.WaitGroup that
// waits for every pathway to settle.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/thomasfortoul/oxkair-workflow/pkg/workflow/agent"
	"github.com/thomasfortoul/oxkair-workflow/pkg/workflow/executor"
	"github.com/thomasfortoul/oxkair-workflow/pkg/workflow/merge"
	"github.com/thomasfortoul/oxkair-workflow/pkg/workflow/state"
	"github.com/thomasfortoul/oxkair-workflow/pkg/werrors"
)

// ErrorPolicy selects among the failure-handling strategies.
type ErrorPolicy string

const (
	ErrorPolicyFailFast       ErrorPolicy = "fail-fast"
	ErrorPolicySkipDependents ErrorPolicy = "skip-dependents"
	ErrorPolicyContinue       ErrorPolicy = "continue"
)

// ProgressEvent is the progress record.
type ProgressEvent struct {
	Step     string
	Agent    string
	Progress int
}

// ProgressCallback is advisory. The orchestrator calls it synchronously
// from whichever goroutine emits the event, so a slow callback delays that
// goroutine; Phase 2 pathways may invoke it concurrently.
type ProgressCallback func(ProgressEvent)

// StageState is one agent's position in the per-agent state machine.
type StageState string

const (
	StagePending   StageState = "pending"
	StageScheduled StageState = "scheduled"
	StageRunning   StageState = "running"
	StageSucceeded StageState = "succeeded"
	StageFailed    StageState = "failed"
	StageSkipped   StageState = "skipped"
	StageTimeout   StageState = "timeout"
)

// stageTracker records each agent's position in the state machine across a
// single Run. Phase 2 runs its three pathways as concurrent goroutines, each
// writing only its own stage names, but a plain map still needs a mutex: a
// write to one key racing a write to another is a data race in Go even
// without key overlap.
type stageTracker struct {
	mu     sync.Mutex
	states map[state.AgentName]StageState
}

func newStageTracker() *stageTracker {
	return &stageTracker{states: make(map[state.AgentName]StageState)}
}

func (t *stageTracker) set(name state.AgentName, st StageState) {
	t.mu.Lock()
	t.states[name] = st
	t.mu.Unlock()
}

func (t *stageTracker) get(name state.AgentName) StageState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.states[name]
}

// Config bundles the per-run knobs: error policy, timeout, and which
// agents are required vs. optional.
type Config struct {
	ErrorPolicy     ErrorPolicy
	WorkflowTimeout time.Duration
	RequiredAgents  map[state.AgentName]bool
	OptionalAgents  map[state.AgentName]bool
	Progress        ProgressCallback

	// Options is passed verbatim into every agent.Context.Options (e.g. the
	// LCD agent's injected "macJurisdiction").
	Options map[string]interface{}
}

// DefaultConfig is continue policy with a 300s workflow timeout.
func DefaultConfig() Config {
	return Config{
		ErrorPolicy:     ErrorPolicyContinue,
		WorkflowTimeout: 300 * time.Second,
	}
}

func (c Config) emit(ev ProgressEvent) {
	if c.Progress != nil {
		c.Progress(ev)
	}
}

func (c Config) optional(name state.AgentName) bool {
	return c.OptionalAgents != nil && c.OptionalAgents[name]
}

// ServicesResolver resolves the backend collaborators (the service
// registry) a given agent gets in its Context. Left nil, every agent
// receives a zero-value agent.Services (no AIModel/Cache/PerformanceMonitor)
// — fine for agents, like the reference implementations, that never touch
// ac.Services.
type ServicesResolver func(name state.AgentName) agent.Services

// Orchestrator runs the fixed topology against a Registry.
type Orchestrator struct {
	Registry *agent.Registry
	Executor *executor.Executor
	Merger   *merge.Merger
	Logger   agent.Logger
	Services ServicesResolver
}

// New builds an Orchestrator with default Executor/Merger.
func New(reg *agent.Registry, logger agent.Logger) *Orchestrator {
	return &Orchestrator{
		Registry: reg,
		Executor: executor.New(),
		Merger:   merge.New(),
		Logger:   logger,
	}
}

// Run executes Phases 0-4 against initial and returns the final state.
func (o *Orchestrator) Run(ctx context.Context, initial *state.WorkflowState, cfg Config) *state.WorkflowState {
	if cfg.WorkflowTimeout <= 0 {
		cfg.WorkflowTimeout = DefaultConfig().WorkflowTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, cfg.WorkflowTimeout)
	defer cancel()

	s := initial
	tracker := newStageTracker()

	// Phase 0: initial validation.
	cfg.emit(ProgressEvent{Step: "phase0_initialize", Progress: 0})
	for _, e := range merge.InitialValidate(s) {
		s.AppendError(e)
	}
	if s.HasCriticalError() {
		s.Meta.Status = state.CaseStatusError
		cfg.emit(ProgressEvent{Step: "halted_critical", Progress: 100})
		return s
	}

	// Phase 1: CPT foundation.
	cfg.emit(ProgressEvent{Step: "phase1_cpt", Agent: string(state.AgentCPT), Progress: 10})
	s = o.runStage(ctx, s, state.AgentCPT, cfg, tracker)
	if o.shouldHalt(s, cfg) {
		s.Meta.Status = state.CaseStatusError
		cfg.emit(ProgressEvent{Step: "halted", Progress: 100})
		return s
	}
	s.MarkStepCompleted(string(state.AgentCPT))

	// Phase 2: three concurrent pathways from the post-CPT base state.
	cfg.emit(ProgressEvent{Step: "phase2_pathways_start", Progress: 30})
	base := s.Clone()
	pathwayA, pathwayB, pathwayC := o.runPathways(ctx, base, cfg, tracker)
	cfg.emit(ProgressEvent{Step: "phase2_pathways_settled", Progress: 60})

	// Phase 3: set-union merge of the three pathway outcomes back into base.
	cfg.emit(ProgressEvent{Step: "phase3_merge", Progress: 75})
	s = merge.UnionMerge(base, pathwayA, pathwayB, pathwayC)

	// Phase 4: final validation and summary.
	cfg.emit(ProgressEvent{Step: "phase4_final_validation", Progress: 90})
	for _, e := range merge.FinalValidate(s) {
		s.AppendError(e)
	}
	if s.HasCriticalError() || (cfg.ErrorPolicy == ErrorPolicyFailFast && s.HasHighError()) {
		s.Meta.Status = state.CaseStatusError
	} else {
		s.Meta.Status = state.CaseStatusCompleted
	}

	cfg.emit(ProgressEvent{Step: "complete", Progress: 100})
	return s
}

// runStage resolves name in the registry, executes every replica through
// the executor, and merges each outcome in registration order. A stage
// with AllRequired=false (the default) needs only one replica to succeed
// for the stage overall to be considered successful; with AllRequired=true
// the stage succeeds only if no replica failed, though every successful
// replica's result is still merged since the merger itself is tolerant. tracker
// is updated scheduled→running→(succeeded|failed) as the stage progresses;
// a replica whose error wraps ErrAgentTimeout leaves the stage in timeout
// rather than failed if every replica timed out.
func (o *Orchestrator) runStage(ctx context.Context, s *state.WorkflowState, name state.AgentName, cfg Config, tracker *stageTracker) *state.WorkflowState {
	reg, ok := o.Registry.Get(name)
	if !ok {
		tracker.set(name, StageFailed)
		s.AppendError(state.ProcessingError{
			Message:  fmt.Sprintf("agent %s not registered", name),
			Severity: severityFor(name, cfg),
			Source:   string(name),
		})
		return s
	}

	tracker.set(name, StageScheduled)

	var svc agent.Services
	if o.Services != nil {
		svc = o.Services(name)
	}

	succeeded := false
	anyFailed := false
	allTimedOut := true
	tracker.set(name, StageRunning)

	for _, a := range reg.Agents {
		cfg.emit(ProgressEvent{Step: "agent_start", Agent: string(name)})
		ac := &agent.Context{Input: s.Clone(), Logger: o.Logger, Services: svc, Options: cfg.Options}
		out := o.Executor.Run(ctx, a, ac)
		cfg.emit(ProgressEvent{Step: "agent_complete", Agent: string(name)})
		if rec, ok := o.Logger.(interface {
			RecordAgentExecution(string, time.Duration, bool)
		}); ok {
			rec.RecordAgentExecution(string(name), out.Duration, out.Err != nil)
		}

		if out.Err != nil {
			anyFailed = true
			if !errors.Is(out.Err, werrors.ErrAgentTimeout) {
				allTimedOut = false
			}
			s.AppendError(state.ProcessingError{
				Message:  out.Err.Error(),
				Severity: severityFor(name, cfg),
				Source:   string(name),
			})
			continue
		}
		allTimedOut = false
		succeeded = true
		out.Result.ExecutionTimeMs = out.Duration.Milliseconds()
		s = o.Merger.Merge(s, out.Result)
	}

	switch {
	case succeeded && !(reg.AllRequired && anyFailed):
		tracker.set(name, StageSucceeded)
	case allTimedOut:
		tracker.set(name, StageTimeout)
	default:
		tracker.set(name, StageFailed)
	}
	return s
}

// runDependent enforces the skip-dependents error policy: when upstream did
// not succeed and cfg.ErrorPolicy is skip-dependents, downstream is marked
// skipped without ever being scheduled, and a DependencyError is recorded
// in its place. Under any other policy, or once upstream has succeeded,
// downstream runs normally.
func (o *Orchestrator) runDependent(ctx context.Context, s *state.WorkflowState, upstream, downstream state.AgentName, cfg Config, tracker *stageTracker) *state.WorkflowState {
	if cfg.ErrorPolicy == ErrorPolicySkipDependents {
		switch tracker.get(upstream) {
		case StageFailed, StageTimeout, StageSkipped:
			tracker.set(downstream, StageSkipped)
			s.AppendError(state.ProcessingError{
				Message:  werrors.NewDependencyError(string(downstream), string(upstream)).Error(),
				Severity: state.SeverityLow,
				Source:   string(downstream),
			})
			return s
		}
	}
	return o.runStage(ctx, s, downstream, cfg, tracker)
}

// runPathways launches the three Phase 2 pathways concurrently and waits
// for all to settle (allSettled semantics: a pathway's own failure never
// prevents the others from completing). Within a pathway, the second stage
// is run via runDependent so skip-dependents can skip it when the first
// stage didn't succeed.
func (o *Orchestrator) runPathways(ctx context.Context, base *state.WorkflowState, cfg Config, tracker *stageTracker) (a, b, c *state.WorkflowState) {
	var wg sync.WaitGroup
	results := make([]*state.WorkflowState, 3)

	wg.Add(3)
	go func() {
		defer wg.Done()
		s := base.Clone()
		s = o.runStage(ctx, s, state.AgentICD, cfg, tracker)
		s = o.runDependent(ctx, s, state.AgentICD, state.AgentLCD, cfg, tracker)
		results[0] = s
	}()
	go func() {
		defer wg.Done()
		s := base.Clone()
		s = o.runStage(ctx, s, state.AgentCCI, cfg, tracker)
		s = o.runDependent(ctx, s, state.AgentCCI, state.AgentModifier, cfg, tracker)
		results[1] = s
	}()
	go func() {
		defer wg.Done()
		s := base.Clone()
		s = o.runStage(ctx, s, state.AgentRVU, cfg, tracker)
		results[2] = s
	}()
	wg.Wait()

	return results[0], results[1], results[2]
}

// shouldHalt applies the halt rules after a stage: CRITICAL always halts;
// HIGH halts only under fail-fast.
func (o *Orchestrator) shouldHalt(s *state.WorkflowState, cfg Config) bool {
	if s.HasCriticalError() {
		return true
	}
	if cfg.ErrorPolicy == ErrorPolicyFailFast && s.HasHighError() {
		return true
	}
	return false
}

// severityFor assigns HIGH unless the agent is optional, in which case a
// failure is recorded at LOW severity and never halts the workflow.
func severityFor(name state.AgentName, cfg Config) state.ErrorSeverity {
	if cfg.optional(name) {
		return state.SeverityLow
	}
	return state.SeverityHigh
}

package logging

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"

	"google.golang.org/protobuf/types/known/timestamppb"
)

// Level is the custom 8-level severity scale of the workflow, built on slog's
// documented extension point for arbitrary integer levels (slog's four
// built-ins cover only DEBUG..ERROR; the remaining four, TRACE,
// PERFORMANCE, WORKFLOW and AI_USAGE, are workflow-specific and have no
// stdlib equivalent).
type Level = slog.Level

const (
	LevelTrace       Level = slog.Level(-8)
	LevelDebug       Level = slog.LevelDebug
	LevelInfo        Level = slog.LevelInfo
	LevelWarn        Level = slog.LevelWarn
	LevelError       Level = slog.LevelError
	LevelPerformance Level = slog.Level(12)
	LevelWorkflow    Level = slog.Level(16)
	LevelAIUsage     Level = slog.Level(20)
)

var levelNames = map[Level]string{
	LevelTrace:       "TRACE",
	LevelDebug:       "DEBUG",
	LevelInfo:        "INFO",
	LevelWarn:        "WARN",
	LevelError:       "ERROR",
	LevelPerformance: "PERFORMANCE",
	LevelWorkflow:    "WORKFLOW",
	LevelAIUsage:     "AI_USAGE",
}

// ReplaceAttr renders the custom levels with their own names instead of
// slog's default "INFO+4"-style rendering; pass to slog.HandlerOptions.
func ReplaceAttr(groups []string, a slog.Attr) slog.Attr {
	if a.Key == slog.LevelKey {
		if lvl, ok := a.Value.Any().(slog.Level); ok {
			if name, ok := levelNames[lvl]; ok {
				a.Value = slog.StringValue(name)
			}
		}
	}
	return a
}

// TraceEntry is one record of the execution trace, independent of
// state.History — this is the operational view for dashboards,
// state.History is the domain view.
type TraceEntry struct {
	StepNumber int       `json:"stepNumber"`
	Timestamp  time.Time `json:"timestamp"`
	Level      string    `json:"level"`
	Function   string    `json:"functionName"`
	Message    string    `json:"message"`
}

// AgentMetrics accumulates per-agent timing observed across a run.
type AgentMetrics struct {
	Executions    int           `json:"executions"`
	TotalDuration time.Duration `json:"totalDurationNs"`
	Errors        int           `json:"errors"`
}

// ExecutionSummary is the generateExecutionSummary() return shape.
type ExecutionSummary struct {
	WorkflowID        string                  `json:"workflowId"`
	TotalExecutionMs  int64                   `json:"totalExecutionTime"`
	TotalSteps        int                     `json:"totalSteps"`
	AgentExecutions   int                     `json:"agentExecutions"`
	APICalls          int                     `json:"apiCalls"`
	PerAgent          map[string]AgentMetrics `json:"perAgent"`
	ExecutionTrace    []TraceEntry            `json:"executionTrace"`
	GeneratedAt       *timestamppb.Timestamp  `json:"-"`
}

// Logger is the default implementation of the Logger contract: 8 levels,
// PII scrubbing on message and metadata, and execution-summary
// bookkeeping. One Logger is constructed per workflow run by the entry
// point and closed by it; agents and the orchestrator only borrow it.
type Logger struct {
	mu         sync.Mutex
	slogger    *slog.Logger
	scrubber   *Scrubber
	workflowID string
	startedAt  time.Time
	step       int
	trace      []TraceEntry
	perAgent   map[string]*AgentMetrics
	apiCalls   int
	closed     bool
}

// New builds a Logger writing JSON records to os.Stdout, stamped with
// workflowID.
func New(workflowID string) *Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       LevelTrace,
		ReplaceAttr: ReplaceAttr,
	})
	return &Logger{
		slogger:    slog.New(handler),
		scrubber:   NewScrubber(),
		workflowID: workflowID,
		startedAt:  time.Now(),
		perAgent:   make(map[string]*AgentMetrics),
	}
}

func (l *Logger) log(level Level, functionName, msg string, fields ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	l.step++
	scrubbedMsg := l.scrubber.ScrubString(msg)
	scrubbedFields := l.scrubber.ScrubFields(fields)

	l.trace = append(l.trace, TraceEntry{
		StepNumber: l.step,
		Timestamp:  time.Now(),
		Level:      levelNames[level],
		Function:   functionName,
		Message:    scrubbedMsg,
	})

	args := append([]interface{}{
		"workflowId", l.workflowID,
		"stepNumber", l.step,
		"functionName", functionName,
	}, scrubbedFields...)
	l.slogger.Log(context.Background(), level, scrubbedMsg, args...)
}

func (l *Logger) Trace(msg string, fields ...interface{}) { l.log(LevelTrace, "", msg, fields...) }
func (l *Logger) Debug(msg string, fields ...interface{}) { l.log(LevelDebug, "", msg, fields...) }
func (l *Logger) Info(msg string, fields ...interface{})  { l.log(LevelInfo, "", msg, fields...) }
func (l *Logger) Warn(msg string, fields ...interface{})  { l.log(LevelWarn, "", msg, fields...) }
func (l *Logger) Error(msg string, fields ...interface{}) { l.log(LevelError, "", msg, fields...) }

// Performance records a performance-class event (e.g. agent duration).
func (l *Logger) Performance(msg string, fields ...interface{}) {
	l.log(LevelPerformance, "", msg, fields...)
}

// Workflow records a workflow-lifecycle event (phase boundaries).
func (l *Logger) Workflow(msg string, fields ...interface{}) {
	l.log(LevelWorkflow, "", msg, fields...)
}

// AIUsage records an AI-model call, tallying it toward apiCalls.
func (l *Logger) AIUsage(msg string, fields ...interface{}) {
	l.mu.Lock()
	l.apiCalls++
	l.mu.Unlock()
	l.log(LevelAIUsage, "", msg, fields...)
}

// RecordAgentExecution folds one agent invocation's timing into the
// per-agent metrics table, used by generateExecutionSummary.
func (l *Logger) RecordAgentExecution(agentName string, d time.Duration, failed bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.perAgent[agentName]
	if !ok {
		m = &AgentMetrics{}
		l.perAgent[agentName] = m
	}
	m.Executions++
	m.TotalDuration += d
	if failed {
		m.Errors++
	}
}

// GenerateExecutionSummary returns the generateExecutionSummary()
// payload as of the moment it is called.
func (l *Logger) GenerateExecutionSummary() ExecutionSummary {
	l.mu.Lock()
	defer l.mu.Unlock()

	perAgent := make(map[string]AgentMetrics, len(l.perAgent))
	agentExecutions := 0
	for name, m := range l.perAgent {
		perAgent[name] = *m
		agentExecutions += m.Executions
	}

	return ExecutionSummary{
		WorkflowID:       l.workflowID,
		TotalExecutionMs: time.Since(l.startedAt).Milliseconds(),
		TotalSteps:       l.step,
		AgentExecutions:  agentExecutions,
		APICalls:         l.apiCalls,
		PerAgent:         perAgent,
		ExecutionTrace:   append([]TraceEntry(nil), l.trace...),
		GeneratedAt:      timestamppb.New(time.Now()),
	}
}

// ExecutionSummary returns GenerateExecutionSummary's result boxed as
// interface{}, satisfying workflow.ExecutionSummaryProvider without that
// package needing to import pkg/logging's concrete ExecutionSummary type.
func (l *Logger) ExecutionSummary() interface{} {
	return l.GenerateExecutionSummary()
}

// Close flushes and marks the logger unusable. Calling any log method
// after Close is a silent no-op. This handler writes synchronously so
// there is nothing buffered to flush, but Close still exists as the
// lifecycle boundary callers are expected to respect.
func (l *Logger) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
}

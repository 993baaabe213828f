package logging

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScrubStringRedactsPII(t *testing.T) {
	sc := NewScrubber()

	assert.Equal(t, "SSN is [SSN-REDACTED]", sc.ScrubString("SSN is 123-45-6789"))
	assert.Equal(t, "card [CARD-REDACTED]", sc.ScrubString("card 1234567812345678"))
	assert.Equal(t, "email [EMAIL-REDACTED]", sc.ScrubString("email jane.doe@example.com"))
	assert.Equal(t, "phone [PHONE-REDACTED]", sc.ScrubString("phone 5551234567"))
}

func TestScrubValueRedactsSensitiveKeys(t *testing.T) {
	sc := NewScrubber()
	out := sc.ScrubValue(map[string]interface{}{
		"password": "hunter2",
		"note":     "contact jane.doe@example.com",
	})
	m, ok := out.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "[REDACTED]", m["password"])
	assert.Equal(t, "contact [EMAIL-REDACTED]", m["note"])
}

func TestScrubValueCircularReference(t *testing.T) {
	sc := NewScrubber()
	m := map[string]interface{}{"name": "x"}
	m["self"] = m

	out := sc.ScrubValue(m).(map[string]interface{})
	assert.Equal(t, "[CIRCULAR-REFERENCE]", out["self"])
}

func TestLoggerGenerateExecutionSummary(t *testing.T) {
	l := New("wf-1")
	l.Info("hello", "k", "v")
	l.RecordAgentExecution("CPT", 10*time.Millisecond, false)
	l.RecordAgentExecution("CPT", 5*time.Millisecond, true)

	summary := l.GenerateExecutionSummary()
	assert.Equal(t, "wf-1", summary.WorkflowID)
	assert.Equal(t, 1, summary.TotalSteps)
	require.Contains(t, summary.PerAgent, "CPT")
	assert.Equal(t, 2, summary.PerAgent["CPT"].Executions)
	assert.Equal(t, 1, summary.PerAgent["CPT"].Errors)
}

func TestLoggerCloseStopsLogging(t *testing.T) {
	l := New("wf-1")
	l.Close()
	l.Info("should be dropped")

	summary := l.GenerateExecutionSummary()
	assert.Equal(t, 0, summary.TotalSteps)
}

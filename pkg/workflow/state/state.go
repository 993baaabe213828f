package state

import "time"

// WorkflowState is the single record threaded through the workflow. It is
// passed by value into every agent call; agents receive a copy and must
// return new data for the merger to fold in rather than mutating the value
// they were given. Clone is used whenever a caller needs to retain a
// snapshot across a mutation boundary (e.g. the merger clones before
// folding in a result).
type WorkflowState struct {
	Meta         CaseMeta
	Notes        CaseNotes
	Demographics Demographics

	CandidateProcedureCodes []EnhancedProcedureCode
	ProcedureCodes          []EnhancedProcedureCode
	DiagnosisCodes          []EnhancedDiagnosisCode
	HCPCSCodes              []HCPCSCode
	Modifiers               []StandardizedModifier
	ClaimSequence           []string

	CCI           *CCIResult
	MUE           *MUEResult
	LCD           *LCDResult
	RVU           *RVUResult
	RVUSequencing *RVUSequencingResult

	CurrentStep    string
	CompletedSteps []string

	Errors      []ProcessingError
	History     []HistoryEntry
	AllEvidence []StandardizedEvidence

	CreatedAt time.Time
	UpdatedAt time.Time
	Version   int

	// icdBackup preserves the DiagnosisCodes snapshot taken after the last
	// ICD contribution so the merger can restore it if DiagnosisCodes is
	// found empty after a later merge. Unexported: only the merge package reaches into it, via
	// the accessor methods below.
	icdBackup []EnhancedDiagnosisCode
}

const stepInitialization = "INITIALIZATION"

// NewWorkflowState builds an empty state for a new case, stamping Meta with
// caseID and CaseStatusPending, currentStep=INITIALIZATION, and a
// workflow_initialized history entry.
func NewWorkflowState(caseID string) *WorkflowState {
	now := time.Now()
	s := &WorkflowState{
		Meta: CaseMeta{
			CaseID: caseID,
			Status: CaseStatusPending,
		},
		CandidateProcedureCodes: []EnhancedProcedureCode{},
		ProcedureCodes:          []EnhancedProcedureCode{},
		DiagnosisCodes:          []EnhancedDiagnosisCode{},
		HCPCSCodes:              []HCPCSCode{},
		Modifiers:               []StandardizedModifier{},
		ClaimSequence:           []string{},
		CurrentStep:             stepInitialization,
		CompletedSteps:          []string{},
		Errors:                  []ProcessingError{},
		History:                 []HistoryEntry{},
		AllEvidence:             []StandardizedEvidence{},
		CreatedAt:               now,
		UpdatedAt:               now,
		Version:                 1,
	}
	s.History = append(s.History, HistoryEntry{
		AgentName: "system",
		Timestamp: now,
		Action:    "workflow_initialized",
		Result:    HistorySuccess,
	})
	return s
}

// Clone deep-copies the state so a caller can hold a snapshot that survives
// later mutation of the original. Pointer-valued result fields (CCI, MUE,
// LCD, RVU, RVUSequencing) are copied by value into freshly allocated
// targets; evidence slices nested inside are copied by reference since
// StandardizedEvidence entries are themselves append-only and never edited
// in place once recorded.
func (s *WorkflowState) Clone() *WorkflowState {
	if s == nil {
		return nil
	}
	clone := &WorkflowState{
		Meta:         s.Meta,
		Notes:        s.Notes,
		Demographics: s.Demographics,
		CurrentStep:  s.CurrentStep,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
		Version:      s.Version,
	}

	clone.CandidateProcedureCodes = append([]EnhancedProcedureCode(nil), s.CandidateProcedureCodes...)
	clone.ProcedureCodes = append([]EnhancedProcedureCode(nil), s.ProcedureCodes...)
	clone.DiagnosisCodes = append([]EnhancedDiagnosisCode(nil), s.DiagnosisCodes...)
	clone.HCPCSCodes = append([]HCPCSCode(nil), s.HCPCSCodes...)
	clone.Modifiers = append([]StandardizedModifier(nil), s.Modifiers...)
	clone.ClaimSequence = append([]string(nil), s.ClaimSequence...)
	clone.CompletedSteps = append([]string(nil), s.CompletedSteps...)
	clone.Errors = append([]ProcessingError(nil), s.Errors...)
	clone.History = append([]HistoryEntry(nil), s.History...)
	clone.AllEvidence = append([]StandardizedEvidence(nil), s.AllEvidence...)
	clone.icdBackup = append([]EnhancedDiagnosisCode(nil), s.icdBackup...)

	if s.CCI != nil {
		v := *s.CCI
		clone.CCI = &v
	}
	if s.MUE != nil {
		v := *s.MUE
		clone.MUE = &v
	}
	if s.LCD != nil {
		v := *s.LCD
		clone.LCD = &v
	}
	if s.RVU != nil {
		v := *s.RVU
		clone.RVU = &v
	}
	if s.RVUSequencing != nil {
		v := *s.RVUSequencing
		clone.RVUSequencing = &v
	}

	return clone
}

// BackupICD snapshots the current DiagnosisCodes as the fallback the merger
// restores to if DiagnosisCodes is found empty after a subsequent merge.
func (s *WorkflowState) BackupICD() {
	s.icdBackup = append([]EnhancedDiagnosisCode(nil), s.DiagnosisCodes...)
}

// RestoreICD replaces DiagnosisCodes with the last backup, if any was taken.
// A no-op when no backup exists yet.
func (s *WorkflowState) RestoreICD() {
	if s.icdBackup == nil {
		return
	}
	s.DiagnosisCodes = append([]EnhancedDiagnosisCode(nil), s.icdBackup...)
}

// RestoreICDIfEmpty applies the fallback-preservation rule: if
// DiagnosisCodes is empty but a backup exists, restore it.
func (s *WorkflowState) RestoreICDIfEmpty() {
	if len(s.DiagnosisCodes) == 0 && s.icdBackup != nil {
		s.RestoreICD()
	}
}

// HasICDBackup reports whether a fallback snapshot has been recorded.
func (s *WorkflowState) HasICDBackup() bool {
	return s.icdBackup != nil
}

// ICDBackup returns a defensive copy of the current fallback snapshot, or
// nil if none has been taken.
func (s *WorkflowState) ICDBackup() []EnhancedDiagnosisCode {
	if s.icdBackup == nil {
		return nil
	}
	return append([]EnhancedDiagnosisCode(nil), s.icdBackup...)
}

// SetICDBackup installs a fallback snapshot directly, used by the
// inter-pathway union merge to propagate a pathway's backup onto the
// rendezvous result when the base state never took one of its own.
func (s *WorkflowState) SetICDBackup(backup []EnhancedDiagnosisCode) {
	s.icdBackup = append([]EnhancedDiagnosisCode(nil), backup...)
}

// Touch bumps UpdatedAt to now and increments Version. Called once per
// merge.
func (s *WorkflowState) Touch() {
	s.UpdatedAt = time.Now()
	s.Version++
}

// AppendError records a ProcessingError, stamping Timestamp if it is zero.
func (s *WorkflowState) AppendError(pe ProcessingError) {
	if pe.Timestamp.IsZero() {
		pe.Timestamp = time.Now()
	}
	s.Errors = append(s.Errors, pe)
}

// AppendHistory records a HistoryEntry, stamping Timestamp if it is zero.
func (s *WorkflowState) AppendHistory(h HistoryEntry) {
	if h.Timestamp.IsZero() {
		h.Timestamp = time.Now()
	}
	s.History = append(s.History, h)
}

// AllEvidenceAppend appends evidence entries to AllEvidence. Evidence is
// append-only; entries are never edited or removed once recorded.
func (s *WorkflowState) AllEvidenceAppend(ev []StandardizedEvidence) {
	s.AllEvidence = append(s.AllEvidence, ev...)
}

// MarkStepCompleted adds step to CompletedSteps if not already present;
// CompletedSteps is set-like.
func (s *WorkflowState) MarkStepCompleted(step string) {
	for _, existing := range s.CompletedSteps {
		if existing == step {
			return
		}
	}
	s.CompletedSteps = append(s.CompletedSteps, step)
}

// HasCriticalError reports whether any accumulated error is CRITICAL
// severity, the condition that forces a workflow halt regardless of error
// policy.
func (s *WorkflowState) HasCriticalError() bool {
	for _, e := range s.Errors {
		if e.Severity == SeverityCritical {
			return true
		}
	}
	return false
}

// HasHighError reports whether any accumulated error is HIGH severity or
// above, used by the fail-fast error policy.
func (s *WorkflowState) HasHighError() bool {
	for _, e := range s.Errors {
		if e.Severity == SeverityHigh || e.Severity == SeverityCritical {
			return true
		}
	}
	return false
}

// Package state defines the workflow's shared, append-mostly record: case
// input, per-domain analysis results, accumulated evidence, and lifecycle
// metadata. WorkflowState values are passed by value into every agent
// invocation (agents must never mutate them) and only advanced through the
// merge package's deterministic rules.
package state

import "time"

// ClaimType identifies a case's position in a claim chain.
type ClaimType string

const (
	ClaimTypePrimary   ClaimType = "primary"
	ClaimTypeSecondary ClaimType = "secondary"
	ClaimTypeTertiary  ClaimType = "tertiary"
)

// CaseStatus is the case's lifecycle state.
type CaseStatus string

const (
	CaseStatusPending    CaseStatus = "pending"
	CaseStatusProcessing CaseStatus = "processing"
	CaseStatusCompleted  CaseStatus = "completed"
	CaseStatusError      CaseStatus = "error"
)

// CaseMeta is the identity and lifecycle record of a case. CaseID is
// immutable once the state is constructed.
type CaseMeta struct {
	CaseID        string     `json:"caseId"`
	PatientID     string     `json:"patientId"`
	ProviderID    string     `json:"providerId"`
	DateOfService time.Time  `json:"dateOfService"`
	ClaimType     ClaimType  `json:"claimType"`
	Status        CaseStatus `json:"status"`
}

// NoteType is the normalized category of a supporting note.
type NoteType string

const (
	NoteTypeOperative NoteType = "operative"
	NoteTypeAdmission NoteType = "admission"
	NoteTypeDischarge NoteType = "discharge"
	NoteTypePathology NoteType = "pathology"
	NoteTypeProgress  NoteType = "progress"
	NoteTypeBedside   NoteType = "bedside"
)

// NormalizeNoteType maps an arbitrary string to the closest known NoteType,
// defaulting to operative for anything unrecognized.
func NormalizeNoteType(raw string) NoteType {
	switch NoteType(raw) {
	case NoteTypeOperative, NoteTypeAdmission, NoteTypeDischarge, NoteTypePathology, NoteTypeProgress, NoteTypeBedside:
		return NoteType(raw)
	default:
		return NoteTypeOperative
	}
}

// AdditionalNote is a secondary note attached to the case.
type AdditionalNote struct {
	Type NoteType `json:"type"`
	Text string   `json:"text"`
}

// MaxPrimaryNoteCodePoints bounds CaseNotes.PrimaryNoteText.
const MaxPrimaryNoteCodePoints = 100_000

// CaseNotes is the immutable set of clinical notes attached to a case.
type CaseNotes struct {
	PrimaryNoteText string           `json:"primaryNoteText"`
	AdditionalNotes []AdditionalNote `json:"additionalNotes"`
}

// Gender is the demographic gender enum.
type Gender string

const (
	GenderMale    Gender = "M"
	GenderFemale  Gender = "F"
	GenderOther   Gender = "O"
	GenderUnknown Gender = ""
)

// Demographics holds patient/provider/facility descriptors refined over the
// course of the workflow. Age is a pointer so "unset" is distinguishable
// from age zero.
type Demographics struct {
	Age                *int   `json:"age,omitempty"`
	Gender             Gender `json:"gender,omitempty"`
	ZipCode            string `json:"zipCode,omitempty"`
	InsuranceType      string `json:"insuranceType,omitempty"`
	MembershipStatus   string `json:"membershipStatus,omitempty"`
	ProviderDescriptor string `json:"providerDescriptor,omitempty"`
	FacilityDescriptor string `json:"facilityDescriptor,omitempty"`
}

// Valid reports whether the demographics respect the invariants: age in
// [0,150] when present, gender in the enum when set.
func (d Demographics) Valid() bool {
	if d.Age != nil && (*d.Age < 0 || *d.Age > 150) {
		return false
	}
	switch d.Gender {
	case GenderMale, GenderFemale, GenderOther, GenderUnknown:
	default:
		return false
	}
	return true
}

// RVUComponents is the three-part Relative Value Unit weighting.
type RVUComponents struct {
	Work float64 `json:"work"`
	PE   float64 `json:"pe"`
	MP   float64 `json:"mp"`
}

// EnhancedProcedureCode is a CPT code with its evidence and optional
// reference-data enrichment (populated by the CCI/RVU pathways).
type EnhancedProcedureCode struct {
	Code        string                `json:"code"`
	Description string                `json:"description"`
	Units       int                   `json:"units"`
	Evidence    []StandardizedEvidence `json:"evidence"`

	OfficialDescription  string             `json:"officialDescription,omitempty"`
	ShortDescription     string             `json:"shortDescription,omitempty"`
	IsPrimary            bool               `json:"isPrimary,omitempty"`
	StatusCode           string             `json:"statusCode,omitempty"`
	GlobalPeriodDays     string             `json:"globalPeriodDays,omitempty"`
	ModifierIndicators   map[string]string  `json:"modifierIndicators,omitempty"`
	AssistantAllowed     *bool              `json:"assistantAllowed,omitempty"`
	CoSurgeonAllowed     *bool              `json:"coSurgeonAllowed,omitempty"`
	TeamSurgeryAllowed   *bool              `json:"teamSurgeryAllowed,omitempty"`
	TOS                  string             `json:"tos,omitempty"`
	BETOS                string             `json:"betos,omitempty"`
	HierarchyPath        []string           `json:"hierarchyPath,omitempty"`
	CodeHistory          []string           `json:"codeHistory,omitempty"`
	ApplicableModifiers  []string           `json:"applicableModifiers,omitempty"`
	LinkedModifiers      []string           `json:"linkedModifiers,omitempty"`
	ApplicableAddOnCodes []string           `json:"applicableAddOnCodes,omitempty"`
	LinkedAddOnCodes     []string           `json:"linkedAddOnCodes,omitempty"`
	ApplicableICD10      []string           `json:"applicableIcd10,omitempty"`
	ICD10Linked          []string           `json:"icd10Linked,omitempty"`
	RVU                  *RVUComponents     `json:"rvu,omitempty"`
	MAI                  string             `json:"mai,omitempty"`
	MUELimit             *int               `json:"mueLimit,omitempty"`
}

// EnhancedDiagnosisCode is an ICD-10 code with its evidence and optional
// link back to the procedure it supports.
type EnhancedDiagnosisCode struct {
	Code          string                 `json:"code"`
	Description   string                 `json:"description"`
	Evidence      []StandardizedEvidence `json:"evidence"`
	LinkedCptCode *string                `json:"linkedCptCode,omitempty"`
}

// HCPCSCategory classifies an HCPCS code by its leading character.
type HCPCSCategory string

const (
	HCPCSCategoryDrugs          HCPCSCategory = "Drugs"
	HCPCSCategoryDME            HCPCSCategory = "DME"
	HCPCSCategorySupplies       HCPCSCategory = "Supplies"
	HCPCSCategoryTransportation HCPCSCategory = "Transportation"
	HCPCSCategoryOther          HCPCSCategory = "Other"
)

// CategorizeHCPCS determines an HCPCS code's category from its first
// character: J→Drugs, E→DME, A→Supplies, T→Transportation, else Other.
func CategorizeHCPCS(code string) HCPCSCategory {
	if len(code) == 0 {
		return HCPCSCategoryOther
	}
	switch code[0] {
	case 'J', 'j':
		return HCPCSCategoryDrugs
	case 'E', 'e':
		return HCPCSCategoryDME
	case 'A', 'a':
		return HCPCSCategorySupplies
	case 'T', 't':
		return HCPCSCategoryTransportation
	default:
		return HCPCSCategoryOther
	}
}

// HCPCSCode is a durable-medical-equipment/supply/transport code.
type HCPCSCode struct {
	Code        string                 `json:"code"`
	Description string                 `json:"description"`
	Evidence    []StandardizedEvidence `json:"evidence"`
	Units       int                    `json:"units"`
	Category    HCPCSCategory          `json:"category"`
}

// ModifierClassification is the payment-relevance category of a modifier.
type ModifierClassification string

const (
	ModifierClassPricing       ModifierClassification = "Pricing"
	ModifierClassPayment       ModifierClassification = "Payment"
	ModifierClassLocation      ModifierClassification = "Location"
	ModifierClassInformational ModifierClassification = "Informational"
)

// RequiredDocumentation carries either a string description or a boolean
// flag for "requiredDocumentation" — a caller may supply either shape.
type RequiredDocumentation struct {
	Text string `json:"text,omitempty"`
	Flag *bool  `json:"flag,omitempty"`
}

// StandardizedModifier is a billing modifier assigned to a procedure code.
// Modifier is nil when no modifier applies but the agent still wants to
// record the rationale for not applying one.
type StandardizedModifier struct {
	Modifier              *string                 `json:"modifier"`
	Description           string                  `json:"description"`
	Rationale             string                  `json:"rationale"`
	LinkedCptCode         string                  `json:"linkedCptCode"`
	Evidence              []StandardizedEvidence  `json:"evidence,omitempty"`
	Classification        ModifierClassification  `json:"classification"`
	RequiredDocumentation RequiredDocumentation    `json:"requiredDocumentation"`
	FeeAdjustment         string                  `json:"feeAdjustment"`
	EditType              *string                 `json:"editType,omitempty"`
	AppliesTo             []string                `json:"appliesTo,omitempty"`
}

// AgentName enumerates the stages in the fixed topology.
type AgentName string

const (
	AgentCPT      AgentName = "CPT"
	AgentICD      AgentName = "ICD"
	AgentCCI      AgentName = "CCI"
	AgentLCD      AgentName = "LCD"
	AgentModifier AgentName = "MODIFIER"
	AgentRVU      AgentName = "RVU"
)

// NormalizeAgentName maps the legacy "COMPLIANCE" alias onto "CCI".
func NormalizeAgentName(raw string) AgentName {
	if raw == "COMPLIANCE" {
		return AgentCCI
	}
	return AgentName(raw)
}

// EvidenceContent is the optional, strongly typed payload an evidence entry
// may carry — the same tagged-variant shape as ResultData, applied to
// evidence instead of just to a result.
type EvidenceContent struct {
	Type     string                 `json:"type"`
	CPT      *EnhancedProcedureCode `json:"cpt,omitempty"`
	ICD      *EnhancedDiagnosisCode `json:"icd,omitempty"`
	HCPCS    *HCPCSCode             `json:"hcpcs,omitempty"`
	Modifier *StandardizedModifier  `json:"modifier,omitempty"`
	CCI      *CCIResult             `json:"cci,omitempty"`
	LCD      *LCDResult             `json:"lcd,omitempty"`
	RVU      *RVUResult             `json:"rvu,omitempty"`
}

// StandardizedEvidence is the unit of provenance attached to every derived
// fact. Evidence is append-only; once recorded it is never edited or removed.
type StandardizedEvidence struct {
	VerbatimEvidence []string         `json:"verbatimEvidence"`
	Rationale        string           `json:"rationale"`
	SourceAgent      AgentName        `json:"sourceAgent"`
	SourceNote       NoteType         `json:"sourceNote"`
	Confidence       float64          `json:"confidence"`
	Content          *EvidenceContent `json:"content,omitempty"`
}

// FlagSeverity is the severity of a compliance flag.
type FlagSeverity string

const (
	SeverityError   FlagSeverity = "ERROR"
	SeverityWarning FlagSeverity = "WARNING"
	SeverityInfo    FlagSeverity = "INFO"
)

// PTPFlag is a Procedure-to-Procedure bundling edit.
type PTPFlag struct {
	Severity         FlagSeverity `json:"severity"`
	AffectedCodes    []string     `json:"affectedCodes"`
	Message          string       `json:"message"`
	AllowedModifiers []string     `json:"allowedModifiers,omitempty"`
}

// MUEFlag is a Medically Unlikely Edit (maximum units) violation.
type MUEFlag struct {
	Severity      FlagSeverity `json:"severity"`
	AffectedCodes []string     `json:"affectedCodes"`
	Message       string       `json:"message"`
	ClaimedUnits  int          `json:"claimedUnits"`
	MaxUnits      int          `json:"maxUnits"`
	Remediation   string       `json:"remediation,omitempty"`
}

// GlobalFlag flags a code falling inside another procedure's global period.
type GlobalFlag struct {
	Severity          FlagSeverity `json:"severity"`
	AffectedCodes     []string     `json:"affectedCodes"`
	Message           string       `json:"message"`
	SuggestedModifier string       `json:"suggestedModifier,omitempty"`
	Remediation       string       `json:"remediation,omitempty"`
}

// RVUFlag is an RVU-related compliance observation; always WARNING when
// surfaced to the output artifact.
type RVUFlag struct {
	Severity      FlagSeverity `json:"severity"`
	AffectedCodes []string     `json:"affectedCodes"`
	Message       string       `json:"message"`
	Remediation   string       `json:"remediation,omitempty"`
}

// CCIOverallStatus summarizes a CCI analysis pass.
type CCIOverallStatus string

const (
	CCIStatusPass    CCIOverallStatus = "PASS"
	CCIStatusFail    CCIOverallStatus = "FAIL"
	CCIStatusWarning CCIOverallStatus = "WARNING"
)

// CCISummary is the counted roll-up of a CCIResult.
type CCISummary struct {
	ErrorCount    int              `json:"errorCount"`
	WarningCount  int              `json:"warningCount"`
	InfoCount     int              `json:"infoCount"`
	OverallStatus CCIOverallStatus `json:"overallStatus"`
}

// CCIResult is the compliance/bundling agent's output.
type CCIResult struct {
	PTPFlags    []PTPFlag    `json:"ptpFlags"`
	MUEFlags    []MUEFlag    `json:"mueFlags"`
	GlobalFlags []GlobalFlag `json:"globalFlags"`
	RVUFlags    []RVUFlag    `json:"rvuFlags"`
	Summary     CCISummary   `json:"summary"`
	ProcessedAt time.Time    `json:"processedAt"`
}

// MUEResult is the dedicated Medically-Unlikely-Edit summary field, kept
// distinct from CCIResult.MUEFlags as its own single-writer field.
type MUEResult struct {
	Flags         []MUEFlag        `json:"flags"`
	OverallStatus CCIOverallStatus `json:"overallStatus"`
}

// CoverageStatus is a single LCD policy's evaluated outcome.
type CoverageStatus string

const (
	CoverageStatusPass    CoverageStatus = "Pass"
	CoverageStatusFail    CoverageStatus = "Fail"
	CoverageStatusUnknown CoverageStatus = "Unknown"
)

// OverallCoverageStatus is the roll-up of every evaluated policy.
type OverallCoverageStatus string

const (
	OverallCoveragePass    OverallCoverageStatus = "Pass"
	OverallCoverageFail    OverallCoverageStatus = "Fail"
	OverallCoveragePartial OverallCoverageStatus = "Partial"
	OverallCoverageUnknown OverallCoverageStatus = "Unknown"
)

// UnmetCriterion is a single documentation/criterion gap found against a
// policy.
type UnmetCriterion struct {
	Criterion string       `json:"criterion"`
	Action    string       `json:"action"`
	Severity  FlagSeverity `json:"severity"`
}

// PolicyEvaluation is one LCD policy's evaluation outcome.
type PolicyEvaluation struct {
	PolicyID            string                 `json:"policyId"`
	Title               string                 `json:"title"`
	RetrievalScore      float64                `json:"retrievalScore"`
	CoverageStatus      CoverageStatus         `json:"coverageStatus"`
	UnmetCriteria       []UnmetCriterion       `json:"unmetCriteria"`
	Evidence            []StandardizedEvidence `json:"evidence"`
	NeededDocumentation []string               `json:"neededDocumentation,omitempty"`
}

// LCDResult is the Local Coverage Determination agent's output.
type LCDResult struct {
	MACJurisdiction       string                `json:"macJurisdiction"`
	PolicyDate            time.Time             `json:"policyDate"`
	Evaluations           []PolicyEvaluation    `json:"evaluations"`
	BestMatch             *PolicyEvaluation     `json:"bestMatch,omitempty"`
	OverallCoverageStatus OverallCoverageStatus `json:"overallCoverageStatus"`
	CriticalIssues        []string              `json:"criticalIssues,omitempty"`
	Recommendations       []string              `json:"recommendations,omitempty"`
}

// RVULineItem is one code's RVU computation.
type RVULineItem struct {
	Code             string        `json:"code"`
	BaseRVU          RVUComponents `json:"baseRvu"`
	GPCI             RVUComponents `json:"gpci"`
	AdjustedRVU      RVUComponents `json:"adjustedRvu"`
	ConversionFactor float64       `json:"conversionFactor"`
	PaymentAmount    float64       `json:"paymentAmount"`
	Flags            []string      `json:"flags,omitempty"`
}

// RVUResult is the RVU-calculation agent's output.
type RVUResult struct {
	Calculations []RVULineItem `json:"calculations"`
	ProcessedAt  time.Time     `json:"processedAt"`
}

// SequencedLine is one code's position and contribution in the final claim
// sequence.
type SequencedLine struct {
	Code             string  `json:"code"`
	Sequence         int     `json:"sequence"`
	Rationale        string  `json:"rationale"`
	TotalAdjustedRVU float64 `json:"totalAdjustedRvu"`
}

// RVUSequencingResult is the final, sequenced claim line ordering.
type RVUSequencingResult struct {
	Sequence  []SequencedLine `json:"sequence"`
	TotalRVU  float64         `json:"totalRvu"`
	Rationale string          `json:"rationale"`
}

// ErrorSeverity is the severity of a ProcessingError.
type ErrorSeverity string

const (
	SeverityLow      ErrorSeverity = "LOW"
	SeverityMedium   ErrorSeverity = "MEDIUM"
	SeverityHigh     ErrorSeverity = "HIGH"
	SeverityCritical ErrorSeverity = "CRITICAL"
)

// ProcessingError is a single accumulated workflow error.
type ProcessingError struct {
	Message    string                 `json:"message"`
	Severity   ErrorSeverity          `json:"severity"`
	Timestamp  time.Time              `json:"timestamp"`
	Source     string                 `json:"source,omitempty"`
	Context    map[string]interface{} `json:"context,omitempty"`
	StackTrace string                 `json:"stackTrace,omitempty"`
}

// HistoryResult is the outcome recorded for a history entry.
type HistoryResult string

const (
	HistorySuccess HistoryResult = "success"
	HistoryFailure HistoryResult = "failure"
	HistoryWarning HistoryResult = "warning"
)

// HistoryEntry is a single audit-trail record of workflow activity.
type HistoryEntry struct {
	AgentName string                 `json:"agentName"`
	Timestamp time.Time              `json:"timestamp"`
	Action    string                 `json:"action"`
	Result    HistoryResult          `json:"result"`
	Details   map[string]interface{} `json:"details,omitempty"`
}

package models

// Message roles. The transcript is an append-only log supplied by the caller
// on every request; nothing is persisted server-side.
const (
	RoleAssistant = "assistant"
	RolePatient   = "patient"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type PatientProfile struct {
	Sex                string `json:"sex,omitempty"`
	Age                string `json:"age,omitempty"`
	PMH                string `json:"pmh,omitempty"`
	FamilyHistory      string `json:"familyHistory,omitempty"`
	CurrentMedications string `json:"currentMedications,omitempty"`
	FamilyDoctor       string `json:"familyDoctor,omitempty"`
	Allergies          string `json:"allergies,omitempty"`
}

// TurnRequest is the body of POST /interview/turn. patientEmail and
// physicianId are advisory identity hints: a disagreement with the invitation
// row is audited but never blocks the request.
type TurnRequest struct {
	ChiefComplaint string         `json:"chiefComplaint" binding:"required"`
	PatientProfile PatientProfile `json:"patientProfile"`
	Transcript     []Message      `json:"transcript"`

	ImageSummary             string `json:"imageSummary,omitempty"`
	LabReportSummary         string `json:"labReportSummary,omitempty"`
	PreviousLabReportSummary string `json:"previousLabReportSummary,omitempty"`
	FormSummary              string `json:"formSummary,omitempty"`
	InterviewGuidance        string `json:"interviewGuidance,omitempty"`
	MedPmhSummary            string `json:"medPmhSummary,omitempty"`
	PatientBackground        string `json:"patientBackground,omitempty"`

	ForceSummary bool   `json:"forceSummary,omitempty"`
	Language     string `json:"language,omitempty"` // ISO-639-1

	PatientEmail string `json:"patientEmail,omitempty"`
	PhysicianID  string `json:"physicianId,omitempty"`
}

// Turn type discriminators.
const (
	TurnQuestion = "question"
	TurnSummary  = "summary"
)

// InterviewTurn is the tagged union returned to the caller: either the next
// question to ask or the final structured summary.
type InterviewTurn struct {
	Type string `json:"type"`

	// question
	Question  string `json:"question,omitempty"`
	Rationale string `json:"rationale,omitempty"`

	// summary; the arrays marshal as [] when empty so clients can range
	// over them without a presence check
	Positives        []string `json:"positives"`
	Negatives        []string `json:"negatives"`
	PhysicalFindings []string `json:"physicalFindings"`
	Summary          string   `json:"summary,omitempty"`
	Investigations   []string `json:"investigations"`
	Assessment       string   `json:"assessment,omitempty"`
	Plan             []string `json:"plan"`
}

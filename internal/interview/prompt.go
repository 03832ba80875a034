package interview

import (
	"fmt"
	"strings"

	"github.com/cliniqa/intake/internal/models"
)

// Greeting opens a fresh interview before any model call is made.
const Greeting = "Welcome. I'm going to ask you a few questions about what brings you in today, so your clinician has a head start. In one sentence, what is the main problem and when did it start?"

const systemPreamble = `You are a clinical intake assistant conducting a structured pre-visit interview. You do not diagnose and you do not give treatment advice. Ask exactly one short, plain-language question at a time, never repeating a topic that was already asked or already answered. Reply with a single JSON object and nothing else.`

const questionSchema = `Respond as {"type":"question","question":"...","rationale":"..."}. The question must be rephrased in your own words, at most 1000 characters; the rationale at most 280.`

const summarySchema = `Respond as {"type":"summary","positives":[],"negatives":[],"physicalFindings":[],"summary":"...","investigations":[],"assessment":"...","plan":[]}. Arrays hold at most 6 short items; summary and assessment at most 1500 characters. Include only information actually stated in the interview.`

// Prompts is the assembled instruction payload for one completion call.
type Prompts struct {
	System string
	User   string
}

// BuildPrompts mechanically combines tracker, classifier and phase output
// into the completion-service payload. The full transcript never travels to
// the model; the derived lists plus a bounded recent window do.
func BuildPrompts(req models.TurnRequest, complaints []Complaint, current int, a Analysis, phase PhaseState) Prompts {
	var sys strings.Builder
	sys.WriteString(systemPreamble)
	if phase.ReadyToSummarize {
		sys.WriteString("\n\nThe interview is complete. Produce the final structured summary.\n")
		sys.WriteString(summarySchema)
	} else {
		sys.WriteString("\n\nThe interview is still in progress. Ask the next most useful question.\n")
		sys.WriteString(questionSchema)
	}
	if req.Language != "" && req.Language != "en" {
		fmt.Fprintf(&sys, "\nWrite all patient-facing text in the language with ISO 639-1 code %q.", req.Language)
	}

	var u strings.Builder
	fmt.Fprintf(&u, "Chief complaint: %s\n", req.ChiefComplaint)
	fmt.Fprintf(&u, "Interview phase: %s (questions asked: %d", phase.Phase, phase.QuestionCount)
	if phase.Unlimited {
		u.WriteString(", budget: unlimited)\n")
	} else {
		fmt.Fprintf(&u, ", budget: %d)\n", phase.Budget)
	}
	if phase.Escalated {
		fmt.Fprintf(&u, "Escalated interview: %s\n", strings.Join(phase.EscalationReasons, "; "))
	}

	writeProfile(&u, req.PatientProfile)
	writeOptional(&u, "Attached form", req.FormSummary)
	writeOptional(&u, "Imaging summary", req.ImageSummary)
	writeOptional(&u, "Lab report", req.LabReportSummary)
	writeOptional(&u, "Previous lab report", req.PreviousLabReportSummary)
	writeOptional(&u, "Medication/PMH summary", req.MedPmhSummary)
	writeOptional(&u, "Patient background", req.PatientBackground)
	writeOptional(&u, "Physician guidance", req.InterviewGuidance)

	if len(complaints) > 0 {
		u.WriteString("\nComplaints:\n")
		for i, c := range complaints {
			marker := " "
			if i == current {
				marker = ">"
			}
			fmt.Fprintf(&u, "%s %d. %s [%s]\n", marker, i+1, c.Text, c.Category)
		}
		u.WriteString("Safety checklist for the current complaint (each must be probed before summarizing):\n")
		for _, item := range ChecklistFor(complaints[current].Category) {
			fmt.Fprintf(&u, "- %s\n", item.Name)
		}
	}

	if len(a.QuestionTopics) > 0 {
		fmt.Fprintf(&u, "\nTopics already asked (do not repeat): %s\n", strings.Join(a.QuestionTopics, ", "))
	}
	if len(a.VolunteeredTopics) > 0 {
		fmt.Fprintf(&u, "Topics already volunteered by the patient (do not re-ask): %s\n", strings.Join(a.VolunteeredTopics, ", "))
	}
	if len(a.VolunteeredFacts) > 0 {
		u.WriteString("Facts the patient already stated:\n")
		for _, f := range a.VolunteeredFacts {
			fmt.Fprintf(&u, "- %s\n", f)
		}
	}
	if len(a.AskedQuestions) > len(a.RecentWindow) {
		u.WriteString("Every question asked so far (full history):\n")
		for _, q := range a.AskedQuestions {
			fmt.Fprintf(&u, "- %s\n", q)
		}
	}

	u.WriteString("\nRecent conversation:\n")
	if len(a.RecentWindow) == 0 {
		u.WriteString("(none yet, this is the first turn)\n")
	}
	for _, m := range a.RecentWindow {
		fmt.Fprintf(&u, "%s: %s\n", m.Role, m.Content)
	}

	return Prompts{System: sys.String(), User: u.String()}
}

func writeProfile(b *strings.Builder, p models.PatientProfile) {
	fields := []struct{ label, val string }{
		{"Sex", p.Sex},
		{"Age", p.Age},
		{"Past medical history", p.PMH},
		{"Family history", p.FamilyHistory},
		{"Current medications", p.CurrentMedications},
		{"Family doctor", p.FamilyDoctor},
		{"Allergies", p.Allergies},
	}
	wrote := false
	for _, f := range fields {
		if f.val == "" {
			continue
		}
		if !wrote {
			b.WriteString("Patient profile:\n")
			wrote = true
		}
		fmt.Fprintf(b, "- %s: %s\n", f.label, f.val)
	}
}

func writeOptional(b *strings.Builder, label, val string) {
	if strings.TrimSpace(val) == "" {
		return
	}
	fmt.Fprintf(b, "%s: %s\n", label, val)
}

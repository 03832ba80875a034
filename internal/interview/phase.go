package interview

import (
	"regexp"
	"strings"

	"github.com/cliniqa/intake/internal/models"
)

type Phase string

const (
	PhaseHPIFirst    Phase = "HPI_FIRST"
	PhaseFormCatchup Phase = "FORM_CATCHUP"
)

// PhaseState is derived from the transcript on every call and never stored;
// recomputation is what keeps retried or duplicated calls idempotent.
type PhaseState struct {
	Phase     Phase
	Escalated bool
	// EscalationReasons names why the flag is set, for logging and prompts.
	EscalationReasons []string

	// Budget caps total questions; meaningless when Unlimited is set.
	Budget    int
	Unlimited bool

	QuestionCount    int
	ReadyToSummarize bool
}

var redFlagPattern = regexp.MustCompile(`(?i)\b(crushing chest|can't breathe|cannot breathe|passed out|unconscious|worst headache|slurred|vomiting blood|blood in stool|suicidal|overdose|severe bleeding)\b`)

var medicoLegalPattern = regexp.MustCompile(`(?i)\b(insurance claim|legal|attorney|lawyer|wsib|worker'?s comp(ensation)?|disability claim|motor vehicle accident report)\b`)

// ComputePhase derives phase, escalation, budget and the terminal signal from
// the inputs of a single call.
func (t Tuning) ComputePhase(complaints []Complaint, transcript []models.Message, formAttached bool, formText string, requiredFields []string, forceSummary bool) PhaseState {
	s := PhaseState{Phase: PhaseHPIFirst}

	for _, m := range transcript {
		if redFlagPattern.MatchString(m.Content) {
			s.escalate("red-flag keyword in transcript")
			break
		}
	}
	if len(complaints) > 1 {
		s.escalate("multiple complaints")
	}
	for _, c := range complaints {
		if c.Category == CategoryTrauma {
			s.escalate("trauma/mva complaint")
			break
		}
	}
	if formAttached {
		s.escalate("structured form attached")
	}
	if formText != "" && medicoLegalPattern.MatchString(formText) {
		s.escalate("medico-legal documentation")
	}

	// Budget: escalation widens it; an attached form removes the cap outright,
	// since a form-bound interview must not be truncated before every required
	// field is covered.
	s.Budget = t.BaseBudget
	if s.Escalated {
		s.Budget = int(float64(t.BaseBudget) * t.EscalationFactor)
	}
	if formAttached {
		s.Unlimited = true
	}

	for _, m := range transcript {
		if m.Role == models.RoleAssistant {
			s.QuestionCount++
		}
	}

	// A form interview flips to catch-up past the midpoint. The budget is
	// always uncapped when a form is attached, so the tuned stand-in is the
	// only midpoint in play.
	if formAttached && s.QuestionCount >= t.UnlimitedMidpoint {
		s.Phase = PhaseFormCatchup
	}

	allComplete := true
	for _, c := range complaints {
		if !t.Completed(c, transcript, s.QuestionCount) {
			allComplete = false
			break
		}
	}

	switch {
	case forceSummary:
		s.ReadyToSummarize = true
	case allComplete && formFieldsCovered(requiredFields, transcript):
		s.ReadyToSummarize = true
	case !s.Unlimited && s.QuestionCount >= s.Budget:
		// Budget exhausted; summarize with what we have rather than overrun.
		s.ReadyToSummarize = true
	}
	return s
}

func (s *PhaseState) escalate(reason string) {
	s.Escalated = true
	s.EscalationReasons = append(s.EscalationReasons, reason)
}

// formFieldsCovered checks that each required form field has been textually
// referenced: at least one of its significant keywords appears somewhere in
// the transcript.
func formFieldsCovered(requiredFields []string, transcript []models.Message) bool {
	if len(requiredFields) == 0 {
		return true
	}
	joined := strings.ToLower(joinTranscript(transcript))
	for _, field := range requiredFields {
		kws := significantKeywords(field)
		if len(kws) == 0 {
			continue
		}
		hit := false
		for _, kw := range kws {
			if strings.Contains(joined, kw) {
				hit = true
				break
			}
		}
		if !hit {
			return false
		}
	}
	return true
}

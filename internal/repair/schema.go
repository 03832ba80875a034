package repair

import (
	"errors"
	"fmt"

	"github.com/cliniqa/intake/internal/models"
)

// Per-field limits of the turn contract.
const (
	MaxQuestionLen   = 1000
	MaxRationaleLen  = 280
	MaxSummaryLen    = 1500
	MaxAssessmentLen = 1500
	MaxArrayItems    = 6
)

var errOverLength = errors.New("over length limit")

// Finalize validates a parsed turn. When validation fails solely because of
// over-length fields or over-count arrays, the offenders are truncated to
// their limits and validated once more; any other defect is rejected.
func Finalize(t models.InterviewTurn) (models.InterviewTurn, error) {
	err := validate(t)
	if err == nil {
		return normalize(t), nil
	}
	if !errors.Is(err, errOverLength) {
		return models.InterviewTurn{}, err
	}
	t = truncate(t)
	if err := validate(t); err != nil {
		return models.InterviewTurn{}, err
	}
	return normalize(t), nil
}

// normalize replaces nil array fields with empty slices; the response
// contract marshals them as [], never null or a missing key.
func normalize(t models.InterviewTurn) models.InterviewTurn {
	if t.Positives == nil {
		t.Positives = []string{}
	}
	if t.Negatives == nil {
		t.Negatives = []string{}
	}
	if t.PhysicalFindings == nil {
		t.PhysicalFindings = []string{}
	}
	if t.Investigations == nil {
		t.Investigations = []string{}
	}
	if t.Plan == nil {
		t.Plan = []string{}
	}
	return t
}

func validate(t models.InterviewTurn) error {
	switch t.Type {
	case models.TurnQuestion:
		if t.Question == "" {
			return errors.New("question turn missing question text")
		}
		if len([]rune(t.Question)) > MaxQuestionLen || len([]rune(t.Rationale)) > MaxRationaleLen {
			return fmt.Errorf("question turn: %w", errOverLength)
		}
	case models.TurnSummary:
		if t.Summary == "" {
			return errors.New("summary turn missing summary text")
		}
		if len([]rune(t.Summary)) > MaxSummaryLen || len([]rune(t.Assessment)) > MaxAssessmentLen {
			return fmt.Errorf("summary turn: %w", errOverLength)
		}
		for _, arr := range [][]string{t.Positives, t.Negatives, t.PhysicalFindings, t.Investigations, t.Plan} {
			if len(arr) > MaxArrayItems {
				return fmt.Errorf("summary turn: %w", errOverLength)
			}
		}
	default:
		return fmt.Errorf("unknown turn type %q", t.Type)
	}
	return nil
}

func truncate(t models.InterviewTurn) models.InterviewTurn {
	t.Question = clipString(t.Question, MaxQuestionLen)
	t.Rationale = clipString(t.Rationale, MaxRationaleLen)
	t.Summary = clipString(t.Summary, MaxSummaryLen)
	t.Assessment = clipString(t.Assessment, MaxAssessmentLen)
	t.Positives = clipArray(t.Positives)
	t.Negatives = clipArray(t.Negatives)
	t.PhysicalFindings = clipArray(t.PhysicalFindings)
	t.Investigations = clipArray(t.Investigations)
	t.Plan = clipArray(t.Plan)
	return t
}

func clipString(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}

func clipArray(a []string) []string {
	if len(a) <= MaxArrayItems {
		return a
	}
	return a[:MaxArrayItems]
}

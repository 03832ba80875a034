package interview

import (
	"fmt"
	"testing"

	"github.com/cliniqa/intake/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzeTranscriptTagsQuestions(t *testing.T) {
	tr := []models.Message{
		{Role: models.RoleAssistant, Content: "How bad is the pain, on a scale of 1 out of 10?"},
		{Role: models.RolePatient, Content: "About a 6."},
		{Role: models.RoleAssistant, Content: "How long have you had it?"},
		{Role: models.RolePatient, Content: "Three days now."},
	}

	a := AnalyzeTranscript(tr, 20)
	assert.Equal(t, 2, a.QuestionCount)
	require.Len(t, a.AskedQuestions, 2)
	assert.Contains(t, a.QuestionTopics, "severity")
	assert.Contains(t, a.QuestionTopics, "duration")
}

func TestAnalyzeTranscriptVolunteeredInfo(t *testing.T) {
	tr := []models.Message{
		{Role: models.RoleAssistant, Content: "What brings you in today?"},
		{Role: models.RolePatient, Content: "My throat hurts. I've had a fever for 2 days and I'm allergic to penicillin."},
	}

	a := AnalyzeTranscript(tr, 20)
	assert.Contains(t, a.VolunteeredTopics, "fever")
	assert.Contains(t, a.VolunteeredTopics, "allergies")
	assert.NotEmpty(t, a.VolunteeredFacts)
}

func TestAnalyzeTranscriptIsPure(t *testing.T) {
	tr := []models.Message{
		{Role: models.RoleAssistant, Content: "Does the pain radiate anywhere?"},
		{Role: models.RolePatient, Content: "Into my left arm."},
	}
	assert.Equal(t, AnalyzeTranscript(tr, 20), AnalyzeTranscript(tr, 20))
}

func TestTopicsMonotonicGrowth(t *testing.T) {
	questions := []string{
		"How bad is the pain out of 10?",
		"How long has this been going on?",
		"Does it radiate anywhere?",
		"Are you taking any medication for it?",
		"Do you have a fever or chills?",
	}

	var tr []models.Message
	var prev []string
	for _, q := range questions {
		tr = append(tr,
			models.Message{Role: models.RoleAssistant, Content: q},
			models.Message{Role: models.RolePatient, Content: "hm, let me think"},
		)
		cur := AnalyzeTranscript(tr, 20).QuestionTopics
		assert.Subset(t, cur, prev, "topic set must never lose a previously recorded topic")
		prev = cur
	}
	assert.Len(t, prev, 5)
}

func TestDerivedListsUseFullHistoryBeyondWindow(t *testing.T) {
	// The severity question lands far outside the recent window; the derived
	// topic list must still retain it.
	tr := []models.Message{
		{Role: models.RoleAssistant, Content: "How severe is it, out of 10?"},
		{Role: models.RolePatient, Content: "Maybe a 7."},
	}
	for i := 0; i < 30; i++ {
		tr = append(tr,
			models.Message{Role: models.RoleAssistant, Content: fmt.Sprintf("filler question %d", i)},
			models.Message{Role: models.RolePatient, Content: "filler answer"},
		)
	}

	a := AnalyzeTranscript(tr, 10)
	assert.Len(t, a.RecentWindow, 10)
	assert.Contains(t, a.QuestionTopics, "severity")
	assert.Len(t, a.AskedQuestions, 31)
}

func TestEndsOnPatient(t *testing.T) {
	assert.True(t, EndsOnPatient(nil))
	assert.True(t, EndsOnPatient([]models.Message{
		{Role: models.RoleAssistant, Content: "q"},
		{Role: models.RolePatient, Content: "a"},
	}))
	assert.False(t, EndsOnPatient([]models.Message{
		{Role: models.RolePatient, Content: "a"},
		{Role: models.RoleAssistant, Content: "q"},
	}))
}

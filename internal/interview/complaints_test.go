package interview

import (
	"fmt"
	"testing"

	"github.com/cliniqa/intake/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		text string
		want Category
	}{
		{"crushing chest pain", CategoryCardiac},
		{"shortness of breath", CategoryRespiratory},
		{"severe headache", CategoryNeuro},
		{"left ankle pain after twist injury", CategoryMSK},
		{"stomach cramps and nausea", CategoryAbdominal},
		{"sore throat", CategoryENT},
		{"neck pain after car accident", CategoryTrauma},
		{"feeling generally unwell", CategoryOther},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.text))
		})
	}
}

func TestClassifyTraumaBeforeMSK(t *testing.T) {
	// A joint complaint with an accident mechanism must escalate to trauma,
	// not classify as routine MSK.
	assert.Equal(t, CategoryTrauma, Classify("knee pain after a collision"))
}

func TestParseComplaintsSplitsOnSeparators(t *testing.T) {
	out := ParseComplaints("sore throat, fever and mild cough")
	require.Len(t, out, 3)
	assert.Equal(t, "sore throat", out[0].Text)
	assert.Equal(t, "fever", out[1].Text)
	assert.Equal(t, "mild cough", out[2].Text)
	assert.Equal(t, 0, out[0].Ordinal)
	assert.Equal(t, 2, out[2].Ordinal)
}

func TestParseComplaintsEmptyInput(t *testing.T) {
	out := ParseComplaints("   ")
	require.Len(t, out, 1)
	assert.Equal(t, CategoryOther, out[0].Category)

	// The baseline checklist still applies to the degenerate complaint.
	items := ChecklistFor(out[0].Category)
	names := itemNames(items)
	assert.Contains(t, names, "loss of consciousness")
	assert.Contains(t, names, "sepsis signs")
}

func TestChecklistScoping(t *testing.T) {
	headache := ParseComplaints("severe headache")[0]
	require.Equal(t, CategoryNeuro, headache.Category)
	names := itemNames(ChecklistFor(headache.Category))
	assert.Contains(t, names, "thunderclap onset")
	assert.NotContains(t, names, "inability to bear weight")

	ankle := ParseComplaints("left ankle pain after twist injury")[0]
	require.Equal(t, CategoryMSK, ankle.Category)
	names = itemNames(ChecklistFor(ankle.Category))
	assert.Contains(t, names, "inability to bear weight")
	assert.NotContains(t, names, "thunderclap onset")
}

func TestChecklistIncludesBaselineForEveryCategory(t *testing.T) {
	for _, cat := range []Category{CategoryCardiac, CategoryRespiratory, CategoryNeuro, CategoryMSK, CategoryAbdominal, CategoryENT, CategoryTrauma, CategoryOther} {
		names := itemNames(ChecklistFor(cat))
		assert.Contains(t, names, "severe bleeding", "category %s", cat)
		assert.Contains(t, names, "mental-status change", "category %s", cat)
	}
}

func TestCompletedRequiresAllThreeConditions(t *testing.T) {
	tuning := DefaultTuning()
	c := ParseComplaints("sore throat")[0]

	covered := transcriptWithQuestions(8, "Do you have a fever with the sore throat? Any trouble when you swallow?")

	assert.True(t, tuning.Completed(c, covered, 8))
	assert.False(t, tuning.Completed(c, covered, 7), "below minimum question count")

	noSafety := transcriptWithQuestions(8, "Tell me more about the sore throat please")
	assert.False(t, tuning.Completed(c, noSafety, 8), "no checklist keyword referenced")

	noCoverage := transcriptWithQuestions(8, "Do you have a fever? Any drooling?")
	assert.False(t, tuning.Completed(c, noCoverage, 8), "keyword coverage below ratio")
}

func TestCurrentComplaintIndexAdvances(t *testing.T) {
	tuning := DefaultTuning()
	complaints := ParseComplaints("sore throat and knee pain")
	require.Len(t, complaints, 2)

	empty := []models.Message{}
	assert.Equal(t, 0, tuning.CurrentComplaintIndex(complaints, empty, 0))

	// First complaint fully covered, second untouched.
	tr := transcriptWithQuestions(9, "How is the sore throat? Any fever? Can you swallow?")
	assert.Equal(t, 1, tuning.CurrentComplaintIndex(complaints, tr, 9))
}

func itemNames(items []SafetyItem) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.Name)
	}
	return out
}

func transcriptWithQuestions(n int, lastContent string) []models.Message {
	var tr []models.Message
	for i := 0; i < n-1; i++ {
		tr = append(tr,
			models.Message{Role: models.RoleAssistant, Content: fmt.Sprintf("question %d", i)},
			models.Message{Role: models.RolePatient, Content: fmt.Sprintf("answer %d", i)},
		)
	}
	tr = append(tr,
		models.Message{Role: models.RoleAssistant, Content: lastContent},
		models.Message{Role: models.RolePatient, Content: "yes"},
	)
	return tr
}

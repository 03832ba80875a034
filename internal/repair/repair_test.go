package repair

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/cliniqa/intake/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validQuestion = `{"type":"question","question":"How long have you had the sore throat?","rationale":"Establish duration."}`

func TestRecoverCleanJSON(t *testing.T) {
	turn, err := Recover(validQuestion)
	require.NoError(t, err)
	assert.Equal(t, models.TurnQuestion, turn.Type)
	assert.Equal(t, "How long have you had the sore throat?", turn.Question)
}

func TestRecoverCorruptedCorpus(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"code fence", "```json\n" + validQuestion + "\n```"},
		{"bare fence", "```\n" + validQuestion + "\n```"},
		{"leading prose", "Sure! Here is the next question:\n\n" + validQuestion},
		{"trailing prose", validQuestion + "\n\nLet me know if you need anything else."},
		{"trailing comma", `{"type":"question","question":"How long have you had the sore throat?","rationale":"Establish duration.",}`},
		{"line comment", "{\n// next turn\n\"type\":\"question\",\"question\":\"How long have you had the sore throat?\",\"rationale\":\"Establish duration.\"}"},
		{"raw newline in string", "{\"type\":\"question\",\"question\":\"How long have you\nhad the sore throat?\",\"rationale\":\"Establish duration.\"}"},
		{"missing comma between string properties", "{\"type\":\"question\",\"question\":\"How long have you had the sore throat?\"\n\"rationale\":\"Establish duration.\"}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			turn, err := Recover(tt.input)
			require.NoError(t, err)
			assert.Equal(t, models.TurnQuestion, turn.Type)
			assert.Contains(t, turn.Question, "sore throat")
			assert.Equal(t, "Establish duration.", turn.Rationale)
		})
	}
}

func TestRecoverSummaryTurn(t *testing.T) {
	raw := `Here you go:
{
  "type": "summary",
  "positives": ["sore throat for 3 days", "fever"],
  "negatives": ["no drooling"],
  "physicalFindings": [],
  "summary": "Three days of sore throat with subjective fever, no airway symptoms.",
  "investigations": ["rapid strep test"],
  "assessment": "Likely viral pharyngitis.",
  "plan": ["supportive care", "review if worse"]
}`
	turn, err := Recover(raw)
	require.NoError(t, err)
	assert.Equal(t, models.TurnSummary, turn.Type)
	assert.Len(t, turn.Positives, 2)
	assert.NotEmpty(t, turn.Plan)
}

func TestRecoverTruncatesOverLengthFields(t *testing.T) {
	long := strings.Repeat("a", 2000)
	raw := `{"type":"summary","summary":"` + long + `","plan":["1","2","3","4","5","6","7","8","9","10"]}`

	turn, err := Recover(raw)
	require.NoError(t, err)
	assert.Len(t, []rune(turn.Summary), MaxSummaryLen)
	assert.Len(t, turn.Plan, MaxArrayItems)
}

func TestRecoverRejectsFabrication(t *testing.T) {
	for _, input := range []string{
		"I'm sorry, I can't answer that.",
		"",
		"{\"type\":\"question\"}",        // parses but has no question text
		"{\"type\":\"verdict\",\"x\":1}", // unknown turn type
		"{{{{ not json at all",
	} {
		turn, err := Recover(input)
		require.Error(t, err, "input %q", input)
		assert.Empty(t, turn.Type)
	}
}

func TestRecoverErrorCarriesStageAndLength(t *testing.T) {
	input := "completely unusable output"
	_, err := Recover(input)
	var ufe *UpstreamFormatError
	require.ErrorAs(t, err, &ufe)
	assert.Equal(t, len(input), ufe.InputLen)
	assert.NotEmpty(t, ufe.Stage)
	assert.NotContains(t, ufe.Error(), "unusable", "raw model text must not leak")
}

func TestStagesAreMonotonic(t *testing.T) {
	// Input that parses verbatim must survive every later transform
	// unchanged in meaning.
	s := validQuestion
	for _, st := range stages {
		s = st.fn(s)
	}
	turn, err := Recover(s)
	require.NoError(t, err)
	assert.Equal(t, "How long have you had the sore throat?", turn.Question)
}

func TestFinalizeTruncationSafety(t *testing.T) {
	turn := models.InterviewTurn{
		Type:       models.TurnSummary,
		Summary:    strings.Repeat("s", 2000),
		Assessment: strings.Repeat("x", 1600),
		Plan:       []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"},
	}

	out, err := Finalize(turn)
	require.NoError(t, err)
	assert.LessOrEqual(t, len([]rune(out.Summary)), MaxSummaryLen)
	assert.LessOrEqual(t, len([]rune(out.Assessment)), MaxAssessmentLen)
	assert.Len(t, out.Plan, MaxArrayItems)

	// The truncated result must validate as-is.
	again, err := Finalize(out)
	require.NoError(t, err)
	assert.Equal(t, out, again)
}

func TestSummaryArraysMarshalEmpty(t *testing.T) {
	turn, err := Recover(`{"type":"summary","summary":"brief interview, little information volunteered","plan":["follow up in person"]}`)
	require.NoError(t, err)

	b, err := json.Marshal(turn)
	require.NoError(t, err)

	body := string(b)
	assert.Contains(t, body, `"positives":[]`)
	assert.Contains(t, body, `"negatives":[]`)
	assert.Contains(t, body, `"physicalFindings":[]`)
	assert.Contains(t, body, `"investigations":[]`)
	assert.NotContains(t, body, "null")
}

func TestFinalizeRejectsMissingRequiredText(t *testing.T) {
	_, err := Finalize(models.InterviewTurn{Type: models.TurnSummary})
	assert.Error(t, err)

	_, err = Finalize(models.InterviewTurn{Type: models.TurnQuestion, Rationale: "r"})
	assert.Error(t, err)
}

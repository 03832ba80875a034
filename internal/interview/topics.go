package interview

import (
	"regexp"
	"strings"

	"github.com/cliniqa/intake/internal/models"
)

// Analysis is the tracker's output: everything the orchestrator needs to know
// about what has already been asked and volunteered. It is a pure function of
// the transcript; identical transcripts always produce identical analyses.
type Analysis struct {
	// AskedQuestions holds every assistant message ever, in order. Duplicate
	// suppression depends on the whole history, never a recent window.
	AskedQuestions []string
	// QuestionTopics are normalized tags derived from asked questions.
	QuestionTopics []string
	// VolunteeredTopics are tags detected in patient answers: information
	// given without being asked, which must also not be re-asked.
	VolunteeredTopics []string
	// VolunteeredFacts are short factual snippets lifted from patient answers.
	VolunteeredFacts []string
	// RecentWindow is the bounded slice of raw messages forwarded to the model
	// for conversational context.
	RecentWindow []models.Message

	QuestionCount int
}

type topicRule struct {
	tag     string
	pattern *regexp.Regexp
}

// Data-driven tag table. Extending duplicate detection means adding a row
// here, not touching control flow.
var topicRules = []topicRule{
	{"severity", regexp.MustCompile(`(?i)\b(how (bad|severe)|severity|scale of|out of (10|ten)|pain score)\b`)},
	{"duration", regexp.MustCompile(`(?i)\b(how long|since when|duration|when did (it|this) (start|begin))\b`)},
	{"onset", regexp.MustCompile(`(?i)\b(sudden(ly)?|gradual(ly)?|come on|onset)\b`)},
	{"location", regexp.MustCompile(`(?i)\b(where (is|does|exactly)|point to|located|location)\b`)},
	{"radiation", regexp.MustCompile(`(?i)\b(radiate|spread(s|ing)? (to|anywhere)|move (to|anywhere))\b`)},
	{"character", regexp.MustCompile(`(?i)\b(sharp|dull|burning|throbbing|cramping|describe the (pain|feeling))\b`)},
	{"associated symptoms", regexp.MustCompile(`(?i)\b(other symptoms|anything else|along with|accompanied|associated)\b`)},
	{"aggravating factors", regexp.MustCompile(`(?i)\b(make(s)? it (worse|better)|aggravat|reliev|triggers?)\b`)},
	{"prior episodes", regexp.MustCompile(`(?i)\b(happened before|previous(ly)?|in the past|first time)\b`)},
	{"medications", regexp.MustCompile(`(?i)\b(medication|medicine|drugs?|taking anything|painkiller|dose)\b`)},
	{"allergies", regexp.MustCompile(`(?i)\b(allerg(y|ies|ic))\b`)},
	{"fever", regexp.MustCompile(`(?i)\b(fever|temperature|chills)\b`)},
	{"range of motion", regexp.MustCompile(`(?i)\b(range of motion|move (it|the)|bend|straighten|rotate)\b`)},
	{"weight bearing", regexp.MustCompile(`(?i)\b(bear weight|walk on|stand on|put weight)\b`)},
	{"accident details", regexp.MustCompile(`(?i)\b(accident|collision|how did (it|the injury) happen|mechanism|speed|airbag|seatbelt)\b`)},
	{"red flags", regexp.MustCompile(`(?i)\b(consciousness|passed out|numbness|weakness|bleeding|vision|breathing difficulty)\b`)},
	{"impact on function", regexp.MustCompile(`(?i)\b(daily (life|activities)|work|sleep|interfere)\b`)},
}

// Volunteered facts are mined with a looser net: short declarative fragments
// that carry a number or a recognized clinical word.
var factPattern = regexp.MustCompile(`(?i)[^.!?\n]*\b(\d+\s*(day|week|month|year|hour)s?|\d+\s*/\s*10|fever|vomit|blood|allerg\w*|medicat\w*|pregnan\w*|diabet\w*|surgery)\b[^.!?\n]*`)

// AnalyzeTranscript derives the duplicate-suppression state from the full
// transcript. Only RecentWindow is bounded; the derived lists are not, because
// losing a topic from an old turn would reopen it for re-asking.
func AnalyzeTranscript(transcript []models.Message, recentWindow int) Analysis {
	a := Analysis{}

	questionTags := map[string]bool{}
	volunteeredTags := map[string]bool{}
	seenFacts := map[string]bool{}

	for _, m := range transcript {
		switch m.Role {
		case models.RoleAssistant:
			a.AskedQuestions = append(a.AskedQuestions, m.Content)
			a.QuestionCount++
			for _, r := range topicRules {
				if !questionTags[r.tag] && r.pattern.MatchString(m.Content) {
					questionTags[r.tag] = true
					a.QuestionTopics = append(a.QuestionTopics, r.tag)
				}
			}
		case models.RolePatient:
			for _, r := range topicRules {
				if !volunteeredTags[r.tag] && r.pattern.MatchString(m.Content) {
					volunteeredTags[r.tag] = true
					a.VolunteeredTopics = append(a.VolunteeredTopics, r.tag)
				}
			}
			for _, f := range factPattern.FindAllString(m.Content, -1) {
				f = strings.TrimSpace(f)
				if f == "" || len(f) > 160 || seenFacts[f] {
					continue
				}
				seenFacts[f] = true
				a.VolunteeredFacts = append(a.VolunteeredFacts, f)
			}
		}
	}

	if recentWindow > 0 && len(transcript) > recentWindow {
		a.RecentWindow = transcript[len(transcript)-recentWindow:]
	} else {
		a.RecentWindow = transcript
	}
	return a
}

// EndsOnPatient reports whether the last message is a patient turn. A
// non-empty transcript must end on one before the engine may ask again.
func EndsOnPatient(transcript []models.Message) bool {
	if len(transcript) == 0 {
		return true
	}
	return transcript[len(transcript)-1].Role == models.RolePatient
}

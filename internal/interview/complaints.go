package interview

import (
	"regexp"
	"strings"

	"github.com/cliniqa/intake/internal/models"
)

// Category of a chief-complaint fragment, assigned by keyword matching.
type Category string

const (
	CategoryCardiac     Category = "cardiac"
	CategoryRespiratory Category = "respiratory"
	CategoryNeuro       Category = "neuro"
	CategoryMSK         Category = "msk"
	CategoryAbdominal   Category = "abdominal"
	CategoryENT         Category = "ent_throat"
	CategoryTrauma      Category = "trauma_mva"
	CategoryOther       Category = "other"
)

// Complaint is one reason-for-visit fragment. It has no persisted identity;
// everything here is recomputed from the request on every call.
type Complaint struct {
	Text     string
	Ordinal  int
	Category Category
	Keywords []string // significant keywords used for coverage measurement
}

type categoryRule struct {
	category Category
	pattern  *regexp.Regexp
}

// Ordered rule table; first match wins. Trauma sits before MSK so that
// "ankle pain after car accident" escalates rather than classifying as a
// routine joint complaint.
var categoryRules = []categoryRule{
	{CategoryTrauma, regexp.MustCompile(`(?i)\b(accident|mva|collision|crash|fall from|fell|assault|trauma|hit by|whiplash)\b`)},
	{CategoryCardiac, regexp.MustCompile(`(?i)\b(chest (pain|pressure|tightness)|palpitation|heart|angina|syncope|fainted?|fainting)\b`)},
	{CategoryRespiratory, regexp.MustCompile(`(?i)\b(short(ness)? of breath|breath(ing|less)|cough|wheez|asthma|sputum|hemoptysis|dyspnea)\b`)},
	{CategoryNeuro, regexp.MustCompile(`(?i)\b(headache|migraine|seizure|numb(ness)?|tingling|weakness|dizz(y|iness)|vertigo|vision (loss|change)|confusion|slurred)\b`)},
	{CategoryAbdominal, regexp.MustCompile(`(?i)\b(abdom(en|inal)|stomach|belly|nausea|vomit|diarrh?ea|constipation|epigastric|heartburn|blood in stool|melena)\b`)},
	{CategoryENT, regexp.MustCompile(`(?i)\b(sore throat|throat|ear(ache)?|sinus|nose|nasal|hoarse(ness)?|swallow|tonsil|strep)\b`)},
	{CategoryMSK, regexp.MustCompile(`(?i)\b(back|neck|shoulder|elbow|wrist|hip|knee|ankle|joint|muscle|sprain|strain|limp|twist)\b`)},
}

// SafetyItem is a red-flag concern that must be probed before a complaint of
// a matching category counts as explored.
type SafetyItem struct {
	Name     string
	Keywords []string
}

// Baseline items apply to every complaint regardless of category.
var baselineSafetyItems = []SafetyItem{
	{Name: "loss of consciousness", Keywords: []string{"consciousness", "passed out", "blacked out", "faint"}},
	{Name: "severe bleeding", Keywords: []string{"bleeding", "blood loss", "hemorrhage"}},
	{Name: "sepsis signs", Keywords: []string{"fever", "chills", "rigors", "sepsis"}},
	{Name: "mental-status change", Keywords: []string{"confusion", "confused", "drowsy", "disoriented"}},
}

var categorySafetyItems = map[Category][]SafetyItem{
	CategoryCardiac: {
		{Name: "exertional chest pain", Keywords: []string{"exertion", "walking", "climbing"}},
		{Name: "radiation to arm or jaw", Keywords: []string{"radiat", "arm", "jaw"}},
		{Name: "diaphoresis", Keywords: []string{"sweat", "clammy"}},
	},
	CategoryRespiratory: {
		{Name: "breathlessness at rest", Keywords: []string{"at rest", "rest", "speaking"}},
		{Name: "coughing blood", Keywords: []string{"blood", "hemoptysis"}},
		{Name: "cyanosis", Keywords: []string{"blue", "cyanosis", "lips"}},
	},
	CategoryNeuro: {
		{Name: "thunderclap onset", Keywords: []string{"sudden", "thunderclap", "worst headache"}},
		{Name: "focal deficit", Keywords: []string{"weakness", "numbness", "speech", "vision"}},
		{Name: "neck stiffness", Keywords: []string{"neck stiff", "stiff neck", "photophobia"}},
	},
	CategoryMSK: {
		{Name: "inability to bear weight", Keywords: []string{"bear weight", "weight-bearing", "stand on"}},
		{Name: "saddle anesthesia or incontinence", Keywords: []string{"saddle", "incontinence", "bladder", "bowel"}},
		{Name: "range of motion loss", Keywords: []string{"range of motion", "cannot move", "can't move"}},
	},
	CategoryAbdominal: {
		{Name: "peritonitic pain", Keywords: []string{"rigid", "rebound", "worse with movement"}},
		{Name: "gastrointestinal bleeding", Keywords: []string{"blood in stool", "black stool", "vomiting blood", "melena"}},
		{Name: "jaundice", Keywords: []string{"jaundice", "yellow"}},
	},
	CategoryENT: {
		{Name: "airway compromise", Keywords: []string{"drooling", "can't swallow", "cannot swallow", "stridor", "breathing"}},
		{Name: "trismus or neck swelling", Keywords: []string{"trismus", "open mouth", "neck swelling"}},
	},
	CategoryTrauma: {
		{Name: "head injury with loss of consciousness", Keywords: []string{"head", "knocked out", "loc"}},
		{Name: "midline spinal tenderness", Keywords: []string{"spine", "midline", "neck pain"}},
		{Name: "anticoagulant use", Keywords: []string{"blood thinner", "warfarin", "anticoagulant", "doac"}},
	},
}

var complaintSeparators = regexp.MustCompile(`(?i)\s*(?:,|;|\band\b)\s*`)

// ParseComplaints splits the raw chief-complaint text into ordered complaints
// and classifies each. Empty input degrades to a single Other complaint over
// the raw text so the baseline checklist still applies.
func ParseComplaints(raw string) []Complaint {
	fragments := complaintSeparators.Split(strings.TrimSpace(raw), -1)

	var out []Complaint
	for _, f := range fragments {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		out = append(out, Complaint{
			Text:     f,
			Ordinal:  len(out),
			Category: Classify(f),
			Keywords: significantKeywords(f),
		})
	}

	if len(out) == 0 {
		out = append(out, Complaint{
			Text:     strings.TrimSpace(raw),
			Category: CategoryOther,
			Keywords: significantKeywords(raw),
		})
	}
	return out
}

// Classify assigns a category by testing the ordered rule table; first match
// wins, default Other.
func Classify(fragment string) Category {
	for _, r := range categoryRules {
		if r.pattern.MatchString(fragment) {
			return r.category
		}
	}
	return CategoryOther
}

// ChecklistFor returns the active safety checklist for a category: the
// category-bound items plus the always-present baseline set.
func ChecklistFor(cat Category) []SafetyItem {
	items := append([]SafetyItem{}, categorySafetyItems[cat]...)
	return append(items, baselineSafetyItems...)
}

// ChecklistReferenced reports whether at least one checklist keyword for the
// category appears anywhere in the transcript.
func ChecklistReferenced(cat Category, transcript []models.Message) bool {
	joined := strings.ToLower(joinTranscript(transcript))
	for _, item := range ChecklistFor(cat) {
		for _, kw := range item.Keywords {
			if strings.Contains(joined, kw) {
				return true
			}
		}
	}
	return false
}

// Completed applies the completion heuristic: keyword coverage at or above
// the tuned ratio, a minimum number of questions asked, and at least one
// safety item textually referenced. Approximate on purpose; the thresholds
// are tuning parameters, not clinical guarantees.
func (t Tuning) Completed(c Complaint, transcript []models.Message, questionCount int) bool {
	if questionCount < t.MinQuestions {
		return false
	}
	if !ChecklistReferenced(c.Category, transcript) {
		return false
	}
	return t.keywordCoverage(c, transcript) >= t.CoverageRatio
}

// CurrentComplaintIndex walks complaints in order and returns the first one
// not yet completed; all complete means the last index is still current.
func (t Tuning) CurrentComplaintIndex(complaints []Complaint, transcript []models.Message, questionCount int) int {
	for i, c := range complaints {
		if !t.Completed(c, transcript, questionCount) {
			return i
		}
	}
	return len(complaints) - 1
}

func (t Tuning) keywordCoverage(c Complaint, transcript []models.Message) float64 {
	if len(c.Keywords) == 0 {
		return 1
	}
	joined := strings.ToLower(joinTranscript(transcript))
	seen := 0
	for _, kw := range c.Keywords {
		if strings.Contains(joined, kw) {
			seen++
		}
	}
	return float64(seen) / float64(len(c.Keywords))
}

var stopwords = map[string]bool{
	"with": true, "have": true, "having": true, "been": true, "that": true,
	"this": true, "from": true, "since": true, "after": true, "days": true,
	"weeks": true, "very": true, "some": true, "left": true, "right": true,
	"mild": true, "severe": true, "about": true, "past": true, "when": true,
}

var wordPattern = regexp.MustCompile(`[a-zA-Z]+`)

func significantKeywords(text string) []string {
	var out []string
	seen := map[string]bool{}
	for _, w := range wordPattern.FindAllString(strings.ToLower(text), -1) {
		if len(w) < 4 || stopwords[w] || seen[w] {
			continue
		}
		seen[w] = true
		out = append(out, w)
	}
	return out
}

func joinTranscript(transcript []models.Message) string {
	var b strings.Builder
	for _, m := range transcript {
		b.WriteString(m.Content)
		b.WriteByte('\n')
	}
	return b.String()
}

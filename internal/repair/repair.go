// Package repair turns raw completion-service output into a validated
// interview turn. The model is not contractually guaranteed to emit
// well-formed JSON, so progressively more aggressive textual repairs are
// applied in order; a turn is never fabricated: when nothing recoverable
// remains, a typed UpstreamFormatError is returned instead.
package repair

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/cliniqa/intake/internal/models"
)

// UpstreamFormatError reports that no repair stage produced a parseable,
// schema-valid turn. It carries the original text length and the last stage
// reached, never the raw model text.
type UpstreamFormatError struct {
	Stage    string
	InputLen int
}

func (e *UpstreamFormatError) Error() string {
	return fmt.Sprintf("upstream output unrecoverable at stage %q (input length %d)", e.Stage, e.InputLen)
}

type stage struct {
	name string
	fn   func(string) string
}

// Stages apply cumulatively: each transforms the previous stage's text, and a
// parse is attempted after every one. Input that parses at stage k never
// reaches stage k+1.
var stages = []stage{
	{"verbatim", func(s string) string { return s }},
	{"fence-strip", stripFence},
	{"structural-cleanup", structuralCleanup},
	{"string-newlines", repairStringNewlines},
	{"brace-extract", extractBalanced},
}

// Recover runs the repair chain and validates the first parseable candidate.
func Recover(raw string) (models.InterviewTurn, error) {
	s := raw
	for _, st := range stages {
		s = st.fn(s)
		var turn models.InterviewTurn
		if err := json.Unmarshal([]byte(s), &turn); err != nil {
			continue
		}
		out, err := Finalize(turn)
		if err != nil {
			// Parsed but semantically invalid; later textual stages cannot
			// add missing fields.
			return models.InterviewTurn{}, &UpstreamFormatError{Stage: "validate", InputLen: len(raw)}
		}
		return out, nil
	}
	return models.InterviewTurn{}, &UpstreamFormatError{Stage: stages[len(stages)-1].name, InputLen: len(raw)}
}

var fencePattern = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")

// stripFence removes a wrapping markdown code fence, or failing that cuts the
// text down to the first balanced top-level object.
func stripFence(s string) string {
	if m := fencePattern.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	if span := balancedSpan(s); span != "" {
		return span
	}
	return s
}

var (
	trailingCommaPattern = regexp.MustCompile(`,\s*([}\]])`)
	lineCommentPattern   = regexp.MustCompile(`(?m)^\s*//[^\n]*`)
	blockCommentPattern  = regexp.MustCompile(`(?s)/\*.*?\*/`)
	controlCharPattern   = regexp.MustCompile("[\x00-\x08\x0b\x0c\x0e-\x1f]")
	missingCommaPattern  = regexp.MustCompile(`"(\s*\n\s*)"`)
)

// structuralCleanup fixes the common mechanical defects of generated JSON:
// trailing commas, comments, stray control characters, and a missing comma
// between two adjacent string-valued properties.
func structuralCleanup(s string) string {
	s = lineCommentPattern.ReplaceAllString(s, "")
	s = blockCommentPattern.ReplaceAllString(s, "")
	s = trailingCommaPattern.ReplaceAllString(s, "$1")
	s = controlCharPattern.ReplaceAllString(s, "")
	s = missingCommaPattern.ReplaceAllString(s, `",$1"`)
	return s
}

// repairStringNewlines walks the text tracking quote and escape state and
// replaces raw newlines found inside string literals with spaces. Structural
// characters outside strings are left alone.
func repairStringNewlines(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inString, escaped := false, false
	for _, r := range s {
		switch {
		case escaped:
			escaped = false
		case r == '\\' && inString:
			escaped = true
		case r == '"':
			inString = !inString
		case (r == '\n' || r == '\r') && inString:
			b.WriteByte(' ')
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// extractBalanced returns the first balanced {...} span, or the input
// unchanged when none exists.
func extractBalanced(s string) string {
	if span := balancedSpan(s); span != "" {
		return span
	}
	return s
}

func balancedSpan(s string) string {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return ""
	}
	depth := 0
	inString, escaped := false, false
	for i := start; i < len(s); i++ {
		c := s[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}

package teacher

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

var (
	fencedRE = regexp.MustCompile("(?s)```[a-zA-Z]*\\s*(.*?)```")
	markerRE = regexp.MustCompile("```[a-zA-Z]*")

	// Score-label phrases, most specific first; a bare "<n> 分" is the last
	// resort.
	scorePatterns = []*regexp.Regexp{
		regexp.MustCompile(`"?teacher_score"?\s*[：:]\s*([0-9.]+)`),
		regexp.MustCompile(`最终得分\s*[：:]\s*([0-9.]+)`),
		regexp.MustCompile(`得分\s*[：:]\s*([0-9.]+)`),
		regexp.MustCompile(`评分\s*[：:]\s*([0-9.]+)`),
		regexp.MustCompile(`([0-9]+\.?[0-9]*)\s*分`),
	}
)

// ParseVerdict turns a grader reply into a verdict. The chain never fails:
//  1. if the reply embeds a fenced code block, only its contents are the
//     structured payload;
//  2. strict JSON parsing of the payload;
//  3. a repair pass that escapes lone backslashes, then strict parsing again;
//  4. pattern extraction over the raw text, score defaulting to 0.
func ParseVerdict(content string) *Verdict {
	payload := extractFenced(content)

	if v, ok := parseStrict(payload); ok {
		return v
	}
	if v, ok := parseStrict(escapeLoneBackslashes(payload)); ok {
		return v
	}
	return extractFromText(content)
}

// extractFenced returns the first fenced code block's contents, language
// tag or not, or the whole reply when there is none.
func extractFenced(content string) string {
	if m := fencedRE.FindStringSubmatch(content); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(content)
}

func parseStrict(payload string) (*Verdict, bool) {
	var raw struct {
		Analysis *string         `json:"teacher_analysis"`
		Score    json.RawMessage `json:"teacher_score"`
	}
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		return nil, false
	}
	// Both fields must be present; otherwise fall through to pattern
	// extraction.
	if raw.Analysis == nil || raw.Score == nil {
		return nil, false
	}
	return &Verdict{Rationale: *raw.Analysis, Score: coerceScore(raw.Score)}, true
}

// coerceScore accepts a JSON number or a numeric string; anything else is 0.
func coerceScore(raw json.RawMessage) float64 {
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return f
		}
	}
	return 0.0
}

// escapeLoneBackslashes doubles backslashes that do not start a valid JSON
// escape. Generated structured text routinely carries raw LaTeX, and a
// single \f or \mathrm breaks strict parsing.
func escapeLoneBackslashes(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' {
			b.WriteByte(c)
			continue
		}
		if i+1 < len(s) && strings.IndexByte(`"\/bfnrtu`, s[i+1]) >= 0 {
			b.WriteByte(c)
			b.WriteByte(s[i+1])
			i++
			continue
		}
		b.WriteString(`\\`)
	}
	return b.String()
}

// extractFromText is the last-resort parse: the first number after a score
// label becomes the score, the marker-stripped reply the rationale.
func extractFromText(content string) *Verdict {
	score := 0.0
	for _, pattern := range scorePatterns {
		if m := pattern.FindStringSubmatch(content); m != nil {
			if f, err := strconv.ParseFloat(m[1], 64); err == nil {
				score = f
				break
			}
		}
	}

	rationale := strings.TrimSpace(markerRE.ReplaceAllString(content, ""))
	return &Verdict{Rationale: rationale, Score: score}
}

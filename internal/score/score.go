// Package score implements the relevance gate that decides whether a fetched
// post looks like a genuine interview experience. It is a heuristic filter,
// not a classifier — the LLM summarization stage is the real precision filter.
package score

import "regexp"

// rankPatterns is the fixed ordered set of topic patterns. Each pattern is
// matched independently so the scorer can report both how many distinct
// topics appear and how many matches there are in total.
var rankPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)Round\s*\d+`),
	regexp.MustCompile(`(?i)Data\s*Structure`),
	regexp.MustCompile(`(?i)algo|algorithm`),
	regexp.MustCompile(`(?i)problem|question`),
	regexp.MustCompile(`(?i)(High|Low)\s*Level\s*Design`),
	regexp.MustCompile(`(?i)system\s*design`),
	regexp.MustCompile(`(?i)architecture\s*diagram`),
	regexp.MustCompile(`(?i)\bapi\b`),
	regexp.MustCompile(`(?i)code|code\s*explanation`),
	regexp.MustCompile(`(?i)follow-?up`),
	regexp.MustCompile(`(?i)ownership`),
	regexp.MustCompile(`(?i)leadership`),
	regexp.MustCompile(`(?i)behavioral`),
	regexp.MustCompile(`(?i)bias\s*for\s*action`),
	regexp.MustCompile(`(?i)customer\s*obsession`),
	regexp.MustCompile(`\(\d+/10\)`),
}

// leetcodePattern recognizes explicit problem citations ("LC 42",
// "leetcode problem 42", a leetcode.com problem URL).
var leetcodePattern = regexp.MustCompile(
	`(?i)\b(LC\s?\d+|leetcode\s?problem\s?\d+|leetcode\s?\d+|https?://leetcode\.com/problems/[\w-]+)\b`,
)

// Score matches text against the fixed pattern set and returns the number of
// distinct patterns with at least one match and the total match count
// including repeats.
func Score(text string) (unique, total int) {
	for _, p := range rankPatterns {
		n := len(p.FindAllString(text, -1))
		if n > 0 {
			unique++
			total += n
		}
	}
	return unique, total
}

// HasProblemReference reports whether the text cites a specific coding
// problem. A citation alone is enough to keep a post regardless of its score.
func HasProblemReference(text string) bool {
	return leetcodePattern.MatchString(text)
}

// Accept applies the collector's keep policy: a problem citation, enough
// total pattern matches, or a body long enough to plausibly be a writeup.
func Accept(title, body string, scoreThreshold, minLength int) bool {
	text := title + "\n" + body
	if HasProblemReference(text) {
		return true
	}
	_, total := Score(text)
	if total >= scoreThreshold {
		return true
	}
	return len(body) >= minLength
}

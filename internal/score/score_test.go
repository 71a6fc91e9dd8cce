package score_test

import (
	"strings"
	"testing"

	"github.com/Steven20210/reddit-interviews/internal/score"
)

// ── Score ──────────────────────────────────────────────────────────────────

func TestScore_UniqueVsTotal(t *testing.T) {
	// "Round N" matches twice, "algo" three times: 2 distinct patterns,
	// 5 matches in total.
	unique, total := score.Score("Round 1 Round 2 algo algo algo")
	if unique != 2 {
		t.Errorf("unique = %d, want 2", unique)
	}
	if total != 5 {
		t.Errorf("total = %d, want 5", total)
	}
}

func TestScore_NoMatches(t *testing.T) {
	unique, total := score.Score("what should I wear tomorrow")
	if unique != 0 || total != 0 {
		t.Errorf("Score = (%d, %d), want (0, 0)", unique, total)
	}
}

func TestScore_RatingPhrase(t *testing.T) {
	unique, total := score.Score("overall it went ok (7/10)")
	if unique != 1 || total != 1 {
		t.Errorf("Score = (%d, %d), want (1, 1)", unique, total)
	}
}

// ── HasProblemReference ────────────────────────────────────────────────────

func TestHasProblemReference(t *testing.T) {
	cases := []struct {
		text string
		want bool
	}{
		{"they asked LC 215 in the phone screen", true},
		{"it was leetcode 42 verbatim", true},
		{"see https://leetcode.com/problems/two-sum for the exact one", true},
		{"standard behavioral stuff", false},
		{"", false},
	}
	for _, c := range cases {
		if got := score.HasProblemReference(c.text); got != c.want {
			t.Errorf("HasProblemReference(%q) = %v, want %v", c.text, got, c.want)
		}
	}
}

// ── Accept ─────────────────────────────────────────────────────────────────

func TestAccept_ScoreThresholdMet(t *testing.T) {
	// 3 distinct matches (Round 1, system design, architecture diagram),
	// body far below the minimum length.
	title := "Round 1 was system design with an architecture diagram"
	if !score.Accept(title, "", 3, 400) {
		t.Error("Accept should keep a post with 3 pattern matches at threshold 3")
	}
}

func TestAccept_BelowThresholdAndShort(t *testing.T) {
	// Only 2 distinct matches and a short body.
	title := "Round 1 was system design"
	if score.Accept(title, "too short", 3, 400) {
		t.Error("Accept should reject 2 matches with a short body")
	}
}

func TestAccept_LongBodyAlone(t *testing.T) {
	body := strings.Repeat("x", 400)
	if !score.Accept("no matching words here", body, 3, 400) {
		t.Error("Accept should keep a post whose body meets the minimum length")
	}
}

func TestAccept_ProblemReferenceAlone(t *testing.T) {
	if !score.Accept("got LC 42", "short", 99, 9999) {
		t.Error("Accept should keep a post with an explicit problem citation")
	}
}

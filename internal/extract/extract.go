// Package extract parses company and role metadata out of free-text LLM
// summaries. It is a best-effort parser: the model is asked to label the
// fields, but phrasing drifts, so anything unresolvable falls back to
// "Unknown" rather than failing.
package extract

import (
	"regexp"
	"strings"
)

// Unknown is the fallback for any field that cannot be resolved.
const Unknown = "Unknown"

var (
	markdownChars = strings.NewReplacer("*", "", "`", "", "_", "", "#", "")

	companyPattern = regexp.MustCompile(`(?i)company\s*:\s*(.+)`)
	rolePattern    = regexp.MustCompile(`(?i)role\s*:\s*(.+)`)
)

// roleRule maps a role phrasing pattern to its canonical label.
type roleRule struct {
	pattern *regexp.Regexp
	label   string
}

// roleRules is ordered narrow-to-broad. Ordering is load-bearing: "SDE II"
// and "SWE Intern" must be tried before the generic "Software Engineer"
// rule, otherwise the broad pattern masks the specific one.
var roleRules = []roleRule{
	{regexp.MustCompile(`(?i)\bsde\s*[- ]?\s*(3|iii)\b`), "SDE III"},
	{regexp.MustCompile(`(?i)\bsde\s*[- ]?\s*(2|ii)\b`), "SDE II"},
	{regexp.MustCompile(`(?i)\bsde\s*[- ]?\s*(1|i)\b`), "SDE I"},
	{regexp.MustCompile(`(?i)\b(swe|software\s*engineer(ing)?|sde)\b.*\bintern(ship)?\b`), "SWE Intern"},
	{regexp.MustCompile(`(?i)\bintern(ship)?\b`), "SWE Intern"},
	{regexp.MustCompile(`(?i)\bnew\s*grad\b`), "New Grad SWE"},
	{regexp.MustCompile(`(?i)\b(senior|sr\.?)\s*(software\s*)?(engineer|swe|developer)\b`), "Senior Software Engineer"},
	{regexp.MustCompile(`(?i)\bstaff\s*(software\s*)?engineer\b`), "Staff Software Engineer"},
	{regexp.MustCompile(`(?i)\bfront\s*[- ]?end\b`), "Frontend Engineer"},
	{regexp.MustCompile(`(?i)\bback\s*[- ]?end\b`), "Backend Engineer"},
	{regexp.MustCompile(`(?i)\bfull\s*[- ]?stack\b`), "Full Stack Engineer"},
	{regexp.MustCompile(`(?i)\bdata\s*scientist\b`), "Data Scientist"},
	{regexp.MustCompile(`(?i)\bdata\s*engineer\b`), "Data Engineer"},
	{regexp.MustCompile(`(?i)\b(machine\s*learning|ml)\s*engineer\b`), "ML Engineer"},
	{regexp.MustCompile(`(?i)\bdev\s*[- ]?ops\b|\bsite\s*reliability\b|\bsre\b`), "DevOps/SRE"},
	{regexp.MustCompile(`(?i)\b(software\s*(development\s*)?engineer|swe|software\s*developer)\b`), "Software Engineer"},
}

// CompanyRole extracts the labeled "Company:" and "Role:" lines from a
// summary, normalizing the role through the ordered rule list. Either field
// defaults to Unknown when absent or unresolvable.
func CompanyRole(summary string) (company, role string) {
	company = Unknown
	role = Unknown

	for _, line := range strings.Split(summary, "\n") {
		line = stripMarkdown(line)
		if m := companyPattern.FindStringSubmatch(line); m != nil && company == Unknown {
			if v := strings.TrimSpace(m[1]); v != "" {
				company = v
			}
		}
		if m := rolePattern.FindStringSubmatch(line); m != nil && role == Unknown {
			role = NormalizeRole(m[1])
		}
	}
	return company, role
}

// NormalizeRole maps free-text role phrasing to a canonical label via the
// first matching rule. Empty or unmatched text yields Unknown.
func NormalizeRole(raw string) string {
	raw = strings.TrimSpace(stripMarkdown(raw))
	if raw == "" {
		return Unknown
	}
	for _, rule := range roleRules {
		if rule.pattern.MatchString(raw) {
			return rule.label
		}
	}
	return Unknown
}

// stripMarkdown removes bullet and emphasis characters so labeled lines like
// "- **Company:** Foo" parse the same as "Company: Foo".
func stripMarkdown(line string) string {
	line = markdownChars.Replace(line)
	line = strings.TrimSpace(line)
	line = strings.TrimLeft(line, "-• \t")
	return strings.TrimSpace(line)
}

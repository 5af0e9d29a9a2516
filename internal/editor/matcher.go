// internal/editor/matcher.go
//
// Three-tier matcher for visual edits.
//
/*
Context
--------
A visual edit arrives as "the user clicked this element; its rendered
content was OLD, make it NEW".  Mapping that back onto raw source text is
heuristic, so the matcher is explicit about how sure it is:

  Tier 1 – exact:     OLD appears verbatim in the source.
  Tier 2 – attribute: for images, three src= variants (double-quoted,
                      single-quoted, and basename-only) are tried, because
                      bundlers rewrite image URLs.
  Tier 3 – fuzzy:     OLD with every whitespace run relaxed to \s+, for
                      text that the browser re-flowed.

Every tier returns a tagged result instead of guessing:

  Matched   – exactly one occurrence replaced.
  Ambiguous – more than one occurrence; replacing would be silently wrong.
  NotFound  – nothing matched; the caller tells the user to use code mode.

Notes
-----
  • Oxford commas, two spaces after periods.
*/
package editor

import (
	"fmt"
	"path"
	"regexp"
	"strings"
)

// MatchOutcome tags the matcher's confidence.
type MatchOutcome int

const (
	NotFound MatchOutcome = iota
	Matched
	Ambiguous
)

func (o MatchOutcome) String() string {
	switch o {
	case Matched:
		return "matched"
	case Ambiguous:
		return "ambiguous"
	default:
		return "not_found"
	}
}

// MatchResult is the matcher's full answer.
type MatchResult struct {
	Outcome MatchOutcome
	Tier    string // "exact", "attribute", "fuzzy"; "" when NotFound
	Source  string // updated source when Outcome == Matched
}

// Apply attempts to replace oldContent with newContent inside source.
// tagName steers the attribute tier ("IMG" enables src= matching).
func Apply(source, oldContent, newContent, tagName string) MatchResult {
	if oldContent == "" {
		return MatchResult{Outcome: NotFound}
	}

	// Tier 1: exact substring.
	switch strings.Count(source, oldContent) {
	case 1:
		return MatchResult{
			Outcome: Matched,
			Tier:    "exact",
			Source:  strings.Replace(source, oldContent, newContent, 1),
		}
	case 0:
		// fall through
	default:
		return MatchResult{Outcome: Ambiguous, Tier: "exact"}
	}

	// Tier 2: image src attributes.
	if strings.EqualFold(tagName, "img") {
		if res, done := applyImageSrc(source, oldContent, newContent); done {
			return res
		}
	}

	// Tier 3: whitespace-normalized fuzzy match.
	return applyFuzzy(source, oldContent, newContent)
}

// applyImageSrc tries the three src= variants in order.  done is false when
// none of them produced a verdict and the fuzzy tier should run.
func applyImageSrc(source, oldSrc, newSrc string) (MatchResult, bool) {
	variants := []*regexp.Regexp{
		regexp.MustCompile(`src="` + regexp.QuoteMeta(oldSrc) + `"`),
		regexp.MustCompile(`src='` + regexp.QuoteMeta(oldSrc) + `'`),
		// Bundlers prefix hashed directories; match on the basename.
		regexp.MustCompile(`src=("|')[^"']*` + regexp.QuoteMeta(path.Base(oldSrc)) + `("|')`),
	}
	replacements := []string{
		`src="` + newSrc + `"`,
		`src='` + newSrc + `'`,
		`src=${1}` + newSrc + `${2}`,
	}

	for i, re := range variants {
		switch len(re.FindAllStringIndex(source, -1)) {
		case 0:
			continue
		case 1:
			return MatchResult{
				Outcome: Matched,
				Tier:    "attribute",
				Source:  re.ReplaceAllString(source, replacements[i]),
			}, true
		default:
			return MatchResult{Outcome: Ambiguous, Tier: "attribute"}, true
		}
	}
	return MatchResult{}, false
}

// applyFuzzy relaxes every whitespace run in oldContent to \s+.
func applyFuzzy(source, oldContent, newContent string) MatchResult {
	fields := strings.Fields(oldContent)
	if len(fields) == 0 {
		return MatchResult{Outcome: NotFound}
	}
	quoted := make([]string, len(fields))
	for i, f := range fields {
		quoted[i] = regexp.QuoteMeta(f)
	}
	re, err := regexp.Compile(strings.Join(quoted, `\s+`))
	if err != nil {
		return MatchResult{Outcome: NotFound}
	}

	switch len(re.FindAllStringIndex(source, -1)) {
	case 0:
		return MatchResult{Outcome: NotFound}
	case 1:
		return MatchResult{
			Outcome: Matched,
			Tier:    "fuzzy",
			Source:  re.ReplaceAllString(source, replacementLiteral(newContent)),
		}
	default:
		return MatchResult{Outcome: Ambiguous, Tier: "fuzzy"}
	}
}

// replacementLiteral escapes $ so user content cannot expand capture groups.
func replacementLiteral(s string) string {
	return strings.ReplaceAll(s, "$", "$$")
}

// UserMessage maps an outcome to the sentence the dashboard shows.
func UserMessage(res MatchResult) string {
	switch res.Outcome {
	case Matched:
		return ""
	case Ambiguous:
		return fmt.Sprintf("the element matches more than one place in the source (%s tier); use code mode to edit it precisely", res.Tier)
	default:
		return "could not match the element in the source; use code mode"
	}
}

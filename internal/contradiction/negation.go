package contradiction

import "regexp"

const negationConfidence = 0.80

var negationMarkerRe = regexp.MustCompile(`(?i)\b(don't|do not|doesn't|does not|didn't|did not|never|no longer|not|isn't|is not|wasn't|was not|won't|will not)\b`)

// verbGroups maps a canonical verb to its synonyms, so "love" on one side
// and "like" on the other are treated as the same assertion.
var verbGroups = map[string][]string{
	"like":  {"like", "likes", "liked", "love", "loves", "loved", "enjoy", "enjoys", "enjoyed", "adore", "adores", "prefer", "prefers"},
	"want":  {"want", "wants", "wanted", "need", "needs", "needed", "desire", "desires"},
	"trust": {"trust", "trusts", "trusted", "believe", "believes", "believed"},
	"agree": {"agree", "agrees", "agreed", "support", "supports", "supported"},
	"live":  {"live", "lives", "lived", "reside", "resides"},
	"work":  {"work", "works", "worked", "employed"},
}

// verbRegexes holds one compiled regex per synonym, built once at init so
// Detect never recompiles a pattern per call.
var verbRegexes = buildVerbRegexes()

func buildVerbRegexes() map[string]*regexp.Regexp {
	out := map[string]*regexp.Regexp{}
	for _, synonyms := range verbGroups {
		for _, syn := range synonyms {
			if _, ok := out[syn]; !ok {
				out[syn] = regexp.MustCompile(`(?i)\b` + syn + `\b`)
			}
		}
	}
	return out
}

// detectNegation is layer 1. It reports a contradiction when one side
// asserts a verb from a group positively and the other negates a synonym
// from the same group, and the two texts share common context.
func detectNegation(a, b string) (Verdict, bool) {
	for _, synonyms := range verbGroups {
		aPos, aNeg := verbOccurs(a, synonyms)
		bPos, bNeg := verbOccurs(b, synonyms)

		if (aPos && bNeg) || (bPos && aNeg) {
			if HasCommonContext(a, b) {
				return Verdict{
					Contradicts: true,
					Type:        TypeNegation,
					Confidence:  negationConfidence,
					Explanation: "one side affirms and the other negates a closely related verb",
				}, true
			}
		}
	}
	return Verdict{}, false
}

// verbOccurs reports whether text contains any synonym positively (no
// nearby negation marker) and/or negatedly (a negation marker appears
// before it, within the same clause).
func verbOccurs(text string, synonyms []string) (positive, negated bool) {
	lower := normalize(text)
	for _, syn := range synonyms {
		re := verbRegexes[syn]
		locs := re.FindAllStringIndex(lower, -1)
		for _, loc := range locs {
			window := lower[:loc[0]]
			if idx := lastClauseBoundary(window); idx >= 0 {
				window = window[idx:]
			}
			if negationMarkerRe.MatchString(window) {
				negated = true
			} else {
				positive = true
			}
		}
	}
	return positive, negated
}

func lastClauseBoundary(s string) int {
	best := -1
	for _, sep := range []string{".", ",", ";", "but", "and"} {
		if idx := lastIndexOf(s, sep); idx > best {
			best = idx + len(sep)
		}
	}
	return best
}

func lastIndexOf(s, sub string) int {
	idx := -1
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			idx = i
		}
	}
	return idx
}

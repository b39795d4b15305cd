package contradiction

import "regexp"

const antonymConfidence = 0.70

type antonymPair struct {
	a, b       string
	reA, reB   *regexp.Regexp
}

var antonymPairs = buildAntonymPairs([][2]string{
	{"available", "busy"},
	{"like", "hate"},
	{"love", "hate"},
	{"married", "divorced"},
	{"married", "single"},
	{"happy", "sad"},
	{"employed", "unemployed"},
	{"vegetarian", "carnivore"},
	{"introvert", "extrovert"},
	{"morning person", "night owl"},
	{"rich", "poor"},
	{"healthy", "sick"},
	{"young", "old"},
})

func buildAntonymPairs(raw [][2]string) []antonymPair {
	out := make([]antonymPair, 0, len(raw))
	for _, p := range raw {
		out = append(out, antonymPair{
			a:   p[0],
			b:   p[1],
			reA: regexp.MustCompile(`(?i)\b` + p[0] + `\b`),
			reB: regexp.MustCompile(`(?i)\b` + p[1] + `\b`),
		})
	}
	return out
}

// detectAntonym is layer 2: a closed antonym-pair list, matched on opposite
// sides with shared context.
func detectAntonym(a, b string) (Verdict, bool) {
	for _, pair := range antonymPairs {
		aHasA, aHasB := pair.reA.MatchString(a), pair.reB.MatchString(a)
		bHasA, bHasB := pair.reA.MatchString(b), pair.reB.MatchString(b)

		if (aHasA && bHasB) || (aHasB && bHasA) {
			if HasCommonContext(a, b) {
				return Verdict{
					Contradicts: true,
					Type:        TypeAntonym,
					Confidence:  antonymConfidence,
					Explanation: "opposite terms (" + pair.a + "/" + pair.b + ") appear on opposite sides",
				}, true
			}
		}
	}
	return Verdict{}, false
}

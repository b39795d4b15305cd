package contradiction

import "regexp"

const temporalConfidence = 0.60

var (
	dateMDYRe = regexp.MustCompile(`\b\d{1,2}[/-]\d{1,2}[/-]\d{2,4}\b`)
	dateYMDRe = regexp.MustCompile(`\b\d{4}[/-]\d{1,2}[/-]\d{1,2}\b`)
)

// detectTemporal is layer 3: non-overlapping date sets with common context.
func detectTemporal(a, b string) (Verdict, bool) {
	datesA := extractDates(a)
	datesB := extractDates(b)
	if len(datesA) == 0 || len(datesB) == 0 {
		return Verdict{}, false
	}
	if setsOverlap(datesA, datesB) {
		return Verdict{}, false
	}
	if !HasCommonContext(a, b) {
		return Verdict{}, false
	}
	return Verdict{
		Contradicts: true,
		Type:        TypeTemporal,
		Confidence:  temporalConfidence,
		Explanation: "non-overlapping dates referenced in a shared context",
	}, true
}

func extractDates(s string) map[string]bool {
	out := map[string]bool{}
	for _, m := range dateMDYRe.FindAllString(s, -1) {
		out[m] = true
	}
	for _, m := range dateYMDRe.FindAllString(s, -1) {
		out[m] = true
	}
	return out
}

func setsOverlap(a, b map[string]bool) bool {
	for k := range a {
		if b[k] {
			return true
		}
	}
	return false
}

package contradiction

import (
	"regexp"
	"strconv"
	"strings"
)

const numericConfidence = 0.65

var numberUnitRe = regexp.MustCompile(`(?i)\b(\d+(?:\.\d+)?)\s*((?:years?|months?|weeks?|days?|hours?|dollars?|percent)\b|%)`)

type numericFact struct {
	value float64
	unit  string
}

// detectNumeric is layer 4: number + unit pairs, same unit but different
// value, with common context.
func detectNumeric(a, b string) (Verdict, bool) {
	factsA := extractNumericFacts(a)
	factsB := extractNumericFacts(b)
	if len(factsA) == 0 || len(factsB) == 0 {
		return Verdict{}, false
	}
	if !HasCommonContext(a, b) {
		return Verdict{}, false
	}

	for _, fa := range factsA {
		for _, fb := range factsB {
			if fa.unit == fb.unit && fa.value != fb.value {
				return Verdict{
					Contradicts: true,
					Type:        TypeNumeric,
					Confidence:  numericConfidence,
					Explanation: "same unit (" + fa.unit + ") with different values",
				}, true
			}
		}
	}
	return Verdict{}, false
}

func extractNumericFacts(s string) []numericFact {
	var facts []numericFact
	for _, m := range numberUnitRe.FindAllStringSubmatch(s, -1) {
		value, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}
		unit := normalizeUnit(m[2])
		facts = append(facts, numericFact{value: value, unit: unit})
	}
	return facts
}

func normalizeUnit(unit string) string {
	unit = strings.ToLower(unit)
	unit = strings.TrimSuffix(unit, "s")
	if unit == "percent" {
		unit = "%"
	}
	return unit
}

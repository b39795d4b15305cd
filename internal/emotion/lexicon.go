package emotion

// lexicon is a small hand-built valence dictionary, VADER-style
// (word -> roughly -4..+4 valence). It is intentionally compact: the
// normalization in Score compresses any realistic sum into [-1, 1]
// regardless of lexicon size.
var lexicon = map[string]float64{
	"love":        3.0,
	"loved":       3.0,
	"loves":       3.0,
	"great":       3.0,
	"amazing":     3.6,
	"wonderful":   3.2,
	"excellent":   3.4,
	"happy":       2.7,
	"glad":        2.2,
	"excited":     2.8,
	"thrilled":    3.3,
	"grateful":    2.6,
	"proud":       2.5,
	"good":        1.9,
	"nice":        1.8,
	"fine":        1.0,
	"okay":        0.6,
	"ok":          0.6,
	"hope":        1.5,
	"hopeful":     1.8,
	"relieved":    1.6,
	"calm":        1.2,

	"bad":         -2.0,
	"terrible":    -3.4,
	"awful":       -3.3,
	"horrible":    -3.5,
	"hate":        -3.0,
	"hated":       -3.0,
	"hates":       -3.0,
	"sad":         -2.1,
	"angry":       -2.6,
	"anxious":     -2.0,
	"worried":     -1.9,
	"stressed":    -2.2,
	"frustrated":  -2.3,
	"annoyed":     -1.8,
	"disappointed": -2.4,
	"upset":       -2.1,
	"tired":       -1.2,
	"exhausted":   -2.0,
	"lonely":      -2.3,
	"scared":      -2.5,
	"afraid":      -2.3,
	"depressed":   -3.1,
	"miserable":   -3.0,
	"furious":     -3.2,
	"devastated":  -3.4,
}

package voice

import (
	"regexp"
	"strings"
)

// Universal responses accepted for any checklist item
var universalResponses = []string{
	"check", "checked",
	"confirm", "confirmed",
	"set",
	"yes",
	"affirmative",
}

// responsePhrases maps normalized expected responses to acceptable spoken
// phrases
var responsePhrases = map[string][]string{
	// Basic states
	"removed": {"removed", "remove"},
	"checked": {"checked", "check"},
	"on":      {"on"},
	"off":     {"off"},
	"set":     {"set"},
	"closed":  {"closed", "close"},
	"zero":    {"zero", "neutral"},

	// Confirmations
	"confirmed": {"confirmed", "confirm", "affirm"},

	// As required variations
	"as rqrd":     {"as required", "as needed", "set"},
	"as required": {"as required", "as needed", "set"},

	// Navigation/systems
	"nav":   {"nav", "navigation", "navigate"},
	"ta/ra": {"t a r a", "ta ra", "tara", "traffic alert", "traffic"},

	// Takeoff related
	"to":         {"takeoff", "t o", "take off", "set"},
	"to both":    {"takeoff", "t o", "take off", "takeoff both", "set"},
	"to no blue": {"no blue", "takeoff no blue", "t o no blue"},

	// Landing related
	"ldg no blue": {"no blue", "landing no blue", "l d g no blue"},
	"up":          {"up", "gear up"},
	"down":        {"down", "gear down"},
	"retracted":   {"retracted", "up", "zero", "flaps up"},
	"armed":       {"armed", "arm"},
	"disarmed":    {"disarmed", "disarm", "retracted"},

	// Monitoring
	"review":  {"review", "reviewed"},
	"monitor": {"monitor", "monitored", "monitoring"},
	"adjust":  {"adjust", "adjusted", "set"},

	// TCAS
	"all or blw": {"all", "below", "all or below", "traffic all", "traffic below"},

	// Values with placeholders
	"kg checked":   {"checked", "fuel checked", "kilos checked"},
	"set both":     {"set", "set both", "both set"},
	"closed both":  {"closed", "closed both", "both closed"},
	"checked both": {"checked", "checked both", "both checked"},
}

var (
	punctuationPattern = regexp.MustCompile(`[^\w\s\-]`)
	whitespacePattern  = regexp.MustCompile(`\s+`)
)

// Matcher matches spoken readbacks to expected checklist responses
type Matcher struct {
	responses         map[string][]string
	phraseToResponses map[string][]string
}

// NewMatcher creates a new readback matcher. Table keys are normalized up
// front so lookups against normalized transcripts line up (e.g. "ta/ra"
// loses its slash during normalization).
func NewMatcher() *Matcher {
	m := &Matcher{
		responses:         make(map[string][]string),
		phraseToResponses: make(map[string][]string),
	}
	for response, phrases := range responsePhrases {
		key := m.Normalize(response)
		m.responses[key] = phrases
		for _, phrase := range phrases {
			m.phraseToResponses[phrase] = append(m.phraseToResponses[phrase], key)
		}
	}
	return m
}

// Normalize lowercases, strips punctuation and collapses whitespace for
// comparison
func (m *Matcher) Normalize(text string) string {
	text = strings.ToLower(strings.TrimSpace(text))
	text = punctuationPattern.ReplaceAllString(text, "")
	text = whitespacePattern.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// Match reports whether the spoken text is an acceptable readback of the
// expected response, with a confidence score: 1.0 exact, 0.9 phrase match,
// 0.8 universal response, 0.7 word-overlap fallback.
func (m *Matcher) Match(spoken, expected string) (bool, float64) {
	spokenNorm := m.Normalize(spoken)
	expectedNorm := m.Normalize(expected)

	if spokenNorm == "" {
		return false, 0
	}

	if spokenNorm == expectedNorm {
		return true, 1.0
	}

	for _, universal := range universalResponses {
		if strings.Contains(spokenNorm, universal) {
			return true, 0.8
		}
	}

	if phrases, ok := m.responses[expectedNorm]; ok {
		for _, phrase := range phrases {
			if strings.Contains(spokenNorm, phrase) || strings.Contains(phrase, spokenNorm) {
				return true, 0.9
			}
		}
	}

	if responses, ok := m.phraseToResponses[spokenNorm]; ok {
		for _, response := range responses {
			if response == expectedNorm {
				return true, 0.9
			}
		}
	}

	// Fallback: enough word overlap with the expected response
	expectedWords := wordSet(expectedNorm)
	spokenWords := wordSet(spokenNorm)
	if len(expectedWords) > 0 {
		overlap := 0
		for word := range expectedWords {
			if _, ok := spokenWords[word]; ok {
				overlap++
			}
		}
		if overlap > 0 && float64(overlap)/float64(len(expectedWords)) >= 0.5 {
			return true, 0.7
		}
	}

	return false, 0
}

// AcceptedPhrases returns the phrases that would be accepted for a response
func (m *Matcher) AcceptedPhrases(expected string) []string {
	phrases := append([]string{}, universalResponses...)
	if extra, ok := m.responses[m.Normalize(expected)]; ok {
		phrases = append(phrases, extra...)
	}
	return phrases
}

func wordSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, word := range strings.Fields(s) {
		set[word] = struct{}{}
	}
	return set
}

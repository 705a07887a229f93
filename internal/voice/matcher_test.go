package voice

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatcherNormalize(t *testing.T) {
	m := NewMatcher()

	assert.Equal(t, "gear down", m.Normalize("  Gear   DOWN! "))
	assert.Equal(t, "ta-ra", m.Normalize("TA-RA."))
	assert.Equal(t, "", m.Normalize("   "))
}

func TestMatcherExactMatch(t *testing.T) {
	m := NewMatcher()

	matched, confidence := m.Match("Down", "DOWN")
	assert.True(t, matched)
	assert.Equal(t, 1.0, confidence)

	// Normalization strips the slash, so the bare form is an exact match
	matched, confidence = m.Match("tara", "TA/RA")
	assert.True(t, matched)
	assert.Equal(t, 1.0, confidence)
}

func TestMatcherEmptySpoken(t *testing.T) {
	m := NewMatcher()

	matched, confidence := m.Match("", "ON")
	assert.False(t, matched)
	assert.Zero(t, confidence)
}

func TestMatcherUniversalResponse(t *testing.T) {
	m := NewMatcher()

	matched, confidence := m.Match("yes", "REMOVED")
	assert.True(t, matched)
	assert.Equal(t, 0.8, confidence)
}

func TestMatcherPhraseVariants(t *testing.T) {
	m := NewMatcher()

	cases := []struct {
		spoken   string
		expected string
	}{
		{"gear down", "DOWN"},
		{"traffic alert", "TA/RA"},
		{"as needed", "AS RQRD"},
		{"flaps up", "RETRACTED"},
		{"navigation", "NAV"},
	}
	for _, tc := range cases {
		matched, confidence := m.Match(tc.spoken, tc.expected)
		assert.True(t, matched, "spoken %q for %q", tc.spoken, tc.expected)
		assert.Equal(t, 0.9, confidence, "spoken %q for %q", tc.spoken, tc.expected)
	}
}

func TestMatcherWordOverlapFallback(t *testing.T) {
	m := NewMatcher()

	// Half the expected words spoken back is enough
	matched, confidence := m.Match("landing gear lever down", "LANDING GEAR DOWN")
	assert.True(t, matched)
	// Exact and universal paths outrank the fallback when they apply
	assert.GreaterOrEqual(t, confidence, 0.7)
}

func TestMatcherRejectsUnrelated(t *testing.T) {
	m := NewMatcher()

	matched, confidence := m.Match("bananas", "ON")
	assert.False(t, matched)
	assert.Zero(t, confidence)
}

func TestMatcherAcceptedPhrases(t *testing.T) {
	m := NewMatcher()

	phrases := m.AcceptedPhrases("TA/RA")
	assert.Contains(t, phrases, "checked")
	assert.Contains(t, phrases, "tara")
}

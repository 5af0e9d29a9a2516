// internal/editor/matcher_test.go
//
// Unit-tests for the three-tier visual-edit matcher.
//
// Run: go test ./internal/editor -v

package editor

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExactTierSingleHit(t *testing.T) {
	src := `<h1>Welcome aboard</h1><p>Something else</p>`
	res := Apply(src, "Welcome aboard", "Hello there", "H1")

	require.Equal(t, Matched, res.Outcome)
	assert.Equal(t, "exact", res.Tier)
	assert.Contains(t, res.Source, "Hello there")
	assert.NotContains(t, res.Source, "Welcome aboard")
}

func TestExactTierAmbiguous(t *testing.T) {
	src := `<p>Buy now</p><button>Buy now</button>`
	res := Apply(src, "Buy now", "Order", "P")

	assert.Equal(t, Ambiguous, res.Outcome)
	assert.Equal(t, "exact", res.Tier)
	assert.Empty(t, res.Source, "ambiguous result must not carry a rewrite")
}

func TestImageSrcDoubleQuoted(t *testing.T) {
	src := `<img src="img/old-logo.png" alt="logo">`
	res := Apply(src, "img/old-logo.png", "img/new-logo.png", "IMG")

	require.Equal(t, Matched, res.Outcome)
	// Exact tier already finds the bare path inside the attribute.
	assert.Contains(t, res.Source, `src="img/new-logo.png"`)
}

func TestImageSrcBasenameVariant(t *testing.T) {
	// The DOM reports the absolute URL, the source holds a hashed path:
	// only the basename survives bundling.
	src := `<img src='/static/media/hero.4f2a1c.png'>`
	res := Apply(src, "https://cdn.example.com/hero.4f2a1c.png", "/img/hero2.png", "IMG")

	require.Equal(t, Matched, res.Outcome)
	assert.Equal(t, "attribute", res.Tier)
	assert.Contains(t, res.Source, `src='/img/hero2.png'`)
}

func TestFuzzyTierWhitespaceReflow(t *testing.T) {
	src := "<p>\n  Fast   and\n  reliable\n</p>"
	res := Apply(src, "Fast and reliable", "Slow but steady", "P")

	require.Equal(t, Matched, res.Outcome)
	assert.Equal(t, "fuzzy", res.Tier)
	assert.Contains(t, res.Source, "Slow but steady")
}

func TestFuzzyTierAmbiguous(t *testing.T) {
	src := "<p>ship  it</p><span>ship\nit</span>"
	res := Apply(src, "ship it", "hold it", "P")

	assert.Equal(t, Ambiguous, res.Outcome)
	assert.Equal(t, "fuzzy", res.Tier)
}

func TestNotFound(t *testing.T) {
	res := Apply("<p>alpha</p>", "omega", "x", "P")
	assert.Equal(t, NotFound, res.Outcome)
	assert.Contains(t, UserMessage(res), "use code mode")
}

func TestEmptyOldContent(t *testing.T) {
	res := Apply("<p>alpha</p>", "", "x", "P")
	assert.Equal(t, NotFound, res.Outcome)
}

func TestDollarInReplacementIsLiteral(t *testing.T) {
	src := "<p>\n price   today\n</p>"
	res := Apply(src, "price today", "only $1 today", "P")

	require.Equal(t, Matched, res.Outcome)
	assert.True(t, strings.Contains(res.Source, "only $1 today"),
		"dollar sign must survive literally, got: %s", res.Source)
}

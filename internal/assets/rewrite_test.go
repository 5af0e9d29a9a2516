// internal/assets/rewrite_test.go
//
// Unit-tests for the three HTML transformations.
//
// Run: go test ./internal/assets -v

package assets

import (
	"strings"
	"testing"
)

func TestRewriteAssetPathsBothQuoteStyles(t *testing.T) {
	in := `<img src="/assets/logo.png"><link href='/assets/app.css'>`
	want := `<img src="assets/logo.png"><link href='assets/app.css'>`
	if got := RewriteAssetPaths(in); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestRewriteAssetPathsIdempotent(t *testing.T) {
	in := `<img src="/assets/x.png">`
	once := RewriteAssetPaths(in)
	twice := RewriteAssetPaths(once)
	if once != twice {
		t.Fatalf("second rewrite changed output: %q vs %q", once, twice)
	}
	if !strings.Contains(once, `src="assets/x.png"`) {
		t.Fatalf("leading slash not stripped: %q", once)
	}
}

func TestRewriteLeavesOtherAbsolutePathsAlone(t *testing.T) {
	in := `<a href="/pricing">pricing</a><img src="/img/x.png">`
	if got := RewriteAssetPaths(in); got != in {
		t.Fatalf("non-/assets/ path was rewritten: %q", got)
	}
}

func TestInjectFontBlockBeforeHeadClose(t *testing.T) {
	in := `<html><head><title>x</title></head><body></body></html>`
	out := InjectFontBlock(in)

	if strings.Count(out, "fonts.googleapis.com/css2") != 1 {
		t.Fatalf("font stylesheet not present exactly once:\n%s", out)
	}
	if strings.Index(out, "fonts.googleapis.com") > strings.Index(out, "</head>") {
		t.Fatal("font block landed after </head>")
	}
}

func TestInjectFontBlockExactlyOnce(t *testing.T) {
	in := `<html><head></head><body></body></html>`
	out := InjectFontBlock(InjectFontBlock(in))
	if strings.Count(out, "fonts.googleapis.com/css2") != 1 {
		t.Fatalf("double injection:\n%s", out)
	}
}

func TestInjectFontBlockNoHead(t *testing.T) {
	in := `<p>bare fragment</p>`
	out := InjectFontBlock(in)
	if !strings.HasPrefix(out, "<!-- lp:fonts -->") {
		t.Fatalf("block not prepended for head-less document:\n%s", out)
	}
}

func TestInjectEditScriptBeforeBodyClose(t *testing.T) {
	in := `<html><body><h1>hi</h1></body></html>`
	out := InjectEditScript(in)
	scriptAt := strings.Index(out, "element-click")
	bodyAt := strings.LastIndex(out, "</body>")
	if scriptAt == -1 || bodyAt == -1 || scriptAt > bodyAt {
		t.Fatalf("script not placed before </body>:\n%s", out)
	}
}

func TestRewriteHTMLAppliesAllThree(t *testing.T) {
	in := `<html><head></head><body><img src="/assets/a.png"></body></html>`
	out := RewriteHTML(in)
	for _, want := range []string{
		`src="assets/a.png"`,
		"fonts.googleapis.com",
		"element-click",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
}

func TestMIMETable(t *testing.T) {
	cases := map[string]string{
		"logo.png":   "image/png",
		"app.js":     "application/javascript",
		"style.css":  "text/css; charset=utf-8",
		"index.html": "text/html; charset=utf-8",
		"data.bin":   "application/octet-stream",
	}
	for name, want := range cases {
		if got := MIMEFor(name); got != want {
			t.Errorf("MIMEFor(%s) = %q, want %q", name, got, want)
		}
	}
}

// internal/assets/rewrite.go
//
// Runtime HTML rewriting for served versions.
//
/*
Context
--------
Uploaded bundles are built for "my site lives at /", but here every version
serves from a sub-path.  Three transformations fix HTML on the way out:

  1. Asset-path rewrite: `src="/assets/x.png"` (and href, and the
     single-quote forms) becomes the relative `src="assets/x.png"`, so the
     page works wherever the directory is mounted.  The rewrite is
     idempotent—once the leading slash is gone the pattern no longer
     matches.

  2. Font block: a fixed preconnect + stylesheet link block is injected
     before </head>, or prepended when the page has no <head>.  A marker
     comment keeps the block from being injected twice.

  3. Edit instrumentation: a script appended before </body> intercepts
     mouseover, mouseout, and click on text and media elements, prevents
     default navigation, and posts {type, tagName, content, id, className}
     to the parent window.  The visual editor listens for those messages.

Non-HTML files are never rewritten.

Notes
-----
  • Oxford commas, two spaces after periods.
*/
package assets

import (
	"regexp"
	"strings"
)

const fontMarker = "<!-- lp:fonts -->"

// FontBlock is the fixed link block injected into every HTML page.
const FontBlock = fontMarker + `
<link rel="preconnect" href="https://fonts.googleapis.com">
<link rel="preconnect" href="https://fonts.gstatic.com" crossorigin>
<link href="https://fonts.googleapis.com/css2?family=Inter:wght@400;500;600;700&display=swap" rel="stylesheet">`

// EditScript is appended before </body>.  It runs only when the page is
// embedded (parent !== window), so public visitors never pay for it.
const EditScript = `<script>
(function () {
  if (window.parent === window) return;
  var TAGS = ["H1","H2","H3","H4","H5","H6","P","SPAN","A","LI","BUTTON","IMG","VIDEO","SOURCE"];
  function payload(type, el) {
    return {
      type: type,
      tagName: el.tagName,
      content: el.tagName === "IMG" ? (el.getAttribute("src") || "") : (el.innerText || ""),
      id: el.id || "",
      className: (typeof el.className === "string" ? el.className : "")
    };
  }
  document.addEventListener("mouseover", function (e) {
    if (TAGS.indexOf(e.target.tagName) === -1) return;
    e.target.style.outline = "2px dashed #6366f1";
    window.parent.postMessage(payload("element-hover", e.target), "*");
  });
  document.addEventListener("mouseout", function (e) {
    e.target.style.outline = "";
    window.parent.postMessage(payload("element-leave", e.target), "*");
  });
  document.addEventListener("click", function (e) {
    if (TAGS.indexOf(e.target.tagName) === -1) return;
    e.preventDefault();
    e.stopPropagation();
    window.parent.postMessage(payload("element-click", e.target), "*");
  }, true);
})();
</script>`

// absAssetRef matches src/href attributes that point at the absolute
// /assets/ tree, in both quote styles.
var absAssetRef = regexp.MustCompile(`(src|href)=("|')/assets/`)

// RewriteAssetPaths makes absolute /assets/ references relative.  Applying
// it twice yields the same output as applying it once.
func RewriteAssetPaths(html string) string {
	return absAssetRef.ReplaceAllString(html, `$1=${2}assets/`)
}

// InjectFontBlock inserts FontBlock before </head>, or prepends it when the
// document has no head close tag.  No-op when the marker is already there.
func InjectFontBlock(html string) string {
	if strings.Contains(html, fontMarker) {
		return html
	}
	if i := strings.Index(html, "</head>"); i != -1 {
		return html[:i] + FontBlock + "\n" + html[i:]
	}
	return FontBlock + "\n" + html
}

// InjectEditScript appends EditScript before </body>, or at the end when
// the document has no body close tag.
func InjectEditScript(html string) string {
	if i := strings.LastIndex(html, "</body>"); i != -1 {
		return html[:i] + EditScript + "\n" + html[i:]
	}
	return html + EditScript
}

// RewriteHTML applies all three transformations in serving order.
func RewriteHTML(html string) string {
	html = RewriteAssetPaths(html)
	html = InjectFontBlock(html)
	html = InjectEditScript(html)
	return html
}

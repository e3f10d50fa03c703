package conv

import (
	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/microcosm-cc/bluemonday"
)

var (
	extensions = parser.CommonExtensions | parser.NoEmptyLineBeforeBlock
	htmlFlags  = html.CommonFlags | html.HrefTargetBlank
	viewPolicy = bluemonday.UGCPolicy()
)

// MarkdownToSafeHTML renders stored markdown (profiles, summaries) for a
// browser. Model output is untrusted, so the HTML is sanitized afterwards.
func MarkdownToSafeHTML(md []byte) string {
	if len(md) == 0 {
		return ""
	}

	p := parser.NewWithExtensions(extensions)
	renderer := html.NewRenderer(html.RendererOptions{Flags: htmlFlags})
	unsafeHTML := markdown.Render(p.Parse(md), renderer)

	return string(viewPolicy.SanitizeBytes(unsafeHTML))
}

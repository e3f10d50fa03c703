package conv

import (
	"net/http"
	"strings"

	"github.com/inbucket/html2text"
)

// LooksLikeHTML sniffs the first bytes the same way net/http does.
func LooksLikeHTML(data []byte) bool {
	return strings.HasPrefix(http.DetectContentType(data), "text/html")
}

// HTMLToText flattens an HTML document to readable plain text.
func HTMLToText(doc string) (string, error) {
	return html2text.FromString(doc, html2text.Options{
		OmitLinks: true,
	})
}

// ToValidText turns raw bytes into UTF-8 text. Invalid sequences become
// U+FFFD instead of failing the whole document.
func ToValidText(data []byte) string {
	return strings.ToValidUTF8(string(data), "�")
}

package conv

import (
	"strings"
	"testing"
)

func TestMarkdownToSafeHTML(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "empty input",
			input:    "",
			expected: "",
		},
		{
			name:     "plain text",
			input:    "Hello world",
			expected: "<p>Hello world</p>\n",
		},
		{
			name:     "bold text",
			input:    "**bold**",
			expected: "<p><strong>bold</strong></p>\n",
		},
		{
			name:     "inline code",
			input:    "`code`",
			expected: "<p><code>code</code></p>\n",
		},
		{
			name:     "list",
			input:    "- one\n- two",
			expected: "<ul>\n<li>one</li>\n<li>two</li>\n</ul>\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MarkdownToSafeHTML([]byte(tt.input))
			if got != tt.expected {
				t.Errorf("MarkdownToSafeHTML(%q)\n got: %q\nwant: %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestMarkdownToSafeHTML_StripsScripts(t *testing.T) {
	got := MarkdownToSafeHTML([]byte("## Name\n\n<script>alert(1)</script>\n\n- Alice"))

	if strings.Contains(got, "<script") {
		t.Errorf("script tag survived sanitizing: %q", got)
	}
	if !strings.Contains(got, "Alice") {
		t.Errorf("content lost: %q", got)
	}
}

func TestLooksLikeHTML(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"html document", "<!DOCTYPE html><html><body>hi</body></html>", true},
		{"html fragment", "<html><p>hi</p></html>", true},
		{"plain text", "I work at Acme.", false},
		{"markdown", "# Title\n\nbody", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LooksLikeHTML([]byte(tt.input)); got != tt.want {
				t.Errorf("LooksLikeHTML(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestHTMLToText(t *testing.T) {
	got, err := HTMLToText("<html><body><h1>Notes</h1><p>I work at <b>Acme</b>.</p></body></html>")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(got, "Acme") || strings.Contains(got, "<b>") {
		t.Errorf("unexpected text: %q", got)
	}
}

func TestToValidText(t *testing.T) {
	got := ToValidText([]byte{'o', 'k', 0xff, '!'})
	if got != "ok�!" {
		t.Errorf("got %q", got)
	}
}

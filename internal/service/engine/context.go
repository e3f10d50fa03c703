package engine

import (
	"fmt"
	"strings"

	"github.com/sandevgo/ragmemory/internal/core"
)

const emptyContext = "(no related memories or user profile yet)"

// BuildAugmentedContext renders the profile and recalled chunks as a block
// the caller can put straight into a system prompt.
func BuildAugmentedContext(profile string, chunks []core.RetrievedChunk) string {
	var sections []string

	if p := strings.TrimSpace(profile); p != "" {
		sections = append(sections, "## User Profile\n"+p)
	}

	if len(chunks) > 0 {
		lines := make([]string, len(chunks))
		for i, c := range chunks {
			lines[i] = fmt.Sprintf("- [%.3f] %s", c.Score, strings.TrimSpace(c.Content))
		}
		sections = append(sections, "## Related Memories\n"+strings.Join(lines, "\n"))
	}

	if len(sections) == 0 {
		return emptyContext
	}
	return strings.Join(sections, "\n\n")
}

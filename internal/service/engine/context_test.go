package engine

import (
	"testing"

	"github.com/sandevgo/ragmemory/internal/core"
)

func TestBuildAugmentedContext(t *testing.T) {
	chunks := []core.RetrievedChunk{
		{Content: "works at Acme\n", Score: 0.8},
		{Content: "likes tea", Score: 0.12345},
	}

	tests := []struct {
		name    string
		profile string
		chunks  []core.RetrievedChunk
		want    string
	}{
		{
			name: "nothing",
			want: "(no related memories or user profile yet)",
		},
		{
			name:    "blank profile only",
			profile: "  \n",
			want:    "(no related memories or user profile yet)",
		},
		{
			name:    "profile only",
			profile: "\n- Alice\n",
			want:    "## User Profile\n- Alice",
		},
		{
			name:   "chunks only",
			chunks: chunks,
			want:   "## Related Memories\n- [0.800] works at Acme\n- [0.123] likes tea",
		},
		{
			name:    "both",
			profile: "- Alice",
			chunks:  chunks[:1],
			want:    "## User Profile\n- Alice\n\n## Related Memories\n- [0.800] works at Acme",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BuildAugmentedContext(tt.profile, tt.chunks); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

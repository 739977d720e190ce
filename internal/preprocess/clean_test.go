package preprocess

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClean(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "lowercases",
			in:   "Cursor Keeps Rewriting My Code",
			want: "cursor keeps rewriting my code",
		},
		{
			name: "strips http urls",
			in:   "see https://example.com/post for details",
			want: "see for details",
		},
		{
			name: "strips www urls",
			in:   "check www.example.com now",
			want: "check now",
		},
		{
			name: "unwraps markdown links",
			in:   "read [the docs](https://docs.example.com) first",
			want: "read the docs first",
		},
		{
			name: "drops exotic characters but keeps basic punctuation",
			in:   "why?! it's broken... 100% of the time #rage",
			want: `why?! it's broken... 100 of the time rage`,
		},
		{
			name: "collapses whitespace",
			in:   "too\t\tmany\n\n   spaces",
			want: "too many spaces",
		},
		{
			name: "empty input",
			in:   "",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Clean(tt.in))
		})
	}
}

func TestClean_Deterministic(t *testing.T) {
	in := "Some [link](http://x.y) & Noise\t here"
	assert.Equal(t, Clean(in), Clean(in))
	// Cleaning already-clean text is a no-op.
	assert.Equal(t, Clean(in), Clean(Clean(in)))
}

package ai

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateChunks(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"empty", "", nil},
		{"whitespace only", "   \n\t ", nil},
		{"western sentences", "A. B. C", []string{"A", "B", "C"}},
		{"cjk sentences", "第一句。第二句。第三句", []string{"第一句", "第二句", "第三句"}},
		{"newlines", "line one\nline two\n\nline three", []string{"line one", "line two", "line three"}},
		{"exclamation", "Stop! Go", []string{"Stop", "Go"}},
		{"collapses empty pieces", "A.. .B", []string{"A", "B"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, GenerateChunks(tt.input))
		})
	}
}

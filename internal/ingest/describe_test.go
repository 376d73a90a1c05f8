package ingest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtractDescription_StripsMarkdown(t *testing.T) {
	md := "# Title\n\nSome body text here."
	require.Equal(t, "Some body text here.", ExtractDescription(md))
}

func TestExtractDescription_KeepsLinkText(t *testing.T) {
	md := "Read [the docs](https://example.com/docs) for details."
	require.Equal(t, "Read the docs for details.", ExtractDescription(md))
}

func TestExtractDescription_DropsImages(t *testing.T) {
	md := "![alt text](https://example.com/pic.png)\n\nActual paragraph."
	require.Equal(t, "Actual paragraph.", ExtractDescription(md))
}

func TestExtractDescription_FirstParagraphOnly(t *testing.T) {
	md := "First paragraph.\n\nSecond paragraph that should not appear."
	require.Equal(t, "First paragraph.", ExtractDescription(md))
}

func TestExtractDescription_TruncatesTo200Runes(t *testing.T) {
	md := strings.Repeat("a", 500)
	got := ExtractDescription(md)
	require.Len(t, []rune(got), 200)
}

func TestExtractDescription_TruncatesCJKByRunes(t *testing.T) {
	md := strings.Repeat("中", 300)
	got := ExtractDescription(md)
	require.Len(t, []rune(got), 200)
}

func TestExtractDescription_Empty(t *testing.T) {
	require.Equal(t, "", ExtractDescription(""))
	require.Equal(t, "", ExtractDescription("# Only a heading"))
}

func TestExtractDescription_IdempotentOnPlainText(t *testing.T) {
	text := "Plain sentence without any markup."
	once := ExtractDescription(text)
	require.Equal(t, once, ExtractDescription(once))
}

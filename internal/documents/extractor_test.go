package documents

import (
	"archive/zip"
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildDOCX assembles a minimal Word document with the given paragraph
// texts.
func buildDOCX(t *testing.T, paragraphs []string) []byte {
	t.Helper()

	var body strings.Builder
	for _, p := range paragraphs {
		body.WriteString("<w:p><w:r><w:t>")
		body.WriteString(p)
		body.WriteString("</w:t></w:r></w:p>")
	}
	documentXML := `<?xml version="1.0" encoding="UTF-8"?>` +
		`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">` +
		`<w:body>` + body.String() + `</w:body></w:document>`

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	f, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = f.Write([]byte(documentXML))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	return buf.Bytes()
}

func paragraphOfWords(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("mot%d", i)
	}
	return strings.Join(parts, " ")
}

func TestExtractorDispatch(t *testing.T) {
	e := NewExtractor(100, 500)

	t.Run("unsupported extension", func(t *testing.T) {
		_, err := e.Extract([]byte("plain text"), "program.txt")
		var extErr *ExtractionError
		require.ErrorAs(t, err, &extErr)
		assert.Equal(t, "program.txt", extErr.Filename)
		assert.Contains(t, extErr.Reason, "unsupported")
	})

	t.Run("corrupt PDF", func(t *testing.T) {
		_, err := e.Extract([]byte("not a pdf at all"), "program.pdf")
		var extErr *ExtractionError
		require.ErrorAs(t, err, &extErr)
	})

	t.Run("corrupt DOCX", func(t *testing.T) {
		_, err := e.Extract([]byte("not a zip archive"), "program.docx")
		var extErr *ExtractionError
		require.ErrorAs(t, err, &extErr)
	})

	t.Run("extension dispatch is case-insensitive", func(t *testing.T) {
		units, err := e.Extract(buildDOCX(t, []string{"Bonjour"}), "Program.DOCX")
		require.NoError(t, err)
		require.Len(t, units, 1)
	})
}

func TestExtractorDOCX(t *testing.T) {
	t.Run("groups paragraphs into word-threshold units", func(t *testing.T) {
		e := NewExtractor(100, 10)
		paragraphs := []string{
			paragraphOfWords(6),
			paragraphOfWords(6), // unit 1 closes at 12 words
			paragraphOfWords(6),
			paragraphOfWords(6), // unit 2 closes at 12 words
			paragraphOfWords(3), // final partial accumulator
		}
		units, err := e.Extract(buildDOCX(t, paragraphs), "programme.docx")
		require.NoError(t, err)
		require.Len(t, units, 3)

		assert.Equal(t, 1, units[0].Number)
		assert.Equal(t, 2, units[1].Number)
		assert.Equal(t, 3, units[2].Number)
		assert.Len(t, strings.Fields(units[2].Text), 3)
	})

	t.Run("single short paragraph becomes one unit", func(t *testing.T) {
		e := NewExtractor(100, 500)
		units, err := e.Extract(buildDOCX(t, []string{"Une seule phrase."}), "p.docx")
		require.NoError(t, err)
		require.Len(t, units, 1)
		assert.Equal(t, 1, units[0].Number)
		assert.Equal(t, "Une seule phrase.", units[0].Text)
	})

	t.Run("empty paragraphs are skipped", func(t *testing.T) {
		e := NewExtractor(100, 500)
		units, err := e.Extract(buildDOCX(t, []string{"", "  ", "Contenu réel."}), "p.docx")
		require.NoError(t, err)
		require.Len(t, units, 1)
		assert.Equal(t, "Contenu réel.", units[0].Text)
	})

	t.Run("document with no text fails extraction", func(t *testing.T) {
		e := NewExtractor(100, 500)
		_, err := e.Extract(buildDOCX(t, []string{"", "   "}), "vide.docx")
		var extErr *ExtractionError
		require.ErrorAs(t, err, &extErr)
		assert.Contains(t, extErr.Reason, "no text")
	})

	t.Run("doc extension uses the same parser", func(t *testing.T) {
		e := NewExtractor(100, 500)
		units, err := e.Extract(buildDOCX(t, []string{"Texte"}), "ancien.doc")
		require.NoError(t, err)
		require.Len(t, units, 1)
	})
}

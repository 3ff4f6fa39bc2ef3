package documents

import (
	"path/filepath"
	"strings"

	"github.com/gen2brain/go-fitz"
)

// Unit is one extracted slice of a document with provenance: a physical
// page for page-oriented formats, or a synthetic ~unitWords group of
// paragraphs for flow-oriented formats.
type Unit struct {
	Number int
	Text   string
}

// Extractor converts uploaded document bytes into ordered text units.
// Dispatch is by filename extension: PDF is page-oriented, DOC/DOCX is
// flow-oriented.
type Extractor struct {
	maxPages  int
	unitWords int
}

// NewExtractor creates an extractor. maxPages caps page-oriented
// extraction (extra pages are ignored, not an error); unitWords is the
// word threshold at which flow-oriented text starts a new unit.
func NewExtractor(maxPages, unitWords int) *Extractor {
	if maxPages <= 0 {
		maxPages = 100
	}
	if unitWords <= 0 {
		unitWords = 500
	}
	return &Extractor{maxPages: maxPages, unitWords: unitWords}
}

// Extract returns the non-empty text units of the document, in order.
// It fails with *ExtractionError when the format is unsupported, the
// bytes are unreadable, or no unit contains any text.
func (e *Extractor) Extract(data []byte, filename string) ([]Unit, error) {
	var (
		units []Unit
		err   error
	)

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		units, err = e.extractPDF(data, filename)
	case ".docx", ".doc":
		units, err = e.extractDOCX(data, filename)
	default:
		return nil, &ExtractionError{Filename: filename, Reason: "unsupported file type"}
	}
	if err != nil {
		return nil, err
	}

	if len(units) == 0 {
		return nil, &ExtractionError{Filename: filename, Reason: "no text could be extracted"}
	}
	return units, nil
}

// extractPDF emits one unit per physical page, up to maxPages. Pages
// whose text is empty after trimming are dropped but keep their page
// number for the pages that follow.
func (e *Extractor) extractPDF(data []byte, filename string) ([]Unit, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, &ExtractionError{Filename: filename, Reason: "failed to open PDF", Err: err}
	}
	defer doc.Close()

	var units []Unit
	for i := 0; i < doc.NumPage() && i < e.maxPages; i++ {
		text, err := doc.Text(i)
		if err != nil {
			continue
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		units = append(units, Unit{Number: i + 1, Text: text})
	}
	return units, nil
}

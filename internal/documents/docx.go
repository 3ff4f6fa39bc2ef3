package documents

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"io"
	"strings"
)

// documentXML mirrors the structure of word/document.xml.
type documentXML struct {
	Body struct {
		Paragraphs []paragraph `xml:"p"`
	} `xml:"body"`
}

type paragraph struct {
	Runs []run `xml:"r"`
}

type run struct {
	Text []textElement `xml:"t"`
}

type textElement struct {
	Content string `xml:",chardata"`
}

// extractDOCX reads a Word document as a ZIP archive and groups its
// paragraphs into synthetic units of roughly unitWords words each. A
// final partial accumulator becomes the last unit.
func (e *Extractor) extractDOCX(data []byte, filename string) ([]Unit, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, &ExtractionError{Filename: filename, Reason: "failed to open Word document", Err: err}
	}

	paragraphs, err := documentParagraphs(reader)
	if err != nil {
		return nil, &ExtractionError{Filename: filename, Reason: "failed to read document body", Err: err}
	}

	var (
		units   []Unit
		current []string
		words   int
		number  = 1
	)
	for _, text := range paragraphs {
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		current = append(current, text)
		words += len(strings.Fields(text))

		if words >= e.unitWords {
			units = append(units, Unit{Number: number, Text: strings.Join(current, "\n")})
			current = nil
			words = 0
			number++
		}
	}
	if len(current) > 0 {
		units = append(units, Unit{Number: number, Text: strings.Join(current, "\n")})
	}
	return units, nil
}

// documentParagraphs returns the paragraph texts of word/document.xml.
func documentParagraphs(reader *zip.Reader) ([]string, error) {
	for _, file := range reader.File {
		if file.Name != "word/document.xml" {
			continue
		}

		rc, err := file.Open()
		if err != nil {
			return nil, err
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, err
		}

		var doc documentXML
		if err := xml.Unmarshal(content, &doc); err != nil {
			return nil, err
		}

		paragraphs := make([]string, 0, len(doc.Body.Paragraphs))
		for _, para := range doc.Body.Paragraphs {
			var sb strings.Builder
			for _, r := range para.Runs {
				for _, t := range r.Text {
					sb.WriteString(t.Content)
				}
			}
			paragraphs = append(paragraphs, sb.String())
		}
		return paragraphs, nil
	}
	return nil, nil
}

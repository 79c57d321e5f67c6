// Package pdf handles receipt PDFs locally: searchable PDFs carry selectable
// text and never need the remote recognizer, scanned ones get rendered to an
// image for an OCR engine.
package pdf

import (
	"bytes"
	"fmt"
	"image/png"

	"github.com/gen2brain/go-fitz"

	"receipt-recognizer/internal/patterns"
	"receipt-recognizer/internal/receipt"
)

// searchableThreshold: below this many characters of embedded text the PDF is
// treated as a scanned image.
const searchableThreshold = 50

// ExtractText returns the embedded text of all pages in reading order.
func ExtractText(data []byte) (string, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return "", fmt.Errorf("opening pdf: %w", err)
	}
	defer doc.Close()

	var buf bytes.Buffer
	for n := 0; n < doc.NumPage(); n++ {
		text, err := doc.Text(n)
		if err != nil {
			return "", fmt.Errorf("extracting text from page %d: %w", n, err)
		}
		buf.WriteString(text)
		buf.WriteByte('\n')
	}
	return buf.String(), nil
}

// Searchable reports whether the PDF carries selectable text. Only the first
// pages are checked, receipts are short.
func Searchable(data []byte) bool {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return false
	}
	defer doc.Close()

	total := 0
	for n := 0; n < doc.NumPage() && n < 3; n++ {
		text, err := doc.Text(n)
		if err != nil {
			continue
		}
		total += len(bytes.TrimSpace([]byte(text)))
		if total > searchableThreshold {
			return true
		}
	}
	return false
}

// ExtractFields pulls receipt fields from the embedded text.
func ExtractFields(data []byte) (receipt.Fields, error) {
	text, err := ExtractText(data)
	if err != nil {
		return nil, err
	}
	return patterns.Extract(text), nil
}

// ToPNG renders the first page, for scanned PDFs that go to an OCR engine.
// Receipts are single page.
func ToPNG(data []byte) ([]byte, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("opening pdf: %w", err)
	}
	defer doc.Close()

	img, err := doc.Image(0)
	if err != nil {
		return nil, fmt.Errorf("rendering pdf page: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encoding png: %w", err)
	}
	return buf.Bytes(), nil
}

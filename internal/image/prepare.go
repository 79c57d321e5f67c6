// Package image normalizes incoming pictures so every engine sees PNG or PDF.
package image

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	"image/png"
	"strings"

	"github.com/gen2brain/heic"

	"receipt-recognizer/internal/pdf"
	"receipt-recognizer/internal/util"
)

// Prepare converts the input to PNG. PDFs are rendered (first page), HEIC and
// the standard formats are re-encoded, PNG passes through. Returns the data
// and the content type to report downstream.
func Prepare(data []byte, contentType string) ([]byte, string, error) {
	mime := strings.ToLower(strings.TrimSpace(contentType))
	if mime == "" {
		mime = util.SniffMime(data)
	}

	switch {
	case mime == "application/pdf" || util.IsPDF(data):
		out, err := pdf.ToPNG(data)
		if err != nil {
			return nil, "", fmt.Errorf("converting pdf: %w", err)
		}
		return out, "image/png", nil
	case mime == "image/png" && !isHEIC(data):
		return data, "image/png", nil
	default:
		out, err := toPNG(data, mime)
		if err != nil {
			return nil, "", err
		}
		return out, "image/png", nil
	}
}

func toPNG(data []byte, mime string) ([]byte, error) {
	var img image.Image
	var err error

	if isHEIC(data) || isHEICMime(mime) {
		img, err = heic.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("decoding heic: %w", err)
		}
	} else {
		img, _, err = image.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("decoding image: %w", err)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encoding png: %w", err)
	}
	return buf.Bytes(), nil
}

// isHEIC checks the ftyp box brands iPhones produce.
func isHEIC(data []byte) bool {
	if len(data) < 12 || string(data[4:8]) != "ftyp" {
		return false
	}
	switch string(data[8:12]) {
	case "heic", "heif", "mif1", "msf1":
		return true
	}
	return false
}

func isHEICMime(mime string) bool {
	return strings.Contains(mime, "heic") || strings.Contains(mime, "heif")
}

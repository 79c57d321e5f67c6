// Package yandex recognizes receipts through Yandex Vision OCR: the service
// returns plain text, receipt fields are then pattern-extracted from it.
package yandex

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"receipt-recognizer/internal/image"
	"receipt-recognizer/internal/patterns"
	"receipt-recognizer/internal/receipt"
)

var ocrEndpoint = "https://ocr.api.cloud.yandex.net/ocr/v1/recognizeText"

type Engine struct {
	iamc     *IamClient
	folderID string
	httpc    *http.Client
}

func New(oauthToken, folderID string) *Engine {
	return &Engine{
		iamc:     NewIamClient(oauthToken),
		folderID: folderID,
		httpc:    &http.Client{Timeout: 60 * time.Second},
	}
}

func (e *Engine) Name() string { return "yandex" }

type request struct {
	Content       string   `json:"content"`
	MimeType      string   `json:"mimeType,omitempty"`      // "JPEG" | "PNG" | "PDF"
	LanguageCodes []string `json:"languageCodes,omitempty"` // ["ru","en"]
	Model         string   `json:"model,omitempty"`
}

type response struct {
	Result *struct {
		TextAnnotation *struct {
			FullText string `json:"fullText,omitempty"`
			Blocks   []struct {
				Lines []struct {
					Text string `json:"text,omitempty"`
				} `json:"lines,omitempty"`
			} `json:"blocks,omitempty"`
		} `json:"textAnnotation,omitempty"`
	} `json:"result,omitempty"`
}

func (e *Engine) Recognize(ctx context.Context, data []byte, contentType string) (receipt.Fields, error) {
	// Vision accepts JPEG/PNG/PDF only; everything else (HEIC, GIF, unknown)
	// goes through PNG conversion first.
	if ocrMime(contentType) == "" {
		var err error
		data, contentType, err = image.Prepare(data, contentType)
		if err != nil {
			return nil, err
		}
	}
	text, err := e.recognizeText(ctx, data, contentType)
	if err != nil {
		return nil, err
	}
	return patterns.Extract(text), nil
}

func (e *Engine) recognizeText(ctx context.Context, data []byte, contentType string) (string, error) {
	iamToken, err := e.iamc.Token(ctx)
	if err != nil {
		return "", err
	}

	reqBody := request{
		Content:       base64.StdEncoding.EncodeToString(data),
		MimeType:      ocrMime(contentType),
		LanguageCodes: []string{"ru", "en"},
		Model:         "page",
	}
	payload, _ := json.Marshal(reqBody)

	req, _ := http.NewRequestWithContext(ctx, http.MethodPost, ocrEndpoint, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+iamToken)
	req.Header.Set("x-folder-id", e.folderID)

	resp, err := e.httpc.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		// один ретрай со свежим IAM токеном
		if iamToken, err = e.iamc.Token(ctx); err != nil {
			return "", err
		}
		req2, _ := http.NewRequestWithContext(ctx, http.MethodPost, ocrEndpoint, bytes.NewReader(payload))
		req2.Header = req.Header.Clone()
		req2.Header.Set("Authorization", "Bearer "+iamToken)
		resp, err = e.httpc.Do(req2)
		if err != nil {
			return "", err
		}
		defer resp.Body.Close()
	}
	if resp.StatusCode != http.StatusOK {
		x, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("yandex ocr %d: %s", resp.StatusCode, string(x))
	}

	var out response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	if out.Result == nil || out.Result.TextAnnotation == nil {
		return "", nil
	}
	ta := out.Result.TextAnnotation
	if t := strings.TrimSpace(ta.FullText); t != "" {
		return t, nil
	}
	// fallback: lines
	var lines []string
	for _, b := range ta.Blocks {
		for _, l := range b.Lines {
			if s := strings.TrimSpace(l.Text); s != "" {
				lines = append(lines, s)
			}
		}
	}
	return strings.Join(lines, "\n"), nil
}

func ocrMime(contentType string) string {
	switch contentType {
	case "image/jpeg":
		return "JPEG"
	case "image/png":
		return "PNG"
	case "application/pdf":
		return "PDF"
	}
	return ""
}

// Package gemini recognizes receipts with a Gemini vision model that is asked
// for strict JSON over the canonical field set.
package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"receipt-recognizer/internal/image"
	"receipt-recognizer/internal/receipt"
	"receipt-recognizer/internal/util"
)

const prompt = `You are analyzing a photo or scan of a payment receipt (bank transfer slip).
Extract the following fields:

1. "source": the sender account or card, usually masked like "MIR ****1723".
2. "destination": the recipient account or card.
3. "amount": the transferred amount as a decimal number string, e.g. "8700.00".
4. "fee": the commission, if the receipt shows one. Omit otherwise.
5. "date": the operation date and time in ISO 8601, e.g. "2020-03-31T11:44:30".

Return ONLY a flat JSON object with those string fields. Omit any field you
cannot read from the image. Do not invent values, do not add other fields,
do not use markdown code blocks.`

type Engine struct {
	APIKey string
	Model  string
}

func New(apiKey, model string) *Engine {
	if model == "" {
		model = "gemini-2.5-flash"
	}
	return &Engine{
		APIKey: strings.TrimSpace(apiKey),
		Model:  strings.TrimSpace(model),
	}
}

func (e *Engine) Name() string { return "gemini" }

func (e *Engine) Recognize(ctx context.Context, data []byte, contentType string) (receipt.Fields, error) {
	if e.APIKey == "" {
		return nil, errors.New("GEMINI_API_KEY is empty")
	}
	// PDFs and exotic image formats become PNG before upload.
	data, contentType, err := image.Prepare(data, contentType)
	if err != nil {
		return nil, err
	}
	cl, err := genai.NewClient(ctx, option.WithAPIKey(e.APIKey))
	if err != nil {
		return nil, err
	}
	defer cl.Close()

	m := cl.GenerativeModel(e.Model)
	m.GenerationConfig = genai.GenerationConfig{
		Temperature:      ptrFloat32(0),
		ResponseMIMEType: "application/json",
	}

	// genai wants the bare format suffix, not the full MIME type
	format := "png"
	if contentType == "image/jpeg" {
		format = "jpeg"
	}

	resp, err := m.GenerateContent(ctx,
		genai.ImageData(format, data),
		genai.Text(prompt),
	)
	if err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, errors.New("gemini: empty response")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	return fieldsFromJSON(sb.String())
}

// fieldsFromJSON decodes the model output, tolerating code fences and
// non-string values.
func fieldsFromJSON(text string) (receipt.Fields, error) {
	text = util.StripCodeFences(text)

	var raw map[string]any
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, fmt.Errorf("gemini: decoding response: %w", err)
	}

	fields := make(receipt.Fields, len(raw))
	for k, v := range raw {
		switch val := v.(type) {
		case string:
			if strings.TrimSpace(val) != "" {
				fields[k] = val
			}
		case float64:
			fields[k] = fmt.Sprintf("%.2f", val)
		case json.Number:
			fields[k] = val.String()
		}
	}
	return fields, nil
}

func ptrFloat32(f float32) *float32 { return &f }

// Package api is the client for the remote receipt-recognizer service.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"receipt-recognizer/internal/pdf"
	"receipt-recognizer/internal/receipt"
	"receipt-recognizer/internal/recognize"
	"receipt-recognizer/internal/util"
	"receipt-recognizer/internal/version"
)

// ErrScannedPDF: the PDF carries no selectable text and local extraction
// cannot help; send it to an OCR engine instead.
var ErrScannedPDF = errors.New("pdf is a scanned image, ocr required")

// ErrLocalMode: no API URL configured, only local PDF extraction available.
var ErrLocalMode = errors.New("api url not configured, local pdf mode only")

type Client struct {
	baseURL   string
	token     string
	httpc     *http.Client
	log       *zap.Logger
	localPDF  bool // extract searchable PDFs locally instead of uploading
	localMode bool // no API URL at all
}

type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpc.Timeout = d }
}

// WithRemotePDF sends all PDFs to the service instead of extracting
// searchable ones locally.
func WithRemotePDF() Option {
	return func(c *Client) { c.localPDF = false }
}

// New builds a client for the given service URL. An empty URL is allowed and
// leaves the client in local mode, where only searchable PDFs work. With a
// URL a token is required. The server version is probed once, a mismatch is
// logged but not fatal.
func New(baseURL, token string, log *zap.Logger, opts ...Option) (*Client, error) {
	c := &Client{
		baseURL:  strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		token:    token,
		httpc:    &http.Client{Timeout: 30 * time.Second},
		log:      log,
		localPDF: true,
	}
	for _, o := range opts {
		o(c)
	}

	if c.baseURL == "" {
		c.localMode = true
		c.log.Warn("working in local mode (pdf extraction only)")
		return c, nil
	}
	if c.token == "" {
		return nil, errors.New("client token is required when using the api")
	}
	c.checkServer()
	return c, nil
}

func (c *Client) Name() string { return "api" }

// RecognizeFile reads a file from disk and recognizes it.
func (c *Client) RecognizeFile(ctx context.Context, path string) (receipt.Fields, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", path, recognize.ErrNotFound)
		}
		return nil, err
	}
	return c.Recognize(ctx, data, util.SniffMime(data))
}

// Recognize routes searchable PDFs through local extraction and everything
// else to the service.
func (c *Client) Recognize(ctx context.Context, data []byte, contentType string) (receipt.Fields, error) {
	isPDF := contentType == "application/pdf" || util.IsPDF(data)

	if isPDF && (c.localPDF || c.localMode) {
		if !pdf.Searchable(data) {
			return nil, ErrScannedPDF
		}
		return pdf.ExtractFields(data)
	}
	return c.send(ctx, data, contentType)
}

func (c *Client) send(ctx context.Context, data []byte, contentType string) (receipt.Fields, error) {
	if c.localMode {
		return nil, ErrLocalMode
	}

	field, filename := "image", "receipt.jpg"
	if contentType == "application/pdf" {
		field, filename = "pdf", "receipt.pdf"
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile(field, filename)
	if err != nil {
		return nil, err
	}
	if _, err := fw.Write(data); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/recognize", &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("X-Client-Token", c.token)
	req.Header.Set("X-Client-Version", version.Version)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("recognizer request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		return nil, &recognize.APIError{Status: resp.StatusCode, Message: e.Error}
	}

	var envelope struct {
		Data map[string]json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("invalid recognizer response: %w", err)
	}

	fields := make(receipt.Fields, len(envelope.Data))
	for k, raw := range envelope.Data {
		fields[k] = rawToString(raw)
	}
	return fields, nil
}

// rawToString flattens JSON values: the service returns amounts as numbers
// and everything else as strings.
func rawToString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return strings.Trim(string(raw), `"`)
}

// checkServer probes /api/health and warns on version mismatch. Network
// failures are logged, never fatal: the service may come up later.
func (c *Client) checkServer() {
	ctx, cancel := context.WithTimeout(context.Background(), c.httpc.Timeout)
	defer cancel()

	server, err := c.ServerVersion(ctx)
	if err != nil {
		c.log.Warn("could not check server version", zap.Error(err))
		return
	}
	if err := version.CheckCompatibility(version.Version, server); err != nil {
		c.log.Warn("server version mismatch", zap.String("client", version.Version), zap.String("server", server))
	}
}

// ServerVersion fetches the service version from its health endpoint.
func (c *Client) ServerVersion(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/health", nil)
	if err != nil {
		return "", err
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		x, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("health %d: %s", resp.StatusCode, string(x))
	}
	var out struct {
		Version string `json:"version"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	if out.Version == "" {
		out.Version = "0.0.0"
	}
	return out.Version, nil
}

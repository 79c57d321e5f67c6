package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"receipt-recognizer/internal/receipt"
	"receipt-recognizer/internal/recognize"
	"receipt-recognizer/internal/version"
)

func newServer(t *testing.T, recognizeHandler http.HandlerFunc) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/health", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"version":"1.0.0"}`))
	})
	mux.HandleFunc("/api/v1/recognize", recognizeHandler)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestRecognizeImage(t *testing.T) {
	var gotToken, gotVersion string
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.Header.Get("X-Client-Token")
		gotVersion = r.Header.Get("X-Client-Version")

		require.NoError(t, r.ParseMultipartForm(1<<20))
		_, hdr, err := r.FormFile("image")
		require.NoError(t, err)
		assert.Equal(t, "receipt.jpg", hdr.Filename)

		_, _ = w.Write([]byte(`{"success":true,"data":{
			"source":"MIR ****1723","destination":"****2853",
			"amount":8700.00,"date":"2020-03-31T11:44:30"}}`))
	})

	c, err := New(srv.URL, "secret", zap.NewNop())
	require.NoError(t, err)

	fields, err := c.Recognize(context.Background(), []byte{0xFF, 0xD8, 0x01}, "image/jpeg")
	require.NoError(t, err)

	assert.Equal(t, "secret", gotToken)
	assert.Equal(t, version.Version, gotVersion)
	assert.Equal(t, "MIR ****1723", fields[receipt.Source])
	assert.Equal(t, "8700.00", fields[receipt.Amount])
	assert.True(t, receipt.Valid(receipt.Normalize(fields)))
}

func TestRecognizeServiceError(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":"invalid client token"}`))
	})

	c, err := New(srv.URL, "wrong", zap.NewNop())
	require.NoError(t, err)

	_, err = c.Recognize(context.Background(), []byte{0xFF, 0xD8}, "image/jpeg")
	var apiErr *recognize.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.Status)
	assert.Contains(t, apiErr.Message, "invalid client token")
}

func TestRecognizeFileNotFound(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {})

	c, err := New(srv.URL, "secret", zap.NewNop())
	require.NoError(t, err)

	_, err = c.RecognizeFile(context.Background(), filepath.Join(t.TempDir(), "missing.jpg"))
	assert.True(t, errors.Is(err, recognize.ErrNotFound))
}

func TestNewRequiresToken(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {})

	_, err := New(srv.URL, "", zap.NewNop())
	assert.Error(t, err)
}

func TestLocalMode(t *testing.T) {
	c, err := New("", "", zap.NewNop())
	require.NoError(t, err)

	_, err = c.Recognize(context.Background(), []byte{0xFF, 0xD8}, "image/jpeg")
	assert.True(t, errors.Is(err, ErrLocalMode))
}

func TestServerVersion(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {})

	c, err := New(srv.URL, "secret", zap.NewNop())
	require.NoError(t, err)

	v, err := c.ServerVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", v)
}

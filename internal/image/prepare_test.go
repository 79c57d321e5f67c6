package image

import (
	"bytes"
	"image"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encode(t *testing.T, format string) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	var buf bytes.Buffer
	var err error
	switch format {
	case "png":
		err = png.Encode(&buf, img)
	case "jpeg":
		err = jpeg.Encode(&buf, img, nil)
	}
	require.NoError(t, err)
	return buf.Bytes()
}

func TestPreparePNGPassthrough(t *testing.T) {
	data := encode(t, "png")
	out, mime, err := Prepare(data, "image/png")
	require.NoError(t, err)
	assert.Equal(t, "image/png", mime)
	assert.Equal(t, data, out)
}

func TestPrepareJPEGConverted(t *testing.T) {
	out, mime, err := Prepare(encode(t, "jpeg"), "")
	require.NoError(t, err)
	assert.Equal(t, "image/png", mime)

	_, err = png.Decode(bytes.NewReader(out))
	assert.NoError(t, err)
}

func TestPrepareGarbage(t *testing.T) {
	_, _, err := Prepare([]byte("not an image at all"), "image/jpeg")
	assert.Error(t, err)
}

func TestIsHEIC(t *testing.T) {
	data := append([]byte{0, 0, 0, 24}, []byte("ftypheic")...)
	data = append(data, make([]byte, 8)...)
	assert.True(t, isHEIC(data))
	assert.False(t, isHEIC(encode(t, "png")))
}

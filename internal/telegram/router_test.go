package telegram

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"receipt-recognizer/internal/receipt"
	"receipt-recognizer/internal/recognize"
)

type stubEngine struct{ name string }

func (e stubEngine) Name() string { return e.name }
func (e stubEngine) Recognize(context.Context, []byte, string) (receipt.Fields, error) {
	return receipt.Fields{}, nil
}

func TestSwitchEngine(t *testing.T) {
	api := stubEngine{name: "api"}
	yandex := stubEngine{name: "yandex"}
	r := &Router{
		Manager: recognize.NewManager(api),
		Engines: map[string]recognize.Engine{"api": api, "yandex": yandex},
	}
	const cid = int64(42)

	reply := r.switchEngine(cid, "")
	assert.Contains(t, reply, "Current engine: api")
	assert.Contains(t, reply, "/engine <api|yandex|default>")

	assert.Contains(t, r.switchEngine(cid, "yandex"), "Switched to engine: yandex")
	assert.Equal(t, "yandex", r.Manager.Get(cid).Name())

	assert.Contains(t, r.switchEngine(cid, "tesseract"), "Unknown engine")
	assert.Equal(t, "yandex", r.Manager.Get(cid).Name(), "selection untouched on bad name")

	assert.Contains(t, r.switchEngine(cid, "default"), "Switched to default engine: api")
	assert.Equal(t, "api", r.Manager.Get(cid).Name())
}

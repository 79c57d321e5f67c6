// Package recognize defines the boundary to external recognition engines.
// Engines return an untyped field mapping; normalization and validation
// happen in the receipt package on the caller's side.
package recognize

import (
	"context"
	"sync"

	"receipt-recognizer/internal/receipt"
)

type Engine interface {
	Name() string
	// Recognize extracts raw receipt fields from an image or PDF.
	Recognize(ctx context.Context, data []byte, contentType string) (receipt.Fields, error)
}

// Manager keeps per-chat engine selection with a default.
type Manager struct {
	def Engine
	m   sync.Map // chatID -> Engine
}

func NewManager(defaultEngine Engine) *Manager {
	return &Manager{def: defaultEngine}
}

func (m *Manager) Get(chatID int64) Engine {
	if v, ok := m.m.Load(chatID); ok {
		return v.(Engine)
	}
	return m.def
}

func (m *Manager) Set(chatID int64, e Engine) {
	m.m.Store(chatID, e)
}

func (m *Manager) Reset(chatID int64) {
	m.m.Delete(chatID)
}

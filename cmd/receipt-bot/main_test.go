package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShortHash(t *testing.T) {
	h := shortHash("123456:bot-token")
	assert.Len(t, h, 16)
	assert.Regexp(t, "^[0-9a-f]{16}$", h)
	assert.Equal(t, h, shortHash("123456:bot-token"), "webhook path must be stable")
	assert.NotEqual(t, h, shortHash("other-token"))
}

package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckCompatibility(t *testing.T) {
	assert.NoError(t, CheckCompatibility("1.0.0", "1.2.3"))
	assert.NoError(t, CheckCompatibility("1.0.0", "v1.0.1"))

	err := CheckCompatibility("1.0.0", "2.0.0")
	require.Error(t, err)
	var me *MismatchError
	require.ErrorAs(t, err, &me)
	assert.Equal(t, "1.0.0", me.Client)
	assert.Equal(t, "2.0.0", me.Server)
}

func TestCheckCompatibilitySelf(t *testing.T) {
	assert.NoError(t, CheckCompatibility(Version, MinServerVersion))
}

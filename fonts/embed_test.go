package fonts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadBuiltin(t *testing.T) {
	for _, name := range []string{"Go-Regular", "embed:Go-Bold", "Go-Mono.ttf"} {
		data, err := Load(name)
		require.NoError(t, err, name)
		assert.NotEmpty(t, data, name)
	}
}

func TestLoadUnknown(t *testing.T) {
	_, err := Load("embed:Inter-Regular")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Go-Regular")
}

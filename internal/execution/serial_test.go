package execution

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenSerialBridgeErrors(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "ttyNONE")

	_, err := OpenSerialBridge(missing, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "baud")

	_, err = OpenSerialBridge(missing, 115200)
	require.Error(t, err)
	assert.Contains(t, err.Error(), missing)
}

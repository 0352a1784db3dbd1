package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNew_WritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "librarian.log")
	logger, err := New("info", "json", path)
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Info("collection built", zap.Int("records", 4))
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"collection built"`)
	assert.Contains(t, string(data), `"records":4`)
	assert.NotContains(t, string(data), "hidden")
}

func TestNew_RejectsBadInput(t *testing.T) {
	_, err := New("loud", "console", "")
	assert.Error(t, err)

	_, err = New("info", "xml", "")
	assert.Error(t, err)
}

package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewWritesRotatedFile(t *testing.T) {
	dir := t.TempDir()
	log, err := New(dir, false)
	require.NoError(t, err)

	log.Info("booking created", zap.Int64("booking_id", 1))
	_ = log.Sync()

	data, err := os.ReadFile(filepath.Join(dir, logFileName))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"booking_id":1`)
	assert.Contains(t, string(data), `"msg":"booking created"`)
}

func TestNewStdoutOnly(t *testing.T) {
	log, err := New("", true)
	require.NoError(t, err)
	assert.NotNil(t, log)
}

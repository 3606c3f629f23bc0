package model_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/book-expert/voice-bridge/internal/model"
)

func TestResolveModelPath_DirectPath(t *testing.T) {
	t.Parallel()

	weightsPath := filepath.Join(t.TempDir(), "weights.bin")
	require.NoError(t, os.WriteFile(weightsPath, []byte("weights"), 0o600))

	resolved, err := model.ResolveModelPath(weightsPath)
	require.NoError(t, err)
	assert.Equal(t, weightsPath, resolved)
}

func TestResolveModelPath_CacheDirOverride(t *testing.T) {
	cacheDir := t.TempDir()
	t.Setenv("CACHE_DIR", cacheDir)

	modelDir := filepath.Join(cacheDir, "models", "vendor")
	require.NoError(t, os.MkdirAll(modelDir, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(modelDir, "tts.bin"), []byte("weights"), 0o600))

	resolved, err := model.ResolveModelPath(filepath.Join("vendor", "tts.bin"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(modelDir, "tts.bin"), resolved)
}

func TestResolveModelPath_MissingModel(t *testing.T) {
	t.Parallel()

	_, err := model.ResolveModelPath("no-such-model-8c1d.bin")
	require.Error(t, err)
	require.ErrorIs(t, err, model.ErrModelNotFound)
}

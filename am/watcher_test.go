package am

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestConfigWatcherReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "am.toml")
	require.NoError(t, os.WriteFile(path, []byte("[attention]\ndecay_rate = 0.1\n"), DefaultFilePermissions))

	cw, err := NewConfigWatcher(path, zaptest.NewLogger(t).Sugar())
	require.NoError(t, err)
	cw.debouncePeriod = 10 * time.Millisecond

	reloaded := make(chan *Config, 4)
	cw.OnReload(func(cfg *Config) error {
		reloaded <- cfg
		return nil
	})
	cw.Start()
	defer func() {
		require.NoError(t, cw.Stop())
		cw.Wait()
	}()

	// An invalid file is reported and skipped.
	require.NoError(t, os.WriteFile(path, []byte("[attention]\ndecay_rate = 3.0\n"), DefaultFilePermissions))
	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, reloaded)

	require.NoError(t, os.WriteFile(path, []byte("[attention]\ndecay_rate = 0.2\n"), DefaultFilePermissions))
	select {
	case cfg := <-reloaded:
		assert.Equal(t, 0.2, cfg.Attention.DecayRate)
	case <-time.After(5 * time.Second):
		t.Fatal("config was not reloaded")
	}
}

func TestConfigWatcherIgnoresNeighbours(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "am.toml")
	require.NoError(t, os.WriteFile(path, []byte(""), DefaultFilePermissions))

	cw, err := NewConfigWatcher(path, zaptest.NewLogger(t).Sugar())
	require.NoError(t, err)
	cw.debouncePeriod = time.Millisecond

	calls := make(chan struct{}, 4)
	cw.OnReload(func(*Config) error {
		calls <- struct{}{}
		return nil
	})
	cw.Start()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "am.toml.back1"), []byte("x"), DefaultFilePermissions))
	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, calls)

	require.NoError(t, cw.Stop())
	require.NoError(t, cw.Stop())
	cw.Wait()
}

func TestNewConfigWatcherMissingDir(t *testing.T) {
	_, err := NewConfigWatcher(filepath.Join(t.TempDir(), "missing", "am.toml"), nil)
	assert.Error(t, err)
}

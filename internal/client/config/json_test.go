package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_parseJson(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })
	t.Setenv("CONFIG", "")

	dir := t.TempDir()

	t.Run("loads from flag", func(t *testing.T) {
		path := filepath.Join(dir, "full.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"server_url":"http://example:9000","request_timeout":"7s"}`), 0o600))
		os.Args = []string{"testbin", "-config", path}

		cfg := &Config{}
		parseJson(cfg)

		assert.Equal(t, "http://example:9000", cfg.ServerURL)
		assert.Equal(t, 7*time.Second, cfg.RequestTimeout)
	})

	t.Run("partial file keeps other fields", func(t *testing.T) {
		path := filepath.Join(dir, "partial.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"request_timeout":1000000000}`), 0o600))
		os.Args = []string{"testbin", "-c", path}

		cfg := &Config{ServerURL: "http://keep:1"}
		parseJson(cfg)

		assert.Equal(t, "http://keep:1", cfg.ServerURL)
		assert.Equal(t, time.Second, cfg.RequestTimeout)
	})

	t.Run("no file leaves config alone", func(t *testing.T) {
		os.Args = []string{"testbin"}

		cfg := &Config{ServerURL: "http://defaults:1234", RequestTimeout: 42 * time.Second}
		parseJson(cfg)

		assert.Equal(t, "http://defaults:1234", cfg.ServerURL)
		assert.Equal(t, 42*time.Second, cfg.RequestTimeout)
	})

	t.Run("invalid JSON panics", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{ not json`), 0o600))
		os.Args = []string{"testbin", "-config", bad}

		require.Panics(t, func() { parseJson(&Config{}) })
	})

	t.Run("missing file panics", func(t *testing.T) {
		os.Args = []string{"testbin", "-config", filepath.Join(dir, "absent.json")}

		require.Panics(t, func() { parseJson(&Config{}) })
	})
}

package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cfg "github.com/idilsaglam/itemsubmit/internal/config"
)

// isolate points the user config dir and cwd at empty temp dirs.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", home)
	t.Setenv("HOME", home)
	chdir(t, t.TempDir())
	return home
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	c, err := cfg.Load(nil, "")
	require.NoError(t, err)
	assert.Equal(t, uint16(42), c.SS58Prefix)
	assert.Equal(t, 5*time.Minute, c.Timeout)
	assert.Equal(t, "en", c.Language)
	assert.Equal(t, "info", c.Log.Level)
	assert.Empty(t, c.URL)
}

func TestLoad_ExplicitFile(t *testing.T) {
	isolate(t)
	file := filepath.Join(t.TempDir(), "cfg.yaml")
	yaml := "url: wss://test-rpc01.logion.network\ncollection: \"1234\"\ntimeout: 30s\nlog:\n  level: debug\n"
	require.NoError(t, os.WriteFile(file, []byte(yaml), 0o600))

	c, err := cfg.Load(nil, file)
	require.NoError(t, err)
	assert.Equal(t, "wss://test-rpc01.logion.network", c.URL)
	assert.Equal(t, "1234", c.Collection)
	assert.Equal(t, 30*time.Second, c.Timeout)
	assert.Equal(t, "debug", c.Log.Level)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	isolate(t)
	file := filepath.Join(t.TempDir(), "cfg.yaml")
	require.NoError(t, os.WriteFile(file, []byte("url: ws://from-file\n"), 0o600))
	t.Setenv("ITEMSUBMIT_URL", "ws://from-env")
	t.Setenv("ITEMSUBMIT_LOG_LEVEL", "warn")

	c, err := cfg.Load(nil, file)
	require.NoError(t, err)
	assert.Equal(t, "ws://from-env", c.URL)
	assert.Equal(t, "warn", c.Log.Level)
}

func TestLoad_FlagsWin(t *testing.T) {
	isolate(t)
	t.Setenv("ITEMSUBMIT_URL", "ws://from-env")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("url", "", "")
	fs.Uint16("ss58-prefix", 42, "")
	fs.String("log-level", "info", "")
	fs.String("unrelated", "", "")
	require.NoError(t, fs.Parse([]string{"--url", "ws://from-flag", "--ss58-prefix", "0"}))

	c, err := cfg.Load(fs, "")
	require.NoError(t, err)
	assert.Equal(t, "ws://from-flag", c.URL)
	assert.Equal(t, uint16(0), c.SS58Prefix)
	assert.Equal(t, "info", c.Log.Level)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	isolate(t)
	_, err := cfg.Load(nil, filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestWriteConfigFile_RoundTrip(t *testing.T) {
	isolate(t)

	c := cfg.Config{URL: "ws://written", Collection: "9", SS58Prefix: 42, Language: "fr", Timeout: time.Minute}
	c.Log.Level = "error"
	path, err := cfg.WriteConfigFile(&c)
	require.NoError(t, err)

	want, err := cfg.GetConfigPath()
	require.NoError(t, err)
	assert.Equal(t, want, path)

	got, err := cfg.Load(nil, "")
	require.NoError(t, err)
	assert.Equal(t, "ws://written", got.URL)
	assert.Equal(t, "fr", got.Language)
	assert.Equal(t, "error", got.Log.Level)
	assert.Equal(t, time.Minute, got.Timeout)
}

// chdir changes the working directory for the duration of the test
// (equivalent of testing.T.Chdir, which needs Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Fatal(err)
		}
	})
}

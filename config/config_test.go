package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), DefaultFile)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	v, err := Load(filepath.Join(t.TempDir(), DefaultFile))
	require.NoError(t, err)

	cfg, err := FromViper(v)
	require.NoError(t, err)

	assert.Equal(t, "artifacts", cfg.OutDir)
	assert.Equal(t, ".rankpipe-profile", cfg.ProfileDir)
	assert.Equal(t, "auto", cfg.FetchMode)
	assert.True(t, cfg.Headless)
	assert.Equal(t, 100, cfg.RankLimit)
	assert.Equal(t, "unique", cfg.ExtractMode)
	assert.Equal(t, 1000, cfg.ExtractLimit)
	assert.Empty(t, cfg.RankURL)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `{
  "rank_url": "http://rank.test/top",
  "code_prefix": "item",
  "rank_limit": 25
}`)

	v, err := Load(path)
	require.NoError(t, err)
	cfg, err := FromViper(v)
	require.NoError(t, err)

	assert.Equal(t, "http://rank.test/top", cfg.RankURL)
	assert.Equal(t, "item", cfg.CodePrefix)
	assert.Equal(t, 25, cfg.RankLimit)
	assert.Equal(t, "auto", cfg.FetchMode, "defaults still apply for absent keys")
}

func TestLoadMalformed(t *testing.T) {
	path := writeConfig(t, `{broken`)

	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `{"rank_url": "http://file.test/"}`)
	t.Setenv("RANKPIPE_RANK_URL", "http://env.test/")
	t.Setenv("RANKPIPE_EXTRACT_MODE", "all")

	v, err := Load(path)
	require.NoError(t, err)
	cfg, err := FromViper(v)
	require.NoError(t, err)

	assert.Equal(t, "http://env.test/", cfg.RankURL)
	assert.Equal(t, "all", cfg.ExtractMode)
}

func TestRequire(t *testing.T) {
	t.Parallel()

	cfg := &Config{RankURL: "http://rank.test/"}

	assert.NoError(t, cfg.Require(KeyRankURL))

	err := cfg.Require(KeyRankURL, KeyCodePrefix, KeySeedSource)
	require.ErrorIs(t, err, ErrMissingConfig)
	assert.Contains(t, err.Error(), "code_prefix")
	assert.Contains(t, err.Error(), "seed_source")
	assert.NotContains(t, err.Error(), "rank_url")
}

func TestWriteBackRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), DefaultFile)

	persisted, err := ReadFile(path)
	require.NoError(t, err, "missing file is not an error")
	assert.Equal(t, FileSettings{}, persisted)

	cfg := &Config{
		RankURL:    "http://rank.test/top",
		ExtractURL: "http://pages.test/target",
		CodePrefix: "item",
		SeedSource: "https://seed.test",
	}
	assert.True(t, cfg.Changed(persisted))
	require.NoError(t, cfg.WriteBack(path))

	persisted, err = ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Settings(), persisted)
	assert.False(t, cfg.Changed(persisted))
}

func TestWriteBackPreservesOtherKeys(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `{
  "rank_url": "http://old.test/",
  "out_dir": "custom-out",
  "headless": false
}`)

	cfg := &Config{RankURL: "http://new.test/", CodePrefix: "item"}
	require.NoError(t, cfg.WriteBack(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"rank_url": "http://new.test/"`)
	assert.Contains(t, string(data), `"code_prefix": "item"`)
	assert.Contains(t, string(data), `"out_dir": "custom-out"`)
	assert.Contains(t, string(data), `"headless": false`)
}

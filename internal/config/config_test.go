package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_ReadsJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"port": 9000, "data_dir": "/srv/data", "clusters": 5}`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, "/srv/data", cfg.DataDir)
	assert.Equal(t, 5, cfg.Clusters)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestLoad_BadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	good := Config{Port: 8080, Clusters: 10}
	assert.NoError(t, good.Validate())

	bad := Config{Port: 70000}
	assert.Error(t, bad.Validate())

	negative := Config{Clusters: -1}
	assert.Error(t, negative.Validate())
}

func TestMergeWithDefaults(t *testing.T) {
	t.Setenv("GOOGLE_API_KEY", "env-key")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("PERSONAPRD_DATA_DIR", "")

	cfg := Config{}
	merged := cfg.MergeWithDefaults()

	assert.Equal(t, DefaultPort, merged.Port)
	assert.Equal(t, DefaultDataDir, merged.DataDir)
	assert.Equal(t, DefaultClusters, merged.Clusters)
	assert.Equal(t, DefaultComponents, merged.Components)
	assert.Equal(t, DefaultSummaryWorkers, merged.SummaryWorkers)
	assert.Equal(t, "env-key", merged.APIKey)
}

func TestMergeWithDefaults_EnvFallbacks(t *testing.T) {
	t.Setenv("GOOGLE_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "alt-key")
	t.Setenv("PERSONAPRD_DATA_DIR", "/var/lib/personaprd")

	merged := (&Config{}).MergeWithDefaults()
	assert.Equal(t, "alt-key", merged.APIKey)
	assert.Equal(t, "/var/lib/personaprd", merged.DataDir)
}

func TestMergeWithDefaults_ExplicitValuesWin(t *testing.T) {
	t.Setenv("GOOGLE_API_KEY", "env-key")

	cfg := Config{Port: 3000, DataDir: "/mnt/corpus", APIKey: "file-key", Clusters: 3}
	merged := cfg.MergeWithDefaults()

	assert.Equal(t, 3000, merged.Port)
	assert.Equal(t, "/mnt/corpus", merged.DataDir)
	assert.Equal(t, "file-key", merged.APIKey)
	assert.Equal(t, 3, merged.Clusters)
}

func TestDataDirLayout(t *testing.T) {
	cfg := Config{DataDir: "/srv/personaprd"}
	assert.Equal(t, filepath.Join("/srv/personaprd", "raw"), cfg.RawDir())
	assert.Equal(t, filepath.Join("/srv/personaprd", "processed"), cfg.ProcessedDir())
}

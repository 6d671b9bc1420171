package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// envSnapshot saves and clears CORESTAR_ environment variables, restoring
// them on the returned function (grounded on the teacher's config_test.go
// envSnapshot helper).
func envSnapshot(t *testing.T) func() {
	t.Helper()
	saved := make(map[string]string)
	for _, env := range os.Environ() {
		if strings.HasPrefix(env, "CORESTAR_") {
			parts := strings.SplitN(env, "=", 2)
			saved[parts[0]] = os.Getenv(parts[0])
			os.Unsetenv(parts[0])
		}
	}
	return func() {
		for _, env := range os.Environ() {
			if strings.HasPrefix(env, "CORESTAR_") {
				os.Unsetenv(strings.SplitN(env, "=", 2)[0])
			}
		}
		for k, v := range saved {
			os.Setenv(k, v)
		}
	}
}

func TestDefaults(t *testing.T) {
	restore := envSnapshot(t)
	defer restore()

	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, BackendSQLite, cfg.Backend)
	assert.Equal(t, "corestar.db", cfg.DatabasePath)
	assert.Equal(t, 100, cfg.ChunkSize)
	assert.Equal(t, 2, cfg.FuzzyTolerance)
	assert.True(t, cfg.SearchAliases)
	assert.Equal(t, 30*time.Second, cfg.RetryMaxWait)
}

func TestEnvironmentBinding(t *testing.T) {
	restore := envSnapshot(t)
	defer restore()
	chdirTemp(t)

	os.Setenv("CORESTAR_BACKEND", "mysql")
	os.Setenv("CORESTAR_DSN", "user:pass@tcp(127.0.0.1:3306)/corestar")
	os.Setenv("CORESTAR_CHUNK_SIZE", "250")
	os.Setenv("CORESTAR_FUZZY_TOLERANCE", "3")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Backend("mysql"), cfg.Backend)
	assert.Equal(t, "user:pass@tcp(127.0.0.1:3306)/corestar", cfg.DSN)
	assert.Equal(t, 250, cfg.ChunkSize)
	assert.Equal(t, 3, cfg.FuzzyTolerance)
}

func TestConfigFileOverridesDefaults(t *testing.T) {
	restore := envSnapshot(t)
	defer restore()
	dir := chdirTemp(t)

	require.NoError(t, WriteTOML(filepath.Join(dir, "corestar.toml"), ServiceConfig{
		Backend:        BackendSQLite,
		DatabasePath:   "/var/lib/corestar/catalog.db",
		ChunkSize:      50,
		FuzzyTolerance: 1,
		MaxResults:     25,
		LogLevel:       "debug",
	}))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/corestar/catalog.db", cfg.DatabasePath)
	assert.Equal(t, 50, cfg.ChunkSize)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestConfigPrecedenceEnvOverFile(t *testing.T) {
	restore := envSnapshot(t)
	defer restore()
	dir := chdirTemp(t)

	require.NoError(t, WriteTOML(filepath.Join(dir, "corestar.toml"), ServiceConfig{
		Backend:      BackendSQLite,
		DatabasePath: "file-configured.db",
		ChunkSize:    50,
	}))
	os.Setenv("CORESTAR_DATABASE_PATH", "env-configured.db")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "env-configured.db", cfg.DatabasePath, "env var must win over file")
	assert.Equal(t, 50, cfg.ChunkSize, "file value still applies where env doesn't override")
}

func TestWithConfigFileExplicitPath(t *testing.T) {
	restore := envSnapshot(t)
	defer restore()
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, WriteYAML(path, ServiceConfig{Backend: BackendMySQL, DSN: "root@/corestar", ChunkSize: 10}))

	cfg, err := Load(WithConfigFile(path))
	require.NoError(t, err)
	assert.Equal(t, Backend("mysql"), cfg.Backend)
	assert.Equal(t, 10, cfg.ChunkSize)
}

func TestValidateRejectsMissingBackendTarget(t *testing.T) {
	cfg := DefaultServiceConfig()
	cfg.DatabasePath = ""
	assert.Error(t, cfg.Validate())

	cfg = DefaultServiceConfig()
	cfg.Backend = BackendMySQL
	assert.Error(t, cfg.Validate(), "mysql backend requires dsn")

	cfg = DefaultServiceConfig()
	assert.NoError(t, cfg.Validate())
}

func TestValidateRejectsBadChunkSize(t *testing.T) {
	cfg := DefaultServiceConfig()
	cfg.ChunkSize = 0
	assert.Error(t, cfg.Validate())
}

// chdirTemp switches the working directory to a fresh temp dir for the
// duration of the test, so AddConfigPath(".") doesn't pick up a stray
// corestar.toml left by a prior test or the developer's own cwd.
func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
	return dir
}

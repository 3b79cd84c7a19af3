package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	s := Default()
	assert.Equal(t, "measure", s.Parallelism.Rigor)
	assert.False(t, s.Parallelism.SyncTransposes)
}

func TestLoad(t *testing.T) {
	s, err := Load(strings.NewReader(`
[parallelism]
rigor = "Patient"
sync-transposes = true
`))
	require.NoError(t, err)
	assert.Equal(t, "Patient", s.Parallelism.Rigor)
	assert.True(t, s.Parallelism.SyncTransposes)
}

func TestLoad_PartialKeepsDefaults(t *testing.T) {
	s, err := Load(strings.NewReader(`
[parallelism]
sync-transposes = true
`))
	require.NoError(t, err)
	assert.Equal(t, "measure", s.Parallelism.Rigor)
	assert.True(t, s.Parallelism.SyncTransposes)
}

func TestLoad_UnknownRigor(t *testing.T) {
	_, err := Load(strings.NewReader(`
[parallelism]
rigor = "psychic"
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown parallelism rigor")
}

func TestInstallFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pencil.toml")
	require.NoError(t, os.WriteFile(path, []byte("[parallelism]\nrigor = \"exhaustive\"\n"), 0o644))

	require.NoError(t, InstallFile(path))
	defer func() { require.NoError(t, Install(Default())) }()
	assert.Equal(t, "exhaustive", Current().Parallelism.Rigor)

	require.Error(t, InstallFile(filepath.Join(t.TempDir(), "missing.toml")))
}

package core

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/julien-sobczak/mermaid-export/internal/medias"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadConfigFromDirectory(t *testing.T) {

	t.Run("Config present", func(t *testing.T) {
		dir := SetUpWorkspaceFromConfig(t, `
[export]
quality="maximum"
format="png"
folder=" Attachments/Diagrams "

[render]
engine="ink"
timeout="30s"
`)
		config, err := ReadConfigFromDirectory(dir)
		require.NoError(t, err)
		require.NotNil(t, config)
		assert.Equal(t, dir, config.RootDirectory)

		settings, err := config.ExportSettings()
		require.NoError(t, err)
		assert.Equal(t, ExportSettings{
			Quality:  QualityMaximum,
			Format:   medias.FormatPNG,
			Folder:   "Attachments/Diagrams",
			Filename: DefaultFilename, // default value
		}, settings)
		assert.Equal(t, 30*time.Second, config.RenderTimeout())
		assert.Equal(t, DefaultRescanDelay, config.RescanDelay())
		assert.Equal(t, DefaultSettleDelay, config.SettleDelay())
		assert.Equal(t, "mmdc", config.ConfigFile.Render.Command) // default value
		require.NoError(t, config.Check())
	})

	t.Run("Config in parent directory", func(t *testing.T) {
		dir := SetUpWorkspaceFromConfig(t, `
[export]
format="jpg"
`)
		subdir := filepath.Join(dir, "notes", "projects")
		require.NoError(t, os.MkdirAll(subdir, 0755))

		config, err := ReadConfigFromDirectory(subdir)
		require.NoError(t, err)
		require.NotNil(t, config)
		assert.Equal(t, dir, config.RootDirectory)
		assert.Equal(t, "jpg", config.ConfigFile.Export.Format)
	})

	t.Run("Config missing", func(t *testing.T) {
		config, err := ReadConfigFromDirectory(t.TempDir())
		require.NoError(t, err)
		assert.Nil(t, config)
	})

	t.Run("Unknown field", func(t *testing.T) {
		dir := SetUpWorkspaceFromConfig(t, `
[export]
resolution="8k"
`)
		_, err := ReadConfigFromDirectory(dir)
		assert.Error(t, err)
	})
}

func TestCurrentConfig(t *testing.T) {
	dir := SetUpWorkspaceFromConfig(t, `
[vault]
type="fs"
dir="vault"
`)
	require.NoError(t, os.Mkdir(filepath.Join(dir, "vault"), 0755))

	config := CurrentConfig()
	assert.Equal(t, dir, config.RootDirectory)
	assert.Same(t, config, CurrentConfig())

	vault, err := config.Vault()
	require.NoError(t, err)
	require.NoError(t, vault.WriteBinary("test.svg", []byte("<svg/>")))
	assert.FileExists(t, filepath.Join(dir, "vault", "test.svg"))
}

func TestInitConfigFromDirectory(t *testing.T) {
	dir := t.TempDir()

	config, err := InitConfigFromDirectory(dir)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, ConfigDirName, "config"))
	assert.Equal(t, "high", config.ConfigFile.Export.Quality)
	require.NoError(t, config.Check())

	// Do not override an existing configuration
	_, err = InitConfigFromDirectory(dir)
	assert.Error(t, err)
}

func TestConfigCheck(t *testing.T) {
	var tests = []struct {
		name   string
		update func(f *ConfigFile)
	}{
		{"quality", func(f *ConfigFile) { f.Export.Quality = "ultra" }},
		{"format", func(f *ConfigFile) { f.Export.Format = "gif" }},
		{"engine", func(f *ConfigFile) { f.Render.Engine = "browser" }},
		{"converter", func(f *ConfigFile) { f.Medias.Command = "inkscape" }},
		{"vault", func(f *ConfigFile) { f.Vault.Type = "ftp" }},
		{"s3 vault", func(f *ConfigFile) { f.ConfigureS3Vault("", "", "", "") }},
		{"timeout", func(f *ConfigFile) { f.Render.Timeout = "soon" }},
		{"delay", func(f *ConfigFile) { f.Watch.Delay = "-1s" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config, err := NewDefaultConfig(t.TempDir())
			require.NoError(t, err)
			require.NoError(t, config.Check())
			tt.update(&config.ConfigFile)
			assert.Error(t, config.Check())
		})
	}
}

func TestConfigConverter(t *testing.T) {
	config, err := NewDefaultConfig(t.TempDir())
	require.NoError(t, err)
	assert.IsType(t, &medias.Rasterizer{}, config.Converter())

	config.ConfigFile.Medias.Command = "random"
	assert.IsType(t, &medias.RandomConverter{}, config.Converter())
}

func TestConfigEngine(t *testing.T) {
	config, err := NewDefaultConfig(t.TempDir())
	require.NoError(t, err)

	config.ConfigFile.Render.Engine = "ink"
	engine, err := config.Engine()
	require.NoError(t, err)
	assert.NotNil(t, engine)

	config.ConfigFile.Render.Engine = "cli"
	config.ConfigFile.Render.Command = "mmdc-missing-binary"
	_, err = config.Engine()
	assert.Error(t, err)
}

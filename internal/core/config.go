package core

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/julien-sobczak/mermaid-export/internal/dom"
	"github.com/julien-sobczak/mermaid-export/internal/medias"
	"github.com/julien-sobczak/mermaid-export/internal/mermaid"
	"github.com/julien-sobczak/mermaid-export/pkg/resync"
	"github.com/pelletier/go-toml/v2"
	"golang.org/x/exp/slices"
)

// How many parent directories to traverse before giving up the search for a configuration
const maxDepth = 10

// Name of the directory containing the configuration
const ConfigDirName = ".mermaid-export"

// Default .mermaid-export/config content
const DefaultConfig = `
[export]
quality="high"
format="svg"
folder=""
filename="{noteName}-{timestamp}"

[render]
engine="cli"
command="mmdc"
theme="default"
url="https://mermaid.ink"
timeout="0s"

[watch]
delay="100ms"
settle="50ms"

[medias]
command="rasterizer"

[vault]
type="fs"
dir="."

[download]
dir=""
reveal=false
`

var (
	// Lazy-load configuration and ensure a single read
	configOnce      resync.Once
	configSingleton *Config
)

// Note: Fields must be public for toml package to unmarshall
type ConfigFile struct {
	Export   ConfigExport
	Render   ConfigRender
	Watch    ConfigWatch
	Medias   ConfigMedias
	Vault    ConfigVault
	Download ConfigDownload
}
type ConfigExport struct {
	Quality  string // low, medium, high, maximum
	Format   string // svg, png, jpeg
	Folder   string
	Filename string
}
type ConfigRender struct {
	Engine  string // cli or ink
	Command string
	Theme   string
	URL     string
	Timeout string // 0 = no timeout
}
type ConfigWatch struct {
	Delay  string
	Settle string
}
type ConfigMedias struct {
	Command   string // rasterizer or random
	MaxPixels int
}
type ConfigVault struct {
	Type string // fs or s3
	// fs-specific attributes
	Dir string
	// s3-specific attributes
	Endpoint   string
	AccessKey  string
	SecretKey  string
	BucketName string
	Secure     bool
}
type ConfigDownload struct {
	Dir    string
	Reveal bool
}

// ConfigureFSVault saves exports in a local directory.
func (f *ConfigFile) ConfigureFSVault(dir string) *ConfigFile {
	f.Vault = ConfigVault{
		Type: "fs",
		Dir:  dir,
	}
	return f
}

// ConfigureS3Vault saves exports in a S3 bucket.
func (f *ConfigFile) ConfigureS3Vault(endpoint, bucketName, accessKey, secretKey string) *ConfigFile {
	f.Vault = ConfigVault{
		Type:       "s3",
		Endpoint:   endpoint,
		BucketName: bucketName,
		AccessKey:  accessKey,
		SecretKey:  secretKey,
	}
	return f
}

/* Main config */

type Config struct {
	// Absolute directory containing the .mermaid-export sub-directory
	RootDirectory string

	// .mermaid-export/config content
	ConfigFile ConfigFile

	// Temporary directory to write transient files
	tempDir string
}

func CurrentConfig() *Config {
	configOnce.Do(func() {
		var err error
		home := currentHome()
		configSingleton, err = ReadConfigFromDirectory(home)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Unable to read current configuration: %v\n", err)
			os.Exit(1)
		}
		if configSingleton == nil {
			// No configuration = defaults
			configSingleton, err = NewDefaultConfig(home)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Default configuration is broken: %v\n", err)
				os.Exit(1)
			}
		}
	})
	return configSingleton
}

// NewDefaultConfig returns the default configuration rooted at the given directory.
func NewDefaultConfig(rootPath string) (*Config, error) {
	configFile, err := parseConfigFile(DefaultConfig)
	if err != nil {
		return nil, err
	}
	return &Config{
		RootDirectory: rootPath,
		ConfigFile:    *configFile,
	}, nil
}

// TempDir returns the privileged temporary directory to use when generating temporary files.
func (c *Config) TempDir() string {
	if c.tempDir == "" {
		dir, err := os.MkdirTemp("", "mermaid-export")
		if err != nil {
			CurrentLogger().Fatalf("Unable to init temp dir: %v", err)
		}
		c.tempDir = dir
	}
	return c.tempDir
}

// ExportSettings returns the preferences applied to exports.
func (c *Config) ExportSettings() (ExportSettings, error) {
	return NewExportSettings(c.ConfigFile.Export)
}

// Engine returns the engine used to render diagrams.
func (c *Config) Engine() (mermaid.Engine, error) {
	switch c.ConfigFile.Render.Engine {
	case "", "cli":
		engine, err := mermaid.NewCLIEngine(c.ConfigFile.Render.Command, c.ConfigFile.Render.Theme)
		if err != nil {
			return nil, err
		}
		engine.OnPreGeneration(func(cmd string, args ...string) {
			CurrentLogger().Debugf("Running command %q", cmd+" "+strings.Join(args, " "))
		})
		return engine, nil
	case "ink":
		return mermaid.NewInkEngine(c.ConfigFile.Render.URL, c.ConfigFile.Render.Theme), nil
	}
	return nil, fmt.Errorf("unsupported engine %q", c.ConfigFile.Render.Engine)
}

// Converter returns the converter to use when rasterizing diagrams.
func (c *Config) Converter() medias.Converter {
	switch c.ConfigFile.Medias.Command {
	case "", "rasterizer":
		converter := medias.NewRasterizer()
		if c.ConfigFile.Medias.MaxPixels > 0 {
			converter.WithMaxPixels(c.ConfigFile.Medias.MaxPixels)
		}
		converter.OnPreGeneration(func(cmd string, args ...string) {
			CurrentLogger().Debugf("Running %q", cmd+" "+strings.Join(args, " "))
		})
		return converter
	case "random":
		return medias.NewRandomConverter()
	}
	CurrentLogger().Fatalf("Unsupported converter %q", c.ConfigFile.Medias.Command)
	return nil
}

// Vault returns the primary storage of exports.
func (c *Config) Vault() (Vault, error) {
	switch c.ConfigFile.Vault.Type {
	case "", "fs":
		dir := c.ConfigFile.Vault.Dir
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(c.RootDirectory, dir)
		}
		return NewFSVault(dir)
	case "s3":
		return NewS3VaultWithCredentials(
			c.ConfigFile.Vault.Endpoint,
			c.ConfigFile.Vault.BucketName,
			c.ConfigFile.Vault.AccessKey,
			c.ConfigFile.Vault.SecretKey,
			c.ConfigFile.Vault.Secure)
	}
	return nil, fmt.Errorf("unsupported vault type %q", c.ConfigFile.Vault.Type)
}

// Downloader returns the fallback storage of exports.
func (c *Config) Downloader() (*DirDownloader, error) {
	dir := c.ConfigFile.Download.Dir
	if dir == "" {
		var err error
		dir, err = DefaultDownloadDir()
		if err != nil {
			return nil, err
		}
	}
	downloader := NewDirDownloader(dir, c.TempDir())
	if c.ConfigFile.Download.Reveal {
		downloader.RevealAfterDownload()
	}
	return downloader, nil
}

// RenderTimeout bounds the engine call. Zero means no timeout.
func (c *Config) RenderTimeout() time.Duration {
	return mustParseDuration(c.ConfigFile.Render.Timeout, 0)
}

// RescanDelay is the time left to the host to finish rendering before a rescan.
func (c *Config) RescanDelay() time.Duration {
	return mustParseDuration(c.ConfigFile.Watch.Delay, DefaultRescanDelay)
}

// SettleDelay is the time left to the layout before rendering.
func (c *Config) SettleDelay() time.Duration {
	return mustParseDuration(c.ConfigFile.Watch.Settle, DefaultSettleDelay)
}

func mustParseDuration(value string, defaultValue time.Duration) time.Duration {
	if strings.TrimSpace(value) == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		// Checked by Check()
		return defaultValue
	}
	return d
}

// NewExporter wires an exporter on a document using the current settings.
func (c *Config) NewExporter(doc *dom.Document, editor Editor, notifier Notifier) (*Exporter, error) {
	settings, err := c.ExportSettings()
	if err != nil {
		return nil, err
	}
	engine, err := c.Engine()
	if err != nil {
		return nil, err
	}
	vault, err := c.Vault()
	if err != nil {
		return nil, err
	}
	downloader, err := c.Downloader()
	if err != nil {
		return nil, err
	}

	renderer := NewRenderer(doc, engine).
		WithSettleDelay(c.SettleDelay()).
		WithTimeout(c.RenderTimeout())
	persister := NewPersister(vault, downloader, notifier)
	return NewExporter(doc, renderer, persister).
		WithConverter(c.Converter()).
		WithEditor(editor).
		WithNotifier(notifier).
		WithSettings(settings), nil
}

func currentHome() string {
	// Supports overriding the root directory mainly for testing purposes.
	//
	//   $ env MX_HOME=./examples go run main.go scan notes.md
	if path, ok := os.LookupEnv("MX_HOME"); ok {
		abspath, err := filepath.Abs(path)
		if err != nil {
			fmt.Fprintln(os.Stderr, "Failed to evaluate $MX_HOME")
			os.Exit(1)
		}
		if _, err := os.Stat(abspath); os.IsNotExist(err) {
			fmt.Fprintln(os.Stderr, "Path in $MX_HOME undefined")
			os.Exit(1)
		}
		return abspath
	}

	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Unable to determine current directory: %v\n", err)
		os.Exit(1)
	}
	return cwd
}

// ReadConfigFromDirectory loads the configuration by searching for a .mermaid-export directory
// in the given directory or any parent directories. It returns nil when none is found.
func ReadConfigFromDirectory(path string) (*Config, error) {
	rootPath := path
	i := 0 // Safeguard to not go up too far
	for {
		i++
		if i > maxDepth {
			return nil, nil
		}
		configDirPath := filepath.Join(rootPath, ConfigDirName)
		_, err := os.Stat(configDirPath)
		if os.IsNotExist(err) {
			parent := filepath.Dir(rootPath)
			if parent == rootPath {
				// Root directory detected
				return nil, nil
			}
			rootPath = parent
		} else if err != nil {
			return nil, fmt.Errorf("error while searching for configuration directory: %v", err)
		} else {
			break
		}
	}

	// Check for .mermaid-export/config
	configPath := filepath.Join(rootPath, ConfigDirName, "config")
	_, err := os.Stat(configPath)
	var configFile *ConfigFile
	if os.IsNotExist(err) {
		configFile, err = parseConfigFile(DefaultConfig)
		if err != nil {
			return nil, fmt.Errorf("default configuration is broken: %v", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("failed to check for %s/config file: %v", ConfigDirName, err)
	} else {
		content, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s/config file: %v", ConfigDirName, err)
		}
		configFile, err = parseConfigFile(string(content))
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s/config file: %v", ConfigDirName, err)
		}
	}

	return &Config{
		RootDirectory: rootPath,
		ConfigFile:    *configFile,
	}, nil
}

// parseConfigFile reads the configuration on top of the default values.
func parseConfigFile(content string) (*ConfigFile, error) {
	var result ConfigFile
	if content != DefaultConfig {
		defaults, err := parseConfigFile(DefaultConfig)
		if err != nil {
			return nil, err
		}
		result = *defaults
	}
	r := strings.NewReader(content)
	d := toml.NewDecoder(r)
	d.DisallowUnknownFields()
	err := d.Decode(&result)
	return &result, err
}

// InitConfigFromDirectory creates the .mermaid-export directory with the default configuration.
func InitConfigFromDirectory(path string) (*Config, error) {
	configDirPath := filepath.Join(path, ConfigDirName)
	if _, err := os.Stat(configDirPath); err == nil {
		// Do not override current configuration
		return nil, fmt.Errorf("current configuration detected")
	}

	err := os.Mkdir(configDirPath, 0755)
	if err != nil {
		return nil, err
	}
	err = os.WriteFile(filepath.Join(configDirPath, "config"), []byte(DefaultConfig), 0644)
	if err != nil {
		return nil, err
	}

	// Reread configuration
	return ReadConfigFromDirectory(path)
}

func (c *Config) Check() error {
	if _, err := c.ExportSettings(); err != nil {
		return err
	}

	if !slices.Contains([]string{"", "cli", "ink"}, c.ConfigFile.Render.Engine) {
		return fmt.Errorf("unknown engine %q", c.ConfigFile.Render.Engine)
	}
	if !slices.Contains([]string{"", "rasterizer", "random"}, c.ConfigFile.Medias.Command) {
		return fmt.Errorf("unknown converter %q", c.ConfigFile.Medias.Command)
	}
	if !slices.Contains([]string{"", "fs", "s3"}, c.ConfigFile.Vault.Type) {
		return fmt.Errorf("unknown vault type %q", c.ConfigFile.Vault.Type)
	}
	if c.ConfigFile.Vault.Type == "s3" && (c.ConfigFile.Vault.Endpoint == "" || c.ConfigFile.Vault.BucketName == "") {
		return fmt.Errorf("missing endpoint or bucket name for s3 vault")
	}

	durations := map[string]string{
		"render.timeout": c.ConfigFile.Render.Timeout,
		"watch.delay":    c.ConfigFile.Watch.Delay,
		"watch.settle":   c.ConfigFile.Watch.Settle,
	}
	for name, value := range durations {
		if strings.TrimSpace(value) == "" {
			continue
		}
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration %q for %s: %v", value, name, err)
		}
		if d < 0 {
			return fmt.Errorf("negative duration %q for %s", value, name)
		}
	}

	return nil
}

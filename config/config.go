package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides, e.g. UIPREVIEW_LISTEN.
const EnvPrefix = "UIPREVIEW"

// AsciiDocConfig holds overrides for the document attributes passed to the converter.
type AsciiDocConfig struct {
	Attributes map[string]string `mapstructure:"attributes"`
}

// Config encapsulates runtime and build-time options.
type Config struct {
	Listen     string         `mapstructure:"listen"`
	UIDir      string         `mapstructure:"uiDir"`
	PreviewDir string         `mapstructure:"previewDir"`
	OutputDir  string         `mapstructure:"outputDir"`
	SiteModel  string         `mapstructure:"siteModel"`
	LogLevel   string         `mapstructure:"logLevel"`
	LiveReload bool           `mapstructure:"liveReload"`
	Minify     bool           `mapstructure:"minify"`
	DeployURL  string         `mapstructure:"deployUrl"`
	AsciiDoc   AsciiDocConfig `mapstructure:"asciidoc"`
}

// Load reads configuration from the optional file at path, the process
// environment and any .env file, then applies defaults.
func Load(path string) (*Config, error) {
	loadEnvFile()

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("deployUrl", EnvPrefix+"_DEPLOYURL", "DEPLOY_PRIME_URL", "URL"); err != nil {
		return nil, fmt.Errorf("bind env: %w", err)
	}

	if path = strings.TrimSpace(path); path != "" {
		v.SetConfigFile(filepath.Clean(path))
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{LiveReload: true}
	_ = cfg.applyDefaults()
	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("listen", ":5253")
	v.SetDefault("uiDir", ".")
	v.SetDefault("previewDir", "preview-src")
	v.SetDefault("outputDir", "public")
	v.SetDefault("siteModel", "")
	v.SetDefault("logLevel", "info")
	v.SetDefault("liveReload", true)
	v.SetDefault("minify", false)
	v.SetDefault("deployUrl", "")
}

func (c *Config) applyDefaults() error {
	c.Listen = strings.TrimSpace(c.Listen)
	if c.Listen == "" {
		c.Listen = ":5253"
	}
	if strings.TrimSpace(c.UIDir) == "" {
		c.UIDir = "."
	}
	if strings.TrimSpace(c.PreviewDir) == "" {
		c.PreviewDir = "preview-src"
	}
	if strings.TrimSpace(c.OutputDir) == "" {
		c.OutputDir = "public"
	}
	if strings.TrimSpace(c.SiteModel) == "" {
		c.SiteModel = filepath.Join(c.PreviewDir, "ui-model.yml")
	}
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	c.DeployURL = strings.TrimSpace(c.DeployURL)
	if c.AsciiDoc.Attributes == nil {
		c.AsciiDoc.Attributes = map[string]string{}
	}
	return nil
}

func (c *Config) validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level %q", c.LogLevel)
	}
	if filepath.Clean(c.OutputDir) == filepath.Clean(c.PreviewDir) {
		return fmt.Errorf("output directory must differ from preview directory")
	}
	return nil
}

// LayoutsDir is the directory holding the layout templates.
func (c *Config) LayoutsDir() string {
	return filepath.Join(c.UIDir, "src", "layouts")
}

// PartialsDir is the directory holding the partial templates.
func (c *Config) PartialsDir() string {
	return filepath.Join(c.UIDir, "src", "partials")
}

// HelpersDir is the directory holding custom template helpers.
func (c *Config) HelpersDir() string {
	return filepath.Join(c.UIDir, "src", "helpers")
}

// loadEnvFile loads the first .env file found. Existing variables win.
func loadEnvFile() {
	for _, name := range []string{".env", ".env.local"} {
		if err := godotenv.Load(name); err == nil {
			return
		} else if !errors.Is(err, fs.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "Note: could not load %s: %v\n", name, err)
		}
	}
}

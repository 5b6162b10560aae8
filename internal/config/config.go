package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/bmad-plugin/bmadsync/internal/source"
)

const (
	// ConfigName is the config file base name looked up in the project root
	ConfigName = "bmadsync"
	// EnvPrefix prefixes environment overrides, e.g. BMADSYNC_PLUGIN_DIR
	EnvPrefix = "BMADSYNC"

	DefaultUpstreamDir = ".upstream"
	DefaultPluginDir   = "plugins/bmad"
)

// Config is the run configuration. It is built once per invocation and passed
// explicitly to every component.
type Config struct {
	Root        string         `mapstructure:"root"`
	UpstreamDir string         `mapstructure:"upstream_dir"`
	PluginDir   string         `mapstructure:"plugin_dir"`
	Verbose     bool           `mapstructure:"verbose"`
	Rewrite     RewriteConfig  `mapstructure:"rewrite"`
	Sources     []SourceConfig `mapstructure:"sources"`

	// File is the config file that was read, empty when none was found
	File string `mapstructure:"-"`
}

// RewriteConfig holds the path tokens used by the rewriter
type RewriteConfig struct {
	Marker       string `mapstructure:"marker"`
	PluginRoot   string `mapstructure:"plugin_root"`
	ConfigTarget string `mapstructure:"config_target"`
}

// SourceConfig overrides fields of a built-in source, or declares a new one
// when the id is unknown.
type SourceConfig struct {
	ID            string            `mapstructure:"id"`
	Enabled       *bool             `mapstructure:"enabled"`
	Repo          string            `mapstructure:"repo"`
	LocalPath     string            `mapstructure:"local_path"`
	VersionFile   string            `mapstructure:"version_file"`
	ContentRoot   string            `mapstructure:"content_root"`
	AgentsRoot    string            `mapstructure:"agents_root"`
	Flat          *bool             `mapstructure:"flat"`
	Alias         string            `mapstructure:"alias"`
	RefPrefix     string            `mapstructure:"ref_prefix"`
	SkipWorkflows []string          `mapstructure:"skip_workflows"`
	Workarounds   map[string]string `mapstructure:"workarounds"`
	Planned       []string          `mapstructure:"planned_workflows"`
}

// Options are command-line values that take precedence over the config file
type Options struct {
	ConfigFile string
	Root       string
	Verbose    bool
}

// Load reads defaults, the optional config file and BMADSYNC_* environment
// variables, then applies opts.
func Load(opts Options) (*Config, error) {
	v := viper.New()

	v.SetDefault("root", "")
	v.SetDefault("upstream_dir", DefaultUpstreamDir)
	v.SetDefault("plugin_dir", DefaultPluginDir)
	v.SetDefault("verbose", false)
	v.SetDefault("rewrite.marker", "{project-root}/_bmad/")
	v.SetDefault("rewrite.plugin_root", "${CLAUDE_PLUGIN_ROOT}")
	v.SetDefault("rewrite.config_target", ".claude/bmad.local.md")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
	} else {
		v.SetConfigName(ConfigName)
		v.SetConfigType("yaml")
		if root := opts.Root; root != "" {
			v.AddConfigPath(root)
		} else if root := findProjectRoot(); root != "" {
			v.AddConfigPath(root)
		}
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	if opts.Root != "" {
		v.Set("root", opts.Root)
	}
	if opts.Verbose {
		v.Set("verbose", true)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.File = v.ConfigFileUsed()

	if cfg.Root == "" {
		if cfg.File != "" {
			cfg.Root = filepath.Dir(cfg.File)
		} else if root := findProjectRoot(); root != "" {
			cfg.Root = root
		} else {
			cfg.Root = "."
		}
	}
	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("resolving root: %w", err)
	}
	cfg.Root = root

	return &cfg, nil
}

// Layout returns the resolved project paths.
func (c *Config) Layout() Layout {
	return NewLayout(c.Root, c.UpstreamDir, c.PluginDir)
}

// Registry returns the built-in registry with the configured source overrides
// applied, validated.
func (c *Config) Registry() (*source.Registry, error) {
	reg := source.Default()
	for _, sc := range c.Sources {
		if sc.ID == "" {
			return nil, fmt.Errorf("source override without id")
		}
		d, _ := reg.Get(sc.ID)
		reg = reg.With(sc.apply(d))
	}
	if err := reg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid source registry: %w", err)
	}
	return reg, nil
}

func (sc SourceConfig) apply(d source.Descriptor) source.Descriptor {
	d.ID = sc.ID
	if sc.Enabled != nil {
		d.Enabled = *sc.Enabled
	}
	if sc.Flat != nil {
		d.Flat = *sc.Flat
	}
	if sc.Repo != "" {
		d.Repo = sc.Repo
	}
	if sc.LocalPath != "" {
		d.LocalPath = sc.LocalPath
	}
	if sc.VersionFile != "" {
		d.VersionFile = sc.VersionFile
	}
	if sc.ContentRoot != "" {
		d.ContentRoot = sc.ContentRoot
	}
	if sc.AgentsRoot != "" {
		d.AgentsRoot = sc.AgentsRoot
	}
	if sc.Alias != "" {
		d.Alias = sc.Alias
	}
	if sc.RefPrefix != "" {
		d.RefPrefix = sc.RefPrefix
	}
	if len(sc.SkipWorkflows) > 0 {
		d.SkipWorkflows = append(append([]string{}, d.SkipWorkflows...), sc.SkipWorkflows...)
	}
	if len(sc.Planned) > 0 {
		d.PlannedWorkflows = append(append([]string{}, d.PlannedWorkflows...), sc.Planned...)
	}
	if len(sc.Workarounds) > 0 {
		merged := make(map[string]string, len(d.Workarounds)+len(sc.Workarounds))
		for k, v := range d.Workarounds {
			merged[k] = v
		}
		for k, v := range sc.Workarounds {
			merged[k] = v
		}
		d.Workarounds = merged
	}
	return d
}

// findProjectRoot walks up from the working directory looking for a config
// file or a .git directory
func findProjectRoot() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	dir := cwd
	for {
		for _, ext := range []string{".yaml", ".yml"} {
			if _, err := os.Stat(filepath.Join(dir, ConfigName+ext)); err == nil {
				return dir
			}
		}

		// Also check for .git to stop at repo root
		if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break // reached filesystem root
		}
		dir = parent
	}

	return ""
}

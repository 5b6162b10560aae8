package cmd

import (
	"os"
	"sort"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"

	"github.com/bmad-plugin/bmadsync/internal/config"
	"github.com/bmad-plugin/bmadsync/internal/rewrite"
	"github.com/bmad-plugin/bmadsync/internal/source"
	"github.com/bmad-plugin/bmadsync/internal/workflow"
)

// app is the per-invocation state shared by every command
type app struct {
	cfg      *config.Config
	fs       afero.Fs
	registry *source.Registry
	layout   config.Layout
	logger   *log.Logger
}

// setup loads configuration from flags, file and environment.
func setup() (*app, error) {
	cfg, err := config.Load(config.Options{
		ConfigFile: flagConfig,
		Root:       flagRoot,
		Verbose:    flagVerbose,
	})
	if err != nil {
		return nil, err
	}

	logger := log.NewWithOptions(os.Stderr, log.Options{
		Prefix: "bmadsync",
	})
	if cfg.Verbose {
		logger.SetLevel(log.DebugLevel)
	}
	if cfg.File != "" {
		logger.Debug("loaded config", "file", cfg.File)
	}

	reg, err := cfg.Registry()
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:      cfg,
		fs:       afero.NewOsFs(),
		registry: reg,
		layout:   cfg.Layout(),
		logger:   logger,
	}, nil
}

// mustSetup is setup for commands that cannot continue without it.
func mustSetup() *app {
	a, err := setup()
	if err != nil {
		exitWithError(err.Error())
	}
	return a
}

// rewriter builds the workflow map over every enabled source and returns a
// rewriter using the configured tokens.
func (a *app) rewriter() (*rewrite.Rewriter, error) {
	m, err := workflow.BuildMap(a.fs, a.registry, a.layout, a.logger)
	if err != nil {
		return nil, err
	}
	a.logger.Debug("built workflow map", "aliases", m.Aliases(), "workflows", m.Len())

	opts := rewrite.DefaultOptions()
	opts.Marker = a.cfg.Rewrite.Marker
	opts.PluginRoot = a.cfg.Rewrite.PluginRoot
	opts.ConfigTarget = a.cfg.Rewrite.ConfigTarget
	opts.DirectAliases = directAliases(a.registry)
	return rewrite.New(m, opts), nil
}

// directAliases are the special-root aliases of the enabled sources.
func directAliases(reg *source.Registry) []string {
	aliases := []string{}
	for _, d := range reg.Enabled() {
		for alias := range d.SpecialRoots {
			aliases = append(aliases, alias)
		}
	}
	sort.Strings(aliases)
	return aliases
}

package cmd

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bmad-plugin/bmadsync/internal/check"
	"github.com/bmad-plugin/bmadsync/internal/ghclient"
	"github.com/bmad-plugin/bmadsync/internal/gitsource"
	"github.com/bmad-plugin/bmadsync/internal/ui"
	"github.com/bmad-plugin/bmadsync/internal/watch"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the plugin tree against upstream",
	Long: `Validate compares the plugin with its upstream sources without changing it.

Checks: versions, workflows, agents, agent-skills, naming, content, shared,
paths.
Failures make the command exit non-zero; warnings do not. Use --verbose to
see passing checks and drift excerpts.`,
	Run: runValidate,
}

var (
	validateOnly     []string
	validateCheckout bool
	validateWatch    bool
)

func init() {
	validateCmd.Flags().StringSliceVar(&validateOnly, "only", nil, "Run only these checks (comma-separated)")
	validateCmd.Flags().BoolVar(&validateCheckout, "checkout", false, "First check out each source's tracked tag (checkouts with local changes are left alone)")
	validateCmd.Flags().BoolVarP(&validateWatch, "watch", "w", false, "Re-validate when upstream or plugin files change")
}

// selectChecks filters the standard checks by name.
func selectChecks(only []string) ([]check.Check, error) {
	all := check.Checks()
	if len(only) == 0 {
		return all, nil
	}
	var names []string
	var selected []check.Check
	for _, c := range all {
		names = append(names, c.Name)
		if slices.Contains(only, c.Name) {
			selected = append(selected, c)
		}
	}
	for _, name := range only {
		if !slices.Contains(names, name) {
			return nil, fmt.Errorf("unknown check: %s (known: %s)", name, strings.Join(names, ", "))
		}
	}
	return selected, nil
}

func runValidate(cmd *cobra.Command, args []string) {
	a := mustSetup()
	ctx, cancel := signalContext()
	defer cancel()

	checks, err := selectChecks(validateOnly)
	if err != nil {
		exitWithError(err.Error())
	}
	if validateCheckout {
		git := gitsource.New(ghclient.Token(), a.logger)
		checks = append([]check.Check{{Name: "checkout", Title: "Checkout", Run: check.Checkout(git)}}, checks...)
	}

	failed, err := validateOnce(ctx, a, checks)
	if err != nil {
		exitWithError(err.Error())
	}

	if !validateWatch {
		if failed {
			os.Exit(1)
		}
		return
	}

	w, err := watch.New(watch.Config{
		Roots:  []string{a.layout.UpstreamDir, a.layout.PluginDir},
		Logger: a.logger,
		OnChange: func(ctx context.Context, changed []string) error {
			a.logger.Info("files changed, re-validating", "count", len(changed))
			_, err := validateOnce(ctx, a, checks)
			return err
		},
	})
	if err != nil {
		exitWithError(err.Error())
	}
	fmt.Println(ui.InfoLine(ui.RenderMuted("watching for changes, press Ctrl+C to stop")))
	if err := w.Run(ctx); err != nil {
		exitWithError(err.Error())
	}
}

// validateOnce runs checks with a fresh reporter and prints the summary. It
// reports whether any check failed.
func validateOnce(ctx context.Context, a *app, checks []check.Check) (bool, error) {
	rw, err := a.rewriter()
	if err != nil {
		return false, err
	}
	r := ui.NewReporter(os.Stdout, a.cfg.Verbose)
	env := &check.Env{
		Fs:       a.fs,
		Registry: a.registry,
		Layout:   a.layout,
		Rewriter: rw,
		Reporter: r,
		Logger:   a.logger,
	}

	fmt.Println(ui.PageHeader("Validating " + ui.RenderCode(a.layout.PluginDir)))
	if err := check.Run(ctx, env, checks); err != nil {
		return false, err
	}
	r.Summary()
	fmt.Print(ui.PageFooter())
	return r.Failed(), nil
}

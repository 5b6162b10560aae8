package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bmad-plugin/bmadsync/internal/check"
	"github.com/bmad-plugin/bmadsync/internal/ghclient"
	"github.com/bmad-plugin/bmadsync/internal/gitsource"
	"github.com/bmad-plugin/bmadsync/internal/source"
	"github.com/bmad-plugin/bmadsync/internal/ui"
)

var checkoutCmd = &cobra.Command{
	Use:   "checkout [source...]",
	Short: "Clone missing sources and check out their tracked tags",
	Long: `Checkout clones every enabled source that has no local checkout yet, fetches
tags, and moves each checkout to the tag recorded in its version file.

With --tag the given tag is checked out instead and nothing else changes.`,
	Run: runCheckout,
}

var (
	checkoutTag     string
	checkoutNoFetch bool
)

func init() {
	checkoutCmd.Flags().StringVar(&checkoutTag, "tag", "", "Check out this tag instead of the tracked one")
	checkoutCmd.Flags().BoolVar(&checkoutNoFetch, "no-fetch", false, "Use local tags only")
}

func runCheckout(cmd *cobra.Command, args []string) {
	a := mustSetup()
	ctx, cancel := signalContext()
	defer cancel()

	sources := a.registry.Enabled()
	if len(args) > 0 {
		sources = nil
		for _, id := range args {
			d, ok := a.registry.Get(id)
			if !ok {
				exitWithError("unknown source: " + id)
			}
			sources = append(sources, d)
		}
	}

	git := gitsource.New(ghclient.Token(), a.logger)
	fmt.Println(ui.PageHeader("Checking out sources"))

	failed := 0
	for _, d := range sources {
		if err := checkoutSource(ctx, a, git, d); err != nil {
			if ctx.Err() != nil {
				exitWithError(err.Error())
			}
			if errors.Is(err, gitsource.ErrLocalChanges) {
				fmt.Println(ui.WarningLine(d.ID + ": " + err.Error() + ", commit or stash them first"))
				continue
			}
			fmt.Println(ui.ErrorLine(d.ID + ": " + err.Error()))
			failed++
		}
	}
	fmt.Print(ui.PageFooter())
	if failed > 0 {
		exitWithError(fmt.Sprintf("%d sources failed", failed))
	}
}

func checkoutSource(ctx context.Context, a *app, git *gitsource.Provider, d source.Descriptor) error {
	dir := a.layout.SourceDir(d)

	if !git.IsRepository(dir) {
		repo, err := source.ParseRepo(d.Repo)
		if err != nil {
			return err
		}
		if err := git.Clone(ctx, repo.CloneURL(), dir); err != nil {
			return err
		}
	} else if !checkoutNoFetch {
		if err := git.FetchTags(ctx, dir); err != nil {
			a.logger.Warn("fetching tags failed, using local tags", "source", d.ID, "err", err)
		}
	}

	tag := checkoutTag
	if tag == "" {
		tracked, err := check.ReadTrackedTag(a.fs, a.layout.VersionFile(d))
		if err != nil || tracked == "" {
			fmt.Println(ui.WarningLine(d.ID + ": no tracked tag, leaving checkout as is"))
			return nil
		}
		tag = tracked
	}

	resolved, err := git.CheckoutTag(ctx, dir, tag)
	if err != nil {
		return err
	}
	fmt.Println(ui.SuccessLine(ui.RenderHighlight(d.ID) + " at " + ui.RenderCode(resolved)))
	return nil
}

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/bmad-plugin/bmadsync/internal/contentsync"
	"github.com/bmad-plugin/bmadsync/internal/ui"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Copy upstream workflow content into plugin skills",
	Long: `Sync copies every upstream workflow of the enabled sources into the plugin
skill tree, rewriting project-root references into plugin-root references.

Shared category files are distributed to the plugin _shared directory and to
each target skill's data directory. Sources that are not checked out are
skipped.`,
	Run: runSync,
}

var (
	syncSource string
	syncDry    bool
)

func init() {
	syncCmd.Flags().StringVarP(&syncSource, "source", "s", "", "Sync only this source id")
	syncCmd.Flags().BoolVar(&syncDry, "dry-run", false, "Report what would change without writing")
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func runSync(cmd *cobra.Command, args []string) {
	a := mustSetup()
	ctx, cancel := signalContext()
	defer cancel()

	rw, err := a.rewriter()
	if err != nil {
		exitWithError(err.Error())
	}

	s := &contentsync.Syncer{
		Fs:       a.fs,
		Registry: a.registry,
		Layout:   a.layout,
		Rewriter: rw,
		DryRun:   syncDry,
		Logger:   a.logger,
	}

	title := "Syncing upstream content"
	if syncDry {
		title += " " + ui.StatusDryRun()
	}
	fmt.Println(ui.PageHeader(title))

	var st contentsync.Stats
	if syncSource != "" {
		st, err = s.SyncSource(ctx, syncSource)
	} else {
		st, err = s.SyncAll(ctx)
	}
	if err != nil {
		exitWithError(err.Error())
	}

	printSyncStats(st, a.cfg.Verbose)
	fmt.Print(ui.PageFooter())
}

func printSyncStats(st contentsync.Stats, verbose bool) {
	for _, id := range st.Sources {
		fmt.Println(ui.SuccessLine("synced " + ui.RenderHighlight(id)))
	}
	for _, id := range st.Skipped {
		fmt.Println(ui.InfoLine(ui.RenderMuted(id + " not available, skipped")))
	}

	written := st.Written()
	if verbose {
		fmt.Println()
		for _, fa := range written {
			badge := ui.StatusUpdate()
			if fa.Action == contentsync.ActionPlanned {
				badge = ui.StatusDryRun()
			}
			fmt.Printf("  %s %s\n", badge, ui.RenderCode(fa.Path))
		}
	}

	if len(st.Warnings) > 0 {
		fmt.Println()
		fmt.Println(ui.SectionHeader("Unresolved references"))
		for _, w := range st.Warnings {
			fmt.Println(ui.WarningLine(w))
		}
	}

	fmt.Println()
	verb := "written"
	if len(written) > 0 && written[0].Action == contentsync.ActionPlanned {
		verb = "would be written"
	}
	fmt.Println(ui.TableRow(
		ui.Pad("files", 14), fmt.Sprintf("%d (%d %s)", st.Files+st.SharedFiles, len(written), verb),
	))
	fmt.Println(ui.TableRow(
		ui.Pad("shared copies", 14), fmt.Sprintf("%d", st.SharedFiles),
	))
	fmt.Println(ui.TableRow(
		ui.Pad("rewrites", 14), fmt.Sprintf("%d in %d files", st.Rewrites, st.RewrittenFiles),
	))
	fmt.Println(ui.TableRow(
		ui.Pad("warnings", 14), fmt.Sprintf("%d", len(st.Warnings)),
	))
}

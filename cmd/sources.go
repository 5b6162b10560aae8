package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bmad-plugin/bmadsync/internal/check"
	"github.com/bmad-plugin/bmadsync/internal/fsutil"
	"github.com/bmad-plugin/bmadsync/internal/source"
	"github.com/bmad-plugin/bmadsync/internal/ui"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List the configured upstream sources",
	Run:   runSources,
}

func runSources(cmd *cobra.Command, args []string) {
	a := mustSetup()

	fmt.Println(ui.PageHeader("Sources"))
	fmt.Println("  " + ui.TableHeader(
		ui.Pad("ID", 6), ui.Pad("STATUS", 14), ui.Pad("TAG", 16), ui.Pad("ALIAS", 6), "REPO",
	))
	for _, d := range a.registry.All() {
		alias, _ := source.ModuleAlias(d)

		tag, err := check.ReadTrackedTag(a.fs, a.layout.VersionFile(d))
		if err != nil || tag == "" {
			tag = "-"
		}

		var status string
		switch {
		case !d.Enabled:
			status = ui.RenderMuted("disabled")
		case !fsutil.IsDir(a.fs, a.layout.SourceDir(d)):
			status = ui.RenderWarning("not checked out")
		default:
			status = ui.RenderSuccess("ready")
		}

		fmt.Println("  " + ui.TableRow(
			ui.Pad(ui.RenderHighlight(d.ID), 6), ui.Pad(status, 14), ui.Pad(tag, 16), ui.Pad(alias, 6), d.Repo,
		))
		if a.cfg.Verbose {
			fmt.Printf("    %s\n", ui.RenderMuted(d.DisplayName()+" · "+a.layout.ContentRoot(d)))
		}
	}
	fmt.Print(ui.PageFooter())
}

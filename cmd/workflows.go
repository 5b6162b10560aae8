package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/bmad-plugin/bmadsync/internal/artifact"
	"github.com/bmad-plugin/bmadsync/internal/schema"
	"github.com/bmad-plugin/bmadsync/internal/source"
	"github.com/bmad-plugin/bmadsync/internal/ui"
	"github.com/bmad-plugin/bmadsync/internal/workflow"
)

var workflowsCmd = &cobra.Command{
	Use:   "workflows [source]",
	Short: "List discovered upstream workflows and their skill names",
	Args:  cobra.MaximumNArgs(1),
	Run:   runWorkflows,
}

func runWorkflows(cmd *cobra.Command, args []string) {
	a := mustSetup()

	sources := a.registry.Enabled()
	if len(args) == 1 {
		d, ok := a.registry.Get(args[0])
		if !ok {
			exitWithError("unknown source: " + args[0])
		}
		sources = []source.Descriptor{d}
	}

	fmt.Println(ui.PageHeader("Workflows"))
	for _, d := range sources {
		if !workflow.Available(a.fs, a.layout, d, a.logger) {
			continue
		}
		entries, err := workflow.DiscoverSource(a.fs, a.layout, d, a.logger)
		if err != nil {
			exitWithError(err.Error())
		}

		fmt.Println(ui.SectionHeader(fmt.Sprintf("%s (%d)", d.ID, len(entries))))
		for _, e := range entries {
			name := ui.RenderHighlight(e.SkillName)
			if e.Remapped() {
				name += ui.RenderMuted(" ← " + e.DirName)
			}
			fmt.Println("  " + name)
			if desc := describe(a.fs, e.UpstreamDir); desc != "" {
				fmt.Printf("    %s\n", ui.RenderMuted(desc))
			}
		}
		fmt.Println()
	}
	fmt.Print(ui.PageFooter())
}

// describe returns the description of the workflow definition in dir.
func describe(fs afero.Fs, dir string) string {
	for _, marker := range artifact.LeafMarkers {
		data, err := afero.ReadFile(fs, filepath.Join(dir, marker))
		if err != nil {
			continue
		}
		def, err := schema.ParseWorkflowDefinition(marker, data)
		if err != nil {
			return ""
		}
		return def.Description
	}
	return ""
}

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bmad-plugin/bmadsync/internal/ui"
)

var (
	// Version is set at build time
	Version = "dev"
)

var (
	flagConfig  string
	flagRoot    string
	flagVerbose bool
)

var rootCmd = &cobra.Command{
	Use:   "bmadsync",
	Short: "Sync BMAD upstream workflows into a Claude Code plugin",
	Long: `bmadsync keeps a plugin skill tree in step with its upstream BMAD sources.

  It copies workflow content into skills, rewrites project-root references
  into plugin-root references, and validates the result against upstream.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// Execute runs the root command
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, ui.Render(ui.Error, "Error: "+err.Error()))
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (default: bmadsync.yaml in the project root)")
	rootCmd.PersistentFlags().StringVar(&flagRoot, "root", "", "project root (default: nearest directory with bmadsync.yaml or .git)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "show passing checks and debug logs")

	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(rewriteCmd)
	rootCmd.AddCommand(sourcesCmd)
	rootCmd.AddCommand(workflowsCmd)
	rootCmd.AddCommand(checkoutCmd)
	rootCmd.AddCommand(outdatedCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("bmadsync %s\n", Version)
	},
}

// exitWithError prints an error and exits
func exitWithError(msg string) {
	fmt.Fprintln(os.Stderr, ui.Render(ui.Error, "Error: "+msg))
	os.Exit(1)
}

package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/bmad-plugin/bmadsync/internal/ui"
)

var rewriteCmd = &cobra.Command{
	Use:   "rewrite <file>",
	Short: "Preview reference rewriting for one file",
	Long: `Rewrite runs the path rewriter over a file, or stdin when the file is "-",
and shows each substitution. Nothing is written unless --output is given.`,
	Args: cobra.ExactArgs(1),
	Run:  runRewrite,
}

var (
	rewriteOutput string
	rewriteDiff   bool
)

func init() {
	rewriteCmd.Flags().StringVarP(&rewriteOutput, "output", "o", "", "Write the rewritten content to this file (- for stdout)")
	rewriteCmd.Flags().BoolVar(&rewriteDiff, "diff", false, "Show the rewritten content with changes marked inline")
}

func runRewrite(cmd *cobra.Command, args []string) {
	a := mustSetup()

	var (
		data []byte
		err  error
	)
	if args[0] == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(args[0])
	}
	if err != nil {
		exitWithError(err.Error())
	}

	rw, err := a.rewriter()
	if err != nil {
		exitWithError(err.Error())
	}
	res := rw.Rewrite(string(data))

	switch rewriteOutput {
	case "":
	case "-":
		fmt.Print(res.Content)
		return
	default:
		if err := os.WriteFile(rewriteOutput, []byte(res.Content), 0o644); err != nil {
			exitWithError(err.Error())
		}
	}

	fmt.Println(ui.PageHeader("Rewriting " + ui.RenderCode(args[0])))
	for _, c := range res.Rewrites {
		fmt.Printf("  %s %s\n", ui.StatusUpdate(), ui.RenderMuted(c.Kind.String()))
		fmt.Printf("    %s\n", ui.Render(ui.Deleted, c.From))
		fmt.Printf("    %s\n", ui.Render(ui.Inserted, c.To))
	}
	for _, w := range res.Warnings {
		fmt.Println(ui.WarningLine(w))
	}
	if rewriteDiff && res.Changes > 0 {
		fmt.Println()
		fmt.Println(ui.InlineDiff(string(data), res.Content))
	}
	fmt.Println()
	fmt.Println(ui.TableRow(ui.Pad("rewrites", 10), fmt.Sprintf("%d", res.Changes)))
	fmt.Println(ui.TableRow(ui.Pad("warnings", 10), fmt.Sprintf("%d", len(res.Warnings))))
	fmt.Print(ui.PageFooter())
}

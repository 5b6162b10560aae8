package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/mod/semver"

	"github.com/bmad-plugin/bmadsync/internal/check"
	"github.com/bmad-plugin/bmadsync/internal/ghclient"
	"github.com/bmad-plugin/bmadsync/internal/gitsource"
	"github.com/bmad-plugin/bmadsync/internal/source"
	"github.com/bmad-plugin/bmadsync/internal/ui"
)

var outdatedCmd = &cobra.Command{
	Use:   "outdated",
	Short: "Compare tracked tags with the latest upstream releases",
	Run:   runOutdated,
}

// upstreamStatus is one row of the outdated table.
type upstreamStatus struct {
	ID      string
	Current string
	Latest  string
	Package string
	Err     error
}

// Behind reports whether a newer release than the tracked tag exists.
func (s upstreamStatus) Behind() bool {
	if s.Current == "" || s.Latest == "" {
		return false
	}
	return semver.Compare(gitsource.Canonical(s.Current), gitsource.Canonical(s.Latest)) < 0
}

func runOutdated(cmd *cobra.Command, args []string) {
	a := mustSetup()
	ctx, cancel := signalContext()
	defer cancel()

	gh := ghclient.New()
	if !gh.IsAuthenticated() {
		a.logger.Debug("no GitHub token found, requests are rate limited")
	}

	fmt.Println(ui.PageHeader("Upstream releases"))
	fmt.Println("  " + ui.TableHeader(
		ui.Pad("ID", 6), ui.Pad("CURRENT", 16), ui.Pad("LATEST", 16), "STATUS",
	))

	behind := 0
	for _, d := range a.registry.Enabled() {
		st := outdatedStatus(ctx, a, gh, d)
		var status string
		switch {
		case st.Err != nil:
			status = ui.RenderError(st.Err.Error())
		case st.Latest == "":
			status = ui.RenderMuted("no releases")
		case st.Behind():
			status = ui.RenderWarning("update available")
			behind++
		default:
			status = ui.RenderSuccess("up to date")
		}
		fmt.Println("  " + ui.TableRow(
			ui.Pad(ui.RenderHighlight(st.ID), 6), ui.Pad(orDash(st.Current), 16), ui.Pad(orDash(st.Latest), 16), status,
		))
		if st.Package != "" && a.cfg.Verbose {
			fmt.Printf("    %s\n", ui.RenderMuted("package.json at "+st.Latest+": "+st.Package))
		}
	}
	fmt.Println()
	if behind > 0 {
		fmt.Println(ui.WarningLine(fmt.Sprintf("%d sources behind upstream", behind)))
	} else {
		fmt.Println(ui.SuccessLine("All sources up to date"))
	}
	fmt.Print(ui.PageFooter())
}

func outdatedStatus(ctx context.Context, a *app, gh *ghclient.Client, d source.Descriptor) upstreamStatus {
	st := upstreamStatus{ID: d.ID}
	if tag, err := check.ReadTrackedTag(a.fs, a.layout.VersionFile(d)); err == nil {
		st.Current = tag
	}

	repo, err := source.ParseRepo(d.Repo)
	if err != nil {
		st.Err = err
		return st
	}
	st.Latest, st.Err = gh.LatestTag(ctx, repo.Owner, repo.Name)
	if st.Err != nil || st.Latest == "" || !a.cfg.Verbose {
		return st
	}
	if v, err := gh.PackageVersion(ctx, repo.Owner, repo.Name, st.Latest); err == nil {
		st.Package = v
	} else {
		a.logger.Debug("reading package.json failed", "source", d.ID, "err", err)
	}
	return st
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

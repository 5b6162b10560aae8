package check

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/spf13/afero"
	"golang.org/x/mod/semver"

	"github.com/bmad-plugin/bmadsync/internal/artifact"
	"github.com/bmad-plugin/bmadsync/internal/fsutil"
	"github.com/bmad-plugin/bmadsync/internal/gitsource"
	"github.com/bmad-plugin/bmadsync/internal/source"
)

// ReadTrackedTag returns the trimmed content of a source's version file.
func ReadTrackedTag(fsys afero.Fs, p string) (string, error) {
	data, err := afero.ReadFile(fsys, p)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

func packageVersion(fsys afero.Fs, p string) (string, error) {
	data, err := afero.ReadFile(fsys, p)
	if err != nil {
		return "", err
	}
	var pkg struct {
		Version string `json:"version"`
	}
	if err := json.Unmarshal(data, &pkg); err != nil {
		return "", fmt.Errorf("parsing %s: %w", p, err)
	}
	return pkg.Version, nil
}

// Version checks the tracked tag of every enabled source. Core's tag must
// match the upstream package.json version and prefix .plugin-version.
func Version(ctx context.Context, env *Env) error {
	r := env.Reporter
	for _, d := range env.Registry.Enabled() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.VersionFile == "" {
			continue
		}
		tag, err := ReadTrackedTag(env.Fs, env.Layout.VersionFile(d))
		if fsutil.IsNotExist(err) {
			r.Fail("Missing version file: %s", d.VersionFile)
			continue
		}
		if err != nil {
			return err
		}

		if d.ID != source.CoreID {
			switch {
			case tag == "":
				r.Warn("%s is empty", d.VersionFile)
			case !semver.IsValid(gitsource.Canonical(tag)):
				r.Warn("%s: %q is not a semantic version tag", d.VersionFile, tag)
			default:
				r.Pass("%s tracks %s", d.ID, tag)
			}
			continue
		}

		if err := checkCore(env, d, tag); err != nil {
			return err
		}
	}
	return nil
}

func checkCore(env *Env, d source.Descriptor, tag string) error {
	r := env.Reporter
	if tag == "" {
		r.Fail("%s is empty", d.VersionFile)
		return nil
	}

	version, err := packageVersion(env.Fs, env.Layout.PackageJSON(d))
	switch {
	case fsutil.IsNotExist(err):
		r.Info("%s not checked out, skipping package.json comparison", d.ID)
	case err != nil:
		return err
	case "v"+version == tag:
		r.Pass("%s matches package.json (%s)", d.VersionFile, version)
	default:
		r.Fail("%s is %s but package.json says %s", d.VersionFile, tag, version)
	}

	pluginVersion, err := ReadTrackedTag(env.Fs, env.Layout.PluginVersionFile())
	if fsutil.IsNotExist(err) {
		r.Fail("Missing %s", artifact.PluginVersionFile)
		return nil
	}
	if err != nil {
		return err
	}
	if regexp.MustCompile(`^` + regexp.QuoteMeta(tag) + `\.\d+$`).MatchString(pluginVersion) {
		r.Pass("%s is %s", artifact.PluginVersionFile, pluginVersion)
	} else {
		r.Fail("%s is %q, want %s.<n>", artifact.PluginVersionFile, pluginVersion, tag)
	}
	return nil
}

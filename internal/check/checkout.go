package check

import (
	"context"
	"errors"

	"github.com/bmad-plugin/bmadsync/internal/fsutil"
	"github.com/bmad-plugin/bmadsync/internal/gitsource"
)

// TagCheckouter moves a source checkout to a tag. gitsource.Provider
// implements it.
type TagCheckouter interface {
	IsRepository(dir string) bool
	FetchTags(ctx context.Context, dir string) error
	// CheckoutTag checks out tag, or tag without its "v" prefix, and
	// returns the name that resolved. It fails with gitsource.ErrTagNotFound
	// when neither exists and with gitsource.ErrLocalChanges when the
	// checkout has modified tracked files.
	CheckoutTag(ctx context.Context, dir, tag string) (string, error)
}

// Checkout returns a check that puts every enabled source checkout on its
// tracked tag. Unlike the other checks it modifies the upstream checkouts.
func Checkout(git TagCheckouter) func(ctx context.Context, env *Env) error {
	return func(ctx context.Context, env *Env) error {
		r := env.Reporter
		for _, d := range env.Registry.Enabled() {
			dir := env.Layout.SourceDir(d)
			if !git.IsRepository(dir) {
				r.Fail("%s: no git checkout at %s", d.ID, dir)
				continue
			}

			tag, err := ReadTrackedTag(env.Fs, env.Layout.VersionFile(d))
			if err != nil && !fsutil.IsNotExist(err) {
				return err
			}
			if tag == "" {
				r.Warn("%s: no tracked tag to check out", d.ID)
				continue
			}

			if err := git.FetchTags(ctx, dir); err != nil {
				env.logger().Debug("fetching tags failed, using local tags", "source", d.ID, "err", err)
			}

			resolved, err := git.CheckoutTag(ctx, dir, tag)
			switch {
			case err == nil:
				r.Pass("%s at %s", d.ID, resolved)
			case ctx.Err() != nil:
				return ctx.Err()
			case errors.Is(err, gitsource.ErrTagNotFound):
				r.Warn("%s: tag missing: %s", d.ID, tag)
			case errors.Is(err, gitsource.ErrLocalChanges):
				r.Warn("%s: not checked out to %s, %v", d.ID, tag, err)
			default:
				r.Fail("%s: checkout of %s failed: %v", d.ID, tag, err)
			}
		}
		return nil
	}
}

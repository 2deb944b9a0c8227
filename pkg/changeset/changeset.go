// Package changeset resolves which paths a source pull request touched. The
// result partitions paths into modified (added or changed) and removed, the
// two classes the sync engine treats differently.
package changeset

import (
	"context"

	"github.com/chainguard-dev/clog"

	"github.com/mirrorsync/mirrorsync/pkg/github"
)

// ChangeSet holds the paths attributed to one source pull request. The two
// slices are disjoint; rename origins land in Removed and rename destinations
// in Modified.
type ChangeSet struct {
	Modified []string
	Removed  []string
}

// IsEmpty reports whether the pull request touched no paths.
func (cs ChangeSet) IsEmpty() bool {
	return len(cs.Modified) == 0 && len(cs.Removed) == 0
}

// Len returns the total number of paths.
func (cs ChangeSet) Len() int {
	return len(cs.Modified) + len(cs.Removed)
}

// FileLister is the slice of the hosting client needed to resolve a
// change-set. *github.Client satisfies it.
type FileLister interface {
	ListPullRequestFiles(ctx context.Context, ref github.RepoRef, number int) ([]github.PullRequestFile, error)
}

// Resolve queries the hosting platform for the pull request's file list and
// partitions it by status. A failed query or an empty file list yields an
// empty ChangeSet, never an error: callers treat empty as nothing to do.
func Resolve(ctx context.Context, lister FileLister, ref github.RepoRef, number int) ChangeSet {
	log := clog.FromContext(ctx)

	files, err := lister.ListPullRequestFiles(ctx, ref, number)
	if err != nil {
		log.Warnf("failed to list files for %s#%d, treating as empty change-set: %v", ref, number, err)
		return ChangeSet{}
	}
	if len(files) == 0 {
		log.Infof("no files changed in %s#%d", ref, number)
		return ChangeSet{}
	}

	var cs ChangeSet
	for _, f := range files {
		switch f.Status {
		case github.FileStatusRemoved:
			cs.Removed = append(cs.Removed, f.Path)
		case github.FileStatusRenamed:
			// A rename deletes the origin and writes the destination.
			if f.PreviousPath != "" {
				cs.Removed = append(cs.Removed, f.PreviousPath)
			}
			cs.Modified = append(cs.Modified, f.Path)
		default:
			cs.Modified = append(cs.Modified, f.Path)
		}
	}
	return cs
}

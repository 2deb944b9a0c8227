package sync

import (
	"context"
	"fmt"

	"github.com/chainguard-dev/clog"

	"github.com/mirrorsync/mirrorsync/pkg/github"
	"github.com/mirrorsync/mirrorsync/pkg/gitrepo"
)

// RemoteBranchDeleter removes a branch on the hosting side. During reset
// reconciliation deletion is best-effort.
type RemoteBranchDeleter interface {
	DeleteBranchRef(ctx context.Context, ref github.RepoRef, branch string) error
}

// BranchRepo is the slice of the mirror clone the reconciler drives.
// *gitrepo.Repo satisfies it.
type BranchRepo interface {
	DefaultBranch() string
	RemoteBranchExists(remote, name string) bool
	CheckoutTracking(name string) error
	FastForward(ctx context.Context, branch string) error
	LocalBranchExists(name string) bool
	DeleteLocalBranch(name string) error
	CreateBranchAt(name, rev string) error
}

// ReconcileBranch leaves the clone checked out on branch, positioned
// according to policy:
//
//   - continue: an existing remote branch is checked out tracking origin and
//     fast-forwarded; otherwise the branch is created fresh from the
//     mirror's default branch head.
//   - reset: an existing branch is deleted remotely (best-effort) and
//     locally, then recreated fresh from the default branch head.
//
// Branch creation failure is fatal. Remote and local deletion failures are
// not; creation re-points the local ref either way.
func ReconcileBranch(ctx context.Context, repo BranchRepo, deleter RemoteBranchDeleter, mirror github.RepoRef, branch string, policy Policy) error {
	log := clog.FromContext(ctx)
	base := gitrepo.OriginRemote + "/" + repo.DefaultBranch()

	exists := repo.RemoteBranchExists(gitrepo.OriginRemote, branch)

	switch policy {
	case PolicyContinue:
		if exists {
			log.Infof("continuing existing branch %s", branch)
			if err := repo.CheckoutTracking(branch); err != nil {
				return fmt.Errorf("failed to check out branch %s: %w", branch, err)
			}
			if err := repo.FastForward(ctx, branch); err != nil {
				return fmt.Errorf("failed to fast-forward branch %s: %w", branch, err)
			}
			return nil
		}
	case PolicyReset:
		if exists {
			log.Infof("resetting branch %s from %s", branch, base)
			if err := deleter.DeleteBranchRef(ctx, mirror, branch); err != nil {
				log.Warnf("failed to delete remote branch %s, recreating over it: %v", branch, err)
			}
		}
		if repo.LocalBranchExists(branch) {
			if err := repo.DeleteLocalBranch(branch); err != nil {
				log.Warnf("failed to delete local branch %s, recreating over it: %v", branch, err)
			}
		}
	default:
		return fmt.Errorf("unknown branch policy %q", policy)
	}

	log.Infof("creating branch %s from %s", branch, base)
	if err := repo.CreateBranchAt(branch, base); err != nil {
		return fmt.Errorf("failed to create branch %s: %w", branch, err)
	}
	return nil
}

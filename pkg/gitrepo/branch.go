package gitrepo

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// CurrentBranch returns the branch HEAD points at.
func (r *Repo) CurrentBranch() (string, error) {
	head, err := r.repo.Head()
	if err != nil {
		return "", fmt.Errorf("failed to resolve HEAD: %w", err)
	}
	if !head.Name().IsBranch() {
		return "", fmt.Errorf("HEAD is not on a branch")
	}
	return head.Name().Short(), nil
}

// LocalBranchExists reports whether a local branch ref exists.
func (r *Repo) LocalBranchExists(name string) bool {
	_, err := r.repo.Reference(plumbing.NewBranchReferenceName(name), true)
	return err == nil
}

// RemoteBranchExists reports whether the clone has a remote-tracking ref for
// the branch on the named remote. Tracking refs are populated by Clone and
// Fetch, so this reflects the remote as of the last fetch.
func (r *Repo) RemoteBranchExists(remote, name string) bool {
	_, err := r.repo.Reference(plumbing.NewRemoteReferenceName(remote, name), true)
	return err == nil
}

// CheckoutBranch checks out an existing local branch, discarding worktree
// changes.
func (r *Repo) CheckoutBranch(name string) error {
	wt, err := r.repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to get worktree: %w", err)
	}
	if err := wt.Checkout(&git.CheckoutOptions{
		Branch: plumbing.NewBranchReferenceName(name),
		Force:  true,
	}); err != nil {
		return fmt.Errorf("failed to checkout branch %s: %w", name, err)
	}
	return nil
}

// CheckoutTracking puts the local branch at the origin tracking ref's tip and
// checks it out. The local ref is created or moved as needed.
func (r *Repo) CheckoutTracking(name string) error {
	remoteRef, err := r.repo.Reference(plumbing.NewRemoteReferenceName(OriginRemote, name), true)
	if err != nil {
		return fmt.Errorf("failed to resolve %s/%s: %w", OriginRemote, name, err)
	}

	refName := plumbing.NewBranchReferenceName(name)
	if err := r.repo.Storer.SetReference(plumbing.NewHashReference(refName, remoteRef.Hash())); err != nil {
		return fmt.Errorf("failed to set branch reference %s: %w", name, err)
	}

	wt, err := r.repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to get worktree: %w", err)
	}
	if err := wt.Checkout(&git.CheckoutOptions{Branch: refName, Force: true}); err != nil {
		return fmt.Errorf("failed to checkout branch %s: %w", name, err)
	}
	return nil
}

// CreateBranchAt creates (or re-points) a local branch at the given revision
// and checks it out.
func (r *Repo) CreateBranchAt(name, rev string) error {
	commit, err := r.resolveCommit(rev)
	if err != nil {
		return err
	}

	refName := plumbing.NewBranchReferenceName(name)
	if err := r.repo.Storer.SetReference(plumbing.NewHashReference(refName, commit.Hash)); err != nil {
		return fmt.Errorf("failed to set branch reference %s: %w", name, err)
	}

	wt, err := r.repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to get worktree: %w", err)
	}
	if err := wt.Checkout(&git.CheckoutOptions{Branch: refName, Force: true}); err != nil {
		return fmt.Errorf("failed to checkout branch %s: %w", name, err)
	}
	return nil
}

// FastForward pulls the branch from origin into the checked-out worktree.
// go-git pulls are fast-forward only; diverged histories surface as errors.
func (r *Repo) FastForward(ctx context.Context, branch string) error {
	wt, err := r.repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to get worktree: %w", err)
	}

	err = wt.PullContext(ctx, &git.PullOptions{
		RemoteName:    OriginRemote,
		ReferenceName: plumbing.NewBranchReferenceName(branch),
		Auth:          r.auth,
	})
	if errors.Is(err, git.NoErrAlreadyUpToDate) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to fast-forward %s: %w", branch, err)
	}
	return nil
}

// DeleteLocalBranch removes a local branch ref. The branch must not be
// checked out.
func (r *Repo) DeleteLocalBranch(name string) error {
	if err := r.repo.Storer.RemoveReference(plumbing.NewBranchReferenceName(name)); err != nil {
		return fmt.Errorf("failed to delete branch %s: %w", name, err)
	}
	return nil
}

// AheadOfRemoteDefault reports whether the branch has at least one commit
// that the remote default branch does not.
func (r *Repo) AheadOfRemoteDefault(branch string) (bool, error) {
	tip, err := r.resolveCommit(branch)
	if err != nil {
		return false, err
	}
	base, err := r.resolveCommit(OriginRemote + "/" + r.defaultBranch)
	if err != nil {
		return false, err
	}

	// If the branch tip is reachable from the default tip, the branch adds
	// nothing (equal tips included).
	reachable, err := tip.IsAncestor(base)
	if err != nil {
		return false, fmt.Errorf("failed to walk history of %s: %w", branch, err)
	}
	return !reachable, nil
}

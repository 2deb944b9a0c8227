// Package gitrepo wraps go-git operations on a single clone: branch
// management, content reads at arbitrary refs, staged worktree edits, commits
// and pushes. All content access goes through the object store and worktree,
// so no git binary is required.
package gitrepo

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
)

// OriginRemote is the remote name a clone gets for its own repository.
const OriginRemote = "origin"

// Repo is a clone of a repository plus the credentials used to talk to its
// remotes.
type Repo struct {
	repo          *git.Repository
	dir           string
	auth          transport.AuthMethod
	defaultBranch string
}

// Clone clones url into dir. The token may be empty for anonymous access
// (public repositories, local paths in tests). The branch checked out by the
// clone is recorded as the repository's default branch.
func Clone(ctx context.Context, url, dir, token string) (*Repo, error) {
	repo, err := git.PlainCloneContext(ctx, dir, false, &git.CloneOptions{
		URL:  url,
		Auth: basicAuth(token),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to clone %s: %w", url, err)
	}

	head, err := repo.Head()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve HEAD after clone: %w", err)
	}

	return &Repo{
		repo:          repo,
		dir:           dir,
		auth:          basicAuth(token),
		defaultBranch: head.Name().Short(),
	}, nil
}

// Open opens an existing clone at dir.
func Open(dir, token string) (*Repo, error) {
	repo, err := git.PlainOpen(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open repository at %s: %w", dir, err)
	}

	r := &Repo{repo: repo, dir: dir, auth: basicAuth(token)}
	if head, err := repo.Head(); err == nil && head.Name().IsBranch() {
		r.defaultBranch = head.Name().Short()
	}
	return r, nil
}

// Dir returns the working tree path.
func (r *Repo) Dir() string {
	return r.dir
}

// DefaultBranch returns the branch HEAD pointed at when the clone was made.
func (r *Repo) DefaultBranch() string {
	return r.defaultBranch
}

// Repository exposes the underlying go-git repository.
func (r *Repo) Repository() *git.Repository {
	return r.repo
}

// AddRemote registers a named remote with the standard heads refspec. An
// already-existing remote with that name is left as is.
func (r *Repo) AddRemote(name, url string) error {
	_, err := r.repo.CreateRemote(&config.RemoteConfig{
		Name:  name,
		URLs:  []string{url},
		Fetch: []config.RefSpec{config.RefSpec(fmt.Sprintf("+refs/heads/*:refs/remotes/%s/*", name))},
	})
	if err != nil && !errors.Is(err, git.ErrRemoteExists) {
		return fmt.Errorf("failed to add remote %s: %w", name, err)
	}
	return nil
}

// Fetch updates the remote-tracking refs for the named remote.
func (r *Repo) Fetch(ctx context.Context, remote string) error {
	err := r.repo.FetchContext(ctx, &git.FetchOptions{
		RemoteName: remote,
		RefSpecs:   []config.RefSpec{config.RefSpec(fmt.Sprintf("+refs/heads/*:refs/remotes/%s/*", remote))},
		Auth:       r.auth,
	})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return fmt.Errorf("failed to fetch %s: %w", remote, err)
	}
	return nil
}

// Push pushes a branch to origin.
func (r *Repo) Push(ctx context.Context, branch string, force bool) error {
	refSpec := config.RefSpec(fmt.Sprintf("refs/heads/%s:refs/heads/%s", branch, branch))
	err := r.repo.PushContext(ctx, &git.PushOptions{
		RemoteName: OriginRemote,
		RefSpecs:   []config.RefSpec{refSpec},
		Force:      force,
		Auth:       r.auth,
	})
	if errors.Is(err, git.NoErrAlreadyUpToDate) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to push branch %s: %w", branch, err)
	}
	return nil
}

// resolveCommit resolves a revision (branch, remote ref, hash, HEAD) to its
// commit object.
func (r *Repo) resolveCommit(rev string) (*object.Commit, error) {
	hash, err := r.repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve revision %s: %w", rev, err)
	}
	commit, err := r.repo.CommitObject(*hash)
	if err != nil {
		return nil, fmt.Errorf("failed to read commit %s: %w", hash, err)
	}
	return commit, nil
}

func basicAuth(token string) transport.AuthMethod {
	if token == "" {
		return nil
	}
	return &http.BasicAuth{
		Username: "x-access-token", // Generic token auth convention
		Password: token,
	}
}

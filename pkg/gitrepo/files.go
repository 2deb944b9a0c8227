package gitrepo

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/go-git/go-billy/v5/util"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// ErrFileNotFound reports a path absent at the requested ref.
var ErrFileNotFound = errors.New("file not found at ref")

// ErrNoChanges reports a commit attempt with a clean index.
var ErrNoChanges = errors.New("no changes to commit")

// ReadFileAtRef returns a file's content as it exists at a revision, for
// example "parent-repo/feature-branch" or "HEAD".
func (r *Repo) ReadFileAtRef(ref, p string) ([]byte, error) {
	rel, err := cleanRelPath(p)
	if err != nil {
		return nil, err
	}

	commit, err := r.resolveCommit(ref)
	if err != nil {
		return nil, err
	}

	file, err := commit.File(rel)
	if err != nil {
		if errors.Is(err, object.ErrFileNotFound) {
			return nil, fmt.Errorf("%w: %s at %s", ErrFileNotFound, rel, ref)
		}
		return nil, fmt.Errorf("failed to read %s at %s: %w", rel, ref, err)
	}

	content, err := file.Contents()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s at %s: %w", rel, ref, err)
	}
	return []byte(content), nil
}

// BlobHashAtRef returns the blob hash of a file at a revision. Comparing blob
// hashes across refs detects content changes without reading the content.
func (r *Repo) BlobHashAtRef(ref, p string) (string, error) {
	rel, err := cleanRelPath(p)
	if err != nil {
		return "", err
	}

	commit, err := r.resolveCommit(ref)
	if err != nil {
		return "", err
	}

	tree, err := commit.Tree()
	if err != nil {
		return "", fmt.Errorf("failed to read tree at %s: %w", ref, err)
	}

	entry, err := tree.FindEntry(rel)
	if err != nil {
		if errors.Is(err, object.ErrEntryNotFound) || errors.Is(err, object.ErrDirectoryNotFound) {
			return "", fmt.Errorf("%w: %s at %s", ErrFileNotFound, rel, ref)
		}
		return "", fmt.Errorf("failed to find %s at %s: %w", rel, ref, err)
	}
	return entry.Hash.String(), nil
}

// WriteFile writes content to a path inside the worktree, creating
// intermediate directories, and stages it.
func (r *Repo) WriteFile(p string, data []byte) error {
	rel, err := cleanRelPath(p)
	if err != nil {
		return err
	}

	wt, err := r.repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to get worktree: %w", err)
	}

	fs := wt.Filesystem
	if dir := path.Dir(rel); dir != "." {
		if err := fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	if err := util.WriteFile(fs, rel, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", rel, err)
	}
	if _, err := wt.Add(rel); err != nil {
		return fmt.Errorf("failed to stage %s: %w", rel, err)
	}
	return nil
}

// RemoveFile removes a path from the worktree and stages the deletion. It
// reports whether the file existed.
func (r *Repo) RemoveFile(p string) (bool, error) {
	rel, err := cleanRelPath(p)
	if err != nil {
		return false, err
	}

	wt, err := r.repo.Worktree()
	if err != nil {
		return false, fmt.Errorf("failed to get worktree: %w", err)
	}

	if _, err := wt.Filesystem.Lstat(rel); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat %s: %w", rel, err)
	}

	if _, err := wt.Remove(rel); err != nil {
		return false, fmt.Errorf("failed to remove %s: %w", rel, err)
	}
	return true, nil
}

// StagedPaths returns the paths with staged index changes, sorted.
func (r *Repo) StagedPaths() ([]string, error) {
	wt, err := r.repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("failed to get worktree: %w", err)
	}

	status, err := wt.Status()
	if err != nil {
		return nil, fmt.Errorf("failed to get status: %w", err)
	}

	var paths []string
	for p, st := range status {
		switch st.Staging {
		case git.Unmodified, git.Untracked:
		default:
			paths = append(paths, p)
		}
	}
	sort.Strings(paths)
	return paths, nil
}

// Commit commits the staged changes with the given identity and returns the
// commit hash. A clean index returns ErrNoChanges.
func (r *Repo) Commit(message, authorName, authorEmail string) (string, error) {
	wt, err := r.repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("failed to get worktree: %w", err)
	}

	status, err := wt.Status()
	if err != nil {
		return "", fmt.Errorf("failed to get status: %w", err)
	}
	if status.IsClean() {
		return "", ErrNoChanges
	}

	hash, err := wt.Commit(message, &git.CommitOptions{
		Author: &object.Signature{
			Name:  authorName,
			Email: authorEmail,
			When:  time.Now(),
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to commit: %w", err)
	}
	return hash.String(), nil
}

// HeadHash returns the commit hash HEAD points at.
func (r *Repo) HeadHash() (string, error) {
	head, err := r.repo.Head()
	if err != nil {
		return "", fmt.Errorf("failed to resolve HEAD: %w", err)
	}
	return head.Hash().String(), nil
}

// cleanRelPath normalizes a repository-relative slash path and rejects
// anything that would escape the worktree.
func cleanRelPath(p string) (string, error) {
	clean := path.Clean(filepath.ToSlash(p))
	if clean == "." || clean == "" {
		return "", fmt.Errorf("empty path %q", p)
	}
	if path.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("path %q escapes the repository", p)
	}
	return clean, nil
}

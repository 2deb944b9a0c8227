package sync

import (
	"context"
	"errors"
	"fmt"

	"github.com/chainguard-dev/clog"

	"github.com/mirrorsync/mirrorsync/pkg/github"
	"github.com/mirrorsync/mirrorsync/pkg/gitrepo"
)

// HostClient is the slice of the hosting API the engine needs to publish
// review state. *github.Client satisfies it.
type HostClient interface {
	FindOpenPullRequestByHead(ctx context.Context, ref github.RepoRef, headBranch string) (*github.PRInfo, error)
	CreatePullRequest(ctx context.Context, ref github.RepoRef, newPR *github.NewPullRequest) (*github.PRInfo, error)
	CreateIssueComment(ctx context.Context, ref github.RepoRef, issueNumber int, body string) (int64, error)
	EnsureLabel(ctx context.Context, ref github.RepoRef, label github.Label) error
	AddLabels(ctx context.Context, ref github.RepoRef, issueNumber int, labels []string) error
	AddAssignees(ctx context.Context, ref github.RepoRef, issueNumber int, assignees []string) error
	RequestReviewers(ctx context.Context, ref github.RepoRef, prNumber int, reviewers []string) error
}

// Engine applies a Plan to the mirror clone and reconciles the review state
// for the target branch.
type Engine struct {
	Repo   *gitrepo.Repo
	Host   HostClient
	Mirror github.RepoRef

	// SourceRepo is the short name of the parent repository, SourcePR the
	// pull request number whose changes are being propagated. Both appear
	// in commit messages and PR text.
	SourceRepo string
	SourcePR   int

	// Branch is the target branch in the mirror, BaseBranch the branch
	// pull requests are opened against.
	Branch     string
	BaseBranch string

	AuthorName  string
	AuthorEmail string

	Label    github.Label
	Assignee string
	Reviewer string
	Comment  string
}

// Apply executes the plan against the working tree, reading file content
// from sourceRef (a remote-tracking ref of the parent remote). Writes whose
// target blob already matches the source are skipped, so a rerun over
// already-synced content stages nothing. If anything staged, Apply creates
// a single commit and force-pushes the branch to origin.
func (e *Engine) Apply(ctx context.Context, plan Plan, sourceRef string) (Result, error) {
	log := clog.FromContext(ctx)
	var res Result

	for _, op := range plan.Operations {
		switch op.Kind {
		case OpWrite:
			same, err := e.blobsMatch(sourceRef, op)
			if err != nil {
				return res, err
			}
			if same {
				log.Debugf("skipping %s, already up to date", op.Target)
				res.Skipped = append(res.Skipped, op.Target)
				continue
			}
			data, err := e.Repo.ReadFileAtRef(sourceRef, op.Source)
			if err != nil {
				return res, fmt.Errorf("failed to read %s at %s: %w", op.Source, sourceRef, err)
			}
			if err := e.Repo.WriteFile(op.Target, data); err != nil {
				return res, fmt.Errorf("failed to write %s: %w", op.Target, err)
			}
			res.Written = append(res.Written, op.Target)
		case OpDelete:
			removed, err := e.Repo.RemoveFile(op.Target)
			if err != nil {
				return res, fmt.Errorf("failed to remove %s: %w", op.Target, err)
			}
			if removed {
				res.Deleted = append(res.Deleted, op.Target)
			}
		}
	}

	staged, err := e.Repo.StagedPaths()
	if err != nil {
		return res, fmt.Errorf("failed to inspect staged changes: %w", err)
	}
	if len(staged) == 0 {
		log.Infof("no net changes from %s PR %d, nothing to commit", e.SourceRepo, e.SourcePR)
		return res, nil
	}

	sha, err := e.Repo.Commit(e.commitMessage(plan), e.AuthorName, e.AuthorEmail)
	if err != nil {
		return res, fmt.Errorf("failed to commit: %w", err)
	}
	res.Committed = true
	res.CommitSHA = sha
	log.Infof("committed %d path(s) as %s", len(staged), sha)

	if err := e.Repo.Push(ctx, e.Branch, true); err != nil {
		return res, fmt.Errorf("failed to push branch %s: %w", e.Branch, err)
	}
	log.Infof("pushed %s to origin", e.Branch)
	return res, nil
}

// blobsMatch reports whether the target already holds the exact blob the
// source ref carries. A missing target never matches; a missing source is
// left for the subsequent read to report with context.
func (e *Engine) blobsMatch(sourceRef string, op Operation) (bool, error) {
	srcHash, err := e.Repo.BlobHashAtRef(sourceRef, op.Source)
	if err != nil {
		if errors.Is(err, gitrepo.ErrFileNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to hash %s at %s: %w", op.Source, sourceRef, err)
	}
	dstHash, err := e.Repo.BlobHashAtRef("HEAD", op.Target)
	if err != nil {
		if errors.Is(err, gitrepo.ErrFileNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to hash %s at HEAD: %w", op.Target, err)
	}
	return srcHash == dstHash, nil
}

func (e *Engine) commitMessage(plan Plan) string {
	if plan.ManifestOnly {
		return fmt.Sprintf("Update sync mapping from %s PR %d", e.SourceRepo, e.SourcePR)
	}
	return fmt.Sprintf("Sync changes from %s PR %d", e.SourceRepo, e.SourcePR)
}

// PublishReview looks up the open pull request for the target branch. If one
// exists it gets the configured comment; otherwise a new PR is created,
// provided the branch actually carries commits ahead of the mirror's default
// branch. Label, assignee, and reviewer attachment are best-effort.
func (e *Engine) PublishReview(ctx context.Context) (ReviewResult, error) {
	log := clog.FromContext(ctx)

	existing, err := e.Host.FindOpenPullRequestByHead(ctx, e.Mirror, e.Branch)
	if err != nil {
		return ReviewResult{}, fmt.Errorf("failed to look up open pull request for %s: %w", e.Branch, err)
	}
	if existing != nil {
		log.Infof("pull request #%d already open for %s, commenting", existing.Number, e.Branch)
		if _, err := e.Host.CreateIssueComment(ctx, e.Mirror, existing.Number, e.Comment); err != nil {
			log.Warnf("failed to comment on pull request #%d: %v", existing.Number, err)
		}
		return ReviewResult{Action: ReviewCommented, Number: existing.Number, URL: existing.URL}, nil
	}

	// Re-check against the remote default before opening anything: a branch
	// that ended up with zero commits of its own must not produce a PR.
	ahead, err := e.Repo.AheadOfRemoteDefault(e.Branch)
	if err != nil {
		return ReviewResult{}, fmt.Errorf("failed to compare %s against %s: %w", e.Branch, e.BaseBranch, err)
	}
	if !ahead {
		log.Infof("branch %s carries no commits ahead of %s, skipping pull request", e.Branch, e.BaseBranch)
		return ReviewResult{Action: ReviewSkipped}, nil
	}

	pr, err := e.Host.CreatePullRequest(ctx, e.Mirror, &github.NewPullRequest{
		Title:               fmt.Sprintf("[Automated] Sync from %s PR %d", e.SourceRepo, e.SourcePR),
		Head:                e.Branch,
		Base:                e.BaseBranch,
		Body:                fmt.Sprintf("Automated synchronization from %s PR #%d", e.SourceRepo, e.SourcePR),
		MaintainerCanModify: true,
	})
	if err != nil {
		return ReviewResult{}, fmt.Errorf("failed to create pull request: %w", err)
	}
	log.Infof("created pull request #%d for %s", pr.Number, e.Branch)

	e.decorate(ctx, pr.Number)

	return ReviewResult{Action: ReviewCreated, Number: pr.Number, URL: pr.URL}, nil
}

// decorate attaches the label, assignee, and reviewer to a freshly created
// pull request. Failures are logged and swallowed.
func (e *Engine) decorate(ctx context.Context, number int) {
	log := clog.FromContext(ctx)

	if e.Label.Name != "" {
		if err := e.Host.EnsureLabel(ctx, e.Mirror, e.Label); err != nil {
			log.Warnf("failed to ensure label %q: %v", e.Label.Name, err)
		}
		if err := e.Host.AddLabels(ctx, e.Mirror, number, []string{e.Label.Name}); err != nil {
			log.Warnf("failed to add label %q to #%d: %v", e.Label.Name, number, err)
		}
	}
	if e.Assignee != "" {
		if err := e.Host.AddAssignees(ctx, e.Mirror, number, []string{e.Assignee}); err != nil {
			log.Warnf("failed to assign %s to #%d: %v", e.Assignee, number, err)
		}
	}
	if e.Reviewer != "" {
		if err := e.Host.RequestReviewers(ctx, e.Mirror, number, []string{e.Reviewer}); err != nil {
			log.Warnf("failed to request review from %s on #%d: %v", e.Reviewer, number, err)
		}
	}
}

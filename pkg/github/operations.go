package github

import (
	"context"
	"fmt"

	"github.com/google/go-github/v68/github"
)

// FetchPRInfo fetches basic pull request information using go-github SDK
func (c *Client) FetchPRInfo(ctx context.Context, ref RepoRef, prNumber int) (*PRInfo, error) {
	pr, _, err := c.GitHubClient().PullRequests.Get(ctx, ref.Owner, ref.Name, prNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch PR: %w", err)
	}

	return convertFromGitHubPR(pr), nil
}

// convertFromGitHubPR converts a github.PullRequest to our PRInfo type
func convertFromGitHubPR(pr *github.PullRequest) *PRInfo {
	var baseRef, headRef, baseSHA, headSHA string

	if base := pr.GetBase(); base != nil {
		baseRef = base.GetRef()
		baseSHA = base.GetSHA()
	}

	if head := pr.GetHead(); head != nil {
		headRef = head.GetRef()
		headSHA = head.GetSHA()
	}

	author := ""
	if user := pr.GetUser(); user != nil {
		author = user.GetLogin()
	}

	info := &PRInfo{
		Number:    pr.GetNumber(),
		Title:     pr.GetTitle(),
		Body:      pr.GetBody(),
		State:     pr.GetState(),
		URL:       pr.GetHTMLURL(),
		BaseRef:   baseRef,
		HeadRef:   headRef,
		BaseSHA:   baseSHA,
		HeadSHA:   headSHA,
		Author:    author,
		Merged:    pr.GetMerged() || pr.MergedAt != nil,
		CreatedAt: pr.GetCreatedAt().Time,
		UpdatedAt: pr.GetUpdatedAt().Time,
	}

	if pr.GetBase() != nil && pr.GetBase().GetRepo() != nil {
		info.Repository = pr.GetBase().GetRepo().GetFullName()
	}

	return info
}

// ListPullRequestFiles fetches the file list of a pull request with
// pagination, preserving the API's per-file status and, for renames, the
// previous filename.
func (c *Client) ListPullRequestFiles(ctx context.Context, ref RepoRef, prNumber int) ([]PullRequestFile, error) {
	opts := &github.ListOptions{PerPage: 100}

	var allFiles []PullRequestFile
	for {
		files, resp, err := c.GitHubClient().PullRequests.ListFiles(ctx, ref.Owner, ref.Name, prNumber, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list PR files: %w", err)
		}

		for _, f := range files {
			allFiles = append(allFiles, PullRequestFile{
				Path:         f.GetFilename(),
				PreviousPath: f.GetPreviousFilename(),
				Status:       f.GetStatus(),
				Additions:    f.GetAdditions(),
				Deletions:    f.GetDeletions(),
			})
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return allFiles, nil
}

// FindOpenPullRequestByHead looks up the open pull request whose head is the
// given branch. Returns nil without error when no such PR exists.
func (c *Client) FindOpenPullRequestByHead(ctx context.Context, ref RepoRef, headBranch string) (*PRInfo, error) {
	opts := &github.PullRequestListOptions{
		State:       "open",
		Head:        fmt.Sprintf("%s:%s", ref.Owner, headBranch),
		ListOptions: github.ListOptions{PerPage: 100},
	}

	for {
		prs, resp, err := c.GitHubClient().PullRequests.List(ctx, ref.Owner, ref.Name, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list pull requests: %w", err)
		}

		for _, pr := range prs {
			// The head filter is authoritative, but match locally as well so
			// a server ignoring the parameter cannot produce a false hit.
			if pr.GetHead().GetRef() == headBranch {
				return convertFromGitHubPR(pr), nil
			}
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return nil, nil
}

// CreatePullRequest creates a new pull request
func (c *Client) CreatePullRequest(ctx context.Context, ref RepoRef, newPR *NewPullRequest) (*PRInfo, error) {
	pr, _, err := c.GitHubClient().PullRequests.Create(ctx, ref.Owner, ref.Name, &github.NewPullRequest{
		Title:               &newPR.Title,
		Head:                &newPR.Head,
		Base:                &newPR.Base,
		Body:                &newPR.Body,
		MaintainerCanModify: github.Bool(newPR.MaintainerCanModify),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create pull request: %w", err)
	}
	return convertFromGitHubPR(pr), nil
}

// CreateIssueComment creates a new comment on an issue or PR
func (c *Client) CreateIssueComment(ctx context.Context, ref RepoRef, issueNumber int, body string) (int64, error) {
	comment, _, err := c.GitHubClient().Issues.CreateComment(ctx, ref.Owner, ref.Name, issueNumber, &github.IssueComment{Body: &body})
	if err != nil {
		return 0, fmt.Errorf("failed to create issue comment: %w", err)
	}
	return comment.GetID(), nil
}

// EnsureLabel creates the label in the repository if it does not already
// exist. An existing label is left untouched, whatever its color.
func (c *Client) EnsureLabel(ctx context.Context, ref RepoRef, label Label) error {
	_, _, err := c.GitHubClient().Issues.GetLabel(ctx, ref.Owner, ref.Name, label.Name)
	if err == nil {
		return nil
	}
	if !IsNotFoundError(err) {
		return fmt.Errorf("failed to look up label %q: %w", label.Name, err)
	}

	_, _, err = c.GitHubClient().Issues.CreateLabel(ctx, ref.Owner, ref.Name, &github.Label{
		Name:        &label.Name,
		Color:       &label.Color,
		Description: &label.Description,
	})
	if err != nil && !alreadyExists(err) {
		return fmt.Errorf("failed to create label %q: %w", label.Name, err)
	}
	return nil
}

// AddLabels attaches labels to an issue or PR
func (c *Client) AddLabels(ctx context.Context, ref RepoRef, issueNumber int, labels []string) error {
	_, _, err := c.GitHubClient().Issues.AddLabelsToIssue(ctx, ref.Owner, ref.Name, issueNumber, labels)
	if err != nil {
		return fmt.Errorf("failed to add labels: %w", err)
	}
	return nil
}

// AddAssignees assigns users to an issue or PR
func (c *Client) AddAssignees(ctx context.Context, ref RepoRef, issueNumber int, assignees []string) error {
	_, _, err := c.GitHubClient().Issues.AddAssignees(ctx, ref.Owner, ref.Name, issueNumber, assignees)
	if err != nil {
		return fmt.Errorf("failed to add assignees: %w", err)
	}
	return nil
}

// RequestReviewers requests reviews from users on a PR
func (c *Client) RequestReviewers(ctx context.Context, ref RepoRef, prNumber int, reviewers []string) error {
	_, _, err := c.GitHubClient().PullRequests.RequestReviewers(ctx, ref.Owner, ref.Name, prNumber, github.ReviewersRequest{
		Reviewers: reviewers,
	})
	if err != nil {
		return fmt.Errorf("failed to request reviewers: %w", err)
	}
	return nil
}

// DeleteBranchRef deletes a branch ref from the remote repository. A branch
// that is already gone is treated as success.
func (c *Client) DeleteBranchRef(ctx context.Context, ref RepoRef, branch string) error {
	_, err := c.GitHubClient().Git.DeleteRef(ctx, ref.Owner, ref.Name, "heads/"+branch)
	if err != nil {
		if IsNotFoundError(err) {
			return nil
		}
		return fmt.Errorf("failed to delete branch %q: %w", branch, err)
	}
	return nil
}

package github

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	// Full URL pattern: https://github.com/owner/repo, with optional .git
	repoURLPattern = regexp.MustCompile(`^https://github\.com/([^/]+)/([^/]+?)(?:\.git)?/?$`)
	// Short form: owner/repo
	shortRepoPattern = regexp.MustCompile(`^([^/\s]+)/([^/\s#]+)$`)
	// PR form: owner/repo#123
	prRefPattern = regexp.MustCompile(`^([^/\s]+)/([^/\s#]+)#(\d+)$`)
)

// ParseRepoRef parses a repository reference string.
// Supported formats:
//   - https://github.com/<owner>/<repo> (with optional .git suffix)
//   - <owner>/<repo> (short form)
func ParseRepoRef(ref string) (RepoRef, error) {
	ref = strings.TrimSpace(ref)

	if matches := repoURLPattern.FindStringSubmatch(ref); matches != nil {
		return RepoRef{Owner: matches[1], Name: matches[2]}, nil
	}

	if matches := shortRepoPattern.FindStringSubmatch(ref); matches != nil {
		return RepoRef{Owner: matches[1], Name: strings.TrimSuffix(matches[2], ".git")}, nil
	}

	return RepoRef{}, fmt.Errorf("invalid repository reference: %s (expected owner/repo or a github.com URL)", ref)
}

// ParsePRRef parses a pull request reference in the form owner/repo#123.
func ParsePRRef(ref string) (RepoRef, int, error) {
	ref = strings.TrimSpace(ref)

	if matches := prRefPattern.FindStringSubmatch(ref); matches != nil {
		num, _ := strconv.Atoi(matches[3])
		return RepoRef{Owner: matches[1], Name: matches[2]}, num, nil
	}

	return RepoRef{}, 0, fmt.Errorf("invalid pull request reference: %s (expected owner/repo#123)", ref)
}

// CloneURL returns the HTTPS clone URL for the repository.
func (r RepoRef) CloneURL() string {
	return fmt.Sprintf("https://github.com/%s/%s.git", r.Owner, r.Name)
}

// PullURL returns the GitHub URL for a pull request in this repository.
func (r RepoRef) PullURL(number int) string {
	return fmt.Sprintf("https://github.com/%s/%s/pull/%d", r.Owner, r.Name, number)
}

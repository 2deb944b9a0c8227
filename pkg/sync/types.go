// Package sync plans and applies manifest-driven file propagation from a
// parent repository pull request into a mirror repository clone.
package sync

import (
	"fmt"
	"strings"
)

// Policy selects how an existing target branch is treated before changes
// are applied.
type Policy string

const (
	// PolicyContinue reuses an existing branch, appending new commits on
	// top of whatever previous runs pushed.
	PolicyContinue Policy = "continue"

	// PolicyReset discards any existing branch and starts over from the
	// mirror's default branch head.
	PolicyReset Policy = "reset"
)

// ParsePolicy validates a policy value coming from a flag or configuration.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(strings.ToLower(s)) {
	case PolicyContinue:
		return PolicyContinue, nil
	case PolicyReset:
		return PolicyReset, nil
	default:
		return "", fmt.Errorf("unknown branch policy %q (want %q or %q)", s, PolicyContinue, PolicyReset)
	}
}

// BranchName returns the deterministic target branch for a source PR.
// Runs for the same PR always land on the same branch; runs for different
// PRs never collide.
func BranchName(sourceRepo string, number int) string {
	return fmt.Sprintf("auto-update-from-%s-pr-%d", sourceRepo, number)
}

// OpKind discriminates planned operations.
type OpKind string

const (
	OpWrite  OpKind = "write"
	OpDelete OpKind = "delete"
)

// Operation is one planned file action against the mirror working tree.
// Source is the path in the parent repository, Target the path it maps to
// in the mirror.
type Operation struct {
	Kind   OpKind
	Source string
	Target string
}

func (o Operation) String() string {
	return fmt.Sprintf("%s %s -> %s", o.Kind, o.Source, o.Target)
}

// Plan is the ordered set of operations derived for one source PR.
type Plan struct {
	Operations []Operation

	// ManifestOnly is true when every planned operation stems from the
	// sync manifest itself, in which case the commit message calls the
	// change out as a mapping update.
	ManifestOnly bool
}

// IsEmpty reports whether the plan contains no operations.
func (p Plan) IsEmpty() bool {
	return len(p.Operations) == 0
}

// Result reports what Apply actually changed.
type Result struct {
	// Committed is true when a commit was created and pushed. False means
	// the run was a no-op: every write was already up to date and every
	// delete targeted an absent file.
	Committed bool

	// CommitSHA is the created commit when Committed is true.
	CommitSHA string

	Written []string
	Deleted []string
	Skipped []string
}

// ReviewAction describes the review decision taken after a push.
type ReviewAction string

const (
	ReviewCreated   ReviewAction = "created"
	ReviewCommented ReviewAction = "commented"
	ReviewSkipped   ReviewAction = "skipped"
)

// ReviewResult identifies the pull request a run ended up creating or
// annotating, if any.
type ReviewResult struct {
	Action ReviewAction
	Number int
	URL    string
}

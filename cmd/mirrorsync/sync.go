package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/chainguard-dev/clog"
	"github.com/spf13/cobra"

	"github.com/mirrorsync/mirrorsync/pkg/changeset"
	"github.com/mirrorsync/mirrorsync/pkg/config"
	"github.com/mirrorsync/mirrorsync/pkg/github"
	"github.com/mirrorsync/mirrorsync/pkg/gitrepo"
	"github.com/mirrorsync/mirrorsync/pkg/manifest"
	"github.com/mirrorsync/mirrorsync/pkg/sync"
)

var (
	syncRepo     string
	syncPR       int
	syncMirror   string
	syncPolicy   string
	syncManifest string
	syncComment  string
	syncDryRun   bool
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Sync changed files from a parent repository PR into the mirror",
	Long: `Sync resolves the files a parent repository pull request touched,
intersects them with the sync manifest, and propagates the eligible ones
into the mirror repository on branch auto-update-from-<repo>-pr-<number>.

A pull request is opened in the mirror once the branch gains commits; an
already-open pull request is commented on instead. Runs that find nothing
to do exit 0.

Examples:
  mirrorsync sync --repo acme/parent --pr 42
  mirrorsync sync --repo acme/parent#42 --mirror acme/mirror --policy reset
  mirrorsync sync --repo acme/parent --pr 42 --dry-run`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if syncRepo == "" {
			return fmt.Errorf("\"repo\" not set")
		}

		repoArg := syncRepo
		prNumber := syncPR
		if strings.Contains(repoArg, "#") {
			ref, num, err := github.ParsePRRef(repoArg)
			if err != nil {
				return err
			}
			repoArg = ref.String()
			if prNumber == 0 {
				prNumber = num
			}
		}
		if prNumber <= 0 {
			return fmt.Errorf("\"pr\" not set")
		}

		return runSync(cmd.Context(), repoArg, prNumber)
	},
}

func runSync(ctx context.Context, repoArg string, prNumber int) error {
	log := clog.FromContext(ctx)

	sourceRef, err := github.ParseRepoRef(repoArg)
	if err != nil {
		return err
	}

	cfg, err := config.LoadFromCurrentDir()
	if err != nil {
		return err
	}
	env, err := config.LoadEnv(ctx)
	if err != nil {
		return err
	}

	mirror, mirrorSrc := cfg.ResolveMirror(syncMirror, env.Mirror)
	if mirror == "" {
		return fmt.Errorf("mirror repository not set (use --mirror, MIRRORSYNC_MIRROR, or %s)", config.ConfigPath)
	}
	mirrorRef, err := github.ParseRepoRef(mirror)
	if err != nil {
		return err
	}

	policyValue, policySrc := cfg.ResolvePolicy(syncPolicy, env.Policy)
	policy, err := sync.ParsePolicy(policyValue)
	if err != nil {
		return err
	}
	manifestPath, manifestSrc := cfg.ResolveManifest(syncManifest, env.Manifest)
	remoteName, _ := cfg.ResolveRemoteName("", env.RemoteName)
	baseBranch, _ := cfg.ResolveBaseBranch("", env.BaseBranch)
	comment, _ := cfg.ResolveComment(syncComment)
	label := cfg.ResolveLabel()
	authorName, authorEmail := cfg.ResolveGitIdentity()
	assignee, _ := config.Resolve("", env.Assignee, cfg.Assignee, "")
	reviewer, _ := config.Resolve("", env.Reviewer, cfg.Reviewer, "")

	log.Debugf("mirror %s (from %s), policy %s (from %s), manifest %s (from %s)",
		mirror, mirrorSrc, policy, policySrc, manifestPath, manifestSrc)

	client, err := newHostClient(env)
	if err != nil {
		return err
	}

	pr, err := client.FetchPRInfo(ctx, sourceRef, prNumber)
	if err != nil {
		return fmt.Errorf("failed to fetch %s#%d: %w", sourceRef, prNumber, err)
	}

	// A merged PR's head branch may already be deleted; from then on the
	// base branch carries its changes.
	srcBranch := pr.HeadRef
	if pr.Merged {
		srcBranch = pr.BaseRef
	}
	if srcBranch == "" {
		return fmt.Errorf("cannot resolve a source branch for %s#%d", sourceRef, prNumber)
	}
	log.Infof("syncing %s#%d (branch %s) into %s", sourceRef, prNumber, srcBranch, mirror)

	cs := changeset.Resolve(ctx, client, sourceRef, prNumber)
	if cs.IsEmpty() {
		log.Infof("no changed files in %s#%d, nothing to sync", sourceRef, prNumber)
		return nil
	}

	token, err := client.Token(ctx)
	if err != nil {
		return err
	}

	workDir, err := os.MkdirTemp("", "mirrorsync-")
	if err != nil {
		return fmt.Errorf("failed to create work directory: %w", err)
	}
	defer os.RemoveAll(workDir)

	repo, err := gitrepo.Clone(ctx, mirrorRef.CloneURL(), workDir, token)
	if err != nil {
		return fmt.Errorf("failed to clone %s: %w", mirror, err)
	}
	if err := repo.AddRemote(remoteName, sourceRef.CloneURL()); err != nil {
		return err
	}
	if err := repo.Fetch(ctx, remoteName); err != nil {
		return fmt.Errorf("failed to fetch %s: %w", remoteName, err)
	}

	srcRev := remoteName + "/" + srcBranch
	m := manifest.LoadAtRef(ctx, repo, srcRev, manifestPath)

	plan := sync.BuildPlan(m, cs, manifestPath)
	if plan.IsEmpty() {
		log.Infof("none of the %d changed file(s) are eligible to sync", cs.Len())
		return nil
	}

	if syncDryRun {
		fmt.Printf("Plan for %s#%d (%d operation(s)):\n", sourceRef, prNumber, len(plan.Operations))
		for _, op := range plan.Operations {
			fmt.Printf("  %s\n", op)
		}
		return nil
	}

	branch := sync.BranchName(sourceRef.Name, prNumber)
	if err := sync.ReconcileBranch(ctx, repo, client, mirrorRef, branch, policy); err != nil {
		return err
	}

	engine := &sync.Engine{
		Repo:        repo,
		Host:        client,
		Mirror:      mirrorRef,
		SourceRepo:  sourceRef.Name,
		SourcePR:    prNumber,
		Branch:      branch,
		BaseBranch:  baseBranch,
		AuthorName:  authorName,
		AuthorEmail: authorEmail,
		Label:       github.Label{Name: label.Name, Color: label.Color, Description: label.Description},
		Assignee:    assignee,
		Reviewer:    reviewer,
		Comment:     comment,
	}

	res, err := engine.Apply(ctx, plan, srcRev)
	if err != nil {
		return err
	}
	if !res.Committed {
		log.Infof("mirror already up to date with %s#%d", sourceRef, prNumber)
		return nil
	}

	review, err := engine.PublishReview(ctx)
	if err != nil {
		return err
	}
	switch review.Action {
	case sync.ReviewCreated:
		fmt.Printf("Created pull request #%d: %s\n", review.Number, review.URL)
	case sync.ReviewCommented:
		fmt.Printf("Updated pull request #%d: %s\n", review.Number, review.URL)
	default:
		log.Infof("no pull request needed for %s", branch)
	}
	return nil
}

// newHostClient builds the API client: GitHub App installation auth when
// fully configured, otherwise a static token from GITHUB_TOKEN or GH_TOKEN.
func newHostClient(env *config.Env) (*github.Client, error) {
	if env.UseAppAuth() {
		return github.NewAppClient(env.AppID, env.AppInstallationID, env.AppKeyPath)
	}
	return github.NewClientFromEnv()
}

func init() {
	syncCmd.Flags().StringVar(&syncRepo, "repo", "", "Parent repository, owner/name or owner/name#pr (required)")
	syncCmd.Flags().IntVar(&syncPR, "pr", 0, "Pull request number in the parent repository (required)")
	syncCmd.Flags().StringVar(&syncMirror, "mirror", "", "Mirror repository, owner/name")
	syncCmd.Flags().StringVar(&syncPolicy, "policy", "", "Branch policy: continue or reset (default \"continue\")")
	syncCmd.Flags().StringVar(&syncManifest, "manifest", "", "Manifest path in the parent repository (default \""+config.DefaultManifestPath+"\")")
	syncCmd.Flags().StringVar(&syncComment, "comment", "", "Comment body for an already-open pull request")
	syncCmd.Flags().BoolVar(&syncDryRun, "dry-run", false, "Print the plan without touching the mirror")
	rootCmd.AddCommand(syncCmd)
}

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/chainguard-dev/clog"
	"github.com/spf13/cobra"

	"github.com/mirrorsync/mirrorsync/pkg/config"
	"github.com/mirrorsync/mirrorsync/pkg/github"
	"github.com/mirrorsync/mirrorsync/pkg/gitrepo"
	"github.com/mirrorsync/mirrorsync/pkg/manifest"
)

var (
	copySource   string
	copyTarget   string
	copyManifest string
)

var copyCmd = &cobra.Command{
	Use:   "copy",
	Short: "Copy manifest-listed files between repository default branches",
	Long: `Copy clones the source and target repositories and applies every manifest
entry from the source's default branch to the target's, without any pull
request machinery. Entries whose source file does not exist are skipped.

The repositories can also be set via SOURCE_REPO_URL and TARGET_REPO_URL.

Examples:
  mirrorsync copy --source https://github.com/acme/parent --target https://github.com/acme/mirror
  mirrorsync copy --source https://github.com/acme/parent --target https://github.com/acme/mirror --manifest sync/files.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCopy(cmd.Context())
	},
}

func runCopy(ctx context.Context) error {
	log := clog.FromContext(ctx)

	cfg, err := config.LoadFromCurrentDir()
	if err != nil {
		return err
	}
	env, err := config.LoadEnv(ctx)
	if err != nil {
		return err
	}

	source, _ := config.Resolve(copySource, env.SourceRepoURL, "", "")
	if source == "" {
		return fmt.Errorf("\"source\" not set")
	}
	target, _ := config.Resolve(copyTarget, env.TargetRepoURL, "", "")
	if target == "" {
		return fmt.Errorf("\"target\" not set")
	}
	manifestPath, _ := cfg.ResolveManifest(copyManifest, env.Manifest)
	authorName, authorEmail := cfg.ResolveGitIdentity()

	token := os.Getenv(github.TokenEnv)
	if token == "" {
		token = os.Getenv(github.AltTokenEnv)
	}

	workDir, err := os.MkdirTemp("", "mirrorsync-copy-")
	if err != nil {
		return fmt.Errorf("failed to create work directory: %w", err)
	}
	defer os.RemoveAll(workDir)

	src, err := gitrepo.Clone(ctx, source, filepath.Join(workDir, "source"), token)
	if err != nil {
		return fmt.Errorf("failed to clone source: %w", err)
	}
	tgt, err := gitrepo.Clone(ctx, target, filepath.Join(workDir, "target"), token)
	if err != nil {
		return fmt.Errorf("failed to clone target: %w", err)
	}

	m := manifest.Load(ctx, filepath.Join(src.Dir(), filepath.FromSlash(manifestPath)))
	if m.Len() == 0 {
		log.Infof("manifest lists nothing to copy")
		return nil
	}

	applied := 0
	for _, rec := range m.Records {
		data, err := src.ReadFileAtRef("HEAD", rec.Source)
		if err != nil {
			if errors.Is(err, gitrepo.ErrFileNotFound) {
				log.Warnf("source file %s missing, skipping", rec.Source)
				continue
			}
			return fmt.Errorf("failed to read %s: %w", rec.Source, err)
		}
		if err := tgt.WriteFile(rec.Target, data); err != nil {
			return fmt.Errorf("failed to write %s: %w", rec.Target, err)
		}
		applied++
	}
	log.Infof("applied %d of %d manifest entries", applied, len(m.Records))

	sha, err := tgt.Commit("Auto-sync files", authorName, authorEmail)
	if err != nil {
		if errors.Is(err, gitrepo.ErrNoChanges) {
			log.Infof("target already up to date")
			return nil
		}
		return err
	}
	log.Infof("committed %s", sha)

	if err := tgt.Push(ctx, tgt.DefaultBranch(), false); err != nil {
		return fmt.Errorf("failed to push %s: %w", tgt.DefaultBranch(), err)
	}

	fmt.Printf("Pushed %s to %s\n", tgt.DefaultBranch(), target)
	return nil
}

func init() {
	copyCmd.Flags().StringVar(&copySource, "source", "", "Source repository clone URL (required)")
	copyCmd.Flags().StringVar(&copyTarget, "target", "", "Target repository clone URL (required)")
	copyCmd.Flags().StringVar(&copyManifest, "manifest", "", "Manifest path in the source repository (default \""+config.DefaultManifestPath+"\")")
	rootCmd.AddCommand(copyCmd)
}

package sync

import (
	"strings"

	"github.com/mirrorsync/mirrorsync/pkg/changeset"
	"github.com/mirrorsync/mirrorsync/pkg/manifest"
)

// BuildPlan intersects a change-set with the sync manifest. Each modified
// path listed in the manifest yields one Write per target; each removed
// listed path yields one Delete per target. Paths absent from the manifest
// are ignored.
//
// The manifest file itself is implicitly eligible with its own path as the
// target, so mapping edits propagate without the manifest listing itself.
// An explicit entry for the manifest path overrides the implicit one.
func BuildPlan(m *manifest.Manifest, cs changeset.ChangeSet, manifestPath string) Plan {
	manifestPath = strings.TrimPrefix(manifestPath, "./")

	var plan Plan
	for _, p := range cs.Modified {
		for _, target := range targetsFor(m, p, manifestPath) {
			plan.Operations = append(plan.Operations, Operation{Kind: OpWrite, Source: p, Target: target})
		}
	}
	for _, p := range cs.Removed {
		for _, target := range targetsFor(m, p, manifestPath) {
			plan.Operations = append(plan.Operations, Operation{Kind: OpDelete, Source: p, Target: target})
		}
	}

	plan.ManifestOnly = manifestOnly(plan.Operations, manifestPath)
	return plan
}

func targetsFor(m *manifest.Manifest, p, manifestPath string) []string {
	if targets := m.Targets(p); targets != nil {
		return targets
	}
	if manifestPath != "" && strings.TrimPrefix(p, "./") == manifestPath {
		return []string{manifestPath}
	}
	return nil
}

func manifestOnly(ops []Operation, manifestPath string) bool {
	if len(ops) == 0 || manifestPath == "" {
		return false
	}
	for _, op := range ops {
		if op.Source != manifestPath {
			return false
		}
	}
	return true
}

// Package manifest loads and queries the sync manifest: the list of files in
// the parent repository that are eligible to propagate into the mirror.
//
// The manifest document is a YAML or JSON sequence. Each entry is either a
// bare path string, which syncs the file onto the same path in the mirror, or
// an explicit {source, target} record. Loading is fail-closed: a missing or
// malformed manifest yields an empty manifest where every lookup misses, so a
// broken document can never accidentally make everything eligible.
package manifest

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/chainguard-dev/clog"
	"gopkg.in/yaml.v3"
)

// Record maps one file in the parent repository to its destination in the
// mirror. A source may appear in multiple records to fan out to several
// targets.
type Record struct {
	Source string `yaml:"source"`
	Target string `yaml:"target"`
}

// UnmarshalYAML accepts either a bare path string or a source/target mapping.
// A bare string maps the path onto itself; a mapping without a target does
// the same.
func (r *Record) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var path string
		if err := node.Decode(&path); err != nil {
			return err
		}
		if path == "" {
			return fmt.Errorf("manifest entry is empty")
		}
		r.Source = normalizePath(path)
		r.Target = r.Source
		return nil
	case yaml.MappingNode:
		var raw struct {
			Source string `yaml:"source"`
			Target string `yaml:"target"`
		}
		if err := node.Decode(&raw); err != nil {
			return err
		}
		if raw.Source == "" {
			return fmt.Errorf("manifest entry is missing a source path")
		}
		r.Source = normalizePath(raw.Source)
		if raw.Target == "" {
			r.Target = r.Source
		} else {
			r.Target = normalizePath(raw.Target)
		}
		return nil
	default:
		return fmt.Errorf("manifest entry must be a path or a source/target mapping (line %d)", node.Line)
	}
}

// Manifest is the parsed sync manifest. It is loaded once per run and not
// mutated afterwards.
type Manifest struct {
	Records []Record
}

// Parse decodes a manifest document, returning structural problems as errors.
// Load and LoadAtRef translate those errors into the empty manifest; Parse is
// for callers that want to see them.
func Parse(data []byte) (*Manifest, error) {
	var records []Record
	if err := yaml.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	return &Manifest{Records: records}, nil
}

// Load reads the manifest at path on disk. A missing file or malformed
// document yields the empty manifest; the cause is logged, never returned.
func Load(ctx context.Context, path string) *Manifest {
	log := clog.FromContext(ctx)

	data, err := os.ReadFile(path)
	if err != nil {
		log.Warnf("manifest not readable at %s, nothing is eligible to sync: %v", path, err)
		return &Manifest{}
	}

	m, err := Parse(data)
	if err != nil {
		log.Warnf("ignoring malformed manifest at %s, nothing is eligible to sync: %v", path, err)
		return &Manifest{}
	}
	return m
}

// BlobReader reads a file's content as it exists at a version-control ref.
// *gitrepo.Repo satisfies it.
type BlobReader interface {
	ReadFileAtRef(ref, path string) ([]byte, error)
}

// LoadAtRef reads the manifest blob as it exists at a ref, typically the
// source PR head on the fetched parent remote. Same fail-closed behavior as
// Load: a missing blob or malformed document yields the empty manifest.
func LoadAtRef(ctx context.Context, r BlobReader, ref, path string) *Manifest {
	log := clog.FromContext(ctx)

	data, err := r.ReadFileAtRef(ref, path)
	if err != nil {
		log.Warnf("manifest not readable at %s:%s, nothing is eligible to sync: %v", ref, path, err)
		return &Manifest{}
	}

	m, err := Parse(data)
	if err != nil {
		log.Warnf("ignoring malformed manifest at %s:%s, nothing is eligible to sync: %v", ref, path, err)
		return &Manifest{}
	}
	return m
}

// Targets returns the mirror destinations declared for a parent path, in
// document order. It returns nil when the path is not listed.
func (m *Manifest) Targets(path string) []string {
	p := normalizePath(path)
	var targets []string
	for _, r := range m.Records {
		if r.Source == p {
			targets = append(targets, r.Target)
		}
	}
	return targets
}

// Len returns the number of records.
func (m *Manifest) Len() int {
	return len(m.Records)
}

// Paths returns the distinct source paths in document order.
func (m *Manifest) Paths() []string {
	seen := make(map[string]bool, len(m.Records))
	var paths []string
	for _, r := range m.Records {
		if seen[r.Source] {
			continue
		}
		seen[r.Source] = true
		paths = append(paths, r.Source)
	}
	return paths
}

// normalizePath strips an optional leading "./" so that manifest entries and
// queried paths compare on the same form.
func normalizePath(p string) string {
	return strings.TrimPrefix(p, "./")
}

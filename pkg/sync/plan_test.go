package sync

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/mirrorsync/mirrorsync/pkg/changeset"
	"github.com/mirrorsync/mirrorsync/pkg/manifest"
)

const planManifestPath = ".mirrorsync/manifest.yaml"

func mustParseManifest(t *testing.T, doc string) *manifest.Manifest {
	t.Helper()
	m, err := manifest.Parse([]byte(doc))
	if err != nil {
		t.Fatalf("Parse(%q) failed: %v", doc, err)
	}
	return m
}

func TestBuildPlan(t *testing.T) {
	tests := []struct {
		name         string
		doc          string
		cs           changeset.ChangeSet
		manifestPath string
		want         Plan
	}{
		{
			name:         "empty manifest yields empty plan",
			doc:          "",
			cs:           changeset.ChangeSet{Modified: []string{"lib/a.go", "docs/b.md"}},
			manifestPath: planManifestPath,
			want:         Plan{},
		},
		{
			name: "unlisted paths are ignored",
			doc:  "- lib/a.go\n",
			cs: changeset.ChangeSet{
				Modified: []string{"lib/a.go", "lib/unlisted.go"},
				Removed:  []string{"docs/unlisted.md"},
			},
			manifestPath: planManifestPath,
			want: Plan{
				Operations: []Operation{
					{Kind: OpWrite, Source: "lib/a.go", Target: "lib/a.go"},
				},
			},
		},
		{
			name:         "remapped target",
			doc:          "- source: lib/a.go\n  target: vendor/lib/a.go\n",
			cs:           changeset.ChangeSet{Modified: []string{"lib/a.go"}},
			manifestPath: planManifestPath,
			want: Plan{
				Operations: []Operation{
					{Kind: OpWrite, Source: "lib/a.go", Target: "vendor/lib/a.go"},
				},
			},
		},
		{
			name: "one source fans out to every listed target",
			doc: `
- source: lib/a.go
  target: first/a.go
- source: lib/a.go
  target: second/a.go
`,
			cs:           changeset.ChangeSet{Modified: []string{"lib/a.go"}},
			manifestPath: planManifestPath,
			want: Plan{
				Operations: []Operation{
					{Kind: OpWrite, Source: "lib/a.go", Target: "first/a.go"},
					{Kind: OpWrite, Source: "lib/a.go", Target: "second/a.go"},
				},
			},
		},
		{
			name: "removed paths yield deletes",
			doc:  "- lib/a.go\n- lib/b.go\n",
			cs: changeset.ChangeSet{
				Modified: []string{"lib/a.go"},
				Removed:  []string{"lib/b.go"},
			},
			manifestPath: planManifestPath,
			want: Plan{
				Operations: []Operation{
					{Kind: OpWrite, Source: "lib/a.go", Target: "lib/a.go"},
					{Kind: OpDelete, Source: "lib/b.go", Target: "lib/b.go"},
				},
			},
		},
		{
			name: "rename propagates as delete plus write",
			doc:  "- lib/old.go\n- lib/new.go\n",
			cs: changeset.ChangeSet{
				Modified: []string{"lib/new.go"},
				Removed:  []string{"lib/old.go"},
			},
			manifestPath: planManifestPath,
			want: Plan{
				Operations: []Operation{
					{Kind: OpWrite, Source: "lib/new.go", Target: "lib/new.go"},
					{Kind: OpDelete, Source: "lib/old.go", Target: "lib/old.go"},
				},
			},
		},
		{
			name:         "manifest file syncs itself without being listed",
			doc:          "- lib/a.go\n",
			cs:           changeset.ChangeSet{Modified: []string{planManifestPath}},
			manifestPath: planManifestPath,
			want: Plan{
				Operations: []Operation{
					{Kind: OpWrite, Source: planManifestPath, Target: planManifestPath},
				},
				ManifestOnly: true,
			},
		},
		{
			name:         "manifest path normalized before implicit match",
			doc:          "",
			cs:           changeset.ChangeSet{Modified: []string{planManifestPath}},
			manifestPath: "./" + planManifestPath,
			want: Plan{
				Operations: []Operation{
					{Kind: OpWrite, Source: planManifestPath, Target: planManifestPath},
				},
				ManifestOnly: true,
			},
		},
		{
			name:         "explicit manifest entry overrides the implicit one",
			doc:          "- source: .mirrorsync/manifest.yaml\n  target: config/manifest.yaml\n",
			cs:           changeset.ChangeSet{Modified: []string{planManifestPath}},
			manifestPath: planManifestPath,
			want: Plan{
				Operations: []Operation{
					{Kind: OpWrite, Source: planManifestPath, Target: "config/manifest.yaml"},
				},
				ManifestOnly: true,
			},
		},
		{
			name:         "manifest plus code is not manifest-only",
			doc:          "- lib/a.go\n",
			cs:           changeset.ChangeSet{Modified: []string{"lib/a.go", planManifestPath}},
			manifestPath: planManifestPath,
			want: Plan{
				Operations: []Operation{
					{Kind: OpWrite, Source: "lib/a.go", Target: "lib/a.go"},
					{Kind: OpWrite, Source: planManifestPath, Target: planManifestPath},
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := mustParseManifest(t, tt.doc)
			got := BuildPlan(m, tt.cs, tt.manifestPath)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("BuildPlan() mismatch (-want +got):\n%s", diff)
			}
			if got.IsEmpty() != (len(tt.want.Operations) == 0) {
				t.Errorf("IsEmpty() = %v, want %v", got.IsEmpty(), len(tt.want.Operations) == 0)
			}
		})
	}
}

func TestOperationString(t *testing.T) {
	op := Operation{Kind: OpWrite, Source: "lib/a.go", Target: "vendor/a.go"}
	if got, want := op.String(), "write lib/a.go -> vendor/a.go"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestParsePolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    Policy
		wantErr bool
	}{
		{in: "continue", want: PolicyContinue},
		{in: "reset", want: PolicyReset},
		{in: "Reset", want: PolicyReset},
		{in: "rebase", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePolicy(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParsePolicy(%q) = %q, want error", tt.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParsePolicy(%q) failed: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParsePolicy(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestBranchName(t *testing.T) {
	if got, want := BranchName("parent", 42), "auto-update-from-parent-pr-42"; got != want {
		t.Errorf("BranchName() = %q, want %q", got, want)
	}
}

package integration

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/rogpeppe/go-internal/testscript"
)

var (
	repoRoot      string
	mirrorsyncBin string
)

func TestMain(m *testing.M) {
	var err error
	repoRoot, err = findRepoRoot()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	binDir, err := os.MkdirTemp("", "mirrorsync-bin-*")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	mirrorsyncBin = filepath.Join(binDir, "mirrorsync")
	if runtime.GOOS == "windows" {
		mirrorsyncBin += ".exe"
	}

	cmd := exec.Command("go", "build", "-o", mirrorsyncBin, "./cmd/mirrorsync")
	cmd.Dir = repoRoot
	cmd.Env = append(os.Environ(), "CGO_ENABLED=0")
	if out, err := cmd.CombinedOutput(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to build mirrorsync: %v\n%s\n", err, string(out))
		_ = os.RemoveAll(binDir)
		os.Exit(2)
	}

	exitCode := m.Run()
	_ = os.RemoveAll(binDir)
	os.Exit(exitCode)
}

func TestIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration tests in short mode")
	}

	testscript.Run(t, testscript.Params{
		Dir: filepath.Join(repoRoot, "tests", "integration", "testdata"),
		Setup: func(env *testscript.Env) error {
			home := filepath.Join(env.WorkDir, "home")
			tmp := filepath.Join(env.WorkDir, "tmp")
			if err := os.MkdirAll(home, 0o755); err != nil {
				return err
			}
			if err := os.MkdirAll(tmp, 0o755); err != nil {
				return err
			}

			env.Setenv("HOME", home)
			env.Setenv("TMPDIR", tmp)
			env.Setenv("TEMP", tmp)
			env.Setenv("TMP", tmp)

			pathVar := os.Getenv("PATH")
			env.Setenv("PATH", filepath.Dir(mirrorsyncBin)+string(os.PathListSeparator)+pathVar)
			env.Setenv("MIRRORSYNC_BIN", mirrorsyncBin)
			return nil
		},
		Cmds: map[string]func(ts *testscript.TestScript, neg bool, args []string){
			// initrepo turns a directory of files from the script archive
			// into a git repository with a single commit on main, so copy
			// runs can clone from and push to plain local paths.
			"initrepo": cmdInitRepo,
			// headmsg asserts the first line of the HEAD commit message of
			// a repository directory.
			"headmsg": cmdHeadMsg,
		},
	})
}

func cmdInitRepo(ts *testscript.TestScript, neg bool, args []string) {
	if neg || len(args) != 1 {
		ts.Fatalf("usage: initrepo dir")
	}
	dir := ts.MkAbs(args[0])

	repo, err := git.PlainInit(dir, false)
	ts.Check(err)
	// go-git initializes HEAD to master; the tool expects main.
	ts.Check(repo.Storer.SetReference(plumbing.NewSymbolicReference(plumbing.HEAD, plumbing.NewBranchReferenceName("main"))))
	// Fixtures are non-bare with main checked out; stock git refuses
	// pushes to the checked-out branch unless the repo opts in.
	cfg, err := repo.Config()
	ts.Check(err)
	cfg.Raw.Section("receive").SetOption("denyCurrentBranch", "updateInstead")
	ts.Check(repo.SetConfig(cfg))

	wt, err := repo.Worktree()
	ts.Check(err)
	ts.Check(wt.AddWithOptions(&git.AddOptions{All: true}))
	_, err = wt.Commit("initial", &git.CommitOptions{
		Author: &object.Signature{Name: "Fixture", Email: "fixture@example.com", When: time.Now()},
	})
	ts.Check(err)
}

func cmdHeadMsg(ts *testscript.TestScript, neg bool, args []string) {
	if len(args) != 2 {
		ts.Fatalf("usage: headmsg dir message")
	}

	repo, err := git.PlainOpen(ts.MkAbs(args[0]))
	ts.Check(err)
	head, err := repo.Head()
	ts.Check(err)
	commit, err := repo.CommitObject(head.Hash())
	ts.Check(err)

	got, _, _ := strings.Cut(strings.TrimSpace(commit.Message), "\n")
	if (got == args[1]) == neg {
		ts.Fatalf("HEAD commit message %q, want %q", got, args[1])
	}
}

func findRepoRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", fmt.Errorf("unable to locate repo root (go.mod not found)")
}

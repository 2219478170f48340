package git

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// externalBackend implements the backend interface by shelling out to the git CLI.
type externalBackend struct {
	path string // absolute path to repository root
}

// newExternalBackend creates an externalBackend that shells out to the git CLI.
// validates the path is inside a git repository using git rev-parse.
func newExternalBackend(path string) (*externalBackend, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve path: %w", err)
	}

	// validate path is a git repo and get the toplevel
	cmd := exec.CommandContext(context.Background(), "git", "rev-parse", "--show-toplevel")
	cmd.Dir = absPath
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
			return nil, fmt.Errorf("open git repository %s: %s", absPath, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return nil, fmt.Errorf("open git repository %s: %w", absPath, err)
	}

	root := strings.TrimSpace(string(out))

	// resolve symlinks for consistent path comparison (macOS /var -> /private/var)
	root, err = filepath.EvalSymlinks(root)
	if err != nil {
		return nil, fmt.Errorf("eval symlinks: %w", err)
	}

	return &externalBackend{path: root}, nil
}

// run executes a git command and returns combined stdout+stderr with trailing whitespace removed.
// leading whitespace is preserved (important for porcelain format parsing).
// on failure, returns error with the combined output for diagnostics.
func (e *externalBackend) run(args ...string) (string, error) {
	cmd := exec.CommandContext(context.Background(), "git", args...)
	cmd.Dir = e.path
	out, err := cmd.CombinedOutput()
	if err != nil {
		msg := strings.TrimSpace(string(out))
		if msg != "" {
			return "", fmt.Errorf("git %s: %s", args[0], msg)
		}
		return "", fmt.Errorf("git %s: %w", args[0], err)
	}
	return strings.TrimRight(string(out), " \t\n\r"), nil
}

// compile-time check: externalBackend must satisfy the backend interface
var _ backend = (*externalBackend)(nil)

// Root returns the absolute path to the repository root.
func (e *externalBackend) Root() string {
	return e.path
}

// CurrentBranch returns the name of the current branch, or empty string for detached HEAD.
func (e *externalBackend) CurrentBranch() (string, error) {
	cmd := exec.CommandContext(context.Background(), "git", "symbolic-ref", "--short", "HEAD")
	cmd.Dir = e.path
	cmd.Env = append(os.Environ(), "LC_ALL=C") // force English stderr for reliable parsing
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() == 128 {
			// only treat as "detached HEAD" when stderr indicates symbolic-ref failure;
			// other exit-128 causes (corruption, permission errors) should propagate as errors
			stderr := strings.ToLower(string(exitErr.Stderr))
			if strings.Contains(stderr, "not a symbolic ref") {
				return "", nil // detached HEAD (symbolic-ref fails when not on a branch)
			}
			return "", fmt.Errorf("get current branch: %s", strings.TrimSpace(string(exitErr.Stderr)))
		}
		return "", fmt.Errorf("get current branch: %w", err) // unexpected exit code or exec failure
	}
	return strings.TrimSpace(string(out)), nil
}

// GetDefaultBranch returns the default branch name.
// detects from origin/HEAD symbolic reference, falls back to checking common branch names.
func (e *externalBackend) GetDefaultBranch() string {
	// try origin/HEAD first
	cmd := exec.CommandContext(context.Background(), "git", "symbolic-ref", "refs/remotes/origin/HEAD")
	cmd.Dir = e.path
	out, err := cmd.Output()
	if err == nil {
		ref := strings.TrimSpace(string(out))
		// ref is like "refs/remotes/origin/main"
		if strings.HasPrefix(ref, "refs/remotes/origin/") {
			branchName := ref[len("refs/remotes/origin/"):]

			// check if local branch exists
			if e.refExists("refs/heads/" + branchName) {
				return branchName
			}
			// local branch doesn't exist, return remote-tracking ref
			return "origin/" + branchName
		}
	}

	// fallback: check which common branch names exist
	for _, name := range []string{"main", "master", "trunk", "develop"} {
		if e.refExists("refs/heads/" + name) {
			return name
		}
	}

	return "master"
}

// CommittedSince returns files changed in commits after the merge base
// with base. Returns nil when base cannot be resolved (single-branch
// repos have nothing committed "since" anything).
func (e *externalBackend) CommittedSince(base string) ([]string, error) {
	baseRef := e.resolveRef(base)
	if baseRef == "" {
		return nil, nil
	}

	out, err := e.run("diff", "--name-only", baseRef+"...HEAD")
	if err != nil {
		return nil, fmt.Errorf("diff name-only: %w", err)
	}
	if out == "" {
		return nil, nil
	}

	var files []string
	for line := range strings.SplitSeq(out, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			files = append(files, line)
		}
	}
	return files, nil
}

// UncommittedFiles returns files with uncommitted changes: modified or
// staged tracked files plus untracked files not covered by gitignore.
func (e *externalBackend) UncommittedFiles() ([]string, error) {
	// -uall lists individual untracked files, not collapsed directories
	out, err := e.run("status", "--porcelain", "-uall")
	if err != nil {
		return nil, fmt.Errorf("get status: %w", err)
	}
	if out == "" {
		return nil, nil
	}

	var files []string
	for line := range strings.SplitSeq(out, "\n") {
		if line == "" {
			continue
		}
		if path := extractPathFromPorcelain(line); path != "" {
			files = append(files, path)
		}
	}
	return files, nil
}

// resolveRef tries to resolve a branch name to a valid git ref.
// checks local branch, remote tracking (origin/<name>), and as-is for "origin/" prefixed names.
func (e *externalBackend) resolveRef(branchName string) string {
	// try local branch
	if e.refExists("refs/heads/" + branchName) {
		return branchName
	}

	// try remote tracking branch
	if e.refExists("refs/remotes/origin/" + branchName) {
		return "origin/" + branchName
	}

	// try as-is for "origin/" prefixed names
	if strings.HasPrefix(branchName, "origin/") {
		remoteName := branchName[7:]
		if e.refExists("refs/remotes/origin/" + remoteName) {
			return branchName
		}
	}

	return ""
}

// refExists checks if a git reference exists.
func (e *externalBackend) refExists(ref string) bool {
	cmd := exec.CommandContext(context.Background(), "git", "show-ref", "--verify", "--quiet", ref)
	cmd.Dir = e.path
	return cmd.Run() == nil
}

// extractPathFromPorcelain extracts file path from git status --porcelain output.
// format: "XY path" or "XY original -> renamed"
func extractPathFromPorcelain(line string) string {
	if len(line) < 4 {
		return ""
	}
	// skip the 2-char status code and space
	path := line[3:]
	// handle renames: "XY old -> new"
	if idx := strings.Index(path, " -> "); idx >= 0 {
		path = path[idx+4:]
	}
	return path
}

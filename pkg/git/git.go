// Package git detects changed files for selective suite runs. It wraps
// the git CLI behind a small backend interface so tests can substitute
// fixture repositories.
package git

import (
	"fmt"
	"sort"
)

// backend abstracts git operations so Repo can be tested against fixture repos.
type backend interface {
	Root() string
	CurrentBranch() (string, error)
	GetDefaultBranch() string
	CommittedSince(base string) ([]string, error)
	UncommittedFiles() ([]string, error)
}

// Repo provides changed-file detection over a git repository.
type Repo struct {
	backend backend
}

// Open opens the repository containing path.
func Open(path string) (*Repo, error) {
	eb, err := newExternalBackend(path)
	if err != nil {
		return nil, err
	}
	return &Repo{backend: eb}, nil
}

// Root returns the absolute path to the repository root.
func (r *Repo) Root() string {
	return r.backend.Root()
}

// CurrentBranch returns the current branch name, empty for detached HEAD.
func (r *Repo) CurrentBranch() (string, error) {
	return r.backend.CurrentBranch()
}

// DefaultBranch returns the default branch name, detected from
// origin/HEAD with a fallback to common branch names.
func (r *Repo) DefaultBranch() string {
	return r.backend.GetDefaultBranch()
}

// ChangedFiles returns paths (relative to the repository root) changed
// since base: files committed after the merge base plus uncommitted
// changes, deduplicated and sorted. Empty base uses the default branch.
func (r *Repo) ChangedFiles(base string) ([]string, error) {
	if base == "" {
		base = r.backend.GetDefaultBranch()
	}

	committed, err := r.backend.CommittedSince(base)
	if err != nil {
		return nil, fmt.Errorf("committed files since %s: %w", base, err)
	}

	uncommitted, err := r.backend.UncommittedFiles()
	if err != nil {
		return nil, fmt.Errorf("uncommitted files: %w", err)
	}

	seen := make(map[string]struct{})
	var out []string
	for _, f := range append(committed, uncommitted...) {
		if f == "" {
			continue
		}
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	sort.Strings(out)
	return out, nil
}

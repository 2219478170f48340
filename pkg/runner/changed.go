package runner

import (
	"fmt"
	"sort"
	"strings"

	"github.com/umputun/vizcheck/pkg/demo"
	"github.com/umputun/vizcheck/pkg/git"
)

// changedPattern derives a -run pattern from the files changed since the
// default branch (committed plus uncommitted). Changes touching shared
// code run everything (empty pattern, runAll true); changes mapping only
// to specific demos narrow the run; no relevant changes skip it.
func changedPattern(dir string) (pattern string, runAll bool, err error) {
	repo, err := git.Open(dir)
	if err != nil {
		return "", false, fmt.Errorf("open repo: %w", err)
	}

	files, err := repo.ChangedFiles("")
	if err != nil {
		return "", false, fmt.Errorf("changed files: %w", err)
	}

	pattern, runAll = derivePattern(files, demo.Names())
	return pattern, runAll, nil
}

// PatternFor builds a -run pattern for explicitly named demos,
// validating each against the registry.
func PatternFor(names []string) (string, error) {
	parts := make([]string, 0, len(names))
	for _, name := range names {
		if _, ok := demo.Find(name); !ok {
			return "", fmt.Errorf("unknown demo %q, see --list", name)
		}
		parts = append(parts, camelName(name))
	}
	if len(parts) == 0 {
		return "", nil
	}
	sort.Strings(parts)
	return runPattern(parts), nil
}

// derivePattern maps changed paths to suite names. Exposed for tests
// with synthetic file lists.
func derivePattern(files, known []string) (pattern string, runAll bool) {
	names := map[string]struct{}{}
	for _, f := range files {
		name, ok := demoNameFromPath(f, known)
		if ok {
			names[name] = struct{}{}
			continue
		}
		if isSharedPath(f) {
			return "", true
		}
	}

	if len(names) == 0 {
		return "", false
	}

	parts := make([]string, 0, len(names))
	for name := range names {
		parts = append(parts, camelName(name))
	}
	sort.Strings(parts)
	return runPattern(parts), false
}

// runPattern assembles the -run regex for the given suite names. Both
// anchors matter: go test matches the top-level name segment anywhere,
// so without the $ BinarySearch would also select BinarySearchTree.
// Subtests still run, -run constrains segments individually.
func runPattern(parts []string) string {
	return "^Test(" + strings.Join(parts, "|") + ")$"
}

// demoNameFromPath maps a changed file to a registry demo name: its
// suite file, its page, or its doc.
func demoNameFromPath(path string, known []string) (string, bool) {
	var name string
	switch {
	case strings.HasPrefix(path, "e2e/") && strings.HasSuffix(path, "_test.go"):
		name = strings.TrimSuffix(strings.TrimPrefix(path, "e2e/"), "_test.go")
	case strings.HasPrefix(path, "pkg/server/pages/") && strings.HasSuffix(path, ".html"):
		name = strings.TrimSuffix(strings.TrimPrefix(path, "pkg/server/pages/"), ".html")
	case strings.HasPrefix(path, "pkg/demo/docs/") && strings.HasSuffix(path, ".md"):
		name = strings.TrimSuffix(strings.TrimPrefix(path, "pkg/demo/docs/"), ".md")
	default:
		return "", false
	}

	for _, k := range known {
		if k == name {
			return name, true
		}
	}
	return "", false
}

// isSharedPath reports whether a change affects all suites: the harness,
// the server, the registry code, e2e scaffolding, or the module files.
func isSharedPath(path string) bool {
	switch {
	case strings.HasPrefix(path, "pkg/harness/"),
		strings.HasPrefix(path, "pkg/server/") && strings.HasSuffix(path, ".go"),
		strings.HasPrefix(path, "pkg/demo/") && strings.HasSuffix(path, ".go"),
		strings.HasPrefix(path, "e2e/") && strings.HasSuffix(path, ".go"),
		path == "go.mod", path == "go.sum":
		return true
	}
	return false
}

// camelName converts a kebab-case demo name to the suite name form,
// bubble-sort to BubbleSort.
func camelName(name string) string {
	parts := strings.Split(name, "-")
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, "")
}

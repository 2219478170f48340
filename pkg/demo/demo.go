// Package demo holds the registry of visualizer demo pages, built from
// embedded markdown docs. Each doc carries YAML frontmatter (title,
// file, category, broken) and a hand-written description of the page's
// states and transitions that the browser suites are designed against.
package demo

import (
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed docs
var docsFS embed.FS

// Demo describes one visualizer page under test.
type Demo struct {
	Name     string // registry key, doc filename without extension
	Title    string
	File     string // HTML file served under /demos/
	Category string
	Broken   bool   // page is deliberately buggy, its suite expects errors
	Doc      string // markdown body describing the page's states and transitions
}

// frontmatter is the YAML header of a doc file.
type frontmatter struct {
	Title    string `yaml:"title"`
	File     string `yaml:"file"`
	Category string `yaml:"category"`
	Broken   bool   `yaml:"broken"`
}

var (
	loadOnce sync.Once
	loaded   []Demo
	loadErr  error
)

// Load parses the embedded docs into the registry, sorted by category
// then name. The result is cached across calls.
func Load() ([]Demo, error) {
	loadOnce.Do(func() {
		loaded, loadErr = parseAll(docsFS)
	})
	return loaded, loadErr
}

// Find returns the demo with the given registry name.
func Find(name string) (Demo, bool) {
	demos, err := Load()
	if err != nil {
		return Demo{}, false
	}
	for _, d := range demos {
		if d.Name == name {
			return d, true
		}
	}
	return Demo{}, false
}

// Names returns all registry names sorted by category then name,
// matching Load order.
func Names() []string {
	demos, err := Load()
	if err != nil {
		return nil
	}
	names := make([]string, len(demos))
	for i, d := range demos {
		names[i] = d.Name
	}
	return names
}

func parseAll(fsys fs.FS) ([]Demo, error) {
	entries, err := fs.ReadDir(fsys, "docs")
	if err != nil {
		return nil, fmt.Errorf("read docs dir: %w", err)
	}

	var demos []Demo
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".md") {
			continue
		}
		content, err := fs.ReadFile(fsys, "docs/"+e.Name())
		if err != nil {
			return nil, fmt.Errorf("read doc %s: %w", e.Name(), err)
		}
		d, err := parseDoc(strings.TrimSuffix(e.Name(), ".md"), string(content))
		if err != nil {
			return nil, err
		}
		demos = append(demos, d)
	}

	sort.Slice(demos, func(i, j int) bool {
		if demos[i].Category != demos[j].Category {
			return demos[i].Category < demos[j].Category
		}
		return demos[i].Name < demos[j].Name
	})
	return demos, nil
}

// parseDoc splits YAML frontmatter from the markdown body and validates
// required fields. format: ---\n<yaml>\n---\n<body>
func parseDoc(name, content string) (Demo, error) {
	if !strings.HasPrefix(content, "---\n") {
		return Demo{}, fmt.Errorf("doc %s: missing frontmatter", name)
	}

	end := strings.Index(content[4:], "\n---")
	if end == -1 {
		return Demo{}, fmt.Errorf("doc %s: unterminated frontmatter", name)
	}

	header := content[4 : 4+end]
	body := strings.TrimSpace(content[4+end+4:])

	var fm frontmatter
	if err := yaml.Unmarshal([]byte(header), &fm); err != nil {
		return Demo{}, fmt.Errorf("doc %s: parse frontmatter: %w", name, err)
	}

	if fm.Title == "" {
		return Demo{}, fmt.Errorf("doc %s: title is required", name)
	}
	if !strings.HasSuffix(fm.File, ".html") {
		return Demo{}, fmt.Errorf("doc %s: file %q must be an .html page", name, fm.File)
	}
	if fm.Category == "" {
		return Demo{}, fmt.Errorf("doc %s: category is required", name)
	}

	return Demo{
		Name:     name,
		Title:    fm.Title,
		File:     fm.File,
		Category: fm.Category,
		Broken:   fm.Broken,
		Doc:      body,
	}, nil
}

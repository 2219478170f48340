package server

import (
	"bytes"
	"embed"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
)

//go:embed pages
var pagesFS embed.FS

// reloadSnippet is injected before </body> in watch mode so open tabs
// reload when a page file changes. Default serving stays byte-pristine:
// the suites assert exact DOM and must not see injected markup.
const reloadSnippet = `<script>new EventSource("/events").addEventListener("reload",function(){location.reload()})</script>`

// handlePage serves one demo page from the override directory when set,
// falling back to the embedded copies.
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(r.URL.Path, "/demos/")
	if name == "" || name != path.Base(name) || !strings.HasSuffix(name, ".html") {
		http.NotFound(w, r)
		return
	}

	content, err := s.pageBytes(name)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	if s.cfg.Watch {
		content = injectReload(content)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(content)
}

func (s *Server) pageBytes(name string) ([]byte, error) {
	if s.cfg.Dir != "" {
		return os.ReadFile(filepath.Join(s.cfg.Dir, name)) //nolint:gosec // name validated against path.Base above
	}
	return pagesFS.ReadFile("pages/" + name)
}

// injectReload inserts the reload snippet before the closing body tag,
// appending it at the end when the page has no such tag.
func injectReload(content []byte) []byte {
	idx := bytes.LastIndex(content, []byte("</body>"))
	if idx == -1 {
		return append(content, []byte(reloadSnippet)...)
	}
	out := make([]byte, 0, len(content)+len(reloadSnippet))
	out = append(out, content[:idx]...)
	out = append(out, []byte(reloadSnippet)...)
	out = append(out, content[idx:]...)
	return out
}

package harness

import (
	"strings"
	"sync"
)

// ErrorKind classifies a captured page error by its JS error type.
type ErrorKind string

const (
	KindReference ErrorKind = "ReferenceError"
	KindType      ErrorKind = "TypeError"
	KindSyntax    ErrorKind = "SyntaxError"
	KindRange     ErrorKind = "RangeError"
	KindOther     ErrorKind = "Error"
)

// ParseErrorKind extracts the error kind from an uncaught-error text.
// Playwright reports page errors as "ReferenceError: x is not defined"
// style strings; anything without a known prefix is KindOther.
func ParseErrorKind(text string) ErrorKind {
	for _, k := range []ErrorKind{KindReference, KindType, KindSyntax, KindRange} {
		if strings.HasPrefix(text, string(k)) {
			return k
		}
	}
	return KindOther
}

// ConsoleRecord is one captured console message.
type ConsoleRecord struct {
	Type string // "log", "warning", "error", ...
	Text string
}

// PageError is one captured uncaught page exception.
type PageError struct {
	Kind ErrorKind
	Text string
}

func normalizeError(err error) PageError {
	text := strings.TrimSpace(err.Error())
	return PageError{Kind: ParseErrorKind(text), Text: text}
}

// eventLog accumulates console messages and page errors under a mutex;
// playwright delivers events from its own goroutine.
type eventLog struct {
	mu       sync.Mutex
	console  []ConsoleRecord
	pageErrs []PageError
}

func (l *eventLog) addConsole(rec ConsoleRecord) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.console = append(l.console, rec)
}

func (l *eventLog) addPageError(e PageError) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pageErrs = append(l.pageErrs, e)
}

func (l *eventLog) consoleByType(typ string) []ConsoleRecord {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []ConsoleRecord
	for _, rec := range l.console {
		if typ == "" || rec.Type == typ {
			out = append(out, rec)
		}
	}
	return out
}

func (l *eventLog) errors() []PageError {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]PageError, len(l.pageErrs))
	copy(out, l.pageErrs)
	return out
}

// ConsoleMessages returns every console message captured so far.
func (p *Page) ConsoleMessages() []ConsoleRecord {
	return p.events.consoleByType("")
}

// ConsoleErrors returns captured console messages of type "error".
func (p *Page) ConsoleErrors() []ConsoleRecord {
	return p.events.consoleByType("error")
}

// PageErrors returns captured uncaught page exceptions.
func (p *Page) PageErrors() []PageError {
	return p.events.errors()
}

// RequireNoErrors fails the test when any console error or page error
// was captured. Strict pages run it automatically via cleanup.
func (p *Page) RequireNoErrors() {
	p.t.Helper()
	for _, e := range p.PageErrors() {
		p.t.Errorf("page %s: unexpected page error: %s", p.id, e.Text)
	}
	for _, c := range p.ConsoleErrors() {
		p.t.Errorf("page %s: unexpected console error: %s", p.id, c.Text)
	}
}

// RequirePageError asserts that a page error of the given kind with the
// given message substring was captured, polling for it first since page
// errors arrive asynchronously.
func (p *Page) RequirePageError(kind ErrorKind, substr string) {
	p.t.Helper()
	p.Eventually(func() bool {
		for _, e := range p.PageErrors() {
			if e.Kind == kind && strings.Contains(e.Text, substr) {
				return true
			}
		}
		return false
	}, "expected %s containing %q, got %v", kind, substr, p.PageErrors())
}

package harness

import (
	"testing"

	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/require"
)

// Page wraps one playwright page in its own browser context. Action
// methods resolve locators per call, so they keep working after the page
// re-renders its DOM wholesale. Failures terminate the test via require.
type Page struct {
	t       *testing.T
	pw      playwright.Page
	ctx     playwright.BrowserContext
	id      string // short id correlating this page's log lines
	timeout float64

	dialogs *dialogLog
	events  *eventLog
}

// ID returns the page's correlation id.
func (p *Page) ID() string {
	return p.id
}

// Raw returns the underlying playwright page for cases the wrapper does
// not cover.
func (p *Page) Raw() playwright.Page {
	return p.pw
}

// Open navigates to the URL and waits for the load event.
func (p *Page) Open(url string) {
	p.t.Helper()
	p.t.Logf("page %s: open %s", p.id, url)
	_, err := p.pw.Goto(url, playwright.PageGotoOptions{WaitUntil: playwright.WaitUntilStateLoad})
	require.NoError(p.t, err, "open %s", url)
}

// Reload reloads the page and waits for the load event.
func (p *Page) Reload() {
	p.t.Helper()
	_, err := p.pw.Reload(playwright.PageReloadOptions{WaitUntil: playwright.WaitUntilStateLoad})
	require.NoError(p.t, err, "reload")
}

// Locator resolves a selector on the current DOM.
func (p *Page) Locator(selector string) playwright.Locator {
	return p.pw.Locator(selector)
}

// Click clicks the element matching the selector.
func (p *Page) Click(selector string) {
	p.t.Helper()
	require.NoError(p.t, p.pw.Locator(selector).Click(), "click %s", selector)
}

// Fill replaces the input value of the element matching the selector.
func (p *Page) Fill(selector, value string) {
	p.t.Helper()
	require.NoError(p.t, p.pw.Locator(selector).Fill(value), "fill %s", selector)
}

// Press sends a key press to the element matching the selector.
func (p *Page) Press(selector, key string) {
	p.t.Helper()
	require.NoError(p.t, p.pw.Locator(selector).Press(key), "press %s on %s", key, selector)
}

// Text returns the text content of the element matching the selector.
func (p *Page) Text(selector string) string {
	p.t.Helper()
	text, err := p.pw.Locator(selector).TextContent()
	require.NoError(p.t, err, "text content of %s", selector)
	return text
}

// Count returns the number of elements matching the selector.
func (p *Page) Count(selector string) int {
	p.t.Helper()
	count, err := p.pw.Locator(selector).Count()
	require.NoError(p.t, err, "count %s", selector)
	return count
}

// Attr returns an attribute of the element matching the selector, empty
// string when the attribute is absent.
func (p *Page) Attr(selector, name string) string {
	p.t.Helper()
	val, err := p.pw.Locator(selector).GetAttribute(name)
	require.NoError(p.t, err, "attribute %s of %s", name, selector)
	return val
}

// InputValue returns the current value of the input matching the selector.
func (p *Page) InputValue(selector string) string {
	p.t.Helper()
	val, err := p.pw.Locator(selector).InputValue()
	require.NoError(p.t, err, "input value of %s", selector)
	return val
}

// Title returns the document title.
func (p *Page) Title() string {
	p.t.Helper()
	title, err := p.pw.Title()
	require.NoError(p.t, err, "page title")
	return title
}

// Eval evaluates a JS expression in the page and returns its result.
func (p *Page) Eval(expression string) any {
	p.t.Helper()
	result, err := p.pw.Evaluate(expression)
	require.NoError(p.t, err, "evaluate %s", expression)
	return result
}

// EvalBool evaluates a JS expression expecting a boolean result.
func (p *Page) EvalBool(expression string) bool {
	p.t.Helper()
	result := p.Eval(expression)
	b, ok := result.(bool)
	require.True(p.t, ok, "expected bool from %s, got %T", expression, result)
	return b
}

package harness

import (
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/require"
)

const (
	// polling intervals for condition-based waits (replaces time.Sleep).
	pollTimeout      = 5 * time.Second
	pollInterval     = 100 * time.Millisecond
	longPollTimeout  = 15 * time.Second
	longPollInterval = 500 * time.Millisecond

	defaultActionTimeout = float64(longPollTimeout / time.Millisecond)
)

// hasClass checks if classAttr contains the exact CSS class token.
// uses strings.Fields for exact token matching to avoid false positives
// (e.g. "bar-sorted" matching "sorted").
func hasClass(classAttr, class string) bool {
	for _, c := range strings.Fields(classAttr) {
		if c == class {
			return true
		}
	}
	return false
}

// Eventually polls cond until it returns true or the standard poll
// timeout expires, failing the test on timeout.
func (p *Page) Eventually(cond func() bool, msgAndArgs ...any) {
	p.t.Helper()
	require.Eventually(p.t, cond, pollTimeout, pollInterval, msgAndArgs...)
}

// EventuallyLong is Eventually with the long timeout, for conditions
// driven by page-side timers or animations.
func (p *Page) EventuallyLong(cond func() bool, msgAndArgs ...any) {
	p.t.Helper()
	require.Eventually(p.t, cond, longPollTimeout, longPollInterval, msgAndArgs...)
}

// WaitVisible waits for the first element matching the selector to
// become visible.
func (p *Page) WaitVisible(selector string) {
	p.t.Helper()
	err := p.pw.Locator(selector).First().WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: playwright.Float(float64(longPollTimeout / time.Millisecond)),
	})
	require.NoError(p.t, err, "wait for %s to be visible", selector)
}

// WaitHidden waits for the first element matching the selector to
// become hidden or detached.
func (p *Page) WaitHidden(selector string) {
	p.t.Helper()
	err := p.pw.Locator(selector).First().WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateHidden,
		Timeout: playwright.Float(float64(longPollTimeout / time.Millisecond)),
	})
	require.NoError(p.t, err, "wait for %s to be hidden", selector)
}

// WaitForText polls until the element's text content equals expected.
func (p *Page) WaitForText(selector, expected string) {
	p.t.Helper()
	require.Eventually(p.t, func() bool {
		text, err := p.pw.Locator(selector).TextContent()
		return err == nil && text == expected
	}, longPollTimeout, pollInterval, "%s should have text %q", selector, expected)
}

// WaitForTextContains polls until the element's text content contains
// substr.
func (p *Page) WaitForTextContains(selector, substr string) {
	p.t.Helper()
	require.Eventually(p.t, func() bool {
		text, err := p.pw.Locator(selector).TextContent()
		return err == nil && strings.Contains(text, substr)
	}, longPollTimeout, pollInterval, "%s text should contain %q", selector, substr)
}

// WaitForCount polls until the number of matching elements equals
// expected. Uses the long timeout, re-renders can be slow.
func (p *Page) WaitForCount(selector string, expected int) {
	p.t.Helper()
	require.Eventually(p.t, func() bool {
		count, err := p.pw.Locator(selector).Count()
		return err == nil && count == expected
	}, longPollTimeout, longPollInterval, "expected %d elements matching %s", expected, selector)
}

// WaitForClass polls until the element's class attribute contains the
// exact token.
func (p *Page) WaitForClass(selector, class string) {
	p.t.Helper()
	require.Eventually(p.t, func() bool {
		c, err := p.pw.Locator(selector).GetAttribute("class")
		return err == nil && hasClass(c, class)
	}, pollTimeout, pollInterval, "%s should have class %q", selector, class)
}

// WaitForClassGone polls until the element's class attribute no longer
// contains the exact token.
func (p *Page) WaitForClassGone(selector, class string) {
	p.t.Helper()
	require.Eventually(p.t, func() bool {
		c, err := p.pw.Locator(selector).GetAttribute("class")
		return err == nil && !hasClass(c, class)
	}, pollTimeout, pollInterval, "%s should not have class %q", selector, class)
}

// WaitInputValue polls until the input's value equals expected.
func (p *Page) WaitInputValue(selector, expected string) {
	p.t.Helper()
	require.Eventually(p.t, func() bool {
		v, err := p.pw.Locator(selector).InputValue()
		return err == nil && v == expected
	}, pollTimeout, pollInterval, "%s should have value %q", selector, expected)
}

// WaitFor blocks until the JS expression evaluates truthy in the page.
// Returns immediately when the condition already holds, so re-invoking
// an already-satisfied wait is free. Timeout is a hard failure.
func (p *Page) WaitFor(jsExpr string) {
	p.t.Helper()
	_, err := p.pw.WaitForFunction(jsExpr, nil, playwright.PageWaitForFunctionOptions{
		Timeout: playwright.Float(float64(pollTimeout / time.Millisecond)),
	})
	require.NoError(p.t, err, "wait for %s", jsExpr)
}

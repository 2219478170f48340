package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMarkdown(t *testing.T) {
	t.Run("styled output differs from source", func(t *testing.T) {
		doc := "# Bubble Sort\n\nswaps **adjacent** pairs."
		out := Markdown(doc, false)
		assert.NotEqual(t, doc, out)
		assert.Contains(t, out, "Bubble Sort")
		assert.Contains(t, out, "adjacent")
	})

	t.Run("plain returns content untouched", func(t *testing.T) {
		doc := "# Bubble Sort\n\nswaps **adjacent** pairs."
		assert.Equal(t, doc, Markdown(doc, true))
	})

	t.Run("empty content", func(t *testing.T) {
		assert.Empty(t, strings.TrimSpace(Markdown("", false)))
	})

	t.Run("code blocks survive", func(t *testing.T) {
		out := Markdown("```js\nfunction run() {}\n```", false)
		assert.Contains(t, out, "function")
		assert.Contains(t, out, "run")
	})

	t.Run("lists survive", func(t *testing.T) {
		out := Markdown("- push\n- pop\n- peek", false)
		for _, item := range []string{"push", "pop", "peek"} {
			assert.Contains(t, out, item)
		}
	})
}

func TestWrapWidth(t *testing.T) {
	// tests run without a tty, the cap is the fallback
	assert.Equal(t, maxWidth, wrapWidth())
}

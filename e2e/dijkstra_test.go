//go:build e2e

package e2e

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/vizcheck/pkg/harness"
)

// dijkstra page: #edges textarea with "a b weight" lines, #source
// input, #run renders one "v: d" .row per vertex in name order under
// #distances, with ∞ for unreachable vertices. Negative weights and
// unknown sources raise alerts.
type dijkstraPage struct {
	*harness.Page
	t *testing.T
}

func openDijkstra(t *testing.T) dijkstraPage {
	t.Helper()
	return dijkstraPage{Page: openDemo(t, "dijkstra.html"), t: t}
}

func (p dijkstraPage) rows() []string {
	raw, ok := p.Eval(`[...document.querySelectorAll('#distances .row')].map(el => el.textContent)`).([]any)
	require.True(p.t, ok, "expected array of distance rows")
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		out = append(out, v.(string))
	}
	return out
}

func TestDijkstra(t *testing.T) {
	t.Run("initial state", func(t *testing.T) {
		p := openDijkstra(t)

		p.WaitVisible("#edges")
		assert.Equal(t, 0, p.Count("#distances .row"))
	})

	t.Run("default graph shortest paths from a", func(t *testing.T) {
		p := openDijkstra(t)

		p.Click("#run")
		p.WaitForCount("#distances .row", 6)

		// b goes through c (1+2=3), d through b (3+5=8), e/f unreachable
		assert.Equal(t, []string{"a: 0", "b: 3", "c: 1", "d: 8", "e: ∞", "f: ∞"}, p.rows())
	})

	t.Run("source in the other component", func(t *testing.T) {
		p := openDijkstra(t)

		p.Fill("#source", "e")
		p.Click("#run")
		p.WaitForCount("#distances .row", 6)
		assert.Equal(t, []string{"a: ∞", "b: ∞", "c: ∞", "d: ∞", "e: 0", "f: 3"}, p.rows())
	})

	t.Run("custom edges replace the default graph", func(t *testing.T) {
		p := openDijkstra(t)

		p.Fill("#edges", "x y 7\ny z 2")
		p.Fill("#source", "x")
		p.Click("#run")
		p.WaitForCount("#distances .row", 3)
		assert.Equal(t, []string{"x: 0", "y: 7", "z: 9"}, p.rows())
	})

	t.Run("negative weight alerts", func(t *testing.T) {
		p := openDijkstra(t)

		p.Fill("#edges", "a b -4")
		p.Click("#run")
		p.WaitForDialog(1)

		last, ok := p.LastDialog()
		require.True(t, ok)
		assert.Equal(t, "Weights must be non-negative.", last.Message)
		assert.Equal(t, 0, p.Count("#distances .row"))
	})

	t.Run("unknown source alerts", func(t *testing.T) {
		p := openDijkstra(t)

		p.Fill("#source", "zzz")
		p.Click("#run")
		p.WaitForDialog(1)

		last, ok := p.LastDialog()
		require.True(t, ok)
		assert.Equal(t, "Source node not in graph.", last.Message)
	})
}

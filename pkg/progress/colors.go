package progress

import (
	"strconv"
	"strings"

	"github.com/fatih/color"

	"github.com/umputun/vizcheck/pkg/config"
)

// Phase represents a runner stage for color coding.
type Phase string

// Phase constants for runner stages.
const (
	PhaseBuild  Phase = "build"  // compiling the suites
	PhaseRun    Phase = "run"    // suites executing
	PhaseReport Phase = "report" // summary output
)

// Colors holds the terminal color set. All accessors return a usable
// color: missing or malformed config values fall back to named ANSI
// defaults at construction.
type Colors struct {
	run       *color.Color
	pass      *color.Color
	fail      *color.Color
	skip      *color.Color
	warn      *color.Color
	err       *color.Color
	timestamp *color.Color
	info      *color.Color
}

// NewColors builds a color set from config values. Config colors are
// "r,g,b" strings produced by the hex parser in pkg/config.
func NewColors(cc config.ColorConfig) *Colors {
	return &Colors{
		run:       rgbColor(cc.Run, color.New(color.FgGreen)),
		pass:      rgbColor(cc.Pass, color.New(color.FgGreen)),
		fail:      rgbColor(cc.Fail, color.New(color.FgRed)),
		skip:      rgbColor(cc.Skip, color.New(color.FgYellow)),
		warn:      rgbColor(cc.Warn, color.New(color.FgYellow)),
		err:       rgbColor(cc.Error, color.New(color.FgRed)),
		timestamp: rgbColor(cc.Timestamp, color.New(color.FgWhite)),
		info:      rgbColor(cc.Info, color.New(color.FgCyan)),
	}
}

// Run returns the color for streaming suite output.
func (c *Colors) Run() *color.Color { return c.run }

// Pass returns the color for passed test lines.
func (c *Colors) Pass() *color.Color { return c.pass }

// Fail returns the color for failed test lines.
func (c *Colors) Fail() *color.Color { return c.fail }

// Skip returns the color for skipped test lines.
func (c *Colors) Skip() *color.Color { return c.skip }

// Warn returns the warning color.
func (c *Colors) Warn() *color.Color { return c.warn }

// Err returns the error color.
func (c *Colors) Err() *color.Color { return c.err }

// Timestamp returns the timestamp prefix color.
func (c *Colors) Timestamp() *color.Color { return c.timestamp }

// Info returns the color for informational messages.
func (c *Colors) Info() *color.Color { return c.info }

// ForPhase returns the stream color for a runner phase.
func (c *Colors) ForPhase(p Phase) *color.Color {
	if p == PhaseRun {
		return c.run
	}
	return c.info
}

// rgbColor parses an "r,g,b" spec into a color, falling back when the
// spec is empty or malformed.
func rgbColor(spec string, fallback *color.Color) *color.Color {
	parts := strings.Split(spec, ",")
	if len(parts) != 3 {
		return fallback
	}
	vals := make([]int, 3)
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || v < 0 || v > 255 {
			return fallback
		}
		vals[i] = v
	}
	return color.RGB(vals[0], vals[1], vals[2])
}

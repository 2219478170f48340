package progress

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/vizcheck/pkg/config"
)

func testColors() *Colors {
	return NewColors(config.ColorConfig{})
}

func TestNewLogger_WithFile(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "run.log")

	l, err := NewLogger(Config{LogFile: logPath, Pattern: "TestHashMap", BaseURL: "http://127.0.0.1:5500", NoColor: true}, testColors())
	require.NoError(t, err)
	defer func() { _ = l.Close() }()

	assert.Equal(t, logPath, l.Path())

	// verify header written
	content, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(content), "# Vizcheck Run Log")
	assert.Contains(t, string(content), "Pattern: TestHashMap")
	assert.Contains(t, string(content), "Base URL: http://127.0.0.1:5500")
}

func TestNewLogger_StdoutOnly(t *testing.T) {
	l, err := NewLogger(Config{NoColor: true}, testColors())
	require.NoError(t, err)

	assert.Empty(t, l.Path())

	var buf bytes.Buffer
	l.stdout = &buf
	l.Print("message without file")

	assert.Contains(t, buf.String(), "message without file")
	require.NoError(t, l.Close())
}

func TestNewLogger_EmptyPattern(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "run.log")

	l, err := NewLogger(Config{LogFile: logPath, NoColor: true}, testColors())
	require.NoError(t, err)
	defer func() { _ = l.Close() }()

	content, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(content), "Pattern: (all suites)")
}

func TestLogger_Print(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "run.log")

	l, err := NewLogger(Config{LogFile: logPath, NoColor: true}, testColors())
	require.NoError(t, err)
	defer func() { _ = l.Close() }()

	var buf bytes.Buffer
	l.stdout = &buf

	l.Print("test message %d", 42)

	content, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(content), "test message 42")
	assert.Contains(t, buf.String(), "test message 42")
}

func TestLogger_PrintWith(t *testing.T) {
	l, err := NewLogger(Config{NoColor: true}, testColors())
	require.NoError(t, err)
	defer func() { _ = l.Close() }()

	var buf bytes.Buffer
	l.stdout = &buf

	l.PrintWith(l.Colors().Pass(), "--- PASS: TestStack (0.52s)")

	assert.Contains(t, buf.String(), "--- PASS: TestStack (0.52s)")
}

func TestLogger_ResultLines(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "run.log")

	l, err := NewLogger(Config{LogFile: logPath, NoColor: true}, testColors())
	require.NoError(t, err)
	defer func() { _ = l.Close() }()

	var buf bytes.Buffer
	l.stdout = &buf

	l.Pass("PASS %s (%s)", "TestStack", "520ms")
	l.Fail("FAIL %s (%s)", "TestHashMap", "1.2s")
	l.Skip("SKIP %s", "TestKnn")

	content, err := os.ReadFile(logPath)
	require.NoError(t, err)
	for _, line := range []string{"PASS TestStack (520ms)", "FAIL TestHashMap (1.2s)", "SKIP TestKnn"} {
		assert.Contains(t, string(content), line)
		assert.Contains(t, buf.String(), line)
	}
}

func TestLogger_ResultColors(t *testing.T) {
	origNoColor := color.NoColor
	color.NoColor = false
	defer func() { color.NoColor = origNoColor }()

	// distinct rgb specs so each result line is attributable to its
	// configured color, not the phase color
	colors := NewColors(config.ColorConfig{Pass: "0,200,0", Fail: "200,0,0", Skip: "200,200,0"})
	l, err := NewLogger(Config{}, colors)
	require.NoError(t, err)
	defer func() { _ = l.Close() }()

	var buf bytes.Buffer
	l.stdout = &buf
	l.Pass("PASS TestStack")
	l.Fail("FAIL TestHashMap")
	l.Skip("SKIP TestKnn")

	output := buf.String()
	assert.Contains(t, output, "\x1b[38;2;0;200;0m", "pass line should carry the pass color")
	assert.Contains(t, output, "\x1b[38;2;200;0;0m", "fail line should carry the fail color")
	assert.Contains(t, output, "\x1b[38;2;200;200;0m", "skip line should carry the skip color")
}

func TestLogger_PrintRaw(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "run.log")

	l, err := NewLogger(Config{LogFile: logPath, NoColor: true}, testColors())
	require.NoError(t, err)
	defer func() { _ = l.Close() }()

	var buf bytes.Buffer
	l.stdout = &buf

	l.PrintRaw("raw output")

	content, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(content), "raw output")
	assert.Contains(t, buf.String(), "raw output")
}

func TestLogger_PrintAligned(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "run.log")

	l, err := NewLogger(Config{LogFile: logPath, NoColor: true}, testColors())
	require.NoError(t, err)
	defer func() { _ = l.Close() }()

	var buf bytes.Buffer
	l.stdout = &buf

	l.PrintAligned("first line\nsecond line\nthird line")

	content, err := os.ReadFile(logPath)
	require.NoError(t, err)
	// file has timestamp on first line, indent on continuations
	assert.Contains(t, string(content), "] first line")
	assert.Contains(t, string(content), "second line")
	assert.Contains(t, string(content), "third line")

	output := buf.String()
	assert.Contains(t, output, "first line")
	assert.Contains(t, output, "second line")
	assert.True(t, strings.HasSuffix(output, "\n"), "output should end with newline")
}

func TestLogger_PrintAligned_Empty(t *testing.T) {
	l, err := NewLogger(Config{NoColor: true}, testColors())
	require.NoError(t, err)
	defer func() { _ = l.Close() }()

	var buf bytes.Buffer
	l.stdout = &buf

	l.PrintAligned("") // empty string should do nothing

	assert.Empty(t, buf.String())
}

func TestLogger_Error(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "run.log")

	l, err := NewLogger(Config{LogFile: logPath, NoColor: true}, testColors())
	require.NoError(t, err)
	defer func() { _ = l.Close() }()

	var buf bytes.Buffer
	l.stdout = &buf

	l.Error("something failed: %s", "reason")

	content, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(content), "ERROR: something failed: reason")
	assert.Contains(t, buf.String(), "ERROR: something failed: reason")
}

func TestLogger_Warn(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "run.log")

	l, err := NewLogger(Config{LogFile: logPath, NoColor: true}, testColors())
	require.NoError(t, err)
	defer func() { _ = l.Close() }()

	var buf bytes.Buffer
	l.stdout = &buf

	l.Warn("warning message")

	content, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(content), "WARN: warning message")
	assert.Contains(t, buf.String(), "WARN: warning message")
}

func TestLogger_SetPhase(t *testing.T) {
	// enable colors for this test
	origNoColor := color.NoColor
	color.NoColor = false
	defer func() { color.NoColor = origNoColor }()

	l, err := NewLogger(Config{}, testColors())
	require.NoError(t, err)
	defer func() { _ = l.Close() }()

	var buf bytes.Buffer
	l.stdout = &buf

	l.SetPhase(PhaseBuild)
	l.Print("build output")

	l.SetPhase(PhaseRun)
	l.Print("run output")

	l.SetPhase(PhaseReport)
	l.Print("report output")

	output := buf.String()
	// check for ANSI escape sequences (color codes start with \033[)
	assert.Contains(t, output, "\033[")
	assert.Contains(t, output, "build output")
	assert.Contains(t, output, "run output")
	assert.Contains(t, output, "report output")
}

func TestLogger_ColorDisabled(t *testing.T) {
	// save original and restore after test
	origNoColor := color.NoColor
	defer func() { color.NoColor = origNoColor }()

	l, err := NewLogger(Config{NoColor: true}, testColors())
	require.NoError(t, err)
	defer func() { _ = l.Close() }()

	var buf bytes.Buffer
	l.stdout = &buf

	l.SetPhase(PhaseRun)
	l.Print("no color output")

	output := buf.String()
	// should not contain ANSI escape sequences
	assert.NotContains(t, output, "\033[")
	assert.Contains(t, output, "no color output")
}

func TestLogger_Elapsed(t *testing.T) {
	l, err := NewLogger(Config{NoColor: true}, testColors())
	require.NoError(t, err)
	defer func() { _ = l.Close() }()

	elapsed := l.Elapsed()
	assert.NotEmpty(t, elapsed)
}

func TestLogger_Close(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "run.log")

	l, err := NewLogger(Config{LogFile: logPath, NoColor: true}, testColors())
	require.NoError(t, err)

	l.Print("some output")
	require.NoError(t, l.Close())

	content, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(content), "Completed:")
	assert.Contains(t, string(content), strings.Repeat("-", 60))
}

func TestWrapText(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		width int
		want  string
	}{
		{name: "short text unchanged", text: "short", width: 20, want: "short"},
		{name: "zero width unchanged", text: "anything goes here", width: 0, want: "anything goes here"},
		{name: "wraps on word boundary", text: "one two three four", width: 9, want: "one two\nthree\nfour"},
		{name: "single long word kept", text: "supercalifragilistic", width: 5, want: "supercalifragilistic"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, wrapText(tc.text, tc.width))
		})
	}
}

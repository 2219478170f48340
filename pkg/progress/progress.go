// Package progress provides timestamped run logging to stdout with color
// support and an optional plain-text log file.
package progress

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"golang.org/x/term"
)

// Logger writes timestamped output to stdout, and to a log file when one
// is configured. File output carries no color codes.
type Logger struct {
	file      *os.File
	stdout    io.Writer
	colors    *Colors
	startTime time.Time
	phase     Phase
}

// Config holds logger configuration.
type Config struct {
	LogFile string // run log path, empty disables file output
	Pattern string // test pattern being run (log header)
	BaseURL string // pages server the suites target (log header)
	NoColor bool   // disable color output (sets color.NoColor globally)
}

// NewLogger creates a logger writing to stdout and, when cfg.LogFile is
// set, to a log file with a run header.
func NewLogger(cfg Config, colors *Colors) (*Logger, error) {
	// set global color setting
	if cfg.NoColor {
		color.NoColor = true
	}

	l := &Logger{
		stdout:    os.Stdout,
		colors:    colors,
		startTime: time.Now(),
		phase:     PhaseBuild,
	}

	if cfg.LogFile == "" {
		return l, nil
	}

	if dir := filepath.Dir(cfg.LogFile); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create log dir: %w", err)
		}
	}

	f, err := os.Create(cfg.LogFile) //nolint:gosec // path comes from the --log flag
	if err != nil {
		return nil, fmt.Errorf("create log file: %w", err)
	}
	l.file = f

	// write header
	pattern := cfg.Pattern
	if pattern == "" {
		pattern = "(all suites)"
	}
	l.writeFile("# Vizcheck Run Log\n")
	l.writeFile("Pattern: %s\n", pattern)
	l.writeFile("Base URL: %s\n", cfg.BaseURL)
	l.writeFile("Started: %s\n", time.Now().Format("2006-01-02 15:04:05"))
	l.writeFile("%s\n\n", strings.Repeat("-", 60))

	return l, nil
}

// Path returns the log file path, empty when file output is disabled.
func (l *Logger) Path() string {
	if l.file == nil {
		return ""
	}
	return l.file.Name()
}

// Colors returns the logger's color set.
func (l *Logger) Colors() *Colors {
	return l.colors
}

// SetPhase sets the current runner phase for color coding.
func (l *Logger) SetPhase(phase Phase) {
	l.phase = phase
}

// timestampFormat is the format for timestamps: YY-MM-DD HH:MM:SS
const timestampFormat = "06-01-02 15:04:05"

// Print writes a timestamped message colored by the current phase.
func (l *Logger) Print(format string, args ...any) {
	l.PrintWith(l.colors.ForPhase(l.phase), format, args...)
}

// PrintWith writes a timestamped message in an explicit color, used for
// per-test result lines where the color depends on the outcome.
func (l *Logger) PrintWith(c *color.Color, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	timestamp := time.Now().Format(timestampFormat)

	// write to file without color
	l.writeFile("[%s] %s\n", timestamp, msg)

	tsStr := l.colors.Timestamp().Sprintf("[%s]", timestamp)
	l.writeStdout("%s %s\n", tsStr, c.Sprint(msg))
}

// Pass writes a timestamped message in the pass result color.
func (l *Logger) Pass(format string, args ...any) {
	l.PrintWith(l.colors.Pass(), format, args...)
}

// Fail writes a timestamped message in the fail result color.
func (l *Logger) Fail(format string, args ...any) {
	l.PrintWith(l.colors.Fail(), format, args...)
}

// Skip writes a timestamped message in the skip result color.
func (l *Logger) Skip(format string, args ...any) {
	l.PrintWith(l.colors.Skip(), format, args...)
}

// PrintRaw writes without timestamp (for streaming output).
func (l *Logger) PrintRaw(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	l.writeFile("%s", msg)
	l.writeStdout("%s", msg)
}

// getTerminalWidth returns terminal width, using COLUMNS env var or syscall.
// Defaults to 80 if detection fails. Returns content width (total - 20 for timestamp).
func getTerminalWidth() int {
	const minWidth = 40

	// try COLUMNS env var first
	if cols := os.Getenv("COLUMNS"); cols != "" {
		if w, err := strconv.Atoi(cols); err == nil && w > 0 {
			contentWidth := w - 20 // leave room for timestamp prefix
			if contentWidth < minWidth {
				return minWidth
			}
			return contentWidth
		}
	}

	// try terminal syscall
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		contentWidth := w - 20
		if contentWidth < minWidth {
			return minWidth
		}
		return contentWidth
	}

	return 80 - 20 // default 80 columns minus timestamp
}

// wrapText wraps text to specified width, breaking on word boundaries.
func wrapText(text string, width int) string {
	if width <= 0 || len(text) <= width {
		return text
	}

	var result strings.Builder
	words := strings.Fields(text)
	lineLen := 0

	for i, word := range words {
		wordLen := len(word)

		if i == 0 {
			result.WriteString(word)
			lineLen = wordLen
			continue
		}

		// check if word fits on current line
		if lineLen+1+wordLen <= width {
			result.WriteString(" ")
			result.WriteString(word)
			lineLen += 1 + wordLen
		} else {
			// start new line
			result.WriteString("\n")
			result.WriteString(word)
			lineLen = wordLen
		}
	}

	return result.String()
}

// PrintAligned writes text with timestamp, handling multi-line content:
// the first line gets the timestamp, continuation lines get indent.
func (l *Logger) PrintAligned(text string) {
	if text == "" {
		return
	}

	// trim trailing newlines to avoid extra blank lines
	text = strings.TrimRight(text, "\n")
	if text == "" {
		return
	}

	timestamp := time.Now().Format(timestampFormat)
	phaseColor := l.colors.ForPhase(l.phase)
	tsPrefix := l.colors.Timestamp().Sprintf("[%s]", timestamp)
	indent := "                    " // 20 chars to align with "[YY-MM-DD HH:MM:SS] "

	// wrap text to terminal width
	width := getTerminalWidth()

	// split into lines, wrap each long line, then process
	var lines []string
	for line := range strings.SplitSeq(text, "\n") {
		if len(line) > width {
			wrapped := wrapText(line, width)
			for wrappedLine := range strings.SplitSeq(wrapped, "\n") {
				lines = append(lines, wrappedLine)
			}
		} else {
			lines = append(lines, line)
		}
	}
	for i, line := range lines {
		if line == "" {
			// preserve empty lines within content
			l.writeFile("\n")
			l.writeStdout("\n")
			continue
		}

		if i == 0 {
			// first line gets timestamp
			l.writeFile("[%s] %s\n", timestamp, line)
			l.writeStdout("%s %s\n", tsPrefix, phaseColor.Sprint(line))
		} else {
			// continuation lines get indent
			l.writeFile("%s%s\n", indent, line)
			l.writeStdout("%s%s\n", indent, phaseColor.Sprint(line))
		}
	}
}

// Error writes an error message in the error color.
func (l *Logger) Error(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	timestamp := time.Now().Format(timestampFormat)

	l.writeFile("[%s] ERROR: %s\n", timestamp, msg)

	tsStr := l.colors.Timestamp().Sprintf("[%s]", timestamp)
	errStr := l.colors.Err().Sprintf("ERROR: %s", msg)
	l.writeStdout("%s %s\n", tsStr, errStr)
}

// Warn writes a warning message in the warning color.
func (l *Logger) Warn(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	timestamp := time.Now().Format(timestampFormat)

	l.writeFile("[%s] WARN: %s\n", timestamp, msg)

	tsStr := l.colors.Timestamp().Sprintf("[%s]", timestamp)
	warnStr := l.colors.Warn().Sprintf("WARN: %s", msg)
	l.writeStdout("%s %s\n", tsStr, warnStr)
}

// Elapsed returns elapsed time since start, rounded to seconds.
func (l *Logger) Elapsed() string {
	return time.Since(l.startTime).Round(time.Second).String()
}

// Close writes the footer and closes the log file. No-op for stdout-only
// loggers.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}

	l.writeFile("\n%s\n", strings.Repeat("-", 60))
	l.writeFile("Completed: %s (%s)\n", time.Now().Format("2006-01-02 15:04:05"), l.Elapsed())

	if err := l.file.Close(); err != nil {
		return fmt.Errorf("close log file: %w", err)
	}
	return nil
}

func (l *Logger) writeFile(format string, args ...any) {
	if l.file != nil {
		fmt.Fprintf(l.file, format, args...)
	}
}

func (l *Logger) writeStdout(format string, args ...any) {
	fmt.Fprintf(l.stdout, format, args...)
}

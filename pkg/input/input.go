// Package input provides terminal selection for picking a demo by name.
package input

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

// Picker selects one option from a list on the terminal. It prefers fzf
// when present and falls back to a numbered menu on plain stdin.
type Picker struct {
	in  io.Reader // nil means os.Stdin
	out io.Writer // nil means os.Stdout
}

// NewPicker creates a Picker bound to the process stdin/stdout.
func NewPicker() *Picker {
	return &Picker{}
}

// Pick presents the options under the given prompt and returns the
// chosen one.
func (p *Picker) Pick(ctx context.Context, prompt string, options []string) (string, error) {
	if len(options) == 0 {
		return "", errors.New("nothing to pick from")
	}

	if _, err := exec.LookPath("fzf"); err == nil {
		return p.pickFzf(ctx, prompt, options)
	}
	return p.pickNumbered(prompt, options)
}

// pickFzf hands the options to fzf and reads the selection back.
func (p *Picker) pickFzf(ctx context.Context, prompt string, options []string) (string, error) {
	cmd := exec.CommandContext(ctx, "fzf", "--prompt", prompt+": ", "--height", "10", "--layout=reverse") //nolint:gosec // fzf is a trusted external tool, prompt is our own text
	cmd.Stdin = strings.NewReader(strings.Join(options, "\n"))
	cmd.Stderr = os.Stderr

	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() == 130 { // escape pressed
			return "", errors.New("selection canceled")
		}
		return "", fmt.Errorf("fzf selection failed: %w", err)
	}

	choice := strings.TrimSpace(string(out))
	if choice == "" {
		return "", errors.New("no selection made")
	}
	return choice, nil
}

// pickNumbered prints a numbered menu and reads the chosen index.
func (p *Picker) pickNumbered(prompt string, options []string) (string, error) {
	out := p.out
	if out == nil {
		out = os.Stdout
	}
	in := p.in
	if in == nil {
		in = os.Stdin
	}

	_, _ = fmt.Fprintf(out, "\n%s\n", prompt)
	for i, opt := range options {
		_, _ = fmt.Fprintf(out, "  %d) %s\n", i+1, opt)
	}
	_, _ = fmt.Fprintf(out, "choice [1-%d]: ", len(options))

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("read choice: %w", err)
	}

	line = strings.TrimSpace(line)
	num, err := strconv.Atoi(line)
	if err != nil {
		return "", fmt.Errorf("not a number: %q", line)
	}
	if num < 1 || num > len(options) {
		return "", fmt.Errorf("choice %d out of range 1-%d", num, len(options))
	}
	return options[num-1], nil
}

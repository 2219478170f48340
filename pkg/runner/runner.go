// Package runner drives the browser suites: it execs go test for the
// e2e packages, turns the raw stream into phase-colored progress output
// and aggregates results into a summary.
package runner

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/umputun/vizcheck/pkg/notify"
	"github.com/umputun/vizcheck/pkg/progress"
)

// Config holds runner configuration.
type Config struct {
	Pattern   string        // -run pattern narrowing the suites, empty runs everything
	Changed   bool          // derive the pattern from files changed since the default branch
	Headed    bool          // run browsers headful
	SlowMoMs  int           // per-action browser delay, forwarded to the suites
	BaseURL   string        // point suites at an external page server instead of starting one
	Timeout   time.Duration // go test -timeout, zero uses the go default
	ExtraArgs []string      // extra arguments appended to the go test invocation
	Verbose   bool          // echo raw test output lines
	Debug     bool          // enable debug output
	Dir       string        // repository root, default current directory
}

// Logger provides progress output. Pass, Fail and Skip carry the
// configured result colors, Print follows the current phase.
type Logger interface {
	SetPhase(phase progress.Phase)
	Print(format string, args ...any)
	PrintRaw(format string, args ...any)
	PrintAligned(text string)
	Pass(format string, args ...any)
	Fail(format string, args ...any)
	Skip(format string, args ...any)
	Error(format string, args ...any)
}

// commandRunner abstracts command execution for testing.
type commandRunner interface {
	Run(ctx context.Context, dir string, env []string, name string, args ...string) (stdout io.Reader, wait func() error, err error)
}

// execCommandRunner runs commands in their own process group so that
// cancellation takes down the go test -> driver -> chromium tree.
type execCommandRunner struct{}

func (r *execCommandRunner) Run(ctx context.Context, dir string, env []string, name string, args ...string) (io.Reader, func() error, error) {
	cmd := exec.Command(name, args...) //nolint:gosec // args built internally
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), env...)
	setupProcessGroup(cmd)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, nil, fmt.Errorf("create stdout pipe: %w", err)
	}
	// merge stderr into stdout, build errors arrive there
	cmd.Stderr = cmd.Stdout

	if err := cmd.Start(); err != nil {
		return nil, nil, fmt.Errorf("start command: %w", err)
	}

	pg := newProcessGroupCleanup(cmd, ctx.Done())
	return stdout, pg.Wait, nil
}

// Runner executes one run of the browser suites.
type Runner struct {
	cfg      Config
	log      Logger
	notifier *notify.Service
	cmd      commandRunner
}

// New creates a Runner. The notifier may be nil, Send is nil-safe.
func New(cfg Config, log Logger, notifier *notify.Service) *Runner {
	if cfg.Dir == "" {
		cfg.Dir = "."
	}
	return &Runner{cfg: cfg, log: log, notifier: notifier, cmd: &execCommandRunner{}}
}

// Run executes the suites and returns the aggregated summary. A non-nil
// error means the run itself failed: suites failed, the build broke, or
// the context was canceled.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	runID := uuid.NewString()[:8]
	pattern := r.cfg.Pattern

	if r.cfg.Changed {
		derived, runAll, err := changedPattern(r.cfg.Dir)
		if err != nil {
			return Summary{}, fmt.Errorf("detect changed suites: %w", err)
		}
		if !runAll && derived == "" {
			r.log.Print("no suites affected by changes, nothing to run")
			return Summary{}, nil
		}
		if runAll {
			r.log.Print("shared code changed, running all suites")
		} else {
			r.log.Print("changed suites pattern: %s", derived)
			pattern = derived
		}
	}

	r.log.SetPhase(progress.PhaseBuild)
	if pattern != "" {
		r.log.Print("compiling browser suites (run %s, pattern %s)", runID, pattern)
	} else {
		r.log.Print("compiling browser suites (run %s)", runID)
	}

	start := time.Now()
	summary, runErr := r.execute(ctx, pattern)
	summary.Elapsed = time.Since(start)

	r.log.SetPhase(progress.PhaseReport)
	if runErr != nil {
		r.log.Error("run failed: %v", runErr)
	}
	r.log.Print("suites: %s", summary.String())

	r.sendNotification(ctx, runID, pattern, summary, runErr)
	return summary, runErr
}

// execute runs go test and consumes its output stream.
func (r *Runner) execute(ctx context.Context, pattern string) (Summary, error) {
	stdout, wait, err := r.cmd.Run(ctx, r.cfg.Dir, r.env(), "go", r.args(pattern)...)
	if err != nil {
		return Summary{}, fmt.Errorf("run go test: %w", err)
	}

	summary, buildErrs := r.consume(stdout)

	waitErr := wait()
	if ctx.Err() != nil {
		return summary, fmt.Errorf("run canceled: %w", ctx.Err())
	}
	if waitErr != nil {
		if summary.Failed > 0 {
			return summary, fmt.Errorf("%d suite(s) failed", summary.Failed)
		}
		if len(buildErrs) > 0 {
			return summary, fmt.Errorf("suites failed to build: %s", buildErrs[0])
		}
		return summary, fmt.Errorf("go test: %w", waitErr)
	}
	return summary, nil
}

// consume reads the test stream line by line, rendering events and
// folding results into the summary.
func (r *Runner) consume(stdout io.Reader) (Summary, []string) {
	var summary Summary
	var buildErrs []string
	inRunPhase := false

	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Text()
		ev := parseLine(line)
		summary.count(ev)

		switch ev.kind {
		case eventRun:
			if !inRunPhase {
				inRunPhase = true
				r.log.SetPhase(progress.PhaseRun)
			}
			if r.cfg.Verbose {
				r.log.Print("run %s", ev.name)
			}
		case eventPass:
			r.log.Pass("PASS %s (%s)", ev.name, ev.elapsed.Round(10*time.Millisecond))
		case eventFail:
			r.log.Fail("FAIL %s (%s)", ev.name, ev.elapsed.Round(10*time.Millisecond))
		case eventSkip:
			r.log.Skip("SKIP %s", ev.name)
		case eventBuildError:
			buildErrs = append(buildErrs, strings.TrimSpace(line))
			r.log.Error("%s", line)
		case eventPackageFail:
			if r.cfg.Verbose || r.cfg.Debug {
				r.log.PrintAligned(line)
			}
		case eventPackageOK, eventOutput:
			if r.cfg.Verbose || r.cfg.Debug {
				r.log.PrintAligned(line)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		r.log.Error("read test output: %v", err)
	}
	return summary, buildErrs
}

// args builds the go test invocation. -v is always set: the line parser
// needs per-test RUN/PASS lines.
func (r *Runner) args(pattern string) []string {
	args := []string{"test", "-tags", "e2e", "-count=1", "-v"}
	if r.cfg.Timeout > 0 {
		args = append(args, "-timeout", r.cfg.Timeout.String())
	}
	if pattern != "" {
		args = append(args, "-run", pattern)
	}
	args = append(args, r.cfg.ExtraArgs...)
	return append(args, "./e2e/...")
}

// env builds extra environment for the suites.
func (r *Runner) env() []string {
	var env []string
	if r.cfg.Headed {
		env = append(env, "E2E_HEADLESS=false")
	}
	if r.cfg.SlowMoMs > 0 {
		env = append(env, fmt.Sprintf("E2E_SLOW_MO=%d", r.cfg.SlowMoMs))
	}
	if r.cfg.BaseURL != "" {
		env = append(env, "E2E_BASE_URL="+r.cfg.BaseURL)
	}
	return env
}

// sendNotification reports the run outcome, best effort.
func (r *Runner) sendNotification(ctx context.Context, runID, pattern string, summary Summary, runErr error) {
	result := notify.Result{
		Status:   "success",
		RunID:    runID,
		Pattern:  pattern,
		Duration: summary.Elapsed.Round(time.Second).String(),
		Passed:   summary.Passed,
		Failed:   summary.Failed,
		Skipped:  summary.Skipped,
	}
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		result.Status = "failure"
		result.Error = runErr.Error()
	}
	r.notifier.Send(ctx, result)
}

package runner

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// eventKind classifies one line of go test output.
type eventKind int

const (
	eventOutput      eventKind = iota // anything not recognized below
	eventRun                          // === RUN TestName
	eventPass                         // --- PASS: TestName (0.42s)
	eventFail                         // --- FAIL: TestName (0.42s)
	eventSkip                         // --- SKIP: TestName (0.00s)
	eventPackageOK                    // ok  module/e2e  12.3s
	eventPackageFail                  // FAIL module/e2e ...
	eventBuildError                   // compiler/link diagnostics before any test ran
)

// event is one parsed line of the test stream.
type event struct {
	kind    eventKind
	name    string        // test or package name when recognized
	elapsed time.Duration // per-test elapsed for pass/fail/skip
	line    string        // raw line, always set
}

// top-level results only: subtest result lines are indented and counted
// through their parent.
var (
	reRun     = regexp.MustCompile(`^=== RUN\s+(\S+)$`)
	reResult  = regexp.MustCompile(`^--- (PASS|FAIL|SKIP): (\S+) \((\d+\.\d+)s\)$`)
	rePkgOK   = regexp.MustCompile(`^ok\s+(\S+)\s+`)
	rePkgFail = regexp.MustCompile(`^FAIL\s+(\S+)`)
)

// parseLine classifies one raw line of go test output.
func parseLine(line string) event {
	if m := reRun.FindStringSubmatch(line); m != nil {
		return event{kind: eventRun, name: m[1], line: line}
	}
	if m := reResult.FindStringSubmatch(line); m != nil {
		ev := event{name: m[2], line: line}
		switch m[1] {
		case "PASS":
			ev.kind = eventPass
		case "FAIL":
			ev.kind = eventFail
		case "SKIP":
			ev.kind = eventSkip
		}
		if secs, err := strconv.ParseFloat(m[3], 64); err == nil {
			ev.elapsed = time.Duration(secs * float64(time.Second))
		}
		return ev
	}
	if m := rePkgOK.FindStringSubmatch(line); m != nil {
		return event{kind: eventPackageOK, name: m[1], line: line}
	}
	if m := rePkgFail.FindStringSubmatch(line); m != nil {
		return event{kind: eventPackageFail, name: m[1], line: line}
	}
	if isBuildErrorLine(line) {
		return event{kind: eventBuildError, line: line}
	}
	return event{kind: eventOutput, line: line}
}

// isBuildErrorLine detects compiler diagnostics in the stream. go test
// emits them before any === RUN line when the package fails to build.
func isBuildErrorLine(line string) bool {
	if strings.HasPrefix(line, "# ") {
		return true
	}
	// file.go:12:34: message
	idx := strings.Index(line, ".go:")
	if idx <= 0 {
		return false
	}
	rest := line[idx+len(".go:"):]
	colon := strings.Index(rest, ":")
	if colon <= 0 {
		return false
	}
	_, err := strconv.Atoi(rest[:colon])
	return err == nil
}

// Summary aggregates one run of the suites.
type Summary struct {
	Passed  int
	Failed  int
	Skipped int
	Elapsed time.Duration
}

// Success reports whether the run finished without failures.
func (s Summary) Success() bool { return s.Failed == 0 }

// String renders the summary in the "N passed, N failed, N skipped" form.
func (s Summary) String() string {
	return strconv.Itoa(s.Passed) + " passed, " + strconv.Itoa(s.Failed) + " failed, " +
		strconv.Itoa(s.Skipped) + " skipped in " + s.Elapsed.Round(100*time.Millisecond).String()
}

// count folds one event into the summary.
func (s *Summary) count(ev event) {
	switch ev.kind {
	case eventPass:
		s.Passed++
	case eventFail:
		s.Failed++
	case eventSkip:
		s.Skipped++
	case eventOutput, eventRun, eventPackageOK, eventPackageFail, eventBuildError:
		// not a per-test result
	}
}

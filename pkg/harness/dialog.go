package harness

import (
	"sync"

	"github.com/playwright-community/playwright-go"
)

// DialogRecord captures one resolved native dialog.
type DialogRecord struct {
	Type     string // "alert", "confirm" or "prompt"
	Message  string
	Input    string // answer sent to a prompt, empty otherwise
	Accepted bool
}

// dialogLog holds resolved dialogs and the pending resolution plan for
// the next ones. The handler is registered once at page construction, so
// no dialog can fire before a listener exists and none is left blocking
// the page at test end.
type dialogLog struct {
	mu      sync.Mutex
	records []DialogRecord
	answers []string // FIFO of prompt answers
	dismiss int      // number of upcoming dialogs to dismiss
}

func (l *dialogLog) nextAction() (answer string, hasAnswer, dismiss bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.dismiss > 0 {
		l.dismiss--
		return "", false, true
	}
	if len(l.answers) > 0 {
		answer = l.answers[0]
		l.answers = l.answers[1:]
		return answer, true, false
	}
	return "", false, false
}

func (l *dialogLog) add(rec DialogRecord) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append(l.records, rec)
}

func (l *dialogLog) queueAnswer(text string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.answers = append(l.answers, text)
}

func (l *dialogLog) queueDismiss() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.dismiss++
}

func (l *dialogLog) all() []DialogRecord {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]DialogRecord, len(l.records))
	copy(out, l.records)
	return out
}

// handleDialog resolves a native dialog: dismiss when DismissNext was
// queued, otherwise accept, answering prompts from the FIFO set with
// AnswerPrompt. Every dialog is recorded.
func (p *Page) handleDialog(dialog playwright.Dialog) {
	rec := DialogRecord{Type: dialog.Type(), Message: dialog.Message()}

	answer, hasAnswer, dismiss := p.dialogs.nextAction()
	switch {
	case dismiss:
		_ = dialog.Dismiss()
	case dialog.Type() == "prompt" && hasAnswer:
		rec.Input = answer
		rec.Accepted = true
		_ = dialog.Accept(answer)
	default:
		rec.Accepted = true
		_ = dialog.Accept()
	}

	p.dialogs.add(rec)
	p.t.Logf("page %s: %s dialog %q accepted=%v", p.id, rec.Type, rec.Message, rec.Accepted)
}

// AnswerPrompt queues an answer for the next prompt dialog. Answers are
// consumed in FIFO order; prompts beyond the queue are accepted with
// their default value.
func (p *Page) AnswerPrompt(text string) {
	p.dialogs.queueAnswer(text)
}

// DismissNext makes the next dialog of any type be dismissed instead of
// accepted.
func (p *Page) DismissNext() {
	p.dialogs.queueDismiss()
}

// Dialogs returns all dialogs resolved so far.
func (p *Page) Dialogs() []DialogRecord {
	return p.dialogs.all()
}

// AlertTexts returns the messages of all alert dialogs seen so far.
func (p *Page) AlertTexts() []string {
	var out []string
	for _, d := range p.dialogs.all() {
		if d.Type == "alert" {
			out = append(out, d.Message)
		}
	}
	return out
}

// LastDialog returns the most recent dialog, ok=false when none fired.
func (p *Page) LastDialog() (DialogRecord, bool) {
	all := p.dialogs.all()
	if len(all) == 0 {
		return DialogRecord{}, false
	}
	return all[len(all)-1], true
}

// WaitForDialog polls until at least n dialogs have been resolved.
func (p *Page) WaitForDialog(n int) {
	p.t.Helper()
	p.Eventually(func() bool { return len(p.dialogs.all()) >= n },
		"expected at least %d dialogs", n)
}

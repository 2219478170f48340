package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
)

// customChannel pipes the run report to a user-supplied script, the
// escape hatch for destinations notify has no built-in channel for.
type customChannel struct {
	script string
}

// newCustomChannel creates a channel invoking the script at the given path.
func newCustomChannel(script string) *customChannel {
	return &customChannel{script: script}
}

// send feeds the Result as JSON to the script's stdin. A non-zero exit
// fails the send, with any captured stderr attached for diagnosis.
func (c *customChannel) send(ctx context.Context, r Result) error {
	payload, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal run result: %w", err)
	}

	cmd := exec.CommandContext(ctx, c.script) //nolint:gosec // script location comes from config, not user input
	cmd.Stdin = bytes.NewReader(payload)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err = cmd.Run(); err != nil {
		if stderr.Len() > 0 {
			return fmt.Errorf("script %s: %w, stderr: %s", c.script, err, stderr.String())
		}
		return fmt.Errorf("script %s: %w", c.script, err)
	}
	return nil
}

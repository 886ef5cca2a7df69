package backend

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// SendmailSender pipes messages into a local sendmail-compatible command.
type SendmailSender struct {
	cmd string
}

// NewSendmailSender creates a sender running cmd through sh -c.
func NewSendmailSender(cmd string) *SendmailSender {
	return &SendmailSender{cmd: cmd}
}

// Send writes raw to the command's stdin.
func (s *SendmailSender) Send(ctx context.Context, raw []byte) error {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, "sh", "-c", s.cmd)
	cmd.Stdin = bytes.NewReader(raw)
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("running %q: %w: %s", s.cmd, err, msg)
		}
		return fmt.Errorf("running %q: %w", s.cmd, err)
	}
	return nil
}

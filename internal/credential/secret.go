package credential

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// Getter reads a keyring entry. Get is the production implementation.
type Getter func(key string) (string, error)

// ErrEmptySecret is returned when a secret has no source configured.
var ErrEmptySecret = errors.New("secret is not configured")

// Secret is a password as written in the configuration file: a raw
// value, a shell command printing it, or a keyring entry name. The
// first non-empty source wins.
type Secret struct {
	Raw     string `mapstructure:"raw"`
	Cmd     string `mapstructure:"cmd"`
	Keyring string `mapstructure:"keyring"`
}

// IsZero reports whether no source is configured.
func (s Secret) IsZero() bool {
	return s.Raw == "" && s.Cmd == "" && s.Keyring == ""
}

// Resolve returns the secret value. Command output is cut to its first
// line. A nil getter falls back to the system keyring.
func (s Secret) Resolve(ctx context.Context, get Getter) (string, error) {
	switch {
	case s.Raw != "":
		return s.Raw, nil
	case s.Cmd != "":
		return runSecretCmd(ctx, s.Cmd)
	case s.Keyring != "":
		if get == nil {
			get = Get
		}
		return get(s.Keyring)
	default:
		return "", ErrEmptySecret
	}
}

func runSecretCmd(ctx context.Context, command string) (string, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return "", fmt.Errorf("running secret command %q: %w: %s", command, err, msg)
		}
		return "", fmt.Errorf("running secret command %q: %w", command, err)
	}

	sc := bufio.NewScanner(&stdout)
	if !sc.Scan() {
		return "", fmt.Errorf("secret command %q printed nothing", command)
	}
	return strings.TrimSpace(sc.Text()), nil
}

package editor

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/google/shlex"
)

// ErrNoEditor is returned when $EDITOR is unset or blank.
var ErrNoEditor = errors.New("cannot get editor from env var")

// Draft is the local file a message is edited in. It survives between
// sessions until the message is sent, saved remotely or discarded.
type Draft struct {
	path string
}

// NewDraft returns the draft stored at path.
func NewDraft(path string) *Draft {
	return &Draft{path: path}
}

// Path returns the draft file path.
func (d *Draft) Path() string {
	return d.path
}

// Exists reports whether a draft is waiting on disk.
func (d *Draft) Exists() bool {
	_, err := os.Stat(d.path)
	return err == nil
}

// Read returns the draft content.
func (d *Draft) Read() (string, error) {
	data, err := os.ReadFile(d.path)
	if err != nil {
		return "", fmt.Errorf("cannot read local draft at %s: %w", d.path, err)
	}
	return string(data), nil
}

// Write replaces the draft content.
func (d *Draft) Write(tpl string) error {
	if err := os.MkdirAll(filepath.Dir(d.path), 0o700); err != nil {
		return fmt.Errorf("creating draft directory: %w", err)
	}
	if err := os.WriteFile(d.path, []byte(tpl), 0o600); err != nil {
		return fmt.Errorf("cannot write local draft at %s: %w", d.path, err)
	}
	return nil
}

// Remove deletes the draft. A missing draft is not an error.
func (d *Draft) Remove() error {
	if err := os.Remove(d.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("cannot remove local draft at %s: %w", d.path, err)
	}
	return nil
}

// Command builds the $EDITOR invocation opening path. The variable may
// carry arguments, e.g. "code --wait".
func Command(path string) (*exec.Cmd, error) {
	return commandFrom(os.Getenv("EDITOR"), path)
}

func commandFrom(editor, path string) (*exec.Cmd, error) {
	args, err := shlex.Split(editor)
	if err != nil {
		return nil, fmt.Errorf("parsing $EDITOR: %w", err)
	}
	if len(args) == 0 {
		return nil, ErrNoEditor
	}

	c := exec.Command(args[0], append(args[1:], path)...)
	c.Stdin = os.Stdin
	c.Stdout = os.Stdout
	c.Stderr = os.Stderr
	return c, nil
}

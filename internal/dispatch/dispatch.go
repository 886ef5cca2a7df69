package dispatch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/shlex"
	"github.com/spf13/pflag"

	"github.com/nhle/mailrepl/internal/backend"
	"github.com/nhle/mailrepl/internal/model"
	"github.com/nhle/mailrepl/internal/store"
)

// ErrNoHandler is returned for a command path nothing handles.
var ErrNoHandler = errors.New("no handler")

var (
	errMissingID     = errors.New("missing envelope id")
	errMissingFolder = errors.New("missing folder name")
	errMissingFlag   = errors.New("missing flag")
)

// Compose asks the caller to run the editor flow on Template.
type Compose struct {
	Template string

	// Answering is set for replies; the message gets the answered flag
	// once the reply is sent.
	Answering *MessageRef
}

// MessageRef points at a message of the active account.
type MessageRef struct {
	Folder string
	ID     string
}

// Result is what a command produced: text to print, or a message to
// compose.
type Result struct {
	Text    string
	Compose *Compose
}

func text(format string, args ...any) Result {
	return Result{Text: fmt.Sprintf(format, args...)}
}

// BuildFunc builds the backend of another account.
type BuildFunc func(ctx context.Context, acc *model.AccountConfig) (*backend.Backend, error)

// Dispatcher runs leaf commands against the active account.
type Dispatcher struct {
	cfg     *model.Config
	backend *backend.Backend
	ids     store.IDMapper
	build   BuildFunc
}

// New returns a Dispatcher. build is used by account doctor to check
// accounts other than the active one; nil uses backend.Build with the
// system keyring.
func New(cfg *model.Config, b *backend.Backend, ids store.IDMapper, build BuildFunc) *Dispatcher {
	if build == nil {
		build = func(ctx context.Context, acc *model.AccountConfig) (*backend.Backend, error) {
			return backend.Build(ctx, acc, nil)
		}
	}
	return &Dispatcher{cfg: cfg, backend: b, ids: ids, build: build}
}

type handler func(ctx context.Context, d *Dispatcher, args []string) (Result, error)

var handlers = map[string]handler{
	"account list":    accountList,
	"account doctor":  accountDoctor,
	"folder add":      folderAdd,
	"folder list":     folderList,
	"folder expunge":  folderExpunge,
	"folder purge":    folderPurge,
	"folder delete":   folderDelete,
	"envelope list":   envelopeList,
	"envelope thread": envelopeThread,
	"flag add":        flagAdd,
	"flag set":        flagSet,
	"flag remove":     flagRemove,
	"message read":    messageRead,
	"message thread":  messageThread,
	"message write":   messageWrite,
	"message reply":   messageReply,
	"message forward": messageForward,
	"message copy":    messageCopy,
	"message move":    messageMove,
	"message delete":  messageDelete,
}

// Handles reports whether path has a handler.
func Handles(path []string) bool {
	_, ok := handlers[strings.Join(path, " ")]
	return ok
}

// Execute runs the handler of path with the rest of the submitted line.
func (d *Dispatcher) Execute(ctx context.Context, path []string, args string) (Result, error) {
	key := strings.Join(path, " ")
	h, ok := handlers[key]
	if !ok {
		return Result{}, fmt.Errorf("%s: %w", key, ErrNoHandler)
	}

	argv, err := shlex.Split(args)
	if err != nil {
		return Result{}, fmt.Errorf("%s: splitting arguments: %w", key, err)
	}

	start := time.Now()
	res, err := h(ctx, d, argv)
	slog.Debug("command executed",
		"command", key,
		"args", argv,
		"duration", time.Since(start),
		"error", err,
	)
	if err != nil {
		return Result{}, fmt.Errorf("%s: %w", key, err)
	}
	return res, nil
}

// newFlags returns a silent flag set for one command.
func newFlags(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.SortFlags = false
	return fs
}

func parseFlags(fs *pflag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parsing arguments: %w", err)
	}
	return nil
}

func folderFlag(fs *pflag.FlagSet) *string {
	return fs.StringP("folder", "f", model.FolderInbox, "folder to operate on")
}

// mapperFolder is the key aliases are stored under, so that "inbox" and
// "INBOX" share aliases.
func (d *Dispatcher) mapperFolder(folder string) string {
	return d.backend.Folder(folder)
}

// resolveIDs maps user-facing aliases to backend ids.
func (d *Dispatcher) resolveIDs(ctx context.Context, folder string, aliases []string) ([]string, error) {
	if len(aliases) == 0 {
		return nil, errMissingID
	}
	ids := make([]string, 0, len(aliases))
	for _, a := range aliases {
		n, err := strconv.Atoi(a)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("invalid envelope id %q", a)
		}
		id, err := d.ids.ID(ctx, d.mapperFolder(folder), n)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// aliasesOf allocates the aliases of envelopes listed from folder.
func (d *Dispatcher) aliasesOf(ctx context.Context, folder string, envs []model.Envelope) (map[string]int, error) {
	ids := make([]string, 0, len(envs))
	for _, e := range envs {
		ids = append(ids, e.ID)
	}
	aliases, err := d.ids.Aliases(ctx, d.mapperFolder(folder), ids)
	if err != nil {
		return nil, fmt.Errorf("mapping envelope ids: %w", err)
	}
	return aliases, nil
}

func (d *Dispatcher) forget(ctx context.Context, folder string, ids []string) {
	if err := d.ids.Forget(ctx, d.mapperFolder(folder), ids); err != nil {
		slog.Warn("forgetting envelope aliases failed", "folder", folder, "error", err)
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

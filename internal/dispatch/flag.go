package dispatch

import (
	"context"
	"strconv"
	"strings"

	"github.com/nhle/mailrepl/internal/model"
)

type flagOp func(ctx context.Context, d *Dispatcher, folder string, ids []string, flags model.Flags) error

// runFlagOp parses "[-f folder] <id>... <flag>...": leading integers are
// envelope ids, the rest are flags.
func runFlagOp(ctx context.Context, d *Dispatcher, name string, args []string, op flagOp, verb string) (Result, error) {
	fs := newFlags(name)
	folder := folderFlag(fs)
	if err := parseFlags(fs, args); err != nil {
		return Result{}, err
	}

	rest := fs.Args()
	n := 0
	for n < len(rest) {
		if _, err := strconv.Atoi(rest[n]); err != nil {
			break
		}
		n++
	}
	if len(rest[n:]) == 0 {
		return Result{}, errMissingFlag
	}

	ids, err := d.resolveIDs(ctx, *folder, rest[:n])
	if err != nil {
		return Result{}, err
	}
	flags := make(model.Flags, 0, len(rest)-n)
	names := make([]string, 0, len(rest)-n)
	for _, s := range rest[n:] {
		f := model.ParseFlag(s)
		flags = append(flags, f)
		names = append(names, string(f))
	}

	if err := op(ctx, d, *folder, ids, flags); err != nil {
		return Result{}, err
	}
	return text("%s %s successfully %s", plural(len(flags), "Flag", "Flags"), strings.Join(names, ", "), verb), nil
}

func flagAdd(ctx context.Context, d *Dispatcher, args []string) (Result, error) {
	return runFlagOp(ctx, d, "flag add", args, func(ctx context.Context, d *Dispatcher, folder string, ids []string, flags model.Flags) error {
		return d.backend.AddFlags(ctx, folder, ids, flags)
	}, "added")
}

func flagSet(ctx context.Context, d *Dispatcher, args []string) (Result, error) {
	return runFlagOp(ctx, d, "flag set", args, func(ctx context.Context, d *Dispatcher, folder string, ids []string, flags model.Flags) error {
		return d.backend.SetFlags(ctx, folder, ids, flags)
	}, "set")
}

func flagRemove(ctx context.Context, d *Dispatcher, args []string) (Result, error) {
	return runFlagOp(ctx, d, "flag remove", args, func(ctx context.Context, d *Dispatcher, folder string, ids []string, flags model.Flags) error {
		return d.backend.RemoveFlags(ctx, folder, ids, flags)
	}, "removed")
}

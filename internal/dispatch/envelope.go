package dispatch

import (
	"context"
	"fmt"
	"math"

	"github.com/nhle/mailrepl/internal/model"
)

func envelopeList(ctx context.Context, d *Dispatcher, args []string) (Result, error) {
	acc := d.backend.Account()

	fs := newFlags("envelope list")
	folder := folderFlag(fs)
	page := fs.IntP("page", "p", 1, "page number, starting at 1")
	size := fs.IntP("page-size", "s", acc.PageSize(), "number of envelopes per page")
	if err := parseFlags(fs, args); err != nil {
		return Result{}, err
	}
	if fs.NArg() > 0 {
		return Result{}, fmt.Errorf("unexpected argument %q", fs.Arg(0))
	}
	if *page < 1 {
		return Result{}, fmt.Errorf("invalid page %d", *page)
	}
	if *size < 1 {
		return Result{}, fmt.Errorf("invalid page size %d", *size)
	}
	if maxPage := math.MaxInt32 / *size; *page-1 > maxPage {
		return Result{}, fmt.Errorf("invalid page %d: offset out of range", *page)
	}

	envs, err := d.backend.ListEnvelopes(ctx, *folder, *page, *size)
	if err != nil {
		return Result{}, err
	}
	if len(envs) == 0 {
		return text("No envelopes in folder %s (page %d)", *folder, *page), nil
	}

	aliases, err := d.aliasesOf(ctx, *folder, envs)
	if err != nil {
		return Result{}, err
	}
	return Result{Text: envelopeTable(acc.Envelope.List.Table, envs, aliases)}, nil
}

// envelopeThread prints the conversation trees of a folder, or only the
// one holding the given envelope.
func envelopeThread(ctx context.Context, d *Dispatcher, args []string) (Result, error) {
	fs := newFlags("envelope thread")
	folder := folderFlag(fs)
	if err := parseFlags(fs, args); err != nil {
		return Result{}, err
	}
	if fs.NArg() > 1 {
		return Result{}, fmt.Errorf("unexpected argument %q", fs.Arg(1))
	}

	envs, err := d.backend.ListEnvelopes(ctx, *folder, 0, 0)
	if err != nil {
		return Result{}, err
	}
	if len(envs) == 0 {
		return text("No envelopes in folder %s", *folder), nil
	}
	aliases, err := d.aliasesOf(ctx, *folder, envs)
	if err != nil {
		return Result{}, err
	}

	roots := buildThreads(envs)
	if fs.NArg() == 1 {
		ids, err := d.resolveIDs(ctx, *folder, fs.Args())
		if err != nil {
			return Result{}, err
		}
		root := threadOf(roots, ids[0])
		if root == nil {
			return Result{}, fmt.Errorf("envelope %s not found in folder %s", fs.Arg(0), *folder)
		}
		roots = []*threadNode{root}
	}

	return Result{Text: renderThreads(roots, func(env model.Envelope) string {
		return fmt.Sprintf("%d %s (%s)", aliases[env.ID], env.Subject, env.From.Display())
	})}, nil
}

package dispatch

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/pflag"

	"github.com/nhle/mailrepl/internal/model"
	"github.com/nhle/mailrepl/internal/template"
)

const messageSeparator = "\n\n"

func renderMessages(msgs []model.Message) string {
	parts := make([]string, 0, len(msgs))
	for _, msg := range msgs {
		parts = append(parts, template.Read(msg))
	}
	return strings.Join(parts, messageSeparator)
}

// messageRead prints messages and marks them seen unless --preview is
// given.
func messageRead(ctx context.Context, d *Dispatcher, args []string) (Result, error) {
	fs := newFlags("message read")
	folder := folderFlag(fs)
	preview := fs.Bool("preview", false, "read without marking as seen")
	if err := parseFlags(fs, args); err != nil {
		return Result{}, err
	}

	ids, err := d.resolveIDs(ctx, *folder, fs.Args())
	if err != nil {
		return Result{}, err
	}
	msgs, err := d.backend.GetMessages(ctx, *folder, ids)
	if err != nil {
		return Result{}, err
	}
	if !*preview {
		if err := d.backend.AddFlags(ctx, *folder, ids, model.Flags{model.FlagSeen}); err != nil {
			return Result{}, fmt.Errorf("marking messages as seen: %w", err)
		}
	}
	return Result{Text: renderMessages(msgs)}, nil
}

// singleID resolves the only positional argument of fs.
func singleID(ctx context.Context, d *Dispatcher, fs *pflag.FlagSet, folder string) (string, error) {
	if fs.NArg() == 0 {
		return "", errMissingID
	}
	if fs.NArg() > 1 {
		return "", fmt.Errorf("unexpected argument %q", fs.Args()[1])
	}
	ids, err := d.resolveIDs(ctx, folder, fs.Args())
	if err != nil {
		return "", err
	}
	return ids[0], nil
}

func messageThread(ctx context.Context, d *Dispatcher, args []string) (Result, error) {
	fs := newFlags("message thread")
	folder := folderFlag(fs)
	if err := parseFlags(fs, args); err != nil {
		return Result{}, err
	}
	id, err := singleID(ctx, d, fs, *folder)
	if err != nil {
		return Result{}, err
	}

	envs, err := d.backend.ListEnvelopes(ctx, *folder, 0, 0)
	if err != nil {
		return Result{}, err
	}
	root := threadOf(buildThreads(envs), id)
	if root == nil {
		return Result{}, fmt.Errorf("envelope %s not found in folder %s", fs.Arg(0), *folder)
	}

	thread := root.flatten()
	ids := make([]string, 0, len(thread))
	for _, env := range thread {
		ids = append(ids, env.ID)
	}
	msgs, err := d.backend.GetMessages(ctx, *folder, ids)
	if err != nil {
		return Result{}, err
	}
	return Result{Text: renderMessages(msgs)}, nil
}

func (d *Dispatcher) message(ctx context.Context, folder, id string) (model.Message, error) {
	msgs, err := d.backend.GetMessages(ctx, folder, []string{id})
	if err != nil {
		return model.Message{}, err
	}
	if len(msgs) == 0 {
		return model.Message{}, fmt.Errorf("message %s not found in folder %s", id, folder)
	}
	return msgs[0], nil
}

func messageWrite(_ context.Context, d *Dispatcher, args []string) (Result, error) {
	if len(args) > 0 {
		return Result{}, fmt.Errorf("unexpected argument %q", args[0])
	}
	return Result{Compose: &Compose{Template: template.Write(d.backend.Account())}}, nil
}

func messageReply(ctx context.Context, d *Dispatcher, args []string) (Result, error) {
	fs := newFlags("message reply")
	folder := folderFlag(fs)
	all := fs.BoolP("all", "a", false, "reply to all recipients")
	if err := parseFlags(fs, args); err != nil {
		return Result{}, err
	}
	id, err := singleID(ctx, d, fs, *folder)
	if err != nil {
		return Result{}, err
	}

	msg, err := d.message(ctx, *folder, id)
	if err != nil {
		return Result{}, err
	}
	return Result{Compose: &Compose{
		Template:  template.Reply(d.backend.Account(), msg, *all),
		Answering: &MessageRef{Folder: *folder, ID: id},
	}}, nil
}

func messageForward(ctx context.Context, d *Dispatcher, args []string) (Result, error) {
	fs := newFlags("message forward")
	folder := folderFlag(fs)
	if err := parseFlags(fs, args); err != nil {
		return Result{}, err
	}
	id, err := singleID(ctx, d, fs, *folder)
	if err != nil {
		return Result{}, err
	}

	msg, err := d.message(ctx, *folder, id)
	if err != nil {
		return Result{}, err
	}
	return Result{Compose: &Compose{Template: template.Forward(d.backend.Account(), msg)}}, nil
}

// transferArgs parses "[-f folder] <target> <id>...".
func transferArgs(ctx context.Context, d *Dispatcher, name string, args []string) (folder, target string, ids []string, err error) {
	fs := newFlags(name)
	src := folderFlag(fs)
	if err := parseFlags(fs, args); err != nil {
		return "", "", nil, err
	}
	if fs.NArg() == 0 {
		return "", "", nil, errMissingFolder
	}
	ids, err = d.resolveIDs(ctx, *src, fs.Args()[1:])
	if err != nil {
		return "", "", nil, err
	}
	return *src, fs.Arg(0), ids, nil
}

func messageCopy(ctx context.Context, d *Dispatcher, args []string) (Result, error) {
	folder, target, ids, err := transferArgs(ctx, d, "message copy", args)
	if err != nil {
		return Result{}, err
	}
	if err := d.backend.CopyMessages(ctx, folder, target, ids); err != nil {
		return Result{}, err
	}
	return text("%s successfully copied to folder %s", plural(len(ids), "Message", "Messages"), target), nil
}

func messageMove(ctx context.Context, d *Dispatcher, args []string) (Result, error) {
	folder, target, ids, err := transferArgs(ctx, d, "message move", args)
	if err != nil {
		return Result{}, err
	}
	if err := d.backend.MoveMessages(ctx, folder, target, ids); err != nil {
		return Result{}, err
	}
	d.forget(ctx, folder, ids)
	return text("%s successfully moved to folder %s", plural(len(ids), "Message", "Messages"), target), nil
}

func messageDelete(ctx context.Context, d *Dispatcher, args []string) (Result, error) {
	fs := newFlags("message delete")
	folder := folderFlag(fs)
	if err := parseFlags(fs, args); err != nil {
		return Result{}, err
	}
	ids, err := d.resolveIDs(ctx, *folder, fs.Args())
	if err != nil {
		return Result{}, err
	}
	if err := d.backend.DeleteMessages(ctx, *folder, ids); err != nil {
		return Result{}, err
	}
	if d.mapperFolder(*folder) != d.mapperFolder(model.FolderTrash) {
		d.forget(ctx, *folder, ids)
	}
	return text("%s successfully deleted", plural(len(ids), "Message", "Messages")), nil
}

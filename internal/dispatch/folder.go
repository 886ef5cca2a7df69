package dispatch

import (
	"context"
	"fmt"
)

// folderArg returns the single folder argument, or def when it is
// optional and absent.
func folderArg(args []string, def string) (string, error) {
	switch {
	case len(args) > 1:
		return "", fmt.Errorf("unexpected argument %q", args[1])
	case len(args) == 1:
		return args[0], nil
	case def != "":
		return def, nil
	default:
		return "", errMissingFolder
	}
}

func folderAdd(ctx context.Context, d *Dispatcher, args []string) (Result, error) {
	name, err := folderArg(args, "")
	if err != nil {
		return Result{}, err
	}
	if err := d.backend.AddFolder(ctx, name); err != nil {
		return Result{}, err
	}
	return text("Folder %s successfully created", name), nil
}

func folderList(ctx context.Context, d *Dispatcher, args []string) (Result, error) {
	if len(args) > 0 {
		return Result{}, fmt.Errorf("unexpected argument %q", args[0])
	}
	folders, err := d.backend.ListFolders(ctx)
	if err != nil {
		return Result{}, err
	}
	return Result{Text: folderTable(folders)}, nil
}

func folderExpunge(ctx context.Context, d *Dispatcher, args []string) (Result, error) {
	name, err := folderArg(args, "inbox")
	if err != nil {
		return Result{}, err
	}
	if err := d.backend.ExpungeFolder(ctx, name); err != nil {
		return Result{}, err
	}
	return text("Folder %s successfully expunged", name), nil
}

func folderPurge(ctx context.Context, d *Dispatcher, args []string) (Result, error) {
	name, err := folderArg(args, "inbox")
	if err != nil {
		return Result{}, err
	}
	if err := d.backend.PurgeFolder(ctx, name); err != nil {
		return Result{}, err
	}
	return text("Folder %s successfully purged", name), nil
}

func folderDelete(ctx context.Context, d *Dispatcher, args []string) (Result, error) {
	name, err := folderArg(args, "")
	if err != nil {
		return Result{}, err
	}
	if err := d.backend.DeleteFolder(ctx, name); err != nil {
		return Result{}, err
	}
	return text("Folder %s successfully deleted", name), nil
}

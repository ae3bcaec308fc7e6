package cli

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/dmitrijs2005/gophsend/internal/client/lifecycle"
	"github.com/dmitrijs2005/gophsend/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/gophsend/internal/client/transfer"
	"github.com/dustin/go-humanize"
)

var errUsage = errors.New("wrong arguments")

func usage(u string) error {
	return fmt.Errorf("%w, usage: %s", errUsage, u)
}

func (a *App) Upload(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usage("upload <path>")
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	name := filepath.Base(args[0])

	op, err := a.coord.StartUpload(ctx, transfer.UploadIntent{
		Name: name,
		Type: mime.TypeByExtension(filepath.Ext(name)),
		Data: data,
	})
	if err != nil {
		return err
	}
	printlnFn(fmt.Sprintf("Uploading %s (%s), op %s", name, humanize.Bytes(uint64(len(data))), op.ID))
	return nil
}

func (a *App) Download(ctx context.Context, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return usage("download <url> [password|-]")
	}
	in := transfer.DownloadIntent{ShareURL: args[0]}
	if len(args) == 2 {
		in.Password = args[1]
		if in.Password == "-" {
			pw, err := GetPassword(a.out)
			if err != nil {
				return err
			}
			in.Password = string(pw)
			wipe(pw)
		}
	}

	op, err := a.coord.StartDownload(ctx, in)
	if err != nil {
		return err
	}
	printlnFn("Downloading, op", op.ID.String())
	return nil
}

func (a *App) Cancel(ctx context.Context) error {
	return a.coord.Cancel(ctx)
}

func (a *App) List(_ context.Context) error {
	files := a.files.List()
	if len(files) == 0 {
		printlnFn("No files")
		return nil
	}
	now := time.Now()
	for _, f := range files {
		printlnFn(formatFile(f, now))
	}
	return nil
}

func formatFile(f lifecycle.OwnedFile, now time.Time) string {
	lock := ""
	if f.HasPassword() {
		lock = " [password]"
	}
	return fmt.Sprintf("%s  %-24s %8s  %d/%d downloads  expires %s%s\n    %s",
		f.ID, f.Name, humanize.Bytes(uint64(f.Size)),
		f.DownloadCount, f.DownloadLimit,
		humanize.RelTime(f.ExpiresAt, now, "ago", "from now"), lock,
		f.ShareURL())
}

func (a *App) Refresh(ctx context.Context) error {
	if err := a.coord.Refresh(ctx); err != nil {
		return err
	}
	printlnFn("Refreshing owned files")
	return nil
}

func (a *App) Delete(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usage("delete <id>")
	}
	ok, err := a.files.Delete(ctx, args[0])
	if err != nil {
		return err
	}
	if !ok {
		printlnFn("Forgotten locally; the service did not confirm the deletion")
		return nil
	}
	printlnFn("Deleted", args[0])
	return nil
}

func (a *App) Limit(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return usage("limit <id> <n>")
	}
	n, err := strconv.Atoi(args[1])
	if err != nil || n < 1 {
		return usage("limit <id> <n>, n >= 1")
	}
	ok, err := a.files.ChangeLimit(ctx, args[0], n)
	if err != nil {
		return err
	}
	if !ok {
		printlnFn("The service rejected the new limit")
		return nil
	}
	printlnFn(fmt.Sprintf("Download limit of %s is now %d", args[0], n))
	return nil
}

func (a *App) Password(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usage("password <id>")
	}
	if _, ok := a.files.Get(args[0]); !ok {
		return lifecycle.ErrNotTracked
	}
	pw, err := GetPassword(a.out)
	if err != nil {
		return err
	}
	defer wipe(pw)

	ok, err := a.files.SetPassword(ctx, args[0], pw)
	if err != nil {
		return err
	}
	if !ok {
		printlnFn("The service rejected the password")
		return nil
	}
	printlnFn("Password set for", args[0])
	return nil
}

func (a *App) Stats(ctx context.Context) error {
	counters, err := a.repos.Metadata.Counters(ctx)
	if err != nil {
		return err
	}
	printlnFn(fmt.Sprintf("Uploads: %d, downloads: %d, owned files: %d",
		counters[metadata.KeyTotalUploads], counters[metadata.KeyTotalDownloads], len(a.files.List())))
	return nil
}

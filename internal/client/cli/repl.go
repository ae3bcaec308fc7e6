package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface is the command surface the REPL dispatches to. The real App
// satisfies it; tests provide a lightweight stub.
type execIface interface {
	Upload(ctx context.Context, args []string) error
	Download(ctx context.Context, args []string) error
	Cancel(ctx context.Context) error
	List(ctx context.Context) error
	Refresh(ctx context.Context) error
	Delete(ctx context.Context, args []string) error
	Limit(ctx context.Context, args []string) error
	Password(ctx context.Context, args []string) error
	Stats(ctx context.Context) error
}

const helpText = "Available commands: upload <path>, download <url> [password|-], cancel, (l)ist, refresh, " +
	"delete <id>, limit <id> <n>, password <id>, stats, exit"

// runREPL reads commands line by line and dispatches them to a. It returns
// on scanner EOF, on "exit"/"quit" or once ctx is done.
//
// Errors returned by handlers are printed and the loop continues.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for ctx.Err() == nil {
		printlnFn(fmt.Sprintf("gs (%s) > ", statusFn()))
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		var err error
		switch cmd {
		case "help":
			printlnFn(helpText)
		case "upload":
			err = a.Upload(ctx, args)
		case "download":
			err = a.Download(ctx, args)
		case "cancel":
			err = a.Cancel(ctx)
		case "l", "list":
			err = a.List(ctx)
		case "refresh":
			err = a.Refresh(ctx)
		case "delete":
			err = a.Delete(ctx, args)
		case "limit":
			err = a.Limit(ctx, args)
		case "password":
			err = a.Password(ctx, args)
		case "stats":
			err = a.Stats(ctx)
		case "exit", "quit":
			printlnFn("Bye!")
			return
		default:
			printlnFn("Unknown command:", cmd)
		}
		if err != nil {
			printlnFn("Error:", err)
		}
	}
}

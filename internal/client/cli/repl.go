package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Login(ctx context.Context) error
	SignUp(ctx context.Context) error
	SubmitCode(ctx context.Context, code string) error
	Cancel(ctx context.Context) error
	Profile(ctx context.Context) error
	Edit(ctx context.Context) error
	Set(ctx context.Context, field, value string) error
	Save(ctx context.Context) error
	Discard(ctx context.Context) error
	ChangeEmail(ctx context.Context, email string) error
	Open(ctx context.Context, screen string) error
	Logout(ctx context.Context) error
}

// runREPL starts a simple read-eval-print loop for the portal shell.
//
// It reads a line from reader, parses the first token as the command, and
// dispatches to methods on a. The loop exits on EOF or when the user types
// "exit" or "quit".
//
// Commands:
//
//	Not logged in:
//	  - login                 sign in
//	  - signup                create an account
//	  - code <digits>         confirm the emailed code
//	  - cancel                abandon the current verification
//
//	Logged in:
//	  - profile               show the profile
//	  - edit                  start editing the profile
//	  - set <field> <value>   change a field of the draft
//	  - save | discard        commit or drop the draft
//	  - email <address>       change the email address
//	  - code <digits>, cancel as above
//	  - calendar, history, notifications
//	  - logout
//
// A failing command prints one line describing the error; the loop goes on.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("portal %s> ", statusFn()))
		line, err := reader.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && line != "") {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		var cmdErr error
		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: profile, edit, set <field> <value>, save, discard, email <address>, code <digits>, cancel, calendar, history, notifications, logout, exit")
			} else {
				printlnFn("Available commands: login, signup, code <digits>, cancel, exit")
			}

		case "login":
			cmdErr = a.Login(ctx)

		case "signup", "register":
			cmdErr = a.SignUp(ctx)

		case "code", "verify":
			if len(args) != 1 {
				printlnFn("Usage: code <digits>")
				continue
			}
			cmdErr = a.SubmitCode(ctx, args[0])

		case "cancel":
			cmdErr = a.Cancel(ctx)

		case "profile":
			cmdErr = a.Profile(ctx)

		case "edit":
			cmdErr = a.Edit(ctx)

		case "set":
			if len(args) < 1 {
				printlnFn("Usage: set <field> <value>")
				continue
			}
			cmdErr = a.Set(ctx, args[0], strings.Join(args[1:], " "))

		case "save":
			cmdErr = a.Save(ctx)

		case "discard":
			cmdErr = a.Discard(ctx)

		case "email":
			if len(args) != 1 {
				printlnFn("Usage: email <address>")
				continue
			}
			cmdErr = a.ChangeEmail(ctx, args[0])

		case "calendar", "history", "notifications":
			cmdErr = a.Open(ctx, cmd)

		case "logout":
			cmdErr = a.Logout(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if cmdErr != nil {
			printlnFn("Error:", describe(cmdErr))
		}
		if err != nil {
			return
		}
	}
}

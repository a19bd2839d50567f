package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface is the command surface the REPL drives. The real App satisfies
// it; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Notes(ctx context.Context, query string) error
	ShowNote(ctx context.Context, ref string) error
	AddNote(ctx context.Context) error
	EditNote(ctx context.Context, ref string) error
	Tasks(ctx context.Context, query string) error
	AddTask(ctx context.Context) error
	EditTask(ctx context.Context, ref string) error
	Done(ctx context.Context, ref string) error
	Delete(ctx context.Context, ref string) error
	Retry(ctx context.Context, ref string) error
	Sync(ctx context.Context) error
	Status(ctx context.Context) error
}

const (
	helpSignedOut = "Available commands: register, login, status, exit"
	helpSignedIn  = "Available commands: notes [search], show <id>, addnote, editnote <id>, " +
		"tasks [search], addtask, edittask <id>, done <id>, delete <id>, retry [id], sync, status, logout, exit"
)

// runREPL reads commands from scanner until EOF, "exit" or "quit".
//
// The first word of a line is the command, the rest its argument. Record
// commands need a signed-in user. Command errors are printed and the loop
// goes on.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("notesync (%s) > ", statusFn()))
		if !scanner.Scan() {
			return
		}
		cmd, arg, _ := strings.Cut(strings.TrimSpace(scanner.Text()), " ")
		arg = strings.TrimSpace(arg)
		if cmd == "" {
			continue
		}

		if cmd == "exit" || cmd == "quit" {
			printlnFn("Bye!")
			return
		}

		if err := dispatch(ctx, a, cmd, arg); err != nil {
			printlnFn("Error:", err)
		}
	}
}

func dispatch(ctx context.Context, a execIface, cmd, arg string) error {
	switch cmd {
	case "help":
		if a.isLoggedIn() {
			printlnFn(helpSignedIn)
		} else {
			printlnFn(helpSignedOut)
		}
		return nil
	case "register":
		return a.Register(ctx)
	case "login":
		return a.Login(ctx)
	case "status":
		return a.Status(ctx)
	}

	withID := func(fn func(context.Context, string) error) error {
		if arg == "" {
			printlnFn("Usage:", cmd, "<id>")
			return nil
		}
		return fn(ctx, arg)
	}

	if !a.isLoggedIn() {
		switch cmd {
		case "logout", "notes", "n", "show", "addnote", "editnote", "tasks", "t", "addtask",
			"edittask", "done", "delete", "rm", "retry", "sync":
			printlnFn("Please log in first")
		default:
			printlnFn("Unknown command:", cmd)
		}
		return nil
	}

	switch cmd {
	case "logout":
		return a.Logout(ctx)
	case "notes", "n":
		return a.Notes(ctx, arg)
	case "show":
		return withID(a.ShowNote)
	case "addnote":
		return a.AddNote(ctx)
	case "editnote":
		return withID(a.EditNote)
	case "tasks", "t":
		return a.Tasks(ctx, arg)
	case "addtask":
		return a.AddTask(ctx)
	case "edittask":
		return withID(a.EditTask)
	case "done":
		return withID(a.Done)
	case "delete", "rm":
		return withID(a.Delete)
	case "retry":
		return a.Retry(ctx, arg)
	case "sync":
		return a.Sync(ctx)
	default:
		printlnFn("Unknown command:", cmd)
		return nil
	}
}

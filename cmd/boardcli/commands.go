package main

import (
	"context"
	"flag"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/jrsteele09/go-board-client/app"
	"github.com/jrsteele09/go-board-client/auth"
	"github.com/jrsteele09/go-board-client/boards"
)

type command struct {
	help string
	run  func(ctx context.Context, a *app.App, args []string) error
}

var commandOrder = []string{"signup", "login", "logout", "whoami", "list", "show", "create", "edit", "delete", "categories"}

var commands = map[string]command{
	"signup":     {"create an account", signup},
	"login":      {"sign in and store the session", login},
	"logout":     {"forget the stored session", logout},
	"whoami":     {"show the signed in user", whoami},
	"list":       {"list a page of boards", list},
	"show":       {"show one board", show},
	"create":     {"create a board", create},
	"edit":       {"edit a board", edit},
	"delete":     {"delete a board", remove},
	"categories": {"list board categories", categories},
}

func signup(ctx context.Context, a *app.App, args []string) error {
	fs := flag.NewFlagSet("signup", flag.ContinueOnError)
	username := fs.String("username", "", "email address")
	name := fs.String("name", "", "display name")
	password := fs.String("password", "", "password")
	confirm := fs.String("confirm", "", "password again")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	err := a.Auth.Signup(ctx, auth.SignupRequest{
		Username:        *username,
		Name:            *name,
		Password:        *password,
		ConfirmPassword: *confirm,
	})
	if err != nil {
		return err
	}
	fmt.Printf("Account %s created. Sign in with: boardcli login -username %s\n", *username, *username)
	return nil
}

func login(ctx context.Context, a *app.App, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	username := fs.String("username", "", "email address")
	password := fs.String("password", "", "password")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	user, err := a.Auth.Login(ctx, *username, *password)
	if err != nil {
		return err
	}
	displayAppname(a.Config.GetAppName())
	if user == nil {
		fmt.Println("Signed in")
		return nil
	}
	fmt.Printf("Signed in as %s\n", displayName(user.DisplayName, user.Username))
	return nil
}

func logout(_ context.Context, a *app.App, _ []string) error {
	if err := a.Auth.Logout(); err != nil {
		return err
	}
	fmt.Println("Signed out")
	return nil
}

func whoami(_ context.Context, a *app.App, _ []string) error {
	user := a.Auth.CurrentUser()
	if user == nil {
		fmt.Println("Not signed in")
		return nil
	}
	fmt.Printf("%s (%s)\n", displayName(user.DisplayName, user.Username), user.Username)
	if token, err := a.Store.Token(); err == nil && !token.Expiry.IsZero() {
		fmt.Printf("access token expires %s\n", token.Expiry.Local().Format(time.RFC1123))
	}
	return nil
}

func list(ctx context.Context, a *app.App, args []string) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	page := fs.Int("page", 0, "zero based page number")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	if _, err := a.Boards.LoadCategories(ctx); err != nil {
		return err
	}
	if err := a.Boards.LoadPage(ctx, *page); err != nil {
		return err
	}

	state := a.Boards.State()
	snap := state.Snapshot()
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCATEGORY\tTITLE\tCREATED")
	for _, b := range snap.Boards {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", b.ID, state.CategoryLabel(b.Category), b.Title, b.CreatedAt)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("page %d of %d (%d boards)\n", snap.Page+1, max(snap.TotalPages, 1), snap.TotalElements)
	return nil
}

func show(ctx context.Context, a *app.App, args []string) error {
	id, err := boardID("show", args)
	if err != nil {
		return err
	}
	if _, err := a.Boards.LoadCategories(ctx); err != nil {
		return err
	}
	b, err := a.Boards.Open(ctx, id)
	if err != nil {
		return err
	}

	fmt.Printf("#%d [%s] %s\n", b.ID, a.Boards.State().CategoryLabel(b.BoardCategory), b.Title)
	fmt.Printf("created %s\n", b.CreatedAt)
	if b.ImageURL != nil {
		fmt.Printf("image %s\n", *b.ImageURL)
	}
	fmt.Println()
	fmt.Println(b.Content)
	return nil
}

func create(ctx context.Context, a *app.App, args []string) error {
	return save(ctx, a, "create", args)
}

func edit(ctx context.Context, a *app.App, args []string) error {
	return save(ctx, a, "edit", args)
}

func save(ctx context.Context, a *app.App, name string, args []string) error {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	id := fs.Int64("id", 0, "board id (edit only)")
	title := fs.String("title", "", "title")
	content := fs.String("content", "", "content")
	category := fs.String("category", "FREE", "category key, see 'categories'")
	file := fs.String("file", "", "optional image to attach")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if name == "edit" && *id <= 0 {
		fmt.Fprintln(fs.Output(), "edit needs -id")
		return errUsage
	}

	var attachment *boards.Attachment
	if *file != "" {
		f, err := os.Open(*file)
		if err != nil {
			return err
		}
		defer f.Close()
		attachment = &boards.Attachment{
			Name:        filepath.Base(*file),
			ContentType: mime.TypeByExtension(filepath.Ext(*file)),
			Reader:      f,
		}
	}

	saved, err := a.Boards.Save(ctx, *id, boards.Request{Title: *title, Content: *content, Category: *category}, attachment)
	if err != nil {
		return err
	}
	fmt.Printf("Saved board %d\n", saved)
	return nil
}

func remove(ctx context.Context, a *app.App, args []string) error {
	id, err := boardID("delete", args)
	if err != nil {
		return err
	}
	if err := a.Boards.Remove(ctx, id); err != nil {
		return err
	}
	fmt.Printf("Deleted board %d\n", id)
	return nil
}

func categories(ctx context.Context, a *app.App, _ []string) error {
	c, err := a.Boards.LoadCategories(ctx)
	if err != nil {
		return err
	}
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Printf("%-8s %s\n", k, c[k])
	}
	return nil
}

// boardID accepts either -id N or a bare N.
func boardID(name string, args []string) (int64, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	id := fs.Int64("id", 0, "board id")
	if err := fs.Parse(args); err != nil {
		return 0, errUsage
	}
	if *id == 0 && fs.NArg() > 0 {
		parsed, err := strconv.ParseInt(fs.Arg(0), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid board id %q", fs.Arg(0))
		}
		*id = parsed
	}
	if *id <= 0 {
		fmt.Fprintf(fs.Output(), "%s needs a board id\n", name)
		return 0, errUsage
	}
	return *id, nil
}

func displayName(name, username string) string {
	if name != "" {
		return name
	}
	return username
}

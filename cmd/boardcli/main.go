package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/go-board-client/app"
	"github.com/jrsteele09/go-board-client/internal/config"
	"github.com/jrsteele09/go-board-client/internal/logging"
	"github.com/jrsteele09/go-board-client/navigation"
	"github.com/rs/zerolog/log"
)

var errUsage = errors.New("usage")

func main() {
	if err := run(os.Args[1:]); err != nil {
		if !errors.Is(err, errUsage) {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		}
		os.Exit(1)
	}
}

func run(args []string) (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("Recovered from panic")
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	global := flag.NewFlagSet("boardcli", flag.ContinueOnError)
	configPath := global.String("config", "", "optional YAML config file")
	ephemeral := global.Bool("ephemeral", false, "keep the session in memory only")
	showMetrics := global.Bool("metrics", false, "print client metrics after the command")
	global.Usage = func() { usage(global) }
	if err := global.Parse(args); err != nil {
		return errUsage
	}

	c, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	logging.Setup(c.GetEnv(), c.GetLogLevel())

	if global.NArg() == 0 {
		displayAppname(c.GetAppName())
		usage(global)
		return errUsage
	}

	a, err := app.New(c, app.Options{Ephemeral: *ephemeral, Navigator: navigation.Func(promptLogin)})
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	name, rest := global.Arg(0), global.Args()[1:]
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", name)
		usage(global)
		return errUsage
	}
	returnError = cmd.run(ctx, a, rest)

	if *showMetrics {
		text, err := a.MetricsText()
		if err != nil {
			return errors.Join(returnError, err)
		}
		fmt.Println(text)
	}
	return returnError
}

func promptLogin(reason error) {
	log.Debug().Err(reason).Msg("Navigator: redirecting to login")
	fmt.Fprintln(os.Stderr, "Your session has ended. Sign in again with: boardcli login -username <email>")
}

func usage(fs *flag.FlagSet) {
	out := fs.Output()
	fmt.Fprintln(out, "Usage: boardcli [flags] <command> [command flags]")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Commands:")
	for _, name := range commandOrder {
		fmt.Fprintf(out, "  %-11s %s\n", name, commands[name].help)
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Flags:")
	fs.PrintDefaults()
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}

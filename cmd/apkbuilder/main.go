package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/apkbuilder/cmd/apkbuilder/commands"
	apkerrors "git.home.luguber.info/inful/apkbuilder/internal/errors"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cli := &commands.CLI{}
	global := &commands.Global{Context: ctx, Out: os.Stdout}

	parser, err := kong.New(cli,
		kong.Name("apkbuilder"),
		kong.Description("Package a native shared library into a signed Android APK."),
		kong.UsageOnError(),
		kong.Bind(global),
	)
	if err != nil {
		return commands.ExitCode(apkerrors.InternalError("build command line", err), false)
	}

	kctx, err := parser.Parse(args)
	if err != nil {
		if be, ok := apkerrors.As(err); ok {
			return commands.ExitCode(be, cli.Verbose)
		}
		var perr *kong.ParseError
		if errors.As(err, &perr) {
			_ = perr.Context.PrintUsage(true)
		}
		parser.Errorf("%s", err)
		return apkerrors.ExitUsage
	}

	return commands.ExitCode(kctx.Run(cli), cli.Verbose)
}

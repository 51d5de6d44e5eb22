package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/layoutswap/cmd/layoutswap/commands"
	"git.home.luguber.info/inful/layoutswap/internal/foundation/errors"
	"git.home.luguber.info/inful/layoutswap/internal/version"
)

func main() {
	os.Exit(run())
}

func run() int {
	cli := &commands.CLI{}
	kctx := kong.Parse(cli,
		kong.Name("layoutswap"),
		kong.Description("Replace layout references across every page of a content store site."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
		commands.Vars(),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	err := kctx.Run(&commands.Global{Ctx: ctx, Stdout: os.Stdout, Logger: slog.Default()})
	return errors.NewCLIErrorAdapter(cli.Verbose, slog.Default()).Handle(err)
}

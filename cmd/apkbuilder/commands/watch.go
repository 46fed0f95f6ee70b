package commands

import (
	"context"
	"log/slog"
	"time"

	apkerrors "git.home.luguber.info/inful/apkbuilder/internal/errors"
	"git.home.luguber.info/inful/apkbuilder/internal/logfields"
	"git.home.luguber.info/inful/apkbuilder/internal/project"
	"git.home.luguber.info/inful/apkbuilder/internal/watch"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	ProjectFlags `embed:""`
	Debounce     time.Duration `help:"Quiet period after a change before rebuilding (default 500ms)"`
	NoInitial    bool          `name:"no-initial" help:"Do not build once before watching"`
}

func (w *WatchCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	if err := w.apply(cfg); err != nil {
		return err
	}
	if w.Debounce > 0 {
		cfg.Watch.Debounce = w.Debounce
	}

	rebuild := func() error {
		res, err := RunBuild(g, cfg)
		if res != nil && res.Report != nil {
			printResult(g.out(), res, root.Verbose)
		}
		return err
	}

	ctx := g.ctx()
	if !w.NoInitial {
		if err := rebuild(); err != nil {
			if apkerrors.IsCategory(err, apkerrors.CategoryEnvironment) || ctx.Err() != nil {
				return err
			}
			slog.Error("Initial build failed, watching for changes", logfields.Error(err))
		}
	}

	l := project.NewLayout(cfg.Project.Path, cfg.Project.Name, cfg.Project.Package, cfg.Project.ABI)
	watcher, err := watch.New(l.LibSource, cfg.Watch.Debounce, func(context.Context) error { return rebuild() })
	if err != nil {
		return apkerrors.FileSystemError("watch", err).WithContext("path", l.LibSource)
	}
	return watcher.Run(ctx)
}

package commands

import (
	"fmt"
	"io"
	"time"

	"git.home.luguber.info/inful/apkbuilder/internal/build"
	"git.home.luguber.info/inful/apkbuilder/internal/config"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	ProjectFlags `embed:""`
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	if err := b.apply(cfg); err != nil {
		return err
	}
	res, err := RunBuild(g, cfg)
	if res != nil && res.Report != nil {
		printResult(g.out(), res, root.Verbose)
	}
	return err
}

// RunBuild runs one build through the configured service.
func RunBuild(g *Global, cfg *config.Config) (*build.Result, error) {
	return g.service().Run(g.ctx(), build.Request{Config: cfg})
}

func printResult(w io.Writer, res *build.Result, verbose bool) {
	r := res.Report
	if verbose || res.Status != build.StatusSuccess {
		fmt.Fprint(w, r.Table())
	}
	switch res.Status {
	case build.StatusSuccess, build.StatusWarning:
		fmt.Fprintf(w, "%s: %s (%s)\n", res.Status, res.Deployed, res.Duration.Round(time.Millisecond))
	default:
		fmt.Fprintf(w, "%s: %s\n", res.Status, r.Summary())
	}
}

package commands

import (
	"fmt"
	"text/tabwriter"

	"git.home.luguber.info/inful/apkbuilder/internal/sdk"
)

// CheckCmd implements the 'check' command.
type CheckCmd struct {
	SDKFlags `embed:""`
	Version  int `help:"Platform API version whose android.jar is checked (default 28)"`
}

func (c *CheckCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	c.apply(cfg)
	if c.Version != 0 {
		cfg.Project.Version = c.Version
	}

	tc, err := sdk.Resolve(sdk.Options{Root: cfg.SDK.Root, BuildTools: cfg.SDK.BuildTools, Platform: cfg.Project.Version})
	if err != nil {
		return err
	}

	out := g.out()
	fmt.Fprintln(out, tc.String())
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, t := range tc.Tools() {
		status := "ok"
		if !t.Found {
			status = "missing"
		}
		fmt.Fprintf(tw, "  %s\t%s\t%s\n", t.Name, status, t.Path)
	}
	return tw.Flush()
}

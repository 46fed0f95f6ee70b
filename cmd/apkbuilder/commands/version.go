package commands

import (
	"fmt"

	"git.home.luguber.info/inful/apkbuilder/internal/version"
)

// VersionCmd implements the 'version' command.
type VersionCmd struct{}

func (VersionCmd) Run(g *Global) error {
	fmt.Fprintln(g.out(), version.String())
	return nil
}

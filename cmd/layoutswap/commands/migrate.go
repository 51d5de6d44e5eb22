package commands

import "git.home.luguber.info/inful/layoutswap/internal/pipeline"

// MigrateCmd implements the 'migrate' command.
type MigrateCmd struct {
	RunFlags
}

func (m *MigrateCmd) Run(g *Global, root *CLI) error {
	return execute(g, root, &m.RunFlags, pipeline.ModeMigrate)
}

package commands

import "git.home.luguber.info/inful/layoutswap/internal/pipeline"

// ReportCmd implements the 'report' command: it lists matching pages and
// changes nothing.
type ReportCmd struct {
	RunFlags
}

func (r *ReportCmd) Run(g *Global, root *CLI) error {
	return execute(g, root, &r.RunFlags, pipeline.ModeReport)
}

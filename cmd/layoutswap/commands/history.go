package commands

import (
	"fmt"
	"text/tabwriter"
	"time"

	"git.home.luguber.info/inful/layoutswap/internal/foundation/errors"
	"git.home.luguber.info/inful/layoutswap/internal/journal"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	Journal string `help:"SQLite journal path (default: journal.path from the configuration)"`
	Limit   int    `default:"20" help:"Maximum number of runs to list"`
	RunID   string `arg:"" optional:"" name:"run-id" help:"Show the records of this run"`
}

func (h *HistoryCmd) Run(g *Global, root *CLI) error {
	path := h.Journal
	if path == "" {
		cfg, err := root.loadConfig()
		if err != nil {
			return err
		}
		path = cfg.Journal.Path
	}
	if path == "" {
		return errors.ConfigError("no journal configured").
			WithContext("hint", "set journal.path or pass --journal").
			Build()
	}

	j, err := journal.Open(path)
	if err != nil {
		return errors.WrapError(err, errors.CategoryRuntime, "failed to open journal").
			WithContext("path", path).
			Build()
	}
	defer func() { _ = j.Close() }()

	ctx := g.runContext()
	w := tabwriter.NewWriter(g.Stdout, 0, 4, 2, ' ', 0)
	defer func() { _ = w.Flush() }()

	if h.RunID != "" {
		entries, err := j.Records(ctx, h.RunID)
		if err != nil {
			return errors.WrapError(err, errors.CategoryRuntime, "failed to read records").Build()
		}
		_, _ = fmt.Fprintln(w, "KIND\tSTATUS\tURL\tLAYOUT\tNEW LAYOUT\tERROR")
		for _, e := range entries {
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				e.Kind, dash(e.Status), e.URL, dash(e.Layout), dash(e.NewLayout), dash(e.Error))
		}
		return nil
	}

	runs, err := j.ListRuns(ctx, h.Limit)
	if err != nil {
		return errors.WrapError(err, errors.CategoryRuntime, "failed to read runs").Build()
	}
	_, _ = fmt.Fprintln(w, "RUN\tMODE\tSTARTED\tDURATION\tLISTED\tMATCHED\tSUCCEEDED\tFAILED\tERROR")
	for _, r := range runs {
		duration := "running"
		if !r.FinishedAt.IsZero() {
			duration = r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond).String()
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%d\t%d\t%s\n",
			r.ID, r.Mode, r.StartedAt.Format(time.RFC3339), duration,
			r.Listed, r.Matched, r.Succeeded, r.Failed, dash(r.Error))
	}
	return nil
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

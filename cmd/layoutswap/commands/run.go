package commands

import (
	"context"

	"github.com/google/uuid"
	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/layoutswap/internal/commit"
	"git.home.luguber.info/inful/layoutswap/internal/config"
	"git.home.luguber.info/inful/layoutswap/internal/fetch"
	"git.home.luguber.info/inful/layoutswap/internal/foundation/errors"
	"git.home.luguber.info/inful/layoutswap/internal/journal"
	"git.home.luguber.info/inful/layoutswap/internal/logfields"
	"git.home.luguber.info/inful/layoutswap/internal/metrics"
	"git.home.luguber.info/inful/layoutswap/internal/notify"
	"git.home.luguber.info/inful/layoutswap/internal/output"
	"git.home.luguber.info/inful/layoutswap/internal/pipeline"
	"git.home.luguber.info/inful/layoutswap/internal/store"
)

// RunFlags override configuration values for migrate and report.
type RunFlags struct {
	Site          string            `help:"Site URL whose pages are scanned"`
	Map           map[string]string `help:"Layout mapping entry; repeatable" placeholder:"FROM=TO"`
	Concurrency   int               `help:"Maximum in-flight fetches, and separately commits"`
	TargetHost    string            `name:"target-host" help:"Route every connection to this host[:port]"`
	ForwardedHost string            `name:"forwarded-host" help:"X-Forwarded-Host header value"`
	Journal       string            `help:"SQLite journal path"`
	NATSURL       string            `name:"nats-url" help:"Publish records to this NATS server"`
	MetricsFile   string            `name:"metrics-file" help:"Write Prometheus metrics to this textfile after the run"`
}

func (f *RunFlags) apply(cfg *config.Config) {
	if f.Site != "" {
		cfg.Site = f.Site
	}
	if len(f.Map) > 0 {
		cfg.Mapping = f.Map
	}
	if f.Concurrency != 0 {
		cfg.Concurrency = f.Concurrency
	}
	if f.TargetHost != "" {
		cfg.TargetHost = f.TargetHost
	}
	if f.ForwardedHost != "" {
		cfg.ForwardedHost = f.ForwardedHost
	}
	if f.Journal != "" {
		cfg.Journal.Path = f.Journal
	}
	if f.NATSURL != "" {
		cfg.Notify.NATSURL = f.NATSURL
	}
	if f.MetricsFile != "" {
		cfg.Metrics.Textfile = f.MetricsFile
	}
	cfg.ApplyDefaults()
}

// execute runs one pipeline for mode. Per-page commit failures are printed
// as results and do not fail the command.
func execute(g *Global, root *CLI, flags *RunFlags, mode pipeline.Mode) error {
	ctx := g.runContext()
	logger := g.log()

	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	flags.apply(cfg)
	cfg.Mode = string(mode)
	if err := cfg.Validate(); err != nil {
		return err
	}
	mapping, err := cfg.LayoutMapping()
	if err != nil {
		return err
	}

	client := store.NewClient(cfg.StoreOptions())
	fetcher, err := fetch.New(client, cfg.Site, cfg.TolerateStatuses)
	if err != nil {
		return err
	}
	var committer pipeline.Committer
	if mode == pipeline.ModeMigrate {
		committer = commit.NewExecutor(client)
	}

	runID := uuid.NewString()
	sinks := []pipeline.Sink{output.NewWriter(g.Stdout)}

	var runJournal *journal.Journal
	if cfg.Journal.Path != "" {
		runJournal, err = journal.Open(cfg.Journal.Path)
		if err != nil {
			return errors.WrapError(err, errors.CategoryRuntime, "failed to open journal").
				WithContext("path", cfg.Journal.Path).
				Build()
		}
		defer func() { _ = runJournal.Close() }()
		if err := runJournal.StartRun(ctx, runID, mode, cfg.Site); err != nil {
			return errors.WrapError(err, errors.CategoryRuntime, "failed to journal run").Build()
		}
		sinks = append(sinks, runJournal)
	}

	if cfg.Notify.NATSURL != "" {
		notifier, err := notify.Connect(cfg.Notify.NATSURL, cfg.Notify.Subject)
		if err != nil {
			return errors.WrapError(err, errors.CategoryNetwork, "failed to connect notifier").
				WithContext("nats_url", cfg.Notify.NATSURL).
				Build()
		}
		defer func() {
			if err := notifier.Close(); err != nil {
				logger.Warn("Failed to close notifier", logfields.Error(err))
			}
		}()
		sinks = append(sinks, notifier)
	}

	registry := prom.NewRegistry()
	p, err := pipeline.New(fetcher, committer,
		pipeline.Options{
			RunID:       runID,
			Mode:        mode,
			Mapping:     mapping,
			Concurrency: cfg.Concurrency,
		},
		pipeline.WithSink(pipeline.MultiSink(sinks...)),
		pipeline.WithRecorder(metrics.NewPrometheusRecorder(registry)),
		pipeline.WithLogger(logger.With(logfields.Site(cfg.Site))),
	)
	if err != nil {
		return err
	}

	summary, runErr := p.Run(ctx)

	if runJournal != nil {
		if err := runJournal.FinishRun(context.WithoutCancel(ctx), summary, runErr); err != nil {
			logger.Warn("Failed to journal run summary", logfields.RunID(runID), logfields.Error(err))
		}
	}
	if cfg.Metrics.Textfile != "" {
		if err := metrics.WriteTextfile(cfg.Metrics.Textfile, registry); err != nil {
			logger.Warn("Failed to write metrics", logfields.Error(err))
		}
	}
	return runErr
}

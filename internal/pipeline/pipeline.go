// Package pipeline runs a site-wide layout migration:
// LIST → FETCH → FILTER → REWRITE → COMMIT → DONE.
//
// Fetches and commits each run on their own errgroup bounded by
// Options.Concurrency. Filtering and rewriting happen on a single consumer
// goroutine, so no asset is shared between workers. The first fatal fetch
// failure stops scheduling of new fetches and commits; commits already in
// flight finish and are reported.
package pipeline

import (
	"context"
	stderrors "errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/layoutswap/internal/commit"
	"git.home.luguber.info/inful/layoutswap/internal/content"
	"git.home.luguber.info/inful/layoutswap/internal/fetch"
	"git.home.luguber.info/inful/layoutswap/internal/foundation/errors"
	"git.home.luguber.info/inful/layoutswap/internal/layout"
	"git.home.luguber.info/inful/layoutswap/internal/logfields"
	"git.home.luguber.info/inful/layoutswap/internal/metrics"
	"git.home.luguber.info/inful/layoutswap/internal/reference"
)

// DefaultConcurrency bounds in-flight fetches and, separately, in-flight commits.
const DefaultConcurrency = 10

// Stage names used in logs and metrics.
const (
	StageList   = "list"
	StageFetch  = "fetch"
	StageCommit = "commit"
)

// Source lists page references and fetches lanes.
type Source interface {
	ListPageReferences(ctx context.Context) ([]string, error)
	FetchAsset(ctx context.Context, lane fetch.Lane) fetch.Outcome
}

// Committer persists one rewritten asset.
type Committer interface {
	Commit(ctx context.Context, asset *content.Asset) commit.Result
}

// Options parameterize one run.
type Options struct {
	RunID       string
	Mode        Mode
	Mapping     layout.Mapping
	Concurrency int
}

// Summary describes a finished run.
type Summary struct {
	RunID     string
	Mode      Mode
	Listed    int
	Fetched   int
	Skipped   int
	Matched   int
	Succeeded int
	Failed    int
	Matches   []string
	Results   []commit.Result
	Duration  time.Duration
}

// Pipeline wires a Source and Committer into a run.
type Pipeline struct {
	source    Source
	committer Committer
	opts      Options
	sink      Sink
	recorder  metrics.Recorder
	logger    *slog.Logger
}

// Option configures pipeline behavior.
type Option func(*Pipeline)

// WithSink sets where records are emitted.
func WithSink(s Sink) Option {
	return func(p *Pipeline) {
		if s != nil {
			p.sink = s
		}
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(p *Pipeline) {
		if r != nil {
			p.recorder = r
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// New creates a pipeline. committer may be nil in report mode.
func New(source Source, committer Committer, opts Options, options ...Option) (*Pipeline, error) {
	if opts.Mode == "" {
		opts.Mode = ModeMigrate
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.RunID == "" {
		opts.RunID = uuid.NewString()
	}
	if source == nil {
		return nil, errors.InternalError("pipeline requires a source").Build()
	}
	if opts.Mode == ModeMigrate && committer == nil {
		return nil, errors.InternalError("migrate mode requires a committer").Build()
	}
	if len(opts.Mapping) == 0 {
		return nil, errors.ConfigError("layout mapping is empty").Build()
	}

	p := &Pipeline{
		source:    source,
		committer: committer,
		opts:      opts,
		sink:      discardSink{},
		recorder:  metrics.NoopRecorder{},
		logger:    slog.Default(),
	}
	for _, opt := range options {
		opt(p)
	}
	p.logger = p.logger.With(logfields.RunID(opts.RunID), logfields.Mode(string(opts.Mode)))
	return p, nil
}

// RunID returns the identifier attached to every record of this pipeline.
func (p *Pipeline) RunID() string { return p.opts.RunID }

// commitOutcome carries a commit result with the asset details needed for its record.
type commitOutcome struct {
	asset     *content.Asset
	oldLayout string
	newLayout string
	result    commit.Result
}

// Run executes the pipeline until the listing is exhausted and all in-flight
// work completes. The returned error is non-nil only when the listing or a
// fetch failed; commit failures are reported in the Summary.
func (p *Pipeline) Run(ctx context.Context) (*Summary, error) {
	start := time.Now()
	summary := &Summary{RunID: p.opts.RunID, Mode: p.opts.Mode}
	p.recorder.SetConcurrency(p.opts.Concurrency)

	p.logger.Info("Listing pages", slog.Any("layouts", p.opts.Mapping.Sources()))
	stageStart := time.Now()
	refs, err := p.source.ListPageReferences(ctx)
	p.recorder.ObserveStageDuration(StageList, time.Since(stageStart))
	if err != nil {
		p.finish(summary, start, err)
		return summary, err
	}
	summary.Listed = len(refs)
	p.logger.Info("Pages listed", logfields.Count(len(refs)))

	var (
		fatal    atomic.Bool
		skipped  atomic.Int64
		fetchErr error
	)
	assets := make(chan *content.Asset)
	fetchStart := time.Now()

	fetchGroup, fetchCtx := errgroup.WithContext(ctx)
	fetchGroup.SetLimit(p.opts.Concurrency)
	go func() {
		defer close(assets)
		p.scheduleFetches(fetchCtx, fetchGroup, refs, assets, &fatal, &skipped)
		fetchErr = fetchGroup.Wait()
		p.recorder.ObserveStageDuration(StageFetch, time.Since(fetchStart))
	}()

	outcomes := make(chan commitOutcome)
	collected := make(chan struct{})
	go func() {
		defer close(collected)
		for out := range outcomes {
			p.collect(ctx, summary, out)
		}
	}()

	commitGroup := new(errgroup.Group)
	commitGroup.SetLimit(p.opts.Concurrency)
	var commitStart time.Time

	for asset := range assets {
		summary.Fetched++
		// Drain without scheduling once a lane has failed.
		if fatal.Load() || ctx.Err() != nil {
			continue
		}
		if !layout.Matches(asset, p.opts.Mapping) {
			continue
		}

		summary.Matched++
		oldLayout, _ := asset.Document.Layout()
		p.recorder.IncMatch(laneOf(asset))

		if p.opts.Mode == ModeReport {
			summary.Matches = append(summary.Matches, asset.URL)
			p.emit(ctx, Record{
				RunID:     p.opts.RunID,
				Kind:      KindMatch,
				URL:       asset.URL,
				Reference: asset.Reference,
				Layout:    oldLayout,
			})
			continue
		}

		layout.Rewrite(asset, p.opts.Mapping)
		newLayout, _ := asset.Document.Layout()
		if commitStart.IsZero() {
			commitStart = time.Now()
		}
		commitGroup.Go(func() error {
			begin := time.Now()
			res := p.committer.Commit(ctx, asset)
			p.recorder.ObserveCommitDuration(time.Since(begin), res.OK())
			outcomes <- commitOutcome{asset: asset, oldLayout: oldLayout, newLayout: newLayout, result: res}
			return nil
		})
	}

	_ = commitGroup.Wait()
	close(outcomes)
	<-collected
	if !commitStart.IsZero() {
		p.recorder.ObserveStageDuration(StageCommit, time.Since(commitStart))
	}

	summary.Skipped = int(skipped.Load())
	p.finish(summary, start, fetchErr)
	return summary, fetchErr
}

// scheduleFetches starts one bounded task per lane and stops scheduling once
// the fetch context is done.
func (p *Pipeline) scheduleFetches(
	ctx context.Context,
	g *errgroup.Group,
	refs []string,
	assets chan<- *content.Asset,
	fatal *atomic.Bool,
	skipped *atomic.Int64,
) {
	for _, ref := range refs {
		for _, lane := range fetch.Lanes(ref) {
			if ctx.Err() != nil {
				return
			}
			g.Go(func() error {
				begin := time.Now()
				out := p.source.FetchAsset(ctx, lane)
				p.recorder.ObserveFetchDuration(lane.Name(), time.Since(begin))
				p.recorder.IncFetchOutcome(lane.Name(), out.Kind.String())

				switch out.Kind {
				case fetch.Found:
					select {
					case assets <- out.Asset:
						return nil
					case <-ctx.Done():
						return ctx.Err()
					}
				case fetch.NotFound:
					skipped.Add(1)
					p.logger.Debug("Published copy absent", logfields.Reference(lane.Reference))
					return nil
				default:
					fatal.Store(true)
					// Siblings aborted by an earlier failure are not failures of their own.
					if ctx.Err() != nil {
						p.logger.Debug("Fetch canceled",
							logfields.Reference(lane.Reference),
							logfields.Lane(lane.Name()))
						return out.Err
					}
					p.logger.Error("Fetch failed",
						logfields.Reference(lane.Reference),
						logfields.Lane(lane.Name()),
						logfields.Error(out.Err))
					return out.Err
				}
			})
		}
	}
}

// collect records one commit outcome; it runs on the collector goroutine only.
func (p *Pipeline) collect(ctx context.Context, summary *Summary, out commitOutcome) {
	res := out.result
	summary.Results = append(summary.Results, res)
	p.recorder.IncCommitResult(res.OK())
	if res.OK() {
		summary.Succeeded++
		p.logger.Info("Committed", logfields.URL(res.URL), logfields.Layout(out.newLayout))
	} else {
		summary.Failed++
		p.logger.Warn("Commit failed", logfields.URL(res.URL), slog.String(logfields.KeyError, res.Error))
	}

	p.emit(ctx, Record{
		RunID:     p.opts.RunID,
		Kind:      KindCommit,
		URL:       res.URL,
		Reference: out.asset.Reference,
		Layout:    out.oldLayout,
		NewLayout: out.newLayout,
		Result:    &res,
	})
}

func (p *Pipeline) emit(ctx context.Context, rec Record) {
	if err := p.sink.Emit(ctx, rec); err != nil {
		p.logger.Warn("Failed to emit record", logfields.URL(rec.URL), logfields.Error(err))
	}
}

func (p *Pipeline) finish(summary *Summary, start time.Time, err error) {
	summary.Duration = time.Since(start)
	p.recorder.ObserveRunDuration(summary.Duration)

	result := metrics.ResultSuccess
	switch {
	case err == nil:
	case stderrors.Is(err, context.Canceled), stderrors.Is(err, context.DeadlineExceeded):
		result = metrics.ResultCanceled
	default:
		result = metrics.ResultFatal
	}
	p.recorder.IncRunOutcome(string(p.opts.Mode), result)

	attrs := []any{
		logfields.Count(summary.Listed),
		slog.Int("fetched", summary.Fetched),
		slog.Int("skipped", summary.Skipped),
		slog.Int("matched", summary.Matched),
		slog.Int("succeeded", summary.Succeeded),
		slog.Int("failed", summary.Failed),
		logfields.DurationMS(float64(summary.Duration.Milliseconds())),
	}
	if err != nil {
		p.logger.Error("Run aborted", append(attrs, logfields.Error(err))...)
		return
	}
	p.logger.Info("Run completed", attrs...)
}

func laneOf(asset *content.Asset) string {
	if reference.IsPublished(asset.Reference) {
		return "published"
	}
	return "draft"
}

package pipeline

import (
	"context"
	stderrors "errors"

	"git.home.luguber.info/inful/layoutswap/internal/commit"
)

// RecordKind distinguishes report matches from commit results.
type RecordKind string

const (
	KindMatch  RecordKind = "match"
	KindCommit RecordKind = "commit"
)

// Record is one reportable event of a run.
type Record struct {
	RunID     string
	Kind      RecordKind
	URL       string
	Reference string
	// Layout is the layout reference the asset carried when fetched.
	Layout string
	// NewLayout is set on commit records.
	NewLayout string
	// Result is set on commit records.
	Result *commit.Result
}

// Sink receives records. A run calls Emit from one goroutine at a time, in
// completion order.
type Sink interface {
	Emit(ctx context.Context, rec Record) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, rec Record) error

func (f SinkFunc) Emit(ctx context.Context, rec Record) error { return f(ctx, rec) }

type multiSink []Sink

// MultiSink fans every record out to all sinks and joins their errors.
func MultiSink(sinks ...Sink) Sink {
	var ms multiSink
	for _, s := range sinks {
		if s != nil {
			ms = append(ms, s)
		}
	}
	return ms
}

func (ms multiSink) Emit(ctx context.Context, rec Record) error {
	var errs []error
	for _, s := range ms {
		if err := s.Emit(ctx, rec); err != nil {
			errs = append(errs, err)
		}
	}
	return stderrors.Join(errs...)
}

type discardSink struct{}

func (discardSink) Emit(context.Context, Record) error { return nil }

// Package output prints run records to stdout as JSON lines: a JSON string
// per matching URL in report mode, a commit result object per commit in
// migrate mode.
package output

import (
	"context"
	"encoding/json"
	"io"
	"sync"

	"git.home.luguber.info/inful/layoutswap/internal/foundation/errors"
	"git.home.luguber.info/inful/layoutswap/internal/pipeline"
)

// Writer is a pipeline.Sink writing one JSON document per line.
type Writer struct {
	mu  sync.Mutex
	enc *json.Encoder
}

// NewWriter creates a Writer on w.
func NewWriter(w io.Writer) *Writer {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return &Writer{enc: enc}
}

// Emit implements pipeline.Sink.
func (w *Writer) Emit(_ context.Context, rec pipeline.Record) error {
	var v any
	switch rec.Kind {
	case pipeline.KindMatch:
		v = rec.URL
	case pipeline.KindCommit:
		if rec.Result == nil {
			return errors.InternalError("commit record without result").
				WithContext("url", rec.URL).
				Build()
		}
		v = rec.Result
	default:
		return errors.InternalError("unknown record kind").
			WithContext("kind", string(rec.Kind)).
			Build()
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.enc.Encode(v); err != nil {
		return errors.RuntimeError("failed to write record").
			WithCause(err).
			WithContext("url", rec.URL).
			Build()
	}
	return nil
}

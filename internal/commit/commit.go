// Package commit writes rewritten assets back to the content store and turns
// the outcome into a reportable Result.
package commit

import (
	"context"

	"git.home.luguber.info/inful/layoutswap/internal/content"
	"git.home.luguber.info/inful/layoutswap/internal/store"
)

// Status of a commit attempt.
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Result is produced once per attempted commit.
type Result struct {
	URL    string `json:"url"`
	Status Status `json:"status"`
	Error  string `json:"error,omitempty"`
}

// OK reports whether the commit succeeded.
func (r Result) OK() bool { return r.Status == StatusSuccess }

// Writer persists a document at a URL.
type Writer interface {
	PutDocument(ctx context.Context, url string, doc content.Document) error
}

// Executor commits assets one at a time. It is safe for concurrent use when
// its Writer is.
type Executor struct {
	writer Writer
}

// NewExecutor creates an Executor writing through w.
func NewExecutor(w Writer) *Executor {
	return &Executor{writer: w}
}

// Commit writes the asset's current document to its origin URL. Failures are
// captured in the Result, never returned.
func (e *Executor) Commit(ctx context.Context, asset *content.Asset) Result {
	if err := e.writer.PutDocument(ctx, asset.URL, asset.Document); err != nil {
		return Result{URL: asset.URL, Status: StatusError, Error: store.Describe(err)}
	}
	return Result{URL: asset.URL, Status: StatusSuccess}
}

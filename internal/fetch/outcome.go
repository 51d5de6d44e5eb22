package fetch

import "git.home.luguber.info/inful/layoutswap/internal/content"

// OutcomeKind tags the result of fetching one lane.
type OutcomeKind int

const (
	// Found means the document was fetched.
	Found OutcomeKind = iota
	// NotFound means a published copy is absent; it is dropped silently.
	NotFound
	// Failed means the fetch failed in a way that aborts the run.
	Failed
)

func (k OutcomeKind) String() string {
	switch k {
	case Found:
		return "found"
	case NotFound:
		return "not_found"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Outcome is the tagged result of FetchAsset: Found(Asset) | NotFound | Failed(Err).
type Outcome struct {
	Kind  OutcomeKind
	Asset *content.Asset
	Err   error
}

func found(a *content.Asset) Outcome { return Outcome{Kind: Found, Asset: a} }
func notFound() Outcome              { return Outcome{Kind: NotFound} }
func failed(err error) Outcome       { return Outcome{Kind: Failed, Err: err} }

// Package fetch turns a site's page listing into assets: for every listed
// page it fetches the draft and the published copy.
package fetch

import (
	"context"
	"fmt"
	"net/url"
	"slices"

	"git.home.luguber.info/inful/layoutswap/internal/content"
	"git.home.luguber.info/inful/layoutswap/internal/foundation/errors"
	"git.home.luguber.info/inful/layoutswap/internal/reference"
	"git.home.luguber.info/inful/layoutswap/internal/store"
)

// Store is the slice of the content store the fetcher reads from.
type Store interface {
	ListPages(ctx context.Context, site string) ([]string, error)
	GetDocument(ctx context.Context, url string) (content.Document, error)
}

// Lane is one fetch attempt derived from a listed page reference.
type Lane struct {
	Reference string
	Published bool
}

// Name labels the lane for logs and metrics.
func (l Lane) Name() string {
	if l.Published {
		return "published"
	}
	return "draft"
}

// Lanes expands a listed draft reference into its draft and published lanes.
func Lanes(ref string) []Lane {
	return []Lane{
		{Reference: ref},
		{Reference: reference.WithVersion(ref, reference.Published), Published: true},
	}
}

// DefaultTolerated is the set of statuses on published lanes treated as "absent".
var DefaultTolerated = []int{404}

// Fetcher lists and fetches page assets for one site.
type Fetcher struct {
	store     Store
	site      string
	protocol  string
	tolerated []int
}

// New creates a Fetcher for site (e.g. "https://www.example.com"). tolerated
// lists the statuses that mark a published copy as absent; nil means DefaultTolerated.
func New(s Store, site string, tolerated []int) (*Fetcher, error) {
	u, err := url.Parse(site)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, errors.ConfigError("site must be an absolute URL").
			WithCause(err).
			WithContext("site", site).
			Build()
	}
	if tolerated == nil {
		tolerated = DefaultTolerated
	}
	return &Fetcher{
		store:     s,
		site:      site,
		protocol:  u.Scheme + ":",
		tolerated: slices.Clone(tolerated),
	}, nil
}

// ListPageReferences returns the draft page references of the site.
func (f *Fetcher) ListPageReferences(ctx context.Context) ([]string, error) {
	refs, err := f.store.ListPages(ctx, f.site)
	if err != nil {
		return nil, fmt.Errorf("list pages of %s: %w", f.site, err)
	}
	return refs, nil
}

// URLFor builds the absolute fetch URL of a reference.
func (f *Fetcher) URLFor(ref string) string {
	return f.protocol + "//" + ref
}

// FetchAsset fetches one lane. Tolerated statuses on a published lane yield
// NotFound; every other failure yields Failed with an error naming the URL,
// the status and the response body.
func (f *Fetcher) FetchAsset(ctx context.Context, lane Lane) Outcome {
	assetURL := f.URLFor(lane.Reference)

	doc, err := f.store.GetDocument(ctx, assetURL)
	if err != nil {
		if lane.Published && f.isTolerated(err) {
			return notFound()
		}
		return failed(fmt.Errorf("fetch %s lane %s: %s: %w", lane.Name(), assetURL, store.Describe(err), err))
	}

	return found(&content.Asset{
		URL:       assetURL,
		Reference: lane.Reference,
		Document:  doc,
	})
}

func (f *Fetcher) isTolerated(err error) bool {
	code, ok := errors.StatusCode(err)
	return ok && slices.Contains(f.tolerated, code)
}

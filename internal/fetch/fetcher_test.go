package fetch

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/layoutswap/internal/content"
	ferrors "git.home.luguber.info/inful/layoutswap/internal/foundation/errors"
)

type fakeStore struct {
	pages   []string
	listErr error
	docs    map[string]content.Document
	status  map[string]int
}

func (s *fakeStore) ListPages(_ context.Context, _ string) ([]string, error) {
	return s.pages, s.listErr
}

func (s *fakeStore) GetDocument(_ context.Context, url string) (content.Document, error) {
	if code, ok := s.status[url]; ok {
		category := ferrors.CategoryStore
		if code == 404 {
			category = ferrors.CategoryNotFound
		}
		return nil, ferrors.NewError(category, "status").
			WithContext("code", code).
			WithContext("response", "nope").
			Build()
	}
	if doc, ok := s.docs[url]; ok {
		return doc, nil
	}
	return nil, errors.New("connection reset")
}

func TestLanes(t *testing.T) {
	lanes := Lanes("site.test/_pages/a")
	require.Len(t, lanes, 2)
	assert.Equal(t, Lane{Reference: "site.test/_pages/a"}, lanes[0])
	assert.Equal(t, Lane{Reference: "site.test/_pages/a@published", Published: true}, lanes[1])
	assert.Equal(t, "draft", lanes[0].Name())
	assert.Equal(t, "published", lanes[1].Name())
}

func TestNew_RejectsRelativeSite(t *testing.T) {
	_, err := New(&fakeStore{}, "www.site.test", nil)
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))
}

func TestFetcher_URLFor(t *testing.T) {
	f, err := New(&fakeStore{}, "https://www.site.test", nil)
	require.NoError(t, err)
	assert.Equal(t, "https://www.site.test/_pages/a@published", f.URLFor("www.site.test/_pages/a@published"))
}

func TestFetcher_ListPageReferences(t *testing.T) {
	f, err := New(&fakeStore{pages: []string{"s/_pages/a"}}, "http://s", nil)
	require.NoError(t, err)
	refs, err := f.ListPageReferences(t.Context())
	require.NoError(t, err)
	assert.Equal(t, []string{"s/_pages/a"}, refs)

	f, err = New(&fakeStore{listErr: errors.New("down")}, "http://s", nil)
	require.NoError(t, err)
	_, err = f.ListPageReferences(t.Context())
	require.Error(t, err)
}

func TestFetcher_FetchAsset(t *testing.T) {
	store := &fakeStore{
		docs: map[string]content.Document{
			"http://s/_pages/a":           {"layout": "s/_components/layout/instances/x"},
			"http://s/_pages/a@published": {"layout": "s/_components/layout/instances/x@published"},
		},
		status: map[string]int{
			"http://s/_pages/b@published": 404,
			"http://s/_pages/c":           404,
			"http://s/_pages/d@published": 500,
			"http://s/_pages/e@published": 410,
		},
	}
	f, err := New(store, "http://s", nil)
	require.NoError(t, err)

	tests := []struct {
		name string
		lane Lane
		want OutcomeKind
	}{
		{"draft found", Lane{Reference: "s/_pages/a"}, Found},
		{"published found", Lane{Reference: "s/_pages/a@published", Published: true}, Found},
		{"published 404 tolerated", Lane{Reference: "s/_pages/b@published", Published: true}, NotFound},
		{"draft 404 fatal", Lane{Reference: "s/_pages/c"}, Failed},
		{"published 500 fatal", Lane{Reference: "s/_pages/d@published", Published: true}, Failed},
		{"published 410 not tolerated by default", Lane{Reference: "s/_pages/e@published", Published: true}, Failed},
		{"network error fatal", Lane{Reference: "s/_pages/z"}, Failed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := f.FetchAsset(t.Context(), tt.lane)
			assert.Equal(t, tt.want, out.Kind, out.Kind.String())
			switch tt.want {
			case Found:
				require.NotNil(t, out.Asset)
				assert.Equal(t, "http://s/"+tt.lane.Reference[len("s/"):], out.Asset.URL)
				assert.Equal(t, tt.lane.Reference, out.Asset.Reference)
			case NotFound:
				assert.Nil(t, out.Asset)
				assert.NoError(t, out.Err)
			case Failed:
				require.Error(t, out.Err)
				assert.Contains(t, out.Err.Error(), tt.lane.Reference)
				if code, ok := store.status["http://"+tt.lane.Reference]; ok {
					assert.Contains(t, out.Err.Error(), fmt.Sprintf("%d: nope", code))
				}
			}
		})
	}
}

func TestFetcher_CustomTolerance(t *testing.T) {
	store := &fakeStore{status: map[string]int{"http://s/_pages/e@published": 410}}
	f, err := New(store, "http://s", []int{404, 410})
	require.NoError(t, err)

	out := f.FetchAsset(t.Context(), Lane{Reference: "s/_pages/e@published", Published: true})
	assert.Equal(t, NotFound, out.Kind)
}

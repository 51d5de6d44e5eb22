package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/layoutswap/internal/commit"
	"git.home.luguber.info/inful/layoutswap/internal/pipeline"
)

func TestWriter_Records(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)

	require.NoError(t, w.Emit(t.Context(), pipeline.Record{
		Kind: pipeline.KindMatch,
		URL:  "https://site/_pages/home?x=1&y=2",
	}))
	require.NoError(t, w.Emit(t.Context(), pipeline.Record{
		Kind:   pipeline.KindCommit,
		URL:    "https://site/_pages/a",
		Result: &commit.Result{URL: "https://site/_pages/a", Status: commit.StatusSuccess},
	}))
	require.NoError(t, w.Emit(t.Context(), pipeline.Record{
		Kind:   pipeline.KindCommit,
		URL:    "https://site/_pages/b",
		Result: &commit.Result{URL: "https://site/_pages/b", Status: commit.StatusError, Error: "500: boom"},
	}))

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, `"https://site/_pages/home?x=1&y=2"`, lines[0])
	assert.JSONEq(t, `{"url":"https://site/_pages/a","status":"success"}`, lines[1])
	assert.NotContains(t, lines[1], "error")
	assert.JSONEq(t, `{"url":"https://site/_pages/b","status":"error","error":"500: boom"}`, lines[2])
}

func TestWriter_RejectsIncompleteRecords(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)

	require.Error(t, w.Emit(t.Context(), pipeline.Record{Kind: pipeline.KindCommit, URL: "u"}))
	require.Error(t, w.Emit(t.Context(), pipeline.Record{Kind: "other", URL: "u"}))
	assert.Empty(t, buf.String())
}

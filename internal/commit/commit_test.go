package commit

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/layoutswap/internal/content"
	"git.home.luguber.info/inful/layoutswap/internal/store"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/ok"):
			w.WriteHeader(http.StatusOK)
		case strings.HasSuffix(r.URL.Path, "/boom"):
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = io.WriteString(w, "boom")
		case strings.HasSuffix(r.URL.Path, "/denied"):
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, "invalid token")
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func TestExecutor_Commit(t *testing.T) {
	server := newServer(t)
	exec := NewExecutor(store.NewClient(store.Options{AccessToken: "t"}))

	tests := []struct {
		name      string
		path      string
		status    Status
		errSubstr []string
	}{
		{"success", "/_pages/ok", StatusSuccess, nil},
		{"server error", "/_pages/boom", StatusError, []string{"500", "boom"}},
		{"unauthorized", "/_pages/denied", StatusError, []string{"401", "invalid token"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			asset := &content.Asset{URL: server.URL + tt.path, Document: content.Document{"layout": "s/_components/layout/instances/b"}}
			res := exec.Commit(t.Context(), asset)

			assert.Equal(t, asset.URL, res.URL)
			assert.Equal(t, tt.status, res.Status)
			assert.Equal(t, tt.status == StatusSuccess, res.OK())
			for _, s := range tt.errSubstr {
				assert.Contains(t, res.Error, s)
			}
			if tt.status == StatusSuccess {
				assert.Empty(t, res.Error)
			}
		})
	}
}

func TestExecutor_CommitNetworkFailure(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	exec := NewExecutor(store.NewClient(store.Options{}))
	res := exec.Commit(t.Context(), &content.Asset{URL: url + "/_pages/a", Document: content.Document{}})
	assert.Equal(t, StatusError, res.Status)
	assert.NotEmpty(t, res.Error)
}

func TestResultJSON(t *testing.T) {
	b, err := json.Marshal(Result{URL: "https://s/_pages/a", Status: StatusSuccess})
	require.NoError(t, err)
	assert.JSONEq(t, `{"url":"https://s/_pages/a","status":"success"}`, string(b))

	b, err = json.Marshal(Result{URL: "https://s/_pages/a", Status: StatusError, Error: "500: boom"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"url":"https://s/_pages/a","status":"error","error":"500: boom"}`, string(b))
}

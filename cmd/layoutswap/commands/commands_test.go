package commands

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/layoutswap/internal/commit"
	"git.home.luguber.info/inful/layoutswap/internal/config"
	"git.home.luguber.info/inful/layoutswap/internal/foundation/errors"
)

const (
	host      = "cms.example.test"
	site      = "http://" + host
	oldLayout = host + "/_components/layout/old"
	newLayout = host + "/_components/layout/new"
)

type fakeCMS struct {
	mu    sync.Mutex
	docs  map[string]string
	puts  int
	token string
}

func (f *fakeCMS) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := r.Host + r.URL.Path
	switch {
	case r.Method == http.MethodGet && key == host+"/_pages":
		refs := []string{}
		for k := range f.docs {
			if !strings.Contains(k, "@") {
				refs = append(refs, k)
			}
		}
		_ = json.NewEncoder(w).Encode(refs)
	case r.Method == http.MethodGet:
		doc, ok := f.docs[key]
		if !ok {
			http.NotFound(w, r)
			return
		}
		if doc == "" {
			http.Error(w, "upstream exploded", http.StatusBadGateway)
			return
		}
		_, _ = io.WriteString(w, doc)
	case r.Method == http.MethodPut:
		f.token = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		f.docs[key] = string(body)
		f.puts++
	}
}

func newCMS(t *testing.T, docs map[string]string) (*fakeCMS, string) {
	t.Helper()
	cms := &fakeCMS{docs: docs}
	srv := httptest.NewServer(cms)
	t.Cleanup(srv.Close)
	return cms, strings.TrimPrefix(srv.URL, "http://")
}

// sandbox isolates a test from the caller's working directory and environment.
func sandbox(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	for _, key := range []string{config.EnvAccessToken, config.EnvTargetHost, config.EnvConcurrency, EnvLogLevel} {
		t.Setenv(key, "")
	}
	return dir
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var cli CLI
	parser, err := kong.New(&cli,
		kong.Name("layoutswap"),
		kong.Vars{"version": "test"},
		Vars(),
		kong.Exit(func(int) { t.Fatalf("unexpected exit for %v", args) }),
	)
	require.NoError(t, err)

	kctx, err := parser.Parse(args)
	require.NoError(t, err)

	var out bytes.Buffer
	err = kctx.Run(&Global{Ctx: t.Context(), Stdout: &out})
	return out.String(), err
}

func pageDocs() map[string]string {
	return map[string]string{
		host + "/_pages/home":           `{"layout":"` + oldLayout + `","title":"Home"}`,
		host + "/_pages/home@published": `{"layout":"` + oldLayout + `@published","title":"Home"}`,
		host + "/_pages/about":          `{"layout":"` + newLayout + `"}`,
	}
}

func lines(s string) []string {
	return strings.Split(strings.TrimSpace(s), "\n")
}

func TestReportCommand(t *testing.T) {
	sandbox(t)
	cms, addr := newCMS(t, pageDocs())

	out, err := runCLI(t, "report",
		"--site", site,
		"--target-host", addr,
		"--map", oldLayout+"="+newLayout,
	)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{
		`"` + site + `/_pages/home"`,
		`"` + site + `/_pages/home@published"`,
	}, lines(out))
	assert.Zero(t, cms.puts)
}

func TestMigrateCommand_WithJournalAndMetrics(t *testing.T) {
	dir := sandbox(t)
	cms, addr := newCMS(t, pageDocs())
	dbPath := filepath.Join(dir, "runs.db")
	promPath := filepath.Join(dir, "layoutswap.prom")
	t.Setenv(config.EnvAccessToken, "tok")

	out, err := runCLI(t, "migrate",
		"--site", site,
		"--target-host", addr,
		"--map", oldLayout+"="+newLayout,
		"--journal", dbPath,
		"--metrics-file", promPath,
	)
	require.NoError(t, err)

	got := lines(out)
	require.Len(t, got, 2)
	for _, line := range got {
		var res commit.Result
		require.NoError(t, json.Unmarshal([]byte(line), &res))
		assert.Equal(t, commit.StatusSuccess, res.Status)
		assert.NotContains(t, line, `"error"`)
	}
	assert.Equal(t, 2, cms.puts)
	assert.Equal(t, "token tok", cms.token)
	assert.Contains(t, cms.docs[host+"/_pages/home@published"], newLayout+"@published")

	metricsText, err := os.ReadFile(promPath)
	require.NoError(t, err)
	assert.Contains(t, string(metricsText), "layoutswap_")

	history, err := runCLI(t, "history", "--journal", dbPath)
	require.NoError(t, err)
	rows := lines(history)
	require.Len(t, rows, 2)
	assert.Contains(t, rows[0], "RUN")
	fields := strings.Fields(rows[1])
	runID := fields[0]
	assert.Equal(t, "migrate", fields[1])

	records, err := runCLI(t, "history", "--journal", dbPath, runID)
	require.NoError(t, err)
	assert.Len(t, lines(records), 3)
	assert.Contains(t, records, "success")

	again, err := runCLI(t, "migrate",
		"--site", site,
		"--target-host", addr,
		"--map", oldLayout+"="+newLayout,
	)
	require.NoError(t, err)
	assert.Empty(t, strings.TrimSpace(again), "a second run finds nothing to migrate")
	assert.Equal(t, 2, cms.puts)
}

func TestMigrateCommand_FromConfigFileAndEnvironment(t *testing.T) {
	dir := sandbox(t)
	cms, addr := newCMS(t, pageDocs())

	cfg := "site: " + site + "\n" +
		"access_token: base\n" +
		"mapping:\n  " + oldLayout + ": " + newLayout + "\n" +
		"environments:\n  test:\n    target_host: " + addr + "\n    access_token: env-token\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.DefaultPath), []byte(cfg), 0o600))

	_, err := runCLI(t, "--env", "test", "migrate")
	require.NoError(t, err)
	assert.Equal(t, 2, cms.puts)
	assert.Equal(t, "token env-token", cms.token)
}

func TestMigrateCommand_ConfigErrors(t *testing.T) {
	sandbox(t)
	adapter := errors.NewCLIErrorAdapter(false, nil)

	_, err := runCLI(t, "migrate", "--site", site, "--map", oldLayout+"="+newLayout)
	require.Error(t, err, "access token is required")
	assert.Equal(t, 7, adapter.ExitCodeFor(err))

	_, err = runCLI(t, "report", "--site", "not a url", "--map", oldLayout+"="+newLayout)
	require.Error(t, err)
	assert.Equal(t, 7, adapter.ExitCodeFor(err))

	_, err = runCLI(t, "report", "--site", site)
	require.Error(t, err, "mapping is required")
	assert.Equal(t, 7, adapter.ExitCodeFor(err))

	_, err = runCLI(t, "--env", "nowhere", "report", "--site", site, "--map", oldLayout+"="+newLayout)
	require.Error(t, err)
	assert.Equal(t, 7, adapter.ExitCodeFor(err))
}

func TestMigrateCommand_FetchFailureExitsNonZero(t *testing.T) {
	sandbox(t)
	docs := pageDocs()
	docs[host+"/_pages/broken"] = ""
	cms, addr := newCMS(t, docs)
	t.Setenv(config.EnvAccessToken, "tok")

	_, err := runCLI(t, "migrate",
		"--site", site,
		"--target-host", addr,
		"--map", oldLayout+"="+newLayout,
		"--concurrency", "1",
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "/_pages/broken")
	assert.Contains(t, err.Error(), "502: upstream exploded")
	assert.Equal(t, 8, errors.NewCLIErrorAdapter(false, nil).ExitCodeFor(err))
	assert.LessOrEqual(t, cms.puts, 2)
}

func TestHistoryCommand_NoJournal(t *testing.T) {
	sandbox(t)
	_, err := runCLI(t, "history")
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryConfig))
}

func TestInitCommand(t *testing.T) {
	dir := sandbox(t)

	out, err := runCLI(t, "init")
	require.NoError(t, err)
	assert.Contains(t, out, "initialized successfully")
	_, err = os.Stat(filepath.Join(dir, config.DefaultPath))
	require.NoError(t, err)

	_, err = runCLI(t, "init")
	require.Error(t, err)

	_, err = runCLI(t, "init", "--force")
	require.NoError(t, err)

	custom := filepath.Join(dir, "custom.yaml")
	_, err = runCLI(t, "--config", custom, "init")
	require.NoError(t, err)
	_, err = os.Stat(custom)
	require.NoError(t, err)
}

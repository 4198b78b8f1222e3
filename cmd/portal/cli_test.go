package portal

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trancendos/secrets-portal/internal/audit"
	"github.com/trancendos/secrets-portal/internal/cache"
	"github.com/trancendos/secrets-portal/internal/engine"
	"github.com/trancendos/secrets-portal/internal/syncer"
	"github.com/trancendos/secrets-portal/internal/types"
)

const sampleInput = "API_KEY=abc123\napiKey: \"sk-12345\"\ncontact admin@example.com https://example.com\npassword=hunter2\n"

// isolate runs the test in a fresh working directory with config, cache and
// tokens pointed away from the real user environment.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, ".config"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, ".cache"))
	t.Setenv("GITHUB_TOKEN", "")
	t.Setenv("GH_TOKEN", "")
	t.Setenv("CI", "1")
	return dir
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// fakeGitHub serves the handful of endpoints the CLI calls.
type fakeGitHub struct {
	secrets    string
	dispatches atomic.Int32
	deletes    atomic.Int32
	lastBody   atomic.Value
}

func newFakeGitHub(t *testing.T) (*fakeGitHub, string) {
	t.Helper()
	f := &fakeGitHub{
		secrets: `{"total_count":2,"secrets":[` +
			`{"name":"API_KEY","created_at":"2024-01-01T00:00:00Z","updated_at":"2024-01-02T00:00:00Z"},` +
			`{"name":"DB_PASSWORD","created_at":"2024-01-01T00:00:00Z","updated_at":"2024-01-01T00:00:00Z"}]}`,
	}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/octo/demo/actions/secrets", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, f.secrets)
	})
	mux.HandleFunc("GET /repos/octo/missing/actions/secrets", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"Not Found"}`, http.StatusNotFound)
	})
	mux.HandleFunc("POST /repos/octo/demo/dispatches", func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		f.lastBody.Store(string(b))
		f.dispatches.Add(1)
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("DELETE /repos/octo/demo/actions/secrets/{name}", func(w http.ResponseWriter, r *http.Request) {
		f.deletes.Add(1)
		if r.PathValue("name") == "MISSING" {
			http.Error(w, `{"message":"Not Found"}`, http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("GET /user", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"login":"octocat","name":"The Octocat"}`)
	})
	mux.HandleFunc("POST /repos/octo/demo/issues", func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		f.lastBody.Store(string(b))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, `{"number":7,"html_url":"https://github.com/octo/demo/issues/7"}`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return f, srv.URL
}

func ghArgs(url string, args ...string) []string {
	return append([]string{"--token", "test-token", "--api-url", url, "--repo", "octo/demo"}, args...)
}

func auditEntries(t *testing.T, dir string) []audit.Entry {
	t.Helper()
	entries, err := audit.LoadHistory(filepath.Join(dir, ".config", "secrets-portal", "audit.jsonl"))
	require.NoError(t, err)
	return entries
}

func TestExtract_WritesOutputAndSummary(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile("secrets.env", []byte(sampleInput), 0o644))

	out, err := execute(t, "", "extract")
	require.NoError(t, err)
	assert.Contains(t, out, "✅ Secrets extracted to output/extracted-secrets.json\n📊 Found:\n   - API Keys: 2\n")
	assert.Contains(t, out, "   - Environment Variables: 1\n")

	st, err := os.Stat(filepath.Join(dir, "output", "extracted-secrets.json"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), st.Mode().Perm())

	b, err := os.ReadFile(filepath.Join(dir, "output", "extracted-secrets.json"))
	require.NoError(t, err)
	var parsed map[string][]types.Candidate
	require.NoError(t, json.Unmarshal(b, &parsed))
	assert.Len(t, parsed, 8)
	assert.Equal(t, "API_KEY", parsed["envVars"][0].Name)

	entries := auditEntries(t, dir)
	require.NotEmpty(t, entries)
	assert.Equal(t, audit.ActionExtract, entries[0].Action)
	assert.Equal(t, audit.StatusSuccess, entries[0].Status)
	assert.Contains(t, entries[0].Message, "digest")
}

func TestExtract_MissingFileCreatesNothing(t *testing.T) {
	dir := isolate(t)
	_, err := execute(t, "", "extract", "--file", "nope.env")
	require.Error(t, err)
	assert.ErrorIs(t, err, engine.ErrReadInput)
	_, statErr := os.Stat(filepath.Join(dir, "output"))
	assert.True(t, os.IsNotExist(statErr))

	entries := auditEntries(t, dir)
	require.NotEmpty(t, entries)
	assert.Equal(t, audit.StatusFailed, entries[0].Status)
}

func TestExtract_UnknownFormatWritesJSON(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile("in.txt", []byte(sampleInput), 0o644))

	_, err := execute(t, "", "extract", "--file", "in.txt", "--format", "xml")
	require.NoError(t, err)
	_, err = execute(t, "", "extract", "--file", "in.txt", "--format", "json")
	require.NoError(t, err)

	xml, err := os.ReadFile(filepath.Join(dir, "output", "extracted-secrets.xml"))
	require.NoError(t, err)
	js, err := os.ReadFile(filepath.Join(dir, "output", "extracted-secrets.json"))
	require.NoError(t, err)
	assert.Equal(t, string(js), string(xml))
}

func TestExtract_LocalConfigDefaults(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile("secrets.env", []byte("DB_HOST=localhost\n"), 0o644))
	require.NoError(t, os.WriteFile(".secrets-portal.yml", []byte("format: env\noutput_dir: out\n"), 0o644))

	out, err := execute(t, "", "extract")
	require.NoError(t, err)
	assert.Contains(t, out, "out/extracted-secrets.env")
	b, err := os.ReadFile(filepath.Join(dir, "out", "extracted-secrets.env"))
	require.NoError(t, err)
	assert.Equal(t, `envVars="[{"name":"DB_HOST","value":"localhost","confidence":0.9}]"`, string(b))

	// Flags still win over the file.
	_, err = execute(t, "", "extract", "--format", "csv", "--output-dir", "flagged")
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "flagged", "extracted-secrets.csv"))
	assert.NoError(t, err)
}

func TestExtract_MaxSize(t *testing.T) {
	isolate(t)
	require.NoError(t, os.WriteFile("secrets.env", []byte(strings.Repeat("A=b\n", 100)), 0o644))
	_, err := execute(t, "", "extract", "--max-size", "10B")
	assert.ErrorIs(t, err, engine.ErrReadInput)

	_, err = execute(t, "", "extract", "--max-size", "lots")
	assert.Error(t, err)
}

func TestExtract_TablePreviewAndIgnore(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile("secrets.env", []byte(sampleInput), 0o644))

	out, err := execute(t, "", "extract", "--table", "--preview", "--add-ignore", "--no-color")
	require.NoError(t, err)
	assert.Contains(t, out, "Total: 6")
	assert.Contains(t, out, `"apiKeys": [`)
	assert.Contains(t, out, "Added output/ to .gitignore")

	b, err := os.ReadFile(filepath.Join(dir, ".gitignore"))
	require.NoError(t, err)
	assert.Equal(t, "output/\n", string(b))
}

func TestPatterns(t *testing.T) {
	isolate(t)
	out, err := execute(t, "", "patterns", "--regex")
	require.NoError(t, err)
	for _, name := range []string{"apiKey", "envVars", "emails", "0.9"} {
		assert.Contains(t, out, name)
	}
}

func TestTestPattern(t *testing.T) {
	isolate(t)
	out, err := execute(t, "password=hunter2\n", "test-pattern", "password")
	require.NoError(t, err)
	assert.Contains(t, out, "hu•••r2")
	assert.NotContains(t, out, "hunter2")

	out, err = execute(t, "password=hunter2\n", "test-pattern", "password", "--reveal")
	require.NoError(t, err)
	assert.Contains(t, out, "hunter2")

	out, err = execute(t, "nothing here", "test-pattern", "email")
	require.NoError(t, err)
	assert.Contains(t, out, "No secrets found")

	_, err = execute(t, "", "test-pattern", "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "available: apiKey, token")
}

func TestList(t *testing.T) {
	dir := isolate(t)
	_, url := newFakeGitHub(t)
	require.NoError(t, cache.SaveListing(filepath.Join(dir, ".cache", "secrets-portal"), "octo/demo",
		[]types.Secret{{Name: "API_KEY"}, {Name: "OLD_TOKEN"}}))

	out, err := execute(t, "", ghArgs(url, "list")...)
	require.NoError(t, err)
	assert.Contains(t, out, "🔐 Secrets in octo/demo:")
	assert.Contains(t, out, "DB_PASSWORD")
	assert.Contains(t, out, "octo/demo: 2 secret(s)")
	assert.Contains(t, out, "+ DB_PASSWORD (new since last listing)")
	assert.Contains(t, out, "- OLD_TOKEN (removed since last listing)")

	entries := auditEntries(t, dir)
	require.NotEmpty(t, entries)
	assert.Equal(t, audit.ActionList, entries[0].Action)
	assert.Equal(t, "octo/demo", entries[0].Repo)

	// The listing was cached and can be read back offline.
	out, err = execute(t, "", "--repo", "octo/demo", "list", "--cached", "--json")
	require.NoError(t, err)
	var secrets []types.Secret
	require.NoError(t, json.Unmarshal([]byte(out), &secrets))
	require.Len(t, secrets, 2)
	assert.Equal(t, "API_KEY", secrets[0].Name)
}

func TestList_Failure(t *testing.T) {
	dir := isolate(t)
	_, url := newFakeGitHub(t)
	_, err := execute(t, "", "--token", "test-token", "--api-url", url, "--repo", "octo/missing", "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error listing secrets")

	entries := auditEntries(t, dir)
	require.NotEmpty(t, entries)
	assert.Equal(t, audit.StatusFailed, entries[0].Status)
}

func TestList_RequiresToken(t *testing.T) {
	isolate(t)
	_, err := execute(t, "", "--repo", "octo/demo", "list")
	assert.ErrorIs(t, err, errNoToken)

	_, err = execute(t, "", "--repo", "octo/demo", "list", "--cached")
	assert.Error(t, err)
}

func TestCreate(t *testing.T) {
	dir := isolate(t)
	f, url := newFakeGitHub(t)

	out, err := execute(t, "", ghArgs(url, "create", "API_KEY", "--value", "s3cr3t")...)
	require.NoError(t, err)
	assert.Equal(t, "✅ Secret API_KEY created successfully!\n", out)
	require.EqualValues(t, 1, f.dispatches.Load())

	var body struct {
		EventType     string            `json:"event_type"`
		ClientPayload map[string]string `json:"client_payload"`
	}
	require.NoError(t, json.Unmarshal([]byte(f.lastBody.Load().(string)), &body))
	assert.Equal(t, "create-secret", body.EventType)
	assert.Equal(t, "API_KEY", body.ClientPayload["secret_name"])
	assert.Equal(t, "s3cr3t", body.ClientPayload["secret_value"])
	assert.NotEmpty(t, body.ClientPayload["timestamp"])

	entries := auditEntries(t, dir)
	require.NotEmpty(t, entries)
	assert.Equal(t, audit.ActionCreate, entries[0].Action)
	assert.Equal(t, "API_KEY", entries[0].Secret)
	raw, err := os.ReadFile(filepath.Join(dir, ".config", "secrets-portal", "audit.jsonl"))
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "s3cr3t")
}

func TestCreate_ValueFromStdin(t *testing.T) {
	isolate(t)
	f, url := newFakeGitHub(t)
	_, err := execute(t, "piped-value\n", ghArgs(url, "create", "NEW_TOKEN")...)
	require.NoError(t, err)
	assert.Contains(t, f.lastBody.Load().(string), `"secret_value":"piped-value"`)
}

func TestCreate_RejectsInvalidInput(t *testing.T) {
	isolate(t)
	f, url := newFakeGitHub(t)

	_, err := execute(t, "", ghArgs(url, "create", "lower_case", "--value", "x")...)
	require.Error(t, err)
	_, err = execute(t, "", ghArgs(url, "create", "EMPTY")...)
	require.Error(t, err)
	_, err = execute(t, "", ghArgs(url, "create", "HUGE", "--value", strings.Repeat("x", 65537))...)
	require.Error(t, err)
	assert.Zero(t, f.dispatches.Load())
}

func TestDelete(t *testing.T) {
	dir := isolate(t)
	f, url := newFakeGitHub(t)

	out, err := execute(t, "", ghArgs(url, "delete", "API_KEY")...)
	require.NoError(t, err)
	assert.Equal(t, "✅ Secret API_KEY deleted successfully!\n", out)

	_, err = execute(t, "", ghArgs(url, "delete", "MISSING")...)
	require.Error(t, err)
	assert.EqualValues(t, 2, f.deletes.Load())

	entries := auditEntries(t, dir)
	require.Len(t, entries, 2)
	assert.Equal(t, audit.StatusFailed, entries[0].Status)
	assert.Equal(t, "MISSING", entries[0].Secret)
	assert.Equal(t, audit.StatusSuccess, entries[1].Status)
}

func TestSync(t *testing.T) {
	dir := isolate(t)
	_, url := newFakeGitHub(t)
	reportPath := filepath.Join(dir, "report.json")

	out, err := execute(t, "", "--token", "test-token", "--api-url", url,
		"sync", "--source", "octo/demo", "--target", "octo/other", "--filter", "^DB_", "--report", reportPath)
	require.NoError(t, err)
	assert.Contains(t, out, "✅ Sync completed: 1 synced, 0 failed")

	b, err := os.ReadFile(reportPath)
	require.NoError(t, err)
	var r syncer.Report
	require.NoError(t, json.Unmarshal(b, &r))
	assert.Equal(t, "octo/demo", r.Source)
	assert.Equal(t, "octo/other", r.Target)
	assert.Equal(t, 1, r.Synced)
	assert.Equal(t, "^DB_", r.Filter)
	assert.Equal(t, []string{"DB_PASSWORD"}, r.Secrets)
}

func TestSync_DefaultReportAndNoFilter(t *testing.T) {
	dir := isolate(t)
	_, url := newFakeGitHub(t)
	_, err := execute(t, "", "--token", "test-token", "--api-url", url, "sync", "--source", "octo/demo")
	require.NoError(t, err)

	b, err := os.ReadFile(filepath.Join(dir, syncer.ReportFile))
	require.NoError(t, err)
	var r syncer.Report
	require.NoError(t, json.Unmarshal(b, &r))
	assert.Equal(t, syncer.DefaultTarget, r.Target)
	assert.Equal(t, 2, r.Synced)
	assert.Equal(t, "none", r.Filter)
}

func TestSync_SourceFailureIsFatal(t *testing.T) {
	dir := isolate(t)
	_, url := newFakeGitHub(t)
	_, err := execute(t, "", "--token", "test-token", "--api-url", url, "sync", "--source", "octo/missing")
	require.Error(t, err)
	_, statErr := os.Stat(filepath.Join(dir, syncer.ReportFile))
	assert.True(t, os.IsNotExist(statErr))
}

func TestWhoami(t *testing.T) {
	isolate(t)
	_, url := newFakeGitHub(t)
	out, err := execute(t, "", "--token", "test-token", "--api-url", url, "whoami")
	require.NoError(t, err)
	assert.Equal(t, "Logged in as octocat (The Octocat)\n", out)
}

func TestAuditHistory(t *testing.T) {
	isolate(t)
	_, url := newFakeGitHub(t)

	out, err := execute(t, "", "audit", "history")
	require.NoError(t, err)
	assert.Equal(t, "No audit entries\n", out)

	_, err = execute(t, "", ghArgs(url, "delete", "API_KEY")...)
	require.NoError(t, err)
	_, err = execute(t, "", ghArgs(url, "create", "OTHER", "--value", "v")...)
	require.NoError(t, err)

	out, err = execute(t, "", "audit", "history", "--json", "--limit", "1")
	require.NoError(t, err)
	var entries []audit.Entry
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, audit.ActionCreate, entries[0].Action)

	out, err = execute(t, "", "audit", "history")
	require.NoError(t, err)
	assert.Contains(t, out, "OTHER")
	assert.Contains(t, out, "API_KEY")
}

func TestAuditIssue(t *testing.T) {
	isolate(t)
	f, url := newFakeGitHub(t)
	out, err := execute(t, "", ghArgs(url, "audit", "issue", "rotate", "--details", "rotated keys")...)
	require.NoError(t, err)
	assert.Equal(t, "📝 Created audit issue #7: https://github.com/octo/demo/issues/7\n", out)

	var body struct {
		Title  string   `json:"title"`
		Body   string   `json:"body"`
		Labels []string `json:"labels"`
	}
	require.NoError(t, json.Unmarshal([]byte(f.lastBody.Load().(string)), &body))
	assert.Equal(t, "🔐 Secrets Audit: rotate", body.Title)
	assert.Contains(t, body.Body, "**Details**: rotated keys")
	assert.ElementsMatch(t, []string{"audit", "secrets"}, body.Labels)
}

func TestConfigInit(t *testing.T) {
	dir := isolate(t)
	out, err := execute(t, "", "config", "init")
	require.NoError(t, err)
	assert.Equal(t, "Wrote .secrets-portal.yml\n", out)
	_, err = os.Stat(filepath.Join(dir, ".secrets-portal.yml"))
	require.NoError(t, err)

	_, err = execute(t, "", "config", "init")
	assert.Error(t, err)
	_, err = execute(t, "", "config", "init", "--force")
	assert.NoError(t, err)

	out, err = execute(t, "", "config", "init", "--global")
	require.NoError(t, err)
	assert.Contains(t, out, filepath.Join(".config", "secrets-portal", "config.yml"))
}

func TestCIInit(t *testing.T) {
	dir := isolate(t)
	out, err := execute(t, "", "ci", "init")
	require.NoError(t, err)
	assert.Contains(t, out, "create-secret.yml")
	b, err := os.ReadFile(filepath.Join(dir, ".github", "workflows", "create-secret.yml"))
	require.NoError(t, err)
	assert.Contains(t, string(b), "types: [create-secret]")
	_, err = os.Stat(filepath.Join(dir, ".github", "workflows", "extract-secrets.yml"))
	require.NoError(t, err)

	_, err = execute(t, "", "ci", "init")
	assert.Error(t, err)

	_, err = execute(t, "", "ci", "init", "--provider", "gitlab")
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, ".gitlab-ci.yml"))
	require.NoError(t, err)

	_, err = execute(t, "", "ci", "init", "--provider", "jenkins")
	assert.Error(t, err)
}

func TestCompletion(t *testing.T) {
	isolate(t)
	out, err := execute(t, "", "completion", "bash")
	require.NoError(t, err)
	assert.Contains(t, out, "secrets-portal")

	_, err = execute(t, "", "completion", "tcsh")
	assert.Error(t, err)
}

func TestResolveRepo_Precedence(t *testing.T) {
	isolate(t)
	require.NoError(t, os.WriteFile(".secrets-portal.yml", []byte("repo: local/repo\n"), 0o644))

	// setup runs as part of execute; reuse it to load the local config.
	_, err := execute(t, "", "audit", "history")
	require.NoError(t, err)
	r, err := resolveRepo()
	require.NoError(t, err)
	assert.Equal(t, "local/repo", r.String())

	flagRepo = "flag/repo"
	t.Cleanup(func() { flagRepo = "" })
	r, err = resolveRepo()
	require.NoError(t, err)
	assert.Equal(t, "flag/repo", r.String())
}

func TestResolveRepo_Default(t *testing.T) {
	isolate(t)
	_, err := execute(t, "", "audit", "history")
	require.NoError(t, err)
	r, err := resolveRepo()
	require.NoError(t, err)
	assert.Equal(t, defaultRepo, r.String())
}

func TestWithGitContext_OutsideRepo(t *testing.T) {
	dir := isolate(t)
	assert.Equal(t, "details", withGitContext("details", dir))
}

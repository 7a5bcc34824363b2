package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/wizz/internal/contract"
	wizzhttp "github.com/fyrsmithlabs/wizz/internal/http"
	"github.com/fyrsmithlabs/wizz/internal/orchestrator"
)

func execute(t *testing.T, srv *httptest.Server, args ...string) (string, error) {
	t.Helper()
	old := serverURL
	t.Cleanup(func() {
		serverURL = old
		rootCmd.SetArgs(nil)
	})

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append(args, "--server", srv.URL))
	err := rootCmd.Execute()
	return out.String(), err
}

func TestClient_DecodesErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		_ = json.NewEncoder(w).Encode(wizzhttp.ErrorResponse{
			Error:   "publish failed at b.js",
			Kind:    "partial_publish",
			Written: []string{"a.js"},
		})
	}))
	defer srv.Close()

	_, err := newClient(srv.URL, time.Second).post(context.Background(), "/api/v1/publish", map[string]string{}, nil)
	require.Error(t, err)

	var apiErr *apiError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	assert.Equal(t, "partial_publish", apiErr.Body.Kind)
	assert.Contains(t, err.Error(), "server returned status 502: publish failed at b.js")
	assert.Contains(t, err.Error(), "already written: a.js")
}

func TestClient_ErrorNamesUpstreamURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		_ = json.NewEncoder(w).Encode(wizzhttp.ErrorResponse{
			Error:          "fetch failed: connection refused",
			Kind:           "upstream",
			URL:            "https://openrouter.ai/api/v1/chat/completions",
			UpstreamStatus: 503,
		})
	}))
	defer srv.Close()

	_, err := newClient(srv.URL, time.Second).post(context.Background(), "/api/v1/run", map[string]string{}, nil)
	require.Error(t, err)
	assert.Equal(t, "server returned status 502: fetch failed: connection refused (upstream); upstream https://openrouter.ai/api/v1/chat/completions returned 503", err.Error())
}

func TestClient_NonJSONErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := newClient(srv.URL+"/", time.Second).get(context.Background(), "/health", nil, nil)
	require.Error(t, err)
	assert.Equal(t, "server returned status 502: bad gateway", err.Error())
}

func TestHealthCommand(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		_ = json.NewEncoder(w).Encode(wizzhttp.HealthResponse{Status: "ok", PublishReady: true})
	}))
	defer srv.Close()

	out, err := execute(t, srv, "health")
	require.NoError(t, err)
	assert.Contains(t, out, "Server Status: ok")
	assert.Contains(t, out, "Publish Ready: true")
}

func TestBuildCommand_WritesFiles(t *testing.T) {
	var got wizzhttp.RunRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/run", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(orchestrator.Result{
			RunID: "r1",
			Mode:  orchestrator.ModeFastBuild,
			BuildResult: &orchestrator.BuildResult{
				FilesBuilt:   []string{"index.html", "js/app.js"},
				Files:        []contract.File{{Path: "index.html", Content: "<h1>hi</h1>"}, {Path: "js/app.js", Content: "x()"}},
				FinalSummary: "Built 2 file(s) in a single pass.",
			},
		})
	}))
	defer srv.Close()

	dir := t.TempDir()
	out, err := execute(t, srv, "build", "a page", "--fast", "--max-tasks", "3", "--out", dir)
	require.NoError(t, err)

	assert.Equal(t, "fast-build", got.Mode)
	assert.Equal(t, "a page", got.Goal)
	require.NotNil(t, got.MaxTasks)
	assert.Equal(t, 3, *got.MaxTasks)
	assert.False(t, got.Publish)

	assert.Contains(t, out, "Built 2 file(s):")
	assert.Contains(t, out, "js/app.js")

	b, err := os.ReadFile(filepath.Join(dir, "js", "app.js"))
	require.NoError(t, err)
	assert.Equal(t, "x()", string(b))
}

func TestWriteFiles_RejectsTraversal(t *testing.T) {
	dir := t.TempDir()
	err := writeFiles(dir, []contract.File{{Path: "../escape.txt", Content: "x"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "refusing to write")

	_, statErr := os.Stat(filepath.Join(filepath.Dir(dir), "escape.txt"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestCollectFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "css"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".git"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<p>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "css", "site.css"), []byte("p{}"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("SECRET=1"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".git", "HEAD"), []byte("ref"), 0o644))

	files, err := collectFiles(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"css/site.css", "index.html"}, contract.Paths(files))
}

func TestPrintText(t *testing.T) {
	var buf bytes.Buffer
	err := printText(&buf, &orchestrator.Result{TextResult: &orchestrator.TextResult{
		FinalAnswer: "42",
		DelegationLog: orchestrator.DelegationLog{
			Plan:  &orchestrator.PlanLog{Fallback: true},
			Tasks: []string{"think"},
		},
	}})
	require.NoError(t, err)
	assert.Equal(t, "(plan unusable, ran the goal as a single task)\nTask 1: think\n\n42\n", buf.String())

	assert.Error(t, printText(&buf, &orchestrator.Result{}))
}

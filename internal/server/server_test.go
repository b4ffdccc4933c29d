// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/pdiddy/notegraph/internal/graph"
	"github.com/pdiddy/notegraph/pkg/types"
)

// --- fake generator ---

type fakeGenerator struct {
	graph types.KnowledgeGraph
	err   error
	notes []string
}

func (f *fakeGenerator) Generate(_ context.Context, notes string) (types.KnowledgeGraph, error) {
	f.notes = append(f.notes, notes)
	return f.graph, f.err
}

func newTestServer(gen Generator, cfg types.ServerConfig) *httptest.Server {
	srv := New(gen, cfg, zap.NewNop(), prometheus.NewRegistry())
	return httptest.NewServer(srv.Handler())
}

func postForm(t *testing.T, base string, form url.Values) *http.Response {
	t.Helper()
	resp, err := http.PostForm(base+"/", form)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

func TestIndexPage(t *testing.T) {
	ts := newTestServer(&fakeGenerator{}, types.ServerConfig{})
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
	body := readBody(t, resp)
	assert.Contains(t, body, `name="notes"`)
	assert.Contains(t, body, "Notes to knowledge graph")
}

func TestGenerateReturnsGraph(t *testing.T) {
	gen := &fakeGenerator{graph: types.KnowledgeGraph{
		Nodes: []types.Node{{ID: "a", Label: "A"}, {ID: "b", Label: "B"}},
		Edges: []types.Edge{{Source: "a", Target: "b", Label: "relates to"}},
	}}
	ts := newTestServer(gen, types.ServerConfig{})
	defer ts.Close()

	resp := postForm(t, ts.URL, url.Values{"notes": {"A relates to B."}})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	assert.JSONEq(t, `{
		"nodes": [{"id": "a", "label": "A"}, {"id": "b", "label": "B"}],
		"edges": [{"source": "a", "target": "b", "label": "relates to"}]
	}`, readBody(t, resp))
	assert.Equal(t, []string{"A relates to B."}, gen.notes)
}

func TestGenerateEmptyGraphAlwaysHasArrays(t *testing.T) {
	ts := newTestServer(&fakeGenerator{graph: types.KnowledgeGraph{}}, types.ServerConfig{})
	defer ts.Close()

	resp := postForm(t, ts.URL, url.Values{"notes": {"anything"}})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"nodes": [], "edges": []}`, readBody(t, resp))
}

func TestGenerateAcceptsEmptyNotes(t *testing.T) {
	gen := &fakeGenerator{graph: types.EmptyGraph()}
	ts := newTestServer(gen, types.ServerConfig{})
	defer ts.Close()

	resp := postForm(t, ts.URL, url.Values{"notes": {""}})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{""}, gen.notes)
}

func TestGenerateMultipartForm(t *testing.T) {
	gen := &fakeGenerator{graph: types.EmptyGraph()}
	ts := newTestServer(gen, types.ServerConfig{})
	defer ts.Close()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("notes", "from multipart"))
	require.NoError(t, mw.Close())

	resp, err := http.Post(ts.URL+"/", mw.FormDataContentType(), &buf)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"from multipart"}, gen.notes)
}

func TestGenerateMissingNotes(t *testing.T) {
	gen := &fakeGenerator{}
	ts := newTestServer(gen, types.ServerConfig{})
	defer ts.Close()

	resp := postForm(t, ts.URL, url.Values{"other": {"x"}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body errorBody
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "missing_field", body.Error.Code)
	assert.Empty(t, gen.notes, "generator must not be called")
}

func TestGenerateBodyTooLarge(t *testing.T) {
	gen := &fakeGenerator{}
	ts := newTestServer(gen, types.ServerConfig{MaxBodyBytes: 64})
	defer ts.Close()

	resp := postForm(t, ts.URL, url.Values{"notes": {strings.Repeat("x", 1024)}})
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
	assert.Empty(t, gen.notes)
}

func TestGenerateUpstreamFailure(t *testing.T) {
	ts := newTestServer(&fakeGenerator{err: errors.New("401 unauthorized")}, types.ServerConfig{})
	defer ts.Close()

	resp := postForm(t, ts.URL, url.Values{"notes": {"x"}})
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	body := readBody(t, resp)
	assert.Contains(t, body, "Internal Server Error")
	assert.NotContains(t, body, "401")
}

// stubBackend feeds canned model output through a real Extractor.
type stubBackend struct{ content string }

func (b stubBackend) Complete(context.Context, graph.Request) (string, error) {
	return b.content, nil
}

func TestGenerateDegradedOutputThroughExtractor(t *testing.T) {
	for _, content := range []string{"not json", `{"nodes": [{"label": "x"}]}`} {
		t.Run(content, func(t *testing.T) {
			ex, err := graph.NewExtractor(stubBackend{content: content}, types.AIConfig{})
			require.NoError(t, err)
			ts := newTestServer(ex, types.ServerConfig{})
			defer ts.Close()

			resp := postForm(t, ts.URL, url.Values{"notes": {"x"}})
			assert.Equal(t, http.StatusOK, resp.StatusCode)
			assert.JSONEq(t, `{"nodes": [], "edges": []}`, readBody(t, resp))
		})
	}
}

// brokenWriter accepts headers but fails every body write, as a closed
// client connection does.
type brokenWriter struct {
	header http.Header
	status int
}

func (b *brokenWriter) Header() http.Header { return b.header }
func (b *brokenWriter) WriteHeader(status int) { b.status = status }
func (b *brokenWriter) Write([]byte) (int, error) { return 0, errors.New("connection reset") }

func TestRespondJSONLogsWriteFailure(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	srv := New(&fakeGenerator{}, types.ServerConfig{}, zap.New(core), nil)

	w := &brokenWriter{header: http.Header{}}
	srv.respondJSON(w, http.StatusOK, types.EmptyGraph())

	assert.Equal(t, http.StatusOK, w.status)
	entries := logs.FilterMessage("writing response failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	assert.Equal(t, int64(http.StatusOK), entries[0].ContextMap()["status"])
	assert.Contains(t, entries[0].ContextMap()["error"], "connection reset")
}

func TestHealth(t *testing.T) {
	ts := newTestServer(&fakeGenerator{}, types.ServerConfig{})
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status": "ok"}`, readBody(t, resp))
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := graph.NewMetrics(reg)
	ex, err := graph.NewExtractor(stubBackend{content: "not json"}, types.AIConfig{}, graph.WithMetrics(metrics))
	require.NoError(t, err)

	ts := httptest.NewServer(New(ex, types.ServerConfig{}, nil, reg).Handler())
	defer ts.Close()

	postForm(t, ts.URL, url.Values{"notes": {"x"}})

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), `notegraph_extractions_total{outcome="malformed_json"} 1`)
}

func TestMetricsDisabledWithoutGatherer(t *testing.T) {
	ts := httptest.NewServer(New(&fakeGenerator{}, types.ServerConfig{}, nil, nil).Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCORSPreflight(t *testing.T) {
	ts := newTestServer(&fakeGenerator{}, types.ServerConfig{AllowedOrigins: []string{"http://localhost:3000"}})
	defer ts.Close()

	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "http://localhost:3000", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestListenAndServeShutsDownOnCancel(t *testing.T) {
	srv := New(&fakeGenerator{}, types.ServerConfig{Addr: "127.0.0.1:0"}, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- srv.ListenAndServe(ctx) }()
	cancel()

	assert.NoError(t, <-done)
}

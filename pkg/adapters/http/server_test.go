package http_test

import (
	"context"
	"encoding/json"
	"errors"
	nethttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aretw0/gazette"
	api "github.com/aretw0/gazette/pkg/adapters/http"
	"github.com/aretw0/gazette/pkg/adapters/memory"
	"github.com/aretw0/gazette/pkg/adapters/mock"
	"github.com/aretw0/gazette/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type healthFunc func(context.Context) error

func (f healthFunc) Health(ctx context.Context) error { return f(ctx) }

func newServer(t *testing.T, opts ...api.Option) (*httptest.Server, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	p, err := gazette.New(mock.New(), gazette.WithDetailSink(store))
	require.NoError(t, err)

	opts = append([]api.Option{api.WithSessions(store)}, opts...)
	h, err := api.NewHandler(context.Background(), p, opts...)
	require.NoError(t, err)
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv, store
}

func post(t *testing.T, url, body string) (*nethttp.Response, map[string]any) {
	t.Helper()
	resp, err := nethttp.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp, out
}

func TestGenerate_NonInteractive(t *testing.T) {
	srv, store := newServer(t)

	resp, out := post(t, srv.URL+"/api/v1/generate", `{"raw_data":"台積電營收創新高","parameters":{"news_type":"科技"}}`)
	require.Equal(t, nethttp.StatusOK, resp.StatusCode, out)

	outcome := out["outcome"].(map[string]any)
	assert.Equal(t, "succeeded", outcome["status"])
	assert.Equal(t, "最終模擬標題", outcome["headline"])

	id := out["session_id"].(string)
	detail, err := store.Load(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "科技", detail.Parameters.NewsType)
	assert.True(t, detail.Parameters.NonInteractive)
}

func TestGenerate_ScriptedDecisions(t *testing.T) {
	srv, _ := newServer(t)

	resp, out := post(t, srv.URL+"/api/v1/generate", `{"raw_data":"原始資料","decisions":["a","q"]}`)
	require.Equal(t, nethttp.StatusOK, resp.StatusCode)
	outcome := out["outcome"].(map[string]any)
	assert.Equal(t, "failed", outcome["status"])
	assert.Equal(t, "Beta", outcome["stage"])
	assert.Equal(t, "user_abort", outcome["message"])
}

func TestGenerate_RejectsInvalidBody(t *testing.T) {
	srv, _ := newServer(t)

	for name, body := range map[string]string{
		"missing raw_data": `{"source":"x"}`,
		"unknown field":    `{"raw_data":"x","colour":"red"}`,
		"bad word limit":   `{"raw_data":"x","parameters":{"word_limit":0}}`,
		"not json":         `raw text`,
	} {
		t.Run(name, func(t *testing.T) {
			resp, out := post(t, srv.URL+"/api/v1/generate", body)
			assert.Equal(t, nethttp.StatusBadRequest, resp.StatusCode)
			assert.NotEmpty(t, out["error"])
		})
	}
}

func TestSessions_ListAndGet(t *testing.T) {
	srv, _ := newServer(t)
	_, out := post(t, srv.URL+"/api/v1/generate", `{"raw_data":"一"}`)
	id := out["session_id"].(string)

	resp, err := nethttp.Get(srv.URL + "/api/v1/sessions?limit=5")
	require.NoError(t, err)
	var list api.SessionList
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	resp.Body.Close()
	assert.Equal(t, []string{id}, list.Sessions)

	resp, err = nethttp.Get(srv.URL + "/api/v1/sessions/" + id)
	require.NoError(t, err)
	var detail domain.SessionDetail
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&detail))
	resp.Body.Close()
	assert.Equal(t, id, detail.SessionID)
	assert.NotEmpty(t, detail.Events)

	resp, err = nethttp.Get(srv.URL + "/api/v1/sessions/session_missing")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, nethttp.StatusNotFound, resp.StatusCode)

	resp, err = nethttp.Get(srv.URL + "/api/v1/sessions?limit=abc")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, nethttp.StatusBadRequest, resp.StatusCode)
}

func TestHealth(t *testing.T) {
	srv, _ := newServer(t, api.WithHealthChecker(healthFunc(func(context.Context) error {
		return errors.New("ollama down")
	})))
	resp, err := nethttp.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, nethttp.StatusServiceUnavailable, resp.StatusCode)

	srv, _ = newServer(t)
	resp2, err := nethttp.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, nethttp.StatusOK, resp2.StatusCode)
}

func TestOpenAPIAndMetrics(t *testing.T) {
	metrics := nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		_, _ = w.Write([]byte("gazette_sessions_total 0\n"))
	})
	srv, _ := newServer(t, api.WithMetrics(metrics))

	resp, err := nethttp.Get(srv.URL + "/openapi.yaml")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, nethttp.StatusOK, resp.StatusCode)

	resp, err = nethttp.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, nethttp.StatusOK, resp.StatusCode)
}

func TestLoadSpec(t *testing.T) {
	doc, err := api.LoadSpec(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Gazette API", doc.Info.Title)
}

package ollama_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aretw0/gazette/pkg/adapters/ollama"
	"github.com/aretw0/gazette/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Invoke(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"message": map[string]string{"role": "assistant", "content": `{"draft_content":"稿"}`},
		})
	}))
	defer srv.Close()

	c := ollama.New(srv.URL+"/", ollama.WithModel("qwen2:7b"))
	out, err := c.Invoke(context.Background(), domain.StageAlpha, domain.Prompt{System: "sys", User: "user"})
	require.NoError(t, err)
	assert.Equal(t, `{"draft_content":"稿"}`, out)

	assert.Equal(t, "qwen2:7b", got["model"])
	assert.Equal(t, false, got["stream"])
	assert.Equal(t, "json", got["format"])
	assert.Equal(t, 0.3, got["options"].(map[string]any)["temperature"])
	msgs := got["messages"].([]any)
	require.Len(t, msgs, 2)
	assert.Equal(t, "system", msgs[0].(map[string]any)["role"])
}

func TestClient_InvokeServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"model 'x' not found"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := ollama.New(srv.URL).Invoke(context.Background(), domain.StageBeta, domain.Prompt{User: "u"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
	assert.Contains(t, err.Error(), "Beta")
}

func TestClient_ModelsAndHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tags", r.URL.Path)
		_, _ = w.Write([]byte(`{"models":[{"name":"llama3:8b"},{"name":"qwen2:7b"}]}`))
	}))
	defer srv.Close()

	c := ollama.New(srv.URL)
	require.NoError(t, c.Health(context.Background()))
	models, err := c.Models(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"llama3:8b", "qwen2:7b"}, models)
}

func TestClient_HealthUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	err := ollama.New(srv.URL).Health(context.Background())
	assert.ErrorContains(t, err, "ollama unreachable")
}

package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/aretw0/gazette"
	"github.com/aretw0/gazette/pkg/adapters/memory"
	"github.com/aretw0/gazette/pkg/adapters/mock"
	"github.com/aretw0/gazette/pkg/domain"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*Server, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	p, err := gazette.New(mock.New(), gazette.WithDetailSink(store))
	require.NoError(t, err)
	return NewServer(p, "test", WithSessions(store)), store
}

func callRequest(name string, args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func TestHandleGenerate(t *testing.T) {
	s, store := newTestServer(t)
	ctx := context.Background()

	retries := 0
	resp, err := s.handleGenerate(ctx, mcp.CallToolRequest{}, GenerateArgs{
		RawData:    "央行宣布升息半碼",
		NewsType:   "財經",
		WordLimit:  500,
		MaxRetries: &retries,
	})
	require.NoError(t, err)
	assert.True(t, resp.Outcome.Succeeded())
	assert.Equal(t, "最終模擬標題", resp.Outcome.Headline)
	assert.Equal(t, resp.SessionID, resp.Row.SessionID)

	detail, err := store.Load(ctx, resp.SessionID)
	require.NoError(t, err)
	assert.True(t, detail.Parameters.NonInteractive)
	assert.Equal(t, 500, detail.Parameters.WordLimit)
	assert.Equal(t, 0, detail.Parameters.MaxRetries)
	assert.Equal(t, domain.SourceCLI, detail.Source)
}

func TestHandleGenerate_RequiresRawData(t *testing.T) {
	s, _ := newTestServer(t)

	_, err := s.handleGenerate(context.Background(), mcp.CallToolRequest{}, GenerateArgs{})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestHandleGenerate_RejectsInvalidParameters(t *testing.T) {
	s, _ := newTestServer(t)

	retries := -1
	_, err := s.handleGenerate(context.Background(), mcp.CallToolRequest{}, GenerateArgs{RawData: "x", MaxRetries: &retries})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestHandleListAndGetSession(t *testing.T) {
	s, _ := newTestServer(t)
	ctx := context.Background()

	var ids []string
	for _, text := range []string{"第一則", "第二則", "第三則"} {
		resp, err := s.handleGenerate(ctx, mcp.CallToolRequest{}, GenerateArgs{RawData: text})
		require.NoError(t, err)
		ids = append(ids, resp.SessionID)
	}

	all, err := s.handleListSessions(ctx, mcp.CallToolRequest{}, ListArgs{})
	require.NoError(t, err)
	assert.ElementsMatch(t, ids, all.Sessions)

	limited, err := s.handleListSessions(ctx, mcp.CallToolRequest{}, ListArgs{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, limited.Sessions, 2)

	res, err := s.handleGetSession(ctx, callRequest("get_session", map[string]any{"session_id": ids[0]}))
	require.NoError(t, err)
	require.False(t, res.IsError)
	require.Len(t, res.Content, 1)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)

	var detail map[string]any
	require.NoError(t, json.Unmarshal([]byte(text.Text), &detail))
	assert.Equal(t, ids[0], detail["session_id"])
}

func TestHandleGetSession_Errors(t *testing.T) {
	s, _ := newTestServer(t)
	ctx := context.Background()

	res, err := s.handleGetSession(ctx, callRequest("get_session", map[string]any{}))
	require.NoError(t, err)
	assert.True(t, res.IsError)

	res, err = s.handleGetSession(ctx, callRequest("get_session", map[string]any{"session_id": "missing"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestNewServer_RegistersTools(t *testing.T) {
	p, err := gazette.New(mock.New())
	require.NoError(t, err)

	bare := NewServer(p, "test")
	assert.Len(t, bare.MCPServer().ListTools(), 1)

	full := NewServer(p, "test", WithSessions(memory.NewStore()))
	tools := full.MCPServer().ListTools()
	assert.Contains(t, tools, "generate_article")
	assert.Contains(t, tools, "list_sessions")
	assert.Contains(t, tools, "get_session")
}

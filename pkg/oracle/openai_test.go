package oracle

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cexll/cassdoctor/pkg/catalog"
	"github.com/cexll/cassdoctor/pkg/session"
)

type capturedRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role       string `json:"role"`
		Content    string `json:"content"`
		ToolCallID string `json:"tool_call_id"`
		ToolCalls  []struct {
			ID       string `json:"id"`
			Function struct {
				Name      string `json:"name"`
				Arguments string `json:"arguments"`
			} `json:"function"`
		} `json:"tool_calls"`
	} `json:"messages"`
	Tools []struct {
		Type     string `json:"type"`
		Function struct {
			Name       string          `json:"name"`
			Parameters json.RawMessage `json:"parameters"`
		} `json:"function"`
	} `json:"tools"`
	ToolChoice  any     `json:"tool_choice"`
	Temperature float64 `json:"temperature"`
}

func newCompletionServer(t *testing.T, captured *capturedRequest, body string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(captured))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
}

func TestOpenAIDecideToolCall(t *testing.T) {
	var captured capturedRequest
	server := newCompletionServer(t, &captured, `{
		"id": "cmpl-1",
		"choices": [{
			"index": 0,
			"message": {
				"role": "assistant",
				"content": "",
				"tool_calls": [{
					"id": "call_1",
					"type": "function",
					"function": {"name": "list_clusters", "arguments": "{\"customer\":\"Contoso\"}"}
				}]
			},
			"finish_reason": "tool_calls"
		}]
	}`)
	defer server.Close()

	o := NewOpenAI(OpenAIConfig{APIKey: "test-key", BaseURL: server.URL})
	decision, err := o.Decide(context.Background(), DecisionRequest{
		System: "You are the Cassandra Doctor.",
		History: []session.Message{
			{Role: session.RoleUser, Content: "show me Contoso clusters"},
		},
		Tools: []catalog.ToolDescriptor{
			{Name: "list_clusters", Description: "List clusters", Schema: json.RawMessage(`{"type":"object","properties":{"customer":{"type":"string"}}}`)},
		},
	})
	require.NoError(t, err)
	require.Empty(t, decision.Content)
	require.Len(t, decision.ToolCalls, 1)
	require.Equal(t, "call_1", decision.ToolCalls[0].ID)
	require.Equal(t, "list_clusters", decision.ToolCalls[0].Name)
	require.Equal(t, map[string]any{"customer": "Contoso"}, decision.ToolCalls[0].Arguments)

	require.Equal(t, DefaultModel, captured.Model)
	require.InDelta(t, 0.2, captured.Temperature, 0.001)
	require.Len(t, captured.Tools, 1)
	require.Equal(t, "function", captured.Tools[0].Type)
	require.Equal(t, "list_clusters", captured.Tools[0].Function.Name)
	require.NotEmpty(t, captured.Tools[0].Function.Parameters)
	require.Len(t, captured.Messages, 2)
	require.Equal(t, "system", captured.Messages[0].Role)
	require.Equal(t, "user", captured.Messages[1].Role)
}

func TestOpenAIDecideThreadsToolResults(t *testing.T) {
	var captured capturedRequest
	server := newCompletionServer(t, &captured, `{
		"id": "cmpl-2",
		"choices": [{
			"index": 0,
			"message": {"role": "assistant", "content": "Contoso runs two clusters."},
			"finish_reason": "stop"
		}]
	}`)
	defer server.Close()

	o := NewOpenAI(OpenAIConfig{APIKey: "test-key", Model: "gpt-4o", BaseURL: server.URL})
	decision, err := o.Decide(context.Background(), DecisionRequest{
		System: "system prompt",
		History: []session.Message{
			{Role: session.RoleUser, Content: "show me Contoso clusters"},
			{Role: session.RoleAssistant, ToolCalls: []session.ToolCall{
				{ID: "call_1", Name: "list_clusters", Arguments: map[string]any{"customer": "Contoso"}},
			}},
			{Role: session.RoleTool, ToolCallID: "call_1", Content: `["nova-preprod","nova-prod"]`},
		},
	})
	require.NoError(t, err)
	require.Equal(t, "Contoso runs two clusters.", decision.Content)
	require.Empty(t, decision.ToolCalls)

	require.Equal(t, "gpt-4o", captured.Model)
	require.Len(t, captured.Messages, 4)

	assistant := captured.Messages[2]
	require.Equal(t, "assistant", assistant.Role)
	require.Len(t, assistant.ToolCalls, 1)
	require.Equal(t, "call_1", assistant.ToolCalls[0].ID)
	require.JSONEq(t, `{"customer":"Contoso"}`, assistant.ToolCalls[0].Function.Arguments)

	toolMsg := captured.Messages[3]
	require.Equal(t, "tool", toolMsg.Role)
	require.Equal(t, "call_1", toolMsg.ToolCallID)
	require.Equal(t, `["nova-preprod","nova-prod"]`, toolMsg.Content)

	// No tools were advertised, so none should be sent.
	require.Empty(t, captured.Tools)
}

func TestOpenAIDecideBackendFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"overloaded"}}`, http.StatusInternalServerError)
	}))
	defer server.Close()

	o := NewOpenAI(OpenAIConfig{APIKey: "test-key", BaseURL: server.URL})
	_, err := o.Decide(context.Background(), DecisionRequest{
		History: []session.Message{{Role: session.RoleUser, Content: "hi"}},
	})
	var oracleErr *Error
	require.ErrorAs(t, err, &oracleErr)
}

func TestOpenAIDecideMalformedToolArguments(t *testing.T) {
	var captured capturedRequest
	server := newCompletionServer(t, &captured, `{
		"id": "cmpl-3",
		"choices": [{
			"index": 0,
			"message": {
				"role": "assistant",
				"tool_calls": [{
					"id": "call_1",
					"type": "function",
					"function": {"name": "list_clusters", "arguments": "{broken"}
				}]
			},
			"finish_reason": "tool_calls"
		}]
	}`)
	defer server.Close()

	o := NewOpenAI(OpenAIConfig{APIKey: "test-key", BaseURL: server.URL})
	_, err := o.Decide(context.Background(), DecisionRequest{
		History: []session.Message{{Role: session.RoleUser, Content: "hi"}},
	})
	var oracleErr *Error
	require.ErrorAs(t, err, &oracleErr)
	require.ErrorContains(t, err, "malformed arguments")
}

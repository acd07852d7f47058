package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cexll/cassdoctor/pkg/catalog"
	"github.com/cexll/cassdoctor/pkg/chat"
	"github.com/cexll/cassdoctor/pkg/oracle"
	"github.com/cexll/cassdoctor/pkg/session"
)

type stubEngine struct {
	result   *chat.TurnResult
	err      error
	lastID   string
	lastText string
}

func (s *stubEngine) RunTurn(ctx context.Context, sessionID, userText string) (*chat.TurnResult, error) {
	s.lastID = sessionID
	s.lastText = userText
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func newTestServer(engine TurnRunner, store *session.Store) *httptest.Server {
	if store == nil {
		store = session.NewStore()
	}
	return httptest.NewServer(NewServer(engine, store).Handler())
}

func postChat(t *testing.T, url, body string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Post(url+"/chat", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	var decoded map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp, decoded
}

func TestChatSuccess(t *testing.T) {
	engine := &stubEngine{result: &chat.TurnResult{
		Reply:      "Contoso runs two clusters.",
		Tools:      []string{"list_clusters"},
		Rounds:     2,
		StopReason: chat.StopComplete,
	}}
	ts := newTestServer(engine, nil)
	defer ts.Close()

	resp, body := postChat(t, ts.URL, `{"message":"which clusters?","session_id":"s1"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "s1", body["session_id"])
	require.Equal(t, "Contoso runs two clusters.", body["reply"])
	require.Equal(t, []any{"list_clusters"}, body["tools"])
	require.Equal(t, float64(2), body["rounds"])
	require.Equal(t, "complete", body["stop_reason"])
	require.Equal(t, "s1", engine.lastID)
	require.Equal(t, "which clusters?", engine.lastText)
	require.NotEmpty(t, resp.Header.Get("X-Request-Id"))
}

func TestChatGeneratesSessionID(t *testing.T) {
	engine := &stubEngine{result: &chat.TurnResult{Reply: "hi", StopReason: chat.StopComplete, Rounds: 1}}
	ts := newTestServer(engine, nil)
	defer ts.Close()

	resp, body := postChat(t, ts.URL, `{"message":"hello"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotEmpty(t, body["session_id"])
	require.Equal(t, body["session_id"], engine.lastID)
	// Tools is always a JSON array, never null.
	require.Equal(t, []any{}, body["tools"])
}

func TestChatBadRequests(t *testing.T) {
	engine := &stubEngine{result: &chat.TurnResult{}}
	ts := newTestServer(engine, nil)
	defer ts.Close()

	resp, _ := postChat(t, ts.URL, `{"message":"   "}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = postChat(t, ts.URL, `{not json`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestChatErrorMapping(t *testing.T) {
	testCases := []struct {
		name      string
		err       error
		status    int
		retryable bool
	}{
		{name: "Busy", err: session.ErrSessionBusy, status: http.StatusConflict, retryable: true},
		{name: "Discovery", err: &catalog.DiscoveryError{Err: errors.New("refused")}, status: http.StatusBadGateway, retryable: true},
		{name: "Oracle", err: &oracle.Error{Err: errors.New("overloaded")}, status: http.StatusBadGateway, retryable: true},
		{name: "Internal", err: errors.New("boom"), status: http.StatusInternalServerError, retryable: false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ts := newTestServer(&stubEngine{err: tc.err}, nil)
			defer ts.Close()

			resp, body := postChat(t, ts.URL, `{"message":"hello","session_id":"s1"}`)
			require.Equal(t, tc.status, resp.StatusCode)
			require.NotEmpty(t, body["error"])
			require.Equal(t, tc.retryable, body["retryable"])
		})
	}
}

func TestSessionMessages(t *testing.T) {
	store := session.NewStore()
	_, err := store.GetOrCreate("s1")
	require.NoError(t, err)
	_, err = store.Append("s1", session.Message{Role: session.RoleUser, Content: "hello"})
	require.NoError(t, err)
	_, err = store.Append("s1", session.Message{Role: session.RoleAssistant, Content: "hi"})
	require.NoError(t, err)

	ts := newTestServer(&stubEngine{}, store)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/sessions/s1/messages")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body messagesResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Equal(t, "s1", body.SessionID)
	require.Len(t, body.Messages, 2)
	require.Equal(t, session.RoleUser, body.Messages[0].Role)

	missing, err := http.Get(ts.URL + "/sessions/nope/messages")
	require.NoError(t, err)
	defer missing.Body.Close()
	require.Equal(t, http.StatusNotFound, missing.StatusCode)
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(&stubEngine{}, nil)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCORSPreflight(t *testing.T) {
	ts := newTestServer(&stubEngine{}, nil)
	defer ts.Close()

	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/chat", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	require.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/averyhart/qa-advisor/internal/chat"
)

type fakeCompleter struct {
	reply chat.Reply
	err   error
	calls int
}

func (f *fakeCompleter) Complete(_ context.Context, _ string, _ []chat.Message, _ chat.ModelSettings) (chat.Reply, error) {
	f.calls++
	if f.err != nil {
		return chat.Reply{}, f.err
	}
	return f.reply, nil
}

func newTestServer(completer chat.Completer) *Server {
	settings := chat.ModelSettings{Model: "test-model", Temperature: 0.7, MaxTokens: 1024}
	newConversation := func() *chat.Conversation {
		return chat.NewConversation(completer, settings, "You are a QA assistant")
	}
	return New(newConversation, time.Hour, "")
}

func newCookieJar() (http.CookieJar, error) {
	return cookiejar.New(nil)
}

// client wraps httptest with a cookie jar so session cookies round-trip.
func newTestClient(t *testing.T, s *Server) (*httptest.Server, *http.Client) {
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)

	client := ts.Client()
	jar, err := newCookieJar()
	require.NoError(t, err)
	client.Jar = jar
	return ts, client
}

func postChat(t *testing.T, client *http.Client, url string, message string) *http.Response {
	body, err := json.Marshal(chatRequest{Message: message})
	require.NoError(t, err)
	resp, err := client.Post(url+"/api/chat", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	return resp
}

func decodeChat(t *testing.T, resp *http.Response) chatResponse {
	defer resp.Body.Close()
	var out chatResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestChat_SuccessfulExchange(t *testing.T) {
	completer := &fakeCompleter{reply: chat.Reply{Content: "A control chart is a statistical tool."}}
	ts, client := newTestClient(t, newTestServer(completer))

	resp := postChat(t, client, ts.URL, "What is a control chart?")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	out := decodeChat(t, resp)
	assert.Equal(t, chat.RoleAssistant, out.Reply.Role)
	require.Len(t, out.History, 3)
	assert.Equal(t, chat.RoleSystem, out.History[0].Role)
	assert.Equal(t, "What is a control chart?", out.History[1].Content)
	assert.Equal(t, "A control chart is a statistical tool.", out.History[2].Content)
}

func TestChat_BlankMessageRejectedWithoutBoundaryCall(t *testing.T) {
	completer := &fakeCompleter{}
	ts, client := newTestClient(t, newTestServer(completer))

	resp := postChat(t, client, ts.URL, "   ")
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, 0, completer.calls)
}

func TestChat_BoundaryFailureKeepsUserMessage(t *testing.T) {
	completer := &fakeCompleter{err: errors.New("api down")}
	ts, client := newTestClient(t, newTestServer(completer))

	resp := postChat(t, client, ts.URL, "hello")
	resp.Body.Close()
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)

	historyResp, err := client.Get(ts.URL + "/api/history")
	require.NoError(t, err)
	defer historyResp.Body.Close()

	var out map[string][]chat.Message
	require.NoError(t, json.NewDecoder(historyResp.Body).Decode(&out))
	require.Len(t, out["history"], 2)
	assert.Equal(t, chat.RoleUser, out["history"][1].Role)
}

func TestChat_DistinctCookiesGetDistinctConversations(t *testing.T) {
	completer := &fakeCompleter{reply: chat.Reply{Content: "reply"}}
	srv := newTestServer(completer)
	ts, alice := newTestClient(t, srv)

	jar, err := newCookieJar()
	require.NoError(t, err)
	bob := &http.Client{Jar: jar}

	resp := postChat(t, alice, ts.URL, "alice's question")
	resp.Body.Close()

	bobResp, err := bob.Get(ts.URL + "/api/history")
	require.NoError(t, err)
	defer bobResp.Body.Close()

	var out map[string][]chat.Message
	require.NoError(t, json.NewDecoder(bobResp.Body).Decode(&out))
	require.Len(t, out["history"], 1, "bob sees only the persona message")
	assert.Equal(t, 2, srv.registry.Len())
}

func TestReset_ClearsHistory(t *testing.T) {
	completer := &fakeCompleter{reply: chat.Reply{Content: "reply"}}
	ts, client := newTestClient(t, newTestServer(completer))

	resp := postChat(t, client, ts.URL, "question")
	resp.Body.Close()

	resetResp, err := client.Post(ts.URL+"/api/reset", "application/json", nil)
	require.NoError(t, err)
	defer resetResp.Body.Close()

	var out map[string][]chat.Message
	require.NoError(t, json.NewDecoder(resetResp.Body).Decode(&out))
	require.Len(t, out["history"], 1)
	assert.Equal(t, chat.RoleSystem, out["history"][0].Role)
}

func TestTranscript_Download(t *testing.T) {
	completer := &fakeCompleter{reply: chat.Reply{Content: "reply text"}}
	ts, client := newTestClient(t, newTestServer(completer))

	resp := postChat(t, client, ts.URL, "question")
	resp.Body.Close()

	dl, err := client.Get(ts.URL + "/api/transcript")
	require.NoError(t, err)
	defer dl.Body.Close()

	assert.Equal(t, "text/plain; charset=utf-8", dl.Header.Get("Content-Type"))
	assert.Contains(t, dl.Header.Get("Content-Disposition"), "transcript.txt")

	md, err := client.Get(ts.URL + "/api/transcript?format=markdown")
	require.NoError(t, err)
	defer md.Body.Close()

	assert.Equal(t, "text/markdown; charset=utf-8", md.Header.Get("Content-Type"))
	assert.Contains(t, md.Header.Get("Content-Disposition"), "transcript.md")
}

func TestHealthz(t *testing.T) {
	ts, client := newTestClient(t, newTestServer(&fakeCompleter{}))

	resp, err := client.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestIndex_ServesPage(t *testing.T) {
	ts, client := newTestClient(t, newTestServer(&fakeCompleter{}))

	resp, err := client.Get(ts.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
}

func TestRegistry_EvictsIdleSessions(t *testing.T) {
	registry := NewRegistry(func() *chat.Conversation {
		return chat.NewConversation(&fakeCompleter{}, chat.ModelSettings{Model: "m", MaxTokens: 1}, "persona")
	}, time.Millisecond)

	sess := registry.Create()
	require.Equal(t, 1, registry.Len())

	sess.lastActive.Store(time.Now().Add(-time.Minute).UnixNano())
	registry.evictIdle()

	assert.Equal(t, 0, registry.Len())
	assert.Nil(t, registry.Get(sess.id))
}

package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/averyhart/qa-advisor/internal/chat"
)

func newAuthedServer(token string) *Server {
	settings := chat.ModelSettings{Model: "test-model", Temperature: 0.7, MaxTokens: 1024}
	newConversation := func() *chat.Conversation {
		return chat.NewConversation(&fakeCompleter{reply: chat.Reply{Content: "reply"}}, settings, "persona")
	}
	return New(newConversation, time.Hour, token)
}

func TestAuth_RejectsAPIWithoutToken(t *testing.T) {
	ts := httptest.NewServer(newAuthedServer("secret").Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/history")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAuth_AcceptsBearerToken(t *testing.T) {
	ts := httptest.NewServer(newAuthedServer("secret").Handler())
	defer ts.Close()

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/api/history", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer secret")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAuth_PageStaysReachable(t *testing.T) {
	ts := httptest.NewServer(newAuthedServer("secret").Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestSecurityHeaders(t *testing.T) {
	ts := httptest.NewServer(newAuthedServer("").Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", resp.Header.Get("X-Frame-Options"))
}

func TestRecovery_ConvertsPanicsTo500(t *testing.T) {
	handler := withRecovery(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heathj/statetoggle/browser"
)

const page = `<!DOCTYPE html><html><body>
<div id="panel" class="panel"><button id="open" data-add-state="panel--open" data-target=".panel" data-focus="#q" data-prevent-default>Open</button></div>
<input id="q">
<a id="away" href="/away">away</a>
</body></html>`

func newServer(t *testing.T, opts ...Option) (*Server, *httptest.Server) {
	t.Helper()
	logger, _ := test.NewNullLogger()
	w, err := browser.Open(strings.NewReader(page), browser.WithLogger(logger), browser.WithURL("https://example.test/"))
	require.NoError(t, err)
	s := New(w, append([]Option{WithLogger(logger)}, opts...)...)
	ts := httptest.NewServer(s)
	t.Cleanup(ts.Close)
	return s, ts
}

func wsURL(ts *httptest.Server) string {
	return "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
}

func postClick(t *testing.T, ts *httptest.Server, body string) (int, []byte) {
	t.Helper()
	res, err := http.Post(ts.URL+"/click", "application/json", bytes.NewBufferString(body))
	require.NoError(t, err)
	defer res.Body.Close()
	b, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return res.StatusCode, b
}

func TestClick(t *testing.T) {
	t.Parallel()
	_, ts := newServer(t)

	status, body := postClick(t, ts, `{"selector": "#open"}`)
	require.Equal(t, http.StatusOK, status, string(body))

	var resp ClickResponse
	require.NoError(t, json.Unmarshal(body, &resp))
	assert.Equal(t, "button#open", resp.Target)
	assert.True(t, resp.DefaultPrevented)
	assert.Equal(t, "input#q", resp.ActiveElement)
	assert.Equal(t, []Mutation{{
		Element:     "div#panel.panel.panel--open",
		Attribute:   "class",
		OldValue:    "panel",
		HadOldValue: true,
		Value:       "panel panel--open",
	}}, resp.Mutations)

	status, body = postClick(t, ts, `{"selector": "#away"}`)
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(body, &resp))
	assert.False(t, resp.DefaultPrevented)
	assert.Empty(t, resp.Mutations)
	assert.Equal(t, "https://example.test/away", resp.Navigated)
}

func TestClickErrors(t *testing.T) {
	t.Parallel()
	_, ts := newServer(t)

	tests := []struct {
		name   string
		body   string
		status int
		err    string
	}{
		{"bad json", `{`, http.StatusBadRequest, "invalid request body"},
		{"bad selector", `{"selector": "#"}`, http.StatusBadRequest, "SyntaxError"},
		{"no match", `{"selector": "#nope"}`, http.StatusNotFound, `no element matches "#nope"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := postClick(t, ts, tt.body)
			assert.Equal(t, tt.status, status)

			var resp errorResponse
			require.NoError(t, json.Unmarshal(body, &resp), string(body))
			assert.Contains(t, resp.Error, tt.err)
		})
	}
}

func TestDocumentReflectsClicks(t *testing.T) {
	t.Parallel()
	_, ts := newServer(t)
	postClick(t, ts, `{"selector": "#open"}`)

	res, err := http.Get(ts.URL + "/document")
	require.NoError(t, err)
	defer res.Body.Close()
	b, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	assert.Equal(t, "text/html; charset=utf-8", res.Header.Get("Content-Type"))
	assert.Contains(t, string(b), `<div id="panel" class="panel panel--open">`)
}

func TestMetricsAndHealth(t *testing.T) {
	t.Parallel()
	_, ts := newServer(t)
	postClick(t, ts, `{"selector": "#open"}`)

	res, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer res.Body.Close()
	b, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	assert.Contains(t, string(b), "statetoggle_triggers_total 1")
	assert.Contains(t, string(b), "statetoggle_classes_added_total 1")

	res, err = http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)
}

func TestWebSocketStreamsMutations(t *testing.T) {
	t.Parallel()
	s, ts := newServer(t)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(ts), nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "hello", msg.Type)
	assert.Equal(t, 1, s.Clients())

	postClick(t, ts, `{"selector": "#open"}`)

	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "mutation", msg.Type)
	require.NotNil(t, msg.Mutation)
	assert.Equal(t, "class", msg.Mutation.Attribute)
	assert.Equal(t, "panel panel--open", msg.Mutation.Value)
}

func TestStalledClientIsDropped(t *testing.T) {
	t.Parallel()
	s, ts := newServer(t, WithWriteTimeout(50*time.Millisecond))

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(ts), nil)
	require.NoError(t, err)
	defer conn.Close()
	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))
	require.Equal(t, 1, s.Clients())

	// The client stops reading, so the socket buffers fill and a write eventually stalls.
	big := Message{Type: "mutation", Mutation: &Mutation{Value: strings.Repeat("x", 1<<16)}}
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 4096 && s.Clients() > 0; i++ {
			s.broadcast(big)
		}
	}()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("broadcast blocked on a client that does not read")
	}
	assert.Equal(t, 0, s.Clients())

	status, body := postClick(t, ts, `{"selector": "#open"}`)
	assert.Equal(t, http.StatusOK, status, string(body))
}

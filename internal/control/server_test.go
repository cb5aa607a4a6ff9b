package control

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/novahq/scribe/internal/capture"
)

func newTestServer(t *testing.T, authToken string, maxBody int64) *Server {
	t.Helper()
	surface, _ := newTestSurface(t)
	return NewServer("127.0.0.1:0", authToken, maxBody, surface, nil)
}

func postCommand(t *testing.T, s *Server, body string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/command", strings.NewReader(body))
	for k, vs := range header {
		req.Header[k] = vs
	}
	w := httptest.NewRecorder()
	s.handleCommand(w, req)
	return w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	return resp
}

func TestCommandEndpointDispatches(t *testing.T) {
	s := newTestServer(t, "", 0)

	w := postCommand(t, s, `{"command":"Ping"}`, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	resp := decodeResponse(t, w)
	assert.True(t, resp.OK)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, false, data["active"])
}

func TestCommandEndpointRejectsNonPost(t *testing.T) {
	s := newTestServer(t, "", 0)

	req := httptest.NewRequest(http.MethodGet, "/command", nil)
	w := httptest.NewRecorder()
	s.handleCommand(w, req)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestCommandEndpointRejectsMalformedBody(t *testing.T) {
	s := newTestServer(t, "", 0)

	w := postCommand(t, s, `{"command":`, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeResponse(t, w)
	assert.False(t, resp.OK)
	assert.Contains(t, resp.Error, "invalid request body")
}

func TestCommandEndpointBoundsBodySize(t *testing.T) {
	s := newTestServer(t, "", 16)

	w := postCommand(t, s, `{"command":"Ping","note":"`+strings.Repeat("x", 64)+`"}`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBearerAuth(t *testing.T) {
	s := newTestServer(t, "s3cret", 0)

	w := postCommand(t, s, `{"command":"Ping"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = postCommand(t, s, `{"command":"Ping"}`, http.Header{
		"Authorization": []string{"Bearer wrong"},
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = postCommand(t, s, `{"command":"Ping"}`, http.Header{
		"Authorization": []string{"Bearer s3cret"},
	})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestNoAuthTokenMeansOpenLocalAccess(t *testing.T) {
	s := newTestServer(t, "", 0)
	w := postCommand(t, s, `{"command":"Ping"}`, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(t, "s3cret", 0)

	// Liveness stays unauthenticated.
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	s.handleHealth(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, false, body["active"])
}

func TestStartStopOverHTTP(t *testing.T) {
	s := newTestServer(t, "", 0)

	resp := decodeResponse(t, postCommand(t, s, `{"command":"StartRecording","options":{"mode":"create_listing"}}`, nil))
	require.True(t, resp.OK, resp.Error)
	id := resp.Data.(map[string]interface{})["sessionId"].(string)
	require.NotEmpty(t, id)

	resp = decodeResponse(t, postCommand(t, s, `{"command":"StopRecording"}`, nil))
	require.True(t, resp.OK, resp.Error)
	artifact := resp.Data.(map[string]interface{})
	session := artifact["session"].(map[string]interface{})
	assert.Equal(t, id, session["sessionId"])
}

func TestHTTPNotifierDeliversProgress(t *testing.T) {
	got := make(chan capture.Progress, 1)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p capture.Progress
		if err := json.NewDecoder(r.Body).Decode(&p); err == nil {
			got <- p
		}
	}))
	defer ts.Close()

	notify := HTTPNotifier(ts.URL, nil)
	notify(capture.Progress{EventCount: 3, MarkCount: 1})

	select {
	case p := <-got:
		assert.Equal(t, 3, p.EventCount)
		assert.Equal(t, 1, p.MarkCount)
	case <-time.After(2 * time.Second):
		t.Fatal("progress never delivered")
	}
}

func TestHTTPNotifierSwallowsDeliveryFailures(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	ts.Close() // nobody listening

	notify := HTTPNotifier(ts.URL, nil)
	assert.NotPanics(t, func() {
		notify(capture.Progress{EventCount: 1})
	})
}

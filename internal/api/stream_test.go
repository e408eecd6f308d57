package api

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mindwell-assessment-server/internal/domain"
)

func dialStream(t *testing.T, ts *httptest.Server, id string) *websocket.Conn {
	t.Helper()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/v1/reports/" + id + "/stream"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestStreamReport_DeliversInsights(t *testing.T) {
	repo := newFakeRepo()
	server := newTestServer(t, repo, &staticGenerator{text: "breathe"})

	ts := httptest.NewServer(server.Router())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/api/v1/assessments", "application/json",
		bytes.NewReader(submitBody(t)))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	conn := dialStream(t, ts, "sub-test-1")
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	// The first frame is the current state; a second frame follows if
	// insights were not yet attached when the stream opened.
	var msg streamMessage
	for {
		require.NoError(t, conn.ReadJSON(&msg))
		require.NotEqual(t, "timeout", msg.Type)
		if msg.InsightsReady {
			break
		}
	}

	require.NotNil(t, msg.Report)
	assert.Equal(t, "sub-test-1", msg.Report.IndividualID)
	assert.Equal(t, "breathe", msg.Report.Domains[0].InsightsAndSupport)
}

func TestStreamReport_AlreadyEnriched(t *testing.T) {
	repo := newFakeRepo()
	server := newTestServer(t, repo, nil)

	score := 57.9
	report := &domain.IndividualData{
		IndividualID: "sub-done",
		FirstName:    "Ada",
		Email:        "ada@example.com",
		Domains: []domain.DomainResult{
			{Name: "Depression", Score: &score, UserInterpretation: "Mild", InsightsAndSupport: "done"},
		},
	}
	repo.reports["sub-done"] = report
	repo.ready["sub-done"] = true

	ts := httptest.NewServer(server.Router())
	defer ts.Close()

	conn := dialStream(t, ts, "sub-done")
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var msg streamMessage
	require.NoError(t, conn.ReadJSON(&msg))
	assert.True(t, msg.InsightsReady)
	assert.Equal(t, "done", msg.Report.Domains[0].InsightsAndSupport)

	// The server closes after the single frame
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
}

func TestStreamReport_NotFound(t *testing.T) {
	server := newTestServer(t, newFakeRepo(), nil)

	ts := httptest.NewServer(server.Router())
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/v1/reports/missing/stream"
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

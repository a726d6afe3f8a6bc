package handlers

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waveline/waveline-backend/internal/messages"
)

func newMessagesRouter(t *testing.T) (*gin.Engine, *messages.Broker, messages.Repository) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	repo := messages.NewMemoryRepository()
	broker := messages.NewBroker(repo)
	svc := messages.NewService(repo, broker)
	r := gin.New()
	NewMessagesHandler(svc, broker).Register(r.Group("/api"), r.Group("/api"))
	return r, broker, repo
}

func decodeMessage(t *testing.T, body []byte) messages.Message {
	t.Helper()
	var resp struct {
		Item messages.Message `json:"item"`
	}
	require.NoError(t, json.Unmarshal(body, &resp))
	return resp.Item
}

func TestMessages_SubmitAndList(t *testing.T) {
	r, _, _ := newMessagesRouter(t)

	w := postJSON(t, r, "POST", "/api/messages", map[string]any{
		"name":    "Ada",
		"email":   "ada@example.com",
		"message": "hello there",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	m := decodeMessage(t, w.Body.Bytes())
	assert.False(t, m.Read)
	assert.False(t, m.CreatedAt.IsZero())

	w2 := postJSON(t, r, "GET", "/api/messages", nil)
	require.Equal(t, http.StatusOK, w2.Code)
	var resp struct {
		Messages []messages.Message `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(w2.Body.Bytes(), &resp))
	require.Len(t, resp.Messages, 1)
	assert.Equal(t, "hello there", resp.Messages[0].Body)
}

func TestMessages_SubmitRequiresText(t *testing.T) {
	r, _, _ := newMessagesRouter(t)

	w := postJSON(t, r, "POST", "/api/messages", map[string]any{"name": "Ada"})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMessages_ReadToggleAndUnreadCount(t *testing.T) {
	r, _, _ := newMessagesRouter(t)

	w := postJSON(t, r, "POST", "/api/messages", map[string]any{"message": "one"})
	require.Equal(t, http.StatusCreated, w.Code)
	m := decodeMessage(t, w.Body.Bytes())

	wc := postJSON(t, r, "GET", "/api/messages/unread-count", nil)
	require.Equal(t, http.StatusOK, wc.Code)
	assert.JSONEq(t, `{"count":1}`, wc.Body.String())

	wr := postJSON(t, r, "PATCH", "/api/messages/"+m.ID.Hex()+"/read",
		map[string]any{"read": true})
	require.Equal(t, http.StatusOK, wr.Code)

	wc2 := postJSON(t, r, "GET", "/api/messages/unread-count", nil)
	assert.JSONEq(t, `{"count":0}`, wc2.Body.String())
}

func TestMessages_DeleteMissing(t *testing.T) {
	r, _, _ := newMessagesRouter(t)

	w := postJSON(t, r, "DELETE", "/api/messages/000000000000000000000001", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestMessages_StreamSendsSnapshotEvents(t *testing.T) {
	r, broker, repo := newMessagesRouter(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req := httptest.NewRequest("GET", "/api/messages/stream", nil).WithContext(ctx)
	pr, pw := newPipeRecorder()

	done := make(chan struct{})
	go func() {
		defer close(done)
		r.ServeHTTP(pw, req)
	}()

	// first event is the current (empty) snapshot
	ev, data := readSSE(t, pr)
	assert.Equal(t, "snapshot", ev)
	var snap messages.Snapshot
	require.NoError(t, json.Unmarshal([]byte(data), &snap))
	assert.Empty(t, snap.Messages)

	// a new message pushes a fresh snapshot
	svc := messages.NewService(repo, broker)
	_, err := svc.Create(context.Background(), "", "", "", "ping")
	require.NoError(t, err)

	ev2, data2 := readSSE(t, pr)
	assert.Equal(t, "snapshot", ev2)
	require.NoError(t, json.Unmarshal([]byte(data2), &snap))
	require.Len(t, snap.Messages, 1)
	assert.EqualValues(t, 1, snap.Unread)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("stream handler did not stop after cancel")
	}
}

// pipeRecorder adapts an io.Pipe into a gin-compatible ResponseWriter so the
// streaming handler's writes can be read incrementally.
type pipeRecorder struct {
	*httptest.ResponseRecorder
	w *writerTap
}

type writerTap struct {
	rec *httptest.ResponseRecorder
	ch  chan string
}

func (t *writerTap) push() {
	body := t.rec.Body.String()
	t.rec.Body.Reset()
	if body != "" {
		t.ch <- body
	}
}

func newPipeRecorder() (*bufio.Reader, *pipeRecorder) {
	rec := httptest.NewRecorder()
	tap := &writerTap{rec: rec, ch: make(chan string, 16)}
	pr := &pipeRecorder{ResponseRecorder: rec, w: tap}
	return bufio.NewReader(&chanReader{ch: tap.ch}), pr
}

// Flush forwards buffered bytes to the reader side; gin's c.Stream flushes
// after every event.
func (p *pipeRecorder) Flush() {
	p.w.push()
}

// CloseNotify satisfies gin's streaming writer; disconnects are simulated by
// canceling the request context instead.
func (p *pipeRecorder) CloseNotify() <-chan bool {
	return make(chan bool)
}

type chanReader struct {
	ch   chan string
	rest string
}

func (c *chanReader) Read(p []byte) (int, error) {
	if c.rest == "" {
		c.rest = <-c.ch
	}
	n := copy(p, c.rest)
	c.rest = c.rest[n:]
	return n, nil
}

// readSSE parses one "event:/data:" pair off the stream.
func readSSE(t *testing.T, r *bufio.Reader) (event, data string) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	lines := make(chan string, 1)
	go func() {
		for {
			line, err := r.ReadString('\n')
			if err != nil {
				return
			}
			lines <- line
		}
	}()
	for {
		select {
		case <-deadline:
			t.Fatal("timed out waiting for SSE event")
		case line := <-lines:
			line = strings.TrimRight(line, "\r\n")
			switch {
			case strings.HasPrefix(line, "event:"):
				event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
			case strings.HasPrefix(line, "data:"):
				data = strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			case line == "" && event != "":
				return event, data
			}
		}
	}
}

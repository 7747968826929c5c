package testutil

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

// MockServer is an httptest server that records every request and routes it
// to handlers registered per method and path.
type MockServer struct {
	*httptest.Server
	t        *testing.T
	mu       sync.Mutex
	handlers map[string]http.HandlerFunc
	fallback http.HandlerFunc
	captures []Capture
}

// NewMockServer creates a mock Telegram Bot API server. Unregistered
// methods answer {"ok":true,"result":true}.
// The server is automatically closed when the test completes.
func NewMockServer(t *testing.T) *MockServer {
	t.Helper()
	return newMockServer(t, func(w http.ResponseWriter, r *http.Request) {
		ReplyBool(w, true)
	})
}

// NewMockCatalog creates a mock sticker catalog. Unregistered paths answer
// with an empty sticker list.
func NewMockCatalog(t *testing.T) *MockServer {
	t.Helper()
	return newMockServer(t, func(w http.ResponseWriter, r *http.Request) {
		ReplyStickers(w)
	})
}

func newMockServer(t *testing.T, fallback http.HandlerFunc) *MockServer {
	m := &MockServer{
		t:        t,
		handlers: make(map[string]http.HandlerFunc),
		fallback: fallback,
		captures: make([]Capture, 0),
	}

	m.Server = httptest.NewServer(http.HandlerFunc(m.handle))
	t.Cleanup(m.Server.Close)
	return m
}

func (m *MockServer) handle(w http.ResponseWriter, r *http.Request) {
	// Read body once for capture
	body, _ := io.ReadAll(r.Body)
	r.Body.Close()

	// Restore body for downstream handler
	r.Body = io.NopCloser(bytes.NewReader(body))

	m.mu.Lock()
	m.captures = append(m.captures, Capture{
		Method:      r.Method,
		Path:        r.URL.Path,
		Query:       r.URL.Query(),
		RawQuery:    r.URL.RawQuery,
		Headers:     r.Header.Clone(),
		Body:        body,
		ContentType: r.Header.Get("Content-Type"),
		Timestamp:   time.Now(),
	})

	handler, exists := m.handlers[r.Method+":"+r.URL.Path]
	if !exists {
		handler = m.fallback
	}
	m.mu.Unlock()

	handler(w, r)
}

// OnMethod registers a handler for a specific HTTP method and path.
//
//	server.OnMethod("GET", "/search", func(w http.ResponseWriter, r *http.Request) {
//	    testutil.ReplyStickers(w, testutil.Sticker(1, "gif"))
//	})
func (m *MockServer) OnMethod(method, path string, handler http.HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[method+":"+path] = handler
}

// On registers a handler for a POST request (every Bot API call).
func (m *MockServer) On(path string, handler http.HandlerFunc) {
	m.OnMethod(http.MethodPost, path, handler)
}

// OnBot registers a handler for a Bot API method called with TestToken.
func (m *MockServer) OnBot(method string, handler http.HandlerFunc) {
	m.On(BotPath(method), handler)
}

// OnSearch registers a handler for the catalog search endpoint.
func (m *MockServer) OnSearch(handler http.HandlerFunc) {
	m.OnMethod(http.MethodGet, "/search", handler)
}

// Captures returns all captured requests.
func (m *MockServer) Captures() []Capture {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Capture{}, m.captures...)
}

// CapturesFor returns the captured requests sent to path.
func (m *MockServer) CapturesFor(path string) []Capture {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Capture
	for _, c := range m.captures {
		if c.Path == path {
			out = append(out, c)
		}
	}
	return out
}

// LastCapture returns the most recent captured request.
func (m *MockServer) LastCapture() *Capture {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.captures) == 0 {
		return nil
	}
	c := m.captures[len(m.captures)-1]
	return &c
}

// CaptureAt returns the capture at the given index.
func (m *MockServer) CaptureAt(index int) *Capture {
	m.mu.Lock()
	defer m.mu.Unlock()
	if index < 0 || index >= len(m.captures) {
		return nil
	}
	c := m.captures[index]
	return &c
}

// CaptureCount returns the total number of captured requests.
func (m *MockServer) CaptureCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.captures)
}

// ResetCaptures clears only captures, keeping handlers.
func (m *MockServer) ResetCaptures() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.captures = m.captures[:0]
}

// BaseURL returns the server's base URL.
// Use this as the API base URL when creating clients.
func (m *MockServer) BaseURL() string {
	return m.Server.URL
}

// BotPath returns the request path of a Bot API method called with TestToken.
func BotPath(method string) string {
	return "/bot" + TestToken + "/" + method
}

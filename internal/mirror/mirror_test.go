package mirror

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"badge/hal"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	mu   sync.Mutex
	leds hal.LedFrame
	gen  uint64
}

func (s *fakeSource) Leds() hal.LedFrame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.leds
}

func (s *fakeSource) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

func (s *fakeSource) Snapshot(dst *image.RGBA) {
	for i := range dst.Pix {
		dst.Pix[i] = 0x80
	}
}

func (s *fakeSource) set(i int, c color.RGBA) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.leds[i] = c
	s.gen++
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

// nextLeds reads until a LED message with want at index i arrives.
func nextLeds(t *testing.T, conn *websocket.Conn, i int, want [3]uint8) ledMessage {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		kind, b, err := conn.ReadMessage()
		require.NoError(t, err)
		if kind != websocket.TextMessage {
			continue
		}
		var m ledMessage
		require.NoError(t, json.Unmarshal(b, &m))
		require.Len(t, m.Leds, hal.LedCount)
		if m.Leds[i] == want {
			return m
		}
	}
}

func TestHubStreamsLedsAndPanel(t *testing.T) {
	src := &fakeSource{}
	h := New(src, Config{Hz: 200, PanelHz: 200})
	srv := httptest.NewServer(h.Handler())
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.Run(ctx)

	conn := dial(t, srv)
	src.set(3, color.RGBA{R: 1, G: 2, B: 3, A: 0xFF})
	m := nextLeds(t, conn, 3, [3]uint8{1, 2, 3})
	assert.NotZero(t, m.FrameID)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		kind, b, err := conn.ReadMessage()
		require.NoError(t, err)
		if kind != websocket.BinaryMessage {
			continue
		}
		img, err := png.Decode(bytes.NewReader(b))
		require.NoError(t, err)
		assert.Equal(t, image.Rect(0, 0, hal.DisplayWidth, hal.DisplayHeight), img.Bounds())
		break
	}

	resp, err := http.Get(srv.URL + "/panel.png")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
}

func TestPanelBeforeFirstSnapshot(t *testing.T) {
	h := New(&fakeSource{}, Config{})
	rec := httptest.NewRecorder()
	h.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/panel.png", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = httptest.NewRecorder()
	h.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"clients":0`)
}

func TestHubWithSimulatedBoard(t *testing.T) {
	_, sim := hal.NewSimBoard()
	h := New(sim, Config{Hz: 100})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, h.Run(ctx), context.DeadlineExceeded)

	h.mu.RLock()
	defer h.mu.RUnlock()
	assert.NotNil(t, h.png)
	assert.Equal(t, uint64(1), h.frameID)
}

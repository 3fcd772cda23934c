// Package mirror streams the badge's LEDs and panel to browsers over
// websockets.
package mirror

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/png"
	"net/http"
	"sync"
	"time"

	"badge/hal"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// Source is what the mirror watches. hal.Sim implements it.
type Source interface {
	Leds() hal.LedFrame
	Generation() uint64
	Snapshot(dst *image.RGBA)
}

type Config struct {
	// Hz is how often the source is polled. Defaults to 30.
	Hz int
	// PanelHz limits panel snapshots. Defaults to 5.
	PanelHz int

	Logger *zerolog.Logger
}

// Hub polls a Source and pushes changes to every connected client: LED
// frames as JSON text messages, panel snapshots as PNG binary messages.
type Hub struct {
	src Source
	cfg Config
	log zerolog.Logger

	mu      sync.RWMutex
	clients map[*websocket.Conn]bool
	frameID uint64
	leds    hal.LedFrame
	png     []byte
}

func New(src Source, cfg Config) *Hub {
	if cfg.Hz <= 0 {
		cfg.Hz = 30
	}
	if cfg.PanelHz <= 0 {
		cfg.PanelHz = 5
	}
	h := &Hub{
		src:     src,
		cfg:     cfg,
		log:     zerolog.Nop(),
		clients: map[*websocket.Conn]bool{},
	}
	if cfg.Logger != nil {
		h.log = cfg.Logger.With().Str("svc", "mirror").Logger()
	}
	return h
}

type ledMessage struct {
	T       int64      `json:"t"`
	FrameID uint64     `json:"frame_id"`
	Leds    [][3]uint8 `json:"leds"`
}

func encodeLeds(id uint64, f hal.LedFrame) []byte {
	m := ledMessage{T: time.Now().UnixNano(), FrameID: id, Leds: make([][3]uint8, len(f))}
	for i, c := range f {
		m.Leds[i] = [3]uint8{c.R, c.G, c.B}
	}
	b, _ := json.Marshal(m)
	return b
}

// Run polls the source until ctx ends.
func (h *Hub) Run(ctx context.Context) error {
	t := time.NewTicker(time.Second / time.Duration(h.cfg.Hz))
	defer t.Stop()

	img := image.NewRGBA(image.Rect(0, 0, hal.DisplayWidth, hal.DisplayHeight))
	panelEvery := time.Second / time.Duration(h.cfg.PanelHz)
	var (
		lastGen   uint64
		lastPanel time.Time
		first     = true
	)
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return ctx.Err()
		case <-t.C:
		}

		if f := h.src.Leds(); first || f != h.currentLeds() {
			h.mu.Lock()
			h.leds = f
			h.frameID++
			msg := encodeLeds(h.frameID, f)
			h.mu.Unlock()
			h.broadcast(websocket.TextMessage, msg)
		}

		if gen := h.src.Generation(); (first || gen != lastGen) && time.Since(lastPanel) >= panelEvery {
			lastGen, lastPanel = gen, time.Now()
			h.src.Snapshot(img)
			var buf bytes.Buffer
			if err := png.Encode(&buf, img); err != nil {
				h.log.Warn().Err(err).Msg("encode panel")
				continue
			}
			h.mu.Lock()
			h.png = buf.Bytes()
			h.mu.Unlock()
			h.broadcast(websocket.BinaryMessage, buf.Bytes())
		}
		first = false
	}
}

func (h *Hub) currentLeds() hal.LedFrame {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.leds
}

func (h *Hub) broadcast(kind int, msg []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		c.SetWriteDeadline(time.Now().Add(200 * time.Millisecond))
		if err := c.WriteMessage(kind, msg); err != nil {
			h.log.Debug().Err(err).Msg("write")
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		c.Close()
		delete(h.clients, c)
	}
}

// Handler serves /ws for the stream, /panel.png for the last snapshot and
// /health.
func (h *Hub) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", h.handleWS)
	mux.HandleFunc("/panel.png", h.handlePanel)
	mux.HandleFunc("/health", h.handleHealth)
	return mux
}

func (h *Hub) handleWS(w http.ResponseWriter, r *http.Request) {
	up := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	// New clients get the current state before joining the broadcast.
	h.mu.Lock()
	conn.SetWriteDeadline(time.Now().Add(time.Second))
	_ = conn.WriteMessage(websocket.TextMessage, encodeLeds(h.frameID, h.leds))
	if h.png != nil {
		_ = conn.WriteMessage(websocket.BinaryMessage, h.png)
	}
	h.clients[conn] = true
	h.mu.Unlock()
	h.log.Debug().Str("remote", r.RemoteAddr).Msg("client")

	go func() {
		defer func() {
			h.mu.Lock()
			delete(h.clients, conn)
			h.mu.Unlock()
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (h *Hub) handlePanel(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	b := h.png
	h.mu.RUnlock()
	if b == nil {
		http.Error(w, "no snapshot yet", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(b)
}

func (h *Hub) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_ = json.NewEncoder(w).Encode(map[string]any{
		"frame_id": h.frameID,
		"clients":  len(h.clients),
	})
}

// Serve runs the hub and an HTTP server on addr until ctx ends.
func (h *Hub) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      h.Handler(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		<-ctx.Done()
		_ = srv.Close()
	}()
	go func() { _ = h.Run(ctx) }()

	h.log.Info().Str("addr", addr).Msg("mirror listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return ctx.Err()
}

package main

import (
	"context"
	"encoding/binary"
	"fmt"
	"image/color"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pthm-cable/sandfall/brush"
	"github.com/pthm-cable/sandfall/config"
	"github.com/pthm-cable/sandfall/engine"
	"github.com/pthm-cable/sandfall/grid"
	"github.com/pthm-cable/sandfall/material"
)

// frameHeader is the size of the width/height prefix of a binary frame.
const frameHeader = 8

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for development
	},
}

// Hello is the first message a client receives.
type Hello struct {
	Type      string          `json:"type"`
	Width     int             `json:"width"`
	Height    int             `json:"height"`
	Materials []MaterialEntry `json:"materials"`
}

// MaterialEntry describes one paintable material.
type MaterialEntry struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// Command is a client request. Op is one of place, line, clear, resize.
type Command struct {
	Op       string `json:"op"`
	X        int    `json:"x"`
	Y        int    `json:"y"`
	X1       int    `json:"x1"`
	Y1       int    `json:"y1"`
	Radius   int    `json:"radius"`
	Material string `json:"material"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
}

// server streams surface frames to every connected client.
type server struct {
	eng       *engine.Engine
	cfg       *config.Config
	log       *slog.Logger
	maxRadius int

	clients      map[*websocket.Conn]*sync.Mutex
	clientsMutex sync.RWMutex

	pix   []color.RGBA // broadcast loop only
	frame []byte
}

func newServer(eng *engine.Engine, cfg *config.Config, logger *slog.Logger) *server {
	return &server{
		eng:       eng,
		cfg:       cfg,
		log:       logger,
		maxRadius: cfg.Brush.MaxRadius,
		clients:   make(map[*websocket.Conn]*sync.Mutex),
	}
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return mux
}

func (s *server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	connMutex := &sync.Mutex{}
	s.clientsMutex.Lock()
	s.clients[conn] = connMutex
	s.clientsMutex.Unlock()
	defer func() {
		s.clientsMutex.Lock()
		delete(s.clients, conn)
		s.clientsMutex.Unlock()
	}()

	connMutex.Lock()
	err = conn.WriteJSON(s.hello())
	connMutex.Unlock()
	if err != nil {
		return
	}
	s.log.Info("client connected", "remote", r.RemoteAddr)

	for {
		var cmd Command
		if err := conn.ReadJSON(&cmd); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Warn("websocket read failed", "error", err)
			}
			break
		}
		if err := s.apply(cmd); err != nil {
			s.log.Debug("command rejected", "op", cmd.Op, "error", err)
		}
	}
	s.log.Info("client disconnected", "remote", r.RemoteAddr)
}

func (s *server) hello() Hello {
	w, h := s.eng.Size()
	msg := Hello{Type: "hello", Width: w, Height: h}
	for _, m := range material.All() {
		if !m.Placeable() {
			continue
		}
		c := m.Color()
		msg.Materials = append(msg.Materials, MaterialEntry{
			Name:  m.String(),
			Color: fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B),
		})
	}
	return msg
}

// apply runs one client command against the engine.
func (s *server) apply(cmd Command) error {
	switch cmd.Op {
	case "place", "line":
		m, ok := material.Parse(cmd.Material)
		if !ok || !m.Placeable() {
			return fmt.Errorf("material %q is not placeable", cmd.Material)
		}
		tool := brush.Tool{Radius: min(max(cmd.Radius, 0), s.maxRadius), Material: m}
		from := grid.Point{X: cmd.X, Y: cmd.Y}
		to := from
		if cmd.Op == "line" {
			to = grid.Point{X: cmd.X1, Y: cmd.Y1}
		}
		_, err := tool.Paint(s.eng, brush.Stroke(from, to, tool.Radius))
		return err
	case "clear":
		s.eng.Clear()
		return nil
	case "resize":
		if cmd.Width <= 0 || cmd.Height <= 0 {
			return fmt.Errorf("invalid size %dx%d", cmd.Width, cmd.Height)
		}
		s.eng.Resize(cmd.Width, cmd.Height)
		return nil
	}
	return fmt.Errorf("unknown op %q", cmd.Op)
}

// broadcastLoop sends a frame to every client each frame interval.
func (s *server) broadcastLoop(ctx context.Context) {
	interval := s.cfg.Derived.FrameInterval
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.broadcast(s.encodeFrame())
		}
	}
}

// encodeFrame packs the surface as little-endian width and height followed
// by RGBA bytes, row-major.
func (s *server) encodeFrame() []byte {
	var w, h int
	s.pix, w, h = s.eng.Surface().Snapshot(s.pix)
	n := frameHeader + 4*len(s.pix)
	if cap(s.frame) < n {
		s.frame = make([]byte, n)
	}
	buf := s.frame[:n]
	binary.LittleEndian.PutUint32(buf[0:], uint32(w))
	binary.LittleEndian.PutUint32(buf[4:], uint32(h))
	for i, c := range s.pix {
		o := frameHeader + 4*i
		buf[o], buf[o+1], buf[o+2], buf[o+3] = c.R, c.G, c.B, c.A
	}
	return buf
}

func (s *server) broadcast(frame []byte) {
	s.clientsMutex.RLock()
	clientsToRemove := []*websocket.Conn{}
	for client, mutex := range s.clients {
		mutex.Lock()
		err := client.WriteMessage(websocket.BinaryMessage, frame)
		mutex.Unlock()
		if err != nil {
			s.log.Debug("websocket write failed", "error", err)
			client.Close()
			clientsToRemove = append(clientsToRemove, client)
		}
	}
	s.clientsMutex.RUnlock()

	// Remove failed clients
	if len(clientsToRemove) > 0 {
		s.clientsMutex.Lock()
		for _, client := range clientsToRemove {
			delete(s.clients, client)
		}
		s.clientsMutex.Unlock()
	}
}

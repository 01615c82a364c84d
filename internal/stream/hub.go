// Package stream serves a running engine to remote renderers over
// websocket.
package stream

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/san-kum/twobody/internal/dynamo"
	"github.com/san-kum/twobody/internal/logging"
	"github.com/san-kum/twobody/internal/sim"
	"go.uber.org/zap"
)

const (
	FrameFull    = "full"
	FrameSegment = "segment"
	FrameStatus  = "status"
	FrameError   = "error"

	writeWait = 5 * time.Second
)

// Frame is the JSON message sent to clients. A full frame carries both
// complete histories in Paths; a segment frame carries the samples recorded
// since the previous frame, starting with the last point already sent.
type Frame struct {
	Type      string             `json:"type"`
	Steps     int64              `json:"steps"`
	Time      float64            `json:"time"`
	Status    string             `json:"status"`
	Positions [2]dynamo.Vec2     `json:"positions"`
	Segments  [2][2]dynamo.Vec2  `json:"segments"`
	Paths     [2][]dynamo.Vec2   `json:"paths,omitempty"`
	Metrics   map[string]float64 `json:"metrics,omitempty"`
	Error     string             `json:"error,omitempty"`
}

// Command is a client request.
type Command struct {
	Cmd string `json:"cmd"`
}

type Hub struct {
	engine   *sim.Engine
	log      *zap.Logger
	upgrader websocket.Upgrader

	quit     chan struct{}
	quitOnce sync.Once
}

func NewHub(e *sim.Engine, log *zap.Logger) *Hub {
	return &Hub{
		engine: e,
		log:    logging.OrNop(log),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		quit: make(chan struct{}),
	}
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.quitOnce.Do(func() { close(h.quit) })
}

type client struct {
	hub     *Hub
	conn    *websocket.Conn
	log     *zap.Logger
	replies chan Frame

	sent       int
	generation uint64
	warned     bool
}

func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	c := &client{
		hub:     h,
		conn:    conn,
		log:     h.log.With(zap.String("remote", r.RemoteAddr)),
		replies: make(chan Frame, 8),
	}
	c.log.Info("client connected")

	notes, unsubscribe := h.engine.Subscribe()
	defer unsubscribe()

	readerDone := make(chan struct{})
	writerDone := make(chan struct{})
	go c.readLoop(readerDone, writerDone)

	c.writeLoop(notes, readerDone)
	close(writerDone)
	conn.Close()
	<-readerDone
	c.log.Info("client disconnected")
}

func (c *client) readLoop(done chan<- struct{}, writerDone <-chan struct{}) {
	defer close(done)
	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Warn("read failed", zap.Error(err))
			}
			return
		}

		select {
		case c.replies <- c.hub.handle(msg):
		case <-writerDone:
			return
		}
	}
}

// handle runs one client command and returns the reply frame.
func (h *Hub) handle(msg []byte) Frame {
	var cmd Command
	if err := json.Unmarshal(msg, &cmd); err != nil {
		return Frame{Type: FrameError, Error: fmt.Sprintf("malformed command: %v", err)}
	}

	switch cmd.Cmd {
	case "start":
		h.engine.Start()
	case "stop":
		h.engine.Stop()
	case "reset":
		h.engine.Reset()
	case "status":
	default:
		return Frame{Type: FrameError, Error: fmt.Sprintf("unknown command %q", cmd.Cmd)}
	}
	h.log.Debug("command", zap.String("cmd", cmd.Cmd))

	s := h.engine.Snapshot()
	return Frame{Type: FrameStatus, Steps: s.Steps, Time: s.Time, Status: s.Status}
}

func (c *client) writeLoop(notes <-chan struct{}, readerDone <-chan struct{}) {
	if !c.push() {
		return
	}
	for {
		select {
		case <-notes:
			if !c.push() {
				return
			}
		case f := <-c.replies:
			if !c.write(f) {
				return
			}
		case <-readerDone:
			return
		case <-c.hub.quit:
			c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
				time.Now().Add(writeWait))
			return
		}
	}
}

// push sends whatever the engine recorded since the last frame.
func (c *client) push() bool {
	f, ok := c.next()
	if !ok {
		return true
	}
	return c.write(f)
}

func (c *client) write(f Frame) bool {
	data, err := json.Marshal(f)
	if err != nil {
		c.log.Warn("frame not encodable, skipped", zap.String("type", f.Type), zap.Error(err))
		return true
	}
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		c.log.Warn("write failed", zap.Error(err))
		return false
	}
	return true
}

// next builds the frame for the current engine state. ok is false when
// there is nothing new or the state is not finite.
func (c *client) next() (f Frame, ok bool) {
	c.hub.engine.Read(func(v sim.View) {
		snap := v.Snapshot()
		if !snap.Valid {
			if !c.warned {
				c.log.Warn("simulation state is not finite, frames skipped", zap.Int64("steps", snap.Steps))
				c.warned = true
			}
			return
		}
		c.warned = false

		n := v.SampleCount()
		full := c.sent == 0 || v.Generation() != c.generation || n < c.sent
		if !full && n == c.sent {
			return
		}

		f = Frame{
			Type:    FrameSegment,
			Steps:   snap.Steps,
			Time:    snap.Time,
			Status:  snap.Status,
			Metrics: snap.Metrics,
		}
		for _, b := range dynamo.Bodies {
			f.Positions[b] = snap.Bodies[b].Position
			f.Segments[b] = snap.Bodies[b].Segment
			if full {
				f.Paths[b] = v.FullHistory(b)
			} else {
				f.Paths[b] = v.HistorySince(b, c.sent-1)
			}
		}
		if full {
			f.Type = FrameFull
		}
		c.sent = n
		c.generation = v.Generation()
		ok = true
	})
	return f, ok
}

// SnapshotHandler serves the current engine snapshot as JSON.
func SnapshotHandler(e *sim.Engine) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s := e.Snapshot()
		if !s.Valid {
			http.Error(w, fmt.Sprintf("%v at step %d", dynamo.ErrInvalidState, s.Steps), http.StatusConflict)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(s)
	})
}

package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/zeusync/gamestate/internal/core/events/bus"
	"github.com/zeusync/gamestate/internal/core/observability/log"
	"github.com/zeusync/gamestate/internal/core/state"
	"github.com/zeusync/gamestate/internal/core/validation"
)

const (
	historySize    = 64
	clientBuffer   = 32
	writeTimeout   = 5 * time.Second
	shutdownPeriod = 5 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Overlay is a developer endpoint streaming validation failures to websocket
// clients and exposing the current state as JSON.
type Overlay struct {
	machine *state.Machine
	logger  log.Log

	mu      sync.Mutex
	clients map[*client]struct{}
	history [][]byte
	server  *http.Server
	addr    net.Addr
}

func NewOverlay(machine *state.Machine, logger log.Log) *Overlay {
	if logger == nil {
		logger = log.Nop()
	}
	return &Overlay{
		machine: machine,
		logger:  logger.With(log.String("component", "overlay")),
		clients: make(map[*client]struct{}),
	}
}

// Attach forwards every event flushed on ch to connected clients.
func (o *Overlay) Attach(ch *bus.Channel[validation.ValidationErrorEvent]) bus.Subscription {
	return ch.Subscribe(o.Publish)
}

// Publish queues e for every client without blocking. Clients that fall
// behind lose the event.
func (o *Overlay) Publish(e validation.ValidationErrorEvent) error {
	b, err := json.Marshal(newEventMessage(e))
	if err != nil {
		return fmt.Errorf("encode validation event: %w", err)
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	o.history = append(o.history, b)
	if len(o.history) > historySize {
		o.history = o.history[len(o.history)-historySize:]
	}
	for c := range o.clients {
		select {
		case c.send <- b:
		default:
			o.logger.Debug("overlay client lagging, event dropped",
				log.String("remote", c.conn.RemoteAddr().String()))
		}
	}
	return nil
}

// Handler serves /ws and /state.
func (o *Overlay) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", o.handleWebSocket)
	mux.HandleFunc("/state", o.handleState)
	return mux
}

// Start listens on addr and serves Handler in the background.
func (o *Overlay) Start(addr string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.server != nil {
		return ErrOverlayRunning
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrListenerFailed, err)
	}
	srv := &http.Server{Handler: o.Handler(), ReadHeaderTimeout: writeTimeout}
	o.server, o.addr = srv, ln.Addr()

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			o.logger.Error("overlay stopped", log.Error(err))
		}
	}()
	o.logger.Info("overlay listening", log.String("address", ln.Addr().String()))
	return nil
}

// Addr returns the listening address, or nil when not running.
func (o *Overlay) Addr() net.Addr {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.addr
}

// Stop shuts the HTTP server down and disconnects every client.
func (o *Overlay) Stop(ctx context.Context) error {
	o.mu.Lock()
	srv := o.server
	o.server, o.addr = nil, nil
	clients := make([]*client, 0, len(o.clients))
	for c := range o.clients {
		clients = append(clients, c)
	}
	o.mu.Unlock()

	if srv == nil {
		return ErrOverlayNotRunning
	}

	ctx, cancel := context.WithTimeout(ctx, shutdownPeriod)
	defer cancel()
	err := srv.Shutdown(ctx)
	for _, c := range clients {
		_ = c.conn.Close()
	}
	return err
}

func (o *Overlay) handleState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(newStateMessage(o.machine)); err != nil {
		o.logger.Warn("write state", log.Error(err))
	}
}

func (o *Overlay) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		o.logger.Warn("websocket upgrade failed", log.Error(err))
		return
	}

	c := &client{conn: conn, send: make(chan []byte, clientBuffer+historySize)}
	o.mu.Lock()
	for _, b := range o.history {
		c.send <- b
	}
	o.clients[c] = struct{}{}
	o.mu.Unlock()

	go o.writeLoop(c)
	o.readLoop(c)
}

// readLoop discards client input and detects disconnects.
func (o *Overlay) readLoop(c *client) {
	defer o.drop(c)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (o *Overlay) writeLoop(c *client) {
	defer c.conn.Close()
	for b := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.conn.WriteMessage(websocket.TextMessage, b); err != nil {
			o.logger.Debug("overlay write failed", log.Error(err))
			return
		}
	}
}

func (o *Overlay) drop(c *client) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, ok := o.clients[c]; ok {
		delete(o.clients, c)
		close(c.send)
	}
}

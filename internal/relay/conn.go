package relay

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"
)

// IdentityFunc resolves the authenticated user of an upgrade request.
type IdentityFunc func(r *http.Request) (userID string, err error)

// ServerOptions tunes the WebSocket transport.
type ServerOptions struct {
	// OriginPatterns lists allowed cross-origin hosts as path.Match patterns.
	// "*" accepts any origin.
	OriginPatterns []string
	// MaxMessageBytes caps an inbound frame; larger frames close the connection.
	MaxMessageBytes int64
	// SendBuffer is the per-connection outbound queue length.
	SendBuffer int
	// WriteTimeout bounds a single outbound write.
	WriteTimeout time.Duration
	// JoinTimeout closes connections that have not joined a group in time.
	// Zero disables it.
	JoinTimeout time.Duration
}

func (o ServerOptions) withDefaults() ServerOptions {
	if o.MaxMessageBytes <= 0 {
		o.MaxMessageBytes = 64 << 10
	}
	if o.SendBuffer <= 0 {
		o.SendBuffer = 32
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = 10 * time.Second
	}
	return o
}

// Server upgrades HTTP requests to relay connections.
type Server struct {
	relay    *Relay
	hub      *Hub
	identify IdentityFunc
	opts     ServerOptions
	logger   *slog.Logger
}

// NewServer creates the relay's HTTP handler.
func NewServer(relay *Relay, hub *Hub, identify IdentityFunc, opts ServerOptions, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		relay:    relay,
		hub:      hub,
		identify: identify,
		opts:     opts.withDefaults(),
		logger:   logger,
	}
}

// conn is one WebSocket client.
type conn struct {
	ws     *websocket.Conn
	userID string
	send   chan []byte
	closed atomic.Bool
	joined atomic.Bool
}

func (c *conn) UserID() string { return c.userID }

// Deliver queues payload without blocking. A closed or backed-up
// connection refuses the frame.
func (c *conn) Deliver(payload []byte) bool {
	if c.closed.Load() {
		return false
	}
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID, err := s.identify(r)
	if err != nil || userID == "" {
		s.logger.Warn("Rejecting relay connection", "remote_addr", r.RemoteAddr, "error", err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"Unauthorized"}`))
		return
	}

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: s.opts.OriginPatterns,
	})
	if err != nil {
		s.logger.Warn("WebSocket upgrade failed", "user_id", userID, "error", err)
		return
	}
	ws.SetReadLimit(s.opts.MaxMessageBytes)

	c := &conn{
		ws:     ws,
		userID: userID,
		send:   make(chan []byte, s.opts.SendBuffer),
	}
	s.serve(r.Context(), c)
}

func (s *Server) serve(parent context.Context, c *conn) {
	ctx, cancel := context.WithCancel(parent)
	metrics := s.hub.Metrics()

	metrics.Connections.Inc()
	s.logger.Info("Relay connection opened", "user_id", c.userID)

	defer func() {
		c.closed.Store(true)
		cancel()
		// Leave must still reach the hub after the request context ends.
		if err := s.hub.Leave(context.Background(), c); err != nil && !errors.Is(err, ErrHubStopped) {
			s.logger.Warn("Failed to unregister connection", "user_id", c.userID, "error", err)
		}
		c.ws.Close(websocket.StatusNormalClosure, "")
		metrics.Connections.Dec()
		s.logger.Info("Relay connection closed", "user_id", c.userID)
	}()

	go s.writeLoop(ctx, c)

	if s.opts.JoinTimeout > 0 {
		timer := time.AfterFunc(s.opts.JoinTimeout, func() {
			if !c.joined.Load() {
				s.logger.Info("Closing connection that never joined", "user_id", c.userID)
				c.ws.Close(websocket.StatusPolicyViolation, "join timeout")
			}
		})
		defer timer.Stop()
	}

	for {
		_, data, err := c.ws.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
				return
			}
			if ctx.Err() == nil {
				s.logger.Debug("Relay read ended", "user_id", c.userID, "status", status, "error", err)
			}
			return
		}

		kind, err := s.relay.HandleMessage(ctx, c, data)
		if kind == KindJoin && err == nil {
			c.joined.Store(true)
		}
	}
}

func (s *Server) writeLoop(ctx context.Context, c *conn) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-c.send:
			wctx, cancel := context.WithTimeout(ctx, s.opts.WriteTimeout)
			err := c.ws.Write(wctx, websocket.MessageText, msg)
			cancel()
			if err != nil {
				c.closed.Store(true)
				s.logger.Debug("Relay write failed", "user_id", c.userID, "error", err)
				c.ws.CloseNow()
				return
			}
		}
	}
}

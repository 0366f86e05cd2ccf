package ws

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/evetabi/prediction/internal/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
)

// ──────────────────────────────────────────────────────────────────────────────
// Tunables
// ──────────────────────────────────────────────────────────────────────────────

const (
	writeDeadline  = 10 * time.Second
	pingInterval   = 30 * time.Second
	pongWait       = 35 * time.Second // must be > pingInterval
	maxMessageSize = 512              // bytes; clients only send pongs
	sendBufferSize = 256              // messages in each client send channel
)

// ──────────────────────────────────────────────────────────────────────────────
// Client
// ──────────────────────────────────────────────────────────────────────────────

// Client represents one connected WebSocket endpoint. user is an optional
// display hint — taken from a signed ?token= subscription token when the hub
// has a jwtSecret configured, else from the unauthenticated ?user= query
// param. It is never used for authorization (broadcasts are identical for
// every client; this is a push-only protocol with no per-user targeting).
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
	user domain.PubKey
}

// ──────────────────────────────────────────────────────────────────────────────
// Hub
// ──────────────────────────────────────────────────────────────────────────────

// Hub maintains the set of active clients and routes broadcast messages.
// Run() must be called in a dedicated goroutine before ServeWs is used.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]bool

	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client

	// jwtSecret signs/verifies WS-subscription tokens (?token=). Optional —
	// if empty, every connection falls back to the unauthenticated ?user=
	// query param.
	jwtSecret []byte

	upgrader websocket.Upgrader
}

// NewHub creates a Hub ready to be started with Run(). allowedOrigins may be
// empty, in which case every origin is accepted (suitable for development).
// jwtSecret may be nil; WS connections are then identified solely by the
// unauthenticated ?user= query param.
func NewHub(allowedOrigins []string, jwtSecret []byte) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 512),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		jwtSecret:  jwtSecret,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				if len(allowedOrigins) == 0 {
					return true // dev mode: allow all
				}
				origin := r.Header.Get("Origin")
				for _, o := range allowedOrigins {
					if o == "*" || o == origin {
						return true
					}
				}
				return false
			},
		},
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Run — hub event loop
// ──────────────────────────────────────────────────────────────────────────────

// Run processes registration, unregistration, and broadcast events
// sequentially. Call it once as a goroutine.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			h.mu.RLock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Client's buffer full — drop the message for this client.
				}
			}
			h.mu.RUnlock()
		}
	}
}

// ConnectedCount returns the current number of connected clients.
func (h *Hub) ConnectedCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ──────────────────────────────────────────────────────────────────────────────
// ServeWs — HTTP → WebSocket upgrade
// ──────────────────────────────────────────────────────────────────────────────

// ServeWs upgrades an HTTP request to a WebSocket connection, optionally
// authenticates the caller via a JWT in the ?token= query parameter, and
// starts the read/write pumps.
func (h *Hub) ServeWs(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws.ServeWs: upgrade failed: %v", err)
		return
	}

	user := domain.PubKey(r.URL.Query().Get("user"))
	if token := r.URL.Query().Get("token"); token != "" && len(h.jwtSecret) > 0 {
		if sub, ok := h.parseJWT(token); ok {
			user = sub
		}
	}

	client := &Client{
		hub:  h,
		conn: conn,
		send: make(chan []byte, sendBufferSize),
		user: user,
	}
	h.register <- client

	go client.writePump()
	go client.readPump()
}

// parseJWT extracts the subscribing user's pubkey from a signed
// WS-subscription token. Returns ok == false on any failure (treated as
// anonymous, falling back to ?user=).
func (h *Hub) parseJWT(tokenString string) (domain.PubKey, bool) {
	tok, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return h.jwtSecret, nil
	})
	if err != nil || !tok.Valid {
		return "", false
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return "", false
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return "", false
	}
	return domain.PubKey(sub), true
}

// ──────────────────────────────────────────────────────────────────────────────
// Client pumps
// ──────────────────────────────────────────────────────────────────────────────

// writePump drains the client's send channel and writes messages to the
// WebSocket connection. It also sends ping frames every pingInterval.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump reads frames from the WebSocket connection. Only pong messages
// are handled (they reset the read deadline). All other inbound messages are
// discarded — this is a server-push-only protocol. When the connection drops
// the client is unregistered.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, _, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("ws.readPump: unexpected close for user %s: %v", c.user, err)
			}
			return
		}
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Broadcast helpers — called by EngineBroadcaster
// ──────────────────────────────────────────────────────────────────────────────

// BroadcastRatioUpdate serialises and broadcasts a RatioUpdateMessage.
func (h *Hub) BroadcastRatioUpdate(msg RatioUpdateMessage) { h.broadcastJSON(msg) }

// BroadcastBetPlaced serialises and broadcasts a BetPlacedMessage.
func (h *Hub) BroadcastBetPlaced(msg BetPlacedMessage) { h.broadcastJSON(msg) }

// BroadcastTradingActivated serialises and broadcasts a TradingActivatedMessage.
func (h *Hub) BroadcastTradingActivated(msg TradingActivatedMessage) { h.broadcastJSON(msg) }

// BroadcastWaitingDecision serialises and broadcasts a WaitingDecisionMessage.
func (h *Hub) BroadcastWaitingDecision(msg WaitingDecisionMessage) { h.broadcastJSON(msg) }

// BroadcastPredictionCreated serialises and broadcasts a PredictionCreatedMessage.
func (h *Hub) BroadcastPredictionCreated(msg PredictionCreatedMessage) { h.broadcastJSON(msg) }

// BroadcastPredictionResolved serialises and broadcasts a PredictionResolvedMessage.
func (h *Hub) BroadcastPredictionResolved(msg PredictionResolvedMessage) { h.broadcastJSON(msg) }

// BroadcastPredictionRefunded serialises and broadcasts a PredictionRefundedMessage.
func (h *Hub) BroadcastPredictionRefunded(msg PredictionRefundedMessage) { h.broadcastJSON(msg) }

// broadcastJSON is the common marshalling path.
func (h *Hub) broadcastJSON(v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Printf("ws.Hub: marshal error: %v", err)
		return
	}
	select {
	case h.broadcast <- data:
	default:
		log.Printf("ws.Hub: broadcast channel full, message dropped")
	}
}

// SendError writes an error message directly to one client's send channel.
func (h *Hub) SendError(client *Client, code, message string) {
	data, err := json.Marshal(ErrorMessage{
		Type:    MsgTypeError,
		Code:    code,
		Message: message,
	})
	if err != nil {
		return
	}
	select {
	case client.send <- data:
	default:
	}
}

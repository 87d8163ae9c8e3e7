package handlers

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/valentine-apple/vouchers-api/api"
	"github.com/valentine-apple/vouchers-api/models"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// ClaimFeed broadcasts committed claims to connected admin dashboards
type ClaimFeed struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]bool
}

// NewClaimFeed creates an empty claim feed hub
func NewClaimFeed() *ClaimFeed {
	return &ClaimFeed{
		clients: make(map[*websocket.Conn]bool),
	}
}

// HandleClaimFeed upgrades the connection and registers it for claim events.
// The route sits behind the admin middleware so only admins ever get here.
func (f *ClaimFeed) HandleClaimFeed(w http.ResponseWriter, r *http.Request) {
	ident, ok := api.IdentityFromContext(r.Context())
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		zap.S().Errorw("websocket upgrade error", "error", err)
		return
	}

	f.mu.Lock()
	f.clients[conn] = true
	f.mu.Unlock()
	zap.S().Debugf("admin %s connected to claim feed", ident.UserID)

	conn.SetCloseHandler(func(code int, text string) error {
		f.remove(conn)
		return nil
	})

	// drain reads to notice the peer going away
	for {
		if _, _, err := conn.NextReader(); err != nil {
			f.remove(conn)
			conn.Close()
			break
		}
	}
}

// Broadcast pushes a committed claim to every connected client
func (f *ClaimFeed) Broadcast(claim models.Claim) {
	f.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(f.clients))
	for conn := range f.clients {
		conns = append(conns, conn)
	}
	f.mu.Unlock()

	for _, conn := range conns {
		err := conn.WriteJSON(map[string]interface{}{
			"event": "claim_submitted",
			"data":  claim,
		})
		if err != nil {
			zap.S().Warnw("failed to push claim event, dropping client", "error", err)
			f.remove(conn)
			conn.Close()
		}
	}
}

func (f *ClaimFeed) remove(conn *websocket.Conn) {
	f.mu.Lock()
	delete(f.clients, conn)
	f.mu.Unlock()
}

package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/valentine-apple/vouchers-api/api/handlers"
	"github.com/valentine-apple/vouchers-api/models"
)

func TestClaimFeed_BroadcastReachesConnectedClient(t *testing.T) {
	feed := handlers.NewClaimFeed()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r = requestWithIdentity(r, models.Identity{UserID: "admin-1", IsAdmin: true})
		feed.HandleClaimFeed(w, r)
	}))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	claim := models.Claim{
		ID:        primitive.NewObjectID(),
		VoucherID: primitive.NewObjectID(),
		UserID:    primitive.NewObjectID(),
		Status:    models.ClaimStatusPending,
	}

	// the hub registers the connection inside the handler goroutine
	require.Eventually(t, func() bool {
		feed.Broadcast(claim)
		conn.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
		var event struct {
			Event string       `json:"event"`
			Data  models.Claim `json:"data"`
		}
		if err := conn.ReadJSON(&event); err != nil {
			return false
		}
		assert.Equal(t, "claim_submitted", event.Event)
		assert.Equal(t, claim.ID, event.Data.ID)
		assert.Equal(t, models.ClaimStatusPending, event.Data.Status)
		return true
	}, 2*time.Second, 50*time.Millisecond)
}

func TestClaimFeed_HandleClaimFeedRequiresIdentity(t *testing.T) {
	feed := handlers.NewClaimFeed()

	req, err := http.NewRequest(http.MethodGet, "/api/v1/ws/claims", nil)
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	feed.HandleClaimFeed(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

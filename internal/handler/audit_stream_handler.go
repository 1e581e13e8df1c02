package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/daily-ledger/internal/events"
	"github.com/daily-ledger/internal/middleware"
	"github.com/daily-ledger/internal/policy"
	"github.com/daily-ledger/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	streamWriteWait  = 10 * time.Second
	streamPongWait   = 60 * time.Second
	streamPingPeriod = (streamPongWait * 9) / 10
)

// AuditStreamHandler pushes audit entries to admins over a websocket as
// they are committed
type AuditStreamHandler struct {
	bus      events.AuditBus
	upgrader websocket.Upgrader
}

// NewAuditStreamHandler creates a new AuditStreamHandler
func NewAuditStreamHandler(bus events.AuditBus) *AuditStreamHandler {
	return &AuditStreamHandler{
		bus: bus,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Stream upgrades the request and forwards entries until either side goes away
// GET /api/v1/admin/logs/stream
func (h *AuditStreamHandler) Stream(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// the upgrader has already written an HTTP error
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	entries, stop, err := h.bus.Subscribe(ctx)
	if err != nil {
		logger.Errorf("[AuditStream] subscribe failed: %v", err)
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "subscribe failed"),
			time.Now().Add(streamWriteWait))
		return
	}
	defer stop()

	identity := middleware.GetIdentity(c)
	logger.Infof("[AuditStream] %s connected", identity.UserID)
	defer logger.Infof("[AuditStream] %s disconnected", identity.UserID)

	go h.readLoop(conn, cancel)

	ticker := time.NewTicker(streamPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case entry, ok := <-entries:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if err := conn.WriteJSON(entry); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readLoop discards client frames and cancels the stream once the peer closes
func (h *AuditStreamHandler) readLoop(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()

	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(streamPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(streamPongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warnf("[AuditStream] read error: %v", err)
			}
			return
		}
	}
}

// RegisterRoutes registers the stream route
func (h *AuditStreamHandler) RegisterRoutes(rg *gin.RouterGroup, authMiddleware gin.HandlerFunc) {
	rg.GET("/admin/logs/stream", authMiddleware, middleware.Require(policy.OpListAuditLog), h.Stream)
}

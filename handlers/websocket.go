package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"machine-telemetry/entities"
	"machine-telemetry/lifecycle"
	"machine-telemetry/ws"
)

// StreamHandler upgrades clients to a websocket and feeds them each
// persisted signal, optionally filtered to one stream.
type StreamHandler struct {
	mgr    *ws.Manager
	life   *lifecycle.Coordinator
	logger *zap.Logger
}

func NewStreamHandler(mgr *ws.Manager, life *lifecycle.Coordinator, logger *zap.Logger) *StreamHandler {
	return &StreamHandler{mgr: mgr, life: life, logger: logger}
}

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

// HandleSignalWS serves GET /ws?signal_type=<type>. No filter means
// every stream.
func (h *StreamHandler) HandleSignalWS(c *gin.Context) {
	if !h.life.Accepting() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "service is not accepting subscribers"})
		return
	}

	var filter entities.SignalType
	if raw := c.Query("signal_type"); raw != "" {
		parsed, err := entities.ParseSignalType(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "signal_type must be one of: state_change, error, power",
			})
			return
		}
		filter = parsed
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	id := uuid.New().String()
	h.mgr.Subscribe(id, filter, conn)
	h.logger.Info("stream subscriber connected",
		zap.String("subscriber", id),
		zap.String("filter", filter.String()))

	// Block until the client goes away; the manager's write loop does the
	// sending.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.mgr.Unsubscribe(id)
	h.logger.Info("stream subscriber disconnected", zap.String("subscriber", id))
}

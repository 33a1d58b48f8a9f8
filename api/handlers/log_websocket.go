package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/yourusername/mediaget-go/pkg/logger"
)

const defaultStreamBacklog = 50

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // the API has no browser session to protect
	},
}

// LogWebSocketHandler streams category log entries as they are written
type LogWebSocketHandler struct {
	logReader    *logger.LogReader
	logger       *zap.Logger
	pingInterval time.Duration
}

// NewLogWebSocketHandler creates a new WebSocket handler
func NewLogWebSocketHandler(logsDir string, log *zap.Logger) *LogWebSocketHandler {
	return &LogWebSocketHandler{
		logReader:    logger.NewLogReader(logsDir),
		logger:       log,
		pingInterval: 30 * time.Second,
	}
}

// HandleWebSocket handles GET /api/v1/logs/:category/stream. Each entry is
// sent as one JSON text message, starting with the last "backlog" entries of
// the day.
func (h *LogWebSocketHandler) HandleWebSocket(c *gin.Context) {
	category, date, ok := parseLogQuery(c)
	if !ok {
		return
	}

	backlog, err := strconv.Atoi(c.DefaultQuery("backlog", strconv.Itoa(defaultStreamBacklog)))
	if err != nil || backlog < 0 || backlog > maxLogLimit {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid backlog"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade WebSocket", zap.Error(err))
		return
	}
	defer conn.Close()

	h.logger.Debug("WebSocket client connected",
		zap.String("category", string(category)),
		zap.String("remote_addr", c.Request.RemoteAddr))

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	entries := make(chan logger.LogEntry, 100)
	tailErr := make(chan error, 1)
	go func() {
		tailErr <- h.logReader.TailLogs(ctx, category, date, backlog, entries)
	}()

	// Reading is required to notice a closed connection
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(h.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case entry := <-entries:
			if err := conn.WriteJSON(entry); err != nil {
				return
			}

		case <-ticker.C:
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case err := <-tailErr:
			if err != nil {
				h.logger.Error("Failed to tail logs",
					zap.String("category", string(category)), zap.Error(err))
				conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "failed to read logs"))
			}
			return

		case <-ctx.Done():
			h.logger.Debug("WebSocket client disconnected",
				zap.String("remote_addr", c.Request.RemoteAddr))
			return
		}
	}
}

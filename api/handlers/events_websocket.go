package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/yourusername/mediafetch/internal/app"
	"github.com/yourusername/mediafetch/internal/domain"
	"github.com/yourusername/mediafetch/internal/events"
)

const (
	// ActionDownload is the only command accepted over the event channel
	ActionDownload = "download"

	defaultPingInterval = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Command is a client request sent over the event channel
type Command struct {
	Action     string   `json:"action"`
	References []string `json:"references"`
}

// Reply answers a command in JSON mode
type Reply struct {
	Type       string `json:"type"` // ack or error
	JobID      string `json:"job_id,omitempty"`
	References int    `json:"references,omitempty"`
	Message    string `json:"message"`
}

// EventsHandler streams download events to websocket subscribers and accepts
// download commands from them
type EventsHandler struct {
	broadcaster  *events.Broadcaster
	jobs         *app.JobManager
	logger       *zap.Logger
	pingInterval time.Duration
}

// NewEventsHandler creates a new websocket event handler
func NewEventsHandler(broadcaster *events.Broadcaster, jobs *app.JobManager, log *zap.Logger) *EventsHandler {
	return &EventsHandler{
		broadcaster:  broadcaster,
		jobs:         jobs,
		logger:       log,
		pingInterval: defaultPingInterval,
	}
}

// HandleWebSocket handles GET /ws. Events are sent as text lines, or as JSON
// objects with ?format=json.
func (h *EventsHandler) HandleWebSocket(c *gin.Context) {
	jsonMode := c.Query("format") == "json"

	sub, err := h.broadcaster.Subscribe()
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: err.Error(), Code: "unavailable"})
		return
	}
	defer sub.Close()

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade WebSocket", zap.Error(err))
		return
	}
	defer conn.Close()

	remote := c.Request.RemoteAddr
	h.logger.Info("Event subscriber connected",
		zap.String("remote_addr", remote),
		zap.Bool("json", jsonMode),
		zap.Int("subscribers", h.broadcaster.Count()))
	defer h.logger.Info("Event subscriber disconnected", zap.String("remote_addr", remote))

	replies := make(chan Reply, 8)
	done := make(chan struct{})
	stop := make(chan struct{})
	defer close(stop)

	// The reader owns conn reads; this goroutine owns writes
	go func() {
		defer close(done)
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			select {
			case replies <- h.handleCommand(data):
			case <-stop:
				return
			}
		}
	}()

	ticker := time.NewTicker(h.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-sub.Events():
			if !ok {
				// Evicted for falling behind, or the server is shutting down
				h.logger.Warn("Event subscriber dropped", zap.String("remote_addr", remote))
				conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "subscriber dropped"),
					time.Now().Add(time.Second))
				return
			}
			if err := h.writeEvent(conn, event, jsonMode); err != nil {
				h.logger.Debug("Failed to send event", zap.Error(err))
				return
			}

		case reply := <-replies:
			if err := writeReply(conn, reply, jsonMode); err != nil {
				return
			}

		case <-ticker.C:
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-done:
			return
		}
	}
}

// handleCommand starts a detached job for a valid download command
func (h *EventsHandler) handleCommand(data []byte) Reply {
	var cmd Command
	if err := json.Unmarshal(data, &cmd); err != nil || cmd.Action != ActionDownload {
		return Reply{
			Type:    "error",
			Message: `unsupported command, expected {"action":"download","references":[...]}`,
		}
	}

	job, err := h.jobs.Submit(context.Background(), cmd.References, domain.ModeDetach)
	if err != nil {
		_, code := errorStatus(err)
		h.logger.Info("Rejected websocket command", zap.String("code", code), zap.Error(err))
		return Reply{Type: "error", Message: err.Error()}
	}

	return Reply{
		Type:       "ack",
		JobID:      job.ID,
		References: len(job.References),
		Message:    fmt.Sprintf("job %s started (%d references)", job.ID, len(job.References)),
	}
}

func (h *EventsHandler) writeEvent(conn *websocket.Conn, event domain.DownloadEvent, jsonMode bool) error {
	if jsonMode {
		return conn.WriteJSON(event)
	}
	return conn.WriteMessage(websocket.TextMessage, []byte(event.Line()))
}

func writeReply(conn *websocket.Conn, reply Reply, jsonMode bool) error {
	if jsonMode {
		return conn.WriteJSON(reply)
	}
	line := reply.Message
	if reply.Type == "error" {
		line = "error: " + reply.Message
	}
	return conn.WriteMessage(websocket.TextMessage, []byte(line))
}

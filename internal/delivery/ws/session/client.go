package ws_session

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	http_common "github.com/coplay/gamenight/core/internal/delivery/http/common"
)

type Client struct {
	hub       *Hub
	conn      *websocket.Conn
	send      chan Event
	sessionID string
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			break
		}
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()

	for event := range c.send {
		if err := c.conn.WriteJSON(event); err != nil {
			break
		}
	}
}

// SessionChecker guards the upgrade: no subscription to a session that
// does not exist.
type SessionChecker interface {
	Exists(sessionID string) bool
}

type Controller struct {
	hub      *Hub
	checker  SessionChecker
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

func NewController(hub *Hub, checker SessionChecker, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		hub:     hub,
		checker: checker,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		logger: logger,
	}
}

func (c *Controller) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/ws/sessions/:session_id", c.subscribe)
}

func (c *Controller) subscribe(ctx *gin.Context) {
	sessionID := ctx.Param("session_id")
	if !c.checker.Exists(sessionID) {
		ctx.JSON(http.StatusNotFound, http_common.ErrorResponse{
			Message: "not found",
		})
		return
	}

	conn, err := c.upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		c.logger.Error("ws upgrade failed",
			"session_id", sessionID, "error", err)
		return
	}

	client := &Client{
		hub:       c.hub,
		conn:      conn,
		send:      make(chan Event, 8),
		sessionID: sessionID,
	}

	c.hub.register <- client

	go client.writePump()
	go client.readPump()
}

package ws

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"

	"github.com/mugishapc/bvoice/internal/repositories"
)

// TokenValidator verifies a bearer token and yields the caller's user id.
type TokenValidator interface {
	Validate(token string) (int, error)
}

// Handler upgrades authenticated clients onto the hub.
type Handler struct {
	hub       *Hub
	router    *Router
	userRepo  repositories.UserRepository
	validator TokenValidator
	queueSize int
}

// NewHandler constructs the websocket endpoint handler.
func NewHandler(hub *Hub, router *Router, userRepo repositories.UserRepository, validator TokenValidator, queueSize int) *Handler {
	return &Handler{
		hub:       hub,
		router:    router,
		userRepo:  userRepo,
		validator: validator,
		queueSize: queueSize,
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handle upgrades the connection, joins the caller's mailbox room and starts
// the read/write pumps.
func (h *Handler) Handle(c *gin.Context) {
	ctx, span := otel.Tracer("bvoice/ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	token := c.GetHeader("Authorization")
	if token == "" {
		token = c.Query("token")
		if token != "" {
			token = "Bearer " + token
		}
	}

	userID, err := h.validateToken(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	user, err := h.userRepo.GetUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unknown user"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	client := NewClient(conn, user.ID, user.Username, h.queueSize)
	h.hub.Register(client)

	go client.writePump()
	go client.readPump(h.hub, h.router)
}

func (h *Handler) validateToken(header string) (int, error) {
	parts := strings.Split(header, " ")
	if len(parts) == 2 {
		return h.validator.Validate(parts[1])
	}
	return 0, fmt.Errorf("invalid token")
}

package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"slices"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"rideshare/internal/chat"
	"rideshare/internal/domain"
	"rideshare/internal/middleware"
	"rideshare/internal/service"
)

// ChatHandler serves chat history and the realtime chat channel.
type ChatHandler struct {
	chatService  *service.ChatService
	hub          *chat.Hub
	users        middleware.UserResolver
	upgrader     websocket.Upgrader
	requireAuth  bool
	sendBuffer   int
	eventTimeout time.Duration
	logger       logrus.FieldLogger
}

// ChatHandlerConfig tunes the realtime channel.
type ChatHandlerConfig struct {
	RequireAuth    bool
	SendBuffer     int
	EventTimeout   time.Duration
	AllowedOrigins []string
}

// NewChatHandler creates a new ChatHandler.
func NewChatHandler(
	chatService *service.ChatService,
	hub *chat.Hub,
	users middleware.UserResolver,
	cfg ChatHandlerConfig,
	logger logrus.FieldLogger,
) *ChatHandler {
	if cfg.EventTimeout <= 0 {
		cfg.EventTimeout = 5 * time.Second
	}
	return &ChatHandler{
		chatService: chatService,
		hub:         hub,
		users:       users,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(cfg.AllowedOrigins),
		},
		requireAuth:  cfg.RequireAuth,
		sendBuffer:   cfg.SendBuffer,
		eventTimeout: cfg.EventTimeout,
		logger:       logger.WithField("component", "chat_ws"),
	}
}

// originChecker allows non-browser clients (no Origin header) and the
// configured browser origins. "*" allows every origin.
func originChecker(allowed []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || slices.Contains(allowed, "*") || slices.Contains(allowed, origin)
	}
}

// History handles GET /api/chat/:ride_id/messages
func (h *ChatHandler) History(c *gin.Context) {
	messages, err := h.chatService.History(c.Request.Context(), c.Param("ride_id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, messages)
}

// Connect handles GET /api/chat/ws and upgrades to a websocket. The token
// comes from the Authorization header or, for browsers, the token query
// parameter.
func (h *ChatHandler) Connect(c *gin.Context) {
	token := middleware.BearerToken(c.Request)
	if token == "" {
		token = c.Query("token")
	}

	var user *domain.User
	if token != "" {
		u, err := h.users.Resolve(c.Request.Context(), token)
		if err != nil {
			respondError(c, err)
			return
		}
		user = u
	}
	if user == nil && h.requireAuth {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "missing bearer token"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// The upgrader has already written the HTTP error.
		h.logger.WithError(err).Debug("websocket upgrade failed")
		return
	}

	var userID, userName string
	if user != nil {
		userID, userName = user.ID, user.Name
	}
	client := chat.NewClient(h.hub, conn, userID, userName, h.sendBuffer)
	log := h.logger.WithFields(logrus.Fields{"client_id": client.ID, "user_id": userID})
	log.Info("chat client connected")

	go client.WritePump()
	client.ReadPump(h.handleEvent)

	log.Info("chat client disconnected")
}

func (h *ChatHandler) handleEvent(client *chat.Client, env chat.Envelope) {
	switch env.Event {
	case chat.EventJoin:
		var p chat.RoomPayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			client.EmitError(chat.CodeInvalidPayload, "data must be {\"ride_id\": ...}")
			return
		}
		if err := h.chatService.Subscribe(p.RideID, client); err != nil {
			client.EmitError(chat.CodeInvalidInput, err.Error())
		}

	case chat.EventLeave:
		var p chat.RoomPayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			client.EmitError(chat.CodeInvalidPayload, "data must be {\"ride_id\": ...}")
			return
		}
		h.chatService.Leave(p.RideID, client)

	case chat.EventSend:
		var p chat.SendPayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			client.EmitError(chat.CodeInvalidPayload, "data must be a message object")
			return
		}
		h.send(client, p)

	default:
		client.EmitError(chat.CodeUnknownEvent, "unknown event "+env.Event)
	}
}

func (h *ChatHandler) send(client *chat.Client, p chat.SendPayload) {
	req := service.PostMessageRequest{
		RideID:     p.RideID,
		SenderID:   p.SenderID,
		SenderName: p.SenderName,
		Text:       p.Message,
	}
	// An authenticated connection cannot speak for someone else.
	if client.Authenticated() {
		req.SenderID = client.UserID
		req.SenderName = client.UserName
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.eventTimeout)
	defer cancel()

	if _, err := h.chatService.Post(ctx, req); err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			client.EmitError(chat.CodeInvalidInput, err.Error())
			return
		}
		h.logger.WithError(err).WithField("ride_id", p.RideID).Error("failed to post chat message")
		client.EmitError(chat.CodeInternal, "message could not be sent")
	}
}

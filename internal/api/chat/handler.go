package chat

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/elevateai/elevate/internal/api/middleware"
	"github.com/elevateai/elevate/internal/domain"
	"github.com/elevateai/elevate/internal/service"
)

// Handler exposes the chat API: session list, chat switching, prompt
// sending and the SSE event stream that carries view snapshots and
// notices to the presentation layer.
type Handler struct {
	registry *service.Registry
	logger   *zap.Logger
}

// NewHandler creates a chat handler
func NewHandler(registry *service.Registry, logger *zap.Logger) *Handler {
	return &Handler{registry: registry, logger: logger}
}

// RegisterRoutes registers chat routes
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/sessions", h.Sessions)
	r.POST("/select", h.Select)
	r.POST("/send", h.Send)
	r.POST("/new", h.New)
	r.GET("/events", h.Events)
}

func (h *Handler) controller(c *gin.Context) (*service.Controller, bool) {
	ctrl, err := h.registry.Controller(middleware.UserID(c))
	if err != nil {
		h.logger.Error("failed to get controller", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return nil, false
	}
	return ctrl, true
}

// Sessions returns the user's chat history, newest first
func (h *Handler) Sessions(c *gin.Context) {
	ctrl, ok := h.controller(c)
	if !ok {
		return
	}

	view := ctrl.View()
	c.JSON(http.StatusOK, gin.H{
		"sessions":       view.Sessions,
		"active_chat_id": view.ActiveChatID,
	})
}

// Select switches the active chat; an empty chat_id shows the welcome state
func (h *Handler) Select(c *gin.Context) {
	ctrl, ok := h.controller(c)
	if !ok {
		return
	}

	var req domain.SelectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := ctrl.SelectChat(c.Request.Context(), req.ChatID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "chat not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, ctrl.View())
}

// Send accepts a prompt for the active chat (creating a session if none
// is active) and returns once the turn is scheduled. Streaming progress
// arrives over /events.
func (h *Handler) Send(c *gin.Context) {
	ctrl, ok := h.controller(c)
	if !ok {
		return
	}

	var req domain.SendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := ctrl.SendPrompt(c.Request.Context(), req.Message); err != nil {
		switch {
		case errors.Is(err, domain.ErrBlankPrompt):
			c.JSON(http.StatusBadRequest, gin.H{"error": "message is empty"})
		case errors.Is(err, domain.ErrStreamInFlight):
			c.JSON(http.StatusConflict, gin.H{"error": "a response is already streaming"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusAccepted, ctrl.View())
}

// New deactivates the current chat so the next send starts a fresh session
func (h *Handler) New(c *gin.Context) {
	ctrl, ok := h.controller(c)
	if !ok {
		return
	}

	if err := ctrl.NewChat(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, ctrl.View())
}

type sseEvent struct {
	name string
	data any
}

// Events streams view snapshots and notices over SSE until the client
// disconnects. The first event is always the current view.
func (h *Handler) Events(c *gin.Context) {
	ctrl, ok := h.controller(c)
	if !ok {
		return
	}

	// Set SSE headers
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	events := make(chan sseEvent, 64)
	sub := ctrl.Subscribe(service.Listener{
		OnView: func(view domain.ChatView) {
			select {
			case events <- sseEvent{name: "view", data: view}:
			default:
				// Client is not keeping up; newer snapshots supersede
				// dropped ones anyway.
			}
		},
		OnNotice: func(notice domain.Notice) {
			select {
			case events <- sseEvent{name: "notice", data: notice}:
			default:
			}
		},
	})
	defer sub.Cancel()

	clientGone := c.Request.Context().Done()
	c.Stream(func(w io.Writer) bool {
		select {
		case ev := <-events:
			data, err := json.Marshal(ev.data)
			if err != nil {
				return true
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.name, data)
			return true
		case <-clientGone:
			return false
		}
	})
}

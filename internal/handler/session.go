package handler

import (
	"net/http"
	"time"

	"map-assistant/internal/model"
	"map-assistant/internal/utils"
	"map-assistant/pkg/logger"

	"github.com/gin-gonic/gin"
)

const defaultHeartbeat = 30 * time.Second

// Session is the part of the chat controller exposed over HTTP.
type Session interface {
	Submit(text string) bool
	Turns() []model.Turn
	State() model.SessionState
	Subscribe() (<-chan model.Event, func())
}

type SessionHandler struct {
	session   Session
	heartbeat time.Duration
}

func NewSessionHandler(session Session) *SessionHandler {
	return &SessionHandler{
		session:   session,
		heartbeat: defaultHeartbeat,
	}
}

// RegisterRoutes mounts the session API under r.
func RegisterRoutes(r gin.IRouter, h *SessionHandler) {
	session := r.Group("/session")
	{
		session.GET("/turns", h.GetTurns)
		session.GET("/state", h.GetState)
		session.POST("/messages", h.SubmitMessage)
		session.GET("/events", h.StreamEvents)
	}
}

func (h *SessionHandler) GetTurns(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"turns": h.session.Turns(),
	})
}

func (h *SessionHandler) GetState(c *gin.Context) {
	c.JSON(http.StatusOK, h.session.State())
}

// SubmitMessage answers 202 when the message was admitted and 200 with
// accepted=false when it was ignored (blank text or a request in flight).
func (h *SessionHandler) SubmitMessage(c *gin.Context) {
	var req model.SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !h.session.Submit(req.Message) {
		c.JSON(http.StatusOK, model.SubmitResponse{
			Accepted: false,
			Busy:     h.session.State().Busy,
		})
		return
	}

	c.JSON(http.StatusAccepted, model.SubmitResponse{
		Accepted: true,
		Busy:     true,
	})
}

// StreamEvents pushes every appended turn as a "turn" event and every state
// change as a "state" event until the client goes away. A "state" event with
// busy false follows the assistant turn once the session accepts input again.
func (h *SessionHandler) StreamEvents(c *gin.Context) {
	events, unsubscribe := h.session.Subscribe()
	defer unsubscribe()

	sse := utils.NewSSEWriter(c.Writer)
	c.Status(http.StatusOK)
	if err := sse.Comment("connected"); err != nil {
		return
	}

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	ctx := c.Request.Context()
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := writeEvent(sse, ev); err != nil {
				logger.Warnf("failed to write session event: %v", err)
				return
			}
		case <-ticker.C:
			if err := sse.Comment("heartbeat"); err != nil {
				logger.Warnf("heartbeat failed: %v", err)
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

func writeEvent(sse *utils.SSEWriter, ev model.Event) error {
	if ev.Turn != nil {
		return sse.WriteJSON("turn", ev.Turn)
	}
	if ev.State != nil {
		return sse.WriteJSON("state", ev.State)
	}
	return nil
}

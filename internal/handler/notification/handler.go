package notification

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/renovahub/renewal-api/internal/handler"
	"github.com/renovahub/renewal-api/internal/service/notifier"
)

type Handler struct {
	service notifier.NotifierServicer
}

func NewHandler(service notifier.NotifierServicer) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	notifications := r.Group("/notifications")
	{
		notifications.POST("/check", h.Check)
		notifications.POST("/test", h.Test)
		notifications.GET("/stats", h.Stats)
		notifications.GET("/log", h.Log)
	}
}

// Check runs a sweep on demand. The scheduled worker runs the same sweep,
// the dedup key keeps the overlap harmless.
func (h *Handler) Check(c *gin.Context) {
	result, err := h.service.Sweep(c.Request.Context())
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(result))
}

type testRequest struct {
	UserID string `json:"user_id"`
	Title  string `json:"title"`
	Body   string `json:"body"`
}

// Test pushes a probe message to one user, or to everyone with a
// registered device when no user is given.
func (h *Handler) Test(c *gin.Context) {
	var req testRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	var userID *uuid.UUID
	if req.UserID != "" {
		id, err := uuid.Parse(req.UserID)
		if err != nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid user ID"))
			return
		}
		userID = &id
	}

	result, err := h.service.TestNotification(c.Request.Context(), userID, req.Title, req.Body)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{
		"success_count": result.SuccessCount,
		"failure_count": result.FailureCount,
	}))
}

func (h *Handler) Stats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context())
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(stats))
}

func (h *Handler) Log(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	entries, err := h.service.Log(c.Request.Context(), limit)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(entries))
}

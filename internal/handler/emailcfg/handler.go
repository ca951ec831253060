package emailcfg

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/renovahub/renewal-api/internal/handler"
	"github.com/renovahub/renewal-api/internal/model"
	emailcfgService "github.com/renovahub/renewal-api/internal/service/emailcfg"
)

type Handler struct {
	service emailcfgService.EmailConfigServicer
}

func NewHandler(service emailcfgService.EmailConfigServicer) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	cfg := r.Group("/config/email")
	{
		cfg.GET("", h.Get)
		cfg.PUT("", h.Save)
		cfg.POST("/test", h.Test)
	}
}

func (h *Handler) Get(c *gin.Context) {
	settings, err := h.service.Get(c.Request.Context())
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(settings))
}

func (h *Handler) Save(c *gin.Context) {
	var settings model.EmailSettings
	if err := c.ShouldBindJSON(&settings); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	saved, err := h.service.Save(c.Request.Context(), &settings)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(saved))
}

type testRequest struct {
	To string `json:"to" binding:"required,email"`
}

func (h *Handler) Test(c *gin.Context) {
	var req testRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	if err := h.service.SendTest(c.Request.Context(), req.To); err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessMessageResponse("test email sent"))
}

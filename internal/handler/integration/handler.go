package integration

import (
	stderrors "errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/renovahub/renewal-api/internal/handler"
	integrationPkg "github.com/renovahub/renewal-api/internal/integration"
	"github.com/renovahub/renewal-api/internal/model"
	"github.com/renovahub/renewal-api/internal/renewal"
	"github.com/renovahub/renewal-api/internal/repository"
	"github.com/renovahub/renewal-api/internal/repository/postgres"
)

type Handler struct {
	repo       repository.IntegrationRepository
	dispatcher *integrationPkg.Dispatcher
}

func NewHandler(repo repository.IntegrationRepository, dispatcher *integrationPkg.Dispatcher) *Handler {
	return &Handler{repo: repo, dispatcher: dispatcher}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	integrations := r.Group("/integrations")
	{
		integrations.GET("", h.List)
		integrations.PUT("/:type", h.Upsert)
		integrations.POST("/:type/test", h.Test)
	}
}

func validType(t string) bool {
	switch t {
	case model.IntegrationTypeSlack, model.IntegrationTypeTrello, model.IntegrationTypeWebhook:
		return true
	}
	return false
}

func (h *Handler) List(c *gin.Context) {
	integrations, err := h.repo.List(c.Request.Context())
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(integrations))
}

type upsertRequest struct {
	Name    string                  `json:"name"`
	Enabled bool                    `json:"enabled"`
	Config  model.IntegrationConfig `json:"config"`
}

func (h *Handler) Upsert(c *gin.Context) {
	integType := c.Param("type")
	if !validType(integType) {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("unknown integration type"))
		return
	}

	var req upsertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	integ, err := h.repo.Get(c.Request.Context(), integType)
	if err != nil {
		if !stderrors.Is(err, postgres.ErrNotFound) {
			handler.Error(c, err)
			return
		}
		integ = &model.Integration{Type: integType}
	}

	integ.Name = req.Name
	integ.Enabled = req.Enabled
	integ.Config = req.Config

	if err := h.repo.Upsert(c.Request.Context(), integ); err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(integ))
}

// Test delivers a sample payload through one integration so its
// configuration can be verified before real alerts depend on it.
func (h *Handler) Test(c *gin.Context) {
	integType := c.Param("type")
	if !validType(integType) {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("unknown integration type"))
		return
	}

	integ, err := h.repo.Get(c.Request.Context(), integType)
	if err != nil {
		if stderrors.Is(err, postgres.ErrNotFound) {
			c.JSON(http.StatusNotFound, handler.NewErrorResponse("integration not configured"))
			return
		}
		handler.Error(c, err)
		return
	}

	sampleLicense := &model.License{
		SoftwareName:     "Sample Software",
		RenewalDate:      time.Now().AddDate(0, 0, 7),
		Amount:           99.99,
		Currency:         "USD",
		ResponsibleEmail: "owner@example.com",
	}
	sampleDecision := &renewal.Decision{
		Severity:  renewal.SeverityUrgent,
		Tier:      renewal.Tier7Days,
		Title:     "Test alert",
		Body:      "This is a test alert. Integration delivery is working.",
		DaysUntil: 7,
	}

	// force-enable for the probe so a disabled channel can still be tested
	probe := *integ
	probe.Enabled = true

	sent := h.dispatcher.Dispatch(c.Request.Context(), []*model.Integration{&probe}, sampleLicense, sampleDecision)
	if sent == 0 {
		c.JSON(http.StatusBadGateway, handler.NewErrorResponse("test delivery failed"))
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessMessageResponse("test delivered"))
}

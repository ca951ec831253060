package license

import (
	"bytes"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/renovahub/renewal-api/internal/handler"
	"github.com/renovahub/renewal-api/internal/model"
	"github.com/renovahub/renewal-api/internal/renewal"
	"github.com/renovahub/renewal-api/internal/sheet"
	licenseService "github.com/renovahub/renewal-api/internal/service/license"
	"github.com/renovahub/renewal-api/internal/service/notifier"
)

type Handler struct {
	service  licenseService.LicenseServicer
	notifier notifier.NotifierServicer
}

func NewHandler(service licenseService.LicenseServicer, notifierSvc notifier.NotifierServicer) *Handler {
	return &Handler{service: service, notifier: notifierSvc}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	licenses := r.Group("/licenses")
	{
		licenses.POST("", h.CreateLicense)
		licenses.GET("", h.ListLicenses)
		licenses.GET("/summary", h.Summary)
		licenses.GET("/export", h.Export)
		licenses.POST("/import", h.Import)
		licenses.GET("/:id", h.GetLicense)
		licenses.PUT("/:id", h.UpdateLicense)
		licenses.DELETE("/:id", h.DeleteLicense)
		licenses.POST("/:id/renew", h.RenewLicense)
	}
}

type licenseRequest struct {
	SoftwareName     string  `json:"software_name" binding:"required"`
	RenewalDate      string  `json:"renewal_date" binding:"required"`
	Amount           float64 `json:"amount"`
	Currency         string  `json:"currency"`
	ResponsibleEmail string  `json:"responsible_email" binding:"required,email"`
	RenewalURL       string  `json:"renewal_url"`
	Status           string  `json:"status"`
}

// licenseResponse decorates a license with its computed urgency bucket.
type licenseResponse struct {
	*model.License
	Urgency          string `json:"urgency"`
	DaysUntilRenewal int    `json:"days_until_renewal"`
}

func toResponse(l *model.License, today time.Time) licenseResponse {
	return licenseResponse{
		License:          l,
		Urgency:          string(renewal.Classify(l.RenewalDate, today)),
		DaysUntilRenewal: renewal.DaysUntil(l.RenewalDate, today),
	}
}

func parseDate(value string) (time.Time, bool) {
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func (h *Handler) CreateLicense(c *gin.Context) {
	var req licenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	renewalDate, ok := parseDate(req.RenewalDate)
	if !ok {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid renewal date"))
		return
	}

	license := &model.License{
		SoftwareName:     req.SoftwareName,
		RenewalDate:      renewalDate,
		Amount:           req.Amount,
		Currency:         req.Currency,
		ResponsibleEmail: req.ResponsibleEmail,
		RenewalURL:       req.RenewalURL,
		Status:           req.Status,
	}
	if err := h.service.CreateLicense(c.Request.Context(), license); err != nil {
		handler.Error(c, err)
		return
	}

	h.notifier.NotifyEvent(c.Request.Context(), license, notifier.EventCreated)

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(toResponse(license, time.Now())))
}

func (h *Handler) GetLicense(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid license ID"))
		return
	}

	license, err := h.service.GetLicense(c.Request.Context(), id)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(toResponse(license, time.Now())))
}

func (h *Handler) ListLicenses(c *gin.Context) {
	var filter model.LicenseFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	licenses, err := h.service.ListLicenses(c.Request.Context(), &filter)
	if err != nil {
		handler.Error(c, err)
		return
	}

	today := time.Now()
	out := make([]licenseResponse, 0, len(licenses))
	for _, l := range licenses {
		out = append(out, toResponse(l, today))
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(out))
}

func (h *Handler) UpdateLicense(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid license ID"))
		return
	}

	var req licenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	renewalDate, ok := parseDate(req.RenewalDate)
	if !ok {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid renewal date"))
		return
	}

	license, err := h.service.GetLicense(c.Request.Context(), id)
	if err != nil {
		handler.Error(c, err)
		return
	}

	license.SoftwareName = req.SoftwareName
	license.RenewalDate = renewalDate
	license.Amount = req.Amount
	license.Currency = req.Currency
	license.ResponsibleEmail = req.ResponsibleEmail
	license.RenewalURL = req.RenewalURL
	if req.Status != "" {
		license.Status = req.Status
	}

	if err := h.service.UpdateLicense(c.Request.Context(), license); err != nil {
		handler.Error(c, err)
		return
	}

	h.notifier.NotifyEvent(c.Request.Context(), license, notifier.EventUpdated)

	c.JSON(http.StatusOK, handler.NewSuccessResponse(toResponse(license, time.Now())))
}

func (h *Handler) DeleteLicense(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid license ID"))
		return
	}

	if err := h.service.DeleteLicense(c.Request.Context(), id); err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessMessageResponse("license deleted"))
}

func (h *Handler) RenewLicense(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid license ID"))
		return
	}

	license, err := h.service.RenewLicense(c.Request.Context(), id)
	if err != nil {
		handler.Error(c, err)
		return
	}

	h.notifier.NotifyEvent(c.Request.Context(), license, notifier.EventRenewed)

	c.JSON(http.StatusOK, handler.NewSuccessResponse(toResponse(license, time.Now())))
}

func (h *Handler) Summary(c *gin.Context) {
	summary, err := h.service.Summary(c.Request.Context())
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(summary))
}

// Export streams every license as an xlsx workbook.
func (h *Handler) Export(c *gin.Context) {
	licenses, err := h.service.ListLicenses(c.Request.Context(), &model.LicenseFilter{})
	if err != nil {
		handler.Error(c, err)
		return
	}

	workbook, err := sheet.BuildWorkbook(licenses)
	if err != nil {
		handler.Error(c, err)
		return
	}

	var buf bytes.Buffer
	if err := workbook.Write(&buf); err != nil {
		handler.Error(c, err)
		return
	}

	filename := "licenses-" + time.Now().Format("2006-01-02") + ".xlsx"
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		buf.Bytes())
}

type importRequest struct {
	Rows []model.LicenseImportRow `json:"rows" binding:"required"`
}

// Import accepts either a multipart xlsx upload or a JSON row array.
func (h *Handler) Import(c *gin.Context) {
	var rows []model.LicenseImportRow

	if strings.HasPrefix(c.ContentType(), "multipart/") {
		fileHeader, err := c.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("missing file upload"))
			return
		}
		file, err := fileHeader.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("failed to open upload"))
			return
		}
		defer file.Close()

		rows, err = sheet.ParseWorkbook(file)
		if err != nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
			return
		}
	} else {
		var req importRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
			return
		}
		rows = req.Rows
	}

	result, err := h.service.ImportLicenses(c.Request.Context(), rows)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(result))
}

package handlers

import (
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pledgetrack/backend/internal/db"
	"github.com/pledgetrack/backend/internal/http/middleware"
	"github.com/pledgetrack/backend/internal/metrics"
	"github.com/pledgetrack/backend/internal/models"
	"github.com/pledgetrack/backend/internal/photo"
	"github.com/pledgetrack/backend/internal/service"
	"github.com/pledgetrack/backend/internal/utils"
)

type SaveResponseRequest struct {
	Category    string   `json:"category" validate:"required"`
	Description string   `json:"description"`
	PhotoURL    *string  `json:"photo_url"`
	Lat         *float64 `json:"lat"`
	Lon         *float64 `json:"lon"`
	DeviceID    string   `json:"device_id"`
	BranchID    string   `json:"branch_id"`
}

// @Summary Save a customer-wide visit response
// @Description Upserts the response onto every loan in the current cycle
// @Tags responses
// @Accept json
// @Produce json
// @Param id path string true "customer id"
// @Param body body SaveResponseRequest true "response"
// @Success 200 {object} service.SaveResult
// @Failure 400 {object} map[string]any
// @Router /api/customers/{id}/responses [post]
func (h *Handler) SaveResponse(c *gin.Context) {
	h.saveResponse(c, service.SaveRequest{
		Scope:      service.ScopeAllLoans,
		CustomerID: c.Param("id"),
	}, "all_loans")
}

type SaveLoanResponseRequest struct {
	SaveResponseRequest
	CustomerID string `json:"customer_id" validate:"required"`
}

// @Summary Save a single-loan visit response
// @Description Upserts the response onto one PT number in the current cycle
// @Tags responses
// @Accept json
// @Produce json
// @Param pt_no path string true "loan PT number"
// @Param body body SaveLoanResponseRequest true "response"
// @Success 200 {object} service.SaveResult
// @Failure 400 {object} map[string]any
// @Failure 404 {object} map[string]any
// @Router /api/loans/{pt_no}/responses [post]
func (h *Handler) SaveLoanResponse(c *gin.Context) {
	var req SaveLoanResponseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Malformed JSON body", err.Error())
		return
	}

	save := service.SaveRequest{
		Scope:       service.ScopeSingleLoan,
		PTNo:        db.NormalizePTNo(c.Param("pt_no")),
		CustomerID:  req.CustomerID,
		AgentID:     c.GetString(middleware.ContextAgentID),
		Category:    req.Category,
		Description: req.Description,
		PhotoURL:    req.PhotoURL,
		Lat:         req.Lat,
		Lon:         req.Lon,
		DeviceID:    req.DeviceID,
		BranchID:    req.BranchID,
	}

	result, err := h.Responses.Save(c.Request.Context(), save)
	metrics.ObserveSave("single_loan", err)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) saveResponse(c *gin.Context, save service.SaveRequest, scopeLabel string) {
	var req SaveResponseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Malformed JSON body", err.Error())
		return
	}

	save.AgentID = c.GetString(middleware.ContextAgentID)
	save.Category = req.Category
	save.Description = req.Description
	save.PhotoURL = req.PhotoURL
	save.Lat = req.Lat
	save.Lon = req.Lon
	save.DeviceID = req.DeviceID
	save.BranchID = req.BranchID

	result, err := h.Responses.Save(c.Request.Context(), save)
	metrics.ObserveSave(scopeLabel, err)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// HistoryView is a past response plus the distance between where it was
// recorded and the customer's registered address.
type HistoryView struct {
	models.RecoveryResponse
	DistanceKm *float64 `json:"distance_km,omitempty"`
}

// @Summary Response history
// @Description The agent's past visit responses, newest first
// @Tags responses
// @Produce json
// @Param customer_id query string false "filter by customer"
// @Param limit query int false "page size"
// @Param offset query int false "page offset"
// @Success 200 {object} map[string]any
// @Router /api/responses [get]
func (h *Handler) ResponsesHistory(c *gin.Context) {
	agentID := c.GetString(middleware.ContextAgentID)
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	items, err := h.Store.ListResponseHistory(c.Request.Context(), agentID, c.Query("customer_id"), limit, offset)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to list responses", h.detail(err))
		return
	}

	views := make([]HistoryView, 0, len(items))
	for _, item := range items {
		view := HistoryView{RecoveryResponse: item.Response}
		r := item.Response
		if r.Lat != nil && r.Lon != nil && item.CustomerLat != nil && item.CustomerLon != nil {
			d := utils.HaversineKm(*r.Lat, *r.Lon, *item.CustomerLat, *item.CustomerLon)
			view.DistanceKm = &d
		}
		views = append(views, view)
	}
	c.JSON(http.StatusOK, gin.H{"responses": views, "count": len(views)})
}

// @Summary Upload a visit photo
// @Description Stores the photo and returns the URL to submit with a response
// @Tags responses
// @Accept multipart/form-data
// @Produce json
// @Param photo formData file true "photo"
// @Success 200 {object} map[string]any
// @Failure 400 {object} map[string]any
// @Router /api/uploads [post]
func (h *Handler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("photo")
	if err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "photo file required", nil)
		return
	}
	if fileHeader.Size > h.MaxUploadMB<<20 {
		writeError(c, http.StatusBadRequest, "FILE_TOO_LARGE",
			"photo exceeds "+strconv.FormatInt(h.MaxUploadMB, 10)+" MB", nil)
		return
	}
	contentType := fileHeader.Header.Get("Content-Type")
	if !photo.AllowedContentType(contentType) {
		writeError(c, http.StatusBadRequest, "UNSUPPORTED_TYPE", "photo must be jpeg, png or webp", contentType)
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "failed to read photo", h.detail(err))
		return
	}
	defer f.Close()

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	key := "photos/" + time.Now().UTC().Format("2006/01/02") + "/" + uuid.NewString() + ext
	url, err := h.Photos.Upload(c.Request.Context(), key, contentType, f, fileHeader.Size)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "UPLOAD_ERROR", "Failed to store photo", h.detail(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"photo_url": url})
}

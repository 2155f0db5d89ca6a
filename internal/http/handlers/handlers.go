package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/pledgetrack/backend/internal/auth"
	"github.com/pledgetrack/backend/internal/db"
	"github.com/pledgetrack/backend/internal/geocode"
	"github.com/pledgetrack/backend/internal/interest"
	"github.com/pledgetrack/backend/internal/photo"
	"github.com/pledgetrack/backend/internal/service"
)

type Handler struct {
	Store          *db.Store
	Responses      *service.ResponseService
	Photos         photo.Uploader
	Geocoder       geocode.Geocoder
	JWT            *auth.JWTManager
	Validator      *validator.Validate
	Logger         zerolog.Logger
	Policy         interest.Policy
	Env            string
	MaxUploadMB    int64
	GeocodeCountry string
}

func (h *Handler) Healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()
	if err := h.Store.Ping(ctx); err != nil {
		writeError(c, http.StatusServiceUnavailable, "DB_UNAVAILABLE", "Database unavailable", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type LoginRequest struct {
	AgentID  string `json:"agent_id" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// @Summary Agent login
// @Description Exchange agent credentials for a bearer token
// @Tags auth
// @Accept json
// @Produce json
// @Param body body LoginRequest true "credentials"
// @Success 200 {object} map[string]any
// @Failure 401 {object} map[string]any
// @Router /api/login [post]
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Malformed JSON body", err.Error())
		return
	}
	if err := h.Validator.Struct(req); err != nil {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "agent_id and password are required", err.Error())
		return
	}

	agent, err := h.Store.GetAgent(c.Request.Context(), req.AgentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Unknown agent or wrong password", nil)
			return
		}
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to load agent", h.detail(err))
		return
	}
	if !agent.Active || !auth.CheckPassword(agent.PasswordHash, req.Password) {
		writeError(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Unknown agent or wrong password", nil)
		return
	}

	token, err := h.JWT.Generate(agent.ID, agent.BranchID)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "TOKEN_ERROR", "Failed to issue token", h.detail(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"agent": gin.H{
			"id":        agent.ID,
			"name":      agent.Name,
			"branch_id": agent.BranchID,
		},
	})
}

// detail hides internal error text outside dev.
func (h *Handler) detail(err error) any {
	if h.Env == "prod" {
		return nil
	}
	return err.Error()
}

// writeServiceError maps the protocol's error taxonomy onto the HTTP
// error envelope.
func (h *Handler) writeServiceError(c *gin.Context, err error) {
	var verr *service.ValidationError
	if errors.As(err, &verr) {
		writeError(c, http.StatusBadRequest, string(service.KindValidation), "Validation failed", verr.Violations)
		return
	}

	kind := service.KindOf(err)
	switch kind {
	case service.KindNotFound:
		writeError(c, http.StatusNotFound, string(kind), "No open assignment matches the request", h.detail(err))
	case service.KindTimeout:
		writeError(c, http.StatusGatewayTimeout, string(kind), "Operation exceeded its time budget", h.detail(err))
	case service.KindConflict:
		writeError(c, http.StatusConflict, string(kind), "Concurrent update, retry the request", h.detail(err))
	case service.KindStorageUnavailable:
		writeError(c, http.StatusServiceUnavailable, string(kind), "Storage unavailable, retry later", h.detail(err))
	default:
		writeError(c, http.StatusInternalServerError, string(service.KindUnexpected), "Save failed", h.detail(err))
	}
}

func writeError(c *gin.Context, status int, code string, message string, details any) {
	c.JSON(status, gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
			"details": details,
		},
	})
}

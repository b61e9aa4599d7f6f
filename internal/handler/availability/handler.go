package availability

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/salonkit/salon-api/internal/middleware"
	"github.com/salonkit/salon-api/internal/model"
	"github.com/salonkit/salon-api/internal/service/availability"
	"github.com/salonkit/salon-api/pkg/errors"
	"github.com/salonkit/salon-api/pkg/httputil"
	"github.com/salonkit/salon-api/pkg/validator"
)

type Handler struct {
	service   *availability.Service
	validator *validator.Validator
	auth      *middleware.AuthMiddleware
}

func NewHandler(service *availability.Service, v *validator.Validator, auth *middleware.AuthMiddleware) *Handler {
	return &Handler{service: service, validator: v, auth: auth}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	staff := h.auth.RequireRoles(model.UserRoleAdmin, model.UserRoleManager, model.UserRoleArtist)

	avail := r.Group("/availability")
	{
		avail.PUT("/schedule", staff, h.SetSchedule)
		avail.GET("/schedule/:artistID", h.GetSchedule)
		avail.POST("/blockouts", staff, h.CreateBlockout)
		avail.GET("/blockouts/:artistID", h.ListBlockouts)
		avail.DELETE("/blockouts/:id", staff, h.DeleteBlockout)
	}
}

// SetSchedule replaces the artist's whole weekly schedule.
func (h *Handler) SetSchedule(c *gin.Context) {
	var req model.SetScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid request body", err))
		return
	}
	if err := h.validator.Validate(&req); err != nil {
		httputil.RespondWithError(c, errors.BadRequest(err.Error(), err))
		return
	}

	slots, err := h.service.SetSchedule(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, slots)
}

func (h *Handler) GetSchedule(c *gin.Context) {
	artistID, err := uuid.Parse(c.Param("artistID"))
	if err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid artist ID", err))
		return
	}

	slots, err := h.service.GetSchedule(c.Request.Context(), artistID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, slots)
}

func (h *Handler) CreateBlockout(c *gin.Context) {
	var req model.CreateBlockoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid request body", err))
		return
	}
	if err := h.validator.Validate(&req); err != nil {
		httputil.RespondWithError(c, errors.BadRequest(err.Error(), err))
		return
	}

	orgID, ok := middleware.OrganizationID(c)
	if !ok {
		httputil.RespondWithError(c, errors.Unauthorized("missing organization scope", nil))
		return
	}

	blockout, err := h.service.CreateBlockout(c.Request.Context(), &req, orgID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, blockout)
}

func (h *Handler) ListBlockouts(c *gin.Context) {
	artistID, err := uuid.Parse(c.Param("artistID"))
	if err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid artist ID", err))
		return
	}

	blockouts, err := h.service.GetBlockouts(c.Request.Context(), artistID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, blockouts)
}

func (h *Handler) DeleteBlockout(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid blockout ID", err))
		return
	}

	if err := h.service.DeleteBlockout(c.Request.Context(), id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"deleted": true})
}

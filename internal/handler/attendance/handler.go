package attendance

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/salonkit/salon-api/internal/middleware"
	"github.com/salonkit/salon-api/internal/model"
	"github.com/salonkit/salon-api/internal/service/attendance"
	"github.com/salonkit/salon-api/pkg/errors"
	"github.com/salonkit/salon-api/pkg/httputil"
	"github.com/salonkit/salon-api/pkg/validator"
)

type Handler struct {
	service   *attendance.Service
	validator *validator.Validator
	auth      *middleware.AuthMiddleware
}

func NewHandler(service *attendance.Service, v *validator.Validator, auth *middleware.AuthMiddleware) *Handler {
	return &Handler{service: service, validator: v, auth: auth}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	att := r.Group("/attendance")
	{
		att.POST("/clock-in", h.ClockIn)
		att.POST("/clock-out", h.ClockOut)
		att.GET("/current", h.GetCurrent)
		att.POST("/:id/breaks", h.StartBreak)
		att.PATCH("/:id/breaks/end", h.EndBreak)
		att.GET("", h.List)
		att.GET("/:id", h.Get)
		att.GET("/settings", h.GetSettings)
		att.PUT("/settings",
			h.auth.RequireRoles(model.UserRoleAdmin, model.UserRoleManager),
			h.UpdateSettings)
	}
}

func (h *Handler) scope(c *gin.Context) (userID, orgID uuid.UUID, ok bool) {
	userID, ok = middleware.UserID(c)
	if !ok {
		httputil.RespondWithError(c, errors.Unauthorized("missing authentication", nil))
		return uuid.Nil, uuid.Nil, false
	}
	orgID, ok = middleware.OrganizationID(c)
	if !ok {
		httputil.RespondWithError(c, errors.Unauthorized("missing organization scope", nil))
		return uuid.Nil, uuid.Nil, false
	}
	return userID, orgID, true
}

func (h *Handler) ClockIn(c *gin.Context) {
	var req model.ClockInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid request body", err))
		return
	}
	if err := h.validator.Validate(&req); err != nil {
		httputil.RespondWithError(c, errors.BadRequest(err.Error(), err))
		return
	}

	userID, orgID, ok := h.scope(c)
	if !ok {
		return
	}

	session, err := h.service.ClockIn(c.Request.Context(), userID, orgID, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, session)
}

func (h *Handler) ClockOut(c *gin.Context) {
	userID, orgID, ok := h.scope(c)
	if !ok {
		return
	}

	session, err := h.service.ClockOut(c.Request.Context(), userID, orgID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, session)
}

func (h *Handler) GetCurrent(c *gin.Context) {
	userID, orgID, ok := h.scope(c)
	if !ok {
		return
	}

	session, err := h.service.GetCurrentAttendance(c.Request.Context(), userID, orgID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, session)
}

func (h *Handler) StartBreak(c *gin.Context) {
	attendanceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid attendance ID", err))
		return
	}

	var req model.StartBreakRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid request body", err))
		return
	}
	if err := h.validator.Validate(&req); err != nil {
		httputil.RespondWithError(c, errors.BadRequest(err.Error(), err))
		return
	}

	userID, _, ok := h.scope(c)
	if !ok {
		return
	}

	brk, err := h.service.StartBreak(c.Request.Context(), attendanceID, userID, req.Type)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, brk)
}

func (h *Handler) EndBreak(c *gin.Context) {
	attendanceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid attendance ID", err))
		return
	}

	userID, _, ok := h.scope(c)
	if !ok {
		return
	}

	brk, err := h.service.EndBreak(c.Request.Context(), attendanceID, userID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, brk)
}

func (h *Handler) List(c *gin.Context) {
	_, orgID, ok := h.scope(c)
	if !ok {
		return
	}

	filters := &model.AttendanceFilters{OrganizationID: orgID}

	if id := c.Query("employee_id"); id != "" {
		employeeID, err := uuid.Parse(id)
		if err != nil {
			httputil.RespondWithError(c, errors.BadRequest("invalid employee ID", err))
			return
		}
		filters.EmployeeID = &employeeID
	}
	if status := c.Query("status"); status != "" {
		s := model.AttendanceStatus(status)
		filters.Status = &s
	}
	if date := c.Query("start_date"); date != "" {
		t, err := time.Parse("2006-01-02", date)
		if err != nil {
			httputil.RespondWithError(c, errors.BadRequest("invalid start date", err))
			return
		}
		filters.StartDate = &t
	}
	if date := c.Query("end_date"); date != "" {
		t, err := time.Parse("2006-01-02", date)
		if err != nil {
			httputil.RespondWithError(c, errors.BadRequest("invalid end date", err))
			return
		}
		filters.EndDate = &t
	}

	sessions, err := h.service.ListAttendance(c.Request.Context(), filters)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, sessions)
}

func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid attendance ID", err))
		return
	}

	_, orgID, ok := h.scope(c)
	if !ok {
		return
	}

	session, err := h.service.GetAttendance(c.Request.Context(), id, orgID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, session)
}

func (h *Handler) GetSettings(c *gin.Context) {
	_, orgID, ok := h.scope(c)
	if !ok {
		return
	}

	settings, err := h.service.GetSettings(c.Request.Context(), orgID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, settings)
}

func (h *Handler) UpdateSettings(c *gin.Context) {
	var req model.UpdateAttendanceSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid request body", err))
		return
	}
	if err := h.validator.Validate(&req); err != nil {
		httputil.RespondWithError(c, errors.BadRequest(err.Error(), err))
		return
	}

	_, orgID, ok := h.scope(c)
	if !ok {
		return
	}

	settings, err := h.service.UpdateSettings(c.Request.Context(), orgID, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, settings)
}

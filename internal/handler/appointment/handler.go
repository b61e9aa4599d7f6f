package appointment

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/salonkit/salon-api/internal/middleware"
	"github.com/salonkit/salon-api/internal/model"
	"github.com/salonkit/salon-api/internal/service/appointment"
	"github.com/salonkit/salon-api/pkg/errors"
	"github.com/salonkit/salon-api/pkg/httputil"
	"github.com/salonkit/salon-api/pkg/validator"
)

type Handler struct {
	service   *appointment.Service
	validator *validator.Validator
}

func NewHandler(service *appointment.Service, v *validator.Validator) *Handler {
	return &Handler{service: service, validator: v}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	appointments := r.Group("/appointments")
	{
		appointments.GET("/slots", h.FindSlots)
		appointments.POST("", h.CreateAppointment)
		appointments.GET("", h.ListAppointments)
		appointments.GET("/:id", h.GetAppointment)
		appointments.PATCH("/:id", h.UpdateAppointment)
	}
}

// FindSlots returns bookable start times per artist for a service
// within a date range.
func (h *Handler) FindSlots(c *gin.Context) {
	var req model.FindSlotsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid query parameters", err))
		return
	}

	orgID, ok := middleware.OrganizationID(c)
	if !ok {
		httputil.RespondWithError(c, errors.Unauthorized("missing organization scope", nil))
		return
	}

	slots, err := h.service.FindAvailableSlots(c.Request.Context(), &req, orgID, middleware.BranchID(c))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	// Stable string keys for the JSON body.
	out := make(map[string][]time.Time, len(slots))
	for artistID, times := range slots {
		out[artistID.String()] = times
	}
	httputil.RespondWithSuccess(c, out)
}

func (h *Handler) CreateAppointment(c *gin.Context) {
	var req model.CreateAppointmentRequest
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

	appt, err := h.service.CreateAppointment(c.Request.Context(), &req, orgID, middleware.BranchID(c))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, appt)
}

func (h *Handler) GetAppointment(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid appointment ID", err))
		return
	}

	orgID, ok := middleware.OrganizationID(c)
	if !ok {
		httputil.RespondWithError(c, errors.Unauthorized("missing organization scope", nil))
		return
	}

	appt, err := h.service.GetAppointment(c.Request.Context(), id, orgID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, appt)
}

func (h *Handler) ListAppointments(c *gin.Context) {
	orgID, ok := middleware.OrganizationID(c)
	if !ok {
		httputil.RespondWithError(c, errors.Unauthorized("missing organization scope", nil))
		return
	}

	filters := &model.AppointmentFilters{OrganizationID: orgID}

	if id := c.Query("artist_id"); id != "" {
		artistID, err := uuid.Parse(id)
		if err != nil {
			httputil.RespondWithError(c, errors.BadRequest("invalid artist ID", err))
			return
		}
		filters.ArtistID = &artistID
	}
	if id := c.Query("customer_id"); id != "" {
		customerID, err := uuid.Parse(id)
		if err != nil {
			httputil.RespondWithError(c, errors.BadRequest("invalid customer ID", err))
			return
		}
		filters.CustomerID = &customerID
	}
	if status := c.Query("status"); status != "" {
		s := model.AppointmentStatus(status)
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

	appointments, err := h.service.ListAppointments(c.Request.Context(), filters)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, appointments)
}

func (h *Handler) UpdateAppointment(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid appointment ID", err))
		return
	}

	var req model.UpdateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid request body", err))
		return
	}

	orgID, ok := middleware.OrganizationID(c)
	if !ok {
		httputil.RespondWithError(c, errors.Unauthorized("missing organization scope", nil))
		return
	}

	appt, err := h.service.UpdateAppointment(c.Request.Context(), id, orgID, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, appt)
}

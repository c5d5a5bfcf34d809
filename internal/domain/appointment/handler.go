package appointment

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"homefinder/internal/pkg/response"
	"homefinder/internal/pkg/validator"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Create handles POST /api/v1/appointments
func (h *Handler) Create(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req CreateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body", err.Error())
		return
	}
	if errs := validator.Validate(req); errs != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid appointment", errs)
		return
	}

	a, err := h.service.Create(c.Request.Context(), userID, req.Input())
	if err != nil {
		response.FromError(c, err, "Failed to create appointment")
		return
	}

	response.Success(c, http.StatusCreated, AppointmentResponseFromEntity(a))
}

// GetByID handles GET /api/v1/appointments/:id
func (h *Handler) GetByID(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	a, err := h.service.GetByID(c.Request.Context(), id, userID)
	if err != nil {
		response.FromError(c, err, "Failed to get appointment")
		return
	}
	response.Success(c, http.StatusOK, AppointmentResponseFromEntity(a))
}

type transitionFunc func(ctx context.Context, id, callerID int64) (*Appointment, error)

// transition handles PUT /api/v1/appointments/:id/{confirm,reject,cancel}
func (h *Handler) transition(fn transitionFunc, fallback string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUser(c)
		if !ok {
			return
		}
		id, ok := parseID(c)
		if !ok {
			return
		}

		a, err := fn(c.Request.Context(), id, userID)
		if err != nil {
			response.FromError(c, err, fallback)
			return
		}
		response.Success(c, http.StatusOK, AppointmentResponseFromEntity(a))
	}
}

func (h *Handler) Confirm() gin.HandlerFunc {
	return h.transition(h.service.Confirm, "Failed to confirm appointment")
}

func (h *Handler) Reject() gin.HandlerFunc {
	return h.transition(h.service.Reject, "Failed to reject appointment")
}

func (h *Handler) Cancel() gin.HandlerFunc {
	return h.transition(h.service.Cancel, "Failed to cancel appointment")
}

// ListMine handles GET /api/v1/appointments/mine
func (h *Handler) ListMine(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	list, err := h.service.ListMine(c.Request.Context(), userID)
	if err != nil {
		response.FromError(c, err, "Failed to get appointments")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"appointments": appointmentResponses(list)})
}

// ListPendingForMyListings handles GET /api/v1/appointments/pending-for-my-listings
func (h *Handler) ListPendingForMyListings(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	list, err := h.service.ListPendingForOwner(c.Request.Context(), userID)
	if err != nil {
		response.FromError(c, err, "Failed to get appointments")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"appointments": appointmentResponses(list)})
}

// ListForMyListings handles GET /api/v1/appointments/for-my-listings
func (h *Handler) ListForMyListings(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	list, err := h.service.ListForOwner(c.Request.Context(), userID)
	if err != nil {
		response.FromError(c, err, "Failed to get appointments")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"appointments": appointmentResponses(list)})
}

func currentUser(c *gin.Context) (int64, bool) {
	userID := c.GetInt64("user_id")
	if userID == 0 {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "User not authenticated")
		return 0, false
	}
	return userID, true
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid appointment ID")
		return 0, false
	}
	return id, true
}

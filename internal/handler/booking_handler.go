package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/drivingschool-api/internal/dto"
	"github.com/noah-isme/drivingschool-api/internal/models"
	"github.com/noah-isme/drivingschool-api/internal/service"
	appErrors "github.com/noah-isme/drivingschool-api/pkg/errors"
	"github.com/noah-isme/drivingschool-api/pkg/response"
)

type bookingService interface {
	Get(ctx context.Context, id string) (*models.Booking, error)
	Create(ctx context.Context, req service.BookingRequest) (*models.Booking, error)
	Update(ctx context.Context, id string, req service.BookingRequest) (*models.Booking, error)
	UpdateStatus(ctx context.Context, id string, status string) (*models.Booking, error)
}

type conflictChecker interface {
	HasConflict(ctx context.Context, q service.ConflictQuery) (bool, error)
}

// BookingHandler serves the booking widget and booking management endpoints.
type BookingHandler struct {
	bookings bookingService
	detector conflictChecker
}

// NewBookingHandler constructs the handler.
func NewBookingHandler(bookings bookingService, detector conflictChecker) *BookingHandler {
	return &BookingHandler{bookings: bookings, detector: detector}
}

// CheckConflict godoc
// @Summary Check whether a slot is free
// @Tags Bookings
// @Produce json
// @Param instructor_id query string true "Instructor ID"
// @Param scheduled_date query string true "Date (YYYY-MM-DD)"
// @Param start_time query string true "Start (HH:MM)"
// @Param end_time query string true "End (HH:MM)"
// @Param vehicle_id query string false "Vehicle ID"
// @Param ignore_id query string false "Booking to ignore when editing"
// @Success 200 {object} dto.ConflictCheckResponse
// @Failure 400 {object} response.BareError
// @Router /bookings/check-conflict [get]
func (h *BookingHandler) CheckConflict(c *gin.Context) {
	instructorID := strings.TrimSpace(c.Query("instructor_id"))
	if instructorID == "" {
		response.BareFail(c, appErrors.Clone(appErrors.ErrValidation, "instructor_id is required"))
		return
	}
	date, err := time.Parse(models.DateLayout, strings.TrimSpace(c.Query("scheduled_date")))
	if err != nil {
		response.BareFail(c, appErrors.Clone(appErrors.ErrValidation, "scheduled_date must be YYYY-MM-DD"))
		return
	}
	start, err := models.ParseTimeOfDay(c.Query("start_time"))
	if err != nil {
		response.BareFail(c, appErrors.Clone(appErrors.ErrValidation, "start_time must be HH:MM"))
		return
	}
	end, err := models.ParseTimeOfDay(c.Query("end_time"))
	if err != nil {
		response.BareFail(c, appErrors.Clone(appErrors.ErrValidation, "end_time must be HH:MM"))
		return
	}
	if end <= start {
		response.BareFail(c, appErrors.Clone(appErrors.ErrValidation, "end_time must be after start_time"))
		return
	}

	conflict, err := h.detector.HasConflict(c.Request.Context(), service.ConflictQuery{
		InstructorID: instructorID,
		Date:         date,
		Start:        start,
		End:          end,
		VehicleID:    optionalString(c.Query("vehicle_id")),
		ExcludeID:    strings.TrimSpace(c.Query("ignore_id")),
	})
	if err != nil {
		response.BareFail(c, err)
		return
	}
	response.Bare(c, http.StatusOK, dto.ConflictCheckResponse{Conflict: conflict})
}

// Create godoc
// @Summary Create booking
// @Tags Bookings
// @Accept json
// @Produce json
// @Param X-CSRF-Token header string true "Anti-forgery token"
// @Param payload body service.BookingRequest true "Booking payload"
// @Success 201 {object} dto.BookingSavedResponse
// @Failure 400 {object} response.BareError
// @Failure 409 {object} response.BareError
// @Router /bookings [post]
func (h *BookingHandler) Create(c *gin.Context) {
	var req service.BookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BareFail(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	booking, err := h.bookings.Create(c.Request.Context(), req)
	if err != nil {
		response.BareFail(c, err)
		return
	}
	response.Bare(c, http.StatusCreated, dto.BookingSavedResponse{Message: "Booking created", ID: booking.ID})
}

// Update godoc
// @Summary Rewrite booking
// @Tags Bookings
// @Accept json
// @Produce json
// @Param id path string true "Booking ID"
// @Param X-CSRF-Token header string true "Anti-forgery token"
// @Param payload body service.BookingRequest true "Booking payload"
// @Success 200 {object} dto.BookingSavedResponse
// @Failure 404 {object} response.BareError
// @Failure 409 {object} response.BareError
// @Router /bookings/{id} [put]
func (h *BookingHandler) Update(c *gin.Context) {
	var req service.BookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BareFail(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	booking, err := h.bookings.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.BareFail(c, err)
		return
	}
	response.Bare(c, http.StatusOK, dto.BookingSavedResponse{Message: "Booking updated", ID: booking.ID})
}

// Get godoc
// @Summary Get booking
// @Tags Bookings
// @Produce json
// @Param id path string true "Booking ID"
// @Success 200 {object} response.Envelope
// @Router /bookings/{id} [get]
func (h *BookingHandler) Get(c *gin.Context) {
	booking, err := h.bookings.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, booking)
}

// UpdateStatus godoc
// @Summary Change booking status
// @Tags Bookings
// @Accept json
// @Produce json
// @Param id path string true "Booking ID"
// @Param payload body dto.UpdateBookingStatusRequest true "Status payload"
// @Success 200 {object} response.Envelope
// @Router /bookings/{id}/status [patch]
func (h *BookingHandler) UpdateStatus(c *gin.Context) {
	var req dto.UpdateBookingStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	booking, err := h.bookings.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, booking)
}

package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/drivingschool-api/internal/dto"
	"github.com/noah-isme/drivingschool-api/internal/models"
	"github.com/noah-isme/drivingschool-api/internal/repository"
	"github.com/noah-isme/drivingschool-api/internal/service"
	appErrors "github.com/noah-isme/drivingschool-api/pkg/errors"
	"github.com/noah-isme/drivingschool-api/pkg/response"
)

type reminderService interface {
	Queue(ctx context.Context, req service.ReminderRequest) (*models.Reminder, error)
	Get(ctx context.Context, id string) (*models.Reminder, error)
	List(ctx context.Context, filter repository.ReminderFilter) ([]models.Reminder, error)
	ProcessDue(ctx context.Context) (*dto.ReminderSweepResult, error)
}

// ReminderHandler exposes reminder queueing and the manual sweep.
type ReminderHandler struct {
	reminders reminderService
}

// NewReminderHandler constructs the handler.
func NewReminderHandler(reminders reminderService) *ReminderHandler {
	return &ReminderHandler{reminders: reminders}
}

// Create godoc
// @Summary Queue a reminder
// @Tags Reminders
// @Accept json
// @Produce json
// @Param payload body dto.CreateReminderRequest true "Reminder payload"
// @Success 201 {object} response.Envelope
// @Router /reminders [post]
func (h *ReminderHandler) Create(c *gin.Context) {
	var req dto.CreateReminderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	ref, err := models.NewRelatedRef(models.RelatedType(strings.ToLower(strings.TrimSpace(req.RelatedType))), strings.TrimSpace(req.RelatedID))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "relatedType must be booking or invoice"))
		return
	}
	var channel models.ReminderChannel
	if raw := strings.TrimSpace(req.Channel); raw != "" {
		if channel, err = models.ParseChannel(strings.ToLower(raw)); err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "channel must be sms, email or in-app"))
			return
		}
	}
	sendOn, err := time.Parse(models.DateLayout, strings.TrimSpace(req.SendOn))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "sendOn must be YYYY-MM-DD"))
		return
	}

	reminder, err := h.reminders.Queue(c.Request.Context(), service.ReminderRequest{
		Ref:             ref,
		RecipientUserID: strings.TrimSpace(req.RecipientUserID),
		Channel:         channel,
		ReminderType:    strings.TrimSpace(req.ReminderType),
		Message:         req.Message,
		SendOn:          sendOn,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, reminder)
}

// List godoc
// @Summary List reminders
// @Tags Reminders
// @Produce json
// @Param status query string false "pending or sent"
// @Param recipientUserId query string false "Recipient user"
// @Param relatedType query string false "booking or invoice"
// @Param relatedId query string false "Related entity"
// @Param limit query int false "Maximum rows"
// @Success 200 {object} response.Envelope
// @Router /reminders [get]
func (h *ReminderHandler) List(c *gin.Context) {
	filter := repository.ReminderFilter{
		Status:          models.ReminderStatus(strings.ToLower(c.Query("status"))),
		RecipientUserID: c.Query("recipientUserId"),
		RelatedType:     models.RelatedType(strings.ToLower(c.Query("relatedType"))),
		RelatedID:       c.Query("relatedId"),
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "limit must be a positive number"))
			return
		}
		filter.Limit = limit
	}

	reminders, err := h.reminders.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, reminders, map[string]interface{}{"count": len(reminders)})
}

// Get godoc
// @Summary Get reminder
// @Tags Reminders
// @Produce json
// @Param id path string true "Reminder ID"
// @Success 200 {object} response.Envelope
// @Router /reminders/{id} [get]
func (h *ReminderHandler) Get(c *gin.Context) {
	reminder, err := h.reminders.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, reminder)
}

// Run godoc
// @Summary Dispatch every due reminder now
// @Tags Reminders
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /reminders/run [post]
func (h *ReminderHandler) Run(c *gin.Context) {
	result, err := h.reminders.ProcessDue(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/drivingschool-api/internal/dto"
	"github.com/noah-isme/drivingschool-api/internal/middleware"
	"github.com/noah-isme/drivingschool-api/internal/models"
	"github.com/noah-isme/drivingschool-api/internal/service"
	"github.com/noah-isme/drivingschool-api/pkg/response"
)

type calendarService interface {
	Month(ctx context.Context, year, month int) (map[string][]models.BookingSummary, error)
	Events(ctx context.Context, year, month int) ([]dto.CalendarEvent, error)
	Export(ctx context.Context, year, month int, format string) (*service.CalendarExport, error)
}

// CalendarHandler exposes the monthly booking views.
type CalendarHandler struct {
	calendar calendarService
	loc      *time.Location
	now      func() time.Time
}

// NewCalendarHandler constructs the handler. Missing year or month default to
// the current month in loc.
func NewCalendarHandler(calendar calendarService, loc *time.Location) *CalendarHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &CalendarHandler{calendar: calendar, loc: loc, now: time.Now}
}

// Events godoc
// @Summary Calendar widget feed
// @Tags Calendar
// @Produce json
// @Param year query int false "Year"
// @Param month query int false "Month (1-12)"
// @Success 200 {array} dto.CalendarEvent
// @Failure 400 {object} response.BareError
// @Router /bookings/events [get]
func (h *CalendarHandler) Events(c *gin.Context) {
	year, month, err := yearMonthFromQuery(c, h.now().In(h.loc))
	if err != nil {
		response.BareFail(c, err)
		return
	}
	events, err := h.calendar.Events(c.Request.Context(), year, month)
	if err != nil {
		response.BareFail(c, err)
		return
	}
	response.Bare(c, http.StatusOK, events)
}

// Month godoc
// @Summary Bookings of a month grouped by date
// @Tags Calendar
// @Produce json
// @Param year query int false "Year"
// @Param month query int false "Month (1-12)"
// @Success 200 {object} response.Envelope
// @Router /bookings/calendar [get]
func (h *CalendarHandler) Month(c *gin.Context) {
	year, month, err := yearMonthFromQuery(c, h.now().In(h.loc))
	if err != nil {
		response.Error(c, err)
		return
	}
	days, err := h.calendar.Month(c.Request.Context(), year, month)
	if err != nil {
		response.Error(c, err)
		return
	}
	total := 0
	for _, list := range days {
		total += len(list)
	}
	response.JSON(c, http.StatusOK, dto.CalendarMonth{Year: year, Month: month, Days: days, Total: total}, middleware.ResponseMeta(c))
}

// Export godoc
// @Summary Download a month of bookings
// @Tags Calendar
// @Produce text/csv
// @Produce application/pdf
// @Param year query int false "Year"
// @Param month query int false "Month (1-12)"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} binary
// @Router /bookings/calendar/export [get]
func (h *CalendarHandler) Export(c *gin.Context) {
	year, month, err := yearMonthFromQuery(c, h.now().In(h.loc))
	if err != nil {
		response.Error(c, err)
		return
	}
	out, err := h.calendar.Export(c.Request.Context(), year, month, c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", out.Filename))
	c.Data(http.StatusOK, out.ContentType, out.Data)
}

package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/drivingschool-api/internal/dto"
	"github.com/noah-isme/drivingschool-api/internal/models"
	"github.com/noah-isme/drivingschool-api/internal/repository"
	appErrors "github.com/noah-isme/drivingschool-api/pkg/errors"
	"github.com/noah-isme/drivingschool-api/pkg/export"
)

// Calendar export formats.
const (
	ExportFormatCSV = "csv"
	ExportFormatPDF = "pdf"
)

type calendarRepository interface {
	ListSummaries(ctx context.Context, filter repository.BookingFilter) ([]models.BookingSummary, error)
}

type calendarCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Invalidate(ctx context.Context, keys ...string) error
}

type sheetRenderer interface {
	Render(sheet export.Sheet) ([]byte, error)
}

// CalendarExport is a rendered month ready to be downloaded.
type CalendarExport struct {
	Filename    string
	ContentType string
	Data        []byte
}

// CalendarService aggregates bookings into monthly views.
type CalendarService struct {
	repo   calendarRepository
	cache  calendarCache
	ttl    time.Duration
	csv    sheetRenderer
	pdf    sheetRenderer
	logger *zap.Logger
}

// NewCalendarService constructs the service. cache may be nil.
func NewCalendarService(repo calendarRepository, cache calendarCache, ttl time.Duration, logger *zap.Logger) *CalendarService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CalendarService{
		repo:   repo,
		cache:  cache,
		ttl:    ttl,
		csv:    export.NewCSVExporter(),
		pdf:    export.NewPDFExporter(),
		logger: logger,
	}
}

// CalendarCacheKey names the cached bookings of the month containing date.
func CalendarCacheKey(date time.Time) string {
	return "calendar:" + date.Format("2006-01")
}

// Month returns the bookings of the month grouped by YYYY-MM-DD, each day
// ordered by start time.
func (s *CalendarService) Month(ctx context.Context, year, month int) (map[string][]models.BookingSummary, error) {
	summaries, err := s.load(ctx, year, month)
	if err != nil {
		return nil, err
	}
	return groupByDate(summaries), nil
}

// Events flattens the month into the calendar widget feed.
func (s *CalendarService) Events(ctx context.Context, year, month int) ([]dto.CalendarEvent, error) {
	summaries, err := s.load(ctx, year, month)
	if err != nil {
		return nil, err
	}
	sortSummaries(summaries)

	events := make([]dto.CalendarEvent, 0, len(summaries))
	for _, b := range summaries {
		date := b.DateKey()
		events = append(events, dto.CalendarEvent{
			ID:         b.ID,
			Title:      fmt.Sprintf("%s: %s", displayEventType(b.EventType), b.StudentName),
			Start:      date + "T" + b.StartTime.String() + ":00",
			End:        date + "T" + b.EndTime.String() + ":00",
			Student:    b.StudentName,
			Instructor: b.InstructorName,
			Status:     string(b.Status),
			Course:     b.CourseName,
		})
	}
	return events, nil
}

// Export renders the month as CSV or PDF.
func (s *CalendarService) Export(ctx context.Context, year, month int, format string) (*CalendarExport, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	var renderer sheetRenderer
	var contentType string
	switch format {
	case "", ExportFormatCSV:
		format, renderer, contentType = ExportFormatCSV, s.csv, "text/csv"
	case ExportFormatPDF:
		renderer, contentType = s.pdf, "application/pdf"
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}

	days, err := s.Month(ctx, year, month)
	if err != nil {
		return nil, err
	}

	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	sheet := export.Sheet{
		Title:   "Bookings " + first.Format("January 2006"),
		Headers: []string{"Date", "Start", "End", "Type", "Student", "Instructor", "Course", "Vehicle", "Status"},
	}
	dates := make([]string, 0, len(days))
	for date := range days {
		dates = append(dates, date)
	}
	sort.Strings(dates)
	for _, date := range dates {
		group := export.Group{Label: date}
		for _, b := range days[date] {
			vehicle := ""
			if b.VehiclePlate != nil {
				vehicle = *b.VehiclePlate
			}
			group.Rows = append(group.Rows, []string{
				b.StartTime.String(), b.EndTime.String(), displayEventType(b.EventType),
				b.StudentName, b.InstructorName, b.CourseName, vehicle, string(b.Status),
			})
		}
		sheet.Groups = append(sheet.Groups, group)
	}

	data, err := renderer.Render(sheet)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to render calendar export")
	}
	return &CalendarExport{
		Filename:    fmt.Sprintf("bookings-%s.%s", first.Format("2006-01"), format),
		ContentType: contentType,
		Data:        data,
	}, nil
}

// InvalidateMonth drops the cached month containing date. Failures are logged;
// a stale entry expires with its TTL.
func (s *CalendarService) InvalidateMonth(ctx context.Context, date time.Time) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, CalendarCacheKey(date)); err != nil {
		s.logger.Warn("calendar cache invalidation failed", zap.String("month", date.Format("2006-01")), zap.Error(err))
	}
}

func (s *CalendarService) load(ctx context.Context, year, month int) ([]models.BookingSummary, error) {
	from, to, err := monthRange(year, month)
	if err != nil {
		return nil, err
	}
	key := CalendarCacheKey(from)

	if s.cache != nil {
		var cached []models.BookingSummary
		if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
			return cached, nil
		}
	}

	summaries, err := s.repo.ListSummaries(ctx, repository.BookingFilter{From: from, To: to})
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load calendar")
	}
	if summaries == nil {
		summaries = []models.BookingSummary{}
	}
	if s.cache != nil {
		_ = s.cache.Set(ctx, key, summaries, s.ttl)
	}
	return summaries, nil
}

// monthRange returns the first and last day of the month, inclusive.
func monthRange(year, month int) (time.Time, time.Time, error) {
	if month < 1 || month > 12 {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, "month must be between 1 and 12")
	}
	if year < 1970 || year > 9999 {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, "year is out of range")
	}
	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)
	return first, last, nil
}

func groupByDate(summaries []models.BookingSummary) map[string][]models.BookingSummary {
	days := make(map[string][]models.BookingSummary)
	for _, b := range summaries {
		key := b.DateKey()
		days[key] = append(days[key], b)
	}
	for key := range days {
		sortSummaries(days[key])
	}
	return days
}

func sortSummaries(list []models.BookingSummary) {
	sort.SliceStable(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if !a.ScheduledDate.Equal(b.ScheduledDate.Time) {
			return a.ScheduledDate.Before(b.ScheduledDate.Time)
		}
		if a.StartTime != b.StartTime {
			return a.StartTime < b.StartTime
		}
		return a.EndTime < b.EndTime
	})
}

func displayEventType(t models.EventType) string {
	s := string(t)
	if s == "" {
		return "Booking"
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

package service

import (
	"context"
	"time"

	"github.com/noah-isme/drivingschool-api/internal/models"
	appErrors "github.com/noah-isme/drivingschool-api/pkg/errors"
)

type conflictReader interface {
	ListForResources(ctx context.Context, date time.Time, instructorID string, vehicleID *string) ([]models.Booking, error)
}

// ConflictQuery is a candidate slot checked against existing bookings.
type ConflictQuery struct {
	InstructorID string
	Date         time.Time
	Start        models.TimeOfDay
	End          models.TimeOfDay
	VehicleID    *string
	ExcludeID    string
}

// Overlaps reports whether [s1,e1) and [s2,e2) intersect. Touching intervals do not.
func Overlaps(s1, e1, s2, e2 models.TimeOfDay) bool {
	return s1 < e2 && s2 < e1
}

// FirstConflict returns the first booking in existing that blocks q, or nil.
// Booking status is ignored; a cancelled booking still holds its slot.
func FirstConflict(existing []models.Booking, q ConflictQuery) *models.BookingConflict {
	date := q.Date.Format(models.DateLayout)
	vehicle := ""
	if q.VehicleID != nil {
		vehicle = *q.VehicleID
	}

	for _, b := range existing {
		if q.ExcludeID != "" && b.ID == q.ExcludeID {
			continue
		}
		if b.DateKey() != date || !Overlaps(q.Start, q.End, b.StartTime, b.EndTime) {
			continue
		}

		dimension := ""
		switch {
		case b.InstructorID == q.InstructorID:
			dimension = models.ConflictDimensionInstructor
		case vehicle != "" && b.VehicleID != nil && *b.VehicleID == vehicle:
			dimension = models.ConflictDimensionVehicle
		default:
			continue
		}

		return &models.BookingConflict{
			BookingID:     b.ID,
			InstructorID:  b.InstructorID,
			VehicleID:     b.VehicleID,
			ScheduledDate: b.DateKey(),
			StartTime:     b.StartTime,
			EndTime:       b.EndTime,
			Dimension:     dimension,
		}
	}
	return nil
}

// ConflictDetector answers whether a slot is free for an instructor and vehicle.
type ConflictDetector struct {
	repo conflictReader
}

// NewConflictDetector constructs the detector.
func NewConflictDetector(repo conflictReader) *ConflictDetector {
	return &ConflictDetector{repo: repo}
}

// FindConflict loads the bookings sharing a resource on the query date and
// returns the first one that overlaps.
func (d *ConflictDetector) FindConflict(ctx context.Context, q ConflictQuery) (*models.BookingConflict, error) {
	existing, err := d.repo.ListForResources(ctx, q.Date, q.InstructorID, q.VehicleID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to check booking conflicts")
	}
	return FirstConflict(existing, q), nil
}

// HasConflict is FindConflict reduced to a yes/no answer.
func (d *ConflictDetector) HasConflict(ctx context.Context, q ConflictQuery) (bool, error) {
	conflict, err := d.FindConflict(ctx, q)
	if err != nil {
		return false, err
	}
	return conflict != nil, nil
}

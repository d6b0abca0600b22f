package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/drivingschool-api/internal/dto"
)

type dueProcessor interface {
	ProcessDue(ctx context.Context) (*dto.ReminderSweepResult, error)
}

// SweepReminders dispatches due reminders before the wrapped handler runs.
// A failed sweep never blocks the request.
func SweepReminders(processor dueProcessor, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		if processor != nil {
			result, err := processor.ProcessDue(c.Request.Context())
			if err != nil {
				logger.Warn("opportunistic reminder sweep failed", zap.Error(err))
			} else if result != nil && result.Processed > 0 {
				SetMeta(c, "reminders_processed", result.Processed)
			}
		}
		c.Next()
	}
}

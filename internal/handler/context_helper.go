package handler

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/drivingschool-api/internal/middleware"
	"github.com/noah-isme/drivingschool-api/internal/models"
	appErrors "github.com/noah-isme/drivingschool-api/pkg/errors"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	return middleware.Claims(c)
}

// yearMonthFromQuery reads ?year&month; a missing value falls back to now.
func yearMonthFromQuery(c *gin.Context, now time.Time) (int, int, error) {
	year, month := now.Year(), int(now.Month())
	if raw := strings.TrimSpace(c.Query("year")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return 0, 0, appErrors.Clone(appErrors.ErrValidation, "year must be a number")
		}
		year = parsed
	}
	if raw := strings.TrimSpace(c.Query("month")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return 0, 0, appErrors.Clone(appErrors.ErrValidation, "month must be a number")
		}
		month = parsed
	}
	return year, month, nil
}

func optionalString(raw string) *string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

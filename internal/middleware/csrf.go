package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"

	appErrors "github.com/noah-isme/drivingschool-api/pkg/errors"
	"github.com/noah-isme/drivingschool-api/pkg/response"
)

// CSRFHeader carries the token the widget read from the CSRF cookie.
const CSRFHeader = "X-CSRF-Token"

// CSRF checks the double-submit token on unsafe methods: the header must equal
// the cookie set by the session service. Failures use the widget error shape.
func CSRF(enabled bool, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !enabled || isSafeMethod(c.Request.Method) {
			c.Next()
			return
		}

		header := c.GetHeader(CSRFHeader)
		cookie, err := c.Cookie(cookieName)
		if err != nil || header == "" || cookie == "" ||
			subtle.ConstantTimeCompare([]byte(header), []byte(cookie)) != 1 {
			response.BareFail(c, appErrors.Clone(appErrors.ErrForbidden, "invalid CSRF token"))
			c.Abort()
			return
		}
		c.Next()
	}
}

func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	default:
		return false
	}
}

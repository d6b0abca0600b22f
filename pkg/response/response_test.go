package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/drivingschool-api/pkg/errors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestErrorUsesTypedStatus(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	Error(c, appErrors.Clone(appErrors.ErrConflict, "instructor already booked"))

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
	var body Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.NotNil(t, body.Error)
	assert.Equal(t, "CONFLICT", body.Error.Code)
	assert.Nil(t, body.Data)
}

func TestBareFailHidesInternalDetail(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	BareFail(c, errors.New("pq: connection refused"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "internal server error", body["error"])
}

func TestBareWritesPayloadWithoutEnvelope(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	Bare(c, http.StatusOK, gin.H{"conflict": true})

	assert.JSONEq(t, `{"conflict":true}`, w.Body.String())
}

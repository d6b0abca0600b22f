package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimeOfDay(t *testing.T) {
	got, err := ParseTimeOfDay("09:15")
	require.NoError(t, err)
	assert.Equal(t, TimeOfDay(9*60+15), got)
	assert.Equal(t, "09:15", got.String())

	_, err = ParseTimeOfDay("09:59:59")
	assert.Error(t, err, "seconds are not part of the wire format")
	_, err = ParseTimeOfDay("17:30:00")
	assert.Error(t, err)

	_, err = ParseTimeOfDay("25:00")
	assert.Error(t, err)
	_, err = ParseTimeOfDay("nine")
	assert.Error(t, err)
}

func TestTimeOfDayScan(t *testing.T) {
	var tod TimeOfDay
	require.NoError(t, tod.Scan([]byte("10:45:00")))
	assert.Equal(t, "10:45", tod.String())

	require.NoError(t, tod.Scan("08:00:00.000000"))
	assert.Equal(t, "08:00", tod.String())

	require.NoError(t, tod.Scan("17:30"))
	assert.Equal(t, "17:30", tod.String())

	require.NoError(t, tod.Scan(time.Date(0, 1, 1, 13, 5, 0, 0, time.UTC)))
	assert.Equal(t, "13:05", tod.String())

	assert.Error(t, tod.Scan(nil))
	assert.Error(t, tod.Scan(42))
}

func TestTimeOfDayJSON(t *testing.T) {
	payload := struct {
		Start TimeOfDay `json:"start"`
	}{Start: MustTimeOfDay("07:05")}

	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.JSONEq(t, `{"start":"07:05"}`, string(raw))

	var decoded struct {
		Start TimeOfDay `json:"start"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"start":"18:20"}`), &decoded))
	assert.Equal(t, "18:20", decoded.Start.String())
	assert.Error(t, json.Unmarshal([]byte(`{"start":"18h"}`), &decoded))
	assert.Error(t, json.Unmarshal([]byte(`{"start":"18:20:00"}`), &decoded))
}

func TestTimeOfDayOn(t *testing.T) {
	date := time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 3, 5, 9, 30, 0, 0, time.UTC), MustTimeOfDay("09:30").On(date))
}

func TestRelatedRefRoundTrip(t *testing.T) {
	var r Reminder
	r.SetRef(InvoiceRef{ID: "inv-9"})
	assert.Equal(t, RelatedTypeInvoice, r.RelatedType)

	ref, err := r.Ref()
	require.NoError(t, err)
	assert.Equal(t, InvoiceRef{ID: "inv-9"}, ref)

	_, err = NewRelatedRef("payment", "x")
	assert.Error(t, err)
}

package dto

// ConflictCheckResponse answers the widget's slot availability probe.
type ConflictCheckResponse struct {
	Conflict bool `json:"conflict"`
}

// BookingSavedResponse is returned by the widget create and update calls.
type BookingSavedResponse struct {
	Message string `json:"message"`
	ID      string `json:"id"`
}

// UpdateBookingStatusRequest changes only the lifecycle status.
type UpdateBookingStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

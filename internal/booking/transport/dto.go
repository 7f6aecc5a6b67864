// Package transport contains the request/response DTOs for the booking module.
package transport

import (
	"encoding/json"
	"time"

	"tourbooking_backend/internal/booking/repository"

	"github.com/google/uuid"
)

// SubmitBookingRequest is the public submission payload. The payment method
// token is an opaque reference produced by the payment provider's client-side
// flow; this service never sees raw card data.
type SubmitBookingRequest struct {
	CustomerName       string    `json:"customerName" validate:"required,min=2,max=200"`
	CustomerEmail      string    `json:"customerEmail" validate:"required,email"`
	CustomerPhone      string    `json:"customerPhone" validate:"required,min=5,max=32"`
	TourID             uuid.UUID `json:"tourId" validate:"required"`
	RequestedAt        time.Time `json:"requestedAt" validate:"required"`
	Adults             int       `json:"adults" validate:"required,min=1,max=50"`
	Children           int       `json:"children" validate:"min=0,max=50"`
	PaymentMethodToken string    `json:"paymentMethodToken" validate:"required,min=8,max=256"`
}

// RejectBookingRequest carries the admin's rejection reason.
type RejectBookingRequest struct {
	Reason string `json:"reason" validate:"required,min=3,max=500"`
}

// BookingResponse is the API view of a booking request. The payment method
// token is never exposed; only its presence is.
type BookingResponse struct {
	ID               uuid.UUID  `json:"id"`
	CustomerName     string     `json:"customerName"`
	CustomerEmail    string     `json:"customerEmail"`
	CustomerPhone    string     `json:"customerPhone"`
	TourID           uuid.UUID  `json:"tourId"`
	RequestedAt      time.Time  `json:"requestedAt"`
	Adults           int        `json:"adults"`
	Children         int        `json:"children"`
	Status           string     `json:"status"`
	SubmittedAt      time.Time  `json:"submittedAt"`
	ReviewedAt       *time.Time `json:"reviewedAt,omitempty"`
	ReviewedBy       *string    `json:"reviewedBy,omitempty"`
	RejectionReason  *string    `json:"rejectionReason,omitempty"`
	HasPaymentMethod bool       `json:"hasPaymentMethod"`
}

// FromBookingRequest maps the database model to its API view.
func FromBookingRequest(req *repository.BookingRequest) BookingResponse {
	return BookingResponse{
		ID:               req.ID,
		CustomerName:     req.CustomerName,
		CustomerEmail:    req.CustomerEmail,
		CustomerPhone:    req.CustomerPhone,
		TourID:           req.TourID,
		RequestedAt:      req.RequestedAt,
		Adults:           req.Adults,
		Children:         req.Children,
		Status:           string(req.Status),
		SubmittedAt:      req.SubmittedAt,
		ReviewedAt:       req.ReviewedAt,
		ReviewedBy:       req.ReviewedBy,
		RejectionReason:  req.RejectionReason,
		HasPaymentMethod: req.PaymentMethodToken != nil,
	}
}

// LifecycleEventResponse is the API view of one audit record.
type LifecycleEventResponse struct {
	ID        uuid.UUID       `json:"id"`
	EventType string          `json:"eventType"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"createdAt"`
	CreatedBy string          `json:"createdBy"`
}

// BookingDetailResponse combines the current state with its audit trail.
type BookingDetailResponse struct {
	Booking BookingResponse          `json:"booking"`
	Events  []LifecycleEventResponse `json:"events"`
}

// FromLifecycleEvents maps audit records to their API view.
func FromLifecycleEvents(events []repository.LifecycleEvent) []LifecycleEventResponse {
	result := make([]LifecycleEventResponse, 0, len(events))
	for _, ev := range events {
		result = append(result, LifecycleEventResponse{
			ID:        ev.ID,
			EventType: string(ev.EventType),
			Payload:   ev.Payload,
			CreatedAt: ev.CreatedAt,
			CreatedBy: ev.CreatedBy,
		})
	}
	return result
}

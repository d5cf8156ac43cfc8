// Package events defines the booking lifecycle messages published to the broker.
package events

import (
	"time"

	"github.com/Eursukkul/railconnect/internal/models"
)

// Routing keys on the railconnect topic exchange.
const (
	BookingConfirmed  = "booking.confirmed"
	BookingWaitlisted = "booking.waitlisted"
	BookingCancelled  = "booking.cancelled"
	BookingPromoted   = "booking.promoted"
	BookingRequeued   = "booking.requeued"
	PersistenceFailed = "persistence.failed"

	TrainCreated = "train.created"
)

type BookingEvent struct {
	Status     models.BookingStatus `json:"status"`
	PNR        string               `json:"pnr,omitempty"`
	TrainID    string               `json:"train_id"`
	Name       string               `json:"name"`
	SeatNo     int                  `json:"seat_no,omitempty"`
	Fare       float64              `json:"fare,omitempty"`
	OccurredAt time.Time            `json:"occurred_at"`
}

type PersistenceFailedEvent struct {
	Operation  string    `json:"operation"`
	Error      string    `json:"error"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Message pairs a payload with its routing key so it can be published later.
type Message struct {
	RoutingKey string
	Payload    any
}

func NewBookingMessage(key string, status models.BookingStatus, p models.Passenger, at time.Time) Message {
	return Message{
		RoutingKey: key,
		Payload: BookingEvent{
			Status:     status,
			PNR:        p.PNR,
			TrainID:    p.TrainID,
			Name:       p.Name,
			SeatNo:     p.SeatNo,
			Fare:       p.Fare,
			OccurredAt: at,
		},
	}
}

func NewPersistenceFailedMessage(operation string, err error, at time.Time) Message {
	return Message{
		RoutingKey: PersistenceFailed,
		Payload: PersistenceFailedEvent{
			Operation:  operation,
			Error:      err.Error(),
			OccurredAt: at,
		},
	}
}

package dto

import (
	"strings"

	"github.com/Eursukkul/railconnect/internal/models"
)

type CreateTrainRequest struct {
	TrainID     string  `json:"train_id"`
	Name        string  `json:"name"`
	Source      string  `json:"source"`
	Destination string  `json:"destination"`
	TotalSeats  int     `json:"total_seats"`
	BookedSeats int     `json:"booked_seats"`
	BaseFare    float64 `json:"base_fare"`
}

// ToTrain trims the text fields; the stored train keeps them as given otherwise.
func (r CreateTrainRequest) ToTrain() models.Train {
	return models.Train{
		TrainID:     strings.TrimSpace(r.TrainID),
		Name:        strings.TrimSpace(r.Name),
		Source:      strings.TrimSpace(r.Source),
		Destination: strings.TrimSpace(r.Destination),
		TotalSeats:  r.TotalSeats,
		BookedSeats: r.BookedSeats,
		BaseFare:    r.BaseFare,
	}
}

type BookTicketRequest struct {
	Name   string `json:"name"`
	Age    int    `json:"age"`
	Gender string `json:"gender"`
}

func (r BookTicketRequest) ToBookingRequest() models.BookingRequest {
	return models.BookingRequest{
		Name:   strings.TrimSpace(r.Name),
		Age:    r.Age,
		Gender: strings.TrimSpace(r.Gender),
	}
}

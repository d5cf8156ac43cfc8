package dto

import (
	"github.com/Eursukkul/railconnect/internal/models"
	"github.com/Eursukkul/railconnect/internal/service"
)

type TrainResponse struct {
	TrainID        string  `json:"train_id"`
	Name           string  `json:"name"`
	Source         string  `json:"source"`
	Destination    string  `json:"destination"`
	TotalSeats     int     `json:"total_seats"`
	BookedSeats    int     `json:"booked_seats"`
	SeatsAvailable int     `json:"seats_available"`
	BaseFare       float64 `json:"base_fare"`
}

type PassengerResponse struct {
	PNR     string  `json:"pnr"`
	Name    string  `json:"name"`
	Age     int     `json:"age"`
	Gender  string  `json:"gender"`
	TrainID string  `json:"train_id"`
	SeatNo  int     `json:"seat_no"`
	Fare    float64 `json:"fare"`
}

type WaitingResponse struct {
	Position int    `json:"position"`
	Name     string `json:"name"`
	Age      int    `json:"age"`
	Gender   string `json:"gender"`
	TrainID  string `json:"train_id"`
}

// BookingResponse carries the ticket for a confirmed booking, or the queued request
// for a waitlisted one.
type BookingResponse struct {
	Status    models.BookingStatus `json:"status"`
	Ticket    *PassengerResponse   `json:"ticket,omitempty"`
	Waiting   *WaitingResponse     `json:"waiting,omitempty"`
	Persisted bool                 `json:"persisted"`
	Warning   string               `json:"warning,omitempty"`
}

type CancelResponse struct {
	Cancelled PassengerResponse `json:"cancelled"`
	Promotion *BookingResponse  `json:"promotion,omitempty"`
	Dropped   *WaitingResponse  `json:"dropped,omitempty"`
	Persisted bool              `json:"persisted"`
	Warning   string            `json:"warning,omitempty"`
}

type AddTrainResponse struct {
	Train     TrainResponse `json:"train"`
	Persisted bool          `json:"persisted"`
	Warning   string        `json:"warning,omitempty"`
}

type ErrorResponse struct {
	Message string `json:"message"`
}

func ToTrainResponse(t models.Train) TrainResponse {
	return TrainResponse{
		TrainID:        t.TrainID,
		Name:           t.Name,
		Source:         t.Source,
		Destination:    t.Destination,
		TotalSeats:     t.TotalSeats,
		BookedSeats:    t.BookedSeats,
		SeatsAvailable: t.AvailableSeats(),
		BaseFare:       t.BaseFare,
	}
}

func ToTrainResponses(trains []models.Train) []TrainResponse {
	resp := make([]TrainResponse, len(trains))
	for i, t := range trains {
		resp[i] = ToTrainResponse(t)
	}
	return resp
}

func ToPassengerResponse(p models.Passenger) PassengerResponse {
	return PassengerResponse{
		PNR:     p.PNR,
		Name:    p.Name,
		Age:     p.Age,
		Gender:  p.Gender,
		TrainID: p.TrainID,
		SeatNo:  p.SeatNo,
		Fare:    p.Fare,
	}
}

func ToPassengerResponses(ps []models.Passenger) []PassengerResponse {
	resp := make([]PassengerResponse, len(ps))
	for i, p := range ps {
		resp[i] = ToPassengerResponse(p)
	}
	return resp
}

// ToWaitingResponse takes the 1-based queue position, 0 when unknown.
func ToWaitingResponse(p models.Passenger, position int) WaitingResponse {
	return WaitingResponse{
		Position: position,
		Name:     p.Name,
		Age:      p.Age,
		Gender:   p.Gender,
		TrainID:  p.TrainID,
	}
}

func ToWaitingResponses(ps []models.Passenger) []WaitingResponse {
	resp := make([]WaitingResponse, len(ps))
	for i, p := range ps {
		resp[i] = ToWaitingResponse(p, i+1)
	}
	return resp
}

func ToBookingResponse(r *service.BookingResult) BookingResponse {
	resp := BookingResponse{Status: r.Status, Persisted: r.SaveErr == nil}
	if r.SaveErr != nil {
		resp.Warning = r.SaveErr.Error()
	}
	if r.Status == models.StatusConfirmed {
		ticket := ToPassengerResponse(r.Passenger)
		resp.Ticket = &ticket
	} else {
		w := ToWaitingResponse(r.Passenger, r.Position)
		resp.Waiting = &w
	}
	return resp
}

func ToCancelResponse(r *service.CancelResult) CancelResponse {
	resp := CancelResponse{
		Cancelled: ToPassengerResponse(r.Cancelled),
		Persisted: r.SaveErr == nil,
	}
	if r.SaveErr != nil {
		resp.Warning = r.SaveErr.Error()
	}
	if r.Promotion != nil {
		// the promotion shares the cancellation's save
		promotion := *r.Promotion
		promotion.SaveErr = r.SaveErr
		p := ToBookingResponse(&promotion)
		resp.Promotion = &p
	}
	if r.Dropped != nil {
		d := ToWaitingResponse(*r.Dropped, 0)
		resp.Dropped = &d
	}
	return resp
}

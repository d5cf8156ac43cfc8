package models

type BookingStatus string

const (
	StatusConfirmed  BookingStatus = "confirmed"
	StatusWaitlisted BookingStatus = "waitlisted"
	StatusCancelled  BookingStatus = "cancelled"
)

// Passenger is a confirmed booking. Waiting-list entries use the same shape
// with PNR, SeatNo and Fare left at their zero values.
type Passenger struct {
	Name    string  `json:"name"`
	Age     int     `json:"age"`
	Gender  string  `json:"gender"`
	PNR     string  `json:"pnr"`
	TrainID string  `json:"trainId"`
	SeatNo  int     `json:"seatNo"`
	Fare    float64 `json:"fare"`
}

type BookingRequest struct {
	Name   string
	Age    int
	Gender string
}

// Snapshot is the full persisted state of the ledger.
type Snapshot struct {
	Trains     []Train
	Passengers []Passenger
	Waiting    []Passenger
}

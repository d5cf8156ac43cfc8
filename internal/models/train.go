package models

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidTrain = errors.New("invalid train")

type Train struct {
	TrainID     string  `json:"trainId"`
	Name        string  `json:"name"`
	Source      string  `json:"source"`
	Destination string  `json:"destination"`
	TotalSeats  int     `json:"totalSeats"`
	BookedSeats int     `json:"bookedSeats"`
	BaseFare    float64 `json:"baseFare"`
}

func (t Train) HasFreeSeat() bool {
	return t.BookedSeats < t.TotalSeats
}

func (t Train) AvailableSeats() int {
	return max(0, t.TotalSeats-t.BookedSeats)
}

// Validate checks the fields a caller must supply before handing a train to the store.
func (t Train) Validate() error {
	switch {
	case strings.TrimSpace(t.TrainID) == "":
		return fmt.Errorf("%w: trainId is required", ErrInvalidTrain)
	case strings.TrimSpace(t.Name) == "":
		return fmt.Errorf("%w: name is required", ErrInvalidTrain)
	case t.TotalSeats <= 0:
		return fmt.Errorf("%w: totalSeats must be positive", ErrInvalidTrain)
	case t.BookedSeats < 0 || t.BookedSeats > t.TotalSeats:
		return fmt.Errorf("%w: bookedSeats must be between 0 and totalSeats", ErrInvalidTrain)
	case t.BaseFare < 0:
		return fmt.Errorf("%w: baseFare must not be negative", ErrInvalidTrain)
	}
	return nil
}

// DefaultTrains is the sample timetable written when no trains record exists yet.
func DefaultTrains() []Train {
	return []Train{
		{TrainID: "123A", Name: "Express One", Source: "Mumbai", Destination: "Pune", TotalSeats: 100, BaseFare: 200.0},
		{TrainID: "456B", Name: "Coastal Mail", Source: "Chennai", Destination: "Bangalore", TotalSeats: 80, BaseFare: 350.0},
		{TrainID: "789C", Name: "InterCity", Source: "Delhi", Destination: "Agra", TotalSeats: 120, BaseFare: 150.0},
	}
}

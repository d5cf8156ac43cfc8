// Package codec converts trains and bookings to and from the JSON records kept on disk.
//
// Records are written with every field present, keys sorted and four-space
// indentation, so re-encoding a decoded canonical document reproduces it byte for
// byte. Reading is lenient: absent or wrongly typed fields become zero values.
package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/Eursukkul/railconnect/internal/models"
)

var ErrMalformed = errors.New("malformed record")

// Field order is alphabetical so the encoder emits keys sorted.
type trainRecord struct {
	BaseFare    float64 `json:"baseFare"`
	BookedSeats int     `json:"bookedSeats"`
	Destination string  `json:"destination"`
	Name        string  `json:"name"`
	Source      string  `json:"source"`
	TotalSeats  int     `json:"totalSeats"`
	TrainID     string  `json:"trainId"`
}

type passengerRecord struct {
	Age     int     `json:"age"`
	Fare    float64 `json:"fare"`
	Gender  string  `json:"gender"`
	Name    string  `json:"name"`
	PNR     string  `json:"pnr"`
	SeatNo  int     `json:"seatNo"`
	TrainID string  `json:"trainId"`
}

type bookingsRecord struct {
	Passengers []passengerRecord `json:"passengers"`
	Waiting    []passengerRecord `json:"waiting"`
}

func EncodeTrains(trains []models.Train) ([]byte, error) {
	recs := make([]trainRecord, 0, len(trains))
	for _, t := range trains {
		recs = append(recs, trainRecord{
			BaseFare:    t.BaseFare,
			BookedSeats: t.BookedSeats,
			Destination: t.Destination,
			Name:        t.Name,
			Source:      t.Source,
			TotalSeats:  t.TotalSeats,
			TrainID:     t.TrainID,
		})
	}
	return encode(recs)
}

func EncodeBookings(passengers, waiting []models.Passenger) ([]byte, error) {
	return encode(bookingsRecord{
		Passengers: toPassengerRecords(passengers),
		Waiting:    toPassengerRecords(waiting),
	})
}

// DecodeTrain reads a single train object, as carried by the train feed.
func DecodeTrain(data []byte) (models.Train, error) {
	fields, err := objectFields(data)
	if err != nil {
		return models.Train{}, err
	}
	return trainFromFields(fields), nil
}

// DecodeTrains reads a trains record. Only invalid JSON or a top level that is not
// an array is reported as ErrMalformed.
func DecodeTrains(data []byte) ([]models.Train, error) {
	elems, err := arrayElems(data)
	if err != nil {
		return nil, err
	}
	trains := make([]models.Train, 0, len(elems))
	for _, raw := range elems {
		fields, _ := objectFields(raw)
		trains = append(trains, trainFromFields(fields))
	}
	return trains, nil
}

// DecodeBookings reads a bookings record. A missing or non-array "passengers" or
// "waiting" member is treated as empty.
func DecodeBookings(data []byte) (passengers, waiting []models.Passenger, err error) {
	fields, err := objectFields(data)
	if err != nil {
		return nil, nil, err
	}
	return passengersFrom(fields["passengers"]), passengersFrom(fields["waiting"]), nil
}

func encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	return buf.Bytes(), nil
}

func toPassengerRecords(ps []models.Passenger) []passengerRecord {
	recs := make([]passengerRecord, 0, len(ps))
	for _, p := range ps {
		recs = append(recs, passengerRecord{
			Age:     p.Age,
			Fare:    p.Fare,
			Gender:  p.Gender,
			Name:    p.Name,
			PNR:     p.PNR,
			SeatNo:  p.SeatNo,
			TrainID: p.TrainID,
		})
	}
	return recs
}

func passengersFrom(raw json.RawMessage) []models.Passenger {
	elems, err := arrayElems(raw)
	if err != nil {
		return []models.Passenger{}
	}
	ps := make([]models.Passenger, 0, len(elems))
	for _, e := range elems {
		fields, _ := objectFields(e)
		ps = append(ps, models.Passenger{
			Name:    stringField(fields, "name"),
			Age:     intField(fields, "age"),
			Gender:  stringField(fields, "gender"),
			PNR:     stringField(fields, "pnr"),
			TrainID: stringField(fields, "trainId"),
			SeatNo:  intField(fields, "seatNo"),
			Fare:    floatField(fields, "fare"),
		})
	}
	return ps
}

func trainFromFields(fields map[string]json.RawMessage) models.Train {
	return models.Train{
		TrainID:     stringField(fields, "trainId"),
		Name:        stringField(fields, "name"),
		Source:      stringField(fields, "source"),
		Destination: stringField(fields, "destination"),
		TotalSeats:  intField(fields, "totalSeats"),
		BookedSeats: intField(fields, "bookedSeats"),
		BaseFare:    floatField(fields, "baseFare"),
	}
}

func arrayElems(data []byte) ([]json.RawMessage, error) {
	if firstByte(data) != '[' {
		return nil, fmt.Errorf("%w: expected a JSON array", ErrMalformed)
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(data, &elems); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return elems, nil
}

func objectFields(data []byte) (map[string]json.RawMessage, error) {
	if firstByte(data) != '{' {
		return nil, fmt.Errorf("%w: expected a JSON object", ErrMalformed)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return fields, nil
}

func firstByte(data []byte) byte {
	data = bytes.TrimLeft(data, " \t\r\n")
	if len(data) == 0 {
		return 0
	}
	return data[0]
}

func stringField(fields map[string]json.RawMessage, key string) string {
	var s string
	if err := json.Unmarshal(fields[key], &s); err != nil {
		return ""
	}
	return s
}

func floatField(fields map[string]json.RawMessage, key string) float64 {
	var f float64
	if err := json.Unmarshal(fields[key], &f); err != nil {
		return 0
	}
	return f
}

// intField accepts any JSON number with an integral value that fits in an int32.
func intField(fields map[string]json.RawMessage, key string) int {
	f := floatField(fields, key)
	if f != math.Trunc(f) || f > math.MaxInt32 || f < math.MinInt32 {
		return 0
	}
	return int(f)
}

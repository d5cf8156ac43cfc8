package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/Eursukkul/railconnect/internal/events"
	"github.com/Eursukkul/railconnect/internal/models"
	"github.com/Eursukkul/railconnect/internal/repository"
	"github.com/google/uuid"
)

var (
	ErrTrainNotFound     = errors.New("train not found")
	ErrPassengerNotFound = errors.New("passenger not found")
	ErrPersistenceFailed = errors.New("persistence failed")
	ErrPNRExhausted      = errors.New("could not generate a unique pnr")
)

const (
	pnrLength      = 8
	maxPNRAttempts = 16
	// events buffered for the broker before new ones are dropped
	eventOutboxSize = 256
	// surcharge applied per occupied seat, including the one being booked
	farePerSeatRate = 0.01
)

type ReservationService interface {
	AddTrain(ctx context.Context, train models.Train) error
	SearchTrains(ctx context.Context, source, destination string) []models.Train
	FindTrain(ctx context.Context, id string) (models.Train, bool)
	BookTicket(ctx context.Context, trainID string, req models.BookingRequest) (*BookingResult, error)
	CancelTicket(ctx context.Context, pnr string) (*CancelResult, error)
	FindPassenger(ctx context.Context, pnr string) (models.Passenger, bool)
	ListTrains(ctx context.Context) []models.Train
	ListPassengers(ctx context.Context) []models.Passenger
	ListWaiting(ctx context.Context) []models.Passenger
	// Close waits until the events already queued for publishing are delivered.
	Close()
}

// EventPublisher delivers lifecycle events. A nil publisher disables publishing.
// Publish runs outside the request path, so a slow broker never delays a result.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
}

// Recorder receives operational counters. A nil recorder disables metrics.
type Recorder interface {
	BookingConfirmed(trainID string)
	BookingWaitlisted(trainID string)
	BookingCancelled(trainID string)
	PassengerPromoted(trainID string)
	PassengerRequeued(trainID string)
	PersistenceFailed(operation string)
	SeatsBooked(trainID string, booked, total int)
}

type BookingResult struct {
	Status    models.BookingStatus
	Passenger models.Passenger
	// Position is the 1-based place in the waiting list for a waitlisted result.
	Position int
	// SaveErr is set when the booking stands in memory but could not be persisted.
	SaveErr error
}

type CancelResult struct {
	Cancelled models.Passenger
	// Promotion is the outcome for the waiting-list head, nil when the list was empty.
	Promotion *BookingResult
	// Dropped holds the dequeued entry when its train no longer exists.
	Dropped *models.Passenger
	SaveErr error
}

type reservationService struct {
	mu         sync.Mutex
	trains     []models.Train
	passengers []models.Passenger
	waiting    []models.Passenger

	gateway repository.Gateway
	outbox  *events.Outbox
	metrics Recorder
	newPNR  func() string
	now     func() time.Time
}

// NewReservationService takes ownership of the loaded snapshot.
func NewReservationService(snap *models.Snapshot, gateway repository.Gateway, publisher EventPublisher, metrics Recorder) ReservationService {
	if snap == nil {
		snap = &models.Snapshot{}
	}
	if metrics == nil {
		metrics = nopRecorder{}
	}
	s := &reservationService{
		trains:     slices.Clone(snap.Trains),
		passengers: slices.Clone(snap.Passengers),
		waiting:    slices.Clone(snap.Waiting),
		gateway:    gateway,
		metrics:    metrics,
		newPNR:     generatePNR,
		now:        time.Now,
	}
	if publisher != nil {
		s.outbox = events.NewOutbox(publisher, eventOutboxSize)
	}
	for _, t := range s.trains {
		s.metrics.SeatsBooked(t.TrainID, t.BookedSeats, t.TotalSeats)
	}
	return s
}

// generatePNR takes the leading hex digits of a random UUID, uppercased.
func generatePNR() string {
	return strings.ToUpper(uuid.NewString()[:pnrLength])
}

func fareFor(baseFare float64, bookedSeats int) float64 {
	return baseFare * (1 + farePerSeatRate*float64(bookedSeats))
}

// AddTrain appends without checking identifier uniqueness; lookups resolve to the
// first train with a given id.
func (s *reservationService) AddTrain(ctx context.Context, train models.Train) error {
	s.mu.Lock()
	s.trains = append(s.trains, train)
	s.metrics.SeatsBooked(train.TrainID, train.BookedSeats, train.TotalSeats)
	err := s.persist(ctx, "add_train")
	s.mu.Unlock()

	log.Printf("[ReservationService] added train %s (%s -> %s, %d seats)",
		train.TrainID, train.Source, train.Destination, train.TotalSeats)
	if err != nil {
		s.publish(events.NewPersistenceFailedMessage("add_train", err, s.now()))
	}
	return err
}

func (s *reservationService) SearchTrains(ctx context.Context, source, destination string) []models.Train {
	s.mu.Lock()
	defer s.mu.Unlock()

	res := []models.Train{}
	for _, t := range s.trains {
		if strings.EqualFold(t.Source, source) && strings.EqualFold(t.Destination, destination) {
			res = append(res, t)
		}
	}
	return res
}

func (s *reservationService) FindTrain(ctx context.Context, id string) (models.Train, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.trainIndex(id)
	if i < 0 {
		return models.Train{}, false
	}
	return s.trains[i], true
}

func (s *reservationService) FindPassenger(ctx context.Context, pnr string) (models.Passenger, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.passengerIndex(pnr)
	if i < 0 {
		return models.Passenger{}, false
	}
	return s.passengers[i], true
}

func (s *reservationService) ListTrains(ctx context.Context) []models.Train {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneOrEmpty(s.trains)
}

func (s *reservationService) ListPassengers(ctx context.Context) []models.Passenger {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneOrEmpty(s.passengers)
}

func (s *reservationService) ListWaiting(ctx context.Context) []models.Passenger {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneOrEmpty(s.waiting)
}

// BookTicket confirms a seat when one is free, otherwise queues the request at the
// tail of the waiting list. A full train never rejects a request.
func (s *reservationService) BookTicket(ctx context.Context, trainID string, req models.BookingRequest) (*BookingResult, error) {
	s.mu.Lock()
	result, err := s.book(trainID, models.Passenger{
		Name:    req.Name,
		Age:     req.Age,
		Gender:  req.Gender,
		TrainID: trainID,
	}, false)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	result.SaveErr = s.persist(ctx, "book_ticket")
	s.mu.Unlock()

	msgs := []events.Message{bookingMessage(result, s.now())}
	if result.SaveErr != nil {
		msgs = append(msgs, events.NewPersistenceFailedMessage("book_ticket", result.SaveErr, s.now()))
	}
	s.publish(msgs...)
	return result, nil
}

// CancelTicket removes a confirmed booking, frees its seat and gives the head of the
// waiting list a single booking attempt. An entry that still cannot be seated goes
// back to the tail of the queue.
func (s *reservationService) CancelTicket(ctx context.Context, pnr string) (*CancelResult, error) {
	s.mu.Lock()
	i := s.passengerIndex(pnr)
	if i < 0 {
		s.mu.Unlock()
		return nil, ErrPassengerNotFound
	}

	cancelled := s.passengers[i]
	s.passengers = slices.Delete(s.passengers, i, i+1)
	if ti := s.trainIndex(cancelled.TrainID); ti >= 0 {
		t := &s.trains[ti]
		t.BookedSeats = max(0, t.BookedSeats-1)
		s.metrics.SeatsBooked(t.TrainID, t.BookedSeats, t.TotalSeats)
	}
	s.metrics.BookingCancelled(cancelled.TrainID)
	log.Printf("[ReservationService] cancelled PNR %s on train %s", cancelled.PNR, cancelled.TrainID)

	result := &CancelResult{Cancelled: cancelled}
	var promoteErr error
	if len(s.waiting) > 0 {
		head := s.waiting[0]
		s.waiting = slices.Delete(s.waiting, 0, 1)
		if head.TrainID == "" {
			head.TrainID = cancelled.TrainID
		}

		promotion, err := s.book(head.TrainID, head, true)
		switch {
		case errors.Is(err, ErrTrainNotFound):
			log.Printf("[ReservationService] dropped waiting entry for %s: train %s not found", head.Name, head.TrainID)
			result.Dropped = &head
		case err != nil:
			// no seat was taken; keep the entry at the front for the next cancellation
			s.waiting = slices.Insert(s.waiting, 0, head)
			promoteErr = err
		default:
			result.Promotion = promotion
			if promotion.Status == models.StatusConfirmed {
				s.metrics.PassengerPromoted(promotion.Passenger.TrainID)
			}
		}
	}
	result.SaveErr = s.persist(ctx, "cancel_ticket")
	s.mu.Unlock()

	if promoteErr != nil {
		log.Printf("[ReservationService] promotion skipped: %v", promoteErr)
	}

	now := s.now()
	msgs := []events.Message{events.NewBookingMessage(events.BookingCancelled, models.StatusCancelled, cancelled, now)}
	if p := result.Promotion; p != nil {
		if p.Status == models.StatusConfirmed {
			msgs = append(msgs, events.NewBookingMessage(events.BookingPromoted, p.Status, p.Passenger, now))
		} else {
			msgs = append(msgs, events.NewBookingMessage(events.BookingRequeued, p.Status, p.Passenger, now))
		}
	}
	if result.SaveErr != nil {
		msgs = append(msgs, events.NewPersistenceFailedMessage("cancel_ticket", result.SaveErr, now))
	}
	s.publish(msgs...)
	return result, nil
}

// book runs the seat allocation for one passenger. Callers hold s.mu and persist.
// requeue marks a waiting entry that is put back after a failed promotion.
func (s *reservationService) book(trainID string, p models.Passenger, requeue bool) (*BookingResult, error) {
	ti := s.trainIndex(trainID)
	if ti < 0 {
		return nil, ErrTrainNotFound
	}
	t := &s.trains[ti]
	p.TrainID = trainID

	if !t.HasFreeSeat() {
		p.PNR, p.SeatNo, p.Fare = "", 0, 0
		s.waiting = append(s.waiting, p)
		if requeue {
			s.metrics.PassengerRequeued(trainID)
			log.Printf("[ReservationService] train %s still full, %s requeued (position %d)",
				trainID, p.Name, len(s.waiting))
		} else {
			s.metrics.BookingWaitlisted(trainID)
			log.Printf("[ReservationService] train %s full, %s added to waiting list (position %d)",
				trainID, p.Name, len(s.waiting))
		}
		return &BookingResult{Status: models.StatusWaitlisted, Passenger: p, Position: len(s.waiting)}, nil
	}

	pnr, err := s.uniquePNR()
	if err != nil {
		return nil, err
	}
	t.BookedSeats++
	p.PNR = pnr
	p.SeatNo = t.BookedSeats
	p.Fare = fareFor(t.BaseFare, t.BookedSeats)
	s.passengers = append(s.passengers, p)

	s.metrics.BookingConfirmed(trainID)
	s.metrics.SeatsBooked(t.TrainID, t.BookedSeats, t.TotalSeats)
	log.Printf("[ReservationService] booked %s on %s: PNR %s seat %d fare %.2f",
		p.Name, trainID, p.PNR, p.SeatNo, p.Fare)
	return &BookingResult{Status: models.StatusConfirmed, Passenger: p}, nil
}

func (s *reservationService) uniquePNR() (string, error) {
	for range maxPNRAttempts {
		pnr := s.newPNR()
		if s.passengerIndex(pnr) < 0 {
			return pnr, nil
		}
	}
	return "", ErrPNRExhausted
}

// persist writes the current state. Callers hold s.mu. The in-memory state is kept
// whatever the outcome, and a request cancellation does not stop the write.
func (s *reservationService) persist(ctx context.Context, operation string) error {
	snap := &models.Snapshot{
		Trains:     slices.Clone(s.trains),
		Passengers: slices.Clone(s.passengers),
		Waiting:    slices.Clone(s.waiting),
	}
	if err := s.gateway.Save(context.WithoutCancel(ctx), snap); err != nil {
		log.Printf("[ReservationService] %s: save failed: %v", operation, err)
		s.metrics.PersistenceFailed(operation)
		return fmt.Errorf("%w: %w", ErrPersistenceFailed, err)
	}
	return nil
}

// publish queues msgs for the broker without waiting for delivery.
func (s *reservationService) publish(msgs ...events.Message) {
	if s.outbox == nil {
		return
	}
	for _, m := range msgs {
		if err := s.outbox.Enqueue(m); err != nil {
			log.Printf("[ReservationService] dropped %s event: %v", m.RoutingKey, err)
		}
	}
}

func (s *reservationService) Close() {
	if s.outbox != nil {
		s.outbox.Close()
	}
}

func (s *reservationService) trainIndex(id string) int {
	return slices.IndexFunc(s.trains, func(t models.Train) bool { return t.TrainID == id })
}

func (s *reservationService) passengerIndex(pnr string) int {
	return slices.IndexFunc(s.passengers, func(p models.Passenger) bool { return p.PNR == pnr })
}

func bookingMessage(r *BookingResult, at time.Time) events.Message {
	key := events.BookingConfirmed
	if r.Status == models.StatusWaitlisted {
		key = events.BookingWaitlisted
	}
	return events.NewBookingMessage(key, r.Status, r.Passenger, at)
}

func cloneOrEmpty[T any](s []T) []T {
	out := make([]T, len(s))
	copy(out, s)
	return out
}

type nopRecorder struct{}

func (nopRecorder) BookingConfirmed(string) {}
func (nopRecorder) BookingWaitlisted(string) {}
func (nopRecorder) BookingCancelled(string) {}
func (nopRecorder) PassengerPromoted(string) {}
func (nopRecorder) PassengerRequeued(string) {}
func (nopRecorder) PersistenceFailed(string) {}
func (nopRecorder) SeatsBooked(string, int, int) {}

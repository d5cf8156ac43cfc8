package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/Eursukkul/railconnect/internal/events"
	"github.com/Eursukkul/railconnect/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Mock Gateway ---

type mockGateway struct {
	mu     sync.Mutex
	saveFn func(ctx context.Context, snap *models.Snapshot) error
	saved  []*models.Snapshot
}

func (m *mockGateway) Load(ctx context.Context) (*models.Snapshot, error) {
	return &models.Snapshot{}, nil
}

func (m *mockGateway) Save(ctx context.Context, snap *models.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved = append(m.saved, snap)
	if m.saveFn != nil {
		return m.saveFn(ctx, snap)
	}
	return nil
}

func (m *mockGateway) last() *models.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.saved) == 0 {
		return nil
	}
	return m.saved[len(m.saved)-1]
}

// --- Mock EventPublisher ---

type publishedEvent struct {
	key     string
	payload any
}

type mockPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
	err    error
}

func (m *mockPublisher) Publish(ctx context.Context, routingKey string, payload any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, publishedEvent{key: routingKey, payload: payload})
	return m.err
}

func (m *mockPublisher) keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, len(m.events))
	for i, e := range m.events {
		keys[i] = e.key
	}
	return keys
}

// --- Mock Recorder ---

type mockRecorder struct {
	confirmed, waitlisted, cancelled, promoted, requeued int
	persistFailures                            []string
	seats                                      map[string]int
}

func newMockRecorder() *mockRecorder { return &mockRecorder{seats: map[string]int{}} }

func (m *mockRecorder) BookingConfirmed(string) { m.confirmed++ }
func (m *mockRecorder) BookingWaitlisted(string) { m.waitlisted++ }
func (m *mockRecorder) BookingCancelled(string) { m.cancelled++ }
func (m *mockRecorder) PassengerPromoted(string) { m.promoted++ }
func (m *mockRecorder) PassengerRequeued(string) { m.requeued++ }
func (m *mockRecorder) PersistenceFailed(op string) { m.persistFailures = append(m.persistFailures, op) }
func (m *mockRecorder) SeatsBooked(id string, booked, _ int) { m.seats[id] = booked }

// --- Helpers ---

func newTestService(t *testing.T, trains ...models.Train) (*reservationService, *mockGateway) {
	t.Helper()
	gw := &mockGateway{}
	svc := NewReservationService(&models.Snapshot{Trains: trains}, gw, nil, nil).(*reservationService)
	svc.newPNR = sequentialPNRs()
	return svc, gw
}

// withPublisher routes the service's events to pub. Call svc.Close before
// inspecting pub.
func withPublisher(t *testing.T, svc *reservationService, pub EventPublisher) {
	t.Helper()
	svc.outbox = events.NewOutbox(pub, eventOutboxSize)
	t.Cleanup(svc.Close)
}

func sequentialPNRs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("PNR%05d", n)
	}
}

func passenger(name string) models.BookingRequest {
	return models.BookingRequest{Name: name, Age: 30, Gender: "F"}
}

func sampleTrain(id string, total int, fare float64) models.Train {
	return models.Train{TrainID: id, Name: "Train " + id, Source: "Mumbai", Destination: "Pune", TotalSeats: total, BaseFare: fare}
}

func mustFindTrain(t *testing.T, svc ReservationService, id string) models.Train {
	t.Helper()
	train, ok := svc.FindTrain(context.Background(), id)
	require.True(t, ok, "train %s should exist", id)
	return train
}

// --- Tests ---

func TestBookCancelPromote_SingleSeatScenario(t *testing.T) {
	svc, _ := newTestService(t, sampleTrain("T1", 1, 100))
	ctx := context.Background()

	a, err := svc.BookTicket(ctx, "T1", passenger("A"))
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, a.Status)
	assert.Equal(t, 1, a.Passenger.SeatNo)
	assert.InDelta(t, 101.0, a.Passenger.Fare, 1e-9)
	assert.Equal(t, 1, mustFindTrain(t, svc, "T1").BookedSeats)

	b, err := svc.BookTicket(ctx, "T1", passenger("B"))
	require.NoError(t, err)
	assert.Equal(t, models.StatusWaitlisted, b.Status)
	assert.Empty(t, b.Passenger.PNR)
	assert.Equal(t, 1, mustFindTrain(t, svc, "T1").BookedSeats)
	assert.Len(t, svc.ListWaiting(ctx), 1)

	res, err := svc.CancelTicket(ctx, a.Passenger.PNR)
	require.NoError(t, err)
	assert.Equal(t, "A", res.Cancelled.Name)
	require.NotNil(t, res.Promotion)
	assert.Equal(t, models.StatusConfirmed, res.Promotion.Status)
	assert.Equal(t, "B", res.Promotion.Passenger.Name)
	assert.Equal(t, 1, res.Promotion.Passenger.SeatNo)
	assert.InDelta(t, 101.0, res.Promotion.Passenger.Fare, 1e-9)
	assert.Equal(t, 1, mustFindTrain(t, svc, "T1").BookedSeats)
	assert.Empty(t, svc.ListWaiting(ctx))

	_, found := svc.FindPassenger(ctx, a.Passenger.PNR)
	assert.False(t, found)
	promoted, found := svc.FindPassenger(ctx, res.Promotion.Passenger.PNR)
	assert.True(t, found)
	assert.Equal(t, "B", promoted.Name)
}

func TestBookTicket_TrainNotFound(t *testing.T) {
	svc, gw := newTestService(t, sampleTrain("T1", 1, 100))

	res, err := svc.BookTicket(context.Background(), "t1", passenger("A"))

	assert.ErrorIs(t, err, ErrTrainNotFound)
	assert.Nil(t, res)
	assert.Empty(t, gw.saved, "a failed lookup must not persist")
	assert.Empty(t, svc.ListPassengers(context.Background()))
	assert.Empty(t, svc.ListWaiting(context.Background()))
}

func TestBookTicket_FareRisesWithOccupancy(t *testing.T) {
	svc, _ := newTestService(t, sampleTrain("T1", 5, 200))
	ctx := context.Background()

	prev := 0.0
	for n := 1; n <= 5; n++ {
		res, err := svc.BookTicket(ctx, "T1", passenger(fmt.Sprintf("P%d", n)))
		require.NoError(t, err)
		require.Equal(t, models.StatusConfirmed, res.Status)
		assert.Equal(t, n, res.Passenger.SeatNo)
		assert.InDelta(t, 200*(1+0.01*float64(n)), res.Passenger.Fare, 1e-9)
		assert.Greater(t, res.Passenger.Fare, prev)
		assert.Equal(t, n, mustFindTrain(t, svc, "T1").BookedSeats)
		prev = res.Passenger.Fare
	}
}

func TestBookTicket_FullTrainAlwaysWaitlists(t *testing.T) {
	svc, gw := newTestService(t, sampleTrain("T1", 2, 100))
	ctx := context.Background()

	for i := range 2 {
		_, err := svc.BookTicket(ctx, "T1", passenger(fmt.Sprintf("P%d", i)))
		require.NoError(t, err)
	}
	for i := range 3 {
		res, err := svc.BookTicket(ctx, "T1", passenger(fmt.Sprintf("W%d", i)))
		require.NoError(t, err)
		assert.Equal(t, models.StatusWaitlisted, res.Status)
		assert.Equal(t, "T1", res.Passenger.TrainID)
		assert.Equal(t, i+1, res.Position)
	}

	assert.Equal(t, 2, mustFindTrain(t, svc, "T1").BookedSeats)
	waiting := svc.ListWaiting(ctx)
	require.Len(t, waiting, 3)
	assert.Equal(t, []string{"W0", "W1", "W2"}, names(waiting))
	assert.Len(t, gw.saved, 5, "every booking is persisted")
	assert.Len(t, gw.last().Waiting, 3)
}

func TestBookTicket_RegeneratesCollidingPNR(t *testing.T) {
	svc, _ := newTestService(t, sampleTrain("T1", 3, 100))
	codes := []string{"AAAA1111", "AAAA1111", "BBBB2222"}
	svc.newPNR = func() string {
		c := codes[0]
		codes = codes[1:]
		return c
	}
	ctx := context.Background()

	first, err := svc.BookTicket(ctx, "T1", passenger("A"))
	require.NoError(t, err)
	second, err := svc.BookTicket(ctx, "T1", passenger("B"))
	require.NoError(t, err)

	assert.Equal(t, "AAAA1111", first.Passenger.PNR)
	assert.Equal(t, "BBBB2222", second.Passenger.PNR)
}

func TestBookTicket_PNRExhausted_NoStateChange(t *testing.T) {
	svc, gw := newTestService(t, sampleTrain("T1", 3, 100))
	svc.newPNR = func() string { return "SAMECODE" }
	ctx := context.Background()

	_, err := svc.BookTicket(ctx, "T1", passenger("A"))
	require.NoError(t, err)
	saves := len(gw.saved)

	_, err = svc.BookTicket(ctx, "T1", passenger("B"))

	assert.ErrorIs(t, err, ErrPNRExhausted)
	assert.Equal(t, 1, mustFindTrain(t, svc, "T1").BookedSeats)
	assert.Len(t, svc.ListPassengers(ctx), 1)
	assert.Len(t, gw.saved, saves)
}

func TestGeneratePNR_Format(t *testing.T) {
	seen := map[string]bool{}
	for range 200 {
		pnr := generatePNR()
		assert.Regexp(t, `^[0-9A-Z]{8}$`, pnr)
		seen[pnr] = true
	}
	assert.Greater(t, len(seen), 190)
}

func TestCancelTicket_NotFound(t *testing.T) {
	svc, gw := newTestService(t, sampleTrain("T1", 1, 100))

	res, err := svc.CancelTicket(context.Background(), "NOPE0000")

	assert.ErrorIs(t, err, ErrPassengerNotFound)
	assert.Nil(t, res)
	assert.Empty(t, gw.saved)
}

func TestCancelTicket_NoWaiting_FreesSeat(t *testing.T) {
	svc, gw := newTestService(t, sampleTrain("T1", 3, 100))
	ctx := context.Background()
	a, _ := svc.BookTicket(ctx, "T1", passenger("A"))
	_, _ = svc.BookTicket(ctx, "T1", passenger("B"))

	res, err := svc.CancelTicket(ctx, a.Passenger.PNR)

	require.NoError(t, err)
	assert.Nil(t, res.Promotion)
	assert.Nil(t, res.Dropped)
	assert.Equal(t, 1, mustFindTrain(t, svc, "T1").BookedSeats)
	assert.Equal(t, []string{"B"}, names(svc.ListPassengers(ctx)))
	assert.Equal(t, 1, gw.last().Trains[0].BookedSeats)
}

func TestCancelTicket_FloorsBookedSeatsAtZero(t *testing.T) {
	train := sampleTrain("T1", 3, 100)
	gw := &mockGateway{}
	svc := NewReservationService(&models.Snapshot{
		Trains:     []models.Train{train},
		Passengers: []models.Passenger{{Name: "Ghost", PNR: "GHOST001", TrainID: "T1", SeatNo: 1}},
	}, gw, nil, nil)

	_, err := svc.CancelTicket(context.Background(), "GHOST001")

	require.NoError(t, err)
	assert.Equal(t, 0, mustFindTrain(t, svc, "T1").BookedSeats)
}

func TestCancelTicket_PromotesOnlyHead_PreservesOrder(t *testing.T) {
	svc, _ := newTestService(t, sampleTrain("T1", 1, 100))
	ctx := context.Background()
	a, _ := svc.BookTicket(ctx, "T1", passenger("A"))
	for _, n := range []string{"W1", "W2", "W3"} {
		_, _ = svc.BookTicket(ctx, "T1", passenger(n))
	}

	res, err := svc.CancelTicket(ctx, a.Passenger.PNR)

	require.NoError(t, err)
	require.NotNil(t, res.Promotion)
	assert.Equal(t, "W1", res.Promotion.Passenger.Name)
	assert.Equal(t, []string{"W2", "W3"}, names(svc.ListWaiting(ctx)))
	assert.Equal(t, []string{"W1"}, names(svc.ListPassengers(ctx)))
}

func TestCancelTicket_HeadForFullTrain_RequeuedAtTail(t *testing.T) {
	svc, _ := newTestService(t, sampleTrain("T1", 1, 100), sampleTrain("T2", 1, 50))
	ctx := context.Background()
	t1, _ := svc.BookTicket(ctx, "T1", passenger("A"))
	_, _ = svc.BookTicket(ctx, "T2", passenger("B"))
	_, _ = svc.BookTicket(ctx, "T2", passenger("W-T2"))
	_, _ = svc.BookTicket(ctx, "T1", passenger("W-T1"))

	res, err := svc.CancelTicket(ctx, t1.Passenger.PNR)

	require.NoError(t, err)
	require.NotNil(t, res.Promotion)
	assert.Equal(t, models.StatusWaitlisted, res.Promotion.Status)
	assert.Equal(t, "W-T2", res.Promotion.Passenger.Name)
	assert.Equal(t, 2, res.Promotion.Position)
	assert.Equal(t, []string{"W-T1", "W-T2"}, names(svc.ListWaiting(ctx)))
	assert.Equal(t, 0, mustFindTrain(t, svc, "T1").BookedSeats, "the freed T1 seat stays free")
	assert.Equal(t, 1, mustFindTrain(t, svc, "T2").BookedSeats)
}

func TestCancelTicket_BlankWaitingTrain_DefaultsToVacatedTrain(t *testing.T) {
	gw := &mockGateway{}
	svc := NewReservationService(&models.Snapshot{
		Trains:     []models.Train{{TrainID: "T1", TotalSeats: 1, BookedSeats: 1, BaseFare: 100}},
		Passengers: []models.Passenger{{Name: "A", PNR: "AAAA0001", TrainID: "T1", SeatNo: 1, Fare: 101}},
		Waiting:    []models.Passenger{{Name: "Legacy", Age: 50, Gender: "M"}},
	}, gw, nil, nil)

	res, err := svc.CancelTicket(context.Background(), "AAAA0001")

	require.NoError(t, err)
	require.NotNil(t, res.Promotion)
	assert.Equal(t, models.StatusConfirmed, res.Promotion.Status)
	assert.Equal(t, "T1", res.Promotion.Passenger.TrainID)
	assert.Equal(t, "Legacy", res.Promotion.Passenger.Name)
}

func TestCancelTicket_WaitingForUnknownTrain_Dropped(t *testing.T) {
	gw := &mockGateway{}
	svc := NewReservationService(&models.Snapshot{
		Trains:     []models.Train{{TrainID: "T1", TotalSeats: 1, BookedSeats: 1, BaseFare: 100}},
		Passengers: []models.Passenger{{Name: "A", PNR: "AAAA0001", TrainID: "T1", SeatNo: 1}},
		Waiting:    []models.Passenger{{Name: "Lost", TrainID: "GONE"}, {Name: "Next", TrainID: "T1"}},
	}, gw, nil, nil)
	ctx := context.Background()

	res, err := svc.CancelTicket(ctx, "AAAA0001")

	require.NoError(t, err)
	assert.Nil(t, res.Promotion)
	require.NotNil(t, res.Dropped)
	assert.Equal(t, "Lost", res.Dropped.Name)
	assert.Equal(t, []string{"Next"}, names(svc.ListWaiting(ctx)))
	assert.Equal(t, 0, mustFindTrain(t, svc, "T1").BookedSeats)
}

func TestSaveFailure_KeepsInMemoryState(t *testing.T) {
	svc, gw := newTestService(t, sampleTrain("T1", 2, 100))
	rec := newMockRecorder()
	svc.metrics = rec
	diskErr := errors.New("disk full")
	gw.saveFn = func(ctx context.Context, snap *models.Snapshot) error { return diskErr }
	ctx := context.Background()

	res, err := svc.BookTicket(ctx, "T1", passenger("A"))

	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, res.Status)
	assert.ErrorIs(t, res.SaveErr, ErrPersistenceFailed)
	assert.ErrorIs(t, res.SaveErr, diskErr)
	_, found := svc.FindPassenger(ctx, res.Passenger.PNR)
	assert.True(t, found)
	assert.Equal(t, 1, mustFindTrain(t, svc, "T1").BookedSeats)

	cancel, err := svc.CancelTicket(ctx, res.Passenger.PNR)
	require.NoError(t, err)
	assert.ErrorIs(t, cancel.SaveErr, ErrPersistenceFailed)
	assert.Equal(t, 0, mustFindTrain(t, svc, "T1").BookedSeats)
	assert.Equal(t, []string{"book_ticket", "cancel_ticket"}, rec.persistFailures)
}

func TestAddTrain_PersistsAndAllowsDuplicates(t *testing.T) {
	svc, gw := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.AddTrain(ctx, models.Train{TrainID: "D1", Name: "First", TotalSeats: 1}))
	require.NoError(t, svc.AddTrain(ctx, models.Train{TrainID: "D1", Name: "Second", TotalSeats: 1}))

	assert.Len(t, svc.ListTrains(ctx), 2)
	assert.Equal(t, "First", mustFindTrain(t, svc, "D1").Name)
	assert.Len(t, gw.saved, 2)
	assert.Len(t, gw.last().Trains, 2)
}

func TestAddTrain_SaveFailure(t *testing.T) {
	svc, gw := newTestService(t)
	gw.saveFn = func(ctx context.Context, snap *models.Snapshot) error { return errors.New("read-only") }

	err := svc.AddTrain(context.Background(), models.Train{TrainID: "D1", TotalSeats: 1})

	assert.ErrorIs(t, err, ErrPersistenceFailed)
	_, ok := svc.FindTrain(context.Background(), "D1")
	assert.True(t, ok)
}

func TestSearchTrains_CaseInsensitive(t *testing.T) {
	svc, _ := newTestService(t,
		models.Train{TrainID: "123A", Source: "Mumbai", Destination: "Pune"},
		models.Train{TrainID: "456B", Source: "Chennai", Destination: "Bangalore"},
		models.Train{TrainID: "999Z", Source: "Mumbai ", Destination: "Pune"},
	)
	ctx := context.Background()

	res := svc.SearchTrains(ctx, "mumbai", "PUNE")
	require.Len(t, res, 1)
	assert.Equal(t, "123A", res[0].TrainID)

	assert.Empty(t, svc.SearchTrains(ctx, "Pune", "Mumbai"))
	assert.NotNil(t, svc.SearchTrains(ctx, "Nowhere", "Else"))
}

func TestFindTrain_CaseSensitiveCopy(t *testing.T) {
	svc, _ := newTestService(t, sampleTrain("123A", 10, 100))
	ctx := context.Background()

	_, ok := svc.FindTrain(ctx, "123a")
	assert.False(t, ok)

	train := mustFindTrain(t, svc, "123A")
	train.BookedSeats = 9
	assert.Equal(t, 0, mustFindTrain(t, svc, "123A").BookedSeats, "lookups return copies")
}

func TestPublishesLifecycleEvents(t *testing.T) {
	svc, _ := newTestService(t, sampleTrain("T1", 1, 100))
	pub := &mockPublisher{err: errors.New("broker down")}
	withPublisher(t, svc, pub)
	ctx := context.Background()

	a, _ := svc.BookTicket(ctx, "T1", passenger("A"))
	_, _ = svc.BookTicket(ctx, "T1", passenger("B"))
	_, err := svc.CancelTicket(ctx, a.Passenger.PNR)
	svc.Close()

	require.NoError(t, err, "publish failures never fail the operation")
	assert.Equal(t, []string{
		events.BookingConfirmed,
		events.BookingWaitlisted,
		events.BookingCancelled,
		events.BookingPromoted,
	}, pub.keys())

	promoted, ok := pub.events[3].payload.(events.BookingEvent)
	require.True(t, ok)
	assert.Equal(t, "B", promoted.Name)
	assert.Equal(t, 1, promoted.SeatNo)
}

func TestPublishesPersistenceFailure(t *testing.T) {
	svc, gw := newTestService(t, sampleTrain("T1", 1, 100))
	pub := &mockPublisher{}
	withPublisher(t, svc, pub)
	gw.saveFn = func(ctx context.Context, snap *models.Snapshot) error { return errors.New("EACCES") }

	_, err := svc.BookTicket(context.Background(), "T1", passenger("A"))
	svc.Close()

	require.NoError(t, err)
	assert.Equal(t, []string{events.BookingConfirmed, events.PersistenceFailed}, pub.keys())
}

type slowPublisher struct {
	mockPublisher
	delay time.Duration
}

func (p *slowPublisher) Publish(ctx context.Context, routingKey string, payload any) error {
	time.Sleep(p.delay)
	return p.mockPublisher.Publish(ctx, routingKey, payload)
}

func TestSlowPublisher_DoesNotDelayResults(t *testing.T) {
	svc, _ := newTestService(t, sampleTrain("T1", 1, 100))
	pub := &slowPublisher{delay: 200 * time.Millisecond}
	withPublisher(t, svc, pub)
	ctx := context.Background()

	start := time.Now()
	a, err := svc.BookTicket(ctx, "T1", passenger("A"))
	require.NoError(t, err)
	_, err = svc.BookTicket(ctx, "T1", passenger("B"))
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 100*time.Millisecond, "bookings wait for the broker")

	start = time.Now()
	_, err = svc.CancelTicket(ctx, a.Passenger.PNR)
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 100*time.Millisecond, "cancellation waits for the broker")

	svc.Close()
	assert.Equal(t, []string{
		events.BookingConfirmed,
		events.BookingWaitlisted,
		events.BookingCancelled,
		events.BookingPromoted,
	}, pub.keys(), "Close delivers everything queued")
}

func TestCancelTicket_Requeue_NotCountedAsNewWaitlisting(t *testing.T) {
	svc, _ := newTestService(t, sampleTrain("T1", 1, 100), sampleTrain("T2", 1, 50))
	rec := newMockRecorder()
	svc.metrics = rec
	pub := &mockPublisher{}
	withPublisher(t, svc, pub)
	ctx := context.Background()

	t1, _ := svc.BookTicket(ctx, "T1", passenger("A"))
	_, _ = svc.BookTicket(ctx, "T2", passenger("B"))
	_, _ = svc.BookTicket(ctx, "T2", passenger("W-T2"))
	res, err := svc.CancelTicket(ctx, t1.Passenger.PNR)
	svc.Close()

	require.NoError(t, err)
	require.NotNil(t, res.Promotion)
	assert.Equal(t, models.StatusWaitlisted, res.Promotion.Status)
	assert.Equal(t, 1, rec.waitlisted, "only the original request counts as waitlisted")
	assert.Equal(t, 1, rec.requeued)
	assert.Equal(t, 0, rec.promoted)
	assert.Equal(t, []string{
		events.BookingConfirmed,
		events.BookingConfirmed,
		events.BookingWaitlisted,
		events.BookingCancelled,
		events.BookingRequeued,
	}, pub.keys())
}

// Seat numbers follow the occupancy count, so they can repeat among active
// bookings once a seat other than the last is cancelled.
func TestBookTicket_SeatNumberFollowsOccupancy(t *testing.T) {
	svc, _ := newTestService(t, sampleTrain("T1", 3, 100))
	ctx := context.Background()

	first, _ := svc.BookTicket(ctx, "T1", passenger("A"))
	_, _ = svc.BookTicket(ctx, "T1", passenger("B"))
	third, _ := svc.BookTicket(ctx, "T1", passenger("C"))
	require.Equal(t, 3, third.Passenger.SeatNo)

	_, err := svc.CancelTicket(ctx, first.Passenger.PNR)
	require.NoError(t, err)
	next, err := svc.BookTicket(ctx, "T1", passenger("D"))
	require.NoError(t, err)

	assert.Equal(t, 3, next.Passenger.SeatNo)
	assert.InDelta(t, 103.0, next.Passenger.Fare, 1e-9)
	var seats []int
	for _, p := range svc.ListPassengers(ctx) {
		seats = append(seats, p.SeatNo)
	}
	assert.Equal(t, []int{2, 3, 3}, seats)
}

func TestRecordsMetrics(t *testing.T) {
	svc, _ := newTestService(t, sampleTrain("T1", 1, 100))
	rec := newMockRecorder()
	svc.metrics = rec
	ctx := context.Background()

	a, _ := svc.BookTicket(ctx, "T1", passenger("A"))
	_, _ = svc.BookTicket(ctx, "T1", passenger("B"))
	_, _ = svc.CancelTicket(ctx, a.Passenger.PNR)

	assert.Equal(t, 2, rec.confirmed)
	assert.Equal(t, 1, rec.waitlisted)
	assert.Equal(t, 1, rec.cancelled)
	assert.Equal(t, 1, rec.promoted)
	assert.Equal(t, 1, rec.seats["T1"])
}

func TestSeatInvariant_UnderMixedOperations(t *testing.T) {
	svc, _ := newTestService(t, sampleTrain("T1", 3, 100), sampleTrain("T2", 2, 80))
	ctx := context.Background()

	var pnrs []string
	for i := range 20 {
		trainID := "T1"
		if i%3 == 0 {
			trainID = "T2"
		}
		res, err := svc.BookTicket(ctx, trainID, passenger(fmt.Sprintf("P%d", i)))
		require.NoError(t, err)
		if res.Status == models.StatusConfirmed {
			pnrs = append(pnrs, res.Passenger.PNR)
		}
		if i%4 == 3 && len(pnrs) > 0 {
			_, err := svc.CancelTicket(ctx, pnrs[0])
			require.NoError(t, err)
			pnrs = pnrs[1:]
		}
		assertLedgerConsistent(t, svc)
	}
}

func TestConcurrentBooking_NoOverbooking(t *testing.T) {
	svc, _ := newTestService(t, sampleTrain("T1", 50, 100))
	svc.newPNR = generatePNR
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := range 60 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.BookTicket(ctx, "T1", passenger(fmt.Sprintf("user-%03d", i)))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 50, mustFindTrain(t, svc, "T1").BookedSeats)
	assert.Len(t, svc.ListPassengers(ctx), 50)
	assert.Len(t, svc.ListWaiting(ctx), 10)
	assertLedgerConsistent(t, svc)
}

func assertLedgerConsistent(t *testing.T, svc ReservationService) {
	t.Helper()
	ctx := context.Background()
	perTrain := map[string]int{}
	seen := map[string]bool{}
	for _, p := range svc.ListPassengers(ctx) {
		assert.False(t, seen[p.PNR], "duplicate PNR %s", p.PNR)
		seen[p.PNR] = true
		perTrain[p.TrainID]++
	}
	for _, tr := range svc.ListTrains(ctx) {
		assert.GreaterOrEqual(t, tr.BookedSeats, 0)
		assert.LessOrEqual(t, tr.BookedSeats, tr.TotalSeats)
		assert.Equal(t, perTrain[tr.TrainID], tr.BookedSeats, "train %s", tr.TrainID)
	}
}

func names(ps []models.Passenger) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.Name
	}
	return out
}

package handler

import (
	"context"
	"net/http/httptest"
	"strings"

	"github.com/Eursukkul/railconnect/internal/models"
	"github.com/Eursukkul/railconnect/internal/service"
	"github.com/labstack/echo/v4"
)

// --- Mock ReservationService ---

type mockReservationService struct {
	addTrainFn       func(ctx context.Context, train models.Train) error
	searchTrainsFn   func(ctx context.Context, source, destination string) []models.Train
	findTrainFn      func(ctx context.Context, id string) (models.Train, bool)
	bookTicketFn     func(ctx context.Context, trainID string, req models.BookingRequest) (*service.BookingResult, error)
	cancelTicketFn   func(ctx context.Context, pnr string) (*service.CancelResult, error)
	findPassengerFn  func(ctx context.Context, pnr string) (models.Passenger, bool)
	listTrainsFn     func(ctx context.Context) []models.Train
	listPassengersFn func(ctx context.Context) []models.Passenger
	listWaitingFn    func(ctx context.Context) []models.Passenger
}

func (m *mockReservationService) AddTrain(ctx context.Context, train models.Train) error {
	return m.addTrainFn(ctx, train)
}
func (m *mockReservationService) SearchTrains(ctx context.Context, source, destination string) []models.Train {
	return m.searchTrainsFn(ctx, source, destination)
}
func (m *mockReservationService) FindTrain(ctx context.Context, id string) (models.Train, bool) {
	return m.findTrainFn(ctx, id)
}
func (m *mockReservationService) BookTicket(ctx context.Context, trainID string, req models.BookingRequest) (*service.BookingResult, error) {
	return m.bookTicketFn(ctx, trainID, req)
}
func (m *mockReservationService) CancelTicket(ctx context.Context, pnr string) (*service.CancelResult, error) {
	return m.cancelTicketFn(ctx, pnr)
}
func (m *mockReservationService) FindPassenger(ctx context.Context, pnr string) (models.Passenger, bool) {
	return m.findPassengerFn(ctx, pnr)
}
func (m *mockReservationService) ListTrains(ctx context.Context) []models.Train {
	return m.listTrainsFn(ctx)
}
func (m *mockReservationService) ListPassengers(ctx context.Context) []models.Passenger {
	return m.listPassengersFn(ctx)
}
func (m *mockReservationService) ListWaiting(ctx context.Context) []models.Passenger {
	return m.listWaitingFn(ctx)
}
func (m *mockReservationService) Close() {}

func newContext(method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func httpCode(err error) int {
	if he, ok := err.(*echo.HTTPError); ok {
		return he.Code
	}
	return 0
}

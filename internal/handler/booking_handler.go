package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/Eursukkul/railconnect/internal/dto"
	"github.com/Eursukkul/railconnect/internal/models"
	"github.com/Eursukkul/railconnect/internal/service"
	"github.com/labstack/echo/v4"
)

type BookingHandler struct {
	svc service.ReservationService
}

func NewBookingHandler(svc service.ReservationService) *BookingHandler {
	return &BookingHandler{svc: svc}
}

func (h *BookingHandler) RegisterRoutes(e *echo.Echo) {
	e.POST("/api/v1/trains/:id/bookings", h.BookTicket)

	bookings := e.Group("/api/v1/bookings")
	bookings.GET("", h.ListBookings)
	bookings.GET("/:pnr", h.GetBooking)
	bookings.DELETE("/:pnr", h.CancelBooking)

	e.GET("/api/v1/waiting", h.ListWaiting)
}

func (h *BookingHandler) BookTicket(c echo.Context) error {
	trainID := strings.TrimSpace(c.Param("id"))
	if trainID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid train id")
	}

	var req dto.BookTicketRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	booking := req.ToBookingRequest()
	switch {
	case booking.Name == "":
		return echo.NewHTTPError(http.StatusBadRequest, "name is required")
	case booking.Age <= 0:
		return echo.NewHTTPError(http.StatusBadRequest, "age must be positive")
	case booking.Gender == "":
		return echo.NewHTTPError(http.StatusBadRequest, "gender is required")
	}

	result, err := h.svc.BookTicket(c.Request().Context(), trainID, booking)
	if err != nil {
		if errors.Is(err, service.ErrTrainNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	code := http.StatusCreated
	if result.Status == models.StatusWaitlisted {
		code = http.StatusAccepted
	}
	return c.JSON(code, dto.ToBookingResponse(result))
}

func (h *BookingHandler) CancelBooking(c echo.Context) error {
	pnr := normalizePNR(c.Param("pnr"))
	if pnr == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid pnr")
	}

	result, err := h.svc.CancelTicket(c.Request().Context(), pnr)
	if err != nil {
		if errors.Is(err, service.ErrPassengerNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, dto.ToCancelResponse(result))
}

func (h *BookingHandler) GetBooking(c echo.Context) error {
	pnr := normalizePNR(c.Param("pnr"))
	if pnr == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid pnr")
	}

	p, ok := h.svc.FindPassenger(c.Request().Context(), pnr)
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, service.ErrPassengerNotFound.Error())
	}

	return c.JSON(http.StatusOK, dto.ToPassengerResponse(p))
}

func (h *BookingHandler) ListBookings(c echo.Context) error {
	ctx := c.Request().Context()
	passengers := h.svc.ListPassengers(ctx)

	if trainID := strings.TrimSpace(c.QueryParam("train_id")); trainID != "" {
		filtered := passengers[:0]
		for _, p := range passengers {
			if p.TrainID == trainID {
				filtered = append(filtered, p)
			}
		}
		passengers = filtered
	}

	return c.JSON(http.StatusOK, dto.ToPassengerResponses(passengers))
}

func (h *BookingHandler) ListWaiting(c echo.Context) error {
	waiting := h.svc.ListWaiting(c.Request().Context())
	return c.JSON(http.StatusOK, dto.ToWaitingResponses(waiting))
}

// PNRs are issued uppercase.
func normalizePNR(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

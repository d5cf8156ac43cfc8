package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/Eursukkul/railconnect/internal/dto"
	"github.com/Eursukkul/railconnect/internal/service"
	"github.com/labstack/echo/v4"
)

type TrainHandler struct {
	svc service.ReservationService
}

func NewTrainHandler(svc service.ReservationService) *TrainHandler {
	return &TrainHandler{svc: svc}
}

func (h *TrainHandler) RegisterRoutes(g *echo.Group) {
	g.POST("", h.AddTrain)
	g.GET("", h.ListTrains)
	g.GET("/search", h.SearchTrains)
	g.GET("/:id", h.GetTrain)
}

func (h *TrainHandler) AddTrain(c echo.Context) error {
	var req dto.CreateTrainRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	train := req.ToTrain()
	if err := train.Validate(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	resp := dto.AddTrainResponse{Persisted: true}
	if err := h.svc.AddTrain(c.Request().Context(), train); err != nil {
		if !errors.Is(err, service.ErrPersistenceFailed) {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		resp.Persisted = false
		resp.Warning = err.Error()
	}
	resp.Train = dto.ToTrainResponse(train)

	return c.JSON(http.StatusCreated, resp)
}

func (h *TrainHandler) ListTrains(c echo.Context) error {
	trains := h.svc.ListTrains(c.Request().Context())
	return c.JSON(http.StatusOK, dto.ToTrainResponses(trains))
}

func (h *TrainHandler) SearchTrains(c echo.Context) error {
	source := strings.TrimSpace(c.QueryParam("source"))
	destination := strings.TrimSpace(c.QueryParam("destination"))
	if source == "" || destination == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "source and destination are required")
	}

	trains := h.svc.SearchTrains(c.Request().Context(), source, destination)
	return c.JSON(http.StatusOK, dto.ToTrainResponses(trains))
}

func (h *TrainHandler) GetTrain(c echo.Context) error {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid train id")
	}

	train, ok := h.svc.FindTrain(c.Request().Context(), id)
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, service.ErrTrainNotFound.Error())
	}

	return c.JSON(http.StatusOK, dto.ToTrainResponse(train))
}

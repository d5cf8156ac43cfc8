package main

import (
	"context"
	"log"
	"net/http"

	"github.com/Eursukkul/railconnect/config"
	"github.com/Eursukkul/railconnect/internal/consumer"
	"github.com/Eursukkul/railconnect/internal/handler"
	"github.com/Eursukkul/railconnect/internal/metrics"
	"github.com/Eursukkul/railconnect/internal/middleware"
	"github.com/Eursukkul/railconnect/internal/repository"
	"github.com/Eursukkul/railconnect/internal/service"
	"github.com/Eursukkul/railconnect/pkg/database"
	"github.com/Eursukkul/railconnect/pkg/rabbitmq"
	"github.com/labstack/echo/v4"
	echoMw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/afero"
)

func main() {
	cfg := config.Load()

	// Persistence
	var gateway repository.Gateway
	switch cfg.StorageDriver {
	case config.StoragePostgres:
		db := database.NewPostgresDB(cfg.DSN(), repository.Tables()...)
		gateway = repository.NewPostgresGateway(db)
	default:
		gateway = repository.NewFileGateway(afero.NewOsFs(), cfg.TrainsPath(), cfg.BookingsPath())
	}

	snap, err := gateway.Load(context.Background())
	if snap == nil {
		log.Fatalf("failed to load reservation state: %v", err)
	}
	if err != nil {
		log.Printf("reservation state loaded with errors: %v", err)
	}

	// Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder := metrics.New(reg)

	// RabbitMQ publisher: booking lifecycle events
	var publisher service.EventPublisher
	if cfg.RabbitURL != "" {
		p, err := rabbitmq.NewPublisher(cfg.RabbitURL)
		if err != nil {
			log.Fatalf("failed to connect to RabbitMQ: %v", err)
		}
		defer p.Close()
		publisher = p
	} else {
		log.Println("RABBITMQ_URL not set, event publishing and train feed disabled")
	}

	// Service
	reservationSvc := service.NewReservationService(snap, gateway, publisher, recorder)
	defer reservationSvc.Close()

	// RabbitMQ consumer: trains announced by other services
	if cfg.RabbitURL != "" {
		mqConsumer, err := rabbitmq.NewConsumer(cfg.RabbitURL, consumer.TrainQueueName, consumer.TrainBindingKey)
		if err != nil {
			log.Fatalf("failed to connect to RabbitMQ: %v", err)
		}
		defer mqConsumer.Close()

		msgs, err := mqConsumer.Consume()
		if err != nil {
			log.Fatalf("failed to start consuming: %v", err)
		}
		consumer.NewTrainConsumer(reservationSvc).Start(msgs)
	}

	// Echo
	e := echo.New()
	e.HTTPErrorHandler = middleware.ErrorHandler
	e.Use(echoMw.RequestLoggerWithConfig(echoMw.RequestLoggerConfig{
		LogStatus: true,
		LogURI:    true,
		LogMethod: true,
		LogValuesFunc: func(c echo.Context, v echoMw.RequestLoggerValues) error {
			log.Printf("%s %s %d", v.Method, v.URI, v.Status)
			return nil
		},
	}))
	e.Use(echoMw.Recover())

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok", "service": "railconnect", "storage": cfg.StorageDriver})
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})))

	handler.NewTrainHandler(reservationSvc).RegisterRoutes(e.Group("/api/v1/trains"))
	handler.NewBookingHandler(reservationSvc).RegisterRoutes(e)

	log.Printf("RailConnect starting on :%s", cfg.ServerPort)
	e.Logger.Fatal(e.Start(":" + cfg.ServerPort))
}

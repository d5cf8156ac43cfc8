package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "railconnect"

// Metrics records reservation activity as prometheus series.
type Metrics struct {
	bookings            *prometheus.CounterVec
	promotions          *prometheus.CounterVec
	requeues            *prometheus.CounterVec
	persistenceFailures *prometheus.CounterVec
	seatsBooked         *prometheus.GaugeVec
	seatsTotal          *prometheus.GaugeVec
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		bookings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bookings_total",
			Help:      "Booking outcomes by status and train.",
		}, []string{"status", "train_id"}),
		promotions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "waiting_promotions_total",
			Help:      "Waiting-list entries confirmed after a cancellation.",
		}, []string{"train_id"}),
		requeues: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "waiting_requeues_total",
			Help:      "Waiting-list heads put back at the tail because their train was still full.",
		}, []string{"train_id"}),
		persistenceFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "persistence_failures_total",
			Help:      "Failed state saves by operation.",
		}, []string{"operation"}),
		seatsBooked: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "train_seats_booked",
			Help:      "Seats currently booked per train.",
		}, []string{"train_id"}),
		seatsTotal: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "train_seats_total",
			Help:      "Seat capacity per train.",
		}, []string{"train_id"}),
	}
	reg.MustRegister(m.bookings, m.promotions, m.requeues, m.persistenceFailures, m.seatsBooked, m.seatsTotal)
	return m
}

func (m *Metrics) BookingConfirmed(trainID string) {
	m.bookings.WithLabelValues("confirmed", trainID).Inc()
}

func (m *Metrics) BookingWaitlisted(trainID string) {
	m.bookings.WithLabelValues("waitlisted", trainID).Inc()
}

func (m *Metrics) BookingCancelled(trainID string) {
	m.bookings.WithLabelValues("cancelled", trainID).Inc()
}

func (m *Metrics) PassengerPromoted(trainID string) {
	m.promotions.WithLabelValues(trainID).Inc()
}

func (m *Metrics) PassengerRequeued(trainID string) {
	m.requeues.WithLabelValues(trainID).Inc()
}

func (m *Metrics) PersistenceFailed(operation string) {
	m.persistenceFailures.WithLabelValues(operation).Inc()
}

// SeatsBooked sets the occupancy gauges. With duplicate train ids the last update wins.
func (m *Metrics) SeatsBooked(trainID string, booked, total int) {
	m.seatsBooked.WithLabelValues(trainID).Set(float64(booked))
	m.seatsTotal.WithLabelValues(trainID).Set(float64(total))
}


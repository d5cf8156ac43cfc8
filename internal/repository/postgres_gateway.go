package repository

import (
	"context"
	"fmt"
	"log"

	"github.com/Eursukkul/railconnect/internal/models"
	"gorm.io/gorm"
)

const insertBatchSize = 200

// Rows carry a seq column so collection order survives a reload.
type trainRow struct {
	Seq         int     `gorm:"primaryKey;autoIncrement:false"`
	TrainID     string  `gorm:"type:varchar(32);not null;index"`
	Name        string  `gorm:"not null"`
	Source      string  `gorm:"not null"`
	Destination string  `gorm:"not null"`
	TotalSeats  int     `gorm:"not null"`
	BookedSeats int     `gorm:"not null;default:0"`
	BaseFare    float64 `gorm:"not null"`
}

func (trainRow) TableName() string { return "trains" }

type passengerRow struct {
	Seq     int     `gorm:"primaryKey;autoIncrement:false"`
	PNR     string  `gorm:"column:pnr;type:varchar(8);not null;uniqueIndex"`
	Name    string  `gorm:"not null"`
	Age     int     `gorm:"not null"`
	Gender  string  `gorm:"not null"`
	TrainID string  `gorm:"type:varchar(32);not null;index"`
	SeatNo  int     `gorm:"not null"`
	Fare    float64 `gorm:"not null"`
}

func (passengerRow) TableName() string { return "passengers" }

type waitingRow struct {
	Seq     int    `gorm:"primaryKey;autoIncrement:false"`
	Name    string `gorm:"not null"`
	Age     int    `gorm:"not null"`
	Gender  string `gorm:"not null"`
	TrainID string `gorm:"type:varchar(32);not null"`
}

func (waitingRow) TableName() string { return "waiting_entries" }

// Tables lists the models the postgres gateway needs migrated.
func Tables() []any {
	return []any{&trainRow{}, &passengerRow{}, &waitingRow{}}
}

type postgresGateway struct {
	db *gorm.DB
}

func NewPostgresGateway(db *gorm.DB) Gateway {
	return &postgresGateway{db: db}
}

func (g *postgresGateway) Load(ctx context.Context) (*models.Snapshot, error) {
	db := g.db.WithContext(ctx)

	var trains []trainRow
	if err := db.Order("seq ASC").Find(&trains).Error; err != nil {
		return nil, fmt.Errorf("load trains: %w", err)
	}
	var passengers []passengerRow
	if err := db.Order("seq ASC").Find(&passengers).Error; err != nil {
		return nil, fmt.Errorf("load passengers: %w", err)
	}
	var waiting []waitingRow
	if err := db.Order("seq ASC").Find(&waiting).Error; err != nil {
		return nil, fmt.Errorf("load waiting entries: %w", err)
	}

	snap := &models.Snapshot{
		Trains:     make([]models.Train, 0, len(trains)),
		Passengers: make([]models.Passenger, 0, len(passengers)),
		Waiting:    make([]models.Passenger, 0, len(waiting)),
	}
	for _, r := range trains {
		snap.Trains = append(snap.Trains, models.Train{
			TrainID:     r.TrainID,
			Name:        r.Name,
			Source:      r.Source,
			Destination: r.Destination,
			TotalSeats:  r.TotalSeats,
			BookedSeats: r.BookedSeats,
			BaseFare:    r.BaseFare,
		})
	}
	for _, r := range passengers {
		snap.Passengers = append(snap.Passengers, models.Passenger{
			Name:    r.Name,
			Age:     r.Age,
			Gender:  r.Gender,
			PNR:     r.PNR,
			TrainID: r.TrainID,
			SeatNo:  r.SeatNo,
			Fare:    r.Fare,
		})
	}
	for _, r := range waiting {
		snap.Waiting = append(snap.Waiting, models.Passenger{
			Name:    r.Name,
			Age:     r.Age,
			Gender:  r.Gender,
			TrainID: r.TrainID,
		})
	}

	if len(snap.Trains) == 0 {
		log.Println("[PostgresGateway] no trains stored, seeding defaults")
		snap.Trains = models.DefaultTrains()
		if err := g.Save(ctx, snap); err != nil {
			return snap, fmt.Errorf("persist seeded trains: %w", err)
		}
	}
	return snap, nil
}

// Save replaces every row inside one transaction.
func (g *postgresGateway) Save(ctx context.Context, snap *models.Snapshot) error {
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, table := range []string{"waiting_entries", "passengers", "trains"} {
			if err := tx.Exec("DELETE FROM " + table).Error; err != nil {
				return fmt.Errorf("clear %s: %w", table, err)
			}
		}

		if rows := toTrainRows(snap.Trains); len(rows) > 0 {
			if err := tx.CreateInBatches(rows, insertBatchSize).Error; err != nil {
				return fmt.Errorf("insert trains: %w", err)
			}
		}
		if rows := toPassengerRows(snap.Passengers); len(rows) > 0 {
			if err := tx.CreateInBatches(rows, insertBatchSize).Error; err != nil {
				return fmt.Errorf("insert passengers: %w", err)
			}
		}
		if rows := toWaitingRows(snap.Waiting); len(rows) > 0 {
			if err := tx.CreateInBatches(rows, insertBatchSize).Error; err != nil {
				return fmt.Errorf("insert waiting entries: %w", err)
			}
		}
		return nil
	})
}

func toTrainRows(trains []models.Train) []trainRow {
	rows := make([]trainRow, len(trains))
	for i, t := range trains {
		rows[i] = trainRow{
			Seq:         i,
			TrainID:     t.TrainID,
			Name:        t.Name,
			Source:      t.Source,
			Destination: t.Destination,
			TotalSeats:  t.TotalSeats,
			BookedSeats: t.BookedSeats,
			BaseFare:    t.BaseFare,
		}
	}
	return rows
}

func toPassengerRows(ps []models.Passenger) []passengerRow {
	rows := make([]passengerRow, len(ps))
	for i, p := range ps {
		rows[i] = passengerRow{
			Seq:     i,
			PNR:     p.PNR,
			Name:    p.Name,
			Age:     p.Age,
			Gender:  p.Gender,
			TrainID: p.TrainID,
			SeatNo:  p.SeatNo,
			Fare:    p.Fare,
		}
	}
	return rows
}

func toWaitingRows(ps []models.Passenger) []waitingRow {
	rows := make([]waitingRow, len(ps))
	for i, p := range ps {
		rows[i] = waitingRow{
			Seq:     i,
			Name:    p.Name,
			Age:     p.Age,
			Gender:  p.Gender,
			TrainID: p.TrainID,
		}
	}
	return rows
}

package consumer

import (
	"context"
	"log"

	"github.com/Eursukkul/railconnect/internal/codec"
	"github.com/Eursukkul/railconnect/internal/events"
	"github.com/Eursukkul/railconnect/internal/models"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	TrainQueueName  = "railconnect.trains"
	TrainBindingKey = events.TrainCreated
)

type TrainAdder interface {
	AddTrain(ctx context.Context, train models.Train) error
}

// TrainConsumer registers trains announced on the train feed.
type TrainConsumer struct {
	trains TrainAdder
}

func NewTrainConsumer(trains TrainAdder) *TrainConsumer {
	return &TrainConsumer{trains: trains}
}

// Start handles deliveries until msgs is closed. The returned channel is closed
// once the consumer has stopped.
func (tc *TrainConsumer) Start(msgs <-chan amqp.Delivery) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for msg := range msgs {
			tc.handleMessage(msg)
		}
		log.Println("[TrainConsumer] channel closed, stopping consumer")
	}()
	return done
}

func (tc *TrainConsumer) handleMessage(msg amqp.Delivery) {
	train, err := codec.DecodeTrain(msg.Body)
	if err == nil {
		err = train.Validate()
	}
	if err != nil {
		log.Printf("[TrainConsumer] rejected message: %v", err)
		msg.Nack(false, false)
		return
	}

	// A save failure still leaves the train registered, so the message is acked.
	if err := tc.trains.AddTrain(context.Background(), train); err != nil {
		log.Printf("[TrainConsumer] train %s added but not persisted: %v", train.TrainID, err)
	}

	log.Printf("[TrainConsumer] registered train %s: %s", train.TrainID, train.Name)
	msg.Ack(false)
}

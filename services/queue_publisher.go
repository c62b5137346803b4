package services

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/cafe-app/models"
	"github.com/yeremiapane/cafe-app/utils"
)

const publishTimeout = 5 * time.Second

var eventQueues = map[string]string{
	models.EventOrderCreated:   "order.created",
	models.EventOrderStatus:    "order.status_changed",
	models.EventPointsCredited: "order.points_credited",
}

// QueuePublisher sends order events to RabbitMQ as persistent JSON
// messages. Publishing happens off the request goroutine and failures are
// only logged.
type QueuePublisher struct {
	url  string
	dial func(url string) (*amqp.Connection, error)
}

// NewQueuePublisher returns a no-op publisher when url is empty.
func NewQueuePublisher(url string) EventPublisher {
	if url == "" {
		return noopPublisher{}
	}
	return &QueuePublisher{url: url, dial: amqp.Dial}
}

func (p *QueuePublisher) Publish(_ context.Context, ev models.OrderEvent) {
	queue, ok := eventQueues[ev.Event]
	if !ok {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()
		if err := p.publish(ctx, queue, ev); err != nil {
			utils.ErrorLogger.WithFields(logrus.Fields{
				"queue":    queue,
				"order_id": ev.OrderID,
			}).Errorf("rabbitmq publish failed: %v", err)
		}
	}()
}

func (p *QueuePublisher) publish(ctx context.Context, queue string, ev models.OrderEvent) error {
	conn, err := p.dial(p.url)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return err
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return err
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	return ch.PublishWithContext(ctx, "", queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
}

package realtime

import (
	"context"
	"errors"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"foodcourt/internal/common/config"
	"foodcourt/internal/connections/rabbitmq"
)

// AMQPTransport receives events from a fanout exchange. The event name travels in the
// message Type property and the JSON payload in the body.
type AMQPTransport struct {
	cfg      config.MQ
	exchange string
	consumer string
}

func NewAMQPTransport(cfg config.MQ, exchange, consumer string) *AMQPTransport {
	return &AMQPTransport{cfg: cfg, exchange: exchange, consumer: consumer}
}

func (t *AMQPTransport) Dial(ctx context.Context) (Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	client, err := rabbitmq.Dial(t.cfg)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	deliveries, err := client.SubscribeFanout(t.exchange, t.consumer)
	if err != nil {
		client.Close()
		return nil, err
	}
	return &amqpStream{client: client, deliveries: deliveries, closed: client.NotifyClose()}, nil
}

type amqpStream struct {
	client     *rabbitmq.Client
	deliveries <-chan amqp.Delivery
	closed     <-chan *amqp.Error
}

func (s *amqpStream) Next(ctx context.Context) (Frame, error) {
	select {
	case <-ctx.Done():
		return Frame{}, ctx.Err()
	case err, ok := <-s.closed:
		if ok && err != nil {
			return Frame{}, err
		}
		return Frame{}, errors.New("rabbitmq connection closed")
	case d, ok := <-s.deliveries:
		if !ok {
			return Frame{}, errors.New("rabbitmq delivery channel closed")
		}
		return deliveryFrame(d), nil
	}
}

func (s *amqpStream) Close() error {
	s.client.Close()
	return nil
}

func deliveryFrame(d amqp.Delivery) Frame {
	f := Frame{Name: d.Type}
	if len(d.Body) > 0 {
		f.Payload = d.Body
	}
	return f
}

// Publishing renders f as an AMQP message for the fanout exchange.
func Publishing(f Frame) amqp.Publishing {
	return amqp.Publishing{
		ContentType: "application/json",
		Type:        f.Name,
		Body:        f.Payload,
	}
}

// Package events публикует доменные события сервера в RabbitMQ.
package events

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/iedcs-server/internal/config"
	"github.com/magabrotheeeer/iedcs-server/internal/lib/rabbitmq"
)

// Publisher отправляет событие с ключом маршрутизации
type Publisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
}

// AccountRegistered событие регистрации аккаунта
type AccountRegistered struct {
	AccountID string    `json:"account_id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	At        time.Time `json:"at"`
}

// OrderCreated событие оформления заказа
type OrderCreated struct {
	OrderID         int       `json:"order_id"`
	AccountID       string    `json:"account_id"`
	BooksIdentifier []string  `json:"books_identifier"`
	At              time.Time `json:"at"`
}

// DeviceRegistered событие регистрации устройства
type DeviceRegistered struct {
	DeviceID         int       `json:"device_id"`
	AccountID        string    `json:"account_id"`
	UniqueIdentifier string    `json:"unique_identifier"`
	At               time.Time `json:"at"`
}

// AMQPPublisher публикует события в exchange. amqp.Channel не потокобезопасен, поэтому публикация идет под мьютексом.
type AMQPPublisher struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
}

// NewAMQPPublisher подключается к брокеру и объявляет exchange с очередями событий
func NewAMQPPublisher(cfg config.RabbitMQ) (*AMQPPublisher, error) {
	const op = "events.NewAMQPPublisher"
	conn, err := rabbitmq.Connect(cfg.URL, cfg.Retries, cfg.Delay)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	ch, err := rabbitmq.SetupChannel(conn, cfg.ExchangeName, rabbitmq.EventQueues())
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &AMQPPublisher{conn: conn, ch: ch, exchange: cfg.ExchangeName}, nil
}

func (p *AMQPPublisher) Publish(ctx context.Context, routingKey string, payload any) error {
	const op = "events.Publish"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := rabbitmq.PublishMessage(p.ch, p.exchange, routingKey, payload); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.ch.Close(); err != nil {
		_ = p.conn.Close()
		return err
	}
	return p.conn.Close()
}

// NopPublisher используется, когда брокер не настроен
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, any) error { return nil }

// Package rabbitmq publishes score lifecycle events to an exchange so
// downstream consumers (alerting, exports) can react without polling the API.
package rabbitmq

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/apex/log"
	"github.com/streadway/amqp"

	"carehome-insights/models"
)

// RoutingKeyScoreUpdated is attached to every rescoring event.
const RoutingKeyScoreUpdated = "score.updated"

// Publisher represents a RabbitMQ publisher instance. A nil Publisher is
// valid and drops every message, which is how the service runs when no
// broker is configured.
type Publisher struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
}

// NewPublisher connects to RabbitMQ and declares the events exchange.
func NewPublisher(amqpURL, exchangeName string) (*Publisher, error) {
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	err = channel.ExchangeDeclare(
		exchangeName, // name
		"direct",     // type
		true,         // durable
		false,        // auto-deleted
		false,        // internal
		false,        // no-wait
		nil,          // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	return &Publisher{
		conn:     conn,
		channel:  channel,
		exchange: exchangeName,
	}, nil
}

// PublishScoreUpdate emits a score.updated event for a rescored home.
func (p *Publisher) PublishScoreUpdate(update models.ScoreUpdate) error {
	if p == nil {
		return nil
	}

	body, err := json.Marshal(update)
	if err != nil {
		return fmt.Errorf("failed to marshal score update: %w", err)
	}

	publishing := amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
	}

	err = p.channel.Publish(
		p.exchange,             // exchange
		RoutingKeyScoreUpdated, // routing key
		false,                  // mandatory
		false,                  // immediate
		publishing,             // message
	)
	if err != nil {
		return fmt.Errorf("failed to publish score update: %w", err)
	}

	log.Debugf("Published score update for home %s to exchange %s", update.HomeID, p.exchange)
	return nil
}

// Close closes the publisher connection and channel
func (p *Publisher) Close() error {
	if p == nil {
		return nil
	}

	var err error

	if p.channel != nil {
		if channelErr := p.channel.Close(); channelErr != nil {
			log.Errorf("Failed to close channel: %v", channelErr)
			err = channelErr
		}
	}

	if p.conn != nil {
		if connErr := p.conn.Close(); connErr != nil {
			log.Errorf("Failed to close connection: %v", connErr)
			if err == nil {
				err = connErr
			}
		}
	}

	return err
}

// IsConnected checks if the publisher is still connected
func (p *Publisher) IsConnected() bool {
	if p == nil || p.conn == nil || p.channel == nil {
		return false
	}

	select {
	case <-p.conn.NotifyClose(make(chan *amqp.Error)):
		return false
	default:
		return true
	}
}

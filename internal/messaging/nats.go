package messaging

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"

	"github.com/schrutebeet/stock-market/pkg/config"
)

// StoredEvent announces that one table of quotes was persisted.
type StoredEvent struct {
	Symbol    string    `json:"symbol"`
	Schema    string    `json:"schema"`
	Table     string    `json:"table"`
	Period    string    `json:"period"`
	Rows      int       `json:"rows"`
	Timestamp time.Time `json:"timestamp"`
}

// NATSClient publishes pipeline events for downstream consumers.
type NATSClient struct {
	conn   *nats.Conn
	logger *logrus.Entry
}

// NewNATSClient creates a new NATS client
func NewNATSClient(cfg *config.NATSConfig, logger *logrus.Logger) (*NATSClient, error) {
	opts := []nats.Option{
		nats.MaxReconnects(cfg.MaxReconnect),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			logger.WithError(err).Warn("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("NATS reconnected")
		}),
	}

	conn, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &NATSClient{
		conn:   conn,
		logger: logger.WithField("component", "nats"),
	}, nil
}

// Close closes the NATS connection
func (nc *NATSClient) Close() error {
	nc.conn.Close()
	return nil
}

// IsConnected checks if NATS is connected
func (nc *NATSClient) IsConnected() bool {
	return nc.conn.IsConnected()
}

// PublishStored publishes a quotes.stored.<symbol> event.
func (nc *NATSClient) PublishStored(event StoredEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	subject := fmt.Sprintf("quotes.stored.%s", sanitizeSubject(event.Symbol))
	if err := nc.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", subject, err)
	}

	nc.logger.WithFields(logrus.Fields{
		"subject": subject,
		"rows":    event.Rows,
	}).Debug("Published stored event")

	return nil
}

// sanitizeSubject keeps NATS subject tokens free of separators.
func sanitizeSubject(symbol string) string {
	symbol = strings.ToLower(symbol)
	symbol = strings.ReplaceAll(symbol, "/", "-")
	return strings.ReplaceAll(symbol, ".", "-")
}

package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"stellar-network-explorer/internal/domain/entity"
	"stellar-network-explorer/internal/domain/service"
	"stellar-network-explorer/internal/infrastructure/config"
	"stellar-network-explorer/internal/infrastructure/logger"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// NATSPublisher announces completed collection runs over NATS. JetStream is
// preferred for durability; when the server runs without it the publisher
// falls back to core NATS.
type NATSPublisher struct {
	conn   *nats.Conn
	js     nats.JetStreamContext
	config *config.NATSConfig
	logger *logger.Logger
}

// NewNATSPublisher creates a new NATS publisher
func NewNATSPublisher(cfg *config.NATSConfig, logger *logger.Logger) *NATSPublisher {
	return &NATSPublisher{
		config: cfg,
		logger: logger.WithComponent("nats-publisher"),
	}
}

// Connect connects to the NATS server. With NATS disabled in config the
// publisher stays a no-op and every publish succeeds silently.
func (n *NATSPublisher) Connect(ctx context.Context) error {
	if !n.config.Enabled {
		n.logger.Info("NATS is disabled, skipping connection")
		return nil
	}

	n.logger.Info("Connecting to NATS server", zap.String("url", n.config.URL))

	opts := []nats.Option{
		nats.Name("stellar-network-explorer"),
		nats.Timeout(n.config.ConnectTimeout),
		nats.ReconnectWait(n.config.ReconnectDelay),
		nats.MaxReconnects(n.config.ReconnectAttempts),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			n.logger.Warn("NATS disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			n.logger.Info("NATS reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			n.logger.Info("NATS connection closed")
		}),
	}

	conn, err := nats.Connect(n.config.URL, opts...)
	if err != nil {
		n.logger.Error("Failed to connect to NATS", zap.Error(err))
		return fmt.Errorf("failed to connect to NATS: %w", err)
	}

	n.conn = conn

	// Try JetStream first, if not available fall back to core NATS
	js, err := conn.JetStream()
	if err != nil {
		n.logger.Warn("JetStream not available, using core NATS", zap.Error(err))
		return nil
	}

	n.js = js
	if err := n.ensureStream(); err != nil {
		n.logger.Warn("Failed to ensure JetStream stream, using core NATS", zap.Error(err))
		n.js = nil
	}
	return nil
}

// ensureStream creates the collection event stream if it does not exist.
func (n *NATSPublisher) ensureStream() error {
	subject := n.subject()

	_, err := n.js.StreamInfo(n.config.StreamName)
	if err == nil {
		return nil
	}

	_, err = n.js.AddStream(&nats.StreamConfig{
		Name:     n.config.StreamName,
		Subjects: []string{subject},
		Storage:  nats.FileStorage,
	})
	if err != nil {
		return fmt.Errorf("failed to create stream %s: %w", n.config.StreamName, err)
	}

	n.logger.Info("Created JetStream stream",
		zap.String("stream", n.config.StreamName),
		zap.String("subject", subject))
	return nil
}

// Close closes the NATS connection
func (n *NATSPublisher) Close(ctx context.Context) error {
	if n.conn != nil {
		n.logger.Info("Closing NATS connection")
		n.conn.Close()
	}
	return nil
}

func (n *NATSPublisher) subject() string {
	return fmt.Sprintf("%s.collections.completed", n.config.SubjectPrefix)
}

// collectionCompletedEvent is the wire summary of one finished run. The full
// result stays out of the event: consumers that need it read the graph store.
type collectionCompletedEvent struct {
	Root               string    `json:"root"`
	AccountsDiscovered int       `json:"accounts_discovered"`
	AccountsSelected   int       `json:"accounts_selected"`
	TransferCount      int       `json:"transfer_count"`
	EdgeCount          int       `json:"edge_count"`
	ClusterCount       int       `json:"cluster_count"`
	TruncatedAccounts  []string  `json:"truncated_accounts,omitempty"`
	CollectedAt        time.Time `json:"collected_at"`
}

// PublishCollectionCompleted publishes a summary of the finished run.
func (n *NATSPublisher) PublishCollectionCompleted(ctx context.Context, result *entity.CollectionResult) error {
	if !n.config.Enabled || n.conn == nil {
		return nil
	}

	event := collectionCompletedEvent{
		Root:               result.Root,
		AccountsDiscovered: result.Diagnostics.AccountsDiscovered,
		AccountsSelected:   result.Diagnostics.AccountsSelected,
		TransferCount:      result.Diagnostics.FinalTransferCount,
		EdgeCount:          len(result.Edges),
		ClusterCount:       len(result.Clusters),
		TruncatedAccounts:  result.Diagnostics.TruncatedAccounts,
		CollectedAt:        result.CollectedAt,
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal collection event: %w", err)
	}

	subject := n.subject()
	if n.js != nil {
		if _, err := n.js.Publish(subject, payload); err != nil {
			return fmt.Errorf("failed to publish to JetStream: %w", err)
		}
	} else {
		if err := n.conn.Publish(subject, payload); err != nil {
			return fmt.Errorf("failed to publish to NATS: %w", err)
		}
	}

	n.logger.Info("Published collection completed event",
		zap.String("subject", subject),
		zap.String("root", entity.ShortID(result.Root)))
	return nil
}

var _ service.EventPublisher = (*NATSPublisher)(nil)

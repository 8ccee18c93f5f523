package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/viimsigame/terrain-server/internal/logging"
)

// NATSInvalidator реализует Invalidator через NATS Pub/Sub.
// Когда один узел перезагружает геоданные (оператор дернул /reload),
// остальные узлы сбрасывают свои кеши и подтянут свежие датасеты
// при следующем обращении.
type NATSInvalidator struct {
	conn         *nats.Conn
	subject      string
	nodeID       string
	subscription *nats.Subscription
}

// invalidationMessage представляет сообщение об инвалидации.
type invalidationMessage struct {
	Key       string    `json:"key"`
	Timestamp time.Time `json:"timestamp"`
	NodeID    string    `json:"node_id"`
}

// NewNATSInvalidator подключается к NATS и создаёт invalidator.
func NewNATSInvalidator(url, nodeID string) (*NATSInvalidator, error) {
	opts := []nats.Option{
		nats.MaxReconnects(10),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			logging.Warn("NATS отключен: %v", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logging.Info("NATS переподключен к %s", nc.ConnectedUrl())
		}),
	}

	conn, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	logging.Info("NATS invalidator подключен: %s", url)
	return &NATSInvalidator{
		conn:    conn,
		subject: "geodata.cache.invalidation",
		nodeID:  nodeID,
	}, nil
}

// PublishInvalidation отправляет уведомление об инвалидации датасета.
func (n *NATSInvalidator) PublishInvalidation(ctx context.Context, key string) error {
	msg := invalidationMessage{
		Key:       key,
		Timestamp: time.Now(),
		NodeID:    n.nodeID,
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal invalidation message: %w", err)
	}

	if err := n.conn.Publish(n.subject, data); err != nil {
		return fmt.Errorf("failed to publish invalidation: %w", err)
	}

	logging.Debug("Опубликована инвалидация кеша: %s", key)
	return nil
}

// SubscribeInvalidations подписывается на уведомления об инвалидации.
// Собственные сообщения узла игнорируются.
func (n *NATSInvalidator) SubscribeInvalidations(ctx context.Context, handler InvalidationHandler) error {
	if n.subscription != nil {
		return fmt.Errorf("already subscribed to invalidations")
	}

	sub, err := n.conn.Subscribe(n.subject, func(msg *nats.Msg) {
		var im invalidationMessage
		if err := json.Unmarshal(msg.Data, &im); err != nil {
			logging.Error("Некорректное сообщение инвалидации: %v", err)
			return
		}

		if im.NodeID == n.nodeID {
			return
		}

		if err := handler(im.Key); err != nil {
			logging.Error("Ошибка обработки инвалидации %s: %v", im.Key, err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe to invalidations: %w", err)
	}

	n.subscription = sub
	logging.Info("Подписка на инвалидацию кеша: %s", n.subject)
	return nil
}

// Close закрывает соединение с NATS.
func (n *NATSInvalidator) Close() error {
	if n.subscription != nil {
		_ = n.subscription.Unsubscribe()
	}
	n.conn.Close()
	return nil
}

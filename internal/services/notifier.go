package services

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"assessment-backend/internal/logger"
	"assessment-backend/internal/models"
)

// Notifier pushes an event to a user's live connections. Delivery is best effort.
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, msg models.WSMessage)
}

type RedisNotifier struct {
	redis *redis.Client
	log   *logger.Logger
}

func NewRedisNotifier(client *redis.Client, log *logger.Logger) *RedisNotifier {
	return &RedisNotifier{redis: client, log: log}
}

// Notify sends a WebSocket update via Redis pub/sub
func (n *RedisNotifier) Notify(ctx context.Context, userID uuid.UUID, msg models.WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		n.log.Warn("failed to encode update", "type", msg.Type, "error", err)
		return
	}
	if err := n.redis.Publish(ctx, models.UserChannel(userID), string(data)).Err(); err != nil {
		n.log.Warn("failed to publish update", "user_id", userID, "type", msg.Type, "error", err)
	}
}

// Package redis holds the Redis-backed conversation window store: a bounded,
// append-only cache of each user's most recent conversation turns, read when
// the client does not resend its own history.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/cedarwell/actbridge-backend/internal/ai"
	"github.com/cedarwell/actbridge-backend/internal/pkg/envutil"
	"github.com/cedarwell/actbridge-backend/internal/pkg/logger"
)

type ConversationWindow interface {
	Append(ctx context.Context, userID uuid.UUID, msg ai.Message) error
	// Recent returns up to n messages in chronological order.
	Recent(ctx context.Context, userID uuid.UUID, n int) ([]ai.Message, error)
	Close() error
}

type conversationWindow struct {
	log     *logger.Logger
	rdb     *goredis.Client
	keep    int64
	ttl     time.Duration
	keyBase string
}

func NewConversationWindow(log *logger.Logger) (ConversationWindow, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	addr := strings.TrimSpace(envutil.GetEnv("REDIS_ADDR", "", log))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	keep := envutil.GetEnvAsInt("CONVERSATION_WINDOW_KEEP", 50, log)

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &conversationWindow{
		log:     log.With("service", "ConversationWindow"),
		rdb:     rdb,
		keep:    int64(keep),
		ttl:     30 * 24 * time.Hour,
		keyBase: "conversation:window:",
	}, nil
}

// NewConversationWindowWithClient wires an existing client; tests use this
// with miniredis.
func NewConversationWindowWithClient(log *logger.Logger, rdb *goredis.Client, keep int) ConversationWindow {
	return &conversationWindow{
		log:     log.With("service", "ConversationWindow"),
		rdb:     rdb,
		keep:    int64(keep),
		ttl:     30 * 24 * time.Hour,
		keyBase: "conversation:window:",
	}
}

func (w *conversationWindow) key(userID uuid.UUID) string {
	return w.keyBase + userID.String()
}

func (w *conversationWindow) Append(ctx context.Context, userID uuid.UUID, msg ai.Message) error {
	raw, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	key := w.key(userID)
	pipe := w.rdb.TxPipeline()
	pipe.RPush(ctx, key, raw)
	// Append-only within the window: old turns fall off the front, nothing is
	// ever edited in place.
	pipe.LTrim(ctx, key, -w.keep, -1)
	pipe.Expire(ctx, key, w.ttl)
	_, err = pipe.Exec(ctx)
	return err
}

func (w *conversationWindow) Recent(ctx context.Context, userID uuid.UUID, n int) ([]ai.Message, error) {
	if n <= 0 {
		n = int(w.keep)
	}
	rows, err := w.rdb.LRange(ctx, w.key(userID), int64(-n), -1).Result()
	if err != nil {
		return nil, err
	}
	out := make([]ai.Message, 0, len(rows))
	for _, row := range rows {
		var msg ai.Message
		if err := json.Unmarshal([]byte(row), &msg); err != nil {
			w.log.Warn("Skipping malformed cached conversation turn", "error", err)
			continue
		}
		out = append(out, msg)
	}
	return out, nil
}

func (w *conversationWindow) Close() error {
	return w.rdb.Close()
}

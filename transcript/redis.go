package transcript

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/hupe1980/matcharena/gateway"
	"github.com/hupe1980/matcharena/internal/canonical"
)

// entryField is the stream field holding the canonical JSON entry.
const entryField = "entry"

// RedisOptions configures a RedisStreamWriter.
type RedisOptions struct {
	// Prefix namespaces stream keys: <Prefix>:transcript:<matchId>.
	Prefix string
	// MaxLen caps each stream with approximate trimming. Zero keeps everything.
	MaxLen int64
	// Channel, when set, receives every entry via PUBLISH after it is stored.
	Channel string
}

// RedisStreamWriter appends transcript entries to one Redis stream per match.
// Each stream message carries the canonical JSON entry plus a few flat fields
// (agentId, turn, status) for server-side filtering.
type RedisStreamWriter struct {
	rdb  *redis.Client
	opts RedisOptions
}

// NewRedisStreamWriter connects a writer to Redis.
func NewRedisStreamWriter(redisOpts *redis.Options, optFns ...func(o *RedisOptions)) (*RedisStreamWriter, error) {
	opts := RedisOptions{Prefix: "matcharena"}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Prefix == "" {
		return nil, fmt.Errorf("stream prefix cannot be empty")
	}
	if opts.MaxLen < 0 {
		return nil, fmt.Errorf("max length must not be negative, got %d", opts.MaxLen)
	}

	return &RedisStreamWriter{rdb: redis.NewClient(redisOpts), opts: opts}, nil
}

// StreamKey returns the stream key for matchID.
func (w *RedisStreamWriter) StreamKey(matchID string) string {
	return w.opts.Prefix + ":transcript:" + matchID
}

// Write implements gateway.TranscriptWriter.
func (w *RedisStreamWriter) Write(ctx context.Context, entry gateway.TranscriptEntry) error {
	body, err := canonical.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal transcript entry: %w", err)
	}

	args := &redis.XAddArgs{
		Stream: w.StreamKey(entry.MatchID),
		Values: map[string]any{
			entryField: string(body),
			"agentId":  entry.AgentID,
			"turn":     strconv.Itoa(entry.Turn),
			"status":   string(entry.Status),
		},
	}
	if w.opts.MaxLen > 0 {
		args.MaxLen = w.opts.MaxLen
		args.Approx = true
	}
	if err := w.rdb.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("failed to append transcript entry to Redis: %w", err)
	}

	if w.opts.Channel != "" {
		if err := w.rdb.Publish(ctx, w.opts.Channel, body).Err(); err != nil {
			return fmt.Errorf("failed to publish transcript entry: %w", err)
		}
	}
	return nil
}

// Read returns every stored entry for matchID in append order.
func (w *RedisStreamWriter) Read(ctx context.Context, matchID string) ([]gateway.TranscriptEntry, error) {
	msgs, err := w.rdb.XRange(ctx, w.StreamKey(matchID), "-", "+").Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read transcript stream: %w", err)
	}

	entries := make([]gateway.TranscriptEntry, 0, len(msgs))
	for _, msg := range msgs {
		raw, ok := msg.Values[entryField].(string)
		if !ok {
			return nil, fmt.Errorf("stream message %s has no %q field", msg.ID, entryField)
		}
		var entry gateway.TranscriptEntry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			return nil, fmt.Errorf("failed to decode stream message %s: %w", msg.ID, err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Ping verifies Redis connectivity.
func (w *RedisStreamWriter) Ping(ctx context.Context) error {
	return w.rdb.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (w *RedisStreamWriter) Close() error {
	return w.rdb.Close()
}

var _ gateway.TranscriptWriter = (*RedisStreamWriter)(nil)

package publisher

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"math/rand/v2"
	"strconv"

	"github.com/redis/go-redis/v9"

	"insightdeal/dealworker/internal/models"
)

// RedisPublisher implements Publisher on Redis streams. Deals are published
// as base64-encoded JSON, sharded over streamCount streams so consumers can
// scale horizontally.
type RedisPublisher struct {
	client          *redis.Client
	ctx             context.Context
	streamPrefix    string
	streamCount     int
	streamMaxLength int
}

// NewRedisPublisher creates a Redis stream publisher.
func NewRedisPublisher(ctx context.Context, addr string, db int, streamPrefix string, streamCount, streamMaxLength int) *RedisPublisher {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	return &RedisPublisher{
		client:          client,
		ctx:             ctx,
		streamPrefix:    streamPrefix,
		streamCount:     streamCount,
		streamMaxLength: streamMaxLength,
	}
}

type dealBatch struct {
	Community string        `json:"community"`
	Deals     []models.Deal `json:"deals"`
}

// PublishDeals base64-encodes the batch JSON and appends it to a randomly
// chosen shard stream.
func (p *RedisPublisher) PublishDeals(community string, deals []models.Deal) error {
	if len(deals) == 0 {
		return nil
	}

	payload, err := json.Marshal(dealBatch{Community: community, Deals: deals})
	if err != nil {
		return err
	}
	encoded := base64.StdEncoding.EncodeToString(payload)

	// stream:0 ~ stream:N-1
	stream := p.streamPrefix + ":" + strconv.Itoa(rand.IntN(p.streamCount))

	return p.client.XAdd(p.ctx, &redis.XAddArgs{
		Stream: stream,
		Values: map[string]interface{}{
			"b64_deals": encoded,
		},
	}).Err()
}

// TrimStreams trims all shard streams to the configured maximum length.
func (p *RedisPublisher) TrimStreams() error {
	pattern := p.streamPrefix + ":*"
	streams, err := p.client.Keys(p.ctx, pattern).Result()
	if err != nil {
		return err
	}

	for _, stream := range streams {
		if err := p.client.XTrimMaxLen(p.ctx, stream, int64(p.streamMaxLength)).Err(); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the Redis connection.
func (p *RedisPublisher) Close() error {
	return p.client.Close()
}

package publisher

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"insightdeal/dealworker/internal/models"
)

// Redis 인스턴스가 없으면 건너뛴다
func TestRedisPublisher(t *testing.T) {
	ctx := context.Background()
	pub := NewRedisPublisher(ctx, "localhost:6379", 0, "test_deal_stream", 1, 100)
	defer pub.Close()

	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   0,
	})
	defer client.Close()

	if _, err := client.Ping(ctx).Result(); err != nil {
		t.Skip("Redis is not available, skipping test")
	}

	err := client.XGroupCreateMkStream(ctx, "test_deal_stream:0", "test_group", "$").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		require.NoError(t, err)
	}

	messages := make(chan string, 1)
	go func() {
		message, err := client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Streams:  []string{"test_deal_stream:0", ">"},
			Group:    "test_group",
			Consumer: "test_consumer",
			Block:    0,
		}).Result()
		assert.NoError(t, err)
		messages <- message[0].Messages[0].Values["b64_deals"].(string)
	}()

	time.Sleep(100 * time.Millisecond)

	deals := []models.Deal{{Title: "무선 이어폰", Price: "49,900원", ShopName: "쿠팡"}}
	require.NoError(t, pub.PublishDeals("뽐뿌", deals))

	select {
	case msg := <-messages:
		decoded, err := base64.StdEncoding.DecodeString(msg)
		require.NoError(t, err)

		var batch dealBatch
		require.NoError(t, json.Unmarshal(decoded, &batch))
		assert.Equal(t, "뽐뿌", batch.Community)
		require.Len(t, batch.Deals, 1)
		assert.Equal(t, "무선 이어폰", batch.Deals[0].Title)
	case <-time.After(1 * time.Second):
		t.Error("Timed out waiting for message")
	}
}

func TestPublishDealsEmptyBatchIsNoop(t *testing.T) {
	pub := NewRedisPublisher(context.Background(), "localhost:1", 0, "unused", 1, 10)
	defer pub.Close()

	// 빈 배치는 연결 없이도 성공해야 한다
	assert.NoError(t, pub.PublishDeals("뽐뿌", nil))
}

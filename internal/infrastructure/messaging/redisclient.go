package messaging

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// goRedisClient adapts a go-redis client to the RedisClient interface.
type goRedisClient struct {
	client *redis.Client
}

// NewGoRedisClient wraps a go-redis client for use with RedisEventBus.
// The caller keeps ownership of the client; Close here is a no-op so the
// bus can be shut down without tearing down a shared connection pool.
func NewGoRedisClient(client *redis.Client) RedisClient {
	return &goRedisClient{client: client}
}

func (c *goRedisClient) Publish(ctx context.Context, channel string, message interface{}) error {
	return c.client.Publish(ctx, channel, message).Err()
}

func (c *goRedisClient) Subscribe(ctx context.Context, channels ...string) (<-chan RedisMessage, error) {
	sub := c.client.Subscribe(ctx, channels...)

	// Force the subscription to be established before returning, so a dead
	// Redis surfaces here instead of as a silent message drop.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, err
	}

	out := make(chan RedisMessage)
	go func() {
		defer close(out)
		defer sub.Close()

		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				select {
				case out <- RedisMessage{Channel: msg.Channel, Payload: msg.Payload}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

func (c *goRedisClient) Close() error {
	return nil
}

package redisclient

import (
	"context"
	"fmt"
	"time"

	"meli-sync/internal/models"

	"github.com/go-redis/redis/v8"
)

const (
	credentialsKey = "rx_ml:credentials"
	notifKeyPrefix = "rx_ml:notif:"
)

// Client wraps Redis for the two pieces of shared state the sync service
// keeps: the credential record and the webhook notification dedupe marks.
type Client struct {
	rdb *redis.Client
}

// NewClient creates a new Redis client
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// GetClient returns the underlying Redis client
func (c *Client) GetClient() *redis.Client {
	return c.rdb
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Get retrieves the stored credential record. An empty hash yields a
// zero-value record, which readers interpret as disconnected.
func (c *Client) Get(ctx context.Context) (models.Credentials, error) {
	result, err := c.rdb.HGetAll(ctx, credentialsKey).Result()
	if err != nil {
		return models.Credentials{}, fmt.Errorf("failed to read credentials: %w", err)
	}

	return models.Credentials{
		ClientID:     result["client_id"],
		ClientSecret: result["client_secret"],
		AccessToken:  result["access_token"],
		RefreshToken: result["refresh_token"],
		UserID:       result["user_id"],
	}, nil
}

// Save stores the full credential record
func (c *Client) Save(ctx context.Context, creds models.Credentials) error {
	pipe := c.rdb.Pipeline()
	pipe.HSet(ctx, credentialsKey,
		"client_id", creds.ClientID,
		"client_secret", creds.ClientSecret,
		"access_token", creds.AccessToken,
		"refresh_token", creds.RefreshToken,
		"user_id", creds.UserID,
	)

	_, err := pipe.Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to save credentials: %w", err)
	}
	return nil
}

// Clear removes every credential field (uninstall path)
func (c *Client) Clear(ctx context.Context) error {
	return c.rdb.Del(ctx, credentialsKey).Err()
}

// MarkNotificationSeen records that a notification resource was handled and
// reports whether this is the first time it is seen. MercadoLibre redelivers
// notifications until acknowledged; the SETNX mark keeps a redelivery from
// decrementing stock twice.
func (c *Client) MarkNotificationSeen(ctx context.Context, resource string, ttl time.Duration) (bool, error) {
	return c.rdb.SetNX(ctx, notifKeyPrefix+resource, "1", ttl).Result()
}

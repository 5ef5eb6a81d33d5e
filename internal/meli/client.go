package meli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"meli-sync/internal/util"

	"go.uber.org/zap"
)

// ErrAuthFailed is returned when the token exchange cannot be completed:
// transport failure, non-2xx status or a response without an access token.
// It is the only error that crosses the client boundary; every other remote
// failure degrades to an empty result.
var ErrAuthFailed = errors.New("mercadolibre authorization failed")

// Client is a thin authenticated wrapper around the MercadoLibre REST API.
//
// Reads and writes swallow transport errors into empty results: a missed
// sync is recoverable on the next stock event, while an error bubbling into
// the host's request path is not. Callers must treat an empty result as "no
// data", never as a hard failure.
type Client struct {
	apiBase    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a MercadoLibre API client rooted at apiBase.
func NewClient(apiBase string) *Client {
	return &Client{
		apiBase: strings.TrimRight(apiBase, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: util.GetLogger(),
	}
}

// ExchangeCode trades an authorization code for tokens.
func (c *Client) ExchangeCode(ctx context.Context, clientID, clientSecret, code, redirectURI string) (*TokenResponse, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("client_id", clientID)
	form.Set("client_secret", clientSecret)
	form.Set("code", code)
	form.Set("redirect_uri", redirectURI)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.apiBase+"/oauth/token", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuthFailed, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	util.RemoteCallDuration.WithLabelValues("exchange_code").Observe(time.Since(start).Seconds())
	if err != nil {
		util.RemoteCallErrorsTotal.WithLabelValues("exchange_code").Inc()
		return nil, fmt.Errorf("%w: %v", ErrAuthFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		util.RemoteCallErrorsTotal.WithLabelValues("exchange_code").Inc()
		return nil, fmt.Errorf("%w: token endpoint returned %d", ErrAuthFailed, resp.StatusCode)
	}

	var token TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		util.RemoteCallErrorsTotal.WithLabelValues("exchange_code").Inc()
		return nil, fmt.Errorf("%w: %v", ErrAuthFailed, err)
	}

	if token.AccessToken == "" {
		util.RemoteCallErrorsTotal.WithLabelValues("exchange_code").Inc()
		return nil, fmt.Errorf("%w: response missing access_token", ErrAuthFailed)
	}

	return &token, nil
}

// GetItem fetches a listing. Returns a zero-value Item on any failure.
func (c *Client) GetItem(ctx context.Context, itemID, token string) Item {
	var item Item
	c.get(ctx, "get_item", "/items/"+itemID, token, &item)
	return item
}

// PutItem sends a partial update to a listing with a Bearer token. The sync
// engine only ever sends available_quantity here. Returns an empty map on
// any failure.
func (c *Client) PutItem(ctx context.Context, itemID, token string, fields map[string]interface{}) map[string]interface{} {
	const op = "put_item"

	body, err := json.Marshal(fields)
	if err != nil {
		c.logger.Warn("Failed to marshal item update", zap.String("item_id", itemID), zap.Error(err))
		return map[string]interface{}{}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut,
		c.apiBase+"/items/"+itemID, bytes.NewReader(body))
	if err != nil {
		c.logger.Warn("Failed to build item update request", zap.String("item_id", itemID), zap.Error(err))
		return map[string]interface{}{}
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	util.RemoteCallDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if err != nil {
		util.RemoteCallErrorsTotal.WithLabelValues(op).Inc()
		c.logger.Warn("Item update failed", zap.String("item_id", itemID), zap.Error(err))
		return map[string]interface{}{}
	}
	defer resp.Body.Close()

	var decoded map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		util.RemoteCallErrorsTotal.WithLabelValues(op).Inc()
		c.logger.Warn("Failed to decode item update response", zap.String("item_id", itemID), zap.Error(err))
		return map[string]interface{}{}
	}

	return decoded
}

// GetOrder fetches order detail. Returns a zero-value Order on any failure.
func (c *Client) GetOrder(ctx context.Context, orderID, token string) Order {
	var order Order
	c.get(ctx, "get_order", "/orders/"+orderID, token, &order)
	return order
}

// SubscribeWebhook registers callbackURL for the orders_v2 topic. This is
// fire-and-forget at connect time: failures are logged, never surfaced.
func (c *Client) SubscribeWebhook(ctx context.Context, token, userID, callbackURL string) {
	const op = "subscribe_webhook"

	body, err := json.Marshal(webhookSubscription{
		Topic: "orders_v2",
		URL:   callbackURL,
	})
	if err != nil {
		c.logger.Warn("Failed to marshal webhook subscription", zap.Error(err))
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.apiBase+"/users/"+userID+"/notifications", bytes.NewReader(body))
	if err != nil {
		c.logger.Warn("Failed to build webhook subscription request", zap.Error(err))
		return
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	util.RemoteCallDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if err != nil {
		util.RemoteCallErrorsTotal.WithLabelValues(op).Inc()
		c.logger.Warn("Webhook subscription failed", zap.String("user_id", userID), zap.Error(err))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		util.RemoteCallErrorsTotal.WithLabelValues(op).Inc()
		c.logger.Warn("Webhook subscription rejected",
			zap.String("user_id", userID),
			zap.Int("status", resp.StatusCode))
		return
	}

	c.logger.Info("Webhook subscription registered", zap.String("callback", callbackURL))
}

// get performs an authenticated read. The token travels as a query parameter
// per the legacy marketplace convention. Failures leave out untouched.
func (c *Client) get(ctx context.Context, op, path, token string, out interface{}) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.apiBase+path+"?access_token="+url.QueryEscape(token), nil)
	if err != nil {
		c.logger.Warn("Failed to build request", zap.String("path", path), zap.Error(err))
		return
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	util.RemoteCallDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if err != nil {
		util.RemoteCallErrorsTotal.WithLabelValues(op).Inc()
		c.logger.Warn("Read failed", zap.String("path", path), zap.Error(err))
		return
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		util.RemoteCallErrorsTotal.WithLabelValues(op).Inc()
		c.logger.Warn("Failed to decode response", zap.String("path", path), zap.Error(err))
	}
}

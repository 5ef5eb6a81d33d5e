package meli

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExchangeCodeSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/oauth/token", r.URL.Path)
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token":  "APP_USR-token",
			"token_type":    "bearer",
			"expires_in":    21600,
			"user_id":       123456,
			"refresh_token": "TG-refresh",
		})
	}))
	defer srv.Close()

	token, err := NewClient(srv.URL).ExchangeCode(context.Background(), "app", "secret", "code", "https://cb")
	require.NoError(t, err)
	assert.Equal(t, "APP_USR-token", token.AccessToken)
	assert.Equal(t, "TG-refresh", token.RefreshToken)
	assert.Equal(t, int64(123456), token.UserID)
}

func TestExchangeCodeMissingAccessToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"scope":"offline_access"}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).ExchangeCode(context.Background(), "app", "secret", "code", "https://cb")
	assert.ErrorIs(t, err, ErrAuthFailed)
}

func TestExchangeCodeTransportError(t *testing.T) {
	srv := httptest.NewServer(nil)
	srv.Close() // refuse connections

	_, err := NewClient(srv.URL).ExchangeCode(context.Background(), "app", "secret", "code", "https://cb")
	assert.ErrorIs(t, err, ErrAuthFailed)
}

func TestGetItemPassesTokenAsQueryParam(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/items/MLA123", r.URL.Path)
		assert.Equal(t, "tok", r.URL.Query().Get("access_token"))
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":                 "MLA123",
			"available_quantity": 4,
		})
	}))
	defer srv.Close()

	item := NewClient(srv.URL).GetItem(context.Background(), "MLA123", "tok")
	assert.Equal(t, "MLA123", item.ID)
	assert.Equal(t, 4, item.AvailableQuantity)
}

func TestGetItemSwallowsTransportError(t *testing.T) {
	srv := httptest.NewServer(nil)
	srv.Close()

	item := NewClient(srv.URL).GetItem(context.Background(), "MLA123", "tok")
	assert.Equal(t, Item{}, item, "transport errors must degrade to an empty record")
}

func TestPutItemSendsBearerHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, float64(9), body["available_quantity"])

		json.NewEncoder(w).Encode(map[string]interface{}{"id": "MLA123", "available_quantity": 9})
	}))
	defer srv.Close()

	resp := NewClient(srv.URL).PutItem(context.Background(), "MLA123", "tok",
		map[string]interface{}{"available_quantity": 9})
	assert.Equal(t, "MLA123", resp["id"])
}

func TestPutItemSwallowsTransportError(t *testing.T) {
	srv := httptest.NewServer(nil)
	srv.Close()

	resp := NewClient(srv.URL).PutItem(context.Background(), "MLA123", "tok",
		map[string]interface{}{"available_quantity": 9})
	assert.Empty(t, resp)
}

func TestGetOrderDecodesLineItems(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/orders/2000003508419500", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":     2000003508419500,
			"status": "paid",
			"order_items": []map[string]interface{}{
				{"item": map[string]interface{}{"id": "MLA123"}, "quantity": 2},
				{"item": map[string]interface{}{"id": "MLA456"}, "quantity": 1},
			},
		})
	}))
	defer srv.Close()

	order := NewClient(srv.URL).GetOrder(context.Background(), "2000003508419500", "tok")
	require.Len(t, order.OrderItems, 2)
	assert.Equal(t, "MLA123", order.OrderItems[0].Item.ID)
	assert.Equal(t, 2, order.OrderItems[0].Quantity)
}

func TestGetOrderSwallowsTransportError(t *testing.T) {
	srv := httptest.NewServer(nil)
	srv.Close()

	order := NewClient(srv.URL).GetOrder(context.Background(), "123", "tok")
	assert.Empty(t, order.OrderItems)
}

func TestSubscribeWebhookBestEffort(t *testing.T) {
	var got struct {
		path string
		auth string
		body map[string]string
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.path = r.URL.Path
		got.auth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&got.body)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	NewClient(srv.URL).SubscribeWebhook(context.Background(), "tok", "123456", "https://cb/webhook")

	assert.Equal(t, "/users/123456/notifications", got.path)
	assert.Equal(t, "Bearer tok", got.auth)
	assert.Equal(t, "orders_v2", got.body["topic"])
	assert.Equal(t, "https://cb/webhook", got.body["url"])
}

func TestSubscribeWebhookFailureDoesNotPanic(t *testing.T) {
	srv := httptest.NewServer(nil)
	srv.Close()

	// Must not panic or surface an error.
	NewClient(srv.URL).SubscribeWebhook(context.Background(), "tok", "123456", "https://cb/webhook")
}

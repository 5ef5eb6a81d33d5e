package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"meli-sync/internal/credentials"
	"meli-sync/internal/meli"
	"meli-sync/internal/models"
	"meli-sync/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore is a minimal in-memory ProductStore for handler tests.
type memStore struct {
	products map[int64]*models.Product
}

func (s *memStore) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	p, ok := s.products[id]
	if !ok {
		return nil, nil
	}
	copied := *p
	return &copied, nil
}

func (s *memStore) GetProductByRemoteID(ctx context.Context, remoteItemID string) (*models.Product, error) {
	for _, p := range s.products {
		if p.RemoteItemID() == remoteItemID {
			copied := *p
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *memStore) SetStock(ctx context.Context, id int64, quantity int) error {
	s.products[id].Stock = quantity
	return nil
}

func (s *memStore) SetRemoteID(ctx context.Context, id int64, remoteItemID string) error {
	s.products[id].MLItemID.String = remoteItemID
	s.products[id].MLItemID.Valid = remoteItemID != ""
	return nil
}

type testEnv struct {
	router *gin.Engine
	store  *memStore
	creds  *credentials.MemoryStore
}

// newTestEnv wires the full handler stack against an httptest MercadoLibre.
func newTestEnv(t *testing.T, remote http.Handler) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	srv := httptest.NewServer(remote)
	t.Cleanup(srv.Close)

	store := &memStore{products: map[int64]*models.Product{
		10: {ID: 10, Stock: 10, MLItemID: itemLink("MLA123")},
	}}
	creds := credentials.NewMemoryStore()
	require.NoError(t, creds.Save(context.Background(), models.Credentials{
		ClientID:     "app-1",
		ClientSecret: "shhh",
		AccessToken:  "APP_USR-token",
		UserID:       "123456",
	}))

	client := meli.NewClient(srv.URL)
	resolver := service.NewResolver(store)
	session := service.NewSessionManager(creds, client,
		"https://auth.mercadolibre.com",
		"https://shop.example.com/?rx_ml_oauth=1",
		"https://shop.example.com/rx-ml/v1/webhook")
	inbound := service.NewInboundSync(store, creds, client, resolver, nil)

	router := gin.New()
	NewHandler(inbound, session).SetupRoutes(router)

	return &testEnv{router: router, store: store, creds: creds}
}

func itemLink(id string) sql.NullString {
	return sql.NullString{String: id, Valid: true}
}

func (e *testEnv) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestWebhookMalformedJSON(t *testing.T) {
	env := newTestEnv(t, http.NotFoundHandler())

	rec := env.do(t, http.MethodPost, "/rx-ml/v1/webhook", "{not json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid body", decode(t, rec)["error"])
}

func TestWebhookMissingResource(t *testing.T) {
	env := newTestEnv(t, http.NotFoundHandler())

	rec := env.do(t, http.MethodPost, "/rx-ml/v1/webhook", `{"topic":"orders_v2"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid body", decode(t, rec)["error"])
}

func TestWebhookIgnoresOtherTopics(t *testing.T) {
	env := newTestEnv(t, http.NotFoundHandler())

	rec := env.do(t, http.MethodPost, "/rx-ml/v1/webhook",
		`{"resource":"/items/MLA123","topic":"items"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ignored", decode(t, rec)["status"])
}

func TestWebhookSyncsOrder(t *testing.T) {
	remote := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id": 555,
			"order_items": []map[string]interface{}{
				{"item": map[string]interface{}{"id": "MLA123"}, "quantity": 4},
			},
		})
	})
	env := newTestEnv(t, remote)

	rec := env.do(t, http.MethodPost, "/rx-ml/v1/webhook",
		`{"resource":"/orders/555","topic":"orders_v2"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "synced", decode(t, rec)["status"])
	assert.Equal(t, 6, env.store.products[10].Stock)
}

func TestSettingsRoundTrip(t *testing.T) {
	env := newTestEnv(t, http.NotFoundHandler())

	rec := env.do(t, http.MethodPut, "/api/v1/settings",
		`{"client_id":"new-app","client_secret":"new-secret"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/settings", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "new-app", body["client_id"])
	assert.Equal(t, true, body["client_secret_set"])
	assert.Equal(t, true, body["connected"])
	assert.Equal(t, "123456", body["ml_user_id"])
}

func TestSettingsValidation(t *testing.T) {
	env := newTestEnv(t, http.NotFoundHandler())

	rec := env.do(t, http.MethodPut, "/api/v1/settings", `{"client_id":"only-id"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUninstallClearsCredentials(t *testing.T) {
	env := newTestEnv(t, http.NotFoundHandler())

	rec := env.do(t, http.MethodDelete, "/api/v1/settings", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "uninstalled", decode(t, rec)["status"])

	stored, err := env.creds.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.Credentials{}, stored)

	rec = env.do(t, http.MethodGet, "/api/v1/settings", "")
	body := decode(t, rec)
	assert.Equal(t, false, body["connected"])
	assert.Equal(t, "", body["client_id"])
}

func TestOAuthCallbackRedirectsOnSuccess(t *testing.T) {
	remote := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/oauth/token" {
			json.NewEncoder(w).Encode(map[string]interface{}{
				"access_token":  "APP_USR-fresh",
				"refresh_token": "TG-fresh",
				"user_id":       123456,
			})
			return
		}
		w.WriteHeader(http.StatusCreated)
	})
	env := newTestEnv(t, remote)

	rec := env.do(t, http.MethodGet, "/?rx_ml_oauth=1&code=TG-CODE", "")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/api/v1/settings", rec.Header().Get("Location"))

	stored, err := env.creds.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "APP_USR-fresh", stored.AccessToken)
}

func TestOAuthCallbackSurfacesExchangeFailure(t *testing.T) {
	remote := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"invalid_grant"}`))
	})
	env := newTestEnv(t, remote)

	rec := env.do(t, http.MethodGet, "/?rx_ml_oauth=1&code=BAD", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, decode(t, rec)["error"], "Mercado Libre connection failed")
}

func TestOAuthCallbackMissingCode(t *testing.T) {
	env := newTestEnv(t, http.NotFoundHandler())

	rec := env.do(t, http.MethodGet, "/?rx_ml_oauth=1", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRootWithoutOAuthMarker(t *testing.T) {
	env := newTestEnv(t, http.NotFoundHandler())

	rec := env.do(t, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "meli-sync", decode(t, rec)["service"])
}

package service

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"meli-sync/internal/credentials"
	"meli-sync/internal/meli"
	"meli-sync/internal/models"
	"meli-sync/internal/util"

	"go.uber.org/zap"
)

// SessionManager drives the OAuth lifecycle against MercadoLibre. The model
// has exactly two states, disconnected and connected, and a single forward
// transition: an operator-initiated authorization-code handshake. There is
// no token renewal; the stored refresh token is kept but never used.
type SessionManager struct {
	creds  credentials.Store
	client *meli.Client
	logger *zap.Logger

	authBase    string
	redirectURI string
	callbackURL string
}

// NewSessionManager creates a new OAuth session manager
func NewSessionManager(
	creds credentials.Store,
	client *meli.Client,
	authBase string,
	redirectURI string,
	callbackURL string,
) *SessionManager {
	return &SessionManager{
		creds:       creds,
		client:      client,
		logger:      util.GetLogger(),
		authBase:    authBase,
		redirectURI: redirectURI,
		callbackURL: callbackURL,
	}
}

// AuthorizationURL builds the link the operator follows to approve access.
// Returns "" when the app credentials are not configured yet.
func (sm *SessionManager) AuthorizationURL(ctx context.Context) (string, error) {
	creds, err := sm.creds.Get(ctx)
	if err != nil {
		return "", err
	}
	if creds.ClientID == "" {
		return "", nil
	}

	return fmt.Sprintf("%s/authorization?response_type=code&client_id=%s&redirect_uri=%s",
		sm.authBase, url.QueryEscape(creds.ClientID), url.QueryEscape(sm.redirectURI)), nil
}

// Connect performs the disconnected-to-connected transition: exchange the
// authorization code, persist the tokens, then register the order webhook.
// Exchange failure aborts the transition and surfaces to the operator; there
// is no retry, the operator must re-initiate.
func (sm *SessionManager) Connect(ctx context.Context, code string) error {
	ctx, span := util.StartSpan(ctx, "SessionManager.Connect")
	defer span.End()

	creds, err := sm.creds.Get(ctx)
	if err != nil {
		return fmt.Errorf("failed to load credentials: %w", err)
	}
	if creds.ClientID == "" || creds.ClientSecret == "" {
		return fmt.Errorf("%w: app credentials not configured", meli.ErrAuthFailed)
	}

	token, err := sm.client.ExchangeCode(ctx, creds.ClientID, creds.ClientSecret, code, sm.redirectURI)
	if err != nil {
		util.ConnectAttemptsTotal.WithLabelValues("failure").Inc()
		sm.logger.Error("Token exchange failed", zap.Error(err))
		return err
	}

	creds.AccessToken = token.AccessToken
	creds.RefreshToken = token.RefreshToken
	creds.UserID = strconv.FormatInt(token.UserID, 10)

	if err := sm.creds.Save(ctx, creds); err != nil {
		util.ConnectAttemptsTotal.WithLabelValues("failure").Inc()
		return fmt.Errorf("failed to persist credentials: %w", err)
	}

	// Best effort: a failed subscription leaves the session connected, it
	// only means no inbound notifications until re-authorized.
	sm.client.SubscribeWebhook(ctx, creds.AccessToken, creds.UserID, sm.callbackURL)

	util.ConnectAttemptsTotal.WithLabelValues("success").Inc()
	sm.logger.Info("MercadoLibre account connected", zap.String("user_id", creds.UserID))
	return nil
}

// Connected reports whether an access token is stored.
func (sm *SessionManager) Connected(ctx context.Context) bool {
	creds, err := sm.creds.Get(ctx)
	if err != nil {
		sm.logger.Warn("Failed to read credentials", zap.Error(err))
		return false
	}
	return creds.Connected()
}

// Credentials returns the stored credential record.
func (sm *SessionManager) Credentials(ctx context.Context) (models.Credentials, error) {
	return sm.creds.Get(ctx)
}

// SaveAppCredentials stores the operator-supplied app id and secret while
// preserving any existing tokens.
func (sm *SessionManager) SaveAppCredentials(ctx context.Context, clientID, clientSecret string) error {
	creds, err := sm.creds.Get(ctx)
	if err != nil {
		return fmt.Errorf("failed to load credentials: %w", err)
	}

	creds.ClientID = clientID
	creds.ClientSecret = clientSecret
	return sm.creds.Save(ctx, creds)
}

// Disconnect removes every stored credential field. This backs the
// uninstall path and always yields the fresh-install state regardless of
// whether a session was ever established.
func (sm *SessionManager) Disconnect(ctx context.Context) error {
	if err := sm.creds.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear credentials: %w", err)
	}
	sm.logger.Info("Credentials cleared")
	return nil
}

package api

import (
	"net/http"
	"strconv"
	"time"

	"meli-sync/internal/models"
	"meli-sync/internal/service"
	"meli-sync/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler contains HTTP handlers
type Handler struct {
	inbound *service.InboundSync
	session *service.SessionManager
}

// NewHandler creates a new HTTP handler
func NewHandler(inbound *service.InboundSync, session *service.SessionManager) *Handler {
	return &Handler{
		inbound: inbound,
		session: session,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// MercadoLibre sends the operator here after authorization; without the
	// rx_ml_oauth marker the root is a plain service banner.
	router.GET("/", h.root)

	// MercadoLibre cannot authenticate webhook calls; the payload is
	// validated in the handler instead.
	router.POST("/rx-ml/v1/webhook", h.webhook)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/settings", h.getSettings)
		v1.PUT("/settings", h.saveSettings)
		v1.DELETE("/settings", h.uninstall)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck handles readiness check requests
func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// webhook handles MercadoLibre order notifications
func (h *Handler) webhook(c *gin.Context) {
	var notif models.Notification

	if err := c.ShouldBindJSON(&notif); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid body"})
		return
	}

	result := h.inbound.ProcessNotification(c.Request.Context(), notif)
	if result.Error != "" {
		c.JSON(result.Code, gin.H{"error": result.Error})
		return
	}

	c.JSON(result.Code, gin.H{"status": result.Status})
}

// root handles the OAuth redirect callback. On success the operator lands
// on the connection-status page; exchange failure is the one flow allowed
// to fail loudly.
func (h *Handler) root(c *gin.Context) {
	if c.Query("rx_ml_oauth") == "" {
		c.JSON(http.StatusOK, gin.H{"service": "meli-sync"})
		return
	}

	code := c.Query("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing authorization code"})
		return
	}

	if err := h.session.Connect(c.Request.Context(), code); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{
			"error": "Mercado Libre connection failed: " + err.Error(),
		})
		return
	}

	c.Redirect(http.StatusFound, "/api/v1/settings")
}

// getSettings shows the app credentials (secret masked) and the connection
// status, with the authorization link when configured but not yet connected.
func (h *Handler) getSettings(c *gin.Context) {
	ctx := c.Request.Context()

	creds, err := h.session.Credentials(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to load settings",
			"details": err.Error(),
		})
		return
	}

	resp := gin.H{
		"client_id":         creds.ClientID,
		"client_secret_set": creds.ClientSecret != "",
		"connected":         creds.Connected(),
	}

	switch {
	case creds.Connected():
		resp["ml_user_id"] = creds.UserID
	case creds.ClientID != "":
		authURL, err := h.session.AuthorizationURL(ctx)
		if err == nil && authURL != "" {
			resp["authorization_url"] = authURL
		}
	}

	c.JSON(http.StatusOK, resp)
}

// saveSettings persists the operator-supplied app id and secret
func (h *Handler) saveSettings(c *gin.Context) {
	var req struct {
		ClientID     string `json:"client_id" binding:"required"`
		ClientSecret string `json:"client_secret" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	if err := h.session.SaveAppCredentials(c.Request.Context(), req.ClientID, req.ClientSecret); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to save settings",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "saved"})
}

// uninstall clears every stored credential field
func (h *Handler) uninstall(c *gin.Context) {
	if err := h.session.Disconnect(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to clear credentials",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "uninstalled"})
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}

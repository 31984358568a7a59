// Package httpapi is the Gin transport layer over internal/facade,
// grounded on the teacher's internal/api package (routes.go, auth.go,
// ratelimit.go, websocket.go). It performs request parsing, status-code
// mapping, and auth/rate-limit enforcement only — all domain logic
// stays in internal/facade and below.
package httpapi

import (
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/rawblock/barter-engine/internal/facade"
	"github.com/rawblock/barter-engine/pkg/models"
)

// Handler binds a Facade and a Hub to the route set.
type Handler struct {
	facade *facade.Facade
	hub    *Hub
}

// SetupRouter builds the full Gin engine: public health/stream routes,
// bearer-token-protected tenant operations, and admin-key-protected
// provisioning.
func SetupRouter(f *facade.Facade, hub *Hub) *gin.Engine {
	r := gin.Default()

	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if allowedOrigins == "" || allowedOrigins == "*" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		} else {
			for _, allowed := range strings.Split(allowedOrigins, ",") {
				if strings.TrimSpace(allowed) == origin {
					c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
					break
				}
			}
		}
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Admin-Key")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	h := &Handler{facade: f, hub: hub}

	pub := r.Group("/api/v1")
	{
		pub.GET("/health", h.handleHealth)
		pub.GET("/stream", hub.Subscribe)
	}

	limiter := NewRateLimiter(120, 20)
	tenantGroup := r.Group("/api/v1/tenants/:tenantId")
	tenantGroup.Use(AuthMiddleware())
	tenantGroup.Use(limiter.Middleware())
	{
		tenantGroup.GET("/status", h.handleStatus)
		tenantGroup.GET("/active-cycles", h.handleActiveCycles)
		tenantGroup.GET("/accounts/:accountId/cycles", h.handleCyclesForAccount)

		tenantGroup.POST("/inventory", h.handleSubmitInventory)
		tenantGroup.DELETE("/inventory", h.handleRemoveInventory)
		tenantGroup.POST("/wants", h.handleSubmitWants)
		tenantGroup.DELETE("/wants", h.handleRemoveWants)
		tenantGroup.PUT("/transfer", h.handleTransfer)
		tenantGroup.DELETE("/accounts/:accountId", h.handleRemoveAccount)
	}

	admin := r.Group("/api/v1/admin")
	admin.Use(AdminMiddleware(f.Engine.AdminKey))
	{
		admin.POST("/tenants/:tenantId", h.handleProvisionTenant)
	}

	return r
}

func (h *Handler) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "operational", "engine": "barter-cycle-discovery"})
}

func writeEngineError(c *gin.Context, err error) {
	ee, ok := err.(*models.EngineError)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	status := http.StatusInternalServerError
	switch ee.Kind {
	case models.KindInvalidArgument:
		status = http.StatusBadRequest
	case models.KindConflict:
		status = http.StatusConflict
	case models.KindResourceLimit:
		status = http.StatusTooManyRequests
	case models.KindTransient:
		status = http.StatusServiceUnavailable
	case models.KindFatal:
		status = http.StatusInternalServerError
	}
	c.JSON(status, gin.H{"error": ee.Message, "kind": ee.Kind, "detail": ee.Detail})
}

func (h *Handler) pushIfNewCycles(tenantID string, result models.DeltaResult) {
	if len(result.Cycles) > 0 {
		h.hub.BroadcastCycles(tenantID, result.Cycles)
	}
}

type itemsRequest struct {
	AccountID string          `json:"accountId"`
	Items     []models.ItemRef `json:"items"`
}

func (h *Handler) handleSubmitInventory(c *gin.Context) {
	tenantID := c.Param("tenantId")
	var req itemsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	result, err := h.facade.SubmitInventory(c.Request.Context(), tenantID, req.AccountID, req.Items)
	if err != nil {
		writeEngineError(c, err)
		return
	}
	h.pushIfNewCycles(tenantID, result)
	c.JSON(http.StatusOK, result)
}

// inventoryItemIDsRequest is the wire shape for `DELETE inventory-item` (spec §6).
type inventoryItemIDsRequest struct {
	AccountID string   `json:"accountId"`
	ItemIDs   []string `json:"itemIds"`
}

// wantedItemIDsRequest is the wire shape for `POST wants`/`DELETE want`
// (spec §6: `{tenantId, accountId, wantedItemIds: [id]}`).
type wantedItemIDsRequest struct {
	AccountID     string   `json:"accountId"`
	WantedItemIDs []string `json:"wantedItemIds"`
}

func (h *Handler) handleRemoveInventory(c *gin.Context) {
	tenantID := c.Param("tenantId")
	var req inventoryItemIDsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	result, err := h.facade.RemoveInventoryItems(c.Request.Context(), tenantID, req.AccountID, req.ItemIDs)
	if err != nil {
		writeEngineError(c, err)
		return
	}
	h.pushIfNewCycles(tenantID, result)
	c.JSON(http.StatusOK, result)
}

func (h *Handler) handleSubmitWants(c *gin.Context) {
	tenantID := c.Param("tenantId")
	var req wantedItemIDsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	result, err := h.facade.SubmitWants(c.Request.Context(), tenantID, req.AccountID, req.WantedItemIDs)
	if err != nil {
		writeEngineError(c, err)
		return
	}
	h.pushIfNewCycles(tenantID, result)
	c.JSON(http.StatusOK, result)
}

func (h *Handler) handleRemoveWants(c *gin.Context) {
	tenantID := c.Param("tenantId")
	var req wantedItemIDsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	result, err := h.facade.RemoveWants(c.Request.Context(), tenantID, req.AccountID, req.WantedItemIDs)
	if err != nil {
		writeEngineError(c, err)
		return
	}
	h.pushIfNewCycles(tenantID, result)
	c.JSON(http.StatusOK, result)
}

type transferRequest struct {
	Item string `json:"item"`
	From string `json:"from"`
	To   string `json:"to"`
}

func (h *Handler) handleTransfer(c *gin.Context) {
	tenantID := c.Param("tenantId")
	var req transferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	result, err := h.facade.Transfer(c.Request.Context(), tenantID, req.Item, req.From, req.To)
	if err != nil {
		writeEngineError(c, err)
		return
	}
	h.pushIfNewCycles(tenantID, result)
	c.JSON(http.StatusOK, result)
}

func (h *Handler) handleRemoveAccount(c *gin.Context) {
	tenantID := c.Param("tenantId")
	accountID := c.Param("accountId")
	result, err := h.facade.RemoveAccount(c.Request.Context(), tenantID, accountID)
	if err != nil {
		writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) handleActiveCycles(c *gin.Context) {
	tenantID := c.Param("tenantId")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	minScore, _ := strconv.ParseFloat(c.DefaultQuery("minScore", "0"), 64)
	cycles := h.facade.ActiveCycles(c.Request.Context(), tenantID, limit, minScore)
	c.JSON(http.StatusOK, gin.H{"cycles": cycles})
}

func (h *Handler) handleCyclesForAccount(c *gin.Context) {
	tenantID := c.Param("tenantId")
	accountID := c.Param("accountId")
	cycles := h.facade.CyclesForAccount(c.Request.Context(), tenantID, accountID)
	c.JSON(http.StatusOK, gin.H{"cycles": cycles})
}

func (h *Handler) handleStatus(c *gin.Context) {
	tenantID := c.Param("tenantId")
	c.JSON(http.StatusOK, h.facade.Status(c.Request.Context(), tenantID))
}

func (h *Handler) handleProvisionTenant(c *gin.Context) {
	tenantID := c.Param("tenantId")
	config := models.DefaultTenantConfig()
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&config); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid tenant config"})
			return
		}
	}
	if err := h.facade.ProvisionTenant(tenantID, config); err != nil {
		writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"tenantId": tenantID})
}

// Package handlers implements the REST API surface of the service.
package handlers

import (
	"net/http"
	"time"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"

	"carehome-insights/database"
	"carehome-insights/models"
	"carehome-insights/refresher"
	"carehome-insights/scoring"
	"carehome-insights/services/companies"
	"carehome-insights/services/cqc"
	"carehome-insights/services/postcodes"
	ws "carehome-insights/websocket"
)

// Handlers holds the dependencies shared by all endpoint handlers.
type Handlers struct {
	db        *database.Database
	scorer    *scoring.Scorer
	cqc       *cqc.Client
	companies *companies.Client
	postcodes *postcodes.Client
	refresher *refresher.Service
	hub       *ws.Hub
}

// NewHandlers creates the handler set.
func NewHandlers(db *database.Database, cqcClient *cqc.Client, companiesClient *companies.Client,
	postcodesClient *postcodes.Client, refreshSvc *refresher.Service, hub *ws.Hub) *Handlers {
	return &Handlers{
		db:        db,
		scorer:    scoring.NewScorer(),
		cqc:       cqcClient,
		companies: companiesClient,
		postcodes: postcodesClient,
		refresher: refreshSvc,
		hub:       hub,
	}
}

// requireVersion rejects requests carrying the wrong API version.
func requireVersion(c *gin.Context, version string) bool {
	if version != "2.0" {
		log.Errorf("Bad version in %s, expected: 2.0, got: %v", c.FullPath(), version)
		c.String(http.StatusNotAcceptable, "Bad API version, expecting 2.0.") // 406
		return false
	}
	return true
}

// HealthCheck reports service and database health.
func (h *Handlers) HealthCheck(c *gin.Context) {
	status := "healthy"
	dbStatus := "ok"
	code := http.StatusOK

	if err := h.db.Ping(c.Request.Context()); err != nil {
		log.Errorf("Health check database ping failed: %v", err)
		status = "degraded"
		dbStatus = "unreachable"
		code = http.StatusServiceUnavailable
	}

	connected := 0
	if h.hub != nil {
		connected, _ = h.hub.GetStats()
	}

	c.JSON(code, models.HealthResponse{
		Status:           status,
		Service:          "carehome-insights",
		Timestamp:        time.Now().UTC().Format(time.RFC3339),
		Database:         dbStatus,
		ConnectedClients: connected,
	})
}

package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"stockcore/internal/infrastructure/storage/postgres"
)

// Version is reported by /health/info.
var Version = "dev"

// Check is one dependency the readiness probe pings.
type Check struct {
	Name string
	Ping func(ctx context.Context) error
}

// HealthHandler serves the probes. A nil pool means the in-memory store.
type HealthHandler struct {
	pool   *postgres.Pool
	checks []Check
}

func NewHealthHandler(pool *postgres.Pool, checks ...Check) *HealthHandler {
	return &HealthHandler{pool: pool, checks: checks}
}

func (h *HealthHandler) storage() string {
	if h.pool == nil {
		return "memory"
	}
	return "postgres"
}

// Live reports the process is up. GET /health/live
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready pings every dependency with a short deadline. GET /health/ready
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status, code := "ok", http.StatusOK
	results := map[string]string{"storage": h.storage()}
	for _, chk := range h.checks {
		if err := chk.Ping(ctx); err != nil {
			results[chk.Name] = "unhealthy: " + err.Error()
			status, code = "error", http.StatusServiceUnavailable
			continue
		}
		results[chk.Name] = "healthy"
	}
	c.JSON(code, gin.H{"status": status, "checks": results})
}

// Info returns build and pool information. GET /health/info
func (h *HealthHandler) Info(c *gin.Context) {
	body := gin.H{
		"app":     "stockcore",
		"version": Version,
		"storage": h.storage(),
	}
	if h.pool != nil {
		body["database"] = h.pool.Stats()
	}
	c.JSON(http.StatusOK, body)
}

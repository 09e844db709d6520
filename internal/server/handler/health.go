package handler

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
)

type HealthHandler struct {
	db    *sql.DB
	redis *redis.Client
}

func NewHealthHandler(db *sql.DB, rdb *redis.Client) *HealthHandler {
	return &HealthHandler{db: db, redis: rdb}
}

// Check reports readiness: both backing stores must answer a ping.
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := map[string]string{"status": "ok", "database": "up", "redis": "up"}
	healthy := true
	if err := h.db.PingContext(ctx); err != nil {
		status["database"] = "down"
		healthy = false
	}
	if err := h.redis.Ping(ctx).Err(); err != nil {
		status["redis"] = "down"
		healthy = false
	}
	if !healthy {
		status["status"] = "degraded"
		respondJSON(w, http.StatusServiceUnavailable, status)
		return
	}
	respondJSON(w, http.StatusOK, status)
}

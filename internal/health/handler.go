// Package health exposes a lightweight HTTP health endpoint for container probes.
package health

import (
	"context"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"edu_coupon_bot/internal/httpx"
	"edu_coupon_bot/internal/logging"
)

const mongoPingTimeout = 2 * time.Second

// MongoChecker defines the subset of MongoDB client behavior required for health.
type MongoChecker interface {
	Ping(ctx context.Context) error
}

type response struct {
	Status string `json:"status"`
	Mongo  string `json:"mongo,omitempty"`
}

// Handler serves GET /healthz. It always answers 200 and reports a degraded
// status when Mongo cannot be reached.
type Handler struct {
	logger       *logrus.Entry
	mongoChecker MongoChecker
}

// NewHandler constructs the health handler.
func NewHandler(mongoChecker MongoChecker, logger *logrus.Entry) *Handler {
	if logger == nil {
		logger = logging.Logger()
	}

	return &Handler{
		logger:       logger,
		mongoChecker: mongoChecker,
	}
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	resp := response{Status: "ok"}

	if !h.mongoHealthy(r.Context()) {
		resp.Status = "degraded"
		resp.Mongo = "error"
	}

	httpx.WriteJSON(w, http.StatusOK, resp, h.logger)
}

func (h *Handler) mongoHealthy(ctx context.Context) bool {
	if h.mongoChecker == nil {
		h.logger.WithField("event", "health_mongo_missing").Warn("mongo checker is not configured for health endpoint")
		return false
	}

	pingCtx, cancel := context.WithTimeout(ctx, mongoPingTimeout)
	defer cancel()

	if err := h.mongoChecker.Ping(pingCtx); err != nil {
		h.logger.WithField("event", "health_mongo_error").WithError(err).Warn("mongo ping failed during health check")
		return false
	}

	return true
}

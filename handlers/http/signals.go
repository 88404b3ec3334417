package httpHandler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"machine-telemetry/entities"
	"machine-telemetry/repositories"
)

// SignalReader is the read-side surface the handlers need.
type SignalReader interface {
	RecentSignals(ctx context.Context, rawType string) ([]entities.Signal, error)
	CheckHealth(ctx context.Context) error
}

type SignalHandler struct {
	query  SignalReader
	logger *zap.Logger
}

func NewSignalHandler(query SignalReader, logger *zap.Logger) *SignalHandler {
	return &SignalHandler{query: query, logger: logger}
}

// GetRecentSignals serves GET /signals/:signal_type: the 10 most recent
// readings of one stream, newest first.
func (h *SignalHandler) GetRecentSignals(c *gin.Context) {
	signals, err := h.query.RecentSignals(c.Request.Context(), c.Param("signal_type"))
	if err != nil {
		switch {
		case errors.Is(err, entities.ErrInvalidSignalType):
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "signal_type must be one of: state_change, error, power",
			})
		case errors.Is(err, repositories.ErrStorageUnavailable):
			h.logger.Warn("storage unavailable serving signals", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"error": "storage unavailable",
			})
		default:
			h.logger.Error("failed to serve signals", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "internal error",
			})
		}
		return
	}

	c.JSON(http.StatusOK, signals)
}

// Health serves GET /health with a single storage round-trip.
func (h *SignalHandler) Health(c *gin.Context) {
	if err := h.query.CheckHealth(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "Storage is unreachable",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "Service is up and running",
	})
}

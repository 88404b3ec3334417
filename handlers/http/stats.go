package httpHandler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"machine-telemetry/lifecycle"
	"machine-telemetry/usecases"
)

type StatsProvider interface {
	Stats() usecases.IngestStats
}

type StreamStats interface {
	Count() int
	DroppedSlow() uint64
}

type StatsHandler struct {
	ingest StatsProvider
	stream StreamStats
	life   *lifecycle.Coordinator
}

func NewStatsHandler(ingest StatsProvider, stream StreamStats, life *lifecycle.Coordinator) *StatsHandler {
	return &StatsHandler{ingest: ingest, stream: stream, life: life}
}

// GetStats serves GET /stats: ingest counters, stream fan-out counters
// and the lifecycle state.
func (h *StatsHandler) GetStats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"state":               h.life.State().String(),
		"ingest":              h.ingest.Stats(),
		"stream_subscribers":  h.stream.Count(),
		"stream_dropped_slow": h.stream.DroppedSlow(),
	})
}

package httpHandler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"machine-telemetry/entities"
	"machine-telemetry/repositories"
)

type fakeReader struct {
	signals   []entities.Signal
	recentErr error
	healthErr error
}

func (f *fakeReader) RecentSignals(ctx context.Context, rawType string) ([]entities.Signal, error) {
	if f.recentErr != nil {
		return nil, f.recentErr
	}
	if _, err := entities.ParseSignalType(rawType); err != nil {
		return nil, err
	}
	if f.signals == nil {
		return []entities.Signal{}, nil
	}
	return f.signals, nil
}

func (f *fakeReader) CheckHealth(ctx context.Context) error { return f.healthErr }

func newRouter(reader SignalReader) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	h := NewSignalHandler(reader, zap.NewNop())
	router.GET("/signals/:signal_type", h.GetRecentSignals)
	router.GET("/health", h.Health)
	return router
}

func get(router *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	router.ServeHTTP(w, req)
	return w
}

func TestGetRecentSignals_NewestFirst(t *testing.T) {
	t0 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	reader := &fakeReader{signals: []entities.Signal{
		{ID: 2, SignalType: entities.SignalPower, Value: 43.1, Timestamp: t0.Add(10 * time.Millisecond)},
		{ID: 1, SignalType: entities.SignalPower, Value: 42.5, Timestamp: t0},
	}}

	w := get(newRouter(reader), "/signals/power")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var got []entities.Signal
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(got) != 2 || got[0].Value != 43.1 || got[1].Value != 42.5 {
		t.Fatalf("body order wrong: %+v", got)
	}
	if got[0].SignalType != entities.SignalPower {
		t.Fatalf("signal_type = %q", got[0].SignalType)
	}
}

func TestGetRecentSignals_EmptyStreamIsEmptyArray(t *testing.T) {
	w := get(newRouter(&fakeReader{}), "/signals/error")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if body := w.Body.String(); body != "[]" {
		t.Fatalf("body = %q, want []", body)
	}
}

func TestGetRecentSignals_InvalidTypeIsClientError(t *testing.T) {
	w := get(newRouter(&fakeReader{}), "/signals/temperature")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestGetRecentSignals_StorageUnavailable(t *testing.T) {
	reader := &fakeReader{recentErr: fmt.Errorf("%w: down", repositories.ErrStorageUnavailable)}
	w := get(newRouter(reader), "/signals/power")
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", w.Code)
	}
}

func TestHealth_Up(t *testing.T) {
	w := get(newRouter(&fakeReader{}), "/health")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body["status"] != "Service is up and running" {
		t.Fatalf("status payload = %q", body["status"])
	}
}

func TestHealth_StorageDown(t *testing.T) {
	reader := &fakeReader{healthErr: fmt.Errorf("%w: severed", repositories.ErrStorageUnavailable)}
	w := get(newRouter(reader), "/health")
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want non-200", w.Code)
	}
}

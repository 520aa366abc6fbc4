package monitoring

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestNewHealthChecker(t *testing.T) {
	hc := NewHealthChecker("test-service", "1.0.0")
	defer hc.Shutdown()

	if hc.serviceName != "test-service" {
		t.Errorf("Expected service name 'test-service', got %s", hc.serviceName)
	}

	if hc.version != "1.0.0" {
		t.Errorf("Expected version '1.0.0', got %s", hc.version)
	}

	if hc.connections == nil {
		t.Error("Connections map should be initialized")
	}
}

func TestUpdateConnectionWithError(t *testing.T) {
	hc := NewHealthChecker("test-service", "1.0.0")
	defer hc.Shutdown()

	hc.UpdateConnection("benchmark_model", "error", 0, errors.New("benchmark model not loaded"))

	hc.mu.RLock()
	conn, exists := hc.connections["benchmark_model"]
	hc.mu.RUnlock()

	if !exists {
		t.Fatal("Connection should exist")
	}

	if conn.Status != "error" {
		t.Errorf("Expected status 'error', got %s", conn.Status)
	}

	if conn.LastError != "benchmark model not loaded" {
		t.Errorf("Expected error message, got %s", conn.LastError)
	}

	hc.RemoveConnection("benchmark_model")
	if health := hc.GetHealth(); len(health.Connections) != 0 {
		t.Errorf("Expected no connections after removal, got %d", len(health.Connections))
	}
}

func TestGetHealthStatus(t *testing.T) {
	hc := NewHealthChecker("test-service", "1.0.0")
	defer hc.Shutdown()

	if health := hc.GetHealth(); health.Status != "healthy" {
		t.Errorf("Expected status 'healthy', got %s", health.Status)
	}

	hc.UpdateConnection("conn1", "connected", 1, nil)
	hc.UpdateConnection("conn2", "degraded", 2, nil)
	if health := hc.GetHealth(); health.Status != "degraded" {
		t.Errorf("Expected status 'degraded', got %s", health.Status)
	}

	hc.UpdateConnection("conn3", "error", 3, errors.New("test error"))
	if health := hc.GetHealth(); health.Status != "degraded" {
		t.Errorf("Expected status 'degraded', got %s", health.Status)
	}

	// 2 of 3 in error
	hc.UpdateConnection("conn2", "disconnected", 2, errors.New("gone"))
	if health := hc.GetHealth(); health.Status != "unhealthy" {
		t.Errorf("Expected status 'unhealthy', got %s", health.Status)
	}
}

func TestHealthHandler(t *testing.T) {
	hc := NewHealthChecker("test-service", "1.0.0")
	defer hc.Shutdown()

	hc.UpdateConnection("benchmark_model", "connected", 0, nil)

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	hc.HealthHandler()(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status %d, got %d", http.StatusOK, w.Code)
	}

	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Expected Content-Type 'application/json', got %s", ct)
	}

	var health ServiceHealth
	if err := json.NewDecoder(w.Body).Decode(&health); err != nil {
		t.Fatalf("Failed to decode health response: %v", err)
	}

	if health.Status != "healthy" {
		t.Errorf("Expected status 'healthy', got %s", health.Status)
	}

	if health.Connections["benchmark_model"].Status != "connected" {
		t.Errorf("Expected benchmark_model connected, got %+v", health.Connections["benchmark_model"])
	}
}

func TestReadinessHandlerNotReady(t *testing.T) {
	hc := NewHealthChecker("test-service", "1.0.0")
	defer hc.Shutdown()

	hc.UpdateConnection("benchmark_model", "error", 0, errors.New("not loaded"))

	req := httptest.NewRequest("GET", "/ready", nil)
	w := httptest.NewRecorder()
	hc.ReadinessHandler()(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected status %d, got %d", http.StatusServiceUnavailable, w.Code)
	}

	var response map[string]interface{}
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode readiness response: %v", err)
	}

	if ready, ok := response["ready"].(bool); !ok || ready {
		t.Error("Expected ready to be false")
	}
}

func TestLivenessHandler(t *testing.T) {
	hc := NewHealthChecker("test-service", "1.0.0")
	defer hc.Shutdown()

	req := httptest.NewRequest("GET", "/live", nil)
	w := httptest.NewRecorder()
	hc.LivenessHandler()(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status %d, got %d", http.StatusOK, w.Code)
	}

	var response map[string]interface{}
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode liveness response: %v", err)
	}

	if alive, ok := response["alive"].(bool); !ok || !alive {
		t.Error("Expected alive to be true")
	}
}

func TestConnectionMonitorInitialCheck(t *testing.T) {
	hc := NewHealthChecker("test-service", "1.0.0")
	defer hc.Shutdown()

	monitor := NewConnectionMonitor("benchmark_model", hc, func() error { return nil }, time.Hour)
	defer monitor.Stop()

	monitor.Start()

	// Start records the first status before returning
	hc.mu.RLock()
	conn, exists := hc.connections["benchmark_model"]
	hc.mu.RUnlock()

	if !exists {
		t.Fatal("Connection should exist")
	}

	if conn.Status != "connected" {
		t.Errorf("Expected status 'connected', got %s", conn.Status)
	}
}

func TestConnectionMonitorError(t *testing.T) {
	hc := NewHealthChecker("test-service", "1.0.0")
	defer hc.Shutdown()

	fail := make(chan struct{})
	checkFunc := func() error {
		select {
		case <-fail:
			return errors.New("test error")
		default:
			return nil
		}
	}

	monitor := NewConnectionMonitor("benchmark_model", hc, checkFunc, 20*time.Millisecond)
	defer monitor.Stop()
	monitor.Start()

	close(fail)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if hc.GetHealth().Connections["benchmark_model"].Status == "error" {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Error("Expected monitor to report error status")
}

func BenchmarkGetHealth(b *testing.B) {
	hc := NewHealthChecker("test-service", "1.0.0")
	defer hc.Shutdown()

	hc.UpdateConnection("benchmark_model", "connected", 0, nil)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		hc.GetHealth()
	}
}

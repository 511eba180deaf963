package server

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/giygas/prescriptions-api/config"
	"github.com/giygas/prescriptions-api/logging"
)

// stubHandler answers each route with a fixed body
type stubHandler struct{}

func (stubHandler) Chat(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"response":{"Prescriptions":[]}}`))
}

func (stubHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"healthy"}`))
}

func (stubHandler) Schema(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte(`{}`))
}

func testConfig() *config.Config {
	return &config.Config{
		Port:           "8080",
		Address:        "localhost",
		Env:            config.EnvTest,
		LogLevel:       "info",
		MaxRequestBody: 1048576,
		MaxHeaderSize:  1048576,
		LLM:            config.LLMConfig{Timeout: 30 * time.Second},
	}
}

func TestNewServer(t *testing.T) {
	logging.InitLogger("")
	cfg := testConfig()
	server := NewServer(cfg, stubHandler{})

	if server == nil {
		t.Fatal("Server should not be nil")
	}
	if server.server.Addr != "localhost:8080" {
		t.Errorf("Expected server address localhost:8080, got %s", server.server.Addr)
	}
	if server.server.WriteTimeout < cfg.LLM.Timeout {
		t.Errorf("WriteTimeout %s must outlast the generation timeout %s", server.server.WriteTimeout, cfg.LLM.Timeout)
	}
	if server.config != cfg {
		t.Error("Config should be set correctly")
	}
	if server.RateLimiter() == nil {
		t.Error("Rate limiter should be created")
	}
}

func TestSetupRoutes(t *testing.T) {
	logging.InitLogger("")
	server := NewServer(testConfig(), stubHandler{})

	tests := []struct {
		method       string
		path         string
		expectedCode int
		bodyContains string
	}{
		{"POST", "/chat", http.StatusOK, `"response"`},
		{"GET", "/health", http.StatusOK, `"healthy"`},
		{"GET", "/schema", http.StatusOK, `{}`},
		{"GET", "/metrics", http.StatusOK, "http_request_in_flight"},
		{"GET", "/chat", http.StatusMethodNotAllowed, ""},
		{"POST", "/health", http.StatusMethodNotAllowed, ""},
		{"GET", "/missing", http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(`{"text":"x"}`))
			rr := httptest.NewRecorder()
			server.Router().ServeHTTP(rr, req)

			if rr.Code != tt.expectedCode {
				t.Errorf("Expected status %d, got %d", tt.expectedCode, rr.Code)
			}
			if tt.bodyContains != "" && !strings.Contains(rr.Body.String(), tt.bodyContains) {
				t.Errorf("Body should contain %s, got %s", tt.bodyContains, rr.Body.String())
			}
		})
	}
}

func TestSetupMiddleware(t *testing.T) {
	logging.InitLogger("")
	server := NewServer(testConfig(), stubHandler{})

	req := httptest.NewRequest("GET", "/health", nil)
	rr := httptest.NewRecorder()
	server.Router().ServeHTTP(rr, req)

	if rr.Header().Get("X-RateLimit-Limit") == "" {
		t.Error("Rate limit headers should be set")
	}
	if server.RateLimiter().Len() != 1 {
		t.Errorf("Expected one tracked client, got %d", server.RateLimiter().Len())
	}
}

func TestCORSPreflight(t *testing.T) {
	logging.InitLogger("")
	server := NewServer(testConfig(), stubHandler{})

	req := httptest.NewRequest("OPTIONS", "/chat", nil)
	req.Header.Set("Origin", "https://clinic.example")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rr := httptest.NewRecorder()
	server.Router().ServeHTTP(rr, req)

	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q, want *", got)
	}
	if got := rr.Header().Get("Access-Control-Allow-Methods"); !strings.Contains(got, "POST") {
		t.Errorf("Access-Control-Allow-Methods = %q, want POST allowed", got)
	}
}

func TestCORSPreflightAllowsAnyHeader(t *testing.T) {
	logging.InitLogger("")
	server := NewServer(testConfig(), stubHandler{})

	req := httptest.NewRequest("OPTIONS", "/chat", nil)
	req.Header.Set("Origin", "https://clinic.example")
	req.Header.Set("Access-Control-Request-Method", "POST")
	req.Header.Set("Access-Control-Request-Headers", "Authorization, X-Clinic-Id")
	rr := httptest.NewRecorder()
	server.Router().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected preflight status 200, got %d", rr.Code)
	}
	got := strings.ToLower(rr.Header().Get("Access-Control-Allow-Headers"))
	if !strings.Contains(got, "authorization") || !strings.Contains(got, "x-clinic-id") {
		t.Errorf("Access-Control-Allow-Headers = %q, want requested headers allowed", got)
	}
}

func TestServerLifecycle(t *testing.T) {
	logging.InitLogger("")

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	_, port, _ := net.SplitHostPort(listener.Addr().String())
	listener.Close()

	cfg := testConfig()
	cfg.Address = "127.0.0.1"
	cfg.Port = port
	server := NewServer(cfg, stubHandler{})

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	url := "http://127.0.0.1:" + port + "/health"
	var resp *http.Response
	for range 50 {
		resp, err = http.Get(url)
		if err == nil {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("Server did not come up: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}
	if err := <-errCh; err != nil {
		t.Errorf("Start should return nil after shutdown, got %v", err)
	}
}

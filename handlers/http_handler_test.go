package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/giygas/prescriptions-api/interfaces"
	"github.com/giygas/prescriptions-api/prescription"
)

// mockGenerator answers every generation with a fixed reply
type mockGenerator struct {
	reply    string
	err      error
	lastNote string
}

func (m *mockGenerator) Name() string { return "mock" }

func (m *mockGenerator) Generate(_ context.Context, req interfaces.GenerationRequest) (string, error) {
	m.lastNote = req.UserText
	return m.reply, m.err
}

func newTestHandler(gen *mockGenerator) interfaces.HTTPHandler {
	svc := prescription.NewService(gen, prescription.Options{Timeout: time.Second})
	return NewHTTPHandler(svc)
}

func postChat(t *testing.T, h interfaces.HTTPHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.Chat(rr, req)
	return rr
}

func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder) prescription.Envelope {
	t.Helper()
	var env prescription.Envelope
	if err := json.Unmarshal(rr.Body.Bytes(), &env); err != nil {
		t.Fatalf("Failed to decode response %s: %v", rr.Body.String(), err)
	}
	return env
}

func TestChatNormalizesReply(t *testing.T) {
	gen := &mockGenerator{reply: `{"Prescriptions":[{"DiagnosisInformation":{"Diagnosis":"Flu","Medicine":"Tamiflu"}}]}`}
	h := newTestHandler(gen)

	rr := postChat(t, h, `{"text":"Patient has flu, prescribe Tamiflu"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Errorf("Content-Type = %s", ct)
	}

	want := `{"response":{"Prescriptions":[{` +
		`"DiagnosisInformation":{"Diagnosis":"Flu","Medicine":"Tamiflu"},` +
		`"MedicationDetails":{"Dose":null,"DoseUnit":null,"DoseRoute":null,"Frequency":null,` +
		`"FrequencyDuration":null,"FrequencyUnit":null,"Quantity":null,"QuantityUnit":null,` +
		`"Refill":null,"Pharmacy":null},` +
		`"Description":null}]}}`
	if rr.Body.String() != want {
		t.Errorf("Unexpected body\n got: %s\nwant: %s", rr.Body.String(), want)
	}
	if gen.lastNote != "Patient has flu, prescribe Tamiflu" {
		t.Errorf("Generator received %q", gen.lastNote)
	}
}

func TestChatRejectsBadRequests(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantMsg string
	}{
		{"empty text", `{"text":""}`, "No text provided"},
		{"missing text", `{}`, "No text provided"},
		{"control characters only", `{"text":"\u0000\u001b"}`, "No text provided"},
		{"malformed body", `{"text":`, "Invalid request body"},
		{"wrong type", `{"text":["a"]}`, "Invalid request body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &mockGenerator{reply: `{"Prescriptions":[]}`}
			rr := postChat(t, newTestHandler(gen), tt.body)

			if rr.Code != http.StatusBadRequest {
				t.Fatalf("Expected status 400, got %d", rr.Code)
			}
			var body map[string]string
			if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
				t.Fatal(err)
			}
			if body["error"] != tt.wantMsg {
				t.Errorf("error = %q, want %q", body["error"], tt.wantMsg)
			}
			if gen.lastNote != "" {
				t.Error("Generator must not be called for rejected requests")
			}
		})
	}
}

func TestChatReturnsDefaultDocument(t *testing.T) {
	tests := []struct {
		name string
		gen  *mockGenerator
	}{
		{"truncated reply", &mockGenerator{reply: `{"Prescriptions":[{"Diagnos`}},
		{"prose reply", &mockGenerator{reply: "I am unable to help."}},
		{"upstream failure", &mockGenerator{err: errors.New("502 bad gateway")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := postChat(t, newTestHandler(tt.gen), `{"text":"x"}`)
			if rr.Code != http.StatusOK {
				t.Fatalf("Expected status 200, got %d", rr.Code)
			}

			env := decodeEnvelope(t, rr)
			if len(env.Response.Prescriptions) != 1 {
				t.Fatalf("Expected one default prescription, got %d", len(env.Response.Prescriptions))
			}
			if got := env.Response.Prescriptions[0].Description; got != prescription.Text(prescription.RetryMessage) {
				t.Errorf("Description = %v", got)
			}
			if strings.Contains(rr.Body.String(), "502") {
				t.Error("Upstream error text must not leak to the client")
			}
		})
	}
}

func TestChatSanitizesNote(t *testing.T) {
	gen := &mockGenerator{reply: `{"Prescriptions":[]}`}
	postChat(t, newTestHandler(gen), `{"text":"flu\u0000 note"}`)

	if gen.lastNote != "flu note" {
		t.Errorf("Generator received %q, want control characters stripped", gen.lastNote)
	}
}

func TestHealthCheck(t *testing.T) {
	h := newTestHandler(&mockGenerator{})
	rr := httptest.NewRecorder()
	h.HealthCheck(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}
	if rr.Body.String() != `{"status":"healthy"}` {
		t.Errorf("Unexpected body: %s", rr.Body.String())
	}
}

func TestSchemaEndpoint(t *testing.T) {
	h := newTestHandler(&mockGenerator{})
	rr := httptest.NewRecorder()
	h.Schema(rr, httptest.NewRequest(http.MethodGet, "/schema", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}
	for _, want := range []string{`"Prescriptions"`, `"MedicationDetails"`, `"required"`} {
		if !strings.Contains(rr.Body.String(), want) {
			t.Errorf("Schema missing %s", want)
		}
	}
}

func TestRespondWithError(t *testing.T) {
	rr := httptest.NewRecorder()
	RespondWithError(rr, http.StatusTooManyRequests, "Rate limit exceeded")

	if rr.Code != http.StatusTooManyRequests {
		t.Errorf("Expected status 429, got %d", rr.Code)
	}
	if rr.Body.String() != `{"error":"Rate limit exceeded"}` {
		t.Errorf("Unexpected body: %s", rr.Body.String())
	}
}

// Package interfaces defines core abstractions for the prescriptions API
// to improve testability, maintainability, and separation of concerns.
package interfaces

import (
	"context"
	"net/http"
)

// GenerationRequest is everything a text generator needs for one completion.
// It is built fresh for every request and never shared.
type GenerationRequest struct {
	SystemPrompt string
	UserText     string
	Temperature  float64
	MaxTokens    int
}

// Generator defines the contract for the upstream text-generation service.
// Implementations return the raw completion text; interpreting it is the
// caller's job.
type Generator interface {
	// Name identifies the provider in logs and metrics
	Name() string

	// Generate performs a single blocking completion
	Generate(ctx context.Context, req GenerationRequest) (string, error)
}

// Scheduler defines the contract for background maintenance jobs.
type Scheduler interface {
	// Lifecycle management
	Start() error
	Stop()
}

// HTTPHandler defines the contract for HTTP request handlers.
type HTTPHandler interface {
	Chat(w http.ResponseWriter, r *http.Request)
	HealthCheck(w http.ResponseWriter, r *http.Request)
	Schema(w http.ResponseWriter, r *http.Request)
}

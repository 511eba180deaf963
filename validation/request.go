// Package validation checks incoming chat requests and prepares the note text.
package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"unicode"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	// ErrNoText means the body decoded but carried no note
	ErrNoText = errors.New("No text provided")

	// ErrInvalidBody means the body was not a JSON object
	ErrInvalidBody = errors.New("Invalid request body")
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ChatRequest is the body of POST /chat
type ChatRequest struct {
	Text string `json:"text" validate:"required"`
}

// DecodeChatRequest reads a chat request body, sanitizes the note and
// validates what is left. Returned errors wrap ErrInvalidBody or ErrNoText.
func DecodeChatRequest(body io.Reader) (ChatRequest, error) {
	var req ChatRequest
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		return ChatRequest{}, fmt.Errorf("%w: %v", ErrInvalidBody, err)
	}
	req.Text = SanitizeNote(req.Text)
	if err := validate.Struct(req); err != nil {
		return ChatRequest{}, fmt.Errorf("%w: %v", ErrNoText, err)
	}
	return req, nil
}

// SanitizeNote applies NFC normalization and strips control characters,
// keeping line breaks and tabs.
func SanitizeNote(text string) string {
	t := transform.Chain(norm.NFC, runes.Remove(runes.Predicate(isStrippedControl)))
	out, _, err := transform.String(t, text)
	if err != nil {
		return text
	}
	return out
}

func isStrippedControl(r rune) bool {
	switch r {
	case '\n', '\r', '\t':
		return false
	}
	return unicode.IsControl(r)
}

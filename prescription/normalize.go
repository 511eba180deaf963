package prescription

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrIncomplete means the reply does not end like a JSON object, usually truncated output
	ErrIncomplete = errors.New("model reply is not a complete JSON object")
	// ErrInvalidJSON means the reply is not valid JSON
	ErrInvalidJSON = errors.New("model reply is not valid JSON")
	// ErrInvalidShape means the reply is JSON but not shaped like a prescription document
	ErrInvalidShape = errors.New("model reply has an unexpected shape")
	// ErrUpstream means the text generator failed or timed out
	ErrUpstream = errors.New("text generation failed")
)

// Outcome labels how a request was resolved, for logs and metrics
type Outcome string

const (
	OutcomeNormalized    Outcome = "normalized"
	OutcomeIncomplete    Outcome = "incomplete"
	OutcomeInvalidJSON   Outcome = "invalid_json"
	OutcomeInvalidShape  Outcome = "invalid_shape"
	OutcomeUpstreamError Outcome = "upstream_error"
)

// OutcomeOf maps a Normalize or Service error to its outcome label
func OutcomeOf(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeNormalized
	case errors.Is(err, ErrUpstream):
		return OutcomeUpstreamError
	case errors.Is(err, ErrIncomplete):
		return OutcomeIncomplete
	case errors.Is(err, ErrInvalidJSON):
		return OutcomeInvalidJSON
	default:
		return OutcomeInvalidShape
	}
}

// rangeToken is the bare dose range the model sometimes emits unquoted,
// e.g. {"Dose": 1-2}
const rangeToken = "1-2"

// RepairRangeTokens quotes every 1-2 that sits outside a JSON string literal.
// Text inside strings is left alone, so "1-2 tablets" survives unchanged.
func RepairRangeTokens(raw string) string {
	if !strings.Contains(raw, rangeToken) {
		return raw
	}

	var b strings.Builder
	b.Grow(len(raw) + 8)

	inString, escaped := false, false
	for i := 0; i < len(raw); {
		c := raw[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			b.WriteByte(c)
			i++
			continue
		}

		if strings.HasPrefix(raw[i:], rangeToken) {
			b.WriteString(`"` + rangeToken + `"`)
			i += len(rangeToken)
			continue
		}

		if c == '"' {
			inString = true
		}
		b.WriteByte(c)
		i++
	}

	return b.String()
}

// Normalize parses a model reply into a Document with every field present.
// Missing fields become the null marker and present fields are kept as-is.
// On any failure the default document is returned together with an error
// wrapping ErrIncomplete, ErrInvalidJSON or ErrInvalidShape.
func Normalize(raw string) (doc Document, err error) {
	defer func() {
		if r := recover(); r != nil {
			doc = DefaultDocument()
			err = fmt.Errorf("%w: %v", ErrInvalidShape, r)
		}
	}()

	text := RepairRangeTokens(strings.TrimSpace(raw))

	// Cheap check before parsing so truncated output short-circuits
	if !strings.HasSuffix(text, "}") {
		return DefaultDocument(), ErrIncomplete
	}

	var parsed Document
	if err := json.Unmarshal([]byte(text), &parsed); err != nil {
		return DefaultDocument(), classifyDecodeError(err)
	}

	if parsed.Prescriptions == nil {
		parsed.Prescriptions = []Entry{}
	}

	return parsed, nil
}

func classifyDecodeError(err error) error {
	var syntaxErr *json.SyntaxError
	switch {
	case errors.As(err, &syntaxErr):
		return fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	case errors.Is(err, ErrInvalidShape):
		return err
	default:
		return fmt.Errorf("%w: %v", ErrInvalidShape, err)
	}
}

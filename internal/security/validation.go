package security

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Default inbound payload limits. Telegram updates are a few KiB; files
// are fetched separately through getFile.
const (
	DefaultMaxPayloadSize = 1 << 20
	DefaultMaxJSONDepth   = 32
)

// Payload errors.
var (
	ErrPayloadTooLarge = errors.New("payload exceeds maximum size")
	ErrJSONTooDeep     = errors.New("JSON nesting exceeds maximum depth")
	ErrInvalidJSON     = errors.New("invalid JSON")
)

// PayloadLimits bounds an inbound webhook body. Zero fields use the
// defaults.
type PayloadLimits struct {
	MaxBytes int64
	MaxDepth int
}

func (l PayloadLimits) withDefaults() PayloadLimits {
	if l.MaxBytes <= 0 {
		l.MaxBytes = DefaultMaxPayloadSize
	}
	if l.MaxDepth <= 0 {
		l.MaxDepth = DefaultMaxJSONDepth
	}
	return l
}

// ReadPayload reads a webhook body from r and checks it against limits.
// It stops reading one byte past MaxBytes. Errors wrap ErrPayloadTooLarge,
// ErrJSONTooDeep or ErrInvalidJSON, or are the read error itself.
func ReadPayload(r io.Reader, limits PayloadLimits) ([]byte, error) {
	limits = limits.withDefaults()

	data, err := io.ReadAll(io.LimitReader(r, limits.MaxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limits.MaxBytes {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrPayloadTooLarge, limits.MaxBytes)
	}
	if err := checkJSONDepth(data, limits.MaxDepth); err != nil {
		return nil, err
	}
	return data, nil
}

// checkJSONDepth walks the tokens of data and fails once nesting exceeds
// limit. Only well-formed, non-empty JSON passes.
func checkJSONDepth(data []byte, limit int) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return fmt.Errorf("%w: empty body", ErrInvalidJSON)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	depth := 0
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			if depth != 0 {
				return fmt.Errorf("%w: unexpected end of input", ErrInvalidJSON)
			}
			return nil
		}
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidJSON, err)
		}

		switch tok {
		case json.Delim('{'), json.Delim('['):
			if depth++; depth > limit {
				return fmt.Errorf("%w: depth %d (max %d)", ErrJSONTooDeep, depth, limit)
			}
		case json.Delim('}'), json.Delim(']'):
			depth--
		}
	}
}

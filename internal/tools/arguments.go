package tools

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/crowagent/crowagent/internal/catalog"
	"github.com/crowagent/crowagent/internal/physics"
)

// ArgumentError reports a missing or mistyped tool argument.
type ArgumentError struct {
	Tool   string
	Param  string
	Reason string
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("%s: argument %q %s", e.Tool, e.Param, e.Reason)
}

// Error kinds reported in tool-result payloads.
const (
	KindValidation    = "validation"
	KindUnknownEntity = "unknown_entity"
	KindArgument      = "invalid_argument"
	KindInternal      = "internal"
)

// ErrorKind classifies err for the model.
func ErrorKind(err error) string {
	var (
		argErr     *ArgumentError
		unknownErr *catalog.UnknownEntityError
	)
	switch {
	case errors.As(err, &argErr):
		return KindArgument
	case errors.As(err, &unknownErr):
		return KindUnknownEntity
	case errors.Is(err, physics.ErrInvalidInput):
		return KindValidation
	}
	return KindInternal
}

// ErrorPayload renders err as the JSON object appended to history in place
// of a tool result.
func ErrorPayload(err error) string {
	b, mErr := json.Marshal(map[string]string{"error": err.Error(), "kind": ErrorKind(err)})
	if mErr != nil {
		return `{"error":"unencodable error","kind":"internal"}`
	}
	return string(b)
}

// arguments reads typed values out of a decoded tool-call argument map.
type arguments struct {
	tool string
	m    map[string]any
}

func (a arguments) fail(param, reason string) error {
	return &ArgumentError{Tool: a.tool, Param: param, Reason: reason}
}

func (a arguments) requiredString(key string) (string, error) {
	v, ok := a.m[key]
	if !ok || v == nil {
		return "", a.fail(key, "is required")
	}
	s, ok := v.(string)
	if !ok {
		return "", a.fail(key, fmt.Sprintf("must be a string, got %T", v))
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return "", a.fail(key, "must not be empty")
	}
	return s, nil
}

func (a arguments) optionalString(key, def string) (string, error) {
	if v, ok := a.m[key]; !ok || v == nil {
		return def, nil
	}
	return a.requiredString(key)
}

func (a arguments) requiredNumber(key string) (float64, error) {
	v, ok := a.m[key]
	if !ok || v == nil {
		return 0, a.fail(key, "is required")
	}
	f, err := toFloat(v)
	if err != nil {
		return 0, a.fail(key, err.Error())
	}
	return f, nil
}

func (a arguments) optionalNumber(key string, def float64) (float64, error) {
	if v, ok := a.m[key]; !ok || v == nil {
		return def, nil
	}
	return a.requiredNumber(key)
}

// toFloat accepts the numeric shapes gateways produce, including numeric
// strings some models emit.
func toFloat(v any) (float64, error) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		x, err := n.Float64()
		if err != nil {
			return 0, fmt.Errorf("must be a number, got %q", n.String())
		}
		f = x
	case string:
		x, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, fmt.Errorf("must be a number, got %q", n)
		}
		f = x
	default:
		return 0, fmt.Errorf("must be a number, got %T", v)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, errors.New("must be finite")
	}
	return f, nil
}

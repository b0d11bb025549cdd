package kpilog

import (
	"encoding/json"
	"strconv"

	"github.com/rs/zerolog/log"
)

// Payload is the arbitrary structured detail attached to an entry.
// Accessors never fail: missing or mistyped fields yield zero values and false.
type Payload map[string]any

// Float returns the numeric field key.
func (p Payload) Float(key string) (float64, bool) {
	if p == nil {
		return 0, false
	}
	return ToFloat(p[key])
}

// FloatOr returns the numeric field key, or fallback when it is absent.
func (p Payload) FloatOr(key string, fallback float64) float64 {
	if v, ok := p.Float(key); ok {
		return v
	}
	return fallback
}

// String returns the string field key.
func (p Payload) String(key string) (string, bool) {
	if p == nil {
		return "", false
	}
	s, ok := p[key].(string)
	return s, ok
}

// Bool returns the boolean field key.
func (p Payload) Bool(key string) (bool, bool) {
	if p == nil {
		return false, false
	}
	b, ok := p[key].(bool)
	return b, ok
}

// List returns the array field key.
func (p Payload) List(key string) ([]any, bool) {
	if p == nil {
		return nil, false
	}
	l, ok := p[key].([]any)
	return l, ok
}

// Objects returns the elements of the array field key that are objects.
func (p Payload) Objects(key string) []Payload {
	list, _ := p.List(key)
	out := make([]Payload, 0, len(list))
	for _, item := range list {
		if obj, ok := AsPayload(item); ok {
			out = append(out, obj)
		}
	}
	return out
}

// Object returns the nested object field key.
func (p Payload) Object(key string) (Payload, bool) {
	if p == nil {
		return nil, false
	}
	return AsPayload(p[key])
}

// AsPayload converts a decoded JSON object into a Payload.
func AsPayload(v any) (Payload, bool) {
	switch o := v.(type) {
	case Payload:
		return o, true
	case map[string]any:
		return Payload(o), true
	default:
		return nil, false
	}
}

// ToFloat coerces JSON-ish numbers (and numeric strings) to float64.
func ToFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// normalize passes the payload through JSON so the in-memory copy has the
// same shape a reload would produce (numbers as float64, nested maps as map[string]any).
// clone deep-copies the maps and slices of a normalized payload.
func (p Payload) clone() Payload {
	if p == nil {
		return nil
	}
	out := make(Payload, len(p))
	for k, v := range p {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch v := v.(type) {
	case map[string]any:
		return map[string]any(Payload(v).clone())
	case Payload:
		return v.clone()
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return v
	}
}

func normalize(p Payload) Payload {
	if p == nil {
		return nil
	}
	raw, err := json.Marshal(p)
	if err != nil {
		log.Warn().Err(err).Msg("Payload is not JSON-serializable, storing as-is")
		return p
	}
	var out Payload
	if err := json.Unmarshal(raw, &out); err != nil {
		log.Warn().Err(err).Msg("Payload round-trip failed, storing as-is")
		return p
	}
	return out
}

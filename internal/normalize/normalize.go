// Package normalize turns loosely typed backend JSON into the models types.
//
// The backend omits fields, serializes decimals as strings and occasionally
// sends null where a list is expected. Every such case is resolved here so
// that the rest of the program can do arithmetic without checking.
package normalize

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
)

// ErrMalformed is returned when a body cannot be parsed as JSON at all.
// Missing or mistyped fields are never an error.
var ErrMalformed = errors.New("malformed response")

// Decode parses body keeping numbers as json.Number.
func Decode(body []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return v, nil
}

// Number coerces v to a finite float64. Missing values, booleans, NaN,
// infinities and anything non-numeric become 0.
func Number(v any) float64 {
	var f float64
	switch n := v.(type) {
	case nil, bool:
		return 0
	case string:
		f = parseDecimal(n)
	case json.Number:
		f = parseDecimal(n.String())
	default:
		var err error
		if f, err = cast.ToFloat64E(v); err != nil {
			return 0
		}
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

func parseDecimal(s string) float64 {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	f, _ := d.Float64()
	return f
}

// Int coerces v to an int, rounding fractional values.
func Int(v any) int {
	return int(math.Round(Number(v)))
}

// String returns v as a trimmed string, or fallback when v is missing or empty.
// Numbers are formatted since account ids sometimes arrive unquoted.
func String(v any, fallback string) string {
	var s string
	switch x := v.(type) {
	case nil:
		return fallback
	case string:
		s = x
	case json.Number:
		s = x.String()
	case bool, map[string]any, []any:
		return fallback
	default:
		var err error
		if s, err = cast.ToStringE(v); err != nil {
			return fallback
		}
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return fallback
	}
	return s
}

// Bool accepts JSON booleans and "true"/"false" strings.
func Bool(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(b))
		return err == nil && parsed
	default:
		return false
	}
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05",
	time.DateOnly,
}

// Time parses the timestamp formats the backend emits. Unparseable values
// yield the zero time.
func Time(v any) time.Time {
	s := String(v, "")
	if s == "" {
		return time.Time{}
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// TimePtr is Time returning nil instead of the zero time.
func TimePtr(v any) *time.Time {
	t := Time(v)
	if t.IsZero() {
		return nil
	}
	return &t
}

// List returns v as a slice, or an empty slice.
func List(v any) []any {
	if l, ok := v.([]any); ok {
		return l
	}
	return []any{}
}

// Object returns v as a map, or an empty map.
func Object(v any) map[string]any {
	if m, ok := v.(map[string]any); ok {
		return m
	}
	return map[string]any{}
}

// Strings keeps the non-empty string forms of the elements of v.
func Strings(v any) []string {
	out := []string{}
	for _, item := range List(v) {
		if s := String(item, ""); s != "" {
			out = append(out, s)
			continue
		}
		// permission issues sometimes arrive as objects
		if m, ok := item.(map[string]any); ok {
			if s := String(first(m, "message", "error", "service"), ""); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

// first returns the value of the first key present in m.
func first(m map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

func raw(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		return json.RawMessage("null")
	}
	return b
}

// keyOrder returns the keys of the object stored under field, in document
// order. Decoding into a map loses that order, and the UI breaks ties by it.
func keyOrder(body []byte, field string) []string {
	var root map[string]json.RawMessage
	if err := json.Unmarshal(body, &root); err != nil {
		return []string{}
	}
	obj, ok := root[field]
	if !ok {
		return []string{}
	}

	dec := json.NewDecoder(bytes.NewReader(obj))
	if tok, err := dec.Token(); err != nil || tok != json.Delim('{') {
		return []string{}
	}

	keys := []string{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		key, ok := tok.(string)
		if !ok {
			break
		}
		keys = append(keys, key)

		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			break
		}
	}
	return lo.Uniq(keys)
}

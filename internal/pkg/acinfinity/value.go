package acinfinity

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/spf13/cast"
)

// Value is the result of a property lookup. The vendor is inconsistent about
// sending numbers as numbers or strings, so conversions are lenient and fall
// back to the supplied default.
type Value struct {
	raw any
	ok  bool
}

func found(raw any) Value {
	return Value{raw: raw, ok: raw != nil}
}

func (v Value) Exists() bool {
	return v.ok
}

func (v Value) Int(def int) int {
	if !v.ok {
		return def
	}
	// cast reads "010" as octal; the API always means decimal.
	if str, ok := v.raw.(string); ok {
		if i, err := strconv.ParseInt(strings.TrimSpace(str), 10, 64); err == nil {
			return int(i)
		}
	}
	i, err := cast.ToIntE(normalize(v.raw))
	if err != nil {
		return def
	}
	return i
}

func (v Value) Float(def float64) float64 {
	if !v.ok {
		return def
	}
	f, err := cast.ToFloat64E(normalize(v.raw))
	if err != nil {
		return def
	}
	return f
}

func (v Value) String(def string) string {
	if !v.ok {
		return def
	}
	s, err := cast.ToStringE(normalize(v.raw))
	if err != nil {
		return def
	}
	return s
}

func normalize(raw any) any {
	n, ok := raw.(json.Number)
	if !ok {
		return raw
	}
	if i, err := n.Int64(); err == nil {
		return i
	}
	if f, err := n.Float64(); err == nil {
		return f
	}
	return n.String()
}

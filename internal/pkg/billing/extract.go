package billing

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Payload is a decoded webhook body. Gateways nest the same logical field
// under different parents depending on the event subtype, so lookups go
// through ordered dotted paths instead of fixed structs.
type Payload map[string]interface{}

func decodePayload(body []byte) (Payload, error) {
	var p Payload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, err
	}
	if p == nil {
		return nil, errEmptyPayload
	}
	return p, nil
}

// Lookup resolves one dotted path. A string value that itself holds a JSON
// object (Paystack sends metadata that way from some integrations) is
// decoded on the fly.
func (p Payload) Lookup(path string) (interface{}, bool) {
	var cur interface{} = map[string]interface{}(p)
	for _, key := range strings.Split(path, ".") {
		obj, ok := asObject(cur)
		if !ok {
			return nil, false
		}
		cur, ok = obj[key]
		if !ok {
			return nil, false
		}
	}
	if cur == nil {
		return nil, false
	}
	return cur, true
}

// FirstNonNull returns the value of the first path that resolves to a
// non-null value.
func (p Payload) FirstNonNull(paths ...string) (interface{}, bool) {
	for _, path := range paths {
		if v, ok := p.Lookup(path); ok {
			return v, true
		}
	}
	return nil, false
}

// FirstString is FirstNonNull for scalar fields. Numbers are formatted
// without exponent; empty strings are skipped.
func (p Payload) FirstString(paths ...string) string {
	for _, path := range paths {
		v, ok := p.Lookup(path)
		if !ok {
			continue
		}
		if s := scalarString(v); s != "" {
			return s
		}
	}
	return ""
}

// FirstInt64 returns the first path holding a number or numeric string.
func (p Payload) FirstInt64(paths ...string) (int64, bool) {
	for _, path := range paths {
		v, ok := p.Lookup(path)
		if !ok {
			continue
		}
		switch n := v.(type) {
		case float64:
			return int64(n), true
		case string:
			if i, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64); err == nil {
				return i, true
			}
		}
	}
	return 0, false
}

// FirstTime parses the first path holding an RFC 3339 timestamp.
func (p Payload) FirstTime(paths ...string) *time.Time {
	for _, path := range paths {
		s := p.FirstString(path)
		if s == "" {
			continue
		}
		for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05.000Z", "2006-01-02"} {
			if t, err := time.Parse(layout, s); err == nil {
				t = t.UTC()
				return &t
			}
		}
	}
	return nil
}

func asObject(v interface{}) (map[string]interface{}, bool) {
	switch o := v.(type) {
	case map[string]interface{}:
		return o, true
	case Payload:
		return o, true
	case string:
		s := strings.TrimSpace(o)
		if !strings.HasPrefix(s, "{") {
			return nil, false
		}
		var embedded map[string]interface{}
		if err := json.Unmarshal([]byte(s), &embedded); err != nil {
			return nil, false
		}
		return embedded, true
	default:
		return nil, false
	}
}

func scalarString(v interface{}) string {
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s)
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(s)
	default:
		return ""
	}
}

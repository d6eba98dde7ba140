package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Options is a nested key-value tree attached to users and notes.
// Leaves are restricted to a closed set of kinds: string, bool, int64
// and float64. Paths address nested keys and accept both "." and "/"
// as separators, so "image/url" and "image.url" name the same leaf.
type Options map[string]any

func splitPath(path string) []string {
	return strings.FieldsFunc(path, func(r rune) bool {
		return r == '.' || r == '/'
	})
}

// Get returns the leaf at path, or (nil, false) if any segment is
// missing or points through a non-map.
func (o Options) Get(path string) (any, bool) {
	parts := splitPath(path)
	if len(parts) == 0 {
		return nil, false
	}
	node := o
	for _, part := range parts[:len(parts)-1] {
		child, ok := node[part]
		if !ok {
			return nil, false
		}
		m, ok := toMap(child)
		if !ok {
			return nil, false
		}
		node = m
	}
	v, ok := node[parts[len(parts)-1]]
	return v, ok
}

// Set stores a leaf value at path, creating intermediate maps as
// needed. It rejects values outside the closed kind set and paths that
// would overwrite a non-map intermediate node.
func (o Options) Set(path string, value any) error {
	switch v := value.(type) {
	case string, bool, float64, int64:
	case int:
		value = int64(v)
	default:
		return fmt.Errorf("option %q: unsupported value kind %T", path, value)
	}

	parts := splitPath(path)
	if len(parts) == 0 {
		return fmt.Errorf("empty option path")
	}
	node := o
	for _, part := range parts[:len(parts)-1] {
		child, ok := node[part]
		if !ok {
			next := Options{}
			node[part] = next
			node = next
			continue
		}
		m, ok := toMap(child)
		if !ok {
			return fmt.Errorf("option %q: %q is not a subtree", path, part)
		}
		node[part] = m
		node = m
	}
	node[parts[len(parts)-1]] = value
	return nil
}

// String returns the string leaf at path, or def.
func (o Options) String(path, def string) string {
	if v, ok := o.Get(path); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

// Int returns the integer leaf at path, or def. JSON decoding yields
// float64 for numbers, so both numeric kinds are accepted.
func (o Options) Int(path string, def int) int {
	if v, ok := o.Get(path); ok {
		switch n := v.(type) {
		case int64:
			return int(n)
		case int:
			return n
		case float64:
			return int(n)
		}
	}
	return def
}

// Float returns the float leaf at path, or def.
func (o Options) Float(path string, def float64) float64 {
	if v, ok := o.Get(path); ok {
		switch n := v.(type) {
		case float64:
			return n
		case int64:
			return float64(n)
		case int:
			return float64(n)
		}
	}
	return def
}

// Bool returns the boolean leaf at path, or def.
func (o Options) Bool(path string, def bool) bool {
	if v, ok := o.Get(path); ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}

// MarshalJSON keeps an empty bag as "{}" rather than "null".
func (o Options) MarshalJSON() ([]byte, error) {
	if o == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(map[string]any(o))
}

// DecodeOptions parses the JSON serialization produced by storage.
// Empty input yields an empty, usable bag.
func DecodeOptions(data []byte) (Options, error) {
	if len(data) == 0 {
		return Options{}, nil
	}
	var o Options
	if err := json.Unmarshal(data, &o); err != nil {
		return nil, fmt.Errorf("decoding options: %w", err)
	}
	if o == nil {
		o = Options{}
	}
	return o, nil
}

func toMap(v any) (Options, bool) {
	switch m := v.(type) {
	case Options:
		return m, true
	case map[string]any:
		return Options(m), true
	}
	return nil, false
}

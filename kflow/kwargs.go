package kflow

import (
	"maps"
	"time"
)

// Kwargs is the configuration mapping bound to a node at construction.
// Recognized keys depend on the node.
type Kwargs map[string]any

func (k Kwargs) clone() Kwargs {
	if k == nil {
		return nil
	}
	return maps.Clone(k)
}

// Get returns the raw value for key.
func (k Kwargs) Get(key string) (any, bool) {
	v, ok := k[key]
	return v, ok
}

// Int returns key as an int. Numeric values decoded from JSON or YAML are
// accepted.
func (k Kwargs) Int(key string, def int) int {
	switch v := k[key].(type) {
	case int:
		return v
	case int32:
		return int(v)
	case int64:
		return int(v)
	case uint:
		return int(v)
	case float64:
		return int(v)
	}
	return def
}

// Duration returns key as a duration. Strings are parsed with
// time.ParseDuration, plain numbers are seconds.
func (k Kwargs) Duration(key string, def time.Duration) time.Duration {
	switch v := k[key].(type) {
	case time.Duration:
		return v
	case string:
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	case int:
		return time.Duration(v) * time.Second
	case int64:
		return time.Duration(v) * time.Second
	case float64:
		return time.Duration(v * float64(time.Second))
	}
	return def
}

func (k Kwargs) String(key string, def string) string {
	if v, ok := k[key].(string); ok {
		return v
	}
	return def
}

func (k Kwargs) Bool(key string, def bool) bool {
	if v, ok := k[key].(bool); ok {
		return v
	}
	return def
}

package graph

import (
	"time"

	"github.com/google/uuid"
)

// Property maps coming back from the driver carry int64 for integers and
// []any for lists; these helpers normalize them for the domain types.

func getStringFromMap(m map[string]any, key, def string) string {
	val, ok := m[key]
	if !ok || val == nil {
		return def
	}
	if s, ok := val.(string); ok {
		return s
	}
	return def
}

func getIntFromMap(m map[string]any, key string, def int) int {
	val, ok := m[key]
	if !ok || val == nil {
		return def
	}
	switch n := val.(type) {
	case int64:
		return int(n)
	case int:
		return n
	case float64:
		return int(n)
	}
	return def
}

func getBoolFromMap(m map[string]any, key string, def bool) bool {
	val, ok := m[key]
	if !ok || val == nil {
		return def
	}
	if b, ok := val.(bool); ok {
		return b
	}
	return def
}

func getStringsFromMap(m map[string]any, key string) []string {
	val, ok := m[key]
	if !ok || val == nil {
		return nil
	}
	switch list := val.(type) {
	case []string:
		return list
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// getTimeFromMap parses the RFC3339Nano strings node timestamps are
// stored as. Unparsable or absent values yield the zero time.
func getTimeFromMap(m map[string]any, key string) time.Time {
	switch val := m[key].(type) {
	case string:
		if t, err := time.Parse(time.RFC3339Nano, val); err == nil {
			return t
		}
	case time.Time:
		return val
	}
	return time.Time{}
}

func getUUIDFromMap(m map[string]any, key string) uuid.UUID {
	raw := getStringFromMap(m, key, "")
	if raw == "" {
		return uuid.Nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil
	}
	return id
}

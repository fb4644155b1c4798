package models

import (
	"fmt"
	"time"
)

// DecodeError reports that a stored document does not match the expected
// shape. Repositories drop the offending document from collection snapshots
// and publish the DecodeError on their error stream instead of failing the
// whole snapshot.
type DecodeError struct {
	Path   string // collection or document path the document came from
	DocID  string
	Reason string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s/%s: %s", e.Path, e.DocID, e.Reason)
}

func decodeErr(path, docID, format string, args ...interface{}) error {
	return &DecodeError{Path: path, DocID: docID, Reason: fmt.Sprintf(format, args...)}
}

// Field extraction helpers for raw document maps. Firestore hands back
// strings, bools, int64/float64 numbers, time.Time and []interface{} values;
// the in-memory store used in tests stores the same dynamic types.

func reqString(data map[string]interface{}, key string) (string, error) {
	v, ok := data[key]
	if !ok {
		return "", fmt.Errorf("missing required field %q", key)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("field %q: expected string, got %T", key, v)
	}
	return s, nil
}

func optString(data map[string]interface{}, key string) string {
	s, _ := data[key].(string)
	return s
}

func optBool(data map[string]interface{}, key string) bool {
	b, _ := data[key].(bool)
	return b
}

func reqTime(data map[string]interface{}, key string) (time.Time, error) {
	v, ok := data[key]
	if !ok {
		return time.Time{}, fmt.Errorf("missing required field %q", key)
	}
	t, ok := v.(time.Time)
	if !ok {
		return time.Time{}, fmt.Errorf("field %q: expected timestamp, got %T", key, v)
	}
	return t, nil
}

func optTime(data map[string]interface{}, key string) *time.Time {
	t, ok := data[key].(time.Time)
	if !ok {
		return nil
	}
	return &t
}

func optNumber(data map[string]interface{}, key string) float64 {
	switch n := data[key].(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	case int:
		return float64(n)
	default:
		return 0
	}
}

func optStringSlice(data map[string]interface{}, key string) []string {
	switch v := data[key].(type) {
	case []string:
		return v
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, e := range v {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

package policy

import (
	"strconv"
	"strings"
)

// Actor identifies who (or what) is attempting an action.
type Actor struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

// Environment carries deployment flags relevant to policy evaluation.
type Environment struct {
	// Demo is true when the system runs against demonstration data.
	Demo bool `json:"demo"`
	// StrictMode escalates advisory findings to required approvals.
	StrictMode bool `json:"strict_mode"`
}

// ActionContext describes one attempted action for enforcement. It is built
// fresh by the caller for every Enforce call and never retained.
type ActionContext struct {
	ActionType  string         `json:"action_type"`
	Actor       Actor          `json:"actor"`
	Resource    string         `json:"resource,omitempty"`
	Data        map[string]any `json:"data,omitempty"`
	Environment Environment    `json:"environment"`
}

// lookupNumber resolves a dot-path ("bid.estimated_value") against the
// context data and coerces the result to a float64. Numeric strings coerce;
// anything else reports no value.
func (c *ActionContext) lookupNumber(path string) (float64, bool) {
	value, ok := c.lookup(path)
	if !ok {
		return 0, false
	}
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(v, 64)
		return f, err == nil
	}
	return 0, false
}

// lookup resolves a dot-path against nested map[string]any data.
func (c *ActionContext) lookup(path string) (any, bool) {
	if c.Data == nil || path == "" {
		return nil, false
	}
	var current any = c.Data
	for _, part := range strings.Split(path, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// containsPattern reports whether any string value in the context data
// contains the pattern, case-insensitively. Top-level keys are matched too
// so structural markers like {"mock_data": true} can be named by key.
func (c *ActionContext) containsPattern(pattern string) bool {
	pattern = strings.ToLower(pattern)
	for key, value := range c.Data {
		if strings.Contains(strings.ToLower(key), pattern) {
			return true
		}
		if s, ok := value.(string); ok && strings.Contains(strings.ToLower(s), pattern) {
			return true
		}
	}
	return false
}

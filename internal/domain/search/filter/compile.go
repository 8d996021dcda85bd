package filter

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/kailas-cloud/factlens/internal/domain"
)

// Compile translates a flat field->value mapping into an Expression.
//
// A string becomes an equality match, a number a ">= value" range and a list
// of strings a membership test. Every field yields exactly one condition and
// all conditions are ANDed. A nil or empty mapping matches everything.
// Conditions are ordered by field name so the same input always renders the
// same query.
func Compile(filters map[string]any) (Expression, error) {
	if len(filters) == 0 {
		return Expression{}, nil
	}

	keys := make([]string, 0, len(filters))
	for k := range filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	conds := make([]Condition, 0, len(keys))
	for _, key := range keys {
		c, err := compileValue(key, filters[key])
		if err != nil {
			return Expression{}, err
		}
		conds = append(conds, c)
	}

	expr, err := NewExpression(conds...)
	if err != nil {
		return Expression{}, &domain.ConfigurationError{Field: keys[0], Reason: err.Error()}
	}
	return expr, nil
}

func compileValue(key string, v any) (Condition, error) {
	var (
		c   Condition
		err error
	)
	switch val := v.(type) {
	case string:
		c, err = NewMatch(key, val)
	case []string:
		c, err = NewAny(key, val)
	case []any:
		var values []string
		values, err = stringSet(val)
		if err == nil {
			c, err = NewAny(key, values)
		}
	default:
		f, ok := number(v)
		if !ok {
			return Condition{}, &domain.ConfigurationError{
				Field:  key,
				Reason: fmt.Sprintf("unsupported value type %T", v),
			}
		}
		c, err = NewRange(key, f)
	}
	if err != nil {
		return Condition{}, &domain.ConfigurationError{Field: key, Reason: err.Error()}
	}
	return c, nil
}

func stringSet(items []any) ([]string, error) {
	out := make([]string, 0, len(items))
	for i, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("list element %d has unsupported type %T", i, item)
		}
		out = append(out, s)
	}
	return out, nil
}

// number accepts the numeric shapes produced by encoding/json and by Go callers.
// Booleans are not numbers here.
func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

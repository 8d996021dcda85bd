package filter

import "fmt"

// Kind identifies the shape of a condition.
type Kind int

// Condition kinds.
const (
	// KindMatch is an exact equality on a scalar string.
	KindMatch Kind = iota + 1
	// KindRange is a numeric lower bound (field >= value).
	KindRange
	// KindAny is membership in a set of strings.
	KindAny
)

// Expression is a conjunction of conditions. The zero value matches everything.
type Expression struct {
	must []Condition
}

// NewExpression validates and creates an AND-composed Expression.
// There is no cap on the number of conditions, one per payload field.
func NewExpression(conds ...Condition) (Expression, error) {
	for i, c := range conds {
		if c.key == "" || c.kind == 0 {
			return Expression{}, fmt.Errorf("condition %d is not initialized", i)
		}
	}
	return Expression{must: conds}, nil
}

// Must returns the conditions, all of which must hold.
func (e Expression) Must() []Condition { return e.must }

// IsEmpty reports whether the expression has no conditions.
func (e Expression) IsEmpty() bool { return len(e.must) == 0 }

// Condition is a single filter clause on one payload field.
type Condition struct {
	key   string
	kind  Kind
	match string
	anyOf []string
	gte   float64
}

// NewMatch creates an exact match condition. An empty value is a valid
// match and is left for the store to interpret.
func NewMatch(key, match string) (Condition, error) {
	if key == "" {
		return Condition{}, fmt.Errorf("filter key is required")
	}
	return Condition{key: key, kind: KindMatch, match: match}, nil
}

// NewRange creates a numeric lower-bound condition (field >= gte).
func NewRange(key string, gte float64) (Condition, error) {
	if key == "" {
		return Condition{}, fmt.Errorf("filter key is required")
	}
	return Condition{key: key, kind: KindRange, gte: gte}, nil
}

// NewAny creates a set-membership condition. An empty set matches nothing.
func NewAny(key string, values []string) (Condition, error) {
	if key == "" {
		return Condition{}, fmt.Errorf("filter key is required")
	}
	cp := make([]string, len(values))
	copy(cp, values)
	return Condition{key: key, kind: KindAny, anyOf: cp}, nil
}

// Key returns the field name.
func (c Condition) Key() string { return c.key }

// Kind returns the condition shape.
func (c Condition) Kind() Kind { return c.kind }

// Match returns the exact match value.
func (c Condition) Match() string { return c.match }

// Any returns the accepted values of a membership condition.
func (c Condition) Any() []string { return c.anyOf }

// GTE returns the inclusive lower bound of a range condition.
func (c Condition) GTE() float64 { return c.gte }

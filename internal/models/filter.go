package models

import (
	"fmt"
	"math"
	"time"
)

// FilterType is the value domain a filter condition operates on
type FilterType string

const (
	TypeString      FilterType = "string"
	TypeNumber      FilterType = "number"
	TypeDate        FilterType = "date"
	TypeCategorical FilterType = "categorical"
)

// FilterOperator represents a filter comparison operator
type FilterOperator string

const (
	OpEqual          FilterOperator = "="
	OpNotEqual       FilterOperator = "!="
	OpGreaterThan    FilterOperator = ">"
	OpGreaterOrEqual FilterOperator = ">="
	OpLessThan       FilterOperator = "<"
	OpLessOrEqual    FilterOperator = "<="
	OpContains       FilterOperator = "contains"
	OpNotContains    FilterOperator = "does not contain"
	OpStartsWith     FilterOperator = "starts with"
	OpEndsWith       FilterOperator = "ends with"
	OpAnyOf          FilterOperator = "any of"
	OpNoneOf         FilterOperator = "none of"
)

// FilterCondition represents a single filter condition.
//
// Value holds a string for string and date conditions (dates as RFC 3339),
// a float64 for number conditions and a non-empty []string for categorical
// conditions.
type FilterCondition struct {
	Column   string
	Type     FilterType
	Operator FilterOperator
	Value    interface{}
}

// OperatorsFor returns the operators valid for a filter type
func OperatorsFor(t FilterType) []FilterOperator {
	switch t {
	case TypeString:
		return []FilterOperator{OpEqual, OpNotEqual, OpContains, OpNotContains, OpStartsWith, OpEndsWith}
	case TypeNumber:
		return []FilterOperator{OpEqual, OpNotEqual, OpGreaterThan, OpGreaterOrEqual, OpLessThan, OpLessOrEqual}
	case TypeDate:
		return []FilterOperator{OpGreaterThan, OpGreaterOrEqual, OpLessThan, OpLessOrEqual}
	case TypeCategorical:
		return []FilterOperator{OpAnyOf, OpNoneOf}
	default:
		return nil
	}
}

// ValidOperator reports whether op may be used with t
func ValidOperator(t FilterType, op FilterOperator) bool {
	for _, candidate := range OperatorsFor(t) {
		if candidate == op {
			return true
		}
	}
	return false
}

// Validate checks the operator against the type and the value shape
func (c FilterCondition) Validate() error {
	if c.Column == "" {
		return ErrValidation("filter column is required")
	}
	if !ValidOperator(c.Type, c.Operator) {
		return ErrValidation("operator %q is not valid for %s column %q", c.Operator, c.Type, c.Column)
	}

	switch c.Type {
	case TypeString:
		if _, ok := c.Value.(string); !ok {
			return ErrValidation("column %q expects a string value, got %T", c.Column, c.Value)
		}
	case TypeDate:
		s, ok := c.Value.(string)
		if !ok {
			return ErrValidation("column %q expects a date value, got %T", c.Column, c.Value)
		}
		if _, err := time.Parse(time.RFC3339, s); err != nil {
			return ErrValidation("column %q: %q is not an RFC 3339 date", c.Column, s)
		}
	case TypeNumber:
		f, ok := c.Value.(float64)
		if !ok {
			return ErrValidation("column %q expects a number value, got %T", c.Column, c.Value)
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return ErrValidation("column %q expects a finite number", c.Column)
		}
	case TypeCategorical:
		values, ok := c.Value.([]string)
		if !ok {
			return ErrValidation("column %q expects a list of values, got %T", c.Column, c.Value)
		}
		if len(values) == 0 {
			return ErrValidation("column %q expects at least one value", c.Column)
		}
		for _, v := range values {
			if v == "" {
				return ErrValidation("column %q: empty value in list", c.Column)
			}
		}
	}
	return nil
}

// Equal reports structural equality of two conditions
func (c FilterCondition) Equal(other FilterCondition) bool {
	if c.Column != other.Column || c.Type != other.Type || c.Operator != other.Operator {
		return false
	}
	a, aList := c.Value.([]string)
	b, bList := other.Value.([]string)
	if aList || bList {
		if !aList || !bList || len(a) != len(b) {
			return false
		}
		for i := range a {
			if a[i] != b[i] {
				return false
			}
		}
		return true
	}
	return c.Value == other.Value
}

// String renders the condition for display, e.g. `name = "accuracy"`
func (c FilterCondition) String() string {
	switch v := c.Value.(type) {
	case string:
		return fmt.Sprintf("%s %s %q", c.Column, c.Operator, v)
	case []string:
		return fmt.Sprintf("%s %s %v", c.Column, c.Operator, v)
	default:
		return fmt.Sprintf("%s %s %v", c.Column, c.Operator, v)
	}
}

// CloneFilters copies a condition sequence so callers cannot mutate state through it
func CloneFilters(conds []FilterCondition) []FilterCondition {
	out := make([]FilterCondition, len(conds))
	for i, c := range conds {
		if values, ok := c.Value.([]string); ok {
			c.Value = append([]string(nil), values...)
		}
		out[i] = c
	}
	return out
}

package filter

import (
	"fmt"
	"strings"
	"time"

	"github.com/rebeliceyang/lazyscores/internal/models"
)

// Builder generates SQL predicates from filter conditions. Column ids are
// mapped to SQL expressions through a fixed whitelist; values are always
// bound as parameters.
type Builder struct {
	columns map[string]string
}

// NewBuilder creates a builder for the given column id → SQL expression map
func NewBuilder(columns map[string]string) *Builder {
	m := make(map[string]string, len(columns))
	for k, v := range columns {
		m[k] = v
	}
	return &Builder{columns: m}
}

// BuildWhere joins the conditions with AND. Placeholders are numbered from
// paramIndex. An empty condition list yields an empty clause.
func (b *Builder) BuildWhere(conds []models.FilterCondition, paramIndex int) (string, []interface{}, error) {
	if len(conds) == 0 {
		return "", nil, nil
	}

	var clauses []string
	var args []interface{}
	currentParam := paramIndex

	for _, cond := range conds {
		clause, condArgs, err := b.buildCondition(cond, currentParam)
		if err != nil {
			return "", nil, err
		}
		clauses = append(clauses, clause)
		args = append(args, condArgs...)
		currentParam += len(condArgs)
	}

	return strings.Join(clauses, " AND "), args, nil
}

// buildCondition builds a single filter condition
func (b *Builder) buildCondition(cond models.FilterCondition, paramIndex int) (string, []interface{}, error) {
	if err := cond.Validate(); err != nil {
		return "", nil, err
	}
	column, ok := b.columns[cond.Column]
	if !ok {
		return "", nil, fmt.Errorf("unknown filter column: %s", cond.Column)
	}
	p := fmt.Sprintf("$%d", paramIndex)

	switch cond.Type {
	case models.TypeString:
		s := cond.Value.(string)
		switch cond.Operator {
		case models.OpEqual:
			return fmt.Sprintf("%s = %s", column, p), []interface{}{s}, nil
		case models.OpNotEqual:
			return fmt.Sprintf("%s IS DISTINCT FROM %s", column, p), []interface{}{s}, nil
		case models.OpContains:
			return fmt.Sprintf("%s ILIKE %s", column, p), []interface{}{"%" + escapeLike(s) + "%"}, nil
		case models.OpNotContains:
			return fmt.Sprintf("(%s IS NULL OR %s NOT ILIKE %s)", column, column, p), []interface{}{"%" + escapeLike(s) + "%"}, nil
		case models.OpStartsWith:
			return fmt.Sprintf("%s ILIKE %s", column, p), []interface{}{escapeLike(s) + "%"}, nil
		case models.OpEndsWith:
			return fmt.Sprintf("%s ILIKE %s", column, p), []interface{}{"%" + escapeLike(s)}, nil
		}

	case models.TypeNumber, models.TypeDate:
		value := cond.Value
		if cond.Type == models.TypeDate {
			t, err := time.Parse(time.RFC3339, cond.Value.(string))
			if err != nil {
				return "", nil, fmt.Errorf("invalid date for %s: %w", cond.Column, err)
			}
			value = t
		}
		switch cond.Operator {
		case models.OpEqual, models.OpNotEqual, models.OpGreaterThan, models.OpGreaterOrEqual,
			models.OpLessThan, models.OpLessOrEqual:
			return fmt.Sprintf("%s %s %s", column, sqlComparison(cond.Operator), p), []interface{}{value}, nil
		}

	case models.TypeCategorical:
		values := append([]string(nil), cond.Value.([]string)...)
		switch cond.Operator {
		case models.OpAnyOf:
			return fmt.Sprintf("%s = ANY(%s)", column, p), []interface{}{values}, nil
		case models.OpNoneOf:
			return fmt.Sprintf("(%s IS NULL OR NOT (%s = ANY(%s)))", column, column, p), []interface{}{values}, nil
		}
	}

	return "", nil, fmt.Errorf("unsupported operator: %s", cond.Operator)
}

func sqlComparison(op models.FilterOperator) string {
	if op == models.OpNotEqual {
		return "<>"
	}
	return string(op)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike quotes LIKE wildcards so user text matches literally
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

package sqlite

import (
	"errors"
	"fmt"
	"strings"

	"github.com/neomorfeo/cinelist/internal/domain"
)

// ErrUnsupportedPredicate is returned for predicate trees the store cannot translate.
var ErrUnsupportedPredicate = errors.New("unsupported predicate")

// column maps a predicate field to its SQL column.
type column struct {
	name     string
	nullable bool
}

var watchlistColumns = map[string]column{
	domain.FieldUserID:      {name: "user_id"},
	domain.FieldTmdbID:      {name: "tmdb_id"},
	domain.FieldStatus:      {name: "status"},
	domain.FieldReleaseYear: {name: "release_year"},
	domain.FieldTitle:       {name: "title"},
	domain.FieldRating:      {name: "rating", nullable: true},
}

// whereClause translates p into a SQL condition with positional arguments.
//
// Comparisons on nullable columns are guarded with IS NOT NULL so that a
// NULL never yields SQL's unknown: the condition and its negation then
// partition the rows exactly like the in-memory predicate does.
func whereClause(p domain.Predicate, columns map[string]column) (string, []any, error) {
	switch p.Op {
	case domain.OpTrue, "":
		return "1 = 1", nil, nil

	case domain.OpEquals:
		col, err := lookup(columns, p.Field)
		if err != nil {
			return "", nil, err
		}
		return guard(col, col.name+" = ?"), []any{p.Value}, nil

	case domain.OpRange:
		col, err := lookup(columns, p.Field)
		if err != nil {
			return "", nil, err
		}
		var conds []string
		var args []any
		if p.Min != nil {
			conds = append(conds, col.name+" >= ?")
			args = append(args, p.Min)
		}
		if p.Max != nil {
			conds = append(conds, col.name+" <= ?")
			args = append(args, p.Max)
		}
		if len(conds) == 0 {
			return "1 = 1", nil, nil
		}
		return guard(col, strings.Join(conds, " AND ")), args, nil

	case domain.OpContains:
		col, err := lookup(columns, p.Field)
		if err != nil {
			return "", nil, err
		}
		text, ok := p.Value.(string)
		if !ok {
			return "", nil, fmt.Errorf("%w: contains on %s needs a string, got %T", ErrUnsupportedPredicate, p.Field, p.Value)
		}
		pattern := "%" + escapeLike(strings.ToLower(text)) + "%"
		return guard(col, "LOWER("+col.name+`) LIKE ? ESCAPE '\'`), []any{pattern}, nil

	case domain.OpAnd, domain.OpOr:
		if len(p.Operands) == 0 {
			if p.Op == domain.OpAnd {
				return "1 = 1", nil, nil
			}
			return "1 = 0", nil, nil
		}
		joiner := " AND "
		if p.Op == domain.OpOr {
			joiner = " OR "
		}
		parts := make([]string, 0, len(p.Operands))
		var args []any
		for _, operand := range p.Operands {
			cond, a, err := whereClause(operand, columns)
			if err != nil {
				return "", nil, err
			}
			parts = append(parts, "("+cond+")")
			args = append(args, a...)
		}
		return strings.Join(parts, joiner), args, nil

	case domain.OpNot:
		if len(p.Operands) != 1 {
			return "", nil, fmt.Errorf("%w: not takes one operand, got %d", ErrUnsupportedPredicate, len(p.Operands))
		}
		cond, args, err := whereClause(p.Operands[0], columns)
		if err != nil {
			return "", nil, err
		}
		return "NOT (" + cond + ")", args, nil
	}

	return "", nil, fmt.Errorf("%w: op %q", ErrUnsupportedPredicate, p.Op)
}

func lookup(columns map[string]column, field string) (column, error) {
	col, ok := columns[field]
	if !ok {
		return column{}, fmt.Errorf("%w: unknown field %q", ErrUnsupportedPredicate, field)
	}
	return col, nil
}

func guard(col column, cond string) string {
	if !col.nullable {
		return cond
	}
	return col.name + " IS NOT NULL AND " + cond
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

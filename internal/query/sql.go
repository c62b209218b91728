package query

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
)

var (
	// ErrNoTable is returned when a descriptor names no table.
	ErrNoTable = errors.New("query: descriptor has no table")
	// ErrUnsupportedOp is returned for an operator a translator cannot express.
	ErrUnsupportedOp = errors.New("query: unsupported operator")
	// ErrEmptyGroup is returned for an OR group without predicates.
	ErrEmptyGroup = errors.New("query: empty group")
)

// Statement is a parameterized PostgreSQL query.
type Statement struct {
	SQL  string
	Args []any
}

// SQL renders d as a PostgreSQL SELECT. selectList entries are trusted
// select expressions and are emitted verbatim; table and predicate columns
// are quoted and every value is passed as a positional argument.
func SQL(d Descriptor, selectList []string) (Statement, error) {
	if d.Table == "" {
		return Statement{}, ErrNoTable
	}
	b := sqlBuilder{}
	var sb strings.Builder
	sb.WriteString("SELECT ")
	if len(selectList) == 0 {
		sb.WriteString("*")
	} else {
		sb.WriteString(strings.Join(selectList, ", "))
	}
	sb.WriteString(" FROM ")
	sb.WriteString(pgx.Identifier{d.Table}.Sanitize())

	var clauses []string
	for _, p := range d.Where {
		c, err := b.predicate(p)
		if err != nil {
			return Statement{}, err
		}
		clauses = append(clauses, c)
	}
	for _, g := range d.AnyOf {
		if len(g) == 0 {
			return Statement{}, ErrEmptyGroup
		}
		parts := make([]string, 0, len(g))
		for _, p := range g {
			c, err := b.predicate(p)
			if err != nil {
				return Statement{}, err
			}
			parts = append(parts, c)
		}
		clauses = append(clauses, "("+strings.Join(parts, " OR ")+")")
	}
	if len(clauses) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(clauses, " AND "))
	}
	if len(d.OrderBy) > 0 {
		order := make([]string, 0, len(d.OrderBy))
		for _, o := range d.OrderBy {
			dir := "ASC"
			if o.Desc {
				dir = "DESC"
			}
			order = append(order, pgx.Identifier{o.Column}.Sanitize()+" "+dir)
		}
		sb.WriteString(" ORDER BY ")
		sb.WriteString(strings.Join(order, ", "))
	}
	if d.Limit > 0 {
		sb.WriteString(" LIMIT ")
		sb.WriteString(strconv.Itoa(d.Limit))
	}
	return Statement{SQL: sb.String(), Args: b.args}, nil
}

type sqlBuilder struct {
	args []any
}

func (b *sqlBuilder) bind(v any) string {
	b.args = append(b.args, v)
	return "$" + strconv.Itoa(len(b.args))
}

func (b *sqlBuilder) predicate(p Predicate) (string, error) {
	col := pgx.Identifier{p.Column}.Sanitize()
	switch p.Op {
	case OpEq:
		return col + " = " + b.bind(p.Value), nil
	case OpGte:
		return col + " >= " + b.bind(p.Value), nil
	case OpLte:
		return col + " <= " + b.bind(p.Value), nil
	case OpILike:
		return col + " ILIKE " + b.bind("%"+EscapeLike(fmt.Sprint(p.Value))+"%"), nil
	case OpContains:
		return b.bind(p.Value) + " = ANY(" + col + ")", nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedOp, p.Op)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// EscapeLike escapes LIKE metacharacters using PostgreSQL's default escape.
func EscapeLike(s string) string {
	return likeEscaper.Replace(s)
}

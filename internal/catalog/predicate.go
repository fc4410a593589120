package catalog

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
)

// likeEscape is portable across MySQL and PostgreSQL string literal rules.
const likeEscape = "!"

// Condition constrains one column. Exact conditions compare whole values; the rest
// require the column to contain Value as a substring. Both ignore case.
type Condition struct {
	Column string
	Value  string
	Exact  bool
}

// Predicate is a conjunction of conditions.
type Predicate []Condition

// NewPredicate translates a query into conditions: substring matches on the four
// attributes and undertone, exact match on category.
func NewPredicate(q MatchQuery) Predicate {
	p := Predicate{
		{Column: "skin_tone", Value: q.Tone},
		{Column: "skin_type", Value: q.Type},
		{Column: "skin_concern", Value: q.Concern},
		{Column: "skin_texture", Value: q.Texture},
	}
	if q.Category != "" {
		p = append(p, Condition{Column: "category", Value: q.Category, Exact: true})
	}
	if q.Undertone != "" {
		p = append(p, Condition{Column: "undertone", Value: q.Undertone})
	}
	return p
}

// Match evaluates the predicate against an in-memory product.
func (p Predicate) Match(prod Product) bool {
	fold := cases.Fold()
	for _, c := range p {
		field := fold.String(prod.Field(c.Column))
		value := fold.String(c.Value)
		if c.Exact {
			if field != value {
				return false
			}
		} else if !strings.Contains(field, value) {
			return false
		}
	}
	return true
}

// SQL renders a WHERE clause body and its arguments. placeholder returns the bind
// marker for the 1-based argument position.
func (p Predicate) SQL(placeholder func(n int) string) (string, []any) {
	clauses := make([]string, 0, len(p))
	args := make([]any, 0, len(p))
	for i, c := range p {
		ph := placeholder(i + 1)
		if c.Exact {
			clauses = append(clauses, fmt.Sprintf("LOWER(%s) = LOWER(%s)", c.Column, ph))
			args = append(args, c.Value)
			continue
		}
		clauses = append(clauses, fmt.Sprintf("LOWER(%s) LIKE LOWER(%s) ESCAPE '%s'", c.Column, ph, likeEscape))
		args = append(args, "%"+EscapeLike(c.Value)+"%")
	}
	return strings.Join(clauses, " AND "), args
}

var likeReplacer = strings.NewReplacer(likeEscape, likeEscape+likeEscape, "%", likeEscape+"%", "_", likeEscape+"_")

// EscapeLike makes s match literally inside a LIKE pattern.
func EscapeLike(s string) string {
	return likeReplacer.Replace(s)
}

// SelectColumns is the column list shared by the SQL backends.
func SelectColumns() string {
	return strings.Join(Columns, ", ")
}

// AttributeQuery renders the full attribute lookup statement.
func AttributeQuery(q MatchQuery, placeholder func(n int) string) (string, []any) {
	where, args := NewPredicate(q).SQL(placeholder)
	return fmt.Sprintf("SELECT %s FROM %s WHERE %s", SelectColumns(), Table, where), args
}

// NameQuery renders the exact-name lookup statement.
func NameQuery(placeholder func(n int) string) string {
	return fmt.Sprintf("SELECT %s FROM %s WHERE name = %s LIMIT 1", SelectColumns(), Table, placeholder(1))
}

// GalleryQuery renders the gallery statement.
func GalleryQuery(placeholder func(n int) string) string {
	return fmt.Sprintf("SELECT %s FROM %s WHERE image_path IS NOT NULL AND image_path <> '' LIMIT %s", SelectColumns(), Table, placeholder(1))
}

// NamesQuery lists every product name.
func NamesQuery() string {
	return fmt.Sprintf("SELECT name FROM %s", Table)
}

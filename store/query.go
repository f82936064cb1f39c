package store

import "strings"

// Op is a predicate operator.
type Op int

const (
	OpEq Op = iota
	OpILike
	OpIn
	OpInFold
)

// Predicate restricts a query on one field. Related fields are addressed as
// "relation.field", e.g. "category.slug".
type Predicate struct {
	Field  string
	Op     Op
	Value  string
	Values []string
}

// Eq matches rows whose field equals v.
func Eq(field, v string) Predicate {
	return Predicate{Field: field, Op: OpEq, Value: v}
}

// ILike matches rows whose field matches pattern case-insensitively.
// Pattern uses SQL LIKE wildcards with '\' as the escape character.
func ILike(field, pattern string) Predicate {
	return Predicate{Field: field, Op: OpILike, Value: pattern}
}

// In matches rows whose field equals any of vs.
func In(field string, vs ...string) Predicate {
	return Predicate{Field: field, Op: OpIn, Values: vs}
}

// InFold is In with case-insensitive comparison.
func InFold(field string, vs ...string) Predicate {
	return Predicate{Field: field, Op: OpInFold, Values: vs}
}

// Order sorts results by one field.
type Order struct {
	Field string
	Desc  bool
}

// Asc orders by field ascending.
func Asc(field string) Order { return Order{Field: field} }

// Desc orders by field descending.
func Desc(field string) Order { return Order{Field: field, Desc: true} }

// Relations a post query can expand.
const (
	ExpandCategory = "category"
	ExpandTags     = "tags"
)

// Query describes a read against one collection. Where predicates are
// ANDed; AnyOf predicates form a single OR group ANDed with Where.
type Query struct {
	Where  []Predicate
	AnyOf  []Predicate
	Order  []Order
	Expand []string
	Limit  int
}

// Expands reports whether q asks for relation.
func (q Query) Expands(relation string) bool {
	for _, e := range q.Expand {
		if e == relation {
			return true
		}
	}
	return false
}

// references reports whether any predicate of q addresses relation.
func (q Query) references(relation string) bool {
	prefix := relation + "."
	for _, p := range q.Where {
		if strings.HasPrefix(p.Field, prefix) {
			return true
		}
	}
	for _, p := range q.AnyOf {
		if strings.HasPrefix(p.Field, prefix) {
			return true
		}
	}
	return false
}

// EscapeLike escapes LIKE wildcards in s so it matches literally.
func EscapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

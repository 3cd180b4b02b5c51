package content

import (
	"math"
	"regexp"
	"time"

	"github.com/rotisserie/eris"
)

// Field names an article attribute a query can filter or sort on.
type Field string

const (
	FieldSlug        Field = "slug"
	FieldPublishedAt Field = "publishedAt"
	FieldTagSlug     Field = "tags.slug"
	FieldDraft       Field = "draft"

	// FieldID is the document identifier; it can only be used for ordering.
	FieldID Field = "id"
)

// Operator compares a field with a bound parameter.
type Operator string

const (
	OpEqual   Operator = "=="
	OpLess    Operator = "<"
	OpGreater Operator = ">"

	// OpContains matches when the parameter is a member of the field's set.
	OpContains Operator = "in"
)

// Projection selects which article attributes an executor returns.
type Projection int

const (
	// ProjectionSummary is used by list views: no body and no author.
	ProjectionSummary Projection = iota
	// ProjectionFull returns every attribute.
	ProjectionFull
	// ProjectionLink returns slug, title and publication timestamp only.
	ProjectionLink
)

func (p Projection) String() string {
	switch p {
	case ProjectionFull:
		return "full"
	case ProjectionLink:
		return "link"
	default:
		return "summary"
	}
}

// Predicate restricts a query to articles whose Field satisfies Operator against the value
// bound to Param.
type Predicate struct {
	Field    Field
	Operator Operator
	Param    string
}

// Ordering sorts results by Field.
type Ordering struct {
	Field      Field
	Descending bool
}

// Window is the half-open range [Offset, Offset+Limit) of an ordered result set.
type Window struct {
	Offset int
	Limit  int
}

// Query is a declarative article query with named parameters. Executors translate it into
// their own query language and must never interpolate parameter values into query text.
type Query struct {
	Predicates []Predicate
	Params     map[string]any
	Order      []Ordering
	Window     *Window
	Projection Projection
}

// Param returns the value bound to name.
func (q Query) Param(name string) (any, bool) {
	value, ok := q.Params[name]
	return value, ok
}

// StringParam returns the string bound to name.
func (q Query) StringParam(name string) (string, error) {
	value, ok := q.Params[name]
	if !ok {
		return "", eris.Errorf("query parameter %s is not bound", name)
	}
	s, ok := value.(string)
	if !ok {
		return "", eris.Errorf("query parameter %s is %T, not string", name, value)
	}
	return s, nil
}

// TimeParam returns the timestamp bound to name.
func (q Query) TimeParam(name string) (time.Time, error) {
	value, ok := q.Params[name]
	if !ok {
		return time.Time{}, eris.Errorf("query parameter %s is not bound", name)
	}
	t, ok := value.(time.Time)
	if !ok {
		return time.Time{}, eris.Errorf("query parameter %s is %T, not time.Time", name, value)
	}
	return t, nil
}

// BoolParam returns the boolean bound to name.
func (q Query) BoolParam(name string) (bool, error) {
	value, ok := q.Params[name]
	if !ok {
		return false, eris.Errorf("query parameter %s is not bound", name)
	}
	b, ok := value.(bool)
	if !ok {
		return false, eris.Errorf("query parameter %s is %T, not bool", name, value)
	}
	return b, nil
}

var paramNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// QueryBuilder assembles a Query. The first invalid call is remembered and reported by Build.
type QueryBuilder struct {
	query Query
	err   error
}

// Articles starts a query over articles using the summary projection.
func Articles() *QueryBuilder {
	return &QueryBuilder{query: Query{Params: map[string]any{}}}
}

// Where adds a predicate and binds value to the named parameter.
func (b *QueryBuilder) Where(field Field, op Operator, param string, value any) *QueryBuilder {
	if b.err != nil {
		return b
	}
	if !paramNamePattern.MatchString(param) {
		b.err = eris.Errorf("invalid query parameter name %q", param)
		return b
	}
	if _, exists := b.query.Params[param]; exists {
		b.err = eris.Errorf("query parameter %s bound twice", param)
		return b
	}
	if err := checkOperand(field, op, value); err != nil {
		b.err = err
		return b
	}

	b.query.Predicates = append(b.query.Predicates, Predicate{Field: field, Operator: op, Param: param})
	b.query.Params[param] = value
	return b
}

// OrderBy appends a sort key.
func (b *QueryBuilder) OrderBy(field Field, descending bool) *QueryBuilder {
	if b.err != nil {
		return b
	}
	if field == FieldTagSlug {
		b.err = eris.New("cannot order by tags.slug")
		return b
	}
	b.query.Order = append(b.query.Order, Ordering{Field: field, Descending: descending})
	return b
}

// Window restricts results to [offset, offset+limit). A zero limit removes the window.
func (b *QueryBuilder) Window(offset, limit int) *QueryBuilder {
	if b.err != nil {
		return b
	}
	if offset < 0 || limit < 0 || offset > math.MaxInt-limit {
		b.err = eris.Errorf("invalid window [%d, +%d)", offset, limit)
		return b
	}
	if limit == 0 {
		b.query.Window = nil
		return b
	}
	b.query.Window = &Window{Offset: offset, Limit: limit}
	return b
}

// Project selects the projection.
func (b *QueryBuilder) Project(p Projection) *QueryBuilder {
	if b.err != nil {
		return b
	}
	b.query.Projection = p
	return b
}

// Build returns the assembled query or the first error recorded while building it.
func (b *QueryBuilder) Build() (Query, error) {
	if b.err != nil {
		return Query{}, b.err
	}
	return b.query, nil
}

func checkOperand(field Field, op Operator, value any) error {
	switch field {
	case FieldSlug:
		if op != OpEqual {
			return eris.Errorf("operator %s not supported on %s", op, field)
		}
		if _, ok := value.(string); !ok {
			return eris.Errorf("%s expects a string value, got %T", field, value)
		}
	case FieldPublishedAt:
		if op != OpLess && op != OpGreater && op != OpEqual {
			return eris.Errorf("operator %s not supported on %s", op, field)
		}
		if _, ok := value.(time.Time); !ok {
			return eris.Errorf("%s expects a time.Time value, got %T", field, value)
		}
	case FieldTagSlug:
		if op != OpContains {
			return eris.Errorf("operator %s not supported on %s", op, field)
		}
		if _, ok := value.(string); !ok {
			return eris.Errorf("%s expects a string value, got %T", field, value)
		}
	case FieldDraft:
		if op != OpEqual {
			return eris.Errorf("operator %s not supported on %s", op, field)
		}
		if _, ok := value.(bool); !ok {
			return eris.Errorf("%s expects a bool value, got %T", field, value)
		}
	case FieldID:
		return eris.Errorf("%s can only be used for ordering", field)
	default:
		return eris.Errorf("unknown field %q", field)
	}
	return nil
}

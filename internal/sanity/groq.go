package sanity

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"guideco/app/internal/content"
)

const (
	postFilter  = `_type == "post"`
	draftPath   = `(_id in path("drafts.**"))`
	imageFields = `{"url": asset->url, "alt": alt}`
	tagFields   = `{"id": _id, title, "slug": slug.current}`
)

var (
	linkProjection = `{"id": _id, "slug": slug.current, title, publishedAt}`

	summaryProjection = `{"id": _id, "slug": slug.current, title, description, publishedAt, ` +
		`"updatedAt": _updatedAt, "mainImage": mainImage` + imageFields + `, ` +
		`"tags": tags[]->` + tagFields + `, "draft": ` + draftPath + `}`

	authorProjection = `{name, "image": image` + imageFields + `, mail, github, x, linkedin}`

	fullProjection = strings.TrimSuffix(summaryProjection, "}") +
		`, "author": author->` + authorProjection + `, body}`

	orderFields = map[content.Field]string{
		content.FieldPublishedAt: "publishedAt",
		content.FieldID:          "_id",
		content.FieldSlug:        "slug.current",
	}
)

// Statement is a GROQ query with its parameters. Values never appear in Query; every one is
// referenced as $name and sent alongside.
type Statement struct {
	Query  string
	Params map[string]any
}

// RenderArticles renders q as a document query.
func RenderArticles(q content.Query) (Statement, error) {
	filter, params, err := renderFilter(q)
	if err != nil {
		return Statement{}, err
	}

	var b strings.Builder
	b.WriteString("*[")
	b.WriteString(filter)
	b.WriteString("]")

	if len(q.Order) > 0 {
		terms := make([]string, 0, len(q.Order))
		for _, o := range q.Order {
			field, ok := orderFields[o.Field]
			if !ok {
				return Statement{}, eris.Errorf("unsupported ordering field %q", o.Field)
			}
			direction := "asc"
			if o.Descending {
				direction = "desc"
			}
			terms = append(terms, field+" "+direction)
		}
		b.WriteString(" | order(")
		b.WriteString(strings.Join(terms, ", "))
		b.WriteString(")")
	}

	if q.Window != nil {
		if q.Window.Offset < 0 || q.Window.Limit < 0 || q.Window.Offset > math.MaxInt-q.Window.Limit {
			return Statement{}, eris.Errorf("invalid window [%d, +%d)", q.Window.Offset, q.Window.Limit)
		}
		// Slice bounds are integers produced here, not caller text.
		b.WriteString("[")
		b.WriteString(strconv.Itoa(q.Window.Offset))
		b.WriteString("...")
		b.WriteString(strconv.Itoa(q.Window.Offset + q.Window.Limit))
		b.WriteString("]")
	}

	b.WriteString(" ")
	b.WriteString(projection(q.Projection))

	return Statement{Query: b.String(), Params: params}, nil
}

// RenderCount renders the number of documents matching q's predicates.
func RenderCount(q content.Query) (Statement, error) {
	filter, params, err := renderFilter(q)
	if err != nil {
		return Statement{}, err
	}
	return Statement{Query: "count(*[" + filter + "])", Params: params}, nil
}

// RenderTags renders the tag catalogue with per-tag counts of the posts matching articles.
func RenderTags(articles content.Query) (Statement, error) {
	filter, params, err := renderFilter(articles)
	if err != nil {
		return Statement{}, err
	}

	query := `*[_type == "tag"] | order(title asc) {title, "slug": slug.current, ` +
		`"postCount": count(*[` + filter + ` && references(^._id)])}`
	return Statement{Query: query, Params: params}, nil
}

// RenderAuthors renders the author catalogue ordered by name.
func RenderAuthors() Statement {
	return Statement{Query: `*[_type == "author" && !` + draftPath + `] | order(name asc) ` + authorProjection}
}

func renderFilter(q content.Query) (string, map[string]any, error) {
	clauses := []string{postFilter}
	params := make(map[string]any, len(q.Predicates))

	for _, p := range q.Predicates {
		ref := "$" + p.Param

		switch p.Field {
		case content.FieldSlug:
			value, err := q.StringParam(p.Param)
			if err != nil {
				return "", nil, err
			}
			params[p.Param] = value
			clauses = append(clauses, "slug.current == "+ref)
		case content.FieldTagSlug:
			value, err := q.StringParam(p.Param)
			if err != nil {
				return "", nil, err
			}
			params[p.Param] = value
			clauses = append(clauses, ref+" in tags[]->slug.current")
		case content.FieldDraft:
			value, err := q.BoolParam(p.Param)
			if err != nil {
				return "", nil, err
			}
			params[p.Param] = value
			clauses = append(clauses, draftPath+" == "+ref)
		case content.FieldPublishedAt:
			value, err := q.TimeParam(p.Param)
			if err != nil {
				return "", nil, err
			}
			op, err := comparison(p.Operator)
			if err != nil {
				return "", nil, err
			}
			params[p.Param] = value.UTC().Format(time.RFC3339Nano)
			clauses = append(clauses, "dateTime(publishedAt) "+op+" dateTime("+ref+")")
		default:
			return "", nil, eris.Errorf("unsupported predicate field %q", p.Field)
		}
	}

	return strings.Join(clauses, " && "), params, nil
}

func comparison(op content.Operator) (string, error) {
	switch op {
	case content.OpEqual, content.OpLess, content.OpGreater:
		return string(op), nil
	default:
		return "", eris.Errorf("unsupported operator %q on publishedAt", op)
	}
}

func projection(p content.Projection) string {
	switch p {
	case content.ProjectionLink:
		return linkProjection
	case content.ProjectionFull:
		return fullProjection
	default:
		return summaryProjection
	}
}

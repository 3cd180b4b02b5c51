package content

import (
	"math"
	"testing"
	"time"
)

func TestQueryBuilderBindsParameters(t *testing.T) {
	t.Parallel()

	at := time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC)
	q, err := Articles().
		Where(FieldTagSlug, OpContains, "tag", "go").
		Where(FieldPublishedAt, OpLess, "publishedAt", at).
		OrderBy(FieldPublishedAt, true).
		OrderBy(FieldID, true).
		Window(10, 5).
		Project(ProjectionLink).
		Build()
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}

	if len(q.Predicates) != 2 || q.Predicates[0].Param != "tag" {
		t.Fatalf("unexpected predicates %+v", q.Predicates)
	}
	if tag, err := q.StringParam("tag"); err != nil || tag != "go" {
		t.Fatalf("expected tag param go, got %q (%v)", tag, err)
	}
	if bound, err := q.TimeParam("publishedAt"); err != nil || !bound.Equal(at) {
		t.Fatalf("expected publishedAt param %s, got %s (%v)", at, bound, err)
	}
	if q.Window == nil || q.Window.Offset != 10 || q.Window.Limit != 5 {
		t.Fatalf("unexpected window %+v", q.Window)
	}
	if q.Projection != ProjectionLink {
		t.Fatalf("expected link projection, got %s", q.Projection)
	}
	if _, err := q.BoolParam("tag"); err == nil {
		t.Fatalf("expected a type error reading a string as bool")
	}
	if _, err := q.StringParam("missing"); err == nil {
		t.Fatalf("expected an error for an unbound parameter")
	}
}

func TestQueryBuilderRejectsInvalidQueries(t *testing.T) {
	t.Parallel()

	cases := map[string]*QueryBuilder{
		"parameter name":       Articles().Where(FieldSlug, OpEqual, "slug; drop", "x"),
		"duplicate param":      Articles().Where(FieldSlug, OpEqual, "p", "x").Where(FieldTagSlug, OpContains, "p", "y"),
		"operand type":         Articles().Where(FieldPublishedAt, OpLess, "at", "yesterday"),
		"operator":             Articles().Where(FieldSlug, OpLess, "slug", "x"),
		"id predicate":         Articles().Where(FieldID, OpEqual, "id", "1"),
		"unknown field":        Articles().Where(Field("author"), OpEqual, "author", "ada"),
		"tag ordering":         Articles().OrderBy(FieldTagSlug, false),
		"negative window":      Articles().Window(-1, 5),
		"window end overflows": Articles().Window(math.MaxInt-1, 5),
	}

	for name, builder := range cases {
		if _, err := builder.Build(); err == nil {
			t.Errorf("%s: expected Build to fail", name)
		}
	}
}

func TestQueryBuilderZeroLimitRemovesWindow(t *testing.T) {
	t.Parallel()

	q, err := Articles().Window(5, 5).Window(0, 0).Build()
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	if q.Window != nil {
		t.Fatalf("expected no window, got %+v", q.Window)
	}
	if q.Projection != ProjectionSummary {
		t.Fatalf("expected the summary projection by default, got %s", q.Projection)
	}
}

package sanity

import (
	"math"
	"strconv"
	"strings"
	"testing"
	"time"

	"guideco/app/internal/content"
)

func TestRenderArticlesBindsParameters(t *testing.T) {
	t.Parallel()

	published := time.Date(2024, time.March, 2, 10, 0, 0, 0, time.FixedZone("CET", 3600))
	q, err := content.Articles().
		Where(content.FieldTagSlug, content.OpContains, "tag", `go" || true`).
		Where(content.FieldPublishedAt, content.OpLess, "publishedAt", published).
		OrderBy(content.FieldPublishedAt, true).
		OrderBy(content.FieldID, true).
		Window(10, 5).
		Build()
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}

	stmt, err := RenderArticles(q)
	if err != nil {
		t.Fatalf("RenderArticles returned error: %v", err)
	}

	wantPrefix := `*[_type == "post" && $tag in tags[]->slug.current && dateTime(publishedAt) < dateTime($publishedAt)]` +
		` | order(publishedAt desc, _id desc)[10...15] {`
	if !strings.HasPrefix(stmt.Query, wantPrefix) {
		t.Fatalf("unexpected query:\n%s\nwant prefix:\n%s", stmt.Query, wantPrefix)
	}
	if strings.Contains(stmt.Query, "|| true") {
		t.Fatalf("expected parameter values to stay out of the query text, got %s", stmt.Query)
	}
	if strings.Contains(stmt.Query, "body") || strings.Contains(stmt.Query, "author") {
		t.Fatalf("expected summary projection without body and author, got %s", stmt.Query)
	}

	if stmt.Params["tag"] != `go" || true` {
		t.Fatalf("expected tag parameter to be bound verbatim, got %#v", stmt.Params["tag"])
	}
	if stmt.Params["publishedAt"] != "2024-03-02T09:00:00Z" {
		t.Fatalf("expected UTC timestamp parameter, got %#v", stmt.Params["publishedAt"])
	}
}

func TestRenderArticlesWindowBounds(t *testing.T) {
	t.Parallel()

	q, err := content.Articles().Window(0, math.MaxInt).Build()
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	stmt, err := RenderArticles(q)
	if err != nil {
		t.Fatalf("RenderArticles returned error: %v", err)
	}
	if want := "[0..." + strconv.Itoa(math.MaxInt) + "]"; !strings.Contains(stmt.Query, want) {
		t.Fatalf("expected slice %s in %s", want, stmt.Query)
	}

	// Queries assembled without the builder are checked again before rendering.
	q.Window = &content.Window{Offset: 2, Limit: math.MaxInt}
	if _, err := RenderArticles(q); err == nil {
		t.Fatalf("expected an overflowing window to be rejected")
	}
}

func TestRenderArticlesProjections(t *testing.T) {
	t.Parallel()

	full, err := content.Articles().
		Where(content.FieldSlug, content.OpEqual, "slug", "hello").
		Window(0, 1).
		Project(content.ProjectionFull).
		Build()
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}

	stmt, err := RenderArticles(full)
	if err != nil {
		t.Fatalf("RenderArticles returned error: %v", err)
	}
	if !strings.Contains(stmt.Query, `slug.current == $slug`) || !strings.Contains(stmt.Query, "[0...1]") {
		t.Fatalf("unexpected anchor query %s", stmt.Query)
	}
	if !strings.Contains(stmt.Query, "author->") || !strings.HasSuffix(stmt.Query, ", body}") {
		t.Fatalf("expected full projection with author and body, got %s", stmt.Query)
	}

	link, err := content.Articles().Project(content.ProjectionLink).Build()
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	stmt, err = RenderArticles(link)
	if err != nil {
		t.Fatalf("RenderArticles returned error: %v", err)
	}
	if stmt.Query != `*[_type == "post"] {"id": _id, "slug": slug.current, title, publishedAt}` {
		t.Fatalf("unexpected link query %s", stmt.Query)
	}
}

func TestRenderCountAndTags(t *testing.T) {
	t.Parallel()

	q, err := content.Articles().Where(content.FieldDraft, content.OpEqual, "draft", false).Build()
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}

	count, err := RenderCount(q)
	if err != nil {
		t.Fatalf("RenderCount returned error: %v", err)
	}
	if count.Query != `count(*[_type == "post" && (_id in path("drafts.**")) == $draft])` {
		t.Fatalf("unexpected count query %s", count.Query)
	}
	if count.Params["draft"] != false {
		t.Fatalf("expected draft parameter false, got %#v", count.Params["draft"])
	}

	tags, err := RenderTags(q)
	if err != nil {
		t.Fatalf("RenderTags returned error: %v", err)
	}
	if !strings.HasPrefix(tags.Query, `*[_type == "tag"] | order(title asc)`) {
		t.Fatalf("unexpected tag query %s", tags.Query)
	}
	if !strings.Contains(tags.Query, `count(*[_type == "post" && (_id in path("drafts.**")) == $draft && references(^._id)])`) {
		t.Fatalf("expected tag counts to reuse the article filter, got %s", tags.Query)
	}
}

package sanity

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
	"github.com/tidwall/gjson"

	"guideco/app/internal/content"
)

// Querier runs a rendered statement. *Client satisfies it.
type Querier interface {
	Query(ctx context.Context, stmt Statement) (gjson.Result, error)
}

// Executor renders content queries to GROQ and decodes the results.
type Executor struct {
	querier Querier
}

var _ content.Executor = (*Executor)(nil)

// NewExecutor builds an executor over querier.
func NewExecutor(querier Querier) (*Executor, error) {
	if querier == nil {
		return nil, eris.New("sanity querier is required")
	}
	return &Executor{querier: querier}, nil
}

// FetchArticles runs q and decodes every returned document.
func (e *Executor) FetchArticles(ctx context.Context, q content.Query) ([]content.Article, error) {
	stmt, err := RenderArticles(q)
	if err != nil {
		return nil, eris.Wrap(err, "rendering article query")
	}

	result, err := e.querier.Query(ctx, stmt)
	if err != nil {
		return nil, eris.Wrap(err, "fetching articles")
	}
	if !result.IsArray() {
		return nil, eris.Errorf("expected an array of articles, got %s", result.Type)
	}

	var articles []content.Article
	for _, doc := range result.Array() {
		articles = append(articles, decodeArticle(doc))
	}
	return articles, nil
}

// CountArticles runs the count form of q.
func (e *Executor) CountArticles(ctx context.Context, q content.Query) (int, error) {
	stmt, err := RenderCount(q)
	if err != nil {
		return 0, eris.Wrap(err, "rendering count query")
	}

	result, err := e.querier.Query(ctx, stmt)
	if err != nil {
		return 0, eris.Wrap(err, "counting articles")
	}
	if result.Type != gjson.Number {
		return 0, eris.Errorf("expected a numeric count, got %s", result.Type)
	}
	return int(result.Int()), nil
}

// FetchTags returns the tag catalogue with counts of the posts matching articles.
func (e *Executor) FetchTags(ctx context.Context, articles content.Query) ([]content.Tag, error) {
	stmt, err := RenderTags(articles)
	if err != nil {
		return nil, eris.Wrap(err, "rendering tag query")
	}

	result, err := e.querier.Query(ctx, stmt)
	if err != nil {
		return nil, eris.Wrap(err, "fetching tags")
	}
	if !result.IsArray() {
		return nil, eris.Errorf("expected an array of tags, got %s", result.Type)
	}

	var tags []content.Tag
	for _, doc := range result.Array() {
		tags = append(tags, content.Tag{
			Title:     doc.Get("title").String(),
			Slug:      doc.Get("slug").String(),
			PostCount: int(doc.Get("postCount").Int()),
		})
	}
	return tags, nil
}

// FetchAuthors returns the published author documents by name.
func (e *Executor) FetchAuthors(ctx context.Context) ([]content.Author, error) {
	result, err := e.querier.Query(ctx, RenderAuthors())
	if err != nil {
		return nil, eris.Wrap(err, "fetching authors")
	}
	if !result.IsArray() {
		return nil, eris.Errorf("expected an array of authors, got %s", result.Type)
	}

	var authors []content.Author
	for _, doc := range result.Array() {
		authors = append(authors, decodeAuthor(doc))
	}
	return authors, nil
}

func decodeArticle(doc gjson.Result) content.Article {
	article := content.Article{
		ID:          doc.Get("id").String(),
		Slug:        doc.Get("slug").String(),
		Title:       doc.Get("title").String(),
		Description: doc.Get("description").String(),
		PublishedAt: decodeTime(doc.Get("publishedAt")),
		UpdatedAt:   decodeTime(doc.Get("updatedAt")),
		MainImage:   decodeImage(doc.Get("mainImage")),
		Draft:       doc.Get("draft").Bool(),
	}

	for _, tag := range doc.Get("tags").Array() {
		article.Tags = append(article.Tags, content.TagRef{
			ID:    tag.Get("id").String(),
			Title: tag.Get("title").String(),
			Slug:  tag.Get("slug").String(),
		})
	}

	if author := doc.Get("author"); author.IsObject() {
		decoded := decodeAuthor(author)
		article.Author = &decoded
	}

	if body := doc.Get("body"); body.Exists() && body.Type != gjson.Null {
		article.Body = json.RawMessage(body.Raw)
	}

	return article
}

func decodeAuthor(doc gjson.Result) content.Author {
	return content.Author{
		Name:     doc.Get("name").String(),
		Image:    decodeImage(doc.Get("image")),
		Mail:     doc.Get("mail").String(),
		GitHub:   doc.Get("github").String(),
		X:        doc.Get("x").String(),
		LinkedIn: doc.Get("linkedin").String(),
	}
}

func decodeImage(value gjson.Result) *content.Image {
	url := value.Get("url").String()
	if url == "" {
		return nil
	}
	return &content.Image{URL: url, Alt: value.Get("alt").String()}
}

// decodeTime accepts RFC 3339 timestamps and plain dates; anything else is the zero time.
func decodeTime(value gjson.Result) time.Time {
	raw := value.String()
	if raw == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.DateOnly} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

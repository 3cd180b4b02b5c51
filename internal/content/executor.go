package content

import "context"

// Executor is a content store client. Implementations translate a Query into their own
// query language, honor ctx cancellation, and exclude deleted documents.
type Executor interface {
	// FetchArticles returns the articles matching q in q's order, restricted to q's window.
	FetchArticles(ctx context.Context, q Query) ([]Article, error)
	// CountArticles returns how many articles match q's predicates. Order, window and
	// projection are ignored.
	CountArticles(ctx context.Context, q Query) (int, error)
	// FetchTags returns every tag ordered by title. Each post count is computed now and counts
	// the articles that reference the tag and match the predicates of articles.
	FetchTags(ctx context.Context, articles Query) ([]Tag, error)
	// FetchAuthors returns every author document ordered by name.
	FetchAuthors(ctx context.Context) ([]Author, error)
}

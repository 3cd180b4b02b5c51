package content

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Reader is the read surface offered to page-rendering callers.
type Reader interface {
	ListArticles(ctx context.Context, page, pageSize int, tag string) (ArticlePage, error)
	ListArticlesByTag(ctx context.Context, tagSlug string, pageSize, page int) (ArticlePage, error)
	GetArticleBySlug(ctx context.Context, slug string) (ArticleWithNeighbors, error)
	ListTags(ctx context.Context) ([]Tag, error)
	ListAllArticles(ctx context.Context) ([]Article, error)
	ListAuthors(ctx context.Context) ([]Author, error)
}

const defaultQueryTimeout = 10 * time.Second

// Options configures a Repository.
type Options struct {
	Executor  Executor
	Logger    *logrus.Logger
	SentryHub *sentry.Hub
	// QueryTimeout bounds every operation; zero selects the default of ten seconds.
	QueryTimeout time.Duration
	// NeighborCache, when set, serves previous/next links of recently resolved articles.
	NeighborCache NeighborCache
	// ExcludeDrafts hides draft articles from every listing, lookup and tag count.
	ExcludeDrafts bool
}

// Repository turns pagination and filter requests into executor queries and shapes the
// results. It holds no content state of its own.
type Repository struct {
	executor      Executor
	logger        *logrus.Logger
	sentryHub     *sentry.Hub
	timeout       time.Duration
	neighbors     NeighborCache
	excludeDrafts bool
}

var _ Reader = (*Repository)(nil)

// NewRepository wires a repository around the provided executor.
func NewRepository(opts Options) (*Repository, error) {
	if opts.Executor == nil {
		return nil, eris.New("content executor is required")
	}
	if opts.QueryTimeout < 0 {
		return nil, eris.Errorf("query timeout must not be negative, got %s", opts.QueryTimeout)
	}

	timeout := opts.QueryTimeout
	if timeout == 0 {
		timeout = defaultQueryTimeout
	}

	return &Repository{
		executor:      opts.Executor,
		logger:        opts.Logger,
		sentryHub:     opts.SentryHub,
		timeout:       timeout,
		neighbors:     opts.NeighborCache,
		excludeDrafts: opts.ExcludeDrafts,
	}, nil
}

// ListArticles returns the page-th window of pageSize articles, newest first, optionally
// restricted to articles tagged with tag, together with the total number of matches.
// Pages before the first yield no items; a non-positive page size is ErrInvalidPagination.
func (r *Repository) ListArticles(ctx context.Context, page, pageSize int, tag string) (ArticlePage, error) {
	return r.listArticles(ctx, "list articles", page, pageSize, tag)
}

// ListArticlesByTag is ListArticles with a mandatory tag filter.
func (r *Repository) ListArticlesByTag(ctx context.Context, tagSlug string, pageSize, page int) (ArticlePage, error) {
	if tagSlug == "" {
		return ArticlePage{}, eris.New("tag slug is required")
	}
	return r.listArticles(ctx, "list articles by tag", page, pageSize, tagSlug)
}

func (r *Repository) listArticles(ctx context.Context, op string, page, pageSize int, tag string) (ArticlePage, error) {
	if pageSize <= 0 {
		return ArticlePage{}, invalidPagination(op, "page size %d must be positive", pageSize)
	}

	fields := logrus.Fields{"page": page, "page_size": pageSize}
	if tag != "" {
		fields["tag"] = tag
	}

	countQuery, err := r.listingQuery(tag).Build()
	if err != nil {
		return ArticlePage{}, eris.Wrap(err, "building count query")
	}

	var (
		items = []Article{}
		total int
		tasks []func(context.Context) error
	)

	// A window starting before the first item is empty; the store is never asked for it.
	if offset, ok := Offset(page, pageSize); ok {
		windowQuery, err := r.listingQuery(tag).
			OrderBy(FieldPublishedAt, true).
			OrderBy(FieldID, true).
			Window(offset, pageSize).
			Project(ProjectionSummary).
			Build()
		if err != nil {
			return ArticlePage{}, eris.Wrap(err, "building window query")
		}

		tasks = append(tasks, func(ctx context.Context) error {
			fetched, err := r.executor.FetchArticles(ctx, windowQuery)
			if err != nil {
				return eris.Wrap(err, "fetching article window")
			}
			items = fetched
			return nil
		})
	}

	tasks = append(tasks, func(ctx context.Context) error {
		count, err := r.executor.CountArticles(ctx, countQuery)
		if err != nil {
			return eris.Wrap(err, "counting articles")
		}
		total = count
		return nil
	})

	if err := r.run(ctx, tasks...); err != nil {
		return ArticlePage{}, r.fail(op, err, fields)
	}

	if len(items) > pageSize {
		items = items[:pageSize]
	}
	for i := range items {
		r.normalizeArticle(op, &items[i])
	}

	return ArticlePage{Items: items, Total: total}, nil
}

// GetArticleBySlug resolves the article with exactly the given slug and its chronological
// neighbors. An unknown slug yields an empty result, never an error.
func (r *Repository) GetArticleBySlug(ctx context.Context, slug string) (ArticleWithNeighbors, error) {
	const op = "get article by slug"

	if slug == "" {
		return ArticleWithNeighbors{}, nil
	}
	fields := logrus.Fields{"slug": slug}

	anchorQuery, err := r.articleQuery().
		Where(FieldSlug, OpEqual, "slug", slug).
		Window(0, 1).
		Project(ProjectionFull).
		Build()
	if err != nil {
		return ArticleWithNeighbors{}, eris.Wrap(err, "building article query")
	}

	var anchors []Article
	err = r.run(ctx, func(ctx context.Context) error {
		fetched, err := r.executor.FetchArticles(ctx, anchorQuery)
		if err != nil {
			return eris.Wrapf(err, "fetching article %s", slug)
		}
		anchors = fetched
		return nil
	})
	if err != nil {
		return ArticleWithNeighbors{}, r.fail(op, err, fields)
	}

	// No anchor, no neighbors: the previous/next queries are skipped entirely.
	if len(anchors) == 0 {
		return ArticleWithNeighbors{}, nil
	}

	article := anchors[0]
	r.normalizeArticle(op, &article)

	neighbors, err := r.resolveNeighbors(ctx, slug, article.PublishedAt)
	if err != nil {
		return ArticleWithNeighbors{}, r.fail(op, err, fields)
	}

	return ArticleWithNeighbors{
		Article:  &article,
		Previous: neighbors.Previous,
		Next:     neighbors.Next,
	}, nil
}

func (r *Repository) resolveNeighbors(ctx context.Context, slug string, publishedAt time.Time) (Neighbors, error) {
	if r.neighbors != nil {
		if cached, ok := r.neighbors.Get(slug); ok {
			return cached, nil
		}
	}

	previousQuery, err := r.articleQuery().
		Where(FieldPublishedAt, OpLess, "publishedAt", publishedAt).
		OrderBy(FieldPublishedAt, true).
		OrderBy(FieldID, true).
		Window(0, 1).
		Project(ProjectionLink).
		Build()
	if err != nil {
		return Neighbors{}, eris.Wrap(err, "building previous article query")
	}

	nextQuery, err := r.articleQuery().
		Where(FieldPublishedAt, OpGreater, "publishedAt", publishedAt).
		OrderBy(FieldPublishedAt, false).
		OrderBy(FieldID, false).
		Window(0, 1).
		Project(ProjectionLink).
		Build()
	if err != nil {
		return Neighbors{}, eris.Wrap(err, "building next article query")
	}

	var neighbors Neighbors
	err = r.run(ctx,
		func(ctx context.Context) error {
			link, err := r.fetchLink(ctx, previousQuery)
			if err != nil {
				return eris.Wrap(err, "fetching previous article")
			}
			neighbors.Previous = link
			return nil
		},
		func(ctx context.Context) error {
			link, err := r.fetchLink(ctx, nextQuery)
			if err != nil {
				return eris.Wrap(err, "fetching next article")
			}
			neighbors.Next = link
			return nil
		},
	)
	if err != nil {
		return Neighbors{}, err
	}

	if r.neighbors != nil {
		r.neighbors.Add(slug, neighbors)
	}
	return neighbors, nil
}

func (r *Repository) fetchLink(ctx context.Context, q Query) (*NeighborLink, error) {
	found, err := r.executor.FetchArticles(ctx, q)
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, nil
	}

	article := found[0]
	r.normalizeArticle("resolve neighbor", &article)
	return &NeighborLink{
		Slug:        article.Slug,
		Title:       article.Title,
		PublishedAt: article.PublishedAt,
	}, nil
}

// ListTags returns every tag ordered by title with a freshly computed post count. Tags no
// article references are included with a count of zero.
func (r *Repository) ListTags(ctx context.Context) ([]Tag, error) {
	const op = "list tags"

	articles, err := r.articleQuery().Build()
	if err != nil {
		return nil, eris.Wrap(err, "building tag count query")
	}

	var tags []Tag
	err = r.run(ctx, func(ctx context.Context) error {
		fetched, err := r.executor.FetchTags(ctx, articles)
		if err != nil {
			return eris.Wrap(err, "fetching tags")
		}
		tags = fetched
		return nil
	})
	if err != nil {
		return nil, r.fail(op, err, nil)
	}

	for i := range tags {
		if strings.TrimSpace(tags[i].Slug) == "" {
			r.logMalformed(op, logrus.Fields{"tag_title": tags[i].Title}, "slug")
			tags[i].Slug = PlaceholderSlug
		}
	}
	slices.SortStableFunc(tags, func(a, b Tag) int {
		return strings.Compare(a.Title, b.Title)
	})

	return tags, nil
}

// ListAllArticles returns every article newest first, without bodies.
func (r *Repository) ListAllArticles(ctx context.Context) ([]Article, error) {
	const op = "list all articles"

	q, err := r.articleQuery().
		OrderBy(FieldPublishedAt, true).
		OrderBy(FieldID, true).
		Project(ProjectionSummary).
		Build()
	if err != nil {
		return nil, eris.Wrap(err, "building article query")
	}

	var articles []Article
	err = r.run(ctx, func(ctx context.Context) error {
		fetched, err := r.executor.FetchArticles(ctx, q)
		if err != nil {
			return eris.Wrap(err, "fetching all articles")
		}
		articles = fetched
		return nil
	})
	if err != nil {
		return nil, r.fail(op, err, nil)
	}

	for i := range articles {
		r.normalizeArticle(op, &articles[i])
	}
	return articles, nil
}

// ListAuthors returns every author ordered by name.
func (r *Repository) ListAuthors(ctx context.Context) ([]Author, error) {
	var authors []Author
	err := r.run(ctx, func(ctx context.Context) error {
		fetched, err := r.executor.FetchAuthors(ctx)
		if err != nil {
			return eris.Wrap(err, "fetching authors")
		}
		authors = fetched
		return nil
	})
	if err != nil {
		return nil, r.fail("list authors", err, nil)
	}

	slices.SortStableFunc(authors, func(a, b Author) int {
		return strings.Compare(a.Name, b.Name)
	})
	return authors, nil
}

func (r *Repository) articleQuery() *QueryBuilder {
	b := Articles()
	if r.excludeDrafts {
		b.Where(FieldDraft, OpEqual, "draft", false)
	}
	return b
}

func (r *Repository) listingQuery(tag string) *QueryBuilder {
	b := r.articleQuery()
	if tag != "" {
		b.Where(FieldTagSlug, OpContains, "tag", tag)
	}
	return b
}

// run executes tasks concurrently under the repository timeout. It returns as soon as the
// deadline passes even if an executor ignores cancellation; results written by abandoned
// tasks are never read.
func (r *Repository) run(ctx context.Context, tasks ...func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	for _, task := range tasks {
		g.Go(func() error {
			return task(gctx)
		})
	}

	done := make(chan error, 1)
	go func() {
		done <- g.Wait()
	}()

	select {
	case err := <-done:
		if err == nil {
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return eris.Wrap(ctxErr, err.Error())
		}
		return err
	case <-ctx.Done():
		return eris.Wrap(ctx.Err(), "content store did not respond in time")
	}
}

func (r *Repository) normalizeArticle(op string, a *Article) {
	if strings.TrimSpace(a.Slug) == "" {
		r.logMalformed(op, logrus.Fields{"article_id": a.ID, "title": a.Title}, "slug")
		a.Slug = PlaceholderSlug
	}
	for i := range a.Tags {
		if strings.TrimSpace(a.Tags[i].Slug) == "" {
			r.logMalformed(op, logrus.Fields{"article_id": a.ID, "tag_title": a.Tags[i].Title}, "tag slug")
			a.Tags[i].Slug = PlaceholderSlug
		}
	}
}

func (r *Repository) fail(op string, err error, fields logrus.Fields) error {
	wrapped := unavailable(op, err)
	r.recordError(fields, wrapped, op)
	return wrapped
}

func (r *Repository) logMalformed(op string, fields logrus.Fields, missing string) {
	if r.logger == nil {
		return
	}
	r.logger.WithFields(fields).WithFields(logrus.Fields{
		"operation": op,
		"missing":   missing,
		"kind":      KindMalformed,
	}).Warn("content document is missing a field, substituting a default")
}

func (r *Repository) recordError(fields logrus.Fields, err error, message string) {
	if err == nil {
		return
	}

	if r.logger != nil {
		entry := r.logger.WithField("error", err.Error())
		if len(fields) > 0 {
			entry = entry.WithFields(fields)
		}
		entry.Error(message)
	}

	if r.sentryHub != nil {
		r.sentryHub.CaptureException(err)
	}
}

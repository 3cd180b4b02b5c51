package http

import (
	"context"
	stdhttp "net/http"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/sirupsen/logrus"

	"guideco/app/internal/content"
)

type listArticlesInput struct {
	Page     int    `query:"page" default:"1" doc:"1-based page number"`
	PageSize int    `query:"pageSize" doc:"Articles per page, defaults to the site setting"`
	Tag      string `query:"tag" doc:"Only list articles carrying this tag slug"`
}

type tagArticlesInput struct {
	Tag      string `path:"tag"`
	Page     int    `query:"page" default:"1"`
	PageSize int    `query:"pageSize"`
}

type listingBody struct {
	Items      []content.Article `json:"items"`
	Total      int               `json:"total"`
	Page       int               `json:"page"`
	PageSize   int               `json:"pageSize"`
	TotalPages int               `json:"totalPages"`
}

type listingOutput struct {
	CacheControl string `header:"Cache-Control"`
	Body         listingBody
}

type articleOutput struct {
	CacheControl string `header:"Cache-Control"`
	Body         content.ArticleWithNeighbors
}

type tagsOutput struct {
	CacheControl string `header:"Cache-Control"`
	Body         struct {
		Tags []content.Tag `json:"tags"`
	}
}

type authorsOutput struct {
	CacheControl string `header:"Cache-Control"`
	Body         struct {
		Authors []content.Author `json:"authors"`
	}
}

type searchEntry struct {
	Title   string    `json:"title"`
	Tags    []string  `json:"tags"`
	Date    time.Time `json:"date"`
	Lastmod time.Time `json:"lastmod"`
	Summary string    `json:"summary"`
	Images  []string  `json:"images"`
	Slug    string    `json:"slug"`
	Path    string    `json:"path"`
}

type searchIndexOutput struct {
	CacheControl string `header:"Cache-Control"`
	Body         []searchEntry
}

type healthResponse struct {
	Status int
	Body   struct {
		Status  string `json:"status"`
		Content string `json:"content"`
	}
}

func (s *Server) registerAPIRoutes() {
	huma.Get(s.api, "/api/articles", s.listArticlesHandler, func(op *huma.Operation) {
		op.Summary = "List articles"
	})
	huma.Get(s.api, "/api/articles/{slug}", s.getArticleHandler, func(op *huma.Operation) {
		op.Summary = "Get an article with its neighbors"
	})
	huma.Get(s.api, "/api/tags", s.listTagsHandler, func(op *huma.Operation) {
		op.Summary = "List tags with post counts"
	})
	huma.Get(s.api, "/api/tags/{tag}/articles", s.tagArticlesHandler, func(op *huma.Operation) {
		op.Summary = "List articles by tag"
	})
	huma.Get(s.api, "/api/authors", s.listAuthorsHandler, func(op *huma.Operation) {
		op.Summary = "List authors"
	})
	huma.Get(s.api, "/api/search-index", s.searchIndexHandler, func(op *huma.Operation) {
		op.Summary = "Client-side search index"
	})
}

func (s *Server) registerHealthRoute() {
	huma.Get(s.api, "/healthz", s.healthHandler, func(op *huma.Operation) {
		op.Summary = "Health check"
	})
}

func (s *Server) listArticlesHandler(ctx context.Context, input *listArticlesInput) (*listingOutput, error) {
	return s.listing(ctx, input.Page, input.PageSize, strings.TrimSpace(input.Tag))
}

func (s *Server) tagArticlesHandler(ctx context.Context, input *tagArticlesInput) (*listingOutput, error) {
	tag := strings.TrimSpace(input.Tag)
	if tag == "" {
		return nil, huma.Error404NotFound("tag not found")
	}
	return s.listing(ctx, input.Page, input.PageSize, tag)
}

func (s *Server) listing(ctx context.Context, page, pageSize int, tag string) (*listingOutput, error) {
	if pageSize == 0 {
		pageSize = s.site.PostsPerPage
	}
	if pageSize < 0 || pageSize > maxPageSize {
		return nil, huma.Error400BadRequest("pageSize must be between 1 and 100")
	}
	if page < 1 {
		return nil, huma.Error404NotFound("page not found")
	}

	fields := logrus.Fields{"page": page, "page_size": pageSize}
	if tag != "" {
		fields["tag"] = tag
	}

	var (
		result content.ArticlePage
		err    error
	)
	if tag == "" {
		result, err = s.content.ListArticles(ctx, page, pageSize, "")
	} else {
		result, err = s.content.ListArticlesByTag(ctx, tag, pageSize, page)
	}
	if err != nil {
		return nil, s.apiError(ctx, err, "listing articles", fields)
	}

	ttl := s.site.PostsRevalidate
	if tag != "" {
		if result.Total == 0 {
			return nil, huma.Error404NotFound("tag not found")
		}
		ttl = s.site.TagsRevalidate
	}
	if result.Total > 0 && content.ValidatePage(page, pageSize, result.Total) != nil {
		return nil, huma.Error404NotFound("page not found")
	}

	return &listingOutput{
		CacheControl: cacheControl(ttl),
		Body: listingBody{
			Items:      result.Items,
			Total:      result.Total,
			Page:       page,
			PageSize:   pageSize,
			TotalPages: content.TotalPages(result.Total, pageSize),
		},
	}, nil
}

func (s *Server) getArticleHandler(ctx context.Context, input *articleInput) (*articleOutput, error) {
	slug := strings.TrimSpace(input.Slug)

	result, err := s.content.GetArticleBySlug(ctx, slug)
	if err != nil {
		return nil, s.apiError(ctx, err, "loading article", logrus.Fields{"slug": slug})
	}
	if result.Article == nil {
		return nil, huma.Error404NotFound("article not found")
	}

	return &articleOutput{CacheControl: cacheControl(s.site.PostsRevalidate), Body: result}, nil
}

func (s *Server) listAuthorsHandler(ctx context.Context, _ *struct{}) (*authorsOutput, error) {
	authors, err := s.content.ListAuthors(ctx)
	if err != nil {
		return nil, s.apiError(ctx, err, "listing authors", nil)
	}
	if authors == nil {
		authors = []content.Author{}
	}

	out := &authorsOutput{CacheControl: cacheControl(s.site.PostsRevalidate)}
	out.Body.Authors = authors
	return out, nil
}

func (s *Server) listTagsHandler(ctx context.Context, _ *struct{}) (*tagsOutput, error) {
	tags, err := s.content.ListTags(ctx)
	if err != nil {
		return nil, s.apiError(ctx, err, "listing tags", nil)
	}
	if tags == nil {
		tags = []content.Tag{}
	}

	out := &tagsOutput{CacheControl: cacheControl(s.site.TagsRevalidate)}
	out.Body.Tags = tags
	return out, nil
}

func (s *Server) searchIndexHandler(ctx context.Context, _ *struct{}) (*searchIndexOutput, error) {
	articles, err := s.content.ListAllArticles(ctx)
	if err != nil {
		return nil, s.apiError(ctx, err, "building search index", nil)
	}

	entries := make([]searchEntry, 0, len(articles))
	for _, article := range articles {
		entries = append(entries, newSearchEntry(article))
	}

	return &searchIndexOutput{CacheControl: cacheControl(s.site.PostsRevalidate), Body: entries}, nil
}

func newSearchEntry(article content.Article) searchEntry {
	entry := searchEntry{
		Title:   article.Title,
		Tags:    make([]string, 0, len(article.Tags)),
		Date:    article.PublishedAt,
		Lastmod: lastModified(article),
		Summary: article.Description,
		Images:  []string{},
		Slug:    article.Slug,
		Path:    "blog/" + article.Slug,
	}
	for _, tag := range article.Tags {
		entry.Tags = append(entry.Tags, tag.Slug)
	}
	if article.MainImage != nil && article.MainImage.URL != "" {
		entry.Images = append(entry.Images, article.MainImage.URL)
	}
	return entry
}

func lastModified(article content.Article) time.Time {
	if article.UpdatedAt.IsZero() {
		return article.PublishedAt
	}
	return article.UpdatedAt
}

func (s *Server) healthHandler(ctx context.Context, _ *struct{}) (*healthResponse, error) {
	resp := &healthResponse{Status: stdhttp.StatusOK}
	resp.Body.Status = "ok"
	resp.Body.Content = "ok"

	if s.health != nil {
		if err := s.health(ctx); err != nil {
			s.recordError(ctx, err, "health check failed", nil)
			resp.Status = stdhttp.StatusServiceUnavailable
			resp.Body.Status = "degraded"
			resp.Body.Content = "unavailable"
		}
	}

	return resp, nil
}

func (s *Server) apiError(ctx context.Context, err error, message string, fields logrus.Fields) error {
	switch content.KindOf(err) {
	case content.KindNotFound:
		return huma.Error404NotFound("not found")
	case content.KindInvalidPagination:
		return huma.Error400BadRequest(err.Error())
	case content.KindRepositoryUnavailable:
		s.recordError(ctx, err, message, fields)
		return huma.Error503ServiceUnavailable("content store unavailable")
	default:
		s.recordError(ctx, err, message, fields)
		return huma.Error500InternalServerError(errorFallbackMessage)
	}
}

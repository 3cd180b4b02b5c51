package http

import (
	"context"
	stdhttp "net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/sirupsen/logrus"

	"guideco/app/internal/content"
	"guideco/app/internal/http/templates"
)

type pageInput struct {
	Page string `path:"page"`
}

type articleInput struct {
	Slug string `path:"slug"`
}

type tagInput struct {
	Tag string `path:"tag"`
}

type tagPageInput struct {
	Tag  string `path:"tag"`
	Page string `path:"page"`
}

func (s *Server) registerPageRoutes() {
	listingStatuses := []int{stdhttp.StatusNotFound, stdhttp.StatusInternalServerError, stdhttp.StatusServiceUnavailable}

	huma.Get(s.api, "/", s.homeHandler, htmlOperation("Latest posts", listingStatuses...))
	huma.Get(s.api, "/blog", s.blogHandler, htmlOperation("Blog listing", listingStatuses...))
	huma.Get(s.api, "/blog/page/{page}", s.blogPageHandler, htmlOperation("Blog listing page", listingStatuses...))
	huma.Get(s.api, "/blog/{slug}", s.articleHandler, htmlOperation("Article", listingStatuses...))
	huma.Get(s.api, "/tags", s.tagsHandler, htmlOperation("Tag index", stdhttp.StatusInternalServerError, stdhttp.StatusServiceUnavailable))
	huma.Get(s.api, "/tags/{tag}", s.tagHandler, htmlOperation("Articles by tag", listingStatuses...))
	huma.Get(s.api, "/tags/{tag}/page/{page}", s.tagPageHandler, htmlOperation("Articles by tag page", listingStatuses...))
	huma.Get(s.api, "/about", s.aboutHandler, htmlOperation("Authors", stdhttp.StatusInternalServerError, stdhttp.StatusServiceUnavailable))
}

func (s *Server) homeHandler(ctx context.Context, _ *struct{}) (*htmlResponse, error) {
	listing, errResp := s.loadListing(ctx, s.site.HomePage, "")
	if errResp != nil {
		return errResp, nil
	}

	data := templates.ListPageData{
		SiteTitle: s.site.Title,
		Title:     "Latest posts",
		Articles:  cardViews(listing.Items),
	}
	if content.TotalPages(listing.Total, s.site.PostsPerPage) > s.site.HomePage {
		data.Pagination = &templates.PaginationView{
			Pagination: content.NewPagination(s.site.HomePage, s.site.PostsPerPage, listing.Total),
			NextURL:    blogPageURL(s.site.HomePage + 1),
		}
	}

	return s.renderPage(ctx, templates.ListPage(data), s.site.PostsRevalidate, nil), nil
}

func (s *Server) blogHandler(ctx context.Context, _ *struct{}) (*htmlResponse, error) {
	return s.renderBlogPage(ctx, 1), nil
}

func (s *Server) blogPageHandler(ctx context.Context, input *pageInput) (*htmlResponse, error) {
	page, ok := parsePage(input.Page)
	if !ok {
		return s.renderErrorResponse(ctx, stdhttp.StatusNotFound, notFoundMessage), nil
	}
	return s.renderBlogPage(ctx, page), nil
}

func (s *Server) renderBlogPage(ctx context.Context, page int) *htmlResponse {
	listing, errResp := s.loadListing(ctx, page, "")
	if errResp != nil {
		return errResp
	}

	data := templates.ListPageData{
		SiteTitle:  s.site.Title,
		Title:      "Blog",
		Articles:   cardViews(listing.Items),
		Pagination: paginationView(page, s.site.PostsPerPage, listing.Total, blogPageURL),
	}
	if page > 1 {
		data.Title = "Blog • Page " + strconv.Itoa(page)
	}

	return s.renderPage(ctx, templates.ListPage(data), s.site.PostsRevalidate, logrus.Fields{"page": page})
}

func (s *Server) articleHandler(ctx context.Context, input *articleInput) (*htmlResponse, error) {
	slug := strings.TrimSpace(input.Slug)
	fields := logrus.Fields{"slug": slug}

	result, err := s.content.GetArticleBySlug(ctx, slug)
	if err != nil {
		return s.contentErrorResponse(ctx, err, "loading article", fields), nil
	}
	if result.Article == nil {
		return s.renderErrorResponse(ctx, stdhttp.StatusNotFound, notFoundMessage), nil
	}

	article := result.Article
	data := templates.ArticlePageData{
		SiteTitle: s.site.Title,
		Article:   cardView(*article),
		UpdatedAt: article.UpdatedAt,
		BodyHTML:  templates.PortableTextHTML(article.Body),
		Previous:  neighborView(result.Previous),
		Next:      neighborView(result.Next),
	}
	if article.Author != nil {
		data.AuthorName = article.Author.Name
	}
	if article.MainImage != nil {
		data.ImageURL = article.MainImage.URL
		data.ImageAlt = article.MainImage.Alt
	}

	return s.renderPage(ctx, templates.ArticlePage(data), s.site.PostsRevalidate, fields), nil
}

func (s *Server) aboutHandler(ctx context.Context, _ *struct{}) (*htmlResponse, error) {
	authors, err := s.content.ListAuthors(ctx)
	if err != nil {
		return s.contentErrorResponse(ctx, err, "listing authors", nil), nil
	}

	views := make([]templates.AuthorView, 0, len(authors))
	for _, author := range authors {
		views = append(views, authorView(author))
	}

	data := templates.AboutPageData{SiteTitle: s.site.Title, Authors: views}
	return s.renderPage(ctx, templates.AboutPage(data), s.site.PostsRevalidate, nil), nil
}

func (s *Server) tagsHandler(ctx context.Context, _ *struct{}) (*htmlResponse, error) {
	tags, err := s.content.ListTags(ctx)
	if err != nil {
		return s.contentErrorResponse(ctx, err, "listing tags", nil), nil
	}

	views := make([]templates.TagLinkView, 0, len(tags))
	for _, tag := range tags {
		if tag.PostCount == 0 {
			continue
		}
		views = append(views, templates.TagLinkView{
			Title: tag.Title,
			URL:   tagURL(tag.Slug),
			Count: tag.PostCount,
		})
	}

	data := templates.TagsPageData{SiteTitle: s.site.Title, Tags: views}
	return s.renderPage(ctx, templates.TagsPage(data), s.site.TagsRevalidate, nil), nil
}

func (s *Server) tagHandler(ctx context.Context, input *tagInput) (*htmlResponse, error) {
	return s.renderTagPage(ctx, strings.TrimSpace(input.Tag), 1), nil
}

func (s *Server) tagPageHandler(ctx context.Context, input *tagPageInput) (*htmlResponse, error) {
	page, ok := parsePage(input.Page)
	if !ok {
		return s.renderErrorResponse(ctx, stdhttp.StatusNotFound, notFoundMessage), nil
	}
	return s.renderTagPage(ctx, strings.TrimSpace(input.Tag), page), nil
}

func (s *Server) renderTagPage(ctx context.Context, tag string, page int) *htmlResponse {
	if tag == "" {
		return s.renderErrorResponse(ctx, stdhttp.StatusNotFound, notFoundMessage)
	}

	listing, errResp := s.loadListing(ctx, page, tag)
	if errResp != nil {
		return errResp
	}

	pageURL := func(p int) string { return tagPageURL(tag, p) }
	data := templates.ListPageData{
		SiteTitle:  s.site.Title,
		Title:      "Posts tagged " + tagTitle(listing.Items, tag),
		Articles:   cardViews(listing.Items),
		Pagination: paginationView(page, s.site.PostsPerPage, listing.Total, pageURL),
	}

	return s.renderPage(ctx, templates.ListPage(data), s.site.TagsRevalidate, logrus.Fields{"tag": tag, "page": page})
}

// loadListing fetches one page of a listing and turns every not-found condition into a 404:
// pages outside [1, last], any page of a tag nobody uses, and pages past the first of an
// empty blog.
func (s *Server) loadListing(ctx context.Context, page int, tag string) (content.ArticlePage, *htmlResponse) {
	fields := logrus.Fields{"page": page}
	if tag != "" {
		fields["tag"] = tag
	}

	var (
		listing content.ArticlePage
		err     error
	)
	if tag == "" {
		listing, err = s.content.ListArticles(ctx, page, s.site.PostsPerPage, "")
	} else {
		listing, err = s.content.ListArticlesByTag(ctx, tag, s.site.PostsPerPage, page)
	}
	if err != nil {
		return content.ArticlePage{}, s.contentErrorResponse(ctx, err, "listing articles", fields)
	}

	if listing.Total == 0 {
		if tag != "" || page != 1 {
			return content.ArticlePage{}, s.renderErrorResponse(ctx, stdhttp.StatusNotFound, notFoundMessage)
		}
		return listing, nil
	}
	if err := content.ValidatePage(page, s.site.PostsPerPage, listing.Total); err != nil {
		return content.ArticlePage{}, s.renderErrorResponse(ctx, stdhttp.StatusNotFound, notFoundMessage)
	}

	return listing, nil
}

func (s *Server) contentErrorResponse(ctx context.Context, err error, message string, fields logrus.Fields) *htmlResponse {
	status, userMessage := classifyError(err)
	if status >= stdhttp.StatusInternalServerError {
		s.recordError(ctx, err, message, fields)
	}
	return s.renderErrorResponse(ctx, status, userMessage)
}

func classifyError(err error) (int, string) {
	switch content.KindOf(err) {
	case content.KindNotFound, content.KindInvalidPagination:
		return stdhttp.StatusNotFound, notFoundMessage
	case content.KindRepositoryUnavailable:
		return stdhttp.StatusServiceUnavailable, unavailableMessage
	default:
		return stdhttp.StatusInternalServerError, errorFallbackMessage
	}
}

// parsePage accepts only positive decimal page numbers.
func parsePage(raw string) (int, bool) {
	page, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || page < 1 {
		return 0, false
	}
	return page, true
}

func paginationView(page, pageSize, total int, pageURL func(int) string) *templates.PaginationView {
	view := &templates.PaginationView{Pagination: content.NewPagination(page, pageSize, total)}
	if view.HasPrevious {
		view.PreviousURL = pageURL(page - 1)
	}
	if view.HasNext {
		view.NextURL = pageURL(page + 1)
	}
	return view
}

func cardViews(articles []content.Article) []templates.ArticleCardView {
	views := make([]templates.ArticleCardView, 0, len(articles))
	for _, article := range articles {
		views = append(views, cardView(article))
	}
	return views
}

func cardView(article content.Article) templates.ArticleCardView {
	view := templates.ArticleCardView{
		Title:       article.Title,
		URL:         articleURL(article.Slug),
		Description: article.Description,
		PublishedAt: article.PublishedAt,
		Draft:       article.Draft,
	}
	for _, tag := range article.Tags {
		view.Tags = append(view.Tags, templates.TagLinkView{Title: tag.Title, URL: tagURL(tag.Slug)})
	}
	return view
}

func neighborView(link *content.NeighborLink) *templates.NeighborView {
	if link == nil {
		return nil
	}
	return &templates.NeighborView{Title: link.Title, URL: articleURL(link.Slug)}
}

func authorView(author content.Author) templates.AuthorView {
	view := templates.AuthorView{Name: author.Name}
	if author.Image != nil {
		view.ImageURL = author.Image.URL
		view.ImageAlt = author.Image.Alt
	}
	if author.Mail != "" {
		view.Links = append(view.Links, templates.AuthorLinkView{Label: "Email", URL: "mailto:" + author.Mail})
	}
	for _, link := range []templates.AuthorLinkView{
		{Label: "GitHub", URL: author.GitHub},
		{Label: "X", URL: author.X},
		{Label: "LinkedIn", URL: author.LinkedIn},
	} {
		if link.URL != "" {
			view.Links = append(view.Links, link)
		}
	}
	return view
}

func tagTitle(articles []content.Article, slug string) string {
	for _, article := range articles {
		for _, tag := range article.Tags {
			if tag.Slug == slug && tag.Title != "" {
				return tag.Title
			}
		}
	}
	return slug
}

func articleURL(slug string) string {
	return "/blog/" + url.PathEscape(slug)
}

func tagURL(slug string) string {
	return "/tags/" + url.PathEscape(slug)
}

func blogPageURL(page int) string {
	if page <= 1 {
		return "/blog"
	}
	return "/blog/page/" + strconv.Itoa(page)
}

func tagPageURL(tag string, page int) string {
	if page <= 1 {
		return tagURL(tag)
	}
	return tagURL(tag) + "/page/" + strconv.Itoa(page)
}

package templates

import (
	"time"

	"guideco/app/internal/content"
)

// DefaultSiteTitle is used when a page does not supply its own title.
const DefaultSiteTitle = "guideco"

// ArticleCardView is one entry of a listing.
type ArticleCardView struct {
	Title       string
	URL         string
	Description string
	PublishedAt time.Time
	Draft       bool
	Tags        []TagLinkView
}

// TagLinkView links to a tag page.
type TagLinkView struct {
	Title string
	URL   string
	Count int
}

// PaginationView holds the links rendered below a listing. Empty URLs are not rendered.
type PaginationView struct {
	content.Pagination
	PreviousURL string
	NextURL     string
}

// ListPageData bundles template data for the home, blog and tag listings.
type ListPageData struct {
	SiteTitle  string
	Title      string
	Articles   []ArticleCardView
	Pagination *PaginationView
	EmptyText  string
}

// NeighborView links to the chronologically adjacent article.
type NeighborView struct {
	Title string
	URL   string
}

// ArticlePageData contains the values rendered on an article page.
type ArticlePageData struct {
	SiteTitle  string
	Article    ArticleCardView
	AuthorName string
	ImageURL   string
	ImageAlt   string
	UpdatedAt  time.Time
	BodyHTML   string
	Previous   *NeighborView
	Next       *NeighborView
}

// TagsPageData holds the tag index.
type TagsPageData struct {
	SiteTitle string
	Tags      []TagLinkView
}

// AuthorLinkView is one contact link of an author.
type AuthorLinkView struct {
	Label string
	URL   string
}

// AuthorView is an author card on the about page.
type AuthorView struct {
	Name     string
	ImageURL string
	ImageAlt string
	Links    []AuthorLinkView
}

// AboutPageData lists the site's authors.
type AboutPageData struct {
	SiteTitle string
	Authors   []AuthorView
}

// ErrorPageData holds information for rendering an error view.
type ErrorPageData struct {
	SiteTitle   string
	Title       string
	StatusLabel string
	Message     string
}

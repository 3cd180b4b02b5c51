package content

import (
	"encoding/json"
	"time"
)

// PlaceholderSlug replaces a slug that is missing from a stored document.
const PlaceholderSlug = "default-slug"

// Image references an asset held by the content store.
type Image struct {
	URL string `json:"url"`
	Alt string `json:"alt,omitempty"`
}

// Author is referenced, not owned, by an Article.
type Author struct {
	Name     string `json:"name"`
	Image    *Image `json:"image,omitempty"`
	Mail     string `json:"mail,omitempty"`
	GitHub   string `json:"github,omitempty"`
	X        string `json:"x,omitempty"`
	LinkedIn string `json:"linkedin,omitempty"`
}

// TagRef is the tag reference carried by an Article.
type TagRef struct {
	ID    string `json:"id,omitempty"`
	Title string `json:"title"`
	Slug  string `json:"slug"`
}

// Tag is a tag annotated with the number of articles currently referencing it.
type Tag struct {
	Title     string `json:"title"`
	Slug      string `json:"slug"`
	PostCount int    `json:"postCount"`
}

// Article is a blog post as read from the content store. Body is opaque structured content
// and is only populated by the full projection.
type Article struct {
	ID          string          `json:"id"`
	Slug        string          `json:"slug"`
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	PublishedAt time.Time       `json:"publishedAt"`
	UpdatedAt   time.Time       `json:"updatedAt,omitempty"`
	MainImage   *Image          `json:"mainImage,omitempty"`
	Tags        []TagRef        `json:"tags,omitempty"`
	Author      *Author         `json:"author,omitempty"`
	Body        json.RawMessage `json:"body,omitempty"`
	Draft       bool            `json:"draft,omitempty"`
}

// HasTag reports whether the article references a tag with exactly the given slug.
func (a Article) HasTag(slug string) bool {
	for _, tag := range a.Tags {
		if tag.Slug == slug {
			return true
		}
	}
	return false
}

// ArticlePage is one window of a listing together with the size of the full matching set.
type ArticlePage struct {
	Items []Article `json:"items"`
	Total int       `json:"total"`
}

// NeighborLink identifies the chronologically adjacent article.
type NeighborLink struct {
	Slug        string    `json:"slug"`
	Title       string    `json:"title"`
	PublishedAt time.Time `json:"publishedAt"`
}

// Neighbors holds the previous (older) and next (newer) articles around an anchor.
type Neighbors struct {
	Previous *NeighborLink
	Next     *NeighborLink
}

// ArticleWithNeighbors is the result of a slug lookup. When Article is nil both neighbors
// are nil as well.
type ArticleWithNeighbors struct {
	Article  *Article      `json:"article"`
	Previous *NeighborLink `json:"previous"`
	Next     *NeighborLink `json:"next"`
}

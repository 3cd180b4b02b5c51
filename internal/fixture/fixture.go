// Package fixture reads content snapshots used to seed the SQLite store and to back the
// in-memory store.
package fixture

import (
	"encoding/json"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"guideco/app/internal/content"
)

// Fixture is a snapshot of the content store.
type Fixture struct {
	Tags     []Tag            `json:"tags"`
	Authors  []content.Author `json:"authors,omitempty"`
	Articles []Article        `json:"articles"`
}

// Tag is a tag document.
type Tag struct {
	ID    string `json:"id,omitempty"`
	Title string `json:"title"`
	Slug  string `json:"slug"`
}

// Article is an article document. Tags lists tag slugs in display order.
type Article struct {
	ID          string          `json:"id,omitempty"`
	Slug        string          `json:"slug"`
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	PublishedAt time.Time       `json:"publishedAt"`
	UpdatedAt   time.Time       `json:"updatedAt,omitempty"`
	MainImage   *content.Image  `json:"mainImage,omitempty"`
	Tags        []string        `json:"tags,omitempty"`
	Author      *content.Author `json:"author,omitempty"`
	Body        json.RawMessage `json:"body,omitempty"`
	Draft       bool            `json:"draft,omitempty"`
	Deleted     bool            `json:"deleted,omitempty"`
}

// LoadFile decodes the fixture stored at path.
func LoadFile(path string) (Fixture, error) {
	if strings.TrimSpace(path) == "" {
		return Fixture{}, eris.New("fixture path is required")
	}

	file, err := os.Open(path)
	if err != nil {
		return Fixture{}, eris.Wrapf(err, "opening fixture %s", path)
	}
	defer file.Close()

	f, err := Decode(file)
	if err != nil {
		return Fixture{}, eris.Wrapf(err, "loading fixture %s", path)
	}
	return f, nil
}

// Decode reads a fixture and checks that every tag reference resolves. Tags that are only
// referenced from articles are added to the catalogue with their slug as title.
func Decode(r io.Reader) (Fixture, error) {
	var f Fixture
	if err := json.NewDecoder(r).Decode(&f); err != nil {
		return Fixture{}, eris.Wrap(err, "decoding fixture JSON")
	}

	known := make(map[string]struct{}, len(f.Tags))
	for _, tag := range f.Tags {
		if tag.Slug == "" {
			return Fixture{}, eris.Errorf("tag %q has no slug", tag.Title)
		}
		if _, dup := known[tag.Slug]; dup {
			return Fixture{}, eris.Errorf("tag slug %s declared twice", tag.Slug)
		}
		known[tag.Slug] = struct{}{}
	}

	for _, author := range f.Authors {
		if strings.TrimSpace(author.Name) == "" {
			return Fixture{}, eris.New("author has no name")
		}
	}

	for _, article := range f.Articles {
		for _, slug := range article.Tags {
			if _, ok := known[slug]; ok {
				continue
			}
			known[slug] = struct{}{}
			f.Tags = append(f.Tags, Tag{Title: slug, Slug: slug})
		}
	}

	return f, nil
}

// TagIndex maps tag slugs to their documents.
func (f Fixture) TagIndex() map[string]Tag {
	index := make(map[string]Tag, len(f.Tags))
	for _, tag := range f.Tags {
		index[tag.Slug] = tag
	}
	return index
}

// AuthorList returns the declared authors followed by those only referenced from articles.
// Authors are identified by name.
func (f Fixture) AuthorList() []content.Author {
	seen := make(map[string]struct{}, len(f.Authors))
	authors := make([]content.Author, 0, len(f.Authors))
	add := func(author content.Author) {
		if _, dup := seen[author.Name]; dup {
			return
		}
		seen[author.Name] = struct{}{}
		authors = append(authors, author)
	}

	for _, author := range f.Authors {
		add(author)
	}
	for _, article := range f.Articles {
		if article.Author != nil {
			add(*article.Author)
		}
	}
	return authors
}

// Package memstore is an in-memory content store. It evaluates typed queries over a fixture
// snapshot and serves local development and tests.
package memstore

import (
	"context"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rotisserie/eris"

	"guideco/app/internal/content"
	"guideco/app/internal/fixture"
)

type record struct {
	article content.Article
	deleted bool
}

// Store holds articles and tags in insertion order.
type Store struct {
	mu       sync.RWMutex
	articles []record
	tags     []fixture.Tag
	authors  []content.Author
}

var _ content.Executor = (*Store)(nil)

// New builds a store from a fixture. Articles without an ID get their position as ID.
func New(f fixture.Fixture) *Store {
	s := &Store{}
	s.Replace(f)
	return s
}

// Replace swaps the stored snapshot for f.
func (s *Store) Replace(f fixture.Fixture) {
	index := f.TagIndex()

	records := make([]record, 0, len(f.Articles))
	for i, doc := range f.Articles {
		id := doc.ID
		if id == "" {
			id = strconv.Itoa(i + 1)
		}

		tags := make([]content.TagRef, 0, len(doc.Tags))
		for _, slug := range doc.Tags {
			tag := index[slug]
			tagID := tag.ID
			if tagID == "" {
				tagID = slug
			}
			tags = append(tags, content.TagRef{ID: tagID, Title: tag.Title, Slug: slug})
		}

		records = append(records, record{
			article: content.Article{
				ID:          id,
				Slug:        doc.Slug,
				Title:       doc.Title,
				Description: doc.Description,
				PublishedAt: doc.PublishedAt,
				UpdatedAt:   doc.UpdatedAt,
				MainImage:   doc.MainImage,
				Tags:        tags,
				Author:      doc.Author,
				Body:        doc.Body,
				Draft:       doc.Draft,
			},
			deleted: doc.Deleted,
		})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.articles = records
	s.tags = slices.Clone(f.Tags)
	s.authors = f.AuthorList()
}

// FetchArticles evaluates q over the live (non-deleted) articles.
func (s *Store) FetchArticles(ctx context.Context, q content.Query) ([]content.Article, error) {
	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "fetching articles")
	}

	s.mu.RLock()
	matched, err := s.match(q)
	s.mu.RUnlock()
	if err != nil {
		return nil, err
	}

	if len(q.Order) > 0 {
		slices.SortStableFunc(matched, func(a, b content.Article) int {
			return compareArticles(a, b, q.Order)
		})
	}

	if q.Window != nil {
		start := min(q.Window.Offset, len(matched))
		matched = matched[start : start+min(q.Window.Limit, len(matched)-start)]
	}

	out := make([]content.Article, len(matched))
	for i, article := range matched {
		out[i] = project(article, q.Projection)
	}
	return out, nil
}

// CountArticles counts the live articles matching q's predicates.
func (s *Store) CountArticles(ctx context.Context, q content.Query) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, eris.Wrap(err, "counting articles")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	matched, err := s.match(q)
	if err != nil {
		return 0, err
	}
	return len(matched), nil
}

// FetchTags returns every tag by title with the number of matching live articles tagged.
func (s *Store) FetchTags(ctx context.Context, articles content.Query) ([]content.Tag, error) {
	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "fetching tags")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	matched, err := s.match(articles)
	if err != nil {
		return nil, err
	}

	tags := make([]content.Tag, 0, len(s.tags))
	for _, tag := range s.tags {
		count := 0
		for _, article := range matched {
			if article.HasTag(tag.Slug) {
				count++
			}
		}
		tags = append(tags, content.Tag{Title: tag.Title, Slug: tag.Slug, PostCount: count})
	}

	slices.SortStableFunc(tags, func(a, b content.Tag) int {
		return strings.Compare(a.Title, b.Title)
	})
	return tags, nil
}

// FetchAuthors returns every author by name.
func (s *Store) FetchAuthors(ctx context.Context) ([]content.Author, error) {
	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "fetching authors")
	}

	s.mu.RLock()
	authors := slices.Clone(s.authors)
	s.mu.RUnlock()

	slices.SortStableFunc(authors, func(a, b content.Author) int {
		return strings.Compare(a.Name, b.Name)
	})
	return authors, nil
}

func (s *Store) match(q content.Query) ([]content.Article, error) {
	matched := make([]content.Article, 0, len(s.articles))
	for _, rec := range s.articles {
		if rec.deleted {
			continue
		}
		ok, err := matches(rec.article, q)
		if err != nil {
			return nil, err
		}
		if ok {
			matched = append(matched, rec.article)
		}
	}
	return matched, nil
}

func matches(a content.Article, q content.Query) (bool, error) {
	for _, p := range q.Predicates {
		switch p.Field {
		case content.FieldSlug:
			slug, err := q.StringParam(p.Param)
			if err != nil {
				return false, err
			}
			if a.Slug != slug {
				return false, nil
			}
		case content.FieldTagSlug:
			slug, err := q.StringParam(p.Param)
			if err != nil {
				return false, err
			}
			if !a.HasTag(slug) {
				return false, nil
			}
		case content.FieldDraft:
			draft, err := q.BoolParam(p.Param)
			if err != nil {
				return false, err
			}
			if a.Draft != draft {
				return false, nil
			}
		case content.FieldPublishedAt:
			at, err := q.TimeParam(p.Param)
			if err != nil {
				return false, err
			}
			if !compareTime(a.PublishedAt, p.Operator, at) {
				return false, nil
			}
		default:
			return false, eris.Errorf("unsupported predicate field %q", p.Field)
		}
	}
	return true, nil
}

func compareTime(value time.Time, op content.Operator, bound time.Time) bool {
	switch op {
	case content.OpLess:
		return value.Before(bound)
	case content.OpGreater:
		return value.After(bound)
	default:
		return value.Equal(bound)
	}
}

func compareArticles(a, b content.Article, order []content.Ordering) int {
	for _, o := range order {
		var c int
		switch o.Field {
		case content.FieldPublishedAt:
			c = a.PublishedAt.Compare(b.PublishedAt)
		case content.FieldID:
			c = strings.Compare(a.ID, b.ID)
		case content.FieldSlug:
			c = strings.Compare(a.Slug, b.Slug)
		case content.FieldDraft:
			c = compareBool(a.Draft, b.Draft)
		}
		if o.Descending {
			c = -c
		}
		if c != 0 {
			return c
		}
	}
	return 0
}

func compareBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	default:
		return 1
	}
}

func project(a content.Article, p content.Projection) content.Article {
	switch p {
	case content.ProjectionLink:
		return content.Article{ID: a.ID, Slug: a.Slug, Title: a.Title, PublishedAt: a.PublishedAt}
	case content.ProjectionFull:
		a.Tags = slices.Clone(a.Tags)
		return a
	default:
		a.Tags = slices.Clone(a.Tags)
		a.Body = nil
		a.Author = nil
		return a
	}
}

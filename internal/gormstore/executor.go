// Package gormstore runs content queries against the SQLite store through Gorm.
package gormstore

import (
	"context"
	"encoding/json"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"guideco/app/internal/content"
)

const tagMembershipSQL = `EXISTS (SELECT 1 FROM article_tags
	JOIN tags ON tags.id = article_tags.tag_id
	WHERE article_tags.article_id = articles.id AND tags.slug = ? AND tags.deleted_at IS NULL)`

var (
	columns = map[content.Field]string{
		content.FieldSlug:        "slug",
		content.FieldPublishedAt: "published_at",
		content.FieldDraft:       "draft",
		content.FieldID:          "document_id",
	}

	comparisons = map[content.Operator]string{
		content.OpEqual:   "=",
		content.OpLess:    "<",
		content.OpGreater: ">",
	}
)

// Executor evaluates content queries with Gorm. Only whitelisted column names and operators
// reach the SQL text; every value is bound.
type Executor struct {
	db     *gorm.DB
	logger *logrus.Logger
}

var _ content.Executor = (*Executor)(nil)

// NewExecutor constructs a Gorm-backed executor.
func NewExecutor(db *gorm.DB, logger *logrus.Logger) (*Executor, error) {
	if db == nil {
		return nil, eris.New("gorm DB is required")
	}
	if logger == nil {
		return nil, eris.New("logger is required")
	}

	return &Executor{db: db, logger: logger}, nil
}

// FetchArticles runs q and maps the rows to articles.
func (e *Executor) FetchArticles(ctx context.Context, q content.Query) ([]content.Article, error) {
	tx, err := e.scoped(ctx, q)
	if err != nil {
		return nil, err
	}

	if len(q.Order) == 0 {
		tx = tx.Order(clause.OrderByColumn{Column: clause.Column{Table: "articles", Name: "id"}})
	}
	for _, o := range q.Order {
		column, ok := columns[o.Field]
		if !ok {
			return nil, eris.Errorf("unsupported ordering field %q", o.Field)
		}
		tx = tx.Order(clause.OrderByColumn{
			Column: clause.Column{Table: "articles", Name: column},
			Desc:   o.Descending,
		})
	}

	if q.Window != nil {
		tx = tx.Offset(q.Window.Offset).Limit(q.Window.Limit)
	}

	switch q.Projection {
	case content.ProjectionLink:
		tx = tx.Select("articles.id", "articles.document_id", "articles.slug", "articles.title", "articles.published_at")
	case content.ProjectionFull:
		tx = tx.Preload("Tags").Preload("Author")
	default:
		tx = tx.Omit("body").Preload("Tags")
	}

	var records []ArticleRecord
	if err := tx.Find(&records).Error; err != nil {
		e.logError(logrus.Fields{"projection": q.Projection.String()}, err, "failed to fetch articles")
		return nil, eris.Wrap(err, "fetching articles")
	}

	articles := make([]content.Article, len(records))
	for i := range records {
		articles[i] = toArticle(&records[i], q.Projection)
	}
	return articles, nil
}

// CountArticles counts the rows matching q's predicates.
func (e *Executor) CountArticles(ctx context.Context, q content.Query) (int, error) {
	tx, err := e.scoped(ctx, q)
	if err != nil {
		return 0, err
	}

	var count int64
	if err := tx.Count(&count).Error; err != nil {
		e.logError(logrus.Fields{}, err, "failed to count articles")
		return 0, eris.Wrap(err, "counting articles")
	}
	return int(count), nil
}

type tagCountRow struct {
	Title     string
	Slug      string
	PostCount int
}

// FetchTags returns every live tag ordered by title, counting the matching articles that reference it.
func (e *Executor) FetchTags(ctx context.Context, articles content.Query) ([]content.Tag, error) {
	matching, err := e.scoped(ctx, articles)
	if err != nil {
		return nil, err
	}
	matching = matching.Select("articles.id")

	var rows []tagCountRow
	err = e.db.WithContext(ctx).
		Model(&TagRecord{}).
		Select(`tags.title, tags.slug,
			(SELECT COUNT(*) FROM article_tags
				WHERE article_tags.tag_id = tags.id AND article_tags.article_id IN (?)) AS post_count`, matching).
		Where("tags.deleted_at IS NULL").
		Order("tags.title ASC").
		Scan(&rows).Error
	if err != nil {
		e.logError(logrus.Fields{}, err, "failed to fetch tags")
		return nil, eris.Wrap(err, "fetching tags")
	}

	tags := make([]content.Tag, len(rows))
	for i, row := range rows {
		tags[i] = content.Tag{Title: row.Title, Slug: row.Slug, PostCount: row.PostCount}
	}
	return tags, nil
}

// FetchAuthors returns every live author ordered by name.
func (e *Executor) FetchAuthors(ctx context.Context) ([]content.Author, error) {
	var records []AuthorRecord
	if err := e.db.WithContext(ctx).Order("name ASC").Find(&records).Error; err != nil {
		e.logError(logrus.Fields{}, err, "failed to fetch authors")
		return nil, eris.Wrap(err, "fetching authors")
	}

	authors := make([]content.Author, len(records))
	for i := range records {
		authors[i] = *toAuthor(&records[i])
	}
	return authors, nil
}

func (e *Executor) scoped(ctx context.Context, q content.Query) (*gorm.DB, error) {
	tx := e.db.WithContext(ctx).Model(&ArticleRecord{})

	for _, p := range q.Predicates {
		switch p.Field {
		case content.FieldSlug:
			slug, err := q.StringParam(p.Param)
			if err != nil {
				return nil, err
			}
			tx = tx.Where("articles.slug = ?", slug)
		case content.FieldDraft:
			draft, err := q.BoolParam(p.Param)
			if err != nil {
				return nil, err
			}
			tx = tx.Where("articles.draft = ?", draft)
		case content.FieldPublishedAt:
			at, err := q.TimeParam(p.Param)
			if err != nil {
				return nil, err
			}
			op, ok := comparisons[p.Operator]
			if !ok {
				return nil, eris.Errorf("unsupported operator %q on %s", p.Operator, p.Field)
			}
			tx = tx.Where("articles.published_at "+op+" ?", at.UTC())
		case content.FieldTagSlug:
			slug, err := q.StringParam(p.Param)
			if err != nil {
				return nil, err
			}
			tx = tx.Where(tagMembershipSQL, slug)
		default:
			return nil, eris.Errorf("unsupported predicate field %q", p.Field)
		}
	}

	return tx, nil
}

func (e *Executor) logError(fields logrus.Fields, err error, msg string) {
	if e.logger == nil {
		return
	}

	entry := e.logger.WithFields(fields)
	if err != nil {
		entry = entry.WithField("error", err.Error())
	}
	entry.Error(msg)
}

func toArticle(rec *ArticleRecord, projection content.Projection) content.Article {
	article := content.Article{
		ID:          rec.DocumentID,
		Slug:        rec.Slug,
		Title:       rec.Title,
		PublishedAt: rec.PublishedAt.UTC(),
	}
	if projection == content.ProjectionLink {
		return article
	}

	article.Description = rec.Description
	article.UpdatedAt = rec.UpdatedAt.UTC()
	article.Draft = rec.Draft
	if rec.MainImageURL != "" {
		article.MainImage = &content.Image{URL: rec.MainImageURL, Alt: rec.MainImageAlt}
	}

	article.Tags = make([]content.TagRef, 0, len(rec.Tags))
	for _, tag := range rec.Tags {
		article.Tags = append(article.Tags, content.TagRef{ID: tag.DocumentID, Title: tag.Title, Slug: tag.Slug})
	}

	if projection != content.ProjectionFull {
		return article
	}

	if rec.Body != "" {
		article.Body = json.RawMessage(rec.Body)
	}
	if rec.Author != nil {
		article.Author = toAuthor(rec.Author)
	}
	return article
}

func toAuthor(rec *AuthorRecord) *content.Author {
	author := &content.Author{
		Name:     rec.Name,
		Mail:     rec.Mail,
		GitHub:   rec.GitHub,
		X:        rec.X,
		LinkedIn: rec.LinkedIn,
	}
	if rec.ImageURL != "" {
		author.Image = &content.Image{URL: rec.ImageURL, Alt: rec.ImageAlt}
	}
	return author
}

package gormstore

import (
	"context"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"gorm.io/gorm"

	"guideco/app/internal/content"
	"guideco/app/internal/fixture"
)

// Seed inserts a fixture in one transaction. It does not upsert: a run that collides with a
// stored document ID or tag slug fails and writes nothing. Documents without an ID get a
// random UUID. Articles marked deleted are written and then soft deleted.
func Seed(ctx context.Context, db *gorm.DB, f fixture.Fixture) error {
	if db == nil {
		return eris.New("gorm DB is required")
	}

	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tags := make(map[string]TagRecord, len(f.Tags))
		for _, tag := range f.Tags {
			rec := TagRecord{DocumentID: documentID(tag.ID), Title: tag.Title, Slug: tag.Slug}
			if err := tx.Create(&rec).Error; err != nil {
				return eris.Wrapf(err, "creating tag %s", tag.Slug)
			}
			tags[tag.Slug] = rec
		}

		authors := make(map[string]uint)
		for _, author := range f.AuthorList() {
			rec := authorRecord(&author)
			if err := tx.Create(&rec).Error; err != nil {
				return eris.Wrapf(err, "creating author %s", author.Name)
			}
			authors[author.Name] = rec.ID
		}

		for _, doc := range f.Articles {
			rec := ArticleRecord{
				DocumentID:  documentID(doc.ID),
				Slug:        doc.Slug,
				Title:       doc.Title,
				Description: doc.Description,
				PublishedAt: doc.PublishedAt.UTC(),
				Body:        string(doc.Body),
				Draft:       doc.Draft,
			}
			if !doc.UpdatedAt.IsZero() {
				rec.UpdatedAt = doc.UpdatedAt.UTC()
			}
			if doc.MainImage != nil {
				rec.MainImageURL = doc.MainImage.URL
				rec.MainImageAlt = doc.MainImage.Alt
			}

			if doc.Author != nil {
				id := authors[doc.Author.Name]
				rec.AuthorID = &id
			}

			for _, slug := range doc.Tags {
				tag, ok := tags[slug]
				if !ok {
					return eris.Errorf("article %s references unknown tag %s", doc.Slug, slug)
				}
				rec.Tags = append(rec.Tags, tag)
			}

			if err := tx.Create(&rec).Error; err != nil {
				return eris.Wrapf(err, "creating article %s", doc.Slug)
			}

			if doc.Deleted {
				if err := tx.Delete(&rec).Error; err != nil {
					return eris.Wrapf(err, "deleting article %s", doc.Slug)
				}
			}
		}

		return nil
	})
}

func documentID(id string) string {
	if id != "" {
		return id
	}
	return uuid.NewString()
}

func authorRecord(author *content.Author) AuthorRecord {
	rec := AuthorRecord{
		Name:     author.Name,
		Mail:     author.Mail,
		GitHub:   author.GitHub,
		X:        author.X,
		LinkedIn: author.LinkedIn,
	}
	if author.Image != nil {
		rec.ImageURL = author.Image.URL
		rec.ImageAlt = author.Image.Alt
	}
	return rec
}

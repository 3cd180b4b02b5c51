package gormstore

import (
	"time"

	"gorm.io/gorm"
)

// ArticleRecord is an article row. Soft-deleted rows are invisible to every query.
type ArticleRecord struct {
	gorm.Model
	DocumentID   string    `gorm:"size:64;uniqueIndex:idx_articles_document_id;not null"`
	Slug         string    `gorm:"size:255;index:idx_articles_slug;not null"`
	Title        string    `gorm:"size:255;not null"`
	Description  string    `gorm:"type:text"`
	PublishedAt  time.Time `gorm:"index:idx_articles_published_at;not null"`
	MainImageURL string    `gorm:"size:1024"`
	MainImageAlt string    `gorm:"size:255"`
	Body         string    `gorm:"type:text"`
	Draft        bool      `gorm:"not null;default:false"`
	AuthorID     *uint
	Author       *AuthorRecord
	Tags         []TagRecord `gorm:"many2many:article_tags;joinForeignKey:ArticleID;joinReferences:TagID"`
}

// TableName defines the table name for ArticleRecord.
func (ArticleRecord) TableName() string {
	return "articles"
}

// TagRecord is a tag row. Post counts are never stored; they are computed per query.
type TagRecord struct {
	gorm.Model
	DocumentID string `gorm:"size:64;uniqueIndex:idx_tags_document_id;not null"`
	Title      string `gorm:"size:255;not null"`
	Slug       string `gorm:"size:255;uniqueIndex:idx_tags_slug;not null"`
}

// TableName defines the table name for TagRecord.
func (TagRecord) TableName() string {
	return "tags"
}

// AuthorRecord is an author row.
type AuthorRecord struct {
	gorm.Model
	Name     string `gorm:"size:255;not null"`
	ImageURL string `gorm:"size:1024"`
	ImageAlt string `gorm:"size:255"`
	Mail     string `gorm:"size:255"`
	GitHub   string `gorm:"column:github;size:1024"`
	X        string `gorm:"column:x;size:1024"`
	LinkedIn string `gorm:"column:linkedin;size:1024"`
}

// TableName defines the table name for AuthorRecord.
func (AuthorRecord) TableName() string {
	return "authors"
}

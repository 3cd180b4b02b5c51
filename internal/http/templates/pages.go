package templates

import (
	"context"
	"io"
	"strconv"

	"github.com/a-h/templ"
)

func layout(siteTitle, title string, body func(p *pageWriter)) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if siteTitle == "" {
			siteTitle = DefaultSiteTitle
		}

		p := &pageWriter{w: w}
		p.raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
		p.raw(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		p.element("title", "", title)
		p.raw(`</head><body><header><nav>`)
		p.link("/", siteTitle)
		p.raw(" ")
		p.link("/blog", "Blog")
		p.raw(" ")
		p.link("/tags", "Tags")
		p.raw(" ")
		p.link("/about", "About")
		p.raw(`</nav></header><main>`)
		body(p)
		p.raw(`</main></body></html>`)
		return p.err
	})
}

// ListPage renders a listing of article cards with optional pagination links.
func ListPage(data ListPageData) templ.Component {
	return layout(data.SiteTitle, data.Title, func(p *pageWriter) {
		p.element("h1", "", data.Title)

		if len(data.Articles) == 0 {
			empty := data.EmptyText
			if empty == "" {
				empty = "No posts found."
			}
			p.element("p", ` class="empty"`, empty)
		} else {
			p.raw(`<ul class="articles">`)
			for _, article := range data.Articles {
				p.raw(`<li><article>`)
				writeCard(p, article)
				p.raw(`</article></li>`)
			}
			p.raw(`</ul>`)
		}

		if data.Pagination != nil && data.Pagination.TotalPages > 1 {
			writePagination(p, *data.Pagination)
		}
	})
}

func writeCard(p *pageWriter, article ArticleCardView) {
	p.raw(`<h2>`)
	p.link(article.URL, article.Title)
	p.raw(`</h2>`)
	if article.Draft {
		p.element("span", ` class="draft"`, "Draft")
	}
	p.date(article.PublishedAt)
	if article.Description != "" {
		p.element("p", "", article.Description)
	}
	writeTags(p, article.Tags)
}

func writeTags(p *pageWriter, tags []TagLinkView) {
	if len(tags) == 0 {
		return
	}
	p.raw(`<ul class="tags">`)
	for _, tag := range tags {
		p.raw(`<li>`)
		p.link(tag.URL, tag.Title)
		p.raw(`</li>`)
	}
	p.raw(`</ul>`)
}

func writePagination(p *pageWriter, pagination PaginationView) {
	p.raw(`<nav class="pagination">`)
	if pagination.HasPrevious && pagination.PreviousURL != "" {
		p.raw(`<a rel="prev" href="` + templ.EscapeString(pagination.PreviousURL) + `">Previous</a>`)
	}
	p.element("span", "", strconv.Itoa(pagination.CurrentPage)+" of "+strconv.Itoa(pagination.TotalPages))
	if pagination.HasNext && pagination.NextURL != "" {
		p.raw(`<a rel="next" href="` + templ.EscapeString(pagination.NextURL) + `">Next</a>`)
	}
	p.raw(`</nav>`)
}

// ArticlePage renders a single article with links to its neighbors.
func ArticlePage(data ArticlePageData) templ.Component {
	return layout(data.SiteTitle, data.Article.Title, func(p *pageWriter) {
		p.raw(`<article>`)
		p.element("h1", "", data.Article.Title)
		if data.Article.Draft {
			p.element("span", ` class="draft"`, "Draft")
		}
		p.date(data.Article.PublishedAt)
		if data.AuthorName != "" {
			p.element("p", ` class="author"`, data.AuthorName)
		}
		if data.ImageURL != "" {
			p.raw(`<img src="` + templ.EscapeString(data.ImageURL) + `" alt="` + templ.EscapeString(data.ImageAlt) + `">`)
		}
		writeTags(p, data.Article.Tags)
		p.raw(`<div class="body">`)
		p.raw(data.BodyHTML)
		p.raw(`</div></article>`)

		if data.Previous == nil && data.Next == nil {
			return
		}
		p.raw(`<nav class="neighbors">`)
		if data.Previous != nil {
			p.raw(`<a rel="prev" href="` + templ.EscapeString(data.Previous.URL) + `">`)
			p.text(data.Previous.Title)
			p.raw(`</a>`)
		}
		if data.Next != nil {
			p.raw(`<a rel="next" href="` + templ.EscapeString(data.Next.URL) + `">`)
			p.text(data.Next.Title)
			p.raw(`</a>`)
		}
		p.raw(`</nav>`)
	})
}

// TagsPage renders the tag index with post counts.
func TagsPage(data TagsPageData) templ.Component {
	return layout(data.SiteTitle, "Tags", func(p *pageWriter) {
		p.element("h1", "", "Tags")
		if len(data.Tags) == 0 {
			p.element("p", ` class="empty"`, "No tags found.")
			return
		}
		p.raw(`<ul class="tags">`)
		for _, tag := range data.Tags {
			p.raw(`<li>`)
			p.link(tag.URL, tag.Title)
			p.element("span", ` class="count"`, "("+strconv.Itoa(tag.Count)+")")
			p.raw(`</li>`)
		}
		p.raw(`</ul>`)
	})
}

// AboutPage renders one card per author.
func AboutPage(data AboutPageData) templ.Component {
	return layout(data.SiteTitle, "About", func(p *pageWriter) {
		p.element("h1", "", "About")
		if len(data.Authors) == 0 {
			p.element("p", ` class="empty"`, "No authors yet.")
			return
		}
		for _, author := range data.Authors {
			p.raw(`<section class="author">`)
			if author.ImageURL != "" {
				p.raw(`<img src="` + templ.EscapeString(author.ImageURL) + `" alt="` + templ.EscapeString(author.ImageAlt) + `">`)
			}
			p.element("h2", "", author.Name)
			if len(author.Links) > 0 {
				p.raw(`<ul class="links">`)
				for _, link := range author.Links {
					p.raw(`<li>`)
					p.link(link.URL, link.Label)
					p.raw(`</li>`)
				}
				p.raw(`</ul>`)
			}
			p.raw(`</section>`)
		}
	})
}

// ErrorPage renders an error view.
func ErrorPage(data ErrorPageData) templ.Component {
	return layout(data.SiteTitle, data.Title, func(p *pageWriter) {
		p.raw(`<section class="error">`)
		p.element("h1", "", data.StatusLabel)
		p.element("p", "", data.Message)
		p.link("/", "Back to the latest posts")
		p.raw(`</section>`)
	})
}

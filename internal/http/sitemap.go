package http

import (
	"bytes"
	"context"
	"encoding/xml"
	stdhttp "net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/rotisserie/eris"
)

type sitemapURL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

type sitemapURLSet struct {
	XMLName xml.Name     `xml:"http://www.sitemaps.org/schemas/sitemap/0.9 urlset"`
	URLs    []sitemapURL `xml:"url"`
}

func (s *Server) registerSitemapRoute() {
	huma.Get(s.api, "/sitemap.xml", s.sitemapHandler, rawOperation(
		"Sitemap",
		xmlContentType,
		stdhttp.StatusServiceUnavailable,
	))
}

// sitemapHandler lists the static sections, every published article and every tag in use.
func (s *Server) sitemapHandler(ctx context.Context, _ *struct{}) (*htmlResponse, error) {
	articles, err := s.content.ListAllArticles(ctx)
	if err != nil {
		return s.contentErrorResponse(ctx, err, "building sitemap", nil), nil
	}
	tags, err := s.content.ListTags(ctx)
	if err != nil {
		return s.contentErrorResponse(ctx, err, "building sitemap", nil), nil
	}

	urls := []sitemapURL{
		{Loc: s.site.URL + "/"},
		{Loc: s.site.URL + "/blog"},
		{Loc: s.site.URL + "/tags"},
		{Loc: s.site.URL + "/about"},
	}
	for _, article := range articles {
		if article.Draft {
			continue
		}
		urls = append(urls, sitemapURL{
			Loc:     s.site.URL + articleURL(article.Slug),
			LastMod: lastModified(article).Format("2006-01-02"),
		})
	}
	for _, tag := range tags {
		if tag.PostCount == 0 {
			continue
		}
		urls = append(urls, sitemapURL{Loc: s.site.URL + tagURL(tag.Slug)})
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(sitemapURLSet{URLs: urls}); err != nil {
		s.recordError(ctx, eris.Wrap(err, "encoding sitemap"), "building sitemap", nil)
		return s.renderErrorResponse(ctx, stdhttp.StatusInternalServerError, errorFallbackMessage), nil
	}

	return &htmlResponse{
		Status:       stdhttp.StatusOK,
		ContentType:  xmlContentType,
		CacheControl: cacheControl(s.site.PostsRevalidate),
		Body:         buf.Bytes(),
	}, nil
}

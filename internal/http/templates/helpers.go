package templates

import (
	"context"
	"encoding/json"
	"io"
	"strings"
	"time"

	"github.com/a-h/templ"
	"github.com/tidwall/gjson"
)

// RawHTML returns a templ component that writes the provided HTML without escaping.
func RawHTML(html string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		_, err := io.WriteString(w, html)
		return err
	})
}

// pageWriter accumulates the first write error so markup can be emitted without checking
// every call.
type pageWriter struct {
	w   io.Writer
	err error
}

func (p *pageWriter) raw(s string) {
	if p.err != nil {
		return
	}
	_, p.err = io.WriteString(p.w, s)
}

func (p *pageWriter) text(s string) {
	p.raw(templ.EscapeString(s))
}

func (p *pageWriter) element(tag, attrs, body string) {
	p.raw("<" + tag + attrs + ">")
	p.text(body)
	p.raw("</" + tag + ">")
}

func (p *pageWriter) link(href, label string) {
	p.raw(`<a href="` + templ.EscapeString(href) + `">`)
	p.text(label)
	p.raw("</a>")
}

func (p *pageWriter) date(t time.Time) {
	if t.IsZero() {
		return
	}
	p.raw(`<time datetime="` + t.UTC().Format(time.RFC3339) + `">`)
	p.text(FormatDate(t))
	p.raw("</time>")
}

// FormatDate renders a publication date the way every page shows it.
func FormatDate(t time.Time) string {
	return t.UTC().Format("January 2, 2006")
}

var blockStyles = map[string]string{
	"h1":         "h2",
	"h2":         "h2",
	"h3":         "h3",
	"h4":         "h4",
	"blockquote": "blockquote",
}

// PortableTextHTML renders the text blocks of a portable-text body as escaped HTML. Block
// types other than text blocks are skipped.
func PortableTextHTML(body json.RawMessage) string {
	if len(body) == 0 || !gjson.ValidBytes(body) {
		return ""
	}

	var b strings.Builder
	listOpen := ""

	closeList := func() {
		if listOpen != "" {
			b.WriteString("</" + listOpen + ">")
			listOpen = ""
		}
	}

	for _, block := range gjson.ParseBytes(body).Array() {
		if block.Get("_type").String() != "block" {
			continue
		}

		var text strings.Builder
		for _, span := range block.Get("children").Array() {
			segment := templ.EscapeString(span.Get("text").String())
			for _, mark := range span.Get("marks").Array() {
				switch mark.String() {
				case "strong":
					segment = "<strong>" + segment + "</strong>"
				case "em":
					segment = "<em>" + segment + "</em>"
				case "code":
					segment = "<code>" + segment + "</code>"
				}
			}
			text.WriteString(segment)
		}

		if list := block.Get("listItem").String(); list != "" {
			tag := "ul"
			if list == "number" {
				tag = "ol"
			}
			if listOpen != tag {
				closeList()
				b.WriteString("<" + tag + ">")
				listOpen = tag
			}
			b.WriteString("<li>" + text.String() + "</li>")
			continue
		}
		closeList()

		tag, ok := blockStyles[block.Get("style").String()]
		if !ok {
			tag = "p"
		}
		b.WriteString("<" + tag + ">" + text.String() + "</" + tag + ">")
	}
	closeList()

	return b.String()
}

package probe

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/nao1215/sitecheck/internal/model"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Content is the captured body parsed once and shared by the content
// probes (content type, title, error scan, meta refresh, platform markers).
type Content struct {
	fetch model.Fetch

	// doc is nil when there is no body or it could not be parsed.
	doc *goquery.Document

	// lower is the body lowercased with Unicode case folding rules.
	lower string
}

// NewContent parses the fetched body. It never fails; an unparseable body
// leaves the HTML-derived results unknown.
func NewContent(fetch model.Fetch) *Content {
	c := &Content{fetch: fetch}
	if !fetch.HasBody {
		return c
	}
	c.lower = cases.Lower(language.Und).String(fetch.Body)

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fetch.Body))
	if err == nil {
		c.doc = doc
	}
	return c
}

// HasBody reports whether a body was captured.
func (c *Content) HasBody() bool {
	return c.fetch.HasBody
}

// ContentType returns the Content-Type header of the response that
// produced the body, or model.NotAvailable.
func (c *Content) ContentType() string {
	if !c.fetch.HasBody || strings.TrimSpace(c.fetch.ContentType) == "" {
		return model.NotAvailable
	}
	return c.fetch.ContentType
}

// Title returns the trimmed text of the first <title> element, or
// model.NotAvailable when there is none.
func (c *Content) Title() string {
	if c.doc == nil {
		return model.NotAvailable
	}
	sel := c.doc.Find("title").First()
	if sel.Length() == 0 {
		return model.NotAvailable
	}
	title := strings.TrimSpace(sel.Text())
	if title == "" {
		return model.NotAvailable
	}
	return title
}

// ErrorScan reports which keywords occur in the lowercased body.
// Matches follow keyword order, not occurrence order.
func (c *Content) ErrorScan(keywords []string) model.ErrorScan {
	result := model.ErrorScan{Matches: []string{}}
	if !c.fetch.HasBody {
		return result
	}
	result.Known = true

	lower := cases.Lower(language.Und)
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		if strings.Contains(c.lower, lower.String(kw)) {
			result.Matches = append(result.Matches, kw)
		}
	}
	return result
}

// MetaRefresh reports whether a <meta http-equiv="refresh"> element exists.
func (c *Content) MetaRefresh() model.MetaRefresh {
	if c.doc == nil {
		return model.MetaRefresh{}
	}
	present := c.doc.Find("meta[http-equiv]").FilterFunction(func(_ int, s *goquery.Selection) bool {
		v, _ := s.Attr("http-equiv")
		return strings.EqualFold(strings.TrimSpace(v), "refresh")
	}).Length() > 0
	return model.MetaRefresh{Known: true, Present: present}
}

// Generator returns the content of <meta name="generator">, or empty.
func (c *Content) Generator() string {
	if c.doc == nil {
		return ""
	}
	var generator string
	c.doc.Find("meta[name]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		name, _ := s.Attr("name")
		if !strings.EqualFold(strings.TrimSpace(name), "generator") {
			return true
		}
		generator, _ = s.Attr("content")
		return false
	})
	return generator
}

// contains reports whether the lowercased body contains marker.
func (c *Content) contains(marker string) bool {
	return c.fetch.HasBody && strings.Contains(c.lower, marker)
}

// ErrorScan scans the content with the prober's keyword list.
func (p *Prober) ErrorScan(content *Content) model.ErrorScan {
	return content.ErrorScan(p.errorKeywords)
}

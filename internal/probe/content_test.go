package probe

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/nao1215/sitecheck/internal/model"
)

func htmlFetch(body string) model.Fetch {
	return model.Fetch{Body: body, HasBody: true, ContentType: "text/html", StatusCode: 200}
}

func TestContentTitle(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		fetch model.Fetch
		want  string
	}{
		{"trimmed title", htmlFetch("<html><head><title>\n  Hello World \n</title></head></html>"), "Hello World"},
		{"first title wins", htmlFetch("<title>One</title><title>Two</title>"), "One"},
		{"missing title", htmlFetch("<html><body>no title</body></html>"), model.NotAvailable},
		{"empty title", htmlFetch("<title>   </title>"), model.NotAvailable},
		{"no body", model.Fetch{}, model.NotAvailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := NewContent(tt.fetch).Title(); got != tt.want {
				t.Errorf("Title() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestContentType(t *testing.T) {
	t.Parallel()

	if got := NewContent(htmlFetch("x")).ContentType(); got != "text/html" {
		t.Errorf("got %q, want text/html", got)
	}
	if got := NewContent(model.Fetch{HasBody: true}).ContentType(); got != model.NotAvailable {
		t.Errorf("got %q, want N/A for missing header", got)
	}
	if got := NewContent(model.Fetch{ContentType: "text/html"}).ContentType(); got != model.NotAvailable {
		t.Errorf("got %q, want N/A without a body", got)
	}
}

func TestContentErrorScan(t *testing.T) {
	t.Parallel()

	t.Run("matches follow keyword order", func(t *testing.T) {
		t.Parallel()

		c := NewContent(htmlFetch("Site under MAINTENANCE. Error 503. Page Not Found."))
		got := c.ErrorScan(DefaultErrorKeywords)

		want := model.ErrorScan{Known: true, Matches: []string{"not found", "error", "503", "maintenance"}}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("clean body", func(t *testing.T) {
		t.Parallel()

		got := NewContent(htmlFetch("<p>all good</p>")).ErrorScan(DefaultErrorKeywords)
		if !got.Clean() {
			t.Errorf("got %+v, want clean", got)
		}
	})

	t.Run("missing body is unknown", func(t *testing.T) {
		t.Parallel()

		got := NewContent(model.Fetch{}).ErrorScan(DefaultErrorKeywords)
		if got.Known || got.Clean() {
			t.Errorf("got %+v, want unknown", got)
		}
	})

	t.Run("custom keywords", func(t *testing.T) {
		t.Parallel()

		p := newTestProber(WithErrorKeywords([]string{"Oops"}))
		got := p.ErrorScan(NewContent(htmlFetch("oops, something broke")))
		if diff := cmp.Diff([]string{"Oops"}, got.Matches); diff != "" {
			t.Errorf("mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestContentMetaRefresh(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		fetch model.Fetch
		want  model.MetaRefresh
	}{
		{"present", htmlFetch(`<meta http-equiv="Refresh" content="0; url=/next">`), model.MetaRefresh{Known: true, Present: true}},
		{"other http-equiv", htmlFetch(`<meta http-equiv="content-type" content="text/html">`), model.MetaRefresh{Known: true}},
		{"absent", htmlFetch("<html></html>"), model.MetaRefresh{Known: true}},
		{"no body", model.Fetch{}, model.MetaRefresh{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := NewContent(tt.fetch).MetaRefresh(); got != tt.want {
				t.Errorf("MetaRefresh() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestContentGenerator(t *testing.T) {
	t.Parallel()

	c := NewContent(htmlFetch(`<meta name="viewport" content="x"><meta name="Generator" content="WordPress 6.5">`))
	if got := c.Generator(); got != "WordPress 6.5" {
		t.Errorf("got %q, want WordPress 6.5", got)
	}
	if got := NewContent(htmlFetch("<html></html>")).Generator(); got != "" {
		t.Errorf("got %q, want empty", got)
	}
}

package head

import (
	"strings"
	"testing"
)

func TestRender(t *testing.T) {
	b := New()
	b.SetTitle("Draft")
	b.SetTitle(`Book <now>`)
	b.Meta("description", `Ask "us" anything`)
	b.Meta("description", "ignored duplicate")
	b.Stylesheet("/static/app.css")
	b.Stylesheet("/static/app.css")
	if err := b.JSONLD(map[string]string{"@type": "Service", "name": "</script>"}); err != nil {
		t.Fatalf("JSONLD: %v", err)
	}

	got := string(b.Render())
	for _, want := range []string{
		"<title>Book &lt;now&gt;</title>",
		`<meta name="description" content="Ask &#34;us&#34; anything">`,
		`<link rel="stylesheet" href="/static/app.css">`,
		`<script type="application/ld+json">`,
		`</script>`,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("Render() lacks %s\n%s", want, got)
		}
	}
	if strings.Count(got, "<meta") != 1 || strings.Count(got, "<link") != 1 {
		t.Errorf("duplicates not suppressed:\n%s", got)
	}
	if b.Title() != "Book <now>" {
		t.Errorf("Title() = %q", b.Title())
	}
}

func TestRenderEmpty(t *testing.T) {
	if got := New().Render(); got != "" {
		t.Fatalf("empty Render() = %q", got)
	}
}

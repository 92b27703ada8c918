package blocks

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/codr1/biolink/internal/render"
)

func TestRenderBuiltInPage(t *testing.T) {
	page := render.Page{
		Root: render.Node{Type: TypeProfileHeader, Props: map[string]any{"name": "Ada <3", "bio": "Engines"}},
		Content: []render.Node{
			{Type: TypeLinkButton, Props: map[string]any{"title": "Site", "url": "https://example.com", "openInNewTab": true}},
			{Type: TypeLinkButton, Props: map[string]any{"title": "Bad", "url": "javascript:alert(1)"}},
			{Type: TypeSpacer, Props: map[string]any{"height": "lg"}},
			{Type: "Carousel", Props: map[string]any{"items": 3}},
			{Type: TypeTextBlock, Props: map[string]any{"content": 42, "alignment": "justify"}},
		},
	}

	var buf bytes.Buffer
	if err := NewRegistry().RenderPage(page, nil).Render(context.Background(), &buf); err != nil {
		t.Fatalf("RenderPage: %v", err)
	}
	html := buf.String()

	for _, want := range []string{
		"<h1>Ada &lt;3</h1>",
		`href="https://example.com" rel="noopener" target="_blank"`,
		`href="#" rel="noopener" style=`,
		"var(--primary-foreground)",
		`<div class="spacer" style="height:2rem;"></div>`,
		`<p class="text-block" style="color:var(--foreground);text-align:left;"></p>`,
	} {
		if !strings.Contains(html, want) {
			t.Fatalf("page missing %q:\n%s", want, html)
		}
	}
	if strings.Contains(html, "javascript:") {
		t.Fatal("unsafe link scheme rendered")
	}
	if strings.Index(html, "<header") != 0 {
		t.Fatal("root block must render first")
	}
}
